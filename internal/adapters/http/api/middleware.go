package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/rendezvous/pkg/metrics"
)

// Error codes that are part of normal browsing rather than faults: polling
// the detail panel before a selection, or calling the API before login.
var expectedErrorCodes = map[string]bool{ //nolint:gochecknoglobals // read-only lookup
	"no_selection":  true,
	"not_logged_in": true,
}

// MetricsMiddleware records request count and latency per route. Failed
// requests are also counted by the error code the handler answered with.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		durationMs := float64(time.Since(start).Milliseconds())
		status := strconv.Itoa(wrapped.statusCode)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, durationMs)

		if wrapped.statusCode < http.StatusBadRequest {
			return
		}
		code := wrapped.errorCode
		if code == "" {
			code = errorCodeForStatus(wrapped.statusCode)
		}
		metrics.RecordErrorByEndpoint(endpoint, r.Method, code)
		metrics.RecordErrorByType(code, errorSeverity(code, wrapped.statusCode))
	}
}

// errorCodeForStatus names failures written without writeError.
func errorCodeForStatus(status int) string {
	if status >= http.StatusInternalServerError {
		return "server_error"
	}
	return "client_error"
}

func errorSeverity(code string, status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "high"
	case expectedErrorCodes[code]:
		return "low"
	default:
		return "medium"
	}
}

// responseWriter captures the status code and the API error code of a
// response.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	errorCode  string
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}

// tagErrorCode hands the error code to MetricsMiddleware when w came
// through it.
func tagErrorCode(w http.ResponseWriter, code string) {
	if rw, ok := w.(*responseWriter); ok {
		rw.errorCode = code
	}
}
