package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/rendezvous/internal/domain/types"
	"github.com/okian/rendezvous/pkg/logger"
)

const (
	pollInterval = 50 * time.Millisecond
	maxBody      = 8 << 20
)

// client wraps http.Client with the base URL of the service.
type client struct {
	http *http.Client
	base string
}

func newClient(cfg ProbeConfig) *client {
	return &client{
		http: &http.Client{Timeout: cfg.Timeout},
		base: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// do sends a request and decodes a JSON response into out when it is not nil.
func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s %s answered %d: %s", ErrProbe, method, path, resp.StatusCode, bytes.TrimSpace(raw))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Probe walks a live service the way a browser session would: health
// check, login, ranked list, select the best match, wait for its detail,
// read the history and log out.
func Probe(ctx context.Context, cfg ProbeConfig) (ProbeReport, error) {
	start := time.Now()
	c := newClient(cfg)
	log := logger.GetOrNop().Named("probe")
	report := ProbeReport{UserID: cfg.UserID}

	if err := c.do(ctx, http.MethodGet, "/healthz", nil, nil); err != nil {
		return report, fmt.Errorf("health check: %w", err)
	}

	var st types.State
	if err := c.do(ctx, http.MethodPost, "/session/login", map[string]string{"user_id": cfg.UserID}, &st); err != nil {
		return report, fmt.Errorf("login: %w", err)
	}
	defer func() {
		if err := c.do(context.WithoutCancel(ctx), http.MethodPost, "/session/logout", nil, nil); err != nil {
			log.Warn(ctx, "logout failed", logger.Error(err))
		}
	}()

	var list types.PartnerList
	if err := c.do(ctx, http.MethodGet, "/partners", nil, &list); err != nil {
		return report, fmt.Errorf("partners: %w", err)
	}
	report.Partners = list.Total
	report.Truncated = list.Truncated
	if len(list.Rows) == 0 || list.Rows[0].ID == "" {
		return report, fmt.Errorf("%w: %s has no partners", ErrProbe, cfg.UserID)
	}
	if err := checkOrder(list); err != nil {
		return report, err
	}

	top := list.Rows[0].ID
	if err := c.do(ctx, http.MethodPost, "/partners/"+url.PathEscape(top)+"/select", nil, &st); err != nil {
		return report, fmt.Errorf("select: %w", err)
	}
	report.Selected = top

	detail, err := waitForDetail(ctx, c, cfg.DetailWait)
	if err != nil {
		return report, err
	}
	report.ProfileStatus = string(detail.Profile.Status)
	report.PointsStatus = string(detail.TalkingPoints.Status)

	var history struct {
		Items []types.HistoryItem `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/history", nil, &history); err != nil {
		return report, fmt.Errorf("history: %w", err)
	}
	report.History = len(history.Items)
	if report.History == 0 || history.Items[0].ID != top {
		return report, fmt.Errorf("%w: history does not start with %s", ErrProbe, top)
	}

	report.Duration = time.Since(start)
	log.Info(ctx, "probe completed",
		logger.String("user_id", report.UserID),
		logger.Int("partners", report.Partners),
		logger.String("selected", report.Selected),
		logger.String("profile", report.ProfileStatus),
		logger.String("talking_points", report.PointsStatus),
		logger.Duration("duration", report.Duration))
	return report, nil
}

// checkOrder verifies the visible rows never rise in similarity.
func checkOrder(list types.PartnerList) error {
	prev := 2.0
	for i, row := range list.Rows {
		if row.Separator {
			continue
		}
		if row.Similarity > prev {
			return fmt.Errorf("%w: row %d (%s) ranks above a less similar partner", ErrProbe, i, row.ID)
		}
		prev = row.Similarity
	}
	return nil
}

// waitForDetail polls the detail panel until no part is pending.
func waitForDetail(ctx context.Context, c *client, wait time.Duration) (types.Detail, error) {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		var d types.Detail
		if err := c.do(ctx, http.MethodGet, "/detail", nil, &d); err != nil {
			return d, fmt.Errorf("detail: %w", err)
		}
		if d.Profile.Status != types.StatusPending && d.TalkingPoints.Status != types.StatusPending {
			return d, nil
		}
		select {
		case <-ctx.Done():
			return d, fmt.Errorf("%w: detail still pending after %s", ErrProbe, wait)
		case <-ticker.C:
		}
	}
}
