package session_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/okian/rendezvous/internal/adapters/session"
	. "github.com/smartystreets/goconvey/convey"
)

func TestKey(t *testing.T) {
	Convey("Given a session id", t, func() {
		So(session.Key("abc", "partner_history"), ShouldEqual, "rendezvous:abc:partner_history")
	})
}

func TestMemoryStore(t *testing.T) {
	Convey("Given a memory store", t, func() {
		ctx := context.Background()
		s := session.NewMemoryStore()

		Convey("When a key was never set", func() {
			v, ok, err := s.Get(ctx, "missing")

			Convey("Then it reports absence without error", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
				So(v, ShouldBeNil)
			})
		})

		Convey("When a value is set", func() {
			buf := []byte(`["a","b"]`)
			So(s.Set(ctx, "k", buf), ShouldBeNil)
			buf[0] = 'X'

			Convey("Then it reads back a copy unaffected by caller mutation", func() {
				v, ok, err := s.Get(ctx, "k")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(string(v), ShouldEqual, `["a","b"]`)

				v[0] = 'Y'
				again, _, _ := s.Get(ctx, "k")
				So(string(again), ShouldEqual, `["a","b"]`)
				So(s.Len(), ShouldEqual, 1)
			})

			Convey("And deleting it removes the value", func() {
				So(s.Delete(ctx, "k"), ShouldBeNil)
				_, ok, _ := s.Get(ctx, "k")
				So(ok, ShouldBeFalse)
				So(s.Delete(ctx, "k"), ShouldBeNil)
			})
		})

		Convey("When the TTL elapses", func() {
			short := session.NewMemoryStore(session.WithTTL(20*time.Millisecond), session.WithCleanupInterval(time.Hour))
			So(short.Set(ctx, "k", []byte("v")), ShouldBeNil)
			time.Sleep(40 * time.Millisecond)

			Convey("Then the value is gone", func() {
				_, ok, _ := short.Get(ctx, "k")
				So(ok, ShouldBeFalse)
			})
		})
	})
}

// Runs only when RENDEZVOUS_TEST_REDIS_URL points at a disposable Redis.
func TestRedisStore(t *testing.T) {
	url := os.Getenv("RENDEZVOUS_TEST_REDIS_URL")
	if url == "" {
		t.Skip("RENDEZVOUS_TEST_REDIS_URL not set")
	}

	Convey("Given a redis store", t, func() {
		ctx := context.Background()
		s, err := session.DialRedis(ctx, url, time.Minute)
		So(err, ShouldBeNil)
		defer func() { _ = s.Close() }()

		key := session.Key(uuid.NewString(), "partner_history")

		Convey("When setting and reading a value", func() {
			So(s.Set(ctx, key, []byte(`["42"]`)), ShouldBeNil)
			v, ok, err := s.Get(ctx, key)

			Convey("Then it round-trips", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(string(v), ShouldEqual, `["42"]`)
			})

			Convey("And delete removes it", func() {
				So(s.Delete(ctx, key), ShouldBeNil)
				_, ok, err := s.Get(ctx, key)
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestDialRedisBadURL(t *testing.T) {
	Convey("Given a malformed redis url", t, func() {
		_, err := session.DialRedis(context.Background(), "not-a-url", time.Minute)

		Convey("Then dialing fails as unavailable", func() {
			So(errors.Is(err, session.ErrUnavailable), ShouldBeTrue)
		})
	})
}
