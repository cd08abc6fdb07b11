package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/rendezvous/internal/adapters/repository"
	"github.com/okian/rendezvous/internal/adapters/session"
	service "github.com/okian/rendezvous/internal/app"
	"github.com/okian/rendezvous/internal/domain/model"
	"github.com/okian/rendezvous/internal/domain/types"
	"github.com/okian/rendezvous/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type staticSource struct{ data string }

func (s staticSource) Fetch(context.Context) ([]byte, error) { return []byte(s.data), nil }
func (s staticSource) Name() string                          { return "static" }

const roster = `[
  {"ID": "S1", "Name": "Self"},
  {"ID": "A", "Name": "Alice"},
  {"ID": "B", "Name": "Bob"},
  {"ID": "C", "Name": "Carol"},
  {"ID": 42, "Name": "Douglas"}
]`

const pairs = `{
  "S1": {
    "A": {"distance": 0.1},
    "B": {"distance": 0.5, "opening_line": "Hi Bob", "discussion_points": ["graphs"]},
    "C": {"distance": 0.9}
  },
  "A": {"S1": {"distance": 0.1}}
}`

func newRepo() *repository.DatasetStore {
	return repository.NewDatasetStore(staticSource{roster}, staticSource{pairs})
}

func ids(list types.PartnerList) []string {
	out := []string{}
	for _, r := range list.Rows {
		if !r.Separator {
			out = append(out, r.ID)
		}
	}
	return out
}

func TestLogin(t *testing.T) {
	Convey("Given a controller", t, func() {
		ctx := context.Background()
		svc := service.New(newRepo())

		Convey("Then discovery requires a login", func() {
			_, err := svc.Partners(ctx, false)
			So(errors.Is(err, service.ErrNotLoggedIn), ShouldBeTrue)
			_, err = svc.ToggleProfile(ctx)
			So(errors.Is(err, service.ErrNotLoggedIn), ShouldBeTrue)
			So(svc.State(ctx).LoggedIn, ShouldBeFalse)
		})

		Convey("When logging in with an empty or unknown id", func() {
			_, errEmpty := svc.Login(ctx, "  ")
			_, errUnknown := svc.Login(ctx, "nobody")

			Convey("Then both are unknown users", func() {
				So(errors.Is(errEmpty, repository.ErrUnknownUser), ShouldBeTrue)
				So(errors.Is(errUnknown, repository.ErrUnknownUser), ShouldBeTrue)
				So(svc.State(ctx).LoggedIn, ShouldBeFalse)
			})
		})

		Convey("When logging in as S1", func() {
			st, err := svc.Login(ctx, " S1 ")

			Convey("Then the ranked list is shown", func() {
				So(err, ShouldBeNil)
				So(st, ShouldResemble, types.State{Panel: "ranked_list", UserID: "S1", LoggedIn: true})
			})

			Convey("Then partners are ranked by similarity", func() {
				list, err := svc.Partners(ctx, false)
				So(err, ShouldBeNil)
				So(ids(list), ShouldResemble, []string{"A", "B", "C"})
				So(list.Rows[0].Similarity, ShouldAlmostEqual, 0.9, 1e-9)
				So(list.Rows[0].Band, ShouldEqual, "High")
				So(list.Truncated, ShouldBeFalse)
			})

			Convey("Then the self profile is the logged in user", func() {
				u, err := svc.SelfProfile(ctx)
				So(err, ShouldBeNil)
				So(u.Name, ShouldEqual, "Self")
			})
		})

		Convey("When a user without pairings logs in", func() {
			_, err := svc.Login(ctx, "B")

			Convey("Then login succeeds but the partner list is an unknown user", func() {
				So(err, ShouldBeNil)
				_, err := svc.Partners(ctx, false)
				So(errors.Is(err, repository.ErrUnknownUser), ShouldBeTrue)
			})
		})
	})
}

func TestSelectPartner(t *testing.T) {
	Convey("Given S1 logged in on the ranked list", t, func() {
		ctx := context.Background()
		svc := service.New(newRepo())
		_, err := svc.Login(ctx, "S1")
		So(err, ShouldBeNil)

		Convey("When selecting B", func() {
			st, err := svc.SelectPartner(ctx, "B")

			Convey("Then B is recorded and the detail panel opens", func() {
				So(err, ShouldBeNil)
				So(st.Panel, ShouldEqual, "partner_detail")
				So(st.SelectedPartnerID, ShouldEqual, "B")

				history, err := svc.History(ctx)
				So(err, ShouldBeNil)
				So(history, ShouldResemble, []types.HistoryItem{{ID: "B", Name: "Bob"}})
			})

			Convey("Then the detail is pending until resolution arrives", func() {
				d, err := svc.Detail(ctx)
				So(err, ShouldBeNil)
				So(d.Name, ShouldEqual, "Bob")
				So(*d.Similarity, ShouldAlmostEqual, 0.5, 1e-9)
				So(d.Band, ShouldEqual, "Moderate")
				So(d.Profile.Status, ShouldEqual, types.StatusPending)
				So(d.TalkingPoints.Status, ShouldEqual, types.StatusPending)
			})

			Convey("And a matching result is applied part by part", func() {
				svc.Deliver(ctx, model.ResolveResult{
					Job:              model.ResolveJob{Seq: 1, SelfID: "S1", PartnerID: "B"},
					Profile:          &model.User{ID: "B", Name: "Bob"},
					TalkingPointsErr: repository.ErrNotFound,
				})

				d, err := svc.Detail(ctx)
				So(err, ShouldBeNil)
				So(d.Profile.Status, ShouldEqual, types.StatusReady)
				So(d.Profile.Data.Name, ShouldEqual, "Bob")
				So(d.TalkingPoints.Status, ShouldEqual, types.StatusError)
				So(d.TalkingPoints.Error, ShouldNotBeEmpty)
			})

			Convey("And back clears the selection", func() {
				st, err := svc.Back(ctx)
				So(err, ShouldBeNil)
				So(st.Panel, ShouldEqual, "ranked_list")
				So(st.SelectedPartnerID, ShouldBeEmpty)
				_, err = svc.Detail(ctx)
				So(errors.Is(err, service.ErrNoSelection), ShouldBeTrue)
			})
		})

		Convey("When a result arrives after the selection changed", func() {
			_, _ = svc.SelectPartner(ctx, "B")
			_, _ = svc.Back(ctx)
			_, _ = svc.SelectPartner(ctx, "C")

			svc.Deliver(ctx, model.ResolveResult{
				Job:     model.ResolveJob{Seq: 1, SelfID: "S1", PartnerID: "B"},
				Profile: &model.User{ID: "B", Name: "Bob"},
			})

			Convey("Then it is discarded", func() {
				d, err := svc.Detail(ctx)
				So(err, ShouldBeNil)
				So(d.PartnerID, ShouldEqual, "C")
				So(d.Profile.Status, ShouldEqual, types.StatusPending)
				So(svc.GetStats(ctx).Discarded, ShouldEqual, 1)
			})
		})

		Convey("When selecting an id missing from the roster", func() {
			_, err := svc.SelectPartner(ctx, "ghost")

			Convey("Then nothing changes", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(svc.State(ctx).Panel, ShouldEqual, "ranked_list")
				history, _ := svc.History(ctx)
				So(history, ShouldBeEmpty)
			})
		})

		Convey("When selecting while the self profile is open", func() {
			_, _ = svc.ToggleProfile(ctx)
			st, err := svc.SelectPartner(ctx, "A")

			Convey("Then the event is ignored and not recorded", func() {
				So(err, ShouldBeNil)
				So(st.Panel, ShouldEqual, "self_profile")
				history, _ := svc.History(ctx)
				So(history, ShouldBeEmpty)
			})
		})

		Convey("When selecting a roster user without a pairing from history", func() {
			_, _ = svc.ToggleHistory(ctx)
			st, err := svc.SelectPartner(ctx, "42")

			Convey("Then history gives way to the detail panel", func() {
				So(err, ShouldBeNil)
				So(st.Panel, ShouldEqual, "partner_detail")
				So(st.SelectedPartnerID, ShouldEqual, "42")
				d, _ := svc.Detail(ctx)
				So(d.Name, ShouldEqual, "Douglas")
				So(d.Similarity, ShouldBeNil)
			})
		})

		Convey("When toggling profile from history twice", func() {
			_, _ = svc.ToggleHistory(ctx)
			first, _ := svc.ToggleProfile(ctx)
			second, _ := svc.ToggleProfile(ctx)

			Convey("Then profile replaces history and then closes", func() {
				So(first.Panel, ShouldEqual, "self_profile")
				So(second.Panel, ShouldEqual, "ranked_list")
			})
		})
	})
}

func TestLogout(t *testing.T) {
	Convey("Given S1 with history viewing a partner", t, func() {
		ctx := context.Background()
		store := session.NewMemoryStore()
		svc := service.New(newRepo(), service.WithSessionStore(store))
		_, _ = svc.Login(ctx, "S1")
		_, _ = svc.SelectPartner(ctx, "A")
		_, _ = svc.Back(ctx)
		_, _ = svc.SelectPartner(ctx, "B")
		oldSession := svc.SessionID()

		Convey("When logging out", func() {
			st := svc.Logout(ctx)

			Convey("Then everything is reset", func() {
				So(st, ShouldResemble, types.State{Panel: "ranked_list"})
				So(svc.SessionID(), ShouldNotEqual, oldSession)
				So(store.Len(), ShouldEqual, 0)
			})

			Convey("And a new login starts with empty history", func() {
				_, err := svc.Login(ctx, "S1")
				So(err, ShouldBeNil)
				history, err := svc.History(ctx)
				So(err, ShouldBeNil)
				So(history, ShouldBeEmpty)
			})
		})

		Convey("When another user logs in", func() {
			st, err := svc.Login(ctx, "A")

			Convey("Then the previous session is discarded", func() {
				So(err, ShouldBeNil)
				So(st.UserID, ShouldEqual, "A")
				So(st.Panel, ShouldEqual, "ranked_list")
				history, _ := svc.History(ctx)
				So(history, ShouldBeEmpty)
			})
		})
	})
}

func TestSessionResume(t *testing.T) {
	Convey("Given a session store holding an earlier login and history", t, func() {
		ctx := context.Background()
		store := session.NewMemoryStore()
		So(store.Set(ctx, session.Key("fixed", "user_id"), []byte("S1")), ShouldBeNil)
		So(store.Set(ctx, session.Key("fixed", "partner_history"), []byte(`["C","ghost","C","A"]`)), ShouldBeNil)

		svc := service.New(newRepo(), service.WithSessionStore(store), service.WithSessionID("fixed"))
		So(svc.Start(ctx), ShouldBeNil)

		Reset(func() {
			So(svc.Stop(ctx), ShouldBeNil)
		})

		Convey("Then the login and history are restored", func() {
			st := svc.State(ctx)
			So(st.LoggedIn, ShouldBeTrue)
			So(st.UserID, ShouldEqual, "S1")

			history, err := svc.History(ctx)
			So(err, ShouldBeNil)
			So(history, ShouldResemble, []types.HistoryItem{
				{ID: "C", Name: "Carol"},
				{ID: "ghost", Name: ""},
				{ID: "A", Name: "Alice"},
			})
		})
	})
}

type countingRepo struct {
	repository.Store
	loads atomic.Int32
}

func (c *countingRepo) Load(ctx context.Context, selfID string) ([]model.PartnerSummary, error) {
	c.loads.Add(1)
	return c.Store.Load(ctx, selfID)
}

func TestStats(t *testing.T) {
	Convey("Given a controller over a counting repository", t, func() {
		ctx := context.Background()
		repo := &countingRepo{Store: newRepo()}
		svc := service.New(repo)

		Convey("When S1 logs in and stats refresh repeatedly", func() {
			_, err := svc.Login(ctx, "S1")
			So(err, ShouldBeNil)
			loads := repo.loads.Load()
			var stats types.Stats
			for i := 0; i < 3; i++ {
				stats = svc.GetStats(ctx)
			}

			Convey("Then the partner count is served without reloading", func() {
				So(stats.Partners, ShouldEqual, 3)
				So(stats.RosterSize, ShouldEqual, 5)
				So(repo.loads.Load(), ShouldEqual, loads)
			})
		})

		Convey("When a user without pairings logs in", func() {
			_, err := svc.Login(ctx, "42")
			So(err, ShouldBeNil)
			loads := repo.loads.Load()
			stats := svc.GetStats(ctx)
			svc.GetStats(ctx)

			Convey("Then stats report no partners and do not retry the load", func() {
				So(stats.LoggedIn, ShouldBeTrue)
				So(stats.Partners, ShouldEqual, 0)
				So(repo.loads.Load(), ShouldEqual, loads)
			})
		})

		Convey("When the user logs out", func() {
			_, err := svc.Login(ctx, "S1")
			So(err, ShouldBeNil)
			svc.Logout(ctx)

			Convey("Then the partner count is cleared", func() {
				So(svc.GetStats(ctx).Partners, ShouldEqual, 0)
			})
		})
	})
}

func TestAsyncResolution(t *testing.T) {
	Convey("Given a started controller", t, func() {
		ctx := context.Background()
		svc := service.New(newRepo(), service.WithWorkerCount(2))
		So(svc.Start(ctx), ShouldBeNil)
		_, _ = svc.Login(ctx, "S1")

		Reset(func() {
			So(svc.Stop(ctx), ShouldBeNil)
			So(svc.GetStats(ctx).Workers, ShouldEqual, 0)
		})

		Convey("When selecting B", func() {
			_, err := svc.SelectPartner(ctx, "B")
			So(err, ShouldBeNil)

			Convey("Then both parts resolve", func() {
				deadline := time.Now().Add(2 * time.Second)
				var d types.Detail
				for time.Now().Before(deadline) {
					d, _ = svc.Detail(ctx)
					if d.Profile.Status != types.StatusPending && d.TalkingPoints.Status != types.StatusPending {
						break
					}
					time.Sleep(5 * time.Millisecond)
				}
				So(d.Profile.Status, ShouldEqual, types.StatusReady)
				So(d.TalkingPoints.Status, ShouldEqual, types.StatusReady)
				So(d.TalkingPoints.Data.OpeningLine, ShouldEqual, "Hi Bob")
			})
		})
	})
}

func TestTruncation(t *testing.T) {
	Convey("Given a user with twelve partners", t, func() {
		ctx := context.Background()
		var r, p strings.Builder
		r.WriteString(`[{"ID":"S","Name":"Self"}`)
		p.WriteString(`{"S":{`)
		for i := 1; i <= 12; i++ {
			fmt.Fprintf(&r, `,{"ID":"p%d","Name":"P%d"}`, i, i)
			if i > 1 {
				p.WriteString(",")
			}
			fmt.Fprintf(&p, `"p%d":{"distance":%f}`, i, float64(i)*0.1)
		}
		r.WriteString(`]`)
		p.WriteString(`}}`)

		repo := repository.NewDatasetStore(staticSource{r.String()}, staticSource{p.String()})
		svc := service.New(repo)
		_, err := svc.Login(ctx, "S")
		So(err, ShouldBeNil)

		Convey("Then the default list shows head, separator and tail", func() {
			list, err := svc.Partners(ctx, false)
			So(err, ShouldBeNil)
			So(len(list.Rows), ShouldEqual, 9)
			So(list.Rows[5].Separator, ShouldBeTrue)
			So(list.Rows[5].Hidden, ShouldEqual, 4)
			So(ids(list), ShouldResemble, []string{"p1", "p2", "p3", "p4", "p5", "p10", "p11", "p12"})
		})

		Convey("Then show all returns the whole ranking", func() {
			list, err := svc.Partners(ctx, true)
			So(err, ShouldBeNil)
			So(len(list.Rows), ShouldEqual, 12)
			So(list.ShowAll, ShouldBeTrue)
		})

		Convey("Then a custom display policy is honoured", func() {
			custom := service.New(repo, service.WithDisplayPolicy(2, 1))
			_, _ = custom.Login(ctx, "S")
			list, err := custom.Partners(ctx, false)
			So(err, ShouldBeNil)
			So(ids(list), ShouldResemble, []string{"p1", "p2", "p12"})
			So(list.Rows[2].Hidden, ShouldEqual, 9)
		})
	})
}
