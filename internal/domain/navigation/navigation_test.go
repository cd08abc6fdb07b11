package navigation_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/okian/rendezvous/internal/domain/navigation"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNavigationMachine(t *testing.T) {
	Convey("Given a fresh machine", t, func() {
		m := navigation.New()

		Convey("Then it shows the ranked list with no selection", func() {
			So(m.State(), ShouldEqual, navigation.RankedList)
			So(m.Snapshot().SelectedPartnerID, ShouldBeEmpty)
		})

		Convey("When toggling the profile twice", func() {
			t1, err1 := m.ToggleProfile()
			t2, err2 := m.ToggleProfile()

			Convey("Then it opens and closes the self profile", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(t1.To, ShouldEqual, navigation.SelfProfile)
				So(t2.To, ShouldEqual, navigation.RankedList)
			})
		})

		Convey("When opening history and then the profile", func() {
			_, _ = m.ToggleHistory()
			_, err := m.ToggleProfile()

			Convey("Then only the profile is visible", func() {
				So(err, ShouldBeNil)
				So(m.State(), ShouldEqual, navigation.SelfProfile)
			})

			Convey("And toggling history closes the profile again", func() {
				_, err := m.ToggleHistory()
				So(err, ShouldBeNil)
				So(m.State(), ShouldEqual, navigation.History)
			})
		})

		Convey("When selecting a partner from history", func() {
			_, _ = m.ToggleHistory()
			tr, err := m.SelectPartner(" p7 ")

			Convey("Then the detail panel opens for that partner", func() {
				So(err, ShouldBeNil)
				So(tr.From, ShouldEqual, navigation.History)
				So(tr.To, ShouldEqual, navigation.PartnerDetail)
				So(m.Snapshot().SelectedPartnerID, ShouldEqual, "p7")
			})

			Convey("And back returns to the ranked list and clears the selection", func() {
				_, err := m.Back()
				So(err, ShouldBeNil)
				So(m.Snapshot(), ShouldResemble, navigation.Snapshot{State: navigation.RankedList})
			})

			Convey("And toggling history leaves the detail for history", func() {
				_, err := m.ToggleHistory()
				So(err, ShouldBeNil)
				So(m.State(), ShouldEqual, navigation.History)
				So(m.Snapshot().SelectedPartnerID, ShouldBeEmpty)
			})
		})

		Convey("When selecting a partner while the profile is open", func() {
			_, _ = m.ToggleProfile()
			_, err := m.SelectPartner("p1")

			Convey("Then the event is rejected and the state is unchanged", func() {
				So(errors.Is(err, navigation.ErrInvalidTransition), ShouldBeTrue)
				So(m.State(), ShouldEqual, navigation.SelfProfile)
			})
		})

		Convey("When selecting an empty id", func() {
			_, err := m.SelectPartner("  ")

			Convey("Then it is rejected", func() {
				So(errors.Is(err, navigation.ErrEmptyPartnerID), ShouldBeTrue)
				So(m.State(), ShouldEqual, navigation.RankedList)
			})
		})

		Convey("When pressing back on the ranked list", func() {
			_, err := m.Back()

			Convey("Then it is an invalid transition", func() {
				So(errors.Is(err, navigation.ErrInvalidTransition), ShouldBeTrue)
				So(m.Can(navigation.Back), ShouldBeFalse)
			})
		})

		Convey("When logging out from the detail panel", func() {
			_, _ = m.SelectPartner("p2")
			tr := m.Logout()

			Convey("Then it resets to the ranked list", func() {
				So(tr.From, ShouldEqual, navigation.PartnerDetail)
				So(m.Snapshot(), ShouldResemble, navigation.Snapshot{State: navigation.RankedList})
			})
		})
	})
}

func TestNavigationInvariants(t *testing.T) {
	Convey("Given a long random sequence of events", t, func() {
		rng := rand.New(rand.NewSource(7))
		m := navigation.New()

		ok := true
		for i := 0; i < 2000; i++ {
			switch rng.Intn(5) {
			case 0:
				_, _ = m.ToggleProfile()
			case 1:
				_, _ = m.ToggleHistory()
			case 2:
				_, _ = m.SelectPartner("p")
			case 3:
				_, _ = m.Back()
			case 4:
				m.Logout()
			}
			s := m.Snapshot()
			if (s.State == navigation.PartnerDetail) != (s.SelectedPartnerID != "") {
				ok = false
			}
		}

		Convey("Then a selection exists exactly when the detail panel is active", func() {
			So(ok, ShouldBeTrue)
		})
	})

	Convey("Given rapid alternation between profile and history", t, func() {
		m := navigation.New()
		for i := 0; i < 9; i++ {
			if i%2 == 0 {
				_, _ = m.ToggleProfile()
			} else {
				_, _ = m.ToggleHistory()
			}
		}

		Convey("Then the last toggle wins", func() {
			So(m.State(), ShouldEqual, navigation.SelfProfile)
		})
	})
}

func TestNames(t *testing.T) {
	Convey("States and events have stable names", t, func() {
		So(navigation.PartnerDetail.String(), ShouldEqual, "partner_detail")
		So(navigation.SelfProfile.String(), ShouldEqual, "self_profile")
		So(navigation.ToggleHistory.String(), ShouldEqual, "toggle_history")
		So(navigation.State(42).String(), ShouldEqual, "state(42)")
	})
}
