// Package navigation is the state machine deciding which single panel is
// visible: the ranked list, the history list, a partner's detail or the
// user's own profile.
//
// Every event is looked up in one transition table. Events missing from the
// table are illegal in the current state and leave the machine untouched.
package navigation

import (
	"fmt"
	"strings"
)

// State is the active panel.
type State int

// Panels.
const (
	RankedList State = iota
	History
	PartnerDetail
	SelfProfile
)

var stateNames = [...]string{
	RankedList:    "ranked_list",
	History:       "history",
	PartnerDetail: "partner_detail",
	SelfProfile:   "self_profile",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Event is a user action that may change the panel.
type Event int

// Events.
const (
	ToggleProfile Event = iota
	ToggleHistory
	SelectPartner
	Back
	Logout
)

var eventNames = [...]string{
	ToggleProfile: "toggle_profile",
	ToggleHistory: "toggle_history",
	SelectPartner: "select_partner",
	Back:          "back",
	Logout:        "logout",
}

func (e Event) String() string {
	if e < 0 || int(e) >= len(eventNames) {
		return fmt.Sprintf("event(%d)", int(e))
	}
	return eventNames[e]
}

type edge struct {
	from  State
	event Event
}

// transitions is the complete set of legal moves.
var transitions = map[edge]State{
	{RankedList, ToggleProfile}:    SelfProfile,
	{History, ToggleProfile}:       SelfProfile,
	{PartnerDetail, ToggleProfile}: SelfProfile,
	{SelfProfile, ToggleProfile}:   RankedList,

	{RankedList, ToggleHistory}:    History,
	{SelfProfile, ToggleHistory}:   History,
	{PartnerDetail, ToggleHistory}: History,
	{History, ToggleHistory}:       RankedList,

	{RankedList, SelectPartner}: PartnerDetail,
	{History, SelectPartner}:    PartnerDetail,

	{PartnerDetail, Back}: RankedList,
	{SelfProfile, Back}:   RankedList,

	{RankedList, Logout}:    RankedList,
	{History, Logout}:       RankedList,
	{PartnerDetail, Logout}: RankedList,
	{SelfProfile, Logout}:   RankedList,
}

// Snapshot is a read-only view of the machine. SelectedPartnerID is
// non-empty exactly when State is PartnerDetail.
type Snapshot struct {
	State             State
	SelectedPartnerID string
}

// Transition describes an applied move.
type Transition struct {
	Event Event
	From  State
	To    State
}

// Machine holds the active panel. It is not safe for concurrent use; the
// owner serialises events.
type Machine struct {
	state    State
	selected string
}

// New returns a machine on the ranked list.
func New() *Machine {
	return &Machine{state: RankedList}
}

// Snapshot returns the current state.
func (m *Machine) Snapshot() Snapshot {
	return Snapshot{State: m.state, SelectedPartnerID: m.selected}
}

// State returns the active panel.
func (m *Machine) State() State { return m.state }

// Can reports whether ev is legal in the current state.
func (m *Machine) Can(ev Event) bool {
	_, ok := transitions[edge{m.state, ev}]
	return ok
}

// ToggleProfile opens the self profile, or returns to the ranked list when
// it is already open. Opening it always closes history.
func (m *Machine) ToggleProfile() (Transition, error) {
	return m.fire(ToggleProfile, "")
}

// ToggleHistory opens history, or returns to the ranked list when it is
// already open. Opening it always closes the self profile.
func (m *Machine) ToggleHistory() (Transition, error) {
	return m.fire(ToggleHistory, "")
}

// SelectPartner opens the detail panel for id from the ranked list or history.
func (m *Machine) SelectPartner(id string) (Transition, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Transition{}, ErrEmptyPartnerID
	}
	return m.fire(SelectPartner, id)
}

// Back leaves the detail or self profile panel for the ranked list.
func (m *Machine) Back() (Transition, error) {
	return m.fire(Back, "")
}

// Logout returns to the ranked list from any state.
func (m *Machine) Logout() Transition {
	t, _ := m.fire(Logout, "")
	return t
}

func (m *Machine) fire(ev Event, partnerID string) (Transition, error) {
	to, ok := transitions[edge{m.state, ev}]
	if !ok {
		return Transition{}, fmt.Errorf("%w: %s in %s", ErrInvalidTransition, ev, m.state)
	}

	t := Transition{Event: ev, From: m.state, To: to}
	m.state = to
	m.selected = ""
	if to == PartnerDetail {
		m.selected = partnerID
	}
	return t, nil
}
