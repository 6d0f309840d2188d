// Package detector decides when the viewer should alert the operator about
// new submissions.
//
// The decision is a pure function of the previous high-water marks, the
// freshly loaded record set, and what triggered the load. Only timer-driven
// refreshes after the first successful load may alert, and only when the
// unread count or the highest id has grown since the previous load. The
// high-water marks always follow the store, including downward, so a backlog
// that was already reported never alerts twice.
package detector

import "inboxwatch/internal/submissions"

// Trigger identifies what started a refresh cycle.
type Trigger int

const (
	TriggerInitial Trigger = iota
	TriggerTimer
	TriggerManual
	TriggerAcknowledge
)

func (t Trigger) String() string {
	switch t {
	case TriggerInitial:
		return "initial"
	case TriggerTimer:
		return "timer"
	case TriggerManual:
		return "manual"
	case TriggerAcknowledge:
		return "acknowledge"
	default:
		return "unknown"
	}
}

// State holds the high-water marks carried between refresh cycles.
type State struct {
	LastKnownMaxID       int64
	LastKnownUnreadCount int
	InitialLoadCompleted bool
}

// Decision describes one evaluated refresh cycle.
type Decision struct {
	Trigger       Trigger
	UnreadCount   int
	MaxID         int64
	HasNewUnread  bool
	HasNewEntries bool
	Notify        bool
	// Reason explains why Notify is false; empty when notifying.
	Reason string
}

// Refresh evaluates records loaded by trigger against state.
func Refresh(state State, records []submissions.Record, trigger Trigger) (State, Decision) {
	return Evaluate(state, submissions.CountUnread(records), submissions.MaxID(records), trigger)
}

// Evaluate applies the alert rule to an already summarized record set.
func Evaluate(state State, unreadCount int, maxID int64, trigger Trigger) (State, Decision) {
	d := Decision{
		Trigger:       trigger,
		UnreadCount:   unreadCount,
		MaxID:         maxID,
		HasNewUnread:  unreadCount > state.LastKnownUnreadCount,
		HasNewEntries: maxID > state.LastKnownMaxID,
	}

	switch {
	case !state.InitialLoadCompleted:
		d.Reason = "initial load"
	case trigger != TriggerTimer:
		d.Reason = trigger.String() + " refresh"
	case unreadCount <= 0:
		d.Reason = "no unread submissions"
	case !d.HasNewUnread && !d.HasNewEntries:
		d.Reason = "backlog already reported"
	default:
		d.Notify = true
	}

	next := State{
		LastKnownMaxID:       maxID,
		LastKnownUnreadCount: unreadCount,
		InitialLoadCompleted: true,
	}
	return next, d
}
