package detector_test

import (
	"testing"

	"inboxwatch/internal/detector"
	"inboxwatch/internal/submissions"
)

func records(ids []int64, unread int) []submissions.Record {
	out := make([]submissions.Record, len(ids))
	for i, id := range ids {
		out[i] = submissions.Record{ID: id, IsRead: i >= unread}
	}
	return out
}

func TestEvaluateRule(t *testing.T) {
	loaded := detector.State{LastKnownMaxID: 10, LastKnownUnreadCount: 2, InitialLoadCompleted: true}
	tests := []struct {
		name    string
		state   detector.State
		unread  int
		maxID   int64
		trigger detector.Trigger
		notify  bool
	}{
		{"first load never alerts", detector.State{}, 5, 5, detector.TriggerTimer, false},
		{"new entry on timer", loaded, 3, 11, detector.TriggerTimer, true},
		{"new unread without new id", loaded, 3, 10, detector.TriggerTimer, true},
		{"new id with same unread count", loaded, 2, 11, detector.TriggerTimer, true},
		{"unchanged backlog", loaded, 2, 10, detector.TriggerTimer, false},
		{"manual reload with new data", loaded, 3, 11, detector.TriggerManual, false},
		{"acknowledge reload", loaded, 3, 11, detector.TriggerAcknowledge, false},
		{"initial trigger after load", loaded, 3, 11, detector.TriggerInitial, false},
		{"new id but nothing unread", loaded, 0, 11, detector.TriggerTimer, false},
		{"store shrank", loaded, 1, 8, detector.TriggerTimer, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, d := detector.Evaluate(tc.state, tc.unread, tc.maxID, tc.trigger)
			if d.Notify != tc.notify {
				t.Fatalf("Notify = %v, want %v (reason %q)", d.Notify, tc.notify, d.Reason)
			}
			if d.Notify && d.Reason != "" {
				t.Fatalf("notifying decision should have no reason, got %q", d.Reason)
			}
			if !d.Notify && d.Reason == "" {
				t.Fatal("suppressed decision should carry a reason")
			}
			want := detector.State{LastKnownMaxID: tc.maxID, LastKnownUnreadCount: tc.unread, InitialLoadCompleted: true}
			if next != want {
				t.Fatalf("next state = %+v, want %+v", next, want)
			}
		})
	}
}

func TestConsecutiveTicksNeverRepeatAlert(t *testing.T) {
	state, _ := detector.Refresh(detector.State{}, records([]int64{1}, 0), detector.TriggerInitial)

	set := records([]int64{3, 2, 1}, 2)
	state, first := detector.Refresh(state, set, detector.TriggerTimer)
	if !first.Notify {
		t.Fatalf("expected first tick with new data to alert: %+v", first)
	}
	for i := 0; i < 5; i++ {
		var d detector.Decision
		state, d = detector.Refresh(state, set, detector.TriggerTimer)
		if d.Notify {
			t.Fatalf("tick %d alerted again for an unchanged store", i)
		}
	}
}

func TestHighWaterFollowsStoreDownward(t *testing.T) {
	state := detector.State{LastKnownMaxID: 20, LastKnownUnreadCount: 7, InitialLoadCompleted: true}

	state, d := detector.Refresh(state, records([]int64{5, 4}, 1), detector.TriggerTimer)
	if d.Notify {
		t.Fatal("lower values must not alert")
	}
	if state.LastKnownMaxID != 5 || state.LastKnownUnreadCount != 1 {
		t.Fatalf("high-water marks should accept lower values, got %+v", state)
	}

	// Growth measured from the lowered marks alerts again.
	_, d = detector.Refresh(state, records([]int64{6, 5, 4}, 2), detector.TriggerTimer)
	if !d.Notify {
		t.Fatalf("expected alert after growth from lowered marks: %+v", d)
	}
}

// An acknowledgment reload updates the marks, so the next tick only alerts
// for data that arrived after it.
func TestAcknowledgeResetsBaseline(t *testing.T) {
	state, _ := detector.Refresh(detector.State{}, records([]int64{2, 1}, 2), detector.TriggerInitial)

	state, d := detector.Refresh(state, records([]int64{2, 1}, 1), detector.TriggerAcknowledge)
	if d.Notify {
		t.Fatal("acknowledge reload must not alert")
	}
	_, d = detector.Refresh(state, records([]int64{2, 1}, 1), detector.TriggerTimer)
	if d.Notify {
		t.Fatal("timer tick after acknowledge should not alert for the same backlog")
	}
}

func TestEmptyStore(t *testing.T) {
	state, d := detector.Refresh(detector.State{}, nil, detector.TriggerInitial)
	if d.MaxID != 0 || d.UnreadCount != 0 || d.Notify {
		t.Fatalf("unexpected decision for empty store: %+v", d)
	}
	if !state.InitialLoadCompleted {
		t.Fatal("initial load should complete even when empty")
	}
}

func TestTriggerString(t *testing.T) {
	if detector.TriggerAcknowledge.String() != "acknowledge" || detector.Trigger(99).String() != "unknown" {
		t.Fatal("unexpected trigger labels")
	}
}
