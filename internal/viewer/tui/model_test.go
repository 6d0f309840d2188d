package tui

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"inboxwatch/internal/logging"
	"inboxwatch/internal/submissions"
	"inboxwatch/internal/testsupport"
	"inboxwatch/internal/viewer"
)

type harness struct {
	model Model
	store *submissions.Store
	bell  *bytes.Buffer
}

func newHarness(t *testing.T, seed int) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.Seed(t, store, seed)

	bell := &bytes.Buffer{}
	session := viewer.NewSession(store, nil, logging.NewNop())
	m := New(session, Options{Bell: bell, PollInterval: time.Minute})
	// Timers never fire in tests; ticks are sent explicitly.
	m.schedule = func(time.Duration, func(time.Time) tea.Msg) tea.Cmd { return nil }

	h := &harness{model: m, store: store, bell: bell}
	h.run(t, m.Init())
	return h
}

// run executes cmd and feeds every resulting message back through Update
// until no commands remain.
func (h *harness) run(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 100 {
			t.Fatal("command loop did not settle")
		}
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case tea.QuitMsg:
		default:
			updated, more := h.model.Update(msg)
			h.model = updated.(Model)
			queue = append(queue, more)
		}
	}
}

func (h *harness) send(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	updated, cmd := h.model.Update(msg)
	h.model = updated.(Model)
	h.run(t, cmd)
	return cmd
}

func runeKey(r string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(r)}
}

func TestInitialLoadRendersInbox(t *testing.T) {
	h := newHarness(t, 2)

	if len(h.model.records) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(h.model.records))
	}
	out := h.model.View()
	for _, want := range []string{"Inbox (2 unread)", "Unread: 2", "Sender 2", "[ ]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
	if h.bell.Len() != 0 || h.model.banner != "" {
		t.Fatal("initial load must not alert")
	}
}

func TestEmptyInboxView(t *testing.T) {
	h := newHarness(t, 0)
	out := h.model.View()
	if !strings.Contains(out, "No submissions.") || !strings.Contains(out, "Unread: 0") {
		t.Fatalf("unexpected empty view:\n%s", out)
	}
}

func TestTimerTickAlertsOnce(t *testing.T) {
	h := newHarness(t, 2)

	h.send(t, tickMsg(time.Now()))
	if h.bell.Len() != 0 {
		t.Fatal("unchanged inbox must not ring")
	}

	testsupport.Seed(t, h.store, 1)
	h.send(t, tickMsg(time.Now()))
	if h.bell.String() != "\a" {
		t.Fatalf("expected one bell, got %q", h.bell.String())
	}
	if !strings.Contains(h.model.View(), "New submission received (3 unread)") {
		t.Fatalf("banner missing:\n%s", h.model.View())
	}

	h.send(t, tickMsg(time.Now()))
	if h.bell.Len() != 1 {
		t.Fatal("alert repeated for the same backlog")
	}
}

func TestMarkReadKeyAcknowledges(t *testing.T) {
	h := newHarness(t, 2)
	target, ok := h.model.selected()
	if !ok {
		t.Fatal("expected a selected row")
	}

	h.send(t, runeKey("m"))

	stored, err := h.store.Get(context.Background(), target.ID)
	if err != nil || !stored.IsRead {
		t.Fatalf("record not marked read: %+v, %v", stored, err)
	}
	if h.model.status != viewer.AckSuccess.Message() {
		t.Fatalf("status = %q", h.model.status)
	}
	if !strings.Contains(h.model.View(), "Unread: 1") {
		t.Fatalf("indicator not updated:\n%s", h.model.View())
	}
	if h.bell.Len() != 0 {
		t.Fatal("acknowledge reload must not ring")
	}
}

func TestToggleOnReadRowIsRejected(t *testing.T) {
	h := newHarness(t, 1)
	h.send(t, tea.KeyMsg{Type: tea.KeySpace})
	rec, _ := h.model.selected()
	if !rec.IsRead {
		t.Fatal("space on an unread row should mark it read")
	}

	h.send(t, tea.KeyMsg{Type: tea.KeySpace})
	if h.model.status != viewer.AckUnreadRejected.Message() {
		t.Fatalf("status = %q", h.model.status)
	}
	stored, _ := h.store.Get(context.Background(), rec.ID)
	if !stored.IsRead {
		t.Fatal("read flag must stay set")
	}
}

func TestFetchFailureStopsPolling(t *testing.T) {
	h := newHarness(t, 1)
	if err := h.store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	h.send(t, tickMsg(time.Now()))
	out := h.model.View()
	if !strings.Contains(out, "Automatic refresh stopped") {
		t.Fatalf("expected halted banner:\n%s", out)
	}
	if !strings.Contains(out, "Sender 1") {
		t.Fatal("previous rows should remain visible")
	}

	if cmd := h.send(t, tickMsg(time.Now())); cmd != nil {
		t.Fatal("ticks after a failure must not schedule work")
	}
}

func TestQuitKey(t *testing.T) {
	h := newHarness(t, 0)
	_, cmd := h.model.Update(runeKey("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q should quit")
	}
}
