package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every handler is nil")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newFanoutHandler(nil, inner, nil); h != inner {
		t.Fatal("expected single non-nil handler to be returned unwrapped")
	}
}

func TestFanoutHandlerRespectsEachLevel(t *testing.T) {
	var infoBuf, errBuf bytes.Buffer
	h := newFanoutHandler(
		slog.NewTextHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&errBuf, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	logger := slog.New(h).With("component", "test")
	logger.Info("hello")
	logger.Error("broken")

	if !strings.Contains(infoBuf.String(), "hello") || !strings.Contains(infoBuf.String(), "broken") {
		t.Fatalf("info handler missing records: %q", infoBuf.String())
	}
	if strings.Contains(errBuf.String(), "hello") {
		t.Fatalf("error handler received info record: %q", errBuf.String())
	}
	if !strings.Contains(errBuf.String(), "component=test") {
		t.Fatalf("expected attrs to propagate, got %q", errBuf.String())
	}
}

func TestLevelRangeHandlerSplitsConsole(t *testing.T) {
	var out, errOut bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newFanoutHandler(
		newLevelRangeHandler(newPrettyHandler(&out, lvl, false), slog.LevelDebug, slog.LevelError),
		newLevelRangeHandler(newPrettyHandler(&errOut, lvl, false), slog.LevelError, levelUnbounded),
	))

	logger.Info("info line")
	logger.Warn("warn line")
	logger.Error("error line")

	if got := out.String(); !strings.Contains(got, "info line") || !strings.Contains(got, "warn line") || strings.Contains(got, "error line") {
		t.Fatalf("stdout sink = %q", got)
	}
	if got := errOut.String(); !strings.Contains(got, "ERROR error line") || strings.Contains(got, "info line") {
		t.Fatalf("stderr sink = %q", got)
	}
}

func TestNewLevelRangeHandlerEmptyRange(t *testing.T) {
	var buf bytes.Buffer
	h := newLevelRangeHandler(slog.NewTextHandler(&buf, nil), slog.LevelError, slog.LevelInfo)
	if h.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("empty range should accept nothing")
	}
}

func TestPrettyHandlerFormatsComponentAndGroups(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, lvl, false)).With(FieldComponent, "watcher")
	logger.WithGroup("store").Info("launch issued", "pid", 4242, "note", "two words")

	line := buf.String()
	for _, want := range []string{" INFO watcher: launch issued", "store.pid=4242", `store.note="two words"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("line %q missing %q", line, want)
		}
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should be rendered as prefix, got %q", line)
	}
}

func TestPrettyHandlerQualifiesAttrsByOpenGroups(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, lvl, false)).
		With("run_id", "r1").
		WithGroup("store").
		With("driver", "sqlite").
		WithGroup("query")
	logger.Info("count unread", "rows", 3)

	line := buf.String()
	for _, want := range []string{" run_id=r1", " store.driver=sqlite", " store.query.rows=3"} {
		if !strings.Contains(line, want) {
			t.Fatalf("line %q missing %q", line, want)
		}
	}
	if strings.Contains(line, "store.run_id") || strings.Contains(line, "query.driver") {
		t.Fatalf("attrs were qualified by groups opened after them: %q", line)
	}
}
