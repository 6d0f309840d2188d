package watcher_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"inboxwatch/internal/config"
	"inboxwatch/internal/faults"
	"inboxwatch/internal/instance"
	"inboxwatch/internal/launcher"
	"inboxwatch/internal/logging"
	"inboxwatch/internal/testsupport"
	"inboxwatch/internal/watcher"
)

type fakeStore struct {
	unread int
	err    error
	closed bool
}

func (s *fakeStore) CountUnread(context.Context) (int, error) { return s.unread, s.err }
func (s *fakeStore) Close() error                             { s.closed = true; return nil }

type fakeProbe struct {
	running bool
	err     error
	calls   int
}

func (p *fakeProbe) Running(context.Context) (bool, error) {
	p.calls++
	return p.running, p.err
}

type fakeSpawner struct {
	requests []launcher.Request
	err      error
}

func (s *fakeSpawner) Spawn(_ context.Context, req launcher.Request) (launcher.Result, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return launcher.Result{}, s.err
	}
	return launcher.Result{PID: 4242, Command: launcher.Argv(req)}, nil
}

type harness struct {
	cfg     *config.Config
	store   *fakeStore
	probe   *fakeProbe
	spawner *fakeSpawner
}

func newHarness(t *testing.T, unread int, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	opts = append([]testsupport.ConfigOption{testsupport.WithViewerStub("inboxview")}, opts...)
	return &harness{
		cfg:     testsupport.NewConfig(t, opts...),
		store:   &fakeStore{unread: unread},
		probe:   &fakeProbe{},
		spawner: &fakeSpawner{},
	}
}

func (h *harness) watcher() *watcher.Watcher {
	return watcher.New(h.cfg, logging.NewNop(),
		watcher.WithStoreOpener(func(context.Context, *config.Config) (watcher.Store, error) { return h.store, nil }),
		watcher.WithProbeFactory(func(*config.Config, string) instance.Probe { return h.probe }),
		watcher.WithSpawner(h.spawner),
	)
}

func TestNoUnreadExitsWithoutLaunch(t *testing.T) {
	h := newHarness(t, 0)
	res, err := h.watcher().Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Code != watcher.ExitNothingToDo {
		t.Fatalf("exit code = %d, want 0", res.Code)
	}
	if len(h.spawner.requests) != 0 || h.probe.calls != 0 {
		t.Fatalf("expected no probe or spawn, got %d probes, %d spawns", h.probe.calls, len(h.spawner.requests))
	}
	if !h.store.closed {
		t.Fatal("store should be closed after counting")
	}
	if res.RunID == "" {
		t.Fatal("expected run id")
	}
}

func TestUnreadLaunchesViewer(t *testing.T) {
	h := newHarness(t, 3)
	h.cfg.Viewer.Args = []string{"--poll", "10"}

	res, err := h.watcher().Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Code != watcher.ExitLaunched || res.PID != 4242 || res.Unread != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(h.spawner.requests) != 1 {
		t.Fatalf("expected exactly one spawn, got %d", len(h.spawner.requests))
	}
	req := h.spawner.requests[0]
	if req.Executable != h.cfg.ViewerPath || strings.Join(req.Args, " ") != "--poll 10" {
		t.Fatalf("unexpected launch request %+v", req)
	}
	if res.Viewer.Source != "viewer_path" || !res.Viewer.Executable {
		t.Fatalf("unexpected resolved viewer %+v", res.Viewer)
	}
}

func TestRunningViewerSkipsLaunch(t *testing.T) {
	h := newHarness(t, 5)
	h.probe.running = true

	if code := h.watcher().RunOnce(context.Background()); code != watcher.ExitNothingToDo {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if len(h.spawner.requests) != 0 {
		t.Fatal("viewer must not be launched twice")
	}
}

func TestPreventDisabledSkipsProbe(t *testing.T) {
	h := newHarness(t, 5, testsupport.WithPreventMultipleInstances(false))
	h.probe.running = true

	if code := h.watcher().RunOnce(context.Background()); code != watcher.ExitLaunched {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if h.probe.calls != 0 {
		t.Fatal("probe should not run when prevent_multiple_instances is false")
	}
}

func TestProbeErrorDoesNotBlockLaunch(t *testing.T) {
	h := newHarness(t, 1)
	h.probe.err = faults.Wrap(faults.ErrProcessEnumeration, "instance", "process probe", "inboxview", errors.New("denied"))

	if code := h.watcher().RunOnce(context.Background()); code != watcher.ExitLaunched {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if len(h.spawner.requests) != 1 {
		t.Fatal("expected launch despite probe failure")
	}
}

func TestFailuresExitTwo(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(h *harness)
		marker error
	}{
		{
			name:   "missing dsn",
			setup:  func(h *harness) { h.cfg.Store.DSN = "" },
			marker: faults.ErrConfigurationMissing,
		},
		{
			name:   "store unavailable",
			setup:  func(h *harness) { h.store.err = errors.New("connection refused") },
			marker: faults.ErrStoreUnavailable,
		},
		{
			name: "viewer missing",
			setup: func(h *harness) {
				h.cfg.ViewerPath = h.cfg.ViewerPath + ".missing"
				h.cfg.BaseDir = h.cfg.BaseDir + "/elsewhere"
			},
			marker: faults.ErrExecutableNotFound,
		},
		{
			name:  "spawn failure",
			setup: func(h *harness) { h.spawner.err = errors.New("exec format error") },
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, 2)
			tc.setup(h)
			res, err := h.watcher().Run(context.Background())
			if res.Code != watcher.ExitFailed {
				t.Fatalf("exit code = %d, want 2", res.Code)
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.marker != nil && !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v, got %v", tc.marker, err)
			}
		})
	}
}

func TestViewerMissingListsCandidates(t *testing.T) {
	h := newHarness(t, 2)
	h.cfg.ViewerPath = "/nonexistent/inboxview"
	h.cfg.BaseDir = t.TempDir()

	_, err := h.watcher().Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "/nonexistent/inboxview") {
		t.Fatalf("expected candidate list in error, got %v", err)
	}
}

type panickyStore struct{}

func (panickyStore) CountUnread(context.Context) (int, error) { panic("driver bug") }
func (panickyStore) Close() error                             { return nil }

func TestPanicIsRecovered(t *testing.T) {
	h := newHarness(t, 0)
	w := watcher.New(h.cfg, logging.NewNop(),
		watcher.WithStoreOpener(func(context.Context, *config.Config) (watcher.Store, error) { return panickyStore{}, nil }),
	)
	if code := w.RunOnce(context.Background()); code != watcher.ExitFailed {
		t.Fatalf("exit code = %d, want 2", code)
	}
}

func TestRunAgainstSQLiteStore(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := testsupport.NewConfig(t, testsupport.WithViewerStub("inboxview"), testsupport.WithInstanceDetection(config.InstanceDetectionLock))
	store := testsupport.MustOpenStore(t, cfg)
	spawner := &fakeSpawner{}
	w := watcher.New(cfg, logging.NewNop(), watcher.WithSpawner(spawner))

	if code := w.RunOnce(context.Background()); code != watcher.ExitNothingToDo {
		t.Fatalf("empty store exit code = %d, want 0", code)
	}
	testsupport.Seed(t, store, 2)
	if code := w.RunOnce(context.Background()); code != watcher.ExitLaunched {
		t.Fatalf("unread store exit code = %d, want 1", code)
	}

	lock, err := instance.Acquire(context.Background(), cfg.Viewer.LockFile, 0)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer lock.Release()
	if code := w.RunOnce(context.Background()); code != watcher.ExitNothingToDo {
		t.Fatalf("locked viewer exit code = %d, want 0", code)
	}
	if len(spawner.requests) != 1 {
		t.Fatalf("expected one spawn across runs, got %d", len(spawner.requests))
	}
}
