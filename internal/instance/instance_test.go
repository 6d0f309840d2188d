package instance

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"inboxwatch/internal/config"
	"inboxwatch/internal/faults"
)

func TestAcquireIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "inboxview.lock")
	ctx := context.Background()

	first, err := Acquire(ctx, path, 0)
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}

	if _, err := Acquire(ctx, path, 120*time.Millisecond); !errors.Is(err, faults.ErrInstanceHeld) {
		t.Fatalf("second Acquire: expected ErrInstanceHeld, got %v", err)
	}

	running, err := LockProbe{Path: path}.Running(ctx)
	if err != nil || !running {
		t.Fatalf("LockProbe while held = %v, %v", running, err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}

	running, err = LockProbe{Path: path}.Running(ctx)
	if err != nil || running {
		t.Fatalf("LockProbe after release = %v, %v", running, err)
	}

	again, err := Acquire(ctx, path, 0)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	_ = again.Release()
}

func TestAcquireWaitsForRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inboxview.lock")
	held, err := Acquire(context.Background(), path, 0)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	go func() {
		time.Sleep(60 * time.Millisecond)
		_ = held.Release()
	}()

	lock, err := Acquire(context.Background(), path, 2*time.Second)
	if err != nil {
		t.Fatalf("expected lock after release, got %v", err)
	}
	_ = lock.Release()
}

func TestAcquireRequiresPath(t *testing.T) {
	if _, err := Acquire(context.Background(), " ", 0); !errors.Is(err, faults.ErrConfigurationMissing) {
		t.Fatalf("expected ErrConfigurationMissing, got %v", err)
	}
}

func TestLockProbeMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent", "inboxview.lock")
	running, err := LockProbe{Path: path}.Running(context.Background())
	if err != nil || running {
		t.Fatalf("LockProbe = %v, %v; want false, nil", running, err)
	}
}

func fakeLister(procs []processInfo, err error) processLister {
	return func(context.Context) ([]processInfo, error) { return procs, err }
}

func TestProcessProbeMatching(t *testing.T) {
	self := int32(os.Getpid())
	tests := []struct {
		name  string
		procs []processInfo
		want  bool
	}{
		{"match by name", []processInfo{{PID: 10, Name: "inboxview"}}, true},
		{"match by exe base", []processInfo{{PID: 11, Name: "inboxvi", Exe: "/opt/inbox/inboxview"}}, true},
		{"different program", []processInfo{{PID: 12, Name: "inboxwatch", Exe: "/opt/inbox/inboxwatch"}}, false},
		{"self ignored", []processInfo{{PID: self, Name: "inboxview"}}, false},
		{"empty table", nil, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			probe := ProcessProbe{Name: "inboxview", list: fakeLister(tc.procs, nil)}
			running, err := probe.Running(context.Background())
			if err != nil {
				t.Fatalf("Running: %v", err)
			}
			if running != tc.want {
				t.Fatalf("Running = %v, want %v", running, tc.want)
			}
		})
	}
}

func TestProcessProbeEnumerationFailure(t *testing.T) {
	probe := ProcessProbe{Name: "inboxview", list: fakeLister(nil, errors.New("permission denied"))}
	running, err := probe.Running(context.Background())
	if running {
		t.Fatal("failed enumeration must not report running")
	}
	if !errors.Is(err, faults.ErrProcessEnumeration) {
		t.Fatalf("expected ErrProcessEnumeration, got %v", err)
	}
}

func TestAnyProbeKeepsAnswerWhenMemberFails(t *testing.T) {
	failing := ProcessProbe{Name: "inboxview", list: fakeLister(nil, errors.New("boom"))}
	path := filepath.Join(t.TempDir(), "inboxview.lock")
	held, err := Acquire(context.Background(), path, 0)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer held.Release()

	running, err := AnyProbe{failing, LockProbe{Path: path}}.Running(context.Background())
	if !running {
		t.Fatal("expected lock probe to report running")
	}
	if !errors.Is(err, faults.ErrProcessEnumeration) {
		t.Fatalf("expected enumeration error to be reported, got %v", err)
	}
}

func TestListProcessesFindsSelf(t *testing.T) {
	procs, err := listProcesses(context.Background())
	if err != nil {
		t.Skipf("process table unavailable: %v", err)
	}
	self := int32(os.Getpid())
	for _, proc := range procs {
		if proc.PID == self {
			return
		}
	}
	t.Fatal("expected current process in process table")
}

func TestNewProbeSelectsStrategy(t *testing.T) {
	cfg := config.Default()
	cfg.Viewer.LockFile = filepath.Join(t.TempDir(), "inboxview.lock")

	cfg.Viewer.InstanceDetection = config.InstanceDetectionLock
	if _, ok := NewProbe(&cfg, "/opt/inboxview").(LockProbe); !ok {
		t.Fatal("expected LockProbe")
	}
	cfg.Viewer.InstanceDetection = config.InstanceDetectionProcess
	if p, ok := NewProbe(&cfg, "/opt/inboxview").(ProcessProbe); !ok || p.Name != "inboxview" {
		t.Fatalf("expected ProcessProbe for inboxview, got %#v", p)
	}
	cfg.Viewer.InstanceDetection = config.InstanceDetectionBoth
	if probes, ok := NewProbe(&cfg, "/opt/inboxview").(AnyProbe); !ok || len(probes) != 2 {
		t.Fatal("expected AnyProbe with two members")
	}
}
