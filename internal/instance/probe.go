package instance

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/shirou/gopsutil/v4/process"

	"inboxwatch/internal/config"
	"inboxwatch/internal/faults"
)

// Probe reports whether a viewer instance appears to be running.
type Probe interface {
	Running(ctx context.Context) (bool, error)
}

// LockProbe reports running when another process holds the viewer lock.
type LockProbe struct {
	Path string
}

// Running implements Probe.
func (p LockProbe) Running(ctx context.Context) (bool, error) {
	if strings.TrimSpace(p.Path) == "" {
		return false, nil
	}
	if _, err := os.Stat(filepath.Dir(p.Path)); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	fl := flock.New(p.Path)
	locked, err := fl.TryLock()
	if err != nil {
		return false, faults.Wrap(faults.ErrProcessEnumeration, "instance", "lock probe", p.Path, err)
	}
	if locked {
		_ = fl.Unlock()
		return false, nil
	}
	return true, nil
}

// processInfo is the slice of process metadata the probe needs.
type processInfo struct {
	PID  int32
	Name string
	Exe  string
}

type processLister func(ctx context.Context) ([]processInfo, error)

// ProcessProbe reports running when a process whose executable base name
// matches Name exists. The probing process itself is ignored.
type ProcessProbe struct {
	Name string
	list processLister
}

// NewProcessProbe returns a probe matching the base name of executable.
func NewProcessProbe(executable string) ProcessProbe {
	return ProcessProbe{Name: filepath.Base(executable), list: listProcesses}
}

// Running implements Probe.
func (p ProcessProbe) Running(ctx context.Context) (bool, error) {
	target := strings.TrimSpace(p.Name)
	if target == "" || target == "." {
		return false, nil
	}
	list := p.list
	if list == nil {
		list = listProcesses
	}
	procs, err := list(ctx)
	if err != nil {
		return false, faults.Wrap(faults.ErrProcessEnumeration, "instance", "process probe", target, err)
	}
	self := int32(os.Getpid())
	for _, proc := range procs {
		if proc.PID == self {
			continue
		}
		if proc.Name == target || (proc.Exe != "" && filepath.Base(proc.Exe) == target) {
			return true, nil
		}
	}
	return false, nil
}

func listProcesses(ctx context.Context) ([]processInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]processInfo, 0, len(procs))
	for _, proc := range procs {
		// Processes can exit or deny access mid-scan; skip them.
		name, err := proc.NameWithContext(ctx)
		if err != nil {
			continue
		}
		exe, _ := proc.ExeWithContext(ctx)
		out = append(out, processInfo{PID: proc.Pid, Name: name, Exe: exe})
	}
	return out, nil
}

// AnyProbe reports running when any member does. Member errors are joined
// and returned alongside the best available answer.
type AnyProbe []Probe

// Running implements Probe.
func (a AnyProbe) Running(ctx context.Context) (bool, error) {
	var errs []error
	for _, probe := range a {
		running, err := probe.Running(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if running {
			return true, errors.Join(errs...)
		}
	}
	return false, errors.Join(errs...)
}

// NewProbe builds the probe selected by [viewer] instance_detection for the
// resolved viewer executable.
func NewProbe(cfg *config.Config, executable string) Probe {
	lock := LockProbe{Path: cfg.Viewer.LockFile}
	switch cfg.Viewer.InstanceDetection {
	case config.InstanceDetectionLock:
		return lock
	case config.InstanceDetectionProcess:
		return NewProcessProbe(executable)
	default:
		return AnyProbe{lock, NewProcessProbe(executable)}
	}
}
