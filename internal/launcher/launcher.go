// Package launcher starts the viewer as a detached process.
//
// The child runs in its own session with its working directory set to the
// directory holding its executable and its standard streams bound to the
// null device, and the parent releases it immediately so the watcher can
// exit without waiting.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
)

var command = exec.Command

// Request describes a viewer launch.
type Request struct {
	Executable string
	Args       []string
	// Terminal optionally wraps the executable, for example
	// ["x-terminal-emulator", "-e"], so a terminal UI gets a tty when the
	// watcher runs from a scheduler.
	Terminal []string
	// Dir overrides the working directory; empty means the executable's
	// directory.
	Dir string
}

// Result reports a started process.
type Result struct {
	PID     int
	Command []string
	Dir     string
}

// Detached spawns processes that outlive the caller.
type Detached struct{}

// Argv returns the full command line for req.
func Argv(req Request) []string {
	var argv []string
	for _, part := range req.Terminal {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			argv = append(argv, trimmed)
		}
	}
	argv = append(argv, req.Executable)
	return append(argv, req.Args...)
}

// Spawn starts req and returns once the process exists. ctx only guards the
// start; cancelling it later never affects the child.
func (Detached) Spawn(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	exe := strings.TrimSpace(req.Executable)
	if exe == "" {
		return Result{}, errors.New("launch: executable is empty")
	}
	dir := strings.TrimSpace(req.Dir)
	if dir == "" {
		dir = filepath.Dir(exe)
	}

	argv := Argv(req)
	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return Result{}, fmt.Errorf("launch: open %s: %w", os.DevNull, err)
	}
	defer devNull.Close()

	cmd := command(argv[0], argv[1:]...) //nolint:gosec
	cmd.Dir = dir
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("launch %s: %w", argv[0], err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		return Result{PID: pid, Command: argv, Dir: dir}, fmt.Errorf("release pid %d: %w", pid, err)
	}
	return Result{PID: pid, Command: argv, Dir: dir}, nil
}
