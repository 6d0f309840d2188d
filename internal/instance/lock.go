package instance

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"inboxwatch/internal/faults"
)

const lockRetryDelay = 50 * time.Millisecond

// Lock is a held single-instance lock.
type Lock struct {
	path  string
	flock *flock.Flock
}

// Acquire takes the exclusive lock at path, retrying until wait elapses so a
// previous viewer that is shutting down can release it. A lock still held
// after wait yields an error marked faults.ErrInstanceHeld.
func Acquire(ctx context.Context, path string, wait time.Duration) (*Lock, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, faults.Wrap(faults.ErrConfigurationMissing, "instance", "acquire", "lock file path is empty", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure lock directory: %w", err)
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !locked && wait > 0 {
		waitCtx, cancel := context.WithTimeout(ctx, wait)
		defer cancel()
		locked, err = fl.TryLockContext(waitCtx, lockRetryDelay)
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("acquire lock: %w", err)
		}
	}
	if !locked {
		return nil, faults.Wrap(faults.ErrInstanceHeld, "instance", "acquire", path, nil)
	}
	return &Lock{path: path, flock: fl}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Release drops the lock. It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.flock == nil {
		return nil
	}
	return l.flock.Unlock()
}
