package preflight

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"inboxwatch/internal/config"
	"inboxwatch/internal/faults"
	"inboxwatch/internal/notifications"
)

// CheckStore verifies the DSN is set and the store answers an unread count.
func CheckStore(ctx context.Context, cfg *config.Config, count StoreCounter) Result {
	const name = "Submission store"

	if _, err := cfg.StoreDSN(); err != nil {
		return Result{Name: name, Detail: "no DSN configured; set INBOXWATCH_DSN or [store] dsn"}
	}
	if count == nil {
		return Result{Name: name, Detail: "no store connector"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Store.TimeoutSeconds)*time.Second)
	defer cancel()

	unread, err := count(checkCtx, cfg)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", faults.Kind(err), err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("reachable via %s; %s", cfg.DSNSource, notifications.UnreadMessage(unread))}
}

// CheckViewer resolves the viewer executable through the configured
// precedence chain and confirms it can be executed.
func CheckViewer(cfg *config.Config) Result {
	const name = "Viewer executable"

	resolved, err := config.FirstExisting(cfg.ViewerCandidates())
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if !resolved.Executable {
		return Result{Name: name, Detail: fmt.Sprintf("%s (from %s) is not executable", resolved.Path, resolved.Source)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (from %s)", resolved.Path, resolved.Source)}
}

// CheckCommand verifies that command resolves on PATH or as a path.
func CheckCommand(name, command string) Result {
	path, err := exec.LookPath(command)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not found)", command)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckLockDirectory verifies the viewer can create its lock file. A missing
// directory passes when its nearest existing parent is writable, since the
// viewer creates it on start.
func CheckLockDirectory(dir string) Result {
	const name = "Lock directory"

	probe := dir
	for {
		if _, err := os.Stat(probe); err == nil {
			break
		}
		parent := filepath.Dir(probe)
		if parent == probe {
			break
		}
		probe = parent
	}
	res := CheckDirectoryAccess(name, probe)
	if res.Passed && probe != dir {
		res.Detail = fmt.Sprintf("%s (created on first viewer start)", dir)
	}
	return res
}

// CheckNtfy verifies the ntfy server hosting topic reports healthy.
func CheckNtfy(ctx context.Context, topic string) Result {
	const name = "ntfy server"

	u, err := url.Parse(topic)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: topic must be a full URL)", topic)}
	}
	health := (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/v1/health"}).String()

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, health, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("build request: %v", err)}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", u.Host, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: status %d)", u.Host, resp.StatusCode)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s healthy", u.Host)}
}
