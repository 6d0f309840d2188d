package preflight

import (
	"context"
	"path/filepath"
	"strings"

	"inboxwatch/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// StoreCounter opens the configured store and counts unread records.
type StoreCounter func(ctx context.Context, cfg *config.Config) (int, error)

// RunAll executes every applicable check for cfg. Notification checks only
// run when a topic is configured.
func RunAll(ctx context.Context, cfg *config.Config, count StoreCounter) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{CheckStore(ctx, cfg, count)}
	results = append(results, CheckViewer(cfg))
	if len(cfg.Viewer.Terminal) > 0 {
		results = append(results, CheckCommand("Terminal wrapper", cfg.Viewer.Terminal[0]))
	}
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Logging.Dir))
	results = append(results, CheckLockDirectory(filepath.Dir(cfg.Viewer.LockFile)))
	if strings.TrimSpace(cfg.Notifications.NtfyTopic) != "" {
		results = append(results, CheckNtfy(ctx, cfg.Notifications.NtfyTopic))
	}
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
