package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PruneDailyFiles deletes program's daily files in dir whose file-name date
// is more than retentionDays before now. Today's file is always kept, and a
// retentionDays value of 0 disables pruning.
func PruneDailyFiles(logger *slog.Logger, dir, program string, retentionDays int, now time.Time) int {
	if retentionDays <= 0 || strings.TrimSpace(dir) == "" {
		return 0
	}
	matches, err := filepath.Glob(filepath.Join(dir, DailyFilePattern(program)))
	if err != nil {
		return 0
	}
	today := DailyFileName(program, now)
	cutoff := startOfDay(now).AddDate(0, 0, -retentionDays)

	removed := 0
	for _, path := range matches {
		name := filepath.Base(path)
		if name == today {
			continue
		}
		day, ok := dailyFileDate(name, program)
		if !ok || !day.Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check file permissions and [logging] dir ownership"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		removed++
		if logger != nil {
			logger.Debug("log pruned", String("path", path), String(FieldEventType, "log_pruned"))
		}
	}
	return removed
}

// dailyFileDate parses the date out of a name produced by DailyFileName.
// Files that only happen to match the glob, such as inboxwatch-old.log, are
// reported as not ok and left alone.
func dailyFileDate(name, program string) (time.Time, bool) {
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, program+"-"), ".log")
	day, err := time.ParseInLocation(dailyDateLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
