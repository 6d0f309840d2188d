package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const dailyDateLayout = "2006-01-02"

// DailyFileName returns the log file name for prefix on the day of t, for
// example inboxwatch-2026-10-18.log.
func DailyFileName(prefix string, t time.Time) string {
	return fmt.Sprintf("%s-%s.log", prefix, t.Format(dailyDateLayout))
}

// DailyFilePattern returns the glob matching every daily file for prefix.
func DailyFilePattern(prefix string) string {
	return prefix + "-*.log"
}

// dailyFileWriter appends each write to the file for the current day. The
// file is opened per write so a long-running viewer rolls over at midnight
// and never holds a handle another process would need.
type dailyFileWriter struct {
	mu     sync.Mutex
	dir    string
	prefix string
	now    func() time.Time
}

func newDailyFileWriter(dir, prefix string, now func() time.Time) (*dailyFileWriter, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("log directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	return &dailyFileWriter{dir: dir, prefix: prefix, now: now}, nil
}

func (w *dailyFileWriter) currentPath() string {
	return filepath.Join(w.dir, DailyFileName(w.prefix, w.now()))
}

func (w *dailyFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	path := w.currentPath()
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		return 0, fmt.Errorf("open log file %s: %w", path, err)
	}
	n, writeErr := file.Write(p)
	closeErr := file.Close()
	if writeErr != nil {
		return n, writeErr
	}
	return n, closeErr
}
