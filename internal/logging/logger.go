package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"inboxwatch/internal/config"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Dir receives the daily files; empty disables file output.
	Dir string
	// FilePrefix names the daily files, usually the program name.
	FilePrefix string
	// Console mirrors records to Stdout (below ERROR) and Stderr (ERROR).
	Console     bool
	Stdout      io.Writer
	Stderr      io.Writer
	Development bool
	Now         func() time.Time
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	levelVar := new(slog.LevelVar)
	levelVar.Set(level)
	addSource := opts.Development || level <= slog.LevelDebug

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}
	build := func(w io.Writer) (slog.Handler, error) {
		switch format {
		case "json":
			return newJSONHandler(w, levelVar, addSource), nil
		case "console":
			return newPrettyHandler(w, levelVar, addSource), nil
		default:
			return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
		}
	}

	var handlers []slog.Handler
	if strings.TrimSpace(opts.Dir) != "" {
		prefix := strings.TrimSpace(opts.FilePrefix)
		if prefix == "" {
			prefix = "inboxwatch"
		}
		writer, err := newDailyFileWriter(opts.Dir, prefix, opts.Now)
		if err != nil {
			return nil, err
		}
		h, err := build(writer)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, h)
	}
	if opts.Console {
		stdout, stderr := opts.Stdout, opts.Stderr
		if stdout == nil {
			stdout = os.Stdout
		}
		if stderr == nil {
			stderr = os.Stderr
		}
		out, err := build(stdout)
		if err != nil {
			return nil, err
		}
		errOut, err := build(stderr)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers,
			newLevelRangeHandler(out, slog.LevelDebug, slog.LevelError),
			newLevelRangeHandler(errOut, slog.LevelError, levelUnbounded),
		)
	}
	if len(handlers) == 0 {
		if _, err := build(io.Discard); err != nil {
			return nil, err
		}
	}
	return slog.New(newFanoutHandler(handlers...)), nil
}

// NewFromConfig creates the logger for program using the [logging] section.
// Daily files older than the retention window are pruned before returning.
func NewFromConfig(cfg *config.Config, program string, console bool) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info", Format: "console", Console: console})
	}
	opts := Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Dir:        cfg.Logging.Dir,
		FilePrefix: program,
		Console:    console,
	}
	logger, err := New(opts)
	if err != nil {
		return nil, err
	}
	PruneDailyFiles(logger, cfg.Logging.Dir, program, cfg.Logging.RetentionDays, time.Now())
	return logger, nil
}
