package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/google/uuid"

	"inboxwatch/internal/config"
	"inboxwatch/internal/faults"
	"inboxwatch/internal/instance"
	"inboxwatch/internal/launcher"
	"inboxwatch/internal/logging"
	"inboxwatch/internal/notifications"
	"inboxwatch/internal/submissions"
)

// ExitCode is the watcher process status.
type ExitCode int

const (
	ExitNothingToDo ExitCode = 0
	ExitLaunched    ExitCode = 1
	ExitFailed      ExitCode = 2
)

// Store is the slice of the submission store the watcher needs.
type Store interface {
	CountUnread(ctx context.Context) (int, error)
	Close() error
}

// Spawner starts the viewer process.
type Spawner interface {
	Spawn(ctx context.Context, req launcher.Request) (launcher.Result, error)
}

// StoreOpener connects to the submission store described by cfg.
type StoreOpener func(ctx context.Context, cfg *config.Config) (Store, error)

// ProbeFactory builds the single-instance probe for the resolved viewer.
type ProbeFactory func(cfg *config.Config, executable string) instance.Probe

// Result summarizes one run.
type Result struct {
	RunID   string
	Code    ExitCode
	Unread  int
	Viewer  config.Resolved
	Prevent bool
	Running bool
	PID     int
	Reason  string
}

// Watcher performs check runs.
type Watcher struct {
	cfg       *config.Config
	logger    *slog.Logger
	openStore StoreOpener
	newProbe  ProbeFactory
	spawner   Spawner
	notifier  notifications.Service
}

// Option customizes a Watcher.
type Option func(*Watcher)

// WithStoreOpener replaces the submission store connector.
func WithStoreOpener(open StoreOpener) Option {
	return func(w *Watcher) { w.openStore = open }
}

// WithProbeFactory replaces the single-instance probe.
func WithProbeFactory(factory ProbeFactory) Option {
	return func(w *Watcher) { w.newProbe = factory }
}

// WithSpawner replaces the process launcher.
func WithSpawner(spawner Spawner) Option {
	return func(w *Watcher) { w.spawner = spawner }
}

// WithNotifier sets the notification sink told about launches.
func WithNotifier(notifier notifications.Service) Option {
	return func(w *Watcher) { w.notifier = notifier }
}

// New constructs a watcher using the production store, probe, and launcher.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Watcher {
	w := &Watcher{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "watcher"),
		openStore: openSubmissionStore,
		newProbe:  instance.NewProbe,
		spawner:   launcher.Detached{},
		notifier:  notifications.NewService(nil),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func openSubmissionStore(ctx context.Context, cfg *config.Config) (Store, error) {
	opts, err := submissions.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return submissions.Open(ctx, opts)
}

// RunOnce performs one check and returns the process exit code. Every
// failure, including a panic, is logged and reported as ExitFailed.
func (w *Watcher) RunOnce(ctx context.Context) ExitCode {
	res, _ := w.Run(ctx)
	return res.Code
}

// Run performs one check and returns its detailed outcome. The error is the
// fatal failure, if any; Result.Code is always set.
func (w *Watcher) Run(ctx context.Context) (res Result, err error) {
	res.RunID = uuid.NewString()
	ctx = logging.WithRunID(ctx, res.RunID)
	logger := logging.WithContext(ctx, w.logger)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("watcher panic: %v", r)
			res.Code = ExitFailed
			logging.ErrorWithContext(logger, "watcher run failed", "watcher_panic",
				logging.Error(err),
				logging.String("stack", string(debug.Stack())),
			)
		}
	}()

	err = w.run(ctx, logger, &res)
	if err != nil {
		res.Code = ExitFailed
		res.Reason = err.Error()
		logging.ErrorWithContext(logger, "watcher run failed", faults.Kind(err),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hintFor(err)),
			logging.Int("exit_code", int(res.Code)),
		)
		return res, err
	}
	logger.Info("watcher run finished",
		logging.Int("exit_code", int(res.Code)),
		logging.String("reason", res.Reason),
	)
	return res, nil
}

func (w *Watcher) run(ctx context.Context, logger *slog.Logger, res *Result) error {
	if w.cfg == nil {
		return faults.Wrap(faults.ErrConfigurationMissing, "watcher", "run", "configuration not loaded", nil)
	}
	if _, err := w.cfg.StoreDSN(); err != nil {
		return err
	}

	unread, err := w.countUnread(ctx)
	if err != nil {
		return err
	}
	res.Unread = unread
	if unread <= 0 {
		res.Code = ExitNothingToDo
		res.Reason = "no unread submissions"
		logger.Info("no unread submissions", logging.String(logging.FieldEventType, "inbox_empty"))
		return nil
	}
	logger.Info("unread submissions found",
		logging.Int("unread", unread),
		logging.String(logging.FieldEventType, "inbox_unread"),
	)

	resolved, err := config.FirstExisting(w.cfg.ViewerCandidates())
	if err != nil {
		return err
	}
	res.Viewer = resolved
	logger.Info("viewer resolved",
		logging.String("path", resolved.Path),
		logging.String("source", resolved.Source),
		logging.Bool("executable", resolved.Executable),
	)
	if !resolved.Executable {
		logging.WarnWithContext(logger, "viewer is not executable by this user", "viewer_not_executable",
			logging.String("path", resolved.Path),
			logging.String(logging.FieldErrorHint, "check the file mode and owner"),
			logging.String(logging.FieldImpact, "launch will likely fail"),
		)
	}

	prevent, source := config.FirstBool(w.cfg.PreventMultipleTiers(), true)
	res.Prevent = prevent
	logger.Debug("single-instance setting", logging.Bool("prevent_multiple_instances", prevent), logging.String("source", source))

	if prevent {
		running, probeErr := w.newProbe(w.cfg, resolved.Path).Running(ctx)
		if probeErr != nil {
			logging.WarnWithContext(logger, "instance probe failed; assuming viewer is not running", faults.Kind(probeErr),
				logging.Error(probeErr),
				logging.String(logging.FieldErrorHint, "check process table access or switch [viewer] instance_detection to lock"),
				logging.String(logging.FieldImpact, "launch proceeds; the viewer lock still prevents duplicates"),
			)
		}
		if running {
			res.Running = true
			res.Code = ExitNothingToDo
			res.Reason = "viewer already running"
			logger.Info("viewer already running; skipping launch", logging.String(logging.FieldEventType, "launch_skipped"))
			return nil
		}
	}

	req := launcher.Request{
		Executable: resolved.Path,
		Args:       w.cfg.Viewer.Args,
		Terminal:   w.cfg.Viewer.Terminal,
	}
	spawned, err := w.spawner.Spawn(ctx, req)
	if err != nil && spawned.PID == 0 {
		return fmt.Errorf("launch viewer %s: %w", resolved.Path, err)
	}
	if err != nil {
		logging.WarnWithContext(logger, "viewer started but could not be released", "launch_release_failed", logging.Error(err))
	}
	res.PID = spawned.PID
	res.Code = ExitLaunched
	res.Reason = "launch issued"
	logger.Info("launch issued",
		logging.Int("pid", spawned.PID),
		logging.String("path", resolved.Path),
		logging.String("dir", spawned.Dir),
		logging.String(logging.FieldEventType, "launch_issued"),
	)
	if notifyErr := w.notifier.NotifyViewerLaunched(ctx, unread); notifyErr != nil {
		logging.WarnWithContext(logger, "launch notification failed", "notification_failed",
			logging.Error(notifyErr),
			logging.String(logging.FieldImpact, "no push alert for this launch"),
		)
	}
	return nil
}

func (w *Watcher) countUnread(ctx context.Context) (int, error) {
	store, err := w.openStore(ctx, w.cfg)
	if err != nil {
		return 0, markStore(err)
	}
	defer store.Close()
	unread, err := store.CountUnread(ctx)
	if err != nil {
		return 0, markStore(err)
	}
	return unread, nil
}

// markStore tags unexpected store errors so they map to ErrStoreUnavailable.
func markStore(err error) error {
	switch {
	case errors.Is(err, faults.ErrStoreUnavailable), errors.Is(err, faults.ErrConfigurationMissing):
		return err
	default:
		return faults.Wrap(faults.ErrStoreUnavailable, "watcher", "count unread", "", err)
	}
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, faults.ErrConfigurationMissing):
		return "set INBOXWATCH_DSN, [store] dsn, or conn_string"
	case errors.Is(err, faults.ErrStoreUnavailable):
		return "check the store DSN and that the database is reachable"
	case errors.Is(err, faults.ErrExecutableNotFound):
		return "install inboxview or set viewer_path / [viewer] search_paths"
	default:
		return "check logs for details"
	}
}
