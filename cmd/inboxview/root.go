package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"inboxwatch/internal/config"
	"inboxwatch/internal/faults"
	"inboxwatch/internal/instance"
	"inboxwatch/internal/logging"
	"inboxwatch/internal/notifications"
	"inboxwatch/internal/submissions"
	"inboxwatch/internal/viewer"
	"inboxwatch/internal/viewer/tui"
)

const (
	programName = "inboxview"
	lockWait    = 2 * time.Second
)

type options struct {
	configPath string
	headless   bool
	interval   time.Duration
}

func newRootCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           programName,
		Short:         "Browse and acknowledge inbox submissions",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Configuration file path")
	cmd.Flags().BoolVar(&opts.headless, "headless", false, "Poll and alert without the terminal UI")
	cmd.Flags().DurationVar(&opts.interval, "interval", 0, "Poll interval (overrides [viewer] poll_interval_seconds)")
	return cmd
}

func run(cmd *cobra.Command, opts options) error {
	ctx := cmd.Context()
	cfg, _, _, err := config.Load(strings.TrimSpace(opts.configPath))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	headless := opts.headless || !isTerminal(os.Stdout)
	logger, err := logging.NewFromConfig(cfg, programName, headless)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if !opts.headless && headless {
		logger.Info("stdout is not a terminal; running headless")
	}

	if cfg.PreventMultiple() {
		lock, err := instance.Acquire(ctx, cfg.Viewer.LockFile, lockWait)
		if errors.Is(err, faults.ErrInstanceHeld) {
			logger.Info("viewer already running; exiting",
				logging.String("lock_file", cfg.Viewer.LockFile),
				logging.String(logging.FieldEventType, "instance_held"),
			)
			return nil
		}
		if err != nil {
			logging.ErrorWithContext(logger, "acquire instance lock failed", faults.Kind(err),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check [viewer] lock_file"),
			)
			return err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				logger.Warn("release instance lock", logging.Error(err))
			}
		}()
	}

	storeOpts, err := submissions.OptionsFromConfig(cfg)
	if err != nil {
		return reportFatal(logger, err)
	}
	store, err := submissions.Open(ctx, storeOpts)
	if err != nil {
		return reportFatal(logger, err)
	}
	defer store.Close()

	notifier := notifications.NewService(cfg)
	session := viewer.NewSession(store, viewer.NotifierAlerter{Service: notifier}, logger)

	interval := opts.interval
	if interval <= 0 {
		interval = time.Duration(cfg.Viewer.PollIntervalSeconds) * time.Second
	}
	logger.Info("viewer starting",
		logging.Bool("headless", headless),
		logging.Duration("poll_interval", interval),
		logging.String("driver", store.Driver()),
	)

	if headless {
		if err := viewer.RunHeadless(ctx, session, interval, logger); err != nil {
			_ = notifier.NotifyError(context.WithoutCancel(ctx), err, "inbox refresh")
			return err
		}
		return nil
	}
	return runTUI(ctx, cfg, session, interval, logger)
}

func runTUI(ctx context.Context, cfg *config.Config, session *viewer.Session, interval time.Duration, logger *slog.Logger) error {
	tuiOpts := tui.Options{
		Context:      ctx,
		PollInterval: interval,
		Logger:       logger,
	}
	if cfg.Notifications.Bell {
		tuiOpts.Bell = os.Stderr
	}
	program := tea.NewProgram(tui.New(session, tuiOpts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run viewer: %w", err)
	}
	logger.Info("viewer closed")
	return nil
}

func reportFatal(logger *slog.Logger, err error) error {
	logging.ErrorWithContext(logger, "viewer startup failed", faults.Kind(err),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check [store] dsn and that the store is reachable"),
	)
	return err
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
