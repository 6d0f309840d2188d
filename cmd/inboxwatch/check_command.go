package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"inboxwatch/internal/notifications"
	"inboxwatch/internal/watcher"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:         "check",
		Short:       "Check for unread submissions once and launch the viewer if needed",
		Annotations: checkAnnotation,
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.runCheck(cmd); err != nil {
				return err
			}
			if verbose {
				fmt.Fprintf(cmd.OutOrStdout(), "exit code %d\n", ctx.exitCode)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print the exit code after the run")
	return cmd
}

// runCheck performs one watcher run. Failures inside the run are logged by
// the watcher and reported through the exit code only.
func (c *commandContext) runCheck(cmd *cobra.Command) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	w := watcher.New(cfg, logger, watcher.WithNotifier(notifications.NewService(cfg)))
	c.exitCode = int(w.RunOnce(cmd.Context()))
	return nil
}
