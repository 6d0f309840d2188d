package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"inboxwatch/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var viewer bool
	var follow bool
	var lines int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the latest watcher or viewer log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			program := programName
			if viewer {
				program = "inboxview"
			}

			out := cmd.OutOrStdout()
			path, err := logs.Latest(cfg.Logging.Dir, program)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) && !follow {
					fmt.Fprintf(out, "No %s logs in %s\n", program, cfg.Logging.Dir)
					return nil
				}
				return err
			}

			res, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: -1, Limit: lines})
			if err != nil {
				return err
			}
			for _, line := range res.Lines {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}
			return logs.Follow(cmd.Context(), cfg.Logging.Dir, program, path, res.Offset, func(batch []string) {
				for _, line := range batch {
					fmt.Fprintln(out, line)
				}
			})
		},
	}

	cmd.Flags().BoolVar(&viewer, "viewer", false, "Show the viewer log instead of the watcher log")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	return cmd
}
