package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"inboxwatch/internal/config"
	"inboxwatch/internal/preflight"
	"inboxwatch/internal/submissions"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the store, viewer, directories, and notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, countUnread)

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				status := "ok"
				if !r.Passed {
					status = "FAIL"
				}
				rows = append(rows, []string{r.Name, status, r.Detail})
			}
			fmt.Fprintln(out, renderTable(out, []columnSpec{
				{header: "Check"},
				{header: "Status"},
				{header: "Detail", widthMax: 80},
			}, rows))

			if !preflight.AllPassed(results) {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
}

func countUnread(ctx context.Context, cfg *config.Config) (int, error) {
	opts, err := submissions.OptionsFromConfig(cfg)
	if err != nil {
		return 0, err
	}
	store, err := submissions.Open(ctx, opts)
	if err != nil {
		return 0, err
	}
	defer store.Close()
	return store.CountUnread(ctx)
}
