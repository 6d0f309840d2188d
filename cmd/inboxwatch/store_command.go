package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"inboxwatch/internal/notifications"
)

func newStoreCommand(ctx *commandContext) *cobra.Command {
	storeCmd := &cobra.Command{
		Use:   "store",
		Short: "Submission store utilities",
	}
	storeCmd.AddCommand(newStoreInitCommand(ctx))
	storeCmd.AddCommand(newStoreStatusCommand(ctx))
	return storeCmd
}

func newStoreInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the submissions table if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Store ready (%s, table %s)\n", store.Driver(), store.Table())
			return nil
		},
	}
}

func newStoreStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report the unread submission count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer store.Close()

			unread, err := store.CountUnread(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Driver: %s\n", store.Driver())
			fmt.Fprintf(out, "Table:  %s\n", store.Table())
			fmt.Fprintln(out, notifications.UnreadMessage(unread))
			return nil
		},
	}
}
