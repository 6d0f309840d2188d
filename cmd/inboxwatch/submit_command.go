package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"inboxwatch/internal/submissions"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var name, email, message string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Insert a submission (for testing the watcher and viewer)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(message) == "" {
				return errors.New("--message is required")
			}
			store, err := ctx.openStore(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer store.Close()

			rec, err := store.Insert(cmd.Context(), submissions.NewSubmission{
				Name:      strings.TrimSpace(name),
				Email:     strings.TrimSpace(email),
				Message:   message,
				Timestamp: time.Now(),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored submission #%d\n", rec.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Sender name")
	cmd.Flags().StringVar(&email, "email", "", "Sender email")
	cmd.Flags().StringVarP(&message, "message", "m", "", "Message body")
	return cmd
}
