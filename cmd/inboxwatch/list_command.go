package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"inboxwatch/internal/notifications"
	"inboxwatch/internal/submissions"
	"inboxwatch/internal/textutil"
)

type submissionJSON struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	IsRead    bool      `json:"is_read"`
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var unreadOnly bool
	var asJSON bool
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List submissions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.ListAll(cmd.Context())
			if err != nil {
				return err
			}
			unread := submissions.CountUnread(records)
			records = filterRecords(records, unreadOnly, limit)

			if asJSON {
				out := make([]submissionJSON, 0, len(records))
				for _, rec := range records {
					out = append(out, submissionJSON(rec))
				}
				return writeJSON(cmd, out)
			}

			w := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(w, "No submissions")
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					strconv.FormatInt(rec.ID, 10),
					yesNo(rec.IsRead),
					formatTimestamp(rec.Timestamp),
					textutil.SingleLine(rec.Name),
					textutil.SingleLine(rec.Email),
					textutil.SingleLine(rec.Message),
				})
			}
			fmt.Fprintln(w, renderTable(w, []columnSpec{
				{header: "ID", align: alignRight},
				{header: "Read"},
				{header: "Received"},
				{header: "Name", widthMax: 24},
				{header: "Email", widthMax: 32},
				{header: "Message", widthMax: 60},
			}, rows))
			fmt.Fprintln(w, notifications.UnreadMessage(unread))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&unreadOnly, "unread", "u", false, "Only show unread submissions")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many submissions")
	return cmd
}

func filterRecords(records []submissions.Record, unreadOnly bool, limit int) []submissions.Record {
	out := make([]submissions.Record, 0, len(records))
	for _, rec := range records {
		if unreadOnly && rec.IsRead {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}
