package testsupport

import (
	"context"
	"fmt"
	"testing"
	"time"

	"inboxwatch/internal/config"
	"inboxwatch/internal/submissions"
)

// MustOpenStore opens a submissions.Store for tests, creating the SQLite file
// and schema, and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *submissions.Store {
	t.Helper()

	opts, err := submissions.OptionsFromConfig(cfg)
	if err != nil {
		t.Fatalf("submissions.OptionsFromConfig: %v", err)
	}
	opts.Create = true
	store, err := submissions.Open(context.Background(), opts)
	if err != nil {
		t.Fatalf("submissions.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return store
}

// Seed inserts count unread submissions with predictable content and returns
// them in insertion order.
func Seed(t testing.TB, store *submissions.Store, count int) []submissions.Record {
	t.Helper()

	base := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	records := make([]submissions.Record, 0, count)
	for i := 0; i < count; i++ {
		rec, err := store.Insert(context.Background(), submissions.NewSubmission{
			Name:      fmt.Sprintf("Sender %d", i+1),
			Email:     fmt.Sprintf("sender%d@example.com", i+1),
			Message:   fmt.Sprintf("message %d", i+1),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
		records = append(records, rec)
	}
	return records
}
