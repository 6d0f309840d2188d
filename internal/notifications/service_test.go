package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inboxwatch/internal/config"
	"inboxwatch/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyNewSubmissions(context.Background(), 3); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).TestNotification(context.Background()); err != nil {
		t.Fatalf("nil config should yield noop, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	t.Setenv("LC_ALL", "en_US.UTF-8")
	tests := []struct {
		name           string
		send           func(notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:           "single unread",
			send:           func(s notifications.Service) error { return s.NotifyNewSubmissions(context.Background(), 1) },
			expectTitle:    "New submission",
			expectMessage:  "You have 1 unread submission.",
			expectTags:     "inbox,new",
			expectPriority: "high",
		},
		{
			name:           "many unread uses grouping",
			send:           func(s notifications.Service) error { return s.NotifyNewSubmissions(context.Background(), 1204) },
			expectTitle:    "New submission",
			expectMessage:  "You have 1,204 unread submissions.",
			expectTags:     "inbox,new",
			expectPriority: "high",
		},
		{
			name:          "viewer launched",
			send:          func(s notifications.Service) error { return s.NotifyViewerLaunched(context.Background(), 2) },
			expectTitle:   "Inbox viewer opened",
			expectMessage: "You have 2 unread submissions.",
			expectTags:    "inbox,viewer",
		},
		{
			name: "error",
			send: func(s notifications.Service) error {
				return s.NotifyError(context.Background(), errors.New("store unavailable"), "refresh")
			},
			expectTitle:    "Inbox - Error",
			expectMessage:  "Error during refresh: store unavailable",
			expectTags:     "inbox,error,alert",
			expectPriority: "high",
		},
		{
			name:           "test",
			send:           func(s notifications.Service) error { return s.TestNotification(context.Background()) },
			expectTitle:    "Inbox - Test",
			expectMessage:  "Notification system test",
			expectTags:     "inbox,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, _ := io.ReadAll(r.Body)
				captured.body = string(body)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			if err := tc.send(notifications.NewService(&cfg)); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceReportsHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic closed", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	err := notifications.NewService(&cfg).NotifyNewSubmissions(context.Background(), 2)
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}

func TestUnreadMessageFallsBackToEnglish(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_NUMERIC", "")
	t.Setenv("LANG", "C")
	if got := notifications.UnreadMessage(0); got != "You have 0 unread submissions." {
		t.Fatalf("UnreadMessage(0) = %q", got)
	}
	if got := notifications.FormatCount(12345); got != "12,345" {
		t.Fatalf("FormatCount = %q", got)
	}
}
