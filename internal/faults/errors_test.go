package faults_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"inboxwatch/internal/faults"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("dial tcp: connection refused")
	err := faults.Wrap(faults.ErrStoreUnavailable, "submissions", "count unread", "query failed", base)
	if !errors.Is(err, faults.ErrStoreUnavailable) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"submissions", "count unread", "query failed", "connection refused"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := faults.Wrap(faults.ErrConfigurationMissing, "", "", "", nil)
	if !errors.Is(err, faults.ErrConfigurationMissing) {
		t.Fatalf("expected marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestFatalAndKind(t *testing.T) {
	tests := []struct {
		err   error
		fatal bool
		kind  string
	}{
		{nil, false, "ok"},
		{faults.Wrap(faults.ErrProcessEnumeration, "instance", "probe", "", nil), false, "process_enumeration_failed"},
		{faults.Wrap(faults.ErrExecutableNotFound, "config", "resolve", "", nil), true, "executable_not_found"},
		{faults.Wrap(faults.ErrConfigurationMissing, "config", "dsn", "", nil), true, "configuration_missing"},
		{fmt.Errorf("outer: %w", faults.ErrSaveFailed), true, "save_failed"},
		{errors.New("boom"), true, "unexpected"},
	}
	for _, tc := range tests {
		if got := faults.Fatal(tc.err); got != tc.fatal {
			t.Errorf("Fatal(%v) = %v, want %v", tc.err, got, tc.fatal)
		}
		wantCode := 0
		if tc.fatal {
			wantCode = 2
		}
		if got := faults.ExitCode(tc.err); got != wantCode {
			t.Errorf("ExitCode(%v) = %d, want %d", tc.err, got, wantCode)
		}
		if got := faults.Kind(tc.err); got != tc.kind {
			t.Errorf("Kind(%v) = %q, want %q", tc.err, got, tc.kind)
		}
	}
}
