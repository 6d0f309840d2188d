package config

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"inboxwatch/internal/faults"
)

// Candidate is one entry in an ordered path precedence chain.
type Candidate struct {
	Source string
	Path   string
}

// Resolved is the winning candidate of a chain.
type Resolved struct {
	Candidate
	Index      int
	Executable bool
}

// FirstExisting returns the first candidate whose path exists as a regular
// file. Candidates with empty paths are skipped. When nothing exists the
// returned error is tagged faults.ErrExecutableNotFound and lists every path
// that was tried.
func FirstExisting(candidates []Candidate) (Resolved, error) {
	tried := make([]string, 0, len(candidates))
	for idx, candidate := range candidates {
		path := strings.TrimSpace(candidate.Path)
		if path == "" {
			continue
		}
		tried = append(tried, path)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		return Resolved{
			Candidate:  Candidate{Source: candidate.Source, Path: path},
			Index:      idx,
			Executable: unix.Access(path, unix.X_OK) == nil,
		}, nil
	}
	return Resolved{}, faults.Wrap(faults.ErrExecutableNotFound, "config", "resolve viewer",
		fmt.Sprintf("no candidate exists (tried %s); set viewer_path or the override file path", strings.Join(tried, ", ")), nil)
}

// OptionalBool is one tier of a boolean precedence chain; a nil Value means
// the tier is unset.
type OptionalBool struct {
	Source string
	Value  *bool
}

// FirstBool returns the first set value and the tier that supplied it, or the
// fallback with source "default".
func FirstBool(values []OptionalBool, fallback bool) (bool, string) {
	for _, v := range values {
		if v.Value != nil {
			return *v.Value, v.Source
		}
	}
	return fallback, "default"
}
