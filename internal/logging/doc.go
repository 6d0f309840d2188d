// Package logging assembles structured slog loggers for the watcher and the
// viewer.
//
// Every program writes one append-only, date-stamped file per day under the
// configured log directory. Console output, when enabled, is split by level:
// INFO and WARN go to stdout while ERROR goes to stderr. The interactive
// viewer disables the console so log lines never corrupt the terminal UI.
//
// The package also exposes attribute helpers, context-aware run identifiers,
// retention pruning, and a no-op logger for tests and wiring code that cannot
// fail.
package logging
