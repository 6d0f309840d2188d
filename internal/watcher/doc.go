// Package watcher implements the single-shot check run by the scheduler.
//
// Each run counts unread submissions and, when there are any, resolves the
// viewer executable, consults the single-instance probe, and launches the
// viewer detached. The run never retries and never blocks on the viewer; its
// outcome is reported as a process exit code.
package watcher
