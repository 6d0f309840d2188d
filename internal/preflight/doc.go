// Package preflight provides readiness checks for the pieces inboxwatch and
// inboxview depend on: the store, the viewer executable, the log and lock
// directories, and the optional ntfy server.
//
// The CLI "inboxwatch doctor" command runs RunAll and prints one line per
// check. Checks never modify anything; a failing check explains what to fix.
package preflight
