// Command inboxwatch checks the submission store for unread records and
// launches the inbox viewer when a backlog exists and no viewer is running.
//
// Run it from a scheduler (cron, a systemd timer) with no arguments; each
// invocation performs exactly one check and exits with 0 when there is
// nothing to do, 1 when the viewer was launched, and 2 on failure. The
// remaining subcommands are operator tooling: list and submit records,
// create the store schema, and inspect configuration.
package main
