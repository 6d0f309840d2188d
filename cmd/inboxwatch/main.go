package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"inboxwatch/internal/watcher"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// execute runs the CLI and returns the process exit code. Check runs report
// the watcher's code; other commands exit 1 on error.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cc := newCommandContext()
	root := newRootCommand(cc)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	cmd, err := root.ExecuteContextC(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(stderr, err)
		}
		if isCheckCommand(cmd) {
			return int(watcher.ExitFailed)
		}
		return 1
	}
	return cc.exitCode
}
