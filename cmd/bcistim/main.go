package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"bcistim/internal/cli"
)

// Version is set at build time via -ldflags "-X main.Version=..."
var Version = "dev"

func init() {
	// SDL3 requires the main thread for some operations.
	runtime.LockOSThread()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cli.NewRootCmd(Version).ExecuteContext(ctx)
	stop()
	os.Exit(cli.ExitCode(err))
}
