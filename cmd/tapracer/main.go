package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/park285/tap-racer/internal/obslog"
	"github.com/spf13/cobra"
)

const releaseVersion = "0.4.0"

func main() {
	_ = godotenv.Load()
	if err := obslog.InitFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newCmd().ExecuteContext(ctx)
	stop()
	obslog.Sync()
	cobra.CheckErr(err)
}
