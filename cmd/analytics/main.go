// Package main provides the trading analytics CLI:
// - run: scheduled cycles, health checks and the /metrics endpoint
// - once: a single cycle
// - report: Markdown/CSV view of the current analytics
// - migrate: schema for the configured backend and ClickHouse
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
