// Package main is the entry point for the aitask CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"aitask/internal/backend/taskapi"
	"aitask/internal/cli"
	"aitask/internal/commands"
	"aitask/internal/config"
	"aitask/internal/service"
)

func main() {
	// Create context that cancels on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	factory := func(ctx context.Context, cfg *config.Config) (service.Service, error) {
		return taskapi.New(ctx, cfg)
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
