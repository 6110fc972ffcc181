// Package main is the entry point for the swarm CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/runoshun/agent-swarm/internal/app"
	"github.com/runoshun/agent-swarm/internal/cli"
	"github.com/runoshun/agent-swarm/internal/domain"
)

// version is set at build time using -ldflags.
var version = "dev"

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	container, err := app.New(ctx, cwd)
	if errors.Is(err, domain.ErrNotInitialized) {
		// init, config and help still work; everything else reports ErrNotInitialized.
		container, err = app.NewUninitialized(cwd)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer func() { _ = container.Close(context.WithoutCancel(ctx)) }()

	rootCmd := cli.NewRootCommand(container, version)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return rootCmd.ExecuteContext(ctx)
}
