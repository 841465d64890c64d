package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dori/tasklist/internal/app"
	"github.com/dori/tasklist/internal/config"
)

func main() {
	fs := flag.NewFlagSet("todolistd", flag.ContinueOnError)
	cfg, err := config.LoadServer(fs, os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.ServerConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := app.NewBackend(cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	return backend.Server.ListenAndServe(ctx, cfg.Addr)
}
