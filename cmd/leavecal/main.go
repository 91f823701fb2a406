package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"leaveportal/internal/cli"
	"leaveportal/internal/client"
	"leaveportal/internal/client/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Warnings only; the calendar owns the terminal.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	path := os.Getenv("LEAVECAL_CONFIG")
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		if cfg == nil {
			return fmt.Errorf("loading config: %w", err)
		}
		slog.Warn("config file not written", "path", path, "err", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	app := &cli.App{
		Source:       client.New(cfg.APIURL, loc, cfg.RequestTimeout),
		Location:     loc,
		DisallowPast: cfg.DisallowPast,
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
	}
	return cli.NewRootCmd(app).Execute()
}
