package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"artblog/internal/build"
	"artblog/internal/domain/config"
	"artblog/internal/metrics"
	"artblog/internal/serve"

	"github.com/alecthomas/kong"
)

var version = "dev"

type CLI struct {
	Config         string           `arg:"" name:"config" type:"path" help:"Path to the YAML configuration file. A commented template is written when it does not exist."`
	PreserveOutput bool             `short:"p" help:"Keep the existing contents of the output directory."`
	Verbose        bool             `short:"v" help:"Enable debug logging."`
	Strict         bool             `help:"Fail the build when a generated page links to a missing file."`
	Watch          bool             `short:"w" help:"Rebuild whenever an input changes."`
	Serve          string           `placeholder:"ADDR" help:"Serve the output on ADDR (e.g. :8080); implies --watch."`
	Version        kong.VersionFlag `help:"Show version and exit."`
}

// AfterApply sets up logging once flags are parsed.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

func (c *CLI) Run() error {
	if _, err := os.Stat(c.Config); errors.Is(err, fs.ErrNotExist) {
		if err := config.WriteTemplate(c.Config); err != nil {
			return err
		}
		slog.Info("Config file not found, wrote a template. Edit it and run again.", "path", c.Config)
		return nil
	}

	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := build.Options{PreserveOutput: c.PreserveOutput, Strict: c.Strict}
	if !c.Watch && c.Serve == "" {
		_, err := (&build.Builder{Cfg: cfg, Opts: opts}).Run(ctx)
		return err
	}

	s := serve.New(cfg, opts, metrics.NewPrometheusRecorder(nil), slog.Default())
	defer s.Close()

	if err := s.Rebuild(ctx, false); err != nil {
		return err
	}
	if c.Serve != "" {
		return s.ListenAndServe(ctx, c.Serve)
	}
	return s.Watch(ctx)
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("artblog"),
		kong.Description("Build a static art blog from Markdown posts and pages."),
		kong.Vars{"version": version},
		kong.UsageOnError(),
	)
	if err := cli.Run(); err != nil {
		slog.Error("Build failed", "error", err)
		os.Exit(1)
	}
}
