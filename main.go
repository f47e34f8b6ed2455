// Command trixle generates helix lattices and searches them for resonant
// bends.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pthm-cable/trixle/config"
	"github.com/pthm-cable/trixle/lab"
)

const usage = `usage: trixle [flags] <command> [command flags]

commands:
  generate   build one lattice from a preset or explicit steps/bend
  tune       find the resonant bend for one step count
  sweep      refine every step count in a range and rank the gaps
  mirror     compare left- and right-handed resonances
  torsion    scan step counts at the fine-structure bend
  neutrino   scan step counts at zero bend
  profile    radial profile of a preset lattice
  strands    hexagonal packing of parallel strands
  presets    list the configured particle presets
  replay     regenerate a snapshot and report its deviation

flags:
`

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	archivePath := flag.String("archive", "", "SQLite database to archive runs in (empty = disabled)")
	workers := flag.Int("workers", 0, "Worker goroutines (0 = use config)")
	logFormat := flag.String("log-format", "json", "Log format: json or text")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := setupLogging(*logFormat, *logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	name, args := flag.Arg(0), flag.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		slog.Error("unknown command", "command", name)
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := lab.Options{
		Command:     name,
		Args:        os.Args[1:],
		OutputDir:   *outputDir,
		ArchivePath: *archivePath,
		Workers:     *workers,
		LogProgress: true,
	}
	if err := run(ctx, cfg, opts, cmd, args); err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Warn("interrupted", "command", name)
		} else {
			slog.Error("command failed", "command", name, "error", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts lab.Options, cmd command, args []string) error {
	fs := flag.NewFlagSet(opts.Command, flag.ContinueOnError)
	exec := cmd(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	l, err := lab.New(ctx, cfg, opts)
	if err != nil {
		return err
	}
	slog.Info("starting", "command", opts.Command, "workers", l.Workers(), "output_dir", l.OutputDir())

	err = exec(ctx, l)
	if cerr := l.Close(); cerr != nil {
		slog.Error("failed to close output", "error", cerr)
	}
	return err
}

func setupLogging(format, level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid -log-level %q: %w", level, err)
	}
	hopts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, hopts)
	case "text":
		handler = slog.NewTextHandler(os.Stdout, hopts)
	default:
		return fmt.Errorf("invalid -log-format %q: want text or json", format)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}
