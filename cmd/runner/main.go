package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/me/runhub/internal/logging"
	"github.com/me/runhub/internal/runner"
)

func main() {
	var cfg runner.Config

	flag.StringVar(&cfg.ServerURL, "server", "http://localhost:8080", "Coordinator URL")
	tags := flag.String("tags", "", "Comma-separated capability tags")
	flag.StringVar(&cfg.Profile, "profile", "", "Runner profile name")
	flag.BoolVar(&cfg.StrictTags, "strict-tags", false, "Only accept runs that demand at least one of this runner's tags")
	flag.StringVar(&cfg.WorkDir, "workdir", "", "Local working directory (default: $TMPDIR/runhub-runner)")
	flag.DurationVar(&cfg.Heartbeat, "heartbeat", 10*time.Second, "Heartbeat interval")
	flag.DurationVar(&cfg.MaxWait, "max-wait", 30*time.Second, "Long-poll wait per work request")

	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "text", "Log format (text, json)")
	debug := flag.Bool("debug", false, "Shorthand for --log-level=debug")
	flag.Parse()

	if *debug {
		*logLevel = "debug"
	}

	logger := logging.NewLogger(logging.ParseLevel(*logLevel), *logFormat)

	for _, tag := range strings.Split(*tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			cfg.Tags = append(cfg.Tags, tag)
		}
	}

	// Everything after the flags is the command executed per run.
	cfg.Command = flag.Args()
	if len(cfg.Command) == 0 {
		fmt.Fprintln(os.Stderr, "usage: runhub-runner [flags] -- command [args...]")
		os.Exit(2)
	}

	r, err := runner.New(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init runner: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting runner",
		"server", cfg.ServerURL,
		"tags", cfg.Tags,
		"profile", cfg.Profile,
		"command", cfg.Command[0],
	)

	if err := r.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "runner error: %v\n", err)
		os.Exit(1)
	}

	logger.Info("runner stopped")
}
