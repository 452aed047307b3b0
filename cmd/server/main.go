package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/me/runhub/internal/archive"
	"github.com/me/runhub/internal/callback"
	"github.com/me/runhub/internal/config"
	"github.com/me/runhub/internal/dispatch"
	"github.com/me/runhub/internal/logging"
	"github.com/me/runhub/internal/queue"
	"github.com/me/runhub/internal/registry"
	"github.com/me/runhub/internal/server"
	"github.com/me/runhub/internal/sweeper"
	"github.com/me/runhub/pkg/model"
)

func main() {
	cfg := config.DefaultServerConfig()

	configFile := flag.String("config", "", "Path to YAML config file")
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json)")
	flag.StringVar(&cfg.HistoryPath, "history", cfg.HistoryPath, "SQLite path for the terminal-run archive (empty disables)")
	flag.DurationVar(&cfg.HeartbeatTimeout, "heartbeat-timeout", cfg.HeartbeatTimeout, "Runner heartbeat timeout")
	flag.DurationVar(&cfg.ClaimGrace, "claim-grace", cfg.ClaimGrace, "Grace before a stale claim is orphaned")
	debug := flag.Bool("debug", false, "Shorthand for --log-level=debug")
	flag.Parse()

	if *configFile != "" {
		if err := config.LoadFile(*configFile, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
	}
	if *debug {
		cfg.LogLevel = "debug"
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	q := queue.New(logger)
	reg := registry.New(logger, cfg.HeartbeatTimeout)
	disp := dispatch.New(q, reg, dispatch.Config{Slice: cfg.PollSlice, MaxWait: cfg.MaxPollWait}, logger)
	proc := callback.New(q, logger)

	var serverOpts []server.Option
	var hist *archive.Store
	if cfg.HistoryPath != "" {
		var err error
		hist, err = archive.Open(cfg.HistoryPath, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open history: %v\n", err)
			os.Exit(1)
		}
		defer hist.Close()
		if err := hist.Migrate(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "migrate history: %v\n", err)
			os.Exit(1)
		}
		logger.Info("history ready", "path", cfg.HistoryPath)
		serverOpts = append(serverOpts, server.WithArchive(hist))
	}

	// Terminal runs feed the session callback chain, then the archive.
	q.SetOnTerminal(func(run *model.Run) {
		proc.OnRunTerminal(run)
		if hist != nil {
			recCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := hist.Record(recCtx, run); err != nil {
				logger.Error("archive run", "run_id", run.ID, "error", err)
			}
		}
	})

	sweep := sweeper.New(q, reg, sweeper.Config{Interval: cfg.SweepInterval, ClaimGrace: cfg.ClaimGrace}, logger)

	srv := server.New(cfg, q, reg, disp, logger, serverOpts...)

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Handler(),
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := sweep.Start(ctx); err != nil && err != context.Canceled {
			logger.Error("sweeper stopped", "error", err)
		}
	}()

	go func() {
		logger.Info("server starting", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	if err := sweep.Stop(); err != nil {
		logger.Error("sweeper stop error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
