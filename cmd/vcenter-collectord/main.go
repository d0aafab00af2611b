// Command vcenter-collectord is the collector process: it runs the
// scheduler loop (C10) driving the inventory, event and performance
// fetchers against every registered Service, and exposes the read API
// (C11) over an optional status HTTP surface.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kubev2v/vcenter-collector/internal/arena"
	"github.com/kubev2v/vcenter-collector/internal/collector"
	"github.com/kubev2v/vcenter-collector/internal/config"
	"github.com/kubev2v/vcenter-collector/internal/readapi"
	"github.com/kubev2v/vcenter-collector/internal/scheduler"
	"github.com/kubev2v/vcenter-collector/internal/statusapi"
)

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.NewViper()

	cmd := &cobra.Command{
		Use:   "vcenter-collectord",
		Short: "Runs the vCenter/ESXi telemetry collector",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			return run(cmd.Context(), cfg)
		},
	}

	config.BindFlags(cmd.Flags())
	return cmd
}

func run(ctx context.Context, cfg *config.Configuration) error {
	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck
	zap.ReplaceGlobals(log)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// A panic from arena.Arena.Fatal is the one condition spec.md §7
	// calls truly unrecoverable (allocation failure after a resize); it
	// is caught once, here, at the top level so the log is flushed
	// before the process exits non-zero.
	defer func() {
		if r := recover(); r != nil {
			log.Sugar().Errorw("fatal arena condition, exiting", "error", r)
			log.Sync() //nolint:errcheck
			os.Exit(1)
		}
	}()

	a := arena.New(cfg.Arena.InitialSize)

	inventory := collector.NewFetcher(cfg.Insecure, "")
	events := collector.NewEventFetcher(a, cfg.Insecure, "")
	perf := collector.NewPerfFetcher(cfg.Insecure, "")

	sched := scheduler.New(a, cfg.Scheduler, inventory, perf, events)
	read := readapi.New(a, sched)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Run(ctx)
	}()

	if cfg.StatusAPI.Enabled {
		srv := statusapi.New(cfg.StatusAPI.Addr, read)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Start(ctx); err != nil {
				log.Sugar().Errorw("status API server stopped", "error", err)
			}
		}()
	}

	log.Sugar().Infow("vcenter-collectord started",
		"status_api_enabled", cfg.StatusAPI.Enabled,
		"status_api_addr", cfg.StatusAPI.Addr,
	)

	<-ctx.Done()
	log.Sugar().Infow("shutdown signal received, stopping")
	sched.Close()
	wg.Wait()
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.Set(level); err != nil {
		lvl = zapcore.InfoLevel
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}
