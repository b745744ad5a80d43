package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"ammcore/internal/amm"
	"ammcore/internal/api"
	"ammcore/internal/config"
	"ammcore/internal/storage"
	"ammcore/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "ammd",
		Short:        "In-process AMM exchange engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the engine with its HTTP facade",
		RunE:  runServe,
	}

	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().Duration("lock-timeout", 250*time.Millisecond, "per-pool lock acquisition timeout")
	serveCmd.Flags().Int64("ratio-tolerance-bps", 50, "deposit ratio tolerance in basis points")
	serveCmd.Flags().Duration("volume-window", 24*time.Hour, "trailing volume window for pool listings")
	serveCmd.Flags().String("snapshot-path", "", "JSONL snapshot output path (empty disables)")
	serveCmd.Flags().Duration("snapshot-interval", time.Minute, "snapshot interval")
	serveCmd.Flags().String("pg-dsn", "", "Postgres DSN for snapshots (empty disables)")
	serveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(serveCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	metrics := amm.NewMetrics(registry)

	engine := amm.NewEngine(amm.EngineConfig{
		LockTimeout:       cfg.LockTimeout,
		RatioToleranceBps: cfg.RatioToleranceBps,
		VolumeWindow:      cfg.VolumeWindow,
	}, metrics, logger)

	var sinks []storage.Storage
	if cfg.SnapshotPath != "" {
		sinks = append(sinks, storage.NewJsonlStorage(cfg.SnapshotPath))
	}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return err
		}
		defer store.Close()
		// Postgres saves ride the network; retry transient failures before
		// punting to the next snapshot tick.
		sinks = append(sinks, storage.WithRetry(store, 3, 500*time.Millisecond))
	}

	server := api.NewServer(engine, registry, logger)
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.Router(),
	}

	logger.Info("ammd start",
		zap.String("listen", cfg.ListenAddr),
		zap.Duration("lock_timeout", cfg.LockTimeout),
		zap.Int64("ratio_tolerance_bps", cfg.RatioToleranceBps),
		zap.Duration("volume_window", cfg.VolumeWindow),
		zap.String("snapshot_path", cfg.SnapshotPath),
		zap.Duration("snapshot_interval", cfg.SnapshotInterval),
		zap.Bool("postgres", cfg.PGDSN != ""),
	)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if len(sinks) > 0 {
		group.Go(func() error {
			return runSnapshotter(ctx, engine, sinks, cfg.SnapshotInterval, logger)
		})
	}

	return group.Wait()
}

// runSnapshotter periodically persists engine snapshots to every configured
// sink. A failing sink is logged and retried on the next tick; it never
// stops the engine.
func runSnapshotter(ctx context.Context, engine *amm.Engine, sinks []storage.Storage, interval time.Duration, logger *zap.Logger) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			snap := engine.Snapshot()
			for _, sink := range sinks {
				if err := sink.SaveSnapshot(ctx, snap); err != nil {
					logger.Warn("snapshot save failed",
						zap.Error(err),
						zap.Uint64("last_trade_id", snap.LastTradeID),
					)
				}
			}
			logger.Debug("snapshot saved",
				zap.Int("pools", len(snap.Pools)),
				zap.Int("positions", len(snap.Positions)),
				zap.Int("trades", len(snap.Trades)),
			)
		}
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
