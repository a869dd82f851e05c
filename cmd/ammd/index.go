package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ammEngine/internal/client"
	"ammEngine/internal/config"
	"ammEngine/internal/indexer"
	"ammEngine/internal/storage"
	"ammEngine/internal/storage/postgres"
)

func runIndex(cmd *cobra.Command, _ []string) error {
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

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}

	pools, err := indexer.ParsePools(cfg.Pools)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := client.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer source.Close()

	sinks := storage.Multi{storage.NewJsonlStorage(cfg.Out)}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		sinks = append(sinks, store)
	}

	runner := indexer.NewRunner(indexer.RunConfig{
		FromSeq:           cfg.FromSeq,
		ToSeq:             cfg.ToSeq,
		Pools:             pools,
		BatchSize:         cfg.BatchSize,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
		Follow:            cfg.Follow,
		PollInterval:      cfg.PollInterval,
	}, source, sinks, logger)

	logger.Info("index start",
		zap.String("rpc", cfg.RPCURL),
		zap.Uint64("from", cfg.FromSeq),
		zap.Uint64("to", cfg.ToSeq),
		zap.Int("pools", len(pools)),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.String("out", cfg.Out),
		zap.Bool("postgres", cfg.PGDSN != ""),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint", cfg.Checkpoint),
		zap.Bool("follow", cfg.Follow),
	)

	err = runner.Run(ctx)
	if cfg.Follow && ctx.Err() != nil {
		return nil
	}
	return err
}
