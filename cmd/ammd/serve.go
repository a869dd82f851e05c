package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ammEngine/internal/amm"
	"ammEngine/internal/config"
	"ammEngine/internal/events"
	"ammEngine/internal/ledger"
	"ammEngine/internal/model"
	"ammEngine/internal/rpcapi"
	"ammEngine/internal/runtime"
	"ammEngine/internal/storage"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServe(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	programs, err := config.InitPrograms(cfg.AMMProgram, cfg.LedgerProgram)
	if err != nil {
		return err
	}

	hooks, err := transferHooks(cfg)
	if err != nil {
		return err
	}

	bus := events.NewBus(logger)
	if err := bus.Subscribe(events.TopicAll, events.LogHandler(logger)); err != nil {
		return err
	}
	if cfg.Journal != "" {
		journal := storage.NewJsonlStorage(cfg.Journal)
		err := bus.SubscribeAsync(events.TopicAll, func(record model.EventRecord) {
			if err := journal.PutEventBatch(context.Background(), []model.EventRecord{record}); err != nil {
				logger.Error("journal write failed", zap.Error(err), zap.Uint64("seq", record.Seq))
			}
		}, true)
		if err != nil {
			return err
		}
	}
	defer bus.WaitAsync()

	host, err := runtime.Open(runtime.Config{
		Path:               cfg.DataDir,
		LedgerProgramID:    programs.Ledger,
		MaxConflictRetries: cfg.MaxConflictRetries,
		Hooks:              hooks,
	}, bus, logger)
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	defer host.Close()

	engine := amm.NewEngine(amm.Config{
		ProgramID:     programs.AMM,
		StrictFeeRate: cfg.StrictFeeRate,
	}, amm.NewMetrics(), logger)

	rpcServer, err := rpcapi.NewServer(rpcapi.NewAPI(host, engine, programs.Ledger, logger))
	if err != nil {
		return err
	}
	defer rpcServer.Stop()

	servers := []*http.Server{{
		Addr:              cfg.Listen,
		Handler:           rpcServer,
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if cfg.MetricsListen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		servers = append(servers, &http.Server{
			Addr:              cfg.MetricsListen,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		srv := srv
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("listen %s: %w", srv.Addr, err)
			}
		}()
	}

	logger.Info("ammd start",
		zap.String("listen", cfg.Listen),
		zap.String("metrics_listen", cfg.MetricsListen),
		zap.String("data_dir", cfg.DataDir),
		zap.String("amm_program", programs.AMM.String()),
		zap.String("ledger_program", programs.Ledger.String()),
		zap.Bool("strict_fee_rate", cfg.StrictFeeRate),
		zap.Int("hooks", len(hooks)),
		zap.String("journal", cfg.Journal),
	)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", zap.String("addr", srv.Addr), zap.Error(err))
		}
	}
	logger.Info("ammd stopped")
	return runErr
}

func transferHooks(cfg config.ServeConfig) ([]ledger.Hook, error) {
	var hooks []ledger.Hook
	if cfg.TransferHook {
		hooks = append(hooks, ledger.AmountRangeHook{MaxWholeUnits: cfg.MaxTransferUnits})
	}
	if len(cfg.AllowList) > 0 {
		owners := make([]solana.PublicKey, 0, len(cfg.AllowList))
		for _, entry := range cfg.AllowList {
			owner, err := solana.PublicKeyFromBase58(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid allow-list entry: %s", entry)
			}
			owners = append(owners, owner)
		}
		hooks = append(hooks, ledger.NewAllowList(owners...))
	}
	return hooks, nil
}
