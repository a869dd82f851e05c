package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "ammd",
		Short:        "Constant-product AMM server and tools",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the AMM JSON-RPC server",
		RunE:  runServe,
	}

	serveCmd.Flags().String("listen", "127.0.0.1:8545", "JSON-RPC listen address")
	serveCmd.Flags().String("metrics-listen", "127.0.0.1:9100", "Prometheus listen address, empty disables")
	serveCmd.Flags().String("data-dir", "./data/state", "state directory, empty keeps state in memory")
	serveCmd.Flags().String("amm-program", "", "program id pool addresses are derived under")
	serveCmd.Flags().String("ledger-program", "", "program id associated accounts are derived under")
	serveCmd.Flags().Bool("strict-fee-rate", false, "reject pools with fee rate above 10000 bps")
	serveCmd.Flags().Bool("transfer-hook", false, "enforce transfer amount limits")
	serveCmd.Flags().Uint64("max-transfer-units", 1_000_000, "largest transfer in whole units of an asset")
	serveCmd.Flags().StringSlice("allow-list", nil, "owners allowed to send or receive (comma-separated, empty allows all)")
	serveCmd.Flags().Int("max-conflict-retries", 16, "retries for conflicting commits")
	serveCmd.Flags().String("journal", "", "optional JSONL file every committed event is appended to")
	serveCmd.Flags().Duration("shutdown-timeout", 10*time.Second, "graceful shutdown timeout")
	serveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(serveCmd)
	root.AddCommand(clientCommands()...)

	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Copy committed events from a server into JSONL and Postgres",
		RunE:  runIndex,
	}

	indexCmd.Flags().String("rpc", "", "server RPC URL")
	indexCmd.Flags().Uint64("from", 1, "start seq (inclusive)")
	indexCmd.Flags().Uint64("to", 0, "end seq (inclusive), 0 means latest")
	indexCmd.Flags().StringSlice("pool", nil, "pool addresses (comma-separated)")
	indexCmd.Flags().Uint64("batch-size", 500, "events per batch")
	indexCmd.Flags().String("out", "./data/events.jsonl", "output JSONL path")
	indexCmd.Flags().String("pg-dsn", "", "optional Postgres DSN")
	indexCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	indexCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	indexCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	indexCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	indexCmd.Flags().Bool("follow", false, "keep polling for new events")
	indexCmd.Flags().Duration("poll-interval", 2*time.Second, "poll interval in follow mode")
	indexCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(indexCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode event records into typed events",
		RunE:  runDecode,
	}

	decodeCmd.Flags().String("in", "", "input event records JSONL")
	decodeCmd.Flags().String("out", "./data/typed_events.jsonl", "output typed events JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(decodeCmd)

	aggregateCmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate event records into window metrics",
		RunE:  runAggregate,
	}

	aggregateCmd.Flags().String("rpc", "", "server RPC URL for asset decimals")
	aggregateCmd.Flags().String("in", "", "input event records JSONL")
	aggregateCmd.Flags().String("window", "5m", "aggregation window (e.g. 1m, 5m, 1h)")
	aggregateCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	aggregateCmd.Flags().Int("batch-size", 1000, "batch size for DB writes")
	aggregateCmd.Flags().String("state-file", "", "optional local state file for progress tracking")
	aggregateCmd.Flags().String("recompute-from", "", "recompute from timestamp (unix seconds or RFC3339)")
	aggregateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(aggregateCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
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
