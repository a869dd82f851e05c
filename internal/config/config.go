package config

import (
	"time"

	"github.com/spf13/pflag"
)

// Config holds configuration for the event indexer.
type Config struct {
	RPCURL            string
	FromSeq           uint64
	ToSeq             uint64
	Pools             []string
	BatchSize         uint64
	Out               string
	PGDSN             string
	Checkpoint        string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
	Follow            bool
	PollInterval      time.Duration
	LogLevel          string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"rpc":                "http://127.0.0.1:8545",
		"from":               uint64(1),
		"batch-size":         uint64(500),
		"out":                "./data/events.jsonl",
		"checkpoint":         "./data/checkpoint.json",
		"checkpoint-enabled": true,
		"max-retries":        5,
		"retry-backoff":      500 * time.Millisecond,
		"poll-interval":      2 * time.Second,
		"log-level":          "info",
	})
	if err != nil {
		return Config{}, err
	}

	return Config{
		RPCURL:            v.GetString("rpc"),
		FromSeq:           v.GetUint64("from"),
		ToSeq:             v.GetUint64("to"),
		Pools:             getStringSlice(v, "pool"),
		BatchSize:         v.GetUint64("batch-size"),
		Out:               v.GetString("out"),
		PGDSN:             v.GetString("pg-dsn"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		Follow:            v.GetBool("follow"),
		PollInterval:      v.GetDuration("poll-interval"),
		LogLevel:          v.GetString("log-level"),
	}, nil
}
