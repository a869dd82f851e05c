package config

import (
	"time"

	"github.com/spf13/pflag"
)

// ServeConfig holds configuration for the ammd server.
type ServeConfig struct {
	Listen             string
	MetricsListen      string
	DataDir            string
	AMMProgram         string
	LedgerProgram      string
	StrictFeeRate      bool
	TransferHook       bool
	MaxTransferUnits   uint64
	AllowList          []string
	MaxConflictRetries int
	Journal            string
	ShutdownTimeout    time.Duration
	LogLevel           string
}

// LoadServe merges config file, environment variables, and flags into ServeConfig.
func LoadServe(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"listen":               "127.0.0.1:8545",
		"metrics-listen":       "127.0.0.1:9100",
		"data-dir":             "./data/state",
		"amm-program":          DefaultAMMProgram,
		"ledger-program":       DefaultLedgerProgram,
		"strict-fee-rate":      false,
		"transfer-hook":        false,
		"max-transfer-units":   uint64(1_000_000),
		"max-conflict-retries": 16,
		"shutdown-timeout":     10 * time.Second,
		"log-level":            "info",
	})
	if err != nil {
		return ServeConfig{}, err
	}

	return ServeConfig{
		Listen:             v.GetString("listen"),
		MetricsListen:      v.GetString("metrics-listen"),
		DataDir:            v.GetString("data-dir"),
		AMMProgram:         v.GetString("amm-program"),
		LedgerProgram:      v.GetString("ledger-program"),
		StrictFeeRate:      v.GetBool("strict-fee-rate"),
		TransferHook:       v.GetBool("transfer-hook"),
		MaxTransferUnits:   v.GetUint64("max-transfer-units"),
		AllowList:          getStringSlice(v, "allow-list"),
		MaxConflictRetries: v.GetInt("max-conflict-retries"),
		Journal:            v.GetString("journal"),
		ShutdownTimeout:    v.GetDuration("shutdown-timeout"),
		LogLevel:           v.GetString("log-level"),
	}, nil
}
