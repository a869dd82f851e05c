package config

import (
	"time"

	"github.com/spf13/pflag"
)

// ClientConfig holds configuration shared by commands that call a running server.
type ClientConfig struct {
	RPCURL      string
	Timeout     time.Duration
	SlippageBps uint64
	LogLevel    string
}

// LoadClient merges config file, environment variables, and flags into ClientConfig.
func LoadClient(cfgFile string, flags *pflag.FlagSet) (ClientConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"rpc":          "http://127.0.0.1:8545",
		"timeout":      30 * time.Second,
		"slippage-bps": uint64(50),
		"log-level":    "info",
	})
	if err != nil {
		return ClientConfig{}, err
	}
	return ClientConfig{
		RPCURL:      v.GetString("rpc"),
		Timeout:     v.GetDuration("timeout"),
		SlippageBps: v.GetUint64("slippage-bps"),
		LogLevel:    v.GetString("log-level"),
	}, nil
}
