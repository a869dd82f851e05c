package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ammEngine/internal/amm"
	"ammEngine/internal/client"
	"ammEngine/internal/config"
	"ammEngine/internal/rpcapi"
)

type clientFunc func(ctx context.Context, c *client.Client, cfg config.ClientConfig, logger *zap.Logger) (interface{}, error)

// withClient loads client config, dials the server, runs fn and prints its
// result as JSON.
func withClient(fn func(cmd *cobra.Command, args []string) clientFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfgFile, _ := cmd.Flags().GetString("config")
		cfg, err := config.LoadClient(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		defer logger.Sync()

		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		ctx, cancel := context.WithTimeout(parent, cfg.Timeout)
		defer cancel()

		c, err := client.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return fmt.Errorf("connect rpc: %w", err)
		}
		defer c.Close()

		result, err := fn(cmd, args)(ctx, c, cfg, logger)
		if err != nil {
			return fmt.Errorf("%s", client.Describe(err))
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
}

func clientCommands() []*cobra.Command {
	assetCmd := &cobra.Command{Use: "asset", Short: "Manage ledger assets"}
	assetRegister := &cobra.Command{
		Use:   "register",
		Short: "Register an asset",
		RunE: withClient(func(cmd *cobra.Command, _ []string) clientFunc {
			id, _ := cmd.Flags().GetString("id")
			decimals, _ := cmd.Flags().GetUint8("decimals")
			return func(ctx context.Context, c *client.Client, _ config.ClientConfig, _ *zap.Logger) (interface{}, error) {
				return c.RegisterAsset(ctx, rpcapi.RegisterAssetArgs{ID: id, Decimals: decimals})
			}
		}),
	}
	assetRegister.Flags().String("id", "", "asset id, generated when empty")
	assetRegister.Flags().Uint8("decimals", 6, "asset decimals")
	assetShow := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an asset",
		Args:  cobra.ExactArgs(1),
		RunE: withClient(func(_ *cobra.Command, args []string) clientFunc {
			return func(ctx context.Context, c *client.Client, _ config.ClientConfig, _ *zap.Logger) (interface{}, error) {
				return c.Asset(ctx, args[0])
			}
		}),
	}
	assetCmd.AddCommand(assetRegister, assetShow)

	accountCmd := &cobra.Command{Use: "account", Short: "Manage ledger accounts"}
	accountOpen := &cobra.Command{
		Use:   "open",
		Short: "Open the owner's associated account for an asset",
		RunE: withClient(func(cmd *cobra.Command, _ []string) clientFunc {
			owner, _ := cmd.Flags().GetString("owner")
			asset, _ := cmd.Flags().GetString("asset")
			return func(ctx context.Context, c *client.Client, _ config.ClientConfig, _ *zap.Logger) (interface{}, error) {
				return c.OpenAccount(ctx, rpcapi.OpenAccountArgs{Owner: owner, Asset: asset})
			}
		}),
	}
	accountOpen.Flags().String("owner", "", "account owner")
	accountOpen.Flags().String("asset", "", "asset id")
	accountMint := &cobra.Command{
		Use:   "mint",
		Short: "Credit an account",
		RunE: withClient(func(cmd *cobra.Command, _ []string) clientFunc {
			account, _ := cmd.Flags().GetString("account")
			amount, _ := cmd.Flags().GetUint64("amount")
			return func(ctx context.Context, c *client.Client, _ config.ClientConfig, _ *zap.Logger) (interface{}, error) {
				return c.Mint(ctx, rpcapi.MintArgs{Account: account, Amount: amount})
			}
		}),
	}
	accountMint.Flags().String("account", "", "account id")
	accountMint.Flags().Uint64("amount", 0, "amount in base units")
	accountShow := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an account",
		Args:  cobra.ExactArgs(1),
		RunE: withClient(func(_ *cobra.Command, args []string) clientFunc {
			return func(ctx context.Context, c *client.Client, _ config.ClientConfig, _ *zap.Logger) (interface{}, error) {
				return c.Account(ctx, args[0])
			}
		}),
	}
	accountCmd.AddCommand(accountOpen, accountMint, accountShow)

	poolCmd := &cobra.Command{Use: "pool", Short: "Create and inspect pools"}
	poolDerive := &cobra.Command{
		Use:   "derive",
		Short: "Derive the pool address for an asset pair",
		RunE: withClient(func(cmd *cobra.Command, _ []string) clientFunc {
			assetA, _ := cmd.Flags().GetString("asset-a")
			assetB, _ := cmd.Flags().GetString("asset-b")
			return func(ctx context.Context, c *client.Client, _ config.ClientConfig, _ *zap.Logger) (interface{}, error) {
				return c.DerivePool(ctx, assetA, assetB)
			}
		}),
	}
	poolDerive.Flags().String("asset-a", "", "first asset id")
	poolDerive.Flags().String("asset-b", "", "second asset id")
	poolCreate := &cobra.Command{
		Use:   "create",
		Short: "Create a pool",
		RunE: withClient(func(cmd *cobra.Command, _ []string) clientFunc {
			args := rpcapi.CreatePoolArgs{}
			args.Authority, _ = cmd.Flags().GetString("authority")
			args.AssetA, _ = cmd.Flags().GetString("asset-a")
			args.AssetB, _ = cmd.Flags().GetString("asset-b")
			args.VaultA, _ = cmd.Flags().GetString("vault-a")
			args.VaultB, _ = cmd.Flags().GetString("vault-b")
			args.FeeRate, _ = cmd.Flags().GetUint64("fee-rate")
			return func(ctx context.Context, c *client.Client, _ config.ClientConfig, logger *zap.Logger) (interface{}, error) {
				pool, err := c.CreatePool(ctx, args)
				if err == nil {
					logger.Info("pool created", zap.String("pool", pool.Address.String()))
				}
				return pool, err
			}
		}),
	}
	poolCreate.Flags().String("authority", "", "pool authority")
	poolCreate.Flags().String("asset-a", "", "first asset id")
	poolCreate.Flags().String("asset-b", "", "second asset id")
	poolCreate.Flags().String("vault-a", "", "existing vault for asset a")
	poolCreate.Flags().String("vault-b", "", "existing vault for asset b")
	poolCreate.Flags().Uint64("fee-rate", 30, "fee rate in basis points")
	poolShow := &cobra.Command{
		Use:   "show <address>",
		Short: "Show a pool",
		Args:  cobra.ExactArgs(1),
		RunE: withClient(func(_ *cobra.Command, args []string) clientFunc {
			return func(ctx context.Context, c *client.Client, _ config.ClientConfig, _ *zap.Logger) (interface{}, error) {
				return c.Pool(ctx, args[0])
			}
		}),
	}
	poolList := &cobra.Command{
		Use:   "list",
		Short: "List pools",
		RunE: withClient(func(_ *cobra.Command, _ []string) clientFunc {
			return func(ctx context.Context, c *client.Client, _ config.ClientConfig, _ *zap.Logger) (interface{}, error) {
				return c.Pools(ctx)
			}
		}),
	}
	poolCmd.AddCommand(poolDerive, poolCreate, poolShow, poolList)

	liquidityCmd := &cobra.Command{Use: "liquidity", Short: "Provide liquidity"}
	liquidityAdd := &cobra.Command{
		Use:   "add",
		Short: "Deposit both assets into a pool",
		RunE: withClient(func(cmd *cobra.Command, _ []string) clientFunc {
			args := rpcapi.AddLiquidityArgs{}
			args.Pool, _ = cmd.Flags().GetString("pool")
			args.User, _ = cmd.Flags().GetString("user")
			args.UserAccountA, _ = cmd.Flags().GetString("account-a")
			args.UserAccountB, _ = cmd.Flags().GetString("account-b")
			args.AmountA, _ = cmd.Flags().GetUint64("amount-a")
			args.AmountB, _ = cmd.Flags().GetUint64("amount-b")
			return func(ctx context.Context, c *client.Client, _ config.ClientConfig, _ *zap.Logger) (interface{}, error) {
				return c.AddLiquidity(ctx, args)
			}
		}),
	}
	addUserFlags(liquidityAdd)
	liquidityAdd.Flags().Uint64("amount-a", 0, "asset a amount in base units")
	liquidityAdd.Flags().Uint64("amount-b", 0, "asset b amount in base units")
	liquidityCmd.AddCommand(liquidityAdd)

	swapCmd := &cobra.Command{
		Use:   "swap",
		Short: "Swap one pool asset for the other",
		RunE: withClient(func(cmd *cobra.Command, _ []string) clientFunc {
			args := rpcapi.SwapArgs{}
			args.Pool, _ = cmd.Flags().GetString("pool")
			args.User, _ = cmd.Flags().GetString("user")
			args.UserAccountA, _ = cmd.Flags().GetString("account-a")
			args.UserAccountB, _ = cmd.Flags().GetString("account-b")
			args.AmountIn, _ = cmd.Flags().GetUint64("amount-in")
			args.MinimumAmountOut, _ = cmd.Flags().GetUint64("min-out")
			args.AToB, _ = cmd.Flags().GetBool("a-to-b")
			minSet := cmd.Flags().Changed("min-out")
			return func(ctx context.Context, c *client.Client, cfg config.ClientConfig, logger *zap.Logger) (interface{}, error) {
				if !minSet {
					quote, err := c.Quote(ctx, rpcapi.QuoteArgs{Pool: args.Pool, AmountIn: args.AmountIn, AToB: args.AToB})
					if err != nil {
						return nil, err
					}
					args.MinimumAmountOut = amm.MinimumOut(quote.AmountOut, cfg.SlippageBps)
					logger.Debug("minimum out from quote",
						zap.Uint64("expected", quote.AmountOut),
						zap.Uint64("minimum", args.MinimumAmountOut),
						zap.Uint64("slippage_bps", cfg.SlippageBps),
					)
				}
				return c.Swap(ctx, args)
			}
		}),
	}
	addUserFlags(swapCmd)
	swapCmd.Flags().Uint64("amount-in", 0, "input amount in base units")
	swapCmd.Flags().Uint64("min-out", 0, "minimum output, derived from a quote and slippage-bps when unset")
	swapCmd.Flags().Bool("a-to-b", true, "sell asset a for asset b")
	swapCmd.Flags().Uint64("slippage-bps", 50, "tolerance applied to the quoted output")

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a swap against current reserves",
		RunE: withClient(func(cmd *cobra.Command, _ []string) clientFunc {
			args := rpcapi.QuoteArgs{}
			args.Pool, _ = cmd.Flags().GetString("pool")
			args.AmountIn, _ = cmd.Flags().GetUint64("amount-in")
			args.AToB, _ = cmd.Flags().GetBool("a-to-b")
			return func(ctx context.Context, c *client.Client, _ config.ClientConfig, _ *zap.Logger) (interface{}, error) {
				return c.Quote(ctx, args)
			}
		}),
	}
	quoteCmd.Flags().String("pool", "", "pool address")
	quoteCmd.Flags().Uint64("amount-in", 0, "input amount in base units")
	quoteCmd.Flags().Bool("a-to-b", true, "sell asset a for asset b")

	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "List committed events",
		RunE: withClient(func(cmd *cobra.Command, _ []string) clientFunc {
			from, _ := cmd.Flags().GetUint64("from")
			to, _ := cmd.Flags().GetUint64("to")
			pools, _ := cmd.Flags().GetStringSlice("pool")
			return func(ctx context.Context, c *client.Client, _ config.ClientConfig, _ *zap.Logger) (interface{}, error) {
				return c.Events(ctx, from, to, pools)
			}
		}),
	}
	eventsCmd.Flags().Uint64("from", 1, "start seq (inclusive)")
	eventsCmd.Flags().Uint64("to", 0, "end seq (inclusive), 0 means latest")
	eventsCmd.Flags().StringSlice("pool", nil, "pool addresses (comma-separated)")

	cmds := []*cobra.Command{assetCmd, accountCmd, poolCmd, liquidityCmd, swapCmd, quoteCmd, eventsCmd}
	for _, cmd := range cmds {
		cmd.PersistentFlags().String("rpc", "http://127.0.0.1:8545", "server RPC URL")
		cmd.PersistentFlags().Duration("timeout", 30*time.Second, "request timeout")
		cmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	}
	return cmds
}

func addUserFlags(cmd *cobra.Command) {
	cmd.Flags().String("pool", "", "pool address")
	cmd.Flags().String("user", "", "user signing the transfers")
	cmd.Flags().String("account-a", "", "user account for asset a, defaults to the associated account")
	cmd.Flags().String("account-b", "", "user account for asset b, defaults to the associated account")
}
