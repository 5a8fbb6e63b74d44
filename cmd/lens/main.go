package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"positionLens/internal/chain"
	"positionLens/internal/config"
	"positionLens/internal/lens"
	"positionLens/internal/v3math"
)

func main() {
	root := &cobra.Command{
		Use:          "lens",
		Short:        "Uniswap V3 position fee lens",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	feesCmd := &cobra.Command{
		Use:   "fees",
		Short: "Compute real-time collectable fee amounts for a position",
		RunE:  runFees,
	}
	addCommonFlags(feesCmd)
	feesCmd.Flags().String("token-id", "", "position token id")
	root.AddCommand(feesCmd)

	positionsCmd := &cobra.Command{
		Use:   "positions",
		Short: "List positions and collectable fees for an owner",
		RunE:  runPositions,
	}
	addCommonFlags(positionsCmd)
	positionsCmd.Flags().String("owner", "", "owner address")
	root.AddCommand(positionsCmd)

	svgCmd := &cobra.Command{
		Use:   "svg",
		Short: "Print the position's token SVG URL",
		RunE:  runSvg,
	}
	addCommonFlags(svgCmd)
	svgCmd.Flags().String("token-id", "", "position token id")
	root.AddCommand(svgCmd)

	trackCmd := &cobra.Command{
		Use:   "track",
		Short: "Persist fee reports for an owner's positions",
		RunE:  runTrack,
	}
	addCommonFlags(trackCmd)
	trackCmd.Flags().String("owner", "", "owner address")
	trackCmd.Flags().String("out", "./data/fee_reports.jsonl", "output JSONL path")
	trackCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	root.AddCommand(trackCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "Ethereum RPC URL")
	cmd.Flags().String("position-manager", "0xC36442b4a4522E871399CD717aBDD847Ab11FE88", "nonfungible position manager address")
	cmd.Flags().String("multicall", "", "Multicall3 address override")
	cmd.Flags().Uint64("block", 0, "block number to query, 0 means latest")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

type app struct {
	cfg    config.Config
	logger *zap.Logger
	chain  *chain.Client
	lens   *lens.Lens
}

func setup(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	if !common.IsHexAddress(cfg.PositionManager) {
		return nil, fmt.Errorf("invalid position manager address: %q", cfg.PositionManager)
	}

	lensCfg := lens.Config{
		PositionManager: common.HexToAddress(cfg.PositionManager),
		MaxRetries:      cfg.MaxRetries,
		RetryBackoff:    cfg.RetryBackoff,
	}
	if cfg.Multicall != "" {
		if !common.IsHexAddress(cfg.Multicall) {
			return nil, fmt.Errorf("invalid multicall address: %q", cfg.Multicall)
		}
		lensCfg.Multicall = common.HexToAddress(cfg.Multicall)
	}

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		chain:  chainClient,
		lens:   lens.New(lensCfg, chainClient, logger),
	}, nil
}

func (a *app) close() {
	if a.chain != nil {
		a.chain.Close()
	}
	if a.logger != nil {
		a.logger.Sync()
	}
}

func (a *app) blockNumber() *big.Int {
	if a.cfg.BlockNumber == 0 {
		return nil
	}
	return new(big.Int).SetUint64(a.cfg.BlockNumber)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func parseTokenID(raw string) (*big.Int, error) {
	if raw == "" {
		return nil, fmt.Errorf("token id is required")
	}
	tokenID, ok := new(big.Int).SetString(raw, 10)
	if !ok || tokenID.Sign() < 0 {
		return nil, fmt.Errorf("invalid token id: %q", raw)
	}
	return tokenID, nil
}

func parseOwner(raw string) (common.Address, error) {
	if raw == "" {
		return common.Address{}, fmt.Errorf("owner address is required")
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("invalid owner address: %q", raw)
	}
	return common.HexToAddress(raw), nil
}

func runFees(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	tokenID, err := parseTokenID(a.cfg.TokenID)
	if err != nil {
		return err
	}

	snapshot, err := a.lens.FeeSnapshot(ctx, tokenID, a.blockNumber())
	if err != nil {
		return err
	}
	amount0, amount1, err := v3math.CollectableAmounts(snapshot)
	if err != nil {
		return err
	}

	a.logger.Info("collectable fees",
		zap.String("token_id", tokenID.String()),
		zap.Uint64("block", snapshot.Pool.BlockNumber),
		zap.String("token0", snapshot.Position.Token0),
		zap.String("token1", snapshot.Position.Token1),
	)
	fmt.Printf("block=%d amount0=%s amount1=%s\n", snapshot.Pool.BlockNumber, amount0.Dec(), amount1.Dec())
	return nil
}

func runSvg(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	tokenID, err := parseTokenID(a.cfg.TokenID)
	if err != nil {
		return err
	}

	image, err := a.lens.TokenSVG(ctx, tokenID, a.blockNumber())
	if err != nil {
		return err
	}
	fmt.Println(image)
	return nil
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
