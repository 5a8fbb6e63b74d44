package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"positionLens/internal/dex"
)

func runPositions(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	owner, err := parseOwner(a.cfg.Owner)
	if err != nil {
		return err
	}

	chainID, err := a.chain.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}

	reports, err := a.lens.FeeReportsByOwner(ctx, chainID.Uint64(), owner, a.blockNumber(), dex.NewTokenMetaCache())
	if err != nil {
		return err
	}

	a.logger.Info("positions listed",
		zap.String("owner", owner.Hex()),
		zap.Int("active", len(reports)),
	)

	for _, report := range reports {
		line, err := json.Marshal(report)
		if err != nil {
			return fmt.Errorf("marshal fee report: %w", err)
		}
		fmt.Println(string(line))
	}
	return nil
}
