package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"positionLens/internal/dex"
	"positionLens/internal/storage"
	"positionLens/internal/storage/postgres"
)

func runTrack(cmd *cobra.Command, _ []string) error {
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

	sinks := []storage.Storage{storage.NewJsonlStorage(a.cfg.Out)}
	if a.cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, a.cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		sinks = append(sinks, store)
	}

	reports, err := a.lens.FeeReportsByOwner(ctx, chainID.Uint64(), owner, a.blockNumber(), dex.NewTokenMetaCache())
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		a.logger.Info("no active positions", zap.String("owner", owner.Hex()))
		return nil
	}

	for _, sink := range sinks {
		if err := sink.PutReports(reports); err != nil {
			return err
		}
	}

	a.logger.Info("fee reports stored",
		zap.String("owner", owner.Hex()),
		zap.Int("reports", len(reports)),
		zap.Uint64("block", reports[0].BlockNumber),
		zap.String("out", a.cfg.Out),
		zap.Bool("postgres", a.cfg.PGDSN != ""),
	)
	return nil
}
