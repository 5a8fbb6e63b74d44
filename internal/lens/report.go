package lens

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"positionLens/internal/dex"
	"positionLens/internal/model"
	"positionLens/internal/v3math"
)

func (l *Lens) factoryAddress(ctx context.Context, blockNumber *big.Int) (common.Address, error) {
	npmABI, err := dex.PositionManagerABI()
	if err != nil {
		return common.Address{}, fmt.Errorf("parse position manager abi: %w", err)
	}

	data, err := npmABI.Pack("factory")
	if err != nil {
		return common.Address{}, fmt.Errorf("pack factory: %w", err)
	}
	resp, err := l.callContract(ctx, l.cfg.PositionManager, data, blockNumber)
	if err != nil {
		return common.Address{}, fmt.Errorf("call factory: %w", err)
	}
	values, err := npmABI.Unpack("factory", resp)
	if err != nil {
		return common.Address{}, fmt.Errorf("unpack factory: %w", err)
	}
	return dex.DecodeAddressOutput(values)
}

func (l *Lens) tokenSymbol(ctx context.Context, address string, cache *dex.TokenMetaCache) string {
	if cache == nil {
		return ""
	}
	token := common.HexToAddress(address)
	if meta, ok := cache.Get(token); ok {
		return meta.Symbol
	}
	meta, err := dex.FetchTokenMeta(ctx, l.chain, token, l.logger)
	if err != nil {
		l.logger.Warn("token metadata fetch failed", zap.String("token", address), zap.Error(err))
	}
	cache.Set(token, meta)
	return meta.Symbol
}

// FeeReportsByOwner computes a collectable-fee report for every position held
// by owner, all pinned to one reference block. Positions with no liquidity and
// nothing owed are skipped. tokenMetaCache is optional; when present, reports
// carry token symbols.
func (l *Lens) FeeReportsByOwner(ctx context.Context, chainID uint64, owner common.Address, blockNumber *big.Int, tokenMetaCache *dex.TokenMetaCache) ([]model.FeeReport, error) {
	positions, pinBlock, err := l.PositionsByOwner(ctx, owner, blockNumber)
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, nil
	}

	pin := new(big.Int).SetUint64(pinBlock)
	factory, err := l.factoryAddress(ctx, pin)
	if err != nil {
		return nil, err
	}

	generatedAt := time.Now().UTC().Format(time.RFC3339Nano)
	reports := make([]model.FeeReport, 0, len(positions))

	for _, position := range positions {
		if position.Liquidity.IsZero() && position.TokensOwed0.IsZero() && position.TokensOwed1.IsZero() {
			continue
		}
		if position.TickLower >= position.TickUpper {
			return nil, fmt.Errorf("token %s: %w", position.TokenID, v3math.ErrInvalidTickRange)
		}

		pool, err := l.poolAddress(ctx, factory, position, pin)
		if err != nil {
			return nil, fmt.Errorf("token %s: %w", position.TokenID, err)
		}
		poolSnapshot, lower, upper, err := l.poolFeeState(ctx, pool, position, pin)
		if err != nil {
			return nil, fmt.Errorf("token %s: %w", position.TokenID, err)
		}

		amount0, amount1, err := v3math.CollectableAmounts(model.FeeSnapshot{
			Position: position,
			Pool:     poolSnapshot,
			Lower:    lower,
			Upper:    upper,
		})
		if err != nil {
			return nil, fmt.Errorf("token %s: %w", position.TokenID, err)
		}

		reports = append(reports, model.FeeReport{
			ChainID:     chainID,
			TokenID:     position.TokenID.String(),
			Owner:       owner.Hex(),
			Pool:        pool.Hex(),
			Token0:      position.Token0,
			Token1:      position.Token1,
			Symbol0:     l.tokenSymbol(ctx, position.Token0, tokenMetaCache),
			Symbol1:     l.tokenSymbol(ctx, position.Token1, tokenMetaCache),
			Fee:         position.Fee,
			TickLower:   position.TickLower,
			TickUpper:   position.TickUpper,
			Liquidity:   position.Liquidity.Dec(),
			Amount0:     amount0.Dec(),
			Amount1:     amount1.Dec(),
			BlockNumber: pinBlock,
			GeneratedAt: generatedAt,
		})
	}

	return reports, nil
}
