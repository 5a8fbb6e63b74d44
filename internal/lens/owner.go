package lens

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"positionLens/internal/chain"
	"positionLens/internal/dex"
	"positionLens/internal/model"
)

// ownerQueryChunk bounds the calls packed into one aggregate so each batch
// stays well under provider gas ceilings. Single-shot bulk readers top out
// near 1500 positions against a 300m gas limit; chunking removes that cliff.
const ownerQueryChunk = 500

// indexRange is a half-open [From, To) slice of owner token indices.
type indexRange struct {
	From uint64
	To   uint64
}

func splitIndexes(total, chunkSize uint64) ([]indexRange, error) {
	if chunkSize == 0 {
		return nil, fmt.Errorf("chunk size must be greater than zero")
	}

	ranges := make([]indexRange, 0)
	for start := uint64(0); start < total; start += chunkSize {
		end := start + chunkSize
		if end > total {
			end = total
		}
		ranges = append(ranges, indexRange{From: start, To: end})
	}
	return ranges, nil
}

// PositionsByOwner returns the snapshots of every position held by owner, all
// read at one reference block, together with that block number. When
// blockNumber is nil the snapshot is pinned to the block the balance read
// executes at.
func (l *Lens) PositionsByOwner(ctx context.Context, owner common.Address, blockNumber *big.Int) ([]model.PositionSnapshot, uint64, error) {
	npmABI, err := dex.PositionManagerABI()
	if err != nil {
		return nil, 0, fmt.Errorf("parse position manager abi: %w", err)
	}

	balanceData, err := npmABI.Pack("balanceOf", owner)
	if err != nil {
		return nil, 0, fmt.Errorf("pack balanceOf: %w", err)
	}

	execBlock, results, err := l.aggregate(ctx, []chain.Call{
		{Target: l.cfg.PositionManager, CallData: balanceData},
	}, blockNumber)
	if err != nil {
		return nil, 0, err
	}

	balanceValues, err := npmABI.Unpack("balanceOf", results[0])
	if err != nil {
		return nil, 0, fmt.Errorf("unpack balanceOf: %w", err)
	}
	balance, err := dex.DecodeUint256Output(balanceValues)
	if err != nil {
		return nil, 0, fmt.Errorf("decode balanceOf: %w", err)
	}
	if !balance.IsUint64() {
		return nil, 0, fmt.Errorf("position count does not fit in uint64: %s", balance)
	}
	count := balance.Uint64()

	pin := blockNumber
	if pin == nil {
		pin = new(big.Int).SetUint64(execBlock)
	}

	if count == 0 {
		return nil, pin.Uint64(), nil
	}

	l.logger.Info("enumerate positions",
		zap.String("owner", owner.Hex()),
		zap.Uint64("count", count),
		zap.Uint64("block", pin.Uint64()),
	)

	ranges, err := splitIndexes(count, ownerQueryChunk)
	if err != nil {
		return nil, 0, err
	}

	tokenIDs := make([]*big.Int, 0, count)
	for _, chunk := range ranges {
		calls := make([]chain.Call, 0, chunk.To-chunk.From)
		for i := chunk.From; i < chunk.To; i++ {
			data, err := npmABI.Pack("tokenOfOwnerByIndex", owner, new(big.Int).SetUint64(i))
			if err != nil {
				return nil, 0, fmt.Errorf("pack tokenOfOwnerByIndex: %w", err)
			}
			calls = append(calls, chain.Call{Target: l.cfg.PositionManager, CallData: data})
		}

		_, chunkResults, err := l.aggregate(ctx, calls, pin)
		if err != nil {
			return nil, 0, err
		}
		for _, raw := range chunkResults {
			values, err := npmABI.Unpack("tokenOfOwnerByIndex", raw)
			if err != nil {
				return nil, 0, fmt.Errorf("unpack tokenOfOwnerByIndex: %w", err)
			}
			tokenID, err := dex.DecodeUint256Output(values)
			if err != nil {
				return nil, 0, fmt.Errorf("decode tokenOfOwnerByIndex: %w", err)
			}
			tokenIDs = append(tokenIDs, tokenID.ToBig())
		}
	}

	positions := make([]model.PositionSnapshot, 0, count)
	for _, chunk := range ranges {
		calls := make([]chain.Call, 0, chunk.To-chunk.From)
		for i := chunk.From; i < chunk.To; i++ {
			data, err := npmABI.Pack("positions", tokenIDs[i])
			if err != nil {
				return nil, 0, fmt.Errorf("pack positions: %w", err)
			}
			calls = append(calls, chain.Call{Target: l.cfg.PositionManager, CallData: data})
		}

		_, chunkResults, err := l.aggregate(ctx, calls, pin)
		if err != nil {
			return nil, 0, err
		}
		for j, raw := range chunkResults {
			values, err := npmABI.Unpack("positions", raw)
			if err != nil {
				return nil, 0, fmt.Errorf("unpack positions: %w", err)
			}
			position, err := dex.DecodePositionsOutput(values)
			if err != nil {
				return nil, 0, fmt.Errorf("decode positions: %w", err)
			}
			position.TokenID = tokenIDs[chunk.From+uint64(j)]
			positions = append(positions, position)
		}
	}

	return positions, pin.Uint64(), nil
}
