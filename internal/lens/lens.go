package lens

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"positionLens/internal/chain"
	"positionLens/internal/dex"
	"positionLens/internal/model"
	"positionLens/internal/v3math"
)

// Config holds runtime settings for the lens.
type Config struct {
	PositionManager common.Address
	Multicall       common.Address
	MaxRetries      int
	RetryBackoff    time.Duration
}

// Lens reads position and pool accounting state through batched eth_calls and
// derives collectable fee amounts from it. All reads that feed one computation
// are pinned to a single reference block; a snapshot that straddles blocks is
// an error, never a silently wrong answer.
type Lens struct {
	cfg    Config
	chain  *chain.Client
	logger *zap.Logger
}

// New builds a Lens with its dependencies.
func New(cfg Config, chainClient *chain.Client, logger *zap.Logger) *Lens {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Multicall == (common.Address{}) {
		cfg.Multicall = chain.DefaultMulticall3
	}
	return &Lens{cfg: cfg, chain: chainClient, logger: logger}
}

func (l *Lens) aggregate(ctx context.Context, calls []chain.Call, blockNumber *big.Int) (uint64, [][]byte, error) {
	var execBlock uint64
	var results [][]byte
	err := withRetry(ctx, l.cfg.MaxRetries, l.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		execBlock, results, err = l.chain.Aggregate(ctx, l.cfg.Multicall, calls, blockNumber)
		return err
	})
	if err != nil {
		return 0, nil, err
	}
	if blockNumber != nil && execBlock != blockNumber.Uint64() {
		return 0, nil, fmt.Errorf("snapshot reference mismatch: requested block %s, executed at %d", blockNumber, execBlock)
	}
	return execBlock, results, nil
}

func (l *Lens) callContract(ctx context.Context, to common.Address, data []byte, blockNumber *big.Int) ([]byte, error) {
	var resp []byte
	err := withRetry(ctx, l.cfg.MaxRetries, l.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		resp, err = l.chain.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, blockNumber)
		return err
	})
	return resp, err
}

// positionAndFactory reads positions(tokenId) and factory() in one batch and
// returns the block the batch executed at.
func (l *Lens) positionAndFactory(ctx context.Context, tokenID *big.Int, blockNumber *big.Int) (model.PositionSnapshot, common.Address, uint64, error) {
	npmABI, err := dex.PositionManagerABI()
	if err != nil {
		return model.PositionSnapshot{}, common.Address{}, 0, fmt.Errorf("parse position manager abi: %w", err)
	}

	positionsData, err := npmABI.Pack("positions", tokenID)
	if err != nil {
		return model.PositionSnapshot{}, common.Address{}, 0, fmt.Errorf("pack positions: %w", err)
	}
	factoryData, err := npmABI.Pack("factory")
	if err != nil {
		return model.PositionSnapshot{}, common.Address{}, 0, fmt.Errorf("pack factory: %w", err)
	}

	execBlock, results, err := l.aggregate(ctx, []chain.Call{
		{Target: l.cfg.PositionManager, CallData: positionsData},
		{Target: l.cfg.PositionManager, CallData: factoryData},
	}, blockNumber)
	if err != nil {
		return model.PositionSnapshot{}, common.Address{}, 0, err
	}

	positionValues, err := npmABI.Unpack("positions", results[0])
	if err != nil {
		return model.PositionSnapshot{}, common.Address{}, 0, fmt.Errorf("unpack positions: %w", err)
	}
	position, err := dex.DecodePositionsOutput(positionValues)
	if err != nil {
		return model.PositionSnapshot{}, common.Address{}, 0, fmt.Errorf("decode positions: %w", err)
	}
	position.TokenID = new(big.Int).Set(tokenID)

	factoryValues, err := npmABI.Unpack("factory", results[1])
	if err != nil {
		return model.PositionSnapshot{}, common.Address{}, 0, fmt.Errorf("unpack factory: %w", err)
	}
	factory, err := dex.DecodeAddressOutput(factoryValues)
	if err != nil {
		return model.PositionSnapshot{}, common.Address{}, 0, fmt.Errorf("decode factory: %w", err)
	}

	return position, factory, execBlock, nil
}

// Position returns the position snapshot for a token id. When blockNumber is
// nil the latest block is used.
func (l *Lens) Position(ctx context.Context, tokenID *big.Int, blockNumber *big.Int) (model.PositionSnapshot, error) {
	position, _, _, err := l.positionAndFactory(ctx, tokenID, blockNumber)
	return position, err
}

func (l *Lens) poolAddress(ctx context.Context, factory common.Address, position model.PositionSnapshot, blockNumber *big.Int) (common.Address, error) {
	factoryABI, err := dex.FactoryABI()
	if err != nil {
		return common.Address{}, fmt.Errorf("parse factory abi: %w", err)
	}

	data, err := factoryABI.Pack("getPool",
		common.HexToAddress(position.Token0),
		common.HexToAddress(position.Token1),
		new(big.Int).SetUint64(uint64(position.Fee)),
	)
	if err != nil {
		return common.Address{}, fmt.Errorf("pack getPool: %w", err)
	}

	resp, err := l.callContract(ctx, factory, data, blockNumber)
	if err != nil {
		return common.Address{}, fmt.Errorf("call getPool: %w", err)
	}
	values, err := factoryABI.Unpack("getPool", resp)
	if err != nil {
		return common.Address{}, fmt.Errorf("unpack getPool: %w", err)
	}
	pool, err := dex.DecodeAddressOutput(values)
	if err != nil {
		return common.Address{}, fmt.Errorf("decode getPool: %w", err)
	}
	if pool == (common.Address{}) {
		return common.Address{}, fmt.Errorf("pool not found for %s/%s fee %d", position.Token0, position.Token1, position.Fee)
	}
	return pool, nil
}

// poolFeeState batches slot0, both global fee-growth accumulators, and the
// tick state at both range boundaries into one aggregate pinned to blockNumber.
func (l *Lens) poolFeeState(ctx context.Context, pool common.Address, position model.PositionSnapshot, blockNumber *big.Int) (model.PoolSnapshot, model.BoundaryTickState, model.BoundaryTickState, error) {
	var zero model.PoolSnapshot
	var zeroTick model.BoundaryTickState

	poolABI, err := dex.V3PoolABI()
	if err != nil {
		return zero, zeroTick, zeroTick, fmt.Errorf("parse pool abi: %w", err)
	}

	calls := make([]chain.Call, 0, 5)
	for _, method := range []string{"slot0", "feeGrowthGlobal0X128", "feeGrowthGlobal1X128"} {
		data, err := poolABI.Pack(method)
		if err != nil {
			return zero, zeroTick, zeroTick, fmt.Errorf("pack %s: %w", method, err)
		}
		calls = append(calls, chain.Call{Target: pool, CallData: data})
	}
	for _, tick := range []int32{position.TickLower, position.TickUpper} {
		data, err := poolABI.Pack("ticks", big.NewInt(int64(tick)))
		if err != nil {
			return zero, zeroTick, zeroTick, fmt.Errorf("pack ticks(%d): %w", tick, err)
		}
		calls = append(calls, chain.Call{Target: pool, CallData: data})
	}

	execBlock, results, err := l.aggregate(ctx, calls, blockNumber)
	if err != nil {
		return zero, zeroTick, zeroTick, err
	}

	slot0Values, err := poolABI.Unpack("slot0", results[0])
	if err != nil {
		return zero, zeroTick, zeroTick, fmt.Errorf("unpack slot0: %w", err)
	}
	sqrtPrice, tick, err := dex.DecodeSlot0Output(slot0Values)
	if err != nil {
		return zero, zeroTick, zeroTick, fmt.Errorf("decode slot0: %w", err)
	}

	globals := make([]*uint256.Int, 2)
	for i, method := range []string{"feeGrowthGlobal0X128", "feeGrowthGlobal1X128"} {
		values, err := poolABI.Unpack(method, results[1+i])
		if err != nil {
			return zero, zeroTick, zeroTick, fmt.Errorf("unpack %s: %w", method, err)
		}
		globals[i], err = dex.DecodeUint256Output(values)
		if err != nil {
			return zero, zeroTick, zeroTick, fmt.Errorf("decode %s: %w", method, err)
		}
	}

	boundaries := make([]model.BoundaryTickState, 2)
	for i := range boundaries {
		values, err := poolABI.Unpack("ticks", results[3+i])
		if err != nil {
			return zero, zeroTick, zeroTick, fmt.Errorf("unpack ticks: %w", err)
		}
		boundaries[i], err = dex.DecodeTicksOutput(values)
		if err != nil {
			return zero, zeroTick, zeroTick, fmt.Errorf("decode ticks: %w", err)
		}
	}

	poolSnapshot := model.PoolSnapshot{
		Tick:                 tick,
		SqrtPriceX96:         sqrtPrice,
		FeeGrowthGlobal0X128: globals[0],
		FeeGrowthGlobal1X128: globals[1],
		BlockNumber:          execBlock,
	}
	return poolSnapshot, boundaries[0], boundaries[1], nil
}

// FeeSnapshot reads everything needed to compute collectable fees for a token
// id, with all reads pinned to one reference block. When blockNumber is nil
// the snapshot is pinned to the block the first batch executes at.
func (l *Lens) FeeSnapshot(ctx context.Context, tokenID *big.Int, blockNumber *big.Int) (model.FeeSnapshot, error) {
	position, factory, execBlock, err := l.positionAndFactory(ctx, tokenID, blockNumber)
	if err != nil {
		return model.FeeSnapshot{}, err
	}
	if position.TickLower >= position.TickUpper {
		return model.FeeSnapshot{}, fmt.Errorf("token %s: %w", tokenID, v3math.ErrInvalidTickRange)
	}

	pin := blockNumber
	if pin == nil {
		pin = new(big.Int).SetUint64(execBlock)
	}

	pool, err := l.poolAddress(ctx, factory, position, pin)
	if err != nil {
		return model.FeeSnapshot{}, err
	}

	poolSnapshot, lower, upper, err := l.poolFeeState(ctx, pool, position, pin)
	if err != nil {
		return model.FeeSnapshot{}, err
	}

	l.logger.Debug("fee snapshot",
		zap.String("token_id", tokenID.String()),
		zap.String("pool", pool.Hex()),
		zap.Uint64("block", poolSnapshot.BlockNumber),
		zap.Int32("tick", poolSnapshot.Tick),
	)

	return model.FeeSnapshot{
		Position: position,
		Pool:     poolSnapshot,
		Lower:    lower,
		Upper:    upper,
	}, nil
}

// CollectableTokenAmounts returns the real-time collectable fee amounts for a
// token id, in token0 and token1 units.
func (l *Lens) CollectableTokenAmounts(ctx context.Context, tokenID *big.Int, blockNumber *big.Int) (*uint256.Int, *uint256.Int, error) {
	snapshot, err := l.FeeSnapshot(ctx, tokenID, blockNumber)
	if err != nil {
		return nil, nil, err
	}
	return v3math.CollectableAmounts(snapshot)
}

// TokenSVG resolves the position's rendered image URL from the position
// manager's tokenURI metadata document.
func (l *Lens) TokenSVG(ctx context.Context, tokenID *big.Int, blockNumber *big.Int) (string, error) {
	npmABI, err := dex.PositionManagerABI()
	if err != nil {
		return "", fmt.Errorf("parse position manager abi: %w", err)
	}

	data, err := npmABI.Pack("tokenURI", tokenID)
	if err != nil {
		return "", fmt.Errorf("pack tokenURI: %w", err)
	}
	resp, err := l.callContract(ctx, l.cfg.PositionManager, data, blockNumber)
	if err != nil {
		return "", fmt.Errorf("call tokenURI: %w", err)
	}
	values, err := npmABI.Unpack("tokenURI", resp)
	if err != nil {
		return "", fmt.Errorf("unpack tokenURI: %w", err)
	}
	uri, err := dex.DecodeStringOutput(values)
	if err != nil {
		return "", fmt.Errorf("decode tokenURI: %w", err)
	}

	meta, err := dex.DecodeTokenURI(uri)
	if err != nil {
		return "", err
	}
	return meta.Image, nil
}
