package dex

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"positionLens/internal/model"
)

// DecodePositionsOutput converts the unpacked outputs of the position
// manager's positions(tokenId) call into a PositionSnapshot. TokenID is left
// for the caller to fill in.
func DecodePositionsOutput(values []interface{}) (model.PositionSnapshot, error) {
	if len(values) != 12 {
		return model.PositionSnapshot{}, fmt.Errorf("positions output arity: %d", len(values))
	}

	token0, err := asAddress(values[2])
	if err != nil {
		return model.PositionSnapshot{}, fmt.Errorf("token0: %w", err)
	}
	token1, err := asAddress(values[3])
	if err != nil {
		return model.PositionSnapshot{}, fmt.Errorf("token1: %w", err)
	}

	feeInt, err := asBigInt(values[4])
	if err != nil {
		return model.PositionSnapshot{}, fmt.Errorf("fee: %w", err)
	}

	tickLowerInt, err := asBigInt(values[5])
	if err != nil {
		return model.PositionSnapshot{}, fmt.Errorf("tick lower: %w", err)
	}
	tickLower, err := int24FromBig(tickLowerInt)
	if err != nil {
		return model.PositionSnapshot{}, fmt.Errorf("tick lower: %w", err)
	}

	tickUpperInt, err := asBigInt(values[6])
	if err != nil {
		return model.PositionSnapshot{}, fmt.Errorf("tick upper: %w", err)
	}
	tickUpper, err := int24FromBig(tickUpperInt)
	if err != nil {
		return model.PositionSnapshot{}, fmt.Errorf("tick upper: %w", err)
	}

	liquidity, err := asUint256(values[7])
	if err != nil {
		return model.PositionSnapshot{}, fmt.Errorf("liquidity: %w", err)
	}
	growth0Last, err := asUint256(values[8])
	if err != nil {
		return model.PositionSnapshot{}, fmt.Errorf("fee growth inside 0 last: %w", err)
	}
	growth1Last, err := asUint256(values[9])
	if err != nil {
		return model.PositionSnapshot{}, fmt.Errorf("fee growth inside 1 last: %w", err)
	}
	owed0, err := asUint256(values[10])
	if err != nil {
		return model.PositionSnapshot{}, fmt.Errorf("tokens owed 0: %w", err)
	}
	owed1, err := asUint256(values[11])
	if err != nil {
		return model.PositionSnapshot{}, fmt.Errorf("tokens owed 1: %w", err)
	}

	return model.PositionSnapshot{
		Token0:                   token0.Hex(),
		Token1:                   token1.Hex(),
		Fee:                      uint32(feeInt.Uint64()),
		TickLower:                tickLower,
		TickUpper:                tickUpper,
		Liquidity:                liquidity,
		FeeGrowthInside0LastX128: growth0Last,
		FeeGrowthInside1LastX128: growth1Last,
		TokensOwed0:              owed0,
		TokensOwed1:              owed1,
	}, nil
}

// DecodeSlot0Output extracts sqrtPriceX96 and the current tick from the
// unpacked outputs of the pool's slot0 call.
func DecodeSlot0Output(values []interface{}) (*uint256.Int, int32, error) {
	if len(values) < 2 {
		return nil, 0, fmt.Errorf("slot0 output arity: %d", len(values))
	}

	sqrtPrice, err := asUint256(values[0])
	if err != nil {
		return nil, 0, fmt.Errorf("sqrt price: %w", err)
	}

	tickInt, err := asBigInt(values[1])
	if err != nil {
		return nil, 0, fmt.Errorf("tick: %w", err)
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return nil, 0, fmt.Errorf("tick: %w", err)
	}

	return sqrtPrice, tick, nil
}

// DecodeTicksOutput extracts the fee-growth-outside accumulators from the
// unpacked outputs of the pool's ticks(tick) call.
func DecodeTicksOutput(values []interface{}) (model.BoundaryTickState, error) {
	if len(values) < 4 {
		return model.BoundaryTickState{}, fmt.Errorf("ticks output arity: %d", len(values))
	}

	outside0, err := asUint256(values[2])
	if err != nil {
		return model.BoundaryTickState{}, fmt.Errorf("fee growth outside 0: %w", err)
	}
	outside1, err := asUint256(values[3])
	if err != nil {
		return model.BoundaryTickState{}, fmt.Errorf("fee growth outside 1: %w", err)
	}

	return model.BoundaryTickState{
		FeeGrowthOutside0X128: outside0,
		FeeGrowthOutside1X128: outside1,
	}, nil
}

// DecodeAddressOutput extracts a single address return value.
func DecodeAddressOutput(values []interface{}) (common.Address, error) {
	if len(values) != 1 {
		return common.Address{}, fmt.Errorf("address output arity: %d", len(values))
	}
	return asAddress(values[0])
}

// DecodeUint256Output extracts a single uint256 return value.
func DecodeUint256Output(values []interface{}) (*uint256.Int, error) {
	if len(values) != 1 {
		return nil, fmt.Errorf("uint256 output arity: %d", len(values))
	}
	return asUint256(values[0])
}

// DecodeStringOutput extracts a single string return value.
func DecodeStringOutput(values []interface{}) (string, error) {
	if len(values) != 1 {
		return "", fmt.Errorf("string output arity: %d", len(values))
	}
	s, ok := values[0].(string)
	if !ok {
		return "", fmt.Errorf("unsupported string type %T", values[0])
	}
	return s, nil
}
