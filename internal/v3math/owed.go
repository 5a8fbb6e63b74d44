package v3math

import (
	"github.com/holiman/uint256"

	"positionLens/internal/model"
)

// Q128 is 2^128, the fixed-point scale of the fee-growth accumulators.
var Q128 = new(uint256.Int).Lsh(uint256.NewInt(1), 128)

// TokensOwed converts the fee growth accrued since the position's last
// checkpoint into absolute token amounts: floor(liquidity * delta / 2^128)
// per token. The growth delta is the same wrapping subtraction as in
// FeeGrowthInside, so a counter wrap between checkpoints does not break it.
//
// The multiply runs at 512-bit intermediate width; with liquidity bounded by
// uint128 the quotient always fits in 256 bits.
func TokensOwed(liquidity, inside0, inside1, insideLast0, insideLast1 *uint256.Int) (*uint256.Int, *uint256.Int) {
	delta0 := new(uint256.Int).Sub(inside0, insideLast0)
	delta1 := new(uint256.Int).Sub(inside1, insideLast1)

	owed0, _ := new(uint256.Int).MulDivOverflow(delta0, liquidity, Q128)
	owed1, _ := new(uint256.Int).MulDivOverflow(delta1, liquidity, Q128)
	return owed0, owed1
}

// AccrueOwed adds the incremental owed amounts since the position's checkpoint
// to the amounts already recorded as owed, returning the collectable totals.
func AccrueOwed(position model.PositionSnapshot, inside0, inside1 *uint256.Int) (*uint256.Int, *uint256.Int) {
	owed0, owed1 := TokensOwed(
		position.Liquidity,
		inside0, inside1,
		position.FeeGrowthInside0LastX128, position.FeeGrowthInside1LastX128,
	)

	amount0 := new(uint256.Int).Add(position.TokensOwed0, owed0)
	amount1 := new(uint256.Int).Add(position.TokensOwed1, owed1)
	return amount0, amount1
}

// CollectableAmounts computes the full pipeline over one consistent snapshot:
// fee growth inside the range, then accrual on top of the recorded owed fields.
func CollectableAmounts(snapshot model.FeeSnapshot) (*uint256.Int, *uint256.Int, error) {
	inside0, inside1, err := FeeGrowthInside(
		snapshot.Pool.Tick,
		snapshot.Position.TickLower,
		snapshot.Position.TickUpper,
		snapshot.Pool.FeeGrowthGlobal0X128,
		snapshot.Pool.FeeGrowthGlobal1X128,
		snapshot.Lower,
		snapshot.Upper,
	)
	if err != nil {
		return nil, nil, err
	}

	amount0, amount1 := AccrueOwed(snapshot.Position, inside0, inside1)
	return amount0, amount1, nil
}
