package model

import (
	"math/big"

	"github.com/holiman/uint256"
)

// PositionSnapshot is a position's last-recorded checkpoint as read from the
// position manager at one reference block. Fee-growth fields are Q128.128;
// Liquidity and TokensOwed0/1 are uint128 on chain, widened here to 256 bits.
type PositionSnapshot struct {
	TokenID   *big.Int
	Token0    string
	Token1    string
	Fee       uint32
	TickLower int32
	TickUpper int32

	Liquidity                *uint256.Int
	FeeGrowthInside0LastX128 *uint256.Int
	FeeGrowthInside1LastX128 *uint256.Int
	TokensOwed0              *uint256.Int
	TokensOwed1              *uint256.Int
}

// InRange reports whether the pool's current tick sits inside the position's range.
func (p PositionSnapshot) InRange(currentTick int32) bool {
	return p.TickLower <= currentTick && currentTick < p.TickUpper
}

// BoundaryTickState holds the per-token fee-growth-outside accumulators recorded
// at one boundary tick, read at the same block as the owning PoolSnapshot.
type BoundaryTickState struct {
	FeeGrowthOutside0X128 *uint256.Int
	FeeGrowthOutside1X128 *uint256.Int
}

// FeeSnapshot bundles everything needed to compute collectable fees for one
// position: the position checkpoint, the pool's global accumulators, and the
// outside accumulators at both boundary ticks, all read at BlockNumber.
type FeeSnapshot struct {
	Position PositionSnapshot
	Pool     PoolSnapshot
	Lower    BoundaryTickState
	Upper    BoundaryTickState
}
