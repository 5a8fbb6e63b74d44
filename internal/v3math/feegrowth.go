package v3math

import (
	"errors"

	"github.com/holiman/uint256"

	"positionLens/internal/model"
)

// ErrInvalidTickRange is returned when a position's lower tick is not strictly
// below its upper tick.
var ErrInvalidTickRange = errors.New("tick range is invalid: lower must be strictly below upper")

// FeeGrowthInside derives the per-unit-of-liquidity fee growth accrued strictly
// inside [tickLower, tickUpper), for both pool tokens, as of the snapshot the
// inputs were read from.
//
// The global and outside accumulators are independently wrapping monotonic
// counters; only their difference against a consistent reference point is
// meaningful. Every subtraction here is modulo 2^256 (uint256.Sub wraps), so an
// "underflowing" difference is a correct wrapped value, not an error.
func FeeGrowthInside(
	currentTick, tickLower, tickUpper int32,
	global0, global1 *uint256.Int,
	lower, upper model.BoundaryTickState,
) (*uint256.Int, *uint256.Int, error) {
	if tickLower >= tickUpper {
		return nil, nil, ErrInvalidTickRange
	}

	inside0 := new(uint256.Int)
	inside1 := new(uint256.Int)

	switch {
	case currentTick < tickLower:
		// Price below the range: all growth recorded outside the lower tick
		// that is not also outside the upper tick happened inside.
		inside0.Sub(lower.FeeGrowthOutside0X128, upper.FeeGrowthOutside0X128)
		inside1.Sub(lower.FeeGrowthOutside1X128, upper.FeeGrowthOutside1X128)
	case currentTick >= tickUpper:
		// Price above the range: the mirror case.
		inside0.Sub(upper.FeeGrowthOutside0X128, lower.FeeGrowthOutside0X128)
		inside1.Sub(upper.FeeGrowthOutside1X128, lower.FeeGrowthOutside1X128)
	default:
		// Price inside the range: global minus everything outside both sides.
		inside0.Sub(global0, lower.FeeGrowthOutside0X128)
		inside0.Sub(inside0, upper.FeeGrowthOutside0X128)
		inside1.Sub(global1, lower.FeeGrowthOutside1X128)
		inside1.Sub(inside1, upper.FeeGrowthOutside1X128)
	}

	return inside0, inside1, nil
}
