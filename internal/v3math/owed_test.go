package v3math

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"

	"positionLens/internal/model"
)

func TestTokensOwedOneFullUnit(t *testing.T) {
	// One full fee-growth unit (2^128 in Q128.128) times liquidity 1_000_000
	// yields exactly 1_000_000 tokens, with no rounding loss.
	owed0, owed1 := TokensOwed(u256(1_000_000), x128(1), u256(0), u256(0), u256(0))

	if owed0.Uint64() != 1_000_000 {
		t.Fatalf("owed0 mismatch: %s", owed0)
	}
	if !owed1.IsZero() {
		t.Fatalf("owed1 must be zero: %s", owed1)
	}
}

func TestTokensOwedFloors(t *testing.T) {
	// delta = 1.5 in Q128.128, liquidity = 3: exact product is 4.5, owed floors to 4.
	delta := new(uint256.Int).Add(x128(1), new(uint256.Int).Rsh(Q128, 1))
	owed0, _ := TokensOwed(u256(3), delta, u256(0), u256(0), u256(0))

	if owed0.Uint64() != 4 {
		t.Fatalf("owed0 mismatch: %s", owed0)
	}
}

func TestTokensOwedWrappedDelta(t *testing.T) {
	// The growth counter wrapped between checkpoints: last is numerically above
	// current, but the wrapped delta is still 10 full units.
	last := new(uint256.Int).Neg(x128(5))
	inside := x128(5)

	owed0, _ := TokensOwed(u256(7), inside, u256(0), last, u256(0))
	if owed0.Uint64() != 70 {
		t.Fatalf("owed0 mismatch: %s", owed0)
	}
}

func TestTokensOwedMonotonicInLiquidity(t *testing.T) {
	delta := new(uint256.Int).Add(x128(2), uint256.NewInt(12345))
	prev := uint256.NewInt(0)

	for _, liquidity := range []uint64{0, 1, 10, 1_000, 1_000_000, 1 << 40} {
		owed0, _ := TokensOwed(u256(liquidity), delta, u256(0), u256(0), u256(0))
		if owed0.Cmp(prev) < 0 {
			t.Fatalf("owed decreased at liquidity %d: %s < %s", liquidity, owed0, prev)
		}
		prev = owed0
	}
}

func TestTokensOwedFullPrecision(t *testing.T) {
	// liquidity near the uint128 ceiling with a multi-word delta: the product
	// exceeds 256 bits, so the quotient is only correct with a widened multiply.
	liquidity := new(uint256.Int).SubUint64(Q128, 1)
	delta := new(uint256.Int).Add(x128(1 << 30), uint256.NewInt(987654321))

	owed0, _ := TokensOwed(liquidity, delta, u256(0), u256(0), u256(0))

	want := new(big.Int).Mul(liquidity.ToBig(), delta.ToBig())
	want.Rsh(want, 128)
	if owed0.ToBig().Cmp(want) != 0 {
		t.Fatalf("owed mismatch: got %s want %s", owed0, want)
	}
}

func TestAccrueOwedZeroDelta(t *testing.T) {
	position := model.PositionSnapshot{
		TickLower:                -100,
		TickUpper:                100,
		Liquidity:                u256(55_555),
		FeeGrowthInside0LastX128: x128(9),
		FeeGrowthInside1LastX128: x128(4),
		TokensOwed0:              u256(111),
		TokensOwed1:              u256(222),
	}

	amount0, amount1 := AccrueOwed(position, x128(9), x128(4))
	if amount0.Uint64() != 111 || amount1.Uint64() != 222 {
		t.Fatalf("zero growth delta must leave owed unchanged: %s, %s", amount0, amount1)
	}
}

func TestCollectableAmounts(t *testing.T) {
	snapshot := model.FeeSnapshot{
		Position: model.PositionSnapshot{
			TickLower:                -100,
			TickUpper:                100,
			Liquidity:                u256(1_000_000),
			FeeGrowthInside0LastX128: u256(0),
			FeeGrowthInside1LastX128: u256(0),
			TokensOwed0:              u256(42),
			TokensOwed1:              u256(0),
		},
		Pool: model.PoolSnapshot{
			Tick:                 0,
			FeeGrowthGlobal0X128: x128(3),
			FeeGrowthGlobal1X128: x128(2),
		},
		Lower: boundary(x128(1), x128(1)),
		Upper: boundary(x128(1), x128(1)),
	}

	// inside0 = 3 - 1 - 1 = 1 full unit, inside1 = 0.
	amount0, amount1, err := CollectableAmounts(snapshot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount0.Uint64() != 1_000_042 {
		t.Fatalf("amount0 mismatch: %s", amount0)
	}
	if !amount1.IsZero() {
		t.Fatalf("amount1 mismatch: %s", amount1)
	}

	snapshot.Position.TickUpper = snapshot.Position.TickLower
	if _, _, err := CollectableAmounts(snapshot); err == nil {
		t.Fatalf("expected error for degenerate tick range")
	}
}
