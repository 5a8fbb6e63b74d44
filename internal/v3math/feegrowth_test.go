package v3math

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"positionLens/internal/model"
)

func u256(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func x128(v uint64) *uint256.Int {
	return new(uint256.Int).Lsh(uint256.NewInt(v), 128)
}

func boundary(out0, out1 *uint256.Int) model.BoundaryTickState {
	return model.BoundaryTickState{
		FeeGrowthOutside0X128: out0,
		FeeGrowthOutside1X128: out1,
	}
}

func TestFeeGrowthInsideBelowRange(t *testing.T) {
	lower := boundary(u256(100), u256(1000))
	upper := boundary(u256(30), u256(400))

	inside0, inside1, err := FeeGrowthInside(-200, -100, 100, u256(500), u256(5000), lower, upper)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if inside0.Uint64() != 70 || inside1.Uint64() != 600 {
		t.Fatalf("inside mismatch: %s, %s", inside0, inside1)
	}
}

func TestFeeGrowthInsideAboveRange(t *testing.T) {
	lower := boundary(u256(100), u256(1000))
	upper := boundary(u256(130), u256(1400))

	inside0, inside1, err := FeeGrowthInside(250, -100, 100, u256(500), u256(5000), lower, upper)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if inside0.Uint64() != 30 || inside1.Uint64() != 400 {
		t.Fatalf("inside mismatch: %s, %s", inside0, inside1)
	}

	// tick == tickUpper counts as above the range.
	atUpper0, _, err := FeeGrowthInside(100, -100, 100, u256(500), u256(5000), lower, upper)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !atUpper0.Eq(inside0) {
		t.Fatalf("tick at upper boundary must use the above-range branch")
	}
}

func TestFeeGrowthInsideWithinRange(t *testing.T) {
	lower := boundary(u256(100), u256(1000))
	upper := boundary(u256(30), u256(400))

	inside0, inside1, err := FeeGrowthInside(0, -100, 100, u256(500), u256(5000), lower, upper)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if inside0.Uint64() != 370 || inside1.Uint64() != 3600 {
		t.Fatalf("inside mismatch: %s, %s", inside0, inside1)
	}

	// tick == tickLower counts as inside the range.
	atLower0, _, err := FeeGrowthInside(-100, -100, 100, u256(500), u256(5000), lower, upper)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !atLower0.Eq(inside0) {
		t.Fatalf("tick at lower boundary must use the in-range branch")
	}
}

func TestFeeGrowthInsideWraps(t *testing.T) {
	// global = 5, outside(lower) = 10: the in-range subtraction underflows and
	// must wrap modulo 2^256 instead of failing.
	lower := boundary(u256(10), u256(0))
	upper := boundary(u256(0), u256(0))

	inside0, _, err := FeeGrowthInside(0, -100, 100, u256(5), u256(0), lower, upper)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := new(uint256.Int).Sub(uint256.NewInt(5), uint256.NewInt(10))
	if !inside0.Eq(want) {
		t.Fatalf("wrapped result mismatch: got %s want %s", inside0, want)
	}
	if inside0.IsZero() {
		t.Fatalf("wrapped result must be non-zero")
	}
}

func TestFeeGrowthInsideShiftInvariant(t *testing.T) {
	// Shifting both outside counters by the same arbitrary constant, including
	// one that forces a wrap, must not change the out-of-range results.
	shift := new(uint256.Int).Not(x128(3)) // close to 2^256, guarantees wraps

	base0 := u256(12345)
	base1 := u256(98765)
	lower := boundary(u256(777), u256(111))
	upper := boundary(u256(333), u256(999))

	shifted := func(b model.BoundaryTickState) model.BoundaryTickState {
		return boundary(
			new(uint256.Int).Add(b.FeeGrowthOutside0X128, shift),
			new(uint256.Int).Add(b.FeeGrowthOutside1X128, shift),
		)
	}

	for _, tick := range []int32{-500, 500} {
		got0, got1, err := FeeGrowthInside(tick, -100, 100, base0, base1, lower, upper)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		shifted0, shifted1, err := FeeGrowthInside(tick, -100, 100, base0, base1, shifted(lower), shifted(upper))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got0.Eq(shifted0) || !got1.Eq(shifted1) {
			t.Fatalf("tick %d: shift changed result: (%s,%s) != (%s,%s)", tick, got0, got1, shifted0, shifted1)
		}
	}

	// In range the global accumulator is subtracted once while each boundary is
	// subtracted once, so the invariant needs the global shifted twice.
	got0, _, err := FeeGrowthInside(0, -100, 100, base0, base1, lower, upper)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doubleShift := new(uint256.Int).Add(shift, shift)
	shifted0, _, err := FeeGrowthInside(0, -100, 100,
		new(uint256.Int).Add(base0, doubleShift),
		new(uint256.Int).Add(base1, doubleShift),
		shifted(lower), shifted(upper))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got0.Eq(shifted0) {
		t.Fatalf("in-range shift changed result: %s != %s", got0, shifted0)
	}
}

func TestFeeGrowthInsideInvalidRange(t *testing.T) {
	lower := boundary(u256(0), u256(0))
	upper := boundary(u256(0), u256(0))

	for _, ticks := range [][2]int32{{100, 100}, {100, -100}} {
		_, _, err := FeeGrowthInside(0, ticks[0], ticks[1], u256(0), u256(0), lower, upper)
		if !errors.Is(err, ErrInvalidTickRange) {
			t.Fatalf("ticks %v: expected ErrInvalidTickRange, got %v", ticks, err)
		}
	}
}
