package dex

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestDecodePositionsOutput(t *testing.T) {
	npmABI, err := PositionManagerABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	token0 := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	token1 := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	growth0Last := new(big.Int).Lsh(big.NewInt(7), 128)
	growth1Last := new(big.Int).Lsh(big.NewInt(3), 128)

	packed, err := npmABI.Methods["positions"].Outputs.Pack(
		big.NewInt(1),
		common.Address{},
		token0,
		token1,
		big.NewInt(3000),
		big.NewInt(-887220),
		big.NewInt(887220),
		big.NewInt(123456789),
		growth0Last,
		growth1Last,
		big.NewInt(42),
		big.NewInt(24),
	)
	if err != nil {
		t.Fatalf("pack positions: %v", err)
	}

	values, err := npmABI.Unpack("positions", packed)
	if err != nil {
		t.Fatalf("unpack positions: %v", err)
	}

	position, err := DecodePositionsOutput(values)
	if err != nil {
		t.Fatalf("decode positions: %v", err)
	}

	if position.Token0 != token0.Hex() || position.Token1 != token1.Hex() {
		t.Fatalf("token mismatch: %+v", position)
	}
	if position.Fee != 3000 {
		t.Fatalf("fee mismatch: %d", position.Fee)
	}
	if position.TickLower != -887220 || position.TickUpper != 887220 {
		t.Fatalf("tick mismatch: %d %d", position.TickLower, position.TickUpper)
	}
	if position.Liquidity.Uint64() != 123456789 {
		t.Fatalf("liquidity mismatch: %s", position.Liquidity)
	}
	if position.FeeGrowthInside0LastX128.ToBig().Cmp(growth0Last) != 0 {
		t.Fatalf("growth0 mismatch: %s", position.FeeGrowthInside0LastX128)
	}
	if position.TokensOwed0.Uint64() != 42 || position.TokensOwed1.Uint64() != 24 {
		t.Fatalf("owed mismatch: %s %s", position.TokensOwed0, position.TokensOwed1)
	}
}

func TestDecodeSlot0Output(t *testing.T) {
	poolABI, err := V3PoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	packed, err := poolABI.Methods["slot0"].Outputs.Pack(
		new(big.Int).Lsh(big.NewInt(1), 96), // price 1.0
		big.NewInt(-15),
		uint16(1),
		uint16(1),
		uint16(1),
		uint8(0),
		true,
	)
	if err != nil {
		t.Fatalf("pack slot0: %v", err)
	}

	values, err := poolABI.Unpack("slot0", packed)
	if err != nil {
		t.Fatalf("unpack slot0: %v", err)
	}

	sqrtPrice, tick, err := DecodeSlot0Output(values)
	if err != nil {
		t.Fatalf("decode slot0: %v", err)
	}
	if tick != -15 {
		t.Fatalf("tick mismatch: %d", tick)
	}
	if sqrtPrice.BitLen() != 97 {
		t.Fatalf("sqrt price mismatch: %s", sqrtPrice)
	}
}

func TestDecodeTicksOutput(t *testing.T) {
	poolABI, err := V3PoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	outside0 := new(big.Int).Lsh(big.NewInt(11), 128)
	outside1 := new(big.Int).Lsh(big.NewInt(13), 128)

	packed, err := poolABI.Methods["ticks"].Outputs.Pack(
		big.NewInt(1000),
		big.NewInt(-500),
		outside0,
		outside1,
		big.NewInt(0),
		big.NewInt(0),
		uint32(0),
		true,
	)
	if err != nil {
		t.Fatalf("pack ticks: %v", err)
	}

	values, err := poolABI.Unpack("ticks", packed)
	if err != nil {
		t.Fatalf("unpack ticks: %v", err)
	}

	state, err := DecodeTicksOutput(values)
	if err != nil {
		t.Fatalf("decode ticks: %v", err)
	}
	if state.FeeGrowthOutside0X128.ToBig().Cmp(outside0) != 0 {
		t.Fatalf("outside0 mismatch: %s", state.FeeGrowthOutside0X128)
	}
	if state.FeeGrowthOutside1X128.ToBig().Cmp(outside1) != 0 {
		t.Fatalf("outside1 mismatch: %s", state.FeeGrowthOutside1X128)
	}
}
