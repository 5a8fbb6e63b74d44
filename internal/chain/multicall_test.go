package chain

import (
	"bytes"
	"math/big"
	"testing"
)

func TestUnpackAggregate(t *testing.T) {
	parsed, err := Multicall3ABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	returnData := [][]byte{
		{0x01, 0x02},
		{0x03},
	}
	resp, err := parsed.Methods["aggregate"].Outputs.Pack(big.NewInt(19_000_000), returnData)
	if err != nil {
		t.Fatalf("pack outputs: %v", err)
	}

	blockNumber, got, err := unpackAggregate(parsed, resp, 2)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if blockNumber != 19_000_000 {
		t.Fatalf("block number mismatch: %d", blockNumber)
	}
	if len(got) != 2 || !bytes.Equal(got[0], returnData[0]) || !bytes.Equal(got[1], returnData[1]) {
		t.Fatalf("return data mismatch: %v", got)
	}
}

func TestUnpackAggregateArityMismatch(t *testing.T) {
	parsed, err := Multicall3ABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	resp, err := parsed.Methods["aggregate"].Outputs.Pack(big.NewInt(1), [][]byte{{0x01}})
	if err != nil {
		t.Fatalf("pack outputs: %v", err)
	}

	if _, _, err := unpackAggregate(parsed, resp, 3); err == nil {
		t.Fatalf("expected error for result count mismatch")
	}
}
