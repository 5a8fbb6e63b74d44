package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// DefaultMulticall3 is the canonical Multicall3 deployment, identical on most
// EVM chains.
var DefaultMulticall3 = common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11")

const multicall3ABIJSON = `[
  {
    "inputs": [
      {
        "components": [
          {"internalType": "address", "name": "target", "type": "address"},
          {"internalType": "bytes", "name": "callData", "type": "bytes"}
        ],
        "internalType": "struct Multicall3.Call[]",
        "name": "calls",
        "type": "tuple[]"
      }
    ],
    "name": "aggregate",
    "outputs": [
      {"internalType": "uint256", "name": "blockNumber", "type": "uint256"},
      {"internalType": "bytes[]", "name": "returnData", "type": "bytes[]"}
    ],
    "stateMutability": "payable",
    "type": "function"
  }
]`

var (
	multicall3ABI     abi.ABI
	multicall3ABIOnce sync.Once
	multicall3ABIErr  error
)

// Multicall3ABI returns the parsed Multicall3 ABI.
func Multicall3ABI() (abi.ABI, error) {
	multicall3ABIOnce.Do(func() {
		multicall3ABI, multicall3ABIErr = abi.JSON(strings.NewReader(multicall3ABIJSON))
	})
	return multicall3ABI, multicall3ABIErr
}

// Call is one target invocation inside an aggregate batch.
type Call struct {
	Target   common.Address
	CallData []byte
}

// Aggregate executes all calls in a single eth_call through Multicall3 and
// returns the block the batch executed at together with the raw return data,
// in call order. The aggregate entrypoint reverts if any inner call fails, so
// a partial read can never be mistaken for a successful zero result.
func (c *Client) Aggregate(ctx context.Context, contract common.Address, calls []Call, blockNumber *big.Int) (uint64, [][]byte, error) {
	if len(calls) == 0 {
		return 0, nil, fmt.Errorf("aggregate requires at least one call")
	}

	parsed, err := Multicall3ABI()
	if err != nil {
		return 0, nil, fmt.Errorf("parse multicall abi: %w", err)
	}

	data, err := parsed.Pack("aggregate", calls)
	if err != nil {
		return 0, nil, fmt.Errorf("pack aggregate: %w", err)
	}

	msg := ethereum.CallMsg{To: &contract, Data: data}
	resp, err := c.CallContract(ctx, msg, blockNumber)
	if err != nil {
		return 0, nil, fmt.Errorf("call aggregate: %w", err)
	}

	return unpackAggregate(parsed, resp, len(calls))
}

func unpackAggregate(parsed abi.ABI, resp []byte, wantCalls int) (uint64, [][]byte, error) {
	values, err := parsed.Unpack("aggregate", resp)
	if err != nil {
		return 0, nil, fmt.Errorf("unpack aggregate: %w", err)
	}
	if len(values) != 2 {
		return 0, nil, fmt.Errorf("unexpected aggregate output arity: %d", len(values))
	}

	blockNumber, ok := values[0].(*big.Int)
	if !ok {
		return 0, nil, fmt.Errorf("unexpected block number type %T", values[0])
	}
	returnData, ok := values[1].([][]byte)
	if !ok {
		return 0, nil, fmt.Errorf("unexpected return data type %T", values[1])
	}
	if len(returnData) != wantCalls {
		return 0, nil, fmt.Errorf("aggregate returned %d results for %d calls", len(returnData), wantCalls)
	}

	return blockNumber.Uint64(), returnData, nil
}
