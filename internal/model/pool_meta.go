package model

import "github.com/holiman/uint256"

// TokenMeta captures ERC20 metadata.
type TokenMeta struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
}

// PoolSnapshot holds the pool-global accounting state read at one block:
// the current tick and the per-token Q128.128 fee-growth accumulators.
type PoolSnapshot struct {
	Tick                 int32
	SqrtPriceX96         *uint256.Int
	FeeGrowthGlobal0X128 *uint256.Int
	FeeGrowthGlobal1X128 *uint256.Int
	BlockNumber          uint64
}
