package model

// FeeReport is the storage form of a collectable-fee computation for one
// position at one block. Big amounts are string-encoded to survive JSON.
type FeeReport struct {
	ChainID     uint64 `json:"chain_id"`
	TokenID     string `json:"token_id"`
	Owner       string `json:"owner,omitempty"`
	Pool        string `json:"pool"`
	Token0      string `json:"token0"`
	Token1      string `json:"token1"`
	Symbol0     string `json:"symbol0,omitempty"`
	Symbol1     string `json:"symbol1,omitempty"`
	Fee         uint32 `json:"fee"`
	TickLower   int32  `json:"tick_lower"`
	TickUpper   int32  `json:"tick_upper"`
	Liquidity   string `json:"liquidity"`
	Amount0     string `json:"amount0"`
	Amount1     string `json:"amount1"`
	BlockNumber uint64 `json:"block_number"`
	GeneratedAt string `json:"generated_at"`
}
