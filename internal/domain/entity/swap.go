package entity

// SwapInstruction is one abstract pairwise trade produced by the matcher.
// The sell amount is expressed in the sell token's smallest integer unit,
// string-encoded to avoid precision loss. Instructions are never mutated
// after creation.
type SwapInstruction struct {
	FromAddress string  `json:"fromAddress"`
	FromSymbol  string  `json:"fromSymbol"`
	ToAddress   string  `json:"toAddress"`
	ToSymbol    string  `json:"toSymbol"`
	AmountInWei string  `json:"amountInWei"`
	AmountUSD   float64 `json:"amountUsd"`
}

// SwapQuoteRequest carries the parameters of one quote round-trip to the
// swap routing collaborator.
type SwapQuoteRequest struct {
	FromToken       string
	ToToken         string
	AmountInWei     string
	WalletAddress   string
	SlippagePercent float64
}

// RebalancePlan is the preview of one rebalance computation: the filtered
// per-token deltas and the swap instructions the matcher derived from them.
type RebalancePlan struct {
	Deltas       []TokenDelta      `json:"deltas"`
	Instructions []SwapInstruction `json:"instructions"`
	TotalSwapUSD float64           `json:"totalSwapUsd"`
}
