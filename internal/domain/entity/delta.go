package entity

// TokenDelta is the signed USD difference between a token's target and
// current value. Positive DeltaUSD means the token must be bought, negative
// means it must be sold. Deltas exist only within one rebalance computation
// and are consumed in place during matching.
type TokenDelta struct {
	Address         string  `json:"address"`
	Symbol          string  `json:"symbol"`
	Decimals        uint8   `json:"decimals"`
	CurrentValueUSD float64 `json:"currentValueUsd"`
	TargetValueUSD  float64 `json:"targetValueUsd"`
	DeltaUSD        float64 `json:"deltaUsd"`
	CurrentPrice    float64 `json:"currentPrice"`
}
