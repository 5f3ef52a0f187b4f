package entity

import "strings"

// NativeAssetAddress is the conventional sentinel address representing the
// chain's native currency in token-address-based APIs. The native asset has
// no ERC-20 contract and never requires a spend approval.
const NativeAssetAddress = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"

// IsNativeAsset reports whether the given token address is the native asset
// sentinel. Comparison is case-insensitive since callers mix checksum and
// lowercase forms.
func IsNativeAsset(address string) bool {
	return strings.EqualFold(address, NativeAssetAddress)
}

// PortfolioToken represents one token holding inside a wallet portfolio
// snapshot. Snapshots are produced by the portfolio data provider and are
// immutable from the core's perspective.
type PortfolioToken struct {
	Name     string  `json:"name"`
	Address  string  `json:"address"`
	Symbol   string  `json:"symbol"`
	Decimals uint8   `json:"decimals"`
	ValueUSD float64 `json:"valueUsd"`
	Amount   float64 `json:"amount"`
	LogoURL  string  `json:"logoUrl,omitempty"`
}

// PortfolioTokenWithTarget extends PortfolioToken with the USD value and
// amount the token should hold after rebalancing. The sum of all targets in
// a snapshot equals the sum of current values: rebalancing moves value
// between tokens, it does not create or destroy it.
type PortfolioTokenWithTarget struct {
	PortfolioToken
	TargetValueUSD float64 `json:"targetValueUsd"`
	TargetAmount   float64 `json:"targetAmount"`
}

// TargetAllocation is one user-specified target share of the portfolio,
// expressed as a percentage of total portfolio value.
type TargetAllocation struct {
	Address string  `json:"address"`
	Percent float64 `json:"percent"`
}
