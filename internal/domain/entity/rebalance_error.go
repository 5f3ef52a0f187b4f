package entity

// RebalanceError describes a non-fatal, per-token issue encountered during
// the rebalance computation (for example a degenerate holding with a nonzero
// value but zero amount). The offending token is skipped; the computation
// continues for the rest of the portfolio.
type RebalanceError struct {
	TokenAddress string `json:"tokenAddress,omitempty"`
	TokenSymbol  string `json:"tokenSymbol,omitempty"`
	Stage        string `json:"stage"`
	Message      string `json:"message"`
}
