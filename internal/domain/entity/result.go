package entity

// RebalanceResult is the outcome of one batched submission attempt. Exactly
// one of {Success with an identifier, failure with Error} holds, with one
// exception: a rebalance that produced zero instructions reports Success
// with TxCount 0 and no identifiers.
type RebalanceResult struct {
	Success bool   `json:"success"`
	TxHash  string `json:"txHash,omitempty"`
	BatchID string `json:"batchId,omitempty"`
	Error   string `json:"error,omitempty"`
	TxCount int    `json:"txCount"`
}

// FailedResult builds a failure outcome carrying the given message.
func FailedResult(txCount int, message string) RebalanceResult {
	return RebalanceResult{Success: false, Error: message, TxCount: txCount}
}
