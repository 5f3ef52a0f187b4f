package entity

import "math/big"

// TransactionKind tags the role a transaction plays within a rebalance batch.
type TransactionKind string

const (
	// TxKindApproval authorizes the router to spend a sell token.
	TxKindApproval TransactionKind = "approval"
	// TxKindSwap executes one pairwise trade through the router.
	TxKindSwap TransactionKind = "swap"
)

// Transaction is one concrete chain-executable call. Transactions derived
// from one SwapInstruction keep the approval (when present) immediately
// before its swap in the batch; groups for distinct instructions keep the
// matcher's emission order.
type Transaction struct {
	To          string          `json:"to"`
	Data        string          `json:"data"`
	Value       *big.Int        `json:"value"`
	Kind        TransactionKind `json:"kind"`
	Description string          `json:"description"`
	ExpectedOut string          `json:"expectedOut,omitempty"`
}
