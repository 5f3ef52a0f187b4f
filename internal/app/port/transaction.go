package port

import (
	"context"

	"portfolio_rebalancer/internal/domain/entity"
)

// ApprovalProvider defines the interface for resolving spend-authorization
// transactions. Given a token and a required spend amount (integer string in
// the token's smallest unit), it returns the approval transaction to
// execute, or nil when no approval is owed (native asset, or the existing
// allowance already covers the spend).
type ApprovalProvider interface {
	GetApprovalTransaction(ctx context.Context, tokenAddress string, amountInWei string, ownerAddress string) (*entity.Transaction, error)
}

// SwapQuoteProvider defines the interface for the external swap
// routing/quoting collaborator. The returned transaction carries the router
// target, encoded call data, the native value to attach (non-zero only when
// selling the native asset) and the collaborator's expected output amount.
type SwapQuoteProvider interface {
	GetSwapTransaction(ctx context.Context, req entity.SwapQuoteRequest) (*entity.Transaction, error)
}

// TransactionGenerator converts an ordered sequence of swap instructions
// into the ordered, chain-executable transaction batch. Generation is
// fail-fast: any collaborator error aborts the whole step and no partial
// list is ever returned.
type TransactionGenerator interface {
	GenerateTransactions(ctx context.Context, instructions []entity.SwapInstruction, walletAddress string) ([]entity.Transaction, error)
}

// TransactionBatchClient submits an ordered sequence of transactions as a
// single atomic batch. Implementations never panic and never return an
// error: every failure, including precondition violations checked before any
// network call, is reported inside the result.
type TransactionBatchClient interface {
	SubmitBatch(ctx context.Context, transactions []entity.Transaction) entity.RebalanceResult
}

// ConnectionKind identifies the wallet-connection context a batch client is
// built for. Selection is explicit at construction time, never by probing
// the client's runtime shape.
type ConnectionKind string

const (
	// SmartAccountConnection routes batches through the account-abstraction
	// path: one user operation, submitted and then awaited until mined.
	SmartAccountConnection ConnectionKind = "smart_account"
	// WalletCallsConnection routes batches through the wallet-native batched
	// calls capability; mining is confirmed asynchronously by the caller.
	WalletCallsConnection ConnectionKind = "wallet_calls"
)

// TransactionClientFactory builds a batch client bound to a wallet account
// for the requested connection context.
type TransactionClientFactory interface {
	ClientFor(kind ConnectionKind, walletAddress string) (TransactionBatchClient, error)
}
