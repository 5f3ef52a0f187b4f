package service

import (
	"context"
	"fmt"

	"portfolio_rebalancer/internal/app/port"
	"portfolio_rebalancer/internal/domain/entity"
)

// TransactionGeneratorImpl implements port.TransactionGenerator. Per
// instruction it resolves an approval transaction (skipped entirely for the
// native asset) followed by a swap transaction from the routing
// collaborator. Calls run strictly sequentially, instruction by instruction,
// so the emitted batch order is deterministic and the collaborator is never
// hit with concurrent fan-out.
type TransactionGeneratorImpl struct {
	approvals       port.ApprovalProvider
	quotes          port.SwapQuoteProvider
	slippagePercent float64
	logger          port.Logger
}

// NewTransactionGenerator creates a new TransactionGeneratorImpl with the
// fixed slippage tolerance every quote is requested with.
func NewTransactionGenerator(
	approvals port.ApprovalProvider,
	quotes port.SwapQuoteProvider,
	slippagePercent float64,
	l port.Logger,
) port.TransactionGenerator {
	return &TransactionGeneratorImpl{
		approvals:       approvals,
		quotes:          quotes,
		slippagePercent: slippagePercent,
		logger:          l,
	}
}

// GenerateTransactions converts swap instructions into the ordered
// transaction batch. Any collaborator failure aborts generation entirely:
// submitting a partial mix of approvals and swaps could leave a dangling
// approval or execute an unintended partial rebalance.
func (g *TransactionGeneratorImpl) GenerateTransactions(
	ctx context.Context,
	instructions []entity.SwapInstruction,
	walletAddress string,
) ([]entity.Transaction, error) {
	transactions := make([]entity.Transaction, 0, len(instructions)*2)

	for i, inst := range instructions {
		g.logger.Debug("Generating transactions for swap instruction",
			"index", i, "from", inst.FromSymbol, "to", inst.ToSymbol,
			"amount_in_wei", inst.AmountInWei, "amount_usd", inst.AmountUSD)

		if !entity.IsNativeAsset(inst.FromAddress) {
			approval, err := g.approvals.GetApprovalTransaction(ctx, inst.FromAddress, inst.AmountInWei, walletAddress)
			if err != nil {
				g.logger.Error("Failed to resolve approval transaction",
					"from", inst.FromSymbol, "error", err)
				return nil, fmt.Errorf("failed to resolve approval for %s: %w", inst.FromSymbol, err)
			}
			if approval != nil {
				transactions = append(transactions, *approval)
			}
		}

		swapTx, err := g.quotes.GetSwapTransaction(ctx, entity.SwapQuoteRequest{
			FromToken:       inst.FromAddress,
			ToToken:         inst.ToAddress,
			AmountInWei:     inst.AmountInWei,
			WalletAddress:   walletAddress,
			SlippagePercent: g.slippagePercent,
		})
		if err != nil {
			g.logger.Error("Failed to fetch swap transaction",
				"from", inst.FromSymbol, "to", inst.ToSymbol, "error", err)
			return nil, fmt.Errorf("failed to fetch swap transaction %s -> %s: %w", inst.FromSymbol, inst.ToSymbol, err)
		}
		if swapTx.Description == "" {
			swapTx.Description = describeSwap(inst)
		}
		transactions = append(transactions, *swapTx)
	}

	g.logger.Info("Transaction generation completed",
		"instructions", len(instructions), "transactions", len(transactions))
	return transactions, nil
}

func describeSwap(inst entity.SwapInstruction) string {
	return fmt.Sprintf("Swap %s to %s (~$%.2f)", inst.FromSymbol, inst.ToSymbol, inst.AmountUSD)
}
