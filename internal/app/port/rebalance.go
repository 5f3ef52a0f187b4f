package port

import (
	"context"

	"portfolio_rebalancer/internal/domain/entity"
)

// RebalanceService is the top-level entry point of the rebalancing pipeline.
type RebalanceService interface {
	// PreviewRebalance runs the pure computation stages (deltas, partition,
	// matching) and returns the resulting plan without contacting any
	// collaborator. Per-token computation issues are reported alongside.
	PreviewRebalance(tokens []entity.PortfolioTokenWithTarget) (entity.RebalancePlan, []entity.RebalanceError)

	// ExecuteRebalance runs the full pipeline and submits the generated batch
	// through the given client. It never returns an error: every failure is
	// reported inside the result.
	ExecuteRebalance(ctx context.Context, tokens []entity.PortfolioTokenWithTarget, walletAddress string, client TransactionBatchClient) entity.RebalanceResult
}
