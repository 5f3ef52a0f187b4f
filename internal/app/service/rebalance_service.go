package service

import (
	"context"
	"fmt"

	"portfolio_rebalancer/internal/app/port"
	"portfolio_rebalancer/internal/domain/entity"
	"portfolio_rebalancer/internal/pkg/metrics"
)

const (
	outcomeSubmitted   = "submitted"
	outcomeFailed      = "failed"
	outcomeNothingToDo = "nothing_to_do"
)

// RebalanceServiceImpl implements port.RebalanceService. The pipeline is
// strictly sequential: delta calculation, partitioning and matching are pure
// and synchronous; transaction generation awaits one collaborator round-trip
// at a time; submission is a single batch call through the injected client.
// Each invocation owns its intermediate state exclusively, so concurrent
// calls for different wallets are safe. Two overlapping runs for the same
// account could submit conflicting batches; serializing per account is the
// caller's responsibility.
type RebalanceServiceImpl struct {
	deltaCalc *DeltaCalculator
	matcher   *SwapMatcher
	txGen     port.TransactionGenerator
	logger    port.Logger
}

// NewRebalanceService creates a new RebalanceServiceImpl.
func NewRebalanceService(
	deltaCalc *DeltaCalculator,
	matcher *SwapMatcher,
	txGen port.TransactionGenerator,
	l port.Logger,
) port.RebalanceService {
	return &RebalanceServiceImpl{
		deltaCalc: deltaCalc,
		matcher:   matcher,
		txGen:     txGen,
		logger:    l,
	}
}

// PreviewRebalance runs the pure computation stages and returns the plan
// without contacting any collaborator.
func (s *RebalanceServiceImpl) PreviewRebalance(
	tokens []entity.PortfolioTokenWithTarget,
) (entity.RebalancePlan, []entity.RebalanceError) {
	deltas, errs := s.deltaCalc.CalculateDeltas(tokens)
	surplus, deficit := s.deltaCalc.PartitionDeltas(deltas)
	instructions := s.matcher.GenerateOptimalSwaps(surplus, deficit)

	var totalSwapUSD float64
	for _, inst := range instructions {
		totalSwapUSD += inst.AmountUSD
	}

	return entity.RebalancePlan{
		Deltas:       deltas,
		Instructions: instructions,
		TotalSwapUSD: totalSwapUSD,
	}, errs
}

// ExecuteRebalance runs the full pipeline and submits the generated batch.
// It never returns an error and never panics past its boundary: generation
// failures and any unexpected panic inside the pipeline are converted into a
// failed result, so callers need no error handling around this call.
func (s *RebalanceServiceImpl) ExecuteRebalance(
	ctx context.Context,
	tokens []entity.PortfolioTokenWithTarget,
	walletAddress string,
	client port.TransactionBatchClient,
) (result entity.RebalanceResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Rebalance pipeline panicked", "wallet", walletAddress, "panic", r)
			metrics.RebalanceAttempts.WithLabelValues(outcomeFailed).Inc()
			result = entity.FailedResult(0, fmt.Sprintf("rebalance failed: %v", r))
		}
	}()

	plan, calcErrs := s.PreviewRebalance(tokens)
	for _, e := range calcErrs {
		s.logger.Warn("Token skipped during delta calculation",
			"wallet", walletAddress, "symbol", e.TokenSymbol, "message", e.Message)
	}

	if len(plan.Instructions) == 0 {
		s.logger.Info("Portfolio already within tolerance of target, nothing to do",
			"wallet", walletAddress)
		metrics.RebalanceAttempts.WithLabelValues(outcomeNothingToDo).Inc()
		metrics.SwapInstructionsPerRebalance.Observe(0)
		return entity.RebalanceResult{Success: true, TxCount: 0}
	}
	metrics.SwapInstructionsPerRebalance.Observe(float64(len(plan.Instructions)))

	transactions, err := s.txGen.GenerateTransactions(ctx, plan.Instructions, walletAddress)
	if err != nil {
		s.logger.Error("Transaction generation failed", "wallet", walletAddress, "error", err)
		metrics.RebalanceAttempts.WithLabelValues(outcomeFailed).Inc()
		return entity.FailedResult(0, err.Error())
	}

	s.logger.Info("Submitting rebalance batch",
		"wallet", walletAddress,
		"instructions", len(plan.Instructions),
		"transactions", len(transactions),
		"total_swap_usd", plan.TotalSwapUSD)

	result = client.SubmitBatch(ctx, transactions)

	if result.Success {
		metrics.RebalanceAttempts.WithLabelValues(outcomeSubmitted).Inc()
		s.logger.Info("Rebalance batch submitted",
			"wallet", walletAddress, "batch_id", result.BatchID, "tx_hash", result.TxHash)
	} else {
		metrics.RebalanceAttempts.WithLabelValues(outcomeFailed).Inc()
		metrics.CollaboratorErrors.WithLabelValues("submission").Inc()
		s.logger.Error("Rebalance batch submission failed",
			"wallet", walletAddress, "error", result.Error)
	}
	return result
}
