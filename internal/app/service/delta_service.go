package service

import (
	"fmt"
	"math"
	"sort"

	"portfolio_rebalancer/internal/app/port"
	"portfolio_rebalancer/internal/domain/entity"
)

// deltaToleranceUSD is the one-cent dead zone applied to per-token deltas.
// It absorbs floating-point noise from upstream percentage math and keeps
// economically meaningless dust swaps out of the plan. The same threshold
// decides when a delta is considered fully consumed during matching.
const deltaToleranceUSD = 0.01

// targetPercentSumTolerance bounds how far the sum of target percentages may
// drift from 100 before the allocation set is rejected.
const targetPercentSumTolerance = 0.01

const stageDeltaCalculation = "delta_calculation"

// DeltaCalculator derives per-token deltas from a portfolio snapshot and
// splits them into surplus and deficit sets.
type DeltaCalculator struct {
	logger port.Logger
}

// NewDeltaCalculator creates a new DeltaCalculator.
func NewDeltaCalculator(l port.Logger) *DeltaCalculator {
	return &DeltaCalculator{logger: l}
}

// ApplyTargetAllocations applies user-specified target percentages to the
// portfolio's total USD value, producing the per-token target values the
// delta calculation works from. Percentages must sum to 100; tokens without
// an explicit allocation get a zero target (full sell). The resulting target
// values sum to the current total by construction.
func (c *DeltaCalculator) ApplyTargetAllocations(
	tokens []entity.PortfolioToken,
	targets []entity.TargetAllocation,
) ([]entity.PortfolioTokenWithTarget, error) {
	byAddress := make(map[string]float64, len(targets))
	var percentSum float64
	for _, t := range targets {
		byAddress[t.Address] = t.Percent
		percentSum += t.Percent
	}
	if math.Abs(percentSum-100) > targetPercentSumTolerance {
		return nil, fmt.Errorf("target allocations must sum to 100%%, got %.4f%%", percentSum)
	}

	known := make(map[string]struct{}, len(tokens))
	var totalValueUSD float64
	for _, token := range tokens {
		known[token.Address] = struct{}{}
		totalValueUSD += token.ValueUSD
	}
	for _, t := range targets {
		if _, ok := known[t.Address]; !ok {
			return nil, fmt.Errorf("target allocation references token %s not present in the portfolio", t.Address)
		}
	}

	result := make([]entity.PortfolioTokenWithTarget, 0, len(tokens))
	for _, token := range tokens {
		targetValueUSD := totalValueUSD * byAddress[token.Address] / 100

		var targetAmount float64
		if token.Amount > 0 && token.ValueUSD > 0 {
			price := token.ValueUSD / token.Amount
			targetAmount = targetValueUSD / price
		}

		result = append(result, entity.PortfolioTokenWithTarget{
			PortfolioToken: token,
			TargetValueUSD: targetValueUSD,
			TargetAmount:   targetAmount,
		})
	}

	c.logger.Debug("Applied target allocations",
		"token_count", len(result), "total_value_usd", totalValueUSD)
	return result, nil
}

// CalculateDeltas computes the signed USD difference between target and
// current value for each token. Tokens inside the one-cent dead zone are
// dropped. A token with a nonzero value but zero held amount has no derivable
// price; it is reported and skipped without failing the rest of the snapshot.
func (c *DeltaCalculator) CalculateDeltas(
	tokens []entity.PortfolioTokenWithTarget,
) ([]entity.TokenDelta, []entity.RebalanceError) {
	deltas := make([]entity.TokenDelta, 0, len(tokens))
	var errs []entity.RebalanceError

	for _, token := range tokens {
		if token.Amount == 0 {
			if token.ValueUSD != 0 {
				c.logger.Warn("Token has nonzero value but zero amount, skipping",
					"symbol", token.Symbol, "address", token.Address, "value_usd", token.ValueUSD)
				errs = append(errs, entity.RebalanceError{
					TokenAddress: token.Address,
					TokenSymbol:  token.Symbol,
					Stage:        stageDeltaCalculation,
					Message:      fmt.Sprintf("cannot derive price for %s: value is %.2f USD but held amount is zero", token.Symbol, token.ValueUSD),
				})
			}
			continue
		}

		deltaUSD := token.TargetValueUSD - token.ValueUSD
		if math.Abs(deltaUSD) <= deltaToleranceUSD {
			continue
		}

		deltas = append(deltas, entity.TokenDelta{
			Address:         token.Address,
			Symbol:          token.Symbol,
			Decimals:        token.Decimals,
			CurrentValueUSD: token.ValueUSD,
			TargetValueUSD:  token.TargetValueUSD,
			DeltaUSD:        deltaUSD,
			CurrentPrice:    token.ValueUSD / token.Amount,
		})
	}

	c.logger.Debug("Calculated token deltas",
		"input_tokens", len(tokens), "deltas", len(deltas), "skipped_errors", len(errs))
	return deltas, errs
}

// PartitionDeltas splits deltas into the surplus set (must sell, sorted by
// most-negative delta first) and the deficit set (must buy, sorted by largest
// delta first). Matching the biggest imbalances against each other first
// tends to minimize the total instruction count. Sorting is stable so that
// equal-magnitude deltas keep their original snapshot order.
func (c *DeltaCalculator) PartitionDeltas(deltas []entity.TokenDelta) (surplus, deficit []entity.TokenDelta) {
	for _, d := range deltas {
		switch {
		case d.DeltaUSD < -deltaToleranceUSD:
			surplus = append(surplus, d)
		case d.DeltaUSD > deltaToleranceUSD:
			deficit = append(deficit, d)
		}
	}

	sort.SliceStable(surplus, func(i, j int) bool {
		return surplus[i].DeltaUSD < surplus[j].DeltaUSD
	})
	sort.SliceStable(deficit, func(i, j int) bool {
		return deficit[i].DeltaUSD > deficit[j].DeltaUSD
	})

	c.logger.Debug("Partitioned deltas", "surplus", len(surplus), "deficit", len(deficit))
	return surplus, deficit
}
