package service

import (
	"math"

	"portfolio_rebalancer/internal/app/port"
	"portfolio_rebalancer/internal/domain/entity"
	"portfolio_rebalancer/internal/pkg/utils"
)

// SwapMatcher greedily pairs surplus and deficit deltas into direct swap
// instructions. The algorithm is a heuristic, not an optimal bipartite
// matching: it repeatedly matches the largest remaining sell against the
// largest remaining buy, which is O(n) in the number of deltas and always
// terminates because every iteration consumes more than one cent of the
// outstanding imbalance.
type SwapMatcher struct {
	logger port.Logger
}

// NewSwapMatcher creates a new SwapMatcher.
func NewSwapMatcher(l port.Logger) *SwapMatcher {
	return &SwapMatcher{logger: l}
}

// GenerateOptimalSwaps produces the ordered swap instructions that move the
// portfolio from its current allocation to the target allocation. The inputs
// must be sorted per DeltaCalculator.PartitionDeltas. The matcher works on
// its own copies; caller-held slices are never mutated.
func (m *SwapMatcher) GenerateOptimalSwaps(surplus, deficit []entity.TokenDelta) []entity.SwapInstruction {
	sell := make([]entity.TokenDelta, len(surplus))
	copy(sell, surplus)
	buy := make([]entity.TokenDelta, len(deficit))
	copy(buy, deficit)

	swaps := make([]entity.SwapInstruction, 0, len(sell)+len(buy))

	for len(sell) > 0 && len(buy) > 0 {
		sellHead := &sell[0]
		buyHead := &buy[0]

		swapAmountUSD := math.Min(math.Abs(sellHead.DeltaUSD), math.Abs(buyHead.DeltaUSD))

		amountInWei, err := utils.USDToTokenUnits(swapAmountUSD, sellHead.CurrentPrice, sellHead.Decimals)
		if err != nil {
			// No derivable sell price. CalculateDeltas guards against this, but a
			// surplus entry constructed elsewhere could still carry a zero price.
			m.logger.Error("Dropping unsellable surplus entry",
				"symbol", sellHead.Symbol, "address", sellHead.Address,
				"price", sellHead.CurrentPrice, "error", err)
			sell = sell[1:]
			continue
		}

		swaps = append(swaps, entity.SwapInstruction{
			FromAddress: sellHead.Address,
			FromSymbol:  sellHead.Symbol,
			ToAddress:   buyHead.Address,
			ToSymbol:    buyHead.Symbol,
			AmountInWei: amountInWei.String(),
			AmountUSD:   swapAmountUSD,
		})

		m.logger.Debug("Matched swap",
			"from", sellHead.Symbol, "to", buyHead.Symbol,
			"amount_usd", swapAmountUSD,
			"amount_in_wei", amountInWei.String(),
			"amount_tokens", utils.FormatTokenUnits(amountInWei, sellHead.Decimals))

		sellHead.DeltaUSD += swapAmountUSD
		buyHead.DeltaUSD -= swapAmountUSD

		if math.Abs(sellHead.DeltaUSD) < deltaToleranceUSD {
			sell = sell[1:]
		}
		if math.Abs(buyHead.DeltaUSD) < deltaToleranceUSD {
			buy = buy[1:]
		}
	}

	// With exact value conservation upstream both lists empty together; any
	// residual left here is below the matching tolerance and discarded.
	if len(sell) > 0 || len(buy) > 0 {
		m.logger.Debug("Residual deltas after matching",
			"remaining_sell", len(sell), "remaining_buy", len(buy))
	}

	m.logger.Info("Swap matching completed", "instructions", len(swaps))
	return swaps
}
