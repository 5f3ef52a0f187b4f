package service

import (
	"context"
	"fmt"
	"math/big"

	"portfolio_rebalancer/internal/domain/entity"
)

// recordingLogger implements port.Logger and captures emitted events so
// tests can assert on pipeline tracing instead of matching log output.
type recordingLogger struct {
	events []logEvent
}

type logEvent struct {
	level string
	msg   string
	args  []any
}

func (l *recordingLogger) Info(msg string, args ...any) {
	l.events = append(l.events, logEvent{"info", msg, args})
}

func (l *recordingLogger) Debug(msg string, args ...any) {
	l.events = append(l.events, logEvent{"debug", msg, args})
}

func (l *recordingLogger) Warn(msg string, args ...any) {
	l.events = append(l.events, logEvent{"warn", msg, args})
}

func (l *recordingLogger) Error(msg string, args ...any) {
	l.events = append(l.events, logEvent{"error", msg, args})
}

func (l *recordingLogger) has(level, msg string) bool {
	for _, e := range l.events {
		if e.level == level && e.msg == msg {
			return true
		}
	}
	return false
}

type fakeApprovalProvider struct {
	calls      []string
	err        error
	noApproval bool
}

func (f *fakeApprovalProvider) GetApprovalTransaction(_ context.Context, tokenAddress, amountInWei, _ string) (*entity.Transaction, error) {
	f.calls = append(f.calls, tokenAddress)
	if f.err != nil {
		return nil, f.err
	}
	if f.noApproval {
		return nil, nil
	}
	return &entity.Transaction{
		To:          tokenAddress,
		Data:        "0x095ea7b3" + amountInWei,
		Value:       big.NewInt(0),
		Kind:        entity.TxKindApproval,
		Description: "Approve " + tokenAddress,
	}, nil
}

type fakeQuoteProvider struct {
	calls      []entity.SwapQuoteRequest
	failOnCall int // 1-based index of the call that fails; 0 means never
	err        error
}

func (f *fakeQuoteProvider) GetSwapTransaction(_ context.Context, req entity.SwapQuoteRequest) (*entity.Transaction, error) {
	f.calls = append(f.calls, req)
	if f.failOnCall != 0 && len(f.calls) == f.failOnCall {
		return nil, f.err
	}

	value := big.NewInt(0)
	if entity.IsNativeAsset(req.FromToken) {
		value, _ = new(big.Int).SetString(req.AmountInWei, 10)
	}
	return &entity.Transaction{
		To:          "0xrouter",
		Data:        "0xswapdata",
		Value:       value,
		Kind:        entity.TxKindSwap,
		ExpectedOut: "42",
	}, nil
}

type fakeBatchClient struct {
	submitted [][]entity.Transaction
	result    entity.RebalanceResult
}

func (f *fakeBatchClient) SubmitBatch(_ context.Context, txs []entity.Transaction) entity.RebalanceResult {
	f.submitted = append(f.submitted, txs)
	res := f.result
	res.TxCount = len(txs)
	return res
}

func tokenWithTarget(symbol string, valueUSD, amount, targetUSD float64, decimals uint8) entity.PortfolioTokenWithTarget {
	return entity.PortfolioTokenWithTarget{
		PortfolioToken: entity.PortfolioToken{
			Name:     symbol,
			Address:  fmt.Sprintf("0x%s", symbol),
			Symbol:   symbol,
			Decimals: decimals,
			ValueUSD: valueUSD,
			Amount:   amount,
		},
		TargetValueUSD: targetUSD,
	}
}
