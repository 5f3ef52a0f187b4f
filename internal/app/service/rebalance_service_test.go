package service

import (
	"context"
	"errors"
	"testing"

	"portfolio_rebalancer/internal/app/port"
	"portfolio_rebalancer/internal/domain/entity"
)

func newTestRebalanceService(txGen port.TransactionGenerator, logger *recordingLogger) port.RebalanceService {
	return NewRebalanceService(
		NewDeltaCalculator(logger),
		NewSwapMatcher(logger),
		txGen,
		logger,
	)
}

type panickingGenerator struct{}

func (panickingGenerator) GenerateTransactions(context.Context, []entity.SwapInstruction, string) ([]entity.Transaction, error) {
	panic("generator exploded")
}

func TestExecuteRebalanceNothingToDo(t *testing.T) {
	approvals := &fakeApprovalProvider{}
	quotes := &fakeQuoteProvider{}
	logger := &recordingLogger{}
	svc := newTestRebalanceService(NewTransactionGenerator(approvals, quotes, 1.0, logger), logger)
	client := &fakeBatchClient{}

	// Already at target within the per-token tolerance.
	tokens := []entity.PortfolioTokenWithTarget{
		tokenWithTarget("A", 500, 10, 500, 18),
		tokenWithTarget("B", 500, 10, 500.005, 18),
	}

	result := svc.ExecuteRebalance(context.Background(), tokens, testWallet, client)

	if !result.Success || result.TxCount != 0 {
		t.Errorf("result = %+v, want success with zero transactions", result)
	}
	if len(approvals.calls) != 0 || len(quotes.calls) != 0 || len(client.submitted) != 0 {
		t.Error("no collaborator may be contacted when there is nothing to do")
	}
}

func TestExecuteRebalanceGenerationFailureBecomesResult(t *testing.T) {
	approvals := &fakeApprovalProvider{err: errors.New("allowance lookup failed")}
	quotes := &fakeQuoteProvider{}
	logger := &recordingLogger{}
	svc := newTestRebalanceService(NewTransactionGenerator(approvals, quotes, 1.0, logger), logger)
	client := &fakeBatchClient{}

	tokens := []entity.PortfolioTokenWithTarget{
		tokenWithTarget("A", 250, 10, 400, 18),
		tokenWithTarget("B", 250, 10, 100, 18),
	}

	result := svc.ExecuteRebalance(context.Background(), tokens, testWallet, client)

	if result.Success {
		t.Error("result.Success = true, want false after generation failure")
	}
	if result.Error == "" {
		t.Error("result.Error is empty, want the collaborator failure message")
	}
	if len(client.submitted) != 0 {
		t.Error("batch must not be submitted when generation fails")
	}
}

func TestExecuteRebalanceSubmitsBatch(t *testing.T) {
	approvals := &fakeApprovalProvider{}
	quotes := &fakeQuoteProvider{}
	logger := &recordingLogger{}
	svc := newTestRebalanceService(NewTransactionGenerator(approvals, quotes, 1.0, logger), logger)
	client := &fakeBatchClient{result: entity.RebalanceResult{Success: true, BatchID: "op-1", TxHash: "0xmined"}}

	tokens := []entity.PortfolioTokenWithTarget{
		tokenWithTarget("A", 250, 10, 400, 18),
		tokenWithTarget("B", 250, 10, 100, 18),
	}

	result := svc.ExecuteRebalance(context.Background(), tokens, testWallet, client)

	if !result.Success {
		t.Fatalf("result = %+v, want success", result)
	}
	if result.BatchID != "op-1" || result.TxHash != "0xmined" {
		t.Errorf("identifiers = (%s, %s), want (op-1, 0xmined)", result.BatchID, result.TxHash)
	}
	if len(client.submitted) != 1 {
		t.Fatalf("submissions = %d, want 1", len(client.submitted))
	}
	// One instruction (A buys what B sells): approval + swap.
	if result.TxCount != 2 {
		t.Errorf("TxCount = %d, want 2", result.TxCount)
	}
}

func TestExecuteRebalanceNeverPanics(t *testing.T) {
	logger := &recordingLogger{}
	svc := newTestRebalanceService(panickingGenerator{}, logger)
	client := &fakeBatchClient{}

	tokens := []entity.PortfolioTokenWithTarget{
		tokenWithTarget("A", 250, 10, 400, 18),
		tokenWithTarget("B", 250, 10, 100, 18),
	}

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("ExecuteRebalance let a panic escape: %v", r)
		}
	}()
	result := svc.ExecuteRebalance(context.Background(), tokens, testWallet, client)

	if result.Success {
		t.Error("result.Success = true, want false after pipeline panic")
	}
	if result.Error == "" {
		t.Error("result.Error is empty, want the panic message")
	}
}

func TestPreviewRebalanceReportsPlanAndErrors(t *testing.T) {
	logger := &recordingLogger{}
	approvals := &fakeApprovalProvider{}
	quotes := &fakeQuoteProvider{}
	svc := newTestRebalanceService(NewTransactionGenerator(approvals, quotes, 1.0, logger), logger)

	tokens := []entity.PortfolioTokenWithTarget{
		tokenWithTarget("A", 250, 10, 400, 18),
		tokenWithTarget("B", 250, 10, 100, 18),
		tokenWithTarget("BROKEN", 50, 0, 50, 18),
	}

	plan, errs := svc.PreviewRebalance(tokens)

	if len(plan.Instructions) != 1 {
		t.Fatalf("instructions = %d, want 1", len(plan.Instructions))
	}
	if plan.Instructions[0].FromSymbol != "B" || plan.Instructions[0].ToSymbol != "A" {
		t.Errorf("instruction = %+v, want B -> A", plan.Instructions[0])
	}
	if plan.TotalSwapUSD != 150 {
		t.Errorf("TotalSwapUSD = %v, want 150", plan.TotalSwapUSD)
	}
	if len(errs) != 1 || errs[0].TokenSymbol != "BROKEN" {
		t.Errorf("errs = %v, want one error for BROKEN", errs)
	}
	if len(approvals.calls) != 0 || len(quotes.calls) != 0 {
		t.Error("preview must not contact any collaborator")
	}
}
