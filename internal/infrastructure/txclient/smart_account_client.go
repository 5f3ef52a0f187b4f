package txclient

import (
	"context"
	"fmt"
	"time"

	"portfolio_rebalancer/internal/app/port"
	"portfolio_rebalancer/internal/domain/entity"
	"portfolio_rebalancer/internal/pkg/metrics"

	"go.uber.org/zap"
)

// userOperation is the unsigned batch payload sent to the wallet service.
// Packaging into a final user operation and signing happen wallet-side; this
// client only hands over the ordered calls.
type userOperation struct {
	Sender string      `json:"sender"`
	Calls  []batchCall `json:"calls"`
}

// userOperationReceipt is the subset of the mining receipt the client needs.
type userOperationReceipt struct {
	TransactionHash string `json:"transactionHash"`
	Success         bool   `json:"success"`
}

// SmartAccountClient implements port.TransactionBatchClient over the
// account-abstraction path. Submission blocks twice: once until the wallet
// service accepts the user operation (yielding the operation hash) and again
// until the operation is mined (yielding the final transaction hash).
type SmartAccountClient struct {
	caller         rpcCaller
	accountAddress string
	pollInterval   time.Duration
	waitTimeout    time.Duration
	logger         *zap.Logger
}

// NewSmartAccountClient binds a client to the given smart account over an
// already-dialed wallet-service RPC connection, which may be shared between
// clients.
func NewSmartAccountClient(
	caller rpcCaller,
	accountAddress string,
	pollInterval time.Duration,
	waitTimeout time.Duration,
	logger *zap.Logger,
) *SmartAccountClient {
	return &SmartAccountClient{
		caller:         caller,
		accountAddress: accountAddress,
		pollInterval:   pollInterval,
		waitTimeout:    waitTimeout,
		logger:         logger.Named("SmartAccountClient"),
	}
}

// SubmitBatch implements port.TransactionBatchClient.
func (c *SmartAccountClient) SubmitBatch(ctx context.Context, transactions []entity.Transaction) entity.RebalanceResult {
	start := time.Now()
	defer func() {
		metrics.BatchSubmissionSeconds.WithLabelValues(string(port.SmartAccountConnection)).Observe(time.Since(start).Seconds())
	}()

	if c.accountAddress == "" {
		return entity.FailedResult(len(transactions), "no account address resolved for batch submission")
	}
	if len(transactions) == 0 {
		return entity.FailedResult(0, "cannot submit an empty transaction batch")
	}

	op := userOperation{
		Sender: c.accountAddress,
		Calls:  encodeCalls(transactions),
	}

	var opHash string
	if err := c.caller.CallContext(ctx, &opHash, "wallet_sendUserOperation", op); err != nil {
		c.logger.Error("User operation submission failed",
			zap.String("account", c.accountAddress), zap.Error(err))
		return entity.FailedResult(len(transactions), fmt.Sprintf("user operation submission failed: %v", err))
	}

	c.logger.Info("User operation accepted, waiting for it to be mined",
		zap.String("account", c.accountAddress),
		zap.String("opHash", opHash),
		zap.Int("callCount", len(transactions)))

	receipt, err := c.waitForReceipt(ctx, opHash)
	if err != nil {
		return entity.RebalanceResult{
			Success: false,
			BatchID: opHash,
			Error:   err.Error(),
			TxCount: len(transactions),
		}
	}

	c.logger.Info("User operation mined",
		zap.String("opHash", opHash), zap.String("txHash", receipt.TransactionHash))

	return entity.RebalanceResult{
		Success: true,
		BatchID: opHash,
		TxHash:  receipt.TransactionHash,
		TxCount: len(transactions),
	}
}

func (c *SmartAccountClient) waitForReceipt(ctx context.Context, opHash string) (*userOperationReceipt, error) {
	deadline := time.NewTimer(c.waitTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		var receipt *userOperationReceipt
		if err := c.caller.CallContext(ctx, &receipt, "wallet_getUserOperationReceipt", opHash); err != nil {
			return nil, fmt.Errorf("receipt lookup for %s failed: %v", opHash, err)
		}
		if receipt != nil {
			if !receipt.Success {
				return nil, fmt.Errorf("user operation %s reverted on chain", opHash)
			}
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for user operation %s aborted: %v", opHash, ctx.Err())
		case <-deadline.C:
			return nil, fmt.Errorf("timed out after %s waiting for user operation %s to be mined", c.waitTimeout, opHash)
		case <-ticker.C:
		}
	}
}
