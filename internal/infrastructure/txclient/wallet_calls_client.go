package txclient

import (
	"context"
	"fmt"
	"time"

	"portfolio_rebalancer/internal/app/port"
	"portfolio_rebalancer/internal/domain/entity"
	"portfolio_rebalancer/internal/pkg/metrics"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

// sendCallsParams is the EIP-5792 wallet_sendCalls request payload.
type sendCallsParams struct {
	Version      string                 `json:"version"`
	ChainID      string                 `json:"chainId"`
	From         string                 `json:"from"`
	Calls        []batchCall            `json:"calls"`
	Capabilities map[string]interface{} `json:"capabilities,omitempty"`
}

// WalletCallsClient implements port.TransactionBatchClient over the
// wallet-native batched-calls capability (EIP-5792). Submission returns the
// wallet's bundle identifier immediately; mining is confirmed asynchronously
// by the caller polling with that identifier.
type WalletCallsClient struct {
	caller         rpcCaller
	accountAddress string
	chainID        uint64
	logger         *zap.Logger
}

// NewWalletCallsClient binds a client to the given account on the given
// chain over an already-dialed wallet RPC connection, which may be shared
// between clients.
func NewWalletCallsClient(caller rpcCaller, chainID uint64, accountAddress string, logger *zap.Logger) *WalletCallsClient {
	return &WalletCallsClient{
		caller:         caller,
		accountAddress: accountAddress,
		chainID:        chainID,
		logger:         logger.Named("WalletCallsClient"),
	}
}

// SubmitBatch implements port.TransactionBatchClient.
func (c *WalletCallsClient) SubmitBatch(ctx context.Context, transactions []entity.Transaction) entity.RebalanceResult {
	start := time.Now()
	defer func() {
		metrics.BatchSubmissionSeconds.WithLabelValues(string(port.WalletCallsConnection)).Observe(time.Since(start).Seconds())
	}()

	if c.accountAddress == "" {
		return entity.FailedResult(len(transactions), "no account address resolved for batch submission")
	}
	if len(transactions) == 0 {
		return entity.FailedResult(0, "cannot submit an empty transaction batch")
	}

	params := sendCallsParams{
		Version: "1.0",
		ChainID: hexutil.EncodeUint64(c.chainID),
		From:    c.accountAddress,
		Calls:   encodeCalls(transactions),
		// The batch must execute as one unit; wallets that cannot honor this
		// capability reject the request instead of splitting the batch.
		Capabilities: map[string]interface{}{
			"atomicBatch": map[string]bool{"supported": true},
		},
	}

	var bundleID string
	if err := c.caller.CallContext(ctx, &bundleID, "wallet_sendCalls", params); err != nil {
		c.logger.Error("wallet_sendCalls submission failed",
			zap.String("account", c.accountAddress), zap.Error(err))
		return entity.FailedResult(len(transactions), fmt.Sprintf("wallet_sendCalls failed: %v", err))
	}

	c.logger.Info("Batch accepted by wallet",
		zap.String("account", c.accountAddress),
		zap.String("bundleId", bundleID),
		zap.Int("callCount", len(transactions)))

	return entity.RebalanceResult{
		Success: true,
		BatchID: bundleID,
		TxCount: len(transactions),
	}
}
