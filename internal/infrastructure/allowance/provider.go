package allowance

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"portfolio_rebalancer/internal/app/port"
	"portfolio_rebalancer/internal/domain/entity"
	"portfolio_rebalancer/internal/pkg/metrics"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// ERC20 ABI minimal part for allowance and approve.
const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"_owner","type":"address"},{"name":"_spender","type":"address"}],"name":"allowance","outputs":[{"name":"remaining","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":false,"inputs":[{"name":"_spender","type":"address"},{"name":"_value","type":"uint256"}],"name":"approve","outputs":[{"name":"success","type":"bool"}],"payable":false,"stateMutability":"nonpayable","type":"function"}
]`

var (
	parsedERC20ABI  abi.ABI
	parsedERC20Once sync.Once
)

func initParsedERC20ABI() {
	parsedERC20Once.Do(func() {
		var err error
		parsedERC20ABI, err = abi.JSON(strings.NewReader(erc20ABI))
		if err != nil {
			panic(fmt.Sprintf("failed to parse ERC20 ABI: %v", err))
		}
	})
}

// rpcCaller is the narrow JSON-RPC surface the provider needs; *rpc.Client
// satisfies it, tests substitute a fake.
type rpcCaller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// ERC20Provider implements port.ApprovalProvider by reading the current
// on-chain allowance and, when it does not cover the requested spend,
// building an ERC-20 approve transaction for the configured router.
type ERC20Provider struct {
	caller      rpcCaller
	spender     common.Address
	callTimeout time.Duration
	logger      *zap.Logger
}

// NewERC20Provider dials the chain RPC endpoint and creates an allowance
// provider granting spend authorization to the given router address.
func NewERC20Provider(rpcURL string, routerAddress string, callTimeout time.Duration, logger *zap.Logger) (port.ApprovalProvider, error) {
	initParsedERC20ABI()
	if !common.IsHexAddress(routerAddress) {
		return nil, fmt.Errorf("invalid router address %q", routerAddress)
	}

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	client, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chain RPC %s: %w", rpcURL, err)
	}

	return &ERC20Provider{
		caller:      client,
		spender:     common.HexToAddress(routerAddress),
		callTimeout: callTimeout,
		logger:      logger.Named("AllowanceProvider"),
	}, nil
}

// GetApprovalTransaction implements port.ApprovalProvider. The native asset
// sentinel needs no approval; an existing allowance covering the spend also
// resolves to nil.
func (p *ERC20Provider) GetApprovalTransaction(ctx context.Context, tokenAddress string, amountInWei string, ownerAddress string) (*entity.Transaction, error) {
	initParsedERC20ABI()

	if entity.IsNativeAsset(tokenAddress) {
		return nil, nil
	}
	required, ok := new(big.Int).SetString(amountInWei, 10)
	if !ok || required.Sign() < 0 {
		return nil, fmt.Errorf("malformed spend amount %q for token %s", amountInWei, tokenAddress)
	}

	current, err := p.currentAllowance(ctx, tokenAddress, ownerAddress)
	if err != nil {
		return nil, err
	}
	if current.Cmp(required) >= 0 {
		p.logger.Debug("Existing allowance covers the spend, no approval needed",
			zap.String("token", tokenAddress),
			zap.String("current", current.String()),
			zap.String("required", required.String()))
		return nil, nil
	}

	callData, err := parsedERC20ABI.Pack("approve", p.spender, required)
	if err != nil {
		return nil, fmt.Errorf("failed to encode approve call for %s: %w", tokenAddress, err)
	}

	return &entity.Transaction{
		To:          tokenAddress,
		Data:        hexutil.Encode(callData),
		Value:       big.NewInt(0),
		Kind:        entity.TxKindApproval,
		Description: fmt.Sprintf("Approve router %s to spend %s units of %s", p.spender.Hex(), amountInWei, tokenAddress),
	}, nil
}

func (p *ERC20Provider) currentAllowance(ctx context.Context, tokenAddress string, ownerAddress string) (*big.Int, error) {
	callData, err := parsedERC20ABI.Pack("allowance", common.HexToAddress(ownerAddress), p.spender)
	if err != nil {
		return nil, fmt.Errorf("failed to encode allowance call for %s: %w", tokenAddress, err)
	}

	callArgs := map[string]interface{}{
		"to":   common.HexToAddress(tokenAddress),
		"data": hexutil.Bytes(callData),
	}

	callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()

	var result hexutil.Bytes
	if err := p.caller.CallContext(callCtx, &result, "eth_call", callArgs, "latest"); err != nil {
		metrics.CollaboratorErrors.WithLabelValues("allowance").Inc()
		return nil, fmt.Errorf("allowance lookup failed for token %s: %w", tokenAddress, err)
	}
	if len(result) == 0 {
		return big.NewInt(0), nil
	}

	unpacked, err := parsedERC20ABI.Unpack("allowance", result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack allowance result for %s: %w", tokenAddress, err)
	}
	if len(unpacked) == 0 {
		return nil, fmt.Errorf("allowance unpack returned no data for %s", tokenAddress)
	}
	current, ok := unpacked[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected allowance result type %T for %s", unpacked[0], tokenAddress)
	}
	return current, nil
}
