package allowance

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"portfolio_rebalancer/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

const (
	testToken  = "0x3333333333333333333333333333333333333333"
	testOwner  = "0x1111111111111111111111111111111111111111"
	testRouter = "0x2222222222222222222222222222222222222222"
)

// fakeCaller answers eth_call with a fixed allowance value.
type fakeCaller struct {
	allowance *big.Int
	err       error
	calls     int
}

func (f *fakeCaller) CallContext(_ context.Context, result interface{}, method string, _ ...interface{}) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	if method != "eth_call" {
		return errors.New("unexpected method " + method)
	}
	out := result.(*hexutil.Bytes)
	*out = common.LeftPadBytes(f.allowance.Bytes(), 32)
	return nil
}

func newTestProvider(caller rpcCaller) *ERC20Provider {
	initParsedERC20ABI()
	return &ERC20Provider{
		caller:      caller,
		spender:     common.HexToAddress(testRouter),
		callTimeout: time.Second,
		logger:      zap.NewNop(),
	}
}

func TestGetApprovalTransactionNativeAsset(t *testing.T) {
	caller := &fakeCaller{allowance: big.NewInt(0)}
	p := newTestProvider(caller)

	tx, err := p.GetApprovalTransaction(context.Background(), entity.NativeAssetAddress, "1000", testOwner)
	if err != nil {
		t.Fatalf("GetApprovalTransaction returned error: %v", err)
	}
	if tx != nil {
		t.Errorf("tx = %+v, want nil for native asset", tx)
	}
	if caller.calls != 0 {
		t.Errorf("rpc calls = %d, want 0 (native asset must not hit the chain)", caller.calls)
	}
}

func TestGetApprovalTransactionSufficientAllowance(t *testing.T) {
	p := newTestProvider(&fakeCaller{allowance: big.NewInt(5000)})

	tx, err := p.GetApprovalTransaction(context.Background(), testToken, "1000", testOwner)
	if err != nil {
		t.Fatalf("GetApprovalTransaction returned error: %v", err)
	}
	if tx != nil {
		t.Errorf("tx = %+v, want nil when allowance already covers the spend", tx)
	}
}

func TestGetApprovalTransactionBuildsApprove(t *testing.T) {
	p := newTestProvider(&fakeCaller{allowance: big.NewInt(10)})

	tx, err := p.GetApprovalTransaction(context.Background(), testToken, "1000", testOwner)
	if err != nil {
		t.Fatalf("GetApprovalTransaction returned error: %v", err)
	}
	if tx == nil {
		t.Fatal("tx = nil, want an approval transaction")
	}
	if tx.Kind != entity.TxKindApproval {
		t.Errorf("tx.Kind = %s, want approval", tx.Kind)
	}
	if tx.To != testToken {
		t.Errorf("tx.To = %s, want the token contract %s", tx.To, testToken)
	}
	// approve(address,uint256) selector.
	if !strings.HasPrefix(tx.Data, "0x095ea7b3") {
		t.Errorf("tx.Data = %s, want approve selector prefix 0x095ea7b3", tx.Data)
	}
	if tx.Value.Sign() != 0 {
		t.Errorf("tx.Value = %s, want 0", tx.Value.String())
	}
}

func TestGetApprovalTransactionMalformedAmount(t *testing.T) {
	p := newTestProvider(&fakeCaller{allowance: big.NewInt(0)})

	if _, err := p.GetApprovalTransaction(context.Background(), testToken, "12.5", testOwner); err == nil {
		t.Error("expected error for non-integer amount, got nil")
	}
	if _, err := p.GetApprovalTransaction(context.Background(), testToken, "-5", testOwner); err == nil {
		t.Error("expected error for negative amount, got nil")
	}
}

func TestGetApprovalTransactionRPCError(t *testing.T) {
	p := newTestProvider(&fakeCaller{err: errors.New("rpc down")})

	if _, err := p.GetApprovalTransaction(context.Background(), testToken, "1000", testOwner); err == nil {
		t.Error("expected error when allowance lookup fails, got nil")
	}
}
