package txclient

import (
	"fmt"
	"sync"
	"time"

	"portfolio_rebalancer/internal/app/port"
	"portfolio_rebalancer/internal/infrastructure/configloader"

	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// Factory implements port.TransactionClientFactory. The backend is chosen by
// the caller's declared connection context, never by probing a client object
// for capabilities at runtime. RPC endpoints are dialed once and the
// connections shared across the per-request clients, so request handling
// never leaks a dialed client.
type Factory struct {
	cfg    *configloader.Config
	logger *zap.Logger

	mu    sync.Mutex
	conns map[string]*rpc.Client
}

// NewFactory creates a transaction client factory.
func NewFactory(cfg *configloader.Config, logger *zap.Logger) port.TransactionClientFactory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
		conns:  make(map[string]*rpc.Client),
	}
}

// ClientFor implements port.TransactionClientFactory.
func (f *Factory) ClientFor(kind port.ConnectionKind, walletAddress string) (port.TransactionBatchClient, error) {
	switch kind {
	case port.SmartAccountConnection:
		conn, err := f.connFor(f.cfg.Chain.BundlerRPCURL)
		if err != nil {
			return nil, err
		}
		return NewSmartAccountClient(
			conn,
			walletAddress,
			time.Duration(f.cfg.Submission.PollIntervalMillis)*time.Millisecond,
			time.Duration(f.cfg.Submission.WaitTimeoutSeconds)*time.Second,
			f.logger,
		), nil
	case port.WalletCallsConnection:
		conn, err := f.connFor(f.cfg.Chain.WalletRPCURL)
		if err != nil {
			return nil, err
		}
		return NewWalletCallsClient(conn, f.cfg.Chain.ChainID, walletAddress, f.logger), nil
	default:
		return nil, fmt.Errorf("unknown wallet connection kind %q", kind)
	}
}

func (f *Factory) connFor(rpcURL string) (*rpc.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if conn, ok := f.conns[rpcURL]; ok {
		return conn, nil
	}
	conn, err := rpc.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to wallet RPC %s: %w", rpcURL, err)
	}
	f.conns[rpcURL] = conn
	return conn, nil
}
