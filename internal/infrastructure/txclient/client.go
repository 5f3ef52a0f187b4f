// Package txclient provides the two concrete backends of the unified
// transaction batch client: the account-abstraction path and the
// wallet-native batched-calls path. Both submit an ordered transaction
// sequence as one atomic unit and report every failure, including
// precondition violations, inside the returned result. Neither backend ever
// panics or surfaces an error to its caller.
package txclient

import (
	"context"
	"math/big"

	"portfolio_rebalancer/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// rpcCaller is the narrow JSON-RPC surface both backends need; *rpc.Client
// satisfies it, tests substitute a fake.
type rpcCaller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// batchCall is the wire shape of one call inside a batch submission.
type batchCall struct {
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value"`
}

func encodeCalls(transactions []entity.Transaction) []batchCall {
	calls := make([]batchCall, 0, len(transactions))
	for _, tx := range transactions {
		value := tx.Value
		if value == nil {
			value = big.NewInt(0)
		}
		calls = append(calls, batchCall{
			To:    tx.To,
			Data:  tx.Data,
			Value: hexutil.EncodeBig(value),
		})
	}
	return calls
}
