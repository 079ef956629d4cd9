package testutil

import (
	"context"
	"sync"

	ierr "github.com/projectledger/projectledger/internal/errors"
	"github.com/projectledger/projectledger/internal/types"
)

// Snapshotter is implemented by every in-memory store that takes part in mock transactions
type Snapshotter interface {
	Snapshot() func()
}

type mockTx struct{}

// MockPostgresClient implements postgres.IClient over the in-memory stores. Transactions are
// serialized, which stands in for row and advisory locks, and a failed transaction restores
// every registered store to its state before the transaction began.
type MockPostgresClient struct {
	txMu   sync.Mutex
	stores []Snapshotter

	mu    sync.Mutex
	locks []string
	txs   int
}

func NewMockPostgresClient(stores ...Snapshotter) *MockPostgresClient {
	return &MockPostgresClient{stores: stores}
}

func inMockTx(ctx context.Context) bool {
	_, ok := ctx.Value(types.CtxDBTransaction).(*mockTx)
	return ok
}

func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if inMockTx(ctx) {
		return fn(ctx)
	}

	c.txMu.Lock()
	defer c.txMu.Unlock()

	restores := make([]func(), 0, len(c.stores))
	for _, s := range c.stores {
		restores = append(restores, s.Snapshot())
	}
	rollback := func() {
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
	}

	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
	}()

	c.mu.Lock()
	c.txs++
	c.mu.Unlock()

	if err = fn(context.WithValue(ctx, types.CtxDBTransaction, &mockTx{})); err != nil {
		rollback()
		return err
	}
	return nil
}

func (c *MockPostgresClient) LockKey(ctx context.Context, req types.LockRequest) error {
	if !inMockTx(ctx) {
		return ierr.NewError("advisory lock requires a transaction").
			WithHint("LockKey must be called inside WithTx").
			WithReportableDetails(map[string]interface{}{"lock_key": req.Key}).
			Mark(ierr.ErrInvalidOperation)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.locks = append(c.locks, req.Key)
	return nil
}

// Locks returns every advisory lock key taken so far
func (c *MockPostgresClient) Locks() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.locks))
	copy(out, c.locks)
	return out
}

// TxCount returns how many outermost transactions were started
func (c *MockPostgresClient) TxCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.txs
}
