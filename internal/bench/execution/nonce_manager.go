package execution

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/trustsla/cloudsla-bench/internal/bench/client"
	"github.com/trustsla/cloudsla-bench/internal/bench/metrics"
	"github.com/trustsla/cloudsla-bench/pkg/logging"
)

// NonceManager hands out per-account nonces for concurrently
// dispatched transactions. A single mutex serializes reads and
// increments over the counters, so no two callers ever observe the
// same nonce for the same account.
type NonceManager struct {
	mu        sync.Mutex
	backend   client.Backend
	accounts  []common.Address
	nonces    []uint64
	holdDelay time.Duration
	logger    logging.Logger
}

// NewNonceManager creates a nonce manager for the given accounts.
// holdDelay is held after acquiring the lock to simulate contention
// between concurrent callers.
func NewNonceManager(backend client.Backend, accounts []common.Address, holdDelay time.Duration, logger logging.Logger) *NonceManager {
	return &NonceManager{
		backend:   backend,
		accounts:  accounts,
		holdDelay: holdDelay,
		logger:    logger,
	}
}

// Initialize seeds the counters from the node's pending nonces.
func (nm *NonceManager) Initialize(ctx context.Context) error {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	return nm.syncLocked(ctx)
}

// Next returns the next unused nonce for the account at idx and
// advances the counter.
func (nm *NonceManager) Next(ctx context.Context, idx int) (uint64, error) {
	if idx < 0 || idx >= len(nm.accounts) {
		return 0, fmt.Errorf("account index %d out of range", idx)
	}

	nm.mu.Lock()
	defer nm.mu.Unlock()

	if nm.nonces == nil {
		return 0, errors.New("nonce manager not initialized")
	}

	if nm.holdDelay > 0 {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(nm.holdDelay):
		}
	}

	nonce := nm.nonces[idx]
	nm.nonces[idx]++

	metrics.NoncesAllocatedTotal.WithLabelValues(nm.accounts[idx].Hex()).Inc()
	nm.logger.Debugf("Allocated nonce %d for account %s", nonce, nm.accounts[idx].Hex())
	return nonce, nil
}

// Pending fetches the live pending nonce from the node, bypassing the
// local counters.
func (nm *NonceManager) Pending(ctx context.Context, idx int) (uint64, error) {
	if idx < 0 || idx >= len(nm.accounts) {
		return 0, fmt.Errorf("account index %d out of range", idx)
	}
	return nm.backend.PendingNonceAt(ctx, nm.accounts[idx])
}

// Resync refreshes every counter from the node under the lock.
func (nm *NonceManager) Resync(ctx context.Context) error {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	return nm.syncLocked(ctx)
}

func (nm *NonceManager) syncLocked(ctx context.Context) error {
	nonces := make([]uint64, len(nm.accounts))
	for i, account := range nm.accounts {
		nonce, err := nm.backend.PendingNonceAt(ctx, account)
		if err != nil {
			return fmt.Errorf("failed to fetch pending nonce for %s: %w", account.Hex(), err)
		}
		nonces[i] = nonce
	}
	nm.nonces = nonces
	return nil
}
