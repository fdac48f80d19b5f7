package execution

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/trustsla/cloudsla-bench/internal/bench/client"
	"github.com/trustsla/cloudsla-bench/internal/bench/metrics"
	"github.com/trustsla/cloudsla-bench/pkg/logging"
)

// Receipt status values as reported by the node.
const (
	StatusFailed  = types.ReceiptStatusFailed
	StatusSuccess = types.ReceiptStatusSuccessful
)

// Gas limit used when estimation against the node fails.
const defaultGasLimit = 3_000_000

// TxRequest describes one contract transaction to submit.
type TxRequest struct {
	From  common.Address
	To    common.Address
	Nonce uint64
	Value *big.Int // nil means no value transfer
	Data  []byte
	Key   *ecdsa.PrivateKey
}

// Sender builds, signs and submits legacy transactions with a zero
// gas price (the target networks are free-gas consortium chains) and
// polls for the receipt.
type Sender struct {
	backend        client.Backend
	receipts       client.Backend
	signer         types.Signer
	receiptTimeout time.Duration
	pollInterval   time.Duration
	logger         logging.Logger
}

// NewSender creates a sender signing for chainID. receipts may be nil,
// in which case the submission backend is polled.
func NewSender(backend, receipts client.Backend, chainID *big.Int, receiptTimeout, pollInterval time.Duration, logger logging.Logger) *Sender {
	if receipts == nil {
		receipts = backend
	}
	return &Sender{
		backend:        backend,
		receipts:       receipts,
		signer:         types.NewEIP155Signer(chainID),
		receiptTimeout: receiptTimeout,
		pollInterval:   pollInterval,
		logger:         logger,
	}
}

// Submit signs and sends the transaction and waits for its receipt.
// Every failure, a node rejection at submission or a timeout while
// waiting for the receipt, maps to StatusFailed; nothing propagates
// past this call. A mined transaction reports the receipt status.
func (s *Sender) Submit(ctx context.Context, req TxRequest) uint64 {
	status, err := s.submit(ctx, req)
	if err != nil {
		s.logger.Debugf("Transaction failed [from=%s nonce=%d]: %v", req.From.Hex(), req.Nonce, err)
		return StatusFailed
	}
	return status
}

func (s *Sender) submit(ctx context.Context, req TxRequest) (uint64, error) {
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}

	tx := types.NewTransaction(req.Nonce, req.To, value, s.estimateGas(ctx, req, value), new(big.Int), req.Data)
	signedTx, err := types.SignTx(tx, s.signer, req.Key)
	if err != nil {
		return StatusFailed, fmt.Errorf("failed to sign transaction: %w", err)
	}

	metrics.TransactionsSentTotal.WithLabelValues(req.From.Hex()).Inc()

	if err := s.backend.SendTransaction(ctx, signedTx); err != nil {
		metrics.TransactionFailuresTotal.WithLabelValues("rejected").Inc()
		return StatusFailed, fmt.Errorf("node rejected transaction: %w", err)
	}

	receipt, err := s.waitReceipt(ctx, signedTx.Hash())
	if err != nil {
		return StatusFailed, err
	}

	if receipt.Status != StatusSuccess {
		metrics.TransactionFailuresTotal.WithLabelValues("reverted").Inc()
		s.logger.Debugf("Transaction reverted: %s", signedTx.Hash().Hex())
	}
	return receipt.Status, nil
}

func (s *Sender) estimateGas(ctx context.Context, req TxRequest, value *big.Int) uint64 {
	msg := ethereum.CallMsg{
		From:  req.From,
		To:    &req.To,
		Value: value,
		Data:  req.Data,
	}
	gas, err := s.backend.EstimateGas(ctx, msg)
	if err != nil {
		s.logger.Debugf("Gas estimation failed, using default limit %d: %v", defaultGasLimit, err)
		return defaultGasLimit
	}
	return gas
}

func (s *Sender) waitReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, s.receiptTimeout)
	defer cancel()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := s.receipts.TransactionReceipt(ctx, txHash)
		if err == nil {
			metrics.ReceiptWaitSeconds.Observe(time.Since(start).Seconds())
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) && !errors.Is(err, context.DeadlineExceeded) {
			metrics.TransactionFailuresTotal.WithLabelValues("rpc_error").Inc()
			return nil, fmt.Errorf("receipt lookup for %s failed: %w", txHash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			metrics.TransactionFailuresTotal.WithLabelValues("timeout").Inc()
			return nil, fmt.Errorf("timed out waiting for receipt of %s: %w", txHash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// CheckStatuses folds a list of step statuses with logical AND: a
// scenario passes only when every transaction in it succeeded.
func CheckStatuses(statuses []uint64) bool {
	for _, status := range statuses {
		if status != StatusSuccess {
			return false
		}
	}
	return true
}
