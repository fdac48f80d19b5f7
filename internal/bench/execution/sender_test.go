package execution

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/trustsla/cloudsla-bench/internal/bench/client"
	"github.com/trustsla/cloudsla-bench/pkg/logging"
)

var testChainID = big.NewInt(10)

func newTestSender(backend *client.MockBackend) *Sender {
	return NewSender(backend, nil, testChainID, 100*time.Millisecond, 10*time.Millisecond, logging.GetServiceLogger())
}

func newTestRequest(t *testing.T) TxRequest {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	return TxRequest{
		From:  crypto.PubkeyToAddress(key.PublicKey),
		To:    common.HexToAddress("0x9d13c6d3afe1721beef56b55d303b09e021e27ab"),
		Nonce: 7,
		Data:  []byte{0xde, 0xad, 0xbe, 0xef},
		Key:   key,
	}
}

func TestSubmitSuccess(t *testing.T) {
	backend := new(client.MockBackend)
	req := newTestRequest(t)

	var sent *types.Transaction
	backend.On("EstimateGas", mock.Anything, mock.Anything).Return(uint64(42000), nil)
	backend.On("SendTransaction", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(1).(*types.Transaction)
	}).Return(nil)
	backend.On("TransactionReceipt", mock.Anything, mock.Anything).Return(
		&types.Receipt{Status: types.ReceiptStatusSuccessful}, nil)

	status := newTestSender(backend).Submit(context.Background(), req)

	assert.Equal(t, StatusSuccess, status)
	require.NotNil(t, sent)
	assert.Equal(t, req.Nonce, sent.Nonce())
	assert.Equal(t, uint64(42000), sent.Gas())
	assert.Zero(t, sent.GasPrice().Sign(), "gas price is fixed at zero")

	sender, err := types.Sender(types.NewEIP155Signer(testChainID), sent)
	require.NoError(t, err)
	assert.Equal(t, req.From, sender)
}

func TestSubmitCarriesValue(t *testing.T) {
	backend := new(client.MockBackend)
	req := newTestRequest(t)
	req.Value = big.NewInt(1000000000000000)

	var sent *types.Transaction
	backend.On("EstimateGas", mock.Anything, mock.Anything).Return(uint64(21000), nil)
	backend.On("SendTransaction", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(1).(*types.Transaction)
	}).Return(nil)
	backend.On("TransactionReceipt", mock.Anything, mock.Anything).Return(
		&types.Receipt{Status: types.ReceiptStatusSuccessful}, nil)

	status := newTestSender(backend).Submit(context.Background(), req)

	assert.Equal(t, StatusSuccess, status)
	require.NotNil(t, sent)
	assert.Zero(t, sent.Value().Cmp(req.Value))
}

func TestSubmitNodeRejection(t *testing.T) {
	backend := new(client.MockBackend)
	backend.On("EstimateGas", mock.Anything, mock.Anything).Return(uint64(21000), nil)
	backend.On("SendTransaction", mock.Anything, mock.Anything).Return(errors.New("nonce too low"))

	status := newTestSender(backend).Submit(context.Background(), newTestRequest(t))
	assert.Equal(t, StatusFailed, status)
}

func TestSubmitReceiptTimeout(t *testing.T) {
	backend := new(client.MockBackend)
	backend.On("EstimateGas", mock.Anything, mock.Anything).Return(uint64(21000), nil)
	backend.On("SendTransaction", mock.Anything, mock.Anything).Return(nil)
	backend.On("TransactionReceipt", mock.Anything, mock.Anything).Return(nil, ethereum.NotFound)

	status := newTestSender(backend).Submit(context.Background(), newTestRequest(t))
	assert.Equal(t, StatusFailed, status)
}

func TestSubmitRevertedTransaction(t *testing.T) {
	backend := new(client.MockBackend)
	backend.On("EstimateGas", mock.Anything, mock.Anything).Return(uint64(21000), nil)
	backend.On("SendTransaction", mock.Anything, mock.Anything).Return(nil)
	backend.On("TransactionReceipt", mock.Anything, mock.Anything).Return(
		&types.Receipt{Status: types.ReceiptStatusFailed}, nil)

	status := newTestSender(backend).Submit(context.Background(), newTestRequest(t))
	assert.Equal(t, StatusFailed, status)
}

func TestSubmitGasEstimationFallback(t *testing.T) {
	backend := new(client.MockBackend)
	backend.On("EstimateGas", mock.Anything, mock.Anything).Return(uint64(0), errors.New("execution reverted"))

	var sent *types.Transaction
	backend.On("SendTransaction", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(1).(*types.Transaction)
	}).Return(nil)
	backend.On("TransactionReceipt", mock.Anything, mock.Anything).Return(
		&types.Receipt{Status: types.ReceiptStatusSuccessful}, nil)

	status := newTestSender(backend).Submit(context.Background(), newTestRequest(t))

	assert.Equal(t, StatusSuccess, status)
	require.NotNil(t, sent)
	assert.Equal(t, uint64(defaultGasLimit), sent.Gas())
}

func TestSubmitReceiptAfterPolling(t *testing.T) {
	backend := new(client.MockBackend)
	backend.On("EstimateGas", mock.Anything, mock.Anything).Return(uint64(21000), nil)
	backend.On("SendTransaction", mock.Anything, mock.Anything).Return(nil)
	backend.On("TransactionReceipt", mock.Anything, mock.Anything).Return(nil, ethereum.NotFound).Twice()
	backend.On("TransactionReceipt", mock.Anything, mock.Anything).Return(
		&types.Receipt{Status: types.ReceiptStatusSuccessful}, nil).Once()

	status := newTestSender(backend).Submit(context.Background(), newTestRequest(t))
	assert.Equal(t, StatusSuccess, status)
}

func TestCheckStatuses(t *testing.T) {
	tests := []struct {
		name     string
		statuses []uint64
		want     bool
	}{
		{"all successful", []uint64{1, 1, 1}, true},
		{"single failure fails the scenario", []uint64{1, 0, 1}, false},
		{"all failed", []uint64{0, 0}, false},
		{"empty", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckStatuses(tt.statuses))
		})
	}
}
