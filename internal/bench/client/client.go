package client

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/trustsla/cloudsla-bench/pkg/logging"
	"github.com/trustsla/cloudsla-bench/pkg/retry"
)

// Backend is the subset of the Ethereum client used by the harness.
// *ethclient.Client satisfies it, tests substitute mocks.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

var _ Backend = (*ethclient.Client)(nil)

// Client bundles the HTTP connection with an optional WebSocket one.
// The original deployments expose both transports, receipt polling
// prefers the WebSocket connection when it is configured.
type Client struct {
	HTTP *ethclient.Client
	WS   *ethclient.Client
}

// Dial connects to the node, retrying the HTTP endpoint with backoff.
// A WebSocket endpoint is optional and a failure to reach it only
// degrades receipt polling to the HTTP connection.
func Dial(ctx context.Context, httpURI, wsURI string, logger logging.Logger) (*Client, error) {
	dialConfig := &retry.Config{
		MaxRetries:      5,
		InitialDelay:    time.Second,
		MaxDelay:        15 * time.Second,
		BackoffFactor:   2.0,
		JitterFactor:    0.2,
		LogRetryAttempt: true,
	}

	httpClient, err := retry.Retry(ctx, func() (*ethclient.Client, error) {
		return ethclient.DialContext(ctx, httpURI)
	}, dialConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", httpURI, err)
	}

	c := &Client{HTTP: httpClient}

	if wsURI != "" {
		wsClient, err := ethclient.DialContext(ctx, wsURI)
		if err != nil {
			logger.Warnf("WebSocket endpoint %s unavailable, falling back to HTTP: %v", wsURI, err)
		} else {
			c.WS = wsClient
		}
	}

	return c, nil
}

// Receipts returns the connection used for receipt polling.
func (c *Client) Receipts() Backend {
	if c.WS != nil {
		return c.WS
	}
	return c.HTTP
}

func (c *Client) Close() {
	if c.HTTP != nil {
		c.HTTP.Close()
	}
	if c.WS != nil {
		c.WS.Close()
	}
}
