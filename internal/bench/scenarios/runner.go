package scenarios

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"

	"github.com/trustsla/cloudsla-bench/internal/bench/client"
	"github.com/trustsla/cloudsla-bench/internal/bench/config"
	"github.com/trustsla/cloudsla-bench/internal/bench/contracts"
	"github.com/trustsla/cloudsla-bench/internal/bench/execution"
	"github.com/trustsla/cloudsla-bench/pkg/logging"
)

var big1 = big.NewInt(1)

// Account roles, fixed positions in the configured account list.
const (
	RoleProvider = 0 // cloud provider, owns the factory and acks requests
	RoleClient   = 1 // SLA client, uploads and reads files
	RoleOracle   = 2 // oracle operator, stores file digests
)

// Submitter signs and submits one transaction, reporting its receipt
// status. Satisfied by *execution.Sender.
type Submitter interface {
	Submit(ctx context.Context, req execution.TxRequest) uint64
}

// NonceSource allocates the next nonce for an account index.
// Satisfied by *execution.NonceManager.
type NonceSource interface {
	Next(ctx context.Context, idx int) (uint64, error)
}

// Params collects the runner dependencies.
type Params struct {
	Logger   logging.Logger
	Backend  client.Backend
	Nonces   NonceSource
	Sender   Submitter
	Accounts []common.Address
	Keys     []*ecdsa.PrivateKey
	Factory  *contracts.Contract
	Oracle   *contracts.Contract
	CloudSLA *contracts.Contract // ABI template, bound per agreement
}

// Runner drives the CloudSLA contracts through the scripted scenarios.
type Runner struct {
	logger   logging.Logger
	backend  client.Backend
	nonces   NonceSource
	sender   Submitter
	accounts []common.Address
	keys     []*ecdsa.PrivateKey
	factory  *contracts.Contract
	oracle   *contracts.Contract
	cloudSLA *contracts.Contract

	price    *big.Int // agreement price, 0.001 ether
	validity *big.Int // agreement validity duration in seconds
}

func NewRunner(p Params) (*Runner, error) {
	if len(p.Accounts) != config.AccountCount || len(p.Keys) != config.AccountCount {
		return nil, fmt.Errorf("expected %d accounts and keys, got %d and %d",
			config.AccountCount, len(p.Accounts), len(p.Keys))
	}

	return &Runner{
		logger:   p.Logger,
		backend:  p.Backend,
		nonces:   p.Nonces,
		sender:   p.Sender,
		accounts: p.Accounts,
		keys:     p.Keys,
		factory:  p.Factory,
		oracle:   p.Oracle,
		cloudSLA: p.CloudSLA,
		price:    big.NewInt(params.Ether / 1000),
		validity: big.NewInt(3600),
	}, nil
}

// step packs one contract call, draws a nonce for the role's account
// and submits the transaction. Any failure along the way maps to
// StatusFailed, consistent with the sender's error policy.
func (r *Runner) step(ctx context.Context, contract *contracts.Contract, role int, value *big.Int, method string, args ...interface{}) uint64 {
	data, err := contract.Pack(method, args...)
	if err != nil {
		r.logger.Debugf("Failed to pack %s.%s: %v", contract.Name, method, err)
		return execution.StatusFailed
	}

	nonce, err := r.nonces.Next(ctx, role)
	if err != nil {
		r.logger.Debugf("Failed to allocate nonce for account %d: %v", role, err)
		return execution.StatusFailed
	}

	return r.sender.Submit(ctx, execution.TxRequest{
		From:  r.accounts[role],
		To:    contract.Address,
		Nonce: nonce,
		Value: value,
		Data:  data,
		Key:   r.keys[role],
	})
}
