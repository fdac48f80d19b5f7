package contracts

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/trustsla/cloudsla-bench/internal/bench/client"
)

// Factory contract methods
const (
	MethodCreateChild             = "createChild"
	MethodGetSmartContractAddress = "getSmartContractAddress"
)

// Oracle contract methods
const (
	MethodDigestStore = "DigestStore"
)

// CloudSLA contract methods
const (
	MethodDeposit           = "Deposit"
	MethodUploadRequest     = "UploadRequest"
	MethodUploadRequestAck  = "UploadRequestAck"
	MethodUploadTransferAck = "UploadTransferAck"
	MethodReadRequest       = "ReadRequest"
	MethodReadRequestAck    = "ReadRequestAck"
	MethodReadRequestDeny   = "ReadRequestDeny"
	MethodFileHashRequest   = "FileHashRequest"
	MethodFileCheck         = "FileCheck"
	MethodDeleteRequest     = "DeleteRequest"
	MethodDelete            = "Delete"
)

// Contract binds a deployed contract address to its parsed ABI.
type Contract struct {
	Name    string
	Address common.Address
	ABI     abi.ABI
}

// Load parses the artifact at path and binds it to address.
func Load(name string, address common.Address, artifactPath string) (*Contract, error) {
	parsed, err := LoadABI(artifactPath)
	if err != nil {
		return nil, err
	}
	return &Contract{Name: name, Address: address, ABI: parsed}, nil
}

// At returns a contract bound to a different deployment of the same
// ABI. Used for the per-agreement CloudSLA instances the factory
// creates at run time.
func (c *Contract) At(address common.Address) *Contract {
	return &Contract{Name: c.Name, Address: address, ABI: c.ABI}
}

// Pack encodes a method call for inclusion in transaction data.
func (c *Contract) Pack(method string, args ...interface{}) ([]byte, error) {
	data, err := c.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", c.Name, method, err)
	}
	return data, nil
}

// Call performs a read-only eth_call against the latest block and
// unpacks the outputs.
func (c *Contract) Call(ctx context.Context, backend client.Backend, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.Pack(method, args...)
	if err != nil {
		return nil, err
	}

	msg := ethereum.CallMsg{To: &c.Address, Data: data}
	output, err := backend.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("%s.%s call failed: %w", c.Name, method, err)
	}

	results, err := c.ABI.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: failed to unpack result: %w", c.Name, method, err)
	}
	return results, nil
}

// Challenge derives the upload challenge from a file digest, the
// keccak256 hash of the 32 digest bytes.
func Challenge(digest common.Hash) common.Hash {
	return crypto.Keccak256Hash(digest.Bytes())
}
