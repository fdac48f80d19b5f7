package contracts

import (
	"context"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/trustsla/cloudsla-bench/internal/bench/client"
)

const (
	factoryArtifact  = "../../../artifacts/Factory.json"
	oracleArtifact   = "../../../artifacts/FileDigestOracle.json"
	cloudSLAArtifact = "../../../artifacts/CloudSLA.json"
)

func TestLoadABI(t *testing.T) {
	parsed, err := LoadABI(cloudSLAArtifact)
	require.NoError(t, err)

	for _, method := range []string{
		MethodDeposit, MethodUploadRequest, MethodUploadRequestAck,
		MethodUploadTransferAck, MethodReadRequest, MethodReadRequestAck,
		MethodReadRequestDeny, MethodFileHashRequest, MethodFileCheck,
		MethodDeleteRequest, MethodDelete,
	} {
		_, ok := parsed.Methods[method]
		assert.True(t, ok, "missing method %s", method)
	}
}

func TestLoadABIErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadABI(filepath.Join(dir, "missing.json"))
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
		_, err := LoadABI(path)
		assert.Error(t, err)
	})

	t.Run("no abi field", func(t *testing.T) {
		path := filepath.Join(dir, "noabi.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"contractName":"X"}`), 0o600))
		_, err := LoadABI(path)
		assert.ErrorContains(t, err, "no abi field")
	})
}

func TestPackUsesMethodSelector(t *testing.T) {
	factory, err := Load("Factory", common.HexToAddress("0x1932c48b2bf8102ba33b4a6b545c32236e342f34"), factoryArtifact)
	require.NoError(t, err)

	data, err := factory.Pack(MethodCreateChild,
		common.HexToAddress("0x9d13c6d3afe1721beef56b55d303b09e021e27ab"),
		common.HexToAddress("0xca843569e3427144cead5e4d5999a3d0ccf92b8e"),
		big.NewInt(1000000000000000),
		big.NewInt(3600),
		big.NewInt(1),
		big.NewInt(1),
	)
	require.NoError(t, err)
	assert.Equal(t, factory.ABI.Methods[MethodCreateChild].ID, data[:4])
	assert.Len(t, data, 4+6*32)
}

func TestPackRejectsBadArguments(t *testing.T) {
	oracle, err := Load("FileDigestOracle", common.Address{}, oracleArtifact)
	require.NoError(t, err)

	_, err = oracle.Pack(MethodDigestStore, "www.test.com")
	assert.Error(t, err)

	_, err = oracle.Pack("UnknownMethod")
	assert.Error(t, err)
}

func TestAtBindsNewAddress(t *testing.T) {
	sla, err := Load("CloudSLA", common.Address{}, cloudSLAArtifact)
	require.NoError(t, err)

	addr := common.HexToAddress("0x0fbdc686b912d7722dc86510934589e0aaf3b55a")
	bound := sla.At(addr)
	assert.Equal(t, addr, bound.Address)
	assert.Equal(t, sla.Name, bound.Name)
	assert.Equal(t, common.Address{}, sla.Address, "original binding unchanged")
}

func TestCallUnpacksAddress(t *testing.T) {
	factory, err := Load("Factory", common.HexToAddress("0x1932c48b2bf8102ba33b4a6b545c32236e342f34"), factoryArtifact)
	require.NoError(t, err)

	agreement := common.HexToAddress("0x9a043e64b5c1b90b945cbc9cbe1e4fb08af3c9a6")
	backend := new(client.MockBackend)
	backend.On("CallContract", mock.Anything, mock.MatchedBy(func(msg ethereum.CallMsg) bool {
		return msg.To != nil && *msg.To == factory.Address
	}), (*big.Int)(nil)).Return(common.LeftPadBytes(agreement.Bytes(), 32), nil)

	results, err := factory.Call(context.Background(), backend, MethodGetSmartContractAddress,
		common.HexToAddress("0xca843569e3427144cead5e4d5999a3d0ccf92b8e"))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, agreement, results[0].(common.Address))
	backend.AssertExpectations(t)
}

func TestChallenge(t *testing.T) {
	digest := common.HexToHash("0x9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08")

	challenge := Challenge(digest)
	assert.Equal(t, crypto.Keccak256Hash(digest.Bytes()), challenge)
	assert.NotEqual(t, digest, challenge)

	other := Challenge(common.HexToHash("0x1f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"))
	assert.NotEqual(t, challenge, other)
}
