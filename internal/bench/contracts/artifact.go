package contracts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// artifact is the relevant slice of a solc/truffle combined artifact.
type artifact struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
}

// LoadABI reads a compiled contract artifact and parses its ABI.
func LoadABI(path string) (abi.ABI, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to read artifact %s: %w", path, err)
	}

	var art artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse artifact %s: %w", path, err)
	}
	if len(art.ABI) == 0 {
		return abi.ABI{}, fmt.Errorf("artifact %s has no abi field", path)
	}

	parsed, err := abi.JSON(bytes.NewReader(art.ABI))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse ABI in %s: %w", path, err)
	}
	return parsed, nil
}
