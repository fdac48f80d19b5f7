package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/trustsla/cloudsla-bench/pkg/env"
)

// AccountCount is the fixed number of accounts driving a run:
// index 0 is the cloud provider, 1 the client, 2 the oracle operator.
const AccountCount = 3

// ChainConfig holds the per-chain connection and deployment settings.
type ChainConfig struct {
	HTTPURI        string   `yaml:"http_uri"`
	WSURI          string   `yaml:"ws_uri"`
	FactoryAddress string   `yaml:"factory_address"`
	OracleAddress  string   `yaml:"oracle_address"`
	Accounts       []string `yaml:"accounts"`
	PrivateKeys    []string `yaml:"private_keys"`
}

type networksFile struct {
	Chains map[string]ChainConfig `yaml:"chains"`
}

type Config struct {
	devMode   bool
	chainName string
	chain     ChainConfig

	// Compiled contract artifact paths
	factoryArtifactPath  string
	oracleArtifactPath   string
	cloudSLAArtifactPath string

	// Transaction settings
	receiptTimeout      time.Duration
	receiptPollInterval time.Duration
	nonceHoldDelay      time.Duration

	// Metrics / health endpoint, empty disables the server
	metricsPort string
}

var cfg Config

// Init loads the .env overrides and the networks file for the chain
// selected via CHAIN_NAME (or the chainName argument when non-empty).
func Init(chainName string, configPath string) error {
	// A missing .env file is fine, the environment may be set directly.
	_ = godotenv.Load()

	if chainName == "" {
		chainName = env.GetEnvString("CHAIN_NAME", "quorum")
	}
	if configPath == "" {
		configPath = env.GetEnvString("NETWORKS_CONFIG_PATH", "configs/networks.yaml")
	}

	chain, err := LoadChain(configPath, chainName)
	if err != nil {
		return err
	}

	// Environment values take precedence over the networks file.
	chain.HTTPURI = env.GetEnvString("HTTP_URI", chain.HTTPURI)
	chain.WSURI = env.GetEnvString("WS_URI", chain.WSURI)
	chain.FactoryAddress = env.GetEnvString("FACTORY_ADDRESS", chain.FactoryAddress)
	chain.OracleAddress = env.GetEnvString("ORACLE_ADDRESS", chain.OracleAddress)

	cfg = Config{
		devMode:              env.GetEnvBool("DEV_MODE", true),
		chainName:            chainName,
		chain:                chain,
		factoryArtifactPath:  env.GetEnvString("FACTORY_ARTIFACT_PATH", "artifacts/Factory.json"),
		oracleArtifactPath:   env.GetEnvString("ORACLE_ARTIFACT_PATH", "artifacts/FileDigestOracle.json"),
		cloudSLAArtifactPath: env.GetEnvString("CLOUD_SLA_ARTIFACT_PATH", "artifacts/CloudSLA.json"),
		receiptTimeout:       env.GetEnvDuration("RECEIPT_TIMEOUT", 2*time.Minute),
		receiptPollInterval:  env.GetEnvDuration("RECEIPT_POLL_INTERVAL", 500*time.Millisecond),
		nonceHoldDelay:       env.GetEnvDuration("NONCE_HOLD_DELAY", 100*time.Millisecond),
		metricsPort:          env.GetEnvString("METRICS_PORT", ""),
	}

	return validateChain(cfg.chain)
}

// LoadChain reads the networks file and returns the named chain entry.
func LoadChain(path string, chainName string) (ChainConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ChainConfig{}, fmt.Errorf("failed to read networks config %s: %w", path, err)
	}

	var networks networksFile
	if err := yaml.Unmarshal(data, &networks); err != nil {
		return ChainConfig{}, fmt.Errorf("failed to parse networks config %s: %w", path, err)
	}

	chain, ok := networks.Chains[chainName]
	if !ok {
		return ChainConfig{}, fmt.Errorf("chain %q not found in %s", chainName, path)
	}
	return chain, nil
}

func validateChain(chain ChainConfig) error {
	if !env.IsValidRPCURL(chain.HTTPURI, "http", "https") {
		return fmt.Errorf("invalid HTTP URI: %q", chain.HTTPURI)
	}
	if chain.WSURI != "" && !env.IsValidRPCURL(chain.WSURI, "ws", "wss") {
		return fmt.Errorf("invalid WebSocket URI: %q", chain.WSURI)
	}
	if !env.IsValidEthAddress(chain.FactoryAddress) {
		return fmt.Errorf("invalid factory address: %q", chain.FactoryAddress)
	}
	if !env.IsValidEthAddress(chain.OracleAddress) {
		return fmt.Errorf("invalid oracle address: %q", chain.OracleAddress)
	}
	if len(chain.Accounts) != AccountCount {
		return fmt.Errorf("expected %d accounts, got %d", AccountCount, len(chain.Accounts))
	}
	if len(chain.PrivateKeys) != AccountCount {
		return fmt.Errorf("expected %d private keys, got %d", AccountCount, len(chain.PrivateKeys))
	}
	for i, account := range chain.Accounts {
		if !env.IsValidEthAddress(account) {
			return fmt.Errorf("invalid account address at index %d: %q", i, account)
		}
	}
	for i, key := range chain.PrivateKeys {
		if !env.IsValidPrivateKey(key) {
			return fmt.Errorf("invalid private key at index %d", i)
		}
	}
	return nil
}

func IsDevMode() bool {
	return cfg.devMode
}

func GetChainName() string {
	return cfg.chainName
}

func GetChain() ChainConfig {
	return cfg.chain
}

func GetHTTPURI() string {
	return cfg.chain.HTTPURI
}

func GetWSURI() string {
	return cfg.chain.WSURI
}

func GetFactoryAddress() string {
	return cfg.chain.FactoryAddress
}

func GetOracleAddress() string {
	return cfg.chain.OracleAddress
}

func GetAccounts() []string {
	return cfg.chain.Accounts
}

func GetPrivateKeys() []string {
	return cfg.chain.PrivateKeys
}

func GetFactoryArtifactPath() string {
	return cfg.factoryArtifactPath
}

func GetOracleArtifactPath() string {
	return cfg.oracleArtifactPath
}

func GetCloudSLAArtifactPath() string {
	return cfg.cloudSLAArtifactPath
}

func GetReceiptTimeout() time.Duration {
	return cfg.receiptTimeout
}

func GetReceiptPollInterval() time.Duration {
	return cfg.receiptPollInterval
}

func GetNonceHoldDelay() time.Duration {
	return cfg.nonceHoldDelay
}

func GetMetricsPort() string {
	return cfg.metricsPort
}
