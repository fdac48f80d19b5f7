package main

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"

	"github.com/trustsla/cloudsla-bench/internal/bench/api"
	"github.com/trustsla/cloudsla-bench/internal/bench/client"
	"github.com/trustsla/cloudsla-bench/internal/bench/config"
	"github.com/trustsla/cloudsla-bench/internal/bench/contracts"
	"github.com/trustsla/cloudsla-bench/internal/bench/execution"
	"github.com/trustsla/cloudsla-bench/internal/bench/metrics"
	"github.com/trustsla/cloudsla-bench/internal/bench/scenarios"
	"github.com/trustsla/cloudsla-bench/pkg/logging"
)

func main() {
	app := &cli.App{
		Name:  "cloudsla-bench",
		Usage: "Drive CloudSLA contracts through scripted transaction scenarios",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the scenario suite against the configured chain",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "chain",
						Aliases: []string{"c"},
						Usage:   "chain name from the networks config (overrides CHAIN_NAME)",
					},
					&cli.StringFlag{
						Name:  "config",
						Usage: "path to the networks config file",
					},
					&cli.StringSliceFlag{
						Name:    "scenario",
						Aliases: []string{"s"},
						Usage:   "run only the named scenarios (repeatable)",
					},
					&cli.StringFlag{
						Name:  "cron",
						Usage: "re-run the suite on this cron schedule instead of exiting",
					},
				},
				Action: runAction,
			},
			{
				Name:   "list",
				Usage:  "List the available scenarios",
				Action: listAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func listAction(*cli.Context) error {
	for _, name := range scenarios.Names() {
		fmt.Println(name)
	}
	return nil
}

func runAction(c *cli.Context) error {
	if err := config.Init(c.String("chain"), c.String("config")); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	logConfig := logging.LoggerConfig{
		ProcessName:   logging.BenchProcess,
		IsDevelopment: config.IsDevMode(),
	}
	if err := logging.InitServiceLogger(logConfig); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logging.Shutdown()
	logger := logging.GetServiceLogger()

	logger.Info("Starting CloudSLA bench", "chain", config.GetChainName())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ethClient, err := client.Dial(ctx, config.GetHTTPURI(), config.GetWSURI(), logger)
	if err != nil {
		return err
	}
	defer ethClient.Close()

	chainID, err := ethClient.HTTP.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch chain ID: %w", err)
	}
	logger.Info("Connected to chain", "chainID", chainID.String())

	accounts, keys, err := loadAccounts()
	if err != nil {
		return err
	}

	factory, err := contracts.Load("Factory", common.HexToAddress(config.GetFactoryAddress()), config.GetFactoryArtifactPath())
	if err != nil {
		return err
	}
	oracle, err := contracts.Load("FileDigestOracle", common.HexToAddress(config.GetOracleAddress()), config.GetOracleArtifactPath())
	if err != nil {
		return err
	}
	// The agreement address is only known after creation, the runner
	// binds this ABI to it per run.
	cloudSLA, err := contracts.Load("CloudSLA", common.Address{}, config.GetCloudSLAArtifactPath())
	if err != nil {
		return err
	}

	nonces := execution.NewNonceManager(ethClient.HTTP, accounts, config.GetNonceHoldDelay(), logger)
	if err := nonces.Initialize(ctx); err != nil {
		return err
	}

	sender := execution.NewSender(
		ethClient.HTTP,
		ethClient.Receipts(),
		chainID,
		config.GetReceiptTimeout(),
		config.GetReceiptPollInterval(),
		logger,
	)

	runner, err := scenarios.NewRunner(scenarios.Params{
		Logger:   logger,
		Backend:  ethClient.HTTP,
		Nonces:   nonces,
		Sender:   sender,
		Accounts: accounts,
		Keys:     keys,
		Factory:  factory,
		Oracle:   oracle,
		CloudSLA: cloudSLA,
	})
	if err != nil {
		return err
	}

	if port := config.GetMetricsPort(); port != "" {
		server := api.NewServer(port, config.GetChainName(), logger)
		server.Start()
		metrics.StartCollection()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Metrics server shutdown", "error", err)
			}
		}()
	}

	selected := c.StringSlice("scenario")

	if expr := c.String("cron"); expr != "" {
		return runScheduled(ctx, expr, runner, nonces, selected, logger)
	}

	results, ok := runner.Run(ctx, selected...)
	logSummary(logger, results)
	if !ok {
		return cli.Exit("scenario suite failed", 1)
	}
	return nil
}

// runScheduled re-runs the suite on the given cron schedule until the
// process receives an interrupt. Counters are resynced from the node
// before every run since earlier runs already consumed nonces.
func runScheduled(ctx context.Context, expr string, runner *scenarios.Runner, nonces *execution.NonceManager, selected []string, logger logging.Logger) error {
	scheduler := cron.New()
	_, err := scheduler.AddFunc(expr, func() {
		if err := nonces.Resync(ctx); err != nil {
			logger.Error("Failed to resync nonces, skipping run", "error", err)
			return
		}
		results, _ := runner.Run(ctx, selected...)
		logSummary(logger, results)
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}

	scheduler.Start()
	logger.Info("Scheduled suite runs", "cron", expr)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	<-shutdown

	logger.Info("Shutting down scheduler...")
	<-scheduler.Stop().Done()
	return nil
}

func loadAccounts() ([]common.Address, []*ecdsa.PrivateKey, error) {
	accounts := make([]common.Address, 0, config.AccountCount)
	for _, account := range config.GetAccounts() {
		accounts = append(accounts, common.HexToAddress(account))
	}

	keys := make([]*ecdsa.PrivateKey, 0, config.AccountCount)
	for i, hexKey := range config.GetPrivateKeys() {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse private key %d: %w", i, err)
		}
		keys = append(keys, key)
	}
	return accounts, keys, nil
}

func logSummary(logger logging.Logger, results []scenarios.Result) {
	passed := 0
	for _, result := range results {
		if result.OK {
			passed++
		}
	}
	logger.Info("Suite finished", "passed", passed, "total", len(results))
}
