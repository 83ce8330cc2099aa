// Package commands implements the positions CLI commands on top of the
// internal packages. cmd/positions only parses flags and calls in here.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dmagro/aave-positions/internal/chain"
	"github.com/dmagro/aave-positions/internal/config"
	"github.com/dmagro/aave-positions/internal/logging"
	"github.com/dmagro/aave-positions/internal/output"
)

// Options are the settings shared by every command.
type Options struct {
	ConfigPath    string
	AddressesFile string        // overrides addresses_file when set
	Interval      time.Duration // overrides pacing.interval when IntervalSet
	IntervalSet   bool
	Report        bool
	ReportDir     string
	NoColor       bool

	Stdout io.Writer
	Logger *slog.Logger
}

func (o *Options) stdout() io.Writer {
	if o.Stdout == nil {
		return os.Stdout
	}
	return o.Stdout
}

func (o *Options) terminal() *output.Terminal {
	return output.NewTerminal(o.stdout(), o.NoColor)
}

// loadConfig reads the config file (falling back to built-in defaults) and
// applies flag overrides.
func loadConfig(o *Options) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(o.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if o.AddressesFile != "" {
		cfg.AddressesFile = o.AddressesFile
	}
	if o.IntervalSet {
		cfg.Pacing.Interval = o.Interval
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// requiredContracts lists the contracts a run cannot proceed without.
func requiredContracts(cfg *config.Config) []chain.NamedContract {
	return []chain.NamedContract{
		{Name: "Pool Data Provider", Address: common.HexToAddress(cfg.Market.UIPoolDataProvider)},
		{Name: "Pool Addresses Provider", Address: common.HexToAddress(cfg.Market.PoolAddressesProvider)},
		{Name: "Pool", Address: common.HexToAddress(cfg.Market.Pool)},
	}
}

// dial connects to the configured endpoint and warns when it serves a
// different chain than configured.
func dial(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*chain.Client, error) {
	client, err := chain.Dial(ctx, cfg.Network.Name, cfg.Network.RPCURL, cfg.Network.Timeout)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Network.Name, err)
	}

	if cfg.Network.ChainID != 0 {
		id, err := client.ChainID(ctx)
		switch {
		case err != nil:
			logger.Warn("could not read chain id", "network", cfg.Network.Name, "error", err)
		case id.Int64() != cfg.Network.ChainID:
			logger.Warn("endpoint serves a different chain than configured",
				"network", cfg.Network.Name, "configured", cfg.Network.ChainID, "actual", id.String())
		}
	}
	return client, nil
}

func loggerOf(o *Options) *slog.Logger {
	return logging.OrDefault(o.Logger)
}
