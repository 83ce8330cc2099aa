package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dmagro/aave-positions/internal/aave"
	"github.com/dmagro/aave-positions/internal/addresses"
	"github.com/dmagro/aave-positions/internal/config"
	"github.com/dmagro/aave-positions/internal/mathutils"
	"github.com/dmagro/aave-positions/internal/portfolio"
	"github.com/dmagro/aave-positions/internal/report"
)

// RunPositions reports positions for every address in the address file:
// contract checks, per-address summaries and cumulative totals.
func RunPositions(ctx context.Context, o *Options) error {
	logger := loggerOf(o)

	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}
	addrs := addresses.Load(cfg.AddressesFile, logger)

	term := o.terminal()
	term.Start(cfg.Network.Name, len(addrs))

	client, err := dial(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	provider, err := aave.NewClient(client,
		common.HexToAddress(cfg.Market.UIPoolDataProvider),
		common.HexToAddress(cfg.Market.PoolAddressesProvider),
		cfg.Market.UserReserveLayout == config.LayoutLegacy,
		logger)
	if err != nil {
		return fmt.Errorf("init data provider: %w", err)
	}

	runner := &portfolio.Runner{
		Checker:   client,
		Contracts: requiredContracts(cfg),
		Processor: portfolio.NewProcessor(provider, mathutils.Formatter{}, portfolio.NewSymbols(cfg.Tokens), logger),
		Pacer:     portfolio.NewPacer(cfg.Pacing.Interval),
		Renderer:  term,
		Logger:    logger,
	}

	start := time.Now()
	summary, runErr := runner.Run(ctx, addrs)
	if summary != nil && len(summary.Results) > 0 {
		lat := summary.FetchLatency()
		logger.Info("run finished",
			"addresses", len(summary.Results),
			"elapsed", time.Since(start).Round(time.Millisecond),
			"fetch_p50", lat.P50.Round(time.Millisecond),
			"fetch_p95", lat.P95.Round(time.Millisecond),
			"fetch_max", lat.Max.Round(time.Millisecond))
	}

	if o.Report && summary != nil {
		r := report.New(time.Now(), networkOf(cfg), summary)
		path, err := report.WriteJSON(o.ReportDir, r, "positions")
		if err != nil {
			logger.Warn("failed to write JSON report", "error", err)
		} else {
			term.ReportPath(path)
		}
	}
	return runErr
}

func networkOf(cfg *config.Config) report.Network {
	return report.Network{
		Name:                  cfg.Network.Name,
		ChainID:               cfg.Network.ChainID,
		PoolAddressesProvider: cfg.Market.PoolAddressesProvider,
		Pool:                  cfg.Market.Pool,
		UIPoolDataProvider:    cfg.Market.UIPoolDataProvider,
	}
}
