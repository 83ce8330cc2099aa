package commands

import (
	"context"

	"github.com/dmagro/aave-positions/internal/addresses"
	"github.com/dmagro/aave-positions/internal/portfolio"
)

// RunCheck only verifies that the market contracts are deployed.
func RunCheck(ctx context.Context, o *Options) error {
	logger := loggerOf(o)

	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}
	client, err := dial(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	runner := &portfolio.Runner{
		Checker:   client,
		Contracts: requiredContracts(cfg),
		Renderer:  o.terminal(),
		Logger:    logger,
	}
	_, err = runner.CheckContracts(ctx)
	return err
}

// ListAddresses prints the addresses a run would process, creating the
// address file with defaults when it does not exist.
func ListAddresses(o *Options) error {
	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}
	o.terminal().Addresses(addresses.Load(cfg.AddressesFile, loggerOf(o)))
	return nil
}
