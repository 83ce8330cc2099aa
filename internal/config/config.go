// Package config provides YAML configuration file loading and validation.
// It handles environment variable expansion, default value application,
// and ensures all required configuration fields are present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Aave V3 deployment on Base.
const (
	DefaultNetworkName         = "base"
	DefaultChainID             = 8453
	DefaultRPCURL              = "https://mainnet.base.org"
	DefaultPoolAddressProvider = "0xe20fCBdBfFC4Dd138cE8b2E6FBb6CB49777ad64D"
	DefaultPool                = "0xA238Dd80C259a72e81d7e4664a9801593F98d1c5"
	DefaultUIPoolDataProvider  = "0x68100bD5345eA474D93577127C11F39FF8463e93"
	DefaultAddressesFile       = "addresses.json"
)

// User reserve struct layouts returned by UiPoolDataProvider deployments.
const (
	// LayoutCurrent is the 4-field struct of v3.2+ (no stable debt).
	LayoutCurrent = "current"
	// LayoutLegacy is the 7-field struct carrying stable debt fields.
	LayoutLegacy = "legacy"
)

// Config represents the root configuration structure loaded from YAML.
type Config struct {
	Network       Network           `yaml:"network"`
	Market        Market            `yaml:"market"`
	Pacing        Pacing            `yaml:"pacing"`
	AddressesFile string            `yaml:"addresses_file"`
	Tokens        map[string]string `yaml:"tokens"` // underlying asset -> symbol, merged onto the built-in table
}

// Network describes the single JSON-RPC endpoint every chain read goes through.
type Network struct {
	Name    string        `yaml:"name"`
	ChainID int64         `yaml:"chain_id"`
	RPCURL  string        `yaml:"rpc_url"` // supports ${VAR} env expansion
	Timeout time.Duration `yaml:"timeout"` // per-request HTTP timeout, 0 = client default
}

// Market holds the lending market contract addresses.
type Market struct {
	PoolAddressesProvider string `yaml:"pool_addresses_provider"`
	Pool                  string `yaml:"pool"`
	UIPoolDataProvider    string `yaml:"ui_pool_data_provider"`
	UserReserveLayout     string `yaml:"user_reserve_layout"`
}

// Pacing controls the delay between successive address fetches.
type Pacing struct {
	Interval time.Duration `yaml:"interval"`
}

// Default returns the built-in configuration for Aave V3 on Base.
func Default() *Config {
	return &Config{
		Network: Network{
			Name:    DefaultNetworkName,
			ChainID: DefaultChainID,
			RPCURL:  DefaultRPCURL,
			Timeout: 30 * time.Second,
		},
		Market: Market{
			PoolAddressesProvider: DefaultPoolAddressProvider,
			Pool:                  DefaultPool,
			UIPoolDataProvider:    DefaultUIPoolDataProvider,
			UserReserveLayout:     LayoutCurrent,
		},
		Pacing:        Pacing{Interval: time.Second},
		AddressesFile: DefaultAddressesFile,
	}
}

// Validate checks the configuration. It may emit warnings (to stderr) for
// suspicious values but does not fail on warnings.
func (c *Config) Validate() error {
	if c.Network.RPCURL == "" {
		return fmt.Errorf("network.rpc_url is required")
	}
	u, err := url.Parse(c.Network.RPCURL)
	if err != nil {
		return fmt.Errorf("network.rpc_url: invalid url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("network.rpc_url: invalid url (missing scheme or host)")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("network.rpc_url: invalid url scheme %q (expected http or https)", u.Scheme)
	}
	if c.Network.Timeout < 0 {
		return fmt.Errorf("network.timeout must be >= 0")
	}
	if c.Pacing.Interval < 0 {
		return fmt.Errorf("pacing.interval must be >= 0")
	}
	if c.AddressesFile == "" {
		return fmt.Errorf("addresses_file is required")
	}

	contracts := []struct {
		key, value string
	}{
		{"market.pool_addresses_provider", c.Market.PoolAddressesProvider},
		{"market.pool", c.Market.Pool},
		{"market.ui_pool_data_provider", c.Market.UIPoolDataProvider},
	}
	for _, ct := range contracts {
		if !common.IsHexAddress(ct.value) {
			return fmt.Errorf("%s: invalid contract address %q", ct.key, ct.value)
		}
	}

	switch c.Market.UserReserveLayout {
	case LayoutCurrent, LayoutLegacy:
	default:
		return fmt.Errorf("market.user_reserve_layout must be %q or %q, got %q",
			LayoutCurrent, LayoutLegacy, c.Market.UserReserveLayout)
	}

	if d := c.Network.Timeout; d > 0 && d < 500*time.Millisecond {
		fmt.Fprintf(os.Stderr, "Warning: network timeout is very low (%s); requests may fail under normal network jitter\n", d)
	}
	return nil
}

// Load reads a YAML configuration file, expanding ${VAR} references, layering
// it over Default() and validating the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Expand environment variables so rpc_url: ${RPC_URL} works.
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to Default() when the file
// does not exist. RPC_URL from the environment overrides the endpoint either way.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = Default(), nil
	}
	if err != nil {
		return nil, err
	}
	if v := os.Getenv("RPC_URL"); v != "" {
		cfg.Network.RPCURL = v
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (c *Config) normalize() {
	// rpc_url: ${RPC_URL} with the variable unset expands to nothing.
	if strings.TrimSpace(c.Network.RPCURL) == "" {
		c.Network.RPCURL = DefaultRPCURL
	}
	c.Market.UserReserveLayout = strings.ToLower(strings.TrimSpace(c.Market.UserReserveLayout))
	if c.Market.UserReserveLayout == "" {
		c.Market.UserReserveLayout = LayoutCurrent
	}
	if len(c.Tokens) > 0 {
		tokens := make(map[string]string, len(c.Tokens))
		for addr, sym := range c.Tokens {
			tokens[strings.ToLower(addr)] = sym
		}
		c.Tokens = tokens
	}
}
