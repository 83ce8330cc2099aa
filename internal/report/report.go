// Package report writes a machine-readable record of a positions run.
//
// Reports are saved to a "reports" directory with timestamped filenames so
// successive runs can be compared.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmagro/aave-positions/internal/portfolio"
)

// DefaultDir is where reports are written unless told otherwise.
const DefaultDir = "reports"

// MillisDuration marshals a time.Duration as an integer millisecond count.
type MillisDuration time.Duration

func (d MillisDuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).Milliseconds())
}

// Latency is the per-address fetch time summary.
type Latency struct {
	Count int            `json:"count"`
	P50   MillisDuration `json:"p50_ms"`
	P95   MillisDuration `json:"p95_ms"`
	Max   MillisDuration `json:"max_ms"`
}

// Report is the JSON document for one run. USD amounts are decimal strings.
type Report struct {
	Timestamp  time.Time  `json:"timestamp"`
	Network    Network    `json:"network"`
	Contracts  []Contract `json:"contracts"`
	Addresses  []Address  `json:"addresses"`
	Cumulative Cumulative `json:"cumulative"`
	Latency    Latency    `json:"fetch_latency"`
}

// Network identifies the chain and market the run read from.
type Network struct {
	Name                  string `json:"name"`
	ChainID               int64  `json:"chain_id,omitempty"`
	PoolAddressesProvider string `json:"pool_addresses_provider"`
	Pool                  string `json:"pool"`
	UIPoolDataProvider    string `json:"ui_pool_data_provider"`
}

// Contract is one existence check.
type Contract struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Exists  bool    `json:"exists"`
	Error   *string `json:"error,omitempty"`
}

// Address is one processed address.
type Address struct {
	Address    string    `json:"address"`
	Outcome    string    `json:"outcome"`
	Error      *string   `json:"error,omitempty"`
	HasBorrows bool      `json:"has_borrows"`
	EModeID    uint8     `json:"emode_category_id,omitempty"`
	Holdings   []Holding `json:"holdings,omitempty"`
	Metrics    *Metrics  `json:"metrics,omitempty"`
}

// Holding mirrors portfolio.Holding.
type Holding struct {
	Symbol           string           `json:"symbol"`
	Asset            string           `json:"asset"`
	SupplyBalance    string           `json:"supply_balance,omitempty"`
	SupplyBalanceUSD *decimal.Decimal `json:"supply_balance_usd,omitempty"`
	VariableDebt     string           `json:"variable_debt,omitempty"`
	VariableDebtUSD  *decimal.Decimal `json:"variable_debt_usd,omitempty"`
	StableDebt       string           `json:"stable_debt,omitempty"`
	StableDebtUSD    *decimal.Decimal `json:"stable_debt_usd,omitempty"`
	UsedAsCollateral bool             `json:"used_as_collateral"`
}

// Metrics mirrors portfolio.Metrics.
type Metrics struct {
	TotalLiquidityUSD           decimal.Decimal `json:"total_liquidity_usd"`
	TotalCollateralUSD          decimal.Decimal `json:"total_collateral_usd"`
	TotalBorrowsUSD             decimal.Decimal `json:"total_borrows_usd"`
	CalculatedDebtUSD           decimal.Decimal `json:"calculated_debt_usd"`
	EffectiveBorrowsUSD         decimal.Decimal `json:"effective_borrows_usd"`
	HealthFactor                string          `json:"health_factor"`
	AvailableBorrowsUSD         decimal.Decimal `json:"available_borrows_usd"`
	CurrentLiquidationThreshold decimal.Decimal `json:"current_liquidation_threshold"`
}

// Cumulative mirrors portfolio.Cumulative.
type Cumulative struct {
	TotalAddresses         int             `json:"total_addresses"`
	AddressesWithPositions int             `json:"addresses_with_positions"`
	AddressesWithBorrows   int             `json:"addresses_with_borrows"`
	TotalLiquidityUSD      decimal.Decimal `json:"total_liquidity_usd"`
	TotalCollateralUSD     decimal.Decimal `json:"total_collateral_usd"`
	TotalBorrowsUSD        decimal.Decimal `json:"total_borrows_usd"`
	UniqueAssets           []string        `json:"unique_assets"`
}

// New builds a report from a finished run.
func New(ts time.Time, network Network, s *portfolio.Summary) *Report {
	r := &Report{
		Timestamp: ts,
		Network:   network,
		Contracts: make([]Contract, 0, len(s.Contracts)),
		Addresses: make([]Address, 0, len(s.Results)),
		Cumulative: Cumulative{
			TotalAddresses:         s.Addresses,
			AddressesWithPositions: s.Cumulative.AddressesWithPositions,
			AddressesWithBorrows:   s.Cumulative.AddressesWithBorrows,
			TotalLiquidityUSD:      s.Cumulative.TotalLiquidityUSD,
			TotalCollateralUSD:     s.Cumulative.TotalCollateralUSD,
			TotalBorrowsUSD:        s.Cumulative.TotalBorrowsUSD,
			UniqueAssets:           s.Cumulative.Assets(),
		},
	}

	lat := s.FetchLatency()
	r.Latency = Latency{
		Count: lat.Count,
		P50:   MillisDuration(lat.P50),
		P95:   MillisDuration(lat.P95),
		Max:   MillisDuration(lat.Max),
	}

	for _, c := range s.Contracts {
		r.Contracts = append(r.Contracts, Contract{
			Name:    c.Name,
			Address: c.Address.Hex(),
			Exists:  c.Exists,
			Error:   errString(c.Err),
		})
	}
	for _, res := range s.Results {
		r.Addresses = append(r.Addresses, newAddress(res))
	}
	return r
}

func newAddress(res *portfolio.Result) Address {
	a := Address{
		Address:    res.Address,
		Outcome:    res.Outcome.String(),
		Error:      errString(res.Err),
		HasBorrows: res.HasBorrows,
		EModeID:    res.EModeID,
	}
	if !res.HasActivePositions() {
		return a
	}

	for _, h := range res.Holdings {
		out := Holding{
			Symbol:           h.Symbol,
			Asset:            h.Asset.Hex(),
			SupplyBalance:    h.SupplyBalance,
			VariableDebt:     h.VariableDebt,
			StableDebt:       h.StableDebt,
			UsedAsCollateral: h.UsedAsCollateral,
		}
		if h.HasSupply() {
			out.SupplyBalanceUSD = ptr(h.SupplyBalanceUSD)
		}
		if h.VariableDebt != "" {
			out.VariableDebtUSD = ptr(h.VariableDebtUSD)
		}
		if h.StableDebt != "" {
			out.StableDebtUSD = ptr(h.StableDebtUSD)
		}
		a.Holdings = append(a.Holdings, out)
	}

	m := res.Metrics
	a.Metrics = &Metrics{
		TotalLiquidityUSD:           m.TotalLiquidityUSD,
		TotalCollateralUSD:          m.TotalCollateralUSD,
		TotalBorrowsUSD:             m.TotalBorrowsUSD,
		CalculatedDebtUSD:           m.CalculatedDebtUSD,
		EffectiveBorrowsUSD:         m.EffectiveBorrowsUSD(),
		HealthFactor:                m.HealthFactorDisplay(),
		AvailableBorrowsUSD:         m.AvailableBorrowsUSD,
		CurrentLiquidationThreshold: m.CurrentLiquidationThreshold,
	}
	return a
}

// WriteJSON writes data as indented JSON to dir/{prefix}-{YYYYMMDD-HHMMSS}.json,
// creating dir if needed, and returns the file path.
func WriteJSON(dir string, data any, prefix string) (string, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if prefix == "" {
		prefix = "report"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create reports directory: %w", err)
	}

	ts := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.json", prefix, ts))

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal JSON: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

func errString(err error) *string {
	if err == nil {
		return nil
	}
	s := err.Error()
	return &s
}

func ptr[T any](v T) *T { return &v }
