package portfolio

import (
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/dmagro/aave-positions/internal/aave"
	"github.com/dmagro/aave-positions/internal/mathutils"
)

// Outcome is how processing an address ended.
type Outcome int

const (
	// OutcomeActive means the address holds at least one position.
	OutcomeActive Outcome = iota
	// OutcomeNoPositions means every user reserve is empty.
	OutcomeNoPositions
	// OutcomeNoData means the provider or formatter had nothing for the address.
	OutcomeNoData
	// OutcomeFailed is any other error.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeActive:
		return "active"
	case OutcomeNoPositions:
		return "no_positions"
	case OutcomeNoData:
		return "no_data"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Classify maps a processing error to an outcome. Missing-data signals from
// the provider or the formatter are OutcomeNoData, everything else failed.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeActive
	case errors.Is(err, aave.ErrNoData), errors.Is(err, mathutils.ErrReserveNotFound):
		return OutcomeNoData
	default:
		return OutcomeFailed
	}
}

// Holding is one active reserve of an address. Amounts are scaled token
// balances rendered like ethers formatUnits; empty means none.
type Holding struct {
	Symbol   string
	Asset    common.Address
	Decimals int32
	PriceUSD decimal.Decimal

	SupplyBalance    string
	SupplyBalanceUSD decimal.Decimal

	VariableDebt    string
	VariableDebtUSD decimal.Decimal
	StableDebt      string
	StableDebtUSD   decimal.Decimal

	UsedAsCollateral bool
}

// HasSupply reports whether the holding carries a supply balance.
func (h Holding) HasSupply() bool { return h.SupplyBalance != "" }

// HasDebt reports whether the holding carries variable or stable debt.
func (h Holding) HasDebt() bool { return h.VariableDebt != "" || h.StableDebt != "" }

const noBorrowsHealthFactor = "N/A (no borrows)"

// Metrics are an address's account figures as reported by the summary,
// plus the debt value computed locally from holdings.
type Metrics struct {
	TotalLiquidityUSD           decimal.Decimal
	TotalCollateralUSD          decimal.Decimal
	TotalBorrowsUSD             decimal.Decimal
	AvailableBorrowsUSD         decimal.Decimal
	CurrentLiquidationThreshold decimal.Decimal // ratio
	HealthFactor                decimal.Decimal // -1 without borrows

	CalculatedDebtUSD    decimal.Decimal
	TotalVariableDebtRaw *big.Int
	TotalStableDebtRaw   *big.Int
}

// BorrowsCorrected reports whether the reported borrow total is replaced by
// the locally computed one: only when the summary reports nothing while the
// holdings carry debt.
func (m Metrics) BorrowsCorrected() bool {
	return !m.TotalBorrowsUSD.IsPositive() && m.CalculatedDebtUSD.IsPositive()
}

// EffectiveBorrowsUSD is the borrow total that goes into the cumulative sums.
func (m Metrics) EffectiveBorrowsUSD() decimal.Decimal {
	if m.BorrowsCorrected() {
		return m.CalculatedDebtUSD
	}
	return m.TotalBorrowsUSD
}

// HealthFactorDisplay renders the health factor with four decimals, or a
// marker when the address has no borrows.
func (m Metrics) HealthFactorDisplay() string {
	if m.HealthFactor.Equal(mathutils.NoHealthFactor) || !m.TotalBorrowsUSD.IsPositive() {
		return noBorrowsHealthFactor
	}
	return m.HealthFactor.StringFixed(4)
}

// Result is everything learned about one address.
type Result struct {
	Address  string
	Outcome  Outcome
	Err      error
	EModeID  uint8
	Holdings []Holding
	Metrics  Metrics

	HasBorrows bool
	Elapsed    time.Duration // fetch and format time
}

// HasActivePositions reports whether the address contributes to cumulative totals.
func (r *Result) HasActivePositions() bool {
	return r != nil && r.Outcome == OutcomeActive
}
