// Package mathutils converts raw Aave market and user data into USD-valued
// summaries: reserve formatting, interest accrual, collateral and health
// factor math. All functions are pure; callers supply the timestamp.
package mathutils

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// RayDecimals is the precision of Aave indices and rates.
	RayDecimals = 27
	// USDDecimals is the precision of Chainlink USD feeds and the base currency price.
	USDDecimals = 8
	// SecondsPerYear matches the protocol's non-leap year.
	SecondsPerYear = 365 * 24 * 60 * 60

	divPrecision = 30
)

// FromUnits scales raw by 10^-decimals. A nil raw is zero.
func FromUnits(raw *big.Int, decimals int32) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -decimals)
}

// FormatUnits renders raw/10^decimals like ethers.js formatUnits: trailing
// zeros are trimmed but at least one fractional digit is kept ("100.0").
func FormatUnits(raw *big.Int, decimals int32) string {
	s := FromUnits(raw, decimals).String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// MarketReferenceCurrencyDecimals derives the decimals of the market
// reference currency from its unit (1e8 -> 8, 1e18 -> 18).
func MarketReferenceCurrencyDecimals(unit *big.Int) int32 {
	if unit == nil || unit.Sign() <= 0 {
		return 0
	}
	return int32(len(unit.String()) - 1)
}

func fromRay(v *big.Int) decimal.Decimal {
	return FromUnits(v, RayDecimals)
}

func fromBps(v *big.Int) decimal.Decimal {
	return FromUnits(v, 4)
}

func isPositive(v *big.Int) bool {
	return v != nil && v.Sign() > 0
}
