package portfolio

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Cumulative sums metrics across addresses. The zero value is empty and
// ready to use.
type Cumulative struct {
	TotalLiquidityUSD      decimal.Decimal
	TotalCollateralUSD     decimal.Decimal
	TotalBorrowsUSD        decimal.Decimal
	AddressesWithPositions int
	AddressesWithBorrows   int

	assets map[string]struct{}
}

// Add folds r into the totals. Results without active positions are ignored.
func (c *Cumulative) Add(r *Result) {
	if !r.HasActivePositions() {
		return
	}
	c.AddressesWithPositions++
	c.TotalLiquidityUSD = c.TotalLiquidityUSD.Add(r.Metrics.TotalLiquidityUSD)
	c.TotalCollateralUSD = c.TotalCollateralUSD.Add(r.Metrics.TotalCollateralUSD)
	c.TotalBorrowsUSD = c.TotalBorrowsUSD.Add(r.Metrics.EffectiveBorrowsUSD())
	if r.HasBorrows {
		c.AddressesWithBorrows++
	}

	if c.assets == nil {
		c.assets = make(map[string]struct{})
	}
	for _, h := range r.Holdings {
		c.assets[h.Symbol] = struct{}{}
	}
}

// Assets returns the distinct symbols seen, sorted.
func (c *Cumulative) Assets() []string {
	out := make([]string, 0, len(c.assets))
	for s := range c.assets {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
