package mathutils

import (
	"github.com/dmagro/aave-positions/internal/aave"
)

// Formatter adapts the package functions to the shape of a provider
// snapshot. The zero value is ready to use.
type Formatter struct{}

// FormatReserves formats every reserve in data as of now (unix seconds).
func (Formatter) FormatReserves(data *aave.ReservesData, now int64) []FormattedReserve {
	if data == nil {
		return nil
	}
	return FormatReserves(FormatReservesRequest{
		Reserves:                        data.Reserves,
		EModes:                          data.EModes,
		CurrentTimestamp:                now,
		MarketReferenceCurrencyDecimals: MarketReferenceCurrencyDecimals(data.BaseCurrency.MarketReferenceCurrencyUnit),
		MarketReferencePriceInUSD:       data.BaseCurrency.MarketReferenceCurrencyPriceInUSD,
	})
}

// FormatUserSummary summarizes user against the formatted market. Prices
// already live on formatted, so the raw snapshot is not consulted.
func (Formatter) FormatUserSummary(_ *aave.ReservesData, formatted []FormattedReserve, user *aave.UserReservesData, now int64) (UserSummary, error) {
	req := FormatUserSummaryRequest{
		CurrentTimestamp:  now,
		FormattedReserves: formatted,
	}
	if user != nil {
		req.UserReserves = user.UserReserves
		req.UserEModeCategoryID = user.EModeCategoryID
	}
	return FormatUserSummary(req)
}
