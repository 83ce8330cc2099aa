package mathutils

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dmagro/aave-positions/internal/aave"
)

// ErrReserveNotFound means a user position references an asset missing from
// the formatted reserves.
var ErrReserveNotFound = errors.New("reserve not found")

// NoHealthFactor is reported when the user has no borrows.
var NoHealthFactor = decimal.NewFromInt(-1)

// FormatUserSummaryRequest carries one user's raw positions plus the
// formatted market they belong to.
type FormatUserSummaryRequest struct {
	CurrentTimestamp    int64
	UserReserves        []aave.UserReserve
	FormattedReserves   []FormattedReserve // priced in USD by FormatReserves
	UserEModeCategoryID uint8
}

// UserReserveSummary is one position accrued to the request timestamp.
type UserReserveSummary struct {
	Reserve                        FormattedReserve
	UsageAsCollateralEnabledOnUser bool

	UnderlyingBalance    decimal.Decimal
	UnderlyingBalanceUSD decimal.Decimal
	VariableBorrows      decimal.Decimal
	VariableBorrowsUSD   decimal.Decimal
	StableBorrows        decimal.Decimal
	StableBorrowsUSD     decimal.Decimal
	TotalBorrows         decimal.Decimal
	TotalBorrowsUSD      decimal.Decimal
}

// UserSummary aggregates a user's positions.
type UserSummary struct {
	UserReservesData []UserReserveSummary

	TotalLiquidityUSD   decimal.Decimal
	TotalCollateralUSD  decimal.Decimal
	TotalBorrowsUSD     decimal.Decimal
	AvailableBorrowsUSD decimal.Decimal

	// Collateral-weighted ratios, e.g. 0.825.
	CurrentLoanToValue          decimal.Decimal
	CurrentLiquidationThreshold decimal.Decimal

	// HealthFactor is NoHealthFactor when there are no borrows.
	HealthFactor decimal.Decimal

	UserEModeCategoryID uint8
	IsInEMode           bool
}

// HasHealthFactor reports whether HealthFactor is meaningful.
func (s UserSummary) HasHealthFactor() bool {
	return !s.HealthFactor.Equal(NoHealthFactor)
}

// FormatUserSummary values each user reserve in USD and derives collateral,
// borrow capacity and health factor.
func FormatUserSummary(req FormatUserSummaryRequest) (UserSummary, error) {
	summary := UserSummary{
		UserEModeCategoryID: req.UserEModeCategoryID,
		IsInEMode:           req.UserEModeCategoryID != 0,
	}

	weightedLTV := decimal.Zero
	weightedThreshold := decimal.Zero

	for _, ur := range req.UserReserves {
		reserve, ok := findReserve(req.FormattedReserves, ur)
		if !ok {
			return UserSummary{}, fmt.Errorf("user reserve %s: %w", ur.UnderlyingAsset.Hex(), ErrReserveNotFound)
		}

		rs := userReserveSummary(reserve, ur, req.CurrentTimestamp)
		summary.UserReservesData = append(summary.UserReservesData, rs)

		summary.TotalLiquidityUSD = summary.TotalLiquidityUSD.Add(rs.UnderlyingBalanceUSD)
		summary.TotalBorrowsUSD = summary.TotalBorrowsUSD.Add(rs.TotalBorrowsUSD)

		ltv, threshold := reserve.BaseLTVAsCollateral, reserve.ReserveLiquidationThreshold
		if summary.IsInEMode {
			if e, ok := reserve.EMode(req.UserEModeCategoryID); ok && e.Collateral {
				ltv, threshold = e.LTV, e.LiquidationThreshold
			}
		}

		if ur.UsageAsCollateralEnabledOnUser && reserve.ReserveLiquidationThreshold.IsPositive() {
			summary.TotalCollateralUSD = summary.TotalCollateralUSD.Add(rs.UnderlyingBalanceUSD)
			weightedLTV = weightedLTV.Add(rs.UnderlyingBalanceUSD.Mul(ltv))
			weightedThreshold = weightedThreshold.Add(rs.UnderlyingBalanceUSD.Mul(threshold))
		}
	}

	if summary.TotalCollateralUSD.IsPositive() {
		summary.CurrentLoanToValue = weightedLTV.DivRound(summary.TotalCollateralUSD, divPrecision)
		summary.CurrentLiquidationThreshold = weightedThreshold.DivRound(summary.TotalCollateralUSD, divPrecision)
	}

	summary.HealthFactor = HealthFactor(summary.TotalCollateralUSD, summary.TotalBorrowsUSD, summary.CurrentLiquidationThreshold)
	summary.AvailableBorrowsUSD = AvailableBorrows(summary.TotalCollateralUSD, summary.TotalBorrowsUSD, summary.CurrentLoanToValue)

	return summary, nil
}

// HealthFactor is collateral * liquidationThreshold / borrows, or
// NoHealthFactor when borrows are zero.
func HealthFactor(collateral, borrows, liquidationThreshold decimal.Decimal) decimal.Decimal {
	if !borrows.IsPositive() {
		return NoHealthFactor
	}
	return collateral.Mul(liquidationThreshold).DivRound(borrows, 18)
}

// AvailableBorrows is the remaining borrow capacity, never negative.
func AvailableBorrows(collateral, borrows, ltv decimal.Decimal) decimal.Decimal {
	capacity := collateral.Mul(ltv).Sub(borrows)
	if capacity.IsNegative() {
		return decimal.Zero
	}
	return capacity
}

func userReserveSummary(reserve FormattedReserve, ur aave.UserReserve, now int64) UserReserveSummary {
	balance := FromUnits(ur.ScaledATokenBalance, reserve.Decimals).Mul(reserve.NormalizedIncome)
	variable := FromUnits(ur.ScaledVariableDebt, reserve.Decimals).Mul(reserve.NormalizedDebt)
	stable := FromUnits(ur.PrincipalStableDebt, reserve.Decimals).
		Mul(CompoundedInterest(ur.StableBorrowRate, ur.StableBorrowLastUpdateTimestamp, now))

	total := variable.Add(stable)
	return UserReserveSummary{
		Reserve:                        reserve,
		UsageAsCollateralEnabledOnUser: ur.UsageAsCollateralEnabledOnUser,
		UnderlyingBalance:              balance,
		UnderlyingBalanceUSD:           balance.Mul(reserve.PriceInUSD),
		VariableBorrows:                variable,
		VariableBorrowsUSD:             variable.Mul(reserve.PriceInUSD),
		StableBorrows:                  stable,
		StableBorrowsUSD:               stable.Mul(reserve.PriceInUSD),
		TotalBorrows:                   total,
		TotalBorrowsUSD:                total.Mul(reserve.PriceInUSD),
	}
}

func findReserve(reserves []FormattedReserve, ur aave.UserReserve) (FormattedReserve, bool) {
	for _, r := range reserves {
		if r.UnderlyingAsset == ur.UnderlyingAsset {
			return r, true
		}
	}
	return FormattedReserve{}, false
}
