package mathutils

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/dmagro/aave-positions/internal/aave"
)

// FormatReservesRequest carries the raw market snapshot to format.
type FormatReservesRequest struct {
	Reserves                        []aave.Reserve
	EModes                          []aave.EMode
	CurrentTimestamp                int64
	MarketReferenceCurrencyDecimals int32
	MarketReferencePriceInUSD       *big.Int // USDDecimals
}

// EModeParams are the collateral parameters a reserve gets inside an e-mode category.
type EModeParams struct {
	CategoryID           uint8
	Label                string
	LTV                  decimal.Decimal
	LiquidationThreshold decimal.Decimal
	LiquidationBonus     decimal.Decimal
	Collateral           bool
	Borrowable           bool
}

// FormattedReserve is a reserve with human-scaled values and USD pricing.
type FormattedReserve struct {
	UnderlyingAsset common.Address
	Name            string
	Symbol          string
	Decimals        int32
	Index           int

	PriceInMarketReferenceCurrency decimal.Decimal
	PriceInUSD                     decimal.Decimal

	// Ratios, e.g. 0.8 for 80%.
	BaseLTVAsCollateral         decimal.Decimal
	ReserveLiquidationThreshold decimal.Decimal
	ReserveLiquidationBonus     decimal.Decimal
	ReserveFactor               decimal.Decimal

	SupplyAPR         decimal.Decimal
	VariableBorrowAPR decimal.Decimal

	NormalizedIncome decimal.Decimal
	NormalizedDebt   decimal.Decimal

	AvailableLiquidity decimal.Decimal
	TotalVariableDebt  decimal.Decimal

	UsageAsCollateralEnabled bool
	BorrowingEnabled         bool
	IsActive                 bool
	IsFrozen                 bool
	IsPaused                 bool

	EModes []EModeParams
}

// EMode returns the reserve's parameters for category id.
func (r FormattedReserve) EMode(id uint8) (EModeParams, bool) {
	for _, e := range r.EModes {
		if e.CategoryID == id {
			return e, true
		}
	}
	return EModeParams{}, false
}

// FormatReserves scales every raw reserve and prices it in USD.
func FormatReserves(req FormatReservesRequest) []FormattedReserve {
	mrcPriceUSD := FromUnits(req.MarketReferencePriceInUSD, USDDecimals)

	out := make([]FormattedReserve, 0, len(req.Reserves))
	for _, r := range req.Reserves {
		decimals := int32(r.Decimals)
		priceInMRC := FromUnits(r.PriceInMarketReferenceCurrency, req.MarketReferenceCurrencyDecimals)
		normalizedDebt := NormalizedDebt(r.VariableBorrowIndex, r.VariableBorrowRate, r.LastUpdateTimestamp, req.CurrentTimestamp)

		out = append(out, FormattedReserve{
			UnderlyingAsset:                r.UnderlyingAsset,
			Name:                           r.Name,
			Symbol:                         r.Symbol,
			Decimals:                       decimals,
			Index:                          r.Index,
			PriceInMarketReferenceCurrency: priceInMRC,
			PriceInUSD:                     priceInMRC.Mul(mrcPriceUSD),
			BaseLTVAsCollateral:            fromBps(r.BaseLTVAsCollateral),
			ReserveLiquidationThreshold:    fromBps(r.ReserveLiquidationThreshold),
			ReserveLiquidationBonus:        fromBps(r.ReserveLiquidationBonus),
			ReserveFactor:                  fromBps(r.ReserveFactor),
			SupplyAPR:                      fromRay(r.LiquidityRate),
			VariableBorrowAPR:              fromRay(r.VariableBorrowRate),
			NormalizedIncome:               NormalizedIncome(r.LiquidityIndex, r.LiquidityRate, r.LastUpdateTimestamp, req.CurrentTimestamp),
			NormalizedDebt:                 normalizedDebt,
			AvailableLiquidity:             FromUnits(r.AvailableLiquidity, decimals),
			TotalVariableDebt:              FromUnits(r.TotalScaledVariableDebt, decimals).Mul(normalizedDebt),
			UsageAsCollateralEnabled:       r.UsageAsCollateralEnabled,
			BorrowingEnabled:               r.BorrowingEnabled,
			IsActive:                       r.IsActive,
			IsFrozen:                       r.IsFrozen,
			IsPaused:                       r.IsPaused,
			EModes:                         reserveEModes(r.Index, req.EModes),
		})
	}
	return out
}

func reserveEModes(index int, emodes []aave.EMode) []EModeParams {
	var out []EModeParams
	for _, e := range emodes {
		collateral := bitSet(e.CollateralBitmap, index)
		borrowable := bitSet(e.BorrowableBitmap, index)
		if !collateral && !borrowable {
			continue
		}
		out = append(out, EModeParams{
			CategoryID:           e.ID,
			Label:                e.Label,
			LTV:                  fromBps(big.NewInt(int64(e.LTV))),
			LiquidationThreshold: fromBps(big.NewInt(int64(e.LiquidationThreshold))),
			LiquidationBonus:     fromBps(big.NewInt(int64(e.LiquidationBonus))),
			Collateral:           collateral,
			Borrowable:           borrowable,
		})
	}
	return out
}

func bitSet(bitmap *big.Int, index int) bool {
	return bitmap != nil && index >= 0 && bitmap.Bit(index) == 1
}
