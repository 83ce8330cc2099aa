package aave

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// The structs below mirror the ABI tuples field for field; abi.ConvertType
// copies positionally, so order and types must not change.

type aggregatedReserveData struct {
	UnderlyingAsset                common.Address
	Name                           string
	Symbol                         string
	Decimals                       *big.Int
	BaseLTVasCollateral            *big.Int
	ReserveLiquidationThreshold    *big.Int
	ReserveLiquidationBonus        *big.Int
	ReserveFactor                  *big.Int
	UsageAsCollateralEnabled       bool
	BorrowingEnabled               bool
	IsActive                       bool
	IsFrozen                       bool
	LiquidityIndex                 *big.Int
	VariableBorrowIndex            *big.Int
	LiquidityRate                  *big.Int
	VariableBorrowRate             *big.Int
	LastUpdateTimestamp            *big.Int
	ATokenAddress                  common.Address
	VariableDebtTokenAddress       common.Address
	InterestRateStrategyAddress    common.Address
	AvailableLiquidity             *big.Int
	TotalScaledVariableDebt        *big.Int
	PriceInMarketReferenceCurrency *big.Int
	PriceOracle                    common.Address
	VariableRateSlope1             *big.Int
	VariableRateSlope2             *big.Int
	BaseVariableBorrowRate         *big.Int
	OptimalUsageRatio              *big.Int
	IsPaused                       bool
	IsSiloedBorrowing              bool
	AccruedToTreasury              *big.Int
	Unbacked                       *big.Int
	IsolationModeTotalDebt         *big.Int
	FlashLoanEnabled               bool
	DebtCeiling                    *big.Int
	DebtCeilingDecimals            *big.Int
	BorrowCap                      *big.Int
	SupplyCap                      *big.Int
	BorrowableInIsolation          bool
	VirtualAccActive               bool
	VirtualUnderlyingBalance       *big.Int
	Deficit                        *big.Int
}

type baseCurrencyInfo struct {
	MarketReferenceCurrencyUnit       *big.Int
	MarketReferenceCurrencyPriceInUsd *big.Int
	NetworkBaseTokenPriceInUsd        *big.Int
	NetworkBaseTokenPriceDecimals     uint8
}

type eModeData struct {
	ID    uint8 `abi:"id"`
	EMode struct {
		LTV                  uint16 `abi:"ltv"`
		LiquidationThreshold uint16
		LiquidationBonus     uint16
		CollateralBitmap     *big.Int
		Label                string
		BorrowableBitmap     *big.Int
	} `abi:"eMode"`
}

type userReserveData struct {
	UnderlyingAsset                common.Address
	ScaledATokenBalance            *big.Int
	UsageAsCollateralEnabledOnUser bool
	ScaledVariableDebt             *big.Int
}

type legacyUserReserveData struct {
	UnderlyingAsset                 common.Address
	ScaledATokenBalance             *big.Int
	UsageAsCollateralEnabledOnUser  bool
	StableBorrowRate                *big.Int
	ScaledVariableDebt              *big.Int
	PrincipalStableDebt             *big.Int
	StableBorrowLastUpdateTimestamp *big.Int
}

func (r aggregatedReserveData) toReserve(index int) Reserve {
	return Reserve{
		UnderlyingAsset:                r.UnderlyingAsset,
		Name:                           r.Name,
		Symbol:                         r.Symbol,
		Decimals:                       uint64OrZero(r.Decimals),
		BaseLTVAsCollateral:            r.BaseLTVasCollateral,
		ReserveLiquidationThreshold:    r.ReserveLiquidationThreshold,
		ReserveLiquidationBonus:        r.ReserveLiquidationBonus,
		ReserveFactor:                  r.ReserveFactor,
		UsageAsCollateralEnabled:       r.UsageAsCollateralEnabled,
		BorrowingEnabled:               r.BorrowingEnabled,
		IsActive:                       r.IsActive,
		IsFrozen:                       r.IsFrozen,
		IsPaused:                       r.IsPaused,
		LiquidityIndex:                 r.LiquidityIndex,
		VariableBorrowIndex:            r.VariableBorrowIndex,
		LiquidityRate:                  r.LiquidityRate,
		VariableBorrowRate:             r.VariableBorrowRate,
		LastUpdateTimestamp:            int64OrZero(r.LastUpdateTimestamp),
		AvailableLiquidity:             r.AvailableLiquidity,
		TotalScaledVariableDebt:        r.TotalScaledVariableDebt,
		PriceInMarketReferenceCurrency: r.PriceInMarketReferenceCurrency,
		Index:                          index,
	}
}

// convert wraps abi.ConvertType, which panics when the shapes disagree.
func convert[T any](in interface{}) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("abi shape mismatch: %v", r)
		}
	}()
	return *abi.ConvertType(in, new(T)).(*T), nil
}

func uint64OrZero(v *big.Int) uint64 {
	if v == nil || !v.IsUint64() {
		return 0
	}
	return v.Uint64()
}

func int64OrZero(v *big.Int) int64 {
	if v == nil || !v.IsInt64() {
		return 0
	}
	return v.Int64()
}
