// Package aave reads market and user state from an Aave V3 UiPoolDataProvider.
//
// Values are returned exactly as the contract encodes them: indices and rates
// in ray (1e27), prices in market reference currency units, balances in the
// token's smallest unit. Scaling to human numbers is done by mathutils.
package aave

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ErrNoData signals that the provider returned nothing for a request, e.g. an
// empty eth_call result or a market without reserves.
var ErrNoData = errors.New("no data returned by data provider")

// Reserve is one asset market as reported by getReservesData.
type Reserve struct {
	UnderlyingAsset common.Address
	Name            string
	Symbol          string
	Decimals        uint64

	BaseLTVAsCollateral         *big.Int // bps
	ReserveLiquidationThreshold *big.Int // bps
	ReserveLiquidationBonus     *big.Int // bps
	ReserveFactor               *big.Int // bps

	UsageAsCollateralEnabled bool
	BorrowingEnabled         bool
	IsActive                 bool
	IsFrozen                 bool
	IsPaused                 bool

	LiquidityIndex      *big.Int // ray
	VariableBorrowIndex *big.Int // ray
	LiquidityRate       *big.Int // ray
	VariableBorrowRate  *big.Int // ray
	LastUpdateTimestamp int64

	AvailableLiquidity             *big.Int
	TotalScaledVariableDebt        *big.Int
	PriceInMarketReferenceCurrency *big.Int

	// Index is the reserve's position in the pool's reserve list, which is
	// also its bit in e-mode bitmaps.
	Index int
}

// BaseCurrency describes the market reference currency prices are quoted in.
type BaseCurrency struct {
	MarketReferenceCurrencyUnit       *big.Int
	MarketReferenceCurrencyPriceInUSD *big.Int // 8 decimals
	NetworkBaseTokenPriceInUSD        *big.Int
	NetworkBaseTokenPriceDecimals     uint8
}

// EMode is an efficiency-mode category and the reserves it applies to.
type EMode struct {
	ID                   uint8
	Label                string
	LTV                  uint16 // bps
	LiquidationThreshold uint16 // bps
	LiquidationBonus     uint16 // bps
	CollateralBitmap     *big.Int
	BorrowableBitmap     *big.Int
}

// ReservesData is the market-wide snapshot.
type ReservesData struct {
	Reserves     []Reserve
	BaseCurrency BaseCurrency
	EModes       []EMode
}

// Find returns the reserve for asset.
func (d *ReservesData) Find(asset common.Address) (Reserve, bool) {
	for _, r := range d.Reserves {
		if r.UnderlyingAsset == asset {
			return r, true
		}
	}
	return Reserve{}, false
}

// UserReserve is one user's position in one reserve. Balances are scaled:
// they still need the reserve index applied to become current amounts.
type UserReserve struct {
	UnderlyingAsset                 common.Address
	ScaledATokenBalance             *big.Int
	UsageAsCollateralEnabledOnUser  bool
	ScaledVariableDebt              *big.Int
	PrincipalStableDebt             *big.Int
	StableBorrowRate                *big.Int
	StableBorrowLastUpdateTimestamp int64
}

// UserReservesData is everything the provider reports for one user.
type UserReservesData struct {
	User            common.Address
	UserReserves    []UserReserve
	EModeCategoryID uint8
}
