package portfolio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/dmagro/aave-positions/internal/aave"
	"github.com/dmagro/aave-positions/internal/logging"
	"github.com/dmagro/aave-positions/internal/mathutils"
)

// ErrInvalidAddress is returned for address strings that are not 20-byte hex.
var ErrInvalidAddress = errors.New("invalid address")

// decimals assumed when a user reserve is missing from the market snapshot.
const fallbackDecimals = 18

// DataProvider fetches raw market and user state.
type DataProvider interface {
	Reserves(ctx context.Context) (*aave.ReservesData, error)
	UserReserves(ctx context.Context, user common.Address) (*aave.UserReservesData, error)
}

// Formatter turns raw provider data into USD-valued records.
type Formatter interface {
	FormatReserves(data *aave.ReservesData, now int64) []mathutils.FormattedReserve
	FormatUserSummary(data *aave.ReservesData, formatted []mathutils.FormattedReserve, user *aave.UserReservesData, now int64) (mathutils.UserSummary, error)
}

// Processor fetches and summarizes one address at a time.
type Processor struct {
	provider  DataProvider
	formatter Formatter
	symbols   Symbols
	now       func() time.Time
	logger    *slog.Logger
}

// NewProcessor returns a Processor. A nil formatter uses mathutils.Formatter
// and nil symbols use DefaultSymbols.
func NewProcessor(provider DataProvider, formatter Formatter, symbols Symbols, logger *slog.Logger) *Processor {
	if formatter == nil {
		formatter = mathutils.Formatter{}
	}
	if symbols == nil {
		symbols = DefaultSymbols()
	}
	return &Processor{
		provider:  provider,
		formatter: formatter,
		symbols:   symbols,
		now:       time.Now,
		logger:    logging.OrDefault(logger),
	}
}

// Process fetches market and user state for address and derives its holdings
// and metrics. The returned result has OutcomeActive or OutcomeNoPositions;
// any failure is returned as an error for Classify.
func (p *Processor) Process(ctx context.Context, address string) (*Result, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	user := common.HexToAddress(address)

	reserves, err := p.provider.Reserves(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch reserves: %w", err)
	}
	userData, err := p.provider.UserReserves(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("fetch user reserves: %w", err)
	}
	if reserves == nil || userData == nil {
		return nil, aave.ErrNoData
	}

	now := p.now().Unix()
	formatted := p.formatter.FormatReserves(reserves, now)
	summary, err := p.formatter.FormatUserSummary(reserves, formatted, userData, now)
	if err != nil {
		return nil, fmt.Errorf("format user summary: %w", err)
	}

	res := &Result{
		Address: address,
		Outcome: OutcomeNoPositions,
		EModeID: userData.EModeCategoryID,
	}

	active := activeReserves(userData.UserReserves)
	if len(active) == 0 {
		p.logger.Debug("no active positions", "address", address, "user_reserves", len(userData.UserReserves))
		return res, nil
	}
	res.Outcome = OutcomeActive

	metrics := Metrics{
		TotalLiquidityUSD:           summary.TotalLiquidityUSD,
		TotalCollateralUSD:          summary.TotalCollateralUSD,
		TotalBorrowsUSD:             summary.TotalBorrowsUSD,
		AvailableBorrowsUSD:         summary.AvailableBorrowsUSD,
		CurrentLiquidationThreshold: summary.CurrentLiquidationThreshold,
		HealthFactor:                summary.HealthFactor,
		TotalVariableDebtRaw:        new(big.Int),
		TotalStableDebtRaw:          new(big.Int),
	}

	for _, ur := range active {
		h := p.holding(ur, reserves, formatted)
		if positive(ur.ScaledVariableDebt) {
			metrics.TotalVariableDebtRaw.Add(metrics.TotalVariableDebtRaw, ur.ScaledVariableDebt)
		}
		if positive(ur.PrincipalStableDebt) {
			metrics.TotalStableDebtRaw.Add(metrics.TotalStableDebtRaw, ur.PrincipalStableDebt)
		}
		metrics.CalculatedDebtUSD = metrics.CalculatedDebtUSD.Add(h.VariableDebtUSD).Add(h.StableDebtUSD)
		if h.HasDebt() {
			res.HasBorrows = true
		}
		res.Holdings = append(res.Holdings, h)
	}
	res.Metrics = metrics

	if metrics.BorrowsCorrected() {
		p.logger.Warn("reported borrows not positive, using calculated debt",
			"address", address,
			"reported_usd", metrics.TotalBorrowsUSD.StringFixed(2),
			"calculated_usd", metrics.CalculatedDebtUSD.StringFixed(2))
	}
	return res, nil
}

func (p *Processor) holding(ur aave.UserReserve, reserves *aave.ReservesData, formatted []mathutils.FormattedReserve) Holding {
	decimals := int32(fallbackDecimals)
	if r, ok := reserves.Find(ur.UnderlyingAsset); ok {
		decimals = int32(r.Decimals)
	}
	price := decimal.Zero
	for _, fr := range formatted {
		if fr.UnderlyingAsset == ur.UnderlyingAsset {
			price = fr.PriceInUSD
			break
		}
	}

	h := Holding{
		Symbol:           p.symbols.Lookup(ur.UnderlyingAsset),
		Asset:            ur.UnderlyingAsset,
		Decimals:         decimals,
		PriceUSD:         price,
		UsedAsCollateral: ur.UsageAsCollateralEnabledOnUser,
	}
	if positive(ur.ScaledATokenBalance) {
		h.SupplyBalance = mathutils.FormatUnits(ur.ScaledATokenBalance, decimals)
		h.SupplyBalanceUSD = mathutils.FromUnits(ur.ScaledATokenBalance, decimals).Mul(price)
	}
	if positive(ur.ScaledVariableDebt) {
		h.VariableDebt = mathutils.FormatUnits(ur.ScaledVariableDebt, decimals)
		h.VariableDebtUSD = mathutils.FromUnits(ur.ScaledVariableDebt, decimals).Mul(price)
	}
	if positive(ur.PrincipalStableDebt) {
		h.StableDebt = mathutils.FormatUnits(ur.PrincipalStableDebt, decimals)
		h.StableDebtUSD = mathutils.FromUnits(ur.PrincipalStableDebt, decimals).Mul(price)
	}
	return h
}

func activeReserves(reserves []aave.UserReserve) []aave.UserReserve {
	var out []aave.UserReserve
	for _, r := range reserves {
		if positive(r.ScaledATokenBalance) || positive(r.ScaledVariableDebt) || positive(r.PrincipalStableDebt) {
			out = append(out, r)
		}
	}
	return out
}

func positive(v *big.Int) bool {
	return v != nil && v.Sign() > 0
}
