package aave

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/dmagro/aave-positions/internal/logging"
)

// Caller executes eth_call. *chain.Client and *ethclient.Client satisfy it.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Client wraps the UiPoolDataProvider reads for one market.
type Client struct {
	caller            Caller
	dataProvider      common.Address
	addressesProvider common.Address
	legacy            bool
	poolABI           *abi.ABI
	userABI           *abi.ABI
	logger            *slog.Logger
}

// NewClient binds the data provider at dataProvider to the market identified
// by addressesProvider. legacy selects the user reserve struct that carries
// stable debt.
func NewClient(caller Caller, dataProvider, addressesProvider common.Address, legacy bool, logger *slog.Logger) (*Client, error) {
	poolABI, err := parseABI(uiPoolDataProviderABI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse UiPoolDataProvider ABI: %w", err)
	}

	userJSON := userReservesABI
	if legacy {
		userJSON = legacyUserReservesABI
	}
	userABI, err := parseABI(userJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to parse getUserReservesData ABI: %w", err)
	}

	return &Client{
		caller:            caller,
		dataProvider:      dataProvider,
		addressesProvider: addressesProvider,
		legacy:            legacy,
		poolABI:           poolABI,
		userABI:           userABI,
		logger:            logging.OrDefault(logger),
	}, nil
}

// Reserves fetches every reserve of the market, the base currency info and,
// where the deployment supports it, the e-mode categories.
func (c *Client) Reserves(ctx context.Context) (*ReservesData, error) {
	out, err := c.call(ctx, c.poolABI, "getReservesData", c.addressesProvider)
	if err != nil {
		return nil, err
	}
	if len(out) < 2 {
		return nil, fmt.Errorf("getReservesData: %w", ErrNoData)
	}

	raw, err := convert[[]aggregatedReserveData](out[0])
	if err != nil {
		return nil, fmt.Errorf("getReservesData: decoding reserves: %w", err)
	}
	base, err := convert[baseCurrencyInfo](out[1])
	if err != nil {
		return nil, fmt.Errorf("getReservesData: decoding base currency: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("getReservesData: market has no reserves: %w", ErrNoData)
	}

	data := &ReservesData{
		Reserves: make([]Reserve, 0, len(raw)),
		BaseCurrency: BaseCurrency{
			MarketReferenceCurrencyUnit:       base.MarketReferenceCurrencyUnit,
			MarketReferenceCurrencyPriceInUSD: base.MarketReferenceCurrencyPriceInUsd,
			NetworkBaseTokenPriceInUSD:        base.NetworkBaseTokenPriceInUsd,
			NetworkBaseTokenPriceDecimals:     base.NetworkBaseTokenPriceDecimals,
		},
	}
	for i, r := range raw {
		data.Reserves = append(data.Reserves, r.toReserve(i))
	}

	emodes, err := c.eModes(ctx)
	if err != nil {
		// Older deployments expose e-mode data on the reserves instead.
		c.logger.Debug("e-mode categories unavailable", "error", err)
	}
	data.EModes = emodes

	return data, nil
}

func (c *Client) eModes(ctx context.Context) ([]EMode, error) {
	out, err := c.call(ctx, c.poolABI, "getEModes", c.addressesProvider)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("getEModes: %w", ErrNoData)
	}
	raw, err := convert[[]eModeData](out[0])
	if err != nil {
		return nil, fmt.Errorf("getEModes: decoding: %w", err)
	}

	emodes := make([]EMode, 0, len(raw))
	for _, e := range raw {
		emodes = append(emodes, EMode{
			ID:                   e.ID,
			Label:                e.EMode.Label,
			LTV:                  e.EMode.LTV,
			LiquidationThreshold: e.EMode.LiquidationThreshold,
			LiquidationBonus:     e.EMode.LiquidationBonus,
			CollateralBitmap:     e.EMode.CollateralBitmap,
			BorrowableBitmap:     e.EMode.BorrowableBitmap,
		})
	}
	return emodes, nil
}

// UserReserves fetches user's position in every reserve and their e-mode category.
func (c *Client) UserReserves(ctx context.Context, user common.Address) (*UserReservesData, error) {
	out, err := c.call(ctx, c.userABI, "getUserReservesData", c.addressesProvider, user)
	if err != nil {
		return nil, err
	}
	if len(out) < 2 {
		return nil, fmt.Errorf("getUserReservesData: %w", ErrNoData)
	}

	category, ok := out[1].(uint8)
	if !ok {
		return nil, fmt.Errorf("getUserReservesData: unexpected e-mode type %T", out[1])
	}

	data := &UserReservesData{User: user, EModeCategoryID: category}

	if c.legacy {
		raw, err := convert[[]legacyUserReserveData](out[0])
		if err != nil {
			return nil, fmt.Errorf("getUserReservesData: decoding: %w", err)
		}
		for _, r := range raw {
			if r.UnderlyingAsset == (common.Address{}) {
				continue
			}
			data.UserReserves = append(data.UserReserves, UserReserve{
				UnderlyingAsset:                 r.UnderlyingAsset,
				ScaledATokenBalance:             r.ScaledATokenBalance,
				UsageAsCollateralEnabledOnUser:  r.UsageAsCollateralEnabledOnUser,
				ScaledVariableDebt:              r.ScaledVariableDebt,
				PrincipalStableDebt:             r.PrincipalStableDebt,
				StableBorrowRate:                r.StableBorrowRate,
				StableBorrowLastUpdateTimestamp: int64OrZero(r.StableBorrowLastUpdateTimestamp),
			})
		}
		return data, nil
	}

	raw, err := convert[[]userReserveData](out[0])
	if err != nil {
		return nil, fmt.Errorf("getUserReservesData: decoding: %w", err)
	}
	for _, r := range raw {
		if r.UnderlyingAsset == (common.Address{}) {
			continue
		}
		data.UserReserves = append(data.UserReserves, UserReserve{
			UnderlyingAsset:                r.UnderlyingAsset,
			ScaledATokenBalance:            r.ScaledATokenBalance,
			UsageAsCollateralEnabledOnUser: r.UsageAsCollateralEnabledOnUser,
			ScaledVariableDebt:             r.ScaledVariableDebt,
			PrincipalStableDebt:            new(big.Int),
			StableBorrowRate:               new(big.Int),
		})
	}
	return data, nil
}

func (c *Client) call(ctx context.Context, contractABI *abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	input, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	result, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &c.dataProvider, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s call to %s failed: %w", method, c.dataProvider.Hex(), err)
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%s: empty result from %s: %w", method, c.dataProvider.Hex(), ErrNoData)
	}

	out, err := contractABI.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	return out, nil
}
