package aave

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

func parseABI(abiJSON string) (*abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// uiPoolDataProviderABI covers the UiPoolDataProviderV3 reads of Aave v3.2+.
const uiPoolDataProviderABI = `[
	{
		"inputs": [{"name": "provider", "type": "address"}],
		"name": "getReservesData",
		"outputs": [
			{
				"components": [
					{"name": "underlyingAsset", "type": "address"},
					{"name": "name", "type": "string"},
					{"name": "symbol", "type": "string"},
					{"name": "decimals", "type": "uint256"},
					{"name": "baseLTVasCollateral", "type": "uint256"},
					{"name": "reserveLiquidationThreshold", "type": "uint256"},
					{"name": "reserveLiquidationBonus", "type": "uint256"},
					{"name": "reserveFactor", "type": "uint256"},
					{"name": "usageAsCollateralEnabled", "type": "bool"},
					{"name": "borrowingEnabled", "type": "bool"},
					{"name": "isActive", "type": "bool"},
					{"name": "isFrozen", "type": "bool"},
					{"name": "liquidityIndex", "type": "uint128"},
					{"name": "variableBorrowIndex", "type": "uint128"},
					{"name": "liquidityRate", "type": "uint128"},
					{"name": "variableBorrowRate", "type": "uint128"},
					{"name": "lastUpdateTimestamp", "type": "uint40"},
					{"name": "aTokenAddress", "type": "address"},
					{"name": "variableDebtTokenAddress", "type": "address"},
					{"name": "interestRateStrategyAddress", "type": "address"},
					{"name": "availableLiquidity", "type": "uint256"},
					{"name": "totalScaledVariableDebt", "type": "uint256"},
					{"name": "priceInMarketReferenceCurrency", "type": "uint256"},
					{"name": "priceOracle", "type": "address"},
					{"name": "variableRateSlope1", "type": "uint256"},
					{"name": "variableRateSlope2", "type": "uint256"},
					{"name": "baseVariableBorrowRate", "type": "uint256"},
					{"name": "optimalUsageRatio", "type": "uint256"},
					{"name": "isPaused", "type": "bool"},
					{"name": "isSiloedBorrowing", "type": "bool"},
					{"name": "accruedToTreasury", "type": "uint128"},
					{"name": "unbacked", "type": "uint128"},
					{"name": "isolationModeTotalDebt", "type": "uint128"},
					{"name": "flashLoanEnabled", "type": "bool"},
					{"name": "debtCeiling", "type": "uint256"},
					{"name": "debtCeilingDecimals", "type": "uint256"},
					{"name": "borrowCap", "type": "uint256"},
					{"name": "supplyCap", "type": "uint256"},
					{"name": "borrowableInIsolation", "type": "bool"},
					{"name": "virtualAccActive", "type": "bool"},
					{"name": "virtualUnderlyingBalance", "type": "uint128"},
					{"name": "deficit", "type": "uint128"}
				],
				"name": "",
				"type": "tuple[]"
			},
			{
				"components": [
					{"name": "marketReferenceCurrencyUnit", "type": "uint256"},
					{"name": "marketReferenceCurrencyPriceInUsd", "type": "int256"},
					{"name": "networkBaseTokenPriceInUsd", "type": "int256"},
					{"name": "networkBaseTokenPriceDecimals", "type": "uint8"}
				],
				"name": "",
				"type": "tuple"
			}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"name": "provider", "type": "address"}],
		"name": "getEModes",
		"outputs": [
			{
				"components": [
					{"name": "id", "type": "uint8"},
					{
						"components": [
							{"name": "ltv", "type": "uint16"},
							{"name": "liquidationThreshold", "type": "uint16"},
							{"name": "liquidationBonus", "type": "uint16"},
							{"name": "collateralBitmap", "type": "uint128"},
							{"name": "label", "type": "string"},
							{"name": "borrowableBitmap", "type": "uint128"}
						],
						"name": "eMode",
						"type": "tuple"
					}
				],
				"name": "",
				"type": "tuple[]"
			}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`

// userReservesABI is the 4-field UserReserveData struct of v3.2+ deployments.
const userReservesABI = `[{
	"inputs": [
		{"name": "provider", "type": "address"},
		{"name": "user", "type": "address"}
	],
	"name": "getUserReservesData",
	"outputs": [
		{
			"components": [
				{"name": "underlyingAsset", "type": "address"},
				{"name": "scaledATokenBalance", "type": "uint256"},
				{"name": "usageAsCollateralEnabledOnUser", "type": "bool"},
				{"name": "scaledVariableDebt", "type": "uint256"}
			],
			"name": "",
			"type": "tuple[]"
		},
		{"name": "", "type": "uint8"}
	],
	"stateMutability": "view",
	"type": "function"
}]`

// legacyUserReservesABI is the 7-field struct that still carries stable debt.
const legacyUserReservesABI = `[{
	"inputs": [
		{"name": "provider", "type": "address"},
		{"name": "user", "type": "address"}
	],
	"name": "getUserReservesData",
	"outputs": [
		{
			"components": [
				{"name": "underlyingAsset", "type": "address"},
				{"name": "scaledATokenBalance", "type": "uint256"},
				{"name": "usageAsCollateralEnabledOnUser", "type": "bool"},
				{"name": "stableBorrowRate", "type": "uint256"},
				{"name": "scaledVariableDebt", "type": "uint256"},
				{"name": "principalStableDebt", "type": "uint256"},
				{"name": "stableBorrowLastUpdateTimestamp", "type": "uint256"}
			],
			"name": "",
			"type": "tuple[]"
		},
		{"name": "", "type": "uint8"}
	],
	"stateMutability": "view",
	"type": "function"
}]`
