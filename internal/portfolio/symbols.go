package portfolio

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Aave V3 Base reserves, keyed by lower-case underlying asset.
var defaultSymbols = map[string]string{
	"0x4200000000000000000000000000000000000006": "WETH",
	"0x2ae3f1ec7f1f5012cfeab0185bfc7aa3cf0dec22": "cbETH",
	"0xd9aaec86b65d86f6a7b5b1b0c42ffa531710b6ca": "USDbC",
	"0xc1cba3fcea344f92d9239c08c0568f6f2f0ee452": "wstETH",
	"0x833589fcd6edb6e08f4c7c32d4f71b54bda02913": "USDC",
	"0x04c0599ae5a44757c0af6f9ec3b93da8976c150a": "weETH",
	"0xcbb7c0000ab88b473b1f5afd9ef808440eed33bf": "cbBTC",
	"0x2416092f143378750bb29b79ed961ab195cceea5": "ezETH",
	"0x6bb7a212910682dcfdbd5bcbb3e28fb4e8da10ee": "GHO",
	"0xedfa23602d0ec14714057867a78d01e94176bea0": "wrsETH",
	"0xecac9c5f704e954931349da37f60e39f515c11c1": "LBTC",
	"0x60a3e35cc302bfa44cb288bc5a4f316fdb1adb42": "EURC",
}

// Symbols maps lower-case asset addresses to display symbols.
type Symbols map[string]string

// DefaultSymbols returns a copy of the built-in table.
func DefaultSymbols() Symbols {
	return NewSymbols(nil)
}

// NewSymbols returns the built-in table with overrides applied on top.
func NewSymbols(overrides map[string]string) Symbols {
	s := make(Symbols, len(defaultSymbols)+len(overrides))
	for k, v := range defaultSymbols {
		s[k] = v
	}
	for k, v := range overrides {
		s[strings.ToLower(k)] = v
	}
	return s
}

// Lookup returns the symbol for asset, or its lower-case address when the
// asset is unknown.
func (s Symbols) Lookup(asset common.Address) string {
	key := strings.ToLower(asset.Hex())
	if sym, ok := s[key]; ok {
		return sym
	}
	return key
}
