// Package price looks up USD spot prices for a closed set of crypto symbols.
package price

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedSymbol matches any UnsupportedSymbolError.
var ErrUnsupportedSymbol = errors.New("unsupported symbol")

// UnsupportedSymbolError names a symbol missing from the lookup table.
type UnsupportedSymbolError struct {
	Symbol string
}

func (e *UnsupportedSymbolError) Error() string {
	return fmt.Sprintf("Unsupported symbol %s. Try AVAX, BTC, ETH, or SOL.", e.Symbol)
}

func (e *UnsupportedSymbolError) Is(target error) bool {
	return target == ErrUnsupportedSymbol
}

var coinIDs = map[string]string{
	"AVAX": "avalanche-2",
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"SOL":  "solana",
}

// LookupID returns the CoinGecko id for symbol, case-insensitively.
func LookupID(symbol string) (string, error) {
	id, ok := coinIDs[strings.ToUpper(symbol)]
	if !ok {
		return "", &UnsupportedSymbolError{Symbol: symbol}
	}
	return id, nil
}
