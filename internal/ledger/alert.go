package ledger

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Alert is one on-chain price alert as returned by getAlertsByOwner. Field
// names mirror the ABI tuple components.
type Alert struct {
	Owner          common.Address
	Symbol         string
	TargetPriceUsd *big.Int
	IsAbove        bool
	CreatedAt      *big.Int
	Active         bool
}

// AlertRecord is the JSON form of an Alert. Integers are decimal strings so
// no precision is lost for uint256 values.
type AlertRecord struct {
	Owner          string `json:"owner"`
	Symbol         string `json:"symbol"`
	TargetPriceUsd string `json:"targetPriceUsd"`
	IsAbove        bool   `json:"isAbove"`
	CreatedAt      string `json:"createdAt"`
	Active         bool   `json:"active"`
}

func (a Alert) Serialize() AlertRecord {
	return AlertRecord{
		Owner:          a.Owner.Hex(),
		Symbol:         a.Symbol,
		TargetPriceUsd: decimal(a.TargetPriceUsd),
		IsAbove:        a.IsAbove,
		CreatedAt:      decimal(a.CreatedAt),
		Active:         a.Active,
	}
}

// SerializeAll converts alerts, returning an empty non-nil slice for none.
func SerializeAll(alerts []Alert) []AlertRecord {
	out := make([]AlertRecord, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.Serialize())
	}
	return out
}

func decimal(n *big.Int) string {
	if n == nil {
		return "0"
	}
	return n.String()
}

// ValidAddress reports whether s is a 0x-prefixed 20-byte hex address. Mixed
// case input must carry a correct EIP-55 checksum.
func ValidAddress(s string) bool {
	if len(s) != 42 || s[:2] != "0x" || !common.IsHexAddress(s) {
		return false
	}
	body := s[2:]
	if strings.ToLower(body) == body || strings.ToUpper(body) == body {
		return true
	}
	return common.HexToAddress(s).Hex() == "0x"+body
}
