package intent

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	createAlertRe = regexp.MustCompile(`(?i)alert(?: for)?\s+([a-zA-Z]{2,10})\s+(above|below|over|under|greater than|less than)\s+([\d.]+)`)
	priceRe       = regexp.MustCompile(`(?i)price(?: of)?\s+([a-zA-Z]{2,10})`)
	listAlertsRe  = regexp.MustCompile(`(?i)show my alerts|list alerts|my alerts`)
	ownerRe       = regexp.MustCompile(`0x[a-fA-F0-9]{40}`)
)

// Classify maps a chat message to exactly one Request. Rules are tried in
// order and the first match wins; anything unmatched is Help.
func Classify(message string) (Request, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrInvalidInput
	}

	if r, ok := matchCreateAlert(message); ok {
		return r, nil
	}
	if m := priceRe.FindStringSubmatch(message); m != nil {
		return PriceLookup{Symbol: strings.ToUpper(m[1])}, nil
	}
	if listAlertsRe.MatchString(message) {
		return ListAlerts{Owner: ownerRe.FindString(message)}, nil
	}
	return Help{}, nil
}

func matchCreateAlert(message string) (CreateAlert, bool) {
	m := createAlertRe.FindStringSubmatch(message)
	if m == nil {
		return CreateAlert{}, false
	}
	price, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		// "1.2.3" and similar fall through to the next rule.
		return CreateAlert{}, false
	}
	direction := strings.ToLower(m[2])
	return CreateAlert{
		Symbol:         strings.ToUpper(m[1]),
		Direction:      direction,
		IsAbove:        direction == "above" || direction == "over" || direction == "greater than",
		TargetPriceUSD: price,
	}, true
}
