// Package intent classifies chat messages for the crypto radar agent into a
// closed set of request kinds.
package intent

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidInput is returned for empty messages and malformed structured requests.
var ErrInvalidInput = errors.New("invalid input")

// Kind names a request variant. The values double as the wire "type" of the
// matching agent action.
type Kind string

const (
	KindCreateAlert Kind = "createOnchainAlert"
	KindPriceLookup Kind = "getCryptoPrice"
	KindListAlerts  Kind = "listOnchainAlerts"
	KindHelp        Kind = "help"
)

// Request is one of CreateAlert, PriceLookup, ListAlerts or Help.
type Request interface {
	Kind() Kind
}

type CreateAlert struct {
	Symbol         string  `json:"symbol" validate:"required,alpha,min=2,max=10"`
	Direction      string  `json:"direction,omitempty"`
	IsAbove        bool    `json:"isAbove"`
	TargetPriceUSD float64 `json:"targetPriceUsd" validate:"gte=0"`
}

type PriceLookup struct {
	Symbol string `json:"symbol" validate:"required,alpha,min=2,max=10"`
}

// ListAlerts carries the owner address found in the message, or "" when the
// message named none.
type ListAlerts struct {
	Owner string `json:"owner"`
}

type Help struct{}

func (CreateAlert) Kind() Kind { return KindCreateAlert }
func (PriceLookup) Kind() Kind { return KindPriceLookup }
func (ListAlerts) Kind() Kind  { return KindListAlerts }
func (Help) Kind() Kind        { return KindHelp }

var validate = validator.New(validator.WithRequiredStructEnabled())

// Decode parses a structured request of the form {"type": "...", ...} into the
// same variants Classify produces.
func Decode(raw json.RawMessage) (Request, error) {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	switch head.Type {
	case KindCreateAlert:
		var r CreateAlert
		if err := decodeInto(raw, &r); err != nil {
			return nil, err
		}
		if math.IsInf(r.TargetPriceUSD, 0) || math.IsNaN(r.TargetPriceUSD) {
			return nil, fmt.Errorf("%w: targetPriceUsd must be finite", ErrInvalidInput)
		}
		r.Symbol = strings.ToUpper(r.Symbol)
		r.Direction = "below"
		if r.IsAbove {
			r.Direction = "above"
		}
		return r, nil
	case KindPriceLookup:
		var r PriceLookup
		if err := decodeInto(raw, &r); err != nil {
			return nil, err
		}
		r.Symbol = strings.ToUpper(r.Symbol)
		return r, nil
	case KindListAlerts:
		var r ListAlerts
		if err := decodeInto(raw, &r); err != nil {
			return nil, err
		}
		return r, nil
	case KindHelp:
		return Help{}, nil
	case "":
		return nil, fmt.Errorf("%w: missing action type", ErrInvalidInput)
	default:
		return nil, fmt.Errorf("%w: unknown action type %q", ErrInvalidInput, head.Type)
	}
}

func decodeInto(raw json.RawMessage, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
