// Package radar answers crypto radar chat requests: price lookups and
// on-chain price alert management.
package radar

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/kalambet/coach/internal/intent"
	"github.com/kalambet/coach/internal/ledger"
	"github.com/kalambet/coach/internal/metrics"
	"github.com/kalambet/coach/internal/price"
)

const (
	replyNeedAddress = "Please include the wallet address you want to inspect, e.g. `show my alerts 0xabc...`."
	replyNoAlerts    = "No alerts found for that address yet."
	replyHelp        = "I can fetch prices, create alerts, or list alerts. Try: `Price of AVAX`, `Create alert for AVAX above 50`, or `Show my alerts 0x...`."
)

// PriceSource returns USD spot prices.
type PriceSource interface {
	PriceUSD(ctx context.Context, symbol string) (float64, error)
}

// Ledger reads and writes on-chain alerts.
type Ledger interface {
	AlertsByOwner(ctx context.Context, owner string) ([]ledger.Alert, error)
	CreateAlert(ctx context.Context, symbol string, targetUSD float64, isAbove bool) (string, error)
}

// Action describes one external call the agent made. Only the fields of the
// matching Type are meaningful.
type Action struct {
	Type intent.Kind `json:"type"`

	Symbol         string  `json:"symbol"`
	PriceUSD       float64 `json:"priceUsd"`
	TargetPriceUSD float64 `json:"targetPriceUsd"`
	IsAbove        bool    `json:"isAbove"`
	TxHash         string  `json:"txHash"`

	Owner  string               `json:"owner"`
	Alerts []ledger.AlertRecord `json:"alerts"`
}

// MarshalJSON emits only the fields that belong to the action type.
func (a Action) MarshalJSON() ([]byte, error) {
	switch a.Type {
	case intent.KindPriceLookup:
		return json.Marshal(struct {
			Type     intent.Kind `json:"type"`
			Symbol   string      `json:"symbol"`
			PriceUSD float64     `json:"priceUsd"`
		}{a.Type, a.Symbol, a.PriceUSD})
	case intent.KindCreateAlert:
		return json.Marshal(struct {
			Type           intent.Kind `json:"type"`
			Symbol         string      `json:"symbol"`
			TargetPriceUSD float64     `json:"targetPriceUsd"`
			IsAbove        bool        `json:"isAbove"`
			TxHash         string      `json:"txHash"`
		}{a.Type, a.Symbol, a.TargetPriceUSD, a.IsAbove, a.TxHash})
	case intent.KindListAlerts:
		alerts := a.Alerts
		if alerts == nil {
			alerts = []ledger.AlertRecord{}
		}
		return json.Marshal(struct {
			Type   intent.Kind          `json:"type"`
			Owner  string               `json:"owner"`
			Alerts []ledger.AlertRecord `json:"alerts"`
		}{a.Type, a.Owner, alerts})
	default:
		return json.Marshal(struct {
			Type intent.Kind `json:"type"`
		}{a.Type})
	}
}

type Response struct {
	Reply   string   `json:"reply"`
	Actions []Action `json:"actions,omitempty"`
}

// Agent dispatches classified requests. It keeps no state between calls.
type Agent struct {
	prices PriceSource
	ledger Ledger
}

func NewAgent(prices PriceSource, l Ledger) *Agent {
	return &Agent{prices: prices, ledger: l}
}

// Ask classifies a free-text message and handles it.
func (a *Agent) Ask(ctx context.Context, message string) (Response, error) {
	req, err := intent.Classify(message)
	if err != nil {
		return Response{}, err
	}
	return a.Handle(ctx, req)
}

// Handle performs the request and builds the reply.
func (a *Agent) Handle(ctx context.Context, req intent.Request) (resp Response, err error) {
	if req == nil {
		return Response{}, intent.ErrInvalidInput
	}
	defer func() {
		result := metrics.ResultOK
		if err != nil {
			result = metrics.ResultError
		}
		metrics.RadarActions.WithLabelValues(string(req.Kind()), result).Inc()
	}()

	switch r := req.(type) {
	case intent.CreateAlert:
		return a.createAlert(ctx, r)
	case intent.PriceLookup:
		return a.lookupPrice(ctx, r)
	case intent.ListAlerts:
		return a.listAlerts(ctx, r)
	case intent.Help:
		return Response{Reply: replyHelp}, nil
	default:
		return Response{}, fmt.Errorf("%w: unhandled request %T", intent.ErrInvalidInput, req)
	}
}

func (a *Agent) createAlert(ctx context.Context, r intent.CreateAlert) (Response, error) {
	if _, err := price.LookupID(r.Symbol); err != nil {
		return Response{}, err
	}
	hash, err := a.ledger.CreateAlert(ctx, r.Symbol, r.TargetPriceUSD, r.IsAbove)
	if err != nil {
		return Response{}, err
	}
	slog.Info("alert created", "symbol", r.Symbol, "target", r.TargetPriceUSD, "above", r.IsAbove, "tx", hash)

	direction := "below"
	if r.IsAbove {
		direction = "above"
	}
	return Response{
		Reply: fmt.Sprintf("Created an alert for %s %s $%s. Transaction: %s",
			r.Symbol, direction, strconv.FormatFloat(r.TargetPriceUSD, 'f', -1, 64), hash),
		Actions: []Action{{
			Type:           intent.KindCreateAlert,
			Symbol:         r.Symbol,
			TargetPriceUSD: r.TargetPriceUSD,
			IsAbove:        r.IsAbove,
			TxHash:         hash,
		}},
	}, nil
}

func (a *Agent) lookupPrice(ctx context.Context, r intent.PriceLookup) (Response, error) {
	usd, err := a.prices.PriceUSD(ctx, r.Symbol)
	if err != nil {
		return Response{}, err
	}
	return Response{
		Reply:   fmt.Sprintf("%s is trading at $%s USD right now.", r.Symbol, FormatUSD(usd)),
		Actions: []Action{{Type: intent.KindPriceLookup, Symbol: r.Symbol, PriceUSD: usd}},
	}, nil
}

func (a *Agent) listAlerts(ctx context.Context, r intent.ListAlerts) (Response, error) {
	if !ledger.ValidAddress(r.Owner) {
		return Response{Reply: replyNeedAddress}, nil
	}
	alerts, err := a.ledger.AlertsByOwner(ctx, r.Owner)
	if err != nil {
		return Response{}, err
	}
	records := ledger.SerializeAll(alerts)

	reply := replyNoAlerts
	if len(records) > 0 {
		reply = fmt.Sprintf("Found %d alert(s) for %s.", len(records), r.Owner)
	}
	return Response{
		Reply:   reply,
		Actions: []Action{{Type: intent.KindListAlerts, Owner: r.Owner, Alerts: records}},
	}, nil
}

// FormatUSD renders v with thousands separators and at most three fraction
// digits, e.g. 1234.5678 -> "1,234.568".
func FormatUSD(v float64) string {
	return humanize.Commaf(math.Round(v*1000) / 1000)
}
