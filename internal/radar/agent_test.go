package radar

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalambet/coach/internal/intent"
	"github.com/kalambet/coach/internal/ledger"
	"github.com/kalambet/coach/internal/metrics"
	"github.com/kalambet/coach/internal/price"
)

const owner = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"

type fakePrices struct {
	usd   float64
	err   error
	calls int
}

func (f *fakePrices) PriceUSD(_ context.Context, symbol string) (float64, error) {
	f.calls++
	if _, err := price.LookupID(symbol); err != nil {
		return 0, err
	}
	return f.usd, f.err
}

type fakeLedger struct {
	alerts  []ledger.Alert
	hash    string
	err     error
	created []intent.CreateAlert
	owners  []string
}

func (f *fakeLedger) AlertsByOwner(_ context.Context, o string) ([]ledger.Alert, error) {
	f.owners = append(f.owners, o)
	return f.alerts, f.err
}

func (f *fakeLedger) CreateAlert(_ context.Context, symbol string, target float64, isAbove bool) (string, error) {
	f.created = append(f.created, intent.CreateAlert{Symbol: symbol, TargetPriceUSD: target, IsAbove: isAbove})
	return f.hash, f.err
}

func TestAsk_Price(t *testing.T) {
	prices := &fakePrices{usd: 1234.5678}
	a := NewAgent(prices, &fakeLedger{})

	resp, err := a.Ask(context.Background(), "Price of AVAX")
	require.NoError(t, err)
	assert.Equal(t, "AVAX is trading at $1,234.568 USD right now.", resp.Reply)
	require.Len(t, resp.Actions, 1)
	assert.Equal(t, intent.KindPriceLookup, resp.Actions[0].Type)
	assert.Equal(t, 1234.5678, resp.Actions[0].PriceUSD)
}

func TestAsk_PriceUnsupported(t *testing.T) {
	a := NewAgent(&fakePrices{}, &fakeLedger{})

	_, err := a.Ask(context.Background(), "price of DOGE")
	require.ErrorIs(t, err, price.ErrUnsupportedSymbol)
	assert.EqualError(t, err, "Unsupported symbol DOGE. Try AVAX, BTC, ETH, or SOL.")
}

func TestAsk_CreateAlert(t *testing.T) {
	l := &fakeLedger{hash: "0xabc123"}
	a := NewAgent(&fakePrices{}, l)

	resp, err := a.Ask(context.Background(), "Create alert for AVAX above 50")
	require.NoError(t, err)
	assert.Equal(t, "Created an alert for AVAX above $50. Transaction: 0xabc123", resp.Reply)
	require.Len(t, l.created, 1)
	assert.Equal(t, intent.CreateAlert{Symbol: "AVAX", TargetPriceUSD: 50, IsAbove: true}, l.created[0])

	raw, err := json.Marshal(resp.Actions[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"createOnchainAlert","symbol":"AVAX","targetPriceUsd":50,"isAbove":true,"txHash":"0xabc123"}`, string(raw))
}

func TestAsk_CreateAlertBelowFraction(t *testing.T) {
	l := &fakeLedger{hash: "0xdef"}
	a := NewAgent(&fakePrices{}, l)

	resp, err := a.Ask(context.Background(), "alert for btc under 20000.5")
	require.NoError(t, err)
	assert.Equal(t, "Created an alert for BTC below $20000.5. Transaction: 0xdef", resp.Reply)
}

func TestAsk_CreateAlertUnsupportedSymbolSkipsLedger(t *testing.T) {
	l := &fakeLedger{hash: "0x1"}
	a := NewAgent(&fakePrices{}, l)

	_, err := a.Ask(context.Background(), "alert for DOGE above 1")
	require.ErrorIs(t, err, price.ErrUnsupportedSymbol)
	assert.Empty(t, l.created)
}

func TestAsk_CreateAlertConfigurationError(t *testing.T) {
	l := &fakeLedger{err: &ledger.ConfigurationError{Msg: "PRIVATE_KEY is not set."}}
	a := NewAgent(&fakePrices{}, l)

	_, err := a.Ask(context.Background(), "alert for ETH above 3000")
	require.ErrorIs(t, err, ledger.ErrConfiguration)
	assert.EqualError(t, err, "PRIVATE_KEY is not set.")
}

func TestAsk_ListAlerts(t *testing.T) {
	l := &fakeLedger{alerts: []ledger.Alert{
		{Owner: common.HexToAddress(owner), Symbol: "AVAX", TargetPriceUsd: big.NewInt(50), IsAbove: true, CreatedAt: big.NewInt(1700000000), Active: true},
	}}
	a := NewAgent(&fakePrices{}, l)

	resp, err := a.Ask(context.Background(), "show my alerts "+owner)
	require.NoError(t, err)
	assert.Equal(t, "Found 1 alert(s) for "+owner+".", resp.Reply)
	require.Len(t, resp.Actions, 1)
	assert.Equal(t, owner, resp.Actions[0].Owner)
	assert.Equal(t, "50", resp.Actions[0].Alerts[0].TargetPriceUsd)
	assert.Equal(t, []string{owner}, l.owners)
}

func TestAsk_ListAlertsNone(t *testing.T) {
	a := NewAgent(&fakePrices{}, &fakeLedger{})

	resp, err := a.Ask(context.Background(), "my alerts "+owner)
	require.NoError(t, err)
	assert.Equal(t, "No alerts found for that address yet.", resp.Reply)

	raw, err := json.Marshal(resp.Actions[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"listOnchainAlerts","owner":"`+owner+`","alerts":[]}`, string(raw))
}

func TestAsk_ListAlertsNeedsAddress(t *testing.T) {
	l := &fakeLedger{}
	a := NewAgent(&fakePrices{}, l)

	for _, msg := range []string{"show my alerts", "list alerts 0xabc", "my alerts 0x70997970C51812dc3a010C7d01b50e0d17dc79C8"} {
		resp, err := a.Ask(context.Background(), msg)
		require.NoError(t, err, msg)
		assert.Equal(t, "Please include the wallet address you want to inspect, e.g. `show my alerts 0xabc...`.", resp.Reply, msg)
		assert.Empty(t, resp.Actions, msg)
	}
	assert.Empty(t, l.owners)
}

func TestAsk_Help(t *testing.T) {
	a := NewAgent(&fakePrices{}, &fakeLedger{})

	resp, err := a.Ask(context.Background(), "what can you do?")
	require.NoError(t, err)
	assert.Equal(t, "I can fetch prices, create alerts, or list alerts. Try: `Price of AVAX`, `Create alert for AVAX above 50`, or `Show my alerts 0x...`.", resp.Reply)
	assert.Nil(t, resp.Actions)
}

func TestAsk_Empty(t *testing.T) {
	a := NewAgent(&fakePrices{}, &fakeLedger{})

	_, err := a.Ask(context.Background(), "   ")
	assert.ErrorIs(t, err, intent.ErrInvalidInput)
}

func TestHandle_UpstreamErrorCounted(t *testing.T) {
	prices := &fakePrices{err: price.ErrFetch}
	a := NewAgent(prices, &fakeLedger{})

	before := testutil.ToFloat64(metrics.RadarActions.WithLabelValues(string(intent.KindPriceLookup), metrics.ResultError))
	_, err := a.Handle(context.Background(), intent.PriceLookup{Symbol: "ETH"})
	require.True(t, errors.Is(err, price.ErrFetch))
	after := testutil.ToFloat64(metrics.RadarActions.WithLabelValues(string(intent.KindPriceLookup), metrics.ResultError))
	assert.Equal(t, before+1, after)
}

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{31.42, "31.42"},
		{1234.5678, "1,234.568"},
		{63250, "63,250"},
		{0.000123, "0"},
		{1234567.1, "1,234,567.1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatUSD(tt.in), tt.in)
	}
}
