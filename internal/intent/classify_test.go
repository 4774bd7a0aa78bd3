package intent

import (
	"errors"
	"reflect"
	"testing"
)

func TestClassify(t *testing.T) {
	owner := "0x1234567890abcdef1234567890ABCDEF12345678"

	tests := []struct {
		name    string
		message string
		want    Request
	}{
		{"price of", "Price of AVAX", PriceLookup{Symbol: "AVAX"}},
		{"price lowercase", "what's the price eth", PriceLookup{Symbol: "ETH"}},
		{"create above", "Create alert for AVAX above 50", CreateAlert{Symbol: "AVAX", Direction: "above", IsAbove: true, TargetPriceUSD: 50}},
		{"create under", "alert for BTC under 20000", CreateAlert{Symbol: "BTC", Direction: "under", IsAbove: false, TargetPriceUSD: 20000}},
		{"create greater than", "set an ALERT sol greater than 12.5", CreateAlert{Symbol: "SOL", Direction: "greater than", IsAbove: true, TargetPriceUSD: 12.5}},
		{"create less than", "alert eth less than 1800", CreateAlert{Symbol: "ETH", Direction: "less than", IsAbove: false, TargetPriceUSD: 1800}},
		{"create beats price", "alert for AVAX over 30 when price of AVAX moves", CreateAlert{Symbol: "AVAX", Direction: "over", IsAbove: true, TargetPriceUSD: 30}},
		{"bad number falls through", "alert for AVAX above 1.2.3", Help{}},
		{"bad number falls to price", "alert for AVAX above 1.2.3 price of BTC", PriceLookup{Symbol: "BTC"}},
		{"list with owner", "Show my alerts " + owner, ListAlerts{Owner: owner}},
		{"list without owner", "list alerts please", ListAlerts{}},
		{"list short address", "my alerts 0xabc", ListAlerts{}},
		{"help", "hello there", Help{}},
		{"trimmed", "   Price of btc  ", PriceLookup{Symbol: "BTC"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.message)
			if err != nil {
				t.Fatalf("Classify(%q) error: %v", tt.message, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Classify(%q) = %#v, want %#v", tt.message, got, tt.want)
			}
		})
	}
}

func TestClassify_Empty(t *testing.T) {
	for _, msg := range []string{"", "   ", "\n\t"} {
		if _, err := Classify(msg); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Classify(%q) error = %v, want ErrInvalidInput", msg, err)
		}
	}
}

func TestClassify_PriceNeverCreatesAlert(t *testing.T) {
	got, err := Classify("Price of AVAX")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.Kind() != KindPriceLookup {
		t.Errorf("Kind = %s, want %s", got.Kind(), KindPriceLookup)
	}
}
