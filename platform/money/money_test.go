package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestJSONIsANumberWithTwoDecimals(t *testing.T) {
	out, err := json.Marshal(map[string]any{
		"a": JSON(decimal.RequireFromString("12.5")),
		"b": JSONPtr(nil),
		"c": Rate(decimal.RequireFromString("0.0550")),
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"a":12.50,"b":null,"c":0.055}` {
		t.Fatalf("unexpected json %s", out)
	}
}

func TestPriceKeepsSubCentPrecision(t *testing.T) {
	precise := decimal.RequireFromString("0.125")
	out, err := json.Marshal(map[string]any{
		"a": Price(decimal.RequireFromString("12.5")),
		"b": PricePtr(&precise),
		"c": PricePtr(nil),
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"a":12.50,"b":0.125,"c":null}` {
		t.Fatalf("unexpected json %s", out)
	}
}
