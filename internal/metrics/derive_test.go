package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/PierreNiberon/0DTE/internal/dataset"
)

func quote(side dataset.Side, strike, bid, ask, last, close float64) dataset.OptionQuote {
	vol := int64(10)
	return dataset.OptionQuote{
		TradeDate:       dataset.NewDate(2025, time.March, 9),
		Side:            side,
		SourceID:        "test.csv",
		Strike:          strike,
		Bid:             bid,
		Ask:             ask,
		LastPrice:       last,
		Volume:          &vol,
		UnderlyingClose: close,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestIntrinsicValue(t *testing.T) {
	tests := []struct {
		name    string
		side    dataset.Side
		strike  float64
		close   float64
		want    float64
		wantITM bool
	}{
		{"call ITM", dataset.SideCall, 5000, 5005, 5, true},
		{"call OTM", dataset.SideCall, 5010, 5005, 0, false},
		{"call at spot", dataset.SideCall, 5005, 5005, 0, false},
		{"put ITM", dataset.SidePut, 5010, 5005, 5, true},
		{"put OTM", dataset.SidePut, 5000, 5005, 0, false},
		{"put at spot", dataset.SidePut, 5005, 5005, 0, false},
	}

	for _, tt := range tests {
		d := Derive(quote(tt.side, tt.strike, 1, 2, 1.5, tt.close))
		if !almostEqual(d.IntrinsicValue, tt.want) {
			t.Errorf("%s: expected intrinsic %g, got %g", tt.name, tt.want, d.IntrinsicValue)
		}
		if d.IsITM != tt.wantITM {
			t.Errorf("%s: expected is_itm %t, got %t", tt.name, tt.wantITM, d.IsITM)
		}
	}
}

func TestNegativeTimeValuePreserved(t *testing.T) {
	// Deep ITM call trading below intrinsic: intrinsic 50, last 45.
	d := Derive(quote(dataset.SideCall, 4955, 44, 46, 45, 5005))

	if !almostEqual(d.TimeValue, -5) {
		t.Errorf("expected time value -5 (not clamped), got %g", d.TimeValue)
	}
	if !almostEqual(d.ITMDiscount, 5) {
		t.Errorf("expected itm discount 5, got %g", d.ITMDiscount)
	}
}

func TestLiquidityCostDecomposition(t *testing.T) {
	// ITM call below intrinsic: discount + half-spread.
	d := Derive(quote(dataset.SideCall, 4955, 44, 46, 45, 5005))
	if !almostEqual(d.SpreadCost, 1) {
		t.Errorf("expected spread cost 1, got %g", d.SpreadCost)
	}
	if !almostEqual(d.EffectiveLiquidityCost, 6) {
		t.Errorf("expected effective cost 6, got %g", d.EffectiveLiquidityCost)
	}
	if d.EffectiveLiquidityCost < d.SpreadCost {
		t.Error("effective cost must not be below spread cost for ITM quotes")
	}
	if !almostEqual(d.MMProfitPerContract, 600) {
		t.Errorf("expected $600 per contract, got %g", d.MMProfitPerContract)
	}

	// OTM put: spread cost only.
	d = Derive(quote(dataset.SidePut, 5000, 7.5, 8.5, 8.0, 5005))
	if !almostEqual(d.EffectiveLiquidityCost, 0.5) {
		t.Errorf("expected effective cost 0.5, got %g", d.EffectiveLiquidityCost)
	}
	if d.ITMDiscount != 0 {
		t.Errorf("expected no itm discount OTM, got %g", d.ITMDiscount)
	}

	// ITM quote trading above intrinsic: discount zero, cost equals spread cost.
	d = Derive(quote(dataset.SideCall, 5000, 5.5, 6.5, 6.0, 5005))
	if !d.IsITM {
		t.Fatal("expected ITM")
	}
	if d.ITMDiscount != 0 {
		t.Errorf("expected zero discount, got %g", d.ITMDiscount)
	}
	if !almostEqual(d.EffectiveLiquidityCost, d.SpreadCost) {
		t.Errorf("expected cost == spread cost when discount is zero, got %g vs %g",
			d.EffectiveLiquidityCost, d.SpreadCost)
	}
}

func TestMoneynessAndMidPrice(t *testing.T) {
	d := Derive(quote(dataset.SideCall, 5000, 12.0, 13.0, 12.5, 5005))

	want := (5000.0 - 5005.0) / 5005.0
	if !almostEqual(d.Moneyness, want) {
		t.Errorf("expected moneyness %v, got %v", want, d.Moneyness)
	}
	if !almostEqual(d.MidPrice, 12.5) {
		t.Errorf("expected mid 12.5, got %g", d.MidPrice)
	}
	if !almostEqual(d.BidAskSpread, 1.0) {
		t.Errorf("expected spread 1.0, got %g", d.BidAskSpread)
	}
	if !almostEqual(d.LastVsMid, 0) {
		t.Errorf("expected last_vs_mid 0, got %g", d.LastVsMid)
	}
}

func TestLastVsMidZeroMid(t *testing.T) {
	d := Derive(quote(dataset.SideCall, 5100, 0, 0, 0.05, 5005))
	if d.LastVsMid != 0 {
		t.Errorf("expected last_vs_mid 0 when mid is 0, got %g", d.LastVsMid)
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		moneyness float64
		want      Category
	}{
		{0, CategoryATM},
		{0.0049, CategoryATM},
		{-0.0049, CategoryATM},
		{0.005, CategoryOTMCallITM},
		{0.01, CategoryOTMCallITM},
		{-0.005, CategoryITMCallOTM},
		{-0.02, CategoryITMCallOTM},
	}
	for _, tt := range tests {
		if got := Categorize(tt.moneyness); got != tt.want {
			t.Errorf("moneyness %g: expected %s, got %s", tt.moneyness, tt.want, got)
		}
	}
}

func TestDeriveAllEndToEnd(t *testing.T) {
	// The two-file scenario: one call and one put on the same strike/date.
	ds := &dataset.NormalizedDataset{
		Quotes: []dataset.OptionQuote{
			quote(dataset.SideCall, 5000, 12.0, 13.0, 12.5, 5005),
			quote(dataset.SidePut, 5000, 7.5, 8.5, 8.0, 5005),
		},
		Incomplete: map[string][]string{},
	}

	res := DeriveAll(ds)
	if len(res.Quotes) != 2 {
		t.Fatalf("expected 2 derived quotes, got %d", len(res.Quotes))
	}

	call, put := res.Quotes[0], res.Quotes[1]
	wantMoneyness := (5000.0 - 5005.0) / 5005.0 // ≈ -0.000999
	if !almostEqual(call.Moneyness, wantMoneyness) || !almostEqual(put.Moneyness, wantMoneyness) {
		t.Errorf("expected moneyness %v for both, got %v / %v", wantMoneyness, call.Moneyness, put.Moneyness)
	}
	if !almostEqual(call.IntrinsicValue, 5) || !call.IsITM {
		t.Errorf("expected call intrinsic 5 and ITM, got %g / %t", call.IntrinsicValue, call.IsITM)
	}
	if put.IntrinsicValue != 0 || put.IsITM {
		t.Errorf("expected put intrinsic 0 and OTM, got %g / %t", put.IntrinsicValue, put.IsITM)
	}
}

func TestDeriveAllExclusions(t *testing.T) {
	unknown := quote(dataset.SideUnknown, 5000, 1, 2, 1.5, 5005)
	fromBadSource := quote(dataset.SideCall, 5000, 1, 2, 1.5, 5005)
	fromBadSource.SourceID = "incomplete.csv"

	ds := &dataset.NormalizedDataset{
		Quotes:     []dataset.OptionQuote{unknown, fromBadSource},
		Incomplete: map[string][]string{"incomplete.csv": {"spx_close"}},
	}

	res := DeriveAll(ds)
	if len(res.Quotes) != 0 {
		t.Fatalf("expected all rows excluded, got %d", len(res.Quotes))
	}
	if res.Warnings.UnknownSideRows != 1 {
		t.Errorf("expected 1 unknown-side row, got %d", res.Warnings.UnknownSideRows)
	}
	if len(res.Warnings.ExcludedSources) != 1 || res.Warnings.ExcludedSources[0] != "incomplete.csv" {
		t.Errorf("expected incomplete.csv excluded, got %v", res.Warnings.ExcludedSources)
	}
}

func TestDeriveAllFlagsITMDisagreement(t *testing.T) {
	q := quote(dataset.SideCall, 5000, 12.0, 13.0, 12.5, 5005)
	q.InTheMoney = false // source disagrees with spot > strike

	ds := &dataset.NormalizedDataset{
		Quotes:     []dataset.OptionQuote{q},
		Incomplete: map[string][]string{},
	}

	res := DeriveAll(ds)
	if res.Warnings.ITMDisagreementCount != 1 {
		t.Fatalf("expected 1 disagreement, got %d", res.Warnings.ITMDisagreementCount)
	}
	d := res.Warnings.ITMDisagreements[0]
	if d.Ingested != false || d.Computed != true {
		t.Errorf("unexpected disagreement detail: %+v", d)
	}
	// The ingested flag must be preserved untouched on the quote.
	if res.Quotes[0].InTheMoney {
		t.Error("ingested flag must not be overwritten")
	}
	if !res.Quotes[0].IsITM {
		t.Error("computed is_itm must drive metrics")
	}
}
