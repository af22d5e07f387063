package metrics

import (
	"math"

	"github.com/PierreNiberon/0DTE/internal/dataset"
)

// ContractMultiplier converts a per-unit liquidity cost into dollars per
// contract. Index option contracts carry a fixed 100x multiplier; this is a
// design constant, not derived from data.
const ContractMultiplier = 100.0

// atmBand is the |moneyness| band treated as at-the-money.
const atmBand = 0.005

// Category buckets a quote by moneyness sign. The bucketing is side-agnostic:
// positive moneyness is OTM for a call and ITM for a put, so consumers must
// pair it with the quote's side.
type Category string

const (
	CategoryATM        Category = "ATM"
	CategoryOTMCallITM Category = "OTM_Call/ITM_Put"
	CategoryITMCallOTM Category = "ITM_Call/OTM_Put"
)

// DerivedQuote is an OptionQuote plus the computed pricing and liquidity
// columns. Every derived field is a pure function of the quote and its
// date's underlying close; no cross-date state is involved.
type DerivedQuote struct {
	dataset.OptionQuote

	Moneyness              float64  `csv:"moneyness"`
	IntrinsicValue         float64  `csv:"intrinsic_value"`
	TimeValue              float64  `csv:"time_value"`
	IsITM                  bool     `csv:"is_itm"`
	BidAskSpread           float64  `csv:"bid_ask_spread"`
	MidPrice               float64  `csv:"mid_price"`
	LastVsMid              float64  `csv:"last_vs_mid"`
	ITMDiscount            float64  `csv:"itm_discount"`
	SpreadCost             float64  `csv:"spread_cost"`
	EffectiveLiquidityCost float64  `csv:"effective_liquidity_cost"`
	MoneynessCategory      Category `csv:"moneyness_category"`
	MMProfitPerContract    float64  `csv:"market_maker_profit_per_contract"`
}

// Derive computes the derived columns for one quote. Negative time value is
// preserved, not clamped: it is a real signal of mispricing or stale quotes.
func Derive(q dataset.OptionQuote) DerivedQuote {
	d := DerivedQuote{OptionQuote: q}

	d.Moneyness = (q.Strike - q.UnderlyingClose) / q.UnderlyingClose

	switch q.Side {
	case dataset.SideCall:
		d.IntrinsicValue = math.Max(q.UnderlyingClose-q.Strike, 0)
		d.IsITM = q.UnderlyingClose > q.Strike
	case dataset.SidePut:
		d.IntrinsicValue = math.Max(q.Strike-q.UnderlyingClose, 0)
		d.IsITM = q.Strike > q.UnderlyingClose
	}

	d.TimeValue = q.LastPrice - d.IntrinsicValue
	d.BidAskSpread = q.Ask - q.Bid
	d.MidPrice = (q.Bid + q.Ask) / 2

	if d.MidPrice > 0 {
		d.LastVsMid = (d.MidPrice - q.LastPrice) / d.MidPrice
	}

	if d.IsITM && d.IntrinsicValue > 0 {
		d.ITMDiscount = math.Max(0, d.IntrinsicValue-q.LastPrice)
	}
	d.SpreadCost = d.BidAskSpread / 2

	if d.IsITM {
		d.EffectiveLiquidityCost = d.ITMDiscount + d.SpreadCost
	} else {
		d.EffectiveLiquidityCost = d.SpreadCost
	}

	d.MoneynessCategory = Categorize(d.Moneyness)
	d.MMProfitPerContract = d.EffectiveLiquidityCost * ContractMultiplier

	return d
}

// Categorize buckets a moneyness value.
func Categorize(moneyness float64) Category {
	switch {
	case math.Abs(moneyness) < atmBand:
		return CategoryATM
	case moneyness > 0:
		return CategoryOTMCallITM
	default:
		return CategoryITMCallOTM
	}
}

// ITMDisagreement records a quote whose ingested inTheMoney flag contradicts
// the independently computed is_itm. Neither value is corrected; the
// computed one drives metrics and the disagreement is surfaced here.
type ITMDisagreement struct {
	Key      string
	SourceID string
	Ingested bool
	Computed bool
}

// maxDisagreementDetail caps the per-quote detail kept in a Result; the full
// count is always reported.
const maxDisagreementDetail = 50

// Warnings collects the non-fatal conditions found during derivation.
type Warnings struct {
	// ExcludedSources lists sources dropped from derivation because required
	// columns were absent. Their rows stay in the normalized table.
	ExcludedSources []string

	// UnknownSideRows counts rows skipped because no side token matched their
	// source name; intrinsic value is undefined without a side.
	UnknownSideRows int

	// ITMDisagreementCount is the total number of flag mismatches;
	// ITMDisagreements holds at most maxDisagreementDetail of them.
	ITMDisagreementCount int
	ITMDisagreements     []ITMDisagreement
}

// Result is the output of the derivation stage.
type Result struct {
	Quotes   []DerivedQuote
	Warnings Warnings
}

// DeriveAll derives metrics for every eligible quote in the dataset.
// Row-wise derivation is stateless and order-independent; output order
// matches input order.
func DeriveAll(ds *dataset.NormalizedDataset) *Result {
	res := &Result{Quotes: make([]DerivedQuote, 0, len(ds.Quotes))}

	for src := range ds.Incomplete {
		res.Warnings.ExcludedSources = append(res.Warnings.ExcludedSources, src)
	}

	for _, q := range ds.Quotes {
		if _, incomplete := ds.Incomplete[q.SourceID]; incomplete {
			continue
		}
		if q.Side == dataset.SideUnknown {
			res.Warnings.UnknownSideRows++
			continue
		}

		d := Derive(q)
		if d.IsITM != q.InTheMoney {
			res.Warnings.ITMDisagreementCount++
			if len(res.Warnings.ITMDisagreements) < maxDisagreementDetail {
				res.Warnings.ITMDisagreements = append(res.Warnings.ITMDisagreements, ITMDisagreement{
					Key:      q.Key(),
					SourceID: q.SourceID,
					Ingested: q.InTheMoney,
					Computed: d.IsITM,
				})
			}
		}
		res.Quotes = append(res.Quotes, d)
	}

	return res
}
