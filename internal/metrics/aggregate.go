package metrics

import (
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/PierreNiberon/0DTE/internal/dataset"
)

// WeightedAvg is a volume-weighted average. Valid is false when the group's
// total volume is zero: the average is undefined there and must surface as
// missing rather than 0/0 leaking into further arithmetic.
type WeightedAvg struct {
	Value float64
	Valid bool
}

// VolumeWeighted computes Σ(value_i × volume_i) / Σ(volume_i) over quotes,
// with value extracted per quote. Missing volumes count as zero here, at
// aggregation time.
func VolumeWeighted(quotes []DerivedQuote, value func(DerivedQuote) float64) WeightedAvg {
	var sum float64
	var vol int64
	for _, q := range quotes {
		v := q.VolumeOrZero()
		sum += value(q) * float64(v)
		vol += v
	}
	if vol == 0 {
		return WeightedAvg{}
	}
	return WeightedAvg{Value: sum / float64(vol), Valid: true}
}

// SideSummary aggregates liquidity costs for one option side. MeanIV covers
// only the quotes whose source recorded an implied volatility.
type SideSummary struct {
	Side         dataset.Side
	Count        int
	TotalVolume  int64
	WeightedCost WeightedAvg
	MeanCost     float64
	MedianCost   float64
	MeanSpread   float64
	MeanIV       float64
	MMProfit     float64
}

// CategorySummary aggregates liquidity costs for one (side, moneyness
// category) group.
type CategorySummary struct {
	Side            dataset.Side
	Category        Category
	Count           int
	TotalVolume     int64
	WeightedCost    WeightedAvg
	MeanITMDiscount float64
	MeanSpreadCost  float64
}

var sideOrder = []dataset.Side{dataset.SideCall, dataset.SidePut}

var categoryOrder = []Category{CategoryATM, CategoryOTMCallITM, CategoryITMCallOTM}

// SummarizeBySide groups quotes by side in fixed order (calls, puts).
func SummarizeBySide(quotes []DerivedQuote) []SideSummary {
	groups := make(map[dataset.Side][]DerivedQuote)
	for _, q := range quotes {
		groups[q.Side] = append(groups[q.Side], q)
	}

	var out []SideSummary
	for _, side := range sideOrder {
		g := groups[side]
		if len(g) == 0 {
			continue
		}
		s := SideSummary{
			Side:         side,
			Count:        len(g),
			WeightedCost: VolumeWeighted(g, effectiveCost),
		}
		var costs, spreads, ivs []float64
		for _, q := range g {
			s.TotalVolume += q.VolumeOrZero()
			s.MMProfit += q.MMProfitPerContract * float64(q.VolumeOrZero())
			costs = append(costs, q.EffectiveLiquidityCost)
			spreads = append(spreads, q.BidAskSpread)
			if q.ImpliedVolatility != nil {
				ivs = append(ivs, *q.ImpliedVolatility)
			}
		}
		s.MeanCost, _ = stats.Mean(costs)
		s.MedianCost, _ = stats.Median(costs)
		s.MeanSpread, _ = stats.Mean(spreads)
		if len(ivs) > 0 {
			s.MeanIV, _ = stats.Mean(ivs)
		}
		out = append(out, s)
	}
	return out
}

// SummarizeByCategory groups quotes by (side, moneyness category) in fixed
// order.
func SummarizeByCategory(quotes []DerivedQuote) []CategorySummary {
	type key struct {
		side dataset.Side
		cat  Category
	}
	groups := make(map[key][]DerivedQuote)
	for _, q := range quotes {
		k := key{q.Side, q.MoneynessCategory}
		groups[k] = append(groups[k], q)
	}

	var out []CategorySummary
	for _, side := range sideOrder {
		for _, cat := range categoryOrder {
			g := groups[key{side, cat}]
			if len(g) == 0 {
				continue
			}
			s := CategorySummary{
				Side:         side,
				Category:     cat,
				Count:        len(g),
				WeightedCost: VolumeWeighted(g, effectiveCost),
			}
			var discounts, spreads []float64
			for _, q := range g {
				s.TotalVolume += q.VolumeOrZero()
				discounts = append(discounts, q.ITMDiscount)
				spreads = append(spreads, q.SpreadCost)
			}
			s.MeanITMDiscount, _ = stats.Mean(discounts)
			s.MeanSpreadCost, _ = stats.Mean(spreads)
			out = append(out, s)
		}
	}
	return out
}

func effectiveCost(q DerivedQuote) float64 { return q.EffectiveLiquidityCost }

// DailyStat aggregates one trading date.
type DailyStat struct {
	Date            time.Time
	TotalVolume     int64
	CallVolume      int64
	PutVolume       int64
	PutCallRatio    float64 // zero when no call volume traded
	UnderlyingClose float64
	VolIndexClose   float64
	WeightedCost    WeightedAvg
	HighVolume      bool
}

// SummarizeByDate aggregates per-date volume and liquidity cost, ascending by
// date. UnderlyingClose and VolIndexClose are taken from the first quote of
// the date, matching how they were duplicated at ingestion.
func SummarizeByDate(quotes []DerivedQuote) []DailyStat {
	byDate := make(map[time.Time][]DerivedQuote)
	var dates []time.Time
	for _, q := range quotes {
		d := q.TradeDate.Time
		if _, ok := byDate[d]; !ok {
			dates = append(dates, d)
		}
		byDate[d] = append(byDate[d], q)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out := make([]DailyStat, 0, len(dates))
	for _, d := range dates {
		g := byDate[d]
		s := DailyStat{
			Date:            d,
			UnderlyingClose: g[0].UnderlyingClose,
			VolIndexClose:   g[0].VolIndexClose,
			WeightedCost:    VolumeWeighted(g, effectiveCost),
		}
		for _, q := range g {
			v := q.VolumeOrZero()
			s.TotalVolume += v
			switch q.Side {
			case dataset.SideCall:
				s.CallVolume += v
			case dataset.SidePut:
				s.PutVolume += v
			}
		}
		if s.CallVolume > 0 {
			s.PutCallRatio = float64(s.PutVolume) / float64(s.CallVolume)
		}
		out = append(out, s)
	}
	return out
}

// FlagHighVolumeDays marks every date whose total volume strictly exceeds the
// q-th quantile of the daily totals, and returns the threshold. The input is
// mutated in place.
func FlagHighVolumeDays(daily []DailyStat, q float64) (float64, error) {
	totals := make([]float64, len(daily))
	for i, d := range daily {
		totals[i] = float64(d.TotalVolume)
	}
	threshold, err := Quantile(totals, q)
	if err != nil {
		return 0, err
	}
	for i := range daily {
		daily[i].HighVolume = float64(daily[i].TotalVolume) > threshold
	}
	return threshold, nil
}

// TotalMarketMakerProfit estimates aggregate market-maker profit in dollars:
// Σ effective_liquidity_cost × volume × contract multiplier.
func TotalMarketMakerProfit(quotes []DerivedQuote) float64 {
	var total float64
	for _, q := range quotes {
		total += q.EffectiveLiquidityCost * float64(q.VolumeOrZero()) * ContractMultiplier
	}
	return total
}

// UndefinedGroups lists zero-volume groups whose weighted average is
// undefined, for diagnostic reporting.
func UndefinedGroups(sides []SideSummary, cats []CategorySummary) []string {
	var keys []string
	for _, s := range sides {
		if !s.WeightedCost.Valid {
			keys = append(keys, string(s.Side))
		}
	}
	for _, c := range cats {
		if !c.WeightedCost.Valid {
			keys = append(keys, string(c.Side)+"/"+string(c.Category))
		}
	}
	return keys
}

// DatasetSummary is the whole-table overview.
type DatasetSummary struct {
	Records           int
	TradingDates      int
	UnderlyingMin     float64
	UnderlyingMax     float64
	UnderlyingMean    float64
	VolIndexMin       float64
	VolIndexMax       float64
	VolIndexMean      float64
	TotalVolume       int64
	TotalOpenInterest int64
}

// Summarize computes the dataset overview from the derived table.
func Summarize(quotes []DerivedQuote) DatasetSummary {
	s := DatasetSummary{Records: len(quotes)}
	if len(quotes) == 0 {
		return s
	}

	seen := make(map[time.Time]bool)
	var spx, vix []float64
	for _, q := range quotes {
		if !seen[q.TradeDate.Time] {
			seen[q.TradeDate.Time] = true
			spx = append(spx, q.UnderlyingClose)
			vix = append(vix, q.VolIndexClose)
		}
		s.TotalVolume += q.VolumeOrZero()
		s.TotalOpenInterest += q.OpenInterestOrZero()
	}
	s.TradingDates = len(seen)
	s.UnderlyingMin, _ = stats.Min(spx)
	s.UnderlyingMax, _ = stats.Max(spx)
	s.UnderlyingMean, _ = stats.Mean(spx)
	s.VolIndexMin, _ = stats.Min(vix)
	s.VolIndexMax, _ = stats.Max(vix)
	s.VolIndexMean, _ = stats.Mean(vix)
	return s
}
