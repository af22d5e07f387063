package dataset

import (
	"fmt"
	"sort"
	"time"
)

// Side identifies which half of the chain a snapshot row belongs to.
type Side string

const (
	SideCall    Side = "call"
	SidePut     Side = "put"
	SideUnknown Side = "unknown"
)

// Date is a calendar date (no time-of-day) that round-trips through CSV
// as YYYY-MM-DD.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalCSV() (string, error) {
	return d.Format(dateLayout), nil
}

func (d *Date) UnmarshalCSV(s string) error {
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("parsing date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// OptionQuote is one option snapshot row. The source columns keep their
// original header names; trade_date, option_side and source_id are stamped
// by the loader and never parsed from row content.
//
// Volume, OpenInterest and ImpliedVolatility are pointers so a value absent
// from the source stays distinguishable from zero until aggregation.
type OptionQuote struct {
	TradeDate         Date     `csv:"trade_date"`
	Side              Side     `csv:"option_side"`
	SourceID          string   `csv:"source_id"`
	Strike            float64  `csv:"strike"`
	Bid               float64  `csv:"bid"`
	Ask               float64  `csv:"ask"`
	LastPrice         float64  `csv:"lastPrice"`
	Volume            *int64   `csv:"volume"`
	OpenInterest      *int64   `csv:"openInterest"`
	ImpliedVolatility *float64 `csv:"impliedVolatility"`
	InTheMoney        bool     `csv:"inTheMoney"`
	UnderlyingClose   float64  `csv:"spx_close"`
	VolIndexClose     float64  `csv:"vix_close"`
	LastTradeDate     string   `csv:"lastTradeDate"`
}

// Key is the conceptual identity of a quote within the dataset. Duplicates
// are legal (both rows are retained) but reported for audit.
func (q OptionQuote) Key() string {
	return fmt.Sprintf("%s/%s/%g", q.TradeDate, q.Side, q.Strike)
}

// VolumeOrZero treats a missing volume as zero. Only aggregation code should
// call this; ingestion keeps the distinction.
func (q OptionQuote) VolumeOrZero() int64 {
	if q.Volume == nil {
		return 0
	}
	return *q.Volume
}

// OpenInterestOrZero treats missing open interest as zero at aggregation time.
func (q OptionQuote) OpenInterestOrZero() int64 {
	if q.OpenInterest == nil {
		return 0
	}
	return *q.OpenInterest
}

// NormalizedDataset is the combined table produced by ingestion. Quotes keep
// original row order within each source and source order overall.
type NormalizedDataset struct {
	Quotes []OptionQuote

	// Incomplete maps source id to the required columns it lacked. Rows from
	// these sources stay in the table but are excluded from metric derivation.
	Incomplete map[string][]string
}

func (ds *NormalizedDataset) Len() int {
	return len(ds.Quotes)
}

// Dates returns the distinct trade dates in ascending order.
func (ds *NormalizedDataset) Dates() []time.Time {
	seen := make(map[time.Time]bool)
	var dates []time.Time
	for _, q := range ds.Quotes {
		if !seen[q.TradeDate.Time] {
			seen[q.TradeDate.Time] = true
			dates = append(dates, q.TradeDate.Time)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// UnderlyingCloseByDate returns the per-date underlying close, taken from the
// first quote of each date.
func (ds *NormalizedDataset) UnderlyingCloseByDate() map[time.Time]float64 {
	closes := make(map[time.Time]float64)
	for _, q := range ds.Quotes {
		if _, ok := closes[q.TradeDate.Time]; !ok {
			closes[q.TradeDate.Time] = q.UnderlyingClose
		}
	}
	return closes
}

// DuplicateKey flags more than one quote sharing a (trade_date, side, strike)
// identity.
type DuplicateKey struct {
	Key     string
	Sources []string
	Count   int
}

// Duplicates scans the table for repeated keys. Rows are never deduplicated;
// the result is diagnostic only.
func (ds *NormalizedDataset) Duplicates() []DuplicateKey {
	type entry struct {
		sources []string
		count   int
	}
	byKey := make(map[string]*entry)
	var order []string
	for _, q := range ds.Quotes {
		k := q.Key()
		e, ok := byKey[k]
		if !ok {
			e = &entry{}
			byKey[k] = e
			order = append(order, k)
		}
		e.count++
		e.sources = append(e.sources, q.SourceID)
	}

	var dups []DuplicateKey
	for _, k := range order {
		if e := byKey[k]; e.count > 1 {
			dups = append(dups, DuplicateKey{Key: k, Sources: e.sources, Count: e.count})
		}
	}
	return dups
}
