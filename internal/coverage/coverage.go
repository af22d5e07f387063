// Package coverage analyzes the trade-date calendar of a dataset: runs of
// missing trading days and per-month coverage against an expected baseline.
package coverage

import (
	"fmt"
	"sort"
	"time"

	"github.com/scmhub/calendar"

	"github.com/PierreNiberon/0DTE/internal/dataset"
)

// Gap is a run of missing trading days between two observed dates.
type Gap struct {
	Before time.Time
	After  time.Time
	// Days is the calendar-day distance between Before and After.
	Days int
	// MissingBusinessDays counts NYSE business days strictly between the two
	// observed dates. Zero means the gap is fully explained by weekends and
	// holidays rather than lost data.
	MissingBusinessDays int
}

// HolidayExplained reports whether the exchange was simply closed for the
// whole gap.
func (g Gap) HolidayExplained() bool {
	return g.MissingBusinessDays == 0
}

func (g Gap) String() string {
	return fmt.Sprintf("%d days between %s and %s",
		g.Days, g.Before.Format("2006-01-02"), g.After.Format("2006-01-02"))
}

// GapRow is a gap in flat tabular form, for the output writers.
type GapRow struct {
	Before              dataset.Date `csv:"gap_start"`
	After               dataset.Date `csv:"gap_end"`
	Days                int          `csv:"calendar_days"`
	MissingBusinessDays int          `csv:"missing_business_days"`
	HolidayExplained    bool         `csv:"holiday_explained"`
}

// FlattenGaps converts gaps into writable rows.
func FlattenGaps(gaps []Gap) []GapRow {
	rows := make([]GapRow, 0, len(gaps))
	for _, g := range gaps {
		rows = append(rows, GapRow{
			Before:              dataset.Date{Time: g.Before},
			After:               dataset.Date{Time: g.After},
			Days:                g.Days,
			MissingBusinessDays: g.MissingBusinessDays,
			HolidayExplained:    g.HolidayExplained(),
		})
	}
	return rows
}

// MonthCoverage compares observed trading dates in one month against an
// expected baseline. Expected is the caller-supplied business assumption;
// CalendarExpected is the NYSE business-day count for the month.
type MonthCoverage struct {
	Month            string `csv:"month"` // YYYY-MM
	Observed         int    `csv:"observed_days"`
	Expected         int    `csv:"expected_days"`
	CalendarExpected int    `csv:"nyse_business_days"`
}

// Analyzer finds coverage gaps using the NYSE trading calendar.
type Analyzer struct {
	nyse *calendar.Calendar
	loc  *time.Location
}

// NewAnalyzer builds an analyzer against the NYSE calendar in the given
// timezone (the exchange operates in Eastern time).
func NewAnalyzer(timezone string) *Analyzer {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return &Analyzer{nyse: calendar.XNYS(), loc: loc}
}

// FindGaps computes successive gaps over the distinct trade dates and reports
// every gap strictly greater than thresholdDays calendar days. The input
// need not be sorted.
func (a *Analyzer) FindGaps(dates []time.Time, thresholdDays int) []Gap {
	sorted := sortedDistinct(dates)

	var gaps []Gap
	for i := 1; i < len(sorted); i++ {
		days := int(sorted[i].Sub(sorted[i-1]).Hours() / 24)
		if days <= thresholdDays {
			continue
		}
		gaps = append(gaps, Gap{
			Before:              sorted[i-1],
			After:               sorted[i],
			Days:                days,
			MissingBusinessDays: a.businessDaysBetween(sorted[i-1], sorted[i]),
		})
	}
	return gaps
}

// businessDaysBetween counts business days strictly inside (before, after).
func (a *Analyzer) businessDaysBetween(before, after time.Time) int {
	count := 0
	for d := before.AddDate(0, 0, 1); d.Before(after); d = d.AddDate(0, 0, 1) {
		if a.isBusinessDay(d) {
			count++
		}
	}
	return count
}

// isBusinessDay checks the date at noon in the exchange timezone so the
// calendar matches the intended day regardless of the input's location.
func (a *Analyzer) isBusinessDay(d time.Time) bool {
	noon := time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, a.loc)
	return a.nyse.IsBusinessDay(noon)
}

// MonthlyCoverage counts distinct observed dates per month against the
// caller-supplied expected baseline, ascending by month.
func (a *Analyzer) MonthlyCoverage(dates []time.Time, expectedPerMonth int) []MonthCoverage {
	sorted := sortedDistinct(dates)
	if len(sorted) == 0 {
		return nil
	}

	observed := make(map[string]int)
	var months []string
	for _, d := range sorted {
		m := d.Format("2006-01")
		if _, ok := observed[m]; !ok {
			months = append(months, m)
		}
		observed[m]++
	}

	out := make([]MonthCoverage, 0, len(months))
	for _, m := range months {
		first, _ := time.Parse("2006-01", m)
		out = append(out, MonthCoverage{
			Month:            m,
			Observed:         observed[m],
			Expected:         expectedPerMonth,
			CalendarExpected: a.businessDaysInMonth(first.Year(), first.Month()),
		})
	}
	return out
}

func (a *Analyzer) businessDaysInMonth(year int, month time.Month) int {
	count := 0
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for d.Month() == month {
		if a.isBusinessDay(d) {
			count++
		}
		d = d.AddDate(0, 0, 1)
	}
	return count
}

func sortedDistinct(dates []time.Time) []time.Time {
	seen := make(map[time.Time]bool, len(dates))
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		if !seen[day] {
			seen[day] = true
			out = append(out, day)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
