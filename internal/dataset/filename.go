package dataset

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Source names look like spx_0dte_calls_20250309_2055.csv: an 8-digit
// YYYYMMDD token carries the trade date and a side token carries call/put.
var dateTokenRe = regexp.MustCompile(`\d{8}`)

// ExtractTradeDate pulls the trade date out of a source name. The date is
// never inferred from row content.
func ExtractTradeDate(name string) (Date, error) {
	token := dateTokenRe.FindString(name)
	if token == "" {
		return Date{}, fmt.Errorf("%q: %w", name, ErrNoDateToken)
	}
	t, err := time.Parse("20060102", token)
	if err != nil {
		return Date{}, fmt.Errorf("%q: invalid date token %q: %w", name, token, err)
	}
	return Date{t}, nil
}

// ExtractSide matches the side token in a source name. Names matching neither
// token ingest as SideUnknown so the rows survive for audit.
func ExtractSide(name string) Side {
	switch {
	case strings.Contains(name, "calls"):
		return SideCall
	case strings.Contains(name, "puts"):
		return SidePut
	default:
		return SideUnknown
	}
}
