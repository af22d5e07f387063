package dataset

import (
	"errors"
	"testing"
	"time"
)

func TestExtractTradeDate(t *testing.T) {
	tests := []struct {
		name    string
		want    time.Time
		wantErr bool
	}{
		{"spx_0dte_calls_20250309_2055.csv", time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), false},
		{"spx_0dte_puts_20250622_1430.csv", time.Date(2025, 6, 22, 0, 0, 0, 0, time.UTC), false},
		{"spx_0dte_calls.csv", time.Time{}, true},
		{"notes.csv", time.Time{}, true},
	}

	for _, tt := range tests {
		got, err := ExtractTradeDate(tt.name)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error, got %v", tt.name, got)
			}
			if err != nil && !errors.Is(err, ErrNoDateToken) {
				t.Errorf("%s: expected ErrNoDateToken, got %v", tt.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if !got.Time.Equal(tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got.Time)
		}
	}
}

func TestExtractTradeDateInvalidToken(t *testing.T) {
	// 8 digits that do not form a calendar date
	if _, err := ExtractTradeDate("spx_calls_20251399.csv"); err == nil {
		t.Error("expected error for impossible date token")
	}
}

func TestExtractSide(t *testing.T) {
	tests := []struct {
		name string
		want Side
	}{
		{"spx_0dte_calls_20250309_2055.csv", SideCall},
		{"spx_0dte_puts_20250309_2055.csv", SidePut},
		{"spx_0dte_20250309.csv", SideUnknown},
	}

	for _, tt := range tests {
		if got := ExtractSide(tt.name); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.want, got)
		}
	}
}
