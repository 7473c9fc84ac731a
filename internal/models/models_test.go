package models

import (
	"testing"
	"time"
)

func TestTruncateBucket(t *testing.T) {
	tests := []struct {
		pct  float64
		want int
	}{
		{-5.1, -5},
		{-5.9, -5},
		{-6.0, -6},
		{5.9, 5},
		{0.4, 0},
		{-0.4, 0},
	}
	for _, tt := range tests {
		if got := TruncateBucket(tt.pct); got != tt.want {
			t.Errorf("TruncateBucket(%v) = %d, want %d", tt.pct, got, tt.want)
		}
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{2500.456, 2500.46},
		{-8.005, -8.01},
		{27.1, 27.1},
		{0, 0},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAlertKind_DedupKind(t *testing.T) {
	tests := []struct {
		kind AlertKind
		want string
	}{
		{KindBuyConfluence, "BUY"},
		{KindLowRSI, "RSI"},
		{KindSuddenDrop, "SuddenDrop"},
		{KindMultiDayDrop, "avg_drop"},
	}
	for _, tt := range tests {
		if got := tt.kind.DedupKind(); got != tt.want {
			t.Errorf("%v.DedupKind() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestSeries_Validate(t *testing.T) {
	base := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

	valid := &Series{
		Symbol: "7203.T",
		Bars: []Bar{
			{Date: base, Open: 100, High: 105, Low: 99, Close: 104, Volume: 1000},
			{Date: base.AddDate(0, 0, 1), Open: 104, High: 106, Low: 103, Close: 105, Volume: 900},
		},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid series rejected: %v", err)
	}

	noSymbol := &Series{}
	if err := noSymbol.Validate(); err == nil {
		t.Error("expected error for empty symbol")
	}

	outOfOrder := &Series{
		Symbol: "7203.T",
		Bars: []Bar{
			{Date: base.AddDate(0, 0, 1), Close: 100},
			{Date: base, Close: 101},
		},
	}
	if err := outOfOrder.Validate(); err == nil {
		t.Error("expected error for out-of-order bars")
	}

	negativeVolume := &Series{
		Symbol: "7203.T",
		Bars:   []Bar{{Date: base, Close: 100, Volume: -1}},
	}
	if err := negativeVolume.Validate(); err == nil {
		t.Error("expected error for negative volume")
	}
}
