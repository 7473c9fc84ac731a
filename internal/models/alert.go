package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AlertKind classifies a single alert record.
type AlertKind int

const (
	KindBuyConfluence AlertKind = iota
	KindLowRSI
	KindSuddenDrop
	KindMultiDayDrop
)

// Kinds lists all alert kinds in precedence order (buy first).
var Kinds = []AlertKind{KindBuyConfluence, KindLowRSI, KindSuddenDrop, KindMultiDayDrop}

// DedupKind returns the kind string recorded in the dedup ledger.
func (k AlertKind) DedupKind() string {
	switch k {
	case KindBuyConfluence:
		return "BUY"
	case KindLowRSI:
		return "RSI"
	case KindSuddenDrop:
		return "SuddenDrop"
	case KindMultiDayDrop:
		return "avg_drop"
	default:
		return "unknown"
	}
}

func (k AlertKind) String() string {
	switch k {
	case KindBuyConfluence:
		return "buy_confluence"
	case KindLowRSI:
		return "low_rsi"
	case KindSuddenDrop:
		return "sudden_drop"
	case KindMultiDayDrop:
		return "multi_day_drop"
	default:
		return "unknown"
	}
}

// AlertRecord is the unit the classifier emits: one qualifying signal for
// one instrument, at most once per (trading date, kind, bucket).
type AlertRecord struct {
	ID     string
	Symbol string
	// Name is best-effort display metadata; empty when the lookup failed.
	Name string
	Kind AlertKind

	Price      float64
	RSI        float64
	MACDBuy    bool // MACD above its signal line on the latest row
	Support    float64
	Resistance float64

	// DropPct is set for drop-style kinds, rounded to 2 decimal places.
	DropPct float64
	// RefClose is the 5-rows-back close a MultiDayDrop was measured from.
	RefClose float64

	VolumeRatio float64
	VolumeAlert bool

	// CapBucket is an optional market-capitalization label (Large/Mid/Small).
	CapBucket string

	DetectedAt time.Time
}

// DedupKey identifies one logical alert event within a trading date.
// Bucket is -1 for buy/RSI alerts and the truncated integer percentage for
// drop-style alerts, so near-duplicate magnitudes collapse to one event.
type DedupKey struct {
	TradeDate string // YYYY-MM-DD in the exchange timezone
	Symbol    string
	Kind      string
	Bucket    int
}

func (k DedupKey) String() string {
	return fmt.Sprintf("%s/%s/%s/%d", k.TradeDate, k.Symbol, k.Kind, k.Bucket)
}

// TruncateBucket converts a percentage into its dedup bucket by rounding
// toward zero. -5.1 and -5.9 both map to -5; this tolerance band is
// deliberate.
func TruncateBucket(pct float64) int {
	return int(pct)
}

// Round2 rounds a value to 2 decimal places for emission.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
