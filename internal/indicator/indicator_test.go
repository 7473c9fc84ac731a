package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/mtanaka-dev/tsescan/internal/models"
)

func seriesFromCloses(symbol string, closes []float64, volume int64) *models.Series {
	base := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{
			Date:   base.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: volume,
		}
	}
	return &models.Series{Symbol: symbol, Bars: bars}
}

func TestCompute_InsufficientHistory(t *testing.T) {
	closes := make([]float64, MinBars-1)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	rows := Compute(seriesFromCloses("7203.T", closes, 1000))
	if len(rows) != 0 {
		t.Errorf("expected empty rows for %d bars, got %d", MinBars-1, len(rows))
	}
}

func TestCompute_RowCountAndDefinedValues(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + math.Sin(float64(i))*5
	}
	rows := Compute(seriesFromCloses("7203.T", closes, 1000))
	if len(rows) != 80-(EMASlow-1) {
		t.Fatalf("expected %d rows, got %d", 80-(EMASlow-1), len(rows))
	}
	for i, row := range rows {
		for name, v := range map[string]float64{
			"RSI":        row.RSI,
			"EMA20":      row.EMA20,
			"EMA50":      row.EMA50,
			"MACD":       row.MACD,
			"MACDSignal": row.MACDSignal,
		} {
			if math.IsNaN(v) {
				t.Errorf("row %d: %s is NaN", i, name)
			}
		}
	}
}

func TestRSI_MonotoneIncreasingApproaches100(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + 2*float64(i)
	}
	rows := Compute(seriesFromCloses("7203.T", closes, 1000))
	latest := rows[len(rows)-1]
	if latest.RSI < 99 {
		t.Errorf("monotone increasing series: RSI = %.2f, want ~100", latest.RSI)
	}
}

func TestRSI_MonotoneDecreasingApproaches0(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 500 - 2*float64(i)
	}
	rows := Compute(seriesFromCloses("7203.T", closes, 1000))
	latest := rows[len(rows)-1]
	if latest.RSI > 1 {
		t.Errorf("monotone decreasing series: RSI = %.2f, want ~0", latest.RSI)
	}
}

func TestConfluence_RequiresRecentDipBelow28(t *testing.T) {
	// Every other clause holds; the trailing-2-bar RSI minimum is >= 28,
	// so the flag must stay false.
	row := models.IndicatorRow{
		Bar:        models.Bar{Close: 120},
		RSI:        35,
		EMA20:      110,
		EMA50:      100,
		MACD:       2,
		MACDSignal: 1,
	}
	if confluence(row, 32) {
		t.Error("confluence should be false without a recent RSI dip below 28")
	}
	if !confluence(row, 27) {
		t.Error("confluence should be true when previous RSI dipped below 28")
	}
}

func TestConfluence_OtherClauses(t *testing.T) {
	base := models.IndicatorRow{
		Bar:        models.Bar{Close: 120},
		RSI:        35,
		EMA20:      110,
		EMA50:      100,
		MACD:       2,
		MACDSignal: 1,
	}

	mutations := []struct {
		name   string
		mutate func(*models.IndicatorRow)
	}{
		{"MACD below signal", func(r *models.IndicatorRow) { r.MACD = 0.5 }},
		{"RSI at floor", func(r *models.IndicatorRow) { r.RSI = 30 }},
		{"close below EMA20", func(r *models.IndicatorRow) { r.Close = 105 }},
		{"EMA20 below EMA50", func(r *models.IndicatorRow) { r.EMA20 = 95 }},
	}
	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {
			row := base
			tt.mutate(&row)
			if confluence(row, 27) {
				t.Error("confluence should be false")
			}
		})
	}
}

func TestRelativeVolume_SmallTurnoverCutoff(t *testing.T) {
	// Flat closes, constant volume, then a 3x volume spike on the last bar.
	// Average turnover is tiny, so the strict 2.0x cutoff applies.
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}
	series := seriesFromCloses("7203.T", closes, 1000)
	series.Bars[len(series.Bars)-1].Volume = 3000

	rows := Compute(series)
	latest := rows[len(rows)-1]
	if !latest.VolumeAlert {
		t.Errorf("3x volume spike should trip the 2.0x cutoff (ratio=%.2f)", latest.VolumeRatio)
	}
	if math.Abs(latest.VolumeRatio-3.0) > 0.01 {
		t.Errorf("volume ratio = %.2f, want ~3.0", latest.VolumeRatio)
	}

	prev := rows[len(rows)-2]
	if prev.VolumeAlert {
		t.Error("constant-volume bar should not flag relative volume")
	}
}

func TestEMA_ConvergesToConstant(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = 250
	}
	out := ema(values, 20)
	if math.Abs(out[99]-250) > 1e-9 {
		t.Errorf("EMA of constant series = %f, want 250", out[99])
	}
	if !math.IsNaN(out[18]) {
		t.Error("EMA should be undefined before the seed window completes")
	}
}
