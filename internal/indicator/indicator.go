// Package indicator computes the daily technical indicators the scanner
// evaluates: Wilder RSI, EMA20/50, MACD, relative volume, and the composite
// buy-confluence flag.
package indicator

import (
	"math"

	"github.com/mtanaka-dev/tsescan/internal/models"
)

const (
	RSIPeriod    = 14
	EMAFast      = 20
	EMASlow      = 50
	MACDFast     = 12
	MACDSlow     = 26
	MACDSignal   = 9
	VolumeWindow = 20
)

// MinBars is the number of bars the slowest indicator (EMA50) needs before
// a single evaluable row exists.
const MinBars = EMASlow

// Buy-confluence RSI bounds: the oscillator must have dipped below the dip
// level within the last 2 rows and recovered above the floor.
const (
	confluenceRSIFloor = 30.0
	confluenceRSIDip   = 28.0
)

// Turnover tiers (yen) and the relative-volume cutoff applied to each.
const (
	turnoverLarge = 50e9
	turnoverMid   = 5e9

	cutoffLarge = 1.3
	cutoffMid   = 1.6
	cutoffSmall = 2.0
)

// Compute derives indicator rows from a bar series. Rows before the slowest
// indicator is defined are dropped, so every returned row is fully populated.
// A series shorter than MinBars yields an empty result; that is a normal
// insufficient-history outcome, not an error.
func Compute(series *models.Series) []models.IndicatorRow {
	n := len(series.Bars)
	if n < MinBars {
		return nil
	}

	closes := series.Closes()
	rsi := wilderRSI(closes, RSIPeriod)
	ema20 := ema(closes, EMAFast)
	ema50 := ema(closes, EMASlow)
	macd, signal := macdLines(closes)

	start := EMASlow - 1
	rows := make([]models.IndicatorRow, 0, n-start)
	for i := start; i < n; i++ {
		b := series.Bars[i]
		ratio, hit := relativeVolume(series.Bars, i)
		row := models.IndicatorRow{
			Bar:         b,
			RSI:         rsi[i],
			EMA20:       ema20[i],
			EMA50:       ema50[i],
			MACD:        macd[i],
			MACDSignal:  signal[i],
			VolumeRatio: ratio,
			VolumeAlert: hit,
		}
		row.BuyConfluence = confluence(row, prevRSI(rsi, i))
		rows = append(rows, row)
	}
	return rows
}

func prevRSI(rsi []float64, i int) float64 {
	if i == 0 || math.IsNaN(rsi[i-1]) {
		return rsi[i]
	}
	return rsi[i-1]
}

// confluence evaluates the composite buy signal: MACD above its signal line,
// RSI recovered above the floor after dipping below the dip level within the
// trailing 2 rows, price above EMA20, and EMA20 above EMA50.
func confluence(row models.IndicatorRow, prevRSI float64) bool {
	recentMin := math.Min(row.RSI, prevRSI)
	return row.MACD > row.MACDSignal &&
		row.RSI > confluenceRSIFloor &&
		recentMin < confluenceRSIDip &&
		row.Close > row.EMA20 &&
		row.EMA20 > row.EMA50
}

// ema computes an exponential moving average seeded with the simple average
// of the first period values. Indices before period-1 hold NaN.
func ema(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(values) < period {
		return out
	}

	var sum float64
	for _, v := range values[:period] {
		sum += v
	}
	prev := sum / float64(period)
	out[period-1] = prev

	alpha := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		prev += alpha * (values[i] - prev)
		out[i] = prev
	}
	return out
}

// wilderRSI computes the 14-period Wilder RSI of closing price. The first
// averages are simple means of the initial gains and losses; subsequent
// values use Wilder smoothing. Indices before period hold NaN.
func wilderRSI(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(closes) <= period {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// macdLines returns the MACD line (EMA12-EMA26 of close) and its signal line
// (EMA9 of MACD). Undefined indices hold NaN.
func macdLines(closes []float64) (macd, signal []float64) {
	fast := ema(closes, MACDFast)
	slow := ema(closes, MACDSlow)

	macd = make([]float64, len(closes))
	signal = make([]float64, len(closes))
	for i := range macd {
		macd[i] = fast[i] - slow[i] // NaN until both are defined
		signal[i] = math.NaN()
	}

	// Signal line: EMA9 over the defined portion of the MACD line.
	first := MACDSlow - 1
	if len(closes)-first < MACDSignal {
		return macd, signal
	}
	seeded := ema(macd[first:], MACDSignal)
	copy(signal[first:], seeded)
	return macd, signal
}

// relativeVolume compares bar i's yen turnover against the trailing
// VolumeWindow-bar average turnover (current bar excluded). The alert cutoff
// loosens as the average turnover shrinks: thin names need a bigger spike.
func relativeVolume(bars []models.Bar, i int) (ratio float64, alert bool) {
	if i < VolumeWindow {
		return 0, false
	}
	var sum float64
	for j := i - VolumeWindow; j < i; j++ {
		sum += bars[j].Close * float64(bars[j].Volume)
	}
	avg := sum / float64(VolumeWindow)
	if avg <= 0 {
		return 0, false
	}

	ratio = bars[i].Close * float64(bars[i].Volume) / avg

	cutoff := cutoffSmall
	switch {
	case avg > turnoverLarge:
		cutoff = cutoffLarge
	case avg > turnoverMid:
		cutoff = cutoffMid
	}
	return ratio, ratio >= cutoff
}
