// Package scanner evaluates indicator rows against the alert rules and
// drives the evaluation cycle for every invocation mode. All modes funnel
// through the same classifier and ledger so dedup stays correct.
package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mtanaka-dev/tsescan/internal/digest"
	"github.com/mtanaka-dev/tsescan/internal/indicator"
	"github.com/mtanaka-dev/tsescan/internal/ledger"
	"github.com/mtanaka-dev/tsescan/internal/logger"
	"github.com/mtanaka-dev/tsescan/internal/marketdata"
	"github.com/mtanaka-dev/tsescan/internal/models"
)

// Thresholds holds the per-run alert rule parameters.
type Thresholds struct {
	RSI           float64 // LowRSI fires below this
	SuddenDropPct float64 // one-day drop magnitude, percent
	AvgDropPct    float64 // 5-session drop magnitude, percent
	SupportWindow int     // trailing bars for support/resistance
}

// DefaultThresholds returns the standard rule parameters.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RSI:           30,
		SuddenDropPct: 5,
		AvgDropPct:    5,
		SupportWindow: 20,
	}
}

// BarSource provides daily bar history per instrument.
type BarSource interface {
	History(ctx context.Context, symbol string) (*models.Series, error)
}

// MetaSource provides best-effort instrument metadata.
type MetaSource interface {
	Lookup(ctx context.Context, symbol string) (*marketdata.Meta, error)
}

// Notifier delivers one opaque text payload.
type Notifier interface {
	Notify(text string) error
}

// Runner drives evaluation cycles over the instrument universe.
type Runner struct {
	bars       BarSource
	meta       MetaSource
	notifier   Notifier
	store      *ledger.Store
	thresholds Thresholds

	// now is the clock used to derive the trading date; replaceable in tests.
	now func() time.Time
}

// New creates a runner. meta and notifier may be nil: metadata is
// best-effort, and a nil notifier turns sends into logged no-ops.
func New(bars BarSource, meta MetaSource, notifier Notifier, store *ledger.Store, thresholds Thresholds) *Runner {
	if thresholds.SupportWindow <= 0 {
		thresholds.SupportWindow = 20
	}
	return &Runner{
		bars:       bars,
		meta:       meta,
		notifier:   notifier,
		store:      store,
		thresholds: thresholds,
		now:        time.Now,
	}
}

var jst = loadJST()

func loadJST() *time.Location {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		return time.FixedZone("JST", 9*60*60)
	}
	return loc
}

// TradeDate returns the current trading date in the exchange timezone.
func (r *Runner) TradeDate() string {
	return r.now().In(jst).Format("2006-01-02")
}

// Scan runs one evaluation cycle over symbols and returns the digest.
// An empty digest means nothing qualified; the caller decides whether that
// produces a notification.
func (r *Runner) Scan(ctx context.Context, symbols []string) (digest.Digest, error) {
	led := r.store.ForDate(r.TradeDate())
	return r.scanCycle(ctx, symbols, led)
}

// scanCycle evaluates symbols against one shared ledger. Per-instrument
// data problems are logged and skipped; ledger durability failures abort
// the cycle.
func (r *Runner) scanCycle(ctx context.Context, symbols []string, led *ledger.Ledger) (digest.Digest, error) {
	start := time.Now()
	var records []models.AlertRecord

	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return digest.Digest{}, err
		}

		series, err := r.bars.History(ctx, symbol)
		if err != nil {
			logger.Warn("Failed to fetch bars for %s: %v", symbol, err)
			continue
		}
		if err := series.Validate(); err != nil {
			logger.Warn("Skipping %s: %v", symbol, err)
			continue
		}

		rows := indicator.Compute(series)
		if len(rows) == 0 {
			logger.Debug("Insufficient history for %s (%d bars)", symbol, len(series.Bars))
			continue
		}

		meta := r.lookupMeta(ctx, symbol)

		emitted, err := r.Classify(rows, symbol, meta, led)
		if err != nil {
			return digest.Digest{}, fmt.Errorf("classification failed for %s: %w", symbol, err)
		}
		records = append(records, emitted...)
	}

	logger.Info("Scanned %d instruments in %v: %d alerts", len(symbols), time.Since(start), len(records))
	return digest.Build(led.TradeDate(), records), nil
}

// lookupMeta is best-effort: a failed lookup is logged, never raised.
func (r *Runner) lookupMeta(ctx context.Context, symbol string) *marketdata.Meta {
	if r.meta == nil {
		return nil
	}
	meta, err := r.meta.Lookup(ctx, symbol)
	if err != nil {
		logger.Warn("Metadata lookup failed for %s: %v", symbol, err)
		return nil
	}
	return meta
}

// Classify evaluates the latest indicator row against every alert rule in
// precedence order. A buy-confluence emission takes absolute precedence and
// short-circuits the remaining checks; all other qualifying, non-suppressed
// alerts accumulate. Every emission records its dedup key durably before
// the record is returned.
func (r *Runner) Classify(rows []models.IndicatorRow, symbol string, meta *marketdata.Meta, led *ledger.Ledger) ([]models.AlertRecord, error) {
	latest := rows[len(rows)-1]
	var records []models.AlertRecord

	emit := func(kind models.AlertKind, bucket int, fill func(*models.AlertRecord)) (bool, error) {
		dk := kind.DedupKind()
		seen, err := led.Contains(symbol, dk, bucket)
		if err != nil {
			return false, err
		}
		if seen {
			logger.Debug("Already alerted today: %s %s bucket=%d", symbol, dk, bucket)
			return false, nil
		}

		rec := r.baseRecord(rows, latest, symbol, meta, kind)
		if fill != nil {
			fill(&rec)
		}
		if err := led.Record(symbol, dk, bucket, rec.ID); err != nil {
			return false, err
		}
		records = append(records, rec)
		return true, nil
	}

	if latest.BuyConfluence {
		fired, err := emit(models.KindBuyConfluence, -1, nil)
		if err != nil {
			return nil, err
		}
		if fired {
			// Buy signal takes absolute precedence this cycle.
			return records, nil
		}
	}

	if latest.RSI < r.thresholds.RSI {
		if _, err := emit(models.KindLowRSI, -1, nil); err != nil {
			return nil, err
		}
	}

	if len(rows) >= 2 {
		prev := rows[len(rows)-2].Close
		if prev > 0 {
			pct := (latest.Close - prev) / prev * 100
			if pct < -r.thresholds.SuddenDropPct {
				_, err := emit(models.KindSuddenDrop, models.TruncateBucket(pct), func(rec *models.AlertRecord) {
					rec.DropPct = models.Round2(pct)
				})
				if err != nil {
					return nil, err
				}
			}
		}
	}

	if len(rows) >= 5 {
		ref := rows[len(rows)-5].Close
		if ref > 0 {
			pct := (latest.Close - ref) / ref * 100
			if pct < -r.thresholds.AvgDropPct {
				_, err := emit(models.KindMultiDayDrop, models.TruncateBucket(pct), func(rec *models.AlertRecord) {
					rec.DropPct = models.Round2(pct)
					rec.RefClose = models.Round2(ref)
				})
				if err != nil {
					return nil, err
				}
			}
		}
	}

	return records, nil
}

// baseRecord fills the fields every alert record carries, rounded to 2
// decimal places at emission.
func (r *Runner) baseRecord(rows []models.IndicatorRow, latest models.IndicatorRow, symbol string, meta *marketdata.Meta, kind models.AlertKind) models.AlertRecord {
	support, resistance := supportResistance(rows, r.thresholds.SupportWindow)
	rec := models.AlertRecord{
		ID:          uuid.New().String(),
		Symbol:      symbol,
		Kind:        kind,
		Price:       models.Round2(latest.Close),
		RSI:         models.Round2(latest.RSI),
		MACDBuy:     latest.MACD > latest.MACDSignal,
		Support:     models.Round2(support),
		Resistance:  models.Round2(resistance),
		VolumeRatio: models.Round2(latest.VolumeRatio),
		VolumeAlert: latest.VolumeAlert,
		DetectedAt:  r.now(),
	}
	if meta != nil {
		rec.Name = meta.Name
		rec.CapBucket = capBucket(meta.MarketCap)
	}
	return rec
}

// supportResistance returns the min and max close over the trailing window.
func supportResistance(rows []models.IndicatorRow, window int) (support, resistance float64) {
	start := len(rows) - window
	if start < 0 {
		start = 0
	}
	support = rows[start].Close
	resistance = rows[start].Close
	for _, row := range rows[start+1:] {
		if row.Close < support {
			support = row.Close
		}
		if row.Close > resistance {
			resistance = row.Close
		}
	}
	return support, resistance
}

// capBucket maps a yen market capitalization onto a coarse label.
func capBucket(marketCap int64) string {
	switch {
	case marketCap >= 1_000_000_000_000:
		return "Large"
	case marketCap >= 100_000_000_000:
		return "Mid"
	case marketCap > 0:
		return "Small"
	default:
		return ""
	}
}
