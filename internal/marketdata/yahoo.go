// Package marketdata fetches daily OHLCV history and instrument metadata
// from Yahoo Finance.
package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/equity"

	"github.com/mtanaka-dev/tsescan/internal/logger"
	"github.com/mtanaka-dev/tsescan/internal/models"
)

// Meta is best-effort instrument metadata. Zero values mean the lookup
// found nothing; that is not an error.
type Meta struct {
	Name      string
	MarketCap int64
}

// Client fetches bars and metadata from Yahoo Finance.
type Client struct {
	lookbackDays   int
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a Yahoo Finance client fetching lookbackDays of daily
// history per instrument.
func NewClient(lookbackDays, maxRetries int, retryDelayBase time.Duration) *Client {
	if lookbackDays <= 0 {
		lookbackDays = 90
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &Client{
		lookbackDays:   lookbackDays,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

// History returns the daily bar series for one instrument, date ascending.
// Unknown or delisted symbols return an empty series rather than an error,
// so one bad ticker never aborts the batch.
func (c *Client) History(ctx context.Context, symbol string) (*models.Series, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -c.lookbackDays)

	var bars []models.Bar
	err := c.withRetry(ctx, func() error {
		params := &chart.Params{
			Symbol:   symbol,
			Start:    datetime.New(&start),
			End:      datetime.New(&end),
			Interval: datetime.OneDay,
		}

		iter := chart.Get(params)
		var fetched []models.Bar
		for iter.Next() {
			b := iter.Bar()
			fetched = append(fetched, models.Bar{
				Date:   time.Unix(int64(b.Timestamp), 0),
				Open:   b.Open.InexactFloat64(),
				High:   b.High.InexactFloat64(),
				Low:    b.Low.InexactFloat64(),
				Close:  b.Close.InexactFloat64(),
				Volume: int64(b.Volume),
			})
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("failed to fetch chart for %s: %w", symbol, err)
		}
		bars = fetched
		return nil
	})
	if err != nil {
		// Yahoo answers unknown symbols with a not-found error; treat it
		// as an empty series so the batch continues.
		logger.Warn("No chart data for %s: %v", symbol, err)
		return &models.Series{Symbol: symbol}, nil
	}

	return &models.Series{Symbol: symbol, Bars: bars}, nil
}

// Lookup returns the display name and market capitalization for a symbol.
// Absence is not an error; a nil Meta means nothing was found.
func (c *Client) Lookup(ctx context.Context, symbol string) (*Meta, error) {
	var meta *Meta
	err := c.withRetry(ctx, func() error {
		e, err := equity.Get(symbol)
		if err != nil {
			return fmt.Errorf("failed to fetch equity %s: %w", symbol, err)
		}
		if e == nil {
			return nil
		}
		name := e.ShortName
		if name == "" {
			name = e.LongName
		}
		meta = &Meta{Name: name, MarketCap: e.MarketCap}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return meta, nil
}

// withRetry runs fn with linear-backoff retries, honoring ctx between
// attempts.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelayBase * time.Duration(i+1)):
		}
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
