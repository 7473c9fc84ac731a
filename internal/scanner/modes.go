package scanner

import (
	"context"
	"fmt"

	"github.com/mtanaka-dev/tsescan/internal/digest"
	"github.com/mtanaka-dev/tsescan/internal/logger"
)

// ScanAndNotify runs a single-shot cycle over the full universe. An empty
// result sends nothing; the notification step is skipped entirely.
func (r *Runner) ScanAndNotify(ctx context.Context, symbols []string) error {
	d, err := r.Scan(ctx, symbols)
	if err != nil {
		return err
	}
	if d.Empty() {
		logger.Info("No qualifying instruments; skipping notification")
		return nil
	}
	return r.notify(d.Render())
}

// ScanBatched splits the universe into fixed-size chunks evaluated as
// sequential sub-cycles against one shared ledger, so dedup stays correct
// across chunks. Each non-empty chunk notifies on its own (bounding message
// size); when every chunk comes up empty, exactly one "nothing found"
// notification is sent.
func (r *Runner) ScanBatched(ctx context.Context, symbols []string, chunkSize int) error {
	if chunkSize <= 0 {
		chunkSize = 20
	}

	led := r.store.ForDate(r.TradeDate())
	sent := false

	for start := 0; start < len(symbols); start += chunkSize {
		end := start + chunkSize
		if end > len(symbols) {
			end = len(symbols)
		}

		d, err := r.scanCycle(ctx, symbols[start:end], led)
		if err != nil {
			return err
		}
		if d.Empty() {
			continue
		}
		if err := r.notify(d.Render()); err != nil {
			return err
		}
		sent = true
	}

	if !sent {
		d := digest.Digest{TradeDate: led.TradeDate()}
		return r.notify(d.RenderEmpty())
	}
	return nil
}

// RunInteractive evaluates on demand and always returns a message: the
// digest when something qualified, the "nothing found" text otherwise.
func (r *Runner) RunInteractive(ctx context.Context, symbols []string) (string, error) {
	d, err := r.Scan(ctx, symbols)
	if err != nil {
		return "", err
	}
	if d.Empty() {
		return d.RenderEmpty(), nil
	}
	return d.Render(), nil
}

func (r *Runner) notify(text string) error {
	if r.notifier == nil {
		logger.Debug("Notifier disabled; dropping %d-byte digest", len(text))
		return nil
	}
	if err := r.notifier.Notify(text); err != nil {
		return fmt.Errorf("notification failed: %w", err)
	}
	return nil
}
