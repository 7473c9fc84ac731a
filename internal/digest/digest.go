// Package digest groups alert records by kind and renders the notification
// text. The grouping and section order encode the alert precedence policy:
// buy signals first, then oversold RSI, then sudden drops, then multi-day
// drops.
package digest

import (
	"fmt"
	"strings"

	"github.com/mtanaka-dev/tsescan/internal/models"
)

// Section is one non-empty alert partition.
type Section struct {
	Kind    models.AlertKind
	Records []models.AlertRecord
}

// Digest is the tagged aggregation result for one evaluation cycle. An
// empty digest means nothing qualified; callers decide per invocation mode
// whether that still produces a notification.
type Digest struct {
	TradeDate string
	Sections  []Section
}

// Build partitions records by kind in precedence order.
func Build(tradeDate string, records []models.AlertRecord) Digest {
	d := Digest{TradeDate: tradeDate}
	for _, kind := range models.Kinds {
		var part []models.AlertRecord
		for _, r := range records {
			if r.Kind == kind {
				part = append(part, r)
			}
		}
		if len(part) > 0 {
			d.Sections = append(d.Sections, Section{Kind: kind, Records: part})
		}
	}
	return d
}

// Empty reports whether no records qualified this cycle.
func (d Digest) Empty() bool {
	return len(d.Sections) == 0
}

func heading(tradeDate string) string {
	return fmt.Sprintf("📈 Tokyo Stock Scan (%s)\n\n", tradeDate)
}

var sectionHeaders = map[models.AlertKind]string{
	models.KindBuyConfluence: "🟢 BUY CONFLUENCE",
	models.KindLowRSI:        "🔵 RSI OVERSOLD",
	models.KindSuddenDrop:    "🔻 PRICE DROP ALERT !!!",
	models.KindMultiDayDrop:  "📉 MULTI-DAY DECLINE",
}

const footer = "\nTrading View: https://www.tradingview.com/chart/\n" +
	"Rakuten Security: https://www.rakuten-sec.co.jp\n"

// Render produces the digest text: one headed block per non-empty section,
// concatenated in precedence order. Call RenderEmpty instead when Empty().
func (d Digest) Render() string {
	var b strings.Builder
	b.WriteString(heading(d.TradeDate))

	for _, sec := range d.Sections {
		b.WriteString(sectionHeaders[sec.Kind])
		b.WriteString("\n")
		for _, r := range sec.Records {
			writeRecord(&b, r)
		}
		b.WriteString("\n")
	}

	b.WriteString(footer)
	return b.String()
}

// RenderEmpty produces the "nothing found" message for modes that must
// notify even when no instrument qualified.
func (d Digest) RenderEmpty() string {
	return heading(d.TradeDate) + "No qualifying TSE stocks today.\n"
}

func writeRecord(b *strings.Builder, r models.AlertRecord) {
	name := r.Symbol
	if r.Name != "" {
		name = fmt.Sprintf("%s (%s)", r.Symbol, r.Name)
	}
	if r.CapBucket != "" {
		name += " [" + r.CapBucket + "]"
	}
	fmt.Fprintf(b, "%s  |  ¥%.2f\n", name, r.Price)

	switch r.Kind {
	case models.KindSuddenDrop:
		fmt.Fprintf(b, "%.2f %% Drop !!\n", -r.DropPct)
	case models.KindMultiDayDrop:
		fmt.Fprintf(b, "%.2f %% down over 5 sessions (from ¥%.2f)\n", -r.DropPct, r.RefClose)
	}

	fmt.Fprintf(b, "RSI %.2f • MACD %s\n", r.RSI, macdLabel(r.MACDBuy))
	if r.VolumeAlert {
		fmt.Fprintf(b, "Volume x%.2f vs 20-day average\n", r.VolumeRatio)
	}
	fmt.Fprintf(b, "Support ¥%.2f / Resistance ¥%.2f\n", r.Support, r.Resistance)
}

func macdLabel(buy bool) string {
	if buy {
		return "Buy"
	}
	return "Sell"
}
