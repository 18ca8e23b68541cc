package calc

import (
	"sort"

	"github.com/jing2uo/b3hist/model"
)

// StockBatch is the run of freshly parsed quotes of one stock, ordered by
// trading date with unique dates.
type StockBatch struct {
	Stock  model.StockID
	Quotes []model.DailyQuote
}

// GroupBatch sorts a parsed batch by stock and trading date and cuts it into
// per-stock runs. When the batch repeats a (stock, date) pair, the register
// read last wins.
func GroupBatch(batch []model.StockQuote) []StockBatch {
	sorted := make([]model.StockQuote, len(batch))
	copy(sorted, batch)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Stock != sorted[j].Stock {
			return sorted[i].Stock < sorted[j].Stock
		}
		return sorted[i].Quote.TradingDate.Before(sorted[j].Quote.TradingDate)
	})

	var runs []StockBatch
	for i, sq := range sorted {
		if i+1 < len(sorted) && sameDay(sq, sorted[i+1]) {
			continue
		}
		if n := len(runs); n == 0 || runs[n-1].Stock != sq.Stock {
			runs = append(runs, StockBatch{Stock: sq.Stock})
		}
		last := &runs[len(runs)-1]
		last.Quotes = append(last.Quotes, sq.Quote)
	}
	return runs
}

func sameDay(a, b model.StockQuote) bool {
	return a.Stock == b.Stock && a.Quote.TradingDate.Equal(b.Quote.TradingDate)
}

// MergeQuotes merges the stored series of a stock with a fresh run of the
// same stock. Both inputs are ascending with unique dates; on a date present
// in both, the fresh quote replaces the stored one.
func MergeQuotes(stored, fresh []model.DailyQuote) []model.DailyQuote {
	merged := make([]model.DailyQuote, 0, len(stored)+len(fresh))

	i, j := 0, 0
	for i < len(stored) && j < len(fresh) {
		a, b := stored[i].TradingDate, fresh[j].TradingDate
		switch {
		case a.Before(b):
			merged = append(merged, stored[i])
			i++
		case b.Before(a):
			merged = append(merged, fresh[j])
			j++
		default:
			merged = append(merged, fresh[j])
			i++
			j++
		}
	}
	merged = append(merged, stored[i:]...)
	merged = append(merged, fresh[j:]...)
	return merged
}
