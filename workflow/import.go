package workflow

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/jing2uo/b3hist/bovespa"
	"github.com/jing2uo/b3hist/calc"
	"github.com/jing2uo/b3hist/model"
	"github.com/jing2uo/b3hist/store"
)

// XplitEvent records a stock whose current price regime moved.
type XplitEvent struct {
	Stock     model.StockID
	Previous  int
	LastXplit int
}

// ImportResult summarizes one import.
type ImportResult struct {
	Summary  *bovespa.Summary
	Stocks   int // stocks written
	Quotes   int // quotes merged into the database
	Xplits   []XplitEvent
	Duration time.Duration
}

// Import parses an extract and merges its quotes into the database.
// The whole extract is parsed before any stock is written, so a format
// error leaves the database untouched.
func Import(ctx context.Context, r io.Reader, st *store.Store, log *zap.Logger) (*ImportResult, error) {
	if log == nil {
		log = zap.NewNop()
	}
	start := time.Now()

	batch, summary, err := bovespa.ParseAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse extract: %w", err)
	}
	log.Info("extract parsed",
		zap.Stringer("dialect", summary.Dialect),
		zap.String("file", summary.Header[bovespa.NomeArquivo]),
		zap.String("generated", summary.Header[bovespa.DataGeracao]),
		zap.Int("registers", summary.Registers),
		zap.Int("quotes", summary.Quotes),
		zap.Int("ignored", summary.Ignored))

	result := &ImportResult{Summary: summary}
	for _, run := range calc.GroupBatch(batch) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		event, err := mergeStock(st, run, log)
		if err != nil {
			return result, err
		}
		if event != nil {
			result.Xplits = append(result.Xplits, *event)
		}
		result.Stocks++
		result.Quotes += len(run.Quotes)
	}

	result.Duration = time.Since(start)
	log.Info("import finished",
		zap.Int("stocks", result.Stocks),
		zap.Int("quotes", result.Quotes),
		zap.Duration("took", result.Duration))
	return result, nil
}

// mergeStock folds one fresh run into the stored series of its stock.
func mergeStock(st *store.Store, run calc.StockBatch, log *zap.Logger) (*XplitEvent, error) {
	h, err := st.Load(run.Stock)
	if err != nil {
		return nil, err
	}

	var stored []model.DailyQuote
	previous := 0
	if h != nil {
		stored = h.Quotes(0)
		previous = h.LastXplit()
		if err := h.Close(); err != nil {
			return nil, fmt.Errorf("failed to release stock '%s': %w", run.Stock, err)
		}
	}

	merged := calc.MergeQuotes(stored, run.Quotes)
	lastXplit := calc.DetectXplit(merged)

	var event *XplitEvent
	if lastXplit != previous {
		if lastXplit != 0 {
			log.Info("inplit / split detected",
				zap.String("stock", run.Stock.String()),
				zap.Int("position", lastXplit))
		} else {
			log.Info("price regime reset",
				zap.String("stock", run.Stock.String()),
				zap.Int("previous", previous))
		}
		event = &XplitEvent{Stock: run.Stock, Previous: previous, LastXplit: lastXplit}
	}
	log.Debug("stock merged",
		zap.String("stock", run.Stock.String()),
		zap.Int("stored", len(stored)),
		zap.Int("fresh", len(run.Quotes)),
		zap.Int("merged", len(merged)),
		zap.Int("last_xplit", lastXplit))

	if err := st.Write(run.Stock, merged, lastXplit); err != nil {
		return nil, err
	}
	return event, nil
}
