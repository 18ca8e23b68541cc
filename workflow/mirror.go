package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/jing2uo/b3hist/database"
	"github.com/jing2uo/b3hist/model"
	"github.com/jing2uo/b3hist/store"
	"github.com/jing2uo/b3hist/utils"
)

// MirrorResult summarizes one mirror run.
type MirrorResult struct {
	Stocks   int
	Quotes   int
	Duration time.Duration
}

type mirrorBatch struct {
	stock  model.MirrorStock
	quotes []model.MirrorQuote
}

// Mirror reloads the SQL mirror with every stock of the database. Stock
// files are read concurrently and staged as CSV before the load.
func Mirror(ctx context.Context, st *store.Store, repo database.MirrorRepository, log *zap.Logger) (*MirrorResult, error) {
	if log == nil {
		log = zap.NewNop()
	}
	start := time.Now()

	ids, err := st.List()
	if err != nil {
		return nil, err
	}

	staging, err := utils.MakeStagingDir("mirror")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	quotesCSV := filepath.Join(staging, model.TableDailyQuotes.TableName+".csv")
	stocksCSV := filepath.Join(staging, model.TableStocks.TableName+".csv")

	qw, err := utils.NewCSVWriter[model.MirrorQuote](quotesCSV)
	if err != nil {
		return nil, err
	}
	var stocks []model.MirrorStock

	pipeline := utils.NewPipeline[model.StockID, mirrorBatch](utils.WithFailFast())
	res, err := pipeline.Run(ctx, ids,
		func(_ context.Context, id model.StockID) ([]mirrorBatch, error) {
			return readMirrorBatch(st, id)
		},
		func(batches []mirrorBatch) error {
			for _, b := range batches {
				stocks = append(stocks, b.stock)
				if err := qw.Write(b.quotes); err != nil {
					return err
				}
			}
			return nil
		})
	if cerr := qw.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	if res.HasErrors() {
		return nil, fmt.Errorf("failed to read stocks: %w", res.Err())
	}

	sw, err := utils.NewCSVWriter[model.MirrorStock](stocksCSV)
	if err != nil {
		return nil, err
	}
	if err := sw.Write(stocks); err != nil {
		sw.Close()
		return nil, err
	}
	if err := sw.Close(); err != nil {
		return nil, err
	}

	if err := repo.InitSchema(); err != nil {
		return nil, fmt.Errorf("failed to init mirror schema: %w", err)
	}
	if err := repo.ReplaceDailyQuotes(quotesCSV); err != nil {
		return nil, err
	}
	if err := repo.ReplaceStocks(stocksCSV); err != nil {
		return nil, err
	}

	result := &MirrorResult{
		Stocks:   len(stocks),
		Quotes:   qw.Rows(),
		Duration: time.Since(start),
	}
	log.Info("mirror loaded",
		zap.Int("stocks", result.Stocks),
		zap.Int("quotes", result.Quotes),
		zap.Duration("took", result.Duration))
	return result, nil
}

func readMirrorBatch(st *store.Store, id model.StockID) ([]mirrorBatch, error) {
	h, err := st.Load(id)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, nil
	}
	defer h.Close()

	b := mirrorBatch{
		stock: model.MirrorStock{
			Stock:     id.String(),
			Quotes:    int64(h.Len()),
			LastXplit: int64(h.LastXplit()),
		},
		quotes: make([]model.MirrorQuote, h.Len()),
	}
	for i := range b.quotes {
		q := h.Quote(i)
		b.quotes[i] = model.MirrorQuote{
			Stock:        id.String(),
			Seq:          int64(i),
			Date:         q.TradingDate,
			Spec:         q.StockSpec,
			PriceFactor:  int64(q.PriceFactor),
			OpeningPrice: int64(q.OpeningPrice),
			ClosingPrice: int64(q.ClosingPrice),
			MinimumPrice: int64(q.MinimumPrice),
			MaximumPrice: int64(q.MaximumPrice),
			AveragePrice: int64(q.AveragePrice),
			TotalTrades:  int64(q.TotalTrades),
			TotalStocks:  int64(q.TotalStocks),
			TotalVolume:  int64(q.TotalVolume),
		}
	}
	return []mirrorBatch{b}, nil
}
