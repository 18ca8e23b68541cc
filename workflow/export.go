package workflow

import (
	"fmt"
	"io"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/jing2uo/b3hist/model"
	"github.com/jing2uo/b3hist/store"
	"github.com/jing2uo/b3hist/utils"
)

type ExportFormat string

const (
	FormatCSV     ExportFormat = "csv"
	FormatParquet ExportFormat = "parquet"
)

func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(s); f {
	case FormatCSV, FormatParquet:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format '%s' (expected csv or parquet)", s)
}

type ExportOptions struct {
	Format ExportFormat
	All    bool // whole series instead of the current price regime
	Header bool // csv only
	Units  bool // prices and volume in currency units
}

// ExportHistory writes the stored series of a stock to w and returns the
// number of rows written.
func ExportHistory(st *store.Store, id model.StockID, opts ExportOptions, w io.Writer) (int, error) {
	h, err := st.Load(id)
	if err != nil {
		return 0, err
	}
	if h == nil {
		return 0, fmt.Errorf("%w in database: '%s'", store.ErrStockNotFound, id)
	}
	defer h.Close()

	from := h.LastXplit()
	if opts.All {
		from = 0
	}
	quotes := h.Quotes(from)

	switch {
	case opts.Format == FormatParquet && opts.Units:
		return 0, fmt.Errorf("currency units are only rendered in csv exports")
	case opts.Format == FormatParquet:
		pw := utils.NewParquetStreamWriter[model.QuoteRow](w)
		if err := pw.Write(quoteRows(quotes)); err != nil {
			pw.Close()
			return 0, fmt.Errorf("failed to write parquet: %w", err)
		}
		return pw.Rows(), pw.Close()
	case opts.Units:
		return writeCSV(w, unitRows(quotes), opts.Header)
	default:
		return writeCSV(w, quoteRows(quotes), opts.Header)
	}
}

func writeCSV[T any](w io.Writer, rows []T, header bool) (int, error) {
	cw, err := utils.NewCSVStreamWriter[T](w, utils.WithHeader(header))
	if err != nil {
		return 0, err
	}
	if err := cw.Write(rows); err != nil {
		return 0, err
	}
	if err := cw.Close(); err != nil {
		return 0, err
	}
	return cw.Rows(), nil
}

func quoteRows(quotes []model.DailyQuote) []model.QuoteRow {
	rows := make([]model.QuoteRow, len(quotes))
	for i, q := range quotes {
		rows[i] = model.NewQuoteRow(q)
	}
	return rows
}

var hundred = decimal.NewFromInt(100)

func fromUint(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}

// unitPrice converts a price in 1/100 of the currency, quoted for
// factor stocks, to the currency price of one stock.
func unitPrice(v uint64, factor uint32) string {
	if factor == 0 {
		factor = 1
	}
	d := hundred.Mul(decimal.NewFromInt(int64(factor)))
	return fromUint(v).DivRound(d, 8).String()
}

func unitRows(quotes []model.DailyQuote) []model.UnitQuoteRow {
	rows := make([]model.UnitQuoteRow, len(quotes))
	for i, q := range quotes {
		rows[i] = model.UnitQuoteRow{
			Date:         q.TradingDate,
			Spec:         q.StockSpec,
			PriceFactor:  q.PriceFactor,
			OpeningPrice: unitPrice(q.OpeningPrice, q.PriceFactor),
			ClosingPrice: unitPrice(q.ClosingPrice, q.PriceFactor),
			MinimumPrice: unitPrice(q.MinimumPrice, q.PriceFactor),
			MaximumPrice: unitPrice(q.MaximumPrice, q.PriceFactor),
			AveragePrice: unitPrice(q.AveragePrice, q.PriceFactor),
			TotalTrades:  q.TotalTrades,
			TotalStocks:  q.TotalStocks,
			TotalVolume:  fromUint(q.TotalVolume).DivRound(hundred, 2).String(),
		}
	}
	return rows
}
