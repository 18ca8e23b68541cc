package database

import (
	"github.com/jing2uo/b3hist/model"
)

// MirrorRepository is a SQL copy of the stock database for ad-hoc queries.
type MirrorRepository interface {
	Connect() error
	Close() error

	InitSchema() error

	// Replace* empty a table and load it from a CSV file with a header row.
	ReplaceDailyQuotes(csvPath string) error
	ReplaceStocks(csvPath string) error

	CountRows(table *model.TableMeta) (int64, error)
	QueryStocks() ([]model.MirrorStock, error)
	QueryCurrentRegime(stock model.StockID) ([]model.MirrorQuote, error)
}
