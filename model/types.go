package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// StockIDSize is the capacity of a stock id, terminator included.
	StockIDSize = 13
	// StockSpecSize is the capacity of a stock spec, terminator included.
	StockSpecSize = 11
)

var ErrInvalidStockID = errors.New("invalid stock id")

// StockID is the exchange ticker (CODNEG) naming one series.
// It doubles as the file name of the series inside the database directory.
type StockID string

func (id StockID) Validate() error {
	s := string(id)
	switch {
	case s == "":
		return fmt.Errorf("%w: empty", ErrInvalidStockID)
	case len(s) > StockIDSize-1:
		return fmt.Errorf("%w: '%s' is longer than %d characters", ErrInvalidStockID, s, StockIDSize-1)
	case strings.HasPrefix(s, "."):
		return fmt.Errorf("%w: '%s' starts with a dot", ErrInvalidStockID, s)
	case strings.ContainsAny(s, "/\\\x00"):
		return fmt.Errorf("%w: '%s' contains a path separator", ErrInvalidStockID, s)
	}
	return nil
}

func (id StockID) String() string {
	return string(id)
}

// DailyQuote is one trading day of one stock.
// Prices and volume are in units of 1/100 of the stock currency;
// the unit price is a price field divided by PriceFactor.
type DailyQuote struct {
	TradingDate  time.Time
	StockSpec    string
	PriceFactor  uint32
	OpeningPrice uint64
	ClosingPrice uint64
	MinimumPrice uint64
	MaximumPrice uint64
	AveragePrice uint64
	TotalTrades  uint32
	TotalStocks  uint64
	TotalVolume  uint64
}

// TradingDay builds the normalized timestamp of a trading date: noon UTC,
// so that no timezone conversion moves it to another calendar day.
func TradingDay(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}

// StockQuote ties a parsed quote to its stock.
type StockQuote struct {
	Stock StockID
	Quote DailyQuote
}

// QuoteRow is the exported form of a daily quote.
type QuoteRow struct {
	Date         time.Time `col:"date"          parquet:"date"           type:"date"`
	Spec         string    `col:"spec"          parquet:"spec,dict"`
	PriceFactor  uint32    `col:"price_factor"  parquet:"price_factor"`
	OpeningPrice uint64    `col:"opening_price" parquet:"opening_price"`
	ClosingPrice uint64    `col:"closing_price" parquet:"closing_price"`
	MinimumPrice uint64    `col:"minimum_price" parquet:"minimum_price"`
	MaximumPrice uint64    `col:"maximum_price" parquet:"maximum_price"`
	AveragePrice uint64    `col:"average_price" parquet:"average_price"`
	TotalTrades  uint32    `col:"total_trades"  parquet:"total_trades"`
	TotalStocks  uint64    `col:"total_stocks"  parquet:"total_stocks"`
	TotalVolume  uint64    `col:"total_volume"  parquet:"total_volume"`
}

// UnitQuoteRow is a QuoteRow with prices and volume rendered in currency units.
type UnitQuoteRow struct {
	Date         time.Time `col:"date"          type:"date"`
	Spec         string    `col:"spec"`
	PriceFactor  uint32    `col:"price_factor"`
	OpeningPrice string    `col:"opening_price"`
	ClosingPrice string    `col:"closing_price"`
	MinimumPrice string    `col:"minimum_price"`
	MaximumPrice string    `col:"maximum_price"`
	AveragePrice string    `col:"average_price"`
	TotalTrades  uint32    `col:"total_trades"`
	TotalStocks  uint64    `col:"total_stocks"`
	TotalVolume  string    `col:"total_volume"`
}

func NewQuoteRow(q DailyQuote) QuoteRow {
	return QuoteRow{
		Date:         q.TradingDate,
		Spec:         q.StockSpec,
		PriceFactor:  q.PriceFactor,
		OpeningPrice: q.OpeningPrice,
		ClosingPrice: q.ClosingPrice,
		MinimumPrice: q.MinimumPrice,
		MaximumPrice: q.MaximumPrice,
		AveragePrice: q.AveragePrice,
		TotalTrades:  q.TotalTrades,
		TotalStocks:  q.TotalStocks,
		TotalVolume:  q.TotalVolume,
	}
}
