package bovespa

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jing2uo/b3hist/model"
)

// Relevance codes, compared against sanitized text.
const (
	MarketCash   = "10" // tp_merc 010: mercado a vista
	LotStandard  = "2"  // cod_bdi 02: lote padrao
	CurrencyReal = "R$" // mod_ref
)

// Relevant reports whether a quote register belongs to the maintained
// series: cash market, standard lot, quoted in local currency.
func Relevant(f Fields) bool {
	return f.MarketType == MarketCash &&
		f.BDICode == LotStandard &&
		f.Currency == CurrencyReal
}

// Convert turns the text fields of a relevant register into a typed quote.
// Any field that is not entirely digits fails the conversion.
func Convert(f Fields) (model.StockQuote, error) {
	var sq model.StockQuote

	id := model.StockID(f.Ticker)
	if err := id.Validate(); err != nil {
		return sq, fmt.Errorf("%w: %v", ErrBadStockID, err)
	}
	sq.Stock = id

	date, err := tradingDate(f.Year, f.Month, f.Day)
	if err != nil {
		return sq, err
	}

	q := model.DailyQuote{
		TradingDate: date,
		StockSpec:   f.Spec,
	}

	conversions := []struct {
		name string
		text string
		bits int
		set  func(uint64)
	}{
		{PreAbe, f.Open, 64, func(v uint64) { q.OpeningPrice = v }},
		{PreMax, f.Max, 64, func(v uint64) { q.MaximumPrice = v }},
		{PreMin, f.Min, 64, func(v uint64) { q.MinimumPrice = v }},
		{PreMed, f.Avg, 64, func(v uint64) { q.AveragePrice = v }},
		{PreUlt, f.Last, 64, func(v uint64) { q.ClosingPrice = v }},
		{TotNeg, f.Trades, 32, func(v uint64) { q.TotalTrades = uint32(v) }},
		{QuaTot, f.Quantity, 64, func(v uint64) { q.TotalStocks = v }},
		{VolTot, f.Volume, 64, func(v uint64) { q.TotalVolume = v }},
		{FatCot, f.PriceFactor, 32, func(v uint64) { q.PriceFactor = uint32(v) }},
	}
	for _, c := range conversions {
		v, err := parseUnsigned(c.name, c.text, c.bits)
		if err != nil {
			return sq, err
		}
		c.set(v)
	}

	sq.Quote = q
	return sq, nil
}

// parseUnsigned reads a sanitized numeric field. An empty field reads as 0.
func parseUnsigned(name, text string, bits int) (uint64, error) {
	if text == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(text, 10, bits)
	if err != nil {
		return 0, fmt.Errorf("%w: field %s ('%s')", ErrBadNumber, name, text)
	}
	return v, nil
}

func tradingDate(year, month, day string) (time.Time, error) {
	y, err := parseUnsigned(AnoPregao, year, 16)
	if err != nil {
		return time.Time{}, err
	}
	m, err := parseUnsigned(MesPregao, month, 8)
	if err != nil {
		return time.Time{}, err
	}
	d, err := parseUnsigned(DiaPregao, day, 8)
	if err != nil {
		return time.Time{}, err
	}

	date := model.TradingDay(int(y), time.Month(m), int(d))
	if m < 1 || m > 12 || d < 1 || date.Day() != int(d) {
		return time.Time{}, fmt.Errorf("%w: %s-%s-%s", ErrBadDate, year, month, day)
	}
	return date, nil
}
