package bovespa

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jing2uo/b3hist/model"
)

func relevantFields() Fields {
	return Fields{
		Year:        "2024",
		Month:       "1",
		Day:         "2",
		BDICode:     LotStandard,
		Ticker:      "VALE3",
		MarketType:  MarketCash,
		Spec:        "ON NM",
		Currency:    CurrencyReal,
		Open:        "6510",
		Max:         "6620",
		Min:         "6490",
		Avg:         "6555",
		Last:        "6600",
		Trades:      "41234",
		Quantity:    "12000300",
		Volume:      "78654321000",
		PriceFactor: "1",
	}
}

func TestRelevant(t *testing.T) {
	assert.True(t, Relevant(relevantFields()))

	f := relevantFields()
	f.MarketType = "70"
	assert.False(t, Relevant(f), "options market")

	f = relevantFields()
	f.BDICode = "96"
	assert.False(t, Relevant(f), "odd lot")

	f = relevantFields()
	f.Currency = "US$"
	assert.False(t, Relevant(f), "foreign currency")
}

func TestConvert(t *testing.T) {
	sq, err := Convert(relevantFields())
	require.NoError(t, err)

	assert.Equal(t, model.StockID("VALE3"), sq.Stock)
	q := sq.Quote
	assert.Equal(t, time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC), q.TradingDate)
	assert.Equal(t, "ON NM", q.StockSpec)
	assert.Equal(t, uint64(6510), q.OpeningPrice)
	assert.Equal(t, uint64(6620), q.MaximumPrice)
	assert.Equal(t, uint64(6490), q.MinimumPrice)
	assert.Equal(t, uint64(6555), q.AveragePrice)
	assert.Equal(t, uint64(6600), q.ClosingPrice)
	assert.Equal(t, uint32(41234), q.TotalTrades)
	assert.Equal(t, uint64(12000300), q.TotalStocks)
	assert.Equal(t, uint64(78654321000), q.TotalVolume)
	assert.Equal(t, uint32(1), q.PriceFactor)
}

func TestConvertEmptyNumberIsZero(t *testing.T) {
	f := relevantFields()
	f.Trades = ""
	f.Open = ""

	sq, err := Convert(f)
	require.NoError(t, err)
	assert.Zero(t, sq.Quote.TotalTrades)
	assert.Zero(t, sq.Quote.OpeningPrice)
}

func TestConvertRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Fields)
		want   error
	}{
		{"letters in price", func(f *Fields) { f.Max = "66A0" }, ErrBadNumber},
		{"negative volume", func(f *Fields) { f.Volume = "-1" }, ErrBadNumber},
		{"month 13", func(f *Fields) { f.Month = "13" }, ErrBadDate},
		{"february 30", func(f *Fields) { f.Month = "2"; f.Day = "30" }, ErrBadDate},
		{"day zero", func(f *Fields) { f.Day = "0" }, ErrBadDate},
		{"empty ticker", func(f *Fields) { f.Ticker = "" }, ErrBadStockID},
		{"dotted ticker", func(f *Fields) { f.Ticker = ".HIDDEN" }, ErrBadStockID},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := relevantFields()
			c.mutate(&f)
			_, err := Convert(f)
			assert.ErrorIs(t, err, c.want)
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}
