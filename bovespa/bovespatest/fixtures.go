// Package bovespatest renders fixed-width exchange extracts for tests.
package bovespatest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jing2uo/b3hist/bovespa"
)

const (
	histWidth = 245
	bdinWidth = 350
)

// numeric fields are right aligned and zero padded.
var numeric = map[string]bool{
	bovespa.DataGeracao:    true,
	bovespa.HoraGeracao:    true,
	bovespa.TotalRegistros: true,
	bovespa.AnoPregao:      true,
	bovespa.MesPregao:      true,
	bovespa.DiaPregao:      true,
	bovespa.CodBDI:         true,
	bovespa.TpMerc:         true,
	bovespa.PreAbe:         true,
	bovespa.PreMax:         true,
	bovespa.PreMin:         true,
	bovespa.PreMed:         true,
	bovespa.PreUlt:         true,
	bovespa.TotNeg:         true,
	bovespa.QuaTot:         true,
	bovespa.VolTot:         true,
	bovespa.FatCot:         true,
}

// Quote is the content of one quote register.
type Quote struct {
	Ticker   string
	Spec     string
	Date     time.Time
	BDI      string
	Market   string
	Currency string
	Open     uint64
	Max      uint64
	Min      uint64
	Avg      uint64
	Last     uint64
	Trades   uint32
	Stocks   uint64
	Volume   uint64
	Factor   uint32
}

// Cash returns a relevant quote with every price set to price.
func Cash(ticker string, date time.Time, price uint64) Quote {
	return Quote{
		Ticker:   ticker,
		Spec:     "ON NM",
		Date:     date,
		BDI:      bovespa.LotStandard,
		Market:   bovespa.MarketCash,
		Currency: bovespa.CurrencyReal,
		Open:     price,
		Max:      price,
		Min:      price,
		Avg:      price,
		Last:     price,
		Trades:   10,
		Stocks:   1000,
		Volume:   price * 1000,
		Factor:   1,
	}
}

func (q Quote) Values() map[string]string {
	u := func(v uint64) string { return strconv.FormatUint(v, 10) }
	return map[string]string{
		bovespa.AnoPregao: fmt.Sprintf("%04d", q.Date.Year()),
		bovespa.MesPregao: fmt.Sprintf("%02d", int(q.Date.Month())),
		bovespa.DiaPregao: fmt.Sprintf("%02d", q.Date.Day()),
		bovespa.CodBDI:    q.BDI,
		bovespa.CodNeg:    q.Ticker,
		bovespa.TpMerc:    q.Market,
		bovespa.NomRes:    q.Ticker,
		bovespa.Especi:    q.Spec,
		bovespa.ModRef:    q.Currency,
		bovespa.PreAbe:    u(q.Open),
		bovespa.PreMax:    u(q.Max),
		bovespa.PreMin:    u(q.Min),
		bovespa.PreMed:    u(q.Avg),
		bovespa.PreUlt:    u(q.Last),
		bovespa.TotNeg:    u(uint64(q.Trades)),
		bovespa.QuaTot:    u(q.Stocks),
		bovespa.VolTot:    u(q.Volume),
		bovespa.FatCot:    u(uint64(q.Factor)),
		bovespa.CodISI:    "BR" + q.Ticker,
	}
}

// Render lays values out on a register of the given type code.
func Render(d bovespa.Dialect, kind bovespa.Section, code string, values map[string]string) string {
	var layout bovespa.Layout
	if kind != bovespa.SectionOther {
		var err error
		if layout, err = bovespa.LayoutOf(d, kind); err != nil {
			panic(err)
		}
	}
	width := histWidth
	if d == bovespa.DialectBDIN {
		width = bdinWidth
	}

	line := []byte(strings.Repeat(" ", width))
	copy(line, code)
	for _, f := range layout {
		v, ok := values[f.Name]
		if !ok {
			continue
		}
		size := f.To - f.From + 1
		if len(v) > size {
			panic(fmt.Sprintf("value '%s' does not fit field %s", v, f.Name))
		}
		if numeric[f.Name] {
			v = strings.Repeat("0", size-len(v)) + v
		}
		copy(line[f.From-1:], v)
	}
	return string(line)
}

// Hist renders a complete, consistent COTAHIST file.
func Hist(generated string, quotes ...Quote) string {
	header := map[string]string{
		bovespa.NomeArquivo:  "COTAHIST.2024",
		bovespa.CodigoOrigem: "BOVESPA",
		bovespa.DataGeracao:  generated,
	}
	lines := []string{Render(bovespa.DialectHIST, bovespa.SectionHeader, "00", header)}
	for _, q := range quotes {
		lines = append(lines, Render(bovespa.DialectHIST, bovespa.SectionQuotes, "01", q.Values()))
	}
	lines = append(lines, HistTrailer(header, len(lines)+1))
	return strings.Join(lines, "\n") + "\n"
}

// HistTrailer renders a COTAHIST trailer repeating the header fields.
func HistTrailer(header map[string]string, total int) string {
	values := map[string]string{bovespa.TotalRegistros: strconv.Itoa(total)}
	for k, v := range header {
		values[k] = v
	}
	return Render(bovespa.DialectHIST, bovespa.SectionTrailer, "99", values)
}

// Bdin renders a complete, consistent daily bulletin for one trading date.
// Every quote takes its date from the header.
func Bdin(date time.Time, quotes ...Quote) string {
	header := map[string]string{
		bovespa.NomeArquivo:   "BDIN9999",
		bovespa.CodigoOrigem:  "BOVESPA",
		bovespa.CodigoDestino: "9999",
		bovespa.DataGeracao:   date.Format("20060102"),
		bovespa.AnoPregao:     fmt.Sprintf("%04d", date.Year()),
		bovespa.MesPregao:     fmt.Sprintf("%02d", int(date.Month())),
		bovespa.DiaPregao:     fmt.Sprintf("%02d", date.Day()),
		bovespa.HoraGeracao:   "1900",
	}
	lines := []string{
		Render(bovespa.DialectBDIN, bovespa.SectionHeader, "00", header),
		Render(bovespa.DialectBDIN, bovespa.SectionOther, "01", nil),
	}
	for _, q := range quotes {
		lines = append(lines, Render(bovespa.DialectBDIN, bovespa.SectionQuotes, "02", q.Values()))
	}
	lines = append(lines, Render(bovespa.DialectBDIN, bovespa.SectionOther, "05", nil))

	trailer := map[string]string{
		bovespa.NomeArquivo:    header[bovespa.NomeArquivo],
		bovespa.CodigoOrigem:   header[bovespa.CodigoOrigem],
		bovespa.CodigoDestino:  header[bovespa.CodigoDestino],
		bovespa.DataGeracao:    header[bovespa.DataGeracao],
		bovespa.TotalRegistros: strconv.Itoa(len(lines) + 1),
	}
	lines = append(lines, Render(bovespa.DialectBDIN, bovespa.SectionTrailer, "99", trailer))
	return strings.Join(lines, "\n") + "\n"
}
