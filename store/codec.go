package store

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jing2uo/b3hist/model"
)

// On-disk layout, host byte order:
//
//	header  series length uint64 | last xplit uint64
//	record  date int64 (unix seconds) | spec [11]byte | pad
//	        price factor uint32 | open, close, min, max, avg uint64
//	        trades uint32 | pad | stocks uint64 | volume uint64
const (
	headerSize = 16
	recordSize = 88

	offDate   = 0
	offSpec   = 8
	offFactor = 20
	offOpen   = 24
	offClose  = 32
	offMin    = 40
	offMax    = 48
	offAvg    = 56
	offTrades = 64
	offStocks = 72
	offVolume = 80
)

var byteOrder = binary.NativeEndian

func encodeHeader(buf []byte, length, lastXplit int) {
	byteOrder.PutUint64(buf[0:], uint64(length))
	byteOrder.PutUint64(buf[8:], uint64(lastXplit))
}

func encodeRecord(buf []byte, q model.DailyQuote) error {
	if len(q.StockSpec) > model.StockSpecSize-1 {
		return fmt.Errorf("stock spec '%s' is longer than %d characters", q.StockSpec, model.StockSpecSize-1)
	}
	clear(buf[:recordSize])
	byteOrder.PutUint64(buf[offDate:], uint64(q.TradingDate.Unix()))
	copy(buf[offSpec:offSpec+model.StockSpecSize], q.StockSpec)
	byteOrder.PutUint32(buf[offFactor:], q.PriceFactor)
	byteOrder.PutUint64(buf[offOpen:], q.OpeningPrice)
	byteOrder.PutUint64(buf[offClose:], q.ClosingPrice)
	byteOrder.PutUint64(buf[offMin:], q.MinimumPrice)
	byteOrder.PutUint64(buf[offMax:], q.MaximumPrice)
	byteOrder.PutUint64(buf[offAvg:], q.AveragePrice)
	byteOrder.PutUint32(buf[offTrades:], q.TotalTrades)
	byteOrder.PutUint64(buf[offStocks:], q.TotalStocks)
	byteOrder.PutUint64(buf[offVolume:], q.TotalVolume)
	return nil
}

func decodeRecord(buf []byte) model.DailyQuote {
	spec := string(buf[offSpec : offSpec+model.StockSpecSize])
	if i := strings.IndexByte(spec, 0); i >= 0 {
		spec = spec[:i]
	}
	return model.DailyQuote{
		TradingDate:  time.Unix(int64(byteOrder.Uint64(buf[offDate:])), 0).UTC(),
		StockSpec:    spec,
		PriceFactor:  byteOrder.Uint32(buf[offFactor:]),
		OpeningPrice: byteOrder.Uint64(buf[offOpen:]),
		ClosingPrice: byteOrder.Uint64(buf[offClose:]),
		MinimumPrice: byteOrder.Uint64(buf[offMin:]),
		MaximumPrice: byteOrder.Uint64(buf[offMax:]),
		AveragePrice: byteOrder.Uint64(buf[offAvg:]),
		TotalTrades:  byteOrder.Uint32(buf[offTrades:]),
		TotalStocks:  byteOrder.Uint64(buf[offStocks:]),
		TotalVolume:  byteOrder.Uint64(buf[offVolume:]),
	}
}

// writeSeries serializes a whole series.
func writeSeries(w io.Writer, quotes []model.DailyQuote, lastXplit int) error {
	buf := make([]byte, recordSize)
	encodeHeader(buf, len(quotes), lastXplit)
	if _, err := w.Write(buf[:headerSize]); err != nil {
		return err
	}
	for _, q := range quotes {
		if err := encodeRecord(buf, q); err != nil {
			return err
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// checkSeries validates the size of a mapped file against its header.
func checkSeries(data []byte) (length, lastXplit int, err error) {
	if len(data) < headerSize {
		return 0, 0, fmt.Errorf("%w: %d bytes, shorter than its header", ErrCorrupt, len(data))
	}
	n := byteOrder.Uint64(data[0:])
	x := byteOrder.Uint64(data[8:])
	body := uint64(len(data) - headerSize)
	if body%recordSize != 0 || body/recordSize != n {
		return 0, 0, fmt.Errorf("%w: header declares %d quotes in %d bytes", ErrCorrupt, n, len(data))
	}
	if x > n {
		return 0, 0, fmt.Errorf("%w: last xplit %d past %d quotes", ErrCorrupt, x, n)
	}
	return int(n), int(x), nil
}
