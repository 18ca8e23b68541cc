package store

import (
	"github.com/jing2uo/b3hist/model"
)

// History is a read-only view of the stored series of one stock.
// The view is backed by the mapped file; Close releases it and the view
// must not be used afterwards.
type History struct {
	stock     model.StockID
	path      string
	data      []byte
	length    int
	lastXplit int
	release   func() error
}

func (h *History) Stock() model.StockID { return h.stock }

// Path is the file the view was read from.
func (h *History) Path() string { return h.path }

func (h *History) Len() int { return h.length }

// LastXplit is the index of the first quote of the current price regime.
func (h *History) LastXplit() int { return h.lastXplit }

// Quote decodes the i-th quote of the series.
func (h *History) Quote(i int) model.DailyQuote {
	off := headerSize + i*recordSize
	return decodeRecord(h.data[off : off+recordSize])
}

// Quotes decodes the series from index from onwards into a fresh slice.
func (h *History) Quotes(from int) []model.DailyQuote {
	if from < 0 {
		from = 0
	}
	if from >= h.length {
		return nil
	}
	out := make([]model.DailyQuote, 0, h.length-from)
	for i := from; i < h.length; i++ {
		out = append(out, h.Quote(i))
	}
	return out
}

// Record returns the raw bytes of the i-th quote record.
func (h *History) Record(i int) []byte {
	off := headerSize + i*recordSize
	return h.data[off : off+recordSize : off+recordSize]
}

func (h *History) Close() error {
	if h == nil || h.release == nil {
		return nil
	}
	release := h.release
	h.release = nil
	h.data = nil
	return release()
}
