package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jing2uo/b3hist/model"
)

func TestIsXplitSpec(t *testing.T) {
	for _, spec := range []string{"EB", "EG", "ON EB N1", "PN EDB", "ON EJG NM"} {
		assert.True(t, IsXplitSpec(spec), spec)
	}
	for _, spec := range []string{"", "ON", "PN N1", "ON NM", "UNT", "ED", "ON EJ", "ED B"} {
		assert.False(t, IsXplitSpec(spec), spec)
	}
}

func series(specs ...string) []model.DailyQuote {
	qs := make([]model.DailyQuote, len(specs))
	for i, s := range specs {
		qs[i] = model.DailyQuote{TradingDate: day(i + 1), StockSpec: s}
	}
	return qs
}

func TestDetectXplit(t *testing.T) {
	cases := []struct {
		name  string
		specs []string
		want  int
	}{
		{"empty", nil, 0},
		{"plain", []string{"ON", "ON", "ON"}, 0},
		{"all marked", []string{"ON EB", "ON EB"}, 0},
		{"marked first", []string{"ON EB", "ON", "ON"}, 0},
		{"regime change", []string{"ON", "ON", "ON EB", "ON EB", "ON"}, 2},
		{"latest change wins", []string{"ON", "ON EG", "ON", "ON", "ON EDB", "ON"}, 4},
		{"last quote marked", []string{"ON", "ON", "ON EB"}, 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, DetectXplit(series(c.specs...)))
		})
	}
}

func TestDetectXplitDeterministic(t *testing.T) {
	qs := series("ON", "ON EB", "ON")
	assert.Equal(t, DetectXplit(qs), DetectXplit(qs))
}
