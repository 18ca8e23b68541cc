package calc

import (
	"regexp"

	"github.com/jing2uo/b3hist/model"
)

// xplitPattern matches specs of ex-rights quotes (EB, EG, EDB, EJG ...).
var xplitPattern = regexp.MustCompile(`E.?[BG] *`)

// IsXplitSpec reports whether a stock spec marks the first quotes after an
// inplit, split or bonus.
func IsXplitSpec(spec string) bool {
	return xplitPattern.MatchString(spec)
}

// DetectXplit returns the index of the first quote of the current price
// regime, or 0 when the whole series is comparable.
//
// The series is scanned from its end; the regime starts right after the
// latest quote that does not carry an ex-rights spec while its successor
// does.
func DetectXplit(quotes []model.DailyQuote) int {
	laterMatched := false
	for i := len(quotes) - 1; i >= 0; i-- {
		matched := IsXplitSpec(quotes[i].StockSpec)
		if laterMatched && !matched {
			return i + 1
		}
		laterMatched = matched
	}
	return 0
}
