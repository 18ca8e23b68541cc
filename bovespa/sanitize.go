package bovespa

import "strings"

// Sanitize normalizes a raw fixed-width field: surrounding spaces are
// removed, inner runs of spaces collapse to one, and leading zeros are
// stripped while keeping at least one character.
func Sanitize(field string) string {
	s := strings.Trim(field, " ")
	if strings.Contains(s, "  ") {
		var b strings.Builder
		b.Grow(len(s))
		prevSpace := false
		for i := 0; i < len(s); i++ {
			c := s[i]
			if c == ' ' {
				if prevSpace {
					continue
				}
				prevSpace = true
			} else {
				prevSpace = false
			}
			b.WriteByte(c)
		}
		s = b.String()
	}
	for len(s) > 1 && s[0] == '0' {
		s = s[1:]
	}
	return s
}
