package langmodel

import "unicode/utf8"

// Sample picks a character by inverse-CDF sampling: it returns the first
// entry whose cumulative probability is at least draw, which is expected in
// [0, 1). If rounding keeps every cumulative probability below draw, the last
// entry is returned. An empty table returns utf8.RuneError.
//
// CalculateProbabilities must have been called on the table.
func (t *WindowTable) Sample(draw float64) rune {
	if len(t.Stats) == 0 {
		return utf8.RuneError
	}
	for _, s := range t.Stats {
		if s.CumulativeProbability >= draw {
			return s.Char
		}
	}
	return t.Stats[len(t.Stats)-1].Char
}
