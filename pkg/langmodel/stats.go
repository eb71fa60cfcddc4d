package langmodel

// ModelStats holds aggregated statistics for a model.
type ModelStats struct {
	WindowLength  int // The number of characters in each window
	Windows       int // The number of distinct windows with at least one successor
	Transitions   int // The sum of all counts; the number of trained window->character steps
	Entries       int // The number of distinct window->character pairs
	DistinctChars int // The number of distinct characters seen as successors
	MaxBranching  int // The largest number of distinct successors of a single window
}

// Stats returns a snapshot of statistics for the model.
func (m *Model) Stats() ModelStats {
	stats := ModelStats{
		WindowLength: m.windowLength,
		Windows:      len(m.tables),
	}
	chars := make(map[rune]struct{})
	for _, t := range m.tables {
		stats.Entries += len(t.Stats)
		if len(t.Stats) > stats.MaxBranching {
			stats.MaxBranching = len(t.Stats)
		}
		for _, s := range t.Stats {
			stats.Transitions += s.Count
			chars[s.Char] = struct{}{}
		}
	}
	stats.DistinctChars = len(chars)
	return stats
}
