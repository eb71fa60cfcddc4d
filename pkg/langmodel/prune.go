package langmodel

import (
	"context"
	"log/slog"
)

// Prune removes every entry whose count is less than or equal to minCount,
// dropping windows that are left without successors. Surviving entries keep
// their order. If the model's probabilities were calculated they are
// recalculated. It returns the number of entries removed.
func (m *Model) Prune(ctx context.Context, minCount int) (int, error) {
	if !m.trained {
		return 0, ErrUninitializedModel
	}

	var removed, windowsRemoved int
	order := m.order[:0]
	for _, window := range m.order {
		t := m.tables[window]
		kept := t.Stats[:0]
		for _, s := range t.Stats {
			if s.Count > minCount {
				kept = append(kept, s)
			} else {
				removed++
			}
		}
		t.Stats = kept
		if len(kept) == 0 {
			delete(m.tables, window)
			windowsRemoved++
			continue
		}
		order = append(order, window)
	}
	m.order = order

	if m.calculated {
		for _, t := range m.tables {
			t.CalculateProbabilities()
		}
	}

	m.logger.InfoContext(ctx, "Model pruned",
		slog.Int("window_length", m.windowLength),
		slog.Int("min_count", minCount),
		slog.Int("entries_removed", removed),
		slog.Int("windows_removed", windowsRemoved),
	)
	return removed, nil
}
