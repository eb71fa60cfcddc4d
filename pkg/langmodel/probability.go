package langmodel

import (
	"context"
	"log/slog"
)

// CalculateProbabilities derives Probability and CumulativeProbability of
// every entry from the counts, walking the entries in insertion order.
// Calling it again without changing the counts gives the same result.
func (t *WindowTable) CalculateProbabilities() {
	total := t.Total()
	if total == 0 {
		return
	}
	var cumulative float64
	for i := range t.Stats {
		p := float64(t.Stats[i].Count) / float64(total)
		t.Stats[i].Probability = p
		t.Stats[i].CumulativeProbability = cumulative + p
		cumulative = t.Stats[i].CumulativeProbability
	}
}

// CalculateProbabilities runs WindowTable.CalculateProbabilities over every
// table of the model. It must be called after training and before generating.
func (m *Model) CalculateProbabilities(ctx context.Context) error {
	if !m.trained {
		return ErrUninitializedModel
	}
	for _, window := range m.order {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.tables[window].CalculateProbabilities()
	}
	m.calculated = true

	m.logger.DebugContext(ctx, "Probabilities calculated",
		slog.Int("window_length", m.windowLength),
		slog.Int("windows", len(m.tables)),
	)
	return nil
}
