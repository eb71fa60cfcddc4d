package langmodel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"unicode/utf8"
)

// ExportedModel is the serializable representation of a trained model,
// used for JSON-based import and export.
type ExportedModel struct {
	WindowLength int              `json:"window_length"`
	Windows      []ExportedWindow `json:"windows"`
}

// ExportedWindow is the serializable representation of one window and its
// successors, in insertion order.
type ExportedWindow struct {
	Window string         `json:"window"`
	Stats  []ExportedStat `json:"stats"`
}

// ExportedStat is a single successor character and its count.
type ExportedStat struct {
	Char  string `json:"char"`
	Count int    `json:"count"`
}

// Export serializes the model's counts into JSON and writes them to w.
// Probabilities are not exported; they are derived again after import.
func (m *Model) Export(w io.Writer) error {
	exported := ExportedModel{
		WindowLength: m.windowLength,
		Windows:      make([]ExportedWindow, 0, len(m.order)),
	}
	for _, window := range m.order {
		t := m.tables[window]
		ew := ExportedWindow{Window: window, Stats: make([]ExportedStat, 0, len(t.Stats))}
		for _, s := range t.Stats {
			ew.Stats = append(ew.Stats, ExportedStat{Char: string(s.Char), Count: s.Count})
		}
		exported.Windows = append(exported.Windows, ew)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(exported)
}

// ImportModel reads an exported model from r and returns a new model with
// the same window length holding its counts.
func ImportModel(r io.Reader, opts ...Option) (*Model, error) {
	exported, err := decodeExport(r)
	if err != nil {
		return nil, err
	}
	m, err := NewModel(exported.WindowLength, opts...)
	if err != nil {
		return nil, err
	}
	if err = m.mergeExport(exported); err != nil {
		return nil, err
	}
	return m, nil
}

// Import reads an exported model from r and merges it into m. Counts of
// known entries are added together, and unseen windows or characters are
// appended. The window lengths must match. Probabilities must be
// calculated again afterwards.
func (m *Model) Import(r io.Reader) error {
	exported, err := decodeExport(r)
	if err != nil {
		return err
	}
	if exported.WindowLength != m.windowLength {
		return fmt.Errorf("%w: model has %d, import has %d", ErrWindowLengthMismatch, m.windowLength, exported.WindowLength)
	}
	return m.mergeExport(exported)
}

func decodeExport(r io.Reader) (*ExportedModel, error) {
	var exported ExportedModel
	if err := json.NewDecoder(r).Decode(&exported); err != nil {
		return nil, fmt.Errorf("failed to decode json model: %w", err)
	}
	return &exported, nil
}

// mergeExport validates the whole export before touching the model.
func (m *Model) mergeExport(exported *ExportedModel) error {
	tables := make(map[string]*WindowTable, len(exported.Windows))
	order := make([]string, 0, len(exported.Windows))

	for _, ew := range exported.Windows {
		if n := utf8.RuneCountInString(ew.Window); n != m.windowLength {
			return fmt.Errorf("%w: window %q has %d characters, expected %d", ErrWindowLengthMismatch, ew.Window, n, m.windowLength)
		}
		t, ok := tables[ew.Window]
		if !ok {
			t = &WindowTable{}
			tables[ew.Window] = t
			order = append(order, ew.Window)
		}
		for _, es := range ew.Stats {
			c, size := utf8.DecodeRuneInString(es.Char)
			if size == 0 || size != len(es.Char) || (c == utf8.RuneError && size == 1) {
				return fmt.Errorf("import consistency error: entry %q of window %q is not a single character", es.Char, ew.Window)
			}
			if es.Count <= 0 {
				return fmt.Errorf("import consistency error: entry %q of window %q has count %d", es.Char, ew.Window, es.Count)
			}
			t.Add(c, es.Count)
		}
		if len(t.Stats) == 0 {
			return fmt.Errorf("import consistency error: window %q has no entries", ew.Window)
		}
	}

	m.merge(order, tables)
	m.logger.InfoContext(context.Background(), "Model imported",
		slog.Int("window_length", m.windowLength),
		slog.Int("windows_merged", len(order)),
		slog.Int("windows_total", len(m.tables)),
	)
	return nil
}
