package langmodel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// named is implemented by corpus readers that can report where they read from.
type named interface {
	Name() string
}

// Train reads a corpus and returns a new model with the given window length
// trained on it. Probabilities are not calculated; call
// Model.CalculateProbabilities before generating.
func Train(ctx context.Context, r io.RuneReader, windowLength int, opts ...Option) (*Model, error) {
	m, err := NewModel(windowLength, opts...)
	if err != nil {
		return nil, err
	}
	if err = m.Train(ctx, r); err != nil {
		return nil, err
	}
	return m, nil
}

// Train processes a stream of characters, counting for every window of
// WindowLength characters which characters follow it. The corpus must hold
// at least WindowLength characters, otherwise ErrInsufficientInput is
// returned. A read failure is returned as a *CorpusReadError.
//
// Training is all or nothing: on any error the model is left as it was.
// Training invalidates previously calculated probabilities.
func (m *Model) Train(ctx context.Context, r io.RuneReader) error {
	// ctxCheckInterval is how many characters are read between context checks.
	const ctxCheckInterval = 4096

	resource := "corpus"
	if n, ok := r.(named); ok && n.Name() != "" {
		resource = n.Name()
	}

	window := make([]rune, 0, m.windowLength)
	for len(window) < m.windowLength {
		c, _, err := r.ReadRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("%w: %s has %d characters, window length is %d",
					ErrInsufficientInput, resource, len(window), m.windowLength)
			}
			return &CorpusReadError{Resource: resource, Err: err}
		}
		window = append(window, c)
	}

	// Counts go to a scratch table first so a failed read leaves the model untouched.
	tables := make(map[string]*WindowTable)
	var order []string
	charsRead := int64(len(window))
	key := string(window)

	for {
		if charsRead%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		c, _, err := r.ReadRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return &CorpusReadError{Resource: resource, Err: err}
		}
		charsRead++

		t, ok := tables[key]
		if !ok {
			t = &WindowTable{}
			tables[key] = t
			order = append(order, key)
		}
		t.Add(c, 1)

		copy(window, window[1:])
		window[len(window)-1] = c
		key = string(window)
	}

	before := len(m.tables)
	m.merge(order, tables)

	m.logger.InfoContext(ctx, "Training completed",
		slog.String("resource", resource),
		slog.Int("window_length", m.windowLength),
		slog.Int64("characters_read", charsRead),
		slog.Int("windows_added", len(m.tables)-before),
		slog.Int("windows_total", len(m.tables)),
	)
	return nil
}
