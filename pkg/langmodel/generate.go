package langmodel

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"unicode/utf8"
)

// generateOptions is used by the generate functions to configure default options.
type generateOptions struct {
	rng          *rand.Rand
	deadEndError bool
}

// GenerateOption is a function that configures generation parameters. It's used
// as a variadic argument in Generate and GenerateStream.
type GenerateOption func(*generateOptions)

// WithRand draws samples from r instead of the model's own random source.
// Concurrent callers that need reproducible output should each pass their own.
func WithRand(r *rand.Rand) GenerateOption {
	return func(o *generateOptions) { o.rng = r }
}

// WithDeadEndError makes generation report ErrDeadEnd, alongside the text
// generated so far, when it reaches a window that was never followed by a
// character in training. By default generation stops silently.
// GenerateStream cannot return the error and logs the dead end at warn level.
func WithDeadEndError(enabled bool) GenerateOption {
	return func(o *generateOptions) { o.deadEndError = enabled }
}

// growHint caps how many characters Generate reserves room for up front.
const growHint = 4096

func (m *Model) newGenerateOptions(opts []GenerateOption) *generateOptions {
	options := &generateOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

func (m *Model) nextDraw(o *generateOptions) float64 {
	if o.rng != nil {
		return o.rng.Float64()
	}
	return m.draw()
}

// initialWindow validates a generation request and returns the trailing
// window of seed. A nil window with a nil error means nothing can be
// generated from this seed and the seed is returned as is.
func (m *Model) initialWindow(seed string, length int) ([]rune, error) {
	if !m.Ready() {
		return nil, ErrUninitializedModel
	}
	if length < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLength, length)
	}
	if utf8.RuneCountInString(seed) < m.windowLength {
		return nil, nil
	}
	runes := []rune(seed)
	window := make([]rune, m.windowLength)
	copy(window, runes[len(runes)-m.windowLength:])
	if _, ok := m.tables[string(window)]; !ok {
		return nil, nil
	}
	return window, nil
}

// Generate extends seed by length characters sampled from the model and
// returns the seed followed by the generated text.
//
// If seed is shorter than the window length, or its trailing window was never
// seen in training, seed is returned unchanged. If generation reaches a
// window with no successors, it stops early and returns what it has; with
// WithDeadEndError the partial text is returned together with ErrDeadEnd.
//
// ErrUninitializedModel is returned if probabilities were not calculated.
func (m *Model) Generate(ctx context.Context, seed string, length int, opts ...GenerateOption) (string, error) {
	window, err := m.initialWindow(seed, length)
	if err != nil {
		return "", err
	}
	if window == nil {
		m.logger.DebugContext(ctx, "Seed has no usable window, nothing generated",
			slog.Int("window_length", m.windowLength),
			slog.Int("seed_length", utf8.RuneCountInString(seed)),
		)
		return seed, nil
	}
	options := m.newGenerateOptions(opts)

	var builder strings.Builder
	builder.Grow(len(seed) + min(length, growHint)*utf8.UTFMax)
	builder.WriteString(seed)

	for generated := 0; generated < length; generated++ {
		if err = ctx.Err(); err != nil {
			return "", err
		}

		key := string(window)
		table, ok := m.tables[key]
		if !ok {
			m.logger.DebugContext(ctx, "Generation terminated due to dead-end",
				slog.String("last_window", key),
				slog.Int("generated_length", generated),
				slog.Int("requested_length", length),
			)
			if options.deadEndError {
				return builder.String(), fmt.Errorf("%w: window %q after %d of %d characters",
					ErrDeadEnd, key, generated, length)
			}
			return builder.String(), nil
		}

		c := table.Sample(m.nextDraw(options))
		builder.WriteRune(c)

		copy(window, window[1:])
		window[len(window)-1] = c
	}

	return builder.String(), nil
}
