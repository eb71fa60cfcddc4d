package langmodel

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
)

// CharacterStat holds what was learned about one character that followed a
// window: how often it was seen, and the probabilities derived from that count.
type CharacterStat struct {
	Char                  rune
	Count                 int
	Probability           float64
	CumulativeProbability float64
}

func (s CharacterStat) String() string {
	return fmt.Sprintf("(%c %d %g %g)", s.Char, s.Count, s.Probability, s.CumulativeProbability)
}

// WindowTable is the ordered list of characters observed after a single
// window. Entries keep the order in which they were first seen; sampling and
// probability calculation both depend on it.
type WindowTable struct {
	Stats []CharacterStat
}

// Add increments the count of c, appending a new entry if c was never seen
// after this window.
func (t *WindowTable) Add(c rune, count int) {
	for i := range t.Stats {
		if t.Stats[i].Char == c {
			t.Stats[i].Count += count
			return
		}
	}
	t.Stats = append(t.Stats, CharacterStat{Char: c, Count: count})
}

// Total returns the sum of all counts in the table.
func (t *WindowTable) Total() int {
	var total int
	for _, s := range t.Stats {
		total += s.Count
	}
	return total
}

func (t *WindowTable) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, s := range t.Stats {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(s.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// Model maps windows of windowLength characters to the table of characters
// that followed them in the training corpus.
//
// Training and probability calculation must not run concurrently with any
// other call. Generation is read-only and may run concurrently; the model's
// own random source is serialized, so callers that need reproducible output
// under concurrency should pass their own source with WithRand.
type Model struct {
	windowLength int
	tables       map[string]*WindowTable
	order        []string // window keys in first-seen order
	trained      bool
	calculated   bool

	rngMu sync.Mutex
	rng   *rand.Rand

	logger *slog.Logger
}

// Option configures a Model at construction.
type Option func(*Model)

// WithSeed makes the model's random source deterministic. Two models built
// with the same seed and trained on the same corpus generate identical text.
func WithSeed(seed uint64) Option {
	return func(m *Model) {
		m.rng = rand.New(rand.NewPCG(seed, seed))
	}
}

// WithRandSource sets the source the model draws samples from.
func WithRandSource(src rand.Source) Option {
	return func(m *Model) {
		if src != nil {
			m.rng = rand.New(src)
		}
	}
}

// WithLogger sets the logger for the model. By default, all logs are discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewModel creates an empty model with the given window length. Unless
// WithSeed or WithRandSource is given, the random source is seeded
// non-deterministically.
func NewModel(windowLength int, opts ...Option) (*Model, error) {
	if windowLength <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWindowLength, windowLength)
	}
	m := &Model{
		windowLength: windowLength,
		tables:       make(map[string]*WindowTable),
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return m, nil
}

// WindowLength returns the number of characters in every window of the model.
func (m *Model) WindowLength() int {
	return m.windowLength
}

// Table returns the table of the given window, if the window was ever
// followed by a character during training.
func (m *Model) Table(window string) (*WindowTable, bool) {
	t, ok := m.tables[window]
	return t, ok
}

// Windows returns every window key in the order it was first seen.
func (m *Model) Windows() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Len returns the number of windows in the model.
func (m *Model) Len() int {
	return len(m.tables)
}

// Trained reports whether the model holds any training data.
func (m *Model) Trained() bool {
	return m.trained
}

// Ready reports whether the model can generate, i.e. it was trained and its
// probabilities were calculated after the last change to its counts.
func (m *Model) Ready() bool {
	return m.trained && m.calculated
}

// add records count occurrences of c after window.
func (m *Model) add(window string, c rune, count int) {
	t, ok := m.tables[window]
	if !ok {
		t = &WindowTable{}
		m.tables[window] = t
		m.order = append(m.order, window)
	}
	t.Add(c, count)
}

// merge folds another set of tables into the model, keeping first-seen order.
func (m *Model) merge(order []string, tables map[string]*WindowTable) {
	if len(m.tables) == 0 {
		m.tables = tables
		m.order = order
		m.trained = true
		m.calculated = false
		return
	}
	for _, window := range order {
		for _, s := range tables[window].Stats {
			m.add(window, s.Char, s.Count)
		}
	}
	m.trained = true
	m.calculated = false
}

func (m *Model) draw() float64 {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	return m.rng.Float64()
}

// String returns a human-readable dump of the model, one window per line in
// first-seen order. The format is meant for inspection only.
func (m *Model) String() string {
	var sb strings.Builder
	for _, window := range m.order {
		sb.WriteString(window)
		sb.WriteString(" : ")
		sb.WriteString(m.tables[window].String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
