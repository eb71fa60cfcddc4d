// Package corpus reads training text as a stream of characters.
//
// Input is decoded with BOM sniffing, so UTF-16 files that start with a byte
// order mark are read correctly and everything else is treated as UTF-8.
// Characters are normalized to NFC unless disabled, so that composed and
// decomposed spellings of the same letter train the same windows.
package corpus

import (
	"bufio"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/CTAG07/langmodel/pkg/langmodel"
)

// Reader is an io.RuneReader over a named corpus.
type Reader struct {
	name   string
	rd     *bufio.Reader
	closer io.Closer
}

type options struct {
	normalize bool
}

// Option configures a Reader.
type Option func(*options)

// WithNormalization enables or disables NFC normalization. Default: enabled.
func WithNormalization(enabled bool) Option {
	return func(o *options) { o.normalize = enabled }
}

// Open opens the corpus file at path. A failure to open it is returned as a
// *langmodel.CorpusReadError naming the path.
func Open(path string, opts ...Option) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &langmodel.CorpusReadError{Resource: path, Err: err}
	}
	r := NewReader(path, f, opts...)
	r.closer = f
	return r, nil
}

// NewReader wraps r as a corpus called name.
func NewReader(name string, r io.Reader, opts ...Option) *Reader {
	o := &options{normalize: true}
	for _, opt := range opts {
		opt(o)
	}

	var t transform.Transformer = unicode.BOMOverride(unicode.UTF8.NewDecoder())
	if o.normalize {
		t = transform.Chain(t, norm.NFC)
	}

	return &Reader{
		name: name,
		rd:   bufio.NewReader(transform.NewReader(r, t)),
	}
}

// ReadRune returns the next character of the corpus, or io.EOF once it is
// exhausted.
func (r *Reader) ReadRune() (rune, int, error) {
	return r.rd.ReadRune()
}

// Name returns the name the corpus was opened with.
func (r *Reader) Name() string {
	return r.name
}

// Close closes the underlying file, if the Reader opened one.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
