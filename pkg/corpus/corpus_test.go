package corpus

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/CTAG07/langmodel/pkg/langmodel"
)

func readAll(t *testing.T, r io.RuneReader) []rune {
	t.Helper()
	var out []rune
	for {
		c, _, err := r.ReadRune()
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("ReadRune failed: %v", err)
		}
		out = append(out, c)
	}
}

func TestNormalization(t *testing.T) {
	decomposed := "cafe\u0301"

	testCases := []struct {
		name     string
		opts     []Option
		expected string
	}{
		{name: "NFC by default", expected: "caf\u00e9"},
		{name: "Disabled", opts: []Option{WithNormalization(false)}, expected: decomposed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewReader("mem", bytes.NewReader([]byte(decomposed)), tc.opts...)
			if got := string(readAll(t, r)); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestUTF16WithBOM(t *testing.T) {
	data := []byte{0xFF, 0xFE, 'h', 0x00, 'i', 0x00}
	r := NewReader("utf16.txt", bytes.NewReader(data))
	if got := string(readAll(t, r)); got != "hi" {
		t.Errorf("expected %q, got %q", "hi", got)
	}
}

func TestUTF8BOMIsStripped(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, "abc"...)
	r := NewReader("bom.txt", bytes.NewReader(data))
	if got := string(readAll(t, r)); got != "abc" {
		t.Errorf("expected %q, got %q", "abc", got)
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.txt")
	if err := os.WriteFile(path, []byte("abcabcabcabc"), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = r.Close() }()

	if r.Name() != path {
		t.Errorf("expected name %q, got %q", path, r.Name())
	}

	ctx := context.Background()
	m, err := langmodel.Train(ctx, r, 3, langmodel.WithSeed(20))
	if err != nil {
		t.Fatalf("Train on corpus file failed: %v", err)
	}
	if err = m.CalculateProbabilities(ctx); err != nil {
		t.Fatal(err)
	}
	out, err := m.Generate(ctx, "abc", 3)
	if err != nil || out != "abcabc" {
		t.Errorf("expected %q, got %q, %v", "abcabc", out, err)
	}
}

func TestOpenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.txt")
	_, err := Open(path)

	var readErr *langmodel.CorpusReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("expected a CorpusReadError, got %T: %v", err, err)
	}
	if readErr.Resource != path {
		t.Errorf("expected resource %q, got %q", path, readErr.Resource)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected error to wrap os.ErrNotExist, got %v", err)
	}
}

func TestInsufficientInputNamesResource(t *testing.T) {
	r := NewReader("short.txt", bytes.NewReader([]byte("hello")))
	_, err := langmodel.Train(context.Background(), r, 10)
	if !errors.Is(err, langmodel.ErrInsufficientInput) {
		t.Fatalf("expected ErrInsufficientInput, got %v", err)
	}
	if !bytes.Contains([]byte(err.Error()), []byte("short.txt")) {
		t.Errorf("expected error to name the corpus, got %q", err.Error())
	}
}
