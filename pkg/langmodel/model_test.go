package langmodel

import (
	"errors"
	"testing"
)

func TestNewModel(t *testing.T) {
	for _, n := range []int{0, -3} {
		if _, err := NewModel(n); !errors.Is(err, ErrInvalidWindowLength) {
			t.Errorf("NewModel(%d): expected ErrInvalidWindowLength, got %v", n, err)
		}
	}

	m, err := NewModel(4)
	if err != nil {
		t.Fatalf("NewModel(4) failed: %v", err)
	}
	if m.WindowLength() != 4 {
		t.Errorf("expected window length 4, got %d", m.WindowLength())
	}
	if m.Trained() || m.Ready() || m.Len() != 0 {
		t.Errorf("new model should be empty and untrained")
	}
}

func TestModelString(t *testing.T) {
	m := trainCalculated(t, "abcabcabcabc", 3)

	expected := "abc : ((a 3 1 1))\n" +
		"bca : ((b 3 1 1))\n" +
		"cab : ((c 3 1 1))\n"
	if got := m.String(); got != expected {
		t.Errorf("String() got:\n%s\nwant:\n%s", got, expected)
	}
}

func TestWindowsReturnsCopy(t *testing.T) {
	m := trainCalculated(t, "abcabcabcabc", 3)

	windows := m.Windows()
	windows[0] = "zzz"
	if m.Windows()[0] != "abc" {
		t.Error("modifying the result of Windows() changed the model")
	}
}

func TestStats(t *testing.T) {
	m := trainCalculated(t, "abcabcabcabc", 3)

	expected := ModelStats{
		WindowLength:  3,
		Windows:       3,
		Transitions:   9,
		Entries:       3,
		DistinctChars: 3,
		MaxBranching:  1,
	}
	if got := m.Stats(); got != expected {
		t.Errorf("Stats() got %+v, want %+v", got, expected)
	}
}

func TestCorpusReadErrorUnwrap(t *testing.T) {
	inner := errors.New("disk on fire")
	err := error(&CorpusReadError{Resource: "corpus.txt", Err: inner})

	if !errors.Is(err, inner) {
		t.Error("expected CorpusReadError to unwrap to its cause")
	}
	if got, want := err.Error(), "corpus read error in corpus.txt: disk on fire"; got != want {
		t.Errorf("Error() got %q, want %q", got, want)
	}
}
