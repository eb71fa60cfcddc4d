package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CTAG07/langmodel/pkg/langmodel"
)

// runCLI executes the root command with args and returns what it printed.
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	base := []string{
		"--config", filepath.Join(dir, "langmodel.json"),
		"--db", filepath.Join(dir, "models.db"),
		"--log-level", "error",
	}
	cmd.SetArgs(append(base, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeCorpus(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOneShot(t *testing.T) {
	dir := t.TempDir()
	corpusPath := writeCorpus(t, dir, "abc.txt", "abcabcabcabc")

	out, err := runCLI(t, dir, "3", "abc", "3", "fixed", corpusPath)
	if err != nil {
		t.Fatalf("one-shot run failed: %v", err)
	}
	if out != "abcabc\n" {
		t.Errorf("expected %q, got %q", "abcabc\n", out)
	}

	out, err = runCLI(t, dir, "3", "zz", "3", "random", corpusPath)
	if err != nil {
		t.Fatalf("one-shot run failed: %v", err)
	}
	if out != "zz\n" {
		t.Errorf("expected seed back unchanged, got %q", out)
	}
}

func TestOneShotHugeLength(t *testing.T) {
	dir := t.TempDir()
	corpusPath := writeCorpus(t, dir, "abcd.txt", "abcd")

	out, err := runCLI(t, dir, "3", "abc", "9223372036854775807", "fixed", corpusPath)
	if err != nil {
		t.Fatalf("one-shot run failed: %v", err)
	}
	if out != "abcd\n" {
		t.Errorf("expected generation to stop at the dead end with %q, got %q", "abcd\n", out)
	}
}

func TestOneShotErrors(t *testing.T) {
	dir := t.TempDir()
	corpusPath := writeCorpus(t, dir, "short.txt", "hello")

	if _, err := runCLI(t, dir, "10", "hello", "3", "fixed", corpusPath); !errors.Is(err, langmodel.ErrInsufficientInput) {
		t.Errorf("expected ErrInsufficientInput, got %v", err)
	}

	missing := filepath.Join(dir, "missing.txt")
	_, err := runCLI(t, dir, "3", "abc", "3", "fixed", missing)
	var readErr *langmodel.CorpusReadError
	if !errors.As(err, &readErr) || readErr.Resource != missing {
		t.Errorf("expected CorpusReadError naming %s, got %v", missing, err)
	}

	if _, err = runCLI(t, dir, "3", "abc", "3", "sometimes", corpusPath); err == nil {
		t.Error("expected an error for an unknown mode")
	}
	if _, err = runCLI(t, dir, "three", "abc", "3", "fixed", corpusPath); err == nil {
		t.Error("expected an error for a non-numeric window length")
	}
}

func TestStoreCommands(t *testing.T) {
	dir := t.TempDir()
	corpusPath := writeCorpus(t, dir, "abc.txt", "abcabcabcabc")

	if _, err := runCLI(t, dir, "train", "-w", "3", "abc", corpusPath); err != nil {
		t.Fatalf("train failed: %v", err)
	}

	out, err := runCLI(t, dir, "generate", "-n", "3", "--fixed", "abc", "abc")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if out != "abcabc\n" {
		t.Errorf("generate: expected %q, got %q", "abcabc\n", out)
	}

	out, err = runCLI(t, dir, "dump", "abc")
	if err != nil {
		t.Fatalf("dump failed: %v", err)
	}
	if !strings.Contains(out, "abc : ((a 3 1 1))") {
		t.Errorf("dump output missing window 'abc': %q", out)
	}

	exportPath := filepath.Join(dir, "abc.json")
	if _, err = runCLI(t, dir, "export", "abc", exportPath); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if _, err = runCLI(t, dir, "import", "copy", exportPath); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	out, err = runCLI(t, dir, "generate", "-n", "6", "copy", "cab")
	if err != nil {
		t.Fatalf("generate from imported model failed: %v", err)
	}
	if out != "cabcabcab\n" {
		t.Errorf("imported model: expected %q, got %q", "cabcabcab\n", out)
	}

	out, err = runCLI(t, dir, "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "abc") || !strings.Contains(out, "copy") {
		t.Errorf("list output missing models: %q", out)
	}

	if _, err = runCLI(t, dir, "remove", "abc"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, err = runCLI(t, dir, "generate", "abc", "abc"); err == nil {
		t.Error("expected an error generating from a removed model")
	}
}

func TestTrainAppendAndPrune(t *testing.T) {
	dir := t.TempDir()
	first := writeCorpus(t, dir, "first.txt", "abab")
	second := writeCorpus(t, dir, "second.txt", "abac")

	if _, err := runCLI(t, dir, "train", "-w", "1", "m", first); err != nil {
		t.Fatalf("train failed: %v", err)
	}
	if _, err := runCLI(t, dir, "train", "--append", "m", second); err != nil {
		t.Fatalf("train --append failed: %v", err)
	}
	if _, err := runCLI(t, dir, "train", "--append", "-w", "2", "m", second); !errors.Is(err, langmodel.ErrWindowLengthMismatch) {
		t.Errorf("expected ErrWindowLengthMismatch, got %v", err)
	}

	out, err := runCLI(t, dir, "stats", "m")
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if !strings.Contains(out, "transitions") || !strings.Contains(out, "6") {
		t.Errorf("stats: expected 6 transitions, got %q", out)
	}

	out, err = runCLI(t, dir, "prune", "--min-count", "1", "m")
	if err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if out != "removed 1 entries\n" {
		t.Errorf("prune: expected 1 removed entry, got %q", out)
	}
}
