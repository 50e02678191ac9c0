package spanz

import (
	"errors"
	"io"
	"strings"
	"testing"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy exhausted")
}

func TestNewIDFormat(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := NewID()
		if len(id) != IDLength {
			t.Fatalf("Expected ID length %d, got %d (%s)", IDLength, len(id), id)
		}
		if strings.Trim(id, "0123456789abcdef") != "" {
			t.Fatalf("Expected lowercase hex ID, got %s", id)
		}
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := NewID()
		if _, ok := seen[id]; ok {
			t.Fatalf("Duplicate ID %s after %d calls", id, i)
		}
		seen[id] = struct{}{}
	}
}

func TestIDFactoryReadsSixteenBytes(t *testing.T) {
	r := strings.NewReader(strings.Repeat("\xab", 16))
	id := idFactory(r)()
	if id != strings.Repeat("ab", 16) {
		t.Errorf("Expected ID built from reader bytes, got %s", id)
	}
}

func TestIDFactoryEntropyFailurePanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Expected panic on entropy failure")
		}
		err, ok := r.(*EntropyError)
		if !ok {
			t.Fatalf("Expected *EntropyError panic, got %T", r)
		}
		if err.Err == nil || !strings.Contains(err.Error(), "entropy exhausted") {
			t.Errorf("Expected cause in error, got %v", err)
		}
	}()

	idFactory(failingReader{})()
}

func TestIDFactoryShortReadPanics(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(*EntropyError)
		if !ok {
			t.Fatalf("Expected *EntropyError panic, got %v", r)
		}
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("Expected io.ErrUnexpectedEOF cause, got %v", err.Err)
		}
	}()

	idFactory(strings.NewReader("short"))()
}

// repeatReader fills every read with one byte. Safe for concurrent use.
type repeatReader byte

func (r repeatReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r)
	}
	return len(p), nil
}
