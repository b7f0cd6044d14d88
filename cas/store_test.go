package cas_test

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/nabbar/logsieve/cas"
)

func newStore(t *testing.T) *cas.Store {
	t.Helper()
	s := cas.New(t.TempDir())
	if err := s.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	return s
}

func TestStoreContentDeterministic(t *testing.T) {
	s := newStore(t)
	b := []byte("application log content")

	h1, err := s.StoreContent(b)
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	want := sha256.Sum256(b)
	if h1 != hex.EncodeToString(want[:]) {
		t.Fatalf("unexpected hash: %s", h1)
	}

	h2, err := s.StoreContent(b)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("expected idempotent hash, got %s vs %s", h1, h2)
	}
}

func TestReadContentRoundtrip(t *testing.T) {
	s := newStore(t)
	b := []byte("error log content")

	h, err := s.StoreContent(b)
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	got, err := s.ReadContent(h)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, b) {
		t.Fatalf("roundtrip mismatch: %q vs %q", got, b)
	}

	if verr := s.Verify(h); verr != nil {
		t.Fatalf("verify: %v", verr)
	}
}

func TestDeduplication(t *testing.T) {
	s := newStore(t)
	b := []byte("shared content across two archives")

	h1, _ := s.StoreContent(b)
	h2, _ := s.StoreContent(b)

	if h1 != h2 {
		t.Fatalf("expected same hash for identical content")
	}
	if !s.Exists(h1) {
		t.Fatal("expected object to exist")
	}
}

func TestNotFound(t *testing.T) {
	s := newStore(t)
	_, err := s.ReadContent("0000000000000000000000000000000000000000000000000000000000000000"[:64])
	if err == nil {
		t.Fatal("expected not-found error")
	}
}
