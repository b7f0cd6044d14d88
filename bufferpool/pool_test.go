package bufferpool_test

import (
	"testing"

	"github.com/nabbar/logsieve/bufferpool"
)

func TestAcquireReleaseReuse(t *testing.T) {
	p := bufferpool.New(1024, 2)

	b1 := p.Acquire()
	if len(b1.Bytes()) != 1024 {
		t.Fatalf("expected 1024 bytes, got %d", len(b1.Bytes()))
	}

	p.Release(b1)
	b2 := p.Acquire()

	if b2 != b1 {
		t.Fatal("expected Acquire to reuse the released buffer")
	}
}

func TestReleaseDropsWhenFull(t *testing.T) {
	p := bufferpool.New(8, 1)

	a := p.Acquire()
	b := p.Acquire()

	p.Release(a)
	p.Release(b) // pool already holds a, b must be dropped silently

	first := p.Acquire()
	second := p.Acquire()

	if first != a {
		t.Fatal("expected first acquire after release to return retained buffer")
	}
	if second == a || second == b {
		t.Fatal("expected second acquire to allocate fresh since pool was empty")
	}
}

func TestReleaseNilIsNoop(t *testing.T) {
	p := bufferpool.New(16, 2)
	p.Release(nil)
}
