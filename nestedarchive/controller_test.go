package nestedarchive_test

import (
	"testing"

	"github.com/nabbar/logsieve/nestedarchive"
)

func defaultPolicy() nestedarchive.Policy {
	return nestedarchive.Policy{
		MaxDepth:                    8,
		MinDepth:                    1,
		DepthReductionStep:          1,
		FileCountThreshold:          50000,
		TotalSizeThreshold:          1 << 30,
		CompressionRatioThreshold:   100,
		ExponentialBackoffThreshold: 1 << 20,
	}
}

func TestEffectiveMaxDepthReducesUnderLoad(t *testing.T) {
	p := defaultPolicy()

	if got := p.EffectiveMaxDepth(0, 0); got != 8 {
		t.Fatalf("expected 8, got %d", got)
	}
	if got := p.EffectiveMaxDepth(150000, 0); got != 3 {
		t.Fatalf("expected reduction capped at 5 (8-5=3), got %d", got)
	}
	if got := p.EffectiveMaxDepth(100000000, p.TotalSizeThreshold+10*gibibyteForTest); got != p.MinDepth {
		t.Fatalf("expected floor at MinDepth once both reductions are capped (8-5-3=0), got %d", got)
	}
}

func TestEffectiveMaxDepthCapsSizeReductionAtThree(t *testing.T) {
	p := defaultPolicy()
	p.DepthReductionStep = 1

	// 10 GiB over threshold would be a reduction of 10 uncapped; the cap
	// at 3 full-GB steps keeps the floor from collapsing too aggressively.
	bytesOver := p.TotalSizeThreshold + 10*gibibyteForTest
	if got := p.EffectiveMaxDepth(0, bytesOver); got != p.MaxDepth-3 {
		t.Fatalf("expected reduction capped at 3 (8-3=%d), got %d", p.MaxDepth-3, got)
	}
}

const gibibyteForTest = 1 << 30

func TestIsZipBombRatioThreshold(t *testing.T) {
	p := defaultPolicy()

	if !p.IsZipBomb(1, 1000, 1) {
		t.Fatal("expected ratio threshold to trip")
	}
	if p.IsZipBomb(1000, 1000, 1) {
		t.Fatal("expected 1:1 ratio to be safe")
	}
}

func TestIsZipBombExponentialBackoff(t *testing.T) {
	p := defaultPolicy()
	p.CompressionRatioThreshold = 1000000 // disable the plain ratio check

	if !p.IsZipBomb(1, 50, 4) {
		t.Fatal("expected ratio^depth to trip the exponential backoff threshold")
	}
}

func TestAllowDescend(t *testing.T) {
	p := defaultPolicy()

	if !p.AllowDescend(5, 0, 0) {
		t.Fatal("expected depth 5 to be allowed at zero progress")
	}
	if p.AllowDescend(8, 150000, 0) {
		t.Fatal("expected depth 8 to be rejected once depth budget shrank")
	}
}
