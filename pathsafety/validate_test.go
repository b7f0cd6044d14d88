package pathsafety_test

import (
	"strings"
	"testing"

	"github.com/nabbar/logsieve/pathsafety"
)

func TestSoundness(t *testing.T) {
	pol := pathsafety.DefaultPolicy()

	cases := []string{
		"a/b/\x00c",
		"../escape.txt",
		"a/../../escape.txt",
		"/etc/passwd",
		"C:/Windows/system32",
	}

	for _, c := range cases {
		r := pathsafety.Validate(c, pol)
		if r.Verdict != pathsafety.VerdictUnsafe {
			t.Fatalf("expected Unsafe for %q, got %v (%v)", c, r.Verdict, r.Reason)
		}
	}
}

func TestCompleteness(t *testing.T) {
	pol := pathsafety.DefaultPolicy()
	raw := "app_dir/sub-component/file_01"

	r := pathsafety.Validate(raw, pol)
	if r.Verdict != pathsafety.VerdictValid {
		t.Fatalf("expected Valid, got %v", r.Verdict)
	}

	joined := pathsafety.JoinUnderBase("/tmp/task", r.Normalized)
	if !strings.HasPrefix(joined, "/tmp/task/") {
		t.Fatalf("joined path escaped base: %s", joined)
	}
}

func TestReservedName(t *testing.T) {
	r := pathsafety.Validate("logs/CON.txt", pathsafety.DefaultPolicy())
	if r.Verdict != pathsafety.VerdictUnsafe || r.Reason != pathsafety.ReasonReserved {
		t.Fatalf("expected reserved-name rejection, got %v/%v", r.Verdict, r.Reason)
	}
}

func TestBackslashSanitized(t *testing.T) {
	r := pathsafety.Validate("a\\b\\c.txt", pathsafety.DefaultPolicy())
	if r.Verdict != pathsafety.VerdictSanitized {
		t.Fatalf("expected Sanitized, got %v", r.Verdict)
	}
	if r.Normalized != "a/b/c.txt" {
		t.Fatalf("unexpected normalized form: %s", r.Normalized)
	}
}
