package dfabuild

import (
	"testing"

	"github.com/npillmayer/gorgo/constrain/fsa"
)

func runRegex(t *testing.T, pattern string, input string) fsa.Class {
	t.Helper()
	ad, err := CompileRegex(pattern)
	if err != nil {
		t.Fatalf("CompileRegex(%q): %v", pattern, err)
	}
	s := ad.CompressedStart(true)
	class := fsa.ClassInProgress
	for i := 0; i < len(input); i++ {
		s = ad.CompressedNext(s, input[i])
		class = ad.Classify(s)
		if class == fsa.ClassReject {
			return class
		}
	}
	return class
}

func TestRegexLiteralAccept(t *testing.T) {
	if got := runRegex(t, "abc", "abc"); got != fsa.ClassAccept {
		t.Errorf("got %v, want Accept", got)
	}
}

func TestRegexLiteralReject(t *testing.T) {
	if got := runRegex(t, "abc", "abd"); got != fsa.ClassReject {
		t.Errorf("got %v, want Reject", got)
	}
}

func TestRegexStarAndAny(t *testing.T) {
	if got := runRegex(t, ".+", "hello"); got != fsa.ClassAccept {
		t.Errorf("got %v, want Accept", got)
	}
}

func TestRegexAlternation(t *testing.T) {
	if got := runRegex(t, "cat|dog", "dog"); got != fsa.ClassAccept {
		t.Errorf("got %v, want Accept", got)
	}
	if got := runRegex(t, "cat|dog", "cat"); got != fsa.ClassAccept {
		t.Errorf("got %v, want Accept", got)
	}
	if got := runRegex(t, "cat|dog", "cow"); got != fsa.ClassReject {
		t.Errorf("got %v, want Reject", got)
	}
}

func TestRegexClassAndRange(t *testing.T) {
	if got := runRegex(t, "[0-9]+", "1234"); got != fsa.ClassAccept {
		t.Errorf("got %v, want Accept", got)
	}
	if got := runRegex(t, "[0-9]+", "12a4"); got != fsa.ClassReject {
		t.Errorf("got %v, want Reject", got)
	}
}

func TestRegexBoundedRepetition(t *testing.T) {
	if got := runRegex(t, "a{2,3}", "aa"); got != fsa.ClassAccept {
		t.Errorf("got %v, want Accept", got)
	}
	if got := runRegex(t, "a{2,3}", "aaaa"); got != fsa.ClassReject {
		t.Errorf("got %v, want Reject", got)
	}
}

func TestExceptAcceptsOnTerminator(t *testing.T) {
	ad, err := CompileExcept([]byte("\n\n"))
	if err != nil {
		t.Fatalf("CompileExcept: %v", err)
	}
	s := ad.CompressedStart(false)
	input := "ab\n\n"
	var class fsa.Class
	for i := 0; i < len(input); i++ {
		s = ad.CompressedNext(s, input[i])
		class = ad.Classify(s)
	}
	if class != fsa.ClassAccept {
		t.Fatalf("got %v, want Accept after full terminator", class)
	}
}

func TestExceptNeverRejects(t *testing.T) {
	ad, err := CompileExcept([]byte("\n\n"))
	if err != nil {
		t.Fatalf("CompileExcept: %v", err)
	}
	s := ad.CompressedStart(false)
	for _, b := range []byte("ab\nxyz\n") {
		s = ad.CompressedNext(s, b)
		if ad.Classify(s) == fsa.ClassReject {
			t.Fatalf("except! automaton rejected on byte %q, should never reject", b)
		}
	}
}

func TestExceptFirstBytesIsEverything(t *testing.T) {
	ad, err := CompileExcept([]byte("\n\n"))
	if err != nil {
		t.Fatalf("CompileExcept: %v", err)
	}
	fb := ad.FirstBytes(false)
	if fb.Count() != 256 {
		t.Errorf("expected all 256 bytes as first bytes, got %d", fb.Count())
	}
}
