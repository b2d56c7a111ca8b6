package constrain

import (
	"testing"

	"github.com/npillmayer/gorgo/constrain/vocab"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	v, err := vocab.New([][]byte{
		[]byte("cat"),
		[]byte("dog"),
		[]byte("</s>"),
	}, nil, []vocab.TokenID{2})
	if err != nil {
		t.Fatalf("vocab.New: %v", err)
	}
	e, err := New(`start ::= "cat" | "dog" ;`, v)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestAcceptTokenHappyPath(t *testing.T) {
	e := newTestEngine(t)
	if err := e.AcceptToken(0); err != nil {
		t.Fatalf("AcceptToken(cat): %v", err)
	}
	if err := e.AcceptToken(2); err != nil {
		t.Fatalf("AcceptToken(</s>): %v", err)
	}
	if !e.IsFinished() {
		t.Fatal("expected Engine finished after accepting separator")
	}
}

func TestAcceptTokenRejectsBadToken(t *testing.T) {
	e := newTestEngine(t)
	v, err := vocab.New([][]byte{[]byte("cow")}, nil, nil)
	if err != nil {
		t.Fatalf("vocab.New: %v", err)
	}
	e.v = v
	if err := e.AcceptToken(0); err == nil {
		t.Fatal("expected rejection for a token not in the grammar")
	}
}

func TestAllowedTokenIDsExcludesSeparatorBeforeAccepting(t *testing.T) {
	e := newTestEngine(t)
	ids, err := e.AllowedTokenIDs()
	if err != nil {
		t.Fatalf("AllowedTokenIDs: %v", err)
	}
	for _, id := range ids {
		if id == 2 {
			t.Fatal("did not expect separator token allowed before any input accepted")
		}
	}
}

func TestMaskLogitsMasksDisallowedTokens(t *testing.T) {
	e := newTestEngine(t)
	allowed, err := e.ComputeAllowedTokenIDs()
	if err != nil {
		t.Fatalf("ComputeAllowedTokenIDs: %v", err)
	}
	logits := []float32{1, 1, 1}
	if err := e.MaskLogits(logits, allowed); err != nil {
		t.Fatalf("MaskLogits: %v", err)
	}
	for i, v := range logits {
		allowedNow := allowed.Test(uint32(i))
		isNegInf := v < -1e30
		if allowedNow == isNegInf {
			t.Fatalf("token %d: allowed=%v but masked=%v", i, allowedNow, isNegInf)
		}
	}
}

func TestWithStartSymbolRootsEngineAtNamedRule(t *testing.T) {
	v, err := vocab.New([][]byte{[]byte("meow"), []byte("</s>")}, nil, []vocab.TokenID{1})
	if err != nil {
		t.Fatalf("vocab.New: %v", err)
	}
	e, err := New(`start ::= "cat" ; animal ::= "meow" ;`, v, WithStartSymbol("animal"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := e.AcceptToken(0); err != nil {
		t.Fatalf("AcceptToken(meow): %v", err)
	}
	if err := e.AcceptToken(1); err != nil {
		t.Fatalf("AcceptToken(</s>): %v", err)
	}
	if !e.IsFinished() {
		t.Fatal("expected Engine finished after accepting separator")
	}
}

func TestWithStartSymbolRejectsUnknownRule(t *testing.T) {
	v, err := vocab.New([][]byte{[]byte("cat")}, nil, nil)
	if err != nil {
		t.Fatalf("vocab.New: %v", err)
	}
	if _, err := New(`start ::= "cat" ;`, v, WithStartSymbol("no-such-rule")); err == nil {
		t.Fatal("expected an error for an unknown start symbol")
	}
}

func TestResetClearsAcceptedInput(t *testing.T) {
	e := newTestEngine(t)
	if err := e.AcceptToken(0); err != nil {
		t.Fatalf("AcceptToken: %v", err)
	}
	e.Reset()
	if e.rec.Offset() != 0 {
		t.Fatalf("Offset after Reset = %d, want 0", e.rec.Offset())
	}
	if e.IsFinished() {
		t.Fatal("did not expect Engine finished right after Reset")
	}
}
