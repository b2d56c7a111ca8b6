package earley

import (
	"testing"

	"github.com/npillmayer/gorgo/constrain/dfabuild"
	"github.com/npillmayer/gorgo/constrain/grammar"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func mustTerminal(t *testing.T, b *grammar.Builder, lit string) grammar.TerminalID {
	t.Helper()
	id, err := b.Terminal([]byte(lit))
	if err != nil {
		t.Fatalf("Terminal(%q): %v", lit, err)
	}
	return id
}

// feedAll feeds every byte of s, stopping at and returning the first
// rejection; the caller decides whether that is a failure.
func feedAll(t *testing.T, r *Recognizer, s string) error {
	t.Helper()
	for i := 0; i < len(s); i++ {
		if err := r.FeedByte(s[i]); err != nil {
			return err
		}
	}
	return nil
}

func TestLiteralTerminalAccepts(t *testing.T) {
	b := grammar.NewBuilder()
	start := b.Nonterminal("start")
	b.SetStart("start")
	ab := mustTerminal(t, b, "ab")
	b.AddProduction(start, []grammar.Node{grammar.TerminalNode(ab)})
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	r := New(g)
	if err := feedAll(t, r, "ab"); err != nil {
		t.Fatalf("feed: %v", err)
	}
	if !r.Accepting() {
		t.Fatal("expected Accepting after consuming whole literal")
	}
}

func TestLiteralTerminalRejectsWrongByte(t *testing.T) {
	b := grammar.NewBuilder()
	start := b.Nonterminal("start")
	b.SetStart("start")
	ab := mustTerminal(t, b, "ab")
	b.AddProduction(start, []grammar.Node{grammar.TerminalNode(ab)})
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	r := New(g)
	if err := r.FeedByte('a'); err != nil {
		t.Fatalf("feed 'a': %v", err)
	}
	if err := r.FeedByte('x'); err == nil {
		t.Fatal("expected rejection on wrong byte")
	}
	// a rejected byte must not have mutated the chart.
	if err := r.FeedByte('b'); err != nil {
		t.Fatalf("feed 'b' after failed probe: %v", err)
	}
	if !r.Accepting() {
		t.Fatal("expected Accepting after recovering from a rejected probe")
	}
}

func TestAlternation(t *testing.T) {
	b := grammar.NewBuilder()
	start := b.Nonterminal("start")
	b.SetStart("start")
	cat := mustTerminal(t, b, "cat")
	dog := mustTerminal(t, b, "dog")
	b.AddProduction(start, []grammar.Node{grammar.TerminalNode(cat)})
	b.AddProduction(start, []grammar.Node{grammar.TerminalNode(dog)})
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, word := range []string{"cat", "dog"} {
		r := New(g)
		if err := feedAll(t, r, word); err != nil {
			t.Fatalf("feed %q: %v", word, err)
		}
		if !r.Accepting() {
			t.Fatalf("expected Accepting for %q", word)
		}
	}
	r := New(g)
	if err := feedAll(t, r, "cow"); err == nil {
		t.Fatal("expected rejection for unmodeled word")
	}
}

func TestNullableProductionCompletesWithoutBytes(t *testing.T) {
	b := grammar.NewBuilder()
	start := b.Nonterminal("start")
	b.SetStart("start")
	b.AddProduction(start, nil) // start ::= (empty)
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	r := New(g)
	if !r.Accepting() {
		t.Fatal("expected Accepting immediately for a nullable start symbol")
	}
}

// TestRightRecursionViaLeo builds `start ::= "x" start | "x"` and feeds a
// long run of "x"s, exercising the Leo shortcut path (every completion of
// start has exactly one waiter, the shape Leo collapses).
func TestRightRecursionViaLeo(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gorgo.constrain.earley")
	defer teardown()
	b := grammar.NewBuilder()
	start := b.Nonterminal("start")
	b.SetStart("start")
	x := mustTerminal(t, b, "x")
	b.AddProduction(start, []grammar.Node{grammar.TerminalNode(x), grammar.NonterminalNode(start)})
	b.AddProduction(start, []grammar.Node{grammar.TerminalNode(x)})
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	r := New(g)
	input := make([]byte, 200)
	for i := range input {
		input[i] = 'x'
	}
	if err := feedAll(t, r, string(input)); err != nil {
		t.Fatalf("feed long run: %v", err)
	}
	if !r.Accepting() {
		t.Fatal("expected Accepting after a long right-recursive run")
	}
}

func TestSnapshotAndRevert(t *testing.T) {
	b := grammar.NewBuilder()
	start := b.Nonterminal("start")
	b.SetStart("start")
	abc := mustTerminal(t, b, "abc")
	b.AddProduction(start, []grammar.Node{grammar.TerminalNode(abc)})
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	r := New(g)
	if err := r.FeedByte('a'); err != nil {
		t.Fatalf("feed 'a': %v", err)
	}
	snap := r.SnapshotLen()
	if err := r.FeedByte('b'); err != nil {
		t.Fatalf("feed 'b': %v", err)
	}
	r.RevertTo(snap)
	if r.Offset() != 1 {
		t.Fatalf("Offset after revert = %d, want 1", r.Offset())
	}
	if err := feedAll(t, r, "bc"); err != nil {
		t.Fatalf("feed 'bc' after revert: %v", err)
	}
	if !r.Accepting() {
		t.Fatal("expected Accepting after reverting a speculative byte and retrying")
	}
}

func TestAllowedFirstBytes(t *testing.T) {
	b := grammar.NewBuilder()
	start := b.Nonterminal("start")
	b.SetStart("start")
	cat := mustTerminal(t, b, "cat")
	dog := mustTerminal(t, b, "dog")
	b.AddProduction(start, []grammar.Node{grammar.TerminalNode(cat)})
	b.AddProduction(start, []grammar.Node{grammar.TerminalNode(dog)})
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	r := New(g)
	allowed := r.AllowedFirstBytes()
	if !allowed.Contains('c') || !allowed.Contains('d') {
		t.Fatalf("expected 'c' and 'd' allowed, got count %d", allowed.Count())
	}
	if allowed.Contains('z') {
		t.Fatal("did not expect 'z' allowed")
	}
}

func TestRegexNodeIntegration(t *testing.T) {
	ad, err := dfabuild.CompileRegex("[0-9]+")
	if err != nil {
		t.Fatalf("CompileRegex: %v", err)
	}
	b := grammar.NewBuilder()
	start := b.Nonterminal("start")
	b.SetStart("start")
	rid, err := b.Regex(ad)
	if err != nil {
		t.Fatalf("Regex: %v", err)
	}
	b.AddProduction(start, []grammar.Node{grammar.RegexNode(rid)})
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	r := New(g)
	if err := feedAll(t, r, "123"); err != nil {
		t.Fatalf("feed digits: %v", err)
	}
	if !r.Accepting() {
		t.Fatal("expected Accepting after a run of digits")
	}
	if err := r.FeedByte('4'); err != nil {
		t.Fatalf("feed extra digit: %v", err)
	}
	if !r.Accepting() {
		t.Fatal("expected still Accepting, '+' allows continuing to match")
	}
}

func TestExceptNodeNeverHardRejects(t *testing.T) {
	ad, err := dfabuild.CompileExcept([]byte("-->"))
	if err != nil {
		t.Fatalf("CompileExcept: %v", err)
	}
	b := grammar.NewBuilder()
	start := b.Nonterminal("start")
	b.SetStart("start")
	eid, err := b.Except(ad, grammar.InvalidRepetition)
	if err != nil {
		t.Fatalf("Except: %v", err)
	}
	b.AddProduction(start, []grammar.Node{grammar.ExceptNode(eid, grammar.InvalidRepetition)})
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	r := New(g)
	if err := feedAll(t, r, "hello world"); err != nil {
		t.Fatalf("feed: %v", err)
	}
}

// TestExceptNodeHandsOffToTerminator builds `start ::= except!('\n\n')
// '\n\n'` and checks that the except! node drops the split as soon as the
// terminator appears inside it, rather than consuming the terminator as
// part of its own body and then demanding a second one.
func TestExceptNodeHandsOffToTerminator(t *testing.T) {
	ad, err := dfabuild.CompileExcept([]byte("\n\n"))
	if err != nil {
		t.Fatalf("CompileExcept: %v", err)
	}
	b := grammar.NewBuilder()
	start := b.Nonterminal("start")
	b.SetStart("start")
	eid, err := b.Except(ad, grammar.InvalidRepetition)
	if err != nil {
		t.Fatalf("Except: %v", err)
	}
	nn := mustTerminal(t, b, "\n\n")
	b.AddProduction(start, []grammar.Node{
		grammar.ExceptNode(eid, grammar.InvalidRepetition),
		grammar.TerminalNode(nn),
	})
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	r := New(g)
	if err := feedAll(t, r, "ab\n\n"); err != nil {
		t.Fatalf("feed: %v", err)
	}
	if !r.Accepting() {
		t.Fatal("expected Accepting after the except! body hands off to its terminator")
	}
	if !r.IsFinished() {
		t.Fatal("expected Finished once the terminator is fully consumed")
	}
}

// TestExceptNodeBoundedRepetitionForcesCompletion builds
// `start ::= except!('-->', 5) '-->'` and checks that the except! node is
// forced to hand off to its terminator after exactly 5 bytes, rather than
// continuing to consume beyond the bound.
func TestExceptNodeBoundedRepetitionForcesCompletion(t *testing.T) {
	ad, err := dfabuild.CompileExcept([]byte("-->"))
	if err != nil {
		t.Fatalf("CompileExcept: %v", err)
	}
	b := grammar.NewBuilder()
	start := b.Nonterminal("start")
	b.SetStart("start")
	eid, err := b.Except(ad, 5)
	if err != nil {
		t.Fatalf("Except: %v", err)
	}
	term := mustTerminal(t, b, "-->")
	b.AddProduction(start, []grammar.Node{
		grammar.ExceptNode(eid, 5),
		grammar.TerminalNode(term),
	})
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	r := New(g)
	// 5 bytes of body, none of them forming "-->", then the terminator.
	if err := feedAll(t, r, "aaaaa-->"); err != nil {
		t.Fatalf("feed: %v", err)
	}
	if !r.Accepting() {
		t.Fatal("expected Accepting once the bounded except! hands off after exactly 5 bytes")
	}

	// Without the bound, the same except! body would happily consume a
	// 6th byte; with the bound in force, that 6th byte can no longer be
	// absorbed by the except! node and must instead start matching the
	// terminator literal, so it is rejected.
	r2 := New(g)
	if err := feedAll(t, r2, "aaaaaa"); err == nil {
		t.Fatal("expected rejection once the repetition budget forces an early hand-off")
	}
}
