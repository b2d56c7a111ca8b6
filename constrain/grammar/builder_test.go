package grammar

import "testing"

func TestBuildRejectsUnproductiveStart(t *testing.T) {
	b := NewBuilder()
	start := b.Nonterminal("start")
	b.SetStart("start")
	b.AddProduction(start, []Node{NonterminalNode(start)}) // start ::= start
	_, err := b.Build()
	if err == nil {
		t.Fatal("expected EmptyGrammarError for start ::= start")
	}
	if _, ok := err.(*EmptyGrammarError); !ok {
		t.Fatalf("got %T, want *EmptyGrammarError", err)
	}
}

func TestBuildAcceptsProductiveIndirectRecursion(t *testing.T) {
	b := NewBuilder()
	start := b.Nonterminal("start")
	rest := b.Nonterminal("rest")
	b.SetStart("start")
	lit, err := b.Terminal([]byte("x"))
	if err != nil {
		t.Fatalf("Terminal: %v", err)
	}
	// start ::= rest | "x"; rest ::= start
	b.AddProduction(start, []Node{NonterminalNode(rest)})
	b.AddProduction(start, []Node{TerminalNode(lit)})
	b.AddProduction(rest, []Node{NonterminalNode(start)})
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.Start() != start {
		t.Fatalf("Start() = %d, want %d", g.Start(), start)
	}
}

func TestBuildRequiresStartSymbol(t *testing.T) {
	b := NewBuilder()
	b.Nonterminal("unused")
	if _, err := b.Build(); err == nil {
		t.Fatal("expected error when no start symbol is set")
	}
}

func TestStartNonterminalLooksUpByName(t *testing.T) {
	b := NewBuilder()
	start := b.Nonterminal("start")
	object := b.Nonterminal("object")
	b.SetStart("start")
	lit, err := b.Terminal([]byte("x"))
	if err != nil {
		t.Fatalf("Terminal: %v", err)
	}
	b.AddProduction(start, []Node{TerminalNode(lit)})
	b.AddProduction(object, []Node{TerminalNode(lit)})
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	id, err := g.StartNonterminal("object")
	if err != nil {
		t.Fatalf("StartNonterminal: %v", err)
	}
	if id != object {
		t.Fatalf("StartNonterminal(%q) = %d, want %d", "object", id, object)
	}
	if _, err := g.StartNonterminal("no-such-rule"); err == nil {
		t.Fatal("expected an error for an unknown nonterminal name")
	}
}

func TestTerminalTooLong(t *testing.T) {
	b := NewBuilder()
	huge := make([]byte, MaxTerminalLen+1)
	if _, err := b.Terminal(huge); err == nil {
		t.Fatal("expected TerminalTooLongError")
	}
}

func TestTerminalDeduplication(t *testing.T) {
	b := NewBuilder()
	id1, err := b.Terminal([]byte("abc"))
	if err != nil {
		t.Fatalf("Terminal: %v", err)
	}
	id2, err := b.Terminal([]byte("abc"))
	if err != nil {
		t.Fatalf("Terminal: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("expected identical terminal bytes to dedup, got %d and %d", id1, id2)
	}
}

func TestNodeAtReportsCompletionBoundary(t *testing.T) {
	b := NewBuilder()
	start := b.Nonterminal("start")
	b.SetStart("start")
	lit, err := b.Terminal([]byte("x"))
	if err != nil {
		t.Fatalf("Terminal: %v", err)
	}
	b.AddProduction(start, []Node{TerminalNode(lit)})
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok := g.NodeAt(start, 0, 0); !ok {
		t.Fatal("expected a node at dot 0")
	}
	if _, ok := g.NodeAt(start, 0, 1); ok {
		t.Fatal("expected dot == len(RHS) to report not-ok (completed)")
	}
}
