/*
Package grammar holds the Lowered Normal Form grammar store: immutable,
O(1)-indexed tables for productions, terminals, regex automata and
except! automata, plus a per-node first-byte query. It does not parse
EBNF source — see constrain/ebnf for the lowering pass that produces a
Store — and it does not build DFAs — see constrain/dfabuild. This package
only stores what the Earley recognizer needs and validates it once, at
construction time, so the recognizer's hot loop never has to handle a
malformed grammar.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package grammar

import (
	"fmt"

	"github.com/npillmayer/gorgo/constrain/fsa"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'gorgo.constrain.grammar'.
func tracer() tracing.Trace {
	return tracing.Select("gorgo.constrain.grammar")
}

// NonterminalID, TerminalID, RegexID and ExceptID are dense small integer
// ids into the Store's respective tables.
type (
	NonterminalID uint32
	TerminalID    uint32
	RegexID       uint32
	ExceptID      uint32
)

// InvalidRepetition is the sentinel for an except! node with no finite
// repetition bound, i.e. plain `except!(body)` rather than
// `except!(body, N)`.
const InvalidRepetition uint32 = 0xFFFFFFFF

// NodeKind discriminates the single node kind a RHS position can hold.
type NodeKind uint8

const (
	NodeTerminal NodeKind = iota
	NodeRegex
	NodeExcept
	NodeNonterminal
)

func (k NodeKind) String() string {
	switch k {
	case NodeTerminal:
		return "Terminal"
	case NodeRegex:
		return "Regex"
	case NodeExcept:
		return "Except"
	case NodeNonterminal:
		return "Nonterminal"
	default:
		return "?"
	}
}

// Node is exactly one RHS position: a Terminal, a Regex, an Except, or a
// Nonterminal, never more than one at once.
type Node struct {
	Kind        NodeKind
	Terminal    TerminalID
	Regex       RegexID
	Except      ExceptID
	Reps        uint32 // meaningful only when Kind == NodeExcept
	Nonterminal NonterminalID
}

// TerminalNode builds a Node wrapping a literal byte-string terminal.
func TerminalNode(t TerminalID) Node { return Node{Kind: NodeTerminal, Terminal: t} }

// RegexNode builds a Node wrapping a regex automaton.
func RegexNode(r RegexID) Node { return Node{Kind: NodeRegex, Regex: r} }

// ExceptNode builds a Node wrapping an except! automaton with a
// repetition bound (InvalidRepetition for unbounded).
func ExceptNode(e ExceptID, reps uint32) Node {
	return Node{Kind: NodeExcept, Except: e, Reps: reps}
}

// NonterminalNode builds a Node referencing another nonterminal.
func NonterminalNode(n NonterminalID) Node { return Node{Kind: NodeNonterminal, Nonterminal: n} }

// Production is one alternative of a nonterminal's definition. The
// grammar is pre-normalized so every alternation is a separate
// Production — there is no Alternative node kind.
type Production struct {
	LHS NonterminalID
	RHS []Node
}

// exceptAutomaton pairs an except! body's automaton with its repetition
// bound.
type exceptAutomaton struct {
	dfa  *fsa.Adapter
	reps uint32
}

// Store is the immutable Lowered Normal Form grammar. Build one with
// NewBuilder; Store itself has no mutating methods.
type Store struct {
	names       []string          // nt id -> display name
	nameIdx     map[string]NonterminalID
	productions [][]Production    // nt id -> productions
	terminals   [][]byte          // terminal id -> bytes
	regexes     []*fsa.Adapter    // regex id -> compiled automaton
	excepts     []exceptAutomaton // except id -> automaton + reps
	start       NonterminalID
}

// Start returns the start nonterminal.
func (g *Store) Start() NonterminalID { return g.start }

// StartNonterminal looks up a nonterminal by its source name, letting a
// caller re-use one compiled grammar as the constraint for several
// related decodes, each rooted at a different rule (e.g. a JSON grammar
// reused once for a whole document and once for just an "object" value).
// It does not change g.Start(); pass the id to earley.NewWithStart to
// root a recognizer at it (constrain.WithStartSymbol does this).
func (g *Store) StartNonterminal(name string) (NonterminalID, error) {
	if id, ok := g.nameIdx[name]; ok {
		return id, nil
	}
	return 0, &InvalidInputError{Reason: fmt.Sprintf("no nonterminal named %q", name)}
}

// Name returns the display name of a nonterminal, or "" if out of range.
func (g *Store) Name(nt NonterminalID) string {
	if int(nt) >= len(g.names) {
		return ""
	}
	return g.names[nt]
}

// NumNonterminals returns the number of distinct nonterminals.
func (g *Store) NumNonterminals() int { return len(g.names) }

// Productions returns the productions of nt, indexed by production id.
func (g *Store) Productions(nt NonterminalID) []Production {
	if int(nt) >= len(g.productions) {
		return nil
	}
	return g.productions[nt]
}

// NodeAt returns the RHS node at position dot of production prod of nt,
// and whether dot is within bounds. dot == len(RHS) is valid and means
// "completed"; NodeAt returns ok == false in that case.
func (g *Store) NodeAt(nt NonterminalID, prod, dot uint32) (Node, bool) {
	prods := g.Productions(nt)
	if int(prod) >= len(prods) {
		return Node{}, false
	}
	rhs := prods[prod].RHS
	if int(dot) >= len(rhs) {
		return Node{}, false
	}
	return rhs[dot], true
}

// ProductionLength returns len(RHS) for (nt, prod), used to test for
// completion (dot == ProductionLength means I1's "completed").
func (g *Store) ProductionLength(nt NonterminalID, prod uint32) int {
	prods := g.Productions(nt)
	if int(prod) >= len(prods) {
		return 0
	}
	return len(prods[prod].RHS)
}

// Terminal returns the literal byte string for a terminal id.
func (g *Store) Terminal(t TerminalID) []byte {
	if int(t) >= len(g.terminals) {
		return nil
	}
	return g.terminals[t]
}

// Regex returns the compiled automaton for a regex id.
func (g *Store) Regex(r RegexID) *fsa.Adapter {
	if int(r) >= len(g.regexes) {
		return nil
	}
	return g.regexes[r]
}

// Except returns the compiled automaton and repetition bound for an
// except id.
func (g *Store) Except(e ExceptID) (*fsa.Adapter, uint32) {
	if int(e) >= len(g.excepts) {
		return nil, 0
	}
	ea := g.excepts[e]
	return ea.dfa, ea.reps
}

// FirstBytes returns the set of bytes that could be the first byte
// consumed were n to be scanned next, asking the node's automaton on each
// call. A Nonterminal node is never scanned itself (Predict expands it
// instead), so FirstBytes is defined only for Terminal/Regex/Except and
// returns the empty set otherwise.
func (g *Store) FirstBytes(n Node) fsa.ByteSet {
	switch n.Kind {
	case NodeTerminal:
		t := g.Terminal(n.Terminal)
		if len(t) == 0 {
			return fsa.ByteSet{}
		}
		return fsa.SingleByte(t[0])
	case NodeRegex:
		if r := g.Regex(n.Regex); r != nil {
			return r.FirstBytes(true)
		}
	case NodeExcept:
		if e, _ := g.Except(n.Except); e != nil {
			return e.FirstBytes(false)
		}
	}
	return fsa.ByteSet{}
}
