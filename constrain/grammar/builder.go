package grammar

import (
	"fmt"

	"github.com/npillmayer/gorgo/constrain/fsa"
)

// Builder assembles a Store incrementally, one already-flattened
// production at a time: a Builder never sees alternation or repetition
// directly — that desugaring is constrain/ebnf's job.
type Builder struct {
	names       []string
	nameIdx     map[string]NonterminalID
	productions [][]Production
	terminals   [][]byte
	termIdx     map[string]TerminalID
	regexes     []*fsa.Adapter
	excepts     []exceptAutomaton
	start       NonterminalID
	startSet    bool
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		nameIdx: make(map[string]NonterminalID),
		termIdx: make(map[string]TerminalID),
	}
}

// Nonterminal returns the id for name, creating it on first use.
func (b *Builder) Nonterminal(name string) NonterminalID {
	if id, ok := b.nameIdx[name]; ok {
		return id
	}
	id := NonterminalID(len(b.names))
	b.names = append(b.names, name)
	b.productions = append(b.productions, nil)
	b.nameIdx[name] = id
	return id
}

// SetStart designates name as the start symbol. Must reference a
// nonterminal already created via Nonterminal.
func (b *Builder) SetStart(name string) {
	b.start = b.Nonterminal(name)
	b.startSet = true
}

// Terminal interns a literal byte string, returning its id. Identical
// byte strings are deduplicated.
func (b *Builder) Terminal(lit []byte) (TerminalID, error) {
	if len(lit) > MaxTerminalLen {
		return 0, &TerminalTooLongError{Length: len(lit)}
	}
	key := string(lit)
	if id, ok := b.termIdx[key]; ok {
		return id, nil
	}
	id := TerminalID(len(b.terminals))
	b.terminals = append(b.terminals, append([]byte(nil), lit...))
	b.termIdx[key] = id
	return id, nil
}

// Regex registers a compiled regex automaton, returning its id.
func (b *Builder) Regex(dfa *fsa.Adapter) (RegexID, error) {
	if dfa == nil {
		return 0, &InvalidInputError{Reason: "nil regex automaton"}
	}
	if err := validateStart(dfa, true); err != nil {
		return 0, err
	}
	id := RegexID(len(b.regexes))
	b.regexes = append(b.regexes, dfa)
	return id, nil
}

// Except registers a compiled except! body automaton together with its
// repetition bound (grammar.InvalidRepetition for unbounded), returning
// its id.
func (b *Builder) Except(dfa *fsa.Adapter, reps uint32) (ExceptID, error) {
	if dfa == nil {
		return 0, &InvalidInputError{Reason: "nil except! automaton"}
	}
	if err := validateStart(dfa, false); err != nil {
		return 0, err
	}
	id := ExceptID(len(b.excepts))
	b.excepts = append(b.excepts, exceptAutomaton{dfa: dfa, reps: reps})
	return id, nil
}

// validateStart guarantees a DFA's start state can be computed without
// the backend panicking, failing grammar construction up front rather
// than at scan time.
func validateStart(dfa *fsa.Adapter, anchored bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &InvalidInputError{Reason: fmt.Sprintf("DFA start state failed: %v", r)}
		}
	}()
	_ = dfa.CompressedStart(anchored)
	return nil
}

// AddProduction adds one alternative `lhs ::= rhs` to the grammar. rhs
// must already be flattened — every element is exactly one Node.
func (b *Builder) AddProduction(lhs NonterminalID, rhs []Node) {
	prod := Production{LHS: lhs, RHS: append([]Node(nil), rhs...)}
	b.productions[lhs] = append(b.productions[lhs], prod)
}

// Build finalizes the grammar: it computes the productive-symbol closure
// and returns EmptyGrammarError if the start symbol cannot derive any
// finite byte string after simplification.
func (b *Builder) Build() (*Store, error) {
	if !b.startSet {
		return nil, &InvalidInputError{Reason: "no start symbol designated"}
	}
	productive := b.productiveSymbols()
	if !productive[b.start] {
		return nil, &EmptyGrammarError{Start: b.names[b.start]}
	}
	nameIdx := make(map[string]NonterminalID, len(b.nameIdx))
	for name, id := range b.nameIdx {
		nameIdx[name] = id
	}
	g := &Store{
		names:       append([]string(nil), b.names...),
		nameIdx:     nameIdx,
		productions: make([][]Production, len(b.productions)),
		terminals:   b.terminals,
		regexes:     b.regexes,
		excepts:     b.excepts,
		start:       b.start,
	}
	for nt, prods := range b.productions {
		g.productions[nt] = append([]Production(nil), prods...)
	}
	return g, nil
}

// productiveSymbols computes, by fixed point, the set of nonterminals
// that can derive at least one finite byte string. A nonterminal becomes
// productive as soon as one of its productions consists entirely of
// already-productive symbols; Terminal/Regex/Except nodes are productive
// unconditionally. A nonterminal whose every production recurses through
// itself (`A ::= A`) never gains a base case, so it never becomes
// productive.
func (b *Builder) productiveSymbols() []bool {
	productive := make([]bool, len(b.names))
	changed := true
	for changed {
		changed = false
		for nt, prods := range b.productions {
			if productive[nt] {
				continue
			}
			for _, p := range prods {
				if b.productionIsProductive(p, productive) {
					productive[nt] = true
					changed = true
					break
				}
			}
		}
	}
	return productive
}

func (b *Builder) productionIsProductive(p Production, productive []bool) bool {
	for _, n := range p.RHS {
		if n.Kind == NodeNonterminal && !productive[n.Nonterminal] {
			return false
		}
	}
	return true
}
