/*
Package earley implements the incremental, grammar-constrained Earley
recognizer at the heart of this system: a chart parser extended with
DFA-driven terminal/regex/except! matching, Leo's right-recursion
acceleration, and a reversible state model so a failed speculative probe
costs nothing.

Its Predict/Scan/Complete structure and tracer() convention descend from
this module's earlier lr/earley package, rebuilt around a six-field
Earley item — NT, dot, prod, origin, an opaque per-node sub-state word
and an except! repetition budget — that package's LR-flavoured item
never needed.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package earley

import (
	"github.com/npillmayer/gorgo/constrain/grammar"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'gorgo.constrain.earley'.
func tracer() tracing.Trace {
	return tracing.Select("gorgo.constrain.earley")
}

// Item is an Earley item: we are trying to derive NT via production
// Prod, have matched up to Dot, started at Origin, and the local
// automaton (if any) is in sub-state State. Reps carries the remaining
// repetition budget for a bounded except! node (grammar.InvalidRepetition
// when the node is unbounded, zero when the dot isn't sitting on an
// except! node at all).
//
// Every field is a plain uint32, no bit-packing, no generic width
// parametrization. constrain/width validates at construction time that
// a grammar's dimensions fit; the item itself never needs to know which
// width was chosen.
type Item struct {
	NT     grammar.NonterminalID
	Dot    uint32
	Prod   uint32
	Origin uint32
	State  uint32
	Reps   uint32
}

// completed reports whether dot has reached the end of its production
// (I1). Completed items are stored in chart columns like any other:
// closeColumn hands them to completeItem, and Accepting looks for a
// completed start item there.
func (it Item) completed(g *grammar.Store) bool {
	return it.Dot >= uint32(g.ProductionLength(it.NT, it.Prod))
}

// nextNode returns the RHS node at the item's dot position, or ok==false
// if the item is completed.
func (it Item) nextNode(g *grammar.Store) (grammar.Node, bool) {
	return g.NodeAt(it.NT, it.Prod, it.Dot)
}

// advance returns a copy of it with the dot moved one position forward
// and the sub-state and repetition budget reset to zero (a freshly
// predicted node's starting sub-state and budget are filled in by
// primeItem, not by advance).
func (it Item) advance() Item {
	it.Dot++
	it.State = 0
	it.Reps = 0
	return it
}

// withState returns a copy of it carrying a new sub-state word, dot
// unchanged (used by Scan's same-node continuations).
func (it Item) withState(state uint32) Item {
	it.State = state
	return it
}

// withReps returns a copy of it carrying a new repetition budget, used by
// an except! node's Scan to decrement the remaining count while staying
// in place.
func (it Item) withReps(reps uint32) Item {
	it.Reps = reps
	return it
}
