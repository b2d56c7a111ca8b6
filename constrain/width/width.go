/*
Package width validates that a grammar's dimensions fit the sub-state
word layout constrain/grammar and constrain/earley build on.

This implementation takes the "single widest layout" design option: every
Item field and every DFA sub-state is a plain uint32, never a packed
bitfield parametrized by the grammar at hand. That choice makes this
package intentionally small — there is no word-width arithmetic to get
right, only a handful of bound checks on a whole Store: nonterminal
count, productions per nonterminal and production length. None of
these is checked by constrain/grammar's Builder, which only bounds
terminal length.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package width

import (
	"fmt"

	"github.com/npillmayer/gorgo/constrain/grammar"
)

// MaxNonterminals bounds NonterminalID's practical range; a uint32 could
// hold far more, but a grammar anywhere near this size almost certainly
// indicates a generation bug in whatever produced it.
const MaxNonterminals = 1 << 24

// MaxProductionsPerNonterminal bounds how many alternatives a single
// nonterminal may have after lowering.
const MaxProductionsPerNonterminal = 1 << 16

// MaxProductionLength bounds a single production's right-hand side
// length — the value Item.Dot must be able to reach.
const MaxProductionLength = 1 << 16

// Validate checks that g's dimensions fit the fixed uint32 layout every
// Item field and DFA sub-state uses, returning a descriptive error on the
// first violation found.
func Validate(g *grammar.Store) error {
	if g.NumNonterminals() > MaxNonterminals {
		return &grammar.InvalidInputError{Reason: fmt.Sprintf("width: grammar has %d nonterminals, exceeds %d", g.NumNonterminals(), MaxNonterminals)}
	}
	for nt := 0; nt < g.NumNonterminals(); nt++ {
		prods := g.Productions(grammar.NonterminalID(nt))
		if len(prods) > MaxProductionsPerNonterminal {
			return &grammar.InvalidInputError{Reason: fmt.Sprintf("width: nonterminal %q has %d productions, exceeds %d",
				g.Name(grammar.NonterminalID(nt)), len(prods), MaxProductionsPerNonterminal)}
		}
		for pi, p := range prods {
			if len(p.RHS) > MaxProductionLength {
				return &grammar.InvalidInputError{Reason: fmt.Sprintf("width: nonterminal %q production %d has length %d, exceeds %d",
					g.Name(grammar.NonterminalID(nt)), pi, len(p.RHS), MaxProductionLength)}
			}
		}
	}
	return nil
}
