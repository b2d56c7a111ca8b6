/*
Package ebnf lexes and parses an EBNF-ish grammar source (identifiers,
quoted string terminals, #"regex" literals, except!(body[, N]), grouping,
alternation, and the postfix ?/*+/{m,n} repetition operators) and lowers
it into a constrain/grammar.Store ready for constrain/earley.

Desugaring follows the standard textbook translations into a grammar
with no alternation or repetition left in any single production — every
postfix operator and every grouped alternative becomes its own
synthetic, gensym-named nonterminal:

	a?      ⟶  __optN ::= a | ;
	a*      ⟶  __starN ::= a __starN | ;
	a+      ⟶  __plusN ::= a __plusN | a ;
	a{m,n}  ⟶  m mandatory copies of a, followed by a nested optional
	           tail matching zero to (n-m) further copies

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package ebnf

import (
	"fmt"

	"github.com/npillmayer/gorgo/constrain/dfabuild"
	"github.com/npillmayer/gorgo/constrain/grammar"
)

// lowerer carries the Builder being filled in and a counter for
// synthetic nonterminal names.
type lowerer struct {
	b      *grammar.Builder
	gensym int
}

// Lower parses src and lowers it into a grammar.Store. The first rule in
// src becomes the grammar's start symbol.
func Lower(src string) (*grammar.Store, error) {
	ast, err := parseGrammar(src)
	if err != nil {
		return nil, err
	}
	b := grammar.NewBuilder()
	lw := &lowerer{b: b}

	// Declare every user-named nonterminal up front so a rule can
	// reference one defined later in the source.
	for _, r := range ast.rules {
		b.Nonterminal(r.name)
	}
	b.SetStart(ast.rules[0].name)

	for _, r := range ast.rules {
		nt := b.Nonterminal(r.name)
		for _, alt := range r.alts {
			rhs, err := lw.lowerSeq(alt)
			if err != nil {
				return nil, err
			}
			b.AddProduction(nt, rhs)
		}
	}
	return b.Build()
}

func (lw *lowerer) gensymName(prefix string) string {
	lw.gensym++
	return fmt.Sprintf("__%s%d", prefix, lw.gensym)
}

func (lw *lowerer) lowerSeq(seq seqAST) ([]grammar.Node, error) {
	rhs := make([]grammar.Node, 0, len(seq.terms))
	for _, term := range seq.terms {
		node, err := lw.lowerTerm(term)
		if err != nil {
			return nil, err
		}
		rhs = append(rhs, node)
	}
	return rhs, nil
}

func (lw *lowerer) lowerTerm(t termAST) (grammar.Node, error) {
	switch t.kind {
	case termIdent:
		return grammar.NonterminalNode(lw.b.Nonterminal(t.name)), nil

	case termString:
		id, err := lw.b.Terminal([]byte(t.literal))
		if err != nil {
			return grammar.Node{}, err
		}
		return grammar.TerminalNode(id), nil

	case termRegex:
		ad, err := dfabuild.CompileRegex(t.literal)
		if err != nil {
			return grammar.Node{}, err
		}
		id, err := lw.b.Regex(ad)
		if err != nil {
			return grammar.Node{}, err
		}
		return grammar.RegexNode(id), nil

	case termExcept:
		ad, err := dfabuild.CompileExcept([]byte(t.literal))
		if err != nil {
			return grammar.Node{}, err
		}
		id, err := lw.b.Except(ad, t.min)
		if err != nil {
			return grammar.Node{}, err
		}
		return grammar.ExceptNode(id, t.min), nil

	case termGroup:
		nt := lw.b.Nonterminal(lw.gensymName("group"))
		for _, alt := range t.group {
			rhs, err := lw.lowerSeq(alt)
			if err != nil {
				return grammar.Node{}, err
			}
			lw.b.AddProduction(nt, rhs)
		}
		return grammar.NonterminalNode(nt), nil

	case termOptional:
		inner, err := lw.lowerTerm(*t.inner)
		if err != nil {
			return grammar.Node{}, err
		}
		nt := lw.b.Nonterminal(lw.gensymName("opt"))
		lw.b.AddProduction(nt, []grammar.Node{inner})
		lw.b.AddProduction(nt, nil)
		return grammar.NonterminalNode(nt), nil

	case termStar:
		nt := lw.b.Nonterminal(lw.gensymName("star"))
		inner, err := lw.lowerTerm(*t.inner)
		if err != nil {
			return grammar.Node{}, err
		}
		lw.b.AddProduction(nt, []grammar.Node{inner, grammar.NonterminalNode(nt)})
		lw.b.AddProduction(nt, nil)
		return grammar.NonterminalNode(nt), nil

	case termPlus:
		nt := lw.b.Nonterminal(lw.gensymName("plus"))
		inner, err := lw.lowerTerm(*t.inner)
		if err != nil {
			return grammar.Node{}, err
		}
		lw.b.AddProduction(nt, []grammar.Node{inner, grammar.NonterminalNode(nt)})
		inner2, err := lw.lowerTerm(*t.inner)
		if err != nil {
			return grammar.Node{}, err
		}
		lw.b.AddProduction(nt, []grammar.Node{inner2})
		return grammar.NonterminalNode(nt), nil

	case termRepeat:
		return lw.lowerRepeat(t)

	default:
		return grammar.Node{}, fmt.Errorf("ebnf: unknown term kind %d", t.kind)
	}
}

// lowerRepeat lowers `a{min,max}` into min mandatory copies of a followed
// by an optional tail matching zero to (max-min) further copies.
func (lw *lowerer) lowerRepeat(t termAST) (grammar.Node, error) {
	if t.max < t.min {
		return grammar.Node{}, fmt.Errorf("ebnf: repetition {%d,%d} has max < min", t.min, t.max)
	}
	rhs := make([]grammar.Node, 0, t.min+1)
	for i := uint32(0); i < t.min; i++ {
		inner, err := lw.lowerTerm(*t.inner)
		if err != nil {
			return grammar.Node{}, err
		}
		rhs = append(rhs, inner)
	}
	if extra := t.max - t.min; extra > 0 {
		tail, err := lw.lowerRepeatTail(*t.inner, extra)
		if err != nil {
			return grammar.Node{}, err
		}
		rhs = append(rhs, tail)
	}
	nt := lw.b.Nonterminal(lw.gensymName("rep"))
	lw.b.AddProduction(nt, rhs)
	return grammar.NonterminalNode(nt), nil
}

// lowerRepeatTail builds a nonterminal matching between 0 and n further
// copies of inner, each copy nested one level deeper and optional.
func (lw *lowerer) lowerRepeatTail(inner termAST, n uint32) (grammar.Node, error) {
	nt := lw.b.Nonterminal(lw.gensymName("reptail"))
	if n == 0 {
		lw.b.AddProduction(nt, nil)
		return grammar.NonterminalNode(nt), nil
	}
	innerNode, err := lw.lowerTerm(inner)
	if err != nil {
		return grammar.Node{}, err
	}
	rest, err := lw.lowerRepeatTail(inner, n-1)
	if err != nil {
		return grammar.Node{}, err
	}
	lw.b.AddProduction(nt, []grammar.Node{innerNode, rest})
	lw.b.AddProduction(nt, nil)
	return grammar.NonterminalNode(nt), nil
}
