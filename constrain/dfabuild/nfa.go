/*
Package dfabuild builds the DFAs that back regex literals (`#"…"`) and
except! bodies (`except!(body[, N])`) in a lowered grammar. Spec §1 treats
DFA construction as an external collaborator — the Earley core only ever
consumes an already-built fsa.DFA — so this package is deliberately kept
out of constrain/earley's import graph; it exists purely to make the
module buildable end to end.

The regex subset supported (literal bytes and escapes, `.`, character
classes with ranges and negation, concatenation, alternation, grouping,
`*`, `+`, `?`, and bounded `{m,n}`) mirrors the Thompson-construction +
subset-construction pipeline coregx/coregex uses (nfa/compile.go →
dfa/lazy), done eagerly here since the grammars this system constrains are
small compared to a general-purpose regex engine's workload.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package dfabuild

import (
	"fmt"

	"github.com/npillmayer/gorgo/constrain/fsa"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'gorgo.constrain.dfabuild'.
func tracer() tracing.Trace {
	return tracing.Select("gorgo.constrain.dfabuild")
}

// --- Thompson NFA -----------------------------------------------------

// instOp is the opcode of one Thompson-construction instruction.
type instOp uint8

const (
	opChar instOp = iota // consume a byte in bytes, go to out
	opSplit               // try out, then out2 (both taken, in NFA fashion)
	opJmp                 // go to out unconditionally
	opMatch               // accept
)

type inst struct {
	op    instOp
	bytes fsa.ByteSet // only for opChar
	out   int
	out2  int // only for opSplit
}

// program is a Thompson-construction NFA program; state ids are indices
// into insts. Matching starts at insts[start].
type program struct {
	insts []inst
	start int
}

// --- AST ---------------------------------------------------------------

type astNode interface{ isAst() }

type astLit struct{ b byte }
type astAny struct{}
type astClass struct {
	set    fsa.ByteSet
	negate bool
}
type astConcat struct{ parts []astNode }
type astAlt struct{ parts []astNode }
type astRepeat struct {
	body     astNode
	min, max int // max == -1 means unbounded
}

func (astLit) isAst()    {}
func (astAny) isAst()    {}
func (astClass) isAst()  {}
func (astConcat) isAst() {}
func (astAlt) isAst()    {}
func (astRepeat) isAst() {}

// --- Parser --------------------------------------------------------------

type parser struct {
	src []byte
	pos int
}

// parseRegex parses a (non-anchored-syntax) regex body, the same subset
// an EBNF `#"…"` literal carries.
func parseRegex(src string) (astNode, error) {
	p := &parser{src: []byte(src)}
	n, err := p.parseAlt()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("regex: unexpected %q at offset %d", p.src[p.pos], p.pos)
	}
	return n, nil
}

func (p *parser) peek() (byte, bool) {
	if p.pos >= len(p.src) {
		return 0, false
	}
	return p.src[p.pos], true
}

func (p *parser) parseAlt() (astNode, error) {
	first, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	parts := []astNode{first}
	for {
		b, ok := p.peek()
		if !ok || b != '|' {
			break
		}
		p.pos++
		n, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		parts = append(parts, n)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return astAlt{parts: parts}, nil
}

func (p *parser) parseConcat() (astNode, error) {
	var parts []astNode
	for {
		b, ok := p.peek()
		if !ok || b == '|' || b == ')' {
			break
		}
		n, err := p.parseRepeat()
		if err != nil {
			return nil, err
		}
		parts = append(parts, n)
	}
	if len(parts) == 0 {
		return astConcat{}, nil // epsilon
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return astConcat{parts: parts}, nil
}

func (p *parser) parseRepeat() (astNode, error) {
	atom, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		b, ok := p.peek()
		if !ok {
			return atom, nil
		}
		switch b {
		case '*':
			p.pos++
			atom = astRepeat{body: atom, min: 0, max: -1}
		case '+':
			p.pos++
			atom = astRepeat{body: atom, min: 1, max: -1}
		case '?':
			p.pos++
			atom = astRepeat{body: atom, min: 0, max: 1}
		case '{':
			min, max, err := p.parseBounds()
			if err != nil {
				return nil, err
			}
			atom = astRepeat{body: atom, min: min, max: max}
		default:
			return atom, nil
		}
	}
}

func (p *parser) parseBounds() (int, int, error) {
	p.pos++ // consume '{'
	min, err := p.parseInt()
	if err != nil {
		return 0, 0, err
	}
	max := min
	if b, ok := p.peek(); ok && b == ',' {
		p.pos++
		if b, ok := p.peek(); ok && b == '}' {
			max = -1
		} else {
			max, err = p.parseInt()
			if err != nil {
				return 0, 0, err
			}
		}
	}
	b, ok := p.peek()
	if !ok || b != '}' {
		return 0, 0, fmt.Errorf("regex: expected '}' in repetition bound")
	}
	p.pos++
	return min, max, nil
}

func (p *parser) parseInt() (int, error) {
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == start {
		return 0, fmt.Errorf("regex: expected digits at offset %d", start)
	}
	n := 0
	for _, d := range p.src[start:p.pos] {
		n = n*10 + int(d-'0')
	}
	return n, nil
}

func (p *parser) parseAtom() (astNode, error) {
	b, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("regex: unexpected end of pattern")
	}
	switch b {
	case '(':
		p.pos++
		n, err := p.parseAlt()
		if err != nil {
			return nil, err
		}
		if c, ok := p.peek(); !ok || c != ')' {
			return nil, fmt.Errorf("regex: missing closing ')'")
		}
		p.pos++
		return n, nil
	case '.':
		p.pos++
		return astAny{}, nil
	case '[':
		return p.parseClass()
	case '\\':
		p.pos++
		return p.parseEscape()
	default:
		p.pos++
		return astLit{b: b}, nil
	}
}

func (p *parser) parseEscape() (astNode, error) {
	b, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("regex: dangling escape")
	}
	p.pos++
	switch b {
	case 'n':
		return astLit{b: '\n'}, nil
	case 't':
		return astLit{b: '\t'}, nil
	case 'r':
		return astLit{b: '\r'}, nil
	case 'd':
		var s fsa.ByteSet
		s.AddRange('0', '9')
		return astClass{set: s}, nil
	case 'w':
		var s fsa.ByteSet
		s.AddRange('a', 'z')
		s.AddRange('A', 'Z')
		s.AddRange('0', '9')
		s.Add('_')
		return astClass{set: s}, nil
	case 's':
		var s fsa.ByteSet
		s.Add(' ')
		s.Add('\t')
		s.Add('\n')
		s.Add('\r')
		return astClass{set: s}, nil
	default:
		return astLit{b: b}, nil
	}
}

func (p *parser) parseClass() (astNode, error) {
	p.pos++ // consume '['
	negate := false
	if b, ok := p.peek(); ok && b == '^' {
		negate = true
		p.pos++
	}
	var set fsa.ByteSet
	first := true
	for {
		b, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("regex: unterminated character class")
		}
		if b == ']' && !first {
			p.pos++
			break
		}
		first = false
		lo := b
		p.pos++
		if lo == '\\' {
			esc, ok := p.peek()
			if !ok {
				return nil, fmt.Errorf("regex: dangling escape in class")
			}
			p.pos++
			lo = unescapeByte(esc)
		}
		if nb, ok := p.peek(); ok && nb == '-' && p.pos+1 < len(p.src) && p.src[p.pos+1] != ']' {
			p.pos++ // consume '-'
			hi := p.src[p.pos]
			p.pos++
			if hi == '\\' {
				esc, ok := p.peek()
				if !ok {
					return nil, fmt.Errorf("regex: dangling escape in class range")
				}
				p.pos++
				hi = unescapeByte(esc)
			}
			set.AddRange(lo, hi)
		} else {
			set.Add(lo)
		}
	}
	return astClass{set: set, negate: negate}, nil
}

func unescapeByte(b byte) byte {
	switch b {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	default:
		return b
	}
}

// --- Thompson construction ----------------------------------------------

// builder holds pointers rather than values so that the out-slot pointers
// kept in a frag stay valid while later emits grow the slice.
type builder struct {
	insts []*inst
}

func (b *builder) emit(i inst) int {
	in := i
	b.insts = append(b.insts, &in)
	return len(b.insts) - 1
}

// compile turns an AST into a Thompson program with a trailing opMatch.
func compile(n astNode) *program {
	b := &builder{}
	start := b.compileNode(n)
	matchPC := b.emit(inst{op: opMatch})
	patchTails(b, start, matchPC)
	insts := make([]inst, len(b.insts))
	for i, in := range b.insts {
		insts[i] = *in
	}
	return &program{insts: insts, start: start.entry}
}

// frag is a partially built fragment: an entry pc and a list of
// dangling "out" pointers to patch once the continuation is known.
type frag struct {
	entry int
	outs  []*int
}

func patch(outs []*int, target int) {
	for _, o := range outs {
		*o = target
	}
}

func patchTails(b *builder, f frag, target int) {
	patch(f.outs, target)
}

func (b *builder) compileNode(n astNode) frag {
	switch v := n.(type) {
	case astLit:
		var s fsa.ByteSet
		s.Add(v.b)
		pc := b.emit(inst{op: opChar, bytes: s})
		return frag{entry: pc, outs: []*int{&b.insts[pc].out}}
	case astAny:
		var s fsa.ByteSet
		s.AddRange(0, 255)
		pc := b.emit(inst{op: opChar, bytes: s})
		return frag{entry: pc, outs: []*int{&b.insts[pc].out}}
	case astClass:
		s := v.set
		if v.negate {
			var full fsa.ByteSet
			full.AddRange(0, 255)
			var neg fsa.ByteSet
			for i := 0; i < 256; i++ {
				bb := byte(i)
				if !s.Contains(bb) {
					neg.Add(bb)
				}
			}
			s = neg
		}
		pc := b.emit(inst{op: opChar, bytes: s})
		return frag{entry: pc, outs: []*int{&b.insts[pc].out}}
	case astConcat:
		if len(v.parts) == 0 {
			pc := b.emit(inst{op: opJmp})
			return frag{entry: pc, outs: []*int{&b.insts[pc].out}}
		}
		first := b.compileNode(v.parts[0])
		outs := first.outs
		entry := first.entry
		for _, part := range v.parts[1:] {
			f := b.compileNode(part)
			patch(outs, f.entry)
			outs = f.outs
		}
		return frag{entry: entry, outs: outs}
	case astAlt:
		if len(v.parts) == 0 {
			pc := b.emit(inst{op: opJmp})
			return frag{entry: pc, outs: []*int{&b.insts[pc].out}}
		}
		frags := make([]frag, len(v.parts))
		for i, part := range v.parts {
			frags[i] = b.compileNode(part)
		}
		entry := frags[0].entry
		if len(frags) > 1 {
			entry = b.altChain(frags)
		}
		var outs []*int
		for _, f := range frags {
			outs = append(outs, f.outs...)
		}
		return frag{entry: entry, outs: outs}
	case astRepeat:
		return b.compileRepeat(v)
	}
	panic(fmt.Sprintf("dfabuild: unknown ast node %T", n))
}

// altChain builds a right-leaning binary split chain for N>=2
// alternatives: split(f0, split(f1, split(f2, f3))).
func (b *builder) altChain(frags []frag) int {
	entry := frags[len(frags)-1].entry
	for i := len(frags) - 2; i >= 0; i-- {
		pc := b.emit(inst{op: opSplit, out: frags[i].entry, out2: entry})
		entry = pc
	}
	return entry
}

func (b *builder) compileRepeat(v astRepeat) frag {
	if v.max == -1 {
		if v.min == 0 {
			// star: split(body, out)
			splitPC := b.emit(inst{op: opSplit})
			body := b.compileNode(v.body)
			patch(body.outs, splitPC)
			b.insts[splitPC].out = body.entry
			return frag{entry: splitPC, outs: []*int{&b.insts[splitPC].out2}}
		}
		// plus: body then star(body)
		first := b.compileNode(v.body)
		splitPC := b.emit(inst{op: opSplit})
		bodyAgain := b.compileNode(v.body)
		patch(bodyAgain.outs, splitPC)
		b.insts[splitPC].out = bodyAgain.entry
		patch(first.outs, splitPC)
		return frag{entry: first.entry, outs: []*int{&b.insts[splitPC].out2}}
	}
	// bounded {min,max}: min mandatory copies, then (max-min) optional copies
	var entry int
	var outs []*int
	haveEntry := false
	for i := 0; i < v.min; i++ {
		f := b.compileNode(v.body)
		if !haveEntry {
			entry = f.entry
			haveEntry = true
		} else {
			patch(outs, f.entry)
		}
		outs = f.outs
	}
	for i := v.min; i < v.max; i++ {
		splitPC := b.emit(inst{op: opSplit})
		if !haveEntry {
			entry = splitPC
			haveEntry = true
		} else {
			patch(outs, splitPC)
		}
		f := b.compileNode(v.body)
		b.insts[splitPC].out = f.entry
		outs = append(f.outs, &b.insts[splitPC].out2)
	}
	if !haveEntry {
		pc := b.emit(inst{op: opJmp})
		entry = pc
		outs = []*int{&b.insts[pc].out}
	}
	return frag{entry: entry, outs: outs}
}
