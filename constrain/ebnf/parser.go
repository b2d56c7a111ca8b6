package ebnf

import (
	"fmt"

	"github.com/npillmayer/gorgo/constrain/grammar"
)

// parser is a hand-written recursive-descent parser over the token
// stream lex produces. Grammar sources are small and the language has no
// ambiguity once `except!`'s argument list is recognized as a special
// form, so a plain Pratt-free descent (no operator-precedence table
// needed — EBNF's only "operators" are the postfix repetition suffixes)
// is enough.
type parser struct {
	toks []token
	pos  int
}

// ParseError reports a syntax error together with the byte offset it was
// found at.
type ParseError struct {
	Offset  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ebnf: %s (at byte %d)", e.Message, e.Offset)
}

func parseGrammar(src string) (*grammarAST, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	var g grammarAST
	for p.peek().kind != tokEOF {
		rule, err := p.parseRule()
		if err != nil {
			return nil, err
		}
		g.rules = append(g.rules, *rule)
	}
	if len(g.rules) == 0 {
		return nil, &ParseError{Message: "grammar has no rules"}
	}
	return &g, nil
}

func (p *parser) peek() token  { return p.toks[p.pos] }
func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(k tokenKind) (token, error) {
	t := p.peek()
	if t.kind != k {
		return t, &ParseError{Offset: t.offset, Message: fmt.Sprintf("expected %s, found %s %q", k, t.kind, t.text)}
	}
	return p.advance(), nil
}

func (p *parser) parseRule() (*ruleAST, error) {
	nameTok, err := p.expect(tokIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokAssign); err != nil {
		return nil, err
	}
	alts, err := p.parseAlts()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemi); err != nil {
		return nil, err
	}
	return &ruleAST{name: nameTok.text, alts: alts}, nil
}

// parseAlts parses `seq ( | seq )*`, stopping at `;`, `)`, or EOF.
func (p *parser) parseAlts() ([]seqAST, error) {
	var alts []seqAST
	seq, err := p.parseSeq()
	if err != nil {
		return nil, err
	}
	alts = append(alts, *seq)
	for p.peek().kind == tokPipe {
		p.advance()
		seq, err := p.parseSeq()
		if err != nil {
			return nil, err
		}
		alts = append(alts, *seq)
	}
	return alts, nil
}

// parseSeq parses a sequence of postfix-decorated terms, stopping at `|`,
// `;`, `)`, or EOF.
func (p *parser) parseSeq() (*seqAST, error) {
	var seq seqAST
	for {
		switch p.peek().kind {
		case tokPipe, tokSemi, tokRParen, tokEOF:
			return &seq, nil
		}
		term, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		seq.terms = append(seq.terms, *term)
	}
}

// parseTerm parses one atom and any postfix repetition suffixes chained
// onto it (`a?`, `a*`, `a+`, `a{2,3}` — only one suffix is meaningful per
// atom, but chaining is parsed permissively and simply nests).
func (p *parser) parseTerm() (*termAST, error) {
	atom, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().kind {
		case tokQuestion:
			p.advance()
			atom = &termAST{kind: termOptional, inner: atom}
		case tokStar:
			p.advance()
			atom = &termAST{kind: termStar, inner: atom}
		case tokPlus:
			p.advance()
			atom = &termAST{kind: termPlus, inner: atom}
		case tokLBrace:
			p.advance()
			lo, err := p.expect(tokNumber)
			if err != nil {
				return nil, err
			}
			min, err := parseUint(lo.text)
			if err != nil {
				return nil, &ParseError{Offset: lo.offset, Message: "malformed repetition count"}
			}
			max := min
			if p.peek().kind == tokComma {
				p.advance()
				hi, err := p.expect(tokNumber)
				if err != nil {
					return nil, err
				}
				max, err = parseUint(hi.text)
				if err != nil {
					return nil, &ParseError{Offset: hi.offset, Message: "malformed repetition count"}
				}
			}
			if _, err := p.expect(tokRBrace); err != nil {
				return nil, err
			}
			atom = &termAST{kind: termRepeat, inner: atom, min: min, max: max}
		default:
			return atom, nil
		}
	}
}

func (p *parser) parseAtom() (*termAST, error) {
	t := p.peek()
	switch t.kind {
	case tokIdent:
		p.advance()
		return &termAST{kind: termIdent, name: t.text}, nil
	case tokString:
		p.advance()
		return &termAST{kind: termString, literal: t.text}, nil
	case tokRegex:
		p.advance()
		return &termAST{kind: termRegex, literal: t.text}, nil
	case tokExcept:
		return p.parseExcept()
	case tokLParen:
		p.advance()
		alts, err := p.parseAlts()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return &termAST{kind: termGroup, group: alts}, nil
	default:
		return nil, &ParseError{Offset: t.offset, Message: fmt.Sprintf("unexpected %s %q", t.kind, t.text)}
	}
}

// parseExcept parses `except!(body)` or `except!(body, N)`.
func (p *parser) parseExcept() (*termAST, error) {
	p.advance() // consume "except!"
	if _, err := p.expect(tokLParen); err != nil {
		return nil, err
	}
	bodyTok, err := p.expect(tokString)
	if err != nil {
		return nil, err
	}
	reps := grammar.InvalidRepetition
	if p.peek().kind == tokComma {
		p.advance()
		n, err := p.expect(tokNumber)
		if err != nil {
			return nil, err
		}
		reps, err = parseUint(n.text)
		if err != nil {
			return nil, &ParseError{Offset: n.offset, Message: "malformed except! repetition bound"}
		}
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	return &termAST{kind: termExcept, literal: bodyTok.text, min: reps}, nil
}
