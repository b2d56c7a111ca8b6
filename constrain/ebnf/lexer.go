package ebnf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/npillmayer/schuko/tracing"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

// tracer traces with key 'gorgo.constrain.ebnf'.
func tracer() tracing.Trace {
	return tracing.Select("gorgo.constrain.ebnf")
}

// newLexer builds the lexmachine.Lexer recognizing EBNF source tokens:
// identifiers, quoted string and #"regex" literals, bounded-repetition
// numbers, the except! keyword, and the grammar's punctuation: one
// Lexer.Add call per token class, then a single Compile.
func newLexer() (*lexmachine.Lexer, error) {
	lx := lexmachine.NewLexer()

	simple := func(kind tokenKind) lexmachine.Action {
		return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
			return &token{kind: kind, text: string(m.Bytes), offset: m.TC}, nil
		}
	}

	lx.Add([]byte(`::=`), simple(tokAssign))
	lx.Add([]byte(`except!`), simple(tokExcept))
	lx.Add([]byte(`;`), simple(tokSemi))
	lx.Add([]byte(`\|`), simple(tokPipe))
	lx.Add([]byte(`\(`), simple(tokLParen))
	lx.Add([]byte(`\)`), simple(tokRParen))
	lx.Add([]byte(`\{`), simple(tokLBrace))
	lx.Add([]byte(`\}`), simple(tokRBrace))
	lx.Add([]byte(`,`), simple(tokComma))
	lx.Add([]byte(`\*`), simple(tokStar))
	lx.Add([]byte(`\+`), simple(tokPlus))
	lx.Add([]byte(`\?`), simple(tokQuestion))
	lx.Add([]byte(`[0-9]+`), simple(tokNumber))
	lx.Add([]byte(`[a-zA-Z_][a-zA-Z0-9_]*`), simple(tokIdent))

	lx.Add([]byte(`#"([^"\\]|\\.)*"`), func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		body, err := unquote(string(m.Bytes[1:]))
		if err != nil {
			return nil, fmt.Errorf("ebnf: regex literal at byte %d: %w", m.TC, err)
		}
		return &token{kind: tokRegex, text: body, offset: m.TC}, nil
	})
	lx.Add([]byte(`"([^"\\]|\\.)*"`), func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		body, err := unquote(string(m.Bytes))
		if err != nil {
			return nil, fmt.Errorf("ebnf: string literal at byte %d: %w", m.TC, err)
		}
		return &token{kind: tokString, text: body, offset: m.TC}, nil
	})

	lx.Add([]byte(`( |\t|\n|\r)+`), skip)
	lx.Add([]byte(`//[^\n]*`), skip)

	if err := lx.Compile(); err != nil {
		return nil, fmt.Errorf("ebnf: compiling lexer DFA: %w", err)
	}
	return lx, nil
}

func skip(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
	return nil, nil
}

// unquote strips the surrounding double quotes from raw and unescapes
// \", \\, \n, \t, \r within it.
func unquote(raw string) (string, error) {
	if len(raw) < 2 || raw[0] != '"' || raw[len(raw)-1] != '"' {
		return "", fmt.Errorf("malformed quoted literal %q", raw)
	}
	inner := raw[1 : len(raw)-1]
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c != '\\' || i == len(inner)-1 {
			b.WriteByte(c)
			continue
		}
		i++
		switch inner[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte(inner[i])
		}
	}
	return b.String(), nil
}

// lex tokenizes src in full, returning every token including a trailing
// tokEOF sentinel. Grammar source files are small, so there is no
// benefit to lazy/streaming tokenization here.
func lex(src string) ([]token, error) {
	lx, err := newLexer()
	if err != nil {
		return nil, err
	}
	scanner, err := lx.Scanner([]byte(src))
	if err != nil {
		return nil, fmt.Errorf("ebnf: starting scanner: %w", err)
	}
	var toks []token
	for {
		tok, err, eof := scanner.Next()
		if eof {
			break
		}
		if err != nil {
			if ui, ok := err.(*machines.UnconsumedInput); ok {
				return nil, fmt.Errorf("ebnf: unrecognized input %q at byte %d",
					string(ui.Text), ui.StartColumn)
			}
			return nil, fmt.Errorf("ebnf: lex error: %w", err)
		}
		if tok == nil {
			continue // whitespace/comment actions return nil
		}
		toks = append(toks, *(tok.(*token)))
	}
	toks = append(toks, token{kind: tokEOF})
	tracer().Debugf("ebnf: lexed %d tokens", len(toks))
	return toks, nil
}

// parseUint is a small helper shared by the parser for bounded-repetition
// counts (`{2,3}`).
func parseUint(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}
