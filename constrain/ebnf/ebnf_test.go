package ebnf

import (
	"strings"
	"testing"

	"github.com/npillmayer/gorgo/constrain/earley"
	"golang.org/x/tools/txtar"
)

// fixture bundles several independent grammar/accept/reject cases into a
// single txtar archive, one case per "-- name/grammar --" /
// "-- name/accept --" / "-- name/reject --" triple, so new cases are
// added by editing data rather than Go boilerplate.
const fixture = `
-- literal/grammar --
start ::= "hello" ;
-- literal/accept --
hello
-- literal/reject --
hellp

-- alternation/grammar --
start ::= "cat" | "dog" ;
-- alternation/accept --
cat
dog
-- alternation/reject --
cow

-- star/grammar --
start ::= "a" "b"* "c" ;
-- star/accept --
ac
abc
abbbc
-- star/reject --
ab

-- optional/grammar --
start ::= "a" "b"? "c" ;
-- optional/accept --
ac
abc
-- optional/reject --
abbc

-- group/grammar --
start ::= ("a" | "b") "c" ;
-- group/accept --
ac
bc
-- group/reject --
cc

-- regex/grammar --
start ::= #"[0-9]+" ;
-- regex/accept --
0
42
-- regex/reject --
4a

-- repeat/grammar --
start ::= "a"{2,3} ;
-- repeat/accept --
aa
aaa
-- repeat/reject --
a

-- except/grammar --
start ::= except!("--") "--" ;
-- except/accept --
x--
hello--
`

type caseGroup struct {
	grammar string
	accept  []string
	reject  []string
}

func loadFixtures(t *testing.T) map[string]*caseGroup {
	t.Helper()
	ar := txtar.Parse([]byte(fixture))
	cases := make(map[string]*caseGroup)
	for _, f := range ar.Files {
		parts := strings.SplitN(f.Name, "/", 2)
		if len(parts) != 2 {
			t.Fatalf("malformed fixture file name %q", f.Name)
		}
		name, section := parts[0], parts[1]
		cg, ok := cases[name]
		if !ok {
			cg = &caseGroup{}
			cases[name] = cg
		}
		lines := strings.Split(strings.TrimRight(string(f.Data), "\n"), "\n")
		switch section {
		case "grammar":
			cg.grammar = string(f.Data)
		case "accept":
			cg.accept = lines
		case "reject":
			cg.reject = lines
		default:
			t.Fatalf("unknown fixture section %q", section)
		}
	}
	return cases
}

func TestLowerFixtures(t *testing.T) {
	cases := loadFixtures(t)
	for name, cg := range cases {
		name, cg := name, cg
		t.Run(name, func(t *testing.T) {
			g, err := Lower(cg.grammar)
			if err != nil {
				t.Fatalf("Lower: %v", err)
			}
			for _, word := range cg.accept {
				if word == "" {
					continue
				}
				r := earley.New(g)
				for i := 0; i < len(word); i++ {
					if err := r.FeedByte(word[i]); err != nil {
						t.Fatalf("%q: unexpected rejection at byte %d: %v", word, i, err)
					}
				}
				if !r.Accepting() {
					t.Fatalf("%q: expected Accepting after full input", word)
				}
			}
			for _, word := range cg.reject {
				if word == "" {
					continue
				}
				r := earley.New(g)
				rejected := false
				for i := 0; i < len(word); i++ {
					if err := r.FeedByte(word[i]); err != nil {
						rejected = true
						break
					}
				}
				if !rejected && r.Accepting() {
					t.Fatalf("%q: expected rejection or non-accepting state", word)
				}
			}
		})
	}
}

func TestLowerReportsParseError(t *testing.T) {
	if _, err := Lower(`start ::= "a" ;;`); err == nil {
		t.Fatal("expected a parse error for a stray semicolon")
	}
}
