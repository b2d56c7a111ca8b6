/*
Package vocab holds a tokenizer vocabulary as a byte-trie: the token
identifiers a language model emits, their raw byte sequences, and which
of them are separator tokens (end-of-sequence or otherwise atomic
boundary markers that a grammar check must probe as a whole, never
byte-by-byte). constrain/probe walks the trie this package builds to
decide which token ids are still legal continuations of whatever the
Earley recognizer has accepted so far.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package vocab

import (
	"fmt"

	"github.com/emirpasic/gods/sets/hashset"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/exp/slices"
)

// tracer traces with key 'gorgo.constrain.vocab'.
func tracer() tracing.Trace {
	return tracing.Select("gorgo.constrain.vocab")
}

// TokenID is a dense small integer identifying one entry in a
// Vocabulary, matching whatever integer type the model's token stream
// uses downstream.
type TokenID uint32

// Vocabulary is an immutable collection of tokens together with a prefix
// trie over their byte sequences, the structure PrefixWalker walks.
type Vocabulary struct {
	bytes       [][]byte
	display     []string
	separators  *hashset.Set
	root        *trieNode
}

// New builds a Vocabulary from parallel slices of raw token bytes and
// their display strings (tokens[i] and displays[i] describe token id
// TokenID(i)). separators names the token ids that must be probed
// atomically rather than byte-by-byte (typically end-of-sequence and any
// other whole-unit control tokens the tokenizer defines).
func New(tokens [][]byte, displays []string, separators []TokenID) (*Vocabulary, error) {
	if len(displays) != 0 && len(displays) != len(tokens) {
		return nil, fmt.Errorf("vocab: %d display strings for %d tokens", len(displays), len(tokens))
	}
	v := &Vocabulary{
		bytes:      append([][]byte(nil), tokens...),
		display:    append([]string(nil), displays...),
		separators: hashset.New(),
		root:       newTrieNode(),
	}
	for _, s := range separators {
		v.separators.Add(s)
	}
	for id, b := range tokens {
		v.root.insert(b, TokenID(id))
	}
	tracer().Debugf("vocab: loaded %d tokens, %d separators", len(tokens), len(separators))
	return v, nil
}

// Size returns the number of tokens in the vocabulary.
func (v *Vocabulary) Size() int { return len(v.bytes) }

// TokenBytes returns the raw byte sequence for id, or nil if id is out of
// range.
func (v *Vocabulary) TokenBytes(id TokenID) []byte {
	if int(id) >= len(v.bytes) {
		return nil
	}
	return v.bytes[id]
}

// DisplayString returns the human-readable form of id, falling back to
// the raw bytes if no display string was supplied.
func (v *Vocabulary) DisplayString(id TokenID) string {
	if int(id) < len(v.display) && v.display[id] != "" {
		return v.display[id]
	}
	return string(v.TokenBytes(id))
}

// IsSeparator reports whether id is registered as a separator token.
func (v *Vocabulary) IsSeparator(id TokenID) bool {
	return v.separators.Contains(id)
}

// SeparatorTokens returns every registered separator token id, sorted.
func (v *Vocabulary) SeparatorTokens() []TokenID {
	vals := v.separators.Values()
	ids := make([]TokenID, 0, len(vals))
	for _, x := range vals {
		ids = append(ids, x.(TokenID))
	}
	slices.Sort(ids)
	return ids
}

// NewPrefixWalker returns a walker positioned at the trie root.
func (v *Vocabulary) NewPrefixWalker() *PrefixWalker {
	return &PrefixWalker{stack: []*trieNode{v.root}}
}
