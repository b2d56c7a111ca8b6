/*
Package probe computes, for a given earley.Recognizer and vocab.Vocabulary,
the set of token ids that would keep the recognizer's input grammatical if
fed next. It is the bridge between the byte-oriented recognizer and a
token-oriented language model: a logits mask is only ever as good as this
set.

The walk descends the vocabulary's prefix trie one byte at a time,
feeding each byte through the recognizer and reverting immediately after
exploring a subtree, so the recognizer's chart ends the call exactly as
it started — probing never leaves a side effect behind. Separator tokens
(end-of-sequence and similar control tokens) are never fed byte-by-byte:
whether they're allowed is an atomic question — "has the grammar reached
a point where stopping here is legal?" — answered once per call against
the recognizer's current Accepting state.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package probe

import (
	"github.com/npillmayer/gorgo/constrain/earley"
	"github.com/npillmayer/gorgo/constrain/vocab"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'gorgo.constrain.probe'.
func tracer() tracing.Trace {
	return tracing.Select("gorgo.constrain.probe")
}

// ComputeAllowedTokenIDs walks v's prefix trie against rec, returning the
// set of token ids that could be fed next without rejecting rec's input.
// rec is left in exactly the state it was in when this call started.
func ComputeAllowedTokenIDs(rec *earley.Recognizer, v *vocab.Vocabulary) (*BitSet, error) {
	allowed := NewBitSet(v.Size())
	base := rec.SnapshotLen()

	if rec.Accepting() {
		for _, id := range v.SeparatorTokens() {
			allowed.Set(uint32(id))
		}
	}

	w := v.NewPrefixWalker()
	walkTrie(rec, v, w, allowed)

	if rec.SnapshotLen() != base {
		// Defensive: every recursive step reverts after itself, so this
		// only fires if walkTrie is changed to leave a subtree dirty.
		rec.RevertTo(base)
	}
	tracer().Debugf("probe: %d/%d tokens allowed", allowed.Count(), v.Size())
	return allowed, nil
}

// walkTrie is the recursive depth-first step: record any tokens ending
// at the walker's current position, then try to descend into every child
// byte the recognizer's current state would still accept.
func walkTrie(rec *earley.Recognizer, v *vocab.Vocabulary, w *vocab.PrefixWalker, allowed *BitSet) {
	for _, id := range w.TokensHere() {
		if !v.IsSeparator(id) {
			allowed.Set(uint32(id))
		}
	}
	if w.SkipToken() {
		return
	}
	firstBytes := rec.AllowedFirstBytes()
	for _, b := range w.Children() {
		if !firstBytes.Contains(b) {
			continue
		}
		snap := rec.SnapshotLen()
		if err := rec.FeedByte(b); err != nil {
			continue
		}
		if !w.Descend(b) {
			rec.RevertTo(snap)
			continue
		}
		walkTrie(rec, v, w, allowed)
		w.Ascend()
		rec.RevertTo(snap)
	}
}
