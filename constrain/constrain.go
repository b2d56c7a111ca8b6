/*
Package constrain is the public entry point of this module: load an EBNF
grammar and a tokenizer vocabulary once, then drive an Engine token by
token to keep a language model's output inside that grammar.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package constrain

import (
	"math"

	"github.com/google/uuid"
	"github.com/npillmayer/gorgo"
	"github.com/npillmayer/gorgo/constrain/earley"
	"github.com/npillmayer/gorgo/constrain/ebnf"
	"github.com/npillmayer/gorgo/constrain/grammar"
	"github.com/npillmayer/gorgo/constrain/probe"
	"github.com/npillmayer/gorgo/constrain/vocab"
	"github.com/npillmayer/gorgo/constrain/width"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'gorgo.constrain'.
func tracer() tracing.Trace {
	return tracing.Select("gorgo.constrain")
}

// Engine ties a grammar, a vocabulary and an incremental recognizer
// together. Every Engine carries a random instance id, included in every
// trace line it emits, so a log interleaving several Engines (one per
// in-flight generation request, say) can still be told apart.
type Engine struct {
	id    uuid.UUID
	g     *grammar.Store
	v     *vocab.Vocabulary
	rec   *earley.Recognizer
	cfg   Config
	cache *probe.Cache
	done  bool // a separator token has been accepted; no more bytes follow
}

// New lowers grammarText and constructs an Engine over it and v.
func New(grammarText string, v *vocab.Vocabulary, opts ...Option) (*Engine, error) {
	g, err := ebnf.Lower(grammarText)
	if err != nil {
		return nil, err
	}
	if err := width.Validate(g); err != nil {
		return nil, err
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	rec := earley.New(g)
	if cfg.StartSymbol != "" {
		start, err := g.StartNonterminal(cfg.StartSymbol)
		if err != nil {
			return nil, err
		}
		rec = earley.NewWithStart(g, start)
	}
	e := &Engine{
		id:  uuid.New(),
		g:   g,
		v:   v,
		rec: rec,
		cfg: cfg,
	}
	if cfg.UseCache {
		e.cache = probe.NewCache()
	}
	tracer().Debugf("constrain[%s]: engine created, %d nonterminals, %d vocabulary tokens",
		e.id, g.NumNonterminals(), v.Size())
	return e, nil
}

// Config returns the Engine's effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// ID returns the Engine's instance id, the value every trace line from
// this Engine is tagged with.
func (e *Engine) ID() uuid.UUID { return e.id }

// Span reports the byte range the Engine has accepted since the last
// Reset, as (0, Offset).
func (e *Engine) Span() gorgo.Span { return gorgo.Span{0, uint64(e.rec.Offset())} }

// IsFinished reports whether the Engine can accept no further bytes: the
// underlying recognizer has reached a dead end, or a separator token has
// already been accepted.
func (e *Engine) IsFinished() bool {
	return e.done || e.rec.IsFinished()
}

// Reset returns the Engine to its just-constructed state, discarding all
// accepted tokens.
func (e *Engine) Reset() {
	e.rec.Reset()
	e.done = false
	tracer().Debugf("constrain[%s]: engine reset", e.id)
}

// AcceptToken feeds token id's bytes through the recognizer, atomically:
// either every byte is consumed, or none are. A separator token is
// accepted only if the grammar has already reached a complete derivation
// (Accepting), in which case the Engine becomes finished.
func (e *Engine) AcceptToken(id vocab.TokenID) error {
	if e.done {
		return &AlreadyFinishedError{}
	}
	if e.v.IsSeparator(id) {
		if !e.rec.Accepting() {
			return &RejectedTokenError{Token: id}
		}
		e.done = true
		tracer().Debugf("constrain[%s]: accepted separator token %d", e.id, id)
		return nil
	}
	if e.rec.IsFinished() {
		return &AlreadyFinishedError{}
	}
	snap := e.rec.SnapshotLen()
	for _, b := range e.v.TokenBytes(id) {
		if err := e.rec.FeedByte(b); err != nil {
			e.rec.RevertTo(snap)
			return &RejectedTokenError{Token: id, Cause: err}
		}
	}
	tracer().Debugf("constrain[%s]: accepted token %d (%q)", e.id, id, e.v.DisplayString(id))
	return nil
}

// TryAcceptNewToken behaves like AcceptToken but reports failure as a
// plain bool instead of an error, for callers sampling tokens in a loop
// until one sticks.
func (e *Engine) TryAcceptNewToken(id vocab.TokenID) (bool, error) {
	if err := e.AcceptToken(id); err != nil {
		if _, ok := err.(*RejectedTokenError); ok {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ComputeAllowedTokenIDs returns the set of token ids that AcceptToken
// would currently accept, using the probe cache when enabled.
func (e *Engine) ComputeAllowedTokenIDs() (*probe.BitSet, error) {
	if e.done {
		return probe.NewBitSet(e.v.Size()), nil
	}
	if e.cache != nil {
		return e.cache.ComputeAllowedTokenIDsCached(e.rec, e.v)
	}
	return probe.ComputeAllowedTokenIDs(e.rec, e.v)
}

// AllowedTokenIDs is a convenience wrapper around
// ComputeAllowedTokenIDs that returns a plain, sorted slice.
func (e *Engine) AllowedTokenIDs() ([]vocab.TokenID, error) {
	bs, err := e.ComputeAllowedTokenIDs()
	if err != nil {
		return nil, err
	}
	var ids []vocab.TokenID
	bs.Each(func(id uint32) { ids = append(ids, vocab.TokenID(id)) })
	return ids, nil
}

// MaskLogits sets logits[i] to negative infinity for every token id not
// present in allowed, leaving allowed ids untouched.
func (e *Engine) MaskLogits(logits []float32, allowed *probe.BitSet) error {
	for i := range logits {
		if !allowed.Test(uint32(i)) {
			logits[i] = float32(math.Inf(-1))
		}
	}
	return nil
}

// UpdateLogits recomputes the allowed-token set and masks logits in one
// call, for callers that don't need the intermediate BitSet.
func (e *Engine) UpdateLogits(logits []float32) error {
	allowed, err := e.ComputeAllowedTokenIDs()
	if err != nil {
		return err
	}
	return e.MaskLogits(logits, allowed)
}
