package fsa

import "github.com/npillmayer/schuko/tracing"

// tracer traces with key 'gorgo.constrain.fsa'.
func tracer() tracing.Trace {
	return tracing.Select("gorgo.constrain.fsa")
}

// State is a raw state identifier as produced by a DFA backend. It is
// opaque to everything outside of the backend and the Adapter that wraps
// it; the Earley recognizer never sees a State directly, only the
// compressed uint32 an Adapter hands back.
type State uint32

// DeadState is a reserved state id for a state from which no further
// match is possible, regardless of input. Neither constrain/dfabuild
// backend returns it: the regex DFA keeps its own dead state at index 0,
// and the except! automaton has no dead state.
const DeadState State = 0xFFFFFFFF

// Class classifies a DFA state for the purposes of §4.2/§4.3: whether the
// automaton has already matched (Accept), can never match (Reject), or
// might still match given more bytes (InProgress).
type Class int

const (
	ClassReject Class = iota
	ClassAccept
	ClassInProgress
)

func (c Class) String() string {
	switch c {
	case ClassAccept:
		return "Accept"
	case ClassReject:
		return "Reject"
	default:
		return "InProgress"
	}
}

// DFA is the interface a backend (regex compiler, except! compiler) must
// provide. Construction of the automaton itself — turning a regex literal
// or an except! body into one of these — is out of scope for this package;
// see constrain/dfabuild for a concrete builder. DFA implementations must
// guarantee Start never fails; grammar loading verifies this once at
// construction time (grammar.Builder's Regex and Except) so the recognizer's hot loop
// never has to handle a missing start state.
type DFA interface {
	// Start returns the initial state. anchored selects between a match
	// that must begin at the first byte fed (Regex, §4.2) and one that
	// may begin anywhere in the fed byte stream (Except, §4.2).
	Start(anchored bool) State
	// Next transitions from s on input byte b.
	Next(s State, b byte) State
	// Classify reports whether s is an accepting, rejecting, or
	// in-progress state.
	Classify(s State) Class
	// FirstBytes returns the precomputed set of bytes that could possibly
	// be consumed as the very first byte of a match from the start state.
	// Used to build grammar.Store's per-symbol first-byte summaries.
	FirstBytes(anchored bool) ByteSet
}

// Adapter gives a DFA a uniform, compressed-state-word view. The Earley
// item's sub-state word is populated from CompressedStart and
// CompressedNext, never from a raw fsa.State.
//
// Compression here is a plain right-shift by Stride bits; backends are
// expected to keep Stride low-order bits of every raw state id unused
// (reserved, always zero) so the shift is lossless. A backend with a dense
// state space (no reserved bits) sets Stride to 0, making Adapter a
// pass-through.
type Adapter struct {
	DFA    DFA
	Stride uint
}

// NewAdapter wraps dfa with the given stride. A stride of 0 means the raw
// state ids already fit the sub-state word without compression.
func NewAdapter(dfa DFA, stride uint) *Adapter {
	return &Adapter{DFA: dfa, Stride: stride}
}

// CompressedStart returns the compressed start state.
func (a *Adapter) CompressedStart(anchored bool) uint32 {
	return a.compress(a.DFA.Start(anchored))
}

// CompressedNext transitions from a compressed state on byte b, returning
// the new compressed state.
func (a *Adapter) CompressedNext(compressed uint32, b byte) uint32 {
	raw := a.expand(compressed)
	next := a.DFA.Next(raw, b)
	return a.compress(next)
}

// Classify classifies a compressed state.
func (a *Adapter) Classify(compressed uint32) Class {
	return a.DFA.Classify(a.expand(compressed))
}

// FirstBytes delegates to the backend.
func (a *Adapter) FirstBytes(anchored bool) ByteSet {
	return a.DFA.FirstBytes(anchored)
}

func (a *Adapter) compress(s State) uint32 {
	return uint32(s) >> a.Stride
}

func (a *Adapter) expand(c uint32) State {
	return State(c) << a.Stride
}
