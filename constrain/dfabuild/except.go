package dfabuild

import "github.com/npillmayer/gorgo/constrain/fsa"

// exceptDFA implements an unanchored substring search for a fixed
// terminator body via the classic KMP failure-function automaton: state
// i means "the longest proper suffix of the bytes consumed so far that is
// also a prefix of body has length i". Feeding any byte always has a
// defined transition (the automaton restarts on the longest matching
// suffix rather than ever declaring failure outright), so an except!
// body's Reject classification is unreachable by construction.
type exceptDFA struct {
	body  []byte
	fail  []int // KMP failure function, len(body)+1
	trans [][256]int32
}

var _ fsa.DFA = (*exceptDFA)(nil)

// CompileExcept builds the automaton for an except! body (the terminator
// a bounded-repetition lookahead is forbidden from containing).
func CompileExcept(body []byte) (*fsa.Adapter, error) {
	d := &exceptDFA{body: append([]byte(nil), body...)}
	d.buildFailure()
	d.buildTransitions()
	return fsa.NewAdapter(d, 0), nil
}

func (d *exceptDFA) buildFailure() {
	n := len(d.body)
	d.fail = make([]int, n+1)
	d.fail[0] = 0
	if n == 0 {
		return
	}
	d.fail[1] = 0
	k := 0
	for i := 1; i < n; i++ {
		for k > 0 && d.body[i] != d.body[k] {
			k = d.fail[k]
		}
		if d.body[i] == d.body[k] {
			k++
		}
		d.fail[i+1] = k
	}
}

func (d *exceptDFA) buildTransitions() {
	n := len(d.body)
	d.trans = make([][256]int32, n+1)
	for state := 0; state <= n; state++ {
		for b := 0; b < 256; b++ {
			d.trans[state][b] = int32(d.step(state, byte(b)))
		}
	}
}

// step computes the next KMP state from state on byte b, without relying
// on the (not yet built) transition table — used only while building it.
func (d *exceptDFA) step(state int, b byte) int {
	for state > 0 && (state >= len(d.body) || d.body[state] != b) {
		state = d.fail[state]
	}
	if state < len(d.body) && d.body[state] == b {
		state++
	}
	return state
}

// Start implements fsa.DFA. except! always matches unanchored
// (anchored == false); the match-anywhere property is built into the
// transition function itself, so the start state is always 0 regardless
// of the flag.
func (d *exceptDFA) Start(anchored bool) fsa.State {
	return fsa.State(0)
}

// Next implements fsa.DFA.
func (d *exceptDFA) Next(s fsa.State, b byte) fsa.State {
	if int(s) >= len(d.trans) {
		return fsa.State(len(d.body))
	}
	return fsa.State(d.trans[s][b])
}

// Classify implements fsa.DFA. The body has just matched, a full
// occurrence of the terminator, as soon as state reaches len(body);
// every other state is still (unboundedly) in progress. A true Reject
// never occurs.
func (d *exceptDFA) Classify(s fsa.State) fsa.Class {
	if int(s) == len(d.body) {
		return fsa.ClassAccept
	}
	return fsa.ClassInProgress
}

// FirstBytes implements fsa.DFA. Every byte keeps an unanchored
// terminator search at least in progress (it either advances the match
// or falls back to a shorter matching suffix), so the first-byte summary
// is simply "any byte".
func (d *exceptDFA) FirstBytes(anchored bool) fsa.ByteSet {
	var s fsa.ByteSet
	s.AddRange(0, 255)
	return s
}
