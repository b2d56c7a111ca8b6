package dfabuild

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/npillmayer/gorgo/constrain/fsa"
)

// regexState is one DFA state produced by subset construction: the sorted
// set of Thompson program counters it represents, whether opMatch is
// reachable from it (the state is accepting), and its 256-way transition
// table.
type regexState struct {
	pcs     []int
	matched bool
	trans   [256]int32
}

// regexDFA is a fully materialized (non-lazy) DFA for one compiled regex,
// implementing fsa.DFA. Subset construction is eager because the
// grammars this system constrains carry small regex literals; a lazy,
// cached construction (as coregx/coregex's dfa/lazy package does for
// general-purpose regex matching) is unnecessary engineering here.
type regexDFA struct {
	states []regexState
	dead   int32 // index of the dead state
	start  int32 // index of the start state
}

var _ fsa.DFA = (*regexDFA)(nil)

// CompileRegex compiles an EBNF `#"…"` regex literal body into a DFA. The
// match semantics are prefix-oriented: a state is Accept as soon as the
// regex's language contains the bytes consumed so far, even if more bytes
// could still extend the match — the caller, constrain/earley's Scan
// phase, is responsible for producing both a completed item and a live
// continuation on Accept.
func CompileRegex(pattern string) (*fsa.Adapter, error) {
	ast, err := parseRegex(pattern)
	if err != nil {
		return nil, fmt.Errorf("dfabuild: compile regex %q: %w", pattern, err)
	}
	prog := compile(ast)
	d := subsetConstruct(prog)
	return fsa.NewAdapter(d, 0), nil
}

// subsetConstruct performs eager subset construction over a Thompson
// program, materializing every reachable DFA state.
func subsetConstruct(prog *program) *regexDFA {
	d := &regexDFA{}
	seen := make(map[string]int32)

	startPCs, startMatched := closure(prog, []int{prog.start})
	dead := d.addState(nil, false)
	d.dead = dead
	seen[stateKey(nil, false)] = dead

	start := d.internState(seen, startPCs, startMatched)
	d.start = start

	// BFS over reachable states, filling in the 256-way transition table.
	queue := []int32{dead, start}
	visited := map[int32]bool{}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		// Index d.states afresh on every write: internState may append to
		// it and move the backing array.
		pcs := d.states[id].pcs
		for b := 0; b < 256; b++ {
			nextPCs := collectOut(prog, pcs, byte(b))
			closed, matched := closure(prog, nextPCs)
			nid := d.internState(seen, closed, matched)
			d.states[id].trans[b] = nid
			if !visited[nid] {
				queue = append(queue, nid)
			}
		}
	}
	return d
}

func (d *regexDFA) addState(pcs []int, matched bool) int32 {
	var trans [256]int32
	id := int32(len(d.states))
	d.states = append(d.states, regexState{pcs: pcs, matched: matched, trans: trans})
	return id
}

func (d *regexDFA) internState(seen map[string]int32, pcs []int, matched bool) int32 {
	key := stateKey(pcs, matched)
	if id, ok := seen[key]; ok {
		return id
	}
	id := d.addState(pcs, matched)
	seen[key] = id
	return id
}

func stateKey(pcs []int, matched bool) string {
	var b strings.Builder
	if matched {
		b.WriteByte('1')
	} else {
		b.WriteByte('0')
	}
	for _, pc := range pcs {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(pc))
	}
	return b.String()
}

// closure follows opJmp/opSplit edges (epsilon transitions) from the
// given opChar program counters, returning the deduplicated, sorted set
// of opChar instructions reachable and whether opMatch is reachable.
func closure(prog *program, pcs []int) ([]int, bool) {
	visited := make(map[int]bool)
	var result []int
	matched := false
	var walk func(pc int)
	walk = func(pc int) {
		if visited[pc] {
			return
		}
		visited[pc] = true
		in := prog.insts[pc]
		switch in.op {
		case opChar:
			result = append(result, pc)
		case opMatch:
			matched = true
		case opJmp:
			walk(in.out)
		case opSplit:
			walk(in.out)
			walk(in.out2)
		}
	}
	for _, pc := range pcs {
		walk(pc)
	}
	sort.Ints(result)
	return result, matched
}

// collectOut returns, for every opChar instruction in pcs whose byte set
// contains b, its `out` target (to be epsilon-closed by the caller).
func collectOut(prog *program, pcs []int, b byte) []int {
	var out []int
	for _, pc := range pcs {
		in := prog.insts[pc]
		if in.bytes.Contains(b) {
			out = append(out, in.out)
		}
	}
	return out
}

// Start implements fsa.DFA. Regex literals only ever match anchored; the
// parameter is accepted for interface compliance.
func (d *regexDFA) Start(anchored bool) fsa.State {
	return fsa.State(d.start)
}

// Next implements fsa.DFA.
func (d *regexDFA) Next(s fsa.State, b byte) fsa.State {
	if int(s) >= len(d.states) {
		return fsa.State(d.dead)
	}
	return fsa.State(d.states[s].trans[b])
}

// Classify implements fsa.DFA.
func (d *regexDFA) Classify(s fsa.State) fsa.Class {
	if int(s) >= len(d.states) || int32(s) == d.dead {
		return fsa.ClassReject
	}
	st := d.states[s]
	if st.matched {
		return fsa.ClassAccept
	}
	if len(st.pcs) == 0 {
		return fsa.ClassReject
	}
	return fsa.ClassInProgress
}

// FirstBytes implements fsa.DFA.
func (d *regexDFA) FirstBytes(anchored bool) fsa.ByteSet {
	var set fsa.ByteSet
	start := d.Start(anchored)
	if int(start) >= len(d.states) {
		return set
	}
	for b := 0; b < 256; b++ {
		if d.states[start].trans[b] != d.dead {
			set.Add(byte(b))
		}
	}
	return set
}
