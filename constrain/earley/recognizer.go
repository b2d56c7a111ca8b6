package earley

import (
	"github.com/npillmayer/gorgo/constrain/fsa"
	"github.com/npillmayer/gorgo/constrain/grammar"
)

// Recognizer is an incremental Earley recognizer over a Lowered Normal
// Form grammar: bytes are fed one at a time via FeedByte, and the chart
// grows by exactly one column per byte. Predict and Complete are driven
// to a joint fixed point before a column is considered closed (a
// completed nullable production can itself unblock a waiting item, which
// in turn may need predicting again) — a single combined worklist per
// column rather than three separate phases run to exhaustion in turn.
//
// A Recognizer is not safe for concurrent use.
type Recognizer struct {
	g        *grammar.Store
	start    grammar.NonterminalID
	chart    *chart
	pd       *postdotIndex
	leo      *leoIndex
	finished bool
	offset   int
}

// New creates a Recognizer over g, already primed with the start
// symbol's productions in column 0.
func New(g *grammar.Store) *Recognizer {
	return NewWithStart(g, g.Start())
}

// NewWithStart creates a Recognizer over g rooted at start instead of
// g.Start(), letting one compiled grammar serve as the constraint for
// several related decodes (e.g. a JSON grammar reused once for a whole
// document and once for just an "object" value) without recompiling it.
// Look start up via g.StartNonterminal first.
func NewWithStart(g *grammar.Store, start grammar.NonterminalID) *Recognizer {
	r := &Recognizer{g: g, start: start}
	r.Reset()
	return r
}

// Reset discards all fed input and returns the recognizer to its initial
// state: one column, seeded with every production of the start symbol.
func (r *Recognizer) Reset() {
	r.chart = &chart{}
	r.pd = newPostdotIndex()
	r.leo = newLeoIndex()
	r.finished = false
	r.offset = 0
	col := r.chart.newColumnAppend()
	for p := range r.g.Productions(r.start) {
		it := primeItem(r.g, Item{NT: r.start, Dot: 0, Prod: uint32(p), Origin: 0})
		r.chart.at(col).add(it)
	}
	r.closeColumn(col)
	r.updateFinished(col)
}

// SnapshotLen returns the chart length (number of columns), the value a
// caller should hold onto and later pass to RevertTo to undo everything
// fed after this point.
func (r *Recognizer) SnapshotLen() int { return r.chart.length() }

// RevertTo truncates the chart, postdot index and Leo memo back to the
// state they were in when the chart had length n, discarding every byte
// fed since. n must have been obtained from a prior SnapshotLen call on
// this recognizer.
func (r *Recognizer) RevertTo(n int) {
	r.chart.truncate(n)
	r.pd.truncate(n)
	r.leo.truncate(n)
	r.offset = n - 1
	if r.offset < 0 {
		r.offset = 0
	}
	r.updateFinished(n - 1)
}

// Commit is a no-op: FeedByte already durably commits each byte as it is
// consumed. It exists so a caller that models its own snapshot/commit/
// revert triple can close out a successful span without calling
// RevertTo.
func (r *Recognizer) Commit() {}

// Offset returns the number of bytes fed so far.
func (r *Recognizer) Offset() int { return r.offset }

// IsFinished reports whether the recognizer has reached a column with no
// item left that could still consume another byte.
func (r *Recognizer) IsFinished() bool { return r.finished }

// CurrentItems returns a copy of the current column's items, in the
// insertion order Predict/Complete produced them. Intended for a cache
// layer (constrain/probe) to fingerprint the recognizer's state; the
// chart itself stays unexported.
func (r *Recognizer) CurrentItems() []Item {
	col := r.chart.last()
	if col == nil {
		return nil
	}
	return append([]Item(nil), col.items...)
}

// Accepting reports whether the current column contains a completed item
// for the start symbol that began at column 0 — i.e. the bytes consumed
// so far form a complete derivation of the grammar.
func (r *Recognizer) Accepting() bool {
	col := r.chart.last()
	if col == nil {
		return false
	}
	for _, it := range col.items {
		if it.NT == r.start && it.Origin == 0 && it.completed(r.g) {
			return true
		}
	}
	return false
}

// AllowedFirstBytes returns the set of bytes that FeedByte would accept
// right now, computed by brute-force probing every byte against every
// terminal-class item's DFA in the current column. Brute force (try all
// 256 values, keep the ones that don't land in Reject) needs no special
// per-state support from a DFA backend, unlike FirstBytes which only
// answers for the start state.
func (r *Recognizer) AllowedFirstBytes() fsa.ByteSet {
	var out fsa.ByteSet
	col := r.chart.last()
	if col == nil {
		return out
	}
	for _, it := range col.items {
		out.Union(allowedBytesForItem(r.g, it))
	}
	return out
}

// FeedByte consumes one byte, growing the chart by one column. On
// rejection the chart is left exactly as it was before the call (the
// speculative new column is discarded), so a caller can keep probing
// other bytes from the same state without a separate revert.
func (r *Recognizer) FeedByte(b byte) error {
	if r.finished {
		return &FinishedError{ByteOffset: r.offset}
	}
	curIdx := r.chart.length() - 1
	cur := r.chart.at(curIdx)
	nextIdx := r.chart.newColumnAppend()
	next := r.chart.at(nextIdx)
	any := false
	for _, it := range cur.items {
		node, ok := it.nextNode(r.g)
		if !ok || node.Kind == grammar.NodeNonterminal {
			continue
		}
		if r.scanItem(next, it, node, b) {
			any = true
		}
	}
	if !any {
		r.chart.truncate(curIdx + 1)
		tracer().Debugf("earley: rejected byte %q at offset %d", b, r.offset)
		return &RejectedError{ByteOffset: r.offset, Byte: b}
	}
	r.offset++
	r.closeColumn(nextIdx)
	r.updateFinished(nextIdx)
	return nil
}

// scanItem advances a single terminal-class item on byte b, adding
// whatever continuation(s) survive to next. Returns true if at least one
// item was added.
func (r *Recognizer) scanItem(next *column, it Item, node grammar.Node, b byte) bool {
	switch node.Kind {
	case grammar.NodeTerminal:
		lit := r.g.Terminal(node.Terminal)
		if int(it.State) >= len(lit) || lit[it.State] != b {
			return false
		}
		ns := it.State + 1
		if int(ns) == len(lit) {
			return next.add(primeItem(r.g, it.advance()))
		}
		return next.add(it.withState(ns))
	case grammar.NodeRegex:
		ad := r.g.Regex(node.Regex)
		ns := ad.CompressedNext(it.State, b)
		class := ad.Classify(ns)
		if class == fsa.ClassReject {
			return false
		}
		added := false
		if class == fsa.ClassAccept {
			// Dual continuation: the match just completed, but the
			// underlying DFA may still accept more bytes (e.g. "a+"),
			// so both the completion and the live continuation survive.
			if next.add(primeItem(r.g, it.advance())) {
				added = true
			}
		}
		if next.add(it.withState(ns)) {
			added = true
		}
		return added
	case grammar.NodeExcept:
		ad, _ := r.g.Except(node.Except)
		ns := ad.CompressedNext(it.State, b)
		class := ad.Classify(ns)
		if class == fsa.ClassAccept {
			// The forbidden body just matched: this continuation is
			// invalid and is dropped outright, not handed off to
			// whatever follows the except! node.
			return false
		}
		// InProgress: the except! node can end here, handing off to the
		// following node (the byte just scanned makes the prefix
		// non-empty), and/or keep consuming further bytes in place,
		// budget permitting.
		reps := it.Reps
		exhausted := false
		if reps != grammar.InvalidRepetition {
			reps--
			if reps == 0 {
				exhausted = true
			}
		}
		added := false
		if next.add(primeItem(r.g, it.advance())) {
			added = true
		}
		if !exhausted {
			if next.add(it.withState(ns).withReps(reps)) {
				added = true
			}
		}
		return added
	default:
		return false
	}
}

// closeColumn drives Predict and Complete to a joint fixed point over
// column col. Both phases append to the same growing slice that the
// range loop below also walks; an item produced by Complete may need
// Predicting, and a nullable production discovered by Predict may
// immediately need Completing, so a single combined worklist reaches the
// fixed point without separating the two into alternating passes.
func (r *Recognizer) closeColumn(col int) {
	c := r.chart.at(col)
	predicted := make(map[grammar.NonterminalID]bool)
	for i := 0; i < len(c.items); i++ {
		it := c.items[i]
		node, ok := it.nextNode(r.g)
		if !ok {
			r.completeItem(col, it)
			continue
		}
		if node.Kind == grammar.NodeNonterminal {
			r.predictItem(col, c, it, node.Nonterminal, predicted)
		}
	}
}

// predictItem registers it as waiting on nt in column col (so a later
// Complete can find it) and, the first time nt is predicted in this
// column, adds a fresh dot-zero item for each of nt's productions.
func (r *Recognizer) predictItem(col int, c *column, it Item, nt grammar.NonterminalID, predicted map[grammar.NonterminalID]bool) {
	r.pd.register(nt, col, it)
	if predicted[nt] {
		// nt may already have completed in this column (a nullable
		// derivation handled before it was registered); that completion
		// is not visited again, so advance it here.
		for _, done := range c.items {
			if done.NT == nt && int(done.Origin) == col && done.completed(r.g) {
				c.add(primeItem(r.g, it.advance()))
				break
			}
		}
		return
	}
	predicted[nt] = true
	for p := range r.g.Productions(nt) {
		fresh := primeItem(r.g, Item{NT: nt, Dot: 0, Prod: uint32(p), Origin: uint32(col)})
		c.add(fresh)
	}
}

// completeItem advances every item waiting on it.NT at it.Origin, using
// a Leo shortcut when the waiting chain is eligible for one.
func (r *Recognizer) completeItem(col int, it Item) {
	if leoItem, ok := deriveLeoItem(r.g, r.pd, r.leo, int(it.Origin), it.NT); ok {
		r.chart.at(col).add(leoItem)
		return
	}
	for _, w := range r.pd.lookup(it.NT, int(it.Origin)) {
		r.chart.at(col).add(primeItem(r.g, w.advance()))
	}
}

// primeItem fills in the initial sub-state word for an item whose next
// node is a Regex or Except automaton (its start state, rather than the
// zero value advance() resets State to). Terminal nodes need no priming:
// a sub-state of 0 already means "zero bytes of the literal matched".
func primeItem(g *grammar.Store, it Item) Item {
	node, ok := it.nextNode(g)
	if !ok {
		return it
	}
	switch node.Kind {
	case grammar.NodeRegex:
		ad := g.Regex(node.Regex)
		return it.withState(ad.CompressedStart(true))
	case grammar.NodeExcept:
		ad, _ := g.Except(node.Except)
		return it.withState(ad.CompressedStart(false)).withReps(node.Reps)
	default:
		return it
	}
}

// allowedBytesForItem brute-force probes every byte value against a
// single item's next node, used by AllowedFirstBytes.
func allowedBytesForItem(g *grammar.Store, it Item) fsa.ByteSet {
	var set fsa.ByteSet
	node, ok := it.nextNode(g)
	if !ok || node.Kind == grammar.NodeNonterminal {
		return set
	}
	if node.Kind == grammar.NodeTerminal {
		lit := g.Terminal(node.Terminal)
		if int(it.State) < len(lit) {
			set.Add(lit[it.State])
		}
		return set
	}
	var ad *fsa.Adapter
	if node.Kind == grammar.NodeRegex {
		ad = g.Regex(node.Regex)
	} else {
		ad, _ = g.Except(node.Except)
	}
	for b := 0; b < 256; b++ {
		if ad.Classify(ad.CompressedNext(it.State, byte(b))) != fsa.ClassReject {
			set.Add(byte(b))
		}
	}
	return set
}

// updateFinished recomputes the finished flag for the column at idx: the
// recognizer is finished when nothing left in that column can still
// consume another byte.
func (r *Recognizer) updateFinished(idx int) {
	c := r.chart.at(idx)
	if c == nil {
		r.finished = true
		return
	}
	for _, it := range c.items {
		node, ok := it.nextNode(r.g)
		if ok && node.Kind != grammar.NodeNonterminal {
			r.finished = false
			return
		}
	}
	r.finished = true
}
