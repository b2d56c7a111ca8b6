package earley

import "github.com/npillmayer/gorgo/constrain/grammar"

// postdotKey identifies a postdot entry: the nonterminal a dotted item is
// waiting to see completed, and the column the waiting item lives in.
type postdotKey struct {
	nt  grammar.NonterminalID
	col int
}

// postdotEntry collects every item in a column that is waiting on nt.
// Leo eligibility is decided from the length of waiting by deriveLeoItem
// (leo.go), and the shortcuts themselves are memoized in leoIndex, not
// here.
type postdotEntry struct {
	waiting      []Item
	sinceLastAdd int // not read or updated anywhere
}

// postdotIndex maps (nonterminal, column) to the items currently waiting
// on that nonterminal's completion, the index Predict/Complete consult
// instead of scanning whole columns (keeps both phases proportional to
// the work actually done rather than to column size).
type postdotIndex struct {
	entries map[postdotKey]*postdotEntry
}

func newPostdotIndex() *postdotIndex {
	return &postdotIndex{entries: make(map[postdotKey]*postdotEntry)}
}

// register records that it (dotted just before nt) is now waiting in
// column col for nt to complete.
func (p *postdotIndex) register(nt grammar.NonterminalID, col int, it Item) {
	key := postdotKey{nt: nt, col: col}
	e, ok := p.entries[key]
	if !ok {
		e = &postdotEntry{}
		p.entries[key] = e
	}
	e.waiting = append(e.waiting, it)
}

// lookup returns the items waiting on nt in column col.
func (p *postdotIndex) lookup(nt grammar.NonterminalID, col int) []Item {
	if e, ok := p.entries[postdotKey{nt: nt, col: col}]; ok {
		return e.waiting
	}
	return nil
}

// truncate drops every postdot entry belonging to a column at or beyond n,
// the postdot-index half of the chart's rollback (§5's revert_to).
func (p *postdotIndex) truncate(n int) {
	for k := range p.entries {
		if k.col >= n {
			delete(p.entries, k)
		}
	}
}
