package earley

import "github.com/npillmayer/gorgo/constrain/grammar"

// leoKey identifies a Leo shortcut: "completing nt, having started at
// origin column col, can jump straight to this item" rather than walking
// a chain of intermediate completions one column at a time.
type leoKey struct {
	col int
	nt  grammar.NonterminalID
}

// leoIndex memoizes Leo's right-recursion shortcut: a grammar like
// `A ::= "x" A | "x"` would otherwise make each completion
// of the inner A re-walk every outer A, turning a single input repeated
// n times into O(n) items per step. Leo collapses that chain to O(1) by
// caching, per (origin column, nonterminal), the single topmost item a
// completion should advance directly to.
//
// The memo is cleared wholesale only by reset. A Leo shortcut recorded
// for (col, nt) only ever refers to items at or before col, so rolling
// the chart back to some earlier length doesn't invalidate entries for
// columns that still exist; truncate drops just the entries for columns
// at or beyond the new length.
type leoIndex struct {
	memo map[leoKey]Item
}

func newLeoIndex() *leoIndex {
	return &leoIndex{memo: make(map[leoKey]Item)}
}

func (l *leoIndex) get(col int, nt grammar.NonterminalID) (Item, bool) {
	it, ok := l.memo[leoKey{col: col, nt: nt}]
	return it, ok
}

func (l *leoIndex) set(col int, nt grammar.NonterminalID, it Item) {
	l.memo[leoKey{col: col, nt: nt}] = it
}

func (l *leoIndex) truncate(n int) {
	for k := range l.memo {
		if k.col >= n {
			delete(l.memo, k)
		}
	}
}

// deriveLeoItem decides whether completing nt at origin col is Leo
// eligible, and if so returns the topmost item a completion should
// advance to instead of replaying the whole waiting chain.
//
// nt is Leo-eligible at (col, nt) when exactly one item is waiting on it
// (register's postdot entry has length 1) and advancing that waiter
// would itself complete its own production — i.e. nt is the last symbol
// on the right-hand side, the shape right recursion produces. When the
// waiter's own parent nonterminal is itself Leo-eligible at its origin,
// the chain is collapsed further by following the memo transitively
// instead of stopping one level up.
func deriveLeoItem(g *grammar.Store, pd *postdotIndex, leo *leoIndex, col int, nt grammar.NonterminalID) (Item, bool) {
	waiting := pd.lookup(nt, col)
	if len(waiting) != 1 {
		return Item{}, false
	}
	w := waiting[0]
	advanced := w.advance()
	if !advanced.completed(g) {
		return Item{}, false
	}
	advanced = primeItem(g, advanced)
	if cached, ok := leo.get(int(w.Origin), w.NT); ok {
		leo.set(col, nt, cached)
		return cached, true
	}
	leo.set(col, nt, advanced)
	return advanced, true
}
