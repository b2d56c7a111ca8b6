package probe

import (
	"sync"

	"github.com/cnf/structhash"
	"github.com/npillmayer/gorgo/constrain/earley"
	"github.com/npillmayer/gorgo/constrain/vocab"
)

// Cache memoizes ComputeAllowedTokenIDs by the content of the
// recognizer's current chart column. Two distinct byte histories that
// happen to leave the chart in the same set of items produce the same
// allowed-token set, a common occurrence once the same suffix of a
// grammar has been reached by more than one path (the compaction spec
// calls out as worth caching rather than recomputing).
//
// structhash.Hash gives us a stable digest of the exported Item slice
// without hand-writing a canonical serialization — Item's fields are all
// small value types, so version 1 of the hash is sufficiently stable for
// a process-lifetime cache.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*BitSet
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*BitSet)}
}

// ComputeAllowedTokenIDsCached behaves like ComputeAllowedTokenIDs but
// consults c first, and stores the result for future calls that reach an
// identically-shaped chart column.
func (c *Cache) ComputeAllowedTokenIDsCached(rec *earley.Recognizer, v *vocab.Vocabulary) (*BitSet, error) {
	key, err := fingerprint(rec)
	if err != nil {
		return ComputeAllowedTokenIDs(rec, v)
	}
	c.mu.Lock()
	if hit, ok := c.entries[key]; ok {
		c.mu.Unlock()
		tracer().Debugf("probe: cache hit for chart fingerprint %s", key)
		return hit, nil
	}
	c.mu.Unlock()

	allowed, err := ComputeAllowedTokenIDs(rec, v)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.entries[key] = allowed
	c.mu.Unlock()
	return allowed, nil
}

func fingerprint(rec *earley.Recognizer) (string, error) {
	return structhash.Hash(rec.CurrentItems(), 1)
}
