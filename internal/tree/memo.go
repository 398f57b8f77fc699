package tree

import (
	"github.com/dgraph-io/ristretto"
)

// memo is a small bounded cache backing the lazy tree's per-id memo tables
// (name, key, deleted, linked_by). Using ristretto here
// rather than a bare map gives the cache an eviction policy if a process
// keeps many accounts' trees warm at once; invalidation is still wholesale
// (Clear) because the engine is single-writer, so nothing needs per-key
// eviction on mutation (spec §4.2, §9).
type memo struct {
	c *ristretto.Cache
}

func newMemo() *memo {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 100_000,
		MaxCost:     10_000_000,
		BufferItems: 64,
	})
	if err != nil {
		// ristretto.NewCache only fails on invalid config; our config is
		// constant and known-valid, so this would indicate a programming
		// error, not a runtime condition callers can recover from.
		panic("tree: invalid memo cache config: " + err.Error())
	}
	return &memo{c: c}
}

func (m *memo) get(key string) (any, bool) {
	return m.c.Get(key)
}

func (m *memo) set(key string, value any) {
	m.c.Set(key, value, 1)
	m.c.Wait()
}

func (m *memo) clear() {
	m.c.Clear()
}
