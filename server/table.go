package server

import (
	"sync"
	"time"

	"github.com/moontrade/prng/generator"
	"github.com/tidwall/match"
	"github.com/tidwall/tinybtree"
)

// entry is one hosted generator. Every hosted generator is shared: its
// switch is killed when the key is deleted or the server shuts down, which
// stops fills that are still running on other connections.
type entry struct {
	mu      sync.Mutex
	g       generator.Generator
	live    *generator.Switch
	created time.Time
}

func newEntry(build func(opts ...generator.Option) (generator.Generator, error)) (*entry, error) {
	live := generator.NewSwitch()
	g, err := build(generator.Shared(live))
	if err != nil {
		return nil, err
	}
	return &entry{g: g, live: live, created: time.Now()}, nil
}

// retire stops in-flight fills, then closes the generator once the last
// one has returned.
func (e *entry) retire() {
	e.live.Kill()
	e.mu.Lock()
	e.g.Close()
	e.mu.Unlock()
}

// table holds the hosted generators ordered by key.
type table struct {
	mu     sync.RWMutex
	tr     tinybtree.BTree
	max    int
	closed bool
}

func (t *table) get(key string) (*entry, error) {
	t.mu.RLock()
	v, ok := t.tr.Get(key)
	t.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return v.(*entry), nil
}

func (t *table) insert(key string, e *entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	if _, ok := t.tr.Get(key); ok {
		return ErrExists
	}
	if t.max > 0 && t.tr.Len() >= t.max {
		return ErrFull
	}
	t.tr.Set(key, e)
	return nil
}

func (t *table) remove(key string) (*entry, bool) {
	t.mu.Lock()
	v, ok := t.tr.Delete(key)
	t.mu.Unlock()
	if !ok {
		return nil, false
	}
	return v.(*entry), true
}

func (t *table) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tr.Len()
}

// keys returns the keys matching pattern in order. An empty pattern
// matches everything.
func (t *table) keys(pattern string) []string {
	if pattern == "" {
		pattern = "*"
	}
	var keys []string
	t.mu.RLock()
	t.tr.Scan(func(key string, _ interface{}) bool {
		if match.Match(key, pattern) {
			keys = append(keys, key)
		}
		return true
	})
	t.mu.RUnlock()
	return keys
}

// drain empties the table for good and returns what it held.
func (t *table) drain() []*entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	var all []*entry
	t.tr.Scan(func(_ string, v interface{}) bool {
		all = append(all, v.(*entry))
		return true
	})
	t.tr = tinybtree.BTree{}
	return all
}
