package store

import (
	"slices"
	"sync"

	"github.com/hpungsan/promptlib/internal/prompt"
)

// metadataCache mirrors every metadata record in memory: a slice kept in
// listing order plus an index by ID. The lock covers only the in-memory
// mutation, never the paired durable write.
type metadataCache struct {
	mu       sync.RWMutex
	metadata []prompt.Metadata
	byID     map[prompt.ID]prompt.Metadata
}

func newMetadataCache(records []prompt.Metadata) *metadataCache {
	c := &metadataCache{
		metadata: make([]prompt.Metadata, 0, len(records)),
		byID:     make(map[prompt.ID]prompt.Metadata, len(records)),
	}
	for _, m := range records {
		if _, dup := c.byID[m.ID]; dup {
			continue
		}
		c.metadata = append(c.metadata, m)
		c.byID[m.ID] = m
	}
	c.sort()
	return c
}

func (c *metadataCache) insert(m prompt.Metadata) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.insertLocked(m)
}

// insertLocked replaces or appends m and re-sorts. Caller holds c.mu.
func (c *metadataCache) insertLocked(m prompt.Metadata) {
	c.byID[m.ID] = m
	if i := slices.IndexFunc(c.metadata, func(existing prompt.Metadata) bool { return existing.ID == m.ID }); i >= 0 {
		c.metadata[i] = m
	} else {
		c.metadata = append(c.metadata, m)
	}
	c.sort()
}

func (c *metadataCache) remove(id prompt.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metadata = slices.DeleteFunc(c.metadata, func(m prompt.Metadata) bool { return m.ID == id })
	delete(c.byID, id)
}

func (c *metadataCache) sort() {
	slices.SortFunc(c.metadata, prompt.Compare)
}

func (c *metadataCache) get(id prompt.ID) (prompt.Metadata, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.byID[id]
	return m, ok
}

func (c *metadataCache) list() []prompt.Metadata {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.metadata)
}

func (c *metadataCache) defaults() []prompt.Metadata {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var result []prompt.Metadata
	for _, m := range c.metadata {
		if m.Default {
			result = append(result, m)
		}
	}
	return result
}

func (c *metadataCache) idForTitle(title string) (prompt.ID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, m := range c.metadata {
		if m.Title != nil && *m.Title == title {
			return m.ID, true
		}
	}
	return prompt.ID{}, false
}

func (c *metadataCache) first() (prompt.Metadata, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.metadata) == 0 {
		return prompt.Metadata{}, false
	}
	return c.metadata[0], true
}

func (c *metadataCache) count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.metadata)
}
