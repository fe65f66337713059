package avrokit

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// ParseCache memoizes parsed schemas by their source text. Parsed trees are
// immutable, so a cache may be shared across goroutines; the underlying LRU
// is safe for concurrent use.
type ParseCache struct {
	cache *lru.Cache[string, Schema]
}

// NewParseCache returns a cache bounded to size entries.
func NewParseCache(size int) (*ParseCache, error) {
	c, err := lru.New[string, Schema](size)
	if err != nil {
		return nil, err
	}
	return &ParseCache{cache: c}, nil
}

// Get returns the schema for the given source text, parsing and memoizing it
// on a miss. Parse errors are not cached.
func (p *ParseCache) Get(text string) (Schema, error) {
	if s, ok := p.cache.Get(text); ok {
		return s, nil
	}
	s, err := Parse(text)
	if err != nil {
		return nil, err
	}
	p.cache.Add(text, s)
	return s, nil
}

// Len reports the number of cached schemas.
func (p *ParseCache) Len() int { return p.cache.Len() }

// Purge drops every cached schema.
func (p *ParseCache) Purge() { p.cache.Purge() }
