// Package rendercache caches rendered page HTML across watch-mode rebuilds.
package rendercache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize bounds memory use for long-running watch sessions.
const DefaultSize = 512

// Cache is an LRU of rendered output keyed by content+template fingerprint.
// A single build run never needs it (the planner already skips unchanged
// pages); it pays off when watch mode re-renders after template edits.
type Cache struct {
	lru *lru.Cache[string, []byte]
}

// New creates a cache holding up to size rendered pages.
// Size <= 0 selects DefaultSize.
func New(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	l, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: l}, nil
}

// Get returns the cached rendered bytes for key, if present.
func (c *Cache) Get(key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	return c.lru.Get(key)
}

// Put stores rendered bytes under key.
func (c *Cache) Put(key string, rendered []byte) {
	if c == nil {
		return
	}
	c.lru.Add(key, rendered)
}

// Purge drops every cached page. Called when templates change, since the
// cache key only covers page content and template identity, not template
// content.
func (c *Cache) Purge() {
	if c == nil {
		return
	}
	c.lru.Purge()
}

// Len returns the number of cached pages.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}
