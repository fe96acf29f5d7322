package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRU is an in-process cache bounded by size and, optionally, entry age.
type LRU[V any] struct {
	lru *expirable.LRU[string, V]
}

// NewLRU creates a cache holding at most size entries. A zero ttl keeps
// entries until they are evicted by size.
func NewLRU[V any](size int, ttl time.Duration) *LRU[V] {
	return &LRU[V]{lru: expirable.NewLRU[string, V](size, nil, ttl)}
}

func (c *LRU[V]) Get(_ context.Context, key string) (V, bool) {
	return c.lru.Get(key)
}

func (c *LRU[V]) Set(_ context.Context, key string, value V) {
	c.lru.Add(key, value)
}

// Len returns the number of live entries.
func (c *LRU[V]) Len() int {
	return c.lru.Len()
}
