// Package cache holds the process-wide key/value caches shared by the place
// and astro-record services. The caches know nothing about entity
// relationships; every invalidation decision is made by the services.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/puzpuzpuz/xsync/v3"
)

// EntityStore caches single entities under "kind:id" keys. It is unbounded
// and has no expiry: entries live until explicitly removed or the process
// restarts. Reads and writes to the same key are linearizable.
type EntityStore[V any] struct {
	m *xsync.MapOf[string, V]
}

func NewEntityStore[V any]() *EntityStore[V] {
	return &EntityStore[V]{m: xsync.NewMapOf[string, V]()}
}

func (s *EntityStore[V]) Get(key string) (V, bool) {
	return s.m.Load(key)
}

func (s *EntityStore[V]) Set(key string, v V) {
	s.m.Store(key, v)
}

func (s *EntityStore[V]) Remove(key string) {
	s.m.Delete(key)
}

func (s *EntityStore[V]) Has(key string) bool {
	_, ok := s.m.Load(key)
	return ok
}

// Len reports the number of cached entities.
func (s *EntityStore[V]) Len() int { return s.m.Size() }

// CollectionStore caches ordered collections: the "kind:all" entry and the
// derived-query entries ("kind:by-relation:*", "kind:by-date-name:*"). Unlike
// EntityStore it is capacity-bounded: derived entries are never invalidated
// by writes, so the LRU bound is what keeps stale ones from accumulating
// forever. Eviction only ever causes a re-query, never a stale read of
// "kind:all".
type CollectionStore[V any] struct {
	lru *lru.Cache[string, []V]
}

func NewCollectionStore[V any](capacity int) (*CollectionStore[V], error) {
	c, err := lru.New[string, []V](capacity)
	if err != nil {
		return nil, err
	}
	return &CollectionStore[V]{lru: c}, nil
}

func (s *CollectionStore[V]) Get(key string) ([]V, bool) {
	return s.lru.Get(key)
}

func (s *CollectionStore[V]) Set(key string, vs []V) {
	s.lru.Add(key, vs)
}

func (s *CollectionStore[V]) Remove(key string) {
	s.lru.Remove(key)
}

func (s *CollectionStore[V]) Has(key string) bool {
	return s.lru.Contains(key)
}
