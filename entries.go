// Package repmap: the thread-safe entry container.
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package repmap

import (
	"sync"

	"github.com/NVIDIA/repmap/meta"
)

// entryStore is the K -> *meta.Entry[K,V] container: get/putIfAbsent/
// remove/iteration, with iteration observing a snapshot of keys and
// individual lookups tolerating a nil result.
type entryStore[K comparable, V any] struct {
	m sync.Map
}

func (s *entryStore[K, V]) get(k K) (*meta.Entry[K, V], bool) {
	v, ok := s.m.Load(k)
	if !ok {
		return nil, false
	}
	return v.(*meta.Entry[K, V]), true
}

func (s *entryStore[K, V]) putIfAbsent(k K, e *meta.Entry[K, V]) (actual *meta.Entry[K, V], loaded bool) {
	v, loaded := s.m.LoadOrStore(k, e)
	return v.(*meta.Entry[K, V]), loaded
}

func (s *entryStore[K, V]) store(k K, e *meta.Entry[K, V]) { s.m.Store(k, e) }

func (s *entryStore[K, V]) delete(k K) { s.m.Delete(k) }

// keys returns a snapshot of the current keys; callers iterating it
// must re-fetch each entry and tolerate a nil result.
func (s *entryStore[K, V]) keys() []K {
	var ks []K
	s.m.Range(func(k, _ any) bool {
		ks = append(ks, k.(K))
		return true
	})
	return ks
}

func (s *entryStore[K, V]) rangeAll(f func(K, *meta.Entry[K, V]) bool) {
	s.m.Range(func(k, v any) bool {
		return f(k.(K), v.(*meta.Entry[K, V]))
	})
}
