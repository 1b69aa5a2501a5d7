// Package repmap implements a cluster-replicated key/value map with
// per-entry role assignment (primary, backup, proxy, copy), lazy value
// fetch, optional diff replication, and membership-driven relocation of
// ownership.
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package repmap

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/NVIDIA/repmap/hk"
	"github.com/NVIDIA/repmap/meta"
	"github.com/NVIDIA/repmap/rlog"
	"github.com/NVIDIA/repmap/xport"
)

// LifecycleState is the global lifecycle: NEW -> STATETRANSFERRED ->
// INITIALIZED -> DESTROYED. Transitions are monotonic; DESTROYED is
// terminal. It's read without locks, an atomic.Int32 underneath.
type LifecycleState int32

const (
	StateNew LifecycleState = iota
	StateTransferred
	StateInitialized
	StateDestroyed
)

func (s LifecycleState) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateTransferred:
		return "STATETRANSFERRED"
	case StateInitialized:
		return "INITIALIZED"
	case StateDestroyed:
		return "DESTROYED"
	default:
		return "UNKNOWN"
	}
}

// Map is the distributed, role-replicated map. It must be constructed
// with New and driven through Init/Breakdown; it is an instance, never
// a process-wide singleton.
type Map[K comparable, V any] struct {
	cfg Config[K, V]

	store *entryStore[K, V]
	mem   *meta.Membership

	lifecycle atomic.Int32 // LifecycleState

	// stateMu guards two disjoint operations from running concurrently
	//: building/applying a state-transfer snapshot, and the
	// "rescan PRIMARY entries with empty backups" pass triggered by
	// mapMemberAdded.
	stateMu          sync.Mutex
	stateTransferred bool

	hk *hk.Registry

	self xport.MemberID
}

// New constructs a Map. Call Init before using it for anything other
// than inspecting its zero-value state.
func New[K comparable, V any](cfg Config[K, V]) *Map[K, V] {
	cfg.setDefaults()
	m := &Map[K, V]{
		cfg:   cfg,
		store: &entryStore[K, V]{},
		mem:   meta.NewMembership(),
		hk:    hk.New(),
		self:  cfg.Channel.LocalMember(),
	}
	m.lifecycle.Store(int32(StateNew))
	return m
}

func (m *Map[K, V]) State() LifecycleState { return LifecycleState(m.lifecycle.Load()) }

func (m *Map[K, V]) setState(s LifecycleState) {
	m.lifecycle.Store(int32(s))
	rlog.Infof("%s: lifecycle -> %s", m.String(), s)
}

func (m *Map[K, V]) String() string {
	return "map[" + string(m.cfg.MapID) + "/" + string(m.self) + "]"
}

// Pair is an (K,V) entry as returned by EntrySet/EntrySetFull.
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

// ContainsKey is true iff the entry exists, regardless of role.
func (m *Map[K, V]) ContainsKey(k K) bool {
	_, ok := m.store.get(k)
	return ok
}

// ContainsValue compares only active entries; it is O(N) with
// per-entry locks not held while comparing, so the result is advisory
// on a concurrently mutating map.
func (m *Map[K, V]) ContainsValue(v V) bool {
	found := false
	m.store.rangeAll(func(_ K, e *meta.Entry[K, V]) bool {
		if !e.Active() {
			return true
		}
		val, ok := e.Value()
		if ok && reflect.DeepEqual(val, v) {
			found = true
			return false
		}
		return true
	})
	return found
}

// Size is the count of active entries with a non-nil value.
func (m *Map[K, V]) Size() int {
	n := 0
	m.store.rangeAll(func(_ K, e *meta.Entry[K, V]) bool {
		if e.Active() {
			if _, ok := e.Value(); ok {
				n++
			}
		}
		return true
	})
	return n
}

func (m *Map[K, V]) IsEmpty() bool { return m.Size() == 0 }

// SizeFull counts every entry, including PROXY/BACKUP.
func (m *Map[K, V]) SizeFull() int {
	n := 0
	m.store.rangeAll(func(K, *meta.Entry[K, V]) bool { n++; return true })
	return n
}

// KeySet returns the keys of active, non-nil-valued entries.
func (m *Map[K, V]) KeySet() []K {
	var ks []K
	m.store.rangeAll(func(k K, e *meta.Entry[K, V]) bool {
		if e.Active() {
			if _, ok := e.Value(); ok {
				ks = append(ks, k)
			}
		}
		return true
	})
	return ks
}

// KeySetFull returns every key, including PROXY/BACKUP.
func (m *Map[K, V]) KeySetFull() []K { return m.store.keys() }

// Values returns the values of active entries.
func (m *Map[K, V]) Values() []V {
	var vs []V
	m.store.rangeAll(func(_ K, e *meta.Entry[K, V]) bool {
		if e.Active() {
			if v, ok := e.Value(); ok {
				vs = append(vs, v)
			}
		}
		return true
	})
	return vs
}

// EntrySet returns active, non-nil-valued (key,value) pairs.
func (m *Map[K, V]) EntrySet() []Pair[K, V] {
	var ps []Pair[K, V]
	m.store.rangeAll(func(k K, e *meta.Entry[K, V]) bool {
		if e.Active() {
			if v, ok := e.Value(); ok {
				ps = append(ps, Pair[K, V]{Key: k, Value: v})
			}
		}
		return true
	})
	return ps
}

// EntrySetFull returns every (key,value) pair, including ones with no
// value yet (PROXY entries report the zero value).
func (m *Map[K, V]) EntrySetFull() []Pair[K, V] {
	var ps []Pair[K, V]
	m.store.rangeAll(func(k K, e *meta.Entry[K, V]) bool {
		v, _ := e.Value()
		ps = append(ps, Pair[K, V]{Key: k, Value: v})
		return true
	})
	return ps
}

// Clear removes every key. clear(true) walks the active keyset
// (KeySet, not KeySetFull) through the
// replicated remove path, so PROXY-role entries and entries without a
// value on this node are left behind.
// clear(false) drops local storage only, for every role.
func (m *Map[K, V]) Clear(notify bool) {
	if !notify {
		m.store.rangeAll(func(k K, _ *meta.Entry[K, V]) bool {
			m.store.delete(k)
			return true
		})
		return
	}
	for _, k := range m.KeySet() {
		m.RemoveNotify(k, true)
	}
}
