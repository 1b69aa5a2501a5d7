// Package meta: the Entry record (component A).
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package meta

import (
	"sync"

	"github.com/NVIDIA/repmap/internal/debug"
	"github.com/NVIDIA/repmap/xport"
)

// Entry is the per-key record the replication engine and message
// dispatcher operate on. Its own mutex ("structural lock") guards
// role/primary/backups/value swaps; a Replicable value additionally
// exposes its own lock, used only to serialize ApplyDiff against
// GetDiff/ResetDiff.
type Entry[K comparable, V any] struct {
	mu sync.Mutex

	key K

	value    V
	hasValue bool

	role    Role
	primary xport.MemberID
	backups []xport.MemberID
}

// NewPrimary constructs a freshly-written, locally-owned entry — the
// only way an entry is born PRIMARY from birth.
func NewPrimary[K comparable, V any](key K, value V, self xport.MemberID) *Entry[K, V] {
	return &Entry[K, V]{key: key, value: value, hasValue: true, role: Primary, primary: self}
}

// NewEntry constructs a bare placeholder entry in the given role, with
// no value set — used by the message dispatcher's create-or-update
// handlers as the seed passed to putIfAbsent.
func NewEntry[K comparable, V any](key K, role Role) *Entry[K, V] {
	return &Entry[K, V]{key: key, role: role}
}

// NewProxy constructs a lazy locator entry with no value.
func NewProxy[K comparable, V any](key K, primary xport.MemberID, backups []xport.MemberID) *Entry[K, V] {
	return &Entry[K, V]{key: key, role: Proxy, primary: primary, backups: append([]xport.MemberID(nil), backups...)}
}

func (e *Entry[K, V]) Lock()   { e.mu.Lock() }
func (e *Entry[K, V]) Unlock() { e.mu.Unlock() }

func (e *Entry[K, V]) Key() K { return e.key }

// Value returns the current value and whether one is set (a PROXY
// entry normally has none).
func (e *Entry[K, V]) Value() (v V, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value, e.hasValue
}

func (e *Entry[K, V]) SetValue(v V) {
	e.mu.Lock()
	e.value, e.hasValue = v, true
	e.mu.Unlock()
}

func (e *Entry[K, V]) ClearValue() {
	e.mu.Lock()
	var zero V
	e.value, e.hasValue = zero, false
	e.mu.Unlock()
}

func (e *Entry[K, V]) Role() Role {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.role
}

func (e *Entry[K, V]) SetRole(r Role) {
	e.mu.Lock()
	e.role = r
	e.mu.Unlock()
}

// Active mirrors Role().Active() without a second lock round-trip.
func (e *Entry[K, V]) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.role.Active()
}

func (e *Entry[K, V]) Primary() xport.MemberID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.primary
}

func (e *Entry[K, V]) SetPrimary(id xport.MemberID) {
	e.mu.Lock()
	e.primary = id
	e.mu.Unlock()
}

func (e *Entry[K, V]) Backups() []xport.MemberID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]xport.MemberID(nil), e.backups...)
}

func (e *Entry[K, V]) SetBackups(ids []xport.MemberID) {
	e.mu.Lock()
	e.backups = append([]xport.MemberID(nil), ids...)
	e.mu.Unlock()
}

// IsPrimary, IsBackup, IsProxy, IsCopy are the exhaustive-switch
// friendly helpers invariant checks use.
func (e *Entry[K, V]) IsPrimary() bool { return e.Role() == Primary }
func (e *Entry[K, V]) IsBackup() bool  { return e.Role() == Backup }
func (e *Entry[K, V]) IsProxy() bool   { return e.Role() == Proxy }
func (e *Entry[K, V]) IsCopy() bool    { return e.Role() == Copy }

// ApplyBytes applies an inbound value update directly to the entry. An
// empty data slice marks the entry PROXY (lazy). If isDiff is set and
// the current value implements Replicable and supports diffing, the
// diff is applied under the value's own lock; a diff with no such
// value to apply onto is dropped and is not decoded as a value. A
// non-diff update is deserialized as a whole new value via codec.
func (e *Entry[K, V]) ApplyBytes(data []byte, isDiff bool, codec xport.Codec, resolvers []string) error {
	if len(data) == 0 {
		e.SetRole(Proxy)
		e.ClearValue()
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if isDiff {
		if r, ok := AsReplicable(e.value); ok && e.hasValue && r.IsDiffable() {
			r.Lock()
			err := r.ApplyDiff(data)
			r.Unlock()
			return err
		}
		// no diffable local value to apply the diff onto: the bytes are
		// a delta, not a whole value, so there is nothing correct to
		// decode them as.
		return nil
	}

	var v V
	if err := codec.Deserialize(data, resolvers, &v); err != nil {
		return err
	}
	e.value, e.hasValue = v, true
	return nil
}

// AssertRole checks that a just-completed role transition actually
// stuck, i.e. that no concurrent mutation slipped in between a SetRole
// call and the caller's next read of Role(). Like every
// internal/debug assertion it compiles to a no-op.
func (e *Entry[K, V]) AssertRole(want Role) {
	debug.Assertf(e.Role() == want, "entry %v: role=%s, want %s", e.key, e.Role(), want)
}

// AssertPrimaryIsLocal checks the primary ⇒ primary==local invariant:
// whenever the entry reports role PRIMARY, its primary field must
// equal self. Called right after every promotion path sets both
// fields.
func (e *Entry[K, V]) AssertPrimaryIsLocal(self xport.MemberID) {
	e.mu.Lock()
	role, primary := e.role, e.primary
	e.mu.Unlock()
	debug.Assertf(role != Primary || primary == self, "entry %v: role=primary but primary=%s, want local %s", e.key, primary, self)
}
