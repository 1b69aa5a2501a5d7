// Package meta: the Replicable capability contract (component G).
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package meta

import "time"

// Replicable is implemented optionally by values stored in the map. A
// value that does not implement it is always replicated by full copy.
// Types implement the subset of behavior they support: IsDiffable
// gates GetDiff/ApplyDiff, and IsAccessReplicate gates ACCESS
// replication. AccessEntry and SetLastTimeReplicated are called on any
// Replicable value regardless of either flag.
type Replicable interface {
	// IsDiffable reports whether GetDiff/ApplyDiff are meaningful for
	// this value.
	IsDiffable() bool
	// IsDirty reports whether the value has unreplicated diffs pending.
	IsDirty() bool
	// IsAccessReplicate reports whether mere accesses (not mutations)
	// should be replicated as ACCESS messages.
	IsAccessReplicate() bool

	// GetDiff returns the encoded pending changes. Must be called with
	// the value locked.
	GetDiff() ([]byte, error)
	// ResetDiff clears pending changes after a successful replicate.
	// Must be called with the value locked.
	ResetDiff()
	// ApplyDiff applies incoming changes. Must be called with the value
	// locked.
	ApplyDiff([]byte) error

	// SetOwner is invoked whenever the value is promoted to primary
	// locally and whenever it arrives in a BACKUP or COPY message, so
	// the value can reach back into the map for notifications.
	SetOwner(owner any)

	Lock()
	Unlock()

	// AccessEntry records a read for access-replication purposes.
	AccessEntry()
	// SetLastTimeReplicated stamps the last successful replicate.
	SetLastTimeReplicated(t time.Time)
}

// AsReplicable type-asserts v against Replicable; ok is false for
// values that don't implement it, in which case the engine falls back
// to whole-value replication.
func AsReplicable(v any) (r Replicable, ok bool) {
	r, ok = v.(Replicable)
	return
}
