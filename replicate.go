// Package repmap: explicit replication.
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package repmap

import (
	"time"

	"github.com/NVIDIA/repmap/internal/debug"
	"github.com/NVIDIA/repmap/meta"
	"github.com/NVIDIA/repmap/rlog"
	"github.com/NVIDIA/repmap/rstats"
)

// Replicate pushes an update for key to its backups, if any.
func (m *Map[K, V]) Replicate(key K, complete bool) {
	e, ok := m.store.get(key)
	if !ok {
		return
	}
	m.replicateEntry(key, e, complete)
}

// ReplicateAll calls Replicate for every known key.
func (m *Map[K, V]) ReplicateAll(complete bool) {
	for _, k := range m.store.keys() {
		if e, ok := m.store.get(k); ok {
			m.replicateEntry(k, e, complete)
		}
	}
}

// replicateEntry implements the message-shape decision tree: only
// PRIMARY entries with at least one backup and a value are ever
// replicated.
func (m *Map[K, V]) replicateEntry(key K, e *meta.Entry[K, V], complete bool) {
	if e.Role() != meta.Primary {
		return
	}
	backups := e.Backups()
	if len(backups) == 0 {
		return
	}
	value, ok := e.Value()
	if !ok {
		return
	}

	rep, isRepl := meta.AsReplicable(value)

	switch {
	case isRepl && rep.IsDiffable() && (complete || rep.IsDirty()):
		rep.Lock()
		diff, err := rep.GetDiff()
		if err != nil {
			rep.Unlock()
			rlog.Errorf("%s: replicate(%v): getDiff: %v", m.String(), key, err)
			return
		}
		for _, b := range backups {
			if sendErr := m.sendBackup(b, key, value, true, diff, backups); sendErr != nil {
				rlog.Warningf("%s: replicate(%v): diff BACKUP to %s: %v", m.String(), key, b, sendErr)
				continue
			}
			m.cfg.Stats.Inc(rstats.ReplicateSends)
		}
		rep.ResetDiff()
		rep.SetLastTimeReplicated(time.Now())
		rep.Unlock()
		debug.Assert(!rep.IsDirty(), "replicate: ResetDiff left the value dirty")

	case complete:
		for _, b := range backups {
			if err := m.sendBackup(b, key, value, false, nil, backups); err != nil {
				rlog.Warningf("%s: replicate(%v): full BACKUP to %s: %v", m.String(), key, b, err)
				continue
			}
			m.cfg.Stats.Inc(rstats.ReplicateSends)
		}
		if isRepl {
			rep.SetLastTimeReplicated(time.Now())
		}

	case isRepl && rep.IsAccessReplicate() && rep.IsDirty():
		for _, b := range backups {
			if err := m.sendAccess(b, key, m.self, backups); err != nil {
				rlog.Warningf("%s: replicate(%v): ACCESS to %s: %v", m.String(), key, b, err)
				continue
			}
			m.cfg.Stats.Inc(rstats.ReplicateSends)
		}
		rep.SetLastTimeReplicated(time.Now())

	default:
		// nothing dirty, nothing to send.
	}
}
