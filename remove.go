// Package repmap: Remove.
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package repmap

import (
	"github.com/NVIDIA/repmap/rlog"
	"github.com/NVIDIA/repmap/rstats"
)

// Remove deletes key locally and, if live peers exist, broadcasts
// REMOVE to all of them.
func (m *Map[K, V]) Remove(key K) (old V, hadOld bool) {
	return m.RemoveNotify(key, true)
}

// RemoveNotify is Remove with explicit control over whether the
// deletion is announced. Announcement is best-effort: a channel error
// is logged, never raised.
func (m *Map[K, V]) RemoveNotify(key K, notify bool) (old V, hadOld bool) {
	if e, ok := m.store.get(key); ok {
		old, hadOld = e.Value()
		m.store.delete(key)
	}

	if notify {
		for _, id := range m.mem.Live() {
			if err := m.sendRemove(id, key); err != nil {
				rlog.Warningf("%s: remove: REMOVE to %s: %v", m.String(), id, err)
			}
		}
	}

	if hadOld {
		m.cfg.Stats.Inc(rstats.Removes)
	}
	return old, hadOld
}
