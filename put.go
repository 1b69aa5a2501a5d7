// Package repmap: Put/PutAll.
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package repmap

import (
	"github.com/NVIDIA/repmap/meta"
	"github.com/NVIDIA/repmap/rstats"
)

// Put stores value under key, replicating to a backup.
// It returns the value previously stored locally under key, if any.
func (m *Map[K, V]) Put(key K, value V) (old V, hadOld bool) {
	return m.PutNotify(key, value, true)
}

// PutNotify is Put with explicit control over whether the write is
// announced to the cluster.
func (m *Map[K, V]) PutNotify(key K, value V, notify bool) (old V, hadOld bool) {
	old, hadOld = m.RemoveNotify(key, notify)

	e := meta.NewPrimary[K, V](key, value, m.self)
	e.AssertPrimaryIsLocal(m.self)
	if notify {
		backups := m.publishEntryInfo(key, value)
		e.SetBackups(backups)
	}
	m.store.store(key, e)
	m.cfg.Stats.Inc(rstats.Puts)
	return old, hadOld
}

// PutAll applies Put for every entry in items.
func (m *Map[K, V]) PutAll(items map[K]V) {
	for k, v := range items {
		m.Put(k, v)
	}
}
