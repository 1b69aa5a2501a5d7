// Package repmap: backup-selection strategy.
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package repmap

import (
	"sort"

	"github.com/NVIDIA/repmap/rlog"
	"github.com/NVIDIA/repmap/rstats"
	"github.com/NVIDIA/repmap/xport"
)

// publishEntryInfo picks backups for (key, value) and announces the
// choice, returning the backup list to store on the entry. It
// dispatches to Config.PublishEntryInfo when the caller supplied one,
// else falls back to roundRobinPublish — the only required strategy.
func (m *Map[K, V]) publishEntryInfo(key K, value V) []xport.MemberID {
	if m.cfg.PublishEntryInfo != nil {
		return m.cfg.PublishEntryInfo(m, key, value)
	}
	return m.roundRobinPublish(key, value)
}

// roundRobinPublish implements the required tie-breaking exactly: if
// the live membership is empty, no message is sent and an
// empty backup list is returned. Otherwise the cursor (owned by the
// Membership registry, advanced under its mutex) selects one backup;
// that peer gets a BACKUP carrying the full value, and every other
// live member gets a PROXY pointing at it.
func (m *Map[K, V]) roundRobinPublish(key K, value V) []xport.MemberID {
	live := m.mem.Live()
	if len(live) == 0 {
		return nil
	}
	// Live is unordered; sort so the cursor indexes a stable sequence.
	sort.Slice(live, func(i, j int) bool { return live[i] < live[j] })

	idx := m.mem.AdvanceCursor(len(live))
	backup := live[idx]
	backups := []xport.MemberID{backup}

	if err := m.sendBackup(backup, key, value, false, nil, backups); err != nil {
		rlog.Warningf("%s: publishEntryInfo: BACKUP to %s: %v", m.String(), backup, err)
	} else {
		m.cfg.Stats.Inc(rstats.BackupsAssigned)
	}

	for _, id := range live {
		if id == backup {
			continue
		}
		if err := m.sendProxy(id, key, m.self, backups); err != nil {
			rlog.Warningf("%s: publishEntryInfo: PROXY to %s: %v", m.String(), id, err)
		}
	}
	return backups
}
