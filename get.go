// Package repmap: Get and the three promotion paths it may trigger.
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package repmap

import (
	"github.com/NVIDIA/repmap/meta"
	"github.com/NVIDIA/repmap/rlog"
	"github.com/NVIDIA/repmap/rstats"
	"github.com/NVIDIA/repmap/xport"
)

// Get returns the value for key. If the local entry isn't already
// PRIMARY, Get promotes it in place (BACKUP/PROXY/COPY -> PRIMARY),
// firing the Owner callback on success.
func (m *Map[K, V]) Get(key K) (V, bool) {
	var zero V
	e, ok := m.store.get(key)
	if !ok {
		return zero, false
	}

	m.cfg.Stats.Inc(rstats.Gets)

	switch e.Role() {
	case meta.Primary:
		return e.Value()
	case meta.Backup:
		return m.promoteBackup(key, e)
	case meta.Proxy:
		return m.promoteProxy(key, e)
	case meta.Copy:
		return m.promoteCopy(key, e)
	default:
		return zero, false
	}
}

// onPromoted is the common tail of every promotion path: clear backup/proxy/copy flags (already done by the caller via
// SetRole(Primary)), set primary = local (already done), invoke the
// owner callback, and hand the value to SetOwner if it's Replicable.
func (m *Map[K, V]) onPromoted(key K, value V, kind string) {
	m.cfg.Owner.ObjectMadePrimary(key, value)
	if r, ok := meta.AsReplicable(value); ok {
		r.SetOwner(m.cfg.Owner)
	}
	m.cfg.Stats.Inc(kind)
}

func (m *Map[K, V]) promoteBackup(key K, e *meta.Entry[K, V]) (V, bool) {
	value, ok := e.Value()
	if !ok {
		var zero V
		return zero, false
	}
	backups := m.publishEntryInfo(key, value)
	e.SetBackups(backups)
	e.SetPrimary(m.self)
	e.SetRole(meta.Primary)
	e.AssertPrimaryIsLocal(m.self)
	m.onPromoted(key, value, rstats.PromotedBackup)
	return value, true
}

func (m *Map[K, V]) promoteProxy(key K, e *meta.Entry[K, V]) (V, bool) {
	var zero V
	backups := e.Backups()
	if len(backups) == 0 {
		rlog.Warningf("%s: get(%v): proxy entry has no backups to retrieve from", m.String(), key)
		return zero, false
	}

	msg := m.newMsg(meta.MsgRetrieveBackup)
	kraw, err := m.keyRaw(key)
	if err != nil {
		rlog.Errorf("%s: get(%v): encode key: %v", m.String(), key, err)
		return zero, false
	}
	msg.KeyRaw = kraw

	replies, err := m.call(backups, msg, xport.FirstReply, m.cfg.RPCTimeout)
	if cerr, ok := err.(xport.ChannelError); ok {
		for _, id := range cerr.FaultyMembers() {
			m.cfg.Stats.Inc(rstats.RPCTimeouts)
			m.memberDisappeared(id)
		}
	}

	var value V
	got := false
	for _, r := range replies {
		if r.Err != nil || len(r.Body) == 0 {
			continue
		}
		if derr := m.cfg.Codec.Deserialize(r.Body, m.cfg.Resolvers, &value); derr == nil {
			got = true
			break
		}
	}
	if !got {
		rlog.Warningf("%s: get(%v): RETRIEVE_BACKUP returned nothing; leaving entry as-is", m.String(), key)
		return zero, false
	}

	e.SetValue(value)
	e.SetPrimary(m.self)
	e.SetRole(meta.Primary)
	e.AssertPrimaryIsLocal(m.self)
	// the existing backups already hold the value; just re-point them.
	e.SetBackups(backups)

	for _, id := range backups {
		if err := m.sendNotify(id, key, m.self, backups); err != nil {
			rlog.Warningf("%s: get(%v): NOTIFY_MAPMEMBER to %s: %v", m.String(), key, id, err)
		}
	}

	excluded := make(map[xport.MemberID]bool, len(backups)+1)
	excluded[m.self] = true
	for _, id := range backups {
		excluded[id] = true
	}
	for _, id := range m.mem.Live() {
		if excluded[id] {
			continue
		}
		if err := m.sendProxy(id, key, m.self, backups); err != nil {
			rlog.Warningf("%s: get(%v): PROXY to %s: %v", m.String(), key, id, err)
		}
	}

	m.onPromoted(key, value, rstats.PromotedProxy)
	return value, true
}

func (m *Map[K, V]) promoteCopy(key K, e *meta.Entry[K, V]) (V, bool) {
	value, ok := e.Value()
	if !ok {
		var zero V
		return zero, false
	}
	e.SetPrimary(m.self)
	e.SetRole(meta.Primary)
	e.AssertPrimaryIsLocal(m.self)

	backups := e.Backups()
	for _, id := range m.mem.Live() {
		if err := m.sendNotify(id, key, m.self, backups); err != nil {
			rlog.Warningf("%s: get(%v): NOTIFY_MAPMEMBER to %s: %v", m.String(), key, id, err)
		}
	}

	m.onPromoted(key, value, rstats.PromotedCopy)
	return value, true
}
