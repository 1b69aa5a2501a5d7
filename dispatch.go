// Package repmap: the inbound message dispatcher. A Map
// registers handle as the channel's sole Responder; every message
// addressed to a different map id is dropped silently, and one tagged
// with a type this release doesn't recognize is dropped and logged.
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package repmap

import (
	"github.com/NVIDIA/repmap/meta"
	"github.com/NVIDIA/repmap/rlog"
	"github.com/NVIDIA/repmap/xport"
)

// stateBatch is the payload of a STATE/STATE_COPY reply: a list of
// per-entry locator (STATE) or full-value (STATE_COPY) messages built
// under stateMu so concurrent writes can't observe a half-copied map.
type stateBatch[K comparable] struct {
	Messages []*meta.Message[K] `json:"messages"`
}

func (m *Map[K, V]) registerDispatch() {
	m.cfg.Channel.RegisterResponder(m.handle)
}

func (m *Map[K, V]) handle(from xport.MemberID, body []byte) []byte {
	msg, err := m.decode(body)
	if err != nil {
		rlog.Errorf("%s: dispatch: decode from %s: %v", m.String(), from, err)
		return nil
	}
	if !msg.SameMap(m.cfg.MapID) {
		return nil
	}

	switch msg.Type {
	case meta.MsgInit:
		return m.onInit(msg)
	case meta.MsgStart:
		return m.onStart(from, msg)
	case meta.MsgStop:
		m.onStop(msg)
		return nil
	case meta.MsgState:
		return m.onState(false)
	case meta.MsgStateCopy:
		return m.onState(true)
	case meta.MsgProxy:
		m.onProxy(msg)
		return nil
	case meta.MsgBackup:
		m.onBackupOrCopy(msg, meta.Backup)
		return nil
	case meta.MsgCopy:
		m.onBackupOrCopy(msg, meta.Copy)
		return nil
	case meta.MsgRetrieveBackup:
		return m.onRetrieveBackup(msg)
	case meta.MsgRemove:
		m.onRemove(msg)
		return nil
	case meta.MsgAccess, meta.MsgNotifyMapMember:
		m.onAccessOrNotify(msg)
		return nil
	case meta.MsgPing:
		return m.onPing(msg)
	default:
		rlog.Warningf("%s: dispatch: dropping unrecognized message type %d from %s", m.String(), msg.Type, from)
		return nil
	}
}

// onInit stamps the reply's primary to the local member and echoes it
// back; the requester, not the responder, is the side that learns a
// new peer exists (it folds every INIT reply into its membership once
// the call returns).
func (m *Map[K, V]) onInit(_ *meta.Message[K]) []byte {
	reply := m.newMsg(meta.MsgInit)
	b, err := m.encode(reply)
	if err != nil {
		rlog.Errorf("%s: onInit: encode reply: %v", m.String(), err)
		return nil
	}
	return b
}

// onStart folds the sender into membership and runs the
// empty-backups reconciliation pass, then echoes an ack.
func (m *Map[K, V]) onStart(from xport.MemberID, _ *meta.Message[K]) []byte {
	m.mapMemberAdded(from)
	reply := m.newMsg(meta.MsgStart)
	b, err := m.encode(reply)
	if err != nil {
		rlog.Errorf("%s: onStart: encode reply: %v", m.String(), err)
		return nil
	}
	return b
}

func (m *Map[K, V]) onStop(msg *meta.Message[K]) {
	m.memberDisappeared(msg.Primary)
}

// onState builds the snapshot reply for STATE (locators only) or
// STATE_COPY (full values), under stateMu so it can't race a concurrent
// mapMemberAdded rescan.
func (m *Map[K, V]) onState(full bool) []byte {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	var batch stateBatch[K]
	m.store.rangeAll(func(k K, e *meta.Entry[K, V]) bool {
		value, ok := e.Value()
		if !ok {
			return true
		}
		kraw, err := m.keyRaw(k)
		if err != nil {
			rlog.Errorf("%s: onState: encode key %v: %v", m.String(), k, err)
			return true
		}
		t := meta.MsgProxy
		if full {
			t = meta.MsgCopy
		}
		em := &meta.Message[K]{MapID: m.cfg.MapID, Type: t, KeyRaw: kraw, Primary: e.Primary(), Backups: e.Backups()}
		if full {
			vraw, err := m.valRaw(value)
			if err != nil {
				rlog.Errorf("%s: onState: encode value %v: %v", m.String(), k, err)
				return true
			}
			em.ValueRaw = vraw
		}
		batch.Messages = append(batch.Messages, em)
		return true
	})

	b, err := m.cfg.Codec.Serialize(&batch)
	if err != nil {
		rlog.Errorf("%s: onState: encode batch: %v", m.String(), err)
		return nil
	}
	return b
}

// onProxy creates or overwrites a lazy locator entry: no value, role
// PROXY, primary/backups taken from the message.
func (m *Map[K, V]) onProxy(msg *meta.Message[K]) {
	key, err := msg.DecodeKey(m.cfg.Codec, m.cfg.Resolvers)
	if err != nil {
		rlog.Errorf("%s: onProxy: decode key: %v", m.String(), err)
		return
	}
	e, loaded := m.store.putIfAbsent(key, meta.NewProxy[K, V](key, msg.Primary, msg.Backups))
	if loaded {
		e.SetRole(meta.Proxy)
		e.SetPrimary(msg.Primary)
		e.SetBackups(msg.Backups)
		e.ClearValue()
	}
	e.AssertRole(meta.Proxy)
}

// onBackupOrCopy handles both BACKUP and COPY: create-or-update the
// entry in the given role with the message's primary/backups, then
// route the value update through Entry.ApplyBytes — diff bytes onto
// the existing value under its own Replicable lock, or a whole value
// replacing it outright. An empty, non-diff payload means "keep the
// value you already have" (used when only metadata changed), handled
// here rather than by ApplyBytes since ApplyBytes's own empty-data
// case means something else (mark the entry PROXY).
func (m *Map[K, V]) onBackupOrCopy(msg *meta.Message[K], role meta.Role) {
	key, err := msg.DecodeKey(m.cfg.Codec, m.cfg.Resolvers)
	if err != nil {
		rlog.Errorf("%s: on%s: decode key: %v", m.String(), role, err)
		return
	}
	e, _ := m.store.putIfAbsent(key, meta.NewEntry[K, V](key, role))
	e.SetRole(role)
	e.SetPrimary(msg.Primary)
	e.SetBackups(msg.Backups)

	switch {
	case msg.Diff:
		if err := e.ApplyBytes(msg.DiffBytes, true, m.cfg.Codec, m.cfg.Resolvers); err != nil {
			rlog.Errorf("%s: on%s(%v): applyDiff: %v", m.String(), role, key, err)
		}
	case len(msg.ValueRaw) == 0:
		// no value carried: this entry already has one, leave it alone.
	default:
		if err := e.ApplyBytes(msg.ValueRaw, false, m.cfg.Codec, m.cfg.Resolvers); err != nil {
			rlog.Errorf("%s: on%s(%v): decode value: %v", m.String(), role, key, err)
			return
		}
	}
	e.AssertRole(role)

	if v, ok := e.Value(); ok {
		if r, ok := meta.AsReplicable(v); ok {
			r.SetOwner(m.cfg.Owner)
		}
	}
}

func (m *Map[K, V]) onRetrieveBackup(msg *meta.Message[K]) []byte {
	key, err := msg.DecodeKey(m.cfg.Codec, m.cfg.Resolvers)
	if err != nil {
		rlog.Errorf("%s: onRetrieveBackup: decode key: %v", m.String(), err)
		return nil
	}
	e, ok := m.store.get(key)
	if !ok {
		return nil
	}
	value, ok := e.Value()
	if !ok {
		return nil
	}
	b, err := m.valRaw(value)
	if err != nil {
		rlog.Errorf("%s: onRetrieveBackup(%v): encode value: %v", m.String(), key, err)
		return nil
	}
	return b
}

func (m *Map[K, V]) onRemove(msg *meta.Message[K]) {
	key, err := msg.DecodeKey(m.cfg.Codec, m.cfg.Resolvers)
	if err != nil {
		rlog.Errorf("%s: onRemove: decode key: %v", m.String(), err)
		return
	}
	m.store.delete(key)
}

// onAccessOrNotify updates an existing entry's metadata (primary,
// backups) and, if the value is Replicable, pings its access-tracking
// hook. Nothing happens if the entry doesn't exist locally yet.
func (m *Map[K, V]) onAccessOrNotify(msg *meta.Message[K]) {
	key, err := msg.DecodeKey(m.cfg.Codec, m.cfg.Resolvers)
	if err != nil {
		rlog.Errorf("%s: onAccessOrNotify: decode key: %v", m.String(), err)
		return
	}
	e, ok := m.store.get(key)
	if !ok {
		return
	}
	e.SetPrimary(msg.Primary)
	e.SetBackups(msg.Backups)
	if v, ok := e.Value(); ok {
		if r, ok := meta.AsReplicable(v); ok {
			r.AccessEntry()
		}
	}
}

func (m *Map[K, V]) onPing(_ *meta.Message[K]) []byte {
	reply := m.newMsg(meta.MsgPing)
	reply.PingState = int(m.State())
	b, err := m.encode(reply)
	if err != nil {
		rlog.Errorf("%s: onPing: encode reply: %v", m.String(), err)
		return nil
	}
	return b
}
