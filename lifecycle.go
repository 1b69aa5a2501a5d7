// Package repmap: the lifecycle coordinator — Init/Breakdown, the
// heartbeat, and membership-driven ownership relocation.
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package repmap

import (
	"context"

	"github.com/NVIDIA/repmap/meta"
	"github.com/NVIDIA/repmap/rlog"
	"github.com/NVIDIA/repmap/rstats"
	"github.com/NVIDIA/repmap/xport"
)

const hkHeartbeat = "repmap.heartbeat"

// Init brings the map from NEW to INITIALIZED: register as the
// channel's responder, broadcast INIT to discover current map peers,
// pull a state snapshot from one of them, broadcast START to announce
// readiness, and start the heartbeat. Every step past discovery is
// best-effort except when terminate is true, in which case
// the first failure is wrapped in a *LifecycleError and returned
// synchronously instead of merely logged.
func (m *Map[K, V]) Init(ctx context.Context, terminate bool) error {
	if m.State() != StateNew {
		return nil
	}

	m.registerDispatch()
	m.cfg.Channel.RegisterMembershipListener(transportListener[K, V]{m})

	if err := m.discoverPeers(); err != nil {
		if terminate {
			return newLifecycleError("init", err)
		}
		rlog.Warningf("%s: init: discover peers: %v", m.String(), err)
	}

	if err := m.transferState(); err != nil {
		if terminate {
			return newLifecycleError("state-transfer", err)
		}
		rlog.Warningf("%s: init: state transfer: %v", m.String(), err)
	}

	if err := m.announceStart(); err != nil {
		if terminate {
			return newLifecycleError("start", err)
		}
		rlog.Warningf("%s: init: announce start: %v", m.String(), err)
	}

	m.hk.Reg(hkHeartbeat, m.cfg.HeartbeatInterval, m.heartbeat)
	m.setState(StateInitialized)
	return nil
}

// discoverPeers broadcasts INIT to every peer the transport currently
// knows about and folds each non-error reply into membership —
// the requester-side half of the INIT exchange (the responder side,
// onInit, only ever echoes back).
func (m *Map[K, V]) discoverPeers() error {
	peers := m.cfg.Channel.Members()
	if len(peers) == 0 {
		return nil
	}
	msg := m.newMsg(meta.MsgInit)
	replies, err := m.call(peers, msg, xport.AllReply, m.cfg.RPCTimeout)
	if cerr, ok := err.(xport.ChannelError); ok {
		for _, id := range cerr.FaultyMembers() {
			m.cfg.Stats.Inc(rstats.RPCTimeouts)
			rlog.Warningf("%s: init: peer %s did not answer INIT", m.String(), id)
		}
	}
	for _, r := range replies {
		if r.Err != nil {
			continue
		}
		m.mem.Add(r.From)
	}
	return nil
}

// transferState pulls a STATE/STATE_COPY snapshot from one live peer
// and applies it under stateMu. With no live peers yet, the map starts
// empty and is immediately considered transferred.
func (m *Map[K, V]) transferState() error {
	m.stateMu.Lock()
	peers := m.mem.Live()
	m.stateMu.Unlock()

	if len(peers) == 0 {
		m.stateMu.Lock()
		m.stateTransferred = true
		m.stateMu.Unlock()
		m.setState(StateTransferred)
		return nil
	}

	t := meta.MsgState
	if m.cfg.StateCopy {
		t = meta.MsgStateCopy
	}
	msg := m.newMsg(t)
	replies, err := m.call(peers, msg, xport.FirstReply, m.cfg.RPCTimeout)
	if cerr, ok := err.(xport.ChannelError); ok {
		for _, id := range cerr.FaultyMembers() {
			m.cfg.Stats.Inc(rstats.RPCTimeouts)
			m.memberDisappeared(id)
		}
	}

	for _, r := range replies {
		if r.Err != nil || len(r.Body) == 0 {
			continue
		}
		var batch stateBatch[K]
		if derr := m.cfg.Codec.Deserialize(r.Body, m.cfg.Resolvers, &batch); derr != nil {
			rlog.Warningf("%s: state transfer: decode snapshot from %s: %v", m.String(), r.From, derr)
			continue
		}
		m.stateMu.Lock()
		for _, em := range batch.Messages {
			switch em.Type {
			case meta.MsgProxy:
				m.onProxy(em)
			case meta.MsgCopy:
				m.onBackupOrCopy(em, meta.Copy)
			}
		}
		m.stateMu.Unlock()
		break
	}

	m.stateMu.Lock()
	m.stateTransferred = true
	m.stateMu.Unlock()
	m.setState(StateTransferred)
	return nil
}

// announceStart broadcasts START to every live peer; onStart on the
// receiving side folds the sender into its own membership and runs the
// empty-backups reconciliation pass.
func (m *Map[K, V]) announceStart() error {
	peers := m.mem.Live()
	if len(peers) == 0 {
		return nil
	}
	msg := m.newMsg(meta.MsgStart)
	_, err := m.call(peers, msg, xport.FirstReply, m.cfg.RPCTimeout)
	if cerr, ok := err.(xport.ChannelError); ok {
		for _, id := range cerr.FaultyMembers() {
			m.cfg.Stats.Inc(rstats.RPCTimeouts)
			rlog.Warningf("%s: announceStart: peer %s did not answer START", m.String(), id)
		}
	}
	return nil
}

// Breakdown announces STOP to every live peer, stops the heartbeat,
// and deregisters from the channel. It is idempotent past the first
// call.
func (m *Map[K, V]) Breakdown() {
	if m.State() == StateDestroyed {
		return
	}
	for _, id := range m.mem.Live() {
		m.sendBestEffort(id, m.newMsg(meta.MsgStop), "STOP")
	}
	m.hk.Stop()
	m.cfg.Channel.Deregister()
	m.setState(StateDestroyed)
}

// heartbeat pings every live peer, evicts any that don't answer
// within AccessTimeout's worth of misses, and is the job registered
// against hk at HeartbeatInterval.
func (m *Map[K, V]) heartbeat() {
	peers := m.mem.Live()
	if len(peers) > 0 {
		msg := m.newMsg(meta.MsgPing)
		replies, err := m.call(peers, msg, xport.AllReply, m.cfg.AccessTimeout)
		if cerr, ok := err.(xport.ChannelError); ok {
			for _, id := range cerr.FaultyMembers() {
				m.cfg.Stats.Inc(rstats.RPCTimeouts)
				m.memberDisappeared(id)
			}
		}
		for _, r := range replies {
			if r.Err == nil {
				m.mem.Touch(r.From)
			}
		}
	}

	for _, id := range m.mem.Expired(m.cfg.AccessTimeout) {
		m.memberDisappeared(id)
	}
}

// mapMemberAdded folds M into membership and, if it's genuinely new,
// runs the reconciliation pass every PRIMARY entry with no backups
// needs once a fresh peer becomes available to hold one. Self-announcements are ignored.
func (m *Map[K, V]) mapMemberAdded(id xport.MemberID) {
	if id == "" || id == m.self {
		return
	}
	isNew := m.mem.Add(id)
	if !isNew {
		return
	}

	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	for _, k := range m.store.keys() {
		e, ok := m.store.get(k)
		if !ok || e.Role() != meta.Primary {
			continue
		}
		if len(e.Backups()) > 0 {
			continue
		}
		value, ok := e.Value()
		if !ok {
			continue
		}
		backups := m.publishEntryInfo(k, value)
		e.SetBackups(backups)
	}
}

// memberDisappeared removes id from membership and relocates
// ownership of every entry that depended on it: a PRIMARY whose sole
// backup just vanished gets a freshly chosen replacement; a BACKUP/PROXY/COPY entry pointing at id as primary is
// promoted locally, exactly as Get would promote it on next access,
// since no one else is left to serve reads for that key.
func (m *Map[K, V]) memberDisappeared(id xport.MemberID) {
	if !m.mem.Remove(id) {
		return
	}
	m.cfg.Stats.Inc(rstats.MembersEvicted)

	for _, k := range m.store.keys() {
		e, ok := m.store.get(k)
		if !ok {
			continue
		}

		switch e.Role() {
		case meta.Primary:
			backups := e.Backups()
			still := backups[:0:0]
			for _, b := range backups {
				if b != id {
					still = append(still, b)
				}
			}
			if len(still) == len(backups) {
				continue // id wasn't one of this entry's backups
			}
			e.SetBackups(still)
			if len(still) == 0 {
				if value, ok := e.Value(); ok {
					fresh := m.publishEntryInfo(k, value)
					e.SetBackups(fresh)
				}
			}
		case meta.Backup, meta.Proxy, meta.Copy:
			if e.Primary() != id {
				continue
			}
			if _, ok := m.Get(k); !ok {
				rlog.Warningf("%s: memberDisappeared(%s): could not relocate %v locally", m.String(), id, k)
			}
		}
	}
}

// transportListener bridges the channel's transport-level membership
// events into this module's own application-level bookkeeping; a
// transport-observed disappearance triggers the same relocation a
// missed heartbeat would.
type transportListener[K comparable, V any] struct {
	m *Map[K, V]
}

func (l transportListener[K, V]) MemberAdded(id xport.MemberID)      { l.m.mapMemberAdded(id) }
func (l transportListener[K, V]) MemberDisappeared(id xport.MemberID) { l.m.memberDisappeared(id) }
