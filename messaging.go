// Package repmap: message envelope construction, encode/send helpers.
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package repmap

import (
	"time"

	"github.com/NVIDIA/repmap/meta"
	"github.com/NVIDIA/repmap/rlog"
	"github.com/NVIDIA/repmap/xport"
)

func (m *Map[K, V]) encode(msg *meta.Message[K]) ([]byte, error) {
	return m.cfg.Codec.Serialize(msg)
}

func (m *Map[K, V]) decode(body []byte) (*meta.Message[K], error) {
	var msg meta.Message[K]
	if err := m.cfg.Codec.Deserialize(body, m.cfg.Resolvers, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (m *Map[K, V]) keyRaw(key K) ([]byte, error) { return m.cfg.Codec.Serialize(key) }
func (m *Map[K, V]) valRaw(val V) ([]byte, error) { return m.cfg.Codec.Serialize(val) }

func (m *Map[K, V]) newMsg(t meta.MessageType) *meta.Message[K] {
	return &meta.Message[K]{MapID: m.cfg.MapID, Type: t, Primary: m.self}
}

// send is one-way, best-effort.
func (m *Map[K, V]) send(to xport.MemberID, msg *meta.Message[K]) error {
	body, err := m.encode(msg)
	if err != nil {
		return err
	}
	return m.cfg.Channel.Send(to, body, m.cfg.SendOpts)
}

func (m *Map[K, V]) call(to []xport.MemberID, msg *meta.Message[K], mode xport.ReplyMode, timeout time.Duration) ([]xport.Reply, error) {
	body, err := m.encode(msg)
	if err != nil {
		return nil, err
	}
	return m.cfg.RPC.Call(to, body, mode, m.cfg.SendOpts, timeout)
}

func (m *Map[K, V]) sendBestEffort(to xport.MemberID, msg *meta.Message[K], verb string) {
	if err := m.send(to, msg); err != nil {
		rlog.Warningf("%s: %s to %s: %v", m.String(), verb, to, err)
	}
}

// sendBackup ships the full value (or, if diff is set, just the diff
// bytes) for key to the chosen backup.
func (m *Map[K, V]) sendBackup(to xport.MemberID, key K, value V, diff bool, diffBytes []byte, backups []xport.MemberID) error {
	kraw, err := m.keyRaw(key)
	if err != nil {
		return err
	}
	msg := m.newMsg(meta.MsgBackup)
	msg.KeyRaw = kraw
	msg.Diff = diff
	msg.Backups = backups
	if diff {
		msg.DiffBytes = diffBytes
	} else {
		vraw, err := m.valRaw(value)
		if err != nil {
			return err
		}
		msg.ValueRaw = vraw
	}
	return m.send(to, msg)
}

// sendProxy ships a lazy locator (no value) to to.
func (m *Map[K, V]) sendProxy(to xport.MemberID, key K, primary xport.MemberID, backups []xport.MemberID) error {
	kraw, err := m.keyRaw(key)
	if err != nil {
		return err
	}
	msg := m.newMsg(meta.MsgProxy)
	msg.KeyRaw = kraw
	msg.Primary = primary
	msg.Backups = backups
	return m.send(to, msg)
}

func (m *Map[K, V]) sendRemove(to xport.MemberID, key K) error {
	kraw, err := m.keyRaw(key)
	if err != nil {
		return err
	}
	msg := m.newMsg(meta.MsgRemove)
	msg.KeyRaw = kraw
	return m.send(to, msg)
}

func (m *Map[K, V]) sendAccess(to xport.MemberID, key K, primary xport.MemberID, backups []xport.MemberID) error {
	kraw, err := m.keyRaw(key)
	if err != nil {
		return err
	}
	msg := m.newMsg(meta.MsgAccess)
	msg.KeyRaw = kraw
	msg.Primary = primary
	msg.Backups = backups
	return m.send(to, msg)
}

func (m *Map[K, V]) sendNotify(to xport.MemberID, key K, primary xport.MemberID, backups []xport.MemberID) error {
	kraw, err := m.keyRaw(key)
	if err != nil {
		return err
	}
	msg := m.newMsg(meta.MsgNotifyMapMember)
	msg.KeyRaw = kraw
	msg.Primary = primary
	msg.Backups = backups
	return m.send(to, msg)
}
