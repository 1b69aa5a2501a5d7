// Package meta: the wire message envelope (component B).
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package meta

import "github.com/NVIDIA/repmap/xport"

// MessageType enumerates the envelope's tag. Values are fixed at
// 1..13 so that a peer running an older release of
// this module still decodes the subset of types it understands.
type MessageType int

const (
	MsgInit MessageType = iota + 1
	MsgStart
	MsgStop
	MsgState
	MsgStateCopy
	MsgProxy
	MsgCopy
	MsgBackup
	MsgRetrieveBackup
	MsgRemove
	MsgAccess
	MsgNotifyMapMember
	MsgPing
)

func (t MessageType) String() string {
	switch t {
	case MsgInit:
		return "INIT"
	case MsgStart:
		return "START"
	case MsgStop:
		return "STOP"
	case MsgState:
		return "STATE"
	case MsgStateCopy:
		return "STATE_COPY"
	case MsgProxy:
		return "PROXY"
	case MsgCopy:
		return "COPY"
	case MsgBackup:
		return "BACKUP"
	case MsgRetrieveBackup:
		return "RETRIEVE_BACKUP"
	case MsgRemove:
		return "REMOVE"
	case MsgAccess:
		return "ACCESS"
	case MsgNotifyMapMember:
		return "NOTIFY_MAPMEMBER"
	case MsgPing:
		return "PING"
	default:
		return "UNKNOWN"
	}
}

// Message is the tagged envelope carried over the group channel.
// KeyRaw/ValueRaw hold the pre-encoded bytes for lazy decoding; Key is
// filled in by the dispatcher the first time it's needed. PingState
// carries the sender's lifecycle state on PING messages only.
type Message[K comparable] struct {
	MapID []byte `json:"map_id"`
	Type  MessageType `json:"type"`
	Diff  bool `json:"diff,omitempty"`

	Key    K      `json:"-"` // never put on the wire directly; see KeyRaw
	KeyRaw []byte `json:"key_raw,omitempty"`

	ValueRaw  []byte `json:"value_raw,omitempty"`
	DiffBytes []byte `json:"diff_bytes,omitempty"`

	Primary   xport.MemberID   `json:"primary,omitempty"`
	Backups   []xport.MemberID `json:"backups,omitempty"`
	PingState int              `json:"ping_state,omitempty"`
}

// SameMap reports whether msg is addressed to the map identified by
// mapID — a byte-exact comparison, never interpreted.
func (msg *Message[K]) SameMap(mapID []byte) bool {
	if len(msg.MapID) != len(mapID) {
		return false
	}
	for i := range mapID {
		if msg.MapID[i] != mapID[i] {
			return false
		}
	}
	return true
}

// DecodeKey lazily decodes KeyRaw into Key using codec, caching the
// result on msg.
func (msg *Message[K]) DecodeKey(codec xport.Codec, resolvers []string) (K, error) {
	var zero K
	if msg.KeyRaw == nil {
		return msg.Key, nil
	}
	var k K
	if err := codec.Deserialize(msg.KeyRaw, resolvers, &k); err != nil {
		return zero, err
	}
	msg.Key = k
	msg.KeyRaw = nil
	return msg.Key, nil
}
