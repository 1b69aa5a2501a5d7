// Package repmap: construction-time configuration.
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package repmap

import (
	"time"

	"github.com/NVIDIA/repmap/codec"
	"github.com/NVIDIA/repmap/rid"
	"github.com/NVIDIA/repmap/rstats"
	"github.com/NVIDIA/repmap/xport"
)

// Config carries every construction-time parameter the lifecycle
// coordinator needs to record: context id, RPC timeout, send options,
// owner, external resolvers.
type Config[K comparable, V any] struct {
	// MapID is the short, 8-bit-clean identifier distinguishing this
	// map's messages on a shared transport channel. Generated via
	// rid.New when left empty, so callers running a single map per
	// process never need to invent one.
	MapID []byte

	Channel xport.Channel
	RPC     xport.RPC

	// Codec defaults to codec.JSON when nil.
	Codec xport.Codec
	// Resolvers is passed through to Codec.Deserialize for wire
	// compatibility with peers that need it to pick a decode target.
	Resolvers []string

	// Owner defaults to a no-op when nil.
	Owner Owner[K, V]

	// RPCTimeout bounds general RPC calls (state transfer, INIT/START
	// broadcasts, RETRIEVE_BACKUP).
	RPCTimeout time.Duration
	// AccessTimeout is both the PING RPC timeout and the membership
	// eviction threshold.
	AccessTimeout time.Duration
	// HeartbeatInterval is how often the lifecycle coordinator pings.
	HeartbeatInterval time.Duration

	// StateCopy selects STATE_COPY (full-value snapshot) over STATE
	// (proxy-only snapshot) for state transfer.
	StateCopy bool

	// Stats defaults to rstats.Noop{} when nil.
	Stats rstats.Tracker

	// SendOpts is passed through to every Channel.Send/RPC.Call.
	SendOpts xport.SendOpts

	// PublishEntryInfo overrides the backup-selection strategy — a
	// configurable function value rather than a strategy interface.
	// Defaults to round-robin single-backup selection when nil.
	PublishEntryInfo func(m *Map[K, V], key K, value V) []xport.MemberID
}

func (c *Config[K, V]) setDefaults() {
	if len(c.MapID) == 0 {
		c.MapID = []byte(rid.New())
	}
	if c.Codec == nil {
		c.Codec = codec.JSON{}
	}
	if c.Owner == nil {
		c.Owner = NoopOwner[K, V]{}
	}
	if c.Stats == nil {
		c.Stats = rstats.Noop{}
	}
	if c.RPCTimeout <= 0 {
		c.RPCTimeout = 5 * time.Second
	}
	if c.AccessTimeout <= 0 {
		c.AccessTimeout = 30 * time.Second
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = c.AccessTimeout / 3
	}
}
