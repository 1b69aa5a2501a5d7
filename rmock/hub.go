// Package rmock is an in-process implementation of xport.Channel and
// xport.RPC, used to drive multi-node scenarios deterministically
// without a real transport: minimal, stub-everything, guarded by an
// interface assertion.
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package rmock

import (
	"sync"

	"github.com/NVIDIA/repmap/rid"
	"github.com/NVIDIA/repmap/xport"
)

// Hub is the shared in-memory "network" a set of Nodes register
// themselves with.
type Hub struct {
	mu    sync.RWMutex
	nodes map[xport.MemberID]*Node
}

func NewHub() *Hub {
	return &Hub{nodes: make(map[xport.MemberID]*Node)}
}

// Join creates and registers a new Node under id.
func (h *Hub) Join(id xport.MemberID) *Node {
	n := &Node{id: id, hub: h}
	h.mu.Lock()
	h.nodes[id] = n
	h.mu.Unlock()
	return n
}

// JoinSeeded is Join with the id derived deterministically from seed
// via rid.FromSeed, so a test can stand up N nodes with reproducible,
// distinct ids instead of hand-picking member-id strings.
func (h *Hub) JoinSeeded(seed uint64) *Node {
	return h.Join(xport.MemberID(rid.FromSeed(seed)))
}

// Sever marks id as unreachable without removing it from the roster,
// so other nodes still enumerate it in Members() (simulating a
// silent/partitioned peer the heartbeat must detect) but deliveries to
// it fail until Heal.
func (h *Hub) Sever(id xport.MemberID) {
	h.mu.RLock()
	n := h.nodes[id]
	h.mu.RUnlock()
	if n != nil {
		n.mu.Lock()
		n.down = true
		n.mu.Unlock()
	}
}

func (h *Hub) Heal(id xport.MemberID) {
	h.mu.RLock()
	n := h.nodes[id]
	h.mu.RUnlock()
	if n != nil {
		n.mu.Lock()
		n.down = false
		n.mu.Unlock()
	}
}

// Leave fully removes id from the roster (models STOP's transport-level
// deregistration), so other nodes no longer see it in Members().
func (h *Hub) Leave(id xport.MemberID) {
	h.mu.Lock()
	delete(h.nodes, id)
	h.mu.Unlock()
}

func (h *Hub) roster(exclude xport.MemberID) []xport.MemberID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]xport.MemberID, 0, len(h.nodes))
	for id := range h.nodes {
		if id != exclude {
			ids = append(ids, id)
		}
	}
	return ids
}

func (h *Hub) lookup(id xport.MemberID) *Node {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.nodes[id]
}
