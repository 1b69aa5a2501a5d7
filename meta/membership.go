// Package meta: the membership registry (component C).
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package meta

import (
	"sync"
	"time"

	"github.com/NVIDIA/repmap/xport"
)

// Membership is the set of peer map-members with last-heard
// timestamps. A peer is live while now-last <=
// accessTimeout. The currentNode cursor used by the round-robin
// backup-selection strategy is modified under this same mutex, since
// advancing it requires a consistent read of the live-set size.
type Membership struct {
	mu          sync.RWMutex
	peers       map[xport.MemberID]time.Time
	currentNode int
}

func NewMembership() *Membership {
	return &Membership{peers: make(map[xport.MemberID]time.Time)}
}

// Add records id as heard-from now if it wasn't already a member;
// returns true if this is the first time id was seen.
func (m *Membership) Add(id xport.MemberID) (isNew bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, existed := m.peers[id]
	m.peers[id] = time.Now()
	return !existed
}

// Touch refreshes id's last-heard timestamp without reporting novelty;
// a no-op if id is not a member.
func (m *Membership) Touch(id xport.MemberID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.peers[id]; ok {
		m.peers[id] = time.Now()
	}
}

// Remove deletes id; it reports whether id had been a member.
func (m *Membership) Remove(id xport.MemberID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.peers[id]
	delete(m.peers, id)
	return ok
}

func (m *Membership) Contains(id xport.MemberID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.peers[id]
	return ok
}

// Live returns every member id, regardless of timestamp — liveness
// beyond "currently registered" is enforced by the heartbeat's
// periodic eviction (Expired), so by construction every member in the
// registry is live at the time it's read.
func (m *Membership) Live() []xport.MemberID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]xport.MemberID, 0, len(m.peers))
	for id := range m.peers {
		ids = append(ids, id)
	}
	return ids
}

func (m *Membership) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.peers)
}

// Expired returns the members whose last-heard age exceeds timeout,
// without removing them — the caller (the lifecycle coordinator's
// heartbeat) is responsible for running memberDisappeared on each so
// that entry failover happens as part of eviction.
func (m *Membership) Expired(timeout time.Duration) []xport.MemberID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now()
	var stale []xport.MemberID
	for id, last := range m.peers {
		if now.Sub(last) > timeout {
			stale = append(stale, id)
		}
	}
	return stale
}

// AdvanceCursor implements the exact tie-breaking protocol required
// so that several nodes starting from the same state pick similar
// backups: read size, pick node = currentNode++; if node >= size,
// reset to node=0, currentNode=1.
func (m *Membership) AdvanceCursor(size int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	node := m.currentNode
	m.currentNode++
	if node >= size {
		node = 0
		m.currentNode = 1
	}
	return node
}
