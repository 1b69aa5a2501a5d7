// Package repmap: lifecycle and membership-driven relocation, tested
// white-box to reach memberDisappeared/mapMemberAdded directly.
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package repmap

import (
	"context"
	"testing"

	"github.com/NVIDIA/repmap/meta"
	"github.com/NVIDIA/repmap/rmock"
)

func initThree(t *testing.T) (a, b, c *Map[string, int]) {
	t.Helper()
	hub := rmock.NewHub()

	mk := func(seed uint64) *Map[string, int] {
		node := hub.JoinSeeded(seed)
		m := New(Config[string, int]{MapID: []byte("m"), Channel: node, RPC: node})
		if err := m.Init(context.Background(), true); err != nil {
			t.Fatalf("init %d: %v", seed, err)
		}
		t.Cleanup(m.Breakdown)
		return m
	}
	return mk(1), mk(2), mk(3)
}

func TestBreakdownIsIdempotent(t *testing.T) {
	a, _, _ := initThree(t)
	a.Breakdown()
	a.Breakdown() // must not panic or double-send STOP
	if a.State() != StateDestroyed {
		t.Fatalf("state = %s, want DESTROYED", a.State())
	}
}

func TestMemberDisappearedRelocatesOrphanedBackup(t *testing.T) {
	a, b, _ := initThree(t)

	a.Put("k", 5)
	if _, ok := b.store.get("k"); !ok {
		t.Fatal("expected B to hold a copy of k")
	}

	// B loses track of A; the entry B holds under A's ownership must be
	// relocated to B itself, since nobody else is left to serve it.
	b.memberDisappeared(a.self)

	e, ok := b.store.get("k")
	if !ok {
		t.Fatal("expected B to still have the entry after relocation")
	}
	if e.Role() != meta.Primary {
		t.Fatalf("role after relocation = %s, want primary", e.Role())
	}
	if e.Primary() != b.self {
		t.Fatalf("primary after relocation = %s, want %s", e.Primary(), b.self)
	}
}

func TestMemberDisappearedReassignsBackup(t *testing.T) {
	a, b, c := initThree(t)

	a.Put("k", 9)
	e, ok := a.store.get("k")
	if !ok {
		t.Fatal("expected A to hold the primary entry")
	}
	original := e.Backups()
	if len(original) != 1 {
		t.Fatalf("expected exactly one backup, got %v", original)
	}

	a.memberDisappeared(original[0])

	e, _ = a.store.get("k")
	fresh := e.Backups()
	if len(fresh) != 1 {
		t.Fatalf("expected a replacement backup to be assigned, got %v", fresh)
	}
	if fresh[0] == original[0] {
		t.Fatalf("expected a different backup than the one that disappeared")
	}

	_ = b
	_ = c
}
