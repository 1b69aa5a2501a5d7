// Package repmap_test: end-to-end Put/Get/Remove across nodes wired
// through rmock, exercised only via the public API.
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package repmap_test

import (
	"context"
	"testing"
	"time"

	"github.com/NVIDIA/repmap"
	"github.com/NVIDIA/repmap/rmock"
)

func newMap(t *testing.T, node *rmock.Node) *repmap.Map[string, int] {
	t.Helper()
	m := repmap.New(repmap.Config[string, int]{
		MapID:   []byte("kv"),
		Channel: node,
		RPC:     node,
	})
	if err := m.Init(context.Background(), true); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(m.Breakdown)
	return m
}

// two joins two nodes to a fresh hub and initializes a and b in order,
// so a starts with no peers and b discovers a during its own Init.
func two(t *testing.T) (*repmap.Map[string, int], *repmap.Map[string, int]) {
	t.Helper()
	hub := rmock.NewHub()
	a := newMap(t, hub.JoinSeeded(1))
	b := newMap(t, hub.JoinSeeded(2))
	return a, b
}

func TestPutGetOnPrimary(t *testing.T) {
	a, _ := two(t)

	if _, had := a.Put("k1", 42); had {
		t.Fatal("expected no previous value")
	}
	v, ok := a.Get("k1")
	if !ok || v != 42 {
		t.Fatalf("Get: got (%d, %v), want (42, true)", v, ok)
	}
}

func TestGetPromotesBackupToPrimary(t *testing.T) {
	a, b := two(t)

	a.Put("k1", 7)
	// B should have received a BACKUP message during publishEntryInfo.
	v, ok := b.Get("k1")
	if !ok || v != 7 {
		t.Fatalf("Get on backup: got (%d, %v), want (7, true)", v, ok)
	}
}

func TestRemoveBroadcasts(t *testing.T) {
	a, b := two(t)

	a.Put("k1", 1)
	// let B observe the value as a backup before removal.
	if _, ok := b.Get("k1"); !ok {
		t.Fatal("expected B to have received the backup copy")
	}

	a.Remove("k1")
	time.Sleep(10 * time.Millisecond)
	if a.ContainsKey("k1") {
		t.Fatal("expected key removed on A")
	}
	if b.ContainsKey("k1") {
		t.Fatal("expected REMOVE broadcast to delete key on B")
	}
}

func TestSizeCountsOnlyActiveEntriesWithValues(t *testing.T) {
	a, _ := two(t)
	a.Put("k1", 1)
	a.Put("k2", 2)
	if got := a.Size(); got != 2 {
		t.Fatalf("Size() = %d, want 2", got)
	}
}

func TestContainsValueAdvisory(t *testing.T) {
	a, _ := two(t)
	a.Put("k1", 99)
	if !a.ContainsValue(99) {
		t.Fatal("expected ContainsValue(99) to be true")
	}
	if a.ContainsValue(100) {
		t.Fatal("expected ContainsValue(100) to be false")
	}
}
