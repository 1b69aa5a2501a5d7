// Package repmap: diff replication, tested white-box so the backup's
// stored value can be inspected without going through Get's promotion
// path (which would itself hand off ownership).
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package repmap

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/NVIDIA/repmap/rmock"
)

// counterVal is a minimal Replicable value: its diff is the delta
// accumulated since the last ResetDiff.
type counterVal struct {
	mu    sync.Mutex
	total int
	delta int
	owner any
}

func (c *counterVal) mutate(n int) {
	c.mu.Lock()
	c.total += n
	c.delta += n
	c.mu.Unlock()
}

func (c *counterVal) IsDiffable() bool        { return true }
func (c *counterVal) IsDirty() bool           { c.mu.Lock(); defer c.mu.Unlock(); return c.delta != 0 }
func (c *counterVal) IsAccessReplicate() bool { return false }

func (c *counterVal) GetDiff() ([]byte, error) { return []byte(strconv.Itoa(c.delta)), nil }
func (c *counterVal) ResetDiff()               { c.delta = 0 }

func (c *counterVal) ApplyDiff(b []byte) error {
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return err
	}
	c.total += n
	return nil
}

func (c *counterVal) SetOwner(owner any)              { c.owner = owner }
func (c *counterVal) Lock()                           { c.mu.Lock() }
func (c *counterVal) Unlock()                         { c.mu.Unlock() }
func (c *counterVal) AccessEntry()                    {}
func (c *counterVal) SetLastTimeReplicated(time.Time) {}

func initTwo(t *testing.T) (*Map[string, *counterVal], *Map[string, *counterVal]) {
	t.Helper()
	hub := rmock.NewHub()
	nodeA := hub.JoinSeeded(1)
	nodeB := hub.JoinSeeded(2)

	a := New(Config[string, *counterVal]{MapID: []byte("c"), Channel: nodeA, RPC: nodeA})
	if err := a.Init(context.Background(), true); err != nil {
		t.Fatalf("init A: %v", err)
	}
	t.Cleanup(a.Breakdown)

	b := New(Config[string, *counterVal]{MapID: []byte("c"), Channel: nodeB, RPC: nodeB})
	if err := b.Init(context.Background(), true); err != nil {
		t.Fatalf("init B: %v", err)
	}
	t.Cleanup(b.Breakdown)

	return a, b
}

func TestReplicateSendsDiffToBackup(t *testing.T) {
	a, b := initTwo(t)

	primaryVal := &counterVal{}
	a.Put("k", primaryVal)

	e, ok := b.store.get("k")
	if !ok {
		t.Fatal("expected B to hold a BACKUP entry after Put")
	}
	backupVal, ok := e.Value()
	if !ok || backupVal == nil {
		t.Fatal("expected B's entry to carry the initial value")
	}

	primaryVal.mutate(3)
	primaryVal.mutate(4)
	a.Replicate("k", false)

	if got := backupVal.total; got != 7 {
		t.Fatalf("backup total after diff replicate = %d, want 7", got)
	}
	if primaryVal.delta != 0 {
		t.Fatalf("primary delta not reset after replicate: %d", primaryVal.delta)
	}
}

func TestReplicateNoopWhenNotDirty(t *testing.T) {
	a, b := initTwo(t)

	a.Put("k", &counterVal{})
	e, _ := b.store.get("k")
	backupVal, _ := e.Value()

	a.Replicate("k", false) // nothing dirty, nothing complete: no-op
	if backupVal.total != 0 {
		t.Fatalf("expected backup untouched, got total=%d", backupVal.total)
	}
}
