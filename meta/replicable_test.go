// Package meta_test: a minimal Replicable value used across tests.
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package meta_test

import (
	"strconv"
	"sync"
	"time"
)

// counter is a toy Replicable value: its diff is simply the delta
// accumulated since the last ResetDiff.
type counter struct {
	mu    sync.Mutex
	total int
	delta int
	owner any
}

func (c *counter) mutate(n int) {
	c.mu.Lock()
	c.total += n
	c.delta += n
	c.mu.Unlock()
}

func (c *counter) IsDiffable() bool        { return true }
func (c *counter) IsDirty() bool           { c.mu.Lock(); defer c.mu.Unlock(); return c.delta != 0 }
func (c *counter) IsAccessReplicate() bool { return false }

func (c *counter) GetDiff() ([]byte, error) {
	return []byte(strconv.Itoa(c.delta)), nil
}

func (c *counter) ResetDiff() {
	c.delta = 0
}

func (c *counter) ApplyDiff(b []byte) error {
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return err
	}
	c.total += n
	return nil
}

func (c *counter) SetOwner(owner any) { c.owner = owner }
func (c *counter) Lock()              { c.mu.Lock() }
func (c *counter) Unlock()            { c.mu.Unlock() }
func (c *counter) AccessEntry()       {}
func (c *counter) SetLastTimeReplicated(time.Time) {}
