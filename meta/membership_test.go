// Package meta_test: Membership registry invariants.
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package meta_test

import (
	"time"

	"github.com/NVIDIA/repmap/meta"
	"github.com/NVIDIA/repmap/xport"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Membership", func() {
	It("reports new members exactly once", func() {
		m := meta.NewMembership()
		Expect(m.Add("A")).To(BeTrue())
		Expect(m.Add("A")).To(BeFalse())
		Expect(m.Size()).To(Equal(1))
	})

	It("evicts a member whose last-heard age exceeds the timeout", func() {
		m := meta.NewMembership()
		m.Add("A")
		time.Sleep(5 * time.Millisecond)
		stale := m.Expired(time.Millisecond)
		Expect(stale).To(ConsistOf(xport.MemberID("A")))

		// Expired doesn't remove by itself.
		Expect(m.Contains("A")).To(BeTrue())
		Expect(m.Remove("A")).To(BeTrue())
		Expect(m.Contains("A")).To(BeFalse())
	})

	It("advances the round-robin cursor with wraparound", func() {
		m := meta.NewMembership()
		Expect(m.AdvanceCursor(3)).To(Equal(0))
		Expect(m.AdvanceCursor(3)).To(Equal(1))
		Expect(m.AdvanceCursor(3)).To(Equal(2))
		// node (3) >= size (3): wraps to 0, cursor reset to 1
		Expect(m.AdvanceCursor(3)).To(Equal(0))
		Expect(m.AdvanceCursor(3)).To(Equal(1))
	})
})
