// Package meta_test: Entry and Role invariants.
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package meta_test

import (
	"github.com/NVIDIA/repmap/codec"
	"github.com/NVIDIA/repmap/meta"
	"github.com/NVIDIA/repmap/xport"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Entry", func() {
	const self = xport.MemberID("A")

	It("is born PRIMARY with primary == local member", func() {
		e := meta.NewPrimary[string, string]("k", "v1", self)
		Expect(e.IsPrimary()).To(BeTrue())
		Expect(e.Primary()).To(Equal(self))
		v, ok := e.Value()
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("v1"))
	})

	It("exposes exactly one active role at a time", func() {
		e := meta.NewProxy[string, string]("k", self, []xport.MemberID{"B"})
		Expect(e.IsProxy()).To(BeTrue())
		Expect(e.Active()).To(BeFalse())

		e.SetRole(meta.Backup)
		Expect(e.Active()).To(BeTrue())
		Expect(e.IsProxy()).To(BeFalse())
	})

	It("ApplyBytes with empty data marks the entry PROXY and clears the value", func() {
		e := meta.NewPrimary[string, string]("k", "v1", self)
		Expect(e.ApplyBytes(nil, false, codec.JSON{}, nil)).To(Succeed())
		Expect(e.IsProxy()).To(BeTrue())
		_, ok := e.Value()
		Expect(ok).To(BeFalse())
	})

	It("ApplyBytes decodes a whole value when not a diff", func() {
		e := meta.NewProxy[string, string]("k", self, nil)
		raw, err := codec.JSON{}.Serialize("hello")
		Expect(err).NotTo(HaveOccurred())
		Expect(e.ApplyBytes(raw, false, codec.JSON{}, nil)).To(Succeed())
		v, ok := e.Value()
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("hello"))
	})

	It("round-trips a diff through a Replicable value under lock", func() {
		primaryVal := &counter{}
		primaryVal.mutate(3)
		diff, err := primaryVal.GetDiff()
		Expect(err).NotTo(HaveOccurred())
		primaryVal.ResetDiff()

		backupVal := &counter{}
		e := meta.NewPrimary[string, *counter]("k", backupVal, self)
		Expect(e.ApplyBytes(diff, true, codec.JSON{}, nil)).To(Succeed())
		v, _ := e.Value()
		Expect(v.total).To(Equal(3))
	})
})

var _ = Describe("Role", func() {
	It("treats every role but Proxy as active", func() {
		Expect(meta.Primary.Active()).To(BeTrue())
		Expect(meta.Backup.Active()).To(BeTrue())
		Expect(meta.Copy.Active()).To(BeTrue())
		Expect(meta.Proxy.Active()).To(BeFalse())
	})
})
