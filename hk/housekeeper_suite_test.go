// Package hk_test: Registry scheduling behavior.
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package hk_test

import (
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/NVIDIA/repmap/hk"
)

func TestHousekeeper(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, t.Name())
}

var _ = Describe("Registry", func() {
	var r *hk.Registry

	BeforeEach(func() {
		r = hk.New()
	})

	AfterEach(func() {
		r.Stop()
	})

	It("runs a registered job on its interval", func() {
		var calls int32
		r.Reg("tick", 10*time.Millisecond, func() { atomic.AddInt32(&calls, 1) })
		Eventually(func() int32 { return atomic.LoadInt32(&calls) }, time.Second).Should(BeNumerically(">=", 2))
	})

	It("stops a job on Unreg", func() {
		var calls int32
		r.Reg("tick", 10*time.Millisecond, func() { atomic.AddInt32(&calls, 1) })
		Eventually(func() int32 { return atomic.LoadInt32(&calls) }, time.Second).Should(BeNumerically(">=", 1))
		r.Unreg("tick")
		after := atomic.LoadInt32(&calls)
		time.Sleep(50 * time.Millisecond)
		Expect(atomic.LoadInt32(&calls)).To(Equal(after))
	})

	It("replaces a job re-registered under the same name", func() {
		var first, second int32
		r.Reg("tick", 10*time.Millisecond, func() { atomic.AddInt32(&first, 1) })
		r.Reg("tick", 10*time.Millisecond, func() { atomic.AddInt32(&second, 1) })
		time.Sleep(50 * time.Millisecond)
		Expect(atomic.LoadInt32(&first)).To(Equal(int32(0)))
		Expect(atomic.LoadInt32(&second)).To(BeNumerically(">", 0))
	})

	It("Stop waits for every job goroutine to exit", func() {
		var calls int32
		r.Reg("tick", 5*time.Millisecond, func() { atomic.AddInt32(&calls, 1) })
		time.Sleep(20 * time.Millisecond)
		r.Stop()
		after := atomic.LoadInt32(&calls)
		time.Sleep(30 * time.Millisecond)
		Expect(atomic.LoadInt32(&calls)).To(Equal(after))
	})
})
