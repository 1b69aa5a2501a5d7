// Package rstats exposes the operational counters this module's
// stateful subsystems carry alongside them: puts, removes, role
// promotions, backups assigned, member evictions, and RPC timeouts.
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package rstats

import "github.com/prometheus/client_golang/prometheus"

// Tracker is the narrow counter surface the replication engine and
// lifecycle coordinator write to: an Inc/Add pair, implemented here
// directly against prometheus/client_golang.
type Tracker interface {
	Inc(name string)
	Add(name string, delta int64)
}

const (
	Puts             = "puts"
	Removes          = "removes"
	Gets             = "gets"
	PromotedBackup   = "promoted_backup"
	PromotedProxy    = "promoted_proxy"
	PromotedCopy     = "promoted_copy"
	BackupsAssigned  = "backups_assigned"
	MembersEvicted   = "members_evicted"
	RPCTimeouts      = "rpc_timeouts"
	ReplicateSends   = "replicate_sends"
)

var allNames = []string{
	Puts, Removes, Gets, PromotedBackup, PromotedProxy, PromotedCopy,
	BackupsAssigned, MembersEvicted, RPCTimeouts, ReplicateSends,
}

// Prom is a Tracker backed by a prometheus.CounterVec, registered
// under a single "repmap_events_total" metric name with an "event"
// label — avoids needing a metric per counter while keeping every
// counter independently scrapeable.
type Prom struct {
	vec *prometheus.CounterVec
}

var _ Tracker = (*Prom)(nil)

// NewProm builds a Prom tracker and registers it with reg. Pass
// prometheus.NewRegistry() in tests to avoid collisions with the
// global default registry.
func NewProm(reg prometheus.Registerer, mapID string) *Prom {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "repmap_events_total",
		Help:        "Count of replicated-map lifecycle and replication events.",
		ConstLabels: prometheus.Labels{"map_id": mapID},
	}, []string{"event"})
	if reg != nil {
		reg.MustRegister(vec)
	}
	p := &Prom{vec: vec}
	for _, n := range allNames {
		p.vec.WithLabelValues(n) // pre-create so /metrics always lists every event at 0
	}
	return p
}

func (p *Prom) Inc(name string)            { p.vec.WithLabelValues(name).Inc() }
func (p *Prom) Add(name string, delta int64) { p.vec.WithLabelValues(name).Add(float64(delta)) }

// Noop discards every counter update; the zero value Noop{} is ready
// to use, so a Map constructed without an explicit Tracker is always
// safe to call into.
type Noop struct{}

var _ Tracker = Noop{}

func (Noop) Inc(string)         {}
func (Noop) Add(string, int64) {}
