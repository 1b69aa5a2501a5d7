// Package xport declares the external collaborators this module
// consumes but does not implement: the group-communication channel,
// its RPC layer, and the value/message codec. See repmap/rmock for an
// in-process implementation used by tests, and repmap/codec for a
// default jsoniter-backed Codec.
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package xport

import "time"

// MemberID identifies a peer on the group channel.
type MemberID string

// ReplyMode selects how many replies an RPC call waits for.
type ReplyMode int

const (
	// FirstReply returns as soon as any one destination answers.
	FirstReply ReplyMode = iota
	// AllReply waits for every destination to answer or time out.
	AllReply
)

// SendOpts carries send-side knobs (compression, priority, ...). It is
// opaque to this module; concrete Channel implementations define what
// it means.
type SendOpts struct {
	Flags int
}

// Reply pairs an RPC response with the peer that sent it.
type Reply struct {
	From MemberID
	Body []byte
	Err  error
}

// ChannelError is returned by Channel/RPC operations that can name the
// subset of destinations that failed to respond; the core feeds each
// into memberDisappeared.
type ChannelError interface {
	error
	FaultyMembers() []MemberID
}

// MembershipListener receives group-membership events raised by the
// Channel's own failure detector (e.g. transport-level disappearance),
// independent of this module's application-level PING-driven eviction.
type MembershipListener interface {
	MemberAdded(MemberID)
	MemberDisappeared(MemberID)
}

// Responder is the callback a Channel/RPC layer invokes for an inbound
// one-way or request/reply message. body is the raw envelope bytes;
// the returned bytes (possibly nil) are shipped back as the RPC reply.
type Responder func(from MemberID, body []byte) []byte

// Channel is the group-communication transport this module depends on.
// It is explicitly out of scope to implement here: this
// module only ever calls these methods.
type Channel interface {
	// Members returns the set of peers the transport currently
	// considers live, excluding the local member.
	Members() []MemberID
	LocalMember() MemberID

	// Send is one-way, best-effort.
	Send(to MemberID, body []byte, opts SendOpts) error

	// RegisterResponder installs the handler invoked for every inbound
	// message (one-way or RPC) addressed to this process.
	RegisterResponder(Responder)

	// RegisterMembershipListener installs a listener for transport-level
	// membership churn.
	RegisterMembershipListener(MembershipListener)

	// Deregister undoes RegisterResponder/RegisterMembershipListener and
	// stops delivering messages to this process.
	Deregister()
}

// RPC is the request/reply layer over a Channel.
type RPC interface {
	// Call sends body to every id in to and gathers replies according to
	// mode, aborting after timeout. A ChannelError may be returned
	// alongside partial replies, naming destinations that never
	// answered.
	Call(to []MemberID, body []byte, mode ReplyMode, opts SendOpts, timeout time.Duration) ([]Reply, error)
}

// Codec serializes and deserializes keys, values, and message
// envelopes. The resolvers list is carried through for wire
// compatibility with peers that need it to pick a concrete decode
// target; this module's own Codec implementations ignore it because
// Go generics already pin the concrete type at the call site.
type Codec interface {
	Serialize(v any) ([]byte, error)
	Deserialize(data []byte, resolvers []string, out any) error
}
