// Package rmock: a single Hub-attached node implementing
// xport.Channel and xport.RPC.
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package rmock

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/NVIDIA/repmap/xport"
)

type Node struct {
	id  xport.MemberID
	hub *Hub

	mu        sync.RWMutex
	down      bool
	responder xport.Responder
	listener  xport.MembershipListener
}

var (
	_ xport.Channel = (*Node)(nil)
	_ xport.RPC     = (*Node)(nil)
)

func (n *Node) Members() []xport.MemberID { return n.hub.roster(n.id) }
func (n *Node) LocalMember() xport.MemberID { return n.id }

func (n *Node) RegisterResponder(r xport.Responder) {
	n.mu.Lock()
	n.responder = r
	n.mu.Unlock()
}

func (n *Node) RegisterMembershipListener(l xport.MembershipListener) {
	n.mu.Lock()
	n.listener = l
	n.mu.Unlock()
}

func (n *Node) Deregister() {
	n.mu.Lock()
	n.responder = nil
	n.listener = nil
	n.mu.Unlock()
	n.hub.Leave(n.id)
}

func (n *Node) isDown() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.down
}

// deliver invokes target's responder in-process; it errors if target
// is unknown or has been severed (simulating an unreachable peer).
func (n *Node) deliver(target xport.MemberID, body []byte) ([]byte, error) {
	peer := n.hub.lookup(target)
	if peer == nil || peer.isDown() {
		return nil, errUnreachable(target)
	}
	peer.mu.RLock()
	resp := peer.responder
	peer.mu.RUnlock()
	if resp == nil {
		return nil, errUnreachable(target)
	}
	return resp(n.id, body), nil
}

func (n *Node) Send(to xport.MemberID, body []byte, _ xport.SendOpts) error {
	_, err := n.deliver(to, body)
	return err
}

// Call fans the request out to every destination concurrently and
// gathers replies until timeout. FirstReply returns as soon as any one
// destination answers without error; AllReply waits for every
// destination (success or failure) before returning. In both modes,
// any destination that never answered in time, or answered with an
// error, is reported via the returned ChannelError's FaultyMembers; a
// destination still pending when FirstReply returns early is not.
func (n *Node) Call(to []xport.MemberID, body []byte, mode xport.ReplyMode, opts xport.SendOpts, timeout time.Duration) ([]xport.Reply, error) {
	if len(to) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	repliesCh := make(chan xport.Reply, len(to))
	g, gctx := errgroup.WithContext(ctx)
	for _, id := range to {
		id := id
		g.Go(func() error {
			b, err := n.deliver(id, body)
			select {
			case repliesCh <- xport.Reply{From: id, Body: b, Err: err}:
			case <-gctx.Done():
			}
			return nil
		})
	}
	go func() { _ = g.Wait(); close(repliesCh) }()

	answered := make(map[xport.MemberID]bool, len(to))
	var replies []xport.Reply
	timedOut := false

collect:
	for {
		select {
		case r, ok := <-repliesCh:
			if !ok {
				break collect
			}
			answered[r.From] = true
			replies = append(replies, r)
			if mode == xport.FirstReply && r.Err == nil {
				break collect
			}
			if len(answered) == len(to) {
				break collect
			}
		case <-ctx.Done():
			timedOut = true
			break collect
		}
	}

	var faulty []xport.MemberID
	if timedOut {
		for _, id := range to {
			if !answered[id] {
				faulty = append(faulty, id)
			}
		}
	}
	for _, r := range replies {
		if r.Err != nil {
			faulty = append(faulty, r.From)
		}
	}
	if len(faulty) > 0 {
		return replies, &channelError{msg: "rmock: unreachable destinations", faulty: faulty}
	}
	return replies, nil
}

type channelError struct {
	msg    string
	faulty []xport.MemberID
}

func (e *channelError) Error() string                    { return e.msg }
func (e *channelError) FaultyMembers() []xport.MemberID { return e.faulty }

var _ xport.ChannelError = (*channelError)(nil)

func errUnreachable(id xport.MemberID) error {
	return &channelError{msg: "rmock: unreachable: " + string(id), faulty: []xport.MemberID{id}}
}
