// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"errors"
	"sync"
)

// DefaultRegistryCapacity is the default number of live peer slots.
const DefaultRegistryCapacity = 100

var (
	// ErrRegistryFull is returned when every slot holds a connected
	// peer.
	ErrRegistryFull = errors.New("peer registry is full")

	// ErrNoSuchPeer is returned for lookups that do not resolve to a
	// connected peer.
	ErrNoSuchPeer = errors.New("no such peer")
)

// Registry is the fixed-capacity table of live peer sessions. Slots are
// reused: a slot whose peer has disconnected is handed out again by the
// next Add.
type Registry struct {
	mtx   sync.Mutex
	slots []*Peer
}

// NewRegistry returns an empty registry with the given number of slots.
// A capacity below one falls back to DefaultRegistryCapacity.
func NewRegistry(capacity int) *Registry {
	if capacity < 1 {
		capacity = DefaultRegistryCapacity
	}
	return &Registry{
		slots: make([]*Peer, capacity),
	}
}

// Add stores p in the first free slot and returns its index.
func (r *Registry) Add(p *Peer) (int, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	for i, slot := range r.slots {
		if slot == nil || !slot.Connected() {
			r.slots[i] = p
			return i, nil
		}
	}
	return 0, ErrRegistryFull
}

// Get returns the connected peer at the given index.
func (r *Registry) Get(idx int) (*Peer, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if idx < 0 || idx >= len(r.slots) {
		return nil, ErrNoSuchPeer
	}
	p := r.slots[idx]
	if p == nil || !p.Connected() {
		return nil, ErrNoSuchPeer
	}
	return p, nil
}

// ByIP returns the first connected peer with the given IP address and its
// slot index. The scan is linear; the table is small.
func (r *Registry) ByIP(ip string) (*Peer, int, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	for i, p := range r.slots {
		if p != nil && p.Connected() && p.IP() == ip {
			return p, i, nil
		}
	}
	return nil, 0, ErrNoSuchPeer
}

// Snapshot returns the slot table as-is; empty slots are nil. The
// returned slice is a copy.
func (r *Registry) Snapshot() []*Peer {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	out := make([]*Peer, len(r.slots))
	copy(out, r.slots)
	return out
}

// DisconnectAll closes every connected peer and waits for the session
// goroutines to exit.
func (r *Registry) DisconnectAll() {
	for _, p := range r.Snapshot() {
		if p != nil && p.Connected() {
			p.Disconnect()
			p.WaitForShutdown()
		}
	}
}
