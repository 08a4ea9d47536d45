// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peerqueue

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueueDedup(t *testing.T) {
	q := New(DefaultCapacity)
	q.Push("1.2.3.4", 8333)
	q.Push("1.2.3.4", 8333)
	q.Push("1.2.3.5", 8333)

	want := []Candidate{
		{IP: "1.2.3.4", Port: 8333},
		{IP: "1.2.3.5", Port: 8333},
	}
	require.Equal(t, want, q.Snapshot())
}

func TestQueueSameIPDifferentPort(t *testing.T) {
	q := New(DefaultCapacity)
	q.Push("1.2.3.4", 8333)
	q.Push("1.2.3.4", 18333)
	require.Equal(t, 2, q.Len())
}

func TestQueueFIFO(t *testing.T) {
	q := New(DefaultCapacity)
	q.Push("1.1.1.1", 8333)
	q.Push("2.2.2.2", 8333)

	c, ok := q.Pop()
	require.True(t, ok)
	require.Equal(t, "1.1.1.1", c.IP)

	c, ok = q.Pop()
	require.True(t, ok)
	require.Equal(t, "2.2.2.2", c.IP)

	_, ok = q.Pop()
	require.False(t, ok)
	require.True(t, q.IsEmpty())
}

// TestQueueHostPortSplit covers the hardcoded-seed format where the port
// travels inside the address string.
func TestQueueHostPortSplit(t *testing.T) {
	q := New(DefaultCapacity)
	q.Push("23.84.108.213:8333", 0)

	c, ok := q.Pop()
	require.True(t, ok)
	require.Equal(t, Candidate{IP: "23.84.108.213", Port: 8333}, c)

	// No colon means no port to extract; the candidate is dropped.
	q.Push("23.84.108.213", 0)
	require.True(t, q.IsEmpty())
}

// TestQueueFullDrop fills the queue and checks that the overflowing
// candidate is dropped without disturbing existing entries.
func TestQueueFullDrop(t *testing.T) {
	const capacity = 8
	q := New(capacity)
	for i := 0; i < capacity; i++ {
		q.Push(fmt.Sprintf("10.0.0.%d", i), 8333)
	}
	require.Equal(t, capacity, q.Len())

	q.Push("192.0.2.1", 8333)
	require.Equal(t, capacity, q.Len())

	snap := q.Snapshot()
	require.Equal(t, "10.0.0.0", snap[0].IP)
	require.Equal(t, fmt.Sprintf("10.0.0.%d", capacity-1),
		snap[capacity-1].IP)
}

func TestQueueClear(t *testing.T) {
	q := New(DefaultCapacity)
	q.Push("1.1.1.1", 8333)
	q.Clear()
	require.True(t, q.IsEmpty())
	require.Empty(t, q.Snapshot())

	// The queue stays usable after a clear.
	q.Push("1.1.1.1", 8333)
	require.Equal(t, 1, q.Len())
}

// TestQueueWrapAround exercises the ring indices across a full cycle.
func TestQueueWrapAround(t *testing.T) {
	const capacity = 4
	q := New(capacity)
	for round := 0; round < 3; round++ {
		for i := 0; i < capacity; i++ {
			q.Push(fmt.Sprintf("10.%d.0.%d", round, i), 8333)
		}
		for i := 0; i < capacity; i++ {
			c, ok := q.Pop()
			require.True(t, ok)
			require.Equal(t, fmt.Sprintf("10.%d.0.%d", round, i), c.IP)
		}
	}
}
