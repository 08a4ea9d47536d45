// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bitlab-dev/bitlab/headerdb"
	"github.com/bitlab-dev/bitlab/peer"
	"github.com/bitlab-dev/bitlab/peerqueue"
	"github.com/bitlab-dev/bitlab/state"
)

// newTestCLI wires a CLI against in-memory collaborators and a captured
// output buffer.
func newTestCLI(t *testing.T) (*CLI, *bytes.Buffer) {
	t.Helper()

	headers, err := headerdb.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { headers.Close() })

	var out bytes.Buffer
	queue := peerqueue.New(peerqueue.DefaultCapacity)
	ctx := &Context{
		State:    state.New(),
		Ops:      state.NewOperations(),
		Queue:    queue,
		Registry: peer.NewRegistry(peer.DefaultRegistryCapacity),
		Headers:  headers,
		PeerCfg: &peer.Config{
			Queue:   queue,
			Headers: headers,
			DataDir: t.TempDir(),
		},
		Out:       NewPrinter(&out),
		Version:   "0.1.0-test",
		ForceExit: func() { t.Fatal("forced exit invoked") },
	}
	return New(ctx), &out
}

func TestExecEmptyAndUnknown(t *testing.T) {
	c, out := newTestCLI(t)

	require.Equal(t, 1, c.Exec(""))
	require.Equal(t, 1, c.Exec("   "))

	require.Equal(t, 1, c.Exec("frobnicate"))
	require.Contains(t, out.String(), "Command not found")
}

func TestEcho(t *testing.T) {
	c, out := newTestCLI(t)
	require.Equal(t, 0, c.Exec("echo hello bitcoin world"))
	require.Equal(t, "hello bitcoin world\n", out.String())
}

func TestHelp(t *testing.T) {
	c, out := newTestCLI(t)
	require.Equal(t, 0, c.Exec("help"))
	for _, name := range []string{"exit", "connect", "peerdiscovery", "getaddr"} {
		require.Contains(t, out.String(), name)
	}

	out.Reset()
	require.Equal(t, 0, c.Exec("help connect"))
	require.Contains(t, out.String(), "connect ip")

	out.Reset()
	require.Equal(t, 1, c.Exec("help nosuchcmd"))
	require.Contains(t, out.String(), "Unknown command")
}

func TestExitSetsFlag(t *testing.T) {
	c, _ := newTestCLI(t)
	require.False(t, c.ctx.State.ExitFlag())
	require.Equal(t, 0, c.Exec("exit"))
	require.True(t, c.ctx.State.ExitFlag())
}

// TestUsageErrorsHaveNoSideEffects walks the usage-error paths of the
// argument-taking commands.
func TestUsageErrorsHaveNoSideEffects(t *testing.T) {
	c, out := newTestCLI(t)

	tests := []string{
		"connect",              // missing ip
		"connect not-an-ip",    // not numeric
		"disconnect",           // missing index
		"disconnect x",         // not an index
		"getaddr",              // missing index
		"getheaders",           // missing index
		"getdata 0",            // missing hashes
		"sendtx 0",             // missing bytes
		"ping",                 // missing host
		"ping -c x 1.1.1.1",    // bad count
		"queue --flush",        // unknown flag
		"peerdiscovery -h -l",  // exclusive sources
		"peerdiscovery -x",     // unknown flag
	}
	for _, line := range tests {
		out.Reset()
		require.Equal(t, 1, c.Exec(line), "line %q", line)
	}

	require.True(t, c.ctx.Queue.IsEmpty())
	require.False(t, c.ctx.State.ExitFlag())
}

func TestOperationCommandsRequireConnectedPeer(t *testing.T) {
	c, out := newTestCLI(t)

	for _, line := range []string{"getaddr 0", "getheaders 3", "disconnect 42"} {
		out.Reset()
		require.Equal(t, 1, c.Exec(line), "line %q", line)
		require.Contains(t, out.String(), "No connected peer")
	}
}

func TestQueueCommand(t *testing.T) {
	c, out := newTestCLI(t)

	require.Equal(t, 0, c.Exec("queue"))
	require.Contains(t, out.String(), "Peer queue is empty")

	c.ctx.Queue.Push("1.2.3.4", 8333)
	out.Reset()
	require.Equal(t, 0, c.Exec("queue"))
	require.Contains(t, out.String(), "1.2.3.4:8333")

	out.Reset()
	require.Equal(t, 0, c.Exec("queue --clear"))
	require.True(t, c.ctx.Queue.IsEmpty())
}

// TestPeerDiscoveryLatched covers the argument-less invocation with a
// latched success: print the queue, do not re-run.
func TestPeerDiscoveryLatched(t *testing.T) {
	c, out := newTestCLI(t)

	// Latch a finished successful attempt.
	require.NoError(t, c.ctx.Ops.RequestDiscovery(
		state.DiscoveryConfig{HardcodedSeeds: true}))
	require.True(t, c.ctx.Ops.StartDiscoveryProgress())
	c.ctx.Queue.Push("5.6.7.8", 8333)
	c.ctx.Ops.FinishDiscoveryProgress(true)

	require.Equal(t, 0, c.Exec("peerdiscovery"))
	require.Contains(t, out.String(), "5.6.7.8:8333")

	// No new attempt was requested.
	_, requested := c.ctx.Ops.DiscoveryRequested()
	require.False(t, requested)
}

func TestPeerDiscoveryNoResults(t *testing.T) {
	c, out := newTestCLI(t)
	require.Equal(t, 1, c.Exec("peerdiscovery"))
	require.Contains(t, out.String(), "No discovery results")
}

// TestPeerDiscoveryDaemon requests a daemon-mode attempt and checks the
// command returns without waiting.
func TestPeerDiscoveryDaemon(t *testing.T) {
	c, out := newTestCLI(t)

	require.Equal(t, 0, c.Exec("peerdiscovery -d -h"))
	require.Contains(t, out.String(), "Peer discovery started")

	cfg, requested := c.ctx.Ops.DiscoveryRequested()
	require.True(t, requested)
	require.True(t, cfg.HardcodedSeeds)
	require.True(t, cfg.Daemon)
}

func TestInfo(t *testing.T) {
	c, out := newTestCLI(t)
	require.Equal(t, 0, c.Exec("info"))
	s := out.String()
	require.Contains(t, s, "PID:")
	require.Contains(t, s, "Connected peers: 0")
	require.Contains(t, s, "Queued candidates: 0")
}

func TestList(t *testing.T) {
	c, out := newTestCLI(t)
	require.Equal(t, 0, c.Exec("list"))
	require.Contains(t, out.String(), "No connected peers")
}

func TestSendTxRequiresPeer(t *testing.T) {
	c, out := newTestCLI(t)
	require.Equal(t, 1, c.Exec("sendtx 0 ffff"))
	require.Contains(t, out.String(), "No connected peer")
}
