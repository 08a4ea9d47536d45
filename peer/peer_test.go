// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"bufio"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/bitlab-dev/bitlab/peerqueue"
	"github.com/bitlab-dev/bitlab/wire"
)

// fakeRemote drives the far side of a net.Pipe as a scripted bitcoin
// peer.
type fakeRemote struct {
	t    *testing.T
	conn net.Conn
	br   *bufio.Reader
}

func newFakeRemote(t *testing.T, conn net.Conn) *fakeRemote {
	return &fakeRemote{t: t, conn: conn, br: bufio.NewReader(conn)}
}

func (f *fakeRemote) read() wire.Message {
	f.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	msg, _, err := wire.ReadMessage(f.br, wire.MainNet)
	if err != nil {
		f.t.Errorf("fake remote read: %v", err)
		return nil
	}
	return msg
}

func (f *fakeRemote) write(msg wire.Message) {
	f.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := wire.WriteMessage(f.conn, msg, wire.MainNet); err != nil {
		f.t.Errorf("fake remote write: %v", err)
	}
}

// answerHandshake consumes our version and completes the exchange.
func (f *fakeRemote) answerHandshake() bool {
	msg := f.read()
	if _, ok := msg.(*wire.MsgVersion); !ok {
		f.t.Errorf("fake remote: first message %T, want *wire.MsgVersion", msg)
		return false
	}

	version := wire.NewMsgVersion(
		wire.NewNetAddressIPPort(net.IPv4zero, DefaultPort, 0),
		wire.NewNetAddressIPPort(net.IPv4zero, DefaultPort, 0),
		42)
	version.UserAgent = "/FakeRemote:0.0.1/"
	version.Services = wire.SFNodeNetwork
	f.write(version)

	if msg := f.read(); msg != nil {
		if _, ok := msg.(*wire.MsgVerAck); !ok {
			f.t.Errorf("fake remote: got %T, want *wire.MsgVerAck", msg)
			return false
		}
	}
	f.write(wire.NewMsgVerAck())
	return true
}

// connectTestPeer runs Connect against a scripted remote over a pipe.
func connectTestPeer(t *testing.T, queue *peerqueue.Queue,
	script func(*fakeRemote)) *Peer {
	t.Helper()

	clientConn, serverConn := net.Pipe()
	cfg := &Config{
		Queue:   queue,
		DataDir: t.TempDir(),
		Dial: func(network, address string) (net.Conn, error) {
			return clientConn, nil
		},
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		remote := newFakeRemote(t, serverConn)
		if remote.answerHandshake() && script != nil {
			script(remote)
		}
	}()

	p, err := Connect(cfg, "203.0.113.7")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() {
		p.Disconnect()
		serverConn.Close()
		<-done
	})
	return p
}

// TestHandshake covers the success path: version out, version in, verack
// out, verack in, slot 0 connected.
func TestHandshake(t *testing.T) {
	queue := peerqueue.New(peerqueue.DefaultCapacity)
	p := connectTestPeer(t, queue, nil)

	if !p.Connected() {
		t.Fatal("peer not connected after handshake")
	}
	if p.UserAgent() != "/FakeRemote:0.0.1/" {
		t.Errorf("user agent = %q", p.UserAgent())
	}
	if !p.Services().HasFlag(wire.SFNodeNetwork) {
		t.Errorf("services = %v, want SFNodeNetwork", p.Services())
	}

	registry := NewRegistry(DefaultRegistryCapacity)
	idx, err := registry.Add(p)
	if err != nil {
		t.Fatalf("registry.Add: %v", err)
	}
	if idx != 0 {
		t.Errorf("slot = %d, want 0", idx)
	}

	got, err := registry.Get(0)
	if err != nil || got.IP() != "203.0.113.7" {
		t.Errorf("registry.Get(0) = %v, %v", got, err)
	}
}

// TestHandshakeRefused checks that a remote closing before the exchange
// finishes yields an error and no peer.
func TestHandshakeRefused(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	cfg := &Config{
		DataDir: t.TempDir(),
		Dial: func(network, address string) (net.Conn, error) {
			return clientConn, nil
		},
	}

	go func() {
		// Swallow the version, then hang up.
		remote := newFakeRemote(t, serverConn)
		remote.read()
		serverConn.Close()
	}()

	if _, err := Connect(cfg, "203.0.113.8"); err == nil {
		t.Fatal("Connect succeeded against a remote that hung up")
	}
}

// TestGetAddrExchange covers the getaddr operation end to end: one
// v4-mapped record is enqueued exactly once, the native IPv6 record is
// skipped.
func TestGetAddrExchange(t *testing.T) {
	queue := peerqueue.New(peerqueue.DefaultCapacity)
	p := connectTestPeer(t, queue, func(remote *fakeRemote) {
		msg := remote.read()
		if _, ok := msg.(*wire.MsgGetAddr); !ok {
			remote.t.Errorf("fake remote: got %T, want *wire.MsgGetAddr", msg)
			return
		}

		addr := wire.NewMsgAddr()
		addr.AddAddress(&wire.NetAddress{
			Timestamp: time.Unix(0x495fab29, 0),
			Services:  wire.SFNodeNetwork,
			IP:        net.ParseIP("8.8.8.8"),
			Port:      8333,
		})
		addr.AddAddress(&wire.NetAddress{
			Timestamp: time.Unix(0x495fab29, 0),
			Services:  wire.SFNodeNetwork,
			IP:        net.ParseIP("2001:db8::1"),
			Port:      8333,
		})
		remote.write(addr)
	})

	added, err := p.GetAddr()
	if err != nil {
		t.Fatalf("GetAddr: %v", err)
	}
	if added != 1 {
		t.Fatalf("GetAddr enqueued %d candidates, want 1", added)
	}

	want := []peerqueue.Candidate{{IP: "8.8.8.8", Port: 8333}}
	got := queue.Snapshot()
	if len(got) != 1 || got[0] != want[0] {
		t.Fatalf("queue snapshot = %v, want %v", got, want)
	}

	if p.OperationInProgress() {
		t.Fatal("operation flag not cleared")
	}
}

// TestOperationBaton checks the mutual exclusion between operations.
func TestOperationBaton(t *testing.T) {
	p := connectTestPeer(t, peerqueue.New(peerqueue.DefaultCapacity), nil)

	if err := p.beginOperation(); err != nil {
		t.Fatalf("beginOperation: %v", err)
	}
	if !p.OperationInProgress() {
		t.Fatal("operation flag not set")
	}

	if _, err := p.GetAddr(); !errors.Is(err, ErrOperationInProgress) {
		t.Fatalf("concurrent operation: got %v, want ErrOperationInProgress", err)
	}

	p.endOperation()
	if p.OperationInProgress() {
		t.Fatal("operation flag not cleared")
	}
}

// TestOperationOnDisconnectedPeer checks operations refuse a dead
// session.
func TestOperationOnDisconnectedPeer(t *testing.T) {
	p := connectTestPeer(t, peerqueue.New(peerqueue.DefaultCapacity), nil)
	p.Disconnect()

	if _, err := p.GetAddr(); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("GetAddr on dead peer: got %v, want ErrNotConnected", err)
	}
}

// TestRegistrySlotReuse checks a disconnected peer's slot is handed out
// again.
func TestRegistrySlotReuse(t *testing.T) {
	registry := NewRegistry(2)

	a := connectTestPeer(t, peerqueue.New(peerqueue.DefaultCapacity), nil)
	b := connectTestPeer(t, peerqueue.New(peerqueue.DefaultCapacity), nil)

	idxA, err := registry.Add(a)
	if err != nil || idxA != 0 {
		t.Fatalf("Add(a) = %d, %v", idxA, err)
	}
	if _, err := registry.Add(b); err != nil {
		t.Fatalf("Add(b): %v", err)
	}

	c := connectTestPeer(t, peerqueue.New(peerqueue.DefaultCapacity), nil)
	if _, err := registry.Add(c); !errors.Is(err, ErrRegistryFull) {
		t.Fatalf("Add(c) on full registry: got %v, want ErrRegistryFull", err)
	}

	a.Disconnect()
	idxC, err := registry.Add(c)
	if err != nil || idxC != 0 {
		t.Fatalf("Add(c) after disconnect = %d, %v", idxC, err)
	}

	if _, _, err := registry.ByIP(c.IP()); err != nil {
		t.Fatalf("ByIP(c): %v", err)
	}
}
