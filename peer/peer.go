// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package peer implements the per-peer session state machine: the
// version/verack handshake, the background receive loop with keep-alive,
// and the synchronous operation requests that temporarily take exclusive
// I/O rights on a peer's socket.
package peer

import (
	"bufio"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/decred/dcrd/lru"

	"github.com/bitlab-dev/bitlab/headerdb"
	"github.com/bitlab-dev/bitlab/peerqueue"
	"github.com/bitlab-dev/bitlab/wire"
)

const (
	// DefaultPort is the TCP port dialed when none is given.
	DefaultPort = 8333

	// handshakeTimeout bounds the dial and each handshake send/receive.
	handshakeTimeout = 3 * time.Second

	// handshakeAttempts is how many receive iterations the handshake
	// performs before giving up.
	handshakeAttempts = 4

	// sessionReadTimeout bounds each receive in the session loop.
	sessionReadTimeout = 5 * time.Second

	// pingInterval is how often the session sends a keep-alive ping.
	pingInterval = 5 * time.Second

	// operationYield is how long the session loop sleeps before
	// re-checking the operation baton.
	operationYield = 100 * time.Millisecond

	// maxKnownInventory is the number of recently advertised inventory
	// hashes remembered per peer to suppress duplicate getdata requests.
	maxKnownInventory = 1000

	// blocksFileName and dataFileName hold the raw bytes of the last
	// getblocks/getdata responses, replayed on the corresponding inbound
	// requests.
	blocksFileName = "blocks.dat"
	dataFileName   = "data.dat"
)

var (
	// ErrNotConnected is returned for operations against a peer whose
	// session has ended.
	ErrNotConnected = errors.New("peer is not connected")

	// ErrOperationInProgress is returned when an operation is requested
	// while another one holds the peer's socket.
	ErrOperationInProgress = errors.New("operation already in progress")

	// ErrNoResponse is returned when an operation exhausts its retry
	// budget without the expected reply.
	ErrNoResponse = errors.New("no response from peer")

	// ErrHandshakeFailed is returned when the version/verack exchange
	// does not complete.
	ErrHandshakeFailed = errors.New("handshake failed")
)

// Config holds the collaborators and settings shared by every peer
// session.
type Config struct {
	// Net is the network every message is framed for. Defaults to
	// MainNet.
	Net wire.BitcoinNet

	// Queue receives peer candidates from inbound addr records and
	// serves inbound getaddr requests.
	Queue *peerqueue.Queue

	// Headers serves inbound getheaders and receives headers appended by
	// the getheaders operation.
	Headers *headerdb.Store

	// DataDir is where blocks.dat and data.dat live.
	DataDir string

	// Dial opens the outbound TCP connection. Defaults to
	// net.DialTimeout with ConnectTimeout. A SOCKS proxy dialer slots in
	// here.
	Dial func(network, address string) (net.Conn, error)

	// ConnectTimeout bounds the outbound dial. Defaults to the
	// handshake timeout.
	ConnectTimeout time.Duration

	// Port is the TCP port dialed. Defaults to DefaultPort.
	Port uint16
}

func (cfg *Config) net() wire.BitcoinNet {
	if cfg.Net == 0 {
		return wire.MainNet
	}
	return cfg.Net
}

func (cfg *Config) port() uint16 {
	if cfg.Port == 0 {
		return DefaultPort
	}
	return cfg.Port
}

func (cfg *Config) connectTimeout() time.Duration {
	if cfg.ConnectTimeout <= 0 {
		return handshakeTimeout
	}
	return cfg.ConnectTimeout
}

func (cfg *Config) dial(address string) (net.Conn, error) {
	if cfg.Dial != nil {
		return cfg.Dial("tcp", address)
	}
	return net.DialTimeout("tcp", address, cfg.connectTimeout())
}

func (cfg *Config) filePath(name string) string {
	return filepath.Join(cfg.DataDir, name)
}

// Peer is a live session with a remote node. The session goroutine owns
// the socket except while an operation holds the baton.
type Peer struct {
	cfg  *Config
	ip   string
	port uint16
	conn net.Conn
	br   *bufio.Reader

	// connected is the authoritative liveness flag: true iff the socket
	// is open and the session goroutine is running (or about to be
	// started by Connect's caller).
	connected atomic.Bool

	// operationInProgress is the baton guarding the socket between the
	// session goroutine and the command thread. reading reports whether
	// the session loop is inside a receive, so an operation can wait for
	// the hand-off to complete.
	operationInProgress atomic.Bool
	reading             atomic.Bool

	// sendMtx serializes writes to the socket.
	sendMtx sync.Mutex

	// Remembered version handshake fields.
	services  wire.ServiceFlag
	userAgent string

	// Remembered sendcmpct and feefilter values.
	compactMtx      sync.Mutex
	compactAnnounce bool
	compactVersion  uint64
	feeRate         atomic.Uint64

	knownInv lru.Cache

	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Connect dials ip on the configured port and performs the
// version/verack handshake. On success the returned peer is connected but
// its session loop is not yet running; the caller registers the peer and
// calls Start. On failure the socket is closed and no peer is returned.
func Connect(cfg *Config, ip string) (*Peer, error) {
	p := &Peer{
		cfg:      cfg,
		ip:       ip,
		port:     cfg.port(),
		knownInv: lru.NewCache(maxKnownInventory),
		quit:     make(chan struct{}),
	}

	address := net.JoinHostPort(ip, strconv.Itoa(int(p.port)))
	conn, err := cfg.dial(address)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", address, err)
	}
	p.conn = conn
	p.br = bufio.NewReader(conn)

	if err := p.handshake(); err != nil {
		conn.Close()
		return nil, err
	}

	p.connected.Store(true)
	log.Infof("Connected to peer %s", address)
	return p, nil
}

// handshake sends our version and loops over receives until the peer's
// verack arrives. Timeouts and decode failures within the attempt budget
// are recoverable; any other error ends the handshake.
func (p *Peer) handshake() error {
	you := wire.NewNetAddressIPPort(net.ParseIP(p.ip), p.port, 0)
	me := wire.NewNetAddressIPPort(net.IPv4zero, p.port, 0)
	version := wire.NewMsgVersion(you, me, rand.Uint64())

	if err := p.writeMessage(version, handshakeTimeout); err != nil {
		return fmt.Errorf("send version: %w", err)
	}
	log.Debugf("Sent version to %s", p.ip)

	sawVersion := false
	for i := 0; i < handshakeAttempts; i++ {
		p.conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
		msg, _, err := wire.ReadMessage(p.br, p.cfg.net())
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			var msgErr *wire.MessageError
			if errors.As(err, &msgErr) {
				log.Debugf("Handshake decode failure from %s: %v", p.ip, err)
				continue
			}
			return fmt.Errorf("handshake receive: %w", err)
		}

		switch m := msg.(type) {
		case *wire.MsgVersion:
			sawVersion = true
			p.services = m.Services
			p.userAgent = m.UserAgent
			if err := p.writeMessage(wire.NewMsgVerAck(), handshakeTimeout); err != nil {
				return fmt.Errorf("send verack: %w", err)
			}
			log.Debugf("Sent verack to %s", p.ip)

		case *wire.MsgVerAck:
			if !sawVersion {
				log.Debugf("Peer %s acknowledged before sending version", p.ip)
			}
			return nil

		default:
			log.Debugf("Ignoring %s from %s during handshake",
				msg.Command(), p.ip)
		}
	}

	return ErrHandshakeFailed
}

// Start launches the session goroutine. It must be called exactly once
// after a successful Connect.
func (p *Peer) Start() {
	p.wg.Add(1)
	go p.run()
}

// Disconnect closes the socket; the session goroutine observes the closed
// connection and terminates. Safe to call more than once.
func (p *Peer) Disconnect() {
	p.closeOnce.Do(func() {
		close(p.quit)
		p.conn.Close()
	})
	p.connected.Store(false)
}

// WaitForShutdown blocks until the session goroutine has exited.
func (p *Peer) WaitForShutdown() {
	p.wg.Wait()
}

// writeMessage frames and writes msg with the given write deadline.
func (p *Peer) writeMessage(msg wire.Message, timeout time.Duration) error {
	p.sendMtx.Lock()
	defer p.sendMtx.Unlock()

	p.conn.SetWriteDeadline(time.Now().Add(timeout))
	_, err := wire.WriteMessage(p.conn, msg, p.cfg.net())
	return err
}

// writeRawMessage frames an already-serialized payload and writes it with
// the given write deadline.
func (p *Peer) writeRawMessage(command string, payload []byte, timeout time.Duration) error {
	p.sendMtx.Lock()
	defer p.sendMtx.Unlock()

	p.conn.SetWriteDeadline(time.Now().Add(timeout))
	_, err := wire.WriteRawMessage(p.conn, command, payload, p.cfg.net())
	return err
}

// IP returns the peer's IP address in dotted-quad form.
func (p *Peer) IP() string {
	return p.ip
}

// Port returns the peer's TCP port.
func (p *Peer) Port() uint16 {
	return p.port
}

// Addr returns the peer's address in "ip:port" form.
func (p *Peer) Addr() string {
	return net.JoinHostPort(p.ip, strconv.Itoa(int(p.port)))
}

// Connected reports whether the session is live.
func (p *Peer) Connected() bool {
	return p.connected.Load()
}

// OperationInProgress reports whether an operation currently holds the
// peer's socket.
func (p *Peer) OperationInProgress() bool {
	return p.operationInProgress.Load()
}

// Services returns the service flags the peer advertised in its version.
func (p *Peer) Services() wire.ServiceFlag {
	return p.services
}

// UserAgent returns the user agent the peer advertised in its version.
func (p *Peer) UserAgent() string {
	return p.userAgent
}

// FeeRate returns the minimum fee rate the peer requested via feefilter,
// in satoshi per kilobyte.
func (p *Peer) FeeRate() uint64 {
	return p.feeRate.Load()
}

// CompactBlocks returns the remembered sendcmpct announce flag and
// version.
func (p *Peer) CompactBlocks() (bool, uint64) {
	p.compactMtx.Lock()
	defer p.compactMtx.Unlock()
	return p.compactAnnounce, p.compactVersion
}

// queueSnapshot returns up to max candidates for an addr reply.
func (p *Peer) queueSnapshot(max int) []peerqueue.Candidate {
	if p.cfg.Queue == nil {
		return nil
	}
	candidates := p.cfg.Queue.Snapshot()
	if len(candidates) > max {
		candidates = candidates[:max]
	}
	return candidates
}

// headersStore returns the configured header store or nil.
func (p *Peer) headersStore() *headerdb.Store {
	return p.cfg.Headers
}
