// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/bitlab-dev/bitlab/wire"
)

const (
	// operationReadTimeout bounds each receive inside an operation.
	operationReadTimeout = 3 * time.Second

	// operationAttempts is the bounded retry count per operation read.
	operationAttempts = 4

	// headersWaitTimeout and blocksWaitTimeout bound the overall wait for
	// a getheaders/getblocks response.
	headersWaitTimeout = 10 * time.Second
	blocksWaitTimeout  = 10 * time.Second
)

// beginOperation takes the socket baton from the session goroutine. It
// fails when the peer is not connected or another operation holds the
// baton, and otherwise waits for any in-flight session receive to finish
// so the two never read concurrently.
func (p *Peer) beginOperation() error {
	if !p.connected.Load() {
		return ErrNotConnected
	}
	if !p.operationInProgress.CompareAndSwap(false, true) {
		return ErrOperationInProgress
	}

	// The session loop checks the baton before each receive; wait out a
	// receive that was already in flight.
	for p.reading.Load() {
		time.Sleep(10 * time.Millisecond)
	}
	return nil
}

// endOperation returns the socket baton to the session goroutine.
func (p *Peer) endOperation() {
	p.operationInProgress.Store(false)
}

// readResponse reads framed messages until wanted returns true for one,
// the retry budget is exhausted, or the deadline passes. Recoverable
// decode errors and unexpected commands consume an attempt; connection
// errors end the session.
func (p *Peer) readResponse(deadline time.Time,
	wanted func(wire.Message) bool) (wire.Message, []byte, error) {

	for attempt := 0; attempt < operationAttempts; attempt++ {
		if !time.Now().Before(deadline) {
			break
		}

		readDeadline := time.Now().Add(operationReadTimeout)
		if readDeadline.After(deadline) {
			readDeadline = deadline
		}
		p.conn.SetReadDeadline(readDeadline)

		msg, raw, err := wire.ReadMessage(p.br, p.cfg.net())
		if err != nil {
			var netErr net.Error
			switch {
			case errors.As(err, &netErr) && netErr.Timeout():
				continue

			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
				p.Disconnect()
				return nil, nil, ErrNotConnected

			case isMessageError(err):
				log.Warnf("Dropping malformed message from %s: %v",
					p.Addr(), err)
				continue

			default:
				p.Disconnect()
				return nil, nil, err
			}
		}

		if wanted(msg) {
			return msg, raw, nil
		}
		log.Debugf("Ignoring %s from %s while waiting for a response",
			msg.Command(), p.Addr())
	}

	return nil, nil, ErrNoResponse
}

// GetAddr sends a getaddr and waits for the addr reply, enqueueing every
// routable IPv4 record into the peer queue. It returns the number of
// candidates enqueued.
func (p *Peer) GetAddr() (int, error) {
	if err := p.beginOperation(); err != nil {
		return 0, err
	}
	defer p.endOperation()

	if err := p.writeMessage(wire.NewMsgGetAddr(), operationReadTimeout); err != nil {
		return 0, fmt.Errorf("send getaddr: %w", err)
	}

	deadline := time.Now().Add(
		time.Duration(operationAttempts) * operationReadTimeout)
	msg, _, err := p.readResponse(deadline, func(m wire.Message) bool {
		_, ok := m.(*wire.MsgAddr)
		return ok
	})
	if err != nil {
		return 0, err
	}

	addr := msg.(*wire.MsgAddr)
	var added int
	for _, na := range addr.AddrList {
		if !na.IsIPv4() {
			log.Infof("Skipping non-IPv4 address %v from %s", na.IP, p.Addr())
			continue
		}
		ip := na.IP.To4()
		if ip.Equal(net.IPv4zero) {
			log.Debugf("Skipping 0.0.0.0 from %s", p.Addr())
			continue
		}
		if ip.IsPrivate() {
			log.Debugf("Skipping private address %v from %s", ip, p.Addr())
			continue
		}
		p.cfg.Queue.Push(ip.String(), na.Port)
		added++
	}

	log.Infof("Peer %s returned %d addresses, enqueued %d",
		p.Addr(), len(addr.AddrList), added)
	return added, nil
}

// locator builds the one-entry block locator from the header store tip.
// An empty store yields the all-zero genesis sentinel.
func (p *Peer) locator() (chainhash.Hash, error) {
	if p.cfg.Headers == nil {
		return chainhash.Hash{}, nil
	}
	return p.cfg.Headers.LatestHash()
}

// GetHeaders sends a getheaders built from the header store tip and
// appends every header of the reply to the store. It returns the number
// of headers appended.
func (p *Peer) GetHeaders() (int, error) {
	if err := p.beginOperation(); err != nil {
		return 0, err
	}
	defer p.endOperation()

	tip, err := p.locator()
	if err != nil {
		return 0, err
	}

	req := wire.NewMsgGetHeaders()
	if err := req.AddBlockLocatorHash(&tip); err != nil {
		return 0, err
	}
	if err := p.writeMessage(req, operationReadTimeout); err != nil {
		return 0, fmt.Errorf("send getheaders: %w", err)
	}

	msg, _, err := p.readResponse(time.Now().Add(headersWaitTimeout),
		func(m wire.Message) bool {
			_, ok := m.(*wire.MsgHeaders)
			return ok
		})
	if err != nil {
		return 0, err
	}

	headers := msg.(*wire.MsgHeaders)
	for i, bh := range headers.Headers {
		if err := p.cfg.Headers.Append(bh); err != nil {
			return i, fmt.Errorf("append header: %w", err)
		}
	}

	log.Infof("Appended %d headers from %s", len(headers.Headers), p.Addr())
	return len(headers.Headers), nil
}

// GetBlocks sends a getblocks built from the header store tip, persists
// the raw inv response for later replay and returns its inventory for
// display.
func (p *Peer) GetBlocks() ([]*wire.InvVect, error) {
	if err := p.beginOperation(); err != nil {
		return nil, err
	}
	defer p.endOperation()

	tip, err := p.locator()
	if err != nil {
		return nil, err
	}

	req := wire.NewMsgGetBlocks()
	if err := req.AddBlockLocatorHash(&tip); err != nil {
		return nil, err
	}
	if err := p.writeMessage(req, operationReadTimeout); err != nil {
		return nil, fmt.Errorf("send getblocks: %w", err)
	}

	msg, raw, err := p.readResponse(time.Now().Add(blocksWaitTimeout),
		func(m wire.Message) bool {
			_, ok := m.(*wire.MsgInv)
			return ok
		})
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(p.cfg.filePath(blocksFileName), raw, 0600); err != nil {
		log.Warnf("Failed to persist %s: %v", blocksFileName, err)
	}

	inv := msg.(*wire.MsgInv)
	log.Infof("Peer %s advertised %d inventory entries",
		p.Addr(), len(inv.InvList))
	return inv.InvList, nil
}

// GetData requests the given block hashes and drains the block replies,
// decoding the transactions of each. The raw bytes of the last block are
// persisted for later replay. It returns the number of blocks and the
// total number of transactions received.
func (p *Peer) GetData(hashes []*chainhash.Hash) (int, int, error) {
	if err := p.beginOperation(); err != nil {
		return 0, 0, err
	}
	defer p.endOperation()

	req := wire.NewMsgGetData()
	for _, hash := range hashes {
		if err := req.AddInvVect(wire.NewInvVect(wire.InvTypeBlock, hash)); err != nil {
			return 0, 0, err
		}
	}
	if err := p.writeMessage(req, operationReadTimeout); err != nil {
		return 0, 0, fmt.Errorf("send getdata: %w", err)
	}

	var blocks, txs int
	var lastRaw []byte
	deadline := time.Now().Add(blocksWaitTimeout)
	for blocks < len(hashes) {
		msg, raw, err := p.readResponse(deadline, func(m wire.Message) bool {
			switch m.(type) {
			case *wire.MsgBlock, *wire.MsgNotFound:
				return true
			}
			return false
		})
		if err != nil {
			// The reply stream is drained; report what arrived unless
			// nothing did.
			if errors.Is(err, ErrNoResponse) && blocks > 0 {
				break
			}
			return blocks, txs, err
		}

		if nf, ok := msg.(*wire.MsgNotFound); ok {
			log.Infof("Peer %s has no data for %d entries",
				p.Addr(), len(nf.InvList))
			break
		}

		block := msg.(*wire.MsgBlock)
		blocks++
		txs += len(block.Transactions)
		lastRaw = raw
		log.Infof("Received block %v with %d transactions",
			block.BlockHash(), len(block.Transactions))
	}

	if lastRaw != nil {
		if err := os.WriteFile(p.cfg.filePath(dataFileName), lastRaw, 0600); err != nil {
			log.Warnf("Failed to persist %s: %v", dataFileName, err)
		}
	}
	return blocks, txs, nil
}

// SendInv advertises the given inventory and waits for the peer's inv
// response, feeding it through the inbound handler so interesting blocks
// are requested. It returns the response inventory.
func (p *Peer) SendInv(invList []*wire.InvVect) ([]*wire.InvVect, error) {
	if err := p.beginOperation(); err != nil {
		return nil, err
	}
	defer p.endOperation()

	req := wire.NewMsgInv()
	for _, iv := range invList {
		if err := req.AddInvVect(iv); err != nil {
			return nil, err
		}
	}
	if err := p.writeMessage(req, operationReadTimeout); err != nil {
		return nil, fmt.Errorf("send inv: %w", err)
	}

	deadline := time.Now().Add(
		time.Duration(operationAttempts) * operationReadTimeout)
	msg, _, err := p.readResponse(deadline, func(m wire.Message) bool {
		_, ok := m.(*wire.MsgInv)
		return ok
	})
	if err != nil {
		return nil, err
	}

	inv := msg.(*wire.MsgInv)
	p.handleInv(inv)
	return inv.InvList, nil
}

// SendTx frames raw transaction bytes as a tx message and writes it. No
// response is expected.
func (p *Peer) SendTx(rawTx []byte) error {
	if err := p.beginOperation(); err != nil {
		return err
	}
	defer p.endOperation()

	if err := p.writeRawMessage(wire.CmdTx, rawTx, operationReadTimeout); err != nil {
		return fmt.Errorf("send tx: %w", err)
	}
	log.Infof("Sent %d-byte transaction to %s", len(rawTx), p.Addr())
	return nil
}
