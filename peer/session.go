// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"errors"
	"io"
	"math/rand"
	"net"
	"os"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/davecgh/go-spew/spew"

	"github.com/bitlab-dev/bitlab/wire"
)

// run is the session goroutine body: receive, dispatch, keep alive. It
// yields the socket whenever an operation holds the baton and exits when
// the peer closes the connection or a fatal receive error occurs.
func (p *Peer) run() {
	defer p.wg.Done()
	defer p.Disconnect()

	log.Debugf("Session started for peer %s", p.Addr())
	lastPing := time.Now()

	for {
		select {
		case <-p.quit:
			return
		default:
		}

		// While an operation owns the socket the session must not read
		// from it; sleep and re-check.
		if p.operationInProgress.Load() {
			time.Sleep(operationYield)
			continue
		}

		if time.Since(lastPing) >= pingInterval {
			if err := p.writeMessage(wire.NewMsgPing(rand.Uint64()),
				sessionReadTimeout); err != nil {
				log.Debugf("Failed to ping peer %s: %v", p.Addr(), err)
				return
			}
			lastPing = time.Now()
		}

		p.conn.SetReadDeadline(time.Now().Add(sessionReadTimeout))
		p.reading.Store(true)
		msg, raw, err := wire.ReadMessage(p.br, p.cfg.net())
		p.reading.Store(false)
		if err != nil {
			var netErr net.Error
			switch {
			case errors.As(err, &netErr) && netErr.Timeout():
				continue

			case errors.Is(err, io.EOF):
				log.Infof("Peer %s closed the connection", p.Addr())
				return

			case errors.Is(err, wire.ErrUnknownCommand):
				log.Debugf("Ignoring unknown message from %s", p.Addr())
				continue

			case isMessageError(err):
				// The framing is still intact; drop the message and
				// keep the session.
				log.Warnf("Malformed message from %s: %v", p.Addr(), err)
				continue

			default:
				if !errors.Is(err, net.ErrClosed) {
					log.Warnf("Receive from %s failed: %v", p.Addr(), err)
				}
				return
			}
		}

		p.handleMessage(msg, raw)
	}
}

// isMessageError reports whether err is a recoverable wire decode error.
func isMessageError(err error) bool {
	var msgErr *wire.MessageError
	return errors.As(err, &msgErr)
}

// handleMessage dispatches one inbound message from the session loop.
func (p *Peer) handleMessage(msg wire.Message, raw []byte) {
	log.Tracef("Received %s from %s%v", msg.Command(), p.Addr(),
		newLogClosure(func() string { return "\n" + spew.Sdump(msg) }))

	switch m := msg.(type) {
	case *wire.MsgPing:
		if err := p.writeMessage(wire.NewMsgPong(m.Nonce),
			sessionReadTimeout); err != nil {
			log.Debugf("Failed to pong peer %s: %v", p.Addr(), err)
		}

	case *wire.MsgGetAddr:
		p.replyGetAddr()

	case *wire.MsgGetHeaders:
		p.replyGetHeaders(m)

	case *wire.MsgGetBlocks:
		p.replyFromFile(wire.CmdInv, blocksFileName, nil)

	case *wire.MsgGetData:
		p.replyFromFile(wire.CmdBlock, dataFileName, m.InvList)

	case *wire.MsgInv:
		p.handleInv(m)

	case *wire.MsgSendCmpct:
		p.compactMtx.Lock()
		p.compactAnnounce = m.AnnounceCompact
		p.compactVersion = m.Version
		p.compactMtx.Unlock()
		log.Debugf("Peer %s wants compact blocks: announce=%v version=%d",
			p.Addr(), m.AnnounceCompact, m.Version)

	case *wire.MsgFeeFilter:
		p.feeRate.Store(m.MinFee)
		log.Debugf("Peer %s set fee filter: %d sat/kB", p.Addr(), m.MinFee)

	default:
		log.Debugf("Ignoring %s from %s (%d payload bytes)",
			msg.Command(), p.Addr(), len(raw))
	}
}

// replyGetAddr answers an inbound getaddr with a snapshot of the peer
// queue, up to the per-message maximum.
func (p *Peer) replyGetAddr() {
	candidates := p.queueSnapshot(wire.MaxAddrPerMsg)

	addr := wire.NewMsgAddr()
	for _, c := range candidates {
		ip := net.ParseIP(c.IP)
		if ip == nil {
			continue
		}
		if err := addr.AddAddress(wire.NewNetAddressIPPort(ip, c.Port,
			wire.SFNodeNetwork)); err != nil {
			break
		}
	}

	if err := p.writeMessage(addr, sessionReadTimeout); err != nil {
		log.Debugf("Failed to send addr to %s: %v", p.Addr(), err)
		return
	}
	log.Debugf("Sent %d addresses to %s", len(addr.AddrList), p.Addr())
}

// replyGetHeaders answers an inbound getheaders from the header store,
// walking from the first locator hash to the stop hash.
func (p *Peer) replyGetHeaders(m *wire.MsgGetHeaders) {
	store := p.headersStore()
	if store == nil {
		return
	}

	var start *chainhash.Hash
	if len(m.BlockLocatorHashes) > 0 {
		start = m.BlockLocatorHashes[0]
	}
	headers, err := store.Range(start, &m.HashStop)
	if err != nil {
		log.Warnf("Header range scan failed: %v", err)
		return
	}

	reply := wire.NewMsgHeaders()
	for _, bh := range headers {
		if err := reply.AddBlockHeader(bh); err != nil {
			break
		}
	}
	if err := p.writeMessage(reply, sessionReadTimeout); err != nil {
		log.Debugf("Failed to send headers to %s: %v", p.Addr(), err)
		return
	}
	log.Debugf("Sent %d headers to %s", len(reply.Headers), p.Addr())
}

// replyFromFile replays the raw payload persisted from a previous
// operation under the given command, or answers notfound when the file is
// absent.
func (p *Peer) replyFromFile(command, fileName string, requested []*wire.InvVect) {
	payload, err := os.ReadFile(p.cfg.filePath(fileName))
	if err != nil {
		notFound := wire.NewMsgNotFound()
		for _, iv := range requested {
			if err := notFound.AddInvVect(iv); err != nil {
				break
			}
		}
		if err := p.writeMessage(notFound, sessionReadTimeout); err != nil {
			log.Debugf("Failed to send notfound to %s: %v", p.Addr(), err)
		}
		return
	}

	if err := p.writeRawMessage(command, payload, sessionReadTimeout); err != nil {
		log.Debugf("Failed to replay %s to %s: %v", fileName, p.Addr(), err)
		return
	}
	log.Debugf("Replayed %d bytes of %s to %s as %s",
		len(payload), fileName, p.Addr(), command)
}

// handleInv collects the block-type entries of an inv that have not been
// requested recently and asks for them with a single getdata.
func (p *Peer) handleInv(m *wire.MsgInv) {
	getData := wire.NewMsgGetData()
	for _, iv := range m.InvList {
		if iv.Type != wire.InvTypeBlock {
			continue
		}
		if p.knownInv.Contains(iv.Hash) {
			continue
		}
		p.knownInv.Add(iv.Hash)
		if err := getData.AddInvVect(wire.NewInvVect(wire.InvTypeBlock,
			&iv.Hash)); err != nil {
			break
		}
	}

	if len(getData.InvList) == 0 {
		return
	}
	if err := p.writeMessage(getData, sessionReadTimeout); err != nil {
		log.Debugf("Failed to send getdata to %s: %v", p.Addr(), err)
		return
	}
	log.Debugf("Requested %d blocks from %s", len(getData.InvList), p.Addr())
}
