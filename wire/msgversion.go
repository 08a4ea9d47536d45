// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"io"
	"time"
)

// MaxUserAgentLen is the maximum allowed length for the user agent field
// in a version message.
const MaxUserAgentLen = 256

// MsgVersion implements the Message interface and represents a bitcoin
// version message. It is used for a peer to advertise itself as soon as an
// outbound connection is made.
type MsgVersion struct {
	// Version of the protocol the node is using.
	ProtocolVersion int32

	// Bitfield which identifies the enabled services.
	Services ServiceFlag

	// Time the message was generated. This is encoded as an int64 on the
	// wire.
	Timestamp time.Time

	// Address of the remote peer. No timestamp in the version message.
	AddrYou NetAddress

	// Address of the local peer.
	AddrMe NetAddress

	// Unique value associated with the message that is used to detect
	// self connections.
	Nonce uint64

	// The user agent that generated the message.
	UserAgent string

	// Last block seen by the generator of the version message.
	LastBlock int32

	// Don't announce transactions to peer.
	DisableRelayTx bool
}

// NewMsgVersion returns a new bitcoin version message populated with the
// defaults the client advertises: no services, a fresh timestamp, the
// default user agent and no known blocks.
func NewMsgVersion(you, me *NetAddress, nonce uint64) *MsgVersion {
	return &MsgVersion{
		ProtocolVersion: int32(ProtocolVersion),
		Services:        0,
		Timestamp:       time.Unix(time.Now().Unix(), 0),
		AddrYou:         *you,
		AddrMe:          *me,
		Nonce:           nonce,
		UserAgent:       DefaultUserAgent,
		LastBlock:       0,
		DisableRelayTx:  true,
	}
}

// Command returns the protocol command string for the message.
func (msg *MsgVersion) Command() string {
	return CmdVersion
}

// MaxPayloadLength returns the maximum length the payload can be.
func (msg *MsgVersion) MaxPayloadLength() uint32 {
	// Fixed fields 84 bytes + relay flag 1 byte + var_int user agent
	// length + user agent, plus one byte of slack.
	return 86 + MaxVarIntPayload + MaxUserAgentLen
}

// Decode decodes r into the receiver. The relay flag is optional so
// version messages from peers older than BIP0037 still parse.
func (msg *MsgVersion) Decode(r io.Reader) error {
	version, err := readUint32(r, "MsgVersion.Decode")
	if err != nil {
		return err
	}
	msg.ProtocolVersion = int32(version)

	services, err := readUint64(r, "MsgVersion.Decode")
	if err != nil {
		return err
	}
	msg.Services = ServiceFlag(services)

	stamp, err := readUint64(r, "MsgVersion.Decode")
	if err != nil {
		return err
	}
	msg.Timestamp = time.Unix(int64(stamp), 0)

	if err := readNetAddress(r, &msg.AddrYou, false); err != nil {
		return err
	}
	if err := readNetAddress(r, &msg.AddrMe, false); err != nil {
		return err
	}

	if msg.Nonce, err = readUint64(r, "MsgVersion.Decode"); err != nil {
		return err
	}

	userAgent, err := ReadVarString(r)
	if err != nil {
		return err
	}
	if len(userAgent) > MaxUserAgentLen {
		return messageError("MsgVersion.Decode", "user agent too long")
	}
	msg.UserAgent = userAgent

	lastBlock, err := readUint32(r, "MsgVersion.Decode")
	if err != nil {
		return err
	}
	msg.LastBlock = int32(lastBlock)

	// The relay flag was added by BIP0037 and peers predating it simply
	// end the payload here.
	relay, err := readByte(r, "MsgVersion.Decode")
	if err == nil {
		msg.DisableRelayTx = relay == 0
	}

	return nil
}

// Encode encodes the receiver to w.
func (msg *MsgVersion) Encode(w io.Writer) error {
	if err := writeUint32(w, uint32(msg.ProtocolVersion)); err != nil {
		return err
	}
	if err := writeUint64(w, uint64(msg.Services)); err != nil {
		return err
	}
	if err := writeUint64(w, uint64(msg.Timestamp.Unix())); err != nil {
		return err
	}

	if err := writeNetAddress(w, &msg.AddrYou, false); err != nil {
		return err
	}
	if err := writeNetAddress(w, &msg.AddrMe, false); err != nil {
		return err
	}

	if err := writeUint64(w, msg.Nonce); err != nil {
		return err
	}
	if err := WriteVarString(w, msg.UserAgent); err != nil {
		return err
	}
	if err := writeUint32(w, uint32(msg.LastBlock)); err != nil {
		return err
	}

	var relay byte
	if !msg.DisableRelayTx {
		relay = 1
	}
	return writeByte(w, relay)
}
