// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "io"

// MsgSendCmpct implements the Message interface and represents a bitcoin
// sendcmpct message (BIP0152). The payload is exactly 9 bytes: a one-byte
// announce flag followed by a little-endian compact block version.
type MsgSendCmpct struct {
	AnnounceCompact bool
	Version         uint64
}

// Command returns the protocol command string for the message.
func (msg *MsgSendCmpct) Command() string {
	return CmdSendCmpct
}

// MaxPayloadLength returns the maximum length the payload can be.
func (msg *MsgSendCmpct) MaxPayloadLength() uint32 {
	return 9
}

// Decode decodes r into the receiver.
func (msg *MsgSendCmpct) Decode(r io.Reader) error {
	announce, err := readByte(r, "MsgSendCmpct.Decode")
	if err != nil {
		return err
	}
	msg.AnnounceCompact = announce != 0

	msg.Version, err = readUint64(r, "MsgSendCmpct.Decode")
	return err
}

// Encode encodes the receiver to w.
func (msg *MsgSendCmpct) Encode(w io.Writer) error {
	var announce byte
	if msg.AnnounceCompact {
		announce = 1
	}
	if err := writeByte(w, announce); err != nil {
		return err
	}
	return writeUint64(w, msg.Version)
}
