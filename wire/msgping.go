// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "io"

// MsgPing implements the Message interface and represents a bitcoin ping
// message carrying an 8-byte nonce the remote peer must echo in its pong.
type MsgPing struct {
	// Unique value associated with message that is used to identify the
	// matching pong message.
	Nonce uint64
}

// NewMsgPing returns a new bitcoin ping message with the given nonce.
func NewMsgPing(nonce uint64) *MsgPing {
	return &MsgPing{Nonce: nonce}
}

// Command returns the protocol command string for the message.
func (msg *MsgPing) Command() string {
	return CmdPing
}

// MaxPayloadLength returns the maximum length the payload can be.
func (msg *MsgPing) MaxPayloadLength() uint32 {
	return 8
}

// Decode decodes r into the receiver.
func (msg *MsgPing) Decode(r io.Reader) error {
	nonce, err := readUint64(r, "MsgPing.Decode")
	if err != nil {
		return err
	}
	msg.Nonce = nonce
	return nil
}

// Encode encodes the receiver to w.
func (msg *MsgPing) Encode(w io.Writer) error {
	return writeUint64(w, msg.Nonce)
}
