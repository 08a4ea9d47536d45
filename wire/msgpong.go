// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "io"

// MsgPong implements the Message interface and represents a bitcoin pong
// message which is sent in reply to a ping, echoing its nonce.
type MsgPong struct {
	// Nonce copied from the ping this pong replies to.
	Nonce uint64
}

// NewMsgPong returns a new bitcoin pong message echoing the given nonce.
func NewMsgPong(nonce uint64) *MsgPong {
	return &MsgPong{Nonce: nonce}
}

// Command returns the protocol command string for the message.
func (msg *MsgPong) Command() string {
	return CmdPong
}

// MaxPayloadLength returns the maximum length the payload can be.
func (msg *MsgPong) MaxPayloadLength() uint32 {
	return 8
}

// Decode decodes r into the receiver.
func (msg *MsgPong) Decode(r io.Reader) error {
	nonce, err := readUint64(r, "MsgPong.Decode")
	if err != nil {
		return err
	}
	msg.Nonce = nonce
	return nil
}

// Encode encodes the receiver to w.
func (msg *MsgPong) Encode(w io.Writer) error {
	return writeUint64(w, msg.Nonce)
}
