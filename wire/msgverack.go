// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "io"

// MsgVerAck implements the Message interface and represents a bitcoin
// verack message which is sent in reply to a version message and carries
// no payload.
type MsgVerAck struct{}

// NewMsgVerAck returns a new bitcoin verack message.
func NewMsgVerAck() *MsgVerAck {
	return &MsgVerAck{}
}

// Command returns the protocol command string for the message.
func (msg *MsgVerAck) Command() string {
	return CmdVerAck
}

// MaxPayloadLength returns the maximum length the payload can be.
func (msg *MsgVerAck) MaxPayloadLength() uint32 {
	return 0
}

// Decode decodes r into the receiver.
func (msg *MsgVerAck) Decode(r io.Reader) error {
	return nil
}

// Encode encodes the receiver to w.
func (msg *MsgVerAck) Encode(w io.Writer) error {
	return nil
}
