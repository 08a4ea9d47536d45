// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "io"

// MsgGetAddr implements the Message interface and represents a bitcoin
// getaddr message. It has no payload and requests a list of known active
// peers from the receiver.
type MsgGetAddr struct{}

// NewMsgGetAddr returns a new bitcoin getaddr message.
func NewMsgGetAddr() *MsgGetAddr {
	return &MsgGetAddr{}
}

// Command returns the protocol command string for the message.
func (msg *MsgGetAddr) Command() string {
	return CmdGetAddr
}

// MaxPayloadLength returns the maximum length the payload can be.
func (msg *MsgGetAddr) MaxPayloadLength() uint32 {
	return 0
}

// Decode decodes r into the receiver.
func (msg *MsgGetAddr) Decode(r io.Reader) error {
	return nil
}

// Encode encodes the receiver to w.
func (msg *MsgGetAddr) Encode(w io.Writer) error {
	return nil
}
