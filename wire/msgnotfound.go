// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"
)

// MsgNotFound implements the Message interface and represents a bitcoin
// notfound message which is sent in response to a getdata message when the
// requested data is not available.
type MsgNotFound struct {
	InvList []*InvVect
}

// NewMsgNotFound returns a new bitcoin notfound message.
func NewMsgNotFound() *MsgNotFound {
	return &MsgNotFound{
		InvList: make([]*InvVect, 0),
	}
}

// AddInvVect adds an inventory vector to the message.
func (msg *MsgNotFound) AddInvVect(iv *InvVect) error {
	if len(msg.InvList)+1 > MaxInvPerMsg {
		return messageError("MsgNotFound.AddInvVect", fmt.Sprintf(
			"too many invvect in message [max %v]", MaxInvPerMsg))
	}
	msg.InvList = append(msg.InvList, iv)
	return nil
}

// Command returns the protocol command string for the message.
func (msg *MsgNotFound) Command() string {
	return CmdNotFound
}

// MaxPayloadLength returns the maximum length the payload can be.
func (msg *MsgNotFound) MaxPayloadLength() uint32 {
	return MaxVarIntPayload + MaxInvPerMsg*invVectSize
}

// Decode decodes r into the receiver.
func (msg *MsgNotFound) Decode(r io.Reader) error {
	invList, err := readInvList(r, "MsgNotFound.Decode")
	if err != nil {
		return err
	}
	msg.InvList = invList
	return nil
}

// Encode encodes the receiver to w.
func (msg *MsgNotFound) Encode(w io.Writer) error {
	return writeInvList(w, msg.InvList, "MsgNotFound.Encode")
}
