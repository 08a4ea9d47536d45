// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"
)

// MsgGetData implements the Message interface and represents a bitcoin
// getdata message. It is used to request data such as blocks and
// transactions that were advertised by an inv message.
type MsgGetData struct {
	InvList []*InvVect
}

// NewMsgGetData returns a new bitcoin getdata message.
func NewMsgGetData() *MsgGetData {
	return &MsgGetData{
		InvList: make([]*InvVect, 0),
	}
}

// AddInvVect adds an inventory vector to the message.
func (msg *MsgGetData) AddInvVect(iv *InvVect) error {
	if len(msg.InvList)+1 > MaxInvPerMsg {
		return messageError("MsgGetData.AddInvVect", fmt.Sprintf(
			"too many invvect in message [max %v]", MaxInvPerMsg))
	}
	msg.InvList = append(msg.InvList, iv)
	return nil
}

// Command returns the protocol command string for the message.
func (msg *MsgGetData) Command() string {
	return CmdGetData
}

// MaxPayloadLength returns the maximum length the payload can be.
func (msg *MsgGetData) MaxPayloadLength() uint32 {
	return MaxVarIntPayload + MaxInvPerMsg*invVectSize
}

// Decode decodes r into the receiver.
func (msg *MsgGetData) Decode(r io.Reader) error {
	invList, err := readInvList(r, "MsgGetData.Decode")
	if err != nil {
		return err
	}
	msg.InvList = invList
	return nil
}

// Encode encodes the receiver to w.
func (msg *MsgGetData) Encode(w io.Writer) error {
	return writeInvList(w, msg.InvList, "MsgGetData.Encode")
}
