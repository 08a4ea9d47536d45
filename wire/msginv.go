// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"
)

// MsgInv implements the Message interface and represents a bitcoin inv
// message. It is used to advertise a peer's known data such as blocks and
// transactions through inventory vectors.
type MsgInv struct {
	InvList []*InvVect
}

// NewMsgInv returns a new bitcoin inv message.
func NewMsgInv() *MsgInv {
	return &MsgInv{
		InvList: make([]*InvVect, 0),
	}
}

// AddInvVect adds an inventory vector to the message.
func (msg *MsgInv) AddInvVect(iv *InvVect) error {
	if len(msg.InvList)+1 > MaxInvPerMsg {
		return messageError("MsgInv.AddInvVect", fmt.Sprintf(
			"too many invvect in message [max %v]", MaxInvPerMsg))
	}
	msg.InvList = append(msg.InvList, iv)
	return nil
}

// Command returns the protocol command string for the message.
func (msg *MsgInv) Command() string {
	return CmdInv
}

// MaxPayloadLength returns the maximum length the payload can be.
func (msg *MsgInv) MaxPayloadLength() uint32 {
	return MaxVarIntPayload + MaxInvPerMsg*invVectSize
}

// Decode decodes r into the receiver.
func (msg *MsgInv) Decode(r io.Reader) error {
	invList, err := readInvList(r, "MsgInv.Decode")
	if err != nil {
		return err
	}
	msg.InvList = invList
	return nil
}

// Encode encodes the receiver to w.
func (msg *MsgInv) Encode(w io.Writer) error {
	return writeInvList(w, msg.InvList, "MsgInv.Encode")
}

// readInvList reads a var_int-counted list of inventory vectors, capped at
// MaxInvPerMsg.
func readInvList(r io.Reader, f string) ([]*InvVect, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if count > MaxInvPerMsg {
		return nil, messageError(f, fmt.Sprintf(
			"too many invvect in message [count %v, max %v]",
			count, MaxInvPerMsg))
	}

	invList := make([]*InvVect, 0, count)
	for i := uint64(0); i < count; i++ {
		iv := InvVect{}
		if err := readInvVect(r, &iv); err != nil {
			return nil, err
		}
		invList = append(invList, &iv)
	}
	return invList, nil
}

// writeInvList writes a var_int-counted list of inventory vectors.
func writeInvList(w io.Writer, invList []*InvVect, f string) error {
	count := len(invList)
	if count > MaxInvPerMsg {
		return messageError(f, fmt.Sprintf(
			"too many invvect in message [count %v, max %v]",
			count, MaxInvPerMsg))
	}

	if err := WriteVarInt(w, uint64(count)); err != nil {
		return err
	}
	for _, iv := range invList {
		if err := writeInvVect(w, iv); err != nil {
			return err
		}
	}
	return nil
}
