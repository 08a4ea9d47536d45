// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"
)

// MaxAddrPerMsg is the maximum number of addresses that can be in a single
// bitcoin addr message.
const MaxAddrPerMsg = 1000

// MsgAddr implements the Message interface and represents a bitcoin addr
// message. It is sent in response to a getaddr message and provides known
// active peers on the network, each as a 30-byte timestamped record.
type MsgAddr struct {
	AddrList []*NetAddress
}

// NewMsgAddr returns a new bitcoin addr message.
func NewMsgAddr() *MsgAddr {
	return &MsgAddr{
		AddrList: make([]*NetAddress, 0, MaxAddrPerMsg),
	}
}

// AddAddress adds a known active peer to the message.
func (msg *MsgAddr) AddAddress(na *NetAddress) error {
	if len(msg.AddrList)+1 > MaxAddrPerMsg {
		return messageError("MsgAddr.AddAddress", fmt.Sprintf(
			"too many addresses in message [max %v]", MaxAddrPerMsg))
	}
	msg.AddrList = append(msg.AddrList, na)
	return nil
}

// Command returns the protocol command string for the message.
func (msg *MsgAddr) Command() string {
	return CmdAddr
}

// MaxPayloadLength returns the maximum length the payload can be.
func (msg *MsgAddr) MaxPayloadLength() uint32 {
	return MaxVarIntPayload + MaxAddrPerMsg*netAddressSize
}

// Decode decodes r into the receiver. A count above MaxAddrPerMsg is
// rejected before any record is read so the message causes no state
// change.
func (msg *MsgAddr) Decode(r io.Reader) error {
	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}

	if count > MaxAddrPerMsg {
		return messageError("MsgAddr.Decode", fmt.Sprintf(
			"too many addresses for message [count %v, max %v]",
			count, MaxAddrPerMsg))
	}

	msg.AddrList = make([]*NetAddress, 0, count)
	for i := uint64(0); i < count; i++ {
		na := NetAddress{}
		if err := readNetAddress(r, &na, true); err != nil {
			return err
		}
		msg.AddrList = append(msg.AddrList, &na)
	}
	return nil
}

// Encode encodes the receiver to w. The record count prefix is always
// emitted per the wire standard.
func (msg *MsgAddr) Encode(w io.Writer) error {
	count := len(msg.AddrList)
	if count > MaxAddrPerMsg {
		return messageError("MsgAddr.Encode", fmt.Sprintf(
			"too many addresses for message [count %v, max %v]",
			count, MaxAddrPerMsg))
	}

	if err := WriteVarInt(w, uint64(count)); err != nil {
		return err
	}
	for _, na := range msg.AddrList {
		if err := writeNetAddress(w, na, true); err != nil {
			return err
		}
	}
	return nil
}
