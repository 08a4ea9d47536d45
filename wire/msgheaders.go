// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"
)

// MaxBlockHeadersPerMsg is the maximum number of block headers that can be
// in a single bitcoin headers message.
const MaxBlockHeadersPerMsg = 2000

// MsgHeaders implements the Message interface and represents a bitcoin
// headers message. It delivers block headers in response to a getheaders
// message; each record is an 80-byte header followed by a transaction
// count which is always zero.
type MsgHeaders struct {
	Headers []*BlockHeader
}

// NewMsgHeaders returns a new bitcoin headers message.
func NewMsgHeaders() *MsgHeaders {
	return &MsgHeaders{
		Headers: make([]*BlockHeader, 0, MaxBlockHeadersPerMsg),
	}
}

// AddBlockHeader adds a new block header to the message.
func (msg *MsgHeaders) AddBlockHeader(bh *BlockHeader) error {
	if len(msg.Headers)+1 > MaxBlockHeadersPerMsg {
		return messageError("MsgHeaders.AddBlockHeader", fmt.Sprintf(
			"too many block headers in message [max %v]",
			MaxBlockHeadersPerMsg))
	}
	msg.Headers = append(msg.Headers, bh)
	return nil
}

// Command returns the protocol command string for the message.
func (msg *MsgHeaders) Command() string {
	return CmdHeaders
}

// MaxPayloadLength returns the maximum length the payload can be.
func (msg *MsgHeaders) MaxPayloadLength() uint32 {
	// Num headers var_int + max allowed headers, each an 80-byte header
	// plus a one-byte transaction count.
	return MaxVarIntPayload +
		MaxBlockHeadersPerMsg*(BlockHeaderLen+1)
}

// Decode decodes r into the receiver.
func (msg *MsgHeaders) Decode(r io.Reader) error {
	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if count > MaxBlockHeadersPerMsg {
		return messageError("MsgHeaders.Decode", fmt.Sprintf(
			"too many block headers for message [count %v, max %v]",
			count, MaxBlockHeadersPerMsg))
	}

	msg.Headers = make([]*BlockHeader, 0, count)
	for i := uint64(0); i < count; i++ {
		bh := BlockHeader{}
		if err := readBlockHeader(r, &bh); err != nil {
			return err
		}

		txCount, err := ReadVarInt(r)
		if err != nil {
			return err
		}
		// Headers never carry transactions.
		if txCount > 0 {
			return messageError("MsgHeaders.Decode", fmt.Sprintf(
				"block headers may not contain transactions [count %v]",
				txCount))
		}
		msg.Headers = append(msg.Headers, &bh)
	}
	return nil
}

// Encode encodes the receiver to w.
func (msg *MsgHeaders) Encode(w io.Writer) error {
	count := len(msg.Headers)
	if count > MaxBlockHeadersPerMsg {
		return messageError("MsgHeaders.Encode", fmt.Sprintf(
			"too many block headers for message [count %v, max %v]",
			count, MaxBlockHeadersPerMsg))
	}

	if err := WriteVarInt(w, uint64(count)); err != nil {
		return err
	}
	for _, bh := range msg.Headers {
		if err := writeBlockHeader(w, bh); err != nil {
			return err
		}
		if err := WriteVarInt(w, 0); err != nil {
			return err
		}
	}
	return nil
}
