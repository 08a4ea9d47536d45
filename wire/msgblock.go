// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// maxTxPerBlock is the maximum number of transactions a block message
// could possibly carry given the minimum transaction size.
const maxTxPerBlock = MaxMessagePayload / 10

// MsgBlock implements the Message interface and represents a bitcoin block
// message. It delivers a block, header and transactions, in response to a
// getdata for a block-type inventory vector.
type MsgBlock struct {
	Header       BlockHeader
	Transactions []*MsgTx
}

// BlockHash computes the block identifier hash for this block.
func (msg *MsgBlock) BlockHash() chainhash.Hash {
	return msg.Header.BlockHash()
}

// Command returns the protocol command string for the message.
func (msg *MsgBlock) Command() string {
	return CmdBlock
}

// MaxPayloadLength returns the maximum length the payload can be.
func (msg *MsgBlock) MaxPayloadLength() uint32 {
	return MaxMessagePayload
}

// Decode decodes r into the receiver.
func (msg *MsgBlock) Decode(r io.Reader) error {
	if err := readBlockHeader(r, &msg.Header); err != nil {
		return err
	}

	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if count > maxTxPerBlock {
		return messageError("MsgBlock.Decode", fmt.Sprintf(
			"too many transactions to fit into a block [count %v, max %v]",
			count, maxTxPerBlock))
	}

	msg.Transactions = make([]*MsgTx, 0, count)
	for i := uint64(0); i < count; i++ {
		tx := MsgTx{}
		if err := tx.Decode(r); err != nil {
			return err
		}
		msg.Transactions = append(msg.Transactions, &tx)
	}
	return nil
}

// Encode encodes the receiver to w.
func (msg *MsgBlock) Encode(w io.Writer) error {
	if err := writeBlockHeader(w, &msg.Header); err != nil {
		return err
	}

	if err := WriteVarInt(w, uint64(len(msg.Transactions))); err != nil {
		return err
	}
	for _, tx := range msg.Transactions {
		if err := tx.Encode(w); err != nil {
			return err
		}
	}
	return nil
}
