// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// MsgGetBlocks implements the Message interface and represents a bitcoin
// getblocks message. It is used to request a list of block hashes starting
// after the last known hash in the block locator, delivered via an inv
// message.
type MsgGetBlocks struct {
	ProtocolVersion    uint32
	BlockLocatorHashes []*chainhash.Hash
	HashStop           chainhash.Hash
}

// NewMsgGetBlocks returns a new bitcoin getblocks message with the
// protocol version this client speaks and an empty locator.
func NewMsgGetBlocks() *MsgGetBlocks {
	return &MsgGetBlocks{
		ProtocolVersion: ProtocolVersion,
		BlockLocatorHashes: make([]*chainhash.Hash, 0,
			MaxBlockLocatorsPerMsg),
	}
}

// AddBlockLocatorHash adds a new block locator hash to the message.
func (msg *MsgGetBlocks) AddBlockLocatorHash(hash *chainhash.Hash) error {
	if len(msg.BlockLocatorHashes)+1 > MaxBlockLocatorsPerMsg {
		return messageError("MsgGetBlocks.AddBlockLocatorHash", fmt.Sprintf(
			"too many block locator hashes for message [max %v]",
			MaxBlockLocatorsPerMsg))
	}
	msg.BlockLocatorHashes = append(msg.BlockLocatorHashes, hash)
	return nil
}

// Command returns the protocol command string for the message.
func (msg *MsgGetBlocks) Command() string {
	return CmdGetBlocks
}

// MaxPayloadLength returns the maximum length the payload can be.
func (msg *MsgGetBlocks) MaxPayloadLength() uint32 {
	return 4 + MaxVarIntPayload +
		(MaxBlockLocatorsPerMsg * chainhash.HashSize) + chainhash.HashSize
}

// Decode decodes r into the receiver.
func (msg *MsgGetBlocks) Decode(r io.Reader) error {
	version, err := readUint32(r, "MsgGetBlocks.Decode")
	if err != nil {
		return err
	}
	msg.ProtocolVersion = version

	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if count > MaxBlockLocatorsPerMsg {
		return messageError("MsgGetBlocks.Decode", fmt.Sprintf(
			"too many block locator hashes for message [count %v, max %v]",
			count, MaxBlockLocatorsPerMsg))
	}

	msg.BlockLocatorHashes = make([]*chainhash.Hash, 0, count)
	for i := uint64(0); i < count; i++ {
		var hash chainhash.Hash
		if err := readBytes(r, hash[:], "MsgGetBlocks.Decode",
			"block locator hash"); err != nil {
			return err
		}
		msg.BlockLocatorHashes = append(msg.BlockLocatorHashes, &hash)
	}

	return readBytes(r, msg.HashStop[:], "MsgGetBlocks.Decode", "hash stop")
}

// Encode encodes the receiver to w.
func (msg *MsgGetBlocks) Encode(w io.Writer) error {
	count := len(msg.BlockLocatorHashes)
	if count > MaxBlockLocatorsPerMsg {
		return messageError("MsgGetBlocks.Encode", fmt.Sprintf(
			"too many block locator hashes for message [count %v, max %v]",
			count, MaxBlockLocatorsPerMsg))
	}

	if err := writeUint32(w, msg.ProtocolVersion); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(count)); err != nil {
		return err
	}
	for _, hash := range msg.BlockLocatorHashes {
		if _, err := w.Write(hash[:]); err != nil {
			return err
		}
	}
	_, err := w.Write(msg.HashStop[:])
	return err
}
