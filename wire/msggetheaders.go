// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// MaxBlockLocatorsPerMsg is the maximum number of block locator hashes
// allowed per message.
const MaxBlockLocatorsPerMsg = 500

// MsgGetHeaders implements the Message interface and represents a bitcoin
// getheaders message. It is used to request a list of block headers
// starting after the last known hash in the block locator.
type MsgGetHeaders struct {
	ProtocolVersion    uint32
	BlockLocatorHashes []*chainhash.Hash
	HashStop           chainhash.Hash
}

// NewMsgGetHeaders returns a new bitcoin getheaders message with the
// protocol version this client speaks and an empty locator.
func NewMsgGetHeaders() *MsgGetHeaders {
	return &MsgGetHeaders{
		ProtocolVersion: ProtocolVersion,
		BlockLocatorHashes: make([]*chainhash.Hash, 0,
			MaxBlockLocatorsPerMsg),
	}
}

// AddBlockLocatorHash adds a new block locator hash to the message.
func (msg *MsgGetHeaders) AddBlockLocatorHash(hash *chainhash.Hash) error {
	if len(msg.BlockLocatorHashes)+1 > MaxBlockLocatorsPerMsg {
		return messageError("MsgGetHeaders.AddBlockLocatorHash", fmt.Sprintf(
			"too many block locator hashes for message [max %v]",
			MaxBlockLocatorsPerMsg))
	}
	msg.BlockLocatorHashes = append(msg.BlockLocatorHashes, hash)
	return nil
}

// Command returns the protocol command string for the message.
func (msg *MsgGetHeaders) Command() string {
	return CmdGetHeaders
}

// MaxPayloadLength returns the maximum length the payload can be.
func (msg *MsgGetHeaders) MaxPayloadLength() uint32 {
	// Version 4 bytes + num hashes var_int + max locator hashes + hash
	// stop.
	return 4 + MaxVarIntPayload +
		(MaxBlockLocatorsPerMsg * chainhash.HashSize) + chainhash.HashSize
}

// Decode decodes r into the receiver.
func (msg *MsgGetHeaders) Decode(r io.Reader) error {
	version, err := readUint32(r, "MsgGetHeaders.Decode")
	if err != nil {
		return err
	}
	msg.ProtocolVersion = version

	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if count > MaxBlockLocatorsPerMsg {
		return messageError("MsgGetHeaders.Decode", fmt.Sprintf(
			"too many block locator hashes for message [count %v, max %v]",
			count, MaxBlockLocatorsPerMsg))
	}

	msg.BlockLocatorHashes = make([]*chainhash.Hash, 0, count)
	for i := uint64(0); i < count; i++ {
		var hash chainhash.Hash
		if err := readBytes(r, hash[:], "MsgGetHeaders.Decode",
			"block locator hash"); err != nil {
			return err
		}
		msg.BlockLocatorHashes = append(msg.BlockLocatorHashes, &hash)
	}

	return readBytes(r, msg.HashStop[:], "MsgGetHeaders.Decode", "hash stop")
}

// Encode encodes the receiver to w. All payload integers are little
// endian, including the protocol version.
func (msg *MsgGetHeaders) Encode(w io.Writer) error {
	count := len(msg.BlockLocatorHashes)
	if count > MaxBlockLocatorsPerMsg {
		return messageError("MsgGetHeaders.Encode", fmt.Sprintf(
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
