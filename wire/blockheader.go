// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"io"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// BlockHeaderLen is the number of bytes a serialized block header occupies.
// Version 4 bytes + PrevBlock and MerkleRoot hashes 32 bytes each +
// Timestamp 4 bytes + Bits 4 bytes + Nonce 4 bytes.
const BlockHeaderLen = 80

// BlockHeader defines information about a block and is used in the bitcoin
// block and headers messages.
type BlockHeader struct {
	// Version of the block. This is not the same as the protocol version.
	Version int32

	// Hash of the previous block header in the block chain.
	PrevBlock chainhash.Hash

	// Merkle tree reference to hash of all transactions for the block.
	MerkleRoot chainhash.Hash

	// Time the block was created. Encoded as uint32 on the wire and
	// therefore is limited to 2106.
	Timestamp time.Time

	// Difficulty target for the block.
	Bits uint32

	// Nonce used to generate the block.
	Nonce uint32
}

// BlockHash computes the block identifier hash for the given block header,
// which is the double-SHA256 of the 80 serialized bytes.
func (h *BlockHeader) BlockHash() chainhash.Hash {
	buf := bytes.NewBuffer(make([]byte, 0, BlockHeaderLen))
	_ = writeBlockHeader(buf, h)
	return chainhash.DoubleHashH(buf.Bytes())
}

// Serialize encodes a block header from h into the writer.
func (h *BlockHeader) Serialize(w io.Writer) error {
	return writeBlockHeader(w, h)
}

// Deserialize decodes a block header from r into the receiver.
func (h *BlockHeader) Deserialize(r io.Reader) error {
	return readBlockHeader(r, h)
}

// readBlockHeader reads a bitcoin block header from r.
func readBlockHeader(r io.Reader, bh *BlockHeader) error {
	version, err := readUint32(r, "readBlockHeader")
	if err != nil {
		return err
	}
	bh.Version = int32(version)

	if err := readBytes(r, bh.PrevBlock[:], "readBlockHeader", "prev block"); err != nil {
		return err
	}
	if err := readBytes(r, bh.MerkleRoot[:], "readBlockHeader", "merkle root"); err != nil {
		return err
	}

	stamp, err := readUint32(r, "readBlockHeader")
	if err != nil {
		return err
	}
	bh.Timestamp = time.Unix(int64(stamp), 0)

	if bh.Bits, err = readUint32(r, "readBlockHeader"); err != nil {
		return err
	}
	bh.Nonce, err = readUint32(r, "readBlockHeader")
	return err
}

// writeBlockHeader writes a bitcoin block header to w.
func writeBlockHeader(w io.Writer, bh *BlockHeader) error {
	if err := writeUint32(w, uint32(bh.Version)); err != nil {
		return err
	}
	if _, err := w.Write(bh.PrevBlock[:]); err != nil {
		return err
	}
	if _, err := w.Write(bh.MerkleRoot[:]); err != nil {
		return err
	}
	if err := writeUint32(w, uint32(bh.Timestamp.Unix())); err != nil {
		return err
	}
	if err := writeUint32(w, bh.Bits); err != nil {
		return err
	}
	return writeUint32(w, bh.Nonce)
}
