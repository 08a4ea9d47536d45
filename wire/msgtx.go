// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const (
	// maxTxInPerMessage is the maximum number of transaction inputs a
	// message could possibly carry given the minimum input size.
	maxTxInPerMessage = MaxMessagePayload / 41

	// maxTxOutPerMessage is the maximum number of transaction outputs a
	// message could possibly carry given the minimum output size.
	maxTxOutPerMessage = MaxMessagePayload / 9

	// maxScriptLen is a sanity cap on signature and public key script
	// sizes, bounded by the payload itself.
	maxScriptLen = MaxMessagePayload
)

// OutPoint defines a bitcoin data type that is used to track previous
// transaction outputs.
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// String returns the OutPoint in the human-readable form "hash:index".
func (o OutPoint) String() string {
	return fmt.Sprintf("%s:%d", o.Hash, o.Index)
}

// TxIn defines a bitcoin transaction input.
type TxIn struct {
	PreviousOutPoint OutPoint
	SignatureScript  []byte
	Sequence         uint32
}

// TxOut defines a bitcoin transaction output.
type TxOut struct {
	Value    int64
	PkScript []byte
}

// MsgTx implements the Message interface and represents a bitcoin tx
// message, parsed in the legacy serialization without witness data.
type MsgTx struct {
	Version  int32
	TxIn     []*TxIn
	TxOut    []*TxOut
	LockTime uint32
}

// TxHash generates the transaction identifier, which is the double-SHA256
// of the legacy serialization.
func (msg *MsgTx) TxHash() chainhash.Hash {
	var buf bytes.Buffer
	_ = msg.Encode(&buf)
	return chainhash.DoubleHashH(buf.Bytes())
}

// Command returns the protocol command string for the message.
func (msg *MsgTx) Command() string {
	return CmdTx
}

// MaxPayloadLength returns the maximum length the payload can be.
func (msg *MsgTx) MaxPayloadLength() uint32 {
	return MaxMessagePayload
}

// Decode decodes r into the receiver using the legacy transaction layout:
// version, inputs, outputs and lock time.
func (msg *MsgTx) Decode(r io.Reader) error {
	version, err := readUint32(r, "MsgTx.Decode")
	if err != nil {
		return err
	}
	msg.Version = int32(version)

	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if count > maxTxInPerMessage {
		return messageError("MsgTx.Decode", fmt.Sprintf(
			"too many input transactions [count %v, max %v]",
			count, maxTxInPerMessage))
	}

	msg.TxIn = make([]*TxIn, 0, count)
	for i := uint64(0); i < count; i++ {
		ti := TxIn{}
		if err := readBytes(r, ti.PreviousOutPoint.Hash[:],
			"MsgTx.Decode", "previous output hash"); err != nil {
			return err
		}
		if ti.PreviousOutPoint.Index, err = readUint32(r, "MsgTx.Decode"); err != nil {
			return err
		}
		if ti.SignatureScript, err = ReadVarBytes(r, maxScriptLen,
			"signature script"); err != nil {
			return err
		}
		if ti.Sequence, err = readUint32(r, "MsgTx.Decode"); err != nil {
			return err
		}
		msg.TxIn = append(msg.TxIn, &ti)
	}

	count, err = ReadVarInt(r)
	if err != nil {
		return err
	}
	if count > maxTxOutPerMessage {
		return messageError("MsgTx.Decode", fmt.Sprintf(
			"too many output transactions [count %v, max %v]",
			count, maxTxOutPerMessage))
	}

	msg.TxOut = make([]*TxOut, 0, count)
	for i := uint64(0); i < count; i++ {
		to := TxOut{}
		value, err := readUint64(r, "MsgTx.Decode")
		if err != nil {
			return err
		}
		to.Value = int64(value)
		if to.PkScript, err = ReadVarBytes(r, maxScriptLen,
			"public key script"); err != nil {
			return err
		}
		msg.TxOut = append(msg.TxOut, &to)
	}

	msg.LockTime, err = readUint32(r, "MsgTx.Decode")
	return err
}

// Encode encodes the receiver to w using the legacy transaction layout.
func (msg *MsgTx) Encode(w io.Writer) error {
	if err := writeUint32(w, uint32(msg.Version)); err != nil {
		return err
	}

	if err := WriteVarInt(w, uint64(len(msg.TxIn))); err != nil {
		return err
	}
	for _, ti := range msg.TxIn {
		if _, err := w.Write(ti.PreviousOutPoint.Hash[:]); err != nil {
			return err
		}
		if err := writeUint32(w, ti.PreviousOutPoint.Index); err != nil {
			return err
		}
		if err := WriteVarBytes(w, ti.SignatureScript); err != nil {
			return err
		}
		if err := writeUint32(w, ti.Sequence); err != nil {
			return err
		}
	}

	if err := WriteVarInt(w, uint64(len(msg.TxOut))); err != nil {
		return err
	}
	for _, to := range msg.TxOut {
		if err := writeUint64(w, uint64(to.Value)); err != nil {
			return err
		}
		if err := WriteVarBytes(w, to.PkScript); err != nil {
			return err
		}
	}

	return writeUint32(w, msg.LockTime)
}
