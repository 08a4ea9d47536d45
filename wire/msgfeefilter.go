// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "io"

// MsgFeeFilter implements the Message interface and represents a bitcoin
// feefilter message (BIP0133). It carries the minimum fee rate, in
// satoshi per kilobyte, for which the sending peer wants transaction
// announcements.
type MsgFeeFilter struct {
	MinFee uint64
}

// Command returns the protocol command string for the message.
func (msg *MsgFeeFilter) Command() string {
	return CmdFeeFilter
}

// MaxPayloadLength returns the maximum length the payload can be.
func (msg *MsgFeeFilter) MaxPayloadLength() uint32 {
	return 8
}

// Decode decodes r into the receiver.
func (msg *MsgFeeFilter) Decode(r io.Reader) error {
	minFee, err := readUint64(r, "MsgFeeFilter.Decode")
	if err != nil {
		return err
	}
	msg.MinFee = minFee
	return nil
}

// Encode encodes the receiver to w.
func (msg *MsgFeeFilter) Encode(w io.Writer) error {
	return writeUint64(w, msg.MinFee)
}
