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
	// MessageHeaderSize is the number of bytes in a bitcoin message
	// header: 4 byte magic, 12 byte command, 4 byte payload length and
	// 4 byte checksum.
	MessageHeaderSize = 24

	// CommandSize is the fixed size of all commands in the common bitcoin
	// message header. Shorter commands must be zero padded.
	CommandSize = 12

	// MaxMessagePayload is the maximum bytes a message can be regardless
	// of other individual limits imposed by messages themselves.
	MaxMessagePayload = 1024 * 1024 * 32 // 32MB
)

// Commands used in bitcoin message headers which describe the type of
// message.
const (
	CmdVersion    = "version"
	CmdVerAck     = "verack"
	CmdPing       = "ping"
	CmdPong       = "pong"
	CmdGetAddr    = "getaddr"
	CmdAddr       = "addr"
	CmdGetHeaders = "getheaders"
	CmdHeaders    = "headers"
	CmdGetBlocks  = "getblocks"
	CmdInv        = "inv"
	CmdGetData    = "getdata"
	CmdNotFound   = "notfound"
	CmdBlock      = "block"
	CmdTx         = "tx"
	CmdSendCmpct  = "sendcmpct"
	CmdFeeFilter  = "feefilter"
)

// Message is the interface implemented by every bitcoin message the client
// produces or consumes. Decode always operates on a reader bounded to a
// single payload.
type Message interface {
	Decode(io.Reader) error
	Encode(io.Writer) error
	Command() string
	MaxPayloadLength() uint32
}

// makeEmptyMessage creates a message of the appropriate concrete type
// based on the command.
func makeEmptyMessage(command string) (Message, error) {
	var msg Message
	switch command {
	case CmdVersion:
		msg = &MsgVersion{}

	case CmdVerAck:
		msg = &MsgVerAck{}

	case CmdPing:
		msg = &MsgPing{}

	case CmdPong:
		msg = &MsgPong{}

	case CmdGetAddr:
		msg = &MsgGetAddr{}

	case CmdAddr:
		msg = &MsgAddr{}

	case CmdGetHeaders:
		msg = &MsgGetHeaders{}

	case CmdHeaders:
		msg = &MsgHeaders{}

	case CmdGetBlocks:
		msg = &MsgGetBlocks{}

	case CmdInv:
		msg = &MsgInv{}

	case CmdGetData:
		msg = &MsgGetData{}

	case CmdNotFound:
		msg = &MsgNotFound{}

	case CmdBlock:
		msg = &MsgBlock{}

	case CmdTx:
		msg = &MsgTx{}

	case CmdSendCmpct:
		msg = &MsgSendCmpct{}

	case CmdFeeFilter:
		msg = &MsgFeeFilter{}

	default:
		return nil, &MessageError{
			Func:        "makeEmptyMessage",
			Description: fmt.Sprintf("unhandled command [%s]", command),
			Err:         ErrUnknownCommand,
		}
	}
	return msg, nil
}

// messageHeader defines the header structure for all bitcoin protocol
// messages.
type messageHeader struct {
	magic    BitcoinNet // network the message belongs to
	command  string     // command name with padding stripped
	length   uint32     // payload byte count
	checksum [4]byte    // first 4 bytes of dsha256 of payload
}

// readMessageHeader reads a bitcoin message header from r. An io.EOF with
// no bytes read means the connection was closed in an orderly fashion and
// is passed through untouched.
func readMessageHeader(r io.Reader) (*messageHeader, error) {
	var headerBytes [MessageHeaderSize]byte
	if n, err := io.ReadFull(r, headerBytes[:]); err != nil {
		// A failure on the message boundary (connection closed, read
		// timeout with nothing read) passes through so the caller can
		// retry or tear down. A failure after partial header bytes means
		// the stream is mid-message; surface it as a message error.
		if n == 0 {
			return nil, err
		}
		return nil, truncatedError("readMessageHeader", "header")
	}
	hr := bytes.NewReader(headerBytes[:])

	hdr := messageHeader{}
	magic, err := readUint32(hr, "readMessageHeader")
	if err != nil {
		return nil, err
	}
	hdr.magic = BitcoinNet(magic)

	var command [CommandSize]byte
	if err := readBytes(hr, command[:], "readMessageHeader", "command"); err != nil {
		return nil, err
	}
	hdr.command = string(bytes.TrimRight(command[:], "\x00"))

	if hdr.length, err = readUint32(hr, "readMessageHeader"); err != nil {
		return nil, err
	}
	if err := readBytes(hr, hdr.checksum[:], "readMessageHeader", "checksum"); err != nil {
		return nil, err
	}

	return &hdr, nil
}

// checksum returns the first four bytes of the double-SHA256 of the
// payload, which is the checksum every message header carries. An empty
// payload hashes to the well-known constant 5df6e0e2.
func checksum(payload []byte) [4]byte {
	var csum [4]byte
	copy(csum[:], chainhash.DoubleHashB(payload)[0:4])
	return csum
}

// WriteMessage writes a bitcoin message to w including the necessary
// header information.
func WriteMessage(w io.Writer, msg Message, btcnet BitcoinNet) (int, error) {
	var payload bytes.Buffer
	if err := msg.Encode(&payload); err != nil {
		return 0, err
	}
	return WriteRawMessage(w, msg.Command(), payload.Bytes(), btcnet)
}

// WriteRawMessage frames an already-serialized payload under the given
// command and writes it to w. Commands longer than CommandSize bytes are a
// programmer error.
func WriteRawMessage(w io.Writer, command string, payload []byte, btcnet BitcoinNet) (int, error) {
	if len(command) > CommandSize {
		return 0, messageError("WriteRawMessage", fmt.Sprintf(
			"command [%s] is too long [max %v]", command, CommandSize))
	}
	lenp := len(payload)
	if lenp > MaxMessagePayload {
		return 0, messageError("WriteRawMessage", fmt.Sprintf(
			"message payload is too large - encoded %d bytes, "+
				"but maximum message payload is %d bytes",
			lenp, MaxMessagePayload))
	}

	var command12 [CommandSize]byte
	copy(command12[:], command)

	buf := bytes.NewBuffer(make([]byte, 0, MessageHeaderSize+lenp))
	writeUint32(buf, uint32(btcnet))
	buf.Write(command12[:])
	writeUint32(buf, uint32(lenp))
	csum := checksum(payload)
	buf.Write(csum[:])
	buf.Write(payload)

	return w.Write(buf.Bytes())
}

// ReadMessage reads, validates and parses the next bitcoin message from r.
// It returns the parsed message along with the raw payload bytes.
//
// A message with a command this package does not decode is fully consumed
// and returned as (nil, payload, err) with err wrapping ErrUnknownCommand;
// the stream stays framed and the caller may keep reading. A checksum
// mismatch likewise consumes the message and wraps ErrInvalidChecksum.
func ReadMessage(r io.Reader, btcnet BitcoinNet) (Message, []byte, error) {
	hdr, err := readMessageHeader(r)
	if err != nil {
		return nil, nil, err
	}

	if hdr.length > MaxMessagePayload {
		return nil, nil, messageError("ReadMessage", fmt.Sprintf(
			"message payload is too large - header indicates %d bytes, "+
				"but max message payload is %d bytes",
			hdr.length, MaxMessagePayload))
	}

	if hdr.magic != btcnet {
		return nil, nil, &MessageError{
			Func: "ReadMessage",
			Description: fmt.Sprintf("message from other network [%v]",
				hdr.magic),
			Err: ErrWrongNetwork,
		}
	}

	payload := make([]byte, hdr.length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, nil, truncatedError("ReadMessage", "payload")
	}

	// The checksum is over the payload only, and verified before any
	// attempt to interpret the bytes.
	if csum := checksum(payload); csum != hdr.checksum {
		return nil, payload, &MessageError{
			Func: "ReadMessage",
			Description: fmt.Sprintf("payload checksum failed - header "+
				"indicates %x, but actual checksum is %x",
				hdr.checksum, csum),
			Err: ErrInvalidChecksum,
		}
	}

	msg, err := makeEmptyMessage(hdr.command)
	if err != nil {
		// Message is consumed and the checksum verified; surface the
		// command to the caller for logging.
		return nil, payload, err
	}

	mpl := msg.MaxPayloadLength()
	if hdr.length > mpl {
		return nil, payload, messageError("ReadMessage", fmt.Sprintf(
			"payload exceeds max length - header indicates %v bytes, "+
				"but max payload size for messages of type [%v] is %v",
			hdr.length, hdr.command, mpl))
	}

	if err := msg.Decode(bytes.NewReader(payload)); err != nil {
		return nil, payload, err
	}

	return msg, payload, nil
}
