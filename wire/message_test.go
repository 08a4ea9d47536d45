// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"errors"
	"net"
	"reflect"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// timeUnix keeps the test tables terse.
func timeUnix(sec int64) time.Time {
	return time.Unix(sec, 0)
}

// TestVerAckWireBytes checks the exact bytes a framed verack produces,
// including the well-known empty-payload checksum 5df6e0e2.
func TestVerAckWireBytes(t *testing.T) {
	want := []byte{
		0xf9, 0xbe, 0xb4, 0xd9, // mainnet magic
		0x76, 0x65, 0x72, 0x61, 0x63, 0x6b, 0x00, 0x00, // "verack"
		0x00, 0x00, 0x00, 0x00, // zero padding
		0x00, 0x00, 0x00, 0x00, // length 0
		0x5d, 0xf6, 0xe0, 0xe2, // checksum of the empty payload
	}

	var buf bytes.Buffer
	n, err := WriteMessage(&buf, NewMsgVerAck(), MainNet)
	if err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	if n != MessageHeaderSize {
		t.Fatalf("WriteMessage wrote %d bytes, want %d", n, MessageHeaderSize)
	}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("verack bytes mismatch:\n got %x\nwant %x", buf.Bytes(), want)
	}
}

// TestChecksumLaw verifies that the header checksum is the first four
// bytes of the payload's double-SHA256 for arbitrary payloads.
func TestChecksumLaw(t *testing.T) {
	payloads := [][]byte{nil, {0x00}, []byte("bitlab"), make([]byte, 1024)}
	for _, payload := range payloads {
		var want [4]byte
		copy(want[:], chainhash.DoubleHashB(payload)[0:4])
		if got := checksum(payload); got != want {
			t.Errorf("checksum(%x) = %x, want %x", payload, got, want)
		}
	}
}

func TestWriteRawMessageLongCommand(t *testing.T) {
	var buf bytes.Buffer
	_, err := WriteRawMessage(&buf, "unreasonably-long", nil, MainNet)
	if err == nil {
		t.Fatal("WriteRawMessage accepted a command longer than 12 bytes")
	}
}

// TestMessageRoundTrip frames each message type and reads it back,
// checking the decoded value equals the original.
func TestMessageRoundTrip(t *testing.T) {
	hash := chainhash.Hash{0x01, 0x02, 0x03}

	addr := NewMsgAddr()
	_ = addr.AddAddress(&NetAddress{
		Timestamp: timeUnix(0x495fab29),
		Services:  SFNodeNetwork,
		IP:        net.ParseIP("8.8.8.8"),
		Port:      8333,
	})

	getHeaders := NewMsgGetHeaders()
	_ = getHeaders.AddBlockLocatorHash(&hash)

	getData := NewMsgGetData()
	_ = getData.AddInvVect(NewInvVect(InvTypeBlock, &hash))

	inv := NewMsgInv()
	_ = inv.AddInvVect(NewInvVect(InvTypeTx, &hash))

	headers := NewMsgHeaders()
	_ = headers.AddBlockHeader(&BlockHeader{
		Version:    1,
		PrevBlock:  hash,
		MerkleRoot: hash,
		Timestamp:  timeUnix(0x495fab29),
		Bits:       0x1d00ffff,
		Nonce:      0x9962e301,
	})

	tests := []Message{
		NewMsgPing(0x1122334455667788),
		NewMsgPong(0x1122334455667788),
		NewMsgGetAddr(),
		addr,
		getHeaders,
		getData,
		inv,
		headers,
		&MsgSendCmpct{AnnounceCompact: true, Version: 1},
		&MsgFeeFilter{MinFee: 1000},
	}

	for _, msg := range tests {
		t.Run(msg.Command(), func(t *testing.T) {
			var buf bytes.Buffer
			if _, err := WriteMessage(&buf, msg, MainNet); err != nil {
				t.Fatalf("WriteMessage: %v", err)
			}

			out, _, err := ReadMessage(&buf, MainNet)
			if err != nil {
				t.Fatalf("ReadMessage: %v", err)
			}
			if !reflect.DeepEqual(out, msg) {
				t.Fatalf("round trip mismatch:\n got %#v\nwant %#v", out, msg)
			}
		})
	}
}

func TestReadMessageChecksumMismatch(t *testing.T) {
	var buf bytes.Buffer
	if _, err := WriteMessage(&buf, NewMsgPing(1), MainNet); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	// Corrupt the last payload byte; the header checksum no longer
	// matches.
	raw := buf.Bytes()
	raw[len(raw)-1] ^= 0xff

	_, _, err := ReadMessage(bytes.NewReader(raw), MainNet)
	if !errors.Is(err, ErrInvalidChecksum) {
		t.Fatalf("ReadMessage: got %v, want ErrInvalidChecksum", err)
	}
}

func TestReadMessageUnknownCommand(t *testing.T) {
	var buf bytes.Buffer
	if _, err := WriteRawMessage(&buf, "mempool", nil, MainNet); err != nil {
		t.Fatalf("WriteRawMessage: %v", err)
	}

	_, _, err := ReadMessage(&buf, MainNet)
	if !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("ReadMessage: got %v, want ErrUnknownCommand", err)
	}
}

func TestReadMessageWrongNetwork(t *testing.T) {
	var buf bytes.Buffer
	if _, err := WriteMessage(&buf, NewMsgVerAck(), TestNet3); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	_, _, err := ReadMessage(&buf, MainNet)
	if !errors.Is(err, ErrWrongNetwork) {
		t.Fatalf("ReadMessage: got %v, want ErrWrongNetwork", err)
	}
}

func TestReadMessageTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	if _, err := WriteMessage(&buf, NewMsgPing(1), MainNet); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	// Drop the final payload bytes after the header promised eight.
	raw := buf.Bytes()[:MessageHeaderSize+4]

	_, _, err := ReadMessage(bytes.NewReader(raw), MainNet)
	if !errors.Is(err, ErrTruncatedMessage) {
		t.Fatalf("ReadMessage: got %v, want ErrTruncatedMessage", err)
	}
}
