// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"testing"
)

// TestHeadersRejectsTransactions checks that a headers record carrying a
// nonzero transaction count fails to decode.
func TestHeadersRejectsTransactions(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteVarInt(&buf, 1); err != nil {
		t.Fatalf("WriteVarInt: %v", err)
	}
	bh := BlockHeader{Version: 1, Timestamp: timeUnix(0)}
	if err := writeBlockHeader(&buf, &bh); err != nil {
		t.Fatalf("writeBlockHeader: %v", err)
	}
	if err := WriteVarInt(&buf, 1); err != nil { // tx count must be zero
		t.Fatalf("WriteVarInt: %v", err)
	}

	var out MsgHeaders
	if err := out.Decode(bytes.NewReader(buf.Bytes())); err == nil {
		t.Fatal("Decode accepted a header with transactions")
	}
}

// TestBlockHeaderSerializedLen pins the serialized header to exactly 80
// bytes.
func TestBlockHeaderSerializedLen(t *testing.T) {
	var buf bytes.Buffer
	bh := BlockHeader{Version: 2, Timestamp: timeUnix(0x495fab29)}
	if err := bh.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if buf.Len() != BlockHeaderLen {
		t.Fatalf("serialized %d bytes, want %d", buf.Len(), BlockHeaderLen)
	}

	var out BlockHeader
	if err := out.Deserialize(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if out.BlockHash() != bh.BlockHash() {
		t.Fatal("round trip changed the block hash")
	}
}
