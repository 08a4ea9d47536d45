// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"net"
	"reflect"
	"testing"
	"time"
)

func TestVersionRoundTrip(t *testing.T) {
	you := NetAddress{
		Services: SFNodeNetwork,
		IP:       net.ParseIP("192.168.0.1"),
		Port:     8333,
	}
	me := NetAddress{
		Services: 0,
		IP:       net.ParseIP("127.0.0.1"),
		Port:     8333,
	}
	msg := &MsgVersion{
		ProtocolVersion: int32(ProtocolVersion),
		Services:        0,
		Timestamp:       time.Unix(0x495fab29, 0),
		AddrYou:         you,
		AddrMe:          me,
		Nonce:           0x9a52ecb9acb0f34d,
		UserAgent:       DefaultUserAgent,
		LastBlock:       0,
		DisableRelayTx:  true,
	}

	var buf bytes.Buffer
	if err := msg.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// Fixed fields plus the user-agent length byte are 86 bytes; the
	// user agent bytes ride on top.
	wantLen := 86 + len(DefaultUserAgent)
	if buf.Len() != wantLen {
		t.Fatalf("encoded %d bytes, want %d", buf.Len(), wantLen)
	}

	var out MsgVersion
	if err := out.Decode(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(&out, msg) {
		t.Fatalf("round trip mismatch:\n got %#v\nwant %#v", &out, msg)
	}
}

// TestVersionNoRelayFlag verifies a version payload that ends right after
// the last block field still decodes, matching pre-BIP0037 peers.
func TestVersionNoRelayFlag(t *testing.T) {
	msg := NewMsgVersion(
		NewNetAddressIPPort(net.ParseIP("10.0.0.1"), 8333, 0),
		NewNetAddressIPPort(net.ParseIP("10.0.0.2"), 8333, 0),
		12345)

	var buf bytes.Buffer
	if err := msg.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var out MsgVersion
	trimmed := buf.Bytes()[:buf.Len()-1]
	if err := out.Decode(bytes.NewReader(trimmed)); err != nil {
		t.Fatalf("Decode without relay flag: %v", err)
	}
	if out.Nonce != msg.Nonce || out.UserAgent != msg.UserAgent {
		t.Fatal("decoded version lost fields")
	}
}
