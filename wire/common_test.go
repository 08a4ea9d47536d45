// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"errors"
	"testing"

	"pgregory.net/rapid"
)

// TestVarIntSweep verifies the encoded size and the round trip for values
// on both sides of every encoding boundary.
func TestVarIntSweep(t *testing.T) {
	tests := []struct {
		in   uint64
		size int
	}{
		{0, 1},
		{0xfc, 1},
		{0xfd, 3},
		{0xffff, 3},
		{0x10000, 5},
		{0xffffffff, 5},
		{0x100000000, 9},
	}

	for _, test := range tests {
		var buf bytes.Buffer
		if err := WriteVarInt(&buf, test.in); err != nil {
			t.Fatalf("WriteVarInt(%d): %v", test.in, err)
		}
		if buf.Len() != test.size {
			t.Errorf("WriteVarInt(%d): encoded %d bytes, want %d",
				test.in, buf.Len(), test.size)
		}
		if got := VarIntSerializeSize(test.in); got != test.size {
			t.Errorf("VarIntSerializeSize(%d) = %d, want %d",
				test.in, got, test.size)
		}

		out, err := ReadVarInt(&buf)
		if err != nil {
			t.Fatalf("ReadVarInt(%d): %v", test.in, err)
		}
		if out != test.in {
			t.Errorf("ReadVarInt round trip: got %d, want %d", out, test.in)
		}
	}
}

// TestVarIntRoundTripProperty checks the round trip law over the whole
// uint64 domain.
func TestVarIntRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.Uint64().Draw(t, "v")

		var buf bytes.Buffer
		if err := WriteVarInt(&buf, v); err != nil {
			t.Fatalf("WriteVarInt(%d): %v", v, err)
		}

		switch n := buf.Len(); n {
		case 1, 3, 5, 9:
		default:
			t.Fatalf("WriteVarInt(%d): illegal encoded size %d", v, n)
		}

		out, err := ReadVarInt(&buf)
		if err != nil {
			t.Fatalf("ReadVarInt: %v", err)
		}
		if out != v {
			t.Fatalf("round trip: got %d, want %d", out, v)
		}
	})
}

func TestVarIntTruncated(t *testing.T) {
	// 0xfd discriminant promises a uint16 that never arrives.
	_, err := ReadVarInt(bytes.NewReader([]byte{0xfd, 0x01}))
	if !errors.Is(err, ErrTruncatedMessage) {
		t.Fatalf("ReadVarInt: got %v, want ErrTruncatedMessage", err)
	}
}

func TestVarStringRoundTrip(t *testing.T) {
	tests := []string{"", "/Satoshi:0.1.0/", "a"}

	for _, test := range tests {
		var buf bytes.Buffer
		if err := WriteVarString(&buf, test); err != nil {
			t.Fatalf("WriteVarString(%q): %v", test, err)
		}
		out, err := ReadVarString(&buf)
		if err != nil {
			t.Fatalf("ReadVarString(%q): %v", test, err)
		}
		if out != test {
			t.Errorf("round trip: got %q, want %q", out, test)
		}
	}
}

func TestVarStringTooLong(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteVarInt(&buf, maxVarStringLen+1); err != nil {
		t.Fatalf("WriteVarInt: %v", err)
	}
	if _, err := ReadVarString(&buf); err == nil {
		t.Fatal("ReadVarString accepted an oversized length")
	}
}
