// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"io"
)

const (
	// MaxVarIntPayload is the maximum payload size for a variable length
	// integer.
	MaxVarIntPayload = 9

	// maxVarStringLen is the maximum length a variable length string this
	// package is willing to decode. Nothing on the wire the client speaks
	// carries longer strings than a user agent.
	maxVarStringLen = 256
)

// readByte reads a single byte, mapping a short read to a truncation
// error for the named function.
func readByte(r io.Reader, f string) (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, truncatedError(f, "byte")
	}
	return b[0], nil
}

// readUint16 reads a little-endian uint16.
func readUint16(r io.Reader, f string) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, truncatedError(f, "uint16")
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

// readUint32 reads a little-endian uint32.
func readUint32(r io.Reader, f string) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, truncatedError(f, "uint32")
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// readUint64 reads a little-endian uint64.
func readUint64(r io.Reader, f string) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, truncatedError(f, "uint64")
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// readBytes fills buf, mapping a short read to a truncation error for the
// named function and field.
func readBytes(r io.Reader, buf []byte, f, field string) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		return truncatedError(f, field)
	}
	return nil
}

func writeByte(w io.Writer, v byte) error {
	var b [1]byte
	b[0] = v
	_, err := w.Write(b[:])
	return err
}

func writeUint16(w io.Writer, v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeUint32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeUint64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// ReadVarInt reads a variable length integer from r and returns it as a
// uint64. The encoding is a single byte for values below 0xfd, and a
// 0xfd/0xfe/0xff discriminant followed by a little-endian 16/32/64 bit
// integer otherwise.
func ReadVarInt(r io.Reader) (uint64, error) {
	discriminant, err := readByte(r, "ReadVarInt")
	if err != nil {
		return 0, err
	}

	switch discriminant {
	case 0xff:
		return readUint64(r, "ReadVarInt")

	case 0xfe:
		v, err := readUint32(r, "ReadVarInt")
		return uint64(v), err

	case 0xfd:
		v, err := readUint16(r, "ReadVarInt")
		return uint64(v), err

	default:
		return uint64(discriminant), nil
	}
}

// WriteVarInt serializes val to w using a variable number of bytes
// depending on its value.
func WriteVarInt(w io.Writer, val uint64) error {
	switch {
	case val < 0xfd:
		return writeByte(w, byte(val))

	case val <= 1<<16-1:
		if err := writeByte(w, 0xfd); err != nil {
			return err
		}
		return writeUint16(w, uint16(val))

	case val <= 1<<32-1:
		if err := writeByte(w, 0xfe); err != nil {
			return err
		}
		return writeUint32(w, uint32(val))

	default:
		if err := writeByte(w, 0xff); err != nil {
			return err
		}
		return writeUint64(w, val)
	}
}

// VarIntSerializeSize returns the number of bytes it would take to
// serialize val as a variable length integer.
func VarIntSerializeSize(val uint64) int {
	switch {
	case val < 0xfd:
		return 1
	case val <= 1<<16-1:
		return 3
	case val <= 1<<32-1:
		return 5
	default:
		return 9
	}
}

// ReadVarString reads a variable length string from r. A variable length
// string is encoded as a variable length integer containing the length of
// the string followed by the bytes that represent the string itself. An
// error is returned if the length is greater than maxVarStringLen since it
// could otherwise be used as an attack vector.
func ReadVarString(r io.Reader) (string, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return "", err
	}

	if count > maxVarStringLen {
		return "", messageError("ReadVarString",
			"variable length string is too long")
	}

	buf := make([]byte, count)
	if err := readBytes(r, buf, "ReadVarString", "string"); err != nil {
		return "", err
	}
	return string(buf), nil
}

// WriteVarString serializes str to w as a variable length integer
// containing the length of the string followed by the bytes that represent
// the string itself.
func WriteVarString(w io.Writer, str string) error {
	if err := WriteVarInt(w, uint64(len(str))); err != nil {
		return err
	}
	_, err := w.Write([]byte(str))
	return err
}

// ReadVarBytes reads a variable length byte array, limited to maxAllowed
// bytes. The field name is used in error messages.
func ReadVarBytes(r io.Reader, maxAllowed uint32, field string) ([]byte, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}

	if count > uint64(maxAllowed) {
		return nil, messageError("ReadVarBytes", field+" is too large")
	}

	buf := make([]byte, count)
	if err := readBytes(r, buf, "ReadVarBytes", field); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteVarBytes serializes a variable length byte array to w as a variable
// length integer followed by the bytes themselves.
func WriteVarBytes(w io.Writer, b []byte) error {
	if err := WriteVarInt(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}
