// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncatedMessage is returned when a payload ends before a field
	// is complete. The caller must deliver a whole message to the
	// decoders; hitting this mid-payload means the peer sent garbage.
	ErrTruncatedMessage = errors.New("truncated message")

	// ErrInvalidChecksum is returned when the header checksum does not
	// match the double-SHA256 of the payload. The framing may still be
	// intact, so the session is expected to drop the message and keep
	// reading.
	ErrInvalidChecksum = errors.New("invalid checksum")

	// ErrUnknownCommand is returned by ReadMessage for a syntactically
	// valid message whose command this package does not decode.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrWrongNetwork is returned when the header magic identifies a
	// different bitcoin network than the one the caller expects.
	ErrWrongNetwork = errors.New("wrong bitcoin network")
)

// MessageError describes an issue with a message such as a malformed field
// or a count that exceeds the protocol maximum. It wraps one of the
// sentinel errors above when one applies so callers can test with
// errors.Is.
type MessageError struct {
	Func        string // function where the error occurred
	Description string // human readable description
	Err         error  // underlying error, may be nil
}

// Error satisfies the error interface and prints human-readable errors.
func (e *MessageError) Error() string {
	if e.Func != "" {
		return fmt.Sprintf("%v: %v", e.Func, e.Description)
	}
	return e.Description
}

// Unwrap returns the underlying error.
func (e *MessageError) Unwrap() error {
	return e.Err
}

// messageError creates an error for the given function and description.
func messageError(f, desc string) *MessageError {
	return &MessageError{Func: f, Description: desc}
}

// truncatedError creates a MessageError wrapping ErrTruncatedMessage for
// the named field.
func truncatedError(f, field string) *MessageError {
	return &MessageError{
		Func:        f,
		Description: fmt.Sprintf("payload ends before %s", field),
		Err:         ErrTruncatedMessage,
	}
}
