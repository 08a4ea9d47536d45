// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"io"
	"net"
	"time"
)

// netAddressSize is the wire size of a timestamped network address record:
// 4 byte timestamp, 8 byte services, 16 byte IP and 2 byte port.
const netAddressSize = 30

// NetAddress defines information about a peer on the network including the
// time it was last seen, the services it supports, its IP address, and
// port.
type NetAddress struct {
	// Last time the address was seen. This is not present in the bitcoin
	// version message and is only four bytes on the wire.
	Timestamp time.Time

	// Bitfield which identifies the services supported by the address.
	Services ServiceFlag

	// IP address of the peer. IPv4 addresses travel v4-mapped inside the
	// 16-byte field.
	IP net.IP

	// Port the peer is using. This is encoded in big endian on the wire
	// which differs from most everything else.
	Port uint16
}

// NewNetAddressIPPort returns a new NetAddress using the provided IP, port
// and supported services with the timestamp set to the current time.
func NewNetAddressIPPort(ip net.IP, port uint16, services ServiceFlag) *NetAddress {
	return &NetAddress{
		Timestamp: time.Unix(time.Now().Unix(), 0),
		Services:  services,
		IP:        ip,
		Port:      port,
	}
}

// IsIPv4 returns whether the address is representable as a plain IPv4
// dotted quad, i.e. whether the 16-byte field carries a v4-mapped address.
func (na *NetAddress) IsIPv4() bool {
	return na.IP.To4() != nil
}

// readNetAddress reads an encoded NetAddress from r. The timestamp is only
// present when ts is true, matching the difference between addr records
// and the addresses embedded in the version message.
func readNetAddress(r io.Reader, na *NetAddress, ts bool) error {
	if ts {
		stamp, err := readUint32(r, "readNetAddress")
		if err != nil {
			return err
		}
		na.Timestamp = time.Unix(int64(stamp), 0)
	}

	services, err := readUint64(r, "readNetAddress")
	if err != nil {
		return err
	}
	na.Services = ServiceFlag(services)

	ip := make(net.IP, 16)
	if err := readBytes(r, ip, "readNetAddress", "ip"); err != nil {
		return err
	}
	na.IP = ip

	// The port is big endian, unlike everything else on the wire.
	var portBytes [2]byte
	if err := readBytes(r, portBytes[:], "readNetAddress", "port"); err != nil {
		return err
	}
	na.Port = binary.BigEndian.Uint16(portBytes[:])

	return nil
}

// writeNetAddress serializes a NetAddress to w. The timestamp is only
// written when ts is true.
func writeNetAddress(w io.Writer, na *NetAddress, ts bool) error {
	if ts {
		if err := writeUint32(w, uint32(na.Timestamp.Unix())); err != nil {
			return err
		}
	}

	if err := writeUint64(w, uint64(na.Services)); err != nil {
		return err
	}

	// Ensure the IP is 16 bytes; IPv4 addresses go out v4-mapped.
	var ip [16]byte
	if na.IP != nil {
		copy(ip[:], na.IP.To16())
	}
	if _, err := w.Write(ip[:]); err != nil {
		return err
	}

	var portBytes [2]byte
	binary.BigEndian.PutUint16(portBytes[:], na.Port)
	_, err := w.Write(portBytes[:])
	return err
}
