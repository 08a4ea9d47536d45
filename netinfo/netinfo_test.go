// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netinfo

import "testing"

func TestIsNumeric(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"1.1.1.1", true},
		{"255.255.255.255", true},
		{"0.0.0.0", true},
		{"256.1.1.1", false},
		{"1.1.1", false},
		{"1.1.1.1.1", false},
		{"example.com", false},
		{"", false},
		{"1.2.3.four", false},
	}
	for _, test := range tests {
		if got := IsNumeric(test.in); got != test.want {
			t.Errorf("IsNumeric(%q) = %v, want %v", test.in, got, test.want)
		}
	}
}

func TestIsPrivate(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"192.168.1.10", true},
		{"10.0.0.1", true},
		{"172.16.0.1", true},
		{"172.31.255.255", true},
		{"172.32.0.1", false},
		{"1.1.1.1", false},
		{"8.8.8.8", false},
		{"not-an-ip", false},
	}
	for _, test := range tests {
		if got := IsPrivate(test.in); got != test.want {
			t.Errorf("IsPrivate(%q) = %v, want %v", test.in, got, test.want)
		}
	}
}

func TestIsValidDomain(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"example.com", true},
		{"seed.bitcoin.sipa.be.", true},
		{"example", false},
		{"1.1.1.1", false},
		{"", false},
	}
	for _, test := range tests {
		if got := IsValidDomain(test.in); got != test.want {
			t.Errorf("IsValidDomain(%q) = %v, want %v", test.in, got, test.want)
		}
	}
}
