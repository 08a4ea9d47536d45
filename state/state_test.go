// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package state

import (
	"errors"
	"testing"
)

func TestExitFlag(t *testing.T) {
	s := New()
	if s.ExitFlag() {
		t.Fatal("exit flag set at startup")
	}
	s.SetExitFlag()
	if !s.ExitFlag() {
		t.Fatal("exit flag not observable after set")
	}
}

func TestDiscoveryConfigValidation(t *testing.T) {
	o := NewOperations()

	err := o.RequestDiscovery(DiscoveryConfig{
		HardcodedSeeds: true,
		DNSLookup:      true,
	})
	if !errors.Is(err, ErrDiscoveryConfig) {
		t.Fatalf("both sources: got %v, want ErrDiscoveryConfig", err)
	}

	err = o.RequestDiscovery(DiscoveryConfig{})
	if !errors.Is(err, ErrDiscoveryConfig) {
		t.Fatalf("no source: got %v, want ErrDiscoveryConfig", err)
	}

	if err := o.RequestDiscovery(DiscoveryConfig{DNSLookup: true}); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
}

// TestDiscoveryFlagMachine walks one attempt through the flag machine and
// checks the in-progress implies-enabled invariant plus the result latch.
func TestDiscoveryFlagMachine(t *testing.T) {
	o := NewOperations()

	if _, ok := o.DiscoveryRequested(); ok {
		t.Fatal("discovery requested before any request")
	}
	if o.StartDiscoveryProgress() {
		t.Fatal("progress started without the enable flag")
	}

	if err := o.RequestDiscovery(DiscoveryConfig{HardcodedSeeds: true}); err != nil {
		t.Fatalf("RequestDiscovery: %v", err)
	}

	cfg, ok := o.DiscoveryRequested()
	if !ok || !cfg.HardcodedSeeds {
		t.Fatalf("DiscoveryRequested = %+v, %v", cfg, ok)
	}

	if !o.StartDiscoveryProgress() {
		t.Fatal("progress refused with the enable flag up")
	}
	if !o.DiscoveryInProgress() {
		t.Fatal("in-progress flag not observable")
	}

	// A second request must be refused while the attempt runs.
	err := o.RequestDiscovery(DiscoveryConfig{DNSLookup: true})
	if !errors.Is(err, ErrDiscoveryInProgress) {
		t.Fatalf("concurrent request: got %v, want ErrDiscoveryInProgress", err)
	}

	o.FinishDiscoveryProgress(true)
	if o.DiscoveryInProgress() {
		t.Fatal("in-progress flag stuck after finish")
	}
	if !o.DiscoverySucceeded() {
		t.Fatal("result not latched")
	}

	// A latched success suppresses re-running until cleared.
	if _, ok := o.DiscoveryRequested(); ok {
		t.Fatal("requested reported while result latched")
	}
	o.ClearDiscoveryResult()
	if o.DiscoverySucceeded() {
		t.Fatal("latched result survived clear")
	}
}
