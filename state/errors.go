// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package state

import "errors"

var (
	// ErrDiscoveryInProgress is returned when a new discovery request
	// arrives while an attempt is still running.
	ErrDiscoveryInProgress = errors.New("peer discovery already in progress")

	// ErrDiscoveryConfig is returned for a request that selects neither
	// or both of the hardcoded-seed and DNS sources.
	ErrDiscoveryConfig = errors.New("invalid peer discovery configuration")
)
