// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package state tracks process-wide run state: the exit flag every
// long-running loop polls, and the discovery operation flags the command
// surface and the discovery worker coordinate through.
package state

import (
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// State holds the program-wide run state. The exit flag transitions from
// false to true exactly once per run.
type State struct {
	pid               int
	startTime         time.Time
	exitFlag          atomic.Bool
	startedWithParams atomic.Bool
}

// New returns the run state for the current process.
func New() *State {
	return &State{
		pid:       os.Getpid(),
		startTime: time.Now(),
	}
}

// SetExitFlag requests program shutdown. Long-running loops observe it at
// 10 Hz or better.
func (s *State) SetExitFlag() {
	s.exitFlag.Store(true)
}

// ExitFlag reports whether shutdown has been requested.
func (s *State) ExitFlag() bool {
	return s.exitFlag.Load()
}

// MarkStartedWithParameters records that the program executed a command
// passed on its own command line at startup.
func (s *State) MarkStartedWithParameters() {
	s.startedWithParams.Store(true)
}

// StartedWithParameters reports whether a startup command was executed.
func (s *State) StartedWithParameters() bool {
	return s.startedWithParams.Load()
}

// PID returns the process id recorded at startup.
func (s *State) PID() int {
	return s.pid
}

// StartTime returns the process start time.
func (s *State) StartTime() time.Time {
	return s.startTime
}

// Elapsed returns the time since the process started.
func (s *State) Elapsed() time.Duration {
	return time.Since(s.startTime)
}

// DiscoveryConfig is the source selection for a discovery attempt.
// HardcodedSeeds and DNSLookup are mutually exclusive; DNSDomain only
// applies when DNSLookup is set.
type DiscoveryConfig struct {
	Daemon         bool
	HardcodedSeeds bool
	DNSLookup      bool
	DNSDomain      string
}

// Operations carries the flags coordinating caller-initiated operations
// with their background workers. A single mutex guards the whole struct;
// no operation ever needs a second lock.
type Operations struct {
	mtx sync.Mutex

	peerDiscovery      bool
	discoveryConfig    DiscoveryConfig
	discoveryRunning   bool
	discoverySucceeded bool
}

// NewOperations returns an Operations value with nothing requested.
func NewOperations() *Operations {
	return &Operations{}
}

// RequestDiscovery validates and stores a discovery configuration and
// raises the top-level enable flag. It fails when a discovery attempt is
// currently in progress or when the configuration selects both, or
// neither, of hardcoded seeds and DNS lookup. A new request clears a
// previously latched result.
func (o *Operations) RequestDiscovery(cfg DiscoveryConfig) error {
	o.mtx.Lock()
	defer o.mtx.Unlock()

	if o.discoveryRunning {
		return ErrDiscoveryInProgress
	}
	if cfg.HardcodedSeeds && cfg.DNSLookup {
		return ErrDiscoveryConfig
	}
	if !cfg.HardcodedSeeds && !cfg.DNSLookup {
		return ErrDiscoveryConfig
	}

	o.discoveryConfig = cfg
	o.peerDiscovery = true
	o.discoverySucceeded = false
	return nil
}

// StartDiscoveryProgress marks the discovery attempt as running. It is
// called by the discovery worker only, and only while the enable flag is
// up.
func (o *Operations) StartDiscoveryProgress() bool {
	o.mtx.Lock()
	defer o.mtx.Unlock()

	if !o.peerDiscovery {
		return false
	}
	o.discoveryRunning = true
	return true
}

// FinishDiscoveryProgress lowers the enable and in-progress flags and
// latches the attempt result. Callers treat the latched result as valid
// until a new request clears it.
func (o *Operations) FinishDiscoveryProgress(succeeded bool) {
	o.mtx.Lock()
	defer o.mtx.Unlock()

	o.peerDiscovery = false
	o.discoveryRunning = false
	o.discoverySucceeded = succeeded
}

// DiscoveryRequested reports whether a discovery attempt is wanted and not
// yet started, along with the configuration to use.
func (o *Operations) DiscoveryRequested() (DiscoveryConfig, bool) {
	o.mtx.Lock()
	defer o.mtx.Unlock()

	if !o.peerDiscovery || o.discoveryRunning || o.discoverySucceeded {
		return DiscoveryConfig{}, false
	}
	return o.discoveryConfig, true
}

// DiscoveryActive reports whether a discovery attempt is requested or
// running, i.e. not yet finished.
func (o *Operations) DiscoveryActive() bool {
	o.mtx.Lock()
	defer o.mtx.Unlock()
	return o.peerDiscovery || o.discoveryRunning
}

// DiscoveryInProgress reports whether a discovery attempt is running.
func (o *Operations) DiscoveryInProgress() bool {
	o.mtx.Lock()
	defer o.mtx.Unlock()
	return o.discoveryRunning
}

// DiscoverySucceeded reports the latched result of the last discovery
// attempt.
func (o *Operations) DiscoverySucceeded() bool {
	o.mtx.Lock()
	defer o.mtx.Unlock()
	return o.discoverySucceeded
}

// ClearDiscoveryResult drops a latched discovery result.
func (o *Operations) ClearDiscoveryResult() {
	o.mtx.Lock()
	defer o.mtx.Unlock()
	o.discoverySucceeded = false
}
