// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package discover implements the background peer discovery engine. It
// polls the operation flags and, when an attempt is requested, populates
// the peer queue from exactly one source: the hardcoded seed list, the
// built-in DNS seeds, or a custom domain.
package discover

import (
	"net"
	"time"

	"github.com/bitlab-dev/bitlab/peerqueue"
	"github.com/bitlab-dev/bitlab/state"
)

// defaultPollInterval is how often the engine re-reads the operation
// flags while idle.
const defaultPollInterval = 100 * time.Millisecond

// dnsSeeds are the built-in mainnet DNS seeds queried when no custom
// domain is configured.
var dnsSeeds = []string{
	"seed.bitcoin.sipa.be.",
	"seed.btc.petertodd.org.",
	"dnsseed.emzy.de.",
}

// hardcodedPeers is the compile-time fallback list in "ip:port" form.
var hardcodedPeers = []string{
	"23.84.108.213:8333",
	"87.207.45.218:8333",
	"35.207.115.204:8333",
	"65.108.202.25:8333",
}

// LookupFunc resolves a host name to its addresses.
type LookupFunc func(host string) ([]net.IP, error)

// Config parameterizes a Discoverer.
type Config struct {
	// Queue receives the discovered candidates.
	Queue *peerqueue.Queue

	// Ops carries the request/progress/result flags shared with the
	// command surface.
	Ops *state.Operations

	// Lookup resolves DNS seeds. Defaults to net.LookupIP.
	Lookup LookupFunc

	// DNSSeeds overrides the built-in seed list.
	DNSSeeds []string

	// HardcodedPeers overrides the built-in "ip:port" list.
	HardcodedPeers []string

	// PollInterval overrides how often the flags are polled.
	PollInterval time.Duration
}

// Discoverer is the background discovery engine.
type Discoverer struct {
	cfg Config
}

// New returns a Discoverer for the given configuration, filling defaults
// for any zero field.
func New(cfg Config) *Discoverer {
	if cfg.Lookup == nil {
		cfg.Lookup = net.LookupIP
	}
	if cfg.DNSSeeds == nil {
		cfg.DNSSeeds = dnsSeeds
	}
	if cfg.HardcodedPeers == nil {
		cfg.HardcodedPeers = hardcodedPeers
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	return &Discoverer{cfg: cfg}
}

// Run polls the operation flags until the exit flag is raised, executing
// one discovery attempt per request. It is intended to run on its own
// goroutine.
func (d *Discoverer) Run(st *state.State) {
	for !st.ExitFlag() {
		if cfg, ok := d.cfg.Ops.DiscoveryRequested(); ok {
			if d.cfg.Ops.StartDiscoveryProgress() {
				succeeded := d.runOnce(cfg)
				d.cfg.Ops.FinishDiscoveryProgress(succeeded)
			}
		}
		time.Sleep(d.cfg.PollInterval)
	}
	log.Info("Exiting peer discovery")
}

// runOnce executes a single discovery attempt and reports whether at
// least one candidate was enqueued.
func (d *Discoverer) runOnce(cfg state.DiscoveryConfig) bool {
	var count int
	switch {
	case cfg.HardcodedSeeds:
		for _, hp := range d.cfg.HardcodedPeers {
			d.cfg.Queue.Push(hp, 0)
			log.Infof("Added hardcoded peer: %s", hp)
			count++
		}

	case cfg.DNSLookup && cfg.DNSDomain == "":
		for _, seed := range d.cfg.DNSSeeds {
			count += d.resolveSeed(seed)
		}

	case cfg.DNSLookup:
		count = d.resolveSeed(cfg.DNSDomain)

	default:
		log.Error("Peer discovery requested with no valid source")
		return false
	}

	if count == 0 {
		log.Error("Peer discovery failed: no peers found")
		return false
	}
	log.Infof("Peer discovery succeeded: found %d peers", count)
	return true
}

// resolveSeed resolves one seed host and enqueues its IPv4 addresses,
// returning the number enqueued. IPv6 answers are logged and skipped, as
// is the resolver's 0.0.0.0 failure sentinel.
func (d *Discoverer) resolveSeed(seed string) int {
	ips, err := d.cfg.Lookup(seed)
	if err != nil {
		log.Warnf("Failed to resolve %s: %v", seed, err)
		return 0
	}

	var count int
	for _, ip := range ips {
		v4 := ip.To4()
		if v4 == nil {
			log.Debugf("Skipping non-IPv4 answer %v from %s", ip, seed)
			continue
		}
		if v4.Equal(net.IPv4zero) {
			log.Errorf("Invalid IP from DNS seed: %s", seed)
			continue
		}
		d.cfg.Queue.Push(v4.String(), 8333)
		count++
	}
	return count
}
