// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/go-socks/socks"

	"github.com/bitlab-dev/bitlab/cli"
	"github.com/bitlab-dev/bitlab/discover"
	"github.com/bitlab-dev/bitlab/headerdb"
	"github.com/bitlab-dev/bitlab/peer"
	"github.com/bitlab-dev/bitlab/peerqueue"
	"github.com/bitlab-dev/bitlab/state"
)

// version is the bitlab release version.
const version = "0.2.0"

// shutdownPollInterval is how often the main loop checks the exit flag.
const shutdownPollInterval = 100 * time.Millisecond

func main() {
	os.Exit(realMain())
}

// realMain wires the collaborators, launches the background loops and
// blocks until shutdown.
func realMain() int {
	cfg, remainingArgs, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logFile := filepath.Join(cfg.DataDir, defaultLogDirName, defaultLogFileName)
	if err := initLogRotator(logFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer logRotator.Close()

	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	btlbLog.Info("BitLab started ----------------------------------------" +
		"------------------------------------------------")
	if os.Getenv("USER") == "root" {
		btlbLog.Warn("Running as root is not recommended")
	}

	st := state.New()
	ops := state.NewOperations()
	queue := peerqueue.New(cfg.QueueSize)
	registry := peer.NewRegistry(cfg.MaxPeers)

	headers, err := headerdb.Open(cfg.DataDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer headers.Close()

	peerCfg := &peer.Config{
		Queue:          queue,
		Headers:        headers,
		DataDir:        cfg.DataDir,
		ConnectTimeout: cfg.ConnectTimeout,
	}
	if cfg.Proxy != "" {
		proxy := &socks.Proxy{
			Addr:     cfg.Proxy,
			Username: cfg.ProxyUser,
			Password: cfg.ProxyPass,
		}
		peerCfg.Dial = func(network, address string) (net.Conn, error) {
			return proxy.DialTimeout(network, address, cfg.ConnectTimeout)
		}
		btlbLog.Infof("Dialing peers through SOCKS5 proxy %s", cfg.Proxy)
	}

	ctx := &cli.Context{
		State:    st,
		Ops:      ops,
		Queue:    queue,
		Registry: registry,
		Headers:  headers,
		PeerCfg:  peerCfg,
		Out:      cli.NewPrinter(os.Stdout),
		Version:  version,
	}
	c := cli.New(ctx)

	historyPath := filepath.Join(cfg.DataDir, defaultHistoryDir,
		defaultHistoryFile)
	r := newREPL(c, historyPath)
	ctx.History = r.History

	d := discover.New(discover.Config{Queue: queue, Ops: ops})
	go d.Run(st)
	go r.run(st)

	// A command passed on the process command line runs before the REPL
	// takes over.
	if len(remainingArgs) > 0 {
		st.MarkStartedWithParameters()
		line := strings.Join(remainingArgs, " ")
		if remainingArgs[0] == "exit" {
			btlbLog.Warnf("Starting with %q parameter", line)
		}
		c.Exec(line)
		ctx.Out.Println("Close BitLab using \"exit\"")
	}

	for !st.ExitFlag() {
		time.Sleep(shutdownPollInterval)
	}

	registry.DisconnectAll()
	btlbLog.Info("BitLab finished successfully")
	return 0
}
