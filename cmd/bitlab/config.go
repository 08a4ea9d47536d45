// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	flags "github.com/jessevdk/go-flags"

	"github.com/bitlab-dev/bitlab/peer"
	"github.com/bitlab-dev/bitlab/peerqueue"
)

const (
	defaultConfigDirName = ".bitlab"
	defaultLogDirName    = "logs"
	defaultLogFileName   = "bitlab.log"
	defaultHistoryDir    = "history"
	defaultHistoryFile   = "cli_history.txt"
	defaultDebugLevel    = "info"

	defaultConnectTimeout = 3 * time.Second
)

// config defines the configuration options for bitlab.
//
// See loadConfig for details on the configuration load process.
type config struct {
	ShowVersion    bool          `short:"V" long:"version" description:"Display version information and exit"`
	DataDir        string        `short:"b" long:"datadir" description:"Directory to store data"`
	DebugLevel     string        `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems"`
	Proxy          string        `long:"proxy" description:"Connect via SOCKS5 proxy (eg. 127.0.0.1:9050)"`
	ProxyUser      string        `long:"proxyuser" description:"Username for proxy server"`
	ProxyPass      string        `long:"proxypass" default-mask:"-" description:"Password for proxy server"`
	MaxPeers       int           `long:"maxpeers" description:"Max number of simultaneously tracked peers"`
	QueueSize      int           `long:"queuesize" description:"Capacity of the discovered peer queue"`
	ConnectTimeout time.Duration `long:"connecttimeout" description:"Timeout for outbound peer dials"`
}

// defaultDataDir returns $HOME/.bitlab, falling back to the working
// directory when the home directory cannot be determined.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultConfigDirName
	}
	return filepath.Join(home, defaultConfigDirName)
}

// loadConfig initializes and parses the config using command line
// options. Any remaining positional arguments are returned to be executed
// as a startup command.
func loadConfig() (*config, []string, error) {
	cfg := config{
		DataDir:        defaultDataDir(),
		DebugLevel:     defaultDebugLevel,
		MaxPeers:       peer.DefaultRegistryCapacity,
		QueueSize:      peerqueue.DefaultCapacity,
		ConnectTimeout: defaultConnectTimeout,
	}

	parser := flags.NewParser(&cfg, flags.Default)
	remainingArgs, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok &&
			flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, nil, err
	}

	if cfg.ShowVersion {
		fmt.Printf("bitlab version %s\n", version)
		os.Exit(0)
	}

	if cfg.MaxPeers < 1 || cfg.QueueSize < 1 {
		return nil, nil, fmt.Errorf("maxpeers and queuesize must be positive")
	}

	// The config directory tree is created up front so logging and
	// history have a place to live.
	for _, dir := range []string{
		cfg.DataDir,
		filepath.Join(cfg.DataDir, defaultLogDirName),
		filepath.Join(cfg.DataDir, defaultHistoryDir),
	} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	return &cfg, remainingArgs, nil
}
