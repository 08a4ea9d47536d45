// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cli

import (
	"bytes"
	"encoding/hex"
	"os"
	"strconv"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/bitlab-dev/bitlab/netinfo"
	"github.com/bitlab-dev/bitlab/peer"
	"github.com/bitlab-dev/bitlab/state"
	"github.com/bitlab-dev/bitlab/wire"
)

// discoveryWaitPoll is how often a non-daemon peerdiscovery checks for
// completion.
const discoveryWaitPoll = 100 * time.Millisecond

// commandTable builds the command table. Order is the help listing order.
func commandTable() []*Command {
	return []*Command{
		{
			Name:         "exit",
			BriefDesc:    "Stops the client.",
			DetailedDesc: "exit - Stops the client. With -f or --force the process terminates immediately.",
			Usage:        "exit [-f|--force]",
			Run:          cmdExit,
		},
		{
			Name:         "clear",
			BriefDesc:    "Clears CLI screen.",
			DetailedDesc: "clear - Clears CLI screen.",
			Usage:        "clear",
			Run:          cmdClear,
		},
		{
			Name:         "echo",
			BriefDesc:    "Echoes the input.",
			DetailedDesc: "echo - Echoes the input.",
			Usage:        "echo [text...]",
			Run:          cmdEcho,
		},
		{
			Name:         "help",
			BriefDesc:    "Prints command descriptions.",
			DetailedDesc: "help - Prints command descriptions. With a command name, prints its detailed description.",
			Usage:        "help [command]",
			Run:          cmdHelp,
		},
		{
			Name:         "history",
			BriefDesc:    "Prints command history.",
			DetailedDesc: "history - Prints command history.",
			Usage:        "history",
			Run:          cmdHistory,
		},
		{
			Name:         "info",
			BriefDesc:    "Prints program information.",
			DetailedDesc: "info - Prints program information: PID, uptime, peers and queue size.",
			Usage:        "info",
			Run:          cmdInfo,
		},
		{
			Name:         "whoami",
			BriefDesc:    "Prints the user name.",
			DetailedDesc: "whoami - Prints the user name. With -f also prints the local and remote IP addresses.",
			Usage:        "whoami [-f]",
			Run:          cmdWhoami,
		},
		{
			Name:         "getip",
			BriefDesc:    "Gets remote IP of an URL or of this host.",
			DetailedDesc: "getip - Resolves each given URL to its IPv4 addresses; with no URL prints this host's external address.",
			Usage:        "getip [url...]",
			Run:          cmdGetIP,
		},
		{
			Name:         "ping",
			BriefDesc:    "Pings the specified IP address.",
			DetailedDesc: "ping - Pings the specified IP address or domain. -c sets the echo count.",
			Usage:        "ping [-c count] ip",
			Run:          cmdPing,
		},
		{
			Name:         "peerdiscovery",
			BriefDesc:    "Discovers Bitcoin peers.",
			DetailedDesc: "peerdiscovery - Discovers Bitcoin peers. -h uses the hardcoded seed list, -l [domain] uses DNS seeds or the given domain, -d returns immediately and runs in the background. With no arguments prints the last successful result.",
			Usage:        "peerdiscovery [-d] [-h | -l [domain]]",
			Run:          cmdPeerDiscovery,
		},
		{
			Name:         "connect",
			BriefDesc:    "Connects to the specified IP address.",
			DetailedDesc: "connect - Opens a session to the given IPv4 address on the Bitcoin port and performs the handshake.",
			Usage:        "connect ip",
			Run:          cmdConnect,
		},
		{
			Name:         "disconnect",
			BriefDesc:    "Disconnects the specified peer.",
			DetailedDesc: "disconnect - Closes the session of the peer at the given index.",
			Usage:        "disconnect index",
			Run:          cmdDisconnect,
		},
		{
			Name:         "list",
			BriefDesc:    "Lists all connected peers.",
			DetailedDesc: "list - Lists all connected peers and their details.",
			Usage:        "list",
			Run:          cmdList,
		},
		{
			Name:         "queue",
			BriefDesc:    "Prints or clears the peer queue.",
			DetailedDesc: "queue - Prints the discovered peer queue. With --clear drops every queued candidate.",
			Usage:        "queue [--clear]",
			Run:          cmdQueue,
		},
		{
			Name:         "getaddr",
			BriefDesc:    "Asks a peer for known addresses.",
			DetailedDesc: "getaddr - Sends getaddr to the peer at the given index and enqueues the returned addresses.",
			Usage:        "getaddr index",
			Run:          cmdGetAddr,
		},
		{
			Name:         "getheaders",
			BriefDesc:    "Asks a peer for block headers.",
			DetailedDesc: "getheaders - Sends getheaders to the peer at the given index and appends the returned headers to the store.",
			Usage:        "getheaders index",
			Run:          cmdGetHeaders,
		},
		{
			Name:         "getblocks",
			BriefDesc:    "Asks a peer for block inventory.",
			DetailedDesc: "getblocks - Sends getblocks to the peer at the given index and prints the returned inventory.",
			Usage:        "getblocks index",
			Run:          cmdGetBlocks,
		},
		{
			Name:         "getdata",
			BriefDesc:    "Requests blocks from a peer.",
			DetailedDesc: "getdata - Requests the given block hashes from the peer at the given index and decodes the returned transactions.",
			Usage:        "getdata index hash...",
			Run:          cmdGetData,
		},
		{
			Name:         "sendtx",
			BriefDesc:    "Sends a raw transaction to a peer.",
			DetailedDesc: "sendtx - Frames the given hex bytes as a tx message and sends it to the peer at the given index.",
			Usage:        "sendtx index hexbytes",
			Run:          cmdSendTx,
		},
	}
}

func cmdExit(c *CLI, args []string) int {
	for _, arg := range args {
		if arg == "-f" || arg == "--force" {
			log.Warn("Forced shutdown requested")
			c.ctx.ForceExit()
			return 0
		}
	}
	if len(args) > 0 {
		log.Warn("Arguments provided for exit command ignored")
	}
	log.Info("Client shutdown requested")
	c.ctx.State.SetExitFlag()
	return 0
}

func cmdClear(c *CLI, args []string) int {
	if len(args) > 0 {
		log.Warn("Arguments provided for clear command ignored")
	}
	c.ctx.Out.Printf("\033[2J\033[H")
	return 0
}

func cmdEcho(c *CLI, args []string) int {
	line := ""
	for i, arg := range args {
		if i > 0 {
			line += " "
		}
		line += arg
	}
	c.ctx.Out.Println(line)
	return 0
}

func cmdHelp(c *CLI, args []string) int {
	if len(args) == 0 {
		longest := 0
		for _, cmd := range c.commands {
			if len(cmd.Name) > longest {
				longest = len(cmd.Name)
			}
		}
		c.ctx.Out.Printf("%-*s | %s\n", longest, "Command", "Description")
		for _, cmd := range c.commands {
			c.ctx.Out.Printf("%-*s | %s\n", longest, cmd.Name, cmd.BriefDesc)
		}
		return 0
	}

	cmd := c.lookup(args[0])
	if cmd == nil {
		c.ctx.Out.Printf("Unknown command: %s\n", args[0])
		return 1
	}
	c.ctx.Out.Printf(" * %s\n * Usage: %s\n", cmd.DetailedDesc, cmd.Usage)
	return 0
}

func cmdHistory(c *CLI, args []string) int {
	if len(args) > 0 {
		log.Warn("Arguments provided for history command ignored")
	}
	if c.ctx.History == nil {
		c.ctx.Out.Println("No history available")
		return 0
	}
	for i, line := range c.ctx.History() {
		c.ctx.Out.Printf("%d: %s\n", i+1, line)
	}
	return 0
}

func cmdInfo(c *CLI, args []string) int {
	if len(args) > 0 {
		log.Warn("Arguments provided for info command ignored")
	}
	st := c.ctx.State

	connected := 0
	for _, p := range c.ctx.Registry.Snapshot() {
		if p != nil && p.Connected() {
			connected++
		}
	}

	c.ctx.Out.Printf("bitlab %s\n", c.ctx.Version)
	c.ctx.Out.Printf("PID: %d\n", st.PID())
	c.ctx.Out.Printf("Started: %s\n", st.StartTime().Format("2006-01-02 15:04:05"))
	c.ctx.Out.Printf("Uptime: %s\n", st.Elapsed().Round(time.Second))
	c.ctx.Out.Printf("Started with parameters: %v\n", st.StartedWithParameters())
	c.ctx.Out.Printf("Connected peers: %d\n", connected)
	c.ctx.Out.Printf("Queued candidates: %d\n", c.ctx.Queue.Len())
	return 0
}

// userName resolves the invoking user from the environment.
func userName() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "unknown"
}

func cmdWhoami(c *CLI, args []string) int {
	cmd := c.lookup("whoami")
	full := false
	for _, arg := range args {
		if arg != "-f" {
			return c.usageError(cmd)
		}
		full = true
	}

	user := userName()
	c.ctx.Out.Println(user)
	if user == "root" {
		log.Warn("Running as root is not recommended")
	}

	if full {
		if local, err := netinfo.LocalIP(); err == nil {
			c.ctx.Out.Printf("Local IP: %s\n", local)
		} else {
			c.ctx.Out.Printf("Local IP: unavailable (%v)\n", err)
		}
		if remote, err := netinfo.RemoteIP(); err == nil {
			c.ctx.Out.Printf("Remote IP: %s\n", remote)
		} else {
			c.ctx.Out.Printf("Remote IP: unavailable (%v)\n", err)
		}
	}
	return 0
}

func cmdGetIP(c *CLI, args []string) int {
	if len(args) == 0 {
		remote, err := netinfo.RemoteIP()
		if err != nil {
			c.ctx.Out.Printf("Failed to get remote IP: %v\n", err)
			return 1
		}
		c.ctx.Out.Println(remote)
		return 0
	}

	code := 0
	for _, host := range args {
		ips, err := netinfo.Lookup(host)
		if err != nil || len(ips) == 0 {
			c.ctx.Out.Printf("%s: lookup failed\n", host)
			code = 1
			continue
		}
		for _, ip := range ips {
			c.ctx.Out.Printf("%s: %s\n", host, ip)
		}
	}
	return code
}

func cmdPing(c *CLI, args []string) int {
	cmd := c.lookup("ping")
	count := 3
	var host string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-c":
			if i+1 >= len(args) {
				return c.usageError(cmd)
			}
			n, err := strconv.Atoi(args[i+1])
			if err != nil || n < 1 {
				return c.usageError(cmd)
			}
			count = n
			i++
		case host == "":
			host = args[i]
		default:
			return c.usageError(cmd)
		}
	}
	if host == "" {
		return c.usageError(cmd)
	}
	if !netinfo.IsNumeric(host) && !netinfo.IsValidDomain(host) {
		return c.usageError(cmd)
	}

	out, err := netinfo.Ping(host, count)
	c.ctx.Out.Printf("%s", out)
	if err != nil {
		return 1
	}
	return 0
}

func cmdPeerDiscovery(c *CLI, args []string) int {
	cmd := c.lookup("peerdiscovery")

	if len(args) == 0 {
		// A latched success means the queue already holds the result.
		if c.ctx.Ops.DiscoverySucceeded() {
			printQueue(c)
			return 0
		}
		c.ctx.Out.Println("No discovery results yet; see usage.")
		return c.usageError(cmd)
	}

	cfg := state.DiscoveryConfig{}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-d":
			cfg.Daemon = true
		case "-h":
			cfg.HardcodedSeeds = true
		case "-l":
			cfg.DNSLookup = true
			if i+1 < len(args) {
				domain := args[i+1]
				if !netinfo.IsValidDomain(domain) {
					c.ctx.Out.Printf("Invalid domain: %s\n", domain)
					return c.usageError(cmd)
				}
				cfg.DNSDomain = domain
				i++
			}
		default:
			return c.usageError(cmd)
		}
	}

	if c.ctx.Ops.DiscoveryInProgress() {
		if cfg.Daemon {
			c.ctx.Out.Println("Peer discovery already in progress.")
			return 1
		}
		waitForDiscovery(c)
		printQueue(c)
		return 0
	}

	// A valid request clears the previously latched result; a rejected
	// one leaves it untouched.
	if err := c.ctx.Ops.RequestDiscovery(cfg); err != nil {
		c.ctx.Out.Printf("Cannot start peer discovery: %v\n", err)
		return c.usageError(cmd)
	}

	if cfg.Daemon {
		c.ctx.Out.Println("Peer discovery started.")
		return 0
	}

	waitForDiscovery(c)
	printQueue(c)
	if !c.ctx.Ops.DiscoverySucceeded() {
		c.ctx.Out.Println("Peer discovery failed.")
		return 1
	}
	return 0
}

// waitForDiscovery blocks until the running attempt finishes or shutdown
// is requested.
func waitForDiscovery(c *CLI) {
	for c.ctx.Ops.DiscoveryActive() && !c.ctx.State.ExitFlag() {
		time.Sleep(discoveryWaitPoll)
	}
}

func printQueue(c *CLI) {
	candidates := c.ctx.Queue.Snapshot()
	if len(candidates) == 0 {
		c.ctx.Out.Println("Peer queue is empty")
		return
	}
	for _, candidate := range candidates {
		c.ctx.Out.Println(candidate.String())
	}
}

func cmdConnect(c *CLI, args []string) int {
	cmd := c.lookup("connect")
	if len(args) != 1 {
		return c.usageError(cmd)
	}
	ip := args[0]
	if !netinfo.IsNumeric(ip) {
		return c.usageError(cmd)
	}

	p, err := peer.Connect(c.ctx.PeerCfg, ip)
	if err != nil {
		c.ctx.Out.Printf("Failed to connect to %s: %v\n", ip, err)
		return 1
	}

	idx, err := c.ctx.Registry.Add(p)
	if err != nil {
		p.Disconnect()
		c.ctx.Out.Printf("Cannot track peer %s: %v\n", ip, err)
		return 1
	}
	p.Start()

	c.ctx.Out.Printf("Connected to %s as peer %d\n", p.Addr(), idx)
	return 0
}

func cmdDisconnect(c *CLI, args []string) int {
	cmd := c.lookup("disconnect")
	p, _, code := peerArg(c, cmd, args)
	if code != 0 {
		return code
	}

	p.Disconnect()
	p.WaitForShutdown()
	c.ctx.Out.Printf("Disconnected peer %s\n", p.Addr())
	return 0
}

func cmdList(c *CLI, args []string) int {
	if len(args) > 0 {
		log.Warn("Arguments provided for list command ignored")
	}

	any := false
	for i, p := range c.ctx.Registry.Snapshot() {
		if p == nil || !p.Connected() {
			continue
		}
		any = true
		announce, version := p.CompactBlocks()
		c.ctx.Out.Printf("Peer %d:\n", i)
		c.ctx.Out.Printf("  Address: %s\n", p.Addr())
		c.ctx.Out.Printf("  Services: %v\n", p.Services())
		c.ctx.Out.Printf("  User agent: %s\n", p.UserAgent())
		c.ctx.Out.Printf("  Fee rate: %d sat/kB\n", p.FeeRate())
		c.ctx.Out.Printf("  Compact blocks: announce=%v version=%d\n",
			announce, version)
		c.ctx.Out.Printf("  Operation in progress: %v\n",
			p.OperationInProgress())
	}
	if !any {
		c.ctx.Out.Println("No connected peers")
	}
	return 0
}

func cmdQueue(c *CLI, args []string) int {
	cmd := c.lookup("queue")
	switch {
	case len(args) == 0:
		printQueue(c)
		return 0
	case len(args) == 1 && args[0] == "--clear":
		c.ctx.Queue.Clear()
		c.ctx.Out.Println("Peer queue cleared")
		return 0
	default:
		return c.usageError(cmd)
	}
}

// peerArg parses the single peer-index argument common to the operation
// commands.
func peerArg(c *CLI, cmd *Command, args []string) (*peer.Peer, int, int) {
	if len(args) < 1 {
		return nil, 0, c.usageError(cmd)
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil {
		return nil, 0, c.usageError(cmd)
	}
	p, err := c.ctx.Registry.Get(idx)
	if err != nil {
		c.ctx.Out.Printf("No connected peer at index %d\n", idx)
		return nil, 0, 1
	}
	return p, idx, 0
}

func cmdGetAddr(c *CLI, args []string) int {
	cmd := c.lookup("getaddr")
	p, _, code := peerArg(c, cmd, args)
	if code != 0 || len(args) != 1 {
		if code == 0 {
			return c.usageError(cmd)
		}
		return code
	}

	added, err := p.GetAddr()
	if err != nil {
		c.ctx.Out.Printf("getaddr failed: %v\n", err)
		return 1
	}
	c.ctx.Out.Printf("Enqueued %d new peer candidates\n", added)
	return 0
}

func cmdGetHeaders(c *CLI, args []string) int {
	cmd := c.lookup("getheaders")
	p, _, code := peerArg(c, cmd, args)
	if code != 0 || len(args) != 1 {
		if code == 0 {
			return c.usageError(cmd)
		}
		return code
	}

	appended, err := p.GetHeaders()
	if err != nil {
		c.ctx.Out.Printf("getheaders failed: %v\n", err)
		return 1
	}

	count, _ := c.ctx.Headers.Count()
	c.ctx.Out.Printf("Appended %d headers (%d stored)\n", appended, count)
	return 0
}

func cmdGetBlocks(c *CLI, args []string) int {
	cmd := c.lookup("getblocks")
	p, _, code := peerArg(c, cmd, args)
	if code != 0 || len(args) != 1 {
		if code == 0 {
			return c.usageError(cmd)
		}
		return code
	}

	invList, err := p.GetBlocks()
	if err != nil {
		c.ctx.Out.Printf("getblocks failed: %v\n", err)
		return 1
	}
	c.ctx.Out.Printf("Peer advertised %d inventory entries\n", len(invList))
	for _, iv := range invList {
		c.ctx.Out.Printf("  %v %v\n", iv.Type, iv.Hash)
	}
	return 0
}

func cmdGetData(c *CLI, args []string) int {
	cmd := c.lookup("getdata")
	if len(args) < 2 {
		return c.usageError(cmd)
	}
	p, _, code := peerArg(c, cmd, args)
	if code != 0 {
		return code
	}

	hashes := make([]*chainhash.Hash, 0, len(args)-1)
	for _, arg := range args[1:] {
		hash, err := chainhash.NewHashFromStr(arg)
		if err != nil {
			c.ctx.Out.Printf("Invalid block hash %q: %v\n", arg, err)
			return c.usageError(cmd)
		}
		hashes = append(hashes, hash)
	}

	blocks, txs, err := p.GetData(hashes)
	if err != nil {
		c.ctx.Out.Printf("getdata failed: %v\n", err)
		return 1
	}
	c.ctx.Out.Printf("Received %d blocks carrying %d transactions\n",
		blocks, txs)
	return 0
}

func cmdSendTx(c *CLI, args []string) int {
	cmd := c.lookup("sendtx")
	if len(args) != 2 {
		return c.usageError(cmd)
	}
	p, _, code := peerArg(c, cmd, args)
	if code != 0 {
		return code
	}

	rawTx, err := hex.DecodeString(args[1])
	if err != nil || len(rawTx) == 0 {
		c.ctx.Out.Println("Transaction bytes must be non-empty hex")
		return c.usageError(cmd)
	}

	// Sanity-decode before handing the bytes to the peer.
	var tx wire.MsgTx
	if err := tx.Decode(bytes.NewReader(rawTx)); err != nil {
		c.ctx.Out.Printf("Transaction does not parse: %v\n", err)
		return 1
	}

	if err := p.SendTx(rawTx); err != nil {
		c.ctx.Out.Printf("sendtx failed: %v\n", err)
		return 1
	}
	c.ctx.Out.Printf("Sent transaction %v\n", tx.TxHash())
	return 0
}
