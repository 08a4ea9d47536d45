// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package cli implements the client's command surface: the command table,
// argument validation and the handlers the REPL (or the process command
// line) submits parsed lines to. The REPL itself - line editing, history
// recall, completion - lives with the caller.
package cli

import (
	"os"
	"strings"
	"sync"

	"github.com/bitlab-dev/bitlab/headerdb"
	"github.com/bitlab-dev/bitlab/peer"
	"github.com/bitlab-dev/bitlab/peerqueue"
	"github.com/bitlab-dev/bitlab/state"
)

// Command describes one entry of the command table.
type Command struct {
	// Name the command is called by.
	Name string

	// BriefDesc is printed by the plain help listing.
	BriefDesc string

	// DetailedDesc is printed by "help <command>".
	DetailedDesc string

	// Usage is printed on wrong parameters.
	Usage string

	// Run executes the command and returns its exit code: 0 on success,
	// 1 on usage or runtime error.
	Run func(c *CLI, args []string) int
}

// Context carries the collaborators the command handlers act on.
type Context struct {
	State    *state.State
	Ops      *state.Operations
	Queue    *peerqueue.Queue
	Registry *peer.Registry
	Headers  *headerdb.Store
	PeerCfg  *peer.Config

	// Out receives all command output.
	Out *Printer

	// Version is printed by info.
	Version string

	// History returns the REPL history lines, newest last. Nil when the
	// caller keeps no history.
	History func() []string

	// ForceExit terminates the process immediately. Defaults to
	// os.Exit(0).
	ForceExit func()
}

// CLI dispatches parsed command lines. A single-flight mutex serializes
// all commands so their output is never interleaved; it is held across
// blocking operations on purpose.
type CLI struct {
	mtx      sync.Mutex
	ctx      *Context
	commands []*Command
}

// New returns a CLI around the given context.
func New(ctx *Context) *CLI {
	if ctx.Out == nil {
		ctx.Out = NewPrinter(os.Stdout)
	}
	if ctx.ForceExit == nil {
		ctx.ForceExit = func() { os.Exit(0) }
	}
	c := &CLI{ctx: ctx}
	c.commands = commandTable()
	return c
}

// Commands returns the command table for help and completion.
func (c *CLI) Commands() []*Command {
	return c.commands
}

// Exec tokenizes and executes one command line, returning the command's
// exit code. An empty line is a no-op, an unknown command prints a hint
// and returns 1.
func (c *CLI) Exec(line string) int {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return 1
	}
	name, args := tokens[0], tokens[1:]

	for _, cmd := range c.commands {
		if cmd.Name == name {
			c.mtx.Lock()
			defer c.mtx.Unlock()
			return cmd.Run(c, args)
		}
	}

	c.ctx.Out.Println("Command not found! Type \"help\" to see available commands.")
	log.Infof("Command not found: %s", name)
	return 1
}

// usageError prints the command usage and returns the usage exit code
// without side effects.
func (c *CLI) usageError(cmd *Command) int {
	c.ctx.Out.Printf("Usage: %s\n", cmd.Usage)
	return 1
}

// lookup finds a table entry by name.
func (c *CLI) lookup(name string) *Command {
	for _, cmd := range c.commands {
		if cmd.Name == name {
			return cmd
		}
	}
	return nil
}
