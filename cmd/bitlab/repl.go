// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/bitlab-dev/bitlab/cli"
	"github.com/bitlab-dev/bitlab/state"
)

// prompt is the REPL prefix.
const prompt = "\033[38;5;220mBitLab \033[0m"

// repl is a thin line reader over the command surface with a persisted
// history file. Line editing and completion are intentionally absent.
type repl struct {
	c           *cli.CLI
	historyPath string

	mtx     sync.Mutex
	history []string
}

// newREPL creates a repl, loading any prior history from historyPath.
func newREPL(c *cli.CLI, historyPath string) *repl {
	r := &repl{c: c, historyPath: historyPath}

	data, err := os.ReadFile(historyPath)
	if err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				r.history = append(r.history, line)
			}
		}
	}
	return r
}

// History returns the history lines, oldest first.
func (r *repl) History() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	out := make([]string, len(r.history))
	copy(out, r.history)
	return out
}

// addHistory records a line and appends it to the history file.
func (r *repl) addHistory(line string) {
	r.mtx.Lock()
	r.history = append(r.history, line)
	r.mtx.Unlock()

	f, err := os.OpenFile(r.historyPath,
		os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		btlbLog.Warnf("Failed to open history file: %v", err)
		return
	}
	defer f.Close()
	fmt.Fprintln(f, line)
}

// run reads lines from stdin until the exit flag is raised or stdin
// closes, executing each through the command surface.
func (r *repl) run(st *state.State) {
	scanner := bufio.NewScanner(os.Stdin)
	for !st.ExitFlag() {
		fmt.Print(prompt)
		if !scanner.Scan() {
			// Stdin closed; treat like exit.
			st.SetExitFlag()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		r.addHistory(line)
		r.c.Exec(line)
	}
	btlbLog.Info("Exiting CLI loop")
}
