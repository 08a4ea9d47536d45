// Copyright (c) 2025 The bitlab developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cli

import (
	"fmt"
	"io"
	"sync"
)

// Printer serializes output from concurrent tasks so prints never
// interleave.
type Printer struct {
	mtx sync.Mutex
	w   io.Writer
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Printf formats and writes under the print lock.
func (p *Printer) Printf(format string, args ...interface{}) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	fmt.Fprintf(p.w, format, args...)
}

// Println writes one line under the print lock.
func (p *Printer) Println(args ...interface{}) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	fmt.Fprintln(p.w, args...)
}
