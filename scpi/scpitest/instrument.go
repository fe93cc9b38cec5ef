// Package scpitest provides an in-memory scripted instrument implementing
// scpi.Transport, for driver tests that need to assert on the exact
// command lines sent and script the replies, without a real device or
// socket.
package scpitest

import (
	"sync"
	"time"

	"github.com/rbeignon/go-rsbench/scpi"
)

// Handler produces the reply to one query line.
type Handler func(cmd string) string

// Instrument is a scripted SCPI endpoint. Every line sent through Write
// or Query is recorded; queries are answered by the configured Handler.
//
// The zero Handler answers "0" to everything except "*OPC?", which
// answers "1" so completion loops terminate immediately.
type Instrument struct {
	mu      sync.Mutex
	handler Handler
	writes  []string
	queries []string
	closed  bool

	// Injectable failures. When set, the next matching call fails.
	WriteErr error
	QueryErr error

	// WriteHook, when set, observes every command line written.
	// Stateful simulators use it to apply commands to their state.
	WriteHook func(cmd string)
}

var _ scpi.Transport = (*Instrument)(nil)

// New creates an Instrument answered by handler. A nil handler uses the
// default described on Instrument.
func New(handler Handler) *Instrument {
	return &Instrument{handler: handler}
}

func (i *Instrument) Write(cmd string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return scpi.ErrConnClosed
	}
	if i.WriteErr != nil {
		return i.WriteErr
	}
	i.writes = append(i.writes, cmd)
	if i.WriteHook != nil {
		i.WriteHook(cmd)
	}

	return nil
}

func (i *Instrument) Query(cmd string) (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return "", scpi.ErrConnClosed
	}
	if i.QueryErr != nil {
		return "", i.QueryErr
	}
	i.queries = append(i.queries, cmd)

	if i.handler != nil {
		return i.handler(cmd), nil
	}
	if cmd == "*OPC?" {
		return "1", nil
	}

	return "0", nil
}

func (i *Instrument) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.closed = true

	return nil
}

// Closed reports whether Close has been called.
func (i *Instrument) Closed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.closed
}

// Writes returns a copy of every command line written so far, excluding
// query lines.
func (i *Instrument) Writes() []string {
	i.mu.Lock()
	defer i.mu.Unlock()

	writes := make([]string, len(i.writes))
	copy(writes, i.writes)

	return writes
}

// Queries returns a copy of every query line issued so far.
func (i *Instrument) Queries() []string {
	i.mu.Lock()
	defer i.mu.Unlock()

	queries := make([]string, len(i.queries))
	copy(queries, i.queries)

	return queries
}

// CountWrites returns how many times the exact command line was written.
func (i *Instrument) CountWrites(cmd string) int {
	i.mu.Lock()
	defer i.mu.Unlock()

	n := 0
	for _, w := range i.writes {
		if w == cmd {
			n++
		}
	}

	return n
}

// Reset clears the recorded command log but keeps the handler and state.
func (i *Instrument) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.writes = nil
	i.queries = nil
}

// DialFunc returns an scpi.DialFunc handing out this instrument for any
// address, for wiring into scpi.WithDialFunc.
func (i *Instrument) DialFunc() scpi.DialFunc {
	return func(string, time.Duration) (scpi.Transport, error) {
		return i, nil
	}
}
