// Package bench coordinates several open instrument sessions, as a setup
// driving a microwave source per qubit line plus a shared supply does.
//
// A session is not safe for concurrent use: the instrument has one
// addressable state (selected channel, frequency mode) shared across
// calls. The registry therefore hands out each instrument through a
// per-instrument mutex, so concurrent callers are serialized per
// instrument while different instruments proceed in parallel.
package bench

import (
	"errors"
	"fmt"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/rbeignon/go-rsbench/logger"
)

// Instrument is the registry's view of an open session. Both
// mwsource.Session and powersupply.Session satisfy it; Close is expected
// to de-energize the instrument before releasing the transport.
type Instrument interface {
	Address() string
	Model() string
	Close() error
}

// ErrDuplicateAddress indicates that an instrument is already registered
// at the address.
var ErrDuplicateAddress = errors.New("bench: instrument already registered at address")

// ErrNotRegistered indicates that no instrument is registered at the
// address.
var ErrNotRegistered = errors.New("bench: no instrument registered at address")

type entry struct {
	mu   sync.Mutex
	inst Instrument
}

// Registry tracks open instruments by address.
type Registry struct {
	entries *xsync.MapOf[string, *entry]
	logger  logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: xsync.NewMapOf[string, *entry](),
		logger:  logger.GetLogger(),
	}
}

// Register adds an open instrument under its address.
func (r *Registry) Register(inst Instrument) error {
	e := &entry{inst: inst}
	if _, loaded := r.entries.LoadOrStore(inst.Address(), e); loaded {
		return fmt.Errorf("%w: %s", ErrDuplicateAddress, inst.Address())
	}
	r.logger.Info("instrument registered", "address", inst.Address(), "model", inst.Model())

	return nil
}

// Do runs fn with exclusive access to the instrument at the address.
// Calls targeting the same instrument are serialized; calls targeting
// different instruments run concurrently.
func (r *Registry) Do(address string, fn func(Instrument) error) error {
	e, ok := r.entries.Load(address)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, address)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return fn(e.inst)
}

// Deregister removes the instrument at the address and closes it,
// de-energizing it through the session's Close.
func (r *Registry) Deregister(address string) error {
	e, ok := r.entries.LoadAndDelete(address)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, address)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.inst.Close()
}

// Addresses returns the addresses of every registered instrument.
func (r *Registry) Addresses() []string {
	addresses := make([]string, 0, r.entries.Size())
	r.entries.Range(func(address string, _ *entry) bool {
		addresses = append(addresses, address)
		return true
	})

	return addresses
}

// Size returns the number of registered instruments.
func (r *Registry) Size() int {
	return r.entries.Size()
}

// CloseAll closes every registered instrument, best-effort: one failing
// close does not stop the others, and every error is surfaced.
func (r *Registry) CloseAll() error {
	var errs []error
	r.entries.Range(func(address string, e *entry) bool {
		e.mu.Lock()
		if err := e.inst.Close(); err != nil {
			errs = append(errs, err)
			r.logger.Error("close failed", "address", address, "error", err)
		}
		e.mu.Unlock()
		r.entries.Delete(address)

		return true
	})

	return errors.Join(errs...)
}
