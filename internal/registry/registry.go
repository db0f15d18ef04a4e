// Package registry tracks the naming server's registered storage servers
// and decides placement and routing: which server receives a newly
// created file or directory, and which data stub serves a client read.
package registry

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/rand"

	"github.com/arjunmenon/meridian/internal/storageapi"
)

// ErrNoStorageAvailable is returned by Choose when no storage server is
// registered.
var ErrNoStorageAvailable = errors.New("registry: no storage server is registered")

// Registration describes one registered storage server: its data and
// command stubs, plus a mutable capacity hint read only by placement.
// The hint is advisory and never refreshed after registration.
type Registration struct {
	ID       uuid.UUID
	Data     storageapi.DataStub
	Command  storageapi.CommandStub
	Capacity int64
}

// Registry is the process-wide set of registered storage servers.
type Registry struct {
	mu   sync.RWMutex
	regs []*Registration
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{}
}

// Find returns the existing registration matching the exact
// (data, command) stub pair, if any. Either stub alone is not a match.
func (r *Registry) Find(data storageapi.DataStub, command storageapi.CommandStub) (*Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, reg := range r.regs {
		if reg.Data.Addr() == data.Addr() && reg.Command.Addr() == command.Addr() {
			return reg, true
		}
	}
	return nil, false
}

// Add registers a new storage server and returns its Registration.
func (r *Registry) Add(data storageapi.DataStub, command storageapi.CommandStub) *Registration {
	reg := &Registration{ID: uuid.New(), Data: data, Command: command}

	r.mu.Lock()
	r.regs = append(r.regs, reg)
	r.mu.Unlock()

	return reg
}

// Remove decommissions a storage server, removing it from the placement
// pool. Stub lists already recorded in the namespace are left alone;
// clients routed to a dead stub fail remotely and re-ask the naming
// server.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, reg := range r.regs {
		if reg.ID == id {
			r.regs = append(r.regs[:i], r.regs[i+1:]...)
			return
		}
	}
}

// Choose picks a registration for placement of a newly-created file or
// directory: the one with the largest capacity hint, ties broken by
// earliest registration order. Returns ErrNoStorageAvailable if no
// storage server is registered.
func (r *Registry) Choose() (*Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.regs) == 0 {
		return nil, ErrNoStorageAvailable
	}

	best := r.regs[0]
	for _, reg := range r.regs[1:] {
		if reg.Capacity > best.Capacity {
			best = reg
		}
	}
	return best, nil
}

// rng backs Route's random stub selection.
var rngMu sync.Mutex
var rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))

// Route picks one data stub uniformly at random from stubs, safe to call
// concurrently.
func Route(stubs []storageapi.DataStub) (storageapi.DataStub, error) {
	if len(stubs) == 0 {
		return storageapi.DataStub{}, ErrNoStorageAvailable
	}

	rngMu.Lock()
	i := rng.Intn(len(stubs))
	rngMu.Unlock()

	return stubs[i], nil
}
