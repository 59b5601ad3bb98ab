// SPDX-License-Identifier: GPL-3.0-only

package uvc

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/shini4i/uvcctl/internal/control"
)

// Pool caches device connections so repeated property operations on the same
// device do not pay the native binding cost each time.
//
// A single mutex serializes map mutations and validity checks; the native
// property I/O itself happens outside the lock, on the borrowed connection.
// The *Connection returned by Get is a borrow owned by the pool: it is valid
// only until the next Evict or ClearAll for that device, and callers must
// not retain it across pool mutations on other goroutines.
type Pool struct {
	mu         sync.Mutex
	conns      map[string]*Connection
	enumerator Enumerator
}

// PoolOption is a functional option for configuring a Pool.
type PoolOption func(*Pool)

// WithEnumerator sets a custom device enumerator, primarily for testing.
func WithEnumerator(enum Enumerator) PoolOption {
	return func(p *Pool) {
		p.enumerator = enum
	}
}

// NewPool creates a connection pool backed by the default platform
// enumerator unless overridden.
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{
		conns:      make(map[string]*Connection),
		enumerator: NewEnumerator(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Enumerator returns the enumerator the pool resolves devices with.
func (p *Pool) Enumerator() Enumerator {
	return p.enumerator
}

// Get returns the cached connection for a device, establishing a new one if
// none exists or the cached one is invalid. Connections that fail to bind are
// discarded rather than cached, so a temporarily busy device does not poison
// the cache. Returns DeviceNotFound when no valid connection can be made.
func (p *Pool) Get(dev control.Device) (*Connection, error) {
	if !dev.IsValid() {
		return nil, control.NewError(control.InvalidArgument, "device has no name or path")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	key := dev.ID()
	if conn, ok := p.conns[key]; ok && conn.IsValid() {
		return conn, nil
	}

	conn := NewConnection(p.enumerator, dev)
	if !conn.IsValid() {
		return nil, control.Errorf(control.DeviceNotFound, "cannot connect to device %s", key)
	}

	if stale, ok := p.conns[key]; ok {
		if err := stale.Close(); err != nil {
			log.Warn().Err(err).Str("device", key).Msg("Failed to close stale connection")
		}
	}
	p.conns[key] = conn
	return conn, nil
}

// Evict removes and closes the cached connection for a device, if any. Used
// when a caller knows the device was disconnected.
func (p *Pool) Evict(dev control.Device) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := dev.ID()
	conn, ok := p.conns[key]
	if !ok {
		return
	}
	if err := conn.Close(); err != nil {
		log.Warn().Err(err).Str("device", key).Msg("Failed to close evicted connection")
	}
	delete(p.conns, key)
	log.Debug().Str("device", key).Msg("Connection evicted")
}

// ClearAll removes and closes every cached connection. Safe to call
// repeatedly; used for bulk recovery after hotplug churn.
func (p *Pool) ClearAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for key, conn := range p.conns {
		if err := conn.Close(); err != nil {
			log.Warn().Err(err).Str("device", key).Msg("Failed to close connection")
		}
		delete(p.conns, key)
	}
}

// Count returns the number of cached connections.
func (p *Pool) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}
