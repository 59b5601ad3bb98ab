// Package xu exposes manufacturer-defined extension unit property sets
// through the generic extensible property interface, including the lifetime
// of the optional proxy library some property sets require.
package xu

import (
	"plugin"

	"github.com/rs/zerolog/log"
)

// LibraryHandle is an owned reference to a loaded proxy library. Closing the
// handle unmaps the library; every native object whose behavior is defined by
// library code must be released first.
type LibraryHandle interface {
	Close() error
}

// LoadFunc loads a proxy library from a path. Injectable for testing.
type LoadFunc func(path string) (LibraryHandle, error)

// Loader loads the proxy library an extensible property set may depend on.
type Loader struct {
	path string
	load LoadFunc
}

// LoaderOption is a functional option for configuring a Loader.
type LoaderOption func(*Loader)

// WithLoadFunc sets a custom library load function.
func WithLoadFunc(fn LoadFunc) LoaderOption {
	return func(l *Loader) {
		l.load = fn
	}
}

// NewLoader creates a loader for the proxy library at path.
func NewLoader(path string, opts ...LoaderOption) *Loader {
	l := &Loader{path: path, load: defaultLoad}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load maps the proxy library and returns the owning handle.
func (l *Loader) Load() (LibraryHandle, error) {
	handle, err := l.load(l.path)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("path", l.path).Msg("Proxy library loaded")
	return handle, nil
}

// pluginHandle wraps a Go plugin. The runtime keeps plugins mapped until
// process exit, so Close only drops the reference; fakes injected via
// WithLoadFunc observe the release ordering in tests.
type pluginHandle struct {
	p *plugin.Plugin
}

func (h pluginHandle) Close() error {
	return nil
}

func defaultLoad(path string) (LibraryHandle, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}
	return pluginHandle{p: p}, nil
}
