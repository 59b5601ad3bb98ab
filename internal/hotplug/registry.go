package hotplug

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Callback receives decoded device change notifications. It runs on the
// monitor goroutine, never on the goroutine that registered it.
type Callback func(added bool, devicePath string)

// Process-wide registration state. At most one callback is active at a time.
var (
	registryMu    sync.Mutex
	activeMonitor *Monitor
)

// Register starts device change monitoring and installs the callback. While
// a registration is active, further Register calls are no-ops with a
// warning; the first callback stays active.
func Register(callback Callback) error {
	registryMu.Lock()
	defer registryMu.Unlock()

	if activeMonitor != nil {
		log.Warn().Msg("Device change callback already registered")
		return nil
	}

	monitor := NewMonitor(func(event Event) {
		callback(event.Added, event.DevicePath)
	})
	if err := monitor.Start(); err != nil {
		return err
	}

	activeMonitor = monitor
	log.Info().Msg("Device change monitoring started")
	return nil
}

// Unregister tears down the active subscription and clears the callback.
// Idempotent; safe to call when nothing is registered.
func Unregister() {
	registryMu.Lock()
	defer registryMu.Unlock()

	if activeMonitor == nil {
		return
	}

	if err := activeMonitor.Stop(); err != nil {
		log.Error().Err(err).Msg("Failed to stop hotplug monitor")
	}
	activeMonitor = nil
	log.Info().Msg("Device change monitoring stopped")
}

// Registered reports whether a callback is currently active.
func Registered() bool {
	registryMu.Lock()
	defer registryMu.Unlock()
	return activeMonitor != nil
}
