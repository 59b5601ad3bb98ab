// Package hotplug provides device arrival/removal detection for video
// capture devices via netlink/udev events.
package hotplug

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"syscall"

	"github.com/pilebones/go-udev/netlink"
	"github.com/rs/zerolog/log"
)

const (
	// netlinkBufferSize is the receive buffer size for the netlink socket.
	// USB hot-plug generates many netlink messages rapidly; a larger buffer
	// prevents ENOBUFS drops during churn.
	netlinkBufferSize = 2 * 1024 * 1024 // 2 MB

	// videoSubsystem is the kernel subsystem video capture nodes appear in.
	videoSubsystem = "video4linux"
)

// Event represents a device hot-plug event.
type Event struct {
	Added      bool
	DevicePath string
}

// EventHandler is called on the monitor goroutine when a device event
// occurs. Handlers must treat core APIs as thread-safe entry points; the
// goroutine is not the one that registered the handler.
type EventHandler func(event Event)

// RecoveryHandler is called when the monitor recovers from an error
// condition (e.g. netlink buffer overflow) and a full re-enumeration is the
// only way to catch missed events.
type RecoveryHandler func()

// Monitor watches for capture device connect/disconnect events.
type Monitor struct {
	conn            *netlink.UEventConn
	handler         EventHandler
	recoveryHandler RecoveryHandler
	quit            chan struct{}
	stopped         bool
	mu              sync.Mutex
}

// NewMonitor creates a monitor with the given event handler.
func NewMonitor(handler EventHandler) *Monitor {
	return &Monitor{handler: handler}
}

// SetRecoveryHandler sets the handler called when the monitor recovers from
// errors. This should trigger a device refresh to recover from potentially
// missed events.
func (m *Monitor) SetRecoveryHandler(handler RecoveryHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recoveryHandler = handler
}

// Start begins monitoring for device events. Non-blocking; events are
// processed in a background goroutine.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != nil {
		return fmt.Errorf("monitor already started")
	}

	m.conn = &netlink.UEventConn{}
	if err := m.conn.Connect(netlink.UdevEvent); err != nil {
		m.conn = nil
		return fmt.Errorf("failed to connect to netlink: %w", err)
	}

	if err := setSocketBufferSize(m.conn.Fd, netlinkBufferSize); err != nil {
		log.Warn().Err(err).Int("size", netlinkBufferSize).Msg("Failed to set netlink buffer size")
	} else {
		log.Debug().Int("size", netlinkBufferSize).Msg("Netlink socket buffer size configured")
	}

	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	m.quit = m.conn.Monitor(queue, errs, createMatcher())
	m.stopped = false

	go m.processEvents(queue, errs)

	log.Info().Msg("Hotplug monitor started")
	return nil
}

// Stop stops the monitor and releases resources. Safe to call when the
// monitor never started.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil || m.stopped {
		return nil
	}

	m.stopped = true

	select {
	case m.quit <- struct{}{}:
	default:
	}

	if err := m.conn.Close(); err != nil {
		return fmt.Errorf("failed to close netlink connection: %w", err)
	}

	m.conn = nil
	log.Info().Msg("Hotplug monitor stopped")
	return nil
}

// createMatcher matches add/remove events for video capture nodes.
func createMatcher() *netlink.RuleDefinitions {
	rules := &netlink.RuleDefinitions{}

	addAction := "add"
	removeAction := "remove"
	subsystemPattern := "^" + videoSubsystem + "$"

	rules.AddRule(netlink.RuleDefinition{
		Action: &addAction,
		Env:    map[string]string{"SUBSYSTEM": subsystemPattern},
	})
	rules.AddRule(netlink.RuleDefinition{
		Action: &removeAction,
		Env:    map[string]string{"SUBSYSTEM": subsystemPattern},
	})

	return rules
}

// processEvents handles incoming udev events.
func (m *Monitor) processEvents(queue chan netlink.UEvent, errs chan error) {
	for {
		select {
		case event, ok := <-queue:
			if !ok {
				return
			}
			m.handleEvent(event)
		case err, ok := <-errs:
			if !ok {
				return
			}
			m.mu.Lock()
			stopped := m.stopped
			recoveryHandler := m.recoveryHandler
			m.mu.Unlock()
			if stopped {
				return
			}

			// Netlink buffer overflows mean events were dropped; only a
			// full re-enumeration recovers the missed state.
			if isBufferOverflowError(err) {
				log.Warn().Msg("Netlink buffer overflow detected, triggering recovery refresh")
				if recoveryHandler != nil {
					go recoveryHandler()
				}
				continue
			}

			log.Error().Err(err).Msg("Hotplug monitor error")
		}
	}
}

// handleEvent decodes a single udev event and dispatches the handler. Panics
// escaping the handler are caught and logged, never propagated into event
// dispatch.
func (m *Monitor) handleEvent(uevent netlink.UEvent) {
	var added bool
	switch uevent.Action {
	case netlink.ADD:
		added = true
	case netlink.REMOVE:
		added = false
	default:
		return
	}

	path := devicePath(uevent)
	log.Debug().
		Str("action", string(uevent.Action)).
		Str("devpath", path).
		Msg("Capture device event")

	if added {
		log.Info().Str("device", path).Msg("Capture device connected")
	} else {
		log.Info().Str("device", path).Msg("Capture device disconnected")
	}

	if m.handler == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Panic in device change handler")
		}
	}()
	m.handler(Event{Added: added, DevicePath: path})
}

// devicePath derives the device node path from a uevent, falling back to the
// kernel object path when DEVNAME is absent (common on remove events).
func devicePath(uevent netlink.UEvent) string {
	name := uevent.Env["DEVNAME"]
	if name == "" {
		return uevent.KObj
	}
	if strings.HasPrefix(name, "/") {
		return name
	}
	return "/dev/" + name
}

// setSocketBufferSize sets the receive buffer size for a socket. It first
// tries SO_RCVBUFFORCE (requires CAP_NET_ADMIN), then falls back to
// SO_RCVBUF, which the kernel caps at rmem_max.
func setSocketBufferSize(fd int, size int) error {
	err := syscall.SetsockoptInt(fd, syscall.SOL_SOCKET, syscall.SO_RCVBUFFORCE, size)
	if err == nil {
		return nil
	}
	return syscall.SetsockoptInt(fd, syscall.SOL_SOCKET, syscall.SO_RCVBUF, size)
}

// isBufferOverflowError checks if the error is a netlink buffer overflow.
func isBufferOverflowError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ENOBUFS) {
		return true
	}
	// Fallback for non-wrapped errors from the udev library.
	return strings.Contains(strings.ToLower(err.Error()), "no buffer space available")
}
