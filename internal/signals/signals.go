//go:build linux || darwin || freebsd

// Package signals implements the platform signal manager on top of a
// platform.SignalDelivery (os/signal in production).
package signals

import (
	"fmt"
	"maps"
	"os"
	"strings"
	"sync"
	"syscall"

	"github.com/zhangyunhao116/nativeplat/platform"
)

// reserved lists signals that can never carry a runtime handler.
var reserved = map[syscall.Signal]string{
	syscall.SIGKILL: "cannot be caught",
	syscall.SIGSTOP: "cannot be caught",
	syscall.SIGSEGV: "reserved by the Go runtime",
	syscall.SIGBUS:  "reserved by the Go runtime",
	syscall.SIGFPE:  "reserved by the Go runtime",
	syscall.SIGILL:  "reserved by the Go runtime",
	syscall.SIGURG:  "used by the Go scheduler for preemption",
}

// dispatchBuffer is the capacity of the delivery channels. os/signal drops
// signals when a channel is full.
const dispatchBuffer = 32

// route is the channel one signal is delivered on. Each signal gets its own
// channel so that removing it stops only this manager's subscription.
type route struct {
	c    chan os.Signal
	stop chan struct{}
}

// Manager maps signals to handlers. Handlers run one at a time on a single
// dispatch goroutine started by the first Register.
type Manager struct {
	table    map[string]syscall.Signal
	known    map[syscall.Signal]struct{}
	delivery platform.SignalDelivery

	mu       sync.RWMutex
	handlers map[syscall.Signal]platform.SignalHandler
	routes   map[syscall.Signal]route
	ch       chan os.Signal
	done     chan struct{}
	started  bool
	closed   bool
}

var _ platform.SignalManager = (*Manager)(nil)

// New returns a Manager for the signals in table. If delivery is nil,
// os/signal is used.
func New(table map[string]syscall.Signal, delivery platform.SignalDelivery) *Manager {
	if delivery == nil {
		delivery = OSDelivery()
	}
	known := make(map[syscall.Signal]struct{}, len(table))
	for _, sig := range table {
		known[sig] = struct{}{}
	}
	return &Manager{
		table:    maps.Clone(table),
		known:    known,
		delivery: delivery,
		handlers: make(map[syscall.Signal]platform.SignalHandler),
		routes:   make(map[syscall.Signal]route),
		ch:       make(chan os.Signal, dispatchBuffer),
		done:     make(chan struct{}),
	}
}

// Signals returns a copy of the signal table.
func (m *Manager) Signals() map[string]syscall.Signal {
	return maps.Clone(m.table)
}

// Lookup resolves a signal name with or without the SIG prefix.
func (m *Manager) Lookup(name string) (syscall.Signal, error) {
	key := strings.TrimPrefix(strings.ToUpper(name), "SIG")
	sig, ok := m.table[key]
	if !ok {
		return 0, &platform.SignalRegistrationError{Reason: fmt.Sprintf("unknown signal name %q", name)}
	}
	return sig, nil
}

// validate rejects signals outside the table and reserved signals.
func (m *Manager) validate(sig syscall.Signal) error {
	if _, ok := m.known[sig]; !ok {
		return &platform.SignalRegistrationError{Signal: sig, Reason: "unsupported signal number"}
	}
	if reason, ok := reserved[sig]; ok {
		return &platform.SignalRegistrationError{Signal: sig, Reason: reason}
	}
	return nil
}

// Register installs handler for sig, replacing any previous handler.
func (m *Manager) Register(sig syscall.Signal, handler platform.SignalHandler) error {
	if handler == nil {
		return &platform.SignalRegistrationError{Signal: sig, Reason: "nil handler"}
	}
	if err := m.validate(sig); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return &platform.SignalRegistrationError{Signal: sig, Reason: "signal manager closed"}
	}
	if !m.started {
		m.started = true
		go m.dispatch()
	}
	m.handlers[sig] = handler
	if _, ok := m.routes[sig]; !ok {
		r := route{c: make(chan os.Signal, dispatchBuffer), stop: make(chan struct{})}
		m.routes[sig] = r
		go m.forward(r)
		m.delivery.Install(r.c, sig)
	}
	return nil
}

// Ignore drops any handler for sig and sets its disposition to SIG_IGN.
func (m *Manager) Ignore(sig syscall.Signal) error {
	if err := m.validate(sig); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers, sig)
	m.removeRoute(sig)
	m.delivery.Ignore(sig)
	return nil
}

// Unregister drops any handler for sig and stops its delivery to this
// manager. The default disposition returns once no other subscriber in the
// process wants sig. Unregistering a signal without a handler is not an
// error.
func (m *Manager) Unregister(sig syscall.Signal) error {
	if err := m.validate(sig); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers, sig)
	m.removeRoute(sig)
	return nil
}

// Handler returns the handler registered for sig.
func (m *Manager) Handler(sig syscall.Signal) (platform.SignalHandler, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.handlers[sig]
	return h, ok
}

// Raise sends sig to the current process.
func (m *Manager) Raise(sig syscall.Signal) error {
	if _, ok := m.known[sig]; !ok {
		return &platform.SignalRegistrationError{Signal: sig, Reason: "unsupported signal number"}
	}
	return m.delivery.Raise(sig)
}

// Close stops delivery of every registered signal to this manager and
// stops the dispatch goroutine. Later registrations fail.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for sig := range m.routes {
		m.removeRoute(sig)
	}
	clear(m.handlers)
	close(m.done)
}

// removeRoute stops delivery of sig to this manager. The caller holds mu.
func (m *Manager) removeRoute(sig syscall.Signal) {
	r, ok := m.routes[sig]
	if !ok {
		return
	}
	delete(m.routes, sig)
	m.delivery.Remove(r.c, sig)
	close(r.stop)
}

// forward moves signals from a route to the dispatch channel.
func (m *Manager) forward(r route) {
	for {
		select {
		case <-r.stop:
			return
		case s := <-r.c:
			select {
			case m.ch <- s:
			case <-r.stop:
				return
			}
		}
	}
}

func (m *Manager) dispatch() {
	for {
		select {
		case <-m.done:
			return
		case s := <-m.ch:
			sig, ok := s.(syscall.Signal)
			if !ok {
				continue
			}
			if h, ok := m.Handler(sig); ok {
				h(sig)
			}
		}
	}
}
