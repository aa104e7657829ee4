// Package server implements the concurrent TCP ingestion server for the
// I1 sensor link: one accept loop, one goroutine per connected sensor,
// one ACK per syntactically framed inbound message.
package server

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/linescope/linescope/internal/store"
	"go.uber.org/zap"
)

const (
	defaultReadTimeout = 30 * time.Second
	recvBufferSize     = 4096

	// acceptRetryDelay throttles the accept loop after a transient error
	// so a hot failure does not spin the CPU.
	acceptRetryDelay = 100 * time.Millisecond
)

// Options tunes a Manager. Zero values select the defaults above.
type Options struct {
	ReadTimeout  time.Duration
	MaxFrameSize int
}

// Manager owns the listener lifecycle. Start is idempotent and returns
// once the accept loop is running; Stop closes the listener and lets
// in-flight connection handlers drain on their own.
type Manager struct {
	mu       sync.Mutex
	listener net.Listener
	done     chan struct{}
	wg       sync.WaitGroup

	store  *store.TelemetryStore
	opts   Options
	logger *zap.SugaredLogger
}

// NewManager creates a Manager writing into st.
func NewManager(st *store.TelemetryStore, opts Options, logger *zap.SugaredLogger) *Manager {
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = defaultReadTimeout
	}
	return &Manager{
		store:  st,
		opts:   opts,
		logger: logger,
	}
}

// Start binds host:port and begins accepting sensor connections. Calling
// Start on a running manager is a no-op. A bind failure is returned to
// the caller; nothing is left running in that case.
func (m *Manager) Start(host string, port int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listener != nil {
		return nil
	}

	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("could not bind I1 listener on %s: %w", addr, err)
	}

	m.listener = listener
	m.done = make(chan struct{})

	m.wg.Add(1)
	go m.acceptLoop(listener, m.done)

	m.logger.Infof("I1 TCP server listening on %s", listener.Addr())
	return nil
}

// Stop closes the listener and stops accepting. Live handlers keep
// serving their peers until those disconnect or the process exits.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listener == nil {
		return
	}
	close(m.done)
	m.listener.Close()
	m.listener = nil

	m.logger.Info("I1 TCP server stopped")
}

// Addr returns the bound listener address, or nil when stopped.
func (m *Manager) Addr() net.Addr {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listener == nil {
		return nil
	}
	return m.listener.Addr()
}

// Wait blocks until the accept loop has exited. Handlers are not waited
// on; they are tied to their peers.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) acceptLoop(listener net.Listener, done chan struct{}) {
	defer m.wg.Done()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-done:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			// Transient accept errors are survivable.
			m.logger.Warnf("accept error: %v", err)
			time.Sleep(acceptRetryDelay)
			continue
		}

		h := newConnHandler(conn, m.store, m.opts, m.logger)
		go h.run()
	}
}
