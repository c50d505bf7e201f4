// internal/monitor/monitor.go
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrNotConnected is returned when the port could not be opened.
	ErrNotConnected = errors.New("monitor: not connected")
	// ErrAlreadyRunning is returned by Start while monitoring.
	ErrAlreadyRunning = errors.New("monitor: already running")
)

// DefaultFlushTimeout flushes unterminated input after this much silence.
const DefaultFlushTimeout = 2 * time.Second

const readSize = 1024

// State of the port monitor.
type State int

const (
	Disconnected State = iota
	Connected
	Monitoring
)

func (s State) String() string {
	switch s {
	case Connected:
		return "connected"
	case Monitoring:
		return "monitoring"
	default:
		return "disconnected"
	}
}

// Monitor owns the telemetry port and emits one string per logical record.
//
// Disconnected -> Connected -> Monitoring -> Disconnected.
// A failed connect stays Disconnected; Stop is idempotent.
type Monitor struct {
	open  Opener
	flush time.Duration
	log   zerolog.Logger

	mu     sync.Mutex
	state  State
	port   Port
	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a monitor. flush <= 0 selects DefaultFlushTimeout.
func New(open Opener, flush time.Duration, log zerolog.Logger) *Monitor {
	if flush <= 0 {
		flush = DefaultFlushTimeout
	}
	return &Monitor{open: open, flush: flush, log: log}
}

// State returns the current state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connect opens the port. It is a no-op when already connected.
func (m *Monitor) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectLocked()
}

func (m *Monitor) connectLocked() error {
	switch m.state {
	case Connected:
		return nil
	case Monitoring:
		return ErrAlreadyRunning
	}

	p, err := m.open()
	if err != nil {
		m.log.Error().Err(err).Msg("serial connect failed")
		return fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	m.port = p
	m.state = Connected
	m.log.Info().Msg("serial connected")
	return nil
}

// Start connects if needed and begins forwarding records to out.
// It returns once the input loop is running.
func (m *Monitor) Start(ctx context.Context, out chan<- string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Monitoring {
		return ErrAlreadyRunning
	}
	if err := m.connectLocked(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.state = Monitoring

	go m.run(ctx, m.port, out, m.done)

	m.log.Info().Dur("flush_timeout", m.flush).Msg("monitoring started")
	return nil
}

// Done is closed when the current input loop exits. It is nil before Start.
func (m *Monitor) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

// Stop ends monitoring and closes the port.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	if m.state == Connected {
		m.closeLocked()
	}
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (m *Monitor) closeLocked() {
	if m.port != nil {
		if err := m.port.Close(); err != nil {
			m.log.Warn().Err(err).Msg("serial close failed")
		}
		m.port = nil
	}
	m.state = Disconnected
	m.cancel = nil
}

func (m *Monitor) run(ctx context.Context, port Port, out chan<- string, done chan struct{}) {
	defer close(done)

	quit := make(chan struct{})
	chunks := make(chan []byte)
	readErr := make(chan error, 1)

	defer func() {
		close(quit)
		m.mu.Lock()
		m.closeLocked()
		m.mu.Unlock()
		m.log.Info().Msg("monitoring stopped")
	}()

	go func() {
		buf := make([]byte, readSize)
		for {
			n, err := port.Read(buf)
			if n > 0 {
				chunk := append([]byte(nil), buf[:n]...)
				select {
				case chunks <- chunk:
				case <-quit:
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
			select {
			case <-quit:
				return
			default:
			}
		}
	}()

	var seg Segmenter
	timer := time.NewTimer(m.flush)
	stopTimer(timer)

	emit := func(unit string) bool {
		select {
		case out <- unit:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case err := <-readErr:
			if ctx.Err() == nil {
				m.log.Error().Err(err).Msg("serial read failed")
			}
			return

		case chunk := <-chunks:
			m.log.Trace().Bytes("chunk", chunk).Msg("serial read")
			for _, u := range seg.Write(chunk) {
				if !emit(u) {
					return
				}
			}
			if seg.Pending() > 0 {
				resetTimer(timer, m.flush)
			} else {
				stopTimer(timer)
			}

		case <-timer.C:
			if u, ok := seg.Flush(); ok {
				m.log.Debug().Str("data", u).Msg("flushed unterminated input")
				if !emit(u) {
					return
				}
			}
		}
	}
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	stopTimer(t)
	t.Reset(d)
}
