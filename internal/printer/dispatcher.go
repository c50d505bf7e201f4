// internal/printer/dispatcher.go
package printer

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Printer roles reported to observers.
const (
	RolePrimary = "primary"
	RolePCB     = "pcb"
)

const defaultJobName = "labelstation"

// SecondaryResult is the PCB printer outcome for one record.
type SecondaryResult int

const (
	NotAttempted SecondaryResult = iota
	OK
	Failed
)

func (r SecondaryResult) String() string {
	switch r {
	case OK:
		return "OK"
	case Failed:
		return "Failed"
	default:
		return "NotAttempted"
	}
}

// Outcome is the per-record dispatch triple.
type Outcome struct {
	Primary   bool
	Secondary SecondaryResult
	// Sent holds the primary program bytes handed to the transport.
	Sent []byte
}

// Observer receives one call per attempted dispatch.
type Observer interface {
	ObserveDispatch(role string, ok bool, elapsed time.Duration)
}

// Dispatcher sends label programs to printer endpoints.
// Failures are logged and reported as false, never returned as errors.
type Dispatcher struct {
	transport Transport
	log       zerolog.Logger

	mu       sync.Mutex
	debug    bool
	observer Observer
	captured map[string]string
}

// NewDispatcher builds a dispatcher over t.
func NewDispatcher(t Transport, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		transport: t,
		log:       log,
		captured:  make(map[string]string),
	}
}

// SetDebug switches simulation mode. In simulation no transport is
// opened, every dispatch succeeds and the program is captured.
func (d *Dispatcher) SetDebug(on bool) {
	d.mu.Lock()
	d.debug = on
	d.mu.Unlock()
}

// Debug reports whether simulation mode is on.
func (d *Dispatcher) Debug() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.debug
}

// SetObserver installs o; nil removes it.
func (d *Dispatcher) SetObserver(o Observer) {
	d.mu.Lock()
	d.observer = o
	d.mu.Unlock()
}

// LastProgram returns the last program captured in simulation for endpoint.
func (d *Dispatcher) LastProgram(endpoint string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.captured[endpoint]
	return p, ok
}

// Dispatch runs one raw job: open, begin, write, end, close.
func (d *Dispatcher) Dispatch(endpoint, program string) bool {
	return d.dispatch("", endpoint, program)
}

// DispatchPair sends both programs. Neither endpoint blocks the other.
// An empty endpoint is unconfigured; the PCB endpoint is skipped
// entirely when pcbEnabled is false.
func (d *Dispatcher) DispatchPair(primaryEP, primaryProg, pcbEP, pcbProg string, pcbEnabled bool) Outcome {
	var out Outcome

	if primaryEP == "" && !d.Debug() {
		d.log.Error().Msg("primary printer not configured")
	} else {
		out.Primary = d.dispatch(RolePrimary, primaryEP, primaryProg)
		out.Sent = []byte(primaryProg)
	}

	if pcbEnabled && pcbEP != "" {
		if d.dispatch(RolePCB, pcbEP, pcbProg) {
			out.Secondary = OK
		} else {
			out.Secondary = Failed
		}
	}

	return out
}

func (d *Dispatcher) dispatch(role, endpoint, program string) bool {
	d.mu.Lock()
	debug, obs := d.debug, d.observer
	d.mu.Unlock()

	start := time.Now()
	var ok bool
	if debug {
		ok = d.simulate(role, endpoint, program)
	} else {
		ok = d.send(role, endpoint, program)
	}

	if obs != nil && role != "" {
		obs.ObserveDispatch(role, ok, time.Since(start))
	}
	return ok
}

func (d *Dispatcher) simulate(role, endpoint, program string) bool {
	d.mu.Lock()
	d.captured[endpoint] = program
	d.mu.Unlock()

	d.log.Info().
		Str("role", role).
		Str("endpoint", endpoint).
		Int("bytes", len(program)).
		Str("preview", preview(program, 120)).
		Msg("debug print simulated")
	return true
}

func (d *Dispatcher) send(role, endpoint, program string) bool {
	log := d.log.With().Str("role", role).Str("endpoint", endpoint).Logger()

	conn, err := d.transport.Open(endpoint)
	if err != nil {
		log.Error().Err(err).Msg("printer open failed")
		return false
	}

	var errs []string
	jobID, err := conn.BeginJob(defaultJobName)
	if err != nil {
		errs = append(errs, err.Error())
	} else {
		if err := conn.Write([]byte(program)); err != nil {
			errs = append(errs, err.Error())
		}
		if err := conn.EndJob(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := conn.Close(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		log.Error().Str("job", jobID).Str("errors", strings.Join(errs, " | ")).Msg("print job failed")
		return false
	}

	log.Info().Str("job", jobID).Int("bytes", len(program)).Msg("print job sent")
	return true
}

func preview(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
