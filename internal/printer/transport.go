// internal/printer/transport.go
package printer

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ErrTransport wraps every failure of a raw print job.
var ErrTransport = errors.New("printer: transport failed")

// Transport opens a named printer endpoint for raw print jobs.
type Transport interface {
	Open(endpoint string) (Conn, error)
}

// Conn is one open endpoint. A job is BeginJob, Write..., EndJob.
type Conn interface {
	BeginJob(name string) (jobID string, err error)
	Write(p []byte) error
	EndJob() error
	Close() error
}

// Endpoint schemes understood by Mux.
const (
	SchemeTCP  = "tcp"
	SchemeFile = "file"
	SchemeLP   = "lp"
)

// Mux routes an endpoint URL to the transport registered for its scheme.
//
//	tcp://192.168.1.50:9100   raw socket (JetDirect)
//	file:///dev/usb/lp0       device node or plain file
//	lp://Zebra_GC420T         local spooler queue, raw mode
type Mux struct {
	transports map[string]Transport
}

// NewMux builds the default scheme table.
func NewMux(timeout time.Duration) *Mux {
	return &Mux{
		transports: map[string]Transport{
			SchemeTCP:  &TCPTransport{Timeout: timeout},
			SchemeFile: &DeviceTransport{},
			SchemeLP:   &SpoolTransport{},
		},
	}
}

// Handle registers or replaces the transport for scheme.
func (m *Mux) Handle(scheme string, t Transport) {
	m.transports[strings.ToLower(scheme)] = t
}

// Open parses endpoint and delegates to the scheme's transport.
func (m *Mux) Open(endpoint string) (Conn, error) {
	scheme, target, err := SplitEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	t, ok := m.transports[scheme]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrTransport, scheme)
	}
	return t.Open(target)
}

// SplitEndpoint returns the lower-cased scheme and the transport target.
func SplitEndpoint(endpoint string) (scheme, target string, err error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return "", "", fmt.Errorf("%w: endpoint %q: %v", ErrTransport, endpoint, err)
	}
	scheme = strings.ToLower(u.Scheme)

	switch scheme {
	case SchemeTCP:
		target = u.Host
	case SchemeFile:
		target = u.Path
		if u.Host != "" {
			target = u.Host + u.Path
		}
	case SchemeLP:
		target = u.Host + u.Path
		if u.Opaque != "" {
			target = u.Opaque
		}
	case "":
		return "", "", fmt.Errorf("%w: endpoint %q has no scheme", ErrTransport, endpoint)
	default:
		target = u.Host + u.Path
	}

	if target == "" {
		return "", "", fmt.Errorf("%w: endpoint %q has no target", ErrTransport, endpoint)
	}
	return scheme, target, nil
}

func stepErr(step, target string, err error) error {
	return fmt.Errorf("%w: %s %s: %v", ErrTransport, step, target, err)
}
