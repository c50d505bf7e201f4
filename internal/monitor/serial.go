// internal/monitor/serial.go
package monitor

import (
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"
)

// Port is the byte source the monitor owns.
// Read may return (0, nil) when its read timeout expires.
type Port interface {
	Read(p []byte) (int, error)
	Close() error
}

// Opener opens the configured port.
type Opener func() (Port, error)

// SerialConfig describes the telemetry link. Zero values mean 9600 8N1.
type SerialConfig struct {
	Port        string
	BaudRate    int
	DataBits    int
	StopBits    int
	Parity      string
	ReadTimeout time.Duration
}

// SerialOpener returns an Opener for cfg.
func SerialOpener(cfg SerialConfig) Opener {
	return func() (Port, error) {
		return OpenSerial(cfg)
	}
}

// OpenSerial opens cfg.Port with go.bug.st/serial.
func OpenSerial(cfg SerialConfig) (Port, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		Parity:   parity(cfg.Parity),
		StopBits: serial.OneStopBit,
	}
	if mode.BaudRate <= 0 {
		mode.BaudRate = 9600
	}
	if mode.DataBits <= 0 {
		mode.DataBits = 8
	}
	if cfg.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}

	p, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Port, err)
	}

	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = 100 * time.Millisecond
	}
	if err := p.SetReadTimeout(timeout); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", cfg.Port, err)
	}
	return p, nil
}

// ListPorts returns the serial ports present on this host.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}

func parity(s string) serial.Parity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "odd", "o":
		return serial.OddParity
	case "even", "e":
		return serial.EvenParity
	case "mark", "m":
		return serial.MarkParity
	case "space", "s":
		return serial.SpaceParity
	default:
		return serial.NoParity
	}
}
