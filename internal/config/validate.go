// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tamzrod/labelstation/internal/printer"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil")
	}

	// ------------------------------------------------------------
	// SERIAL
	// ------------------------------------------------------------

	s := cfg.Serial
	if s.BaudRate <= 0 {
		return fmt.Errorf("serial: baud_rate must be > 0 (got %d)", s.BaudRate)
	}
	if s.DataBits < 5 || s.DataBits > 8 {
		return fmt.Errorf("serial: data_bits must be 5..8 (got %d)", s.DataBits)
	}
	if s.StopBits != 1 && s.StopBits != 2 {
		return fmt.Errorf("serial: stop_bits must be 1 or 2 (got %d)", s.StopBits)
	}
	switch strings.ToLower(strings.TrimSpace(s.Parity)) {
	case "none", "n", "odd", "o", "even", "e", "mark", "m", "space", "s":
	default:
		return fmt.Errorf("serial: unknown parity %q", s.Parity)
	}
	if s.ReadTimeoutMs <= 0 {
		return fmt.Errorf("serial: read_timeout_ms must be > 0 (got %d)", s.ReadTimeoutMs)
	}
	if s.FlushTimeoutMs < 100 {
		return fmt.Errorf("serial: flush_timeout_ms must be >= 100 (got %d)", s.FlushTimeoutMs)
	}

	// ------------------------------------------------------------
	// PARSER / SEQUENCE / MODE
	// ------------------------------------------------------------

	switch strings.ToLower(strings.TrimSpace(cfg.Parser.Mode)) {
	case "line", "stream":
	default:
		return fmt.Errorf("parser: unknown mode %q (want line or stream)", cfg.Parser.Mode)
	}

	if cfg.Sequence.InitialSTC < 0 {
		return fmt.Errorf("sequence: initial_stc must be >= 0 (got %d)", cfg.Sequence.InitialSTC)
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Mode)) {
	case "auto", "queue":
	default:
		return fmt.Errorf("mode: unknown mode %q (want auto or queue)", cfg.Mode)
	}

	// ------------------------------------------------------------
	// PRINTERS
	// ------------------------------------------------------------

	p := cfg.Printers
	if p.TimeoutMs <= 0 {
		return fmt.Errorf("printers: timeout_ms must be > 0 (got %d)", p.TimeoutMs)
	}
	if p.Primary.Endpoint == "" && !p.Debug {
		return errors.New("printers: primary.endpoint is required unless debug is set")
	}
	for name, ep := range map[string]string{"primary": p.Primary.Endpoint, "pcb": p.PCB.Endpoint} {
		if ep == "" {
			continue
		}
		scheme, _, err := printer.SplitEndpoint(ep)
		if err != nil {
			return fmt.Errorf("printers: %s: %w", name, err)
		}
		switch scheme {
		case printer.SchemeTCP, printer.SchemeFile, printer.SchemeLP:
		default:
			return fmt.Errorf("printers: %s: unsupported scheme %q", name, scheme)
		}
	}

	// ------------------------------------------------------------
	// STORAGE / LOGGING
	// ------------------------------------------------------------

	if cfg.Storage.CSVPath == "" {
		return errors.New("storage: csv_path is required")
	}
	if cfg.Storage.ArchiveDir == "" {
		return errors.New("storage: archive_dir is required")
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(cfg.Logging.Level)); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	// ------------------------------------------------------------
	// STATION STATUS BLOCK (OPT-IN)
	// ------------------------------------------------------------

	st := cfg.Status
	for i := 0; i < len(st.StationName); i++ {
		if st.StationName[i] > 0x7F {
			return errors.New("status: station_name must contain ASCII characters only")
		}
	}
	if st.Enabled() {
		if st.UnitID == 0 || st.UnitID > 255 {
			return fmt.Errorf("status: unit_id must be 1..255 (got %d)", st.UnitID)
		}
		// the block must fit the 16-bit register space
		if (uint32(st.BaseSlot)+1)*20 > 65536 {
			return fmt.Errorf("status: base_slot %d out of range", st.BaseSlot)
		}
	} else if st.UnitID != 0 || st.StationName != "" {
		return errors.New("status: unit_id/station_name set but endpoint is empty")
	}

	// ------------------------------------------------------------
	// EVENTS (OPT-IN)
	// ------------------------------------------------------------

	if cfg.Events.Subject != "" && cfg.Events.NATSURL == "" {
		return errors.New("events: subject set but nats_url is empty")
	}

	return nil
}
