// internal/config/defaults.go
package config

import "path/filepath"

// Defaults used when a field is left empty.
const (
	DefaultBaudRate       = 9600
	DefaultDataBits       = 8
	DefaultStopBits       = 1
	DefaultParity         = "none"
	DefaultReadTimeoutMs  = 100
	DefaultFlushTimeoutMs = 2000

	DefaultParserMode = "line"
	DefaultInitialSTC = 60000
	DefaultMode       = "auto"

	DefaultPrinterTimeoutMs = 3000

	DefaultArchiveExt = "zpl"
	DefaultLogLevel   = "info"
	DefaultLogFile    = "device_printer.log"
	DefaultMetricPath = "/metrics"

	DefaultStatusTimeoutMs = 2000
	DefaultEventsSubject   = "labelstation.device.processed"
)

var (
	DefaultCSVPath        = filepath.Join("save", "csv", "device_log.csv")
	DefaultArchiveDir     = filepath.Join("save", "zpl_outputs")
	DefaultVendorPrefixes = []string{"ATS"}
)

// ApplyDefaults fills every empty field. Explicit values are kept.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	s := &cfg.Serial
	if s.BaudRate == 0 {
		s.BaudRate = DefaultBaudRate
	}
	if s.DataBits == 0 {
		s.DataBits = DefaultDataBits
	}
	if s.StopBits == 0 {
		s.StopBits = DefaultStopBits
	}
	if s.Parity == "" {
		s.Parity = DefaultParity
	}
	if s.ReadTimeoutMs == 0 {
		s.ReadTimeoutMs = DefaultReadTimeoutMs
	}
	if s.FlushTimeoutMs == 0 {
		s.FlushTimeoutMs = DefaultFlushTimeoutMs
	}

	if cfg.Parser.Mode == "" {
		cfg.Parser.Mode = DefaultParserMode
	}
	if len(cfg.Parser.VendorPrefixes) == 0 {
		cfg.Parser.VendorPrefixes = append([]string(nil), DefaultVendorPrefixes...)
	}

	if cfg.Sequence.InitialSTC == 0 {
		cfg.Sequence.InitialSTC = DefaultInitialSTC
	}
	if cfg.Sequence.AutoIncrement == nil {
		on := true
		cfg.Sequence.AutoIncrement = &on
	}

	if cfg.Mode == "" {
		cfg.Mode = DefaultMode
	}

	if cfg.Template.Strict == nil {
		on := true
		cfg.Template.Strict = &on
	}

	if cfg.Printers.TimeoutMs == 0 {
		cfg.Printers.TimeoutMs = DefaultPrinterTimeoutMs
	}

	if cfg.Storage.CSVPath == "" {
		cfg.Storage.CSVPath = DefaultCSVPath
	}
	if cfg.Storage.ArchiveDir == "" {
		cfg.Storage.ArchiveDir = DefaultArchiveDir
	}
	if cfg.Storage.ArchiveExt == "" {
		cfg.Storage.ArchiveExt = DefaultArchiveExt
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.File == "" {
		cfg.Logging.File = DefaultLogFile
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricPath
	}

	if cfg.Status.Enabled() && cfg.Status.TimeoutMs == 0 {
		cfg.Status.TimeoutMs = DefaultStatusTimeoutMs
	}

	if cfg.Events.Enabled() && cfg.Events.Subject == "" {
		cfg.Events.Subject = DefaultEventsSubject
	}
}
