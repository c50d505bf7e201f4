// internal/config/config.go
package config

type Config struct {
	Serial   SerialConfig   `yaml:"serial"`
	Parser   ParserConfig   `yaml:"parser"`
	Sequence SequenceConfig `yaml:"sequence"`
	Mode     string         `yaml:"mode"` // auto | queue
	Template TemplateConfig `yaml:"template"`
	Printers PrintersConfig `yaml:"printers"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Status   StatusConfig   `yaml:"status"`
	Events   EventsConfig   `yaml:"events"`
}

// ---- SERIAL ----

type SerialConfig struct {
	Port           string `yaml:"port"`
	BaudRate       int    `yaml:"baud_rate"`
	DataBits       int    `yaml:"data_bits"`
	StopBits       int    `yaml:"stop_bits"`
	Parity         string `yaml:"parity"`
	ReadTimeoutMs  int    `yaml:"read_timeout_ms"`
	FlushTimeoutMs int    `yaml:"flush_timeout_ms"`
}

// ---- PARSER ----

type ParserConfig struct {
	Mode           string   `yaml:"mode"` // line | stream
	VendorPrefixes []string `yaml:"vendor_prefixes"`
}

// ---- SEQUENCE ----

type SequenceConfig struct {
	InitialSTC    int   `yaml:"initial_stc"`
	AutoIncrement *bool `yaml:"auto_increment"`
}

// ---- TEMPLATE ----

type TemplateConfig struct {
	Path   string `yaml:"path"` // empty = built-in layout
	Strict *bool  `yaml:"strict"`
}

// ---- PRINTERS ----

type PrintersConfig struct {
	Debug     bool          `yaml:"debug"`
	TimeoutMs int           `yaml:"timeout_ms"`
	Primary   PrinterConfig `yaml:"primary"`
	PCB       PrinterConfig `yaml:"pcb"`
}

type PrinterConfig struct {
	Endpoint string `yaml:"endpoint"` // tcp://host:9100 | file:///dev/usb/lp0 | lp://Queue
	Enabled  *bool  `yaml:"enabled"`
}

// ---- STORAGE ----

type StorageConfig struct {
	CSVPath    string `yaml:"csv_path"`
	ArchiveDir string `yaml:"archive_dir"`
	ArchiveExt string `yaml:"archive_ext"`
}

// ---- LOGGING ----

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ---- METRICS ----

type MetricsConfig struct {
	Listen string `yaml:"listen"` // empty = disabled
	Path   string `yaml:"path"`
}

// ---- STATUS BLOCK (optional, opt-in) ----

type StatusConfig struct {
	Endpoint    string `yaml:"endpoint"`
	UnitID      uint16 `yaml:"unit_id"`
	BaseSlot    uint16 `yaml:"base_slot"`
	StationName string `yaml:"station_name"`
	TimeoutMs   int    `yaml:"timeout_ms"`
}

// Enabled reports whether the PLC status block is configured.
func (s StatusConfig) Enabled() bool {
	return s.Endpoint != ""
}

// ---- EVENTS (optional) ----

type EventsConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// Enabled reports whether device events are published.
func (e EventsConfig) Enabled() bool {
	return e.NATSURL != ""
}

// PCBEnabled reports whether the PCB printer is configured and switched on.
func (p PrintersConfig) PCBEnabled() bool {
	if p.PCB.Endpoint == "" {
		return false
	}
	return p.PCB.Enabled == nil || *p.PCB.Enabled
}
