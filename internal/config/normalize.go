// internal/config/normalize.go
package config

import "strings"

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Mode = strings.ToLower(strings.TrimSpace(cfg.Mode))
	cfg.Parser.Mode = strings.ToLower(strings.TrimSpace(cfg.Parser.Mode))
	cfg.Serial.Parity = strings.ToLower(strings.TrimSpace(cfg.Serial.Parity))
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))

	for i, p := range cfg.Parser.VendorPrefixes {
		cfg.Parser.VendorPrefixes[i] = strings.ToUpper(strings.TrimSpace(p))
	}

	cfg.Printers.Primary.Endpoint = strings.TrimSpace(cfg.Printers.Primary.Endpoint)
	cfg.Printers.PCB.Endpoint = strings.TrimSpace(cfg.Printers.PCB.Endpoint)

	// ------------------------------------------------------------
	// STATION STATUS BLOCK NORMALIZATION (OPT-IN)
	// ------------------------------------------------------------

	// station_name: ASCII already validated; truncate to 16 characters
	if len(cfg.Status.StationName) > 16 {
		cfg.Status.StationName = cfg.Status.StationName[:16]
	}
}
