// internal/pipeline/stats.go
package pipeline

import (
	"fmt"
	"time"
)

// Stats are process-level counters. Parse errors live only here.
type Stats struct {
	DevicesProcessed int
	SuccessfulPrints int
	FailedPrints     int
	ParseErrors      int

	PCBAttempted  int
	PCBSuccessful int
	PCBFailed     int

	StartTime time.Time
}

// PCBSuccessRate is the share of attempted PCB prints that succeeded, in percent.
func (s Stats) PCBSuccessRate() float64 {
	if s.PCBAttempted == 0 {
		return 0
	}
	return float64(s.PCBSuccessful) / float64(s.PCBAttempted) * 100
}

func (s Stats) String() string {
	return fmt.Sprintf(
		"processed=%d printed=%d failed=%d parse_errors=%d pcb=%d/%d (%.1f%%) uptime=%s",
		s.DevicesProcessed, s.SuccessfulPrints, s.FailedPrints, s.ParseErrors,
		s.PCBSuccessful, s.PCBAttempted, s.PCBSuccessRate(),
		time.Since(s.StartTime).Truncate(time.Second),
	)
}
