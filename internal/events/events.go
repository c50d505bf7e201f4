// internal/events/events.go
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/tamzrod/labelstation/internal/pipeline"
)

// DefaultSubject carries finalized device results.
const DefaultSubject = "labelstation.device.processed"

// DeviceEvent is the wire form of one finalized record.
// Field names match the record log columns consumed by report tools.
type DeviceEvent struct {
	ID        string    `json:"id"`
	Station   string    `json:"station,omitempty"`
	At        time.Time `json:"at"`
	STC       int       `json:"stc"`
	Serial    string    `json:"serial_number"`
	IMEI      string    `json:"imei"`
	IMSI      string    `json:"imsi"`
	CCID      string    `json:"ccid"`
	MAC       string    `json:"mac_address"`
	Timestamp string    `json:"timestamp"`
	Status    string    `json:"status"`
	PCB       string    `json:"pcb_status"`
	ZPLFile   string    `json:"zpl_file,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// NewDeviceEvent converts a pipeline result.
func NewDeviceEvent(station string, res pipeline.Result) DeviceEvent {
	ev := DeviceEvent{
		ID:        uuid.NewString(),
		Station:   station,
		At:        time.Now().UTC(),
		STC:       res.STC,
		Serial:    res.Record.SerialNumber,
		IMEI:      res.Record.IMEI,
		IMSI:      res.Record.IMSI,
		CCID:      res.Record.CCID,
		MAC:       res.Record.MACAddress,
		Timestamp: res.Record.Timestamp,
		Status:    res.Status,
		PCB:       res.Secondary.String(),
		ZPLFile:   res.ArchiveFile,
	}
	if res.Err != nil {
		ev.Error = res.Err.Error()
	}
	return ev
}

// Encode marshals ev as JSON.
func Encode(ev DeviceEvent) ([]byte, error) {
	return json.Marshal(ev)
}

// Publisher fans finalized results out to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, ev DeviceEvent) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, DeviceEvent) error { return nil }
func (Nop) Close() error                               { return nil }
