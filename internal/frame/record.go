// internal/frame/record.go
package frame

import "strconv"

// Field names as they appear in label templates and in the record log header.
const (
	KeySTC          = "STC"
	KeySerialNumber = "SERIAL_NUMBER"
	KeyIMEI         = "IMEI"
	KeyIMSI         = "IMSI"
	KeyCCID         = "CCID"
	KeyMACAddress   = "MAC_ADDRESS"
	KeyTimestamp    = "TIMESTAMP"
)

// Padding sentinels for positions the wire data omitted.
const (
	Unknown     = "UNKNOWN"
	UnknownCCID = "UNKNOWN_CCID"
	ZeroMAC     = "00:00:00:00:00:00"
)

// TimestampLayout is the parse-time capture format.
const TimestampLayout = "2006-01-02 15:04:05"

// DeviceRecord is one parsed telemetry frame.
// STC is zero until the sequence allocator stamps it.
type DeviceRecord struct {
	SerialNumber string
	IMEI         string
	IMSI         string
	CCID         string
	MACAddress   string

	STC       int
	Timestamp string

	// Raw is the cleaned input the record was matched from.
	Raw string
	// Pattern names the wire pattern that matched.
	Pattern string
}

// Fields returns the placeholder map consumed by label templates.
// STC is present only once assigned.
func (r DeviceRecord) Fields() map[string]string {
	m := map[string]string{
		KeySerialNumber: r.SerialNumber,
		KeyIMEI:         r.IMEI,
		KeyIMSI:         r.IMSI,
		KeyCCID:         r.CCID,
		KeyMACAddress:   r.MACAddress,
		KeyTimestamp:    r.Timestamp,
	}
	if r.STC > 0 {
		m[KeySTC] = strconv.Itoa(r.STC)
	}
	return m
}
