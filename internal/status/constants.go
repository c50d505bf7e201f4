// internal/status/constants.go
package status

// Station Status Block layout constants.
// These values define the PLC-facing protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerStation is the fixed number of holding registers per station.
const SlotsPerStation = 20

// ---- SLOT INDICES ----

// SlotHealthCode holds the station health state.
const SlotHealthCode = 0

// SlotLastErrorCode holds the code of the last failed record.
const SlotLastErrorCode = 1

// SlotSecondsInError holds how long (in seconds) the station has been unhealthy.
const SlotSecondsInError = 2

// SlotPrinted holds the low 16 bits of the printed-label counter.
const SlotPrinted = 3

// SlotFailed holds the low 16 bits of the failed-record counter.
const SlotFailed = 4

// SlotParseErrors holds the low 16 bits of the parse-error counter.
const SlotParseErrors = 5

// SlotLastSTCHigh and SlotLastSTCLow hold the last STC as a big-endian uint32.
const SlotLastSTCHigh = 6
const SlotLastSTCLow = 7

// ---- RESERVED RANGE ----

// Slots 8-10 are reserved for future use.
const SlotReservedStart = 8
const SlotReservedEnd = 10

// ---- STATION NAME ----

// SlotStationNameStart is the first slot used for the station name.
// The name always sits at the END of the block.
const SlotStationNameStart = 11

// SlotStationNameSlots is the number of slots reserved for the station name.
const SlotStationNameSlots = 8

// SlotStationNameEnd is the last slot used for the station name (inclusive).
const SlotStationNameEnd = SlotStationNameStart + SlotStationNameSlots - 1

// ---- LIMITS ----

// StationNameMaxChars is the maximum number of ASCII characters stored.
const StationNameMaxChars = 16

// ---- HEALTH CODES ----

// HealthUnknown is the boot state before any record was handled.
const HealthUnknown uint16 = 0

// HealthOK means the last record printed.
const HealthOK uint16 = 1

// HealthError means the last record failed.
const HealthError uint16 = 2

// HealthDisconnected means the serial monitor is not running.
const HealthDisconnected uint16 = 3

// ---- ERROR CODES ----

// ErrorNone is written while healthy.
const ErrorNone uint16 = 0

// ErrorGeneric covers failures without a more specific code.
const ErrorGeneric uint16 = 1

// ErrorTemplate means the label template refused to render.
const ErrorTemplate uint16 = 2

// ErrorPrimaryPrinter means the primary label printer failed.
const ErrorPrimaryPrinter uint16 = 3

// ErrorPCBPrinter means only the PCB printer failed.
const ErrorPCBPrinter uint16 = 4

// ErrorSerial means the serial link was lost.
const ErrorSerial uint16 = 5
