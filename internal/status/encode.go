// internal/status/encode.go
package status

// Encode converts a Snapshot into the live part of a station block.
// Name slots are left zero; see EncodeName.
// No IO. No side effects.
func Encode(s Snapshot) []uint16 {
	regs := make([]uint16, SlotsPerStation)

	regs[SlotHealthCode] = s.Health
	regs[SlotLastErrorCode] = s.LastErrorCode
	regs[SlotSecondsInError] = s.SecondsInError
	regs[SlotPrinted] = uint16(s.Printed)
	regs[SlotFailed] = uint16(s.Failed)
	regs[SlotParseErrors] = uint16(s.ParseErrors)
	regs[SlotLastSTCHigh] = uint16(s.LastSTC >> 16)
	regs[SlotLastSTCLow] = uint16(s.LastSTC)

	return regs
}

// EncodeName packs up to 16 ASCII characters into 8 registers,
// two bytes per register, big-endian. Non-printable bytes become '?'.
func EncodeName(name string) []uint16 {
	out := make([]uint16, SlotStationNameSlots)

	b := []byte(name)
	if len(b) > StationNameMaxChars {
		b = b[:StationNameMaxChars]
	}
	for i := range b {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}

	for i := 0; i < StationNameMaxChars; i += 2 {
		var hi, lo byte
		if i < len(b) {
			hi = b[i]
		}
		if i+1 < len(b) {
			lo = b[i+1]
		}
		out[i/2] = uint16(hi)<<8 | uint16(lo)
	}
	return out
}

// Block returns the full station block: live slots plus name.
func Block(s Snapshot, name []uint16) []uint16 {
	regs := Encode(s)
	for i := 0; i < SlotStationNameSlots && i < len(name); i++ {
		regs[SlotStationNameStart+i] = name[i]
	}
	return regs
}
