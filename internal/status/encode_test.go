// internal/status/encode_test.go
package status

import "testing"

func TestEncodeLiveSlots(t *testing.T) {
	regs := Encode(Snapshot{
		Health:         HealthError,
		LastErrorCode:  ErrorTemplate,
		SecondsInError: 9,
		Printed:        70001,
		Failed:         2,
		ParseErrors:    3,
		LastSTC:        0x0001_EA60,
	})

	if len(regs) != SlotsPerStation {
		t.Fatalf("block size: got=%d want=%d", len(regs), SlotsPerStation)
	}
	if regs[SlotHealthCode] != HealthError || regs[SlotLastErrorCode] != ErrorTemplate || regs[SlotSecondsInError] != 9 {
		t.Fatalf("status slots mismatch: %v", regs[:3])
	}
	// counters wrap at 16 bits
	if regs[SlotPrinted] != uint16(70001-65536) {
		t.Fatalf("printed slot: got=%d", regs[SlotPrinted])
	}
	if regs[SlotLastSTCHigh] != 0x0001 || regs[SlotLastSTCLow] != 0xEA60 {
		t.Fatalf("stc slots: got=%#x %#x", regs[SlotLastSTCHigh], regs[SlotLastSTCLow])
	}
	for i := SlotReservedStart; i <= SlotStationNameEnd; i++ {
		if regs[i] != 0 {
			t.Fatalf("slot %d should be zero, got %d", i, regs[i])
		}
	}
}

func TestEncodeName(t *testing.T) {
	regs := EncodeName("LINE-1\x01")
	if regs[0] != uint16('L')<<8|uint16('I') {
		t.Fatalf("first pair: got=%#x", regs[0])
	}
	if regs[3] != uint16('?')<<8 {
		t.Fatalf("control byte not sanitized: got=%#x", regs[3])
	}

	long := EncodeName("ABCDEFGHIJKLMNOPQRSTUV")
	if long[7] != uint16('O')<<8|uint16('P') {
		t.Fatalf("name not truncated at 16 chars: got=%#x", long[7])
	}
}

func TestBlockPlacesNameAtEnd(t *testing.T) {
	name := EncodeName("ST")
	regs := Block(Snapshot{Health: HealthOK}, name)
	if regs[SlotStationNameStart] != name[0] {
		t.Fatalf("name slot: got=%#x want=%#x", regs[SlotStationNameStart], name[0])
	}
	if regs[SlotHealthCode] != HealthOK {
		t.Fatalf("health slot: got=%d", regs[SlotHealthCode])
	}
}
