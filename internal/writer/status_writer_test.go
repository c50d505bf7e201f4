// internal/writer/status_writer_test.go
package writer

import (
	"errors"
	"testing"

	"github.com/tamzrod/labelstation/internal/status"
)

// ---- fakes ----

type writeCall struct {
	unitID uint8
	addr   uint16
	regs   []uint16
}

type fakeEndpointClient struct {
	writes []writeCall
	fail   bool
}

func (f *fakeEndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	if f.fail {
		return errors.New("connection reset")
	}
	f.writes = append(f.writes, writeCall{
		unitID: unitID,
		addr:   addr,
		regs:   append([]uint16(nil), regs...),
	})
	return nil
}

func (f *fakeEndpointClient) last() writeCall {
	return f.writes[len(f.writes)-1]
}

func newWriter(t *testing.T, cli *fakeEndpointClient) (*StatusWriter, StatusPlan) {
	t.Helper()
	plan := StatusPlan{
		Endpoint:    "status-endpoint",
		UnitID:      1,
		BaseSlot:    2,
		StationName: "LINE-01",
	}
	sw, err := NewStatusWriter(plan, cli)
	if err != nil {
		t.Fatalf("status writer: %v", err)
	}
	return sw, plan
}

// ---- tests ----

func TestStationNameWrittenOnFullAssertOnly(t *testing.T) {
	cli := &fakeEndpointClient{}
	sw, plan := newWriter(t, cli)

	// ---- first write: FULL ASSERT ----
	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthOK}); err != nil {
		t.Fatalf("initial full assert failed: %v", err)
	}

	first := cli.last()
	if len(first.regs) != status.SlotsPerStation {
		t.Fatalf("expected full block write (%d regs), got %d", status.SlotsPerStation, len(first.regs))
	}
	if first.addr != plan.BaseSlot*status.SlotsPerStation {
		t.Fatalf("unexpected base addr: got=%d", first.addr)
	}

	expectedName := status.EncodeName(plan.StationName)
	for i := 0; i < status.SlotStationNameSlots; i++ {
		slot := status.SlotStationNameStart + i
		if first.regs[slot] != expectedName[i] {
			t.Fatalf("station name slot %d mismatch: got=%d want=%d", slot, first.regs[slot], expectedName[i])
		}
	}

	// ---- second write: INCREMENTAL ONLY ----
	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthError, LastErrorCode: status.ErrorTemplate}); err != nil {
		t.Fatalf("incremental write failed: %v", err)
	}

	inc := cli.last()
	if len(inc.regs) != 2 {
		t.Fatalf("expected health+error run (2 regs), got %d", len(inc.regs))
	}
	if inc.addr != plan.BaseSlot*status.SlotsPerStation+status.SlotHealthCode {
		t.Fatalf("unexpected incremental addr: got=%d", inc.addr)
	}
}

func TestSecondsInErrorResetOnRecovery(t *testing.T) {
	cli := &fakeEndpointClient{}
	sw, plan := newWriter(t, cli)

	errSnap := status.Snapshot{Health: status.HealthError, LastErrorCode: 42, SecondsInError: 3}
	if err := sw.WriteStatus(errSnap); err != nil {
		t.Fatalf("error snapshot write failed: %v", err)
	}

	// health and last error unchanged; only the ticker slot moves back
	okSeconds := errSnap
	okSeconds.SecondsInError = 0
	if err := sw.WriteStatus(okSeconds); err != nil {
		t.Fatalf("recovery snapshot write failed: %v", err)
	}

	want := plan.BaseSlot*status.SlotsPerStation + status.SlotSecondsInError
	got := cli.last()
	if got.addr != want {
		t.Fatalf("unexpected write addr: got=%d want=%d", got.addr, want)
	}
	if len(got.regs) != 1 || got.regs[0] != 0 {
		t.Fatalf("seconds_in_error not reset: got=%v", got.regs)
	}
}

func TestCountersWrittenAsOneRun(t *testing.T) {
	cli := &fakeEndpointClient{}
	sw, plan := newWriter(t, cli)

	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthOK}); err != nil {
		t.Fatal(err)
	}
	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthOK, Printed: 1, LastSTC: 60000}); err != nil {
		t.Fatal(err)
	}

	// printed (3) and stc low (7) are separated by unchanged slots
	if len(cli.writes) != 3 {
		t.Fatalf("expected 3 writes, got %d", len(cli.writes))
	}
	base := plan.BaseSlot * status.SlotsPerStation
	if cli.writes[1].addr != base+status.SlotPrinted || cli.writes[2].addr != base+status.SlotLastSTCLow {
		t.Fatalf("unexpected addrs: %d %d", cli.writes[1].addr, cli.writes[2].addr)
	}
}

func TestFailureSchedulesFullReassert(t *testing.T) {
	cli := &fakeEndpointClient{}
	sw, _ := newWriter(t, cli)

	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthOK}); err != nil {
		t.Fatal(err)
	}

	cli.fail = true
	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthError}); err == nil {
		t.Fatalf("expected write error")
	}

	cli.fail = false
	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthError}); err != nil {
		t.Fatal(err)
	}
	if len(cli.last().regs) != status.SlotsPerStation {
		t.Fatalf("expected full re-assert after failure, got %d regs", len(cli.last().regs))
	}
}

func TestNewStatusWriterRejectsBadPlan(t *testing.T) {
	if _, err := NewStatusWriter(StatusPlan{UnitID: 1}, nil); err == nil {
		t.Fatalf("expected error for nil client")
	}
	if _, err := NewStatusWriter(StatusPlan{UnitID: 0}, &fakeEndpointClient{}); err == nil {
		t.Fatalf("expected error for unit id 0")
	}
	if _, err := NewStatusWriter(StatusPlan{UnitID: 300}, &fakeEndpointClient{}); err == nil {
		t.Fatalf("expected error for unit id 300")
	}
}
