// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/labelstation/internal/status"
)

// EndpointClient is the register-write surface of a status endpoint.
type EndpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

// StatusPlan places one station block inside status memory.
type StatusPlan struct {
	Endpoint    string
	UnitID      uint16
	BaseSlot    uint16
	StationName string
}

// StatusWriter delivers station snapshots verbatim.
// No interpretation; the orchestrator owns the snapshot.
type StatusWriter struct {
	plan StatusPlan
	cli  EndpointClient

	needFull bool
	last     []uint16
	nameRegs []uint16
}

// NewStatusWriter builds a writer. The first write asserts the full block.
func NewStatusWriter(plan StatusPlan, cli EndpointClient) (*StatusWriter, error) {
	if cli == nil {
		return nil, fmt.Errorf("status writer: missing client for endpoint %s", plan.Endpoint)
	}
	if plan.UnitID == 0 || plan.UnitID > 255 {
		return nil, fmt.Errorf("status writer: unit id %d out of range", plan.UnitID)
	}

	return &StatusWriter{
		plan:     plan,
		cli:      cli,
		needFull: true,
		nameRegs: status.EncodeName(plan.StationName),
	}, nil
}

// WriteStatus writes s. After the first full assert only changed slots
// are written; any failure schedules a full re-assert on the next call.
func (sw *StatusWriter) WriteStatus(s status.Snapshot) error {
	if sw == nil {
		return errors.New("status writer: disabled")
	}

	regs := status.Block(s, sw.nameRegs)
	base := sw.baseAddr()
	unitID := uint8(sw.plan.UnitID)

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if sw.needFull {
		if err := sw.cli.WriteRegisters(unitID, base, regs); err != nil {
			return fmt.Errorf("status writer: full block write failed: %w", err)
		}
		sw.needFull = false
		sw.last = regs
		return nil
	}

	// ------------------------------------------------------------
	// Incremental: one write per run of changed live slots
	// ------------------------------------------------------------
	var errs []string
	for start := 0; start < status.SlotStationNameStart; {
		if regs[start] == sw.last[start] {
			start++
			continue
		}
		end := start
		for end+1 < status.SlotStationNameStart && regs[end+1] != sw.last[end+1] {
			end++
		}

		if err := sw.cli.WriteRegisters(unitID, base+uint16(start), regs[start:end+1]); err != nil {
			errs = append(errs, fmt.Sprintf("slots %d-%d write failed: %v", start, end, err))
		} else {
			copy(sw.last[start:end+1], regs[start:end+1])
		}
		start = end + 1
	}

	if len(errs) > 0 {
		sw.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}
	return nil
}

func (sw *StatusWriter) baseAddr() uint16 {
	return sw.plan.BaseSlot * status.SlotsPerStation
}
