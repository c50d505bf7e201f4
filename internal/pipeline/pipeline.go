// internal/pipeline/pipeline.go
package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/labelstation/internal/frame"
	"github.com/tamzrod/labelstation/internal/label"
	"github.com/tamzrod/labelstation/internal/printer"
	"github.com/tamzrod/labelstation/internal/sequence"
	"github.com/tamzrod/labelstation/internal/store"
)

// Dispatcher sends both label programs for one record.
type Dispatcher interface {
	DispatchPair(primaryEP, primaryProg, pcbEP, pcbProg string, pcbEnabled bool) printer.Outcome
}

// RecordLog is the durable per-device log.
type RecordLog interface {
	Append(row store.Row) error
}

// Archiver stores the primary program sent for a record.
type Archiver interface {
	Save(serial string, at time.Time, program []byte) (string, error)
}

// Metrics receives pipeline counters. All methods must be cheap.
type Metrics interface {
	DeviceProcessed(status string)
	ParseError()
	NextSTC(v int)
}

// Config holds the per-station routing.
type Config struct {
	PrimaryEndpoint string
	PCBEndpoint     string
	PCBEnabled      bool
	// Stream selects the buffering ##...## parser instead of per-line parsing.
	Stream bool
}

// Deps are the collaborators a Pipeline drives.
// Archive, Metrics and Clock are optional.
type Deps struct {
	Parser     *frame.Parser
	Allocator  *sequence.Allocator
	Template   *label.Template
	Dispatcher Dispatcher
	Log        RecordLog
	Archive    Archiver
	Metrics    Metrics
	Logger     zerolog.Logger
	Clock      func() time.Time
}

// Result is the terminal outcome of one parsed record.
type Result struct {
	Record      frame.DeviceRecord
	STC         int
	Primary     bool
	Secondary   printer.SecondaryResult
	Status      string
	ArchiveFile string
	Err         error
}

// Pipeline runs parse, allocate, render, dispatch and persist.
// One mutex serializes every allocation through persistence, so automatic
// and manual prints never interleave STC values.
type Pipeline struct {
	cfg     Config
	parser  *frame.Parser
	stream  *frame.StreamParser
	alloc   *sequence.Allocator
	tmpl    *label.Template
	disp    Dispatcher
	records RecordLog
	archive Archiver
	metrics Metrics
	log     zerolog.Logger
	now     func() time.Time

	mu         sync.Mutex
	pcbEnabled bool
	stats      Stats
}

// New wires a pipeline. Parser, Allocator, Template, Dispatcher and Log are required.
func New(cfg Config, d Deps) (*Pipeline, error) {
	switch {
	case d.Parser == nil:
		return nil, fmt.Errorf("pipeline: parser required")
	case d.Allocator == nil:
		return nil, fmt.Errorf("pipeline: allocator required")
	case d.Template == nil:
		return nil, fmt.Errorf("pipeline: template required")
	case d.Dispatcher == nil:
		return nil, fmt.Errorf("pipeline: dispatcher required")
	case d.Log == nil:
		return nil, fmt.Errorf("pipeline: record log required")
	}

	p := &Pipeline{
		cfg:        cfg,
		parser:     d.Parser,
		alloc:      d.Allocator,
		tmpl:       d.Template,
		disp:       d.Dispatcher,
		records:    d.Log,
		archive:    d.Archive,
		metrics:    d.Metrics,
		log:        d.Logger,
		now:        d.Clock,
		pcbEnabled: cfg.PCBEnabled && cfg.PCBEndpoint != "",
	}
	if p.now == nil {
		p.now = time.Now
	}
	if cfg.Stream {
		p.stream = frame.NewStreamParser(d.Parser)
	}
	p.stats.StartTime = p.now()
	if p.metrics != nil {
		p.metrics.NextSTC(p.alloc.Peek())
	}
	return p, nil
}

// Parse extracts every record in line without processing it.
// Parse failures are counted; they never reach the record log.
func (p *Pipeline) Parse(line string) []frame.DeviceRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.parseLocked(line)
}

func (p *Pipeline) parseLocked(line string) []frame.DeviceRecord {
	if p.stream != nil {
		recs, rejected := p.stream.Feed(line)
		p.countParseErrors(rejected)
		return recs
	}

	rec, err := p.parser.Parse(line)
	if err != nil {
		p.countParseErrors(1)
		return nil
	}
	return []frame.DeviceRecord{rec}
}

func (p *Pipeline) countParseErrors(n int) {
	if n <= 0 {
		return
	}
	p.stats.ParseErrors += n
	if p.metrics != nil {
		for i := 0; i < n; i++ {
			p.metrics.ParseError()
		}
	}
}

// HandleLine parses line and fully processes every record found.
func (p *Pipeline) HandleLine(line string) []Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []Result
	for _, rec := range p.parseLocked(line) {
		out = append(out, p.processLocked(rec, 0))
	}
	return out
}

// Process runs an already parsed record. stc > 0 overrides allocation;
// with auto-increment on, an override at or past the counter advances it.
func (p *Pipeline) Process(rec frame.DeviceRecord, stc int) Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processLocked(rec, stc)
}

func (p *Pipeline) processLocked(rec frame.DeviceRecord, stc int) (res Result) {
	p.stats.DevicesProcessed++

	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Str("serial", rec.SerialNumber).Msg("record processing aborted")
			res.Status = store.StatusError
			res.Err = fmt.Errorf("pipeline: unexpected failure: %v", r)
			p.persistRecovered(store.Row{Record: res.Record, Status: store.StatusError, ZPLFile: res.ArchiveFile, PCBStatus: pcbStatus(res.Secondary)})
		}
		p.tally(res)
		if p.metrics != nil {
			p.metrics.DeviceProcessed(res.Status)
			p.metrics.NextSTC(p.alloc.Peek())
		}
	}()

	if stc <= 0 {
		stc = p.alloc.Allocate()
	} else if p.alloc.AutoIncrement() && stc >= p.alloc.Peek() {
		// a manual value at or past the counter must not be handed out again
		p.alloc.Set(stc + 1)
	}
	rec.STC = stc
	res.Record = rec
	res.STC = stc
	res.Status = store.StatusError

	log := p.log.With().Str("serial", rec.SerialNumber).Int("stc", stc).Logger()

	program, err := p.tmpl.Render(rec.Fields())
	if err != nil {
		log.Error().Err(err).Msg("template render refused, nothing dispatched")
		res.Err = err
		p.persist(store.Row{Record: rec, Status: store.StatusError, PCBStatus: store.StatusSkipped})
		return res
	}

	if p.archive != nil {
		name, err := p.archive.Save(rec.SerialNumber, p.now(), []byte(program))
		if err != nil {
			log.Error().Err(err).Msg("label archive failed")
		}
		res.ArchiveFile = name
	}

	pcbProgram := label.RenderPCB(rec.SerialNumber, stc)
	out := p.disp.DispatchPair(p.cfg.PrimaryEndpoint, program, p.cfg.PCBEndpoint, pcbProgram, p.pcbEnabled)

	res.Primary = out.Primary
	res.Secondary = out.Secondary
	if out.Primary {
		res.Status = store.StatusPrinted
	}

	p.persist(store.Row{Record: rec, Status: res.Status, ZPLFile: res.ArchiveFile, PCBStatus: pcbStatus(out.Secondary)})

	log.Info().
		Str("status", res.Status).
		Str("pcb", out.Secondary.String()).
		Str("archive", res.ArchiveFile).
		Msg("device processed")
	return res
}

// tally counts a record once its outcome is final.
func (p *Pipeline) tally(res Result) {
	if res.Status == store.StatusPrinted {
		p.stats.SuccessfulPrints++
	} else {
		p.stats.FailedPrints++
	}

	switch res.Secondary {
	case printer.OK:
		p.stats.PCBAttempted++
		p.stats.PCBSuccessful++
	case printer.Failed:
		p.stats.PCBAttempted++
		p.stats.PCBFailed++
	}
}

func (p *Pipeline) persist(row store.Row) {
	if err := p.records.Append(row); err != nil {
		p.log.Error().Err(err).Str("serial", row.Record.SerialNumber).Msg("record log append failed")
	}
}

// persistRecovered writes the fallback row after a panic. The record log
// may itself be what panicked, so a second panic is logged and dropped.
func (p *Pipeline) persistRecovered(row store.Row) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Str("serial", row.Record.SerialNumber).Msg("record log append aborted")
		}
	}()
	p.persist(row)
}

func pcbStatus(r printer.SecondaryResult) string {
	switch r {
	case printer.OK:
		return store.StatusPrinted
	case printer.Failed:
		return store.StatusError
	default:
		return store.StatusSkipped
	}
}

// SetPCBEnabled toggles the PCB printer. It has no effect without an endpoint.
func (p *Pipeline) SetPCBEnabled(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pcbEnabled = on && p.cfg.PCBEndpoint != ""
}

// PCBEnabled reports whether the PCB printer is dispatched to.
func (p *Pipeline) PCBEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pcbEnabled
}

// SetSTC overrides the next STC value.
func (p *Pipeline) SetSTC(v int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alloc.Set(v)
	if p.metrics != nil {
		p.metrics.NextSTC(v)
	}
	p.log.Info().Int("stc", v).Msg("stc set")
}

// NextSTC returns the value the next allocation will use.
func (p *Pipeline) NextSTC() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.alloc.Peek()
}

// SetAutoIncrement toggles STC advance after allocation.
func (p *Pipeline) SetAutoIncrement(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alloc.SetAutoIncrement(on)
}

// AutoIncrement reports whether STC advances after allocation.
func (p *Pipeline) AutoIncrement() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.alloc.AutoIncrement()
}

// Stats returns a copy of the running counters.
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
