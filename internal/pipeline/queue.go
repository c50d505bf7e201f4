// internal/pipeline/queue.go
package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tamzrod/labelstation/internal/frame"
	"github.com/tamzrod/labelstation/internal/store"
)

// ErrNoSuchEntry is returned for a queue index that does not exist.
var ErrNoSuchEntry = errors.New("pipeline: no such queue entry")

// Queue entry states.
const (
	EntryPending = "PENDING"
	EntryPrinted = "PRINTED"
	EntryFailed  = "FAILED"
)

// Entry is a parsed device waiting for operator confirmation.
type Entry struct {
	Record   frame.DeviceRecord
	STC      int
	Status   string
	QueuedAt time.Time
}

// Queue holds devices for manual printing. The STC is reserved at
// enqueue time; Print may replace it with a custom value.
type Queue struct {
	p *Pipeline

	mu      sync.Mutex
	entries []Entry
}

// NewQueue binds a queue to p's allocator and dispatch path.
func NewQueue(p *Pipeline) *Queue {
	return &Queue{p: p}
}

// Enqueue reserves an STC for rec and appends it.
func (q *Queue) Enqueue(rec frame.DeviceRecord) Entry {
	q.p.mu.Lock()
	stc := q.p.alloc.Allocate()
	if q.p.metrics != nil {
		q.p.metrics.NextSTC(q.p.alloc.Peek())
	}
	now := q.p.now()
	q.p.mu.Unlock()

	rec.STC = stc
	e := Entry{Record: rec, STC: stc, Status: EntryPending, QueuedAt: now}

	q.mu.Lock()
	q.entries = append(q.entries, e)
	q.mu.Unlock()

	q.p.log.Info().Str("serial", rec.SerialNumber).Int("stc", stc).Msg("device queued")
	return e
}

// Print runs entry index through the pipeline. customSTC > 0 overrides
// the reserved value.
func (q *Queue) Print(index, customSTC int) (Result, error) {
	q.mu.Lock()
	if index < 0 || index >= len(q.entries) {
		q.mu.Unlock()
		return Result{}, fmt.Errorf("%w: %d", ErrNoSuchEntry, index)
	}
	e := q.entries[index]
	q.mu.Unlock()

	stc := e.STC
	if customSTC > 0 {
		stc = customSTC
	}

	res := q.p.Process(e.Record, stc)

	q.mu.Lock()
	if index < len(q.entries) && q.entries[index].QueuedAt.Equal(e.QueuedAt) {
		q.entries[index].STC = stc
		q.entries[index].Status = EntryFailed
		if res.Status == store.StatusPrinted {
			q.entries[index].Status = EntryPrinted
		}
	}
	q.mu.Unlock()

	return res, nil
}

// Pending returns a copy of every entry in queue order.
func (q *Queue) Pending() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Entry(nil), q.entries...)
}

// Len returns the number of entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Clear drops every entry. Reserved STC values are not returned.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.entries = nil
	q.mu.Unlock()
}
