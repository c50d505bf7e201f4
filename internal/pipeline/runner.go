// internal/pipeline/runner.go
package pipeline

import (
	"context"
	"errors"
	"sync"
)

// ErrRunnerStopped is returned by Submit once Run has returned.
var ErrRunnerStopped = errors.New("pipeline: runner stopped")

// Mode selects what happens to a parsed record.
type Mode string

const (
	// ModeAuto prints every record immediately.
	ModeAuto Mode = "auto"
	// ModeQueue holds records for operator confirmation.
	ModeQueue Mode = "queue"
)

// Event is produced once per parsed record.
// Exactly one of Result or Entry is meaningful, selected by Queued.
type Event struct {
	Queued bool
	Result Result
	Entry  Entry
}

// Handler observes a fully processed record.
type Handler func(Result)

// QueueHandler observes a record placed in the manual queue.
type QueueHandler func(Entry)

// Runner turns monitor lines into events. Run only produces; Consume
// drains on the caller's goroutine and invokes handlers there. Results
// printed outside Run, such as manual queue prints, enter the same event
// stream through Submit.
type Runner struct {
	p     *Pipeline
	queue *Queue

	manual  chan Result
	stopped chan struct{}
	once    sync.Once

	mu       sync.RWMutex
	mode     Mode
	onDevice []Handler
	onQueued []QueueHandler
}

// NewRunner builds a runner. queue may be nil when mode is never ModeQueue.
func NewRunner(p *Pipeline, queue *Queue, mode Mode) *Runner {
	if mode == "" {
		mode = ModeAuto
	}
	return &Runner{
		p:       p,
		queue:   queue,
		mode:    mode,
		manual:  make(chan Result),
		stopped: make(chan struct{}),
	}
}

// OnDevice registers h for processed records.
func (r *Runner) OnDevice(h Handler) {
	r.mu.Lock()
	r.onDevice = append(r.onDevice, h)
	r.mu.Unlock()
}

// OnQueued registers h for queued records.
func (r *Runner) OnQueued(h QueueHandler) {
	r.mu.Lock()
	r.onQueued = append(r.onQueued, h)
	r.mu.Unlock()
}

// SetMode switches between auto and queue handling for later lines.
func (r *Runner) SetMode(m Mode) {
	r.mu.Lock()
	r.mode = m
	r.mu.Unlock()
}

// Mode returns the current mode.
func (r *Runner) Mode() Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mode
}

// Run processes lines until ctx ends or lines is closed, then closes events.
// One record is fully processed before the next line is read.
// Run must be called at most once.
func (r *Runner) Run(ctx context.Context, lines <-chan string, events chan<- Event) {
	defer close(events)
	defer r.once.Do(func() { close(r.stopped) })

	for {
		select {
		case <-ctx.Done():
			return
		case res := <-r.manual:
			select {
			case events <- Event{Result: res}:
			case <-ctx.Done():
				return
			}
		case line, ok := <-lines:
			if !ok {
				return
			}
			for _, ev := range r.handle(line) {
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// Submit hands a result produced outside Run to the event stream, so its
// handlers run on the consumer goroutine. It blocks until Run accepts it.
func (r *Runner) Submit(ctx context.Context, res Result) error {
	select {
	case r.manual <- res:
		return nil
	case <-r.stopped:
		return ErrRunnerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) handle(line string) []Event {
	if r.Mode() == ModeQueue && r.queue != nil {
		var out []Event
		for _, rec := range r.p.Parse(line) {
			out = append(out, Event{Queued: true, Entry: r.queue.Enqueue(rec)})
		}
		return out
	}

	var out []Event
	for _, res := range r.p.HandleLine(line) {
		out = append(out, Event{Result: res})
	}
	return out
}

// Consume drains events and invokes the registered handlers.
// It returns when events is closed or ctx ends.
func (r *Runner) Consume(ctx context.Context, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.Dispatch(ev)
		}
	}
}

// Dispatch invokes the handlers for one event on the calling goroutine.
func (r *Runner) Dispatch(ev Event) {
	r.mu.RLock()
	device := append([]Handler(nil), r.onDevice...)
	queued := append([]QueueHandler(nil), r.onQueued...)
	r.mu.RUnlock()

	if ev.Queued {
		for _, h := range queued {
			h(ev.Entry)
		}
		return
	}
	for _, h := range device {
		h(ev.Result)
	}
}
