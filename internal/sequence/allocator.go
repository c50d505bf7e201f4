// internal/sequence/allocator.go
package sequence

import "github.com/rs/zerolog"

// History exposes the highest sequence value already persisted.
// found is false when the log is absent, empty, or has no valid values.
type History interface {
	MaxSTC() (max int, found bool, err error)
}

// Allocator hands out STC values.
// It is NOT safe for concurrent use; callers serialize access.
type Allocator struct {
	next          int
	autoIncrement bool
}

// New returns an allocator whose first value is start.
func New(start int) *Allocator {
	return &Allocator{next: start, autoIncrement: true}
}

// Recover seeds an allocator from the persisted log.
// A nil history or any read error falls back to fallback.
func Recover(h History, fallback int, log zerolog.Logger) *Allocator {
	if h == nil {
		return New(fallback)
	}

	max, found, err := h.MaxSTC()
	if err != nil {
		log.Warn().Err(err).Int("fallback", fallback).Msg("stc recovery failed")
		return New(fallback)
	}
	if !found {
		log.Info().Int("stc", fallback).Msg("no stc history, using default")
		return New(fallback)
	}

	log.Info().Int("max", max).Int("stc", max+1).Msg("stc recovered from log")
	return New(max + 1)
}

// Allocate returns the current value and advances the counter
// when auto-increment is enabled.
func (a *Allocator) Allocate() int {
	v := a.next
	if a.autoIncrement {
		a.next++
	}
	return v
}

// Peek returns the value the next Allocate will hand out.
func (a *Allocator) Peek() int {
	return a.next
}

// Set overrides the counter. Records already stamped are unaffected.
func (a *Allocator) Set(v int) {
	a.next = v
}

// SetAutoIncrement toggles advancing after each Allocate.
func (a *Allocator) SetAutoIncrement(on bool) {
	a.autoIncrement = on
}

// AutoIncrement reports whether Allocate advances the counter.
func (a *Allocator) AutoIncrement() bool {
	return a.autoIncrement
}
