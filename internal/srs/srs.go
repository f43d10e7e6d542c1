// Package srs adapts the FSRS memory model for the rest of the
// application. Everything outside this package reasons only about the
// four-state enum and a due timestamp; the forgetting-curve math lives
// in the go-fsrs library behind this adapter.
package srs

import (
	"errors"
	"fmt"
	"math"
	"time"

	fsrs "github.com/open-spaced-repetition/go-fsrs"
)

// MemoryState is the per-item, per-direction scheduling state. Only
// State and Due are read by the scheduler; the remaining fields are
// algorithm parameters owned by go-fsrs.
type MemoryState = fsrs.Card

// ReviewLog is the algorithm's audit record of a single rating event.
type ReviewLog = fsrs.ReviewLog

// Rating is the user's self-reported recall quality for a card.
type Rating = fsrs.Rating

// State is the learning stage of a memory state.
type State = fsrs.State

const (
	Again = fsrs.Again
	Hard  = fsrs.Hard
	Good  = fsrs.Good
	Easy  = fsrs.Easy
)

const (
	StateNew        = fsrs.New
	StateLearning   = fsrs.Learning
	StateReview     = fsrs.Review
	StateRelearning = fsrs.Relearning
)

// ErrMalformedState reports a stored memory state that violates the
// lazy-create invariant, e.g. a non-New state with no due timestamp.
// Callers must surface it rather than default the item to "not due".
var ErrMalformedState = errors.New("srs: malformed memory state")

// Options tunes the underlying algorithm. Zero values keep the
// library defaults.
type Options struct {
	DesiredRetention    float64 // target recall probability, e.g. 0.9
	MaximumIntervalDays int     // cap on scheduled intervals
}

// Engine wraps a configured FSRS parameter set. It holds only fixed
// configuration, no mutable state, so a single instance can be shared.
type Engine struct {
	params fsrs.Parameters
}

// NewEngine returns an engine with the library's default parameters.
func NewEngine() *Engine {
	return &Engine{params: fsrs.DefaultParam()}
}

// NewEngineWith returns an engine tuned by opts.
func NewEngineWith(opts Options) *Engine {
	params := fsrs.DefaultParam()
	if opts.DesiredRetention > 0 {
		params.RequestRetention = opts.DesiredRetention
	}
	if opts.MaximumIntervalDays > 0 {
		params.MaximumInterval = float64(opts.MaximumIntervalDays)
	}
	return &Engine{params: params}
}

// Empty returns a fresh never-reviewed state, due immediately. It is
// synthesized on first lookup and never persisted until a review
// actually occurs.
func (e *Engine) Empty(now time.Time) MemoryState {
	return MemoryState{
		Due:   now,
		State: StateNew,
	}
}

// IsDue reports whether the state is due at now. New items are never
// due; they enter a session through the daily new-item quota instead.
func (e *Engine) IsDue(state MemoryState, now time.Time) bool {
	if state.State == StateNew {
		return false
	}
	return !state.Due.After(now)
}

// Validate checks the stored-state invariant. A non-New state must
// carry a due timestamp; anything else is data corruption.
func (e *Engine) Validate(state MemoryState) error {
	if state.State != StateNew && state.Due.IsZero() {
		return fmt.Errorf("%w: state %v has no due timestamp", ErrMalformedState, state.State)
	}
	return nil
}

// Rate runs one scheduling step for the given grade at now. The input
// state is not mutated. Grade must be one of Again, Hard, Good, Easy;
// anything else is a caller bug.
func (e *Engine) Rate(state MemoryState, grade Rating, now time.Time) (MemoryState, ReviewLog) {
	if grade < Again || grade > Easy {
		panic(fmt.Sprintf("srs: invalid grade %d", grade))
	}
	item := e.params.Repeat(state, now)[grade]
	return item.Card, item.ReviewLog
}

// NextIntervals previews, for each grade, how far out the next review
// would land, formatted for display on the grade buttons. Read-only.
func (e *Engine) NextIntervals(state MemoryState, now time.Time) map[Rating]string {
	scheduled := e.params.Repeat(state, now)
	intervals := make(map[Rating]string, 4)
	for _, grade := range []Rating{Again, Hard, Good, Easy} {
		intervals[grade] = FormatInterval(scheduled[grade].Card.Due, now)
	}
	return intervals
}

// FormatInterval humanizes the delta between now and due: "<1m" under
// a minute, then minutes, hours, and days, rounded to nearest unit.
func FormatInterval(due, now time.Time) string {
	delta := due.Sub(now)
	mins := int(math.Round(delta.Minutes()))
	hours := int(math.Round(delta.Hours()))
	days := int(math.Round(delta.Hours() / 24))

	switch {
	case mins < 1:
		return "<1m"
	case mins < 60:
		return fmt.Sprintf("%dm", mins)
	case hours < 24:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dd", days)
	}
}
