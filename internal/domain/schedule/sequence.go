// internal/domain/schedule/sequence.go
package schedule

import (
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"time"
)

// ErrInvalidConfiguration is returned when a generator is constructed with a
// non-positive step, a non-positive bound or an unknown skip weekday.
var ErrInvalidConfiguration = errors.New("invalid date sequence configuration")

// State of a DateGenerator.
type State int

const (
	StateActive State = iota
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// StepPolicy describes how the next date is computed from the current one.
type StepPolicy struct {
	StepDays    int
	SkipWeekday sql.Null[time.Weekday] // Day off; landing on it moves one day further
}

// DailyStep returns the default policy: one day at a time, no day off.
func DailyStep() StepPolicy {
	return StepPolicy{StepDays: 1}
}

// SkipOn returns a copy of the policy with the given day off.
func (p StepPolicy) SkipOn(day time.Weekday) StepPolicy {
	p.SkipWeekday = sql.Null[time.Weekday]{V: day, Valid: true}
	return p
}

func (p StepPolicy) validate() error {
	if p.StepDays <= 0 {
		return fmt.Errorf("%w: step must be positive, got %d", ErrInvalidConfiguration, p.StepDays)
	}
	if p.SkipWeekday.Valid && (p.SkipWeekday.V < time.Sunday || p.SkipWeekday.V > time.Saturday) {
		return fmt.Errorf("%w: unknown skip weekday %d", ErrInvalidConfiguration, int(p.SkipWeekday.V))
	}
	return nil
}

// BoundPolicy is either a fixed number of dates or no limit at all.
// The zero value is unbounded.
type BoundPolicy struct {
	limit   int
	bounded bool
}

// Bounded limits a sequence to limit dates.
func Bounded(limit int) BoundPolicy {
	return BoundPolicy{limit: limit, bounded: true}
}

// Unbounded never exhausts.
func Unbounded() BoundPolicy {
	return BoundPolicy{}
}

// Limit returns the limit and whether the policy is bounded.
func (b BoundPolicy) Limit() (int, bool) {
	return b.limit, b.bounded
}

func (b BoundPolicy) String() string {
	if !b.bounded {
		return "unbounded"
	}
	return fmt.Sprintf("bounded(%d)", b.limit)
}

func (b BoundPolicy) validate() error {
	if b.bounded && b.limit <= 0 {
		return fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidConfiguration, b.limit)
	}
	return nil
}

func (b BoundPolicy) reached(emitted int) bool {
	return b.bounded && emitted >= b.limit
}

// Cursor is the position of a generator: the last produced date (or the seed)
// and how many dates have been produced so far.
type Cursor struct {
	Current time.Time
	Emitted int
}

// DateOf truncates t to midnight in its own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Advance computes the next date for cursor without side effects. The
// returned bool is false, and the cursor is returned unchanged, once the
// bound has been reached. The day off shifts the candidate by exactly one
// day; the shifted date is not re-checked.
func Advance(cursor Cursor, step StepPolicy, bound BoundPolicy) (Cursor, time.Time, bool) {
	if bound.reached(cursor.Emitted) {
		return cursor, time.Time{}, false
	}
	candidate := cursor.Current.AddDate(0, 0, step.StepDays)
	if step.SkipWeekday.Valid && candidate.Weekday() == step.SkipWeekday.V {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return Cursor{Current: candidate, Emitted: cursor.Emitted + 1}, candidate, true
}

// DateGenerator produces successive calendar dates from a seed. It is not
// safe for concurrent use and cannot be reset; construct a new one to start
// over.
type DateGenerator struct {
	cursor Cursor
	step   StepPolicy
	bound  BoundPolicy
}

// NewDateGenerator returns a generator whose first date is one step after
// seed. The seed is truncated to midnight.
func NewDateGenerator(seed time.Time, step StepPolicy, bound BoundPolicy) (*DateGenerator, error) {
	return ResumeDateGenerator(Cursor{Current: seed}, step, bound)
}

// ResumeDateGenerator returns a generator positioned at cursor. The bound
// applies to cursor.Emitted, so a cursor taken from an exhausted generator
// yields an exhausted generator.
func ResumeDateGenerator(cursor Cursor, step StepPolicy, bound BoundPolicy) (*DateGenerator, error) {
	if err := step.validate(); err != nil {
		return nil, err
	}
	if err := bound.validate(); err != nil {
		return nil, err
	}
	if cursor.Emitted < 0 {
		return nil, fmt.Errorf("%w: negative emitted count %d", ErrInvalidConfiguration, cursor.Emitted)
	}
	cursor.Current = DateOf(cursor.Current)
	return &DateGenerator{cursor: cursor, step: step, bound: bound}, nil
}

// Next returns the next date, or false once the sequence is exhausted.
// Calls after exhaustion keep returning false.
func (g *DateGenerator) Next() (time.Time, bool) {
	next, date, ok := Advance(g.cursor, g.step, g.bound)
	if !ok {
		return time.Time{}, false
	}
	g.cursor = next
	return date, true
}

// Cursor returns a copy of the current position.
func (g *DateGenerator) Cursor() Cursor {
	return g.cursor
}

func (g *DateGenerator) State() State {
	if g.bound.reached(g.cursor.Emitted) {
		return StateExhausted
	}
	return StateActive
}

// All adapts the generator for use with range. Ranging over an unbounded
// generator does not terminate unless the loop breaks.
func (g *DateGenerator) All() iter.Seq[time.Time] {
	return Seq[time.Time](g)
}

// DateSequence describes a sequence that can be iterated any number of times,
// each time from the seed.
type DateSequence struct {
	Seed  time.Time
	Step  StepPolicy
	Bound BoundPolicy
}

// Iterator returns a fresh generator positioned at the seed.
func (s DateSequence) Iterator() (*DateGenerator, error) {
	return NewDateGenerator(s.Seed, s.Step, s.Bound)
}

// Dates materializes a bounded sequence. Unbounded sequences are rejected
// since they never end.
func (s DateSequence) Dates() ([]time.Time, error) {
	if _, bounded := s.Bound.Limit(); !bounded {
		return nil, fmt.Errorf("%w: cannot materialize an unbounded sequence", ErrInvalidConfiguration)
	}
	g, err := s.Iterator()
	if err != nil {
		return nil, err
	}
	return Collect[time.Time](g), nil
}
