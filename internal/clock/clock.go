// Package clock provides the calendar-date source used by the ledger.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current calendar date.
type Clock interface {
	Today() time.Time
}

// Date normalises t to midnight UTC of its calendar day in t's location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MustParse parses a YYYY-MM-DD date and panics on failure. Meant for tests and fixtures.
func MustParse(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

// System reads the wall clock in a fixed location.
type System struct {
	Location *time.Location
}

// NewSystem returns a wall clock for the named IANA zone. An empty name means UTC.
func NewSystem(zone string) (System, error) {
	if zone == "" {
		return System{Location: time.UTC}, nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return System{}, err
	}
	return System{Location: loc}, nil
}

// Today implements Clock.
func (s System) Today() time.Time {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	return Date(time.Now().In(loc))
}

// Manual is a settable clock for tests and drills.
type Manual struct {
	mu    sync.Mutex
	today time.Time
}

// NewManual returns a Manual clock set to the given day.
func NewManual(today time.Time) *Manual {
	return &Manual{today: Date(today)}
}

// Today implements Clock.
func (m *Manual) Today() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.today
}

// Set moves the clock to another day.
func (m *Manual) Set(today time.Time) {
	m.mu.Lock()
	m.today = Date(today)
	m.mu.Unlock()
}

// Advance moves the clock by n days.
func (m *Manual) Advance(days int) {
	m.mu.Lock()
	m.today = m.today.AddDate(0, 0, days)
	m.mu.Unlock()
}
