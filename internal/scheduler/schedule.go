// Package scheduler decides when the daily trade triggers fire.
package scheduler

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// TimeOfDay wall-clock minute at which a trade is triggered.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" in 24-hour format.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return TimeOfDay{}, errors.Wrapf(err, "invalid time of day %q, expected HH:MM", s)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// ParseTimesOfDay parses a list of "HH:MM" triggers, dropping duplicates.
func ParseTimesOfDay(values []string) ([]TimeOfDay, error) {
	seen := make(map[TimeOfDay]struct{}, len(values))
	out := make([]TimeOfDay, 0, len(values))
	for _, v := range values {
		tod, err := ParseTimeOfDay(v)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[tod]; ok {
			continue
		}
		seen[tod] = struct{}{}
		out = append(out, tod)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].minutes() < out[j].minutes() })
	return out, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) minutes() int {
	return t.Hour*60 + t.Minute
}

// latest returns the most recent instant of t at or before now.
func (t TimeOfDay) latest(now time.Time, loc *time.Location) time.Time {
	at := time.Date(now.Year(), now.Month(), now.Day(), t.Hour, t.Minute, 0, 0, loc)
	if at.After(now) {
		at = time.Date(now.Year(), now.Month(), now.Day()-1, t.Hour, t.Minute, 0, 0, loc)
	}
	return at
}

// Schedule fires each trigger once per day. A trigger whose instant passed
// while the caller was busy fires on the next check instead of being skipped.
type Schedule struct {
	triggers []TimeOfDay
	location *time.Location

	mu sync.Mutex
	// since start of the minute of the first check; earlier instants never fire
	since     time.Time
	lastFired map[TimeOfDay]time.Time
}

// NewSchedule creates a schedule in the given location. A nil location means UTC.
func NewSchedule(triggers []TimeOfDay, location *time.Location) (*Schedule, error) {
	if len(triggers) == 0 {
		return nil, errors.New("at least one trigger time is required")
	}
	for _, t := range triggers {
		if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
			return nil, fmt.Errorf("invalid trigger time %s", t.String())
		}
	}
	if location == nil {
		location = time.UTC
	}

	return &Schedule{
		triggers:  append([]TimeOfDay(nil), triggers...),
		location:  location,
		lastFired: make(map[TimeOfDay]time.Time, len(triggers)),
	}, nil
}

// Due reports the earliest trigger whose latest instant at or before now has not
// fired yet. A positive answer marks that instant as fired; when several triggers
// are overdue, successive calls return them one by one.
func (s *Schedule) Due(now time.Time) (TimeOfDay, bool) {
	local := now.In(s.location)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.since.IsZero() {
		s.since = local.Truncate(time.Minute)
	}

	var (
		due     TimeOfDay
		dueAt   time.Time
		pending bool
	)
	for _, t := range s.triggers {
		at := t.latest(local, s.location)
		if at.Before(s.since) {
			continue
		}
		if last, ok := s.lastFired[t]; ok && !at.After(last) {
			continue
		}
		if !pending || at.Before(dueAt) {
			due, dueAt, pending = t, at, true
		}
	}
	if !pending {
		return TimeOfDay{}, false
	}

	s.lastFired[due] = dueAt
	return due, true
}

// Next returns the next instant a trigger matches, strictly after now.
func (s *Schedule) Next(now time.Time) time.Time {
	local := now.In(s.location)
	var next time.Time
	for _, t := range s.triggers {
		candidate := time.Date(local.Year(), local.Month(), local.Day(), t.Hour, t.Minute, 0, 0, s.location)
		if !candidate.After(local) {
			candidate = time.Date(local.Year(), local.Month(), local.Day()+1, t.Hour, t.Minute, 0, 0, s.location)
		}
		if next.IsZero() || candidate.Before(next) {
			next = candidate
		}
	}
	return next
}

// Location time zone the triggers are evaluated in.
func (s *Schedule) Location() *time.Location {
	return s.location
}

// Triggers configured trigger times.
func (s *Schedule) Triggers() []TimeOfDay {
	return append([]TimeOfDay(nil), s.triggers...)
}
