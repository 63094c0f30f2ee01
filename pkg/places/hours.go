package places

import (
	"fmt"
	"time"
)

// Point is a moment in the weekly schedule. Day 0 is Sunday, like time.Weekday.
type Point struct {
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

type Period struct {
	Open  Point  `json:"open"`
	Close *Point `json:"close,omitempty"`
}

type OpeningHours struct {
	OpenNow             *bool    `json:"openNow,omitempty"`
	Periods             []Period `json:"periods,omitempty"`
	WeekdayDescriptions []string `json:"weekdayDescriptions,omitempty"`
}

// Clock is a time of day in minutes since midnight.
type Clock int

func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

func ClockOf(t time.Time) Clock {
	return NewClock(t.Hour(), t.Minute())
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

// String renders the clock the way the assistant speaks it: "07:30 PM".
func (c Clock) String() string {
	return time.Date(2000, 1, 1, c.Hour(), c.Minute(), 0, 0, time.UTC).Format("03:04 PM")
}

// Span is one opening interval within a day. A nil Start means the place was
// already open at midnight, a nil End that it stays open past midnight.
type Span struct {
	Start *Clock
	End   *Clock
}

func (s Span) AllDay() bool {
	return s.Start == nil && s.End == nil
}

// Contains reports whether c falls inside the span, end excluded.
func (s Span) Contains(c Clock) bool {
	if s.Start != nil && c < *s.Start {
		return false
	}
	if s.End != nil && c >= *s.End {
		return false
	}
	return true
}

func (s Span) String() string {
	switch {
	case s.AllDay():
		return "all day"
	case s.Start == nil:
		return fmt.Sprintf("until %s", s.End)
	case s.End == nil:
		return fmt.Sprintf("from %s", s.Start)
	default:
		return fmt.Sprintf("from %s to %s", s.Start, s.End)
	}
}

func clockPtr(p Point) *Clock {
	c := NewClock(p.Hour, p.Minute)
	return &c
}

// Week splits the periods into per-weekday spans, indexed by time.Weekday.
// Periods that cross midnight are broken at every day boundary.
func (h *OpeningHours) Week() [7][]Span {
	var week [7][]Span
	if h == nil {
		return week
	}
	for _, period := range h.Periods {
		if period.Close == nil {
			// A lone period without close time means open around the clock.
			for d := range week {
				week[d] = []Span{{}}
			}
			return week
		}
		open, end := period.Open, *period.Close
		if open.Day == end.Day && NewClock(end.Hour, end.Minute) > NewClock(open.Hour, open.Minute) {
			week[open.Day%7] = append(week[open.Day%7], Span{Start: clockPtr(open), End: clockPtr(end)})
			continue
		}
		week[open.Day%7] = append(week[open.Day%7], Span{Start: clockPtr(open)})
		for d := (open.Day + 1) % 7; d != end.Day%7; d = (d + 1) % 7 {
			week[d] = append(week[d], Span{})
		}
		if end.Hour != 0 || end.Minute != 0 {
			week[end.Day%7] = append(week[end.Day%7], Span{End: clockPtr(end)})
		}
	}
	return week
}

// Day returns the spans of a single weekday.
func (h *OpeningHours) Day(d time.Weekday) []Span {
	return h.Week()[d]
}

// IsOpenAt reports whether the place is open at t's wall clock time.
// ok is false when the place publishes no schedule.
func (p *Place) IsOpenAt(t time.Time) (open, ok bool) {
	if p == nil || p.RegularOpeningHours == nil || len(p.RegularOpeningHours.Periods) == 0 {
		return false, false
	}
	c := ClockOf(t)
	for _, span := range p.RegularOpeningHours.Day(t.Weekday()) {
		if span.Contains(c) {
			return true, true
		}
	}
	return false, true
}
