package actions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/placefinder/server/internal/agent/mentions"
	"github.com/placefinder/server/internal/agent/model"
	"github.com/placefinder/server/internal/agent/search"
	errx "github.com/placefinder/server/internal/core/error"
	"github.com/placefinder/server/pkg/duckling"
)

var bookingNoun = mentions.Noun{Singular: "booking", Plural: "bookings"}

func selectBookings(selected, reason any) []model.Event {
	return []model.Event{
		model.SlotSet(slotSelectedBookings, selected),
		model.SlotSet(slotSelectedBookingsError, reason),
	}
}

func (a *Actions) setSelectedBookings(ctx context.Context, d *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	h, err := history(t, slotBookingHistory)
	if err != nil {
		return nil, err
	}
	if len(h) == 0 {
		return selectBookings(nil, "no_bookings"), nil
	}

	refs := t.EntityValues("mention")
	if len(refs) == 0 {
		text := strings.ToLower(t.LatestMessage.Text)
		switch {
		case len(h) == 1:
			return selectBookings([]int{0}, nil), nil
		case t.HasIntent("show_bookings"), strings.Contains(text, "history"), strings.Contains(text, "activity"):
			return selectBookings(indexRange(len(h)), nil), nil
		default:
			return selectBookings(nil, "no_selection"), nil
		}
	}

	current, err := selection(t, slotSelectedBookings)
	if err != nil {
		return nil, err
	}
	selected, errs := mentions.Resolve(refs, current, len(h), bookingNoun)
	if len(errs) > 0 {
		d.Utter(selectionErrorMessage(errs))
		return []model.Event{model.SlotSet(slotSelectedBookingsError, "invalid_selection")}, nil
	}

	var times []duckling.Time
	for _, text := range t.EntityValues("datetime") {
		parsed, err := a.parseTimes(ctx, text)
		if err != nil {
			return nil, err
		}
		times = append(times, parsed...)
	}
	if len(times) > 0 {
		dates, err := a.bookingDates(ctx, h)
		if err != nil {
			return nil, err
		}
		selected = union(selected, bookingsAt(dates, times))
	}

	if len(selected) == 0 {
		return selectBookings(nil, "no_bookings_found"), nil
	}
	return selectBookings(selected, nil), nil
}

func (a *Actions) bookingDates(ctx context.Context, h model.History) ([]time.Time, error) {
	dates := make([]time.Time, len(h))
	for i, key := range h {
		if key == "" {
			continue
		}
		b, err := a.store.GetBooking(ctx, key)
		if err != nil {
			return nil, err
		}
		dates[i] = b.Parameters.Date
	}
	return dates, nil
}

// bookingsAt returns the positions of the dates matching any of times. An
// instant matches at its own grain; an interval matches inclusively and
// without an end it has no upper bound.
func bookingsAt(dates []time.Time, times []duckling.Time) []int {
	var out []int
	for i, date := range dates {
		if date.IsZero() {
			continue
		}
		for _, tm := range times {
			if matchesTime(date, tm) {
				out = append(out, i)
				break
			}
		}
	}
	return out
}

func matchesTime(date time.Time, tm duckling.Time) bool {
	switch v := tm.(type) {
	case duckling.Instant:
		at := v.Value
		switch v.Grain {
		case duckling.GrainYear:
			return date.Year() == at.Year()
		case duckling.GrainMonth:
			return date.Year() == at.Year() && date.Month() == at.Month()
		case duckling.GrainWeek:
			y1, w1 := date.ISOWeek()
			y2, w2 := at.ISOWeek()
			return y1 == y2 && w1 == w2
		case duckling.GrainDay:
			return sameDay(date, at)
		default:
			return date.Equal(at)
		}
	case duckling.Interval:
		if date.Before(v.Start.Value) {
			return false
		}
		return v.End == nil || !date.After(v.End.Value)
	}
	return false
}

func sameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// union merges two index lists into a sorted set.
func union(a, b []int) []int {
	seen := make(map[int]bool, len(a)+len(b))
	out := make([]int, 0, len(a)+len(b))
	for _, s := range [][]int{a, b} {
		for _, i := range s {
			if !seen[i] {
				seen[i] = true
				out = append(out, i)
			}
		}
	}
	sort.Ints(out)
	return out
}

// selectedBookings returns the booking history and a non-empty, in-range selection.
func selectedBookings(t *model.Tracker) (model.History, []int, error) {
	h, err := history(t, slotBookingHistory)
	if err != nil {
		return nil, nil, err
	}
	selected, err := selection(t, slotSelectedBookings)
	if err != nil {
		return nil, nil, err
	}
	if len(selected) == 0 {
		return nil, nil, fmt.Errorf("slot %s holds no selection", slotSelectedBookings)
	}
	for _, i := range selected {
		if i < 0 || i >= len(h) || h[i] == "" {
			return nil, nil, fmt.Errorf("slot %s selects %d out of %d bookings", slotSelectedBookings, i, len(h))
		}
	}
	return h, selected, nil
}

func (a *Actions) bookingTitles(ctx context.Context, h model.History, indices []int) ([]string, error) {
	titles := make([]string, 0, len(indices))
	for _, i := range indices {
		b, err := a.store.GetBooking(ctx, h[i])
		if err != nil {
			return nil, err
		}
		titles = append(titles, search.BookingTitle(&b.Parameters))
	}
	return titles, nil
}

func (a *Actions) showSelectedBookings(ctx context.Context, d *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	h, selected, err := selectedBookings(t)
	if err != nil {
		return nil, err
	}
	titles, err := a.bookingTitles(ctx, h, selected)
	if err != nil {
		return nil, err
	}

	if len(titles) == 1 {
		d.Utter("Here is the selected booking: " + titles[0])
		return nil, nil
	}

	var b strings.Builder
	if len(selected) == len(h) {
		b.WriteString("Here is your booking activity:\n")
	} else {
		b.WriteString("Here are the selected bookings:\n")
	}
	for n, i := range selected {
		fmt.Fprintf(&b, "%d. %s\n", i+1, titles[n])
	}
	d.Utter(b.String())
	return nil, nil
}

func (a *Actions) confirmDeleteSelectedBookings(ctx context.Context, d *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	h, selected, err := selectedBookings(t)
	if err != nil {
		return nil, err
	}
	titles, err := a.bookingTitles(ctx, h, selected)
	if err != nil {
		return nil, err
	}

	switch {
	case len(titles) == 1:
		d.Utter(fmt.Sprintf("Are you sure you want to delete the booking: %s?", titles[0]))
	case len(titles) == len(h):
		d.Utter("Are you sure you want to delete all your bookings?")
	default:
		d.Utter("Are you sure you want to delete the following bookings?\n" + bulleted(titles))
	}
	return nil, nil
}

func (a *Actions) deleteSelectedBookings(ctx context.Context, d *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	h, selected, err := selectedBookings(t)
	if err != nil {
		return nil, err
	}
	for _, i := range selected {
		if err := a.store.DeleteBooking(ctx, h[i]); err != nil && !errors.Is(err, errx.ErrNotFound) {
			return nil, err
		}
	}

	d.UtterResponse("utter_deleted_bookings", nil)
	return []model.Event{
		model.SlotSet(slotBookingHistory, h.Without(selected)),
		model.SlotSet(slotSelectedBookings, nil),
	}, nil
}

func (a *Actions) countSelectedBookings(_ context.Context, _ *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	selected, err := selection(t, slotSelectedBookings)
	if err != nil {
		return nil, err
	}
	return []model.Event{model.SlotSet(slotSelectedBookingsCount, countLabel(len(selected)))}, nil
}
