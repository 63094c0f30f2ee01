package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/placefinder/server/internal/agent/model"
	"github.com/placefinder/server/pkg/duckling"
	"github.com/placefinder/server/pkg/places"
)

const (
	bookingPast   = "past"
	bookingFar    = "far"
	bookingCoarse = "coarse"
	bookingClosed = "closed"

	peopleTooFew  = "small"
	peopleTooMany = "large"
)

func (a *Actions) setBookingDatetime(ctx context.Context, _ *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	var when *duckling.Instant
	for _, text := range t.EntityValues("datetime") {
		times, err := a.parseTimes(ctx, text)
		if err != nil {
			return nil, err
		}
		if len(times) == 0 {
			continue
		}
		switch v := times[0].(type) {
		case duckling.Instant:
			when = &v
		case duckling.Interval:
			when = &v.Start
		}
		break
	}
	if when == nil {
		return nil, nil
	}

	if reason := a.checkBookingTime(t, when); reason != "" {
		return []model.Event{
			model.SlotSet(slotBookingDatetime, nil),
			model.SlotSet(slotBookingDatetimeError, reason),
		}, nil
	}
	return []model.Event{
		model.SlotSet(slotBookingDatetime, when.Value.Format(model.BookingTimeLayout)),
		model.SlotSet(slotBookingDatetimeError, nil),
	}, nil
}

// checkBookingTime returns why when cannot be booked, or "".
func (a *Actions) checkBookingTime(t *model.Tracker, when *duckling.Instant) string {
	now := a.now()
	switch {
	case when.Value.Before(now):
		return bookingPast
	case when.Value.After(now.AddDate(0, 0, a.booking.MaxDaysAhead)):
		return bookingFar
	}
	switch when.Grain {
	case duckling.GrainSecond, duckling.GrainMinute, duckling.GrainHour:
	default:
		return bookingCoarse
	}

	place, err := placeSlot(t, slotBookingPlace)
	if err != nil || place == nil {
		return ""
	}
	// without published hours the place is assumed open
	if open, ok := place.IsOpenAt(when.Value); ok && !open {
		return bookingClosed
	}
	return ""
}

func (a *Actions) setBookingPeopleCount(ctx context.Context, _ *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	texts := t.EntityValues("people_count")
	if len(texts) == 0 {
		return nil, nil
	}
	counts, err := a.parseNumbers(ctx, texts[0])
	if err != nil {
		return nil, err
	}
	if len(counts) == 0 {
		return nil, nil
	}

	var reason string
	switch n := counts[0]; {
	case n < 1:
		reason = peopleTooFew
	case n > a.booking.MaxPeople:
		reason = peopleTooMany
	default:
		return []model.Event{
			model.SlotSet(slotBookingPeopleCount, n),
			model.SlotSet(slotBookingPeopleCountError, nil),
		}, nil
	}
	return []model.Event{
		model.SlotSet(slotBookingPeopleCount, nil),
		model.SlotSet(slotBookingPeopleCountError, reason),
	}, nil
}

func (a *Actions) setBookingAuthor(_ context.Context, _ *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	if stringSlot(t, slotRequestedSlot) == slotBookingAuthor && t.HasIntent("affirm") {
		return []model.Event{model.SlotSet(slotBookingAuthor, t.RawSlot(slotUserName))}, nil
	}
	names := t.EntityValues("user_name")
	if len(names) == 0 {
		return nil, nil
	}
	return []model.Event{model.SlotSet(slotBookingAuthor, names[0])}, nil
}

func (a *Actions) askBookingDatetime(_ context.Context, d *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	switch reason := stringSlot(t, slotBookingDatetimeError); reason {
	case "":
		d.UtterResponse("utter_ask_booking_datetime", nil)
	case bookingCoarse, bookingPast, bookingFar, bookingClosed:
		d.UtterResponse("utter_ask_booking_datetime_"+reason, nil)
	default:
		return nil, fmt.Errorf("unknown %s %q", slotBookingDatetimeError, reason)
	}
	return nil, nil
}

func (a *Actions) askBookingPeopleCount(_ context.Context, d *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	switch reason := stringSlot(t, slotBookingPeopleCountError); reason {
	case "":
		when, ok, err := bookingTime(t)
		if err != nil {
			return nil, err
		}
		var formatted any
		if ok {
			formatted = model.FormatBookingTime(when)
		}
		d.UtterResponse("utter_ask_booking_people_count", map[string]any{"datetime": formatted})
	case peopleTooFew, peopleTooMany:
		d.UtterResponse("utter_ask_booking_people_count_"+reason, nil)
	default:
		return nil, fmt.Errorf("unknown %s %q", slotBookingPeopleCountError, reason)
	}
	return nil, nil
}

func (a *Actions) askBookingAuthor(_ context.Context, d *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	if name := strings.TrimSpace(stringSlot(t, slotUserName)); name != "" {
		d.UtterResponse("utter_ask_booking_author_with_name", map[string]any{"user_name": name})
		return nil, nil
	}
	d.UtterResponse("utter_ask_booking_author", nil)
	return nil, nil
}

func (a *Actions) suggestBooking(_ context.Context, d *Dispatcher, _ *model.Tracker, _ Domain) ([]model.Event, error) {
	d.UtterResponse("utter_suggest_booking", nil)
	return []model.Event{model.SlotSet(slotSuggestBooking, false)}, nil
}

func (a *Actions) checkIsReservable(ctx context.Context, _ *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	place, err := a.selectedPlace(ctx, t)
	if err != nil {
		return nil, err
	}
	reservable, _ := places.Bool(place.Reservable)
	return []model.Event{model.SlotSet(slotIsReservable, reservable)}, nil
}

func (a *Actions) stateNotReservable(ctx context.Context, d *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	place, err := a.selectedPlace(ctx, t)
	if err != nil {
		return nil, err
	}
	d.UtterResponse("utter_place_not_reservable", map[string]any{"place_name": place.Name()})
	return nil, nil
}

// startBooking opens a new booking for the selected place, or loads the
// selected booking in the form when the user wants to change it.
func (a *Actions) startBooking(ctx context.Context, d *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	h, err := history(t, slotBookingHistory)
	if err != nil {
		return nil, err
	}

	if t.HasIntent("inform_booking") {
		_, b, err := a.currentBooking(ctx, t)
		if err != nil {
			return nil, err
		}
		p := b.Parameters
		return []model.Event{
			model.SlotSet(slotBookingPlace, p.Place),
			model.SlotSet(slotBookingDatetime, p.Date.Format(model.BookingTimeLayout)),
			model.SlotSet(slotBookingDatetimeError, nil),
			model.SlotSet(slotBookingPeopleCount, p.NumPeople),
			model.SlotSet(slotBookingPeopleCountError, nil),
			model.SlotSet(slotBookingAuthor, p.Author),
		}, nil
	}

	place, err := a.selectedPlace(ctx, t)
	if err != nil {
		return nil, err
	}
	h = append(h, "")

	d.UtterResponse("utter_start_booking", map[string]any{"place_name": place.Name()})
	return []model.Event{
		model.SlotSet(slotBookingHistory, h),
		model.SlotSet(slotSelectedBookings, []int{len(h) - 1}),
		model.SlotSet(slotBookingPlace, place),
		model.SlotSet(slotBookingDatetime, nil),
		model.SlotSet(slotBookingDatetimeError, nil),
		model.SlotSet(slotBookingPeopleCount, nil),
		model.SlotSet(slotBookingPeopleCountError, nil),
		model.SlotSet(slotBookingAuthor, nil),
	}, nil
}

// bookingForm reads the booking being filled in.
func bookingForm(t *model.Tracker) (*model.BookingParameters, error) {
	place, err := placeSlot(t, slotBookingPlace)
	if err != nil {
		return nil, err
	}
	if place == nil {
		return nil, fmt.Errorf("slot %s is empty", slotBookingPlace)
	}
	when, ok, err := bookingTime(t)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("slot %s is empty", slotBookingDatetime)
	}
	people, err := model.GetSlot(t, slotBookingPeopleCount, 0.0)
	if err != nil {
		return nil, err
	}
	return &model.BookingParameters{
		Place:     *place,
		Date:      when,
		NumPeople: int(people),
		Author:    stringSlot(t, slotBookingAuthor),
	}, nil
}

func (a *Actions) confirmBooking(ctx context.Context, d *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	form, err := bookingForm(t)
	if err != nil {
		return nil, err
	}
	h, idx, err := selectedBooking(t)
	if err != nil {
		return nil, err
	}

	if h[idx] == "" {
		d.UtterResponse("utter_confirm_booking", map[string]any{
			"datetime":     model.FormatBookingTime(form.Date),
			"people_count": form.NumPeople,
			"author":       form.Author,
		})
		return nil, nil
	}

	old, err := a.store.GetBooking(ctx, h[idx])
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString("Do you confirm the following changes to your booking?\n")
	if old.Parameters.NumPeople != form.NumPeople {
		fmt.Fprintf(&b, "- number of people: %d\n", form.NumPeople)
	}
	if !old.Parameters.Date.Equal(form.Date) {
		fmt.Fprintf(&b, "- date and time: %s\n", model.FormatBookingTime(form.Date))
	}
	if old.Parameters.Author != form.Author {
		fmt.Fprintf(&b, "- made by: %s\n", form.Author)
	}
	d.Utter(b.String())
	return nil, nil
}

func (a *Actions) createBooking(ctx context.Context, d *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	form, err := bookingForm(t)
	if err != nil {
		return nil, err
	}
	h, idx, err := selectedBooking(t)
	if err != nil {
		return nil, err
	}
	booking := &model.BookingData{Parameters: *form}

	if h[idx] != "" {
		if err := a.store.UpdateBooking(ctx, h[idx], booking); err != nil {
			return nil, err
		}
		d.UtterResponse("utter_booking_modified", nil)
		return nil, nil
	}

	key, err := a.store.AddBooking(ctx, booking)
	if err != nil {
		return nil, err
	}
	h[idx] = key
	d.UtterResponse("utter_booking_created", nil)
	return []model.Event{
		model.SlotSet(slotBookingHistory, h),
		model.SlotSet(slotSelectedBookings, []int{idx}),
	}, nil
}

func (a *Actions) cancelBooking(_ context.Context, d *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	h, idx, err := selectedBooking(t)
	if err != nil {
		return nil, err
	}
	if h[idx] != "" {
		d.UtterResponse("utter_cancel_modify_booking", nil)
		return nil, nil
	}

	d.UtterResponse("utter_cancel_booking", nil)
	return []model.Event{
		model.SlotSet(slotBookingHistory, h.Without([]int{idx})),
		model.SlotSet(slotSelectedBookings, []int{}),
	}, nil
}

func (a *Actions) checkFutureBooking(ctx context.Context, _ *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	h, idx, err := selectedBooking(t)
	if err != nil {
		return nil, err
	}
	if h[idx] == "" {
		return []model.Event{model.SlotSet(slotIsFutureBooking, true)}, nil
	}
	b, err := a.store.GetBooking(ctx, h[idx])
	if err != nil {
		return nil, err
	}
	// booking dates carry the server's wall clock
	return []model.Event{model.SlotSet(slotIsFutureBooking, b.Parameters.Date.After(a.now()))}, nil
}

func (a *Actions) showBookingDetails(ctx context.Context, d *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	_, b, err := a.currentBooking(ctx, t)
	if err != nil {
		return nil, err
	}
	p := b.Parameters

	var sb strings.Builder
	sb.WriteString("Here are the details of your booking:\n")
	fmt.Fprintf(&sb, "- place: %s\n", p.Place.Address())
	fmt.Fprintf(&sb, "- date and time: %s\n", model.FormatBookingTime(p.Date))
	fmt.Fprintf(&sb, "- number of people: %d\n", p.NumPeople)
	fmt.Fprintf(&sb, "- made by: %s\n", p.Author)
	d.Utter(sb.String())
	return nil, nil
}

// selectedBooking returns the booking history and its first selected index.
func selectedBooking(t *model.Tracker) (model.History, int, error) {
	h, err := history(t, slotBookingHistory)
	if err != nil {
		return nil, 0, err
	}
	idx, err := firstSelected(t, slotSelectedBookings, len(h))
	if err != nil {
		return nil, 0, err
	}
	return h, idx, nil
}

// currentBooking loads the first selected booking.
func (a *Actions) currentBooking(ctx context.Context, t *model.Tracker) (string, *model.BookingData, error) {
	h, idx, err := selectedBooking(t)
	if err != nil {
		return "", nil, err
	}
	if h[idx] == "" {
		return "", nil, errors.New("the selected booking is still being created")
	}
	b, err := a.store.GetBooking(ctx, h[idx])
	if err != nil {
		return "", nil, err
	}
	return h[idx], b, nil
}
