package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/placefinder/server/internal/agent/model"
	"github.com/placefinder/server/pkg/places"
)

const (
	slotNumInternalErrors = "num_internal_errors"
	slotKnownUser         = "known_user"
	slotUserLocation      = "user_location"
	slotUserName          = "user_name"
	slotRequestedSlot     = "requested_slot"
	slotSuggestBooking    = "suggest_booking"

	slotSearchHistory         = "search_history"
	slotSelectedSearches      = "selected_searches"
	slotSelectedSearchesError = "selected_searches_error"
	slotSelectedSearchesCount = "selected_searches_count"

	slotSearchLocation       = "search_location"
	slotSearchLocationError  = "search_location_error"
	slotSearchPlaceType      = "search_place_type"
	slotSearchPlaceTypeError = "search_place_type_error"
	slotSearchPlaceName      = "search_place_name"
	slotSearchOpenNow        = "search_open_now"
	slotSearchMealType       = "search_meal_type"
	slotSearchCuisineType    = "search_cuisine_type"
	slotSearchActivity       = "search_activity"
	slotSearchPriceRange     = "search_price_range"
	slotSearchQuality        = "search_quality"

	slotSelectedResults      = "selected_results"
	slotSelectedResultsError = "selected_results_error"
	slotSelectedResultsCount = "selected_results_count"

	slotBookingHistory          = "booking_history"
	slotSelectedBookings        = "selected_bookings"
	slotSelectedBookingsError   = "selected_bookings_error"
	slotSelectedBookingsCount   = "selected_bookings_count"
	slotBookingPlace            = "booking_place"
	slotBookingDatetime         = "booking_datetime"
	slotBookingDatetimeError    = "booking_datetime_error"
	slotBookingPeopleCount      = "booking_people_count"
	slotBookingPeopleCountError = "booking_people_count_error"
	slotBookingAuthor           = "booking_author"
	slotIsReservable            = "is_reservable"
	slotIsFutureBooking         = "is_future_booking"
)

func history(t *model.Tracker, slot string) (model.History, error) {
	return model.GetSlot[model.History](t, slot, nil)
}

func selection(t *model.Tracker, slot string) ([]int, error) {
	return model.GetSlot[[]int](t, slot, nil)
}

// firstSelected returns the first selected index of slot, checked against
// a list of n items.
func firstSelected(t *model.Tracker, slot string, n int) (int, error) {
	sel, err := selection(t, slot)
	if err != nil {
		return 0, err
	}
	if len(sel) == 0 {
		return 0, fmt.Errorf("slot %s holds no selection", slot)
	}
	if sel[0] < 0 || sel[0] >= n {
		return 0, fmt.Errorf("slot %s selects %d out of %d items", slot, sel[0], n)
	}
	return sel[0], nil
}

func placeSlot(t *model.Tracker, slot string) (*places.Place, error) {
	var p places.Place
	ok, err := t.Slot(slot, &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

func stringSlot(t *model.Tracker, slot string) string {
	s, err := model.GetSlot(t, slot, "")
	if err != nil {
		return ""
	}
	return s
}

func boolSlot(t *model.Tracker, slot string) bool {
	b, err := model.GetSlot(t, slot, false)
	if err != nil {
		return false
	}
	return b
}

// indexRange returns [0, n).
func indexRange(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// currentSearch loads the first selected search.
func (a *Actions) currentSearch(ctx context.Context, t *model.Tracker) (string, *model.SearchData, error) {
	h, err := history(t, slotSearchHistory)
	if err != nil {
		return "", nil, err
	}
	idx, err := firstSelected(t, slotSelectedSearches, len(h))
	if err != nil {
		return "", nil, err
	}
	if h[idx] == "" {
		return "", nil, fmt.Errorf("search %d is still being created", idx)
	}
	s, err := a.store.GetSearch(ctx, h[idx])
	if err != nil {
		return "", nil, err
	}
	return h[idx], s, nil
}

// selectedPlace returns the first selected result of the current search.
func (a *Actions) selectedPlace(ctx context.Context, t *model.Tracker) (*places.Place, error) {
	_, s, err := a.currentSearch(ctx, t)
	if err != nil {
		return nil, err
	}
	idx, err := firstSelected(t, slotSelectedResults, len(s.Results))
	if err != nil {
		return nil, err
	}
	return &s.Results[idx], nil
}

func bookingTime(t *model.Tracker) (time.Time, bool, error) {
	raw := stringSlot(t, slotBookingDatetime)
	if raw == "" {
		return time.Time{}, false, nil
	}
	d, err := time.ParseInLocation(model.BookingTimeLayout, raw, time.Local)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse %s: %w", slotBookingDatetime, err)
	}
	return d, true, nil
}
