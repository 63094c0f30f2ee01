package actions

import (
	"context"
	"time"

	"github.com/placefinder/server/internal/agent/metrics"
	"github.com/placefinder/server/internal/agent/model"
	"github.com/placefinder/server/pkg/duckling"
	"github.com/placefinder/server/pkg/places"
)

// Finder searches places; implemented by search.Finder.
type Finder interface {
	FindLocation(ctx context.Context, query string, bias *places.Place) ([]places.Place, error)
	FindPlaces(ctx context.Context, params *model.SearchParameters) ([]places.Place, error)
	FindParkings(ctx context.Context, at places.LatLng) ([]places.Place, error)
}

// Parser extracts numbers and times from text; implemented by duckling.Client.
type Parser interface {
	ParseNumbers(ctx context.Context, text string) ([]int, error)
	ParseTimes(ctx context.Context, text string) ([]duckling.Time, error)
}

// Responder writes a free-form reply when the assistant cannot handle a message.
type Responder interface {
	Respond(ctx context.Context, in model.FallbackInput) (string, error)
}

type Deps struct {
	Store   model.Store
	Finder  Finder
	Parser  Parser
	Search  model.SearchConfig
	Booking model.BookingConfig

	// Responder is optional; without it the fallback actions utter canned responses.
	Responder Responder
	// Now defaults to time.Now.
	Now func() time.Time
}

// Actions holds the dependencies shared by every action.
type Actions struct {
	store     model.Store
	finder    Finder
	parser    Parser
	responder Responder
	search    model.SearchConfig
	booking   model.BookingConfig
	now       func() time.Time
}

func New(deps Deps) *Actions {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Actions{
		store:     deps.Store,
		finder:    deps.Finder,
		parser:    deps.Parser,
		responder: deps.Responder,
		search:    deps.Search,
		booking:   deps.Booking,
		now:       now,
	}
}

// Registry returns a registry holding every action of the assistant.
func (a *Actions) Registry() *Registry {
	r := NewRegistry()
	for name, h := range map[string]Handler{
		// misc
		model.ActionSessionStart:         a.sessionStart,
		model.ActionRestart:              a.restart,
		"action_greet":                   a.greet,
		"action_search_history_guard":    a.searchHistoryGuard,
		"action_selected_searches_guard": a.selectedSearchesGuard,

		// search form
		"validate_search_form":          a.validateSearchForm,
		"action_set_search_place_type":  a.setSearchPlaceType,
		"action_set_search_location":    a.setSearchLocation,
		"action_set_search_open_now":    a.setSearchOpenNow,
		"action_set_search_activity":    a.setSearchActivity,
		"action_set_search_price_range": a.setSearchPriceRange,
		"action_set_search_quality":     a.setSearchQuality,
		"action_ask_search_place_type":  a.askSearchPlaceType,
		"action_ask_search_location":    a.askSearchLocation,

		// search management
		"action_start_search":           a.startSearch,
		"action_create_search":          a.createSearch,
		"action_cancel_search":          a.cancelSearch,
		"action_search":                 a.runSearch,
		"action_change_search_rank_by":  a.changeSearchRankBy,
		"action_show_search_parameters": a.showSearchParameters,

		// search history
		"action_show_search_history":              a.showSearchHistory,
		"action_clear_search_history":             a.clearSearchHistory,
		"action_set_selected_searches":            a.setSelectedSearches,
		"action_show_selected_searches":           a.showSelectedSearches,
		"action_count_selected_searches":          a.countSelectedSearches,
		"action_confirm_delete_selected_searches": a.confirmDeleteSelectedSearches,
		"action_delete_selected_searches":         a.deleteSelectedSearches,

		// search history, names used by existing Rasa domains
		"action_ask_search_deletion": a.confirmDeleteSelectedSearches,
		"action_delete_searches":     a.deleteSelectedSearches,

		// results
		"action_set_selected_results":   a.setSelectedResults,
		"action_show_selected_results":  a.showSelectedResults,
		"action_count_selected_results": a.countSelectedResults,
		"action_retrieve_place_info":    a.retrievePlaceInfo,

		// booking
		"action_set_booking_datetime":     a.setBookingDatetime,
		"action_set_booking_people_count": a.setBookingPeopleCount,
		"action_set_booking_author":       a.setBookingAuthor,
		"action_ask_booking_datetime":     a.askBookingDatetime,
		"action_ask_booking_people_count": a.askBookingPeopleCount,
		"action_ask_booking_author":       a.askBookingAuthor,
		"action_suggest_booking":          a.suggestBooking,
		"action_check_is_reservable":      a.checkIsReservable,
		"action_state_not_reservable":     a.stateNotReservable,
		"action_start_booking":            a.startBooking,
		"action_confirm_booking":          a.confirmBooking,
		"action_create_booking":           a.createBooking,
		"action_cancel_booking":           a.cancelBooking,
		"action_check_future_booking":     a.checkFutureBooking,
		"action_show_booking_details":     a.showBookingDetails,

		// booking history
		"action_set_selected_bookings":            a.setSelectedBookings,
		"action_show_selected_bookings":           a.showSelectedBookings,
		"action_confirm_delete_selected_bookings": a.confirmDeleteSelectedBookings,
		"action_delete_selected_bookings":         a.deleteSelectedBookings,
		"action_count_selected_bookings":          a.countSelectedBookings,

		// fallback
		"action_out_of_scope":       a.outOfScope,
		model.ActionDefaultFallback: a.defaultFallback,
	} {
		r.Register(name, h)
	}
	return r
}

func (a *Actions) parseNumbers(ctx context.Context, text string) ([]int, error) {
	n, err := a.parser.ParseNumbers(ctx, text)
	metrics.ObserveUpstream(duckling.ServiceName, err)
	return n, err
}

func (a *Actions) parseTimes(ctx context.Context, text string) ([]duckling.Time, error) {
	times, err := a.parser.ParseTimes(ctx, text)
	metrics.ObserveUpstream(duckling.ServiceName, err)
	return times, err
}

// countLabel is the value of the *_count slots.
func countLabel(n int) string {
	switch n {
	case 0:
		return "zero"
	case 1:
		return "one"
	default:
		return "multiple"
	}
}
