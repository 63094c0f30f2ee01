package actions

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/placefinder/server/internal/agent/grammar"
	"github.com/placefinder/server/internal/agent/locations"
	"github.com/placefinder/server/internal/agent/model"
	logx "github.com/placefinder/server/pkg/logger"
)

const searchForm = "search_form"

// Any of these makes the place type optional.
var alternativeSearchSlots = []string{
	slotSearchActivity,
	slotSearchMealType,
	slotSearchCuisineType,
	slotSearchPlaceType,
	slotSearchPlaceName,
}

func (a *Actions) searchRequiredSlots(t *model.Tracker) []string {
	for _, s := range alternativeSearchSlots {
		if t.HasSlot(s) {
			return []string{slotSearchLocation}
		}
	}
	return []string{slotSearchPlaceType, slotSearchLocation}
}

// validateSearchForm accepts the slots filled since the user spoke and asks
// for the next missing required slot.
func (a *Actions) validateSearchForm(_ context.Context, _ *Dispatcher, t *model.Tracker, domain Domain) ([]model.Event, error) {
	var events []model.Event
	if t.Slots == nil {
		t.Slots = make(map[string]json.RawMessage)
	}
	for _, ev := range t.SlotsSetSinceUserTurn() {
		var v any
		if len(ev.Value) > 0 {
			if err := json.Unmarshal(ev.Value, &v); err != nil {
				return nil, err
			}
		}
		events = append(events, model.SlotSet(ev.Name, v))
		// later checks must see the validated value
		t.Slots[ev.Name] = ev.Value
	}

	required := a.searchRequiredSlots(t)
	if equalStrings(required, domain.requiredSlots(searchForm)) {
		return events, nil
	}

	var next any
	for _, s := range required {
		if !t.HasSlot(s) {
			next = s
			break
		}
	}
	return append(events, model.SlotSet(slotRequestedSlot, next)), nil
}

// requiredSlots reads forms.<form>.required_slots from the domain.
func (d Domain) requiredSlots(form string) []string {
	forms, _ := d["forms"].(map[string]any)
	f, _ := forms[form].(map[string]any)
	raw, _ := f["required_slots"].([]any)
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (a *Actions) setSearchPlaceType(_ context.Context, _ *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	entities := t.Entities("place_type", "", "")
	if len(entities) == 0 {
		return nil, nil
	}
	if !entities[0].Correct() {
		return []model.Event{
			model.SlotSet(slotSearchPlaceType, nil),
			model.SlotSet(slotSearchPlaceTypeError, true),
		}, nil
	}
	return []model.Event{
		model.SlotSet(slotSearchPlaceType, entities[0].Text()),
		model.SlotSet(slotSearchPlaceTypeError, false),
	}, nil
}

func (a *Actions) setSearchLocation(ctx context.Context, _ *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	userLocation, err := placeSlot(t, slotUserLocation)
	if err != nil {
		return nil, err
	}

	if locations.IsUserLocation(t.LatestMessage.Text) {
		if userLocation == nil {
			return []model.Event{
				model.SlotSet(slotSearchLocation, nil),
				model.SlotSet(slotSearchLocationError, []model.LocationIssue{{Reason: model.LocationUnknownUserLocation}}),
			}, nil
		}
		return []model.Event{
			model.SlotSet(slotSearchLocation, userLocation),
			model.SlotSet(slotSearchLocationError, nil),
		}, nil
	}

	issues, err := model.GetSlot[[]model.LocationIssue](t, slotSearchLocationError, nil)
	if err != nil {
		return nil, err
	}

	values := t.EntityValues("location")
	if len(values) == 0 {
		if t.HasSlot(slotSearchLocation) || len(issues) > 0 {
			return nil, nil
		}
		if boolSlot(t, slotSearchOpenNow) && userLocation != nil {
			return []model.Event{
				model.SlotSet(slotSearchLocation, userLocation),
				model.SlotSet(slotSearchLocationError, nil),
			}, nil
		}
		return nil, nil
	}

	query := values[0]
	fillUserLocation := t.HasIntent("inform_my_location")
	for _, issue := range issues {
		if issue.Reason == model.LocationUnknownUserLocation {
			fillUserLocation = true
		}
	}
	if n := len(issues); n > 0 && issues[n-1].Reason == model.LocationAmbiguous {
		merged, err := locations.MergeLocations(issues[n-1].Query, query)
		if err != nil {
			return nil, err
		}
		logx.Debug().Str("previous", issues[n-1].Query).Str("merged", merged).Msg("merged ambiguous location")
		query = merged
	}

	candidates, err := a.finder.FindLocation(ctx, query, userLocation)
	if err != nil {
		return nil, err
	}
	if len(candidates) != 1 {
		reason := model.LocationNotFound
		if len(candidates) > 1 {
			reason = model.LocationAmbiguous
		}
		issues = append(issues, model.LocationIssue{Reason: reason, Query: query})
		return []model.Event{
			model.SlotSet(slotSearchLocation, nil),
			model.SlotSet(slotSearchLocationError, issues),
		}, nil
	}

	events := []model.Event{
		model.SlotSet(slotSearchLocation, candidates[0]),
		model.SlotSet(slotSearchLocationError, nil),
	}
	if fillUserLocation {
		events = append(events, model.SlotSet(slotUserLocation, candidates[0]))
	}
	return events, nil
}

func (a *Actions) setSearchOpenNow(_ context.Context, _ *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	for _, intent := range t.Intents() {
		if strings.HasSuffix(intent, "now") {
			return []model.Event{model.SlotSet(slotSearchOpenNow, true)}, nil
		}
	}
	return nil, nil
}

func (a *Actions) setSearchActivity(_ context.Context, _ *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	for _, intent := range t.Intents() {
		switch {
		case strings.Contains(intent, "eat"):
			return []model.Event{model.SlotSet(slotSearchActivity, model.ActivityEat)}, nil
		case strings.Contains(intent, "drink"):
			return []model.Event{model.SlotSet(slotSearchActivity, model.ActivityDrink)}, nil
		}
	}
	return nil, nil
}

// setSearchPriceRange keeps the last price range intent of the message.
func (a *Actions) setSearchPriceRange(_ context.Context, _ *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	var price model.PriceRange
	for _, intent := range t.Intents() {
		switch intent {
		case "inform_price_range_any":
			price = model.PriceRangeAny
		case "inform_price_range_expensive":
			price = model.PriceRangeExpensive
		case "inform_price_range_moderate":
			price = model.PriceRangeModerate
		case "inform_price_range_inexpensive":
			price = model.PriceRangeInexpensive
		}
	}
	if price == "" {
		return nil, nil
	}
	return []model.Event{model.SlotSet(slotSearchPriceRange, price)}, nil
}

func (a *Actions) setSearchQuality(_ context.Context, _ *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	var quality model.Quality
	for _, intent := range t.Intents() {
		switch intent {
		case "inform_quality_any":
			quality = model.QualityAny
		case "inform_quality_excellent":
			quality = model.QualityExcellent
		case "inform_quality_moderate":
			quality = model.QualityModerate
		}
	}
	if quality == "" {
		return nil, nil
	}
	return []model.Event{model.SlotSet(slotSearchQuality, quality)}, nil
}

func (a *Actions) askSearchPlaceType(_ context.Context, d *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	if boolSlot(t, slotSearchPlaceTypeError) {
		d.UtterResponse("utter_invalid_place_type", nil)
	} else {
		d.UtterResponse("utter_ask_place_type", nil)
	}
	return nil, nil
}

func (a *Actions) askSearchLocation(_ context.Context, d *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	issues, err := model.GetSlot[[]model.LocationIssue](t, slotSearchLocationError, nil)
	if err != nil {
		return nil, err
	}

	var what string
	switch activity := model.Activity(stringSlot(t, slotSearchActivity)); {
	case t.HasSlot(slotSearchPlaceType):
		what = grammar.Pluralize(stringSlot(t, slotSearchPlaceType))
	case activity == model.ActivityEat:
		what = "places to eat"
	case activity == model.ActivityDrink:
		what = "places to have a drink"
	default:
		what = "places"
	}

	if len(issues) == 0 {
		switch name := stringSlot(t, slotSearchPlaceName); {
		case boolSlot(t, slotSearchOpenNow):
			d.UtterResponse("utter_ask_user_location", map[string]any{"place_type": what})
		case name != "":
			d.UtterResponse("utter_ask_location_place_name", map[string]any{"place_name": name})
		default:
			d.UtterResponse("utter_ask_location", map[string]any{"place_type": what})
		}
		return nil, nil
	}

	last := issues[len(issues)-1]
	switch last.Reason {
	case model.LocationUnknownUserLocation:
		d.UtterResponse("utter_need_user_location", nil)
	case model.LocationAmbiguous:
		d.UtterResponse("utter_ambiguous_location", map[string]any{"location": last.Query})
	default:
		d.UtterResponse("utter_location_not_found", map[string]any{"location": last.Query})
	}
	return nil, nil
}
