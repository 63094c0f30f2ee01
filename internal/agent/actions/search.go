package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/placefinder/server/internal/agent/grammar"
	"github.com/placefinder/server/internal/agent/model"
	"github.com/placefinder/server/internal/agent/search"
	"github.com/placefinder/server/pkg/places"
)

// startSearch either opens a new search at the end of the history or, when
// the user is refining the selected search, loads its parameters in the form.
func (a *Actions) startSearch(ctx context.Context, d *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	h, err := history(t, slotSearchHistory)
	if err != nil {
		return nil, err
	}

	for _, intent := range t.Intents() {
		if !strings.HasPrefix(intent, "inform") {
			continue
		}
		_, s, err := a.currentSearch(ctx, t)
		if err != nil {
			return nil, err
		}
		p := s.Parameters
		return []model.Event{
			model.SlotSet(slotSearchLocation, p.Location),
			model.SlotSet(slotSearchLocationError, nil),
			model.SlotSet(slotSearchPlaceType, nullable(p.PlaceType)),
			model.SlotSet(slotSearchPlaceTypeError, nil),
			model.SlotSet(slotSearchPlaceName, nullable(p.PlaceName)),
			model.SlotSet(slotSearchOpenNow, p.OpenNow),
			model.SlotSet(slotSearchMealType, nullable(p.MealType)),
			model.SlotSet(slotSearchCuisineType, nullable(p.CuisineType)),
			model.SlotSet(slotSearchActivity, nullable(string(p.Activity))),
			model.SlotSet(slotSearchPriceRange, nullable(string(p.PriceRange))),
			model.SlotSet(slotSearchQuality, nullable(string(p.Quality))),
		}, nil
	}

	h = append(h, "")
	suggestBooking := len(t.EntityValues("datetime")) > 0

	d.UtterResponse("utter_start_search", nil)
	return []model.Event{
		model.SlotSet(slotSearchHistory, h),
		model.SlotSet(slotSelectedSearches, []int{len(h) - 1}),
		model.SlotSet(slotSelectedResults, nil),
		model.SlotSet(slotSearchLocation, nil),
		model.SlotSet(slotSearchLocationError, nil),
		model.SlotSet(slotSearchPlaceType, nil),
		model.SlotSet(slotSearchPlaceTypeError, nil),
		model.SlotSet(slotSearchPlaceName, nil),
		model.SlotSet(slotSearchOpenNow, nil),
		model.SlotSet(slotSearchMealType, nil),
		model.SlotSet(slotSearchCuisineType, nil),
		model.SlotSet(slotSearchActivity, nil),
		model.SlotSet(slotSearchPriceRange, nil),
		model.SlotSet(slotSearchQuality, nil),
		model.SlotSet(slotSuggestBooking, suggestBooking),
	}, nil
}

// nullable maps "" to a null slot value.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (a *Actions) createSearch(ctx context.Context, _ *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	h, err := history(t, slotSearchHistory)
	if err != nil {
		return nil, err
	}
	idx, err := firstSelected(t, slotSelectedSearches, len(h))
	if err != nil {
		return nil, err
	}
	location, err := placeSlot(t, slotSearchLocation)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, errors.New("cannot create a search without a location")
	}

	params := model.SearchParameters{
		Location:    location,
		PlaceType:   stringSlot(t, slotSearchPlaceType),
		PlaceName:   stringSlot(t, slotSearchPlaceName),
		OpenNow:     boolSlot(t, slotSearchOpenNow),
		MealType:    stringSlot(t, slotSearchMealType),
		CuisineType: stringSlot(t, slotSearchCuisineType),
		Activity:    model.Activity(stringSlot(t, slotSearchActivity)),
		PriceRange:  model.PriceRange(stringSlot(t, slotSearchPriceRange)),
		Quality:     model.Quality(stringSlot(t, slotSearchQuality)),
	}

	if key := h[idx]; key != "" {
		// refining an existing search keeps its ranking
		old, err := a.store.GetSearch(ctx, key)
		if err != nil {
			return nil, err
		}
		params.RankBy = old.Parameters.RankBy
		return nil, a.store.UpdateSearch(ctx, key, &model.SearchData{Parameters: params})
	}

	key, err := a.store.AddSearch(ctx, &model.SearchData{Parameters: params})
	if err != nil {
		return nil, err
	}
	h[idx] = key
	return []model.Event{
		model.SlotSet(slotSearchHistory, h),
		model.SlotSet(slotSelectedSearches, []int{idx}),
		model.SlotSet(slotSelectedSearchesError, nil),
	}, nil
}

func (a *Actions) cancelSearch(_ context.Context, d *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	h, err := history(t, slotSearchHistory)
	if err != nil {
		return nil, err
	}
	idx, err := firstSelected(t, slotSelectedSearches, len(h))
	if err != nil {
		return nil, err
	}

	if h[idx] != "" {
		d.UtterResponse("utter_cancel_modify_search", nil)
		return nil, nil
	}

	d.UtterResponse("utter_cancel_search", nil)
	return []model.Event{
		model.SlotSet(slotSearchHistory, h.Without([]int{idx})),
		model.SlotSet(slotSelectedSearches, []int{}),
	}, nil
}

// runSearch queries Places for the selected search and phrases the outcome
// relative to what the previous run of the same search returned.
func (a *Actions) runSearch(ctx context.Context, d *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	key, s, err := a.currentSearch(ctx, t)
	if err != nil {
		return nil, err
	}

	results, err := a.finder.FindPlaces(ctx, &s.Parameters)
	if err != nil {
		return nil, err
	}

	d.Utter(a.searchOutcome(s.Results, results))

	s.Results = results
	if err := a.store.UpdateSearch(ctx, key, s); err != nil {
		return nil, err
	}

	events := []model.Event{model.SlotSet(slotSelectedResults, indexRange(min(len(results), a.search.PageSize)))}
	if len(results) == 1 && boolSlot(t, slotSuggestBooking) {
		if reservable, _ := places.Bool(results[0].Reservable); reservable {
			events = append(events, model.FollowupAction("action_suggest_booking"))
		}
	}
	return events, nil
}

func (a *Actions) searchOutcome(previous, results []places.Place) string {
	firstRun := previous == nil
	pageSize := a.search.PageSize

	switch n := len(results); {
	case n == 0:
		switch {
		case firstRun:
			return "I couldn't find any places matching your search criteria. Try loosening them a bit."
		case len(previous) == 0:
			return "Sorry, but I still cannot find any places."
		default:
			return "These new search criteria may be too restrictive because I cannot find any places satisfying them."
		}

	case n == 1:
		title := search.PlaceTitle(&results[0])
		switch {
		case firstRun:
			return "I found only one place matching your search criteria: " + title
		case len(previous) == 0:
			return "Well at least now I found one place: " + title
		case len(previous) == 1:
			return "Even now, I found only one place: " + title
		default:
			return "Using these new search criteria, I found only one place: " + title
		}

	case n <= pageSize:
		var head string
		switch {
		case firstRun:
			head = "Here are all the results I found:\n"
		case len(previous) < n:
			head = "With these new search criteria, I found more results:\n"
		default:
			head = "Here are all the results I found with the new search criteria:\n"
		}
		return head + numberedPlaces(results, indexRange(n))

	default:
		var head string
		switch {
		case firstRun:
			head = fmt.Sprintf("I found multiple places matching your search criteria. Here are the top %d:\n", pageSize)
		case len(previous) < n:
			head = fmt.Sprintf("Now I found many more places. Here are the top %d:\n", pageSize)
		default:
			head = fmt.Sprintf("Here are the new top %d results:\n", pageSize)
		}
		return head + numberedPlaces(results, indexRange(pageSize))
	}
}

// numberedPlaces lists the places at indices as "1. name (address)" lines,
// numbered by their position in the full list.
func numberedPlaces(results []places.Place, indices []int) string {
	var b strings.Builder
	for _, i := range indices {
		fmt.Fprintf(&b, "%d. %s\n", i+1, search.PlaceTitle(&results[i]))
	}
	return b.String()
}

func (a *Actions) changeSearchRankBy(ctx context.Context, d *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	var rankBy model.RankBy
loop:
	for _, intent := range t.Intents() {
		switch intent {
		case "rank_results_by_relevance":
			rankBy = model.RankByRelevance
			break loop
		case "rank_results_by_distance":
			rankBy = model.RankByDistance
			break loop
		case "rank_results_by_unsupported":
			d.UtterResponse("utter_unsupported_rank_by", nil)
			return nil, nil
		}
	}
	if rankBy == "" {
		return nil, errors.New("no ranking intent in the latest message")
	}

	key, s, err := a.currentSearch(ctx, t)
	if err != nil {
		return nil, err
	}
	if s.Parameters.Ranking() == rankBy {
		d.UtterResponse("utter_already_ranked_by", map[string]any{"rank_by": string(rankBy)})
		return nil, nil
	}
	s.Parameters.RankBy = rankBy

	if len(s.Results) < 2 {
		if err := a.store.UpdateSearch(ctx, key, s); err != nil {
			return nil, err
		}
		d.UtterResponse("utter_changed_rank_by", map[string]any{"rank_by": string(rankBy)})
		return nil, nil
	}

	results, err := a.finder.FindPlaces(ctx, &s.Parameters)
	if err != nil {
		return nil, err
	}
	shown := min(len(results), a.search.PageSize)

	var msg string
	if len(results) <= a.search.PageSize {
		msg = fmt.Sprintf("Here are all the results sorted by %s:\n", rankBy)
	} else {
		msg = fmt.Sprintf("Here are the top %d results sorted by %s:\n", a.search.PageSize, rankBy)
	}
	d.Utter(strings.TrimSuffix(msg+numberedPlaces(results, indexRange(shown)), "\n"))

	s.Results = results
	if err := a.store.UpdateSearch(ctx, key, s); err != nil {
		return nil, err
	}
	return []model.Event{model.SlotSet(slotSelectedResults, indexRange(shown))}, nil
}

func (a *Actions) showSearchParameters(ctx context.Context, d *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	_, s, err := a.currentSearch(ctx, t)
	if err != nil {
		return nil, err
	}
	p := s.Parameters

	var what string
	switch {
	case p.PlaceType != "":
		what = grammar.Singularize(p.PlaceType)
	case p.Activity == model.ActivityEat:
		what = "place where to eat"
	case p.Activity == model.ActivityDrink:
		what = "place where to drink"
	default:
		what = "place"
	}
	near := p.Location.Address()

	var b strings.Builder
	b.WriteString("Here are the search details:\n")
	if p.PlaceName != "" {
		fmt.Fprintf(&b, "- you are looking for a %s called %s near %s", what, p.PlaceName, near)
	} else {
		fmt.Fprintf(&b, "- you are looking for a %s", what)
		if p.MealType != "" {
			fmt.Fprintf(&b, " for %s", p.MealType)
		}
		if p.CuisineType != "" {
			fmt.Fprintf(&b, " with %s cuisine", p.CuisineType)
		}
		fmt.Fprintf(&b, " near %s", near)
	}

	if p.OpenNow {
		fmt.Fprintf(&b, "\n- the %s should be open now", what)
	}
	switch p.Quality {
	case model.QualityExcellent:
		fmt.Fprintf(&b, "\n- the %s should have excellent reviews", what)
	case model.QualityModerate:
		fmt.Fprintf(&b, "\n- the %s should have good reviews", what)
	}
	switch p.PriceRange {
	case model.PriceRangeExpensive:
		fmt.Fprintf(&b, "\n- the %s should be expensive", what)
	case model.PriceRangeModerate:
		fmt.Fprintf(&b, "\n- the %s should be moderately priced", what)
	case model.PriceRangeInexpensive:
		fmt.Fprintf(&b, "\n- the %s should be inexpensive", what)
	}
	fmt.Fprintf(&b, "\n- the results are ranked by %s", p.Ranking())

	d.Utter(b.String())
	return nil, nil
}
