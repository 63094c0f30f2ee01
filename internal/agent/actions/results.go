package actions

import (
	"context"
	"fmt"
	"strings"

	"github.com/placefinder/server/internal/agent/mentions"
	"github.com/placefinder/server/internal/agent/model"
	"github.com/placefinder/server/pkg/places"
)

var resultNoun = mentions.Noun{Singular: "result", Plural: "results"}

func (a *Actions) setSelectedResults(ctx context.Context, d *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	_, s, err := a.currentSearch(ctx, t)
	if err != nil {
		return nil, err
	}
	results := s.Results

	if len(results) == 0 {
		return selectResults(nil, "no_results"), nil
	}

	refs := t.EntityValues("mention")
	if len(refs) == 0 {
		switch {
		case len(results) == 1:
			return selectResults([]int{0}, nil), nil
		case t.HasIntent("show_results"):
			return selectResults(indexRange(len(results)), nil), nil
		case hasIntentPrefix(t, "ask_"):
			// asking about "them" keeps whatever was selected before
			return selectResults(t.RawSlot(slotSelectedResults), t.RawSlot(slotSelectedResultsError)), nil
		default:
			return selectResults(nil, "no_selection"), nil
		}
	}

	current, err := selection(t, slotSelectedResults)
	if err != nil {
		return nil, err
	}
	selected, errs := mentions.Resolve(refs, current, len(results), resultNoun)
	if len(errs) > 0 {
		d.Utter(selectionErrorMessage(errs))
		return []model.Event{model.SlotSet(slotSelectedResultsError, "invalid_selection")}, nil
	}
	if len(selected) == 0 {
		return selectResults(nil, "no_results_found"), nil
	}
	return selectResults(selected, nil), nil
}

func selectResults(selected, reason any) []model.Event {
	return []model.Event{
		model.SlotSet(slotSelectedResults, selected),
		model.SlotSet(slotSelectedResultsError, reason),
	}
}

func hasIntentPrefix(t *model.Tracker, prefix string) bool {
	for _, intent := range t.Intents() {
		if strings.HasPrefix(intent, prefix) {
			return true
		}
	}
	return false
}

func (a *Actions) showSelectedResults(ctx context.Context, d *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	_, s, err := a.currentSearch(ctx, t)
	if err != nil {
		return nil, err
	}
	results := s.Results
	selected, err := selection(t, slotSelectedResults)
	if err != nil {
		return nil, err
	}
	for _, i := range selected {
		if i < 0 || i >= len(results) {
			return nil, fmt.Errorf("slot %s selects %d out of %d results", slotSelectedResults, i, len(results))
		}
	}

	switch {
	case len(selected) == 1:
		d.Utter(placeDetails(&results[selected[0]]))
	case len(selected) == len(results):
		d.Utter("Here all the results:\n" + numberedPlaces(results, selected))
	default:
		d.Utter("Here are the selected results:\n" + numberedPlaces(results, selected))
	}

	if len(selected) == 1 && boolSlot(t, slotSuggestBooking) {
		if reservable, _ := places.Bool(results[selected[0]].Reservable); reservable {
			return []model.Event{model.FollowupAction("action_suggest_booking")}, nil
		}
	}
	return nil, nil
}

// placeDetails is the summary shown when a single place is selected.
func placeDetails(p *places.Place) string {
	var b strings.Builder
	kind := p.TypeName()
	if kind == "" {
		kind = "place"
	}
	fmt.Fprintf(&b, "Here are the details for the %s %s:\n", kind, p.Name())
	fmt.Fprintf(&b, "- it is located at %s\n", p.Address())
	if p.NationalPhoneNumber != "" {
		fmt.Fprintf(&b, "- you can call them at %s\n", p.NationalPhoneNumber)
	}
	if p.Rating != nil && *p.Rating > 0 {
		fmt.Fprintf(&b, "- it has a rating of %.1f out of 5\n", *p.Rating)
	}
	if phrase := pricePhrase(p.PriceLevel); phrase != "" {
		fmt.Fprintf(&b, "- it %s\n", phrase)
	}
	return b.String()
}

func pricePhrase(level places.PriceLevel) string {
	switch level {
	case places.PriceLevelFree:
		return "does not charge for its services"
	case places.PriceLevelInexpensive:
		return "is not expensive"
	case places.PriceLevelModerate:
		return "is moderately priced"
	case places.PriceLevelExpensive:
		return "is expensive"
	case places.PriceLevelVeryExpensive:
		return "is very expensive"
	default:
		return ""
	}
}

func (a *Actions) countSelectedResults(_ context.Context, _ *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	selected, err := selection(t, slotSelectedResults)
	if err != nil {
		return nil, err
	}
	return []model.Event{model.SlotSet(slotSelectedResultsCount, countLabel(len(selected)))}, nil
}
