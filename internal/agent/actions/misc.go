package actions

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/placefinder/server/internal/agent/model"
)

// sessionStart carries the slots of the previous session over, except the
// error counter and the user location which are reset.
func (a *Actions) sessionStart(_ context.Context, _ *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	events := []model.Event{model.SessionStarted()}

	names := make([]string, 0, len(t.Slots))
	for name := range t.Slots {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if name == slotNumInternalErrors || name == slotUserLocation || !t.HasSlot(name) {
			continue
		}
		events = append(events, model.SlotSet(name, json.RawMessage(t.Slots[name])))
	}
	events = append(events,
		model.SlotSet(slotNumInternalErrors, 0),
		model.SlotSet(slotUserLocation, nil),
		model.ActionExecuted(model.ActionListen),
	)
	return events, nil
}

func (a *Actions) restart(_ context.Context, d *Dispatcher, _ *model.Tracker, _ Domain) ([]model.Event, error) {
	d.UtterResponse("utter_restart", nil)
	return []model.Event{model.Restarted()}, nil
}

func (a *Actions) greet(_ context.Context, d *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	if !boolSlot(t, slotKnownUser) {
		d.UtterResponse("utter_first_greet", nil)
		return []model.Event{model.SlotSet(slotKnownUser, true)}, nil
	}
	d.UtterResponse("utter_greet", nil)
	return nil, nil
}

// searchHistoryGuard re-sets the slot so that stories can branch on it.
func (a *Actions) searchHistoryGuard(_ context.Context, _ *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	return []model.Event{model.SlotSet(slotSearchHistory, t.RawSlot(slotSearchHistory))}, nil
}

func (a *Actions) selectedSearchesGuard(_ context.Context, _ *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	return []model.Event{model.SlotSet(slotSelectedSearches, t.RawSlot(slotSelectedSearches))}, nil
}
