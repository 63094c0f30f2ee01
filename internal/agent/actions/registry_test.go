package actions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placefinder/server/internal/agent/model"
)

func failing(err error) Handler {
	return func(_ context.Context, d *Dispatcher, _ *model.Tracker, _ Domain) ([]model.Event, error) {
		d.Utter("half done")
		return []model.Event{model.SlotSet("x", 1)}, err
	}
}

func TestRunUnknownAction(t *testing.T) {
	r := NewRegistry()
	_, err := r.Run(context.Background(), &model.ActionCall{NextAction: "action_nope"})

	var unknown *UnknownActionError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "No registered action found for name 'action_nope'.", err.Error())
}

func TestRunReturnsEventsAndMessages(t *testing.T) {
	r := NewRegistry()
	r.Register("action_ok", failing(nil))

	res, err := r.Run(context.Background(), &model.ActionCall{NextAction: "action_ok"})
	require.NoError(t, err)
	assert.Equal(t, []model.Event{model.SlotSet("x", 1)}, res.Events)
	assert.Equal(t, []string{"half done"}, texts(res))
}

func TestRunNeverReturnsNilLists(t *testing.T) {
	r := NewRegistry()
	r.Register("action_quiet", func(context.Context, *Dispatcher, *model.Tracker, Domain) ([]model.Event, error) {
		return nil, nil
	})

	res, err := r.Run(context.Background(), &model.ActionCall{NextAction: "action_quiet"})
	require.NoError(t, err)
	assert.NotNil(t, res.Events)
	assert.NotNil(t, res.Responses)
}

func TestRunInternalErrorGoesBack(t *testing.T) {
	r := NewRegistry()
	r.Register("action_fail", failing(errors.New("boom")))

	tr := tracker(t, map[string]any{slotNumInternalErrors: 1}, model.Message{})
	res, err := r.Run(context.Background(), &model.ActionCall{NextAction: "action_fail", Tracker: *tr})
	require.NoError(t, err)

	assert.Empty(t, res.Responses, "messages of a failed action are dropped")
	assert.Equal(t, []model.Event{
		model.SlotSet(slotNumInternalErrors, 2),
		model.ActionExecuted(model.ActionBack),
	}, res.Events)
}

func TestRunInternalErrorInsideForm(t *testing.T) {
	r := NewRegistry()
	r.Register("action_fail", failing(errors.New("boom")))

	tr := tracker(t, nil, model.Message{})
	tr.ActiveLoop.Name = "search_form"
	res, err := r.Run(context.Background(), &model.ActionCall{NextAction: "action_fail", Tracker: *tr})
	require.NoError(t, err)

	assert.Equal(t, []model.Event{
		model.SlotSet(slotNumInternalErrors, 1),
		model.ActionExecuted(model.ActionDeactivateLoop),
	}, res.Events)
}

func TestRunTooManyInternalErrorsRestarts(t *testing.T) {
	r := NewRegistry()
	r.Register("action_fail", failing(errors.New("boom")))

	tr := tracker(t, map[string]any{slotNumInternalErrors: 2}, model.Message{})
	res, err := r.Run(context.Background(), &model.ActionCall{NextAction: "action_fail", Tracker: *tr})
	require.NoError(t, err)

	assert.Equal(t, []string{"utter_internal_error_max"}, responses(res))
	assert.Equal(t, []model.Event{model.Restarted()}, res.Events)
}

func TestRunRecoversPanics(t *testing.T) {
	r := NewRegistry()
	r.Register("action_panic", func(context.Context, *Dispatcher, *model.Tracker, Domain) ([]model.Event, error) {
		var m map[string]int
		m["x"]++
		return nil, nil
	})

	res, err := r.Run(context.Background(), &model.ActionCall{NextAction: "action_panic"})
	require.NoError(t, err)
	assert.Equal(t, []model.Event{
		model.SlotSet(slotNumInternalErrors, 1),
		model.ActionExecuted(model.ActionBack),
	}, res.Events)
}

func TestRegistryHoldsEveryAction(t *testing.T) {
	names := newFixture(t).registry.Names()

	assert.IsNonDecreasing(t, names)
	for _, want := range []string{
		"action_session_start",
		"action_restart",
		"validate_search_form",
		"action_search",
		"action_set_selected_results",
		"action_retrieve_place_info",
		"action_create_booking",
		"action_delete_selected_bookings",
		"action_ask_search_deletion",
		"action_delete_searches",
		"action_default_fallback",
	} {
		assert.Contains(t, names, want)
	}
	assert.Len(t, names, 55)
}
