package actions

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placefinder/server/internal/agent/model"
)

func TestSessionStartCarriesSlots(t *testing.T) {
	f := newFixture(t)
	tr := tracker(t, map[string]any{
		slotKnownUser:         true,
		slotUserName:          "Ada",
		slotNumInternalErrors: 2,
		slotUserLocation:      rome,
		slotSelectedResults:   nil,
	}, model.Message{})

	res := f.run(t, model.ActionSessionStart, tr)
	require.NotEmpty(t, res.Events)

	assert.Equal(t, "session_started", res.Events[0].Type())
	assert.Equal(t, model.SlotSet(slotKnownUser, json.RawMessage("true")), res.Events[1])
	assert.Equal(t, model.SlotSet(slotUserName, json.RawMessage(`"Ada"`)), res.Events[2])
	assert.Equal(t, []model.Event{
		model.SlotSet(slotNumInternalErrors, 0),
		model.SlotSet(slotUserLocation, nil),
		model.ActionExecuted(model.ActionListen),
	}, res.Events[3:])
}

func TestGreet(t *testing.T) {
	f := newFixture(t)
	tr := tracker(t, nil, intent("greet"))

	res := f.run(t, "action_greet", tr)
	assert.Equal(t, []string{"utter_first_greet"}, responses(res))
	assert.True(t, slotOf[bool](t, tr, slotKnownUser))

	res = f.run(t, "action_greet", tr)
	assert.Equal(t, []string{"utter_greet"}, responses(res))
}

func TestRestart(t *testing.T) {
	res := newFixture(t).run(t, model.ActionRestart, tracker(t, nil, model.Message{}))
	assert.Equal(t, []string{"utter_restart"}, responses(res))
	assert.Equal(t, []model.Event{model.Restarted()}, res.Events)
}

func TestGuardsResetTheirSlot(t *testing.T) {
	f := newFixture(t)
	tr := tracker(t, map[string]any{slotSelectedSearches: []int{1}}, model.Message{})

	res := f.run(t, "action_selected_searches_guard", tr)
	require.Len(t, res.Events, 1)
	assert.Equal(t, slotSelectedSearches, res.Events[0]["name"])
	assert.Equal(t, []any{float64(1)}, res.Events[0]["value"])

	res = f.run(t, "action_search_history_guard", tr)
	assert.Nil(t, res.Events[0]["value"])
}
