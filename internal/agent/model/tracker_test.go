package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trackerJSON = `{
  "sender_id": "u1",
  "slots": {"num_people": 4, "known_user": null, "search_history": ["a", null]},
  "latest_message": {
    "text": "the first and the third",
    "intent": {"name": "select+inform", "confidence": 0.9},
    "entities": [
      {"entity": "mention", "value": "the first"},
      {"entity": "mention", "value": "the third", "role": "selection"},
      {"entity": "place_type", "value": "pizzeria", "is_correct": false}
    ]
  },
  "events": [
    {"event": "user", "text": "old"},
    {"event": "session_started"},
    {"event": "action", "name": "search_form"},
    {"event": "user", "text": "hello", "parse_data": {"intent": {"name": "greet"}}},
    {"event": "action", "name": "action_ask_search_location"},
    {"event": "bot", "text": "hi!"},
    {"event": "action", "name": "action_ask_search_location"}
  ],
  "active_loop": {"name": "search_form"}
}`

func decodeTracker(t *testing.T) *Tracker {
	t.Helper()
	var tr Tracker
	require.NoError(t, json.Unmarshal([]byte(trackerJSON), &tr))
	return &tr
}

func TestTrackerSlots(t *testing.T) {
	tr := decodeTracker(t)

	n, err := GetSlot(tr, "num_people", 0)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	known, err := GetSlot(tr, "known_user", false)
	require.NoError(t, err)
	assert.False(t, known)
	assert.False(t, tr.HasSlot("known_user"))

	h, err := GetSlot[History](tr, "search_history", nil)
	require.NoError(t, err)
	assert.Equal(t, History{"a", ""}, h)

	_, err = GetSlot(tr, "search_history", 0)
	assert.Error(t, err)
}

func TestTrackerIntentsAndEntities(t *testing.T) {
	tr := decodeTracker(t)

	assert.Equal(t, []string{"select", "inform"}, tr.Intents())
	assert.True(t, tr.HasIntent("inform"))
	assert.False(t, tr.HasIntent("greet"))

	assert.Equal(t, []string{"the first", "the third"}, tr.EntityValues("mention"))
	assert.Len(t, tr.Entities("mention", "selection", ""), 1)

	pt := tr.Entities("place_type", "", "")
	require.Len(t, pt, 1)
	assert.False(t, pt[0].Correct())
}

func TestTrackerCountActionInForm(t *testing.T) {
	tr := decodeTracker(t)
	n, err := tr.CountActionInForm("action_ask_search_location")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	tr.ActiveLoop.Name = ""
	_, err = tr.CountActionInForm("action_ask_search_location")
	assert.Error(t, err)
}

func TestTrackerTranscript(t *testing.T) {
	tr := decodeTracker(t)
	assert.Equal(t, []Turn{{FromUser: true, Text: "hello"}, {Text: "hi!"}}, tr.Transcript(0))
	assert.Equal(t, []Turn{{Text: "hi!"}}, tr.Transcript(1))

	msg, ok := tr.LastUserMessage(map[string]bool{"greet": true})
	require.True(t, ok)
	assert.Equal(t, "greet", msg.Intent.Name)
}

func TestHistoryJSON(t *testing.T) {
	b, err := json.Marshal(History{"k1", ""})
	require.NoError(t, err)
	assert.JSONEq(t, `["k1", null]`, string(b))

	assert.Equal(t, History{"b"}, History{"a", "b", "c"}.Without([]int{0, 2}))
}
