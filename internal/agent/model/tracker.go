package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ActionCall is the body Rasa posts to the action server webhook.
type ActionCall struct {
	NextAction string         `json:"next_action"`
	SenderID   string         `json:"sender_id"`
	Tracker    Tracker        `json:"tracker"`
	Domain     map[string]any `json:"domain"`
	Version    string         `json:"version"`
}

// ActionResult is the webhook reply: events to apply and messages to send.
type ActionResult struct {
	Events    []Event     `json:"events"`
	Responses []Utterance `json:"responses"`
}

type Tracker struct {
	SenderID         string                     `json:"sender_id"`
	Slots            map[string]json.RawMessage `json:"slots"`
	LatestMessage    Message                    `json:"latest_message"`
	Events           []TrackerEvent             `json:"events"`
	ActiveLoop       ActiveLoop                 `json:"active_loop"`
	LatestActionName string                     `json:"latest_action_name,omitempty"`
	Paused           bool                       `json:"paused"`
}

type ActiveLoop struct {
	Name string `json:"name,omitempty"`
}

type Message struct {
	Text     string         `json:"text"`
	Intent   Intent         `json:"intent"`
	Entities []Entity       `json:"entities"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type Intent struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

type Entity struct {
	Entity    string `json:"entity"`
	Value     any    `json:"value"`
	Role      string `json:"role,omitempty"`
	Group     string `json:"group,omitempty"`
	Start     int    `json:"start,omitempty"`
	End       int    `json:"end,omitempty"`
	Extractor string `json:"extractor,omitempty"`
	// IsCorrect is set by the NLU pipeline when it validated the value.
	IsCorrect *bool `json:"is_correct,omitempty"`
}

// Text returns the entity value as a string.
func (e Entity) Text() string {
	if s, ok := e.Value.(string); ok {
		return s
	}
	if e.Value == nil {
		return ""
	}
	return fmt.Sprint(e.Value)
}

// Correct is false only when the pipeline flagged the value as wrong.
func (e Entity) Correct() bool {
	return e.IsCorrect == nil || *e.IsCorrect
}

type TrackerEvent struct {
	Event     string          `json:"event"`
	Name      string          `json:"name,omitempty"`
	Text      string          `json:"text,omitempty"`
	ParseData *Message        `json:"parse_data,omitempty"`
	// Value is the new value of a "slot" event.
	Value     json.RawMessage `json:"value,omitempty"`
	Timestamp float64         `json:"timestamp,omitempty"`
}

// FormActive reports whether a form (loop) is running.
func (t *Tracker) FormActive() bool {
	return t.ActiveLoop.Name != ""
}

// HasSlot reports whether the slot is set to a non-null value.
func (t *Tracker) HasSlot(name string) bool {
	raw, ok := t.Slots[name]
	return ok && !isNull(raw)
}

// Slot decodes the slot into dst. It returns false, leaving dst untouched, when
// the slot is unset or null.
func (t *Tracker) Slot(name string, dst any) (bool, error) {
	raw, ok := t.Slots[name]
	if !ok || isNull(raw) {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode slot %s: %w", name, err)
	}
	return true, nil
}

// GetSlot returns the decoded slot value or def when it is unset.
func GetSlot[T any](t *Tracker, name string, def T) (T, error) {
	var v T
	ok, err := t.Slot(name, &v)
	if err != nil || !ok {
		return def, err
	}
	return v, nil
}

// RawSlot returns the slot as generic JSON, nil when unset.
func (t *Tracker) RawSlot(name string) any {
	var v any
	if ok, err := t.Slot(name, &v); err != nil || !ok {
		return nil
	}
	return v
}

func isNull(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}

// Intents splits the latest intent name, "inform+affirm" being two intents.
func (t *Tracker) Intents() []string {
	return splitIntents(t.LatestMessage.Intent.Name)
}

// HasIntent reports whether one of the latest intents equals name.
func (t *Tracker) HasIntent(name string) bool {
	for _, i := range t.Intents() {
		if i == name {
			return true
		}
	}
	return false
}

func splitIntents(name string) []string {
	if name == "" {
		return nil
	}
	return strings.Split(name, "+")
}

// Entities returns the latest message entities of the given type. Empty role
// or group match anything.
func (t *Tracker) Entities(kind, role, group string) []Entity {
	var out []Entity
	for _, e := range t.LatestMessage.Entities {
		if e.Entity != kind {
			continue
		}
		if role != "" && e.Role != role {
			continue
		}
		if group != "" && e.Group != group {
			continue
		}
		out = append(out, e)
	}
	return out
}

// EntityValues is Entities reduced to their text values.
func (t *Tracker) EntityValues(kind string) []string {
	entities := t.Entities(kind, "", "")
	out := make([]string, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.Text())
	}
	return out
}

// LastUserMessage finds the most recent user event whose intents intersect
// wanted and returns its parse data.
func (t *Tracker) LastUserMessage(wanted map[string]bool) (*Message, bool) {
	for i := len(t.Events) - 1; i >= 0; i-- {
		ev := t.Events[i]
		if ev.Event != "user" || ev.ParseData == nil {
			continue
		}
		for _, intent := range splitIntents(ev.ParseData.Intent.Name) {
			if wanted[intent] {
				return ev.ParseData, true
			}
		}
	}
	return nil, false
}

// CountActionInForm counts executions of action since the active form started.
func (t *Tracker) CountActionInForm(action string) (int, error) {
	if !t.FormActive() {
		return 0, fmt.Errorf("count %s: no form is active", action)
	}
	n := 0
	for i := len(t.Events) - 1; i >= 0; i-- {
		ev := t.Events[i]
		if ev.Event != "action" {
			continue
		}
		if ev.Name == t.ActiveLoop.Name {
			break
		}
		if ev.Name == action {
			n++
		}
	}
	return n, nil
}

// SlotsSetSinceUserTurn lists, in order, the slots changed by events after the
// latest user message.
func (t *Tracker) SlotsSetSinceUserTurn() []TrackerEvent {
	var out []TrackerEvent
	for i := len(t.Events) - 1; i >= 0; i-- {
		ev := t.Events[i]
		if ev.Event == "user" {
			break
		}
		if ev.Event == "slot" {
			out = append(out, ev)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
