package model

import "time"

// Event is an event returned to Rasa, serialised as the SDK does.
type Event map[string]any

func SlotSet(name string, value any) Event {
	return Event{"event": "slot", "timestamp": nil, "name": name, "value": value}
}

func FollowupAction(name string) Event {
	return Event{"event": "followup", "timestamp": nil, "name": name}
}

func ActionExecuted(name string) Event {
	return Event{"event": "action", "timestamp": nil, "name": name, "policy": nil, "confidence": nil}
}

func Restarted() Event {
	return Event{"event": "restart", "timestamp": nil}
}

// UserUtteranceReverted undoes the latest user message.
func UserUtteranceReverted() Event {
	return Event{"event": "rewind", "timestamp": nil}
}

func SessionStarted() Event {
	return Event{"event": "session_started", "timestamp": nil}
}

// Name of the event type ("slot", "followup", ...).
func (e Event) Type() string {
	s, _ := e["event"].(string)
	return s
}

// Utterance is one bot message: either free text or a domain response with
// template variables.
type Utterance map[string]any

func TextUtterance(text string) Utterance {
	return Utterance{"text": text}
}

func ResponseUtterance(response string, vars map[string]any) Utterance {
	u := Utterance{"response": response, "template": response}
	for k, v := range vars {
		u[k] = v
	}
	return u
}

// Built-in action names.
const (
	ActionListen          = "action_listen"
	ActionSessionStart    = "action_session_start"
	ActionBack            = "action_back"
	ActionDeactivateLoop  = "action_deactivate_loop"
	ActionDefaultFallback = "action_default_fallback"
	ActionRestart         = "action_restart"
)

// FormatBookingTime renders a booking date the way replies print it.
func FormatBookingTime(t time.Time) string {
	return t.Format("Monday, January 02, 2006 at 03:04 PM")
}
