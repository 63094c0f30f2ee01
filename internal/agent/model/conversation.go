package model

import "strings"

// Turn is one message of the dialogue as seen in the tracker events.
type Turn struct {
	FromUser bool
	Text     string
}

// Transcript extracts the user and bot messages of the tracker, oldest first,
// keeping at most the last maxTurns (all of them when maxTurns <= 0). Events
// before the latest restart or session start are ignored.
func (t *Tracker) Transcript(maxTurns int) []Turn {
	var turns []Turn
	for _, ev := range t.Events {
		switch ev.Event {
		case "restart", "session_started":
			turns = turns[:0]
		case "user", "bot":
			text := strings.TrimSpace(ev.Text)
			if text == "" {
				continue
			}
			turns = append(turns, Turn{FromUser: ev.Event == "user", Text: text})
		}
	}
	if maxTurns > 0 && len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}
