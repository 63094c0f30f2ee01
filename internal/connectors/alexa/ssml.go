package alexa

import (
	"strings"
	"unicode"
)

const pause = "<break time='500ms'/>"

// ToSSML renders the assistant reply for speech. Bullet lines become
// sentences of the current paragraph, numbered lines get a pause after the
// number and every other line starts a new paragraph.
func ToSSML(message string) string {
	var b strings.Builder
	b.WriteString("<speak>")

	first := true
	for _, line := range strings.Split(message, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "-"):
			if first {
				b.WriteString("<p>")
			} else {
				b.WriteString(pause)
			}
			b.WriteString("<s>" + line + "</s>")
		case isNumbered(line):
			if first {
				b.WriteString("<p>")
			} else {
				b.WriteString(pause)
			}
			number, text, _ := strings.Cut(line, ".")
			b.WriteString("<s>" + number + "." + pause + text + "</s>")
		default:
			if !first {
				b.WriteString("</p>")
			}
			b.WriteString("<p><s>" + line + "</s>")
		}
		first = false
	}
	if !first {
		b.WriteString("</p>")
	}
	b.WriteString("</speak>")

	return strings.ReplaceAll(stripControl(b.String()), "&", "and")
}

// isNumbered matches "12. text".
func isNumbered(line string) bool {
	digits := strings.IndexFunc(line, func(r rune) bool { return !unicode.IsDigit(r) })
	return digits > 0 && line[digits] == '.'
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0 && r < 32 {
			return -1
		}
		return r
	}, s)
}
