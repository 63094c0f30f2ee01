package locations

import "strings"

var userLocationPhrases = []string{
	"my location",
	"my position",
	"my coordinates",
	"my address",
	"my place",
	"my home",
	"my city",
	"my town",
	"where i am",
	"where i live",
	"where i stay",
	"where i reside",
	"near me",
	"close to me",
	"around me",
}

// IsUserLocation reports whether text refers to where the user is rather than
// naming a place.
func IsUserLocation(text string) bool {
	text = strings.ToLower(text)
	for _, phrase := range userLocationPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
