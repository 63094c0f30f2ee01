package model

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/placefinder/server/pkg/places"
)

type Activity string

const (
	ActivityEat   Activity = "eat"
	ActivityDrink Activity = "drink"
)

type PriceRange string

const (
	PriceRangeAny         PriceRange = "any"
	PriceRangeInexpensive PriceRange = "inexpensive"
	PriceRangeModerate    PriceRange = "moderate"
	PriceRangeExpensive   PriceRange = "expensive"
)

type Quality string

const (
	QualityAny       Quality = "any"
	QualityModerate  Quality = "moderate"
	QualityExcellent Quality = "excellent"
)

type RankBy string

const (
	RankByRelevance RankBy = "relevance"
	RankByDistance  RankBy = "distance"
)

// SearchParameters is what the search form collected.
type SearchParameters struct {
	Location    *places.Place `json:"location"`
	PlaceType   string        `json:"place_type,omitempty"`
	PlaceName   string        `json:"place_name,omitempty"`
	OpenNow     bool          `json:"open_now,omitempty"`
	MealType    string        `json:"meal_type,omitempty"`
	CuisineType string        `json:"cuisine_type,omitempty"`
	Activity    Activity      `json:"activity,omitempty"`
	PriceRange  PriceRange    `json:"price_range,omitempty"`
	Quality     Quality       `json:"quality,omitempty"`
	RankBy      RankBy        `json:"rank_by,omitempty"`
}

// PriceLevels maps the price range onto Places price levels; nil means no filter.
func (p *SearchParameters) PriceLevels() []places.PriceLevel {
	switch p.PriceRange {
	case PriceRangeExpensive:
		return []places.PriceLevel{places.PriceLevelExpensive, places.PriceLevelVeryExpensive}
	case PriceRangeModerate:
		return []places.PriceLevel{places.PriceLevelModerate}
	case PriceRangeInexpensive:
		return []places.PriceLevel{places.PriceLevelInexpensive}
	default:
		return nil
	}
}

// MinRating maps the requested quality onto a minimum rating; 0 means no filter.
func (p *SearchParameters) MinRating() float64 {
	switch p.Quality {
	case QualityExcellent:
		return 4.5
	case QualityModerate:
		return 3.5
	default:
		return 0
	}
}

// Ranking defaults to relevance.
func (p *SearchParameters) Ranking() RankBy {
	if p.RankBy == "" {
		return RankByRelevance
	}
	return p.RankBy
}

// SearchData is a stored search. Results is nil until the search first runs.
type SearchData struct {
	Parameters SearchParameters `json:"parameters"`
	Results    []places.Place   `json:"results"`
}

type BookingParameters struct {
	Place     places.Place `json:"place"`
	Date      time.Time    `json:"date"`
	NumPeople int          `json:"num_people"`
	Author    string       `json:"author"`
}

type BookingData struct {
	Parameters BookingParameters `json:"parameters"`
}

// History is the ordered list of store keys kept in a history slot. An empty
// key marks an item that is still being created and is stored as JSON null.
type History []string

func (h History) MarshalJSON() ([]byte, error) {
	raw := make([]*string, len(h))
	for i := range h {
		if h[i] != "" {
			raw[i] = &h[i]
		}
	}
	return json.Marshal(raw)
}

func (h *History) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*h = nil
		return nil
	}
	var raw []*string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(History, len(raw))
	for i, k := range raw {
		if k != nil {
			out[i] = *k
		}
	}
	*h = out
	return nil
}

// Without returns a copy of h minus the given positions.
func (h History) Without(indices []int) History {
	drop := make(map[int]bool, len(indices))
	for _, i := range indices {
		drop[i] = true
	}
	out := make(History, 0, len(h))
	for i, k := range h {
		if !drop[i] {
			out = append(out, k)
		}
	}
	return out
}

// LocationIssue records why a location could not be pinned down.
type LocationIssue struct {
	Reason string `json:"reason"`
	Query  string `json:"query,omitempty"`
}

const (
	LocationAmbiguous           = "ambiguous"
	LocationNotFound            = "not_found"
	LocationUnknownUserLocation = "unknown_user_location"
)

// BookingTimeLayout is how booking_datetime is stored in its slot.
const BookingTimeLayout = "2006-01-02T15:04:05"
