package search

import (
	"fmt"
	"strings"

	"github.com/placefinder/server/internal/agent/grammar"
	"github.com/placefinder/server/internal/agent/model"
	"github.com/placefinder/server/pkg/places"
)

// SearchTitle describes a search: "search for italian pizzerias for dinner near Rome".
func SearchTitle(p *model.SearchParameters) string {
	near := " near " + p.Location.Address()
	if p.PlaceName != "" {
		return "search for " + p.PlaceName + near
	}

	var what string
	switch {
	case p.PlaceType != "":
		what = grammar.Pluralize(p.PlaceType)
	case p.Activity == model.ActivityEat:
		what = "places to eat"
	case p.Activity == model.ActivityDrink:
		what = "places to have a drink"
	default:
		what = "places to go"
	}

	var b strings.Builder
	b.WriteString("search for ")
	if p.CuisineType != "" {
		b.WriteString(p.CuisineType + " ")
	}
	b.WriteString(what)
	if p.MealType != "" {
		b.WriteString(" for " + p.MealType)
	}
	b.WriteString(near)
	return b.String()
}

// PlaceTitle is "name (address)".
func PlaceTitle(p *places.Place) string {
	return fmt.Sprintf("%s (%s)", p.Name(), p.Address())
}

func BookingTitle(p *model.BookingParameters) string {
	return fmt.Sprintf("reservation for %d people at %s on %s",
		p.NumPeople, p.Place.Name(), model.FormatBookingTime(p.Date))
}
