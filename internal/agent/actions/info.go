package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/placefinder/server/internal/agent/grammar"
	"github.com/placefinder/server/internal/agent/model"
	"github.com/placefinder/server/pkg/duckling"
	"github.com/placefinder/server/pkg/places"
)

// infoFunc phrases one piece of information about a place. name is the
// place name when it should be spelled out and "" when a pronoun will do.
type infoFunc func(ctx context.Context, a *Actions, p *places.Place, name string, msg *model.Message) (string, error)

var animalsInfo = flagInfo(func(p *places.Place) *bool { return p.AllowsDogs },
	"animals are allowed at %s",
	"unfortunately, %s doesn't allow animals",
	"unfortunately, I couldn't find any information about whether %s allows animals")
var outdoorSeatingInfo = flagInfo(func(p *places.Place) *bool { return p.OutdoorSeating },
	"%s offers outdoor seating",
	"%s doesn't have any outdoor seating",
	"unfortunately, I couldn't find any information about whether %s offers outdoor seating")
var reservableInfo = flagInfo(func(p *places.Place) *bool { return p.Reservable },
	"%s accepts reservations",
	"unfortunately, %s doesn't accept reservations",
	"unfortunately, I couldn't find any information about whether %s can be reserved")
var restroomInfo = flagInfo(func(p *places.Place) *bool { return p.Restroom },
	"%s has a restroom",
	"%s doesn't have a restroom",
	"unfortunately, %s doesn't declare whether it has a restroom")
var vegetarianInfo = flagInfo(func(p *places.Place) *bool { return p.ServesVegetarianFood },
	"%s serves vegetarian food",
	"%s doesn't have any vegetarian options",
	"unfortunately, %s doesn't provide any information about the vegetarian options it offers")
var takeoutInfo = flagInfo(func(p *places.Place) *bool { return p.Takeout },
	"%s offers takeout",
	"%s doesn't offer takeout",
	"unfortunately, I couldn't find any information about whether %s offers takeout")

var infoByIntent = map[string]infoFunc{
	"ask_address":           addressInfo,
	"ask_contact":           contactInfo,
	"ask_price_level":       priceLevelInfo,
	"ask_rating":            ratingInfo,
	"ask_website":           websiteInfo,
	"ask_allows_animals":    animalsInfo,
	"ask_good_for_children": childrenInfo,
	"ask_parking_options":   parkingInfo,
	"ask_payment_options":   paymentInfo,
	"ask_outdoor_seating":   outdoorSeatingInfo,
	"ask_reservable":        reservableInfo,
	"ask_restroom":          restroomInfo,
	"ask_vegetarian":        vegetarianInfo,
	"ask_takeout":           takeoutInfo,
	"ask_opening_hours":     openingHoursInfo,
}

func infoIntents() map[string]bool {
	m := make(map[string]bool, len(infoByIntent))
	for intent := range infoByIntent {
		m[intent] = true
	}
	return m
}

// retrievePlaceInfo answers questions about the selected results. The
// question is taken from the most recent user message asking for info.
func (a *Actions) retrievePlaceInfo(ctx context.Context, d *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	msg, ok := t.LastUserMessage(infoIntents())
	if !ok {
		return nil, errors.New("no user message asks for place information")
	}
	var asked []string
	for _, intent := range strings.Split(msg.Intent.Name, "+") {
		if _, ok := infoByIntent[intent]; ok {
			asked = append(asked, intent)
		}
	}

	_, s, err := a.currentSearch(ctx, t)
	if err != nil {
		return nil, err
	}
	selected, err := selection(t, slotSelectedResults)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	for _, i := range selected {
		if i < 0 || i >= len(s.Results) {
			return nil, fmt.Errorf("slot %s selects %d out of %d results", slotSelectedResults, i, len(s.Results))
		}
		place := &s.Results[i]

		parts := make([]string, 0, len(asked))
		for n, intent := range asked {
			name := ""
			if n == 0 {
				name = place.Name()
			}
			part, err := infoByIntent[intent](ctx, a, place, name, msg)
			if err != nil {
				return nil, err
			}
			parts = append(parts, part)
		}

		if len(selected) > 1 {
			b.WriteString("- ")
		}
		b.WriteString(grammar.Join(parts, ", ", "and"))
		b.WriteString("\n")
	}
	d.Utter(b.String())

	if len(selected) == 1 && boolSlot(t, slotSuggestBooking) {
		if reservable, _ := places.Bool(s.Results[selected[0]].Reservable); reservable {
			return []model.Event{model.FollowupAction("action_suggest_booking")}, nil
		}
	}
	return nil, nil
}

func subject(name string) string {
	if name == "" {
		return "it"
	}
	return name
}

func addressInfo(_ context.Context, _ *Actions, p *places.Place, name string, _ *model.Message) (string, error) {
	if name == "" {
		return "its address is " + p.Address(), nil
	}
	return fmt.Sprintf("the address of %s is %s", name, p.Address()), nil
}

func contactInfo(_ context.Context, _ *Actions, p *places.Place, name string, _ *model.Message) (string, error) {
	if p.NationalPhoneNumber == "" {
		return "unfortunately, I couldn't find a contact number for " + subject(name), nil
	}
	return fmt.Sprintf("you can contact %s at %s", subject(name), p.NationalPhoneNumber), nil
}

func priceLevelInfo(_ context.Context, _ *Actions, p *places.Place, name string, _ *model.Message) (string, error) {
	who := subject(name)
	switch p.PriceLevel {
	case places.PriceLevelFree:
		return who + " is free", nil
	case places.PriceLevelInexpensive:
		return who + " is cheap", nil
	case places.PriceLevelModerate:
		return who + " is moderately priced", nil
	case places.PriceLevelExpensive:
		return who + " is expensive", nil
	case places.PriceLevelVeryExpensive:
		return who + " is very expensive", nil
	default:
		return "unfortunately, I couldn't find a price level for " + who, nil
	}
}

func ratingInfo(_ context.Context, _ *Actions, p *places.Place, name string, _ *model.Message) (string, error) {
	if p.Rating == nil {
		return "unfortunately, I couldn't find a rating for " + subject(name), nil
	}
	return fmt.Sprintf("%s has a rating of %.1f out of 5", subject(name), *p.Rating), nil
}

func websiteInfo(_ context.Context, _ *Actions, p *places.Place, name string, _ *model.Message) (string, error) {
	if p.WebsiteURI == "" {
		return "unfortunately, I couldn't find a website for " + subject(name), nil
	}
	owner := "its"
	if name != "" {
		owner = name + "'s"
	}
	return fmt.Sprintf("you can visit %s website at %s", owner, p.WebsiteURI), nil
}

// flagInfo phrases a yes/no attribute. Each format takes the subject once.
func flagInfo(flag func(*places.Place) *bool, yes, no, unknown string) infoFunc {
	return func(_ context.Context, _ *Actions, p *places.Place, name string, _ *model.Message) (string, error) {
		v, ok := places.Bool(flag(p))
		switch {
		case !ok:
			return fmt.Sprintf(unknown, subject(name)), nil
		case v:
			return fmt.Sprintf(yes, subject(name)), nil
		default:
			return fmt.Sprintf(no, subject(name)), nil
		}
	}
}

func childrenInfo(_ context.Context, _ *Actions, p *places.Place, name string, _ *model.Message) (string, error) {
	who := subject(name)
	good, goodKnown := places.Bool(p.GoodForChildren)
	menu, menuKnown := places.Bool(p.MenuForChildren)
	switch {
	case good && menu:
		return who + " is good for children and it even offers a dedicated menu for them", nil
	case good:
		return who + " is good for children", nil
	case menu:
		return who + " offers a dedicated menu for children", nil
	case goodKnown || menuKnown:
		return "it seems that " + who + " is not ideal for children", nil
	default:
		return "unfortunately, I couldn't find any information about whether " + who + " is ideal for children", nil
	}
}

func parkingInfo(ctx context.Context, a *Actions, p *places.Place, name string, _ *model.Message) (string, error) {
	who := subject(name)
	unknown := "unfortunately, I couldn't find any information about the parking options near " + who
	o := p.ParkingOptions
	switch {
	case o == nil:
		return unknown, nil
	case isTrue(o.FreeGarageParking), isTrue(o.FreeParkingLot):
		return who + " provides free parking to its customers", nil
	case isTrue(o.FreeStreetParking):
		return "you can park for free on the street near " + who, nil
	case isTrue(o.PaidGarageParking), isTrue(o.PaidParkingLot):
		return who + " provides paid parking to its customers", nil
	case isTrue(o.PaidStreetParking):
		return "you can park for a fee on the street near " + who, nil
	}

	if p.Location == nil {
		return unknown, nil
	}
	parkings, err := a.finder.FindParkings(ctx, *p.Location)
	if err != nil {
		return "", err
	}
	if len(parkings) == 0 || parkings[0].Location == nil {
		return "there are no parking options near " + who, nil
	}
	meters := places.Distance(*p.Location, *parkings[0].Location)
	return fmt.Sprintf("the nearest parking option is %.0f meters away from %s", meters, who), nil
}

func isTrue(v *bool) bool {
	b, _ := places.Bool(v)
	return b
}

func paymentInfo(_ context.Context, _ *Actions, p *places.Place, name string, _ *model.Message) (string, error) {
	who := subject(name)
	if p.PaymentOptions == nil {
		return "unfortunately, I couldn't find any information about the payment options " + who + " accepts", nil
	}
	if cashOnly, _ := places.Bool(p.PaymentOptions.AcceptsCashOnly); cashOnly {
		return who + " only accepts cash", nil
	}
	return "you can pay both in cash and with a card at " + who, nil
}

// weekdays lists days Monday first, the order schedules are read out in.
var weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

func openingHoursInfo(ctx context.Context, a *Actions, p *places.Place, name string, msg *model.Message) (string, error) {
	who := subject(name)
	if p.RegularOpeningHours == nil || len(p.RegularOpeningHours.Periods) == 0 {
		return "unfortunately, it seems that " + who + " doesn't provide any information about its opening hours", nil
	}

	var times []duckling.Time
	for _, e := range msg.Entities {
		if e.Entity != "datetime" {
			continue
		}
		parsed, err := a.parseTimes(ctx, e.Text())
		if err != nil {
			return "", err
		}
		times = append(times, parsed...)
	}

	week := p.RegularOpeningHours.Week()
	if len(times) == 0 {
		return weekSchedule(week, who), nil
	}

	now := a.now()
	lines := make([]string, 0, len(times))
	for _, tm := range times {
		var start time.Time
		var end *time.Time
		var grain duckling.Grain
		switch v := tm.(type) {
		case duckling.Instant:
			start, grain = v.Value, v.Grain
		case duckling.Interval:
			start, grain = v.Start.Value, v.Start.Grain
			if v.End != nil {
				end = &v.End.Value
			}
		}

		var line string
		switch {
		case !fineGrain(grain):
			if grain != duckling.GrainDay {
				line = weekSchedule(week, who)
				break
			}
			last := start
			if end != nil {
				last = *end
			}
			var days []string
			for day := start; !afterDay(day, last) && len(days) < 7; day = day.AddDate(0, 0, 1) {
				days = append(days, daySchedule(week, day.Weekday(), who))
				who = "it"
			}
			line = strings.Join(days, "\n")
		case end == nil:
			open, _ := p.IsOpenAt(start)
			line = openAt(now, start, who, open)
		default:
			line = openBetween(now, start, *end, who, clip(week[start.Weekday()], places.ClockOf(start), places.ClockOf(*end)))
		}
		lines = append(lines, strings.Trim(line, "\n"))
		who = "it"
	}
	return strings.Join(lines, "\n"), nil
}

func fineGrain(g duckling.Grain) bool {
	return g == duckling.GrainSecond || g == duckling.GrainMinute || g == duckling.GrainHour
}

// afterDay reports whether a falls on a later calendar day than b.
func afterDay(a, b time.Time) bool {
	ya, ma, da := a.Date()
	yb, mb, db := b.Date()
	return time.Date(ya, ma, da, 0, 0, 0, 0, time.UTC).After(time.Date(yb, mb, db, 0, 0, 0, 0, time.UTC))
}

func weekSchedule(week [7][]places.Span, who string) string {
	lines := make([]string, 0, len(weekdays))
	for _, wd := range weekdays {
		lines = append(lines, daySchedule(week, wd, who))
		who = "it"
	}
	return strings.Join(lines, "\n")
}

// daySchedule reads out one weekday: "on Monday, it is open from 09:00 AM to 01:00 PM".
func daySchedule(week [7][]places.Span, wd time.Weekday, who string) string {
	spans := week[wd]
	if len(spans) == 0 {
		return fmt.Sprintf("on %s, %s is closed", wd, who)
	}
	parts := make([]string, len(spans))
	for i, s := range spans {
		parts[i] = s.String()
	}
	return fmt.Sprintf("on %s, %s is open %s", wd, who, grammar.Join(parts, ", ", "and"))
}

const spokenDate = "Monday 02 January 2006"

func openAt(now, at time.Time, who string, open bool) string {
	state := "closed"
	if open {
		state = "open"
	}
	clock := places.ClockOf(at)
	switch {
	case sameDay(now, at) && now.Hour() == at.Hour():
		return fmt.Sprintf("right now, %s is %s", who, state)
	case sameDay(now, at) && now.Before(at):
		return fmt.Sprintf("today at %s, %s will be %s", clock, who, state)
	case sameDay(now, at):
		return fmt.Sprintf("today at %s, %s was %s", clock, who, state)
	case now.Before(at):
		return fmt.Sprintf("on %s, %s will be %s", at.Format(spokenDate), who, state)
	default:
		return fmt.Sprintf("on %s, %s was %s", at.Format(spokenDate), who, state)
	}
}

func openBetween(now, start, end time.Time, who string, open []places.Span) string {
	var when, verb string
	switch {
	case sameDay(now, start):
		when, verb = "today", "is"
	case now.Before(start):
		when, verb = "on "+start.Format(spokenDate), "will be"
	default:
		when, verb = "on "+start.Format(spokenDate), "was"
	}

	if len(open) == 0 {
		return fmt.Sprintf("%s, %s %s closed from %s to %s", when, who, verb, places.ClockOf(start), places.ClockOf(end))
	}
	parts := make([]string, len(open))
	for i, s := range open {
		parts[i] = fmt.Sprintf("%s to %s", s.Start, s.End)
	}
	return fmt.Sprintf("%s, %s %s open from %s", when, who, verb, grammar.Join(parts, ", ", "and"))
}

// clip intersects the day's spans with [from, to]. Every returned span has
// both ends set.
func clip(spans []places.Span, from, to places.Clock) []places.Span {
	var out []places.Span
	for _, s := range spans {
		lo, hi := from, to
		if s.Start != nil {
			lo = max(lo, *s.Start)
		}
		if s.End != nil {
			hi = min(hi, *s.End)
		}
		if lo > hi {
			continue
		}
		out = append(out, places.Span{Start: &lo, End: &hi})
	}
	return out
}
