package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/placefinder/server/internal/agent/model"
	"github.com/placefinder/server/internal/agent/repo"
	"github.com/placefinder/server/pkg/duckling"
	"github.com/placefinder/server/pkg/places"
)

// now is Friday, May 17 2030 at 10:00.
var now = time.Date(2030, time.May, 17, 10, 0, 0, 0, time.Local)

type fakeFinder struct {
	locations map[string][]places.Place
	results   [][]places.Place
	parkings  []places.Place

	queries  []string
	searches []model.SearchParameters
}

func (f *fakeFinder) FindLocation(_ context.Context, query string, _ *places.Place) ([]places.Place, error) {
	f.queries = append(f.queries, query)
	return f.locations[query], nil
}

// FindPlaces returns the queued result lists in order, repeating the last one.
func (f *fakeFinder) FindPlaces(_ context.Context, params *model.SearchParameters) ([]places.Place, error) {
	f.searches = append(f.searches, *params)
	if len(f.results) == 0 {
		return nil, nil
	}
	out := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	return out, nil
}

func (f *fakeFinder) FindParkings(context.Context, places.LatLng) ([]places.Place, error) {
	return f.parkings, nil
}

type fakeParser struct {
	numbers map[string][]int
	times   map[string][]duckling.Time
}

func (p *fakeParser) ParseNumbers(_ context.Context, text string) ([]int, error) {
	return p.numbers[text], nil
}

func (p *fakeParser) ParseTimes(_ context.Context, text string) ([]duckling.Time, error) {
	return p.times[text], nil
}

type fixture struct {
	actions  *Actions
	registry *Registry
	store    *repo.MemoryStore
	finder   *fakeFinder
	parser   *fakeParser
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  repo.NewMemoryStore(),
		finder: &fakeFinder{locations: map[string][]places.Place{}},
		parser: &fakeParser{numbers: map[string][]int{}, times: map[string][]duckling.Time{}},
	}
	f.actions = New(Deps{
		Store:   f.store,
		Finder:  f.finder,
		Parser:  f.parser,
		Search:  model.SearchConfig{PageSize: 5, MaxResults: 20, LocationMinDistance: 100, ParkingMaxDistance: 500},
		Booking: model.BookingConfig{MaxPeople: 10, MaxDaysAhead: 28},
		Now:     func() time.Time { return now },
	})
	f.registry = f.actions.Registry()
	return f
}

// run executes the action and applies its slot events to tr.
func (f *fixture) run(t *testing.T, action string, tr *model.Tracker) *model.ActionResult {
	t.Helper()
	res, err := f.registry.Run(context.Background(), &model.ActionCall{NextAction: action, SenderID: "tester", Tracker: *tr})
	require.NoError(t, err)
	apply(t, tr, res.Events)
	return res
}

func apply(t *testing.T, tr *model.Tracker, events []model.Event) {
	t.Helper()
	if tr.Slots == nil {
		tr.Slots = map[string]json.RawMessage{}
	}
	for _, ev := range events {
		if ev.Type() != "slot" {
			continue
		}
		raw, err := json.Marshal(ev["value"])
		require.NoError(t, err)
		tr.Slots[ev["name"].(string)] = raw
	}
}

// tracker builds a tracker holding the given slots and latest message.
func tracker(t *testing.T, slots map[string]any, msg model.Message) *model.Tracker {
	t.Helper()
	tr := &model.Tracker{SenderID: "tester", LatestMessage: msg, Slots: map[string]json.RawMessage{}}
	for name, v := range slots {
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		tr.Slots[name] = raw
	}
	return tr
}

func intent(name string, entities ...model.Entity) model.Message {
	return model.Message{Intent: model.Intent{Name: name}, Entities: entities}
}

func entity(kind, value string) model.Entity {
	return model.Entity{Entity: kind, Value: value}
}

func slotOf[T any](t *testing.T, tr *model.Tracker, name string) T {
	t.Helper()
	var zero T
	v, err := model.GetSlot(tr, name, zero)
	require.NoError(t, err)
	return v
}

// texts returns the free text messages of a result.
func texts(res *model.ActionResult) []string {
	var out []string
	for _, u := range res.Responses {
		if s, ok := u["text"].(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// responses returns the domain responses uttered by a result.
func responses(res *model.ActionResult) []string {
	var out []string
	for _, u := range res.Responses {
		if s, ok := u["response"].(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func followups(res *model.ActionResult) []string {
	var out []string
	for _, ev := range res.Events {
		if ev.Type() == "followup" {
			out = append(out, ev["name"].(string))
		}
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}

func place(n int) places.Place {
	return places.Place{
		ID:                    fmt.Sprintf("p%d", n),
		DisplayName:           &places.LocalizedText{Text: fmt.Sprintf("Place %d", n)},
		ShortFormattedAddress: fmt.Sprintf("Street %d", n),
		Location:              &places.LatLng{Latitude: 41.9, Longitude: 12.5},
	}
}

func placeList(n int) []places.Place {
	out := make([]places.Place, n)
	for i := range out {
		out[i] = place(i + 1)
	}
	return out
}

var rome = places.Place{
	ID:                    "rome",
	DisplayName:           &places.LocalizedText{Text: "Rome"},
	ShortFormattedAddress: "Rome, Italy",
	Location:              &places.LatLng{Latitude: 41.89, Longitude: 12.49},
}

// withSearch stores a search and points the tracker history at it.
func (f *fixture) withSearch(t *testing.T, tr *model.Tracker, results []places.Place) string {
	t.Helper()
	key, err := f.store.AddSearch(context.Background(), &model.SearchData{
		Parameters: model.SearchParameters{Location: &rome, PlaceType: "pizzeria"},
		Results:    results,
	})
	require.NoError(t, err)
	apply(t, tr, []model.Event{
		model.SlotSet(slotSearchHistory, model.History{key}),
		model.SlotSet(slotSelectedSearches, []int{0}),
	})
	return key
}
