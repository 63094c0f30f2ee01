package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placefinder/server/internal/agent/model"
	"github.com/placefinder/server/pkg/places"
)

type fakePlaces struct {
	text   []*places.SearchTextRequest
	pages  []places.SearchTextResponse
	nearby *places.SearchNearbyRequest
	err    error
}

func (f *fakePlaces) SearchText(_ context.Context, req *places.SearchTextRequest, _ ...string) (*places.SearchTextResponse, error) {
	f.text = append(f.text, req)
	if f.err != nil {
		return nil, f.err
	}
	page := f.pages[0]
	f.pages = f.pages[1:]
	return &page, nil
}

func (f *fakePlaces) SearchNearby(_ context.Context, req *places.SearchNearbyRequest, _ ...string) (*places.SearchNearbyResponse, error) {
	f.nearby = req
	return &places.SearchNearbyResponse{Places: []places.Place{{ID: "parking"}}}, f.err
}

func place(id, addr string, lat, lng float64) places.Place {
	return places.Place{ID: id, ShortFormattedAddress: addr, Location: &places.LatLng{Latitude: lat, Longitude: lng}}
}

func TestFindLocationDedupesCloseCandidates(t *testing.T) {
	api := &fakePlaces{pages: []places.SearchTextResponse{{Places: []places.Place{
		place("a", "Via Cavour 16, Rome", 41.8950, 12.4950),
		place("b", "Via Cavour, Rome", 41.8955, 12.4955),
		place("c", "Via Cavour, Florence", 43.7770, 11.2550),
	}}}}
	f := NewFinder(api, model.SearchConfig{LocationMinDistance: 1000})

	bias := &places.Place{Viewport: &places.Viewport{High: places.LatLng{Latitude: 1, Longitude: 1}}}
	got, err := f.FindLocation(context.Background(), "via cavour", bias)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "c", got[1].ID)

	req := api.text[0]
	assert.Equal(t, 5, req.PageSize)
	require.NotNil(t, req.LocationBias)
	assert.Equal(t, 1.0, req.LocationBias.Rectangle.High.Latitude)
}

func TestFindPlacesPagesUntilMax(t *testing.T) {
	api := &fakePlaces{pages: []places.SearchTextResponse{
		{Places: make([]places.Place, 4), NextPageToken: "p2"},
		{Places: make([]places.Place, 2)},
	}}
	f := NewFinder(api, model.SearchConfig{MaxResults: 6})

	params := &model.SearchParameters{
		Location:   &places.Place{},
		PlaceType:  "pizzeria",
		OpenNow:    true,
		Quality:    model.QualityExcellent,
		PriceRange: model.PriceRangeExpensive,
		RankBy:     model.RankByDistance,
	}
	got, err := f.FindPlaces(context.Background(), params)
	require.NoError(t, err)
	assert.Len(t, got, 6)

	require.Len(t, api.text, 2)
	first, second := api.text[0], api.text[1]
	assert.Equal(t, "pizzeria", first.TextQuery)
	assert.Empty(t, first.IncludedType)
	assert.Equal(t, 6, first.PageSize)
	assert.Empty(t, first.PageToken)
	assert.True(t, first.OpenNow)
	assert.Equal(t, 4.5, first.MinRating)
	assert.Equal(t, places.RankDistance, first.RankPreference)
	assert.Len(t, first.PriceLevels, 2)
	assert.Equal(t, 2, second.PageSize)
	assert.Equal(t, "p2", second.PageToken)
}

func TestFindPlacesUpstreamError(t *testing.T) {
	api := &fakePlaces{err: errors.New("boom")}
	f := NewFinder(api, model.SearchConfig{MaxResults: 5})
	_, err := f.FindPlaces(context.Background(), &model.SearchParameters{})
	assert.Error(t, err)
}

func TestComposeQuery(t *testing.T) {
	cases := []struct {
		params   model.SearchParameters
		query    string
		included string
	}{
		{model.SearchParameters{Activity: model.ActivityEat}, "places", "restaurant"},
		{model.SearchParameters{Activity: model.ActivityDrink, MealType: "lunch"}, "places for lunch", "bar"},
		{model.SearchParameters{Activity: model.ActivityEat, CuisineType: "thai", PlaceType: "restaurant"}, "thai restaurant", ""},
		{model.SearchParameters{PlaceName: "Da Enzo"}, "Da Enzo", ""},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			q, inc := composeQuery(&tc.params)
			assert.Equal(t, tc.query, q)
			assert.Equal(t, tc.included, inc)
		})
	}
}

func TestFindParkings(t *testing.T) {
	api := &fakePlaces{}
	f := NewFinder(api, model.SearchConfig{ParkingMaxDistance: 500})
	got, err := f.FindParkings(context.Background(), places.LatLng{Latitude: 1, Longitude: 2})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, []string{"parking"}, api.nearby.IncludedPrimaryTypes)
	assert.Equal(t, 500.0, api.nearby.LocationRestriction.Circle.Radius)
	assert.Equal(t, 1, api.nearby.MaxResultCount)
}

func TestTitles(t *testing.T) {
	rome := &places.Place{ShortFormattedAddress: "Rome"}
	assert.Equal(t, "search for italian pizzerias for dinner near Rome", SearchTitle(&model.SearchParameters{
		Location: rome, PlaceType: "pizzeria", CuisineType: "italian", MealType: "dinner",
	}))
	assert.Equal(t, "search for places to have a drink near Rome", SearchTitle(&model.SearchParameters{
		Location: rome, Activity: model.ActivityDrink,
	}))
	assert.Equal(t, "search for Da Enzo near Rome", SearchTitle(&model.SearchParameters{
		Location: rome, PlaceName: "Da Enzo", PlaceType: "trattoria",
	}))

	enzo := places.Place{DisplayName: &places.LocalizedText{Text: "Da Enzo"}, ShortFormattedAddress: "Via dei Vascellari 29"}
	assert.Equal(t, "Da Enzo (Via dei Vascellari 29)", PlaceTitle(&enzo))
	assert.Equal(t,
		"reservation for 2 people at Da Enzo on Friday, May 17, 2030 at 08:30 PM",
		BookingTitle(&model.BookingParameters{Place: enzo, NumPeople: 2, Date: time.Date(2030, 5, 17, 20, 30, 0, 0, time.UTC)}),
	)
}
