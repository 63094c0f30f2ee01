// Package search runs the Places queries behind the search and booking actions.
package search

import (
	"context"
	"strings"

	"github.com/placefinder/server/internal/agent/metrics"
	"github.com/placefinder/server/internal/agent/model"
	logx "github.com/placefinder/server/pkg/logger"
	"github.com/placefinder/server/pkg/places"
)

// maxPageSize is the largest page Text Search returns.
const maxPageSize = 20

var locationFields = []string{
	places.FieldID,
	places.FieldDisplayName,
	places.FieldShortFormattedAddress,
	places.FieldLocation,
	places.FieldViewport,
}

var placeFields = []string{
	places.FieldID,
	places.FieldDisplayName,
	places.FieldPrimaryTypeDisplayName,
	places.FieldShortFormattedAddress,
	places.FieldLocation,
	places.FieldNationalPhoneNumber,
	places.FieldPriceLevel,
	places.FieldRating,
	places.FieldWebsiteURI,
	places.FieldAllowsDogs,
	places.FieldGoodForChildren,
	places.FieldMenuForChildren,
	places.FieldParkingOptions,
	places.FieldPaymentOptions,
	places.FieldOutdoorSeating,
	places.FieldReservable,
	places.FieldRestroom,
	places.FieldServesVegetarianFood,
	places.FieldTakeout,
	places.FieldRegularOpeningHours,
}

// PlacesAPI is the part of the Places client the finder needs.
type PlacesAPI interface {
	SearchText(ctx context.Context, req *places.SearchTextRequest, fields ...string) (*places.SearchTextResponse, error)
	SearchNearby(ctx context.Context, req *places.SearchNearbyRequest, fields ...string) (*places.SearchNearbyResponse, error)
}

type Finder struct {
	api PlacesAPI
	cfg model.SearchConfig
}

func NewFinder(api PlacesAPI, cfg model.SearchConfig) *Finder {
	return &Finder{api: api, cfg: cfg}
}

// FindLocation looks up candidate locations for query. Candidates closer than
// LocationMinDistance to each other are treated as one place and only the one
// with the shortest address is kept.
func (f *Finder) FindLocation(ctx context.Context, query string, bias *places.Place) ([]places.Place, error) {
	req := &places.SearchTextRequest{
		TextQuery:    query,
		PageSize:     5,
		LocationBias: biasArea(bias),
	}
	resp, err := f.api.SearchText(ctx, req, locationFields...)
	metrics.ObserveUpstream(places.ServiceName, err)
	if err != nil {
		return nil, err
	}

	if f.cfg.LocationMinDistance <= 0 {
		return resp.Places, nil
	}
	return dedupe(resp.Places, f.cfg.LocationMinDistance), nil
}

func dedupe(candidates []places.Place, minDistance float64) []places.Place {
	var groups [][]places.Place
	for _, c := range candidates {
		placed := false
		for i, g := range groups {
			if closeToAny(c, g, minDistance) {
				groups[i] = append(g, c)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, []places.Place{c})
		}
	}

	out := make([]places.Place, 0, len(groups))
	for _, g := range groups {
		best := g[0]
		for _, c := range g[1:] {
			if len(c.Address()) < len(best.Address()) {
				best = c
			}
		}
		out = append(out, best)
	}
	return out
}

func closeToAny(p places.Place, group []places.Place, minDistance float64) bool {
	if p.Location == nil {
		return false
	}
	for _, q := range group {
		if q.Location != nil && places.Distance(*p.Location, *q.Location) < minDistance {
			return true
		}
	}
	return false
}

// FindPlaces runs the search described by params, following page tokens until
// MaxResults places are collected or no pages are left.
func (f *Finder) FindPlaces(ctx context.Context, params *model.SearchParameters) ([]places.Place, error) {
	query, includedType := composeQuery(params)
	rank := places.RankRelevance
	if params.Ranking() == model.RankByDistance {
		rank = places.RankDistance
	}

	results := make([]places.Place, 0, f.cfg.MaxResults)
	token := ""
	for len(results) < f.cfg.MaxResults {
		req := &places.SearchTextRequest{
			TextQuery:      query,
			IncludedType:   includedType,
			OpenNow:        params.OpenNow,
			MinRating:      params.MinRating(),
			PriceLevels:    params.PriceLevels(),
			RankPreference: rank,
			PageSize:       min(maxPageSize, f.cfg.MaxResults-len(results)),
			PageToken:      token,
			LocationBias:   biasArea(params.Location),
		}
		resp, err := f.api.SearchText(ctx, req, placeFields...)
		metrics.ObserveUpstream(places.ServiceName, err)
		if err != nil {
			return nil, err
		}

		results = append(results, resp.Places...)
		if resp.NextPageToken == "" || len(resp.Places) == 0 {
			break
		}
		token = resp.NextPageToken
	}

	if len(results) > f.cfg.MaxResults {
		results = results[:f.cfg.MaxResults]
	}
	logx.Debug().
		Str("query", query).
		Str("included_type", includedType).
		Int("results", len(results)).
		Msg("places search done")
	return results, nil
}

// composeQuery builds the text query. The activity only narrows the place type
// when nothing more specific was asked for.
func composeQuery(params *model.SearchParameters) (query, includedType string) {
	var parts []string
	for _, p := range []string{params.PlaceName, params.CuisineType, params.PlaceType} {
		if p != "" {
			parts = append(parts, p)
		}
	}

	if len(parts) == 0 {
		query = "places"
		switch params.Activity {
		case model.ActivityEat:
			includedType = "restaurant"
		case model.ActivityDrink:
			includedType = "bar"
		}
	} else {
		query = strings.Join(parts, " ")
	}

	if params.MealType != "" {
		query += " for " + params.MealType
	}
	return query, includedType
}

// FindParkings returns the closest parking within ParkingMaxDistance metres.
func (f *Finder) FindParkings(ctx context.Context, at places.LatLng) ([]places.Place, error) {
	req := &places.SearchNearbyRequest{
		IncludedPrimaryTypes: []string{"parking"},
		MaxResultCount:       1,
		RankPreference:       places.RankDistance,
		LocationRestriction: places.LocationArea{
			Circle: &places.Circle{Center: at, Radius: f.cfg.ParkingMaxDistance},
		},
	}
	resp, err := f.api.SearchNearby(ctx, req, places.FieldLocation)
	metrics.ObserveUpstream(places.ServiceName, err)
	if err != nil {
		return nil, err
	}
	return resp.Places, nil
}

func biasArea(p *places.Place) *places.LocationArea {
	if p == nil || p.Viewport == nil {
		return nil
	}
	return &places.LocationArea{Rectangle: &places.Rectangle{Low: p.Viewport.Low, High: p.Viewport.High}}
}
