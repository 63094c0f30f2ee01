package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	errx "github.com/placefinder/server/internal/core/error"
)

const ServiceName = "google-places"

// Config is bound from GOOGLE_MAPS_API_KEY, PLACES_BASE_URL and PLACES_TIMEOUT.
type Config struct {
	APIKey  string `envconfig:"GOOGLE_MAPS_API_KEY"`
	BaseURL string `envconfig:"PLACES_BASE_URL" default:"https://places.googleapis.com/v1"`
	Timeout int    `envconfig:"PLACES_TIMEOUT" default:"10"`
}

// Field names accepted by the field mask, in camelCase as the REST API wants them.
const (
	FieldID                     = "id"
	FieldDisplayName            = "displayName"
	FieldPrimaryType            = "primaryType"
	FieldPrimaryTypeDisplayName = "primaryTypeDisplayName"
	FieldFormattedAddress       = "formattedAddress"
	FieldShortFormattedAddress  = "shortFormattedAddress"
	FieldNationalPhoneNumber    = "nationalPhoneNumber"
	FieldLocation               = "location"
	FieldViewport               = "viewport"
	FieldRating                 = "rating"
	FieldPriceLevel             = "priceLevel"
	FieldWebsiteURI             = "websiteUri"
	FieldAllowsDogs             = "allowsDogs"
	FieldGoodForChildren        = "goodForChildren"
	FieldMenuForChildren        = "menuForChildren"
	FieldOutdoorSeating         = "outdoorSeating"
	FieldReservable             = "reservable"
	FieldRestroom               = "restroom"
	FieldServesVegetarianFood   = "servesVegetarianFood"
	FieldTakeout                = "takeout"
	FieldParkingOptions         = "parkingOptions"
	FieldPaymentOptions         = "paymentOptions"
	FieldRegularOpeningHours    = "regularOpeningHours"
)

type RankPreference string

const (
	RankRelevance RankPreference = "RELEVANCE"
	RankDistance  RankPreference = "DISTANCE"
	RankPopular   RankPreference = "POPULARITY"
)

type Rectangle struct {
	Low  LatLng `json:"low"`
	High LatLng `json:"high"`
}

type Circle struct {
	Center LatLng  `json:"center"`
	Radius float64 `json:"radius"`
}

type LocationArea struct {
	Rectangle *Rectangle `json:"rectangle,omitempty"`
	Circle    *Circle    `json:"circle,omitempty"`
}

type SearchTextRequest struct {
	TextQuery      string         `json:"textQuery"`
	IncludedType   string         `json:"includedType,omitempty"`
	OpenNow        bool           `json:"openNow,omitempty"`
	MinRating      float64        `json:"minRating,omitempty"`
	PriceLevels    []PriceLevel   `json:"priceLevels,omitempty"`
	RankPreference RankPreference `json:"rankPreference,omitempty"`
	PageSize       int            `json:"pageSize,omitempty"`
	PageToken      string         `json:"pageToken,omitempty"`
	LocationBias   *LocationArea  `json:"locationBias,omitempty"`
}

type SearchTextResponse struct {
	Places        []Place `json:"places"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
}

type SearchNearbyRequest struct {
	IncludedTypes        []string       `json:"includedTypes,omitempty"`
	IncludedPrimaryTypes []string       `json:"includedPrimaryTypes,omitempty"`
	MaxResultCount       int            `json:"maxResultCount,omitempty"`
	RankPreference       RankPreference `json:"rankPreference,omitempty"`
	LocationRestriction  LocationArea   `json:"locationRestriction"`
}

type SearchNearbyResponse struct {
	Places []Place `json:"places"`
}

type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

func New(cfg Config) *Client {
	return NewWithHTTPClient(cfg, &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second})
}

func NewWithHTTPClient(cfg Config, hc *http.Client) *Client {
	return &Client{
		http:    hc,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
	}
}

// SearchText runs a Text Search (New) returning only the given place fields.
func (c *Client) SearchText(ctx context.Context, req *SearchTextRequest, fields ...string) (*SearchTextResponse, error) {
	var out SearchTextResponse
	mask := fieldMask(fields)
	if mask != "" {
		mask += ",nextPageToken"
	}
	if err := c.post(ctx, "/places:searchText", mask, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchNearby runs a Nearby Search (New) returning only the given place fields.
func (c *Client) SearchNearby(ctx context.Context, req *SearchNearbyRequest, fields ...string) (*SearchNearbyResponse, error) {
	var out SearchNearbyResponse
	if err := c.post(ctx, "/places:searchNearby", fieldMask(fields), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func fieldMask(fields []string) string {
	if len(fields) == 0 {
		return "*"
	}
	mask := make([]string, len(fields))
	for i, f := range fields {
		mask[i] = "places." + f
	}
	return strings.Join(mask, ",")
}

func (c *Client) post(ctx context.Context, path, mask string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal places request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build places request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", mask)

	resp, err := c.http.Do(req)
	if err != nil {
		return errx.WrapUpstream(ServiceName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errx.WrapUpstream(ServiceName, &errx.UpstreamError{
			Service: ServiceName,
			Status:  resp.StatusCode,
			Body:    strings.TrimSpace(string(raw)),
		})
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errx.WrapUpstream(ServiceName, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
