// Package duckling talks to a Duckling server to extract numbers, ordinals and
// times from free text.
package duckling

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	errx "github.com/placefinder/server/internal/core/error"
)

const ServiceName = "duckling"

// Config is bound from DUCKLING_URL, DUCKLING_LOCALE and DUCKLING_TIMEOUT.
type Config struct {
	URL     string `envconfig:"DUCKLING_URL" default:"http://localhost:8000/parse"`
	Locale  string `envconfig:"DUCKLING_LOCALE" default:"en_US"`
	Timeout int    `envconfig:"DUCKLING_TIMEOUT" default:"5"`
}

type Dimension string

const (
	DimNumber  Dimension = "number"
	DimOrdinal Dimension = "ordinal"
	DimTime    Dimension = "time"
)

type Grain string

const (
	GrainSecond Grain = "second"
	GrainMinute Grain = "minute"
	GrainHour   Grain = "hour"
	GrainDay    Grain = "day"
	GrainWeek   Grain = "week"
	GrainMonth  Grain = "month"
	GrainYear   Grain = "year"
)

// Time is either an Instant or an Interval.
type Time interface {
	isTime()
}

// Instant is a point in time with the precision Duckling inferred for it.
type Instant struct {
	Value time.Time
	Grain Grain
}

// Interval has an optional end: "from 8pm" yields an open interval.
type Interval struct {
	Start Instant
	End   *Instant
}

func (Instant) isTime()  {}
func (Interval) isTime() {}

type Client struct {
	http   *http.Client
	url    string
	locale string
}

func New(cfg Config) *Client {
	return NewWithHTTPClient(cfg, &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second})
}

func NewWithHTTPClient(cfg Config, hc *http.Client) *Client {
	return &Client{http: hc, url: cfg.URL, locale: cfg.Locale}
}

type entity struct {
	Body  string          `json:"body"`
	Dim   Dimension       `json:"dim"`
	Value json.RawMessage `json:"value"`
}

type valuePayload struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
	Grain Grain           `json:"grain"`
	From  *valuePayload   `json:"from"`
	To    *valuePayload   `json:"to"`
}

// parse returns the raw entities of the requested dimensions.
func (c *Client) parse(ctx context.Context, text string, dims ...Dimension) ([]entity, error) {
	dimsJSON, err := json.Marshal(dims)
	if err != nil {
		return nil, err
	}
	form := url.Values{
		"text":   {text},
		"locale": {c.locale},
		"dims":   {string(dimsJSON)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build duckling request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errx.WrapUpstream(ServiceName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, errx.WrapUpstream(ServiceName, &errx.UpstreamError{
			Service: ServiceName,
			Status:  resp.StatusCode,
			Body:    strings.TrimSpace(string(raw)),
		})
	}

	var out []entity
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errx.WrapUpstream(ServiceName, fmt.Errorf("decode response: %w", err))
	}
	return out, nil
}

// ParseNumbers extracts cardinal numbers, truncated to integers.
func (c *Client) ParseNumbers(ctx context.Context, text string) ([]int, error) {
	return c.parseInts(ctx, text, DimNumber)
}

// ParseOrdinals extracts ordinals ("third" -> 3).
func (c *Client) ParseOrdinals(ctx context.Context, text string) ([]int, error) {
	return c.parseInts(ctx, text, DimOrdinal)
}

func (c *Client) parseInts(ctx context.Context, text string, dim Dimension) ([]int, error) {
	entities, err := c.parse(ctx, text, dim)
	if err != nil {
		return nil, err
	}
	var out []int
	for _, e := range entities {
		if e.Dim != dim {
			continue
		}
		var v valuePayload
		if err := json.Unmarshal(e.Value, &v); err != nil {
			return nil, fmt.Errorf("decode %s value %q: %w", dim, e.Body, err)
		}
		var n float64
		if err := json.Unmarshal(v.Value, &n); err != nil {
			return nil, fmt.Errorf("decode %s value %q: %w", dim, e.Body, err)
		}
		out = append(out, int(n))
	}
	return out, nil
}

// ParseTimes extracts times. The UTC offset Duckling attaches is dropped and the
// wall clock is kept in the local zone of the server.
func (c *Client) ParseTimes(ctx context.Context, text string) ([]Time, error) {
	entities, err := c.parse(ctx, text, DimTime)
	if err != nil {
		return nil, err
	}
	var out []Time
	for _, e := range entities {
		if e.Dim != DimTime {
			continue
		}
		var v valuePayload
		if err := json.Unmarshal(e.Value, &v); err != nil {
			return nil, fmt.Errorf("decode time value %q: %w", e.Body, err)
		}
		t, err := v.toTime()
		if err != nil {
			return nil, fmt.Errorf("decode time value %q: %w", e.Body, err)
		}
		if t != nil {
			out = append(out, t)
		}
	}
	return out, nil
}

func (v *valuePayload) toTime() (Time, error) {
	switch v.Type {
	case "value":
		return v.instant()
	case "interval":
		var iv Interval
		switch {
		case v.From != nil:
			start, err := v.From.instant()
			if err != nil {
				return nil, err
			}
			iv.Start = start
		case v.To != nil:
			// "until 8pm": no lower bound, treat as a plain instant
			return v.To.instant()
		default:
			return nil, nil
		}
		if v.To != nil {
			end, err := v.To.instant()
			if err != nil {
				return nil, err
			}
			iv.End = &end
		}
		return iv, nil
	default:
		return nil, nil
	}
}

func (v *valuePayload) instant() (Instant, error) {
	var raw string
	if err := json.Unmarshal(v.Value, &raw); err != nil {
		return Instant{}, err
	}
	t, err := ParseTimestamp(raw)
	if err != nil {
		return Instant{}, err
	}
	return Instant{Value: t, Grain: v.Grain}, nil
}

// ParseTimestamp reads a Duckling timestamp ("2024-05-03T20:00:00.000-07:00")
// keeping its wall clock in time.Local.
func ParseTimestamp(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local), nil
}
