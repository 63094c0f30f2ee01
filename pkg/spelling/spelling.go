// Package spelling corrects user messages with the Bing Spell Check API.
package spelling

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	errx "github.com/placefinder/server/internal/core/error"
)

const ServiceName = "bing-spellcheck"

// Config is bound from BING_SPELLCHECK_KEY, BING_SPELLCHECK_URL and SPELLCHECK_LOCALE.
type Config struct {
	Key     string `envconfig:"BING_SPELLCHECK_KEY"`
	URL     string `envconfig:"BING_SPELLCHECK_URL" default:"https://api.bing.microsoft.com/v7.0/spellcheck"`
	Locale  string `envconfig:"SPELLCHECK_LOCALE" default:"en-US"`
	Timeout int    `envconfig:"SPELLCHECK_TIMEOUT" default:"5"`
}

// Markets accepted by the API in proof mode.
var supportedLocales = map[string]bool{
	"da-DK": true, "de-AT": true, "de-CH": true, "de-DE": true,
	"en-AU": true, "en-CA": true, "en-GB": true, "en-ID": true, "en-IN": true,
	"en-MY": true, "en-NZ": true, "en-PH": true, "en-US": true, "en-ZA": true,
	"es-AR": true, "es-CL": true, "es-ES": true, "es-MX": true, "es-US": true,
	"fi-FI": true, "fr-BE": true, "fr-CA": true, "fr-CH": true, "fr-FR": true,
	"it-IT": true, "ja-JP": true, "ko-KR": true, "nl-BE": true, "nl-NL": true,
	"no-NO": true, "pl-PL": true, "pt-BR": true, "ru-RU": true, "sv-SE": true,
	"tr-TR": true, "zh-CN": true, "zh-HK": true, "zh-TW": true,
}

// Enabled reports whether a key is configured.
func (c Config) Enabled() bool {
	return c.Key != ""
}

type Checker struct {
	http   *http.Client
	url    string
	key    string
	locale string
}

func New(cfg Config) (*Checker, error) {
	return NewWithHTTPClient(cfg, &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second})
}

func NewWithHTTPClient(cfg Config, hc *http.Client) (*Checker, error) {
	if !supportedLocales[cfg.Locale] {
		return nil, fmt.Errorf("spell checking is not available for locale %q", cfg.Locale)
	}
	return &Checker{http: hc, url: cfg.URL, key: cfg.Key, locale: cfg.Locale}, nil
}

type suggestion struct {
	Suggestion string  `json:"suggestion"`
	Score      float64 `json:"score"`
}

type flaggedToken struct {
	Offset      int          `json:"offset"`
	Token       string       `json:"token"`
	Type        string       `json:"type"`
	Suggestions []suggestion `json:"suggestions"`
}

type response struct {
	FlaggedTokens []flaggedToken `json:"flaggedTokens"`
}

// Correct returns text with every flagged token replaced by its best suggestion.
func (c *Checker) Correct(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	endpoint := c.url + "?" + url.Values{"mode": {"proof"}, "mkt": {c.locale}}.Encode()
	form := url.Values{"text": {text}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build spellcheck request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errx.WrapUpstream(ServiceName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", errx.WrapUpstream(ServiceName, &errx.UpstreamError{
			Service: ServiceName,
			Status:  resp.StatusCode,
			Body:    strings.TrimSpace(string(raw)),
		})
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errx.WrapUpstream(ServiceName, fmt.Errorf("decode response: %w", err))
	}
	return apply(text, out.FlaggedTokens), nil
}

// apply rewrites text back to front so earlier offsets stay valid.
func apply(text string, tokens []flaggedToken) string {
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].Offset > tokens[j].Offset })
	for _, tok := range tokens {
		if len(tok.Suggestions) == 0 {
			continue
		}
		end := tok.Offset + len(tok.Token)
		if tok.Offset < 0 || end > len(text) || text[tok.Offset:end] != tok.Token {
			text = strings.Replace(text, tok.Token, tok.Suggestions[0].Suggestion, 1)
			continue
		}
		text = text[:tok.Offset] + tok.Suggestions[0].Suggestion + text[end:]
	}
	return text
}
