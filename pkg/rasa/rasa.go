// Package rasa sends user messages to the REST input channel of a Rasa server.
package rasa

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

const ServiceName = "rasa"

const restWebhookPath = "/webhooks/rest/webhook"

type Config struct {
	URL     string
	Timeout int
}

type Client struct {
	http    *http.Client
	baseURL string
}

func New(cfg Config) *Client {
	return NewWithHTTPClient(cfg, &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second})
}

func NewWithHTTPClient(cfg Config, hc *http.Client) *Client {
	return &Client{http: hc, baseURL: strings.TrimRight(cfg.URL, "/")}
}

// Message is what the REST channel receives.
type Message struct {
	Sender   string         `json:"sender"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Reply is one bot message collected by the REST channel.
type Reply struct {
	RecipientID string         `json:"recipient_id"`
	Text        string         `json:"text,omitempty"`
	Image       string         `json:"image,omitempty"`
	Buttons     []any          `json:"buttons,omitempty"`
	Custom      map[string]any `json:"custom,omitempty"`
}

// Send delivers msg and waits for the replies of the assistant.
func (c *Client) Send(ctx context.Context, msg Message) ([]Reply, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal rasa message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+restWebhookPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build rasa request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

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

	var replies []Reply
	if err := json.NewDecoder(resp.Body).Decode(&replies); err != nil {
		return nil, errx.WrapUpstream(ServiceName, fmt.Errorf("decode response: %w", err))
	}
	return replies, nil
}

// Texts keeps the text of the replies that have one.
func Texts(replies []Reply) []string {
	var out []string
	for _, r := range replies {
		if r.Text != "" {
			out = append(out, r.Text)
		}
	}
	return out
}
