package rasa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/placefinder/server/internal/core/error"
)

func TestSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/webhooks/rest/webhook", r.URL.Path)

		var msg Message
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		assert.Equal(t, "amzn1.user", msg.Sender)
		assert.Equal(t, "hi", msg.Message)
		assert.Equal(t, "en-US", msg.Metadata["locale"])

		_, _ = w.Write([]byte(`[
			{"recipient_id":"amzn1.user","text":"Hello!"},
			{"recipient_id":"amzn1.user","image":"http://x/y.png"},
			{"recipient_id":"amzn1.user","text":"How can I help?"}
		]`))
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL + "/", Timeout: 5})
	replies, err := c.Send(context.Background(), Message{
		Sender:   "amzn1.user",
		Message:  "hi",
		Metadata: map[string]any{"locale": "en-US"},
	})
	require.NoError(t, err)
	assert.Len(t, replies, 3)
	assert.Equal(t, []string{"Hello!", "How can I help?"}, Texts(replies))
}

func TestSendUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(Config{URL: srv.URL, Timeout: 5}).Send(context.Background(), Message{Sender: "u", Message: "hi"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, errx.StatusOf(err))

	var ue *errx.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusInternalServerError, ue.Status)
}
