package alexa

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/placefinder/server/internal/core/error"
	"github.com/placefinder/server/pkg/rasa"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeMessenger struct {
	replies []rasa.Reply
	err     error
	sent    []rasa.Message
}

func (m *fakeMessenger) Send(_ context.Context, msg rasa.Message) ([]rasa.Reply, error) {
	m.sent = append(m.sent, msg)
	return m.replies, m.err
}

type fakeCorrector struct {
	fixed string
	err   error
}

func (c fakeCorrector) Correct(context.Context, string) (string, error) {
	return c.fixed, c.err
}

func envelope(reqType, locale string, intent *Intent) *Envelope {
	return &Envelope{
		Version: "1.0",
		Session: Session{SessionID: "s1", User: User{UserID: "amzn1.user"}},
		Request: Request{Type: reqType, Locale: locale, Intent: intent},
	}
}

func userInput(text string) *Intent {
	return &Intent{Name: ReturnUserInput, Slots: map[string]Slot{"text": {Name: "text", Value: text}}}
}

func TestHandleMapsRequestsToText(t *testing.T) {
	tests := []struct {
		name    string
		env     *Envelope
		text    string
		endSess bool
	}{
		{"launch", envelope(LaunchRequest, "en-US", nil), "hi", false},
		{"stop", envelope(IntentRequest, "en-US", &Intent{Name: StopIntent}), "goodbye", true},
		{"help", envelope(IntentRequest, "en-GB", &Intent{Name: HelpIntent}), "help", false},
		{"cancel", envelope(IntentRequest, "en-US", &Intent{Name: CancelIntent}), "cancel", false},
		{"user input", envelope(IntentRequest, "en-US", userInput("find a pizzeria")), "find a pizzeria", false},
		{"session ended", envelope(SessionEndedRequest, "en-US", nil), "goodbye", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeMessenger{replies: []rasa.Reply{{Text: "one"}, {Image: "x"}, {Text: "two"}}}
			msg, end, err := NewBridge(m, nil).Handle(context.Background(), tt.env)
			require.NoError(t, err)

			assert.Equal(t, "one\ntwo", msg)
			assert.Equal(t, tt.endSess, end)
			require.Len(t, m.sent, 1)
			assert.Equal(t, tt.text, m.sent[0].Message)
			assert.Equal(t, "amzn1.user", m.sent[0].Sender)
			assert.Equal(t, tt.env.Request.Locale, m.sent[0].Metadata["locale"])
		})
	}
}

func TestHandleShortCircuits(t *testing.T) {
	tests := []struct {
		name    string
		env     *Envelope
		msg     string
		endSess bool
	}{
		{"no payload", nil, "Could you please repeat that?", false},
		{"not english", envelope(LaunchRequest, "it-IT", nil), "Sorry, this skill only supports English.", true},
		{"unknown intent", envelope(IntentRequest, "en-US", &Intent{Name: "AMAZON.FallbackIntent"}), "Could you please repeat that?", false},
		{"empty user input", envelope(IntentRequest, "en-US", userInput(" ")), "Could you please repeat that?", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeMessenger{}
			msg, end, err := NewBridge(m, nil).Handle(context.Background(), tt.env)
			require.NoError(t, err)
			assert.Equal(t, tt.msg, msg)
			assert.Equal(t, tt.endSess, end)
			assert.Empty(t, m.sent)
		})
	}
}

func TestHandleNoReplies(t *testing.T) {
	msg, end, err := NewBridge(&fakeMessenger{}, nil).Handle(context.Background(), envelope(LaunchRequest, "en-US", nil))
	require.NoError(t, err)
	assert.Equal(t, "Sorry, can you repeat that please?", msg)
	assert.False(t, end)
}

func TestHandleSpellChecksUserInput(t *testing.T) {
	m := &fakeMessenger{replies: []rasa.Reply{{Text: "ok"}}}
	b := NewBridge(m, fakeCorrector{fixed: "find a restaurant"})

	_, _, err := b.Handle(context.Background(), envelope(IntentRequest, "en-US", userInput("find a resturant")))
	require.NoError(t, err)
	assert.Equal(t, "find a restaurant", m.sent[0].Message)

	b = NewBridge(m, fakeCorrector{err: errors.New("down")})
	_, _, err = b.Handle(context.Background(), envelope(IntentRequest, "en-US", userInput("find a resturant")))
	require.NoError(t, err)
	assert.Equal(t, "find a resturant", m.sent[1].Message)
}

func post(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestWebhookResponseEnvelope(t *testing.T) {
	m := &fakeMessenger{replies: []rasa.Reply{{Text: "Hi there!"}}}
	router := NewRouter(NewBridge(m, nil))

	w := post(router, `{"version":"1.0","session":{"user":{"userId":"u"}},"request":{"type":"LaunchRequest","locale":"en-US"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var res Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "1.0", res.Version)
	assert.Equal(t, "SSML", res.Response.OutputSpeech.Type)
	assert.Equal(t, "<speak><p><s>Hi there!</s></p></speak>", res.Response.OutputSpeech.SSML)
	assert.Equal(t, res.Response.OutputSpeech, res.Response.Reprompt.OutputSpeech)
	assert.False(t, res.Response.ShouldEndSession)
}

func TestWebhookStatuses(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"null payload", `null`, nil, http.StatusOK},
		{"malformed", `{"request":`, nil, http.StatusBadRequest},
		{"can fulfill", `{"request":{"type":"CanFulfillIntentRequest","locale":"en-US"}}`, nil, http.StatusNotImplemented},
		{"unsupported", `{"request":{"type":"Display.ElementSelected","locale":"en-US"}}`, nil, http.StatusBadRequest},
		{"rasa down", `{"request":{"type":"LaunchRequest","locale":"en-US"}}`, errx.WrapUpstream("rasa", errors.New("refused")), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(NewBridge(&fakeMessenger{err: tt.err}, nil))
			w := post(router, tt.body)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestHealth(t *testing.T) {
	router := NewRouter(NewBridge(&fakeMessenger{}, nil))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
