// Package alexa bridges Alexa skill requests to the REST channel of Rasa.
package alexa

import (
	"context"
	"errors"
	"fmt"
	"strings"

	logx "github.com/placefinder/server/pkg/logger"
	"github.com/placefinder/server/pkg/rasa"
)

// Alexa request types.
const (
	LaunchRequest           = "LaunchRequest"
	IntentRequest           = "IntentRequest"
	SessionEndedRequest     = "SessionEndedRequest"
	CanFulfillIntentRequest = "CanFulfillIntentRequest"
)

// Built-in and custom intents the skill understands.
const (
	StopIntent      = "AMAZON.StopIntent"
	HelpIntent      = "AMAZON.HelpIntent"
	CancelIntent    = "AMAZON.CancelIntent"
	ReturnUserInput = "ReturnUserInput"
)

const (
	msgRepeat        = "Could you please repeat that?"
	msgEnglishOnly   = "Sorry, this skill only supports English."
	msgNoReply       = "Sorry, can you repeat that please?"
	userInputSlot    = "text"
	sessionAttribute = "status"
)

var (
	ErrNotImplemented  = errors.New("request type not implemented")
	ErrUnsupportedType = errors.New("unsupported request type")
)

// ================ Wire types ================

type Envelope struct {
	Version string  `json:"version"`
	Session Session `json:"session"`
	Request Request `json:"request"`
}

type Session struct {
	SessionID string `json:"sessionId"`
	User      User   `json:"user"`
}

type User struct {
	UserID string `json:"userId"`
}

type Request struct {
	Type      string  `json:"type"`
	RequestID string  `json:"requestId"`
	Locale    string  `json:"locale"`
	Intent    *Intent `json:"intent,omitempty"`
}

type Intent struct {
	Name  string          `json:"name"`
	Slots map[string]Slot `json:"slots"`
}

type Slot struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type OutputSpeech struct {
	Type         string `json:"type"`
	SSML         string `json:"ssml"`
	PlayBehavior string `json:"playBehavior"`
}

type Reprompt struct {
	OutputSpeech OutputSpeech `json:"outputSpeech"`
}

type ResponseBody struct {
	OutputSpeech     OutputSpeech `json:"outputSpeech"`
	Reprompt         Reprompt     `json:"reprompt"`
	ShouldEndSession bool         `json:"shouldEndSession"`
}

type Response struct {
	Version           string            `json:"version"`
	SessionAttributes map[string]string `json:"sessionAttributes"`
	Response          ResponseBody      `json:"response"`
}

// NewResponse wraps a reply in the Alexa envelope, reprompting with the same
// speech.
func NewResponse(message string, endSession bool) Response {
	speech := OutputSpeech{Type: "SSML", SSML: ToSSML(message), PlayBehavior: "REPLACE_ENQUEUED"}
	return Response{
		Version:           "1.0",
		SessionAttributes: map[string]string{sessionAttribute: "active"},
		Response: ResponseBody{
			OutputSpeech:     speech,
			Reprompt:         Reprompt{OutputSpeech: speech},
			ShouldEndSession: endSession,
		},
	}
}

// ================ Bridge ================

// Messenger delivers a user message to the assistant.
type Messenger interface {
	Send(ctx context.Context, msg rasa.Message) ([]rasa.Reply, error)
}

// Corrector fixes the spelling of a user message.
type Corrector interface {
	Correct(ctx context.Context, text string) (string, error)
}

type Bridge struct {
	rasa    Messenger
	speller Corrector
}

// NewBridge creates a bridge. speller may be nil.
func NewBridge(messenger Messenger, speller Corrector) *Bridge {
	return &Bridge{rasa: messenger, speller: speller}
}

// Handle answers one Alexa request. A nil envelope means Alexa sent no payload.
func (b *Bridge) Handle(ctx context.Context, env *Envelope) (message string, endSession bool, err error) {
	if env == nil {
		logx.Error().Msg("No payload returned from the Alexa server.")
		return msgRepeat, false, nil
	}

	locale := env.Request.Locale
	if !strings.HasPrefix(locale, "en") {
		return msgEnglishOnly, true, nil
	}

	var text string
	switch env.Request.Type {
	case CanFulfillIntentRequest:
		return "", false, ErrNotImplemented
	case LaunchRequest:
		text = "hi"
	case IntentRequest:
		var ok bool
		text, endSession, ok = intentText(env.Request.Intent)
		if !ok {
			return msgRepeat, false, nil
		}
		if env.Request.Intent.Name == ReturnUserInput {
			text = b.correct(ctx, text)
		}
	case SessionEndedRequest:
		text, endSession = "goodbye", true
	default:
		return "", false, fmt.Errorf("%w '%s'", ErrUnsupportedType, env.Request.Type)
	}

	replies, err := b.rasa.Send(ctx, rasa.Message{
		Sender:   env.Session.User.UserID,
		Message:  text,
		Metadata: map[string]any{"locale": locale},
	})
	if err != nil {
		return "", false, err
	}

	texts := rasa.Texts(replies)
	if len(texts) == 0 {
		logx.Error().Str("sender_id", env.Session.User.UserID).Msg("No response returned from the Rasa server.")
		return msgNoReply, endSession, nil
	}
	return strings.Join(texts, "\n"), endSession, nil
}

// intentText maps an Alexa intent to the text sent to the assistant.
func intentText(intent *Intent) (text string, endSession, ok bool) {
	if intent == nil {
		return "", false, false
	}
	switch intent.Name {
	case StopIntent:
		return "goodbye", true, true
	case HelpIntent:
		return "help", false, true
	case CancelIntent:
		return "cancel", false, true
	case ReturnUserInput:
		slot, found := intent.Slots[userInputSlot]
		if !found || strings.TrimSpace(slot.Value) == "" {
			return "", false, false
		}
		return slot.Value, false, true
	}
	return "", false, false
}

// correct spell checks free text, keeping it unchanged when the checker fails.
func (b *Bridge) correct(ctx context.Context, text string) string {
	if b.speller == nil {
		return text
	}
	fixed, err := b.speller.Correct(ctx, text)
	if err != nil {
		logx.Warn().Err(err).Msg("spell check failed")
		return text
	}
	if fixed != text {
		logx.Debug().Str("from", text).Str("to", fixed).Msg("spelling corrected")
	}
	return fixed
}
