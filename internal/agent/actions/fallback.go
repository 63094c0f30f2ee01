package actions

import (
	"context"
	"strings"

	"github.com/placefinder/server/internal/agent/model"
	logx "github.com/placefinder/server/pkg/logger"
)

const (
	reasonOutOfScope      = "out_of_scope"
	reasonDefaultFallback = "default_fallback"
)

func (a *Actions) outOfScope(ctx context.Context, d *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	a.respond(ctx, d, t, reasonOutOfScope, "utter_out_of_scope")
	return nil, nil
}

// defaultFallback answers a message the assistant did not understand and
// reverts it so it does not steer the dialogue.
func (a *Actions) defaultFallback(ctx context.Context, d *Dispatcher, t *model.Tracker, _ Domain) ([]model.Event, error) {
	a.respond(ctx, d, t, reasonDefaultFallback, "utter_default")
	return []model.Event{model.UserUtteranceReverted()}, nil
}

// respond asks the responder for a reply and falls back to the canned
// response when there is none or it fails.
func (a *Actions) respond(ctx context.Context, d *Dispatcher, t *model.Tracker, reason, canned string) {
	if a.responder == nil {
		d.UtterResponse(canned, nil)
		return
	}

	reply, err := a.responder.Respond(ctx, model.FallbackInput{
		SenderID:   t.SenderID,
		Reason:     reason,
		Message:    t.LatestMessage.Text,
		Transcript: t.Transcript(0),
	})
	if err != nil || strings.TrimSpace(reply) == "" {
		logx.Warn().Err(err).Str("reason", reason).Msg("fallback responder gave no reply")
		d.UtterResponse(canned, nil)
		return
	}
	d.Utter(strings.TrimSpace(reply))
}
