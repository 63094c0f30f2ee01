// Package actions implements the custom actions Rasa calls on the action
// server. Every action reads the tracker it is given, may utter messages
// through a Dispatcher and returns the events to apply to the conversation.
package actions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/placefinder/server/internal/agent/metrics"
	"github.com/placefinder/server/internal/agent/model"
	logx "github.com/placefinder/server/pkg/logger"
)

// maxInternalErrors is the number of consecutive failures after which the
// conversation is restarted.
const maxInternalErrors = 3

// Domain is the assistant domain Rasa sends along with every call.
type Domain map[string]any

// Handler runs one action.
type Handler func(ctx context.Context, d *Dispatcher, t *model.Tracker, domain Domain) ([]model.Event, error)

// Dispatcher collects the messages an action sends to the user.
type Dispatcher struct {
	messages []model.Utterance
}

// Utter sends free text.
func (d *Dispatcher) Utter(text string) {
	d.messages = append(d.messages, model.TextUtterance(text))
}

// UtterResponse sends a response defined in the domain, filling its variables.
func (d *Dispatcher) UtterResponse(name string, vars map[string]any) {
	d.messages = append(d.messages, model.ResponseUtterance(name, vars))
}

func (d *Dispatcher) Messages() []model.Utterance {
	if d.messages == nil {
		return []model.Utterance{}
	}
	return d.messages
}

// UnknownActionError is returned by Run for names nobody registered.
type UnknownActionError struct {
	Name string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("No registered action found for name '%s'.", e.Name)
}

type Registry struct {
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds h under name, replacing any previous handler.
func (r *Registry) Register(name string, h Handler) {
	r.handlers[name] = h
}

// Names lists the registered actions, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for n := range r.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Run executes call.NextAction. Failures inside the action never surface as
// errors: they are turned into the events that let the conversation recover.
// The only error returned is *UnknownActionError.
func (r *Registry) Run(ctx context.Context, call *model.ActionCall) (*model.ActionResult, error) {
	h, ok := r.handlers[call.NextAction]
	if !ok {
		metrics.ObserveAction(call.NextAction, metrics.OutcomeNotFound, 0)
		return nil, &UnknownActionError{Name: call.NextAction}
	}

	log := logx.With().
		Str("action", call.NextAction).
		Str("sender_id", call.SenderID).
		Logger()

	started := time.Now()
	d := &Dispatcher{}
	events, err := invoke(ctx, h, d, &call.Tracker, Domain(call.Domain))

	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
		var pe *panicError
		if errors.As(err, &pe) {
			outcome = metrics.OutcomePanic
		}
		log.Error().Err(err).Msg("action failed")
		d = &Dispatcher{}
		events = recoverEvents(d, &call.Tracker)
	}
	took := time.Since(started)
	metrics.ObserveAction(call.NextAction, outcome, took)
	log.Debug().Dur("took", took).Int("events", len(events)).Msg("action done")

	if events == nil {
		events = []model.Event{}
	}
	return &model.ActionResult{Events: events, Responses: d.Messages()}, nil
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

func invoke(ctx context.Context, h Handler, d *Dispatcher, t *model.Tracker, domain Domain) (events []model.Event, err error) {
	defer func() {
		if p := recover(); p != nil {
			events, err = nil, &panicError{value: p}
		}
	}()
	return h(ctx, d, t, domain)
}

// recoverEvents counts the failure. Below the limit the last action is undone
// (or the active form stopped); at the limit the conversation restarts.
func recoverEvents(d *Dispatcher, t *model.Tracker) []model.Event {
	n, err := model.GetSlot(t, slotNumInternalErrors, 0)
	if err != nil {
		n = 0
	}
	n++

	if n < maxInternalErrors {
		back := model.ActionBack
		if t.FormActive() {
			back = model.ActionDeactivateLoop
		}
		return []model.Event{model.SlotSet(slotNumInternalErrors, n), model.ActionExecuted(back)}
	}

	d.UtterResponse("utter_internal_error_max", nil)
	return []model.Event{model.Restarted()}
}
