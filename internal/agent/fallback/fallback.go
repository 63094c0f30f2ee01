// Package fallback writes free-form replies for messages the assistant cannot
// handle, with a chat model behind an eino graph.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/placefinder/server/internal/agent/metrics"
	"github.com/placefinder/server/internal/agent/model"
	errx "github.com/placefinder/server/internal/core/error"
	logx "github.com/placefinder/server/pkg/logger"
)

// ServiceName labels the chat model in errors and metrics.
const ServiceName = "gemini"

// Config holds everything needed to build a Gemini backed responder.
type Config struct {
	APIKey  string
	BaseURL string
	Model   model.FallbackModelConfig
}

// Responder answers out-of-scope and misunderstood messages.
type Responder struct {
	runnable compose.Runnable[model.FallbackInput, *schema.Message]
}

// NewGeminiResponder creates the genai client and the chat model, then builds
// the responder on top of them.
func NewGeminiResponder(ctx context.Context, cfg Config) (*Responder, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Model.Model,
		Temperature: &cfg.Model.Temperature,
		MaxTokens:   &cfg.Model.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(cfg.Model.ThinkingBudget),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating fallback model")
		return nil, fmt.Errorf("error creating fallback model: %w", err)
	}

	return NewResponder(ctx, chatModel, cfg.Model)
}

// NewResponder compiles the fallback graph around chatModel.
func NewResponder(ctx context.Context, chatModel einomodel.BaseChatModel, cfg model.FallbackModelConfig) (*Responder, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is nil")
	}

	g := compose.NewGraph[model.FallbackInput, *schema.Message](
		compose.WithGenLocalState(func(ctx context.Context) *model.FallbackState {
			return &model.FallbackState{}
		}),
	)

	if err := g.AddLambdaNode(NodeInputConverter,
		NewInputConverterNode(cfg.MaxTurns),
		compose.WithStatePreHandler(NewInputConverterPreHandler(cfg.Model)),
	); err != nil {
		return nil, fmt.Errorf("add input converter: %w", err)
	}
	if err := g.AddChatTemplateNode(NodePrompt, NewPromptNode()); err != nil {
		return nil, fmt.Errorf("add prompt: %w", err)
	}
	if err := g.AddChatModelNode(NodeChatModel, chatModel,
		compose.WithStatePostHandler(NewChatModelPostHandler(cfg.Model)),
	); err != nil {
		return nil, fmt.Errorf("add chat model: %w", err)
	}

	edges := [][2]string{
		{compose.START, NodeInputConverter},
		{NodeInputConverter, NodePrompt},
		{NodePrompt, NodeChatModel},
		{NodeChatModel, compose.END},
	}
	for _, edge := range edges {
		if err := g.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}

	runnable, err := g.Compile(ctx, compose.WithGraphName("fallback"))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling fallback graph")
		return nil, fmt.Errorf("error compiling fallback graph: %w", err)
	}

	logx.Debug().Str("model", cfg.Model).Msg("Fallback graph compiled successfully")
	return &Responder{runnable: runnable}, nil
}

// Respond returns the reply of the model, trimmed. An empty reply is not an
// error; callers decide what to say instead.
func (r *Responder) Respond(ctx context.Context, in model.FallbackInput) (string, error) {
	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(NewCallbacks()))
	metrics.ObserveUpstream(ServiceName, err)
	if err != nil {
		return "", errx.WrapUpstream(ServiceName, err)
	}
	if out == nil {
		return "", nil
	}
	return strings.TrimSpace(out.Content), nil
}
