package fallback

import (
	"context"
	_ "embed"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/placefinder/server/internal/agent/model"
	logx "github.com/placefinder/server/pkg/logger"
)

const (
	NodeInputConverter = "InputConverter"
	NodePrompt         = "Prompt"
	NodeChatModel      = "ChatModel"
)

//go:embed template/fallback_prompt.txt
var systemPrompt string

// NewInputConverterPreHandler records the caller in the graph state.
func NewInputConverterPreHandler(modelName string) func(context.Context, model.FallbackInput, *model.FallbackState) (model.FallbackInput, error) {
	return func(ctx context.Context, in model.FallbackInput, s *model.FallbackState) (model.FallbackInput, error) {
		s.SenderID = in.SenderID
		s.Model = modelName
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewInputConverterNode turns the input into the variables of the prompt.
func NewInputConverterNode(maxTurns int) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.FallbackInput) (map[string]any, error) {
		return map[string]any{
			"Reason":  in.Reason,
			"Message": strings.TrimSpace(in.Message),
			"history": historyMessages(in.Transcript, in.Message, maxTurns),
		}, nil
	})
}

// NewPromptNode renders the system prompt followed by the recent dialogue.
func NewPromptNode() prompt.ChatTemplate {
	return prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(systemPrompt),
		schema.MessagesPlaceholder("history", false),
	)
}

// NewChatModelPostHandler computes and logs the usage cost of a reply.
func NewChatModelPostHandler(modelName string) func(context.Context, *schema.Message, *model.FallbackState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.FallbackState) (*schema.Message, error) {
		if out == nil || out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
			return out, nil
		}
		usage := out.ResponseMeta.Usage
		inC, outC, totalC := model.ComputeCost(usage, model.ResolvePricing(modelName))
		if out.Extra == nil {
			out.Extra = map[string]any{}
		}
		out.Extra["usage_cost"] = map[string]any{
			"currency":          "USD",
			"model":             modelName,
			"prompt_tokens":     usage.PromptTokens,
			"completion_tokens": usage.CompletionTokens,
			"total_tokens":      usage.TotalTokens,
			"input_cost":        inC,
			"output_cost":       outC,
			"total_cost":        totalC,
		}
		state.TotalCostUSD += totalC

		logx.Debug().
			Str("sender_id", state.SenderID).
			Str("node", NodeChatModel).
			Str("model", modelName).
			Int("prompt_tokens", usage.PromptTokens).
			Int("completion_tokens", usage.CompletionTokens).
			Float64("total_cost_usd", totalC).
			Msg("LLM usage")
		return out, nil
	}
}

// historyMessages converts the last maxTurns turns of the dialogue into chat
// messages. The message being answered is appended when the transcript does
// not already end with it.
func historyMessages(turns []model.Turn, current string, maxTurns int) []*schema.Message {
	recent := trimTail(turns, maxTurns)
	msgs := make([]*schema.Message, 0, len(recent)+1)
	for _, turn := range recent {
		if turn.FromUser {
			msgs = append(msgs, schema.UserMessage(turn.Text))
		} else {
			msgs = append(msgs, schema.AssistantMessage(turn.Text, nil))
		}
	}

	current = strings.TrimSpace(current)
	if current == "" {
		return msgs
	}
	if n := len(recent); n == 0 || !recent[n-1].FromUser || recent[n-1].Text != current {
		msgs = append(msgs, schema.UserMessage(current))
	}
	return msgs
}

func trimTail(turns []model.Turn, maxTurns int) []model.Turn {
	if maxTurns <= 0 || len(turns) <= maxTurns {
		return turns
	}
	return turns[len(turns)-maxTurns:]
}
