package fallback

import (
	"context"
	"errors"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placefinder/server/internal/agent/model"
	errx "github.com/placefinder/server/internal/core/error"
)

type fakeChatModel struct {
	reply *schema.Message
	err   error
	seen  []*schema.Message
}

func (m *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	m.seen = input
	if m.err != nil {
		return nil, m.err
	}
	return m.reply, nil
}

func (m *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func testConfig() model.FallbackModelConfig {
	return model.FallbackModelConfig{Model: "gemini-2.5-flash", MaxTurns: 2}
}

func TestRespondRendersPromptAndHistory(t *testing.T) {
	cm := &fakeChatModel{reply: schema.AssistantMessage("  I can only help with places.  ", nil)}
	r, err := NewResponder(context.Background(), cm, testConfig())
	require.NoError(t, err)

	reply, err := r.Respond(context.Background(), model.FallbackInput{
		SenderID: "u1",
		Reason:   "out_of_scope",
		Message:  "what is the capital of France?",
		Transcript: []model.Turn{
			{FromUser: true, Text: "hi"},
			{FromUser: false, Text: "Hello! How can I help?"},
			{FromUser: true, Text: "what is the capital of France?"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "I can only help with places.", reply)

	require.Len(t, cm.seen, 3)
	assert.Equal(t, schema.System, cm.seen[0].Role)
	assert.Contains(t, cm.seen[0].Content, "cannot help with that")
	assert.Contains(t, cm.seen[0].Content, `"what is the capital of France?"`)
	assert.Equal(t, schema.Assistant, cm.seen[1].Role)
	assert.Equal(t, "Hello! How can I help?", cm.seen[1].Content)
	assert.Equal(t, schema.User, cm.seen[2].Role)
	assert.Equal(t, "what is the capital of France?", cm.seen[2].Content)
}

func TestRespondDefaultFallbackPrompt(t *testing.T) {
	cm := &fakeChatModel{reply: schema.AssistantMessage("Could you rephrase?", nil)}
	r, err := NewResponder(context.Background(), cm, testConfig())
	require.NoError(t, err)

	_, err = r.Respond(context.Background(), model.FallbackInput{Reason: "default_fallback", Message: "blorp"})
	require.NoError(t, err)

	require.Len(t, cm.seen, 2)
	assert.Contains(t, cm.seen[0].Content, "ask them to rephrase")
	assert.Equal(t, "blorp", cm.seen[1].Content)
}

func TestRespondWrapsModelErrors(t *testing.T) {
	cm := &fakeChatModel{err: errors.New("quota exceeded")}
	r, err := NewResponder(context.Background(), cm, testConfig())
	require.NoError(t, err)

	_, err = r.Respond(context.Background(), model.FallbackInput{Reason: "default_fallback", Message: "x"})
	require.Error(t, err)
	assert.Equal(t, 502, errx.StatusOf(err))
}

func TestNewResponderRequiresModel(t *testing.T) {
	_, err := NewResponder(context.Background(), nil, testConfig())
	assert.Error(t, err)
}

func TestChatModelPostHandlerAddsCost(t *testing.T) {
	state := &model.FallbackState{}
	out := &schema.Message{
		Role:    schema.Assistant,
		Content: "ok",
		ResponseMeta: &schema.ResponseMeta{Usage: &schema.TokenUsage{
			PromptTokens:     1_000_000,
			CompletionTokens: 1_000_000,
			TotalTokens:      2_000_000,
		}},
	}

	got, err := NewChatModelPostHandler("gemini-2.5-flash")(context.Background(), out, state)
	require.NoError(t, err)
	assert.InDelta(t, 2.80, state.TotalCostUSD, 1e-9)
	assert.Contains(t, got.Extra, "usage_cost")
}

func TestHistoryMessages(t *testing.T) {
	turns := []model.Turn{
		{FromUser: true, Text: "a"},
		{FromUser: false, Text: "b"},
		{FromUser: true, Text: "c"},
	}

	tests := []struct {
		name     string
		current  string
		maxTurns int
		want     []string
	}{
		{"current already last", "c", 0, []string{"a", "b", "c"}},
		{"trimmed", "c", 2, []string{"b", "c"}},
		{"current appended", "d", 2, []string{"b", "c", "d"}},
		{"blank current", " ", 1, []string{"c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, m := range historyMessages(turns, tt.current, tt.maxTurns) {
				got = append(got, m.Content)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
