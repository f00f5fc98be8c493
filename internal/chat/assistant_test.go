package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	reply    string
	err      error
	messages []llms.MessageContent
	opts     llms.CallOptions
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, o := range options {
		o(&f.opts)
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.reply == "" {
		return &llms.ContentResponse{}, nil
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "  " + f.reply + "\n"}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestLLMAssistant_Reply(t *testing.T) {
	m := &fakeModel{reply: "Try searching for a dentist in your area."}
	a := NewAssistantWithModel(m, nil)

	got, err := a.Reply(context.Background(), "how do I find a good dentist?")
	require.NoError(t, err)
	assert.Equal(t, "Try searching for a dentist in your area.", got)

	require.Len(t, m.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, m.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, m.messages[1].Role)
	assert.Equal(t, 0.3, m.opts.Temperature)
	assert.Equal(t, 300, m.opts.MaxTokens)
}

func TestLLMAssistant_Errors(t *testing.T) {
	boom := errors.New("upstream down")
	_, err := NewAssistantWithModel(&fakeModel{err: boom}, nil).Reply(context.Background(), "hi")
	assert.ErrorIs(t, err, boom)

	_, err = NewAssistantWithModel(&fakeModel{}, nil).Reply(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestNewLLMAssistant_RequiresKey(t *testing.T) {
	_, err := NewLLMAssistant(Config{}, nil)
	assert.Error(t, err)

	a, err := NewLLMAssistant(Config{APIKey: "k", BaseURL: "http://localhost:1"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, a)
}
