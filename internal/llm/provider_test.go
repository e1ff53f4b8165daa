package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProvider(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{"a":1}`), Usage: Usage{InputTokens: 3, OutputTokens: 4}})
	mock.Script(MockResponse{Err: errors.New("scripted")})

	resp, err := mock.Generate(context.Background(), Request{Messages: UserPrompt("first")})
	require.NoError(t, err)
	assert.Equal(t, 7, resp.Usage.Total())

	_, err = mock.Generate(context.Background(), Request{Messages: UserPrompt("second")})
	assert.EqualError(t, err, "scripted")

	_, err = mock.Generate(context.Background(), Request{})
	assert.True(t, IsKind(err, KindUnavailable))

	assert.Equal(t, 3, mock.CallCount())
	assert.Equal(t, "second", mock.Calls[1].Messages[0].Content)
	assert.Equal(t, RoleUser, mock.Calls[1].Messages[0].Role)
}

func TestPurpose(t *testing.T) {
	assert.Equal(t, "unknown", PurposeFrom(context.Background()))
	ctx := WithPurpose(context.Background(), PurposeQuestionGen)
	assert.Equal(t, PurposeQuestionGen, PurposeFrom(ctx))
}

func TestStatusError(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "12")
	e := statusError("openai", http.StatusTooManyRequests, h, errors.New("slow down"))
	assert.Equal(t, KindRateLimited, e.Kind)
	assert.Equal(t, 12*time.Second, e.RetryAfter)

	assert.Equal(t, KindRejected, statusError("x", http.StatusBadRequest, nil, nil).Kind)
	assert.Equal(t, KindUnavailable, statusError("x", http.StatusServiceUnavailable, nil, nil).Kind)
	assert.Equal(t, KindUnavailable, statusError("x", 0, nil, errors.New("dial tcp")).Kind)
}

func TestIsKindThroughWrapping(t *testing.T) {
	err := fmt.Errorf("evaluate answer: %w", &Error{Kind: KindTruncated})
	assert.True(t, IsKind(err, KindTruncated))
	assert.False(t, IsKind(err, KindRejected))
	assert.False(t, IsKind(errors.New("plain"), KindTruncated))
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.ErrorContains(t, cfg.Validate(), "MOCKT_LLM_ANTHROPIC_API_KEY")

	cfg.SetAPIKey("anthropic", "sk-ant")
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "sk-ant", cfg.APIKey("anthropic"))

	cfg.SetAPIKey("nope", "ignored")
	assert.Empty(t, cfg.APIKey("nope"))

	assert.NoError(t, Config{Provider: "mock"}.Validate())
	assert.ErrorContains(t, Config{Provider: "bard"}.Validate(), "unknown LLM provider")
}

func TestDiscoverConfig(t *testing.T) {
	for _, kv := range keyVars {
		t.Setenv(kv.env, "")
	}
	_, ok := DiscoverConfig()
	assert.False(t, ok)

	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("OPENAI_API_KEY", "sk-oai")
	cfg, ok := DiscoverConfig()
	require.True(t, ok)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "sk-oai", cfg.OpenAI.APIKey)
	assert.Empty(t, cfg.Anthropic.APIKey)
	assert.NoError(t, cfg.Validate())
}

func TestLookupCost(t *testing.T) {
	tests := map[string]float64{
		"claude-haiku-4-5-20251001": 1,
		"google/gemini-2.5-flash":   0.3,
		"gpt-4o-mini-2024-07-18":    0.15,
		"openai/gpt-4o-mini":        0.15,
		"gemini-2.5-pro":            1.25,
	}
	for model, in := range tests {
		c := LookupCost(model)
		require.NotNil(t, c, model)
		assert.Equal(t, in, c.InputPerMTok, model)
	}
	assert.Nil(t, LookupCost("llama-3-70b"))

	c := ModelCost{InputPerMTok: 1, OutputPerMTok: 5}
	assert.InDelta(t, 0.0035, c.Cost(1000, 500), 1e-9)
}

func TestErrorMessage(t *testing.T) {
	e := &Error{Kind: KindRateLimited, Provider: "gemini", Err: errors.New("quota")}
	assert.Contains(t, e.Error(), "gemini")
	assert.Contains(t, e.Error(), "quota")
	assert.ErrorIs(t, e, e.Err)
}
