package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicConfig(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantModel string
	}{
		{
			name:      "explicit model",
			cfg:       Config{Provider: "anthropic", Model: "claude-3-5-sonnet-20241022", APIKey: "test-key"},
			wantModel: "claude-3-5-sonnet-20241022",
		},
		{
			name:      "default model",
			cfg:       Config{Provider: "anthropic", APIKey: "test-key"},
			wantModel: DefaultAnthropicModel,
		},
		{
			name:      "custom base url",
			cfg:       Config{Provider: "anthropic", APIKey: "test-key", BaseURL: "https://custom.anthropic.com"},
			wantModel: DefaultAnthropicModel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewService(&tt.cfg)
			require.NoError(t, err)
			as, ok := svc.(*anthropicService)
			require.True(t, ok)
			assert.Equal(t, tt.wantModel, as.model)
		})
	}
}

func TestCollectSystemPrompt(t *testing.T) {
	got := collectSystemPrompt([]Message{
		SystemPrompt(" first "),
		UserMessage("hi"),
		SystemPrompt("second"),
	})
	assert.Equal(t, "first\n\nsecond", got)
}

func TestBuildAnthropicMessages(t *testing.T) {
	got := buildAnthropicMessages([]Message{SystemPrompt("sys"), UserMessage("hi"), AssistantMessage("yo")})
	require.Len(t, got, 2)
	assert.Equal(t, "user", string(got[0].Role))
	assert.Equal(t, "assistant", string(got[1].Role))

	onlySystem := buildAnthropicMessages([]Message{SystemPrompt("sys")})
	require.Len(t, onlySystem, 1)
	assert.Equal(t, "user", string(onlySystem[0].Role))
}

func TestAnthropicChat(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-haiku-latest",
			"content": [{"type": "text", "text": "{\"should_create_table\": false}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 7, "output_tokens": 5}
		}`))
	}))
	defer srv.Close()

	svc, err := NewService(&Config{Provider: "anthropic", APIKey: "test-key", BaseURL: srv.URL + "/", MaxTokens: 1000})
	require.NoError(t, err)

	content, stats, err := svc.Chat(context.Background(), []Message{
		SystemPrompt("Respond only with valid JSON."),
		UserMessage("analyze"),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"should_create_table": false}`, content)
	require.NotNil(t, stats)
	assert.Equal(t, 12, stats.TotalTokens)

	require.NotNil(t, captured)
	assert.EqualValues(t, 1000, captured["max_tokens"])
	assert.NotNil(t, captured["system"])
}
