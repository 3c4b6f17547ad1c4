package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	aoption "github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultAnthropicModel is used when the config names no model.
const DefaultAnthropicModel = "claude-3-5-haiku-latest"

// anthropicService speaks the native Messages API.
type anthropicService struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float32
	topP        float32
	timeout     int
}

func newAnthropicService(cfg *Config, maxTokens, timeout int, httpClient *http.Client) *anthropicService {
	opts := []aoption.RequestOption{
		aoption.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		aoption.WithHTTPClient(httpClient),
		aoption.WithMaxRetries(0),
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, aoption.WithBaseURL(strings.TrimSpace(cfg.BaseURL)))
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultAnthropicModel
	}
	return &anthropicService{
		client:      anthropic.NewClient(opts...),
		model:       model,
		maxTokens:   int64(maxTokens),
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
		timeout:     timeout,
	}
}

func (s *anthropicService) Chat(ctx context.Context, messages []Message) (string, *LLMCallStats, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.timeout)*time.Second)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: s.maxTokens,
		Messages:  buildAnthropicMessages(messages),
	}
	if s.temperature > 0 {
		params.Temperature = anthropic.Float(float64(s.temperature))
	}
	if s.topP > 0 {
		params.TopP = anthropic.Float(float64(s.topP))
	}
	if system := collectSystemPrompt(messages); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	startTime := time.Now()
	msg, err := s.client.Messages.New(ctx, params)
	if err != nil {
		slog.Error("LLM: Anthropic request failed", "model", s.model, "error", err)
		return "", nil, fmt.Errorf("LLM chat failed: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(tb.Text)
		}
	}
	if text.Len() == 0 {
		return "", nil, fmt.Errorf("empty response from LLM")
	}

	stats := &LLMCallStats{
		PromptTokens:     int(msg.Usage.InputTokens),
		CompletionTokens: int(msg.Usage.OutputTokens),
		TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		CacheReadTokens:  int(msg.Usage.CacheReadInputTokens),
		TotalDurationMs:  time.Since(startTime).Milliseconds(),
	}
	return text.String(), stats, nil
}

// collectSystemPrompt joins system messages; the Messages API takes them out of band.
func collectSystemPrompt(messages []Message) string {
	var parts []string
	for _, m := range messages {
		if m.Role == "system" && strings.TrimSpace(m.Content) != "" {
			parts = append(parts, strings.TrimSpace(m.Content))
		}
	}
	return strings.Join(parts, "\n\n")
}

func buildAnthropicMessages(messages []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			continue
		case "assistant":
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	if len(out) == 0 {
		out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock("Continue.")))
	}
	return out
}
