package format

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/hrygo/sbotchat/ai/core/llm"
)

// ErrRateLimited means the analyzer's outbound budget is exhausted.
var ErrRateLimited = errors.New("format: scenario analyzer rate limited")

// Request parameters for the analyzer completion call.
const (
	DefaultAnalyzerModel       = "deepseek-chat"
	analyzerTemperature        = float32(0.3)
	analyzerMaxTokens          = 1000
	defaultAnalyzerTimeoutSecs = 60
)

const scenarioSystemPrompt = "You are an expert HR management AI assistant. Respond only with valid JSON."

const scenarioPromptTemplate = `Analyze the following HR-related content and determine if it would benefit from a scenario table with priority levels.

Content: "%s"

Please respond with JSON only:
{
    "should_create_table": boolean,
    "table_title": "string (if table needed)",
    "scenarios": [
        {
            "situation": "description of HR situation",
            "action": "recommended action to take",
            "priority": "high|medium|low"
        }
    ]
}

Create scenarios only if the content discusses HR situations that would benefit from structured decision-making (hiring, leave management, performance issues, onboarding, compliance, etc.). Keep scenarios practical and actionable with clear priority levels.`

// LLMAnalyzer is the production ScenarioAnalyzer backed by a chat completion service.
type LLMAnalyzer struct {
	llm     llm.Service
	limiter *rate.Limiter
}

// NewLLMAnalyzer wraps svc. A nil limiter means no throttling.
func NewLLMAnalyzer(svc llm.Service, limiter *rate.Limiter) *LLMAnalyzer {
	return &LLMAnalyzer{llm: svc, limiter: limiter}
}

// NewLLMAnalyzerFromSettings builds the completion client from settings.
func NewLLMAnalyzerFromSettings(s Settings, limiter *rate.Limiter) (*LLMAnalyzer, error) {
	if !s.IsConfigured() {
		return nil, ErrNotConfigured
	}
	model := s.Model
	if model == "" {
		model = DefaultAnalyzerModel
	}
	timeout := int(s.Timeout.Seconds())
	if timeout <= 0 {
		timeout = defaultAnalyzerTimeoutSecs
	}
	svc, err := llm.NewService(&llm.Config{
		Provider:    s.Provider,
		Model:       model,
		APIKey:      s.APIKey,
		BaseURL:     s.BaseURL,
		MaxTokens:   analyzerMaxTokens,
		Temperature: analyzerTemperature,
		Timeout:     timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create analyzer llm service: %w", err)
	}
	return NewLLMAnalyzer(svc, limiter), nil
}

// AnalyzeScenarios implements ScenarioAnalyzer with a single request; no retries.
func (a *LLMAnalyzer) AnalyzeScenarios(ctx context.Context, content string) (*ScenarioAnalysis, error) {
	if a.limiter != nil && !a.limiter.Allow() {
		return nil, ErrRateLimited
	}

	messages := []llm.Message{
		llm.SystemPrompt(scenarioSystemPrompt),
		llm.UserMessage(fmt.Sprintf(scenarioPromptTemplate, content)),
	}
	reply, _, err := a.llm.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("scenario analysis request: %w", err)
	}
	return ParseScenarioReply(reply)
}
