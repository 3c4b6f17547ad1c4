package store

import (
	"strings"

	"github.com/pkg/errors"
)

// Model types accepted for the formatter's completion model.
const (
	ModelTypeChat     = "deepseek-chat"
	ModelTypeReasoner = "deepseek-reasoner"
)

// Defaults applied to a freshly created formatter configuration.
const (
	DefaultFormatterName        = "Default Formatter"
	DefaultFormatterTemperature = 1.0
	DefaultFormatterMaxTokens   = 4000
	DefaultFormatterTopP        = 1.0
)

// maskedAPIKey replaces stored keys in read views.
const maskedAPIKey = "••••••••"

// minAPIKeyLength is the shortest key accepted by Validate.
const minAPIKeyLength = 20

// FormatterConfig is a per-user formatter configuration. At most one
// configuration per user is active.
type FormatterConfig struct {
	Name             string
	APIKey           string
	ModelType        string
	SystemPrompt     string
	Temperature      float64
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
	CreatedTs        int64
	UpdatedTs        int64
	MaxTokens        int32
	ID               int32
	UserID           int32
	IsActive         bool
}

type FindFormatterConfig struct {
	ID       *int32
	UserID   *int32
	IsActive *bool
}

type UpdateFormatterConfig struct {
	Name             *string
	APIKey           *string
	ModelType        *string
	SystemPrompt     *string
	Temperature      *float64
	TopP             *float64
	FrequencyPenalty *float64
	PresencePenalty  *float64
	MaxTokens        *int32
	IsActive         *bool
	UpdatedTs        *int64
	ID               int32
}

// DefaultFormatterConfig returns the configuration created for a user that
// has none. It carries no API key, so scenario enhancement stays disabled.
func DefaultFormatterConfig(userID int32) *FormatterConfig {
	return &FormatterConfig{
		UserID:      userID,
		Name:        DefaultFormatterName,
		ModelType:   ModelTypeChat,
		Temperature: DefaultFormatterTemperature,
		MaxTokens:   DefaultFormatterMaxTokens,
		TopP:        DefaultFormatterTopP,
		IsActive:    true,
	}
}

// IsAPIKeyPlaceholder reports whether key is blank or the masked value
// handed out by Masked, neither of which replaces a stored key.
func IsAPIKeyPlaceholder(key string) bool {
	key = strings.TrimSpace(key)
	return key == "" || key == maskedAPIKey
}

// HasAPIKey reports whether a non-blank key is stored.
func (c *FormatterConfig) HasAPIKey() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// Validate checks the value ranges of c.
func (c *FormatterConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("name is required")
	}
	if c.HasAPIKey() {
		key := strings.TrimSpace(c.APIKey)
		if !strings.HasPrefix(key, "sk-") {
			return errors.New("invalid API key format: must start with 'sk-'")
		}
		if len(key) < minAPIKeyLength {
			return errors.Errorf("API key is too short: need at least %d characters", minAPIKeyLength)
		}
	}
	if c.ModelType != ModelTypeChat && c.ModelType != ModelTypeReasoner {
		return errors.Errorf("unsupported model type %q", c.ModelType)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.Errorf("temperature must be between 0 and 2, got %v", c.Temperature)
	}
	if c.MaxTokens < 1 || c.MaxTokens > 8000 {
		return errors.Errorf("max_tokens must be between 1 and 8000, got %d", c.MaxTokens)
	}
	if c.TopP < 0 || c.TopP > 1 {
		return errors.Errorf("top_p must be between 0 and 1, got %v", c.TopP)
	}
	if c.FrequencyPenalty < -2 || c.FrequencyPenalty > 2 {
		return errors.Errorf("frequency_penalty must be between -2 and 2, got %v", c.FrequencyPenalty)
	}
	if c.PresencePenalty < -2 || c.PresencePenalty > 2 {
		return errors.Errorf("presence_penalty must be between -2 and 2, got %v", c.PresencePenalty)
	}
	return nil
}

// Apply copies the set fields of u onto c.
func (u *UpdateFormatterConfig) Apply(c *FormatterConfig) {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.APIKey != nil {
		c.APIKey = strings.TrimSpace(*u.APIKey)
	}
	if u.ModelType != nil {
		c.ModelType = *u.ModelType
	}
	if u.SystemPrompt != nil {
		c.SystemPrompt = *u.SystemPrompt
	}
	if u.Temperature != nil {
		c.Temperature = *u.Temperature
	}
	if u.TopP != nil {
		c.TopP = *u.TopP
	}
	if u.FrequencyPenalty != nil {
		c.FrequencyPenalty = *u.FrequencyPenalty
	}
	if u.PresencePenalty != nil {
		c.PresencePenalty = *u.PresencePenalty
	}
	if u.MaxTokens != nil {
		c.MaxTokens = *u.MaxTokens
	}
	if u.IsActive != nil {
		c.IsActive = *u.IsActive
	}
	if u.UpdatedTs != nil {
		c.UpdatedTs = *u.UpdatedTs
	}
}

// FormatterConfigView is the read view of a configuration; the key itself
// never leaves the store.
type FormatterConfigView struct {
	Name             string  `json:"name"`
	APIKey           string  `json:"api_key"`
	ModelType        string  `json:"model_type"`
	SystemPrompt     string  `json:"system_prompt"`
	Temperature      float64 `json:"temperature"`
	TopP             float64 `json:"top_p"`
	FrequencyPenalty float64 `json:"frequency_penalty"`
	PresencePenalty  float64 `json:"presence_penalty"`
	MaxTokens        int32   `json:"max_tokens"`
	ID               int32   `json:"id"`
	HasAPIKey        bool    `json:"has_api_key"`
	IsActive         bool    `json:"is_active"`
}

// Masked returns the read view of c.
func (c *FormatterConfig) Masked() *FormatterConfigView {
	view := &FormatterConfigView{
		ID:               c.ID,
		Name:             c.Name,
		ModelType:        c.ModelType,
		SystemPrompt:     c.SystemPrompt,
		Temperature:      c.Temperature,
		TopP:             c.TopP,
		FrequencyPenalty: c.FrequencyPenalty,
		PresencePenalty:  c.PresencePenalty,
		MaxTokens:        c.MaxTokens,
		HasAPIKey:        c.HasAPIKey(),
		IsActive:         c.IsActive,
	}
	if view.HasAPIKey {
		view.APIKey = maskedAPIKey
	}
	return view
}
