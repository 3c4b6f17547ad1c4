package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/sbotchat/internal/logging"
	"github.com/hrygo/sbotchat/store"
)

type updateConfigRequest struct {
	Name             *string  `json:"name"`
	APIKey           *string  `json:"api_key"`
	ModelType        *string  `json:"model_type"`
	SystemPrompt     *string  `json:"system_prompt"`
	Temperature      *float64 `json:"temperature"`
	TopP             *float64 `json:"top_p"`
	FrequencyPenalty *float64 `json:"frequency_penalty"`
	PresencePenalty  *float64 `json:"presence_penalty"`
	MaxTokens        *int32   `json:"max_tokens"`
}

// GetConfig returns the caller's active formatter configuration with the API
// key masked.
func (s *APIV1Service) GetConfig(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	config, err := s.Store.GetActiveFormatterConfig(c.Request().Context(), uid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load formatter config").SetInternal(err)
	}
	return c.JSON(http.StatusOK, config.Masked())
}

// UpdateConfig patches the caller's active configuration. Out-of-range values
// are rejected with 400.
func (s *APIV1Service) UpdateConfig(c echo.Context) error {
	var req updateConfigRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	uid, err := userID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	current, err := s.Store.GetActiveFormatterConfig(ctx, uid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load formatter config").SetInternal(err)
	}

	// A blank or masked key echoed back from a read keeps the stored one.
	if req.APIKey != nil && store.IsAPIKeyPlaceholder(*req.APIKey) {
		req.APIKey = nil
	}
	update := &store.UpdateFormatterConfig{
		Name:             req.Name,
		APIKey:           req.APIKey,
		ModelType:        req.ModelType,
		SystemPrompt:     req.SystemPrompt,
		Temperature:      req.Temperature,
		TopP:             req.TopP,
		FrequencyPenalty: req.FrequencyPenalty,
		PresencePenalty:  req.PresencePenalty,
		MaxTokens:        req.MaxTokens,
	}
	merged := *current
	update.Apply(&merged)
	if err := merged.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	config, err := s.Store.UpdateActiveFormatterConfig(ctx, uid, update)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update formatter config").SetInternal(err)
	}
	s.orchestrators.Remove(uid)
	logging.FromContext(ctx).Info("formatter config updated",
		"user_id", uid, "model_type", config.ModelType, "has_api_key", config.HasAPIKey())
	return c.JSON(http.StatusOK, config.Masked())
}
