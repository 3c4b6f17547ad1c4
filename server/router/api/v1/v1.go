package v1

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/hrygo/sbotchat/ai/cache"
	"github.com/hrygo/sbotchat/ai/format"
	"github.com/hrygo/sbotchat/ai/metrics"
	"github.com/hrygo/sbotchat/internal/profile"
	"github.com/hrygo/sbotchat/store"
)

// UserIDHeader carries the caller's user ID. Authentication belongs to the
// host application in front of this service.
const UserIDHeader = "X-User-ID"

const (
	defaultUserID        = int32(1)
	orchestratorCacheTTL = 10 * time.Minute
	orchestratorCacheCap = 1000
)

// APIV1Service serves the formatter HTTP API.
type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store
	Metrics *metrics.PrometheusExporter

	labels      format.Labels
	eligibility format.Eligibility
	renderer    *format.Renderer
	fallback    *format.GFMRenderer
	limiter     *rate.Limiter

	// orchestrator per user, rebuilt when the user's config changes
	orchestrators *cache.LRUCache[int32, *format.Orchestrator]
}

// ServiceOption configures an APIV1Service.
type ServiceOption func(*APIV1Service)

// WithLabels overrides the user-visible strings of every orchestrator.
func WithLabels(l format.Labels) ServiceOption {
	return func(s *APIV1Service) { s.labels = l }
}

// NewAPIV1Service builds the service. The eligibility rule and highlight
// style come from the profile; an invalid rule is an error.
func NewAPIV1Service(profile *profile.Profile, store *store.Store, exporter *metrics.PrometheusExporter, opts ...ServiceOption) (*APIV1Service, error) {
	s := &APIV1Service{
		Profile:       profile,
		Store:         store,
		Metrics:       exporter,
		labels:        format.DefaultLabels(),
		fallback:      format.NewGFMRenderer(),
		orchestrators: cache.NewLRUCache[int32, *format.Orchestrator](orchestratorCacheCap, orchestratorCacheTTL),
	}
	for _, opt := range opts {
		opt(s)
	}

	if rule := strings.TrimSpace(profile.EligibilityRule); rule != "" {
		e, err := format.NewCELEligibility(rule)
		if err != nil {
			return nil, errors.Wrap(err, "invalid eligibility rule")
		}
		s.eligibility = e
	}

	var rendererOpts []format.RendererOption
	if profile.HighlightStyle != "" {
		rendererOpts = append(rendererOpts, format.WithHighlighter(format.NewChromaHighlighter(profile.HighlightStyle)))
	}
	s.renderer = format.NewRenderer(rendererOpts...)

	if profile.AnalyzerRPS > 0 {
		burst := profile.AnalyzerBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(profile.AnalyzerRPS), burst)
	}
	return s, nil
}

// RegisterRoutes registers the API routes on the given Echo instance.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.POST("/format", s.Format)
	g.POST("/messages/format", s.FormatMessages)
	g.GET("/config", s.GetConfig)
	g.PUT("/config", s.UpdateConfig)
}

// orchestrator returns the cached pipeline for a user, building it from the
// user's active configuration on a miss.
func (s *APIV1Service) orchestrator(ctx context.Context, userID int32) (*format.Orchestrator, error) {
	if o, ok := s.orchestrators.Get(userID); ok {
		s.recordCache(true)
		return o, nil
	}
	s.recordCache(false)

	config, err := s.Store.GetActiveFormatterConfig(ctx, userID)
	if err != nil {
		return nil, err
	}

	opts := []format.Option{
		format.WithLabels(s.labels),
		format.WithRenderer(s.renderer),
		format.WithRateLimiter(s.limiter),
	}
	if s.eligibility != nil {
		opts = append(opts, format.WithEligibilityRule(s.eligibility))
	}
	if s.Metrics != nil {
		opts = append(opts, format.WithObserver(s.Metrics))
	}

	o := format.NewOrchestrator(s.settingsFor(config), opts...)
	s.orchestrators.Set(userID, o)
	return o, nil
}

// settingsFor prefers the user's own key and falls back to the instance-wide
// analyzer credentials.
func (s *APIV1Service) settingsFor(config *store.FormatterConfig) format.Settings {
	timeout := time.Duration(s.Profile.LLMTimeout) * time.Second
	if config.HasAPIKey() {
		baseURL := ""
		if s.Profile.LLMProvider == "deepseek" {
			baseURL = s.Profile.LLMBaseURL
		}
		return format.Configured("deepseek", config.APIKey, config.ModelType, baseURL).WithTimeout(timeout)
	}
	if s.Profile.IsAnalyzerConfigured() {
		return format.Configured(s.Profile.LLMProvider, s.Profile.LLMAPIKey, s.Profile.LLMModel, s.Profile.LLMBaseURL).WithTimeout(timeout)
	}
	return format.NotConfigured()
}

func (s *APIV1Service) recordCache(hit bool) {
	if s.Metrics == nil {
		return
	}
	if hit {
		s.Metrics.RecordCacheHit("orchestrator")
	} else {
		s.Metrics.RecordCacheMiss("orchestrator")
	}
}

// userID reads the caller's ID from the request header.
func userID(c echo.Context) (int32, error) {
	raw := strings.TrimSpace(c.Request().Header.Get(UserIDHeader))
	if raw == "" {
		return defaultUserID, nil
	}
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+UserIDHeader+" header")
	}
	return int32(id), nil
}
