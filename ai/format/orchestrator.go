package format

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// ErrInvalidContent is reported for non-string or empty content.
var ErrInvalidContent = errors.New("format: invalid content")

// DefaultMessageType is used when the caller passes none.
const DefaultMessageType = "assistant"

// Orchestrator is the public entry point of the formatting pipeline.
type Orchestrator struct {
	enhancer *Enhancer
	renderer *Renderer
	labels   Labels
	observer Observer
}

type orchestratorOptions struct {
	analyzer    ScenarioAnalyzer
	eligibility Eligibility
	limiter     *rate.Limiter
	renderer    *Renderer
	labels      Labels
	observer    Observer
}

// Option configures an Orchestrator.
type Option func(*orchestratorOptions)

// WithAnalyzer injects the scenario analyzer instead of building one from settings.
func WithAnalyzer(a ScenarioAnalyzer) Option {
	return func(o *orchestratorOptions) { o.analyzer = a }
}

// WithEligibilityRule replaces the default keyword eligibility check.
func WithEligibilityRule(e Eligibility) Option {
	return func(o *orchestratorOptions) { o.eligibility = e }
}

// WithRateLimiter throttles analyzer requests built from settings.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(o *orchestratorOptions) { o.limiter = l }
}

// WithRenderer replaces the default markdown renderer.
func WithRenderer(r *Renderer) Option {
	return func(o *orchestratorOptions) { o.renderer = r }
}

// WithLabels overrides the user-visible strings.
func WithLabels(l Labels) Option {
	return func(o *orchestratorOptions) { o.labels = l }
}

// WithObserver sets the metrics observer.
func WithObserver(obs Observer) Option {
	return func(o *orchestratorOptions) { o.observer = obs }
}

// NewOrchestrator builds a pipeline around the given analyzer settings.
// When settings are configured and no analyzer is injected, an LLM-backed
// analyzer is created; if that fails, enhancement is disabled.
func NewOrchestrator(settings Settings, opts ...Option) *Orchestrator {
	o := orchestratorOptions{labels: DefaultLabels()}
	for _, opt := range opts {
		opt(&o)
	}
	o.labels = o.labels.WithDefaults()
	if o.observer == nil {
		o.observer = nopObserver{}
	}
	if o.renderer == nil {
		o.renderer = NewRenderer()
	}

	analyzer := o.analyzer
	if analyzer == nil && settings.IsConfigured() {
		a, err := NewLLMAnalyzerFromSettings(settings, o.limiter)
		if err != nil {
			slog.Warn("scenario analyzer unavailable, enhancement disabled", "error", err)
		} else {
			analyzer = a
		}
	}

	enhancerOpts := []EnhancerOption{WithEnhancerLabels(o.labels), WithEnhancerObserver(o.observer)}
	if o.eligibility != nil {
		enhancerOpts = append(enhancerOpts, WithEligibility(o.eligibility))
	}

	return &Orchestrator{
		enhancer: NewEnhancer(settings, analyzer, enhancerOpts...),
		renderer: o.renderer,
		labels:   o.labels,
		observer: o.observer,
	}
}

// FormatResponse renders content to HTML. It always returns HTML; invalid
// input and internal failures come back as error fragments.
func (o *Orchestrator) FormatResponse(ctx context.Context, content any, messageType string, data *SideData) string {
	return o.Format(ctx, &FormatRequest{Content: content, MessageType: messageType, Data: data}).HTML
}

// Format implements Formatter.
func (o *Orchestrator) Format(ctx context.Context, req *FormatRequest) (res *FormatResult) {
	start := time.Now()
	res = &FormatResult{}
	messageType := DefaultMessageType
	if req != nil && req.MessageType != "" {
		messageType = req.MessageType
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("response formatting panicked", "panic", r)
			res.HTML = errorHTML(o.labels.FormatError + fmt.Sprint(r))
			res.Failed = true
		}
		res.Latency = time.Since(start)
		o.observer.ObserveFormat(res.ContentType, messageType, res.Latency, res.Failed)
	}()

	if req == nil {
		res.HTML = errorHTML(o.labels.InvalidContent)
		res.Failed = true
		return res
	}
	content, ok := req.Content.(string)
	if !ok || content == "" {
		slog.Debug("rejecting invalid content", "error", ErrInvalidContent, "type", fmt.Sprintf("%T", req.Content))
		res.HTML = errorHTML(o.labels.InvalidContent)
		res.Failed = true
		return res
	}

	enhancement := o.enhancer.Analyze(ctx, content)
	res.Enhanced = enhancement.Applied()
	res.ContentType = Classify(enhancement.String(), req.Data)

	var extra []Fragment
	if res.Enhanced {
		extra = append(extra, HTML(enhancement.Table))
	}
	frags, err := formatByType(res.ContentType, content, req.Data, o.labels, extra...)
	if err != nil {
		slog.Error("response formatting failed", "error", err, "content_type", res.ContentType)
		res.HTML = errorHTML(o.labels.FormatError + err.Error())
		res.Failed = true
		return res
	}

	body := o.renderer.RenderFragments(frags)
	res.HTML = container(body, res.ContentType, messageType)
	return res
}

func container(body string, ct ContentType, messageType string) string {
	return `<div class="` + ClassContainer + ` ai-response-type-` + string(ct) + `" data-message-type="` +
		EscapeHTML(messageType) + `"><div class="` + ClassBody + `">` + body + `</div></div>`
}

func errorHTML(message string) string {
	return `<div class="` + ClassError + `"><div class="error-icon">⚠️</div><div class="error-message">` +
		EscapeHTML(message) + `</div></div>`
}
