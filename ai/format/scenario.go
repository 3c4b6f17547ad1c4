package format

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hrygo/sbotchat/ai/internal/strutil"
)

var (
	// ErrNotConfigured means no analyzer credential is available.
	ErrNotConfigured = errors.New("format: scenario analyzer not configured")
	// ErrNoJSON means the model reply contained no JSON object.
	ErrNoJSON = errors.New("format: no JSON object in analyzer reply")
)

// MinScenarioContentLength is the shortest content, in characters, worth analyzing.
const MinScenarioContentLength = 50

var (
	scenarioKeywords = regexp.MustCompile(`(?i)(trường hợp|kịch bản|tình huống|scenario|case|situation|onboarding|performance|policy|workflow|process)`)
	hrKeywords       = regexp.MustCompile(`nhân viên|employee|phòng ban|department|tuyển dụng|recruitment|lương|salary|nghỉ phép|leave`)
)

// Priority of a scenario row.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Normalize maps unknown or empty priorities to medium.
func (p Priority) Normalize() Priority {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p
	default:
		return PriorityMedium
	}
}

// Scenario is one row of a scenario table.
type Scenario struct {
	Situation string   `json:"situation"`
	Action    string   `json:"action"`
	Priority  Priority `json:"priority"`
}

// ScenarioAnalysis is the JSON contract the analyzer model must answer with.
type ScenarioAnalysis struct {
	ShouldCreateTable bool       `json:"should_create_table"`
	TableTitle        string     `json:"table_title,omitempty"`
	Scenarios         []Scenario `json:"scenarios"`
}

// Actionable reports whether the analysis asks for a non-empty table.
func (a *ScenarioAnalysis) Actionable() bool {
	return a != nil && a.ShouldCreateTable && len(a.Scenarios) > 0
}

// ScenarioAnalyzer judges whether content deserves a scenario table.
type ScenarioAnalyzer interface {
	AnalyzeScenarios(ctx context.Context, content string) (*ScenarioAnalysis, error)
}

// Eligibility decides whether content is worth sending to the analyzer.
type Eligibility interface {
	Eligible(content string) bool
}

// KeywordEligibility requires a minimum length plus a scenario or HR keyword.
type KeywordEligibility struct {
	MinLength int
}

// Eligible implements Eligibility.
func (k KeywordEligibility) Eligible(content string) bool {
	if utf8.RuneCountInString(content) < k.MinLength {
		return false
	}
	return scenarioKeywords.MatchString(content) || hrKeywords.MatchString(content)
}

// ParseScenarioReply extracts the first top-level JSON object from a model
// reply and decodes it.
func ParseScenarioReply(reply string) (*ScenarioAnalysis, error) {
	span, ok := firstJSONObject(reply)
	if !ok {
		return nil, ErrNoJSON
	}
	var analysis ScenarioAnalysis
	if err := json.Unmarshal([]byte(span), &analysis); err != nil {
		return nil, fmt.Errorf("decode scenario analysis: %w", err)
	}
	return &analysis, nil
}

// firstJSONObject returns the first balanced {...} span, honoring strings.
func firstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// Enhancement is the result of one enhancer run.
type Enhancement struct {
	Content  string
	Table    string
	Analysis *ScenarioAnalysis
	Outcome  EnhancementOutcome
	Err      error
}

// Applied reports whether a scenario table was produced.
func (e Enhancement) Applied() bool {
	return e.Outcome == OutcomeApplied && e.Table != ""
}

// String returns the enhanced content: the original, plus a blank line and
// the scenario table when one was applied.
func (e Enhancement) String() string {
	if !e.Applied() {
		return e.Content
	}
	return e.Content + "\n\n" + e.Table
}

// Enhancer appends model-judged scenario tables. It fails open: every error
// leaves the content unchanged.
type Enhancer struct {
	settings    Settings
	analyzer    ScenarioAnalyzer
	eligibility Eligibility
	labels      Labels
	observer    Observer
}

// EnhancerOption configures an Enhancer.
type EnhancerOption func(*Enhancer)

// WithEligibility replaces the keyword/length check.
func WithEligibility(e Eligibility) EnhancerOption {
	return func(en *Enhancer) { en.eligibility = e }
}

// WithEnhancerLabels sets the table labels.
func WithEnhancerLabels(l Labels) EnhancerOption {
	return func(en *Enhancer) { en.labels = l.WithDefaults() }
}

// WithEnhancerObserver sets the metrics observer.
func WithEnhancerObserver(o Observer) EnhancerOption {
	return func(en *Enhancer) {
		if o != nil {
			en.observer = o
		}
	}
}

// NewEnhancer creates an Enhancer. analyzer may be nil when settings are not configured.
func NewEnhancer(settings Settings, analyzer ScenarioAnalyzer, opts ...EnhancerOption) *Enhancer {
	e := &Enhancer{
		settings:    settings,
		analyzer:    analyzer,
		eligibility: KeywordEligibility{MinLength: MinScenarioContentLength},
		labels:      DefaultLabels(),
		observer:    nopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enhance returns content, with a scenario table appended when the analyzer
// explicitly asks for one.
func (e *Enhancer) Enhance(ctx context.Context, content string) string {
	return e.Analyze(ctx, content).String()
}

// Analyze runs eligibility, request, parse and apply, and reports the outcome.
func (e *Enhancer) Analyze(ctx context.Context, content string) (result Enhancement) {
	start := time.Now()
	result = Enhancement{Content: content}

	defer func() {
		if r := recover(); r != nil {
			result = Enhancement{Content: content, Outcome: OutcomeFailed, Err: fmt.Errorf("analyzer panic: %v", r)}
		}
		if result.Outcome == OutcomeFailed {
			slog.Warn("scenario enhancement failed, using original content",
				"error", result.Err,
				"content_preview", strutil.Preview(content, 80),
			)
		}
		e.observer.ObserveEnhancement(result.Outcome, time.Since(start))
	}()

	if !e.settings.IsConfigured() || e.analyzer == nil {
		result.Outcome = OutcomeNotConfigured
		return result
	}
	if !e.eligibility.Eligible(content) {
		result.Outcome = OutcomeIneligible
		return result
	}

	analysis, err := e.analyzer.AnalyzeScenarios(ctx, content)
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Err = err
		return result
	}
	result.Analysis = analysis
	if !analysis.Actionable() {
		result.Outcome = OutcomeDeclined
		return result
	}

	result.Table = RenderScenarioTable(analysis, e.labels)
	result.Outcome = OutcomeApplied
	slog.Debug("scenario table applied",
		"scenarios", len(analysis.Scenarios),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result
}

// RenderScenarioTable renders the scenario section. All model text is escaped.
func RenderScenarioTable(a *ScenarioAnalysis, labels Labels) string {
	labels = labels.WithDefaults()
	title := a.TableTitle
	if title == "" {
		title = labels.ScenarioTitle
	}

	var sb strings.Builder
	sb.WriteString(`<div class="` + ScenarioMarker + `">`)
	sb.WriteString(`<h3 class="scenario-title">` + EscapeHTML(title) + `</h3>`)
	sb.WriteString(`<div class="scenario-table-container"><table class="ai-scenario-table"><thead><tr>`)
	sb.WriteString(`<th class="scenario-number">#</th>`)
	sb.WriteString(`<th class="scenario-situation">` + EscapeHTML(labels.ScenarioSituation) + `</th>`)
	sb.WriteString(`<th class="scenario-action">` + EscapeHTML(labels.ScenarioAction) + `</th>`)
	sb.WriteString(`<th class="scenario-priority">` + EscapeHTML(labels.ScenarioPriority) + `</th>`)
	sb.WriteString(`</tr></thead><tbody>`)

	for i, s := range a.Scenarios {
		p := s.Priority.Normalize()
		sb.WriteString(`<tr class="scenario-row" data-priority="` + string(p) + `">`)
		sb.WriteString(`<td class="scenario-number">` + strconv.Itoa(i+1) + `</td>`)
		sb.WriteString(`<td class="scenario-situation">` + EscapeHTML(s.Situation) + `</td>`)
		sb.WriteString(`<td class="scenario-action">` + EscapeHTML(s.Action) + `</td>`)
		sb.WriteString(`<td class="scenario-priority"><span class="priority-badge priority-` + string(p) + `">` +
			EscapeHTML(priorityLabel(p, labels)) + `</span></td>`)
		sb.WriteString(`</tr>`)
	}

	sb.WriteString(`</tbody></table></div>`)
	sb.WriteString(`<div class="scenario-note"><i class="note-icon">💡</i><span>` + EscapeHTML(labels.ScenarioNote) + `</span></div>`)
	sb.WriteString(`</div>`)
	return sb.String()
}

func priorityLabel(p Priority, labels Labels) string {
	switch p {
	case PriorityHigh:
		return labels.PriorityHigh
	case PriorityLow:
		return labels.PriorityLow
	default:
		return labels.PriorityMedium
	}
}
