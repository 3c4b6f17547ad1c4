// Package format turns AI-generated chat responses into styled HTML.
//
// The pipeline is Enhancer -> Classifier -> type-specific formatter ->
// markdown Renderer -> container. FormatResponse never panics and never
// returns an error: failures become rendered error fragments.
package format

import (
	"context"
	"time"
)

// ContentType is the coarse category that selects a type-specific formatter.
type ContentType string

const (
	ContentHRAction ContentType = "hr_action"
	ContentTable    ContentType = "table"
	ContentCode     ContentType = "code"
	ContentStatus   ContentType = "status"
	ContentMarkdown ContentType = "markdown"
)

// CSS hooks shared with the host stylesheet.
const (
	ClassContainer = "ai-response-formatted"
	ClassBody      = "ai-response-body"
	ClassError     = "ai-response-error"
	ClassTable     = "ai-table-container"
	ClassCodeBlock = "ai-code-block"
	ClassHRAction  = "ai-hr-action-response"
	ClassStatus    = "ai-status-message"
	ClassParagraph = "ai-paragraph"

	// ScenarioMarker identifies an appended scenario table section.
	ScenarioMarker = "ai-intelligent-scenario-section"
)

// SideData is out-of-band metadata accompanying a message.
type SideData struct {
	HRAction  bool   `json:"hr_action"`
	APICalled string `json:"api_called,omitempty"`
	Intent    string `json:"intent,omitempty"`
}

// Formatter renders one message body to HTML.
type Formatter interface {
	Format(ctx context.Context, req *FormatRequest) *FormatResult
}

// FormatRequest is a single formatting call. Content is untyped because hosts
// may hand over arbitrary JSON values; anything but a non-empty string is
// rejected with an error fragment.
type FormatRequest struct {
	Content     any
	MessageType string
	Data        *SideData
}

// FormatResult carries the rendered HTML and what the pipeline decided.
type FormatResult struct {
	HTML        string
	ContentType ContentType
	Enhanced    bool
	Failed      bool
	Latency     time.Duration
}

// FragmentKind tells the renderer whether a fragment is trusted markup.
type FragmentKind int

const (
	// FragmentText is untrusted text; it is escaped and markdown-rendered.
	FragmentText FragmentKind = iota
	// FragmentHTML is markup built by this package and emitted as is.
	FragmentHTML
)

// Fragment is one piece of a formatted document.
type Fragment struct {
	Kind FragmentKind
	Body string
}

// Text returns an untrusted text fragment.
func Text(s string) Fragment { return Fragment{Kind: FragmentText, Body: s} }

// HTML returns a trusted markup fragment.
func HTML(s string) Fragment { return Fragment{Kind: FragmentHTML, Body: s} }
