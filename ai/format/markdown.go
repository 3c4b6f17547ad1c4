package format

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// StageName identifies one markdown transformation stage.
type StageName string

const (
	StageHeader     StageName = "header"
	StageBold       StageName = "bold"
	StageItalic     StageName = "italic"
	StageInlineCode StageName = "inline_code"
	StageLink       StageName = "link"
	StageFence      StageName = "fence"
	StageLineBreak  StageName = "line_break"
)

// Stage is one ordered substitution over a document. Stages see escaped text
// in which fenced code and emitted blocks are replaced by inert placeholders.
// Inline spans emitted before the link stage are reverted to their source
// delimiters inside link targets, so an href never carries emitted markup.
type Stage interface {
	Name() StageName
	Apply(doc *document)
}

var (
	fencePattern       = regexp.MustCompile("(?s)```(\\w+)?\\n(.*?)```")
	headerPattern      = regexp.MustCompile(`(?m)^(#{1,4}) (.+)$`)
	boldPattern        = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicPattern      = regexp.MustCompile(`\*(.*?)\*`)
	inlineCodePattern  = regexp.MustCompile("`([^`]+)`")
	linkPattern        = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	placeholderPattern = regexp.MustCompile(`\x00([fb])(\d+)\x00`)
	paragraphBreak     = regexp.MustCompile(`\n(?:[ \t]*\n)+`)
	blockTag           = regexp.MustCompile(`<(?:h[1-4]|div|table|pre)[ >]|\x00b`)
)

// document is the working state of one text fragment.
type document struct {
	text         string
	fences       []string
	blocks       []string
	conservative bool
}

func (d *document) addBlock(markup string) string {
	d.blocks = append(d.blocks, markup)
	return placeholder('b', len(d.blocks)-1)
}

func placeholder(kind byte, idx int) string {
	return "\x00" + string(kind) + strconv.Itoa(idx) + "\x00"
}

// assemble swaps placeholders back for their markup.
func (d *document) assemble() string {
	return placeholderPattern.ReplaceAllStringFunc(d.text, func(m string) string {
		sub := placeholderPattern.FindStringSubmatch(m)
		idx, err := strconv.Atoi(sub[2])
		if err != nil {
			return ""
		}
		if sub[1] == "b" && idx < len(d.blocks) {
			return d.blocks[idx]
		}
		if sub[1] == "f" && idx < len(d.fences) {
			return d.fences[idx]
		}
		return ""
	})
}

// Renderer applies the fixed markdown subset to text.
type Renderer struct {
	stages []Stage
}

// RendererOption configures a Renderer.
type RendererOption func(*rendererOptions)

type rendererOptions struct {
	highlighter Highlighter
}

// WithHighlighter enables syntax highlighting of fenced code blocks.
func WithHighlighter(h Highlighter) RendererOption {
	return func(o *rendererOptions) { o.highlighter = h }
}

// NewRenderer builds the renderer with its stages in their required order.
func NewRenderer(opts ...RendererOption) *Renderer {
	var o rendererOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Renderer{
		stages: []Stage{
			headerStage{},
			boldStage{},
			italicStage{},
			inlineCodeStage{},
			linkStage{},
			fenceStage{highlighter: o.highlighter},
			lineBreakStage{},
		},
	}
}

// Stages lists the stage names in application order.
func (r *Renderer) Stages() []StageName {
	names := make([]StageName, len(r.stages))
	for i, s := range r.stages {
		names[i] = s.Name()
	}
	return names
}

// Render renders a single piece of free text.
func (r *Renderer) Render(text string) string {
	return r.RenderFragments([]Fragment{Text(text)})
}

// RenderFragments renders text fragments and passes markup fragments through.
// If any fragment carries a scenario section, line breaks are handled
// conservatively everywhere.
func (r *Renderer) RenderFragments(frags []Fragment) string {
	conservative := false
	for _, f := range frags {
		if strings.Contains(f.Body, ScenarioMarker) {
			conservative = true
			break
		}
	}

	var sb strings.Builder
	for _, f := range frags {
		if f.Kind == FragmentHTML {
			sb.WriteString(f.Body)
			continue
		}
		sb.WriteString(r.renderText(f.Body, conservative))
	}
	return sb.String()
}

func (r *Renderer) renderText(text string, conservative bool) string {
	doc := &document{conservative: conservative}
	escaped := EscapeHTML(strings.ReplaceAll(text, "\x00", ""))
	doc.text = fencePattern.ReplaceAllStringFunc(escaped, func(m string) string {
		doc.fences = append(doc.fences, m)
		return placeholder('f', len(doc.fences)-1)
	})
	for _, s := range r.stages {
		s.Apply(doc)
	}
	return doc.assemble()
}

type headerStage struct{}

func (headerStage) Name() StageName { return StageHeader }

func (headerStage) Apply(doc *document) {
	doc.text = headerPattern.ReplaceAllStringFunc(doc.text, func(m string) string {
		sub := headerPattern.FindStringSubmatch(m)
		level := len(sub[1])
		return fmt.Sprintf(`<h%d class="ai-h%d">%s</h%d>`, level, level, sub[2], level)
	})
}

type boldStage struct{}

func (boldStage) Name() StageName { return StageBold }

func (boldStage) Apply(doc *document) {
	doc.text = boldPattern.ReplaceAllString(doc.text, `<strong class="ai-bold">$1</strong>`)
}

type italicStage struct{}

func (italicStage) Name() StageName { return StageItalic }

func (italicStage) Apply(doc *document) {
	doc.text = italicPattern.ReplaceAllString(doc.text, `<em class="ai-italic">$1</em>`)
}

type inlineCodeStage struct{}

func (inlineCodeStage) Name() StageName { return StageInlineCode }

// Apply relies on the text being escaped already; code bodies are not escaped twice.
func (inlineCodeStage) Apply(doc *document) {
	doc.text = inlineCodePattern.ReplaceAllString(doc.text, `<code class="ai-inline-code">$1</code>`)
}

type linkStage struct{}

func (linkStage) Name() StageName { return StageLink }

func (linkStage) Apply(doc *document) {
	doc.text = linkPattern.ReplaceAllStringFunc(doc.text, func(m string) string {
		sub := linkPattern.FindStringSubmatch(m)
		label, href := sub[1], restoreInlineMarkup.Replace(sub[2])
		if strings.ContainsAny(href, "<>\"\x00") || !isSafeURL(html.UnescapeString(href)) {
			return label
		}
		return `<a href="` + href + `" class="ai-link" target="_blank" rel="noopener noreferrer">` + label + `</a>`
	})
}

// restoreInlineMarkup turns spans emitted by the bold, italic and inline code
// stages back into the delimiters they came from.
var restoreInlineMarkup = strings.NewReplacer(
	`<strong class="ai-bold">`, "**",
	`</strong>`, "**",
	`<em class="ai-italic">`, "*",
	`</em>`, "*",
	`<code class="ai-inline-code">`, "`",
	`</code>`, "`",
)

// isSafeURL accepts relative references and http, https and mailto URLs.
func isSafeURL(raw string) bool {
	cleaned := strings.Map(func(r rune) rune {
		if r <= ' ' || r == 0x7f {
			return -1
		}
		return r
	}, raw)
	if cleaned == "" {
		return false
	}
	u, err := url.Parse(cleaned)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "mailto":
		return true
	default:
		return false
	}
}

type fenceStage struct {
	highlighter Highlighter
}

func (fenceStage) Name() StageName { return StageFence }

func (s fenceStage) Apply(doc *document) {
	doc.text = placeholderPattern.ReplaceAllStringFunc(doc.text, func(m string) string {
		sub := placeholderPattern.FindStringSubmatch(m)
		if sub[1] != "f" {
			return m
		}
		idx, err := strconv.Atoi(sub[2])
		if err != nil || idx >= len(doc.fences) {
			return m
		}
		fence := fencePattern.FindStringSubmatch(doc.fences[idx])
		if fence == nil {
			return m
		}
		return doc.addBlock(s.renderBlock(fence[1], fence[2]))
	})
}

// renderBlock renders one fenced block. body arrives escaped.
func (s fenceStage) renderBlock(lang, body string) string {
	if lang == "" {
		lang = "text"
	}
	code := strings.TrimSpace(body)
	if s.highlighter != nil {
		if highlighted, err := s.highlighter.Highlight(html.UnescapeString(code), lang); err == nil {
			code = highlighted
		}
	}
	return `<div class="` + ClassCodeBlock + `"><div class="code-header"><span class="code-language">` + lang +
		`</span></div><pre class="code-content"><code class="language-` + lang + `">` + code + `</code></pre></div>`
}

type lineBreakStage struct{}

func (lineBreakStage) Name() StageName { return StageLineBreak }

func (lineBreakStage) Apply(doc *document) {
	if doc.conservative {
		doc.text = conservativeBreaks(doc.text)
		return
	}

	var sb strings.Builder
	for _, chunk := range paragraphBreak.Split(doc.text, -1) {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		chunk = strings.ReplaceAll(strings.Trim(chunk, "\n"), "\n", "<br>")
		if blockTag.MatchString(chunk) {
			sb.WriteString(chunk)
			continue
		}
		sb.WriteString(`<p class="` + ClassParagraph + `">` + chunk + `</p>`)
	}
	doc.text = sb.String()
}

// conservativeBreaks turns a newline into <br> unless markup or whitespace follows it.
func conservativeBreaks(s string) string {
	var sb strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if r != '\n' {
			sb.WriteRune(r)
			continue
		}
		if i+1 < len(runes) {
			next := runes[i+1]
			if next == '<' || next == 0 || unicode.IsSpace(next) {
				sb.WriteRune(r)
				continue
			}
		}
		sb.WriteString("<br>")
	}
	return sb.String()
}
