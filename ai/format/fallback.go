package format

import (
	"bytes"
	"context"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// GFMRenderer renders full GitHub Flavored Markdown and sanitizes the result.
// It is the fallback for clients that opt out of the fixed markdown subset;
// it does no classification and no scenario enhancement.
type GFMRenderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewGFMRenderer creates a GFMRenderer.
func NewGFMRenderer() *GFMRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Linkify,
			extension.TaskList,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "div", "span", "pre")
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	return &GFMRenderer{md: md, policy: policy}
}

// Render converts markdown to sanitized HTML.
func (g *GFMRenderer) Render(content string) (string, error) {
	var buf bytes.Buffer
	if err := g.md.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	return g.policy.Sanitize(buf.String()), nil
}

// Format implements Formatter. Non-string or empty content yields the
// standard error fragment.
func (g *GFMRenderer) Format(_ context.Context, req *FormatRequest) *FormatResult {
	labels := DefaultLabels()
	res := &FormatResult{ContentType: ContentMarkdown}
	content, ok := "", false
	if req != nil {
		content, ok = req.Content.(string)
	}
	if !ok || content == "" {
		res.HTML = errorHTML(labels.InvalidContent)
		res.Failed = true
		return res
	}

	body, err := g.Render(content)
	if err != nil {
		res.HTML = errorHTML(labels.FormatError + err.Error())
		res.Failed = true
		return res
	}
	messageType := DefaultMessageType
	if req.MessageType != "" {
		messageType = req.MessageType
	}
	res.HTML = container(body, res.ContentType, messageType)
	return res
}
