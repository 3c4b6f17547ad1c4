package format

import (
	"bytes"
	"errors"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	chromastyles "github.com/alecthomas/chroma/v2/styles"
)

// ErrUnknownLanguage is returned when no lexer matches a fence language.
var ErrUnknownLanguage = errors.New("format: unknown code language")

// Highlighter turns raw source into highlighted, escaped HTML.
type Highlighter interface {
	Highlight(code, lang string) (string, error)
}

// ChromaHighlighter highlights fenced code with chroma using CSS classes, so
// the host stylesheet decides the colors.
type ChromaHighlighter struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

// NewChromaHighlighter creates a highlighter for the named chroma style.
func NewChromaHighlighter(style string) *ChromaHighlighter {
	s := chromastyles.Get(style)
	if s == nil {
		s = chromastyles.Fallback
	}
	return &ChromaHighlighter{
		style: s,
		formatter: chromahtml.New(
			chromahtml.WithClasses(true),
			chromahtml.PreventSurroundingPre(true),
		),
	}
}

// Highlight implements Highlighter. Unknown languages are an error so the
// caller keeps the plain escaped body.
func (h *ChromaHighlighter) Highlight(code, lang string) (string, error) {
	lexer := lexers.Get(lang)
	if lexer == nil {
		return "", ErrUnknownLanguage
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, h.style, iterator); err != nil {
		return "", err
	}
	return buf.String(), nil
}
