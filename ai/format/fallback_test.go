package format

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGFMRenderer_Render(t *testing.T) {
	g := NewGFMRenderer()

	out, err := g.Render("# Title\n\n<script>alert(1)</script>\n\n| A | B |\n|---|---|\n| 1 | 2 |\n\n[x](javascript:alert(1))")
	require.NoError(t, err)

	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<td>1</td>")
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "javascript:")
}

func TestGFMRenderer_Format(t *testing.T) {
	g := NewGFMRenderer()

	res := g.Format(context.Background(), &FormatRequest{Content: "**bold**"})
	assert.False(t, res.Failed)
	assert.Contains(t, res.HTML, `<div class="ai-response-formatted ai-response-type-markdown" data-message-type="assistant">`)
	assert.Contains(t, res.HTML, "<strong>bold</strong>")

	res = g.Format(context.Background(), &FormatRequest{Content: 42})
	assert.True(t, res.Failed)
	assert.Contains(t, res.HTML, ClassError)

	res = g.Format(context.Background(), nil)
	assert.True(t, res.Failed)
}
