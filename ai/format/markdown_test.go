package format

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderer_StageOrder(t *testing.T) {
	assert.Equal(t, []StageName{
		StageHeader,
		StageBold,
		StageItalic,
		StageInlineCode,
		StageLink,
		StageFence,
		StageLineBreak,
	}, NewRenderer().Stages())
}

func TestRenderer_Render(t *testing.T) {
	r := NewRenderer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "header and paragraph",
			input: "# Title\n\nSome **bold** and *it* text.",
			want:  `<h1 class="ai-h1">Title</h1><p class="ai-paragraph">Some <strong class="ai-bold">bold</strong> and <em class="ai-italic">it</em> text.</p>`,
		},
		{
			name:  "header level four",
			input: "#### Small",
			want:  `<h4 class="ai-h4">Small</h4>`,
		},
		{
			name:  "line breaks within paragraph",
			input: "a\nb",
			want:  `<p class="ai-paragraph">a<br>b</p>`,
		},
		{
			name:  "paragraph per blank line",
			input: "a\n\n\nb",
			want:  `<p class="ai-paragraph">a</p><p class="ai-paragraph">b</p>`,
		},
		{
			name:  "escapes raw html",
			input: "<script>alert(1)</script>",
			want:  `<p class="ai-paragraph">&lt;script&gt;alert(1)&lt;/script&gt;</p>`,
		},
		{
			name:  "inline code",
			input: "run `go test` now",
			want:  `<p class="ai-paragraph">run <code class="ai-inline-code">go test</code> now</p>`,
		},
		{
			name:  "safe link",
			input: "[Odoo](https://odoo.com)",
			want:  `<p class="ai-paragraph"><a href="https://odoo.com" class="ai-link" target="_blank" rel="noopener noreferrer">Odoo</a></p>`,
		},
		{
			name:  "relative link",
			input: "[docs](/web#menu)",
			want:  `<p class="ai-paragraph"><a href="/web#menu" class="ai-link" target="_blank" rel="noopener noreferrer">docs</a></p>`,
		},
		{
			name:  "italic delimiters inside link target",
			input: "[docs](https://example.com/*draft*/page)",
			want:  `<p class="ai-paragraph"><a href="https://example.com/*draft*/page" class="ai-link" target="_blank" rel="noopener noreferrer">docs</a></p>`,
		},
		{
			name:  "bold delimiters inside link target",
			input: "[docs](https://example.com/**v2**/page)",
			want:  `<p class="ai-paragraph"><a href="https://example.com/**v2**/page" class="ai-link" target="_blank" rel="noopener noreferrer">docs</a></p>`,
		},
		{
			name:  "fenced code",
			input: "```go\nfmt.Println(\"hi\")\n```",
			want: `<div class="ai-code-block"><div class="code-header"><span class="code-language">go</span></div>` +
				`<pre class="code-content"><code class="language-go">fmt.Println(&#34;hi&#34;)</code></pre></div>`,
		},
		{
			name:  "fence body is not transformed",
			input: "```\n**x** `y`\n```",
			want: `<div class="ai-code-block"><div class="code-header"><span class="code-language">text</span></div>` +
				"<pre class=\"code-content\"><code class=\"language-text\">**x** `y`</code></pre></div>",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Render(tt.input))
		})
	}
}

func TestRenderer_UnsafeLinks(t *testing.T) {
	r := NewRenderer()

	for _, input := range []string{
		"[x](javascript:alert(1))",
		"[x](JaVaScRiPt:alert)",
		"[x](data:text/html,hi)",
		"[x](java\tscript:alert)",
	} {
		out := r.Render(input)
		assert.NotContains(t, out, "href", input)
		assert.Contains(t, out, "x", input)
	}
}

func TestRenderer_PlaceholderInjectionIsInert(t *testing.T) {
	out := NewRenderer().Render("a \x00b0\x00 b")
	assert.Equal(t, `<p class="ai-paragraph">a b0 b</p>`, out)
}

func TestRenderer_ConservativeMode(t *testing.T) {
	r := NewRenderer()
	section := `<div class="` + ScenarioMarker + `">table</div>`

	out := r.RenderFragments([]Fragment{Text("line one\nline two"), HTML(section)})
	assert.Equal(t, "line one<br>line two"+section, out)
	assert.NotContains(t, out, ClassParagraph)
}

func TestConservativeBreaks(t *testing.T) {
	assert.Equal(t, "a<br>b", conservativeBreaks("a\nb"))
	assert.Equal(t, "a\n<div>", conservativeBreaks("a\n<div>"))
	assert.Equal(t, "a\n<br>b", conservativeBreaks("a\n\nb"))
	assert.Equal(t, "a<br>", conservativeBreaks("a\n"))
}

type stubHighlighter struct {
	out string
	err error
}

func (s stubHighlighter) Highlight(code, lang string) (string, error) {
	return s.out, s.err
}

func TestRenderer_Highlighter(t *testing.T) {
	input := "```go\nx := 1\n```"

	out := NewRenderer(WithHighlighter(stubHighlighter{out: `<span class="n">x</span>`})).Render(input)
	assert.Contains(t, out, `<code class="language-go"><span class="n">x</span></code>`)

	out = NewRenderer(WithHighlighter(stubHighlighter{err: errors.New("boom")})).Render(input)
	assert.Contains(t, out, `<code class="language-go">x := 1</code>`)
}

func TestIsSafeURL(t *testing.T) {
	for _, u := range []string{"https://a.b", "http://a.b/c?d=e", "mailto:hr@example.com", "/relative", "page.html"} {
		assert.True(t, isSafeURL(u), u)
	}
	for _, u := range []string{"", "javascript:alert(1)", "vbscript:x", "data:text/html,x", " javascript:x", "file:///etc/passwd"} {
		assert.False(t, isSafeURL(u), u)
	}
}
