package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		content string
		data    *SideData
		want    ContentType
	}{
		{"hr action wins over table", "| A |\n| 1 |", &SideData{HRAction: true}, ContentHRAction},
		{"side data without action", "plain text", &SideData{}, ContentMarkdown},
		{"pipe table", "| A | B |\n|---|---|\n| 1 | 2 |", nil, ContentTable},
		{"single pipe line", "a | b", nil, ContentMarkdown},
		{"code fence", "```go\nfmt.Println()\n```", nil, ContentCode},
		{"fence containing pipes is a table", "```\na | b\nc | d\n```", nil, ContentTable},
		{"success glyph", "✅ Đã lưu", nil, ContentStatus},
		{"error glyph", "❌ Thất bại", nil, ContentStatus},
		{"warning glyph", "⚠️ Chú ý", nil, ContentStatus},
		{"fence beats status", "✅ done\n```\nx\n```", nil, ContentCode},
		{"markdown", "# Title\n\nSome **bold** text", nil, ContentMarkdown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.content, tt.data))
		})
	}
}
