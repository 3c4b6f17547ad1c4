package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRow(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"outer pipes", "| a | b |", []string{"a", "b"}},
		{"no outer pipes", "a|b", []string{"a", "b"}},
		{"interior empty cell kept", "| a || c |", []string{"a", "", "c"}},
		{"leading pipe only", "| a | b", []string{"a", "b"}},
		{"no pipe", "just text", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRow(tt.line))
		})
	}
}

func TestParseBlock(t *testing.T) {
	t.Run("pads and truncates rows to header width", func(t *testing.T) {
		table := ParseBlock([]string{
			"| A | B |",
			"|---|:---:|",
			"| 1 | 2 |",
			"| 3 |",
			"| 4 | 5 | 6 |",
			"",
		})
		require.NotNil(t, table)
		assert.Equal(t, []string{"A", "B"}, table.Header)
		assert.Equal(t, [][]string{{"1", "2"}, {"3", ""}, {"4", "5"}}, table.Rows)
		for _, row := range table.Rows {
			assert.Len(t, row, len(table.Header))
		}
	})

	t.Run("separator only", func(t *testing.T) {
		assert.Nil(t, ParseBlock([]string{"|---|---|"}))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, ParseBlock(nil))
	})

	t.Run("header without rows", func(t *testing.T) {
		table := ParseBlock([]string{"| A | B |", "|---|---|"})
		require.NotNil(t, table)
		assert.Empty(t, table.Rows)
	})
}

func TestRenderTable(t *testing.T) {
	html := RenderTable(&ParsedTable{
		Header: []string{"Name", "<b>Role</b>"},
		Rows:   [][]string{{"An", "Dev & Ops"}, {"Bình"}},
	})

	assert.Equal(t,
		`<div class="ai-table-container"><table class="ai-table"><thead><tr><th>Name</th><th>&lt;b&gt;Role&lt;/b&gt;</th></tr></thead>`+
			`<tbody><tr><td>An</td><td>Dev &amp; Ops</td></tr><tr><td>Bình</td><td></td></tr></tbody></table></div>`,
		html)
}
