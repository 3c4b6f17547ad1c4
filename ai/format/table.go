package format

import (
	"regexp"
	"strings"
)

// separatorLine matches markdown table separators such as |---|:---:|.
var separatorLine = regexp.MustCompile(`^[|\s\-:]+$`)

// ParsedTable is a header plus data rows. Every row has exactly len(Header) cells.
type ParsedTable struct {
	Header []string
	Rows   [][]string
}

// ParseRow splits a pipe-delimited line into trimmed cells.
// One empty leading and one empty trailing cell (produced by outer pipes) are
// dropped; interior empty cells are kept so columns stay aligned.
func ParseRow(line string) []string {
	if !strings.Contains(line, "|") {
		return []string{}
	}

	cells := strings.Split(line, "|")
	if len(cells) > 0 && strings.TrimSpace(cells[0]) == "" {
		cells = cells[1:]
	}
	if len(cells) > 0 && strings.TrimSpace(cells[len(cells)-1]) == "" {
		cells = cells[:len(cells)-1]
	}

	out := make([]string, len(cells))
	for i, cell := range cells {
		out[i] = strings.TrimSpace(cell)
	}
	return out
}

// ParseBlock turns a run of table lines into a ParsedTable.
// It returns nil when no usable header line remains or the header has no cells;
// callers then keep the lines as plain text.
func ParseBlock(lines []string) *ParsedTable {
	var usable []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || !strings.Contains(trimmed, "|") || separatorLine.MatchString(trimmed) {
			continue
		}
		usable = append(usable, line)
	}
	if len(usable) == 0 {
		return nil
	}

	header := ParseRow(usable[0])
	if len(header) == 0 {
		return nil
	}

	table := &ParsedTable{Header: header}
	for _, line := range usable[1:] {
		cells := ParseRow(line)
		if len(cells) == 0 {
			continue
		}
		table.Rows = append(table.Rows, fitRow(cells, len(header)))
	}
	return table
}

// fitRow pads or truncates cells to width.
func fitRow(cells []string, width int) []string {
	row := make([]string, width)
	copy(row, cells)
	return row
}

// RenderTable renders a parsed table as HTML. Cell text is escaped.
func RenderTable(t *ParsedTable) string {
	var sb strings.Builder
	sb.WriteString(`<div class="` + ClassTable + `"><table class="ai-table"><thead><tr>`)
	for _, cell := range t.Header {
		sb.WriteString("<th>" + EscapeHTML(cell) + "</th>")
	}
	sb.WriteString("</tr></thead><tbody>")
	for _, row := range t.Rows {
		sb.WriteString("<tr>")
		for _, cell := range fitRow(row, len(t.Header)) {
			sb.WriteString("<td>" + EscapeHTML(cell) + "</td>")
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</tbody></table></div>")
	return sb.String()
}
