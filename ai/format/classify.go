package format

import "strings"

// statusGlyphs mark a status-style message.
var statusGlyphs = []string{"✅", "❌", "⚠️"}

// Classify assigns exactly one ContentType. First match wins: side-data HR
// action, then pipe tables, then code fences, then status glyphs. A fenced
// block that contains a pipe therefore classifies as a table.
func Classify(content string, data *SideData) ContentType {
	if data != nil && data.HRAction {
		return ContentHRAction
	}

	if strings.Contains(content, "|") && countPipeLines(content) >= 2 {
		return ContentTable
	}

	if strings.Contains(content, "```") {
		return ContentCode
	}

	for _, g := range statusGlyphs {
		if strings.Contains(content, g) {
			return ContentStatus
		}
	}

	return ContentMarkdown
}

func countPipeLines(content string) int {
	n := 0
	for _, line := range strings.Split(content, "\n") {
		if strings.Contains(line, "|") {
			n++
		}
	}
	return n
}
