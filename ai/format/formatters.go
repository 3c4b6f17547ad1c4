package format

import (
	"fmt"
	"regexp"
	"strings"
)

// statusKind is the sub-type of a status banner.
type statusKind struct {
	name    string
	icon    string
	pattern *regexp.Regexp
}

// statusKinds are checked in order; info is the fallback.
var statusKinds = []statusKind{
	{"success", "✅", regexp.MustCompile(`(?i)✅|thành công|hoàn thành`)},
	{"error", "❌", regexp.MustCompile(`(?i)❌|lỗi|error|failed`)},
	{"warning", "⚠️", regexp.MustCompile(`(?i)⚠️|cảnh báo|warning`)},
}

var infoStatus = statusKind{name: "info", icon: "ℹ️"}

// formatByType runs the formatter for ct and returns the document fragments.
// Extra fragments follow the content and stay inside any status or HR card.
func formatByType(ct ContentType, content string, data *SideData, labels Labels, extra ...Fragment) ([]Fragment, error) {
	switch ct {
	case ContentHRAction:
		return formatHRAction(content, data, labels, extra...), nil
	case ContentTable:
		return append(formatTable(content), extra...), nil
	case ContentCode:
		return append(formatCode(content), extra...), nil
	case ContentStatus:
		return formatStatus(content, extra...), nil
	case ContentMarkdown:
		return append([]Fragment{Text(content)}, extra...), nil
	default:
		return nil, fmt.Errorf("unknown content type %q", ct)
	}
}

func formatHRAction(content string, data *SideData, labels Labels, extra ...Fragment) []Fragment {
	var head strings.Builder
	head.WriteString(`<div class="` + ClassHRAction + `"><div class="hr-action-header"><div class="hr-action-title"><h4>`)
	head.WriteString(EscapeHTML(labels.HRAssistantTitle))
	head.WriteString(`</h4></div></div>`)
	if data != nil && data.APICalled != "" {
		head.WriteString(`<div class="hr-action-details"><div class="action-detail-item"><strong>API:</strong> <code>`)
		head.WriteString(EscapeHTML(data.APICalled))
		head.WriteString(`</code></div></div>`)
	}
	head.WriteString(`<div class="hr-action-content">`)

	frags := []Fragment{HTML(head.String()), Text(content)}
	frags = append(frags, extra...)
	return append(frags, HTML(`</div></div>`))
}

// formatCode leaves fences and inline code to the renderer's code stages.
func formatCode(content string) []Fragment {
	return []Fragment{Text(content)}
}

func formatStatus(content string, extra ...Fragment) []Fragment {
	kind := infoStatus
	for _, k := range statusKinds {
		if k.pattern.MatchString(content) {
			kind = k
			break
		}
	}
	frags := []Fragment{
		HTML(`<div class="` + ClassStatus + ` ai-status-` + kind.name + `"><div class="status-icon">` +
			kind.icon + `</div><div class="status-content">`),
		Text(content),
	}
	frags = append(frags, extra...)
	return append(frags, HTML(`</div></div>`))
}

// formatTable converts each contiguous run of pipe lines into an HTML table.
// Runs shorter than two lines, or that do not parse, stay as text.
func formatTable(content string) []Fragment {
	var (
		frags []Fragment
		text  []string
		run   []string
	)

	flushText := func() {
		if len(text) > 0 {
			frags = append(frags, Text(strings.Join(text, "\n")))
			text = nil
		}
	}
	flushRun := func() {
		if len(run) == 0 {
			return
		}
		if len(run) >= 2 {
			if table := ParseBlock(run); table != nil {
				flushText()
				frags = append(frags, HTML(RenderTable(table)))
				run = nil
				return
			}
		}
		text = append(text, run...)
		run = nil
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.Contains(line, "|") && strings.TrimSpace(line) != "" {
			run = append(run, line)
			continue
		}
		flushRun()
		text = append(text, line)
	}
	flushRun()
	flushText()

	return frags
}
