package format

import "html"

// EscapeHTML escapes text so it renders verbatim as HTML text content or as a
// quoted attribute value. It covers &, <, >, " and '.
func EscapeHTML(text string) string {
	return html.EscapeString(text)
}
