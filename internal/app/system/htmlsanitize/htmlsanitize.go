// Package htmlsanitize cleans operator-authored HTML (session notes)
// before it is embedded in notification emails.
package htmlsanitize

import (
	"html"
	"html/template"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func notesPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		tableElems := []string{"table", "thead", "tbody", "tfoot", "tr", "td", "th"}
		p.AllowAttrs("class").OnElements(tableElems...)
		p.AllowStyles("width", "text-align", "vertical-align", "border", "padding").OnElements(tableElems...)
		p.AllowElements("u", "s", "mark", "sub", "sup", "hr", "br")
		policy = p
	})
	return policy
}

// Sanitize strips anything unsafe from s.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return notesPolicy().Sanitize(s)
}

// SanitizeToHTML sanitizes s for direct use in an html/template.
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}

// IsPlainText reports whether s has no markup.
func IsPlainText(s string) bool {
	return !(strings.Contains(s, "<") && strings.Contains(s, ">"))
}

// PlainTextToHTML escapes s and wraps it in a paragraph, turning newlines
// into <br>.
func PlainTextToHTML(s string) string {
	if s == "" {
		return ""
	}
	escaped := html.EscapeString(s)
	return "<p>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</p>"
}

// PrepareForDisplay accepts either plain text or HTML and returns safe HTML.
func PrepareForDisplay(s string) template.HTML {
	if s == "" {
		return ""
	}
	if IsPlainText(s) {
		return template.HTML(PlainTextToHTML(s))
	}
	return SanitizeToHTML(s)
}
