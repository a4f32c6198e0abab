// Package sanitize cleans user-supplied text before it is stored.
// Names are plain text with all markup removed; descriptions keep the safe
// subset of HTML allowed in user content.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strict = bluemonday.StrictPolicy()
	ugc    = bluemonday.UGCPolicy()
)

// Name strips every tag from s, unescapes the entities bluemonday produces,
// collapses inner whitespace and trims.
func Name(s string) string {
	if s == "" {
		return ""
	}
	clean := html.UnescapeString(strict.Sanitize(s))
	return strings.Join(strings.Fields(clean), " ")
}

// Labels trims each label, drops empties and duplicates, and keeps first-seen order.
func Labels(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, l := range in {
		l = Name(l)
		if l == "" {
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}

// Description keeps formatting markup but removes scripts, event handlers and
// unsafe URLs.
func Description(s string) string {
	return strings.TrimSpace(ugc.Sanitize(s))
}
