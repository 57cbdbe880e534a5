// Package htmlsanitize cleans user-supplied text before it is stored.
// Listing names and addresses are plain text; descriptions may carry a
// small set of formatting tags.
package htmlsanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strict     *bluemonday.Policy
	rich       *bluemonday.Policy
	policyOnce sync.Once
)

func policies() (*bluemonday.Policy, *bluemonday.Policy) {
	policyOnce.Do(func() {
		strict = bluemonday.StrictPolicy()

		rich = bluemonday.NewPolicy()
		rich.AllowElements("p", "br", "b", "strong", "i", "em", "u", "ul", "ol", "li")
	})
	return strict, rich
}

// Text strips every tag and returns trimmed plain text. Entities produced
// by the policy are unescaped so "Tom & Jerry" round-trips unchanged.
func Text(s string) string {
	if s == "" {
		return ""
	}
	p, _ := policies()
	return strings.TrimSpace(html.UnescapeString(p.Sanitize(s)))
}

// RichText keeps basic formatting and removes everything else.
func RichText(s string) string {
	if s == "" {
		return ""
	}
	_, p := policies()
	return strings.TrimSpace(p.Sanitize(s))
}

// Strings applies Text to every element in place and drops empty results.
func Strings(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if v := Text(s); v != "" {
			out = append(out, v)
		}
	}
	return out
}
