// Package sanitize cleans user supplied HTML before it's stored
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	rich  = richPolicy()
	plain = bluemonday.StrictPolicy()
)

func richPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("figure", "figcaption", "mark", "u", "s")
	p.AllowAttrs("class").OnElements("p", "span", "figure", "img", "code", "pre")
	p.AllowAttrs("width", "height").Matching(bluemonday.Integer).OnElements("img")
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// RecipeContent keeps formatting and images but drops scripts, handlers and styles
func RecipeContent(s string) string {
	return strings.TrimSpace(rich.Sanitize(s))
}

// BlogContent uses the same rules as recipes
func BlogContent(s string) string {
	return RecipeContent(s)
}

// Text strips all markup. Used for comments and short fields.
func Text(s string) string {
	return strings.TrimSpace(plain.Sanitize(s))
}
