// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package markdown post-processes generated articles. Generated articles
// must not contain hyperlinks; backends run their output through StripLinks
// before returning it.
package markdown

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// inlineLinkPattern matches [text](url) and ![alt](url), capturing the
// bracketed text. Nested brackets are not handled; StripLinks iterates
// until the document parses link-free.
var inlineLinkPattern = regexp.MustCompile(`!?\[([^\[\]]*)\]\([^()]*\)`)

// autoLinkPattern matches <https://...> style autolinks.
var autoLinkPattern = regexp.MustCompile(`<(?:https?|ftp|mailto):[^>]*>`)

// referenceDefPattern matches reference-style link definitions on their own
// line: [label]: https://example.com
var referenceDefPattern = regexp.MustCompile(`(?m)^\s*\[[^\[\]]+\]:\s+\S+.*$`)

// maxStripPasses bounds the rewrite loop for pathological nesting.
const maxStripPasses = 5

// HasLinks reports whether the Markdown document contains any hyperlink
// (inline link, image, or autolink). Detection walks the goldmark AST, so
// links inside emphasis, lists, or block quotes are found.
func HasLinks(doc string) bool {
	source := []byte(doc)
	root := goldmark.New().Parser().Parse(text.NewReader(source))

	found := false
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindLink, ast.KindAutoLink, ast.KindImage:
			found = true
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return found
}

// StripLinks rewrites a Markdown document so it contains no hyperlinks.
// Inline links and images are replaced by their anchor/alt text, autolinks
// are removed, and reference-style link definitions are dropped. The result is
// verified with HasLinks after each pass.
func StripLinks(doc string) string {
	out := doc
	for i := 0; i < maxStripPasses; i++ {
		out = inlineLinkPattern.ReplaceAllString(out, "$1")
		out = autoLinkPattern.ReplaceAllString(out, "")
		out = referenceDefPattern.ReplaceAllString(out, "")
		if !HasLinks(out) {
			return out
		}
	}
	// A link survived the rewrite passes (e.g. deeply nested brackets).
	// Fall back to dropping bare bracket/paren link syntax wholesale.
	out = regexp.MustCompile(`\]\([^()]*\)`).ReplaceAllString(out, "]")
	return strings.TrimSpace(out)
}
