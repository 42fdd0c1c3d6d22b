package htmlutil

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// text inside these elements is never rendered as content
func skipped(node *html.Node) bool {
	if node.Type == html.CommentNode {
		return true
	}
	if node.Type != html.ElementNode {
		return false
	}
	switch node.DataAtom {
	case atom.Script, atom.Style, atom.Template, atom.Noscript:
		return true
	}
	return false
}

func collectStripped(node *html.Node, out *[]string) {
	if node == nil || skipped(node) {
		return
	}
	if node.Type == html.TextNode {
		text := strings.TrimSpace(node.Data)
		if text != "" {
			*out = append(*out, text)
		}
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectStripped(child, out)
	}
}

// StrippedText trims every text node under the selection, drops the empty
// ones and joins the rest with sep.
func StrippedText(sel *goquery.Selection, sep string) string {
	var parts []string
	for _, n := range sel.Nodes {
		collectStripped(n, &parts)
	}
	return strings.Join(parts, sep)
}

// TrimmedAttr returns the whitespace-trimmed value of the attribute on the
// first node in the selection.
func TrimmedAttr(sel *goquery.Selection, name string) (string, bool) {
	value, ok := sel.First().Attr(name)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(value), true
}
