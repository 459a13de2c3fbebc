package dedup

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/foduucom/themeconv/core"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// removedElements are dropped together with everything inside them.
const removedElements = "script, style, noscript"

// volatileAttrs differ between otherwise identical blocks.
var volatileAttrs = []string{"id", "style", "data-id"}

var whitespace = regexp.MustCompile(`\s+`)

// Normalize reduces fragment markup to its structural skeleton.
// It is deterministic and idempotent.
//
// Fragments are parsed in template context so table parts such as <tr> or
// <td> survive without an enclosing <table>. A fragment carrying its own
// <html>, <head> or <body> tag is parsed as a whole document instead.
func Normalize(fragment string) (core.Skeleton, error) {
	root, err := parseFragment(fragment)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrParseFragment, err)
	}

	root.Find(removedElements).Remove()
	for _, n := range root.Nodes {
		stripNode(n)
	}

	out, err := root.Html()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrParseFragment, err)
	}
	return core.Skeleton(strings.TrimSpace(whitespace.ReplaceAllString(out, " "))), nil
}

// Fingerprint normalizes fragment and hashes the result.
func Fingerprint(fragment string) (core.Skeleton, core.Fingerprint, error) {
	skeleton, err := Normalize(fragment)
	if err != nil {
		return "", "", err
	}
	return skeleton, core.FingerprintOf(skeleton), nil
}

// parseFragment returns a selection over a document node holding the parsed
// fragment.
func parseFragment(fragment string) (*goquery.Selection, error) {
	if hasDocumentShell(fragment) {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
		if err != nil {
			return nil, err
		}
		return doc.Selection, nil
	}

	tmpl := &html.Node{Type: html.ElementNode, Data: "template", DataAtom: atom.Template}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), tmpl)
	if err != nil {
		return nil, err
	}
	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return goquery.NewDocumentFromNode(root).Selection, nil
}

// hasDocumentShell reports whether fragment opens an html, head or body
// element of its own.
func hasDocumentShell(fragment string) bool {
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Html, atom.Head, atom.Body:
				return true
			}
		}
	}
}

// stripNode removes text, comment and doctype children and volatile
// attributes from n's subtree.
func stripNode(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch c.Type {
		case html.TextNode, html.CommentNode, html.DoctypeNode:
			n.RemoveChild(c)
		case html.ElementNode:
			c.Attr = slices.DeleteFunc(c.Attr, func(a html.Attribute) bool {
				return a.Namespace == "" && slices.Contains(volatileAttrs, a.Key)
			})
			stripNode(c)
		default:
			stripNode(c)
		}
		c = next
	}
}
