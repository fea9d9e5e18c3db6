package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// IsElement reports whether n is an element node.
func IsElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode
}

// Tag returns the lower-case tag name of n.
func Tag(n *html.Node) string {
	return strings.ToLower(n.Data)
}

// Attr returns the value of attribute key on n.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// AttrValue returns the value of attribute key, or "" when absent.
func AttrValue(n *html.Node, key string) string {
	v, _ := Attr(n, key)
	return v
}

// ID returns the id attribute of n.
func ID(n *html.Node) string {
	return AttrValue(n, "id")
}

// Classes splits the class attribute on ASCII whitespace, as the HTML
// class list does. Non-ASCII spaces stay part of a token.
func Classes(n *html.Node) []string {
	return strings.FieldsFunc(AttrValue(n, "class"), isHTMLSpace)
}

func isHTMLSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}

// ParentElement returns the parent of n when it is an element, nil when n
// sits directly under a document or fragment root.
func ParentElement(n *html.Node) *html.Node {
	if n.Parent != nil && n.Parent.Type == html.ElementNode {
		return n.Parent
	}
	return nil
}

// ElementChildren returns the element children of n in order.
func ElementChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// PrevElementSibling returns the closest preceding element sibling.
func PrevElementSibling(n *html.Node) *html.Node {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

// TypeIndex is the 1-based position of n among its siblings sharing its tag.
func TypeIndex(n *html.Node) int {
	i := 1
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode && s.Data == n.Data {
			i++
		}
	}
	return i
}

// ChildIndex is the 1-based position of n among its element siblings.
func ChildIndex(n *html.Node) int {
	i := 1
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			i++
		}
	}
	return i
}

// HasElementChildren reports whether n has at least one element child.
func HasElementChildren(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return true
		}
	}
	return false
}

// TextContent concatenates the text of all descendant text nodes.
func TextContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
