// CLAUDE:SUMMARY Parses HTML into a Document, promoting declarative shadow DOM templates to shadow roots.
package dom

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse reads an HTML document. Every <template shadowrootmode="open|closed">
// that is the first such template inside its parent element becomes that
// element's shadow root; its content moves into the shadow fragment and the
// template element is removed from the light tree.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	doc := New(root)
	if err := doc.attachDeclarative(root); err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Document, error) {
	return Parse(bytes.NewReader([]byte(s)))
}

// attachDeclarative walks the subtree rooted at n. Promoted fragments are
// walked too so nested shadow trees attach.
func (d *Document) attachDeclarative(n *html.Node) error {
	stack := []*html.Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for c := cur.FirstChild; c != nil; {
			next := c.NextSibling
			if cur.Type == html.ElementNode && d.byHost[cur] == nil {
				if mode, ok := shadowTemplateMode(c); ok {
					sr, err := d.AttachShadow(cur, mode)
					if err != nil {
						return err
					}
					moveChildren(c, sr.Root)
					cur.RemoveChild(c)
					stack = append(stack, sr.Root)
					c = next
					continue
				}
			}
			stack = append(stack, c)
			c = next
		}
	}
	return nil
}

func shadowTemplateMode(n *html.Node) (Mode, bool) {
	if n.Type != html.ElementNode || n.DataAtom != atom.Template {
		return "", false
	}
	v, ok := Attr(n, "shadowrootmode")
	if !ok {
		// Pre-standard attribute name still emitted by some renderers.
		v, ok = Attr(n, "shadowroot")
	}
	if !ok {
		return "", false
	}
	return ParseMode(v)
}

func moveChildren(from, to *html.Node) {
	for c := from.FirstChild; c != nil; {
		next := c.NextSibling
		from.RemoveChild(c)
		to.AppendChild(c)
		c = next
	}
}
