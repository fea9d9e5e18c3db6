package dom

import (
	"strings"

	"github.com/go-rod/rod/lib/proto"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// CDP node types (DOM Node.nodeType).
const (
	cdpElement  = 1
	cdpText     = 3
	cdpComment  = 8
	cdpDocument = 9
	cdpDoctype  = 10
)

// FromCDP converts a DOM.getDocument result (depth -1, pierce true) into a
// Document. Open and closed shadow roots become shadow fragments; user-agent
// shadow roots and iframe content documents are skipped. Template content is
// inlined under the template element, the way html.Parse lays it out.
func FromCDP(root *proto.DOMNode) *Document {
	doc := New(&html.Node{Type: html.DocumentNode})
	if root == nil {
		return doc
	}
	if root.NodeType == cdpDocument {
		doc.convertChildren(root, doc.Root)
	} else if n := doc.convert(root); n != nil {
		doc.Root.AppendChild(n)
	}
	return doc
}

func (d *Document) convertChildren(src *proto.DOMNode, dst *html.Node) {
	for _, c := range src.Children {
		if n := d.convert(c); n != nil {
			dst.AppendChild(n)
		}
	}
}

func (d *Document) convert(src *proto.DOMNode) *html.Node {
	switch src.NodeType {
	case cdpElement:
		n := &html.Node{Type: html.ElementNode, Data: elementName(src)}
		n.DataAtom = atom.Lookup([]byte(n.Data))
		for i := 0; i+1 < len(src.Attributes); i += 2 {
			n.Attr = append(n.Attr, html.Attribute{Key: src.Attributes[i], Val: src.Attributes[i+1]})
		}
		d.convertChildren(src, n)
		if src.TemplateContent != nil {
			d.convertChildren(src.TemplateContent, n)
		}
		for _, sr := range src.ShadowRoots {
			mode, ok := ParseMode(string(sr.ShadowRootType))
			if !ok {
				continue
			}
			root, err := d.AttachShadow(n, mode)
			if err != nil {
				continue
			}
			d.convertChildren(sr, root.Root)
		}
		return n
	case cdpText:
		return &html.Node{Type: html.TextNode, Data: src.NodeValue}
	case cdpComment:
		return &html.Node{Type: html.CommentNode, Data: src.NodeValue}
	case cdpDoctype:
		return &html.Node{Type: html.DoctypeNode, Data: src.NodeName}
	}
	return nil
}

// elementName prefers LocalName, which keeps SVG camelCase names the same way
// the HTML parser does.
func elementName(src *proto.DOMNode) string {
	if src.LocalName != "" {
		return src.LocalName
	}
	return strings.ToLower(src.NodeName)
}
