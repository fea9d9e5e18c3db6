package selector

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/hazyhaar/domselect/dom"
	"golang.org/x/net/html"
)

// Anchor says how the first segment of a Path is located.
type Anchor int

const (
	// AnchorRoot: the first segment is the top element of its tree.
	AnchorRoot Anchor = iota
	// AnchorID: the first segment is an "#id" ancestor.
	AnchorID
	// AnchorHost: the first segment is the bare tag of a shadow host the
	// walk could not cross. See Path.LightOnly.
	AnchorHost
)

// Segment is one step of a structural path.
type Segment struct {
	Selector string `json:"selector"`
	// Positional is set for "tag:nth-of-type(k)" steps.
	Positional bool `json:"positional,omitempty"`
	// Shadow marks the top of a shadow tree: the step is taken among the
	// children of the previous step's shadow root.
	Shadow bool `json:"shadow,omitempty"`
	// Pierce renders the join to the previous step as " >>> :scope > ".
	Pierce bool `json:"pierce,omitempty"`
}

// Path is a structural locator, outermost segment first.
type Path struct {
	Segments []Segment `json:"segments"`
	Anchor   Anchor    `json:"anchor"`
	// LightOnly is set when the walk stopped at a shadow host, either because
	// deep traversal was off or the boundary was closed. The rendered
	// string then reads the shadow tree as if it were the host's light
	// children and will not match through a standard query engine.
	LightOnly bool `json:"lightOnly,omitempty"`

	scope  *html.Node // tree root searched for an AnchorID segment
	origin *html.Node // top node for AnchorRoot and AnchorHost
}

// String renders the path, joining steps with " > ". A step into an open
// shadow root is written " >>> :scope > " so that ResolveFrom anchors it to
// the root's children, as Resolve does positionally.
func (p Path) String() string {
	var b strings.Builder
	for i, seg := range p.Segments {
		if i > 0 {
			if seg.Pierce {
				b.WriteString(" >>> :scope > ")
			} else {
				b.WriteString(" > ")
			}
		}
		b.WriteString(seg.Selector)
	}
	return b.String()
}

// Resolve re-walks the path positionally: each segment is matched only
// among the children of the nodes matched by the previous one.
func (p Path) Resolve(doc *dom.Document) ([]*html.Node, error) {
	var cur []*html.Node
	for i, seg := range p.Segments {
		sel, err := compile(seg.Selector)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			cur, err = p.first(sel)
			if err != nil {
				return nil, err
			}
			continue
		}
		var next []*html.Node
		for _, c := range cur {
			parent := c
			if seg.Shadow {
				sr := doc.ShadowRootOf(c)
				if sr == nil {
					continue
				}
				parent = sr.Root
			}
			for _, child := range dom.ElementChildren(parent) {
				if sel.Match(child) {
					next = append(next, child)
				}
			}
		}
		cur = next
	}
	return cur, nil
}

func (p Path) first(sel cascadia.SelectorGroup) ([]*html.Node, error) {
	switch p.Anchor {
	case AnchorID:
		if p.scope == nil {
			return nil, fmt.Errorf("selector: resolve path: no scope")
		}
		return cascadia.QueryAll(p.scope, sel), nil
	case AnchorHost:
		if p.origin != nil && sel.Match(p.origin) {
			return []*html.Node{p.origin}, nil
		}
		return nil, nil
	}
	if p.origin == nil {
		return nil, fmt.Errorf("selector: resolve path: no origin")
	}
	if p.origin.Parent == nil {
		if sel.Match(p.origin) {
			return []*html.Node{p.origin}, nil
		}
		return nil, nil
	}
	var out []*html.Node
	for _, c := range dom.ElementChildren(p.origin.Parent) {
		if sel.Match(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// walkAncestors visits n and then its element ancestors within n's tree,
// innermost first. It stops after the first node for which stop reports
// true, or at the tree's top element, and returns the last node visited.
func walkAncestors(n *html.Node, stop func(*html.Node) bool, visit func(*html.Node)) *html.Node {
	cur := n
	for {
		visit(cur)
		parent := dom.ParentElement(cur)
		if stop(cur) || parent == nil {
			return cur
		}
		cur = parent
	}
}

func hasID(n *html.Node) bool { return dom.ID(n) != "" }

// buildPath never fails: every element yields at least one segment.
func buildPath(doc *dom.Document, n *html.Node, deep bool, pol *policy) Path {
	var p Path
	var segs []Segment // innermost first
	cur := n
	for {
		scope := doc.ScopeRoot(cur)
		sr := doc.ShadowRootFor(scope)
		top := walkAncestors(cur, hasID, func(v *html.Node) {
			segs = append(segs, pathSegment(v, sr == nil, pol))
		})
		if hasID(top) {
			p.Anchor, p.scope = AnchorID, scope
			break
		}
		if sr == nil {
			p.Anchor, p.origin = AnchorRoot, top
			break
		}
		segs[len(segs)-1].Shadow = true
		if deep && sr.Mode == dom.ModeOpen {
			segs[len(segs)-1].Pierce = true
			cur = sr.Host
			continue
		}
		segs = append(segs, Segment{Selector: typeSelector(sr.Host)})
		p.Anchor, p.origin, p.LightOnly = AnchorHost, sr.Host, true
		break
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	p.Segments = segs
	return p
}

// pathSegment describes v relative to its parent.
func pathSegment(v *html.Node, light bool, pol *policy) Segment {
	if id := dom.ID(v); id != "" {
		return Segment{Selector: "#" + Escape(id)}
	}
	parent := v.Parent
	if parent == nil || (light && parent.Type != html.ElementNode && soleOfType(v)) {
		return Segment{Selector: typeSelector(v)}
	}
	if stable := pol.stableClasses(dom.Classes(v)); len(stable) > 0 {
		compound := typeSelector(v) + classSuffix(stable)
		if countChildren(parent, compound) == 1 {
			return Segment{Selector: compound}
		}
	}
	if typeSelector(v) == "*" {
		return Segment{Selector: fmt.Sprintf("*:nth-child(%d)", dom.ChildIndex(v)), Positional: true}
	}
	return Segment{Selector: fmt.Sprintf("%s:nth-of-type(%d)", typeSelector(v), dom.TypeIndex(v)), Positional: true}
}

// soleOfType reports whether v is the only element child of its parent
// carrying its tag.
func soleOfType(v *html.Node) bool {
	for _, c := range dom.ElementChildren(v.Parent) {
		if c != v && c.Data == v.Data {
			return false
		}
	}
	return true
}

// countChildren counts the element children of parent that match compound.
func countChildren(parent *html.Node, compound string) int {
	sel, err := compile(compound)
	if err != nil {
		return -1
	}
	n := 0
	for _, c := range dom.ElementChildren(parent) {
		if sel.Match(c) {
			n++
		}
	}
	return n
}

// typeSelector returns the tag for use in a locator. Tags the parser keeps
// in mixed case (SVG foreign elements) cannot be matched by a lower-casing
// type selector, so they fall back to "*".
func typeSelector(n *html.Node) string {
	if n.Data != strings.ToLower(n.Data) {
		return "*"
	}
	return Escape(n.Data)
}

func classSuffix(classes []string) string {
	var b strings.Builder
	for _, c := range classes {
		b.WriteByte('.')
		b.WriteString(Escape(c))
	}
	return b.String()
}
