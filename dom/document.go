// Package dom models a document tree as golang.org/x/net/html nodes plus the
// shadow roots attached to its elements.
//
// Each shadow root is a detached fragment node whose children are the shadow
// tree's top-level nodes. Because the fragment is not linked into the
// host's child list, selector queries run against a tree root never see into
// shadow trees, and combinators never cross a boundary, which mirrors
// querySelectorAll scoping in a browser.
package dom

import (
	"errors"
	"fmt"

	"golang.org/x/net/html"
)

// Mode is the visibility mode of a shadow root.
type Mode string

const (
	ModeOpen   Mode = "open"
	ModeClosed Mode = "closed"
)

// ParseMode maps a shadowrootmode / CDP shadowRootType value to a Mode.
// Anything other than "open" or "closed" reports false.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeOpen:
		return ModeOpen, true
	case ModeClosed:
		return ModeClosed, true
	}
	return "", false
}

// ShadowRoot is a shadow tree attached to a host element.
type ShadowRoot struct {
	Host *html.Node
	// Root holds the shadow tree. It is a RawNode rather than a DocumentNode
	// so positional pseudo-classes still see its children as siblings.
	Root *html.Node
	Mode Mode
}

// ErrShadowAttached is returned when a host already carries a shadow root.
var ErrShadowAttached = errors.New("dom: host already has a shadow root")

// Document is a light tree plus its shadow roots.
type Document struct {
	Root *html.Node

	byHost map[*html.Node]*ShadowRoot
	byRoot map[*html.Node]*ShadowRoot
	order  []*ShadowRoot
}

// New wraps an already parsed tree. root is normally the DocumentNode
// returned by html.Parse.
func New(root *html.Node) *Document {
	return &Document{
		Root:   root,
		byHost: make(map[*html.Node]*ShadowRoot),
		byRoot: make(map[*html.Node]*ShadowRoot),
	}
}

// AttachShadow creates an empty shadow root on host.
func (d *Document) AttachShadow(host *html.Node, mode Mode) (*ShadowRoot, error) {
	if host == nil || host.Type != html.ElementNode {
		return nil, fmt.Errorf("dom: attach shadow: host is not an element")
	}
	if _, ok := d.byHost[host]; ok {
		return nil, ErrShadowAttached
	}
	sr := &ShadowRoot{
		Host: host,
		Root: &html.Node{Type: html.RawNode},
		Mode: mode,
	}
	d.byHost[host] = sr
	d.byRoot[sr.Root] = sr
	d.order = append(d.order, sr)
	return sr, nil
}

// ShadowRootOf returns the shadow root hosted by n, or nil.
func (d *Document) ShadowRootOf(host *html.Node) *ShadowRoot {
	return d.byHost[host]
}

// ShadowRoots returns every shadow root in attachment order.
func (d *Document) ShadowRoots() []*ShadowRoot {
	out := make([]*ShadowRoot, len(d.order))
	copy(out, d.order)
	return out
}

// ScopeRoot returns the root of the tree containing n: the document node for
// light-tree nodes, the fragment for shadow-tree nodes.
func (d *Document) ScopeRoot(n *html.Node) *html.Node {
	for n != nil && n.Parent != nil {
		n = n.Parent
	}
	return n
}

// ShadowRootFor returns the ShadowRoot whose fragment is root, or nil when
// root is the light document (or unknown).
func (d *Document) ShadowRootFor(root *html.Node) *ShadowRoot {
	return d.byRoot[root]
}

// ContainingShadowRoot returns the shadow root whose tree contains n, or nil
// for light-tree nodes.
func (d *Document) ContainingShadowRoot(n *html.Node) *ShadowRoot {
	return d.byRoot[d.ScopeRoot(n)]
}

// Walk visits every element in document order. A host's shadow tree is
// visited right after the host, before its light children. Returning false
// from fn stops the walk.
func (d *Document) Walk(fn func(n *html.Node) bool) {
	stack := []*html.Node{d.Root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.Type == html.ElementNode && !fn(n) {
			return
		}
		// Push in reverse so the first child pops first.
		for c := n.LastChild; c != nil; c = c.PrevSibling {
			stack = append(stack, c)
		}
		if sr := d.byHost[n]; sr != nil {
			stack = append(stack, sr.Root)
		}
	}
}

// Elements returns all elements, shadow trees included, in Walk order.
func (d *Document) Elements() []*html.Node {
	var out []*html.Node
	d.Walk(func(n *html.Node) bool {
		out = append(out, n)
		return true
	})
	return out
}
