package selector

import (
	"strings"

	"github.com/hazyhaar/domselect/dom"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Crumb describes one node on the way from an anchor down to a target.
type Crumb struct {
	Tag     string     `json:"tag"`
	ID      string     `json:"id,omitempty"`
	Classes []string   `json:"classes,omitempty"`
	Role    string     `json:"role,omitempty"`
	Data    []DataAttr `json:"data,omitempty"`
	Text    string     `json:"text,omitempty"`
	Target  bool       `json:"target,omitempty"`
}

// DataAttr is a data attribute shown in a Crumb, value already shortened.
type DataAttr struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

const (
	maxCrumbClasses = 2
	maxCrumbData    = 2
	maxDataValue    = 12
	maxText         = 15
)

// String renders the crumb as `tag #id .a.b [role=x] [data-k="v"] "text"`.
func (c Crumb) String() string {
	parts := []string{c.Tag}
	if c.ID != "" {
		parts = append(parts, "#"+c.ID)
	}
	if len(c.Classes) > 0 {
		parts = append(parts, "."+strings.Join(c.Classes, "."))
	}
	if c.Role != "" {
		parts = append(parts, "[role="+c.Role+"]")
	}
	for _, d := range c.Data {
		parts = append(parts, "["+d.Name+`="`+d.Value+`"]`)
	}
	if c.Text != "" {
		parts = append(parts, `"`+c.Text+`"`)
	}
	return strings.Join(parts, " ")
}

// Ancestry lists the nodes from the nearest ancestor carrying an id (or the
// top of the tree, body and html excluded) down to n. The walk stays inside
// n's tree.
func (s *Synthesizer) Ancestry(doc *dom.Document, n *html.Node) ([]Crumb, error) {
	if !dom.IsElement(n) {
		return nil, ErrNotElement
	}
	light := doc.ContainingShadowRoot(n) == nil
	var chain []*html.Node
	walkAncestors(n, func(v *html.Node) bool {
		if hasID(v) {
			return true
		}
		p := dom.ParentElement(v)
		return light && p != nil && (p.DataAtom == atom.Body || p.DataAtom == atom.Html)
	}, func(v *html.Node) {
		chain = append(chain, v)
	})

	crumbs := make([]Crumb, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		crumbs = append(crumbs, s.crumb(chain[i], chain[i] == n))
	}
	return crumbs, nil
}

func (s *Synthesizer) crumb(n *html.Node, target bool) Crumb {
	c := Crumb{
		Tag:    dom.Tag(n),
		ID:     dom.ID(n),
		Role:   dom.AttrValue(n, "role"),
		Target: target,
	}
	classes := s.policy.stableClasses(dom.Classes(n))
	if len(classes) > maxCrumbClasses {
		classes = classes[:maxCrumbClasses]
	}
	c.Classes = classes
	for _, a := range s.policy.dataAttributes(n.Attr) {
		if len(c.Data) == maxCrumbData {
			break
		}
		v := a.Val
		if r := []rune(v); len(r) > maxDataValue {
			v = string(r[:10]) + ".."
		}
		c.Data = append(c.Data, DataAttr{Name: a.Key, Value: v})
	}
	if !dom.HasElementChildren(n) {
		text := strings.TrimSpace(dom.TextContent(n))
		if r := []rune(text); len(r) > maxText {
			text = string(r[:maxText]) + "..."
		}
		c.Text = text
	}
	return c
}

// Tree renders crumbs one per line with box-drawing connectors, the target
// last.
func Tree(crumbs []Crumb) string {
	var b strings.Builder
	for i, c := range crumbs {
		if i > 0 {
			b.WriteString(strings.Repeat("│ ", i-1))
			if c.Target {
				b.WriteString("└─ ")
			} else {
				b.WriteString("├─ ")
			}
		}
		b.WriteString(c.String())
		b.WriteByte('\n')
	}
	return b.String()
}
