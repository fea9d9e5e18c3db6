package selector

import (
	"fmt"

	"github.com/hazyhaar/domselect/dom"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Kind identifies the rung of the ladder that produced a locator.
type Kind int

const (
	KindID Kind = iota + 1
	KindTestAttribute
	KindStableClass
	KindAccessible
	KindFormControl
	KindLabelAnchor
	KindStructural
)

var kindNames = map[Kind]string{
	KindID:            "id",
	KindTestAttribute: "test-attribute",
	KindStableClass:   "stable-class",
	KindAccessible:    "accessible",
	KindFormControl:   "form-control",
	KindLabelAnchor:   "label-anchor",
	KindStructural:    "structural",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	for kind, name := range kindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("selector: unknown strategy %q", b)
}

// Rationale tags.
const (
	RationaleID         = "id attribute"
	RationaleData       = "data attribute"
	RationaleClasses    = "unique class combination"
	RationaleRole       = "role attribute"
	RationaleAriaLabel  = "aria-label attribute"
	RationaleFormName   = "form control name"
	RationaleFormType   = "form control type"
	RationaleLabel      = "label association"
	RationaleStructural = "structural path"
)

// Candidate is a locator proposed by one strategy.
type Candidate struct {
	Locator   string
	Alternate string
	Strategy  Kind
	Rationale string
	// Confirmed is set when the oracle found exactly one match across the
	// document and its shadow trees.
	Confirmed bool
	// Path is set for structural candidates.
	Path *Path
}

// Context is what a strategy sees of the node being described.
type Context struct {
	Doc  *dom.Document
	Node *html.Node
	// Scope is the root of the tree containing Node. Scope-relative
	// locators are evaluated from it.
	Scope      *html.Node
	Oracle     Oracle
	DeepShadow bool

	policy *policy
}

// CountAll counts the matches of locator in the document and in every
// shadow tree attached to it.
func (c *Context) CountAll(locator string) (int, error) {
	total, err := c.Oracle.Count(c.Doc.Root, locator)
	if err != nil {
		return 0, err
	}
	for _, sr := range c.Doc.ShadowRoots() {
		n, err := c.Oracle.Count(sr.Root, locator)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// Strategy is one rung of the ladder.
type Strategy interface {
	Kind() Kind
	Attempt(ctx *Context) (Candidate, bool)
}

// Ladder returns the strategies in priority order.
func Ladder() []Strategy {
	return []Strategy{
		idStrategy{},
		testAttributeStrategy{},
		stableClassStrategy{},
		accessibleStrategy{},
		formControlStrategy{},
		labelAnchorStrategy{},
		structuralStrategy{},
	}
}

type idStrategy struct{}

func (idStrategy) Kind() Kind { return KindID }

func (idStrategy) Attempt(ctx *Context) (Candidate, bool) {
	id := dom.ID(ctx.Node)
	if id == "" {
		return Candidate{}, false
	}
	return Candidate{Locator: "#" + Escape(id), Strategy: KindID, Rationale: RationaleID}, true
}

type testAttributeStrategy struct{}

func (testAttributeStrategy) Kind() Kind { return KindTestAttribute }

func (testAttributeStrategy) Attempt(ctx *Context) (Candidate, bool) {
	a, ok := ctx.policy.testAttribute(ctx.Node.Attr)
	if !ok {
		return Candidate{}, false
	}
	return Candidate{
		Locator:   attrSelector(a.Key, a.Val),
		Strategy:  KindTestAttribute,
		Rationale: RationaleData,
	}, true
}

type stableClassStrategy struct{}

func (stableClassStrategy) Kind() Kind { return KindStableClass }

func (stableClassStrategy) Attempt(ctx *Context) (Candidate, bool) {
	stable := ctx.policy.stableClasses(dom.Classes(ctx.Node))
	if len(stable) == 0 {
		return Candidate{}, false
	}
	loc := typeSelector(ctx.Node) + classSuffix(stable)
	n, err := ctx.CountAll(loc)
	if err != nil || n != 1 {
		return Candidate{}, false
	}
	return Candidate{
		Locator:   loc,
		Strategy:  KindStableClass,
		Rationale: RationaleClasses,
		Confirmed: true,
	}, true
}

type accessibleStrategy struct{}

func (accessibleStrategy) Kind() Kind { return KindAccessible }

func (accessibleStrategy) Attempt(ctx *Context) (Candidate, bool) {
	if role := dom.AttrValue(ctx.Node, "role"); role != "" {
		return Candidate{Locator: attrSelector("role", role), Strategy: KindAccessible, Rationale: RationaleRole}, true
	}
	if label := dom.AttrValue(ctx.Node, "aria-label"); label != "" {
		return Candidate{Locator: attrSelector("aria-label", label), Strategy: KindAccessible, Rationale: RationaleAriaLabel}, true
	}
	return Candidate{}, false
}

type formControlStrategy struct{}

func (formControlStrategy) Kind() Kind { return KindFormControl }

func (formControlStrategy) Attempt(ctx *Context) (Candidate, bool) {
	switch ctx.Node.DataAtom {
	case atom.Button, atom.Input, atom.Select, atom.Textarea:
	default:
		return Candidate{}, false
	}
	tag := typeSelector(ctx.Node)
	if name := dom.AttrValue(ctx.Node, "name"); name != "" {
		return Candidate{Locator: tag + attrSelector("name", name), Strategy: KindFormControl, Rationale: RationaleFormName}, true
	}
	if typ := dom.AttrValue(ctx.Node, "type"); typ != "" {
		return Candidate{Locator: tag + attrSelector("type", typ), Strategy: KindFormControl, Rationale: RationaleFormType}, true
	}
	return Candidate{}, false
}

// labelAnchorStrategy anchors on a <label id=...> immediately preceding the
// node. The primary uses the adjacent-sibling combinator; the alternate
// scopes a positional step under the label's parent. When that parent has an
// id the alternate is anchored on it. Otherwise it is "parent:has(#label)",
// which also holds for any same-tag ancestor containing the label, so it is
// reported for reading and never checked for uniqueness.
type labelAnchorStrategy struct{}

func (labelAnchorStrategy) Kind() Kind { return KindLabelAnchor }

func (labelAnchorStrategy) Attempt(ctx *Context) (Candidate, bool) {
	if dom.ID(ctx.Node) != "" {
		return Candidate{}, false
	}
	label := dom.PrevElementSibling(ctx.Node)
	if label == nil || label.DataAtom != atom.Label {
		return Candidate{}, false
	}
	lid := dom.ID(label)
	if lid == "" {
		return Candidate{}, false
	}
	anchor := "#" + Escape(lid)
	tag := typeSelector(ctx.Node)
	c := Candidate{
		Locator:   anchor + " + " + tag,
		Strategy:  KindLabelAnchor,
		Rationale: RationaleLabel,
	}
	if parent := dom.ParentElement(ctx.Node); parent != nil {
		step := fmt.Sprintf("%s:nth-of-type(%d)", tag, dom.TypeIndex(ctx.Node))
		if tag == "*" {
			step = fmt.Sprintf("*:nth-child(%d)", dom.ChildIndex(ctx.Node))
		}
		if pid := dom.ID(parent); pid != "" {
			c.Alternate = "#" + Escape(pid) + " > " + step
		} else {
			c.Alternate = fmt.Sprintf("%s:has(%s) > %s", typeSelector(parent), anchor, step)
		}
	}
	return c, true
}

type structuralStrategy struct{}

func (structuralStrategy) Kind() Kind { return KindStructural }

func (structuralStrategy) Attempt(ctx *Context) (Candidate, bool) {
	p := buildPath(ctx.Doc, ctx.Node, ctx.DeepShadow, ctx.policy)
	return Candidate{
		Locator:   p.String(),
		Strategy:  KindStructural,
		Rationale: RationaleStructural,
		Path:      &p,
	}, true
}

func attrSelector(name, value string) string {
	return "[" + Escape(name) + `="` + EscapeString(value) + `"]`
}
