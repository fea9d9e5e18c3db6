package selector

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/hazyhaar/domselect/dom"
	"golang.org/x/net/html"
)

// Oracle answers how many nodes a locator matches under a scope root.
// The root itself is never counted, as with querySelectorAll.
type Oracle interface {
	Count(root *html.Node, locator string) (int, error)
}

// CascadiaOracle evaluates locators with the cascadia selector engine.
type CascadiaOracle struct{}

// Count implements Oracle.
func (CascadiaOracle) Count(root *html.Node, locator string) (int, error) {
	nodes, err := Match(root, locator)
	return len(nodes), err
}

// Match returns the descendants of root matched by locator (a selector
// group), in document order.
func Match(root *html.Node, locator string) ([]*html.Node, error) {
	sel, err := compile(locator)
	if err != nil {
		return nil, err
	}
	return cascadia.QueryAll(root, sel), nil
}

// Count is CascadiaOracle.Count.
func Count(root *html.Node, locator string) (int, error) {
	return CascadiaOracle{}.Count(root, locator)
}

// IsUnique reports whether locator matches exactly one node under root.
// Unparseable locators are not unique.
func IsUnique(root *html.Node, locator string) bool {
	n, err := Count(root, locator)
	return err == nil && n == 1
}

func compile(locator string) (sel cascadia.SelectorGroup, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("selector: parse %q: %v", locator, r)
		}
	}()
	sel, err = cascadia.ParseGroup(locator)
	if err != nil {
		return nil, fmt.Errorf("selector: parse %q: %w", locator, err)
	}
	return sel, nil
}

// matchesAny reports whether n itself matches locator.
func matchesAny(n *html.Node, locator string) bool {
	sel, err := compile(locator)
	return err == nil && sel.Match(n)
}

// Resolve evaluates a locator from the document root. See ResolveFrom.
func Resolve(doc *dom.Document, locator string) ([]*html.Node, error) {
	return ResolveFrom(doc, doc.Root, locator)
}

// ResolveFrom evaluates a locator that may contain the " >>> " shadow
// piercing combinator, starting at root. Each part after the first is
// queried inside the shadow roots of the previous part's matches. A part
// that starts with ":scope" is anchored to its scope root, so
// ":scope > div" only matches the root's own children; any other part
// searches all descendants.
func ResolveFrom(doc *dom.Document, root *html.Node, locator string) ([]*html.Node, error) {
	parts := splitPierce(locator)
	scopes := []*html.Node{root}
	var matched []*html.Node
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("selector: resolve %q: empty segment", locator)
		}
		query, err := compilePart(part)
		if err != nil {
			return nil, err
		}
		matched = nil
		for _, scope := range scopes {
			matched = append(matched, query(scope)...)
		}
		if i == len(parts)-1 {
			break
		}
		scopes = scopes[:0]
		for _, m := range matched {
			if sr := doc.ShadowRootOf(m); sr != nil {
				scopes = append(scopes, sr.Root)
			}
		}
	}
	return matched, nil
}

// compilePart returns a query over one scope for a part of a piercing
// locator.
func compilePart(part string) (func(*html.Node) []*html.Node, error) {
	if !strings.HasPrefix(part, ":scope") {
		sel, err := compile(part)
		if err != nil {
			return nil, err
		}
		return func(scope *html.Node) []*html.Node { return cascadia.QueryAll(scope, sel) }, nil
	}
	var chains [][]chainStep
	for _, alt := range splitTopLevel(part, ',') {
		chain, err := parseChain(strings.TrimSpace(alt))
		if err != nil {
			return nil, fmt.Errorf("selector: parse %q: %w", part, err)
		}
		chains = append(chains, chain)
	}
	return func(scope *html.Node) []*html.Node {
		hit := make(map[*html.Node]bool)
		for _, chain := range chains {
			for _, n := range runChain(scope, chain) {
				hit[n] = true
			}
		}
		var out []*html.Node
		descendants(scope, func(n *html.Node) {
			if hit[n] {
				out = append(out, n)
			}
		})
		return out
	}, nil
}

// chainStep is one compound of a scoped chain and the combinator joining it to
// the previous compound.
type chainStep struct {
	comb byte // '>', ' ', '+' or '~'
	sel  cascadia.SelectorGroup
}

var errScopeChain = errors.New(":scope must be followed by a combinator and a compound")

// parseChain reads ":scope <comb> compound (<comb> compound)*".
func parseChain(s string) ([]chainStep, error) {
	rest := strings.TrimPrefix(s, ":scope")
	var chain []chainStep
	for {
		rest = strings.TrimLeft(rest, " \t\n\f\r")
		if rest == "" {
			break
		}
		comb := byte(' ')
		if c := rest[0]; c == '>' || c == '+' || c == '~' {
			comb = c
			rest = strings.TrimLeft(rest[1:], " \t\n\f\r")
		} else if len(chain) == 0 && len(rest) == len(strings.TrimPrefix(s, ":scope")) {
			// ":scopediv" is not a chain.
			return nil, errScopeChain
		}
		end := compoundEnd(rest)
		if end == 0 {
			return nil, errScopeChain
		}
		sel, err := compile(rest[:end])
		if err != nil {
			return nil, err
		}
		chain = append(chain, chainStep{comb: comb, sel: sel})
		rest = rest[end:]
	}
	if len(chain) == 0 {
		return nil, errScopeChain
	}
	return chain, nil
}

// compoundEnd returns the length of the compound selector at the start of
// s: up to the first combinator or whitespace outside quotes, brackets and
// parentheses.
func compoundEnd(s string) int {
	var quote byte
	depth := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\':
			i++
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			depth--
		case depth == 0 && strings.IndexByte(" \t\n\f\r>+~", c) >= 0:
			return i
		}
	}
	return len(s)
}

// runChain walks the chain from scope, one set of nodes per step.
func runChain(scope *html.Node, chain []chainStep) []*html.Node {
	cur := []*html.Node{scope}
	for _, st := range chain {
		seen := make(map[*html.Node]bool)
		var next []*html.Node
		add := func(n *html.Node) {
			if !seen[n] && st.sel.Match(n) {
				seen[n] = true
				next = append(next, n)
			}
		}
		for _, c := range cur {
			switch st.comb {
			case '>':
				for _, k := range dom.ElementChildren(c) {
					add(k)
				}
			case ' ':
				descendants(c, add)
			case '+':
				if c != scope {
					if sib := nextElementSibling(c); sib != nil {
						add(sib)
					}
				}
			case '~':
				if c != scope {
					for sib := nextElementSibling(c); sib != nil; sib = nextElementSibling(sib) {
						add(sib)
					}
				}
			}
		}
		cur = next
	}
	return cur
}

// descendants visits the element descendants of n in document order.
func descendants(n *html.Node, fn func(*html.Node)) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			fn(c)
		}
		descendants(c, fn)
	}
}

func nextElementSibling(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

// splitPierce splits on ">>>" outside quoted strings and escapes.
func splitPierce(s string) []string {
	var parts []string
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\':
			i++
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>' && strings.HasPrefix(s[i:], ">>>"):
			parts = append(parts, s[start:i])
			i += 2
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// splitTopLevel splits s on sep outside quotes, brackets and parentheses.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	var quote byte
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\':
			i++
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			depth--
		case depth == 0 && c == sep:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}
