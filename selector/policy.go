package selector

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"golang.org/x/net/html"
)

// Policy holds the heuristics that decide which attributes and classes are
// stable enough to appear in a locator.
type Policy struct {
	// DataPrefix marks test attributes ("data-").
	DataPrefix string `yaml:"data_prefix" json:"data_prefix"`
	// TestTokens rank data attributes: the first attribute whose name
	// contains one of them (case-insensitive) wins.
	TestTokens []string `yaml:"test_tokens" json:"test_tokens"`
	// TransientPatterns exclude classes that change with state or build.
	// Patterns are .NET-flavoured regular expressions, matched case-insensitively.
	TransientPatterns []string `yaml:"transient_patterns" json:"transient_patterns"`
	// HashHeuristic excludes classes ending in a generated-looking suffix.
	HashHeuristic bool `yaml:"hash_heuristic" json:"hash_heuristic"`
}

// DefaultPolicy returns the built-in heuristics.
func DefaultPolicy() Policy {
	return Policy{
		DataPrefix: "data-",
		TestTokens: []string{"test", "id", "name", "cy", "qa", "tid"},
		TransientPatterns: []string{
			`^(active|hover|focus|disabled|selected|open|closed)$`,
			`^(ng-|css-|sc-|jsx-)`,
		},
		HashHeuristic: true,
	}
}

const patternTimeout = 50 * time.Millisecond

// policy is a Policy with its patterns compiled.
type policy struct {
	Policy
	transient []*regexp2.Regexp
}

func compilePolicy(p Policy) (*policy, error) {
	if p.DataPrefix == "" {
		p.DataPrefix = "data-"
	}
	cp := &policy{Policy: p}
	for _, expr := range p.TransientPatterns {
		re, err := regexp2.Compile(expr, regexp2.IgnoreCase)
		if err != nil {
			return nil, fmt.Errorf("selector: transient pattern %q: %w", expr, err)
		}
		re.MatchTimeout = patternTimeout
		cp.transient = append(cp.transient, re)
	}
	return cp, nil
}

// transientClass reports whether class should be left out of locators.
// A pattern that fails to evaluate does not exclude.
func (p *policy) transientClass(class string) bool {
	for _, re := range p.transient {
		if ok, err := re.MatchString(class); err == nil && ok {
			return true
		}
	}
	return p.HashHeuristic && looksHashed(class)
}

// stableClasses filters classes, keeping declaration order.
func (p *policy) stableClasses(classes []string) []string {
	var out []string
	for _, c := range classes {
		if !p.transientClass(c) {
			out = append(out, c)
		}
	}
	return out
}

// testAttribute picks the data attribute to anchor on.
func (p *policy) testAttribute(attrs []html.Attribute) (html.Attribute, bool) {
	var first *html.Attribute
	for i := range attrs {
		a := &attrs[i]
		if !strings.HasPrefix(a.Key, p.DataPrefix) {
			continue
		}
		if first == nil {
			first = a
		}
		name := strings.ToLower(a.Key)
		for _, tok := range p.TestTokens {
			if tok != "" && strings.Contains(name, strings.ToLower(tok)) {
				return *a, true
			}
		}
	}
	if first == nil {
		return html.Attribute{}, false
	}
	return *first, true
}

// dataAttributes returns the data attributes of attrs in order.
func (p *policy) dataAttributes(attrs []html.Attribute) []html.Attribute {
	var out []html.Attribute
	for _, a := range attrs {
		if strings.HasPrefix(a.Key, p.DataPrefix) {
			out = append(out, a)
		}
	}
	return out
}

// looksHashed matches build-generated suffixes such as "btn_a1b2c3" or
// "Button_root__3xYz1": the part after the last '_' or '-' is at least five
// characters long and mixes letters and digits.
func looksHashed(class string) bool {
	i := strings.LastIndexAny(class, "_-")
	if i < 0 {
		return false
	}
	suffix := class[i+1:]
	if len(suffix) < 5 {
		return false
	}
	var letter, digit bool
	for _, r := range suffix {
		switch {
		case isDigit(r):
			digit = true
		case isLetter(r):
			letter = true
		}
	}
	return letter && digit
}
