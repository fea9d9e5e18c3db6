package selector

import (
	"testing"

	"github.com/hazyhaar/domselect/dom"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"save", "save"},
		{"btn_primary-2", "btn_primary-2"},
		{"1foo", `\31 foo`},
		{"-", `\-`},
		{"-1x", `-\31 x`},
		{"--x", "--x"},
		{"a b", `a\ b`},
		{"a.b", `a\.b`},
		{"a:b", `a\:b`},
		{`a"b`, `a\"b`},
		{"a]b", `a\]b`},
		{"a\nb", `a\a b`},
		{"\x00", "\uFFFD"},
		{"\x7f", `\7f `},
		{"café", "café"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Escape(tt.in); got != tt.want {
			t.Errorf("Escape(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEscapeString(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Submit order", "Submit order"},
		{`say "hi"`, `say \"hi\"`},
		{`back\slash`, `back\\slash`},
		{"tab\there", `tab\9 here`},
		{"1st", "1st"},
		{"\x00", "\uFFFD"},
	}
	for _, tt := range tests {
		if got := EscapeString(tt.in); got != tt.want {
			t.Errorf("EscapeString(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

// hostile strings: space, quotes, brackets, leading digits, controls.
var hostile = []string{
	"a b",
	`a"b`,
	"it's",
	"a]b[c",
	"1abc",
	"9",
	"-1x",
	"a.b#c",
	`a\b`,
	"x:y(z)",
	"tab\there",
	"é-ü",
}

func newElement(tag string, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func bodyOf(t *testing.T, doc *dom.Document) *html.Node {
	t.Helper()
	for _, n := range doc.Elements() {
		if n.DataAtom == atom.Body {
			return n
		}
	}
	t.Fatal("no body")
	return nil
}

func TestEscape_RoundTripID(t *testing.T) {
	for _, s := range hostile {
		doc, _ := dom.ParseString(`<body><div id="other"></div></body>`)
		n := newElement("div", "id", s)
		bodyOf(t, doc).AppendChild(n)

		res, err := Synthesize(doc, n)
		if err != nil {
			t.Fatal(err)
		}
		got, err := Match(doc.Root, res.Primary)
		if err != nil {
			t.Errorf("id %q: %s does not parse: %v", s, res.Primary, err)
			continue
		}
		if len(got) != 1 || got[0] != n {
			t.Errorf("id %q: %s matched %d nodes", s, res.Primary, len(got))
		}
	}
}

func TestEscape_RoundTripClass(t *testing.T) {
	for _, s := range hostile {
		if s == "a b" || s == "tab\there" {
			continue // whitespace splits class tokens
		}
		doc, _ := dom.ParseString(`<body><p class="plain"></p></body>`)
		n := newElement("p", "class", s)
		bodyOf(t, doc).AppendChild(n)

		res, err := Synthesize(doc, n)
		if err != nil {
			t.Fatal(err)
		}
		if res.Strategy != KindStableClass {
			// Hash-looking tokens such as "1abc" are legitimately excluded.
			continue
		}
		got, err := Match(doc.Root, res.Primary)
		if err != nil || len(got) != 1 || got[0] != n {
			t.Errorf("class %q: %s matched %d nodes (err %v)", s, res.Primary, len(got), err)
		}
	}
}

func TestEscape_RoundTripAttributeValue(t *testing.T) {
	for _, s := range hostile {
		doc, _ := dom.ParseString(`<body></body>`)
		n := newElement("div", "data-testid", s)
		bodyOf(t, doc).AppendChild(n)

		res, err := Synthesize(doc, n)
		if err != nil {
			t.Fatal(err)
		}
		got, err := Match(doc.Root, res.Primary)
		if err != nil {
			t.Errorf("value %q: %s does not parse: %v", s, res.Primary, err)
			continue
		}
		if !contains(got, n) {
			t.Errorf("value %q: %s does not match the node", s, res.Primary)
		}
		if v := dom.AttrValue(got[0], "data-testid"); v != s {
			t.Errorf("value %q: matched node carries %q", s, v)
		}
	}
}

func contains(nodes []*html.Node, n *html.Node) bool {
	for _, c := range nodes {
		if c == n {
			return true
		}
	}
	return false
}
