package selector

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/hazyhaar/domselect/dom"
	"golang.org/x/net/html"
)

func parse(t *testing.T, src string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(src)
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

// marked returns the element carrying mark="name". The attribute plays no
// part in synthesis.
func marked(t *testing.T, doc *dom.Document, name string) *html.Node {
	t.Helper()
	for _, n := range doc.Elements() {
		if dom.AttrValue(n, "mark") == name {
			return n
		}
	}
	t.Fatalf("no element marked %q", name)
	return nil
}

func synth(t *testing.T, doc *dom.Document, n *html.Node) *Result {
	t.Helper()
	res, err := Synthesize(doc, n)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestSynthesize_ID(t *testing.T) {
	doc := parse(t, `<body><div id="toolbar"><button id="save" mark="t">Save</button></div></body>`)
	res := synth(t, doc, marked(t, doc, "t"))

	if res.Primary != "#save" {
		t.Errorf("primary: got %q, want %q", res.Primary, "#save")
	}
	if res.Rationale != RationaleID {
		t.Errorf("rationale: got %q", res.Rationale)
	}
	if res.Confirmed {
		t.Error("id locators are not oracle-confirmed")
	}

	b, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"primaryLocator":"#save","alternateLocator":null,"rationale":"id attribute","strategy":"id","confirmed":false,"shadowPath":{"hosts":[],"anyClosed":false}}`
	if string(b) != want {
		t.Errorf("json:\n got %s\nwant %s", b, want)
	}
}

func TestSynthesize_HashedClassFallsToPath(t *testing.T) {
	doc := parse(t, `<body><div id="toolbar">
<button class="btn">Undo</button>
<button class="btn btn-primary_a1b2c3" mark="t">Save</button>
</div></body>`)
	res := synth(t, doc, marked(t, doc, "t"))

	if want := "#toolbar > button:nth-of-type(2)"; res.Primary != want {
		t.Errorf("primary: got %q, want %q", res.Primary, want)
	}
	if res.Rationale != RationaleStructural {
		t.Errorf("rationale: got %q", res.Rationale)
	}
}

func TestSynthesize_AriaLabel(t *testing.T) {
	doc := parse(t, `<body><div class="cta" aria-label="Submit order" mark="t">Go</div><div class="cta"></div></body>`)
	res := synth(t, doc, marked(t, doc, "t"))

	if want := `[aria-label="Submit order"]`; res.Primary != want {
		t.Errorf("primary: got %q, want %q", res.Primary, want)
	}
	if res.Rationale != RationaleAriaLabel {
		t.Errorf("rationale: got %q", res.Rationale)
	}
}

func TestLadderPriority(t *testing.T) {
	tests := []struct {
		name, src, primary, rationale string
	}{
		{
			name:      "id beats test attribute",
			src:       `<div id="cart" data-testid="cart-box" mark="t"></div>`,
			primary:   "#cart",
			rationale: RationaleID,
		},
		{
			name:      "test token ranks data attributes",
			src:       `<div data-foo="x" data-testid="y" mark="t"></div>`,
			primary:   `[data-testid="y"]`,
			rationale: RationaleData,
		},
		{
			name:      "first data attribute without token",
			src:       `<div data-foo="x" data-bar="z" mark="t"></div>`,
			primary:   `[data-foo="x"]`,
			rationale: RationaleData,
		},
		{
			name:      "unique class",
			src:       `<ul><li class="item">a</li><li class="item last" mark="t">b</li></ul>`,
			primary:   "li.item.last",
			rationale: RationaleClasses,
		},
		{
			name:      "non-unique class falls to role",
			src:       `<div class="card" role="region" mark="t"></div><div class="card"></div>`,
			primary:   `[role="region"]`,
			rationale: RationaleRole,
		},
		{
			name:      "role beats aria-label",
			src:       `<div role="button" aria-label="Close" mark="t"></div>`,
			primary:   `[role="button"]`,
			rationale: RationaleRole,
		},
		{
			name:      "transient classes are ignored",
			src:       `<a class="active" mark="t" role="tab"></a><a class="active"></a>`,
			primary:   `[role="tab"]`,
			rationale: RationaleRole,
		},
		{
			name:      "form control name",
			src:       `<form><input class="f" name="email" mark="t"><input class="f"></form>`,
			primary:   `input[name="email"]`,
			rationale: RationaleFormName,
		},
		{
			name:      "form control type",
			src:       `<form><input type="checkbox" mark="t"><input type="text"></form>`,
			primary:   `input[type="checkbox"]`,
			rationale: RationaleFormType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(t, "<body>"+tt.src+"</body>")
			res := synth(t, doc, marked(t, doc, "t"))
			if res.Primary != tt.primary {
				t.Errorf("primary: got %q, want %q", res.Primary, tt.primary)
			}
			if res.Rationale != tt.rationale {
				t.Errorf("rationale: got %q, want %q", res.Rationale, tt.rationale)
			}
		})
	}
}

func TestSynthesize_LabelAnchor(t *testing.T) {
	doc := parse(t, `<body><form>
<label id="email-label">Email</label><input mark="t">
<label>Other</label><input>
</form></body>`)
	n := marked(t, doc, "t")
	res := synth(t, doc, n)

	if want := "#email-label + input"; res.Primary != want {
		t.Errorf("primary: got %q, want %q", res.Primary, want)
	}
	if want := "form:has(#email-label) > input:nth-of-type(1)"; res.Alternate != want {
		t.Errorf("alternate: got %q, want %q", res.Alternate, want)
	}
	if res.Rationale != RationaleLabel {
		t.Errorf("rationale: got %q", res.Rationale)
	}
	got, err := Match(doc.Root, res.Primary)
	if err != nil || len(got) != 1 || got[0] != n {
		t.Errorf("primary matched %d nodes (err %v)", len(got), err)
	}
}

func TestSynthesize_LabelAnchorParentID(t *testing.T) {
	doc := parse(t, `<body><div><div id="signup"><label id="email-label">Email</label><select mark="t"></select></div></div></body>`)
	n := marked(t, doc, "t")
	res := synth(t, doc, n)

	if want := "#signup > select:nth-of-type(1)"; res.Alternate != want {
		t.Errorf("alternate: got %q, want %q", res.Alternate, want)
	}
	got, err := Match(doc.Root, res.Alternate)
	if err != nil || len(got) != 1 || got[0] != n {
		t.Errorf("alternate matched %d nodes (err %v)", len(got), err)
	}
}

func TestSynthesize_LabelWithoutIDFallsThrough(t *testing.T) {
	doc := parse(t, `<body><form><label>Email</label><input mark="t"></form></body>`)
	res := synth(t, doc, marked(t, doc, "t"))
	if res.Rationale != RationaleStructural {
		t.Errorf("rationale: got %q, want %q", res.Rationale, RationaleStructural)
	}
}

type errOracle struct{}

func (errOracle) Count(*html.Node, string) (int, error) {
	return 0, errors.New("unsupported")
}

func TestSynthesize_OracleErrorFallsThrough(t *testing.T) {
	doc := parse(t, `<body><div id="box"><p class="lead" mark="t">x</p></div></body>`)
	n := marked(t, doc, "t")

	s, err := New(Options{Oracle: errOracle{}})
	if err != nil {
		t.Fatal(err)
	}
	res, err := s.Synthesize(doc, n)
	if err != nil {
		t.Fatal(err)
	}
	// Locally unique class still shapes the path segment.
	if want := "#box > p.lead"; res.Primary != want {
		t.Errorf("primary: got %q, want %q", res.Primary, want)
	}

	res = synth(t, doc, n)
	if res.Primary != "p.lead" || !res.Confirmed {
		t.Errorf("default oracle: got %q confirmed=%v", res.Primary, res.Confirmed)
	}
}

func TestSynthesize_NotElement(t *testing.T) {
	doc := parse(t, `<body>text</body>`)
	if _, err := Synthesize(doc, nil); !errors.Is(err, ErrNotElement) {
		t.Errorf("nil: got %v", err)
	}
	if _, err := Synthesize(doc, doc.Root); !errors.Is(err, ErrNotElement) {
		t.Errorf("document node: got %v", err)
	}
}

func TestNew_InvalidPattern(t *testing.T) {
	p := DefaultPolicy()
	p.TransientPatterns = []string{"("}
	if _, err := New(Options{Policy: &p}); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

const fixture = `<!DOCTYPE html><html><head><title>t</title></head><body>
<header class="top"><nav role="navigation"><a href="/">Home</a><a href="/a" class="link">A</a><a href="/b" class="link">B</a></nav></header>
<main id="main">
  <section class="panel"><h2>One</h2><p>alpha</p><p>beta</p></section>
  <section class="panel"><h2>Two</h2><p class="note">gamma</p><ul><li>x</li><li>y</li><li data-qa="row-3">z</li></ul></section>
  <form><label id="lbl">Name</label><input><input name="q"><button type="submit">Go</button><select><option>1</option></select></form>
  <x-widget class="w"><template shadowrootmode="open"><div class="inner"><span>s1</span><span class="tag">s2</span></div><div><b>deep</b></div></template><i>light</i></x-widget>
  <x-lock><template shadowrootmode="closed"><div><em>hidden</em></div></template></x-lock>
</main>
<footer><div><div><span>f</span></div></div></footer>
</body></html>`

// Every element must resolve: exactly itself for ids, confirmed classes and
// paths; at least itself for the unconfirmed rungs.
func TestResolvability(t *testing.T) {
	doc := parse(t, fixture)
	for _, deep := range []bool{true, false} {
		s, err := New(Options{DeepShadow: deep})
		if err != nil {
			t.Fatal(err)
		}
		for _, n := range doc.Elements() {
			res, err := s.Synthesize(doc, n)
			if err != nil {
				t.Fatal(err)
			}
			scope := doc.ScopeRoot(n)
			switch res.Strategy {
			case KindID, KindStableClass:
				got, err := Match(scope, res.Primary)
				if err != nil || len(got) != 1 || got[0] != n {
					t.Errorf("%s %q: matched %d (err %v)", res.Strategy, res.Primary, len(got), err)
				}
			case KindStructural:
				got, err := res.Path.Resolve(doc)
				if err != nil || len(got) != 1 || got[0] != n {
					t.Errorf("path %q (deep=%v): resolved %d (err %v)", res.Primary, deep, len(got), err)
				}
				if res.Path.LightOnly {
					break
				}
				from := doc.Root
				if res.Path.Anchor == AnchorID {
					from = res.Path.scope
				}
				got, err = ResolveFrom(doc, from, res.Primary)
				if err != nil || len(got) != 1 || got[0] != n {
					t.Errorf("path %q (deep=%v): query matched %d (err %v)", res.Primary, deep, len(got), err)
				}
			default:
				got, err := Match(scope, res.Primary)
				if err != nil || !contains(got, n) {
					t.Errorf("%s %q: does not contain node (err %v)", res.Strategy, res.Primary, err)
				}
			}
		}
	}
}

func TestDeterminism(t *testing.T) {
	doc := parse(t, fixture)
	opt := cmpopts.IgnoreUnexported(Path{})
	for _, n := range doc.Elements() {
		a := synth(t, doc, n)
		b := synth(t, doc, n)
		if diff := cmp.Diff(a, b, opt); diff != "" {
			t.Errorf("results differ (-first +second):\n%s", diff)
		}
	}
}

func TestResult_JSONRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   Result
	}{
		{"label anchor", Result{
			Primary:   "#lbl + input",
			Alternate: "form:has(#lbl) > input:nth-of-type(1)",
			Rationale: RationaleLabel,
			Strategy:  KindLabelAnchor,
			Shadow:    ShadowPath{Hosts: []string{"x-app#app"}},
		}},
		{"light-only path", Result{
			Primary:   "x-lock > section:nth-of-type(1) > em:nth-of-type(1)",
			Rationale: RationaleStructural,
			Strategy:  KindStructural,
			Shadow:    ShadowPath{Hosts: []string{"x-lock"}, AnyClosed: true},
			LightOnly: true,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			var out Result
			if err := json.Unmarshal(b, &out); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.in, out); diff != "" {
				t.Errorf("round trip (-in +out):\n%s", diff)
			}
		})
	}
}

func TestResult_LightOnlySurvivesReencode(t *testing.T) {
	doc := parse(t, `<body><x-lock><template shadowrootmode="closed"><em mark="t">c</em></template></x-lock></body>`)
	res := synth(t, doc, marked(t, doc, "t"))
	if !res.LightOnly {
		t.Fatalf("closed boundary: want LightOnly, got %+v", res)
	}
	first, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	var back Result
	if err := json.Unmarshal(first, &back); err != nil {
		t.Fatal(err)
	}
	second, err := json.Marshal(back)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Errorf("re-encoded result differs:\n first %s\nsecond %s", first, second)
	}
}
