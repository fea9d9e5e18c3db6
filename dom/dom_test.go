package dom

import (
	"strings"
	"testing"

	"github.com/go-rod/rod/lib/proto"
	"golang.org/x/net/html"
)

func find(t *testing.T, doc *Document, id string) *html.Node {
	t.Helper()
	var found *html.Node
	doc.Walk(func(n *html.Node) bool {
		if ID(n) == id {
			found = n
			return false
		}
		return true
	})
	if found == nil {
		t.Fatalf("no element with id %q", id)
	}
	return found
}

func TestParse_DeclarativeShadow(t *testing.T) {
	doc, err := ParseString(`<html><body>
<my-card id="card"><template shadowrootmode="open"><div id="inner"><span id="deep">x</span></div></template><p id="light">light</p></my-card>
<my-lock id="lock"><template shadowrootmode="closed"><b id="secret">s</b></template></my-lock>
</body></html>`)
	if err != nil {
		t.Fatal(err)
	}

	card := find(t, doc, "card")
	sr := doc.ShadowRootOf(card)
	if sr == nil {
		t.Fatal("card has no shadow root")
	}
	if sr.Mode != ModeOpen {
		t.Errorf("mode: got %q, want %q", sr.Mode, ModeOpen)
	}
	for _, c := range ElementChildren(card) {
		if Tag(c) == "template" {
			t.Error("template still in the light tree")
		}
	}

	inner := find(t, doc, "inner")
	if doc.ContainingShadowRoot(inner) != sr {
		t.Error("inner not inside card's shadow root")
	}
	if doc.ScopeRoot(inner) != sr.Root {
		t.Error("scope root of inner is not the fragment")
	}
	if doc.ContainingShadowRoot(find(t, doc, "light")) != nil {
		t.Error("light child reported inside a shadow root")
	}

	lock := doc.ShadowRootOf(find(t, doc, "lock"))
	if lock == nil || lock.Mode != ModeClosed {
		t.Fatalf("lock shadow root: got %+v", lock)
	}
	if got := len(doc.ShadowRoots()); got != 2 {
		t.Errorf("shadow roots: got %d, want 2", got)
	}
}

func TestParse_NestedShadowAndSecondTemplate(t *testing.T) {
	doc, err := ParseString(`<body><outer-el id="o"><template shadowrootmode="open"><inner-el id="i"><template shadowrootmode="open"><em id="e">e</em></template></inner-el></template><template shadowrootmode="open"><i id="stay">x</i></template></outer-el></body>`)
	if err != nil {
		t.Fatal(err)
	}
	e := find(t, doc, "e")
	sr := doc.ContainingShadowRoot(e)
	if sr == nil || ID(sr.Host) != "i" {
		t.Fatalf("e should live in i's shadow root, got %+v", sr)
	}
	if outer := doc.ContainingShadowRoot(sr.Host); outer == nil || ID(outer.Host) != "o" {
		t.Fatal("i should live in o's shadow root")
	}
	// Only the first declarative template attaches; the second stays a template.
	stay := find(t, doc, "stay")
	if doc.ContainingShadowRoot(stay) != nil {
		t.Error("second template was promoted")
	}
}

func TestParse_UnknownModeIgnored(t *testing.T) {
	doc, err := ParseString(`<div id="h"><template shadowrootmode="bogus"><b>x</b></template></div>`)
	if err != nil {
		t.Fatal(err)
	}
	if doc.ShadowRootOf(find(t, doc, "h")) != nil {
		t.Error("bogus mode attached a shadow root")
	}
}

func TestAttachShadow_Twice(t *testing.T) {
	doc, _ := ParseString(`<div id="h"></div>`)
	h := find(t, doc, "h")
	if _, err := doc.AttachShadow(h, ModeOpen); err != nil {
		t.Fatal(err)
	}
	if _, err := doc.AttachShadow(h, ModeOpen); err != ErrShadowAttached {
		t.Errorf("got %v, want ErrShadowAttached", err)
	}
}

func TestNodeHelpers(t *testing.T) {
	doc, _ := ParseString(`<ul id="l"><li>a</li><p>x</p><li id="two" class=" a	b  c ">b</li></ul>`)
	two := find(t, doc, "two")
	if got := TypeIndex(two); got != 2 {
		t.Errorf("TypeIndex: got %d, want 2", got)
	}
	if got := ChildIndex(two); got != 3 {
		t.Errorf("ChildIndex: got %d, want 3", got)
	}
	if got := strings.Join(Classes(two), ","); got != "a,b,c" {
		t.Errorf("Classes: got %q", got)
	}
	if prev := PrevElementSibling(two); prev == nil || Tag(prev) != "p" {
		t.Error("PrevElementSibling: want p")
	}
	if ParentElement(two) != find(t, doc, "l") {
		t.Error("ParentElement mismatch")
	}
	if got := TextContent(find(t, doc, "l")); got != "axb" {
		t.Errorf("TextContent: got %q", got)
	}
}

func TestClasses_NonASCIISpaceStaysInToken(t *testing.T) {
	doc, _ := ParseString("<div id=\"d\" class=\"a\u00a0b c\"></div>")
	got := Classes(find(t, doc, "d"))
	if len(got) != 2 || got[0] != "a\u00a0b" {
		t.Errorf("got %q", got)
	}
}

func TestFromCDP(t *testing.T) {
	root := &proto.DOMNode{
		NodeType: 9,
		NodeName: "#document",
		Children: []*proto.DOMNode{
			{NodeType: 10, NodeName: "html"},
			{
				NodeType: 1, NodeName: "HTML", LocalName: "html",
				Children: []*proto.DOMNode{{
					NodeType: 1, NodeName: "BODY", LocalName: "body",
					Children: []*proto.DOMNode{
						{
							NodeType: 1, NodeName: "X-APP", LocalName: "x-app",
							Attributes: []string{"id", "app", "class", "shell"},
							ShadowRoots: []*proto.DOMNode{{
								NodeType:       11,
								ShadowRootType: proto.DOMShadowRootTypeOpen,
								Children: []*proto.DOMNode{{
									NodeType: 1, NodeName: "BUTTON", LocalName: "button",
									Attributes: []string{"id", "go"},
									Children:   []*proto.DOMNode{{NodeType: 3, NodeValue: "Go"}},
								}},
							}},
						},
						{
							NodeType: 1, NodeName: "INPUT", LocalName: "input",
							Attributes: []string{"id", "q"},
							ShadowRoots: []*proto.DOMNode{{
								NodeType:       11,
								ShadowRootType: proto.DOMShadowRootTypeUserAgent,
								Children:       []*proto.DOMNode{{NodeType: 1, LocalName: "div"}},
							}},
						},
					},
				}},
			},
		},
	}

	doc := FromCDP(root)
	app := find(t, doc, "app")
	if got := AttrValue(app, "class"); got != "shell" {
		t.Errorf("class: got %q", got)
	}
	sr := doc.ShadowRootOf(app)
	if sr == nil || sr.Mode != ModeOpen {
		t.Fatalf("x-app shadow root: got %+v", sr)
	}
	btn := find(t, doc, "go")
	if doc.ContainingShadowRoot(btn) != sr {
		t.Error("button not in x-app's shadow tree")
	}
	if got := TextContent(btn); got != "Go" {
		t.Errorf("text: got %q", got)
	}
	if doc.ShadowRootOf(find(t, doc, "q")) != nil {
		t.Error("user-agent shadow root was attached")
	}
	if first := doc.Root.FirstChild; first == nil || first.Type != html.DoctypeNode {
		t.Error("doctype not preserved")
	}
}

func TestWalk_Order(t *testing.T) {
	doc, _ := ParseString(`<body><a id="1"><template shadowrootmode="open"><b id="2"></b></template><c id="3"></c></a><d id="4"></d></body>`)
	var ids []string
	for _, n := range doc.Elements() {
		if id := ID(n); id != "" {
			ids = append(ids, id)
		}
	}
	if got := strings.Join(ids, ","); got != "1,2,3,4" {
		t.Errorf("walk order: got %s, want 1,2,3,4", got)
	}
}
