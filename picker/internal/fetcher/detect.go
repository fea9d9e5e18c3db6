package fetcher

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

var spaIndicators = [][]byte{
	[]byte(`<div id="root"></div>`),
	[]byte(`<div id="app"></div>`),
	[]byte(`<div id="__next"></div>`),
	[]byte("<noscript>you need to enable javascript"),
	[]byte("<noscript>enable javascript"),
}

// IsSufficient reports whether static HTML can stand in for the rendered
// page. It fails for SPA shells, for pages with little visible text, and for
// pages using custom elements with no declarative shadow root, whose shadow
// trees only exist after scripts run.
func IsSufficient(page []byte) bool {
	if len(page) < 256 {
		return false
	}
	lower := bytes.ToLower(page)
	for _, ind := range spaIndicators {
		if bytes.Contains(lower, ind) {
			return false
		}
	}

	s := scan(page)
	total := s.text + s.markup
	if total == 0 || s.text < 200 {
		return false
	}
	if float64(s.text)/float64(total) < 0.10 {
		return false
	}
	return s.customElements <= s.declarativeRoots
}

type scanStats struct {
	text, markup     int
	customElements   int
	declarativeRoots int
}

// scan tokenizes page, counting visible text bytes against markup bytes.
// Script and style bodies count as markup.
func scan(page []byte) scanStats {
	var s scanStats
	z := html.NewTokenizer(bytes.NewReader(page))
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return s
		case html.TextToken:
			raw := z.Raw()
			if skip > 0 {
				s.markup += len(raw)
				continue
			}
			s.text += nonSpace(raw)
			s.markup += len(raw) - nonSpace(raw)
		case html.StartTagToken, html.SelfClosingTagToken:
			s.markup += len(z.Raw())
			name, hasAttr := z.TagName()
			tag := string(name)
			switch {
			case tag == "script" || tag == "style":
				if tt == html.StartTagToken {
					skip++
				}
			case tag == "template":
				for hasAttr {
					var k, v []byte
					k, v, hasAttr = z.TagAttr()
					if key := string(k); key == "shadowrootmode" || key == "shadowroot" {
						if m := strings.ToLower(string(v)); m == "open" || m == "closed" {
							s.declarativeRoots++
						}
					}
				}
			case strings.Contains(tag, "-"):
				s.customElements++
			}
		case html.EndTagToken:
			s.markup += len(z.Raw())
			if name, _ := z.TagName(); skip > 0 && (string(name) == "script" || string(name) == "style") {
				skip--
			}
		default:
			s.markup += len(z.Raw())
		}
	}
}

func nonSpace(b []byte) int {
	n := 0
	for _, c := range b {
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' && c != '\f' {
			n++
		}
	}
	return n
}
