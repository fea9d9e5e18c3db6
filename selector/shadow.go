package selector

import (
	"github.com/hazyhaar/domselect/dom"
	"golang.org/x/net/html"
)

// ShadowPath lists the shadow hosts enclosing a node.
type ShadowPath struct {
	Hosts     []string `json:"hosts"` // outermost first, "tag" or "tag#id"
	AnyClosed bool     `json:"anyClosed"`
}

// DescribeShadow walks the chain of shadow roots containing n.
func DescribeShadow(doc *dom.Document, n *html.Node) ShadowPath {
	sp := ShadowPath{Hosts: []string{}}
	for sr := doc.ContainingShadowRoot(n); sr != nil; sr = doc.ContainingShadowRoot(sr.Host) {
		sp.Hosts = append(sp.Hosts, describeHost(sr.Host))
		if sr.Mode != dom.ModeOpen {
			sp.AnyClosed = true
		}
	}
	for i, j := 0, len(sp.Hosts)-1; i < j; i, j = i+1, j-1 {
		sp.Hosts[i], sp.Hosts[j] = sp.Hosts[j], sp.Hosts[i]
	}
	return sp
}

func describeHost(n *html.Node) string {
	if id := dom.ID(n); id != "" {
		return dom.Tag(n) + "#" + id
	}
	return dom.Tag(n)
}
