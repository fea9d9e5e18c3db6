// CLAUDE:SUMMARY Synthesizer drives the strategy ladder and assembles the Result for a node.
// Package selector synthesizes short, stable CSS locators for nodes of a
// dom.Document. A fixed ladder of strategies is tried in priority order and
// the first acceptance wins; the structural path at the bottom never fails.
package selector

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hazyhaar/domselect/dom"
	"golang.org/x/net/html"
)

// ErrNotElement is returned when the target is nil or not an element.
var ErrNotElement = errors.New("selector: target is not an element")

// Options configures a Synthesizer.
type Options struct {
	// DeepShadow lets the structural path cross open shadow boundaries.
	DeepShadow bool
	// Policy defaults to DefaultPolicy().
	Policy *Policy
	// Oracle defaults to CascadiaOracle.
	Oracle Oracle
	// Logger receives one Debug record per strategy attempt. Nil is silent.
	Logger *slog.Logger
}

// Result is the outcome of a synthesis.
type Result struct {
	Primary   string
	Alternate string
	Rationale string
	Strategy  Kind
	Confirmed bool
	Shadow    ShadowPath
	// LightOnly mirrors Path.LightOnly and survives a JSON round trip.
	LightOnly bool
	// Path is set when the structural strategy won.
	Path *Path
}

type resultJSON struct {
	Primary   string     `json:"primaryLocator"`
	Alternate *string    `json:"alternateLocator"`
	Rationale string     `json:"rationale"`
	Strategy  Kind       `json:"strategy"`
	Confirmed bool       `json:"confirmed"`
	Shadow    ShadowPath `json:"shadowPath"`
	LightOnly bool       `json:"lightOnly,omitempty"`
}

// MarshalJSON writes alternateLocator as null when there is none.
func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{
		Primary:   r.Primary,
		Rationale: r.Rationale,
		Strategy:  r.Strategy,
		Confirmed: r.Confirmed,
		Shadow:    r.Shadow,
		LightOnly: r.LightOnly || (r.Path != nil && r.Path.LightOnly),
	}
	if r.Alternate != "" {
		alt := r.Alternate
		out.Alternate = &alt
	}
	if out.Shadow.Hosts == nil {
		out.Shadow.Hosts = []string{}
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads what MarshalJSON writes. The Path is not restored.
func (r *Result) UnmarshalJSON(b []byte) error {
	var in resultJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*r = Result{
		Primary:   in.Primary,
		Rationale: in.Rationale,
		Strategy:  in.Strategy,
		Confirmed: in.Confirmed,
		Shadow:    in.Shadow,
		LightOnly: in.LightOnly,
	}
	if in.Alternate != nil {
		r.Alternate = *in.Alternate
	}
	return nil
}

// Synthesizer runs the ladder. It holds no per-document state and is safe
// for concurrent use.
type Synthesizer struct {
	deep   bool
	policy *policy
	oracle Oracle
	ladder []Strategy
	logger *slog.Logger
}

// New builds a Synthesizer. It fails only on an invalid transient pattern.
func New(opts Options) (*Synthesizer, error) {
	p := DefaultPolicy()
	if opts.Policy != nil {
		p = *opts.Policy
	}
	cp, err := compilePolicy(p)
	if err != nil {
		return nil, err
	}
	s := &Synthesizer{
		deep:   opts.DeepShadow,
		policy: cp,
		oracle: opts.Oracle,
		ladder: Ladder(),
		logger: opts.Logger,
	}
	if s.oracle == nil {
		s.oracle = CascadiaOracle{}
	}
	return s, nil
}

var defaultSynth, _ = New(Options{DeepShadow: true})

// Synthesize runs the default Synthesizer (deep shadow traversal on).
func Synthesize(doc *dom.Document, n *html.Node) (*Result, error) {
	return defaultSynth.Synthesize(doc, n)
}

// Synthesize describes n. The result is recomputed on every call.
func (s *Synthesizer) Synthesize(doc *dom.Document, n *html.Node) (*Result, error) {
	if !dom.IsElement(n) {
		return nil, ErrNotElement
	}
	ctx := &Context{
		Doc:        doc,
		Node:       n,
		Scope:      doc.ScopeRoot(n),
		Oracle:     s.oracle,
		DeepShadow: s.deep,
		policy:     s.policy,
	}
	for _, st := range s.ladder {
		c, ok := st.Attempt(ctx)
		if s.logger != nil {
			s.logger.Debug("selector: attempt", "strategy", st.Kind(), "accepted", ok, "locator", c.Locator)
		}
		if !ok {
			continue
		}
		return &Result{
			Primary:   c.Locator,
			Alternate: c.Alternate,
			Rationale: c.Rationale,
			Strategy:  c.Strategy,
			Confirmed: c.Confirmed,
			Shadow:    DescribeShadow(doc, n),
			LightOnly: c.Path != nil && c.Path.LightOnly,
			Path:      c.Path,
		}, nil
	}
	// Unreachable: the structural strategy always accepts.
	return nil, ErrNotElement
}

// Path builds the structural path for n regardless of what the ladder
// would pick.
func (s *Synthesizer) Path(doc *dom.Document, n *html.Node) (Path, error) {
	if !dom.IsElement(n) {
		return Path{}, ErrNotElement
	}
	return buildPath(doc, n, s.deep, s.policy), nil
}
