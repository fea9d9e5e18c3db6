// CLAUDE:SUMMARY Picker orchestrator: load a page, resolve the target, synthesize its locator, describe its ancestry, record it.
// Package picker turns "this element on this page" into a recorded locator.
//
// A page comes from caller-supplied HTML, a static HTTP fetch, or a Chrome
// snapshot (shadow roots included). The target is named by a CSS selector,
// optionally crossing shadow boundaries with " >>> ", and must match exactly
// one element. Picks are kept in SQLite when a database is configured.
//
// Usage:
//
//	p, err := picker.New(cfg, logger)
//	defer p.Close()
//	pick, err := p.PickURL(ctx, "https://example.com", "form button", picker.LevelAuto)
//	p.RegisterMCP(mcpServer)
//	p.Routes(router)
package picker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/hazyhaar/domselect/dom"
	"github.com/hazyhaar/domselect/idgen"
	"github.com/hazyhaar/domselect/kit"
	"github.com/hazyhaar/domselect/picker/internal/browser"
	"github.com/hazyhaar/domselect/picker/internal/fetcher"
	"github.com/hazyhaar/domselect/picker/internal/store"
	"github.com/hazyhaar/domselect/safeurl"
	"github.com/hazyhaar/domselect/selector"
)

// Picker is the main domselect orchestrator.
type Picker struct {
	config   *Config
	synth    *selector.Synthesizer // configured shadow traversal
	flipped  *selector.Synthesizer // the opposite traversal, for per-request overrides
	store    *store.Store
	loader   Loader
	browsers *browser.Manager
	logger   *slog.Logger

	newPickID    idgen.Generator
	newSessionID idgen.Generator

	mu       sync.Mutex
	sessions map[string]*Session
}

// Option configures a Picker.
type Option func(*Picker)

// WithLoader replaces the HTTP/Chrome page loader.
func WithLoader(l Loader) Option {
	return func(p *Picker) { p.loader = l }
}

// WithStore records picks in s instead of opening cfg.DBPath.
func WithStore(s *store.Store) Option {
	return func(p *Picker) { p.store = s }
}

// WithIDGenerator sets the pick ID generator.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(p *Picker) { p.newPickID = gen }
}

// New creates a Picker. It opens cfg.DBPath when set; Chrome is only
// started by the first page that needs it.
func New(cfg *Config, logger *slog.Logger, opts ...Option) (*Picker, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	synth, err := selector.New(selector.Options{
		DeepShadow: cfg.Deep(),
		Policy:     &cfg.Policy,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("picker: policy: %w", err)
	}
	flipped, err := selector.New(selector.Options{
		DeepShadow: !cfg.Deep(),
		Policy:     &cfg.Policy,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("picker: policy: %w", err)
	}

	p := &Picker{
		config:       cfg,
		synth:        synth,
		flipped:      flipped,
		logger:       logger,
		newPickID:    idgen.Prefixed("pick_", idgen.Default),
		newSessionID: idgen.Prefixed("ses_", idgen.NanoID(16)),
		sessions:     make(map[string]*Session),
	}
	for _, o := range opts {
		o(p)
	}

	if p.loader == nil {
		stealth := browser.LevelHeadless
		if strings.EqualFold(cfg.Browser.Stealth, "headful") {
			stealth = browser.LevelHeadful
		}
		p.browsers = browser.NewManager(browser.Config{
			RemoteURL:        cfg.Browser.Remote,
			RecycleInterval:  cfg.Browser.RecycleInterval,
			RecycleSnapshots: cfg.Browser.RecycleSnapshots,
			NavigateTimeout:  cfg.Browser.NavigateTimeout,
			ResourceBlocking: cfg.Browser.ResourceBlocking,
			Stealth:          stealth,
			XvfbDisplay:      cfg.Browser.XvfbDisplay,
			Logger:           logger,
		})
		wl := &webLoader{
			browsers: p.browsers,
			escalate: Level(stealth),
			logger:   logger,
		}
		fopts := []fetcher.Option{fetcher.WithLogger(logger)}
		if !cfg.AllowPrivate {
			wl.guard = safeurl.Check
			fopts = append(fopts, fetcher.WithURLCheck(safeurl.Check))
		}
		wl.fetch = fetcher.New(fopts...)
		p.loader = wl
	}

	if p.store == nil && cfg.DBPath != "" {
		s, err := store.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("picker: open store: %w", err)
		}
		p.store = s
	}
	return p, nil
}

// Close drops every session, shuts down Chrome and closes the database.
func (p *Picker) Close() error {
	p.mu.Lock()
	clear(p.sessions)
	p.mu.Unlock()

	var errs []error
	if p.browsers != nil {
		errs = append(errs, p.browsers.Close())
	}
	if p.store != nil {
		errs = append(errs, p.store.Close())
	}
	return errors.Join(errs...)
}

// PickHTML parses src and picks target in it. pageURL is informational.
func (p *Picker) PickHTML(ctx context.Context, src, target, pageURL string) (*Pick, error) {
	return p.pickHTML(ctx, src, target, pageURL, nil)
}

// pickHTML is PickHTML with an optional override of shadow traversal.
func (p *Picker) pickHTML(ctx context.Context, src, target, pageURL string, deep *bool) (*Pick, error) {
	doc, err := dom.ParseString(src)
	if err != nil {
		return nil, fmt.Errorf("picker: parse: %w", err)
	}
	return p.pickDocument(ctx, p.synthesizer(deep), doc, target, pageURL, store.SourceHTML)
}

// PickURL loads pageURL at the given level and picks target in it.
func (p *Picker) PickURL(ctx context.Context, pageURL, target string, level Level) (*Pick, error) {
	page, err := p.loader.Load(ctx, pageURL, level)
	if err != nil {
		return nil, fmt.Errorf("picker: %w: %s: %w", errLoad, pageURL, err)
	}
	return p.PickDocument(ctx, page.Doc, target, page.URL, page.Source)
}

// PickDocument resolves target in doc, synthesizes its locator and records
// the pick.
func (p *Picker) PickDocument(ctx context.Context, doc *dom.Document, target, pageURL, source string) (*Pick, error) {
	return p.pickDocument(ctx, p.synth, doc, target, pageURL, source)
}

func (p *Picker) pickDocument(ctx context.Context, synth *selector.Synthesizer, doc *dom.Document, target, pageURL, source string) (*Pick, error) {
	n, err := resolveTarget(doc, target)
	if err != nil {
		return nil, err
	}
	pick, err := describe(synth, doc, n, target, pageURL, source)
	if err != nil {
		return nil, err
	}
	if err := p.record(ctx, pick); err != nil {
		return nil, err
	}
	return pick, nil
}

// History lists recorded picks, newest first, optionally for one page.
func (p *Picker) History(ctx context.Context, pageURL string, limit int) ([]*Pick, error) {
	if p.store == nil {
		return nil, ErrNoHistory
	}
	picks, err := p.store.ListPicks(ctx, pageURL, limit)
	if err != nil {
		return nil, err
	}
	if picks == nil {
		picks = []*Pick{}
	}
	return picks, nil
}

func (p *Picker) synthesizer(deep *bool) *selector.Synthesizer {
	if deep != nil && *deep != p.config.Deep() {
		return p.flipped
	}
	return p.synth
}

// describe builds an unrecorded pick for n.
func describe(synth *selector.Synthesizer, doc *dom.Document, n *html.Node, target, pageURL, source string) (*Pick, error) {
	res, err := synth.Synthesize(doc, n)
	if err != nil {
		return nil, err
	}
	crumbs, err := synth.Ancestry(doc, n)
	if err != nil {
		return nil, err
	}
	return &Pick{
		PageURL:  pageURL,
		Target:   target,
		Source:   source,
		Result:   *res,
		Ancestry: crumbs,
	}, nil
}

// record assigns an ID and stores the pick when a store is configured.
func (p *Picker) record(ctx context.Context, pick *Pick) error {
	pick.ID = p.newPickID()
	pick.CreatedAt = time.Now().UnixMilli()
	if p.store == nil {
		return nil
	}
	if err := p.store.InsertPick(ctx, pick); err != nil {
		return fmt.Errorf("picker: record: %w", err)
	}
	p.logger.Info("picker: recorded",
		"id", pick.ID, "page_url", pick.PageURL,
		"locator", pick.Result.Primary, "strategy", pick.Result.Strategy,
		"transport", kit.GetTransport(ctx), "trace_id", kit.GetTraceID(ctx),
		"session_id", kit.GetSessionID(ctx))
	return nil
}

// resolveTarget requires target to name exactly one element.
func resolveTarget(doc *dom.Document, target string) (*html.Node, error) {
	if strings.TrimSpace(target) == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidTarget)
	}
	nodes, err := selector.Resolve(doc, target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}
	switch len(nodes) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, target)
	case 1:
		return nodes[0], nil
	}
	return nil, fmt.Errorf("%w: %s matches %d elements", ErrAmbiguousTarget, target, len(nodes))
}
