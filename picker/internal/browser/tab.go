package browser

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/hazyhaar/domselect/dom"
)

// Tab is one page opened for a snapshot.
type Tab struct {
	Page    *rod.Page
	PageURL string
	router  *rod.HijackRouter
}

// OpenTab opens pageURL in a new tab and waits for the load event. A
// headful request on a headless manager is served headless and logged.
func (m *Manager) OpenTab(ctx context.Context, pageURL string, level StealthLevel) (*Tab, error) {
	if eff, down := m.effectiveLevel(level); down {
		m.cfg.Logger.Warn("browser: headful snapshot requested, manager runs headless",
			"url", pageURL, "requested", level, "served", eff)
		level = eff
	}

	m.mu.Lock()
	b, err := m.acquire(ctx, true)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var page *rod.Page
	if level >= LevelHeadless {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	t := &Tab{Page: page, PageURL: pageURL}
	if len(m.cfg.ResourceBlocking) > 0 {
		t.router = blockResources(page, m.cfg.ResourceBlocking)
	}

	navCtx, cancel := context.WithTimeout(ctx, m.cfg.NavigateTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		t.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		m.cfg.Logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}
	return t, nil
}

// Snapshot reads the whole DOM, shadow roots included, through
// DOM.getDocument with pierce set.
func (t *Tab) Snapshot(ctx context.Context) (*dom.Document, error) {
	depth := -1
	res, err := proto.DOMGetDocument{Depth: &depth, Pierce: true}.Call(t.Page.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("browser: get document: %w", err)
	}
	return dom.FromCDP(res.Root), nil
}

// Close stops request interception and closes the page.
func (t *Tab) Close() error {
	if t.router != nil {
		t.router.Stop()
	}
	if t.Page != nil {
		return t.Page.Close()
	}
	return nil
}
