// CLAUDE:SUMMARY Picker sessions: a loaded page held in memory, the hovered element, and copy-to-record.
package picker

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/net/html"

	"github.com/hazyhaar/domselect/dom"
	"github.com/hazyhaar/domselect/kit"
	"github.com/hazyhaar/domselect/picker/internal/store"
	"github.com/hazyhaar/domselect/selector"
)

// sessionTTL bounds how long an idle session keeps its document.
const sessionTTL = 30 * time.Minute

// Session is an open page on which elements are hovered and copied.
// A session is only touched under the Picker's lock.
type Session struct {
	ID        string `json:"id"`
	PageURL   string `json:"page_url,omitempty"`
	Source    string `json:"source"`
	CreatedAt int64  `json:"created_at"`

	doc      *dom.Document
	lastUsed time.Time
	hovered  *html.Node
	target   string
}

// OpenRequest names the page of a new session: inline HTML or a URL.
type OpenRequest struct {
	HTML  string `json:"html,omitempty"`
	URL   string `json:"url,omitempty"`
	Level Level  `json:"-"`
}

// Open loads a page and starts a session on it.
func (p *Picker) Open(ctx context.Context, req OpenRequest) (*Session, error) {
	var (
		doc    *dom.Document
		source = store.SourceHTML
		url    = req.URL
		err    error
	)
	switch {
	case req.HTML != "":
		doc, err = dom.ParseString(req.HTML)
		if err != nil {
			return nil, fmt.Errorf("picker: parse: %w", err)
		}
	case req.URL != "":
		page, err := p.loader.Load(ctx, req.URL, req.Level)
		if err != nil {
			return nil, fmt.Errorf("picker: %w: %s: %w", errLoad, req.URL, err)
		}
		doc, source, url = page.Doc, page.Source, page.URL
	default:
		return nil, fmt.Errorf("%w: html or url required", ErrInvalidTarget)
	}

	now := time.Now()
	s := &Session{
		ID:        p.newSessionID(),
		PageURL:   url,
		Source:    source,
		CreatedAt: now.UnixMilli(),
		doc:       doc,
		lastUsed:  now,
	}

	p.mu.Lock()
	p.expireLocked(now)
	p.sessions[s.ID] = s
	p.mu.Unlock()

	p.logger.Info("picker: session opened", "session_id", s.ID, "page_url", url, "source", source)
	return s, nil
}

// Hover moves the session's hover to target and previews its pick without
// recording it. A failed hover keeps the previous one.
func (p *Picker) Hover(ctx context.Context, id, target string) (*Preview, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, err := p.sessionLocked(id)
	if err != nil {
		return nil, err
	}
	n, err := resolveTarget(s.doc, target)
	if err != nil {
		return nil, err
	}
	pick, err := describe(p.synth, s.doc, n, target, s.PageURL, s.Source)
	if err != nil {
		return nil, err
	}
	s.hovered, s.target = n, target
	return &Preview{
		SessionID: s.ID,
		Target:    target,
		Pick:      pick,
		Tree:      selector.Tree(pick.Ancestry),
	}, nil
}

// Copy records the pick for the hovered element. The locator is recomputed
// from the current document, never reused from the preview.
func (p *Picker) Copy(ctx context.Context, id string) (*Pick, error) {
	p.mu.Lock()
	s, err := p.sessionLocked(id)
	if err != nil {
		p.mu.Unlock()
		return nil, err
	}
	if s.hovered == nil {
		p.mu.Unlock()
		return nil, ErrNothingHovered
	}
	pick, err := describe(p.synth, s.doc, s.hovered, s.target, s.PageURL, s.Source)
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if err := p.record(kit.WithSessionID(ctx, id), pick); err != nil {
		return nil, err
	}
	return pick, nil
}

// CloseSession discards a session and its document.
func (p *Picker) CloseSession(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(p.sessions, id)
	return nil
}

func (p *Picker) sessionLocked(id string) (*Session, error) {
	s, ok := p.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.lastUsed = time.Now()
	return s, nil
}

func (p *Picker) expireLocked(now time.Time) {
	for id, s := range p.sessions {
		if now.Sub(s.lastUsed) > sessionTTL {
			delete(p.sessions, id)
			p.logger.Debug("picker: session expired", "session_id", id)
		}
	}
}
