package picker

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/domselect/dom"
	"github.com/hazyhaar/domselect/picker/internal/browser"
	"github.com/hazyhaar/domselect/picker/internal/fetcher"
	"github.com/hazyhaar/domselect/picker/internal/store"
)

// Loader turns a URL into a document.
type Loader interface {
	Load(ctx context.Context, pageURL string, level Level) (*Page, error)
}

// webLoader fetches over HTTP and falls back to Chrome.
type webLoader struct {
	fetch    *fetcher.Fetcher
	browsers *browser.Manager
	escalate Level // browser level used when auto escalates
	guard    func(context.Context, string) error
	logger   *slog.Logger
}

func (l *webLoader) Load(ctx context.Context, pageURL string, level Level) (*Page, error) {
	if l.guard != nil {
		if err := l.guard(ctx, pageURL); err != nil {
			return nil, err
		}
	}
	if level == LevelHTTP || level == LevelAuto {
		res, err := l.fetch.Fetch(ctx, pageURL)
		switch {
		case err != nil && level == LevelHTTP:
			return nil, err
		case err != nil:
			l.logger.Info("picker: http fetch failed, escalating", "url", pageURL, "error", err)
		case level == LevelHTTP || res.Sufficient:
			doc, err := dom.Parse(bytes.NewReader(res.HTML))
			if err != nil {
				return nil, fmt.Errorf("picker: parse %s: %w", pageURL, err)
			}
			return &Page{Doc: doc, URL: res.URL, Source: store.SourceHTTP}, nil
		default:
			l.logger.Info("picker: static html insufficient, escalating", "url", pageURL, "level", l.escalate)
		}
		level = l.escalate
	}

	tab, err := l.browsers.OpenTab(ctx, pageURL, browser.StealthLevel(level))
	if err != nil {
		return nil, err
	}
	defer tab.Close()

	doc, err := tab.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &Page{Doc: doc, URL: pageURL, Source: store.SourceBrowser}, nil
}
