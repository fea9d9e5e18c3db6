// CLAUDE:SUMMARY Owns the Chrome process used for live page snapshots: lazy launch, remote connect, periodic recycling.
// Package browser drives Chrome through Rod to take DOM snapshots of pages
// that need JavaScript (or shadow roots attached by script) to render.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// StealthLevel selects how a page is loaded.
type StealthLevel int

const (
	LevelHTTP     StealthLevel = 0 // no browser, plain HTTP fetch
	LevelHeadless StealthLevel = 1 // headless Chrome with stealth patches
	LevelHeadful  StealthLevel = 2 // headful Chrome on an Xvfb display
)

func (l StealthLevel) String() string {
	switch l {
	case LevelHTTP:
		return "http"
	case LevelHeadless:
		return "headless"
	case LevelHeadful:
		return "headful"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// Config configures the Manager.
type Config struct {
	// RemoteURL is the DevTools WebSocket URL of an existing Chrome.
	// Empty launches a local one.
	RemoteURL string

	// RecycleInterval bounds the lifetime of a launched Chrome. Default 1h.
	RecycleInterval time.Duration

	// RecycleSnapshots restarts Chrome after this many tabs. Zero disables
	// the count and leaves only RecycleInterval.
	RecycleSnapshots int

	// NavigateTimeout bounds navigation plus load. Default 30s.
	NavigateTimeout time.Duration

	// ResourceBlocking lists resource types not worth downloading for a
	// DOM snapshot: images, fonts, media, stylesheets.
	ResourceBlocking []string

	// Stealth is the launch mode. Default LevelHeadless.
	Stealth StealthLevel

	// XvfbDisplay for LevelHeadful. Default ":99".
	XvfbDisplay string

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.RecycleInterval <= 0 {
		c.RecycleInterval = time.Hour
	}
	if c.NavigateTimeout <= 0 {
		c.NavigateTimeout = 30 * time.Second
	}
	if c.Stealth == LevelHTTP {
		c.Stealth = LevelHeadless
	}
	if c.XvfbDisplay == "" {
		c.XvfbDisplay = ":99"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Manager starts Chrome on first use and recycles it after RecycleInterval
// or RecycleSnapshots tabs, whichever comes first.
type Manager struct {
	cfg     Config
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	xvfb    *exec.Cmd
	startAt time.Time
	tabs    int // tabs opened on the current browser
	closed  bool
}

// NewManager creates a Manager. Chrome is not started until Browser is called.
func NewManager(cfg Config) *Manager {
	cfg.defaults()
	return &Manager{cfg: cfg}
}

// Browser returns a connected browser, launching or recycling as needed.
func (m *Manager) Browser(ctx context.Context) (*rod.Browser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquire(ctx, false)
}

// acquire returns the current browser, counting a tab against it when tab
// is set. m.mu must be held.
func (m *Manager) acquire(ctx context.Context, tab bool) (*rod.Browser, error) {
	if m.closed {
		return nil, fmt.Errorf("browser: manager is closed")
	}
	if m.browser != nil {
		if reason := m.recycleReason(time.Now()); reason != "" {
			m.cfg.Logger.Info("browser: recycling", "reason", reason,
				"uptime", time.Since(m.startAt), "snapshots", m.tabs)
			m.cleanup()
		}
	}
	if m.browser == nil {
		b, err := m.launch(ctx)
		if err != nil {
			return nil, err
		}
		m.browser = b
		m.startAt = time.Now()
		m.tabs = 0
	}
	if tab {
		m.tabs++
	}
	return m.browser, nil
}

// recycleReason names the limit the running browser has reached, or "".
func (m *Manager) recycleReason(now time.Time) string {
	switch {
	case now.Sub(m.startAt) > m.cfg.RecycleInterval:
		return "interval"
	case m.cfg.RecycleSnapshots > 0 && m.tabs >= m.cfg.RecycleSnapshots:
		return "snapshots"
	}
	return ""
}

// effectiveLevel is the level a tab can actually get from this manager. A
// local headless Chrome cannot serve headful requests; a remote one is
// taken as is.
func (m *Manager) effectiveLevel(level StealthLevel) (StealthLevel, bool) {
	if level == LevelHeadful && m.cfg.RemoteURL == "" && m.cfg.Stealth != LevelHeadful {
		return LevelHeadless, true
	}
	return level, false
}

// Close shuts down Chrome and Xvfb.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.cleanup()
	return nil
}

func (m *Manager) launch(ctx context.Context) (*rod.Browser, error) {
	log := m.cfg.Logger

	if m.cfg.Stealth == LevelHeadful && m.cfg.RemoteURL == "" {
		if err := m.startXvfb(); err != nil {
			return nil, fmt.Errorf("browser: xvfb: %w", err)
		}
	}

	wsURL := m.cfg.RemoteURL
	if wsURL != "" {
		log.Info("browser: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New().Context(ctx)
		if m.cfg.Stealth == LevelHeadful {
			l = l.Headless(false).Env(append(os.Environ(), "DISPLAY="+m.cfg.XvfbDisplay)...)
		} else {
			l = l.Headless(true)
		}
		l = l.Set("disable-blink-features", "AutomationControlled")

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		m.lnch = l
		log.Info("browser: launched local chrome", "url", wsURL, "stealth", m.cfg.Stealth)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	if err := b.IgnoreCertErrors(true); err != nil {
		log.Warn("browser: ignore cert errors failed", "error", err)
	}
	return b, nil
}

func (m *Manager) cleanup() {
	if m.browser != nil {
		m.browser.Close()
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
	m.stopXvfb()
}
