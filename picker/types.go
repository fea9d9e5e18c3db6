// CLAUDE:SUMMARY Public types of the picker: config, picks, stealth levels, page loads.
package picker

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/domselect/dom"
	"github.com/hazyhaar/domselect/picker/internal/browser"
	"github.com/hazyhaar/domselect/picker/internal/config"
	"github.com/hazyhaar/domselect/picker/internal/render"
	"github.com/hazyhaar/domselect/picker/internal/store"
)

// Config is the domselect configuration (YAML).
type Config = config.Config

// Pick is one synthesized locator with its provenance.
type Pick = store.Pick

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (*Config, error) { return config.LoadFile(path) }

// DefaultConfig is the configuration used without a file.
func DefaultConfig() *Config { return config.Default() }

// Level selects how a page is loaded.
type Level int

const (
	LevelAuto     Level = -1 // HTTP first, escalate to a browser when the HTML looks incomplete
	LevelHTTP     Level = Level(browser.LevelHTTP)
	LevelHeadless Level = Level(browser.LevelHeadless)
	LevelHeadful  Level = Level(browser.LevelHeadful)
)

// ParseLevel accepts 0, 1, 2, auto and the names http, headless, headful.
// The empty string is auto.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return LevelAuto, nil
	case "0", "http":
		return LevelHTTP, nil
	case "1", "headless":
		return LevelHeadless, nil
	case "2", "headful":
		return LevelHeadful, nil
	}
	return LevelAuto, fmt.Errorf("picker: unknown stealth level %q", s)
}

func (l Level) String() string {
	switch l {
	case LevelHTTP:
		return "http"
	case LevelHeadless:
		return "headless"
	case LevelHeadful:
		return "headful"
	}
	return "auto"
}

// Page is a loaded document.
type Page struct {
	Doc    *dom.Document
	URL    string
	Source string // store.SourceHTTP or store.SourceBrowser
}

// Preview is what hovering shows: the pick that copying would record.
type Preview struct {
	SessionID string `json:"session_id"`
	Target    string `json:"target"`
	Pick      *Pick  `json:"pick"`
	Tree      string `json:"tree"`
}

// Render formats a pick for the terminal.
func Render(p *Pick) string { return render.Pick(p) }
