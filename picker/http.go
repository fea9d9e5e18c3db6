// CLAUDE:SUMMARY HTTP API for the picker: synthesize from HTML, pick from a URL, history, and hover/copy sessions.
package picker

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/domselect/safeurl"
	"github.com/hazyhaar/domselect/shield"
)

// maxRequestBody caps request bodies, which carry whole HTML documents.
const maxRequestBody = 8 << 20

// Handler returns the HTTP API with its middleware.
func (p *Picker) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	for _, mw := range shield.APIStack(maxRequestBody) {
		r.Use(mw)
	}
	p.Routes(r)
	return r
}

// Routes mounts the API on r.
func (p *Picker) Routes(r chi.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/synthesize", p.handleSynthesize)
		r.Post("/pick", p.handlePick)
		r.Get("/picks", p.handleHistory)

		r.Post("/sessions", p.handleOpen)
		r.Post("/sessions/{id}/hover", p.handleHover)
		r.Post("/sessions/{id}/copy", p.handleCopy)
		r.Delete("/sessions/{id}", p.handleClose)
	})
}

type synthesizeRequest struct {
	HTML       string `json:"html"`
	Target     string `json:"target"`
	PageURL    string `json:"page_url,omitempty"`
	DeepShadow *bool  `json:"deep_shadow,omitempty"`
}

func (p *Picker) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var req synthesizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	pick, err := p.pickHTML(r.Context(), req.HTML, req.Target, req.PageURL, req.DeepShadow)
	if err != nil {
		p.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pick)
}

type pickRequest struct {
	URL          string `json:"url"`
	Target       string `json:"target"`
	StealthLevel string `json:"stealth_level,omitempty"`
}

func (p *Picker) handlePick(w http.ResponseWriter, r *http.Request) {
	var req pickRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	level, err := ParseLevel(req.StealthLevel)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.URL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "url is required"})
		return
	}
	pick, err := p.PickURL(r.Context(), req.URL, req.Target, level)
	if err != nil {
		p.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pick)
}

func (p *Picker) handleHistory(w http.ResponseWriter, r *http.Request) {
	picks, err := p.History(r.Context(), r.URL.Query().Get("page_url"), queryInt(r, "limit", 0))
	if err != nil {
		p.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, picks)
}

type openRequest struct {
	HTML         string `json:"html,omitempty"`
	URL          string `json:"url,omitempty"`
	StealthLevel string `json:"stealth_level,omitempty"`
}

func (p *Picker) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	level, err := ParseLevel(req.StealthLevel)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s, err := p.Open(r.Context(), OpenRequest{HTML: req.HTML, URL: req.URL, Level: level})
	if err != nil {
		p.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

type hoverRequest struct {
	Target string `json:"target"`
}

func (p *Picker) handleHover(w http.ResponseWriter, r *http.Request) {
	var req hoverRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	prev, err := p.Hover(r.Context(), chi.URLParam(r, "id"), req.Target)
	if err != nil {
		p.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prev)
}

func (p *Picker) handleCopy(w http.ResponseWriter, r *http.Request) {
	pick, err := p.Copy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		p.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pick)
}

func (p *Picker) handleClose(w http.ResponseWriter, r *http.Request) {
	if err := p.CloseSession(chi.URLParam(r, "id")); err != nil {
		p.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

// statusFor maps picker errors to HTTP status codes. Anything unknown is a
// failure to load or store, reported as 502 or 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrTargetNotFound), errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAmbiguousTarget), errors.Is(err, ErrNothingHovered):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidTarget), errors.Is(err, safeurl.ErrPrivate), errors.Is(err, safeurl.ErrScheme):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoHistory):
		return http.StatusNotImplemented
	case errors.Is(err, errLoad):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (p *Picker) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= 500 {
		shield.GetLogger(r.Context()).Error("picker: request failed", "error", err)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return v
}
