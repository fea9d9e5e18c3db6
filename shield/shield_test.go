package shield

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hazyhaar/domselect/kit"
)

func TestAPIStack(t *testing.T) {
	var gotTrace, gotReq string
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	for _, mw := range APIStack(16) {
		r.Use(mw)
	}
	r.Post("/echo", func(w http.ResponseWriter, r *http.Request) {
		gotTrace = kit.GetTraceID(r.Context())
		gotReq = kit.GetRequestID(r.Context())
		if _, err := io.ReadAll(r.Body); err != nil {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("small")))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: got %d", rec.Code)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing nosniff header")
	}
	if h := rec.Header().Get("X-Trace-ID"); h == "" || h != gotTrace {
		t.Errorf("trace id: header %q, context %q", h, gotTrace)
	}
	if gotReq == "" {
		t.Error("chi request id not propagated")
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(strings.Repeat("x", 64))))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized body: got %d, want 413", rec.Code)
	}
}
