// Package httpapi exposes the agents over a small JSON API.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/buildtall-systems/pidebot/internal/app"
)

// Handler serves the API for one App.
type Handler struct {
	App *app.App
}

// NewRouter builds the router with every route registered.
func NewRouter(a *app.App) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	h := &Handler{App: a}
	h.Register(r)
	return r
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/messages", h.postMessage)

	r.Post("/orders", h.createOrder)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/cancel", h.cancelOrder)
	r.Get("/monitor", h.getMonitor)

	r.Post("/designs", h.createDesign)
	r.Post("/reservations", h.createReservation)
	r.Post("/scaffolds", h.createScaffold)

	r.Get("/stats", h.getStats)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// decode reads a JSON body into v, answering 400 itself on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// statusFor maps an agent error to a response code. Anything not listed is
// a server fault.
func statusFor(err error, clientErrs ...error) int {
	for _, e := range clientErrs {
		if errors.Is(err, e) {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}
