package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dicloak-labs/dicloak-console/pkg/domain/interfaces"
	"github.com/dicloak-labs/dicloak-console/pkg/domain/model"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// Server is the HTTP server the browser console talks to
type Server struct {
	*http.Server
	router chi.Router
}

// NewServer creates the console HTTP server
func NewServer(ctx context.Context, addr string, console interfaces.Console) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)

	h := &handlers{console: console}

	router.Get("/health", handleHealth)

	router.Route("/api", func(r chi.Router) {
		r.Post("/credentials", h.setCredentials)
		r.Get("/selftest", h.selfTest)
		r.Get("/team", h.resolveTeam)
		r.Get("/groups", h.listGroups)
		r.Get("/roles", h.listRoles)

		r.Route("/members", func(r chi.Router) {
			r.Get("/", h.listMembers)
			r.Post("/", h.createMember)
			r.Route("/{memberID}", func(r chi.Router) {
				r.Get("/", h.getMember)
				r.Put("/", h.updateMember)
				r.Delete("/", h.deleteMember)
				r.Post("/groups", h.assignGroups)
			})
		})
	})

	return &Server{
		Server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
		router: router,
	}
}

// handleHealth handles liveness requests
func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "dicloak-console",
	})
}

// writeJSON writes a JSON response body
func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		ctxlog.From(ctx).Error("failed to encode response", "error", err)
	}
}

// writeError maps error tags onto HTTP statuses and writes a JSON error
// body. Upstream failures (network, bad envelope, API error) surface as
// 502 so the UI can tell "DICloak broke" from "your input broke".
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case goerr.HasTag(err, model.ErrTagValidation):
		status = http.StatusBadRequest
	case goerr.HasTag(err, model.ErrTagNotFound):
		status = http.StatusNotFound
	case goerr.HasTag(err, model.ErrTagPermission):
		status = http.StatusForbidden
	case goerr.HasTag(err, model.ErrTagNetwork),
		goerr.HasTag(err, model.ErrTagHTTPStatus),
		goerr.HasTag(err, model.ErrTagUnexpectedResponse),
		goerr.HasTag(err, model.ErrTagAPIError):
		status = http.StatusBadGateway
	}

	message := err.Error()
	if goErr := goerr.Unwrap(err); goErr != nil {
		message = goErr.Error()
	}

	ctxlog.From(ctx).Warn("request failed", "status", status, "error", err)
	writeJSON(ctx, w, status, map[string]string{"error": message})
}
