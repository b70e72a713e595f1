package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/ctxlog"
	"github.com/secmon-lab/guildsweep/pkg/domain/interfaces"
)

const serviceName = "guildsweep"

// Server represents the HTTP server
type Server struct {
	*http.Server
	router       chi.Router
	guildHandler *GuildHandler
}

// NewServer creates a new HTTP server
func NewServer(ctx context.Context, addr string, version string, guildAdmin interfaces.GuildAdmin) (*Server, error) {
	router := chi.NewRouter()

	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)

	guildHandler := NewGuildHandler(guildAdmin)

	router.Get("/", handleIndex(version))
	router.Get("/health", handleHealth)

	router.Post("/addroleall", guildHandler.HandleAddRoleAll)
	router.Post("/roleremoveall", guildHandler.HandleRemoveRoleAll)
	router.Post("/unbanall", guildHandler.HandleUnbanAll)

	server := &Server{
		Server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
		router:       router,
		guildHandler: guildHandler,
	}

	return server, nil
}

// endpoints lists the routes advertised by the index
var endpoints = []string{
	"GET /",
	"GET /health",
	"POST /addroleall",
	"POST /roleremoveall",
	"POST /unbanall",
}

type indexResponse struct {
	Status    string   `json:"status"`
	Service   string   `json:"service"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}

// handleIndex reports liveness and the supported endpoints
func handleIndex(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, indexResponse{
			Status:    "ok",
			Service:   serviceName,
			Version:   version,
			Endpoints: endpoints,
		})
	}
}

// handleHealth handles health check requests
func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": serviceName,
	})
}

// writeJSON writes v as a JSON response
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ctxlog.From(r.Context()).Error("Failed to encode response", "error", err)
	}
}
