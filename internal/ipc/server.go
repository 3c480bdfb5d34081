package ipc

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bodoithienha2026/WebRDP/internal/metrics"
)

// Server wraps an HTTP server with the API routes mounted.
type Server struct {
	httpServer *http.Server
}

// NewServer creates a Server that binds to the given address. The CORS
// origin is for the local control panel; "*" keeps it open.
func NewServer(h *Handler, listenAddr, corsOrigin string) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)
	r.Use(corsMiddleware(corsOrigin))

	r.Route("/api/v1", func(r chi.Router) {
		// The event stream outlives any request timeout, so it is
		// mounted outside the timed group.
		r.Get("/events", h.StreamEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			r.Get("/snapshot", h.GetSnapshot)
			r.Get("/activity", h.ListActivity)

			r.Post("/tasks/{taskType}/claim", h.ClaimTask)
			r.Post("/lease", h.CreateLease)
			r.Post("/lease/stop", h.StopLease)
			r.Post("/lease/extend", h.ExtendLease)
			r.Post("/reset", h.Reset)
		})
	})

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    listenAddr,
		Handler: r,
	}
	return &Server{httpServer: srv}
}

// Start begins listening for HTTP connections. Blocks until the server stops.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// FormatListenURL renders a listen address as a browsable URL. A bare
// ":port" binds all interfaces but loopback is where the panel lives.
func FormatListenURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://127.0.0.1" + addr
	}
	return "http://" + addr
}

// corsMiddleware adds CORS headers for the local control panel.
func corsMiddleware(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// metricsMiddleware counts requests by matched route and status code.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.APIRequests.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
	})
}
