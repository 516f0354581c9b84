package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/webitel/checkin-notifier/internal/metrics"
)

// SurfaceCounter reports how many display surfaces are open.
type SurfaceCounter interface {
	Len() int
}

type handlers struct {
	surfaces SurfaceCounter
}

func NewRouter(m *metrics.Metrics, surfaces SurfaceCounter) http.Handler {
	h := &handlers{surfaces: surfaces}
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Get("/healthz", h.healthz)
	router.Get("/surfaces", h.surfaceCount)
	router.Method(http.MethodGet, "/metrics", m.Handler())

	return router
}

func (h *handlers) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *handlers) surfaceCount(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{"open": h.surfaces.Len()})
}

// Server serves the admin router until stopped.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

func NewServer(addr string, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start binds synchronously so a taken port fails app startup.
func (s *Server) Start() (net.Addr, error) {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return nil, fmt.Errorf("admin listen %s: %w", s.srv.Addr, err)
	}
	go func() {
		s.logger.Info("ADMIN_LISTENING", "addr", ln.Addr().String())
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("ADMIN_SERVER_FAILED", "err", err)
		}
	}()
	return ln.Addr(), nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
