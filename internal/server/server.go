package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"pocketdrop/internal/auth"
	"pocketdrop/internal/config"
	"pocketdrop/internal/handlers"
	"pocketdrop/internal/metrics"
	"pocketdrop/internal/observer"
)

// Server wraps the HTTP server
type Server struct {
	logger   *zap.Logger
	cfg      *config.Config
	recorder *observer.Recorder
	srv      *http.Server
}

// New creates a new server instance and mounts the full route table.
func New(logger *zap.Logger, cfg *config.Config, m *metrics.Metrics, rec *observer.Recorder, h *handlers.Handler, healthHandler *handlers.HealthHandler) *Server {
	r := mux.NewRouter()

	counting := handlers.Counting(rec, m)
	r.Use(handlers.RequestID, counting)

	// Metrics endpoint behind the optional guard
	guard := auth.NewGuard(cfg.MetricsUsername, cfg.MetricsPassword, m)
	r.Handle("/metrics", guard.Middleware(promhttp.Handler())).Methods("GET")

	r.HandleFunc("/health", healthHandler.Health).Methods("GET")

	r.HandleFunc("/", h.Page).Methods("GET")
	r.HandleFunc("/index.html", h.Page).Methods("GET")
	r.HandleFunc("/api/files", h.Files).Methods("GET")
	r.HandleFunc("/api/activity", h.Activity).Methods("GET")
	r.HandleFunc("/upload", h.Upload).Methods("POST")
	r.HandleFunc("/download-folder/{path:.*}", h.DownloadFolder).Methods("GET")
	r.HandleFunc("/download-selected", h.DownloadSelected).Methods("GET")
	r.HandleFunc("/download/{path:.*}", h.DownloadFile).Methods("GET")

	// Router middlewares do not run for these two, so the chain is applied
	// by hand. Unknown paths and wrong methods both answer 404 and still
	// advance the connection counter.
	notFound := handlers.RequestID(counting(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not found", http.StatusNotFound)
	})))
	r.NotFoundHandler = notFound
	r.MethodNotAllowedHandler = notFound

	return &Server{
		logger:   logger,
		cfg:      cfg,
		recorder: rec,
		srv:      &http.Server{Handler: r},
	}
}

// Start binds the listening socket and begins serving. Binding happens
// here so a port already in use fails the call instead of surfacing later
// from the serve goroutine.
func (s *Server) Start() error {
	addr := ":" + s.cfg.Port
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	s.srv.Addr = addr
	s.logger.Info("starting HTTP server", zap.String("addr", addr))

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// WaitForShutdown blocks until an interrupt arrives, then drains the
// server and resets the session counter.
func (s *Server) WaitForShutdown() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	s.logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return err
	}

	s.recorder.ResetConnections()
	s.logger.Info("server stopped")
	return nil
}
