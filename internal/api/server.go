// Package api exposes the scraped trade data over a small REST surface.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"

	"github.com/rshetty/tradescope/internal/config"
	"github.com/rshetty/tradescope/internal/types"
)

// TradeService is the interface the API serves. The orchestrator satisfies
// it; tests substitute fakes.
type TradeService interface {
	Trades(ctx context.Context, src types.Source) (*types.ScrapeResult, error)
	ClearCache()
	LastFetchDate() string
}

// Server wires the trade service to HTTP routes and owns the background
// refresh schedule.
type Server struct {
	router  *mux.Router
	cfg     *config.Config
	service TradeService
	cron    *cron.Cron
	logger  *slog.Logger
}

// NewServer creates and initializes the API server.
func NewServer(cfg *config.Config, service TradeService, logger *slog.Logger) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		cfg:     cfg,
		service: service,
		logger:  logger.With("component", "api_server"),
	}
	s.setupRoutes()
	return s
}

// Router exposes the handler, for tests.
func (s *Server) Router() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/trades", s.handleTrades(types.SourceDisclosure)).Methods("GET")
	s.router.HandleFunc("/insider-trades", s.handleTrades(types.SourceInsider)).Methods("GET")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/clear-cache", s.handleClearCache).Methods("GET", "POST")

	s.router.Use(corsMiddleware)
	s.router.Use(s.loggingMiddleware)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

func (s *Server) handleTrades(src types.Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.service.Trades(r.Context(), src)
		if err != nil {
			s.logger.Error("scrape failed", "source", src, "error", err)
			s.writeError(w, err)
			return
		}

		records := res.Records
		if records == nil {
			records = []types.TradeRecord{}
		}
		s.writeJSON(w, http.StatusOK, records)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":        "ok",
		"lastFetchDate": s.service.LastFetchDate(),
	})
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	s.service.ClearCache()
	s.logger.Info("cache cleared by request")
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "cache cleared"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	msg := "failed to retrieve trades"
	var fe *types.FetchError
	if errors.As(err, &fe) {
		msg = fe.Error()
	}
	s.writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error":   "scrape_failed",
		"message": msg,
	})
}

// startRefresh installs the cron schedule that pre-warms both caches, plus
// one immediate warm-up in the background so the first request after boot
// does not pay the full scrape latency.
func (s *Server) startRefresh(ctx context.Context) {
	prefetch := func() {
		for _, src := range []types.Source{types.SourceDisclosure, types.SourceInsider} {
			if _, err := s.service.Trades(ctx, src); err != nil {
				s.logger.Warn("scheduled refresh failed", "source", src, "error", err)
			}
		}
	}

	go prefetch()

	spec := s.cfg.Scraper.RefreshSchedule
	if spec == "" {
		return
	}
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(spec, prefetch); err != nil {
		s.logger.Error("invalid refresh schedule", "schedule", spec, "error", err)
		return
	}
	s.cron.Start()
	s.logger.Info("refresh schedule installed", "schedule", spec)
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.startRefresh(ctx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		s.logger.Info("shutting down", "signal", sig.String())
	}

	if s.cron != nil {
		s.cron.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}
