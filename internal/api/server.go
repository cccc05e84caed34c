// Package api provides the HTTP server for the lottery daemon. It wraps the
// round controller and balance ledger behind the operation contracts; callers
// rely only on these endpoints, never on internal state layout.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lotto-network/lotto/internal/app/ledger"
	"github.com/lotto-network/lotto/internal/app/round"
)

// Server is the lottery HTTP API server.
type Server struct {
	ctrl           *round.Controller
	ledger         *ledger.Ledger
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(ctrl *round.Controller, led *ledger.Ledger) *Server {
	return &Server{ctrl: ctrl, ledger: led}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/tickets", s.handlePurchase)
		r.Post("/reveals", s.handleReveal)
		r.Post("/payout", s.handlePayout)
		r.Post("/withdrawals/{account}", s.handleWithdraw)

		r.Get("/round", s.handleRound)
		r.Get("/round/winners", s.handleWinners)
		r.Get("/balances/{account}", s.handleBalance)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
