// Package server provides the HTTP transport for invoice issuance and
// payment verification.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JASSBR/invoice-usdc-base/invoices"
	"github.com/JASSBR/invoice-usdc-base/logger"
	"github.com/JASSBR/invoice-usdc-base/metrics"
	"github.com/JASSBR/invoice-usdc-base/types"
)

// VerifierService is the verification capability consumed by the transport.
type VerifierService interface {
	Verify(ctx context.Context, req *types.VerificationRequest) (*types.VerificationResult, error)
}

// Server is the HTTP server.
type Server struct {
	verifier VerifierService
	store    invoices.Store
	log      logger.Logger
	router   *chi.Mux
}

// New wires the router. The verifier and store are injected; the server owns
// neither.
func New(verifier VerifierService, store invoices.Store, log logger.Logger) *Server {
	s := &Server{
		verifier: verifier,
		store:    store,
		log:      log,
		router:   chi.NewRouter(),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(s.logRequests)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/verify", s.handleVerify)
		r.Post("/invoices", s.handleCreateInvoice)
		r.Get("/invoices", s.handleListInvoices)
		r.Get("/invoices/{id}", s.handleGetInvoice)
	})

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("http request", map[string]any{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).String(),
		})
	})
}
