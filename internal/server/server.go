// Package server exposes the auditor over HTTP: one scan endpoint per
// resource family plus a consolidated text report, all behind basic auth.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cloudops-labs/cis-auditor/internal/alert"
	"github.com/cloudops-labs/cis-auditor/internal/config"
	"github.com/cloudops-labs/cis-auditor/internal/models"
	"github.com/cloudops-labs/cis-auditor/internal/report"
	"github.com/cloudops-labs/cis-auditor/internal/scanner"
)

// Server wires the scanner registry and the alert dispatcher behind the
// HTTP surface. Scan requests are synchronous: enumerate, evaluate,
// dispatch alerts, respond.
type Server struct {
	cfg        config.Config
	registry   *scanner.Registry
	dispatcher *alert.Dispatcher
}

// New builds a Server. The dispatcher may be nil when alerting is not
// configured; scans then just return their findings.
func New(cfg config.Config, registry *scanner.Registry, dispatcher *alert.Dispatcher) *Server {
	return &Server{cfg: cfg, registry: registry, dispatcher: dispatcher}
}

// Handler returns the routed HTTP handler. Everything except the health
// probe requires basic auth.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /scan/{family}", s.requireAuth(http.HandlerFunc(s.handleScan)))
	mux.Handle("GET /report", s.requireAuth(http.HandlerFunc(s.handleReport)))
	return mux
}

// ListenAndServe runs the server until the context is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logrus.WithField("listen", s.cfg.Server.Listen).Info("audit server listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// requireAuth gates a handler behind basic auth with constant-time
// credential comparison.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		userOK := subtle.ConstantTimeCompare([]byte(user), []byte(s.cfg.Auth.Username)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(s.cfg.Auth.Password)) == 1
		if !ok || !userOK || !passOK {
			logrus.WithField("remote", r.RemoteAddr).Warn("rejected unauthenticated request")
			w.Header().Set("WWW-Authenticate", `Basic realm="cis-auditor"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleScan runs one resource family's checks and dispatches alerts
// best-effort before responding with the report.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	family := r.PathValue("family")
	sc, ok := s.registry.Scanner(family)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown resource family: "+family)
		return
	}

	findings, err := sc.Scan(r.Context())
	if err != nil {
		logrus.WithError(err).WithField("family", family).Error("scan failed")
		writeError(w, http.StatusBadGateway, "scan failed: "+err.Error())
		return
	}

	if err := s.dispatch(r.Context(), findings); err != nil {
		writeError(w, http.StatusBadGateway, "alert dispatch failed: "+err.Error())
		return
	}

	rep := models.ScanReport{
		ReportID:    uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Family:      family,
		Findings:    findings,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rep)
}

// handleReport scans every registered family and renders the plain-text
// report. No alerts are sent from this endpoint.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	findings, err := s.registry.ScanAll(r.Context())
	if err != nil {
		logrus.WithError(err).Error("report scan failed")
		writeError(w, http.StatusBadGateway, "scan failed: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(report.Generate(findings)))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) dispatch(ctx context.Context, findings []models.Finding) error {
	if s.dispatcher == nil {
		return nil
	}
	return s.dispatcher.Dispatch(ctx, findings)
}
