// Package server exposes a converter over HTTP. The server is stateless
// across requests: one rule set loaded at startup, fresh counter state per
// posted tree.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/reshape"
	"github.com/aretw0/reshape/pkg/events"
	"github.com/aretw0/reshape/pkg/schema"
)

// Server handles conversion requests for one rule set.
type Server struct {
	rules   *schema.RuleSet
	logger  *slog.Logger
	metrics *Metrics
}

// NewHandler creates the HTTP handler for the given rule set.
func NewHandler(rules *schema.RuleSet, logger *slog.Logger) http.Handler {
	s := &Server{
		rules:   rules,
		logger:  logger,
		metrics: NewMetrics(),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.Healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
	r.Post("/convert", s.Convert)
	return r
}

// Healthz handles the GET /healthz request.
func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// ConvertRequest is the POST /convert body.
type ConvertRequest struct {
	Tree              map[string]any `json:"tree"`
	SequenceOverrides map[string]int `json:"sequence_overrides,omitempty"`
}

// ConvertResponse is the POST /convert reply. Diagnostics lists the
// recoverable problems hit while converting; the conversion still
// succeeded.
type ConvertResponse struct {
	Tree        map[string]any           `json:"tree"`
	Diagnostics []events.DiagnosticEvent `json:"diagnostics,omitempty"`
}

// Convert handles the POST /convert request.
func (s *Server) Convert(w http.ResponseWriter, r *http.Request) {
	var body ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.metrics.requestErrors.Inc()
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if body.Tree == nil {
		s.metrics.requestErrors.Inc()
		http.Error(w, "missing 'tree' field", http.StatusBadRequest)
		return
	}

	var diagnostics []events.DiagnosticEvent
	records := 0
	conv, err := reshape.New(s.rules,
		reshape.WithLogger(s.logger),
		reshape.WithSequenceOverrides(body.SequenceOverrides),
		reshape.WithHooks(events.Hooks{
			OnItemStart: func(context.Context, *events.ItemEvent) { records++ },
			OnDiagnostic: func(_ context.Context, ev *events.DiagnosticEvent) {
				diagnostics = append(diagnostics, *ev)
			},
		}),
	)
	if err != nil {
		http.Error(w, fmt.Sprintf("converter setup: %v", err), http.StatusInternalServerError)
		return
	}

	out, err := conv.Convert(r.Context(), body.Tree)
	if err != nil {
		s.metrics.requestErrors.Inc()
		s.logger.Error("conversion failed", "error", err)
		http.Error(w, fmt.Sprintf("conversion failed: %v", err), http.StatusInternalServerError)
		return
	}

	s.metrics.conversions.Inc()
	s.metrics.records.Add(float64(records))
	s.metrics.diagnostics.Add(float64(len(diagnostics)))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ConvertResponse{Tree: out, Diagnostics: diagnostics}); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}
