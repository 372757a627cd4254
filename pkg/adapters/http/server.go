// Package http exposes wizard sessions over a JSON REST API with
// server-sent event streams of view diffs.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/stepwise/internal/logging"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/aretw0/stepwise/pkg/sanitize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Host is the session host the server drives. *session.Manager implements it.
type Host interface {
	ports.WizardHost
	Subscribe(sessionID string) (<-chan domain.View, func(), error)
}

// Catalog lists and describes flows. *stepwise.Engine implements it.
type Catalog interface {
	Flows() ([]string, error)
	Flow(id string) (domain.Flow, error)
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	Host    Host
	Catalog Catalog
	Results ports.ResultStore
	Metrics http.Handler
	Version string
	Logger  *slog.Logger
}

// Option configures the handler built by NewHandler.
type Option func(*Server)

// WithResultStore enables GET /results/{id}.
func WithResultStore(store ports.ResultStore) Option {
	return func(s *Server) { s.Results = store }
}

// WithMetrics mounts a metrics handler (usually promhttp) on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.Metrics = h }
}

// WithVersion sets the application version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) { s.Version = v }
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.Logger = logger }
}

// NewHandler creates the HTTP handler.
func NewHandler(host Host, catalog Catalog, opts ...Option) http.Handler {
	s := &Server{
		Host:    host,
		Catalog: catalog,
		Version: "dev",
		Logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return enableCORS(s.Routes())
}

// Routes builds the chi router without CORS.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", s.GetSpec)
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})

	r.Route("/flows", func(r chi.Router) {
		r.Get("/", s.ListFlows)
		r.Get("/{flowId}", s.GetFlow)
	})

	r.Route("/wizards", func(r chi.Router) {
		r.Post("/", s.OpenWizard)
		r.Route("/{sessionId}", func(r chi.Router) {
			r.Get("/", s.ViewWizard)
			r.Delete("/", s.CancelWizard)
			r.Post("/events", s.SendEvent)
			r.Get("/stream", s.StreamWizard)
		})
	})

	r.Get("/results/{resultId}", s.GetResult)

	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Stepwise API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := Spec(); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "stepwise-http",
		"version":     strings.TrimSpace(s.Version),
		"api_version": apiVersion,
	})
}

// GetSpec handles GET /openapi.yaml.
func (s *Server) GetSpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(RawSpec())
}

// ListFlows handles GET /flows.
func (s *Server) ListFlows(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Catalog.Flows()
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}

	out := make([]domain.FlowSummary, 0, len(ids))
	for _, id := range ids {
		flow, err := s.Catalog.Flow(id)
		if err != nil {
			s.Logger.Warn("skipping unloadable flow", "flow_id", id, "err", err)
			continue
		}
		out = append(out, flow.Summary())
	}
	s.writeJSON(w, http.StatusOK, out)
}

// GetFlow handles GET /flows/{flowId}.
func (s *Server) GetFlow(w http.ResponseWriter, r *http.Request) {
	flow, err := s.Catalog.Flow(chi.URLParam(r, "flowId"))
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, flow)
}

type openRequest struct {
	FlowID string `json:"flow_id"`
}

// OpenWizard handles POST /wizards.
func (s *Server) OpenWizard(w http.ResponseWriter, r *http.Request) {
	var body openRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.FlowID == "" {
		s.writeError(w, r, badRequest("body must be {\"flow_id\": \"...\"}"), nil)
		return
	}

	view, err := s.Host.Open(r.Context(), body.FlowID)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	w.Header().Set("Location", "/wizards/"+view.SessionID)
	s.writeJSON(w, http.StatusCreated, view)
}

// ViewWizard handles GET /wizards/{sessionId}.
func (s *Server) ViewWizard(w http.ResponseWriter, r *http.Request) {
	view, err := s.Host.View(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// CancelWizard handles DELETE /wizards/{sessionId}.
func (s *Server) CancelWizard(w http.ResponseWriter, r *http.Request) {
	view, err := s.Host.Cancel(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		s.writeError(w, r, err, &view)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// SendEvent handles POST /wizards/{sessionId}/events.
func (s *Server) SendEvent(w http.ResponseWriter, r *http.Request) {
	var cmd domain.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		s.writeError(w, r, badRequest("invalid request body"), nil)
		return
	}

	cmd, err := sanitize.Command(cmd)
	if err != nil {
		s.writeError(w, r, badRequest(err.Error()), nil)
		return
	}
	if err := cmd.Validate(); err != nil {
		s.writeError(w, r, badRequest(err.Error()), nil)
		return
	}

	view, err := s.Host.Dispatch(r.Context(), chi.URLParam(r, "sessionId"), cmd)
	if err != nil {
		s.writeError(w, r, err, &view)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// GetResult handles GET /results/{resultId}.
func (s *Server) GetResult(w http.ResponseWriter, r *http.Request) {
	if s.Results == nil {
		s.writeError(w, r, domain.ErrResultNotFound, nil)
		return
	}
	result, err := s.Results.Load(r.Context(), chi.URLParam(r, "resultId"))
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// StreamWizard handles GET /wizards/{sessionId}/stream (SSE).
// The first message carries the whole view as a diff; later ones only what changed.
// The stream ends with an "end" event once the session finishes.
func (s *Server) StreamWizard(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	// Subscribe before reading the view so no update falls in between.
	updates, cancel, err := s.Host.Subscribe(sessionID)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	defer cancel()

	current, err := s.Host.View(r.Context(), sessionID)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	filter := parseWatch(r.URL.Query().Get("watch"))
	s.Logger.Info("SSE: subscribing to session updates", "session_id", sessionID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	s.sendDiff(w, domain.Diff(nil, &current), filter)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE client disconnected", "session_id", sessionID)
			return
		case next, ok := <-updates:
			if !ok {
				fmt.Fprintf(w, "event: end\ndata: %s\n\n", current.Status)
				flusher.Flush()
				return
			}
			diff := domain.Diff(&current, &next)
			current = next
			if s.sendDiff(w, diff, filter) {
				flusher.Flush()
			}
		}
	}
}

func (s *Server) sendDiff(w http.ResponseWriter, diff *domain.ViewDiff, filter map[string]bool) bool {
	if diff == nil || !matches(diff, filter) {
		return false
	}
	data, err := json.Marshal(diff)
	if err != nil {
		s.Logger.Error("SSE: diff encode failed", "err", err)
		return false
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	return true
}

func parseWatch(raw string) map[string]bool {
	if raw == "" {
		return nil
	}
	filter := make(map[string]bool)
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			filter[f] = true
		}
	}
	return filter
}

func matches(d *domain.ViewDiff, filter map[string]bool) bool {
	if len(filter) == 0 {
		return true
	}
	return (filter["step"] && (d.CurrentStepID != nil || d.CanAdvance != nil)) ||
		(filter["status"] && d.Status != nil) ||
		(filter["answers"] && len(d.Answers) > 0) ||
		(filter["history"] && d.History != nil) ||
		(filter["recommendations"] && len(d.Recommendations) > 0)
}

// -- Helpers --

type errorBody struct {
	Error string       `json:"error"`
	View  *domain.View `json:"view,omitempty"`
}

type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }

func badRequest(msg string) error { return &badRequestError{msg: msg} }

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var bad *badRequestError
	switch {
	case errors.As(err, &bad):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrFlowNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrResultNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidationBlocked),
		errors.Is(err, domain.ErrInvalidAnswer),
		errors.Is(err, domain.ErrUnknownField),
		errors.Is(err, domain.ErrNotSkippable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, view *domain.View) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		s.Logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}

	body := errorBody{Error: err.Error()}
	if view != nil && view.SessionID != "" {
		body.View = view
	}
	s.writeJSON(w, status, body)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "err", err)
	}
}
