package httpadapter

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/kirillkom/eval-tree-viewer/internal/config"
	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
	"github.com/kirillkom/eval-tree-viewer/internal/core/ports"
)

// EventSource hands out load event subscriptions for the websocket stream.
type EventSource interface {
	Subscribe() (<-chan domain.Event, func())
}

// Metrics is the part of the HTTP metrics the router reports into.
type Metrics interface {
	Handler() http.Handler
	Middleware(service string, next http.Handler) http.Handler
	RecordRankingColumns(service string, columns int)
	AddEventClients(service string, delta int)
}

type Deps struct {
	Service string
	Logger  *slog.Logger
	Metrics Metrics

	Loads       ports.DocumentReloader
	Credentials ports.CredentialManager
	Catalog     ports.ModelCatalog
	Rankings    ports.RankingService
	Sessions    ports.ViewerSessions
	Exporter    ports.LeaderboardExporter
	Events      EventSource
}

type Router struct {
	cfg  config.Config
	deps Deps

	logger *slog.Logger
}

func NewRouter(cfg config.Config, deps Deps) *Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Service == "" {
		deps.Service = "eval-viewer-api"
	}
	return &Router{cfg: cfg, deps: deps, logger: logger}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.deps.Metrics != nil {
		mux.Handle("GET /metrics", rt.deps.Metrics.Handler())
	}
	mux.HandleFunc("GET /openapi.yaml", serveOpenAPIYAML)
	mux.HandleFunc("GET /openapi.json", serveOpenAPIJSON)

	mux.HandleFunc("GET /v1/status", rt.status)
	mux.HandleFunc("POST /v1/reload", rt.requireAPIKey(rt.reload))
	mux.HandleFunc("PUT /v1/credential", rt.requireAPIKey(rt.setCredential))
	mux.HandleFunc("DELETE /v1/credential", rt.requireAPIKey(rt.clearCredential))

	mux.HandleFunc("GET /v1/models", rt.listModels)
	mux.HandleFunc("GET /v1/models/{name}", rt.getModel)
	mux.HandleFunc("GET /v1/models/{name}/tree", rt.getModelTree)
	mux.HandleFunc("GET /v1/models/{name}/weaknesses", rt.getWeaknesses)
	mux.HandleFunc("GET /v1/taxonomy", rt.getTaxonomy)
	mux.HandleFunc("GET /v1/rankings", rt.getRankings)
	mux.HandleFunc("GET /v1/leaderboard", rt.getLeaderboard)
	mux.HandleFunc("GET /v1/leaderboard.xlsx", rt.exportLeaderboard)

	mux.HandleFunc("POST /v1/sessions", rt.createSession)
	mux.HandleFunc("GET /v1/sessions/{id}", rt.getSession)
	mux.HandleFunc("POST /v1/sessions/{id}/models/{name}/toggle", rt.toggleModel)
	mux.HandleFunc("DELETE /v1/sessions/{id}/models/{name}", rt.removeModel)
	mux.HandleFunc("POST /v1/sessions/{id}/nodes/{name}/toggle", rt.toggleNode)
	mux.HandleFunc("POST /v1/sessions/{id}/categories/toggle", rt.toggleCategory)
	mux.HandleFunc("POST /v1/sessions/{id}/scroll", rt.scroll)

	if rt.deps.Events != nil {
		mux.HandleFunc("GET /v1/events", rt.events)
	}

	mux.HandleFunc("GET /{$}", rt.uiIndex)
	mux.HandleFunc("GET /ui/{id}", rt.uiView)
	mux.HandleFunc("POST /ui/{id}", rt.uiAction)

	var handler http.Handler = mux
	if rt.cfg.OpenAPIValidation {
		validator, err := newOpenAPIValidator()
		if err != nil {
			rt.logger.Error("openapi_validator_disabled", "error", err)
		} else {
			handler = validator.middleware(handler)
		}
	}
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, rt.cfg.APIBackpressureWait)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.deps.Metrics != nil {
		handler = rt.deps.Metrics.Middleware(rt.deps.Service, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps the error kind onto a status. Server-side failures
// are logged with the request id.
func (rt *Router) writeDomainError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		rt.logger.Error("http_handler_failed",
			"request_id", requestIDFromContext(r.Context()),
			"operation", operation,
			"status", status,
			"error", err,
		)
	}
	writeError(w, status, err.Error())
}

// bearerCredential returns the token of an "Authorization: Bearer" header.
func bearerCredential(headerValue string) string {
	headerValue = strings.TrimSpace(headerValue)
	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(headerValue, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(headerValue, bearerPrefix))
}

func (rt *Router) requireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rt.authorized(r, "") {
			next(w, r)
			return
		}
		writeError(w, http.StatusUnauthorized, "unauthorized")
	}
}

// authorized accepts the api key from the header or, for browser forms, from
// formKey.
func (rt *Router) authorized(r *http.Request, formKey string) bool {
	if rt.cfg.APIKey == "" {
		return true
	}
	for _, candidate := range []string{r.Header.Get(apiKeyHeader), formKey} {
		if candidate != "" && subtle.ConstantTimeCompare([]byte(candidate), []byte(rt.cfg.APIKey)) == 1 {
			return true
		}
	}
	return false
}

// loadContext outlives the request so a client disconnect does not abort a
// load other sessions wait for, but stays bounded by the load timeout.
func (rt *Router) loadContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = detach(ctx)
	if rt.cfg.LoadTimeout > 0 {
		return context.WithTimeout(ctx, rt.cfg.LoadTimeout)
	}
	return context.WithCancel(ctx)
}

const apiKeyHeader = "X-Api-Key"

func parseFloatQuery(r *http.Request, key string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, domain.WrapError(domain.ErrInvalidInput, "parse query", err)
	}
	return value, nil
}

// parseBoolQuery reads an optional boolean; empty means absent.
func parseBoolQuery(raw string) (*bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse query", err)
	}
	return &value, nil
}

func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
