package http

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/cedar"
	"github.com/aretw0/cedar/internal/logging"
	"github.com/aretw0/cedar/pkg/adapters/gochart"
	"github.com/aretw0/cedar/pkg/domain"
	"github.com/aretw0/cedar/pkg/ports"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

//go:embed openapi.yaml
var rawSpec []byte

var (
	specOnce sync.Once
	spec     *openapi3.T
	specErr  error
)

// GetSwagger parses and validates the embedded OpenAPI document.
func GetSwagger() (*openapi3.T, error) {
	specOnce.Do(func() {
		loader := openapi3.NewLoader()
		spec, specErr = loader.LoadFromData(rawSpec)
		if specErr == nil {
			specErr = spec.Validate(context.Background())
		}
	})
	return spec, specErr
}

// maxBodyBytes bounds request bodies carrying definitions.
const maxBodyBytes = 1 << 20

// Server exposes chart rendering and definition storage over HTTP.
type Server struct {
	Store        ports.DefinitionStore
	ChartOptions []cedar.Option
	Metrics      http.Handler
	Logger       *slog.Logger
	// Locker serializes renders of the same stored definition across
	// replicas. Ad-hoc renders are never locked.
	Locker  ports.DistributedLocker
	LockTTL time.Duration
}

type Option func(*Server)

// WithChartOptions applies opts to every chart the server builds
// (querier, hooks, timeouts, locker...).
func WithChartOptions(opts ...cedar.Option) Option {
	return func(s *Server) {
		s.ChartOptions = append(s.ChartOptions, opts...)
	}
}

// WithLocker locks GET /definitions/{id}/render per definition id.
// A zero ttl keeps the chart default.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(s *Server) {
		s.Locker = locker
		s.LockTTL = ttl
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// NewHandler creates the HTTP handler. store persists definitions for the
// /definitions routes.
func NewHandler(store ports.DefinitionStore, opts ...Option) http.Handler {
	s := &Server{Store: store, Logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics)
	}

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Post("/render", s.Render)
	r.Post("/query", s.Query)
	r.Route("/definitions", func(r chi.Router) {
		r.Get("/", s.ListDefinitions)
		r.Post("/", s.CreateDefinition)
		r.Get("/{id}", s.GetDefinition)
		r.Delete("/{id}", s.DeleteDefinition)
		r.Get("/{id}/render", s.RenderDefinition)
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
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
    <title>Cedar API Documentation</title>
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

// Render handles POST /render.
func (s *Server) Render(w http.ResponseWriter, r *http.Request) {
	def, ok := s.decodeDefinition(w, r)
	if !ok {
		return
	}
	s.renderChart(w, r, "render", def, false)
}

// Query handles POST /query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	def, ok := s.decodeDefinition(w, r)
	if !ok {
		return
	}

	chart, err := cedar.New("query", def, s.ChartOptions...)
	if err != nil {
		s.writeError(w, "Query", err)
		return
	}
	results, err := chart.Query(r.Context())
	if err != nil {
		s.writeError(w, "Query", err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// ListDefinitions handles GET /definitions.
func (s *Server) ListDefinitions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Store.List(r.Context())
	if err != nil {
		s.writeError(w, "ListDefinitions", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

// CreateDefinition handles POST /definitions.
func (s *Server) CreateDefinition(w http.ResponseWriter, r *http.Request) {
	def, ok := s.decodeDefinition(w, r)
	if !ok {
		return
	}

	id := uuid.NewString()
	if err := s.Store.Save(r.Context(), id, def); err != nil {
		s.writeError(w, "CreateDefinition", err)
		return
	}
	s.Logger.Info("definition stored", "id", id, "type", def.Type)

	w.Header().Set("Location", "/definitions/"+id)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// GetDefinition handles GET /definitions/{id}.
func (s *Server) GetDefinition(w http.ResponseWriter, r *http.Request) {
	def, err := s.Store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, "GetDefinition", err)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

// DeleteDefinition handles DELETE /definitions/{id}.
func (s *Server) DeleteDefinition(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, "DeleteDefinition", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RenderDefinition handles GET /definitions/{id}/render.
func (s *Server) RenderDefinition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	def, err := s.Store.Load(r.Context(), id)
	if err != nil {
		s.writeError(w, "RenderDefinition", err)
		return
	}
	s.renderChart(w, r, "definition:"+id, def, true)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "cedar-http",
		"version":     strings.TrimSpace(cedar.Version),
		"api_version": apiVersion,
	})
}

func (s *Server) renderChart(w http.ResponseWriter, r *http.Request, container string, def *domain.Definition, stored bool) {
	format := gochart.Format(strings.ToLower(r.URL.Query().Get("format")))
	switch format {
	case "":
		format = gochart.PNG
	case gochart.PNG, gochart.SVG:
	default:
		s.writeError(w, "Render", fmt.Errorf("format %q: %w", format, domain.ErrUnsupportedFormat))
		return
	}

	var buf bytes.Buffer
	opts := append(append([]cedar.Option(nil), s.ChartOptions...),
		cedar.WithRenderer(gochart.NewStreamRenderer(&buf, format)))
	if stored && s.Locker != nil {
		opts = append(opts, cedar.WithLocker(s.Locker, s.LockTTL))
	}

	chart, err := cedar.New(container+"."+string(format), def, opts...)
	if err != nil {
		s.writeError(w, "Render", err)
		return
	}
	if _, err := chart.Show(r.Context()); err != nil {
		s.writeError(w, "Render", err)
		return
	}

	contentType := "image/png"
	if format == gochart.SVG {
		contentType = "image/svg+xml"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) decodeDefinition(w http.ResponseWriter, r *http.Request) (*domain.Definition, bool) {
	var def domain.Definition
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&def); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("Invalid request body", "path", r.URL.Path, "err", err)
		return nil, false
	}
	if err := def.Validate(); err != nil {
		s.writeError(w, "Validate", err)
		return nil, false
	}
	return &def, true
}

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrUnsupportedType),
		errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDefinitionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRemoteQuery):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error(op+" failed", "err", err)
	} else {
		s.Logger.Warn(op+" rejected", "status", status, "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
