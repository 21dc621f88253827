package mcp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/cedar"
	"github.com/aretw0/cedar/internal/config"
	"github.com/aretw0/cedar/internal/logging"
	"github.com/aretw0/cedar/pkg/adapters/gochart"
	"github.com/aretw0/cedar/pkg/domain"
	"github.com/aretw0/cedar/pkg/ports"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const definitionsURI = "cedar://definitions"

// Server exposes cedar charts as MCP tools and stored definitions as resources.
type Server struct {
	store        ports.DefinitionStore
	chartOptions []cedar.Option
	logger       *slog.Logger
	mcpServer    *server.MCPServer
}

type Option func(*Server)

// WithChartOptions applies opts to every chart the server builds.
func WithChartOptions(opts ...cedar.Option) Option {
	return func(s *Server) {
		s.chartOptions = append(s.chartOptions, opts...)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance backed by store.
func NewServer(store ports.DefinitionStore, opts ...Option) *Server {
	s := &Server{
		store:     store,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("cedar-mcp", strings.TrimSpace(cedar.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on port until ctx is canceled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	definitionArg := mcp.WithString("definition", mcp.Description("Chart definition as a JSON or YAML document (omit when id is given)"))
	idArg := mcp.WithString("id", mcp.Description("ID of a stored definition"))

	s.mcpServer.AddTool(mcp.NewTool("show_chart",
		mcp.WithDescription("Query the datasets of a chart definition, shape the data and render it as an image."),
		definitionArg,
		idArg,
		mcp.WithString("format", mcp.Description("Image format: png (default) or svg")),
	), s.handleShowChart)

	s.mcpServer.AddTool(mcp.NewTool("query_datasets",
		mcp.WithDescription("Run the remote dataset queries of a chart definition and return the raw results keyed by dataset name."),
		definitionArg,
		idArg,
	), s.handleQueryDatasets)

	s.mcpServer.AddTool(mcp.NewTool("validate_definition",
		mcp.WithDescription("Check a chart definition for structural errors."),
		mcp.WithString("definition", mcp.Required(), mcp.Description("Chart definition as a JSON or YAML document")),
	), s.handleValidate)

	s.mcpServer.AddTool(mcp.NewTool("save_definition",
		mcp.WithDescription("Store a chart definition and return its ID."),
		mcp.WithString("definition", mcp.Required(), mcp.Description("Chart definition as a JSON or YAML document")),
	), s.handleSave)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(definitionsURI, "Stored chart definitions",
		mcp.WithMIMEType("application/json"),
	), s.handleListDefinitions)
}

func (s *Server) handleListDefinitions(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	ids, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list definitions: %w", err)
	}
	return jsonResource(definitionsURI, ids)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

// definitionFrom resolves the "definition" or "id" argument.
func (s *Server) definitionFrom(ctx context.Context, request mcp.CallToolRequest) (*domain.Definition, error) {
	args := request.GetArguments()
	if raw := stringArg(args, "definition"); raw != "" {
		def, err := config.ParseDefinition([]byte(raw))
		if err != nil {
			return nil, err
		}
		if err := def.Validate(); err != nil {
			return nil, err
		}
		return def, nil
	}
	if id := stringArg(args, "id"); id != "" {
		return s.store.Load(ctx, id)
	}
	return nil, fmt.Errorf("either definition or id is required: %w", domain.ErrInvalidArgument)
}

func (s *Server) handleShowChart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	def, err := s.definitionFrom(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	format := gochart.Format(stringArg(request.GetArguments(), "format"))
	if format == "" {
		format = gochart.PNG
	}
	if format != gochart.PNG && format != gochart.SVG {
		return mcp.NewToolResultError(fmt.Sprintf("unsupported format %q", format)), nil
	}

	var buf bytes.Buffer
	opts := append(append([]cedar.Option(nil), s.chartOptions...),
		cedar.WithRenderer(gochart.NewStreamRenderer(&buf, format)))
	chart, err := cedar.New("mcp."+string(format), def, opts...)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := chart.Show(ctx); err != nil {
		s.logger.Warn("MCP show_chart failed", "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("show failed: %v", err)), nil
	}

	summary := fmt.Sprintf("%s chart with %d rows", def.Type, len(chart.Data()))
	if format == gochart.SVG {
		return mcp.NewToolResultText(buf.String()), nil
	}
	return mcp.NewToolResultImage(summary, base64.StdEncoding.EncodeToString(buf.Bytes()), "image/png"), nil
}

func (s *Server) handleQueryDatasets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	def, err := s.definitionFrom(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	chart, err := cedar.New("mcp", def, s.chartOptions...)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := chart.Query(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}

	b, err := json.Marshal(results)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(b)), nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	def, err := config.ParseDefinition([]byte(stringArg(request.GetArguments(), "definition")))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := def.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("definition is valid"), nil
}

func (s *Server) handleSave(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	def, err := s.definitionFrom(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id := uuid.NewString()
	if err := s.store.Save(ctx, id, def); err != nil {
		return nil, fmt.Errorf("failed to save definition: %w", err)
	}
	return mcp.NewToolResultText(id), nil
}
