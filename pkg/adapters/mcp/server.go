package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/fluxgraph"
	"github.com/aretw0/fluxgraph/internal/logging"
	"github.com/aretw0/fluxgraph/internal/presentation/graph"
	"github.com/aretw0/fluxgraph/pkg/document"
	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/aretw0/fluxgraph/pkg/registry"
	"github.com/aretw0/fluxgraph/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const projectURIPrefix = "fluxgraph://projects/"

// ApplyArgs are the arguments of the apply_operation tool.
type ApplyArgs struct {
	Project   string              `json:"project"`
	Operation fluxgraph.Operation `json:"operation"`
}

// ApplyResponse provides a unified structure across adapters.
type ApplyResponse struct {
	Result      fluxgraph.Result `json:"result" jsonschema_description:"Whether the project changed and the ids created"`
	ActiveLayer string           `json:"activeLayer" jsonschema_description:"The layer being edited after the operation"`
	CanUndo     bool             `json:"canUndo"`
	CanRedo     bool             `json:"canRedo"`
}

// Server wraps a session manager and exposes it as an MCP Server.
type Server struct {
	sessions  *session.Manager
	factories *registry.Registry
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance. factories lists the catalog; pass the
// registry the session editors are built with.
func NewServer(sessions *session.Manager, factories *registry.Registry, logger *slog.Logger) *Server {
	if factories == nil {
		factories = registry.NewDefault()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		sessions:  sessions,
		factories: factories,
		mcpServer: server.NewMCPServer("fluxgraph-mcp", strings.TrimSpace(fluxgraph.Version)),
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE, until ctx is done.
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

	// Channel to listen for errors coming from the listener.
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

		s.logger.Info("Shutdown signal received, shutting down server")
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
	s.mcpServer.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List the names of the stored projects."),
	), s.handleListProjects)

	s.mcpServer.AddTool(mcp.NewTool("list_factories",
		mcp.WithDescription("List the factories modules can be built from."),
		mcp.WithString("kind", mcp.Description("Only factories of this kind: module, group, component or plugin")),
	), s.handleListFactories)

	s.mcpServer.AddTool(mcp.NewTool("create_project",
		mcp.WithDescription("Create an empty project, or open it if it exists."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name")),
	), s.handleCreateProject)

	s.mcpServer.AddTool(mcp.NewTool("get_project",
		mcp.WithDescription("Get the persisted document of a project."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name")),
		mcp.WithString("format", mcp.Description("json (default) or yaml")),
	), s.handleGetProject)

	s.mcpServer.AddTool(mcp.NewTool("get_mermaid",
		mcp.WithDescription("Render a project as a Mermaid flowchart."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name")),
	), s.handleMermaid)

	applyTool := mcp.NewTool("apply_operation",
		mcp.WithDescription("Apply an editing operation (addModule, connect, setAdaptor, createLayer, undo, ...) to a project."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name")),
		mcp.WithObject("operation", mcp.Required(), mcp.Description(`Operation object, e.g. {"op":"addModule","factory":"core/relay","position":{"x":0,"y":0}}`)),
		mcp.WithOutputSchema[ApplyResponse](),
	)
	s.mcpServer.AddTool(applyTool, mcp.NewStructuredToolHandler(s.handleApply))

	for _, op := range []fluxgraph.Op{fluxgraph.OpUndo, fluxgraph.OpRedo} {
		s.mcpServer.AddTool(mcp.NewTool(string(op),
			mcp.WithDescription(fmt.Sprintf("Shortcut for apply_operation with op %q.", op)),
			mcp.WithString("project", mcp.Required(), mcp.Description("Project name")),
			mcp.WithOutputSchema[ApplyResponse](),
		), mcp.NewStructuredToolHandler(func(ctx context.Context, request mcp.CallToolRequest, args ApplyArgs) (ApplyResponse, error) {
			args.Operation = fluxgraph.Operation{Op: op}
			return s.handleApply(ctx, request, args)
		}))
	}
}

func (s *Server) handleListProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := s.sessions.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	if names == nil {
		names = []string{}
	}
	jsonBytes, _ := json.Marshal(names)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleListFactories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list := s.factories.List()
	if kind := request.GetString("kind", ""); kind != "" {
		list = s.factories.ByKind(domain.Kind(kind))
	}
	type factory struct {
		Ref   string      `json:"ref"`
		Kind  domain.Kind `json:"kind"`
		Title string      `json:"title"`
	}
	out := make([]factory, 0, len(list))
	for _, f := range list {
		out = append(out, factory{Ref: f.Ref(), Kind: f.Kind, Title: f.Title})
	}
	jsonBytes, _ := json.Marshal(out)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleCreateProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.sessions.OpenOrCreate(ctx, name); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("create failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("project %s ready", name)), nil
}

func (s *Server) handleGetProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format := document.Format(request.GetString("format", string(document.JSON)))
	body, err := s.document(ctx, name, format)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}

func (s *Server) handleMermaid(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var out string
	err = s.sessions.Edit(ctx, name, func(_ context.Context, e *fluxgraph.Editor) error {
		out = graph.GenerateMermaid(e.Project(), &graph.GraphOverlay{ActiveLayer: e.ActiveLayer()})
		return nil
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("render failed: %v", err)), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) handleApply(ctx context.Context, request mcp.CallToolRequest, args ApplyArgs) (ApplyResponse, error) {
	if args.Project == "" {
		return ApplyResponse{}, fmt.Errorf("%w: project is required", domain.ErrPrecondition)
	}
	var resp ApplyResponse
	err := s.sessions.Edit(ctx, args.Project, func(ctx context.Context, e *fluxgraph.Editor) error {
		res, err := e.Apply(ctx, args.Operation)
		if err != nil {
			return err
		}
		resp = ApplyResponse{
			Result:      res,
			ActiveLayer: e.ActiveLayer(),
			CanUndo:     e.CanUndo(),
			CanRedo:     e.CanRedo(),
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("MCP Apply: operation rejected", "project", args.Project, "op", args.Operation.Op, "err", err)
		return ApplyResponse{}, fmt.Errorf("apply failed: %w", err)
	}
	return resp, nil
}

func (s *Server) document(ctx context.Context, name string, format document.Format) ([]byte, error) {
	var body []byte
	err := s.sessions.View(ctx, name, func(p *domain.Project) error {
		var err error
		body, err = document.Marshal(p, format)
		return err
	})
	return body, err
}

func (s *Server) registerResources() {
	// EXPOSE: fluxgraph://projects/{name}
	template := mcp.NewResourceTemplate(projectURIPrefix+"{name}", "Project Document",
		mcp.WithTemplateDescription("The persisted document of a project"),
		mcp.WithTemplateMIMEType("application/json"),
	)
	s.mcpServer.AddResourceTemplate(template, s.readProject)
}

func (s *Server) readProject(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	name := strings.TrimPrefix(uri, projectURIPrefix)
	if name == uri || name == "" {
		return nil, fmt.Errorf("%w: unexpected resource %s", domain.ErrPrecondition, uri)
	}
	body, err := s.document(ctx, name, document.JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to read project: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(body),
		},
	}, nil
}
