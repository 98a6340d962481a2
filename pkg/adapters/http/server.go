package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/fluxgraph"
	"github.com/aretw0/fluxgraph/internal/logging"
	"github.com/aretw0/fluxgraph/internal/presentation/graph"
	"github.com/aretw0/fluxgraph/pkg/adaptor"
	"github.com/aretw0/fluxgraph/pkg/document"
	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/aretw0/fluxgraph/pkg/ports"
	"github.com/aretw0/fluxgraph/pkg/registry"
	"github.com/aretw0/fluxgraph/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// globalTopic carries catalog reload events to listeners that name no project.
const globalTopic = ""

// Server exposes the projects of a session manager over HTTP.
type Server struct {
	Sessions  *session.Manager
	Factories *registry.Registry
	Compiler  *adaptor.Compiler
	Streams   *StreamManager

	watcher  ports.Watchable
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithRegistry sets the registry used to decode uploaded documents. It must be the registry
// the session editors are built with.
func WithRegistry(r *registry.Registry) Option {
	return func(s *Server) {
		s.Factories = r
	}
}

// WithCompiler sets the adaptor compiler used to decode uploaded documents.
func WithCompiler(c *adaptor.Compiler) Option {
	return func(s *Server) {
		s.Compiler = c
	}
}

// WithWatcher streams catalog changes to /events listeners that name no project.
func WithWatcher(w ports.Watchable) Option {
	return func(s *Server) {
		s.watcher = w
	}
}

// WithMetrics serves the gatherer on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a server over sessions.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{Sessions: sessions}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	if s.Factories == nil {
		s.Factories = registry.NewDefault()
	}
	if s.Compiler == nil {
		s.Compiler = adaptor.NewCompiler()
	}
	s.Streams = NewStreamManager(s.logger)
	return s
}

// NewHandler creates a new HTTP handler for the project sessions.
func NewHandler(sessions *session.Manager, opts ...Option) http.Handler {
	return NewServer(sessions, opts...).Handler()
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/factories", s.ListFactories)
	r.Get("/events", s.SubscribeEvents)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/projects", func(r chi.Router) {
		r.Get("/", s.ListProjects)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", s.GetProject)
			r.Post("/", s.CreateProject)
			r.Put("/", s.PutProject)
			r.Delete("/", s.DeleteProject)
			r.Get("/mermaid", s.GetMermaid)
			r.Get("/summary", s.GetSummary)
			r.Post("/operations", s.ApplyOperation)
			r.Post("/undo", s.shortcut(fluxgraph.OpUndo))
			r.Post("/redo", s.shortcut(fluxgraph.OpRedo))
		})
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

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "fluxgraph-http",
		"version": strings.TrimSpace(fluxgraph.Version),
	})
}

// FactoryInfo describes a registered factory.
type FactoryInfo struct {
	Ref         string      `json:"ref"`
	Kind        domain.Kind `json:"kind"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
}

// ListFactories handles the GET /factories request.
func (s *Server) ListFactories(w http.ResponseWriter, r *http.Request) {
	list := s.Factories.List()
	if kind := r.URL.Query().Get("kind"); kind != "" {
		list = s.Factories.ByKind(domain.Kind(kind))
	}
	out := make([]FactoryInfo, 0, len(list))
	for _, f := range list {
		out = append(out, FactoryInfo{Ref: f.Ref(), Kind: f.Kind, Title: f.Title, Description: f.Description})
	}
	writeJSON(w, http.StatusOK, out)
}

// ListProjects handles the GET /projects request.
func (s *Server) ListProjects(w http.ResponseWriter, r *http.Request) {
	names, err := s.Sessions.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

// GetProject handles the GET /projects/{name} request. ?format=yaml selects YAML.
func (s *Server) GetProject(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	format := document.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = document.JSON
	}

	var body []byte
	err := s.Sessions.View(r.Context(), name, func(p *domain.Project) error {
		var err error
		body, err = document.Marshal(p, format)
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	if format == document.YAML {
		w.Header().Set("Content-Type", "application/yaml")
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	w.Write(body)
}

// CreateProject handles the POST /projects/{name} request.
func (s *Server) CreateProject(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, err := s.Sessions.OpenOrCreate(r.Context(), name); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": name})
}

// PutProject handles the PUT /projects/{name} request. The body is a project document in
// JSON, or YAML when the Content-Type says so.
func (s *Server) PutProject(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	format := document.JSON
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		format = document.YAML
	}

	p, err := document.Decode(r.Body, format, s.Factories, s.Compiler)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %w", domain.ErrPrecondition, err))
		return
	}
	if err := s.Sessions.Put(r.Context(), name, p); err != nil {
		s.writeError(w, err)
		return
	}
	s.broadcast(name, Event{Project: name, Type: "replaced"})
	w.WriteHeader(http.StatusNoContent)
}

// DeleteProject handles the DELETE /projects/{name} request.
func (s *Server) DeleteProject(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.Sessions.Delete(r.Context(), name); err != nil {
		s.writeError(w, err)
		return
	}
	s.broadcast(name, Event{Project: name, Type: "deleted"})
	w.WriteHeader(http.StatusNoContent)
}

// GetMermaid handles the GET /projects/{name}/mermaid request. Selected modules are passed
// as ?selected=m1,m2.
func (s *Server) GetMermaid(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var selected []string
	if raw := r.URL.Query().Get("selected"); raw != "" {
		selected = strings.Split(raw, ",")
	}

	var out string
	err := s.Sessions.Edit(r.Context(), name, func(_ context.Context, e *fluxgraph.Editor) error {
		out = graph.GenerateMermaid(e.Project(), &graph.GraphOverlay{
			ActiveLayer: e.ActiveLayer(),
			Selected:    selected,
		})
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, out)
}

// GetSummary handles the GET /projects/{name}/summary request.
func (s *Server) GetSummary(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var out string
	err := s.Sessions.Edit(r.Context(), name, func(_ context.Context, e *fluxgraph.Editor) error {
		out = fluxgraph.Summary(e)
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	io.WriteString(w, out)
}

// ApplyOperation handles the POST /projects/{name}/operations request.
func (s *Server) ApplyOperation(w http.ResponseWriter, r *http.Request) {
	var op fluxgraph.Operation
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&op); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("ApplyOperation: Invalid request body", "err", err)
		return
	}
	s.apply(w, r, op)
}

func (s *Server) shortcut(op fluxgraph.Op) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.apply(w, r, fluxgraph.Operation{Op: op})
	}
}

func (s *Server) apply(w http.ResponseWriter, r *http.Request, op fluxgraph.Operation) {
	name := chi.URLParam(r, "name")

	var (
		res   fluxgraph.Result
		event Event
	)
	err := s.Sessions.Edit(r.Context(), name, func(ctx context.Context, e *fluxgraph.Editor) error {
		before := e.Project()
		var err error
		res, err = e.Apply(ctx, op)
		if err != nil {
			return err
		}
		event = NewEvent(name, op.Op, before, e)
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	if res.Changed {
		s.broadcast(name, event)
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) broadcast(name string, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		s.logger.Error("failed to encode event", "project", name, "err", err)
		return
	}
	s.Streams.Broadcast(name, string(payload))
}

// SubscribeEvents handles the GET /events request (SSE). With ?project=name it streams the
// changes of that project; without it, catalog reloads.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	topic := r.URL.Query().Get("project")
	if topic == globalTopic && s.watcher == nil {
		http.Error(w, "project parameter required", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Catalog Hot Reload
	if topic == globalTopic {
		s.logger.Info("SSE: Subscribing to catalog reloads")
		events, err := s.watcher.Watch(r.Context())
		if err != nil {
			http.Error(w, fmt.Sprintf("Watch error: %v", err), http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				fmt.Fprintf(w, "event: reload\ndata: factories\n\n")
				flusher.Flush()
			}
		}
	}

	s.logger.Info("SSE: Subscribing to project updates", "project", topic)
	ch, cancel := s.Streams.Subscribe(topic)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	// Parse 'watch' filter
	var watchList []string
	if raw := r.URL.Query().Get("watch"); raw != "" {
		watchList = strings.Split(raw, ",")
	}

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "project", topic)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watchList) > 0 && !matches(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// matches reports whether an encoded event touches one of the watched fields.
func matches(msg string, watchList []string) bool {
	var ev Event
	if err := json.Unmarshal([]byte(msg), &ev); err != nil {
		return true
	}
	for _, field := range watchList {
		switch strings.TrimSpace(field) {
		case "modules":
			if len(ev.Modules.Created)+len(ev.Modules.Removed) > 0 {
				return true
			}
		case "connections":
			if len(ev.Connections.Created)+len(ev.Connections.Removed) > 0 {
				return true
			}
		case "layer":
			if ev.ActiveLayer != "" {
				return true
			}
		case "project":
			if ev.Type != "changed" {
				return true
			}
		}
	}
	return false
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrProjectNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrPrecondition):
		status = http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
