package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/fluxgraph"
	"github.com/aretw0/fluxgraph/internal/config"
	"github.com/aretw0/fluxgraph/internal/validator"
	"github.com/aretw0/fluxgraph/pkg/adaptor"
	"github.com/aretw0/fluxgraph/pkg/adapters/file"
	"github.com/aretw0/fluxgraph/pkg/adapters/hcl"
	"github.com/aretw0/fluxgraph/pkg/adapters/memory"
	"github.com/aretw0/fluxgraph/pkg/adapters/redis"
	"github.com/aretw0/fluxgraph/pkg/adapters/sqlite"
	"github.com/aretw0/fluxgraph/pkg/document"
	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/aretw0/fluxgraph/pkg/history"
	"github.com/aretw0/fluxgraph/pkg/observability"
	"github.com/aretw0/fluxgraph/pkg/persistence/middleware"
	"github.com/aretw0/fluxgraph/pkg/ports"
	"github.com/aretw0/fluxgraph/pkg/registry"
	"github.com/aretw0/fluxgraph/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
)

// App holds the collaborators every command is built from.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Registry *registry.Registry
	Compiler *adaptor.Compiler
	Codec    document.Codec
	Store    ports.ProjectStore
	Sessions *session.Manager

	// Catalog is nil when no factory catalog is configured.
	Catalog *hcl.Loader
	// Metrics is set when cfg.HTTP.Metrics is on.
	Metrics  *observability.Metrics
	Gatherer *prometheus.Registry

	closers []io.Closer
}

// NewApp builds the registry, the project store and the session manager described by cfg.
func NewApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: registry.NewDefault(),
		Compiler: adaptor.NewCompiler(),
	}
	a.Codec = document.Codec{Format: document.Format(cfg.Format), Factories: a.Registry, Compiler: a.Compiler}

	if len(cfg.Factories) > 0 {
		a.Catalog = hcl.NewLoader(cfg.Factories, hcl.WithLogger(logger))
		n, err := a.Registry.Load(ctx, a.Catalog)
		if err != nil {
			return nil, err
		}
		logger.Info("Factory catalog loaded", "factories", n, "paths", cfg.Factories)
	}

	var locker ports.DistributedLocker
	switch cfg.Store.Kind {
	case config.StoreMemory:
		a.Store = memory.NewStore()
	case config.StoreFile:
		a.Store = file.New(cfg.Dir, a.Codec)
	case config.StoreSQLite:
		path := cfg.Store.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.Dir, path)
		}
		store, err := sqlite.Open(ctx, path, a.Codec)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		a.Store = store
		a.closers = append(a.closers, store)
	case config.StoreRedis:
		rc := cfg.Store.Redis
		store := redis.New(rc.Addr, rc.Password, rc.DB, a.Codec, redis.WithPrefix(rc.Prefix), redis.WithTTL(rc.TTL))
		a.Store = store
		a.closers = append(a.closers, store)
		if rc.Lock {
			locker = redis.NewLocker(store.Client(), rc.Prefix)
		}
	}

	var mws []middleware.Middleware
	if cfg.Store.Validate {
		mws = append(mws, middleware.NewValidationMiddleware(validator.ValidateProject))
	}
	if active, fallback, err := cfg.Store.Keys(); err != nil {
		return nil, errors.Join(err, a.Close())
	} else if active != nil {
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallback}, a.Codec)
		if err != nil {
			return nil, errors.Join(err, a.Close())
		}
		mws = append(mws, mw)
	}
	a.Store = middleware.Chain(a.Store, mws...)

	editorOpts := []fluxgraph.Option{
		fluxgraph.WithRegistry(a.Registry),
		fluxgraph.WithCompiler(a.Compiler),
		fluxgraph.WithCapacity(cfg.History.Capacity),
		fluxgraph.WithSequentialIDs(),
		fluxgraph.WithObserver(history.NewLoggingObserver(logger)),
	}
	if cfg.HTTP.Metrics {
		a.Gatherer = prometheus.NewRegistry()
		m, err := observability.NewMetrics(a.Gatherer, "fluxgraph")
		if err != nil {
			return nil, errors.Join(err, a.Close())
		}
		a.Metrics = m
		editorOpts = append(editorOpts, fluxgraph.WithObserver(m))
	}

	sessionOpts := []session.Option{
		session.WithLogger(logger),
		session.WithEditorOptions(editorOpts...),
	}
	if locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(locker), session.WithLockTTL(cfg.Store.Redis.LockTTL))
	}
	a.Sessions = session.NewManager(a.Store, sessionOpts...)
	return a, nil
}

// Close saves the open projects and releases the store.
func (a *App) Close() error {
	var errs []error
	if a.Sessions != nil {
		errs = append(errs, a.Sessions.CloseAll(context.Background()))
	}
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Project resolves ref to a project: a path to a .json, .yaml or .yml document is read from
// disk, anything else is a name in the store.
func (a *App) Project(ctx context.Context, ref string) (*domain.Project, error) {
	switch strings.ToLower(filepath.Ext(ref)) {
	case ".json", ".yaml", ".yml":
	default:
		return a.Store.Load(ctx, ref)
	}
	f, err := os.Open(ref)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	p, err := document.Decode(f, document.FormatFromPath(ref), a.Registry, a.Compiler)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ref, err)
	}
	return p, nil
}
