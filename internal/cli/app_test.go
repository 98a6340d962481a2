package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/fluxgraph/internal/config"
	"github.com/aretw0/fluxgraph/internal/logging"
	"github.com/aretw0/fluxgraph/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalog = `
pack "math" {
  factory "sum" {
    title   = "Sum"
    inputs  = ["a", "b"]
    outputs = ["result"]
  }
}
`

func newApp(t *testing.T, mutate func(*config.Config)) *App {
	t.Helper()
	cfg := config.Default()
	cfg.Dir = t.TempDir()
	if mutate != nil {
		mutate(&cfg)
	}
	app, err := NewApp(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })
	return app
}

func TestNewApp_Stores(t *testing.T) {
	for _, kind := range []string{config.StoreFile, config.StoreMemory, config.StoreSQLite} {
		t.Run(kind, func(t *testing.T) {
			app := newApp(t, func(c *config.Config) { c.Store.Kind = kind })
			ctx := context.Background()

			_, err := app.Sessions.OpenOrCreate(ctx, "demo")
			require.NoError(t, err)
			names, err := app.Store.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"demo"}, names)
		})
	}
}

func TestNewApp_EncryptedStore(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	app := newApp(t, func(c *config.Config) { c.Store.EncryptionKey = key })
	ctx := context.Background()

	err := RunEdit(app, EditOptions{Project: "secret", Headless: true, Input: strings.NewReader("add core/relay\nexit\n"), Output: io.Discard})
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(app.Config.Dir, "secret"+app.Codec.Ext()))
	require.NoError(t, err)
	assert.Contains(t, string(raw), middleware.EnvelopePrefix)
	assert.NotContains(t, string(raw), "core/relay")

	p, err := app.Project(ctx, "secret")
	require.NoError(t, err)
	assert.Len(t, p.Workflow.Modules, 1)
}

func TestNewApp_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Kind = "s3"
	_, err := NewApp(context.Background(), cfg, logging.NewNop())
	assert.Error(t, err)
}

func TestNewApp_Catalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "math.hcl")
	require.NoError(t, os.WriteFile(path, []byte(catalog), 0o644))

	app := newApp(t, func(c *config.Config) { c.Factories = []string{dir} })
	f, err := app.Registry.Lookup("math/sum")
	require.NoError(t, err)
	assert.Equal(t, "Sum", f.Title)
}

func TestWatchCatalog(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "math.hcl"), []byte(catalog), 0o644))
	app := newApp(t, func(c *config.Config) { c.Factories = []string{dir} })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, WatchCatalog(ctx, app))

	more := strings.Replace(catalog, `factory "sum"`, `factory "product"`, 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "more.hcl"), []byte(more), 0o644))

	assert.Eventually(t, func() bool {
		_, err := app.Registry.Lookup("math/product")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
}

func TestRunEdit_Headless(t *testing.T) {
	app := newApp(t, nil)
	script := strings.Join([]string{
		"add core/relay",
		"add core/relay 100 0",
		"connect m1.out1 m2.in1",
		"exit",
	}, "\n")

	var out bytes.Buffer
	err := RunEdit(app, EditOptions{Project: "demo", Headless: true, Input: strings.NewReader(script), Output: &out})
	require.NoError(t, err)
	assert.NotContains(t, out.String(), "error:")

	// Saved on exit, readable from disk.
	p, err := app.Project(context.Background(), filepath.Join(app.Config.Dir, "demo"+app.Codec.Ext()))
	require.NoError(t, err)
	assert.Len(t, p.Workflow.Modules, 2)
	assert.Len(t, p.Workflow.Connections, 1)

	p, err = app.Project(context.Background(), "demo")
	require.NoError(t, err)
	assert.Len(t, p.Workflow.Connections, 1)
}

func TestApp_Handler(t *testing.T) {
	app := newApp(t, func(c *config.Config) { c.Store.Kind = config.StoreMemory })
	h := app.Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/projects/demo", nil))
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/projects/demo/operations",
		strings.NewReader(`{"op":"addModule","factory":"core/relay"}`)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "fluxgraph_")
}

func TestHandleExecutionError(t *testing.T) {
	assert.NoError(t, HandleExecutionError(context.Canceled))
	assert.NoError(t, HandleExecutionError(ErrInterrupted))
	assert.Error(t, HandleExecutionError(errors.New("boom")))
}

func TestInterruptibleReader(t *testing.T) {
	cancel := make(chan struct{})
	r := NewInterruptibleReader(strings.NewReader("abc"), cancel)
	buf := make([]byte, 3)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	close(cancel)
	_, err = r.Read(buf)
	assert.ErrorIs(t, err, ErrInterrupted)
}

func TestSignalContext_ParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	sc := NewSignalContext(parent)
	cancel()

	select {
	case <-sc.Done():
	case <-time.After(time.Second):
		t.Fatal("signal context must follow its parent")
	}
	assert.Nil(t, sc.Signal())
}
