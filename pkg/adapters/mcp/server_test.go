package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/fluxgraph"
	"github.com/aretw0/fluxgraph/pkg/adapters/memory"
	"github.com/aretw0/fluxgraph/pkg/edit"
	"github.com/aretw0/fluxgraph/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	sessions := session.NewManager(memory.NewStore(),
		session.WithEditorOptions(fluxgraph.WithIDGenerator(&edit.Sequence{})))
	t.Cleanup(func() { sessions.CloseAll(context.Background()) })
	return NewServer(sessions, nil, nil)
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestServer_EditProject(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleCreateProject(ctx, call(map[string]any{"project": "demo"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	res, err = s.handleListProjects(ctx, call(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `["demo"]`, text(t, res))

	var op fluxgraph.Operation
	for _, raw := range []string{
		`{"op":"addModule","factory":"core/relay"}`,
		`{"op":"addModule","factory":"core/relay","position":{"x":120,"y":0}}`,
	} {
		require.NoError(t, json.Unmarshal([]byte(raw), &op))
		_, err := s.handleApply(ctx, call(nil), ApplyArgs{Project: "demo", Operation: op})
		require.NoError(t, err)
	}
	resp, err := s.handleApply(ctx, call(nil), ApplyArgs{Project: "demo", Operation: fluxgraph.Operation{
		Op:    fluxgraph.OpConnect,
		Start: fluxgraph.Endpoint{ModuleID: "m1", SlotID: "out1"},
		End:   fluxgraph.Endpoint{ModuleID: "m2", SlotID: "in1"},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, resp.Result.IDs)
	assert.True(t, resp.CanUndo)
	assert.Equal(t, "root", resp.ActiveLayer)

	res, err = s.handleMermaid(ctx, call(map[string]any{"project": "demo"}))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "m1 -->")

	res, err = s.handleGetProject(ctx, call(map[string]any{"project": "demo", "format": "yaml"}))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "c1")

	var read mcp.ReadResourceRequest
	read.Params.URI = projectURIPrefix + "demo"
	contents, err := s.readProject(ctx, read)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	assert.Contains(t, contents[0].(mcp.TextResourceContents).Text, `"m2"`)
}

func TestServer_Errors(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleApply(ctx, call(nil), ApplyArgs{Operation: fluxgraph.Operation{Op: fluxgraph.OpUndo}})
	assert.Error(t, err)

	_, err = s.handleApply(ctx, call(nil), ApplyArgs{Project: "ghost", Operation: fluxgraph.Operation{Op: fluxgraph.OpUndo}})
	assert.Error(t, err)

	res, err := s.handleGetProject(ctx, call(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleListFactories(ctx, call(map[string]any{"kind": "group"}))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "core/group")
	assert.NotContains(t, text(t, res), "core/relay")

	var read mcp.ReadResourceRequest
	read.Params.URI = "other://x"
	_, err = s.readProject(ctx, read)
	assert.Error(t, err)
}
