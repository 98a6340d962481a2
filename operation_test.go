package fluxgraph_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/fluxgraph"
	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditor_Apply(t *testing.T) {
	e := newEditor(t)
	ctx := context.Background()

	apply := func(raw string) fluxgraph.Result {
		t.Helper()
		var op fluxgraph.Operation
		require.NoError(t, json.Unmarshal([]byte(raw), &op))
		res, err := e.Apply(ctx, op)
		require.NoError(t, err, raw)
		return res
	}

	assert.Equal(t, []string{"m1"}, apply(`{"op":"addModule","factory":"core/relay","position":{"x":0,"y":0}}`).IDs)
	assert.Equal(t, []string{"m2"}, apply(`{"op":"addModule","factory":"core/relay","position":{"x":100,"y":40}}`).IDs)
	assert.Equal(t, []string{"c1"}, apply(`{"op":"connect","start":{"moduleId":"m1","slotId":"out1"},"end":{"moduleId":"m2","slotId":"in1"}}`).IDs)
	assert.True(t, apply(`{"op":"setAdaptor","connectionId":"c1","source":"data + 1"}`).Changed)
	assert.True(t, apply(`{"op":"alignModules","moduleIds":["m1","m2"],"axis":"horizontal"}`).Changed)
	assert.True(t, apply(`{"op":"updateModule","moduleId":"m2","data":{"explicitInputsCount":2}}`).Changed)
	assert.Equal(t, []string{"m3"}, apply(`{"op":"addPlugin","factory":"core/logger","moduleId":"m2"}`).IDs)
	assert.Equal(t, []string{"m4"}, apply(`{"op":"createLayer","moduleIds":["m1"],"title":"Inputs"}`).IDs)
	assert.True(t, apply(`{"op":"enterLayer","moduleId":"m4"}`).Changed)
	assert.True(t, apply(`{"op":"leaveLayer"}`).Changed)
	assert.False(t, apply(`{"op":"leaveLayer"}`).Changed)
	assert.True(t, apply(`{"op":"updateProperties","title":"renamed","description":"d"}`).Changed)
	assert.True(t, apply(`{"op":"updateRequirements","fluxPacks":["core"]}`).Changed)

	m2, ok := e.Project().Workflow.Module("m2")
	require.True(t, ok)
	assert.Len(t, m2.Inputs, 2)
	assert.Equal(t, []string{"core"}, e.Project().Requirements.FluxPacks)

	before := e.History().Len()
	apply(`{"op":"updateRunnerRendering","layout":"<div>","coalesce":true}`)
	apply(`{"op":"updateRunnerRendering","layout":"<div></div>","coalesce":true}`)
	assert.Equal(t, before, e.History().Len())
	assert.Equal(t, "<div></div>", e.Project().RunnerRendering.Layout)

	assert.True(t, apply(`{"op":"undo"}`).Changed)
	assert.True(t, apply(`{"op":"redo"}`).Changed)
	assert.True(t, apply(`{"op":"deleteConnections","connectionIds":["c1"]}`).Changed)
	assert.Empty(t, e.Project().Workflow.Connections)
}

func TestEditor_ApplyErrors(t *testing.T) {
	e := newEditor(t)
	ctx := context.Background()

	_, err := e.Apply(ctx, fluxgraph.Operation{Op: "explode"})
	assert.ErrorIs(t, err, fluxgraph.ErrUnknownCommand)
	assert.ErrorIs(t, err, domain.ErrPrecondition)

	_, err = e.Apply(ctx, fluxgraph.Operation{Op: fluxgraph.OpAlignModules, Axis: "diagonal"})
	assert.ErrorIs(t, err, domain.ErrPrecondition)

	res, err := e.Apply(ctx, fluxgraph.Operation{Op: fluxgraph.OpDeleteModules})
	require.NoError(t, err)
	assert.False(t, res.Changed)
}
