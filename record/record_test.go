// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package record_test

import (
	"context"
	"path/filepath"
	"testing"

	bb "github.com/db47h/breadboard"
	"github.com/db47h/breadboard/record"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func open(t *testing.T) *record.Store {
	t.Helper()
	st, err := record.Open(filepath.Join(t.TempDir(), "db", "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

// inverter returns a graph with a source driving net "a" and a NOT gate
// driving net "y".
//
func inverter(t *testing.T) (*bb.Graph, bb.NetID) {
	g := bb.NewGraph()
	b := bb.NewBoard(g)
	_, err := b.PlaceSpec(bb.ComponentSpec{Kind: bb.Source, Level: bb.Low}, "out=a")
	require.NoError(t, err)
	_, err = b.Place(bb.Not, "in=a, out=y")
	require.NoError(t, err)
	a, _ := b.Lookup("a")
	return g, a
}

func TestRun_steps(t *testing.T) {
	ctx := context.Background()
	st := open(t)
	g, a := inverter(t)
	run, err := st.BeginRun(ctx, "inverter", g)
	require.NoError(t, err)
	s := bb.NewSimulator(g, bb.WithHook(run.Hook()))

	_, err = s.Step(nil)
	require.NoError(t, err)
	_, err = s.Step(map[bb.NetID]bb.Level{a: bb.High})
	require.NoError(t, err)
	require.NoError(t, run.Err())

	recs, err := st.Snapshots(ctx, run.ID)
	require.NoError(t, err)
	want := []record.StepRecord{
		{Step: 0, Values: map[string]bb.Value{"a": bb.Strong(bb.Low), "y": bb.Strong(bb.High)}},
		{Step: 1, Values: map[string]bb.Value{"a": bb.Strong(bb.High), "y": bb.Strong(bb.Low)}},
	}
	if diff := cmp.Diff(want, recs, cmpopts.IgnoreFields(record.StepRecord{}, "Passes")); diff != "" {
		t.Errorf("snapshots mismatch (-want +got):\n%s", diff)
	}

	// rollback replaces step 0 and drops step 1
	_, err = s.Rollback(0)
	require.NoError(t, err)
	recs, err = st.Snapshots(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, bb.Strong(bb.High), recs[0].Values["y"])

	require.NoError(t, s.Reset())
	recs, err = st.Snapshots(ctx, run.ID)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRun_faults(t *testing.T) {
	ctx := context.Background()
	st := open(t)
	g := bb.NewGraph()
	b := bb.NewBoard(g)
	_, err := b.Place(bb.Not, "in=loop, out=loop")
	require.NoError(t, err)
	run, err := st.BeginRun(ctx, "ring", g)
	require.NoError(t, err)

	s := bb.NewSimulator(g, bb.MaxPasses(10), bb.WithHook(run.Hook()))
	_, err = s.Step(nil)
	require.Error(t, err)

	fs, err := st.Faults(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, fs, 1)
	assert.Equal(t, 0, fs[0].Step)
	assert.Equal(t, bb.UnstableCircuit.String(), fs[0].Code)
	assert.Equal(t, []string{"loop"}, fs[0].Nets)

	info, err := st.Run(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "ring", info.Name)
	assert.Equal(t, 1, info.Faults)
	assert.Equal(t, 0, info.Steps)
}

func TestStore_runs(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")
	st, err := record.Open(path)
	require.NoError(t, err)

	g, _ := inverter(t)
	r1, err := st.BeginRun(ctx, "first", g)
	require.NoError(t, err)
	r2, err := st.BeginRun(ctx, "second", g)
	require.NoError(t, err)
	assert.NotEqual(t, r1.ID, r2.ID)

	s := bb.NewSimulator(g, bb.WithHook(r2.Hook()))
	_, err = s.Run(3)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	// reopen: the schema migration is idempotent
	st, err = record.Open(path)
	require.NoError(t, err)
	defer st.Close()
	runs, err := st.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "first", runs[0].Name)
	assert.Equal(t, 0, runs[0].Steps)
	assert.Equal(t, r2.ID, runs[1].ID)
	assert.Equal(t, 3, runs[1].Steps)
	assert.Equal(t, 2, runs[1].Components)
	assert.Equal(t, 2, runs[1].Nets)

	_, err = st.Run(ctx, "nope")
	assert.Error(t, err)
}
