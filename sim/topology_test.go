package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assembly-sim/assembly-sim/sim/internal/testutil"
)

func TestDefaultTopology_Validates(t *testing.T) {
	topo := DefaultTopology(0)
	require.NoError(t, topo.Validate())
	assert.Len(t, topo.Buffers, 5)
	for _, b := range topo.Buffers {
		assert.Equal(t, DefaultBufferCapacity, b.Capacity, b.ID)
	}
	assert.Equal(t, []Component{C1, C2, C3}, topo.InspectorComponents())
	assert.Equal(t, []string{"1", "2", "3"}, topo.WorkstationIDs())
}

func TestDefaultTopology_Capacity(t *testing.T) {
	topo := DefaultTopology(5)
	for _, b := range topo.Buffers {
		assert.Equal(t, 5, b.Capacity)
	}
}

func TestTopology_WithCapacity_OnlyFillsUnset(t *testing.T) {
	topo := Topology{Buffers: []BufferSpec{
		{ID: "a", Accepts: C1},
		{ID: "b", Accepts: C1, Capacity: 7},
		{ID: "c", Accepts: C1, Unbounded: true},
	}}
	got := topo.WithCapacity(3)
	assert.Equal(t, 3, got.Buffers[0].Capacity)
	assert.Equal(t, 7, got.Buffers[1].Capacity)
	assert.Equal(t, 0, got.Buffers[2].Capacity)
	assert.Equal(t, 0, topo.Buffers[0].Capacity, "receiver is not mutated")
}

func TestTopology_Validate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Topology)
		want   string
	}{
		{"no buffers", func(t *Topology) { t.Buffers = nil }, "at least one buffer"},
		{"no inspectors", func(t *Topology) { t.Inspectors = nil }, "at least one inspector"},
		{"no workstations", func(t *Topology) { t.Workstations = nil }, "at least one workstation"},
		{"duplicate buffer", func(t *Topology) { t.Buffers[1].ID = "w1c1" }, "duplicate buffer"},
		{"unknown component", func(t *Topology) { t.Buffers[0].Accepts = "C7" }, "unknown component"},
		{"initial above capacity", func(t *Topology) { t.Buffers[0].Initial = 3 }, "exceeds capacity"},
		{"duplicate inspector", func(t *Topology) { t.Inspectors[1].ID = "1" }, "duplicate inspector"},
		{"inspector unknown buffer", func(t *Topology) { t.Inspectors[0].Buffers = []string{"nope"} }, "unknown buffer"},
		{"inspector wrong component", func(t *Topology) { t.Inspectors[0].Buffers = []string{"w2c2"} }, "never produces"},
		{"workstation unknown buffer", func(t *Topology) { t.Workstations[2].Buffers = []string{"nope"} }, "unknown buffer"},
		{"duplicate workstation", func(t *Topology) { t.Workstations[2].ID = "1" }, "duplicate workstation"},
		{"inspector repeats buffer", func(t *Topology) { t.Inspectors[0].Buffers = []string{"w1c1", "w2c1", "w1c1"} }, `inspectors[0]: duplicate buffer "w1c1"`},
		{"workstation repeats buffer", func(t *Topology) { t.Workstations[1].Buffers = []string{"w2c1", "w2c1"} }, `workstations[1]: duplicate buffer "w2c1"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			topo := DefaultTopology(2)
			tt.mutate(&topo)
			err := topo.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestTopology_Validate_WorkstationWithoutBuffers(t *testing.T) {
	topo := DefaultTopology(2)
	topo.Workstations[0].Buffers = nil
	err := topo.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoInputBuffers))
}

func TestLoadTopology_ParsesYAML(t *testing.T) {
	path := testutil.WriteFile(t, "topology.yaml", `
buffers:
  - {id: a, accepts: C1, capacity: 3}
  - {id: b, accepts: C2, unbounded: true, initial: 4}
inspectors:
  - {id: "1", components: [C1], buffers: [a]}
  - {id: "2", components: [C2], buffers: [b]}
workstations:
  - {id: "1", buffers: [a, b]}
`)
	topo, err := LoadTopology(path)
	require.NoError(t, err)
	require.NoError(t, topo.Validate())
	assert.Equal(t, BufferSpec{ID: "a", Accepts: C1, Capacity: 3}, topo.Buffers[0])
	assert.True(t, topo.Buffers[1].Unbounded)
	assert.Equal(t, 4, topo.Buffers[1].Initial)
	assert.Equal(t, []string{"a", "b"}, topo.Workstations[0].Buffers)
}

func TestLoadTopology_RejectsUnknownFields(t *testing.T) {
	path := testutil.WriteFile(t, "topology.yaml", `
buffers:
  - {id: a, accepts: C1, capacty: 3}
`)
	_, err := LoadTopology(path)
	assert.Error(t, err)
}

func TestLoadTopology_MissingFile(t *testing.T) {
	_, err := LoadTopology("/nonexistent/topology.yaml")
	assert.Error(t, err)
}
