package sim

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultBufferCapacity is the capacity given to buffers whose spec leaves it unset.
const DefaultBufferCapacity = 2

// Topology is the wiring of a line: which buffers exist, which inspectors feed
// them and which workstations drain them. It is pure data; NewLine builds the
// live entities from it once per replication.
type Topology struct {
	Buffers      []BufferSpec      `yaml:"buffers"`
	Inspectors   []InspectorSpec   `yaml:"inspectors"`
	Workstations []WorkstationSpec `yaml:"workstations"`
}

// BufferSpec describes one buffer. Capacity 0 means DefaultBufferCapacity.
type BufferSpec struct {
	ID        string    `yaml:"id"`
	Accepts   Component `yaml:"accepts"`
	Capacity  int       `yaml:"capacity,omitempty"`
	Unbounded bool      `yaml:"unbounded,omitempty"`
	Initial   int       `yaml:"initial,omitempty"`
}

// InspectorSpec describes one inspector. Buffers are candidate buffer ids in
// priority order.
type InspectorSpec struct {
	ID         string      `yaml:"id"`
	Components []Component `yaml:"components"`
	Buffers    []string    `yaml:"buffers"`
}

// WorkstationSpec describes one workstation and the buffers it draws from.
type WorkstationSpec struct {
	ID      string   `yaml:"id"`
	Buffers []string `yaml:"buffers"`
}

// DefaultTopology returns the three-station line: inspector 1 feeds C1 into
// every workstation, inspector 2 feeds C2 to workstation 2 and C3 to
// workstation 3. A non-positive capacity selects DefaultBufferCapacity.
func DefaultTopology(capacity int) Topology {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	return Topology{
		Buffers: []BufferSpec{
			{ID: "w1c1", Accepts: C1, Capacity: capacity},
			{ID: "w2c1", Accepts: C1, Capacity: capacity},
			{ID: "w2c2", Accepts: C2, Capacity: capacity},
			{ID: "w3c1", Accepts: C1, Capacity: capacity},
			{ID: "w3c3", Accepts: C3, Capacity: capacity},
		},
		Inspectors: []InspectorSpec{
			{ID: "1", Components: []Component{C1}, Buffers: []string{"w1c1", "w2c1", "w3c1"}},
			{ID: "2", Components: []Component{C2, C3}, Buffers: []string{"w2c2", "w3c3"}},
		},
		Workstations: []WorkstationSpec{
			{ID: "1", Buffers: []string{"w1c1"}},
			{ID: "2", Buffers: []string{"w2c1", "w2c2"}},
			{ID: "3", Buffers: []string{"w3c1", "w3c3"}},
		},
	}
}

// LoadTopology reads a topology from a YAML file, rejecting unknown fields.
func LoadTopology(path string) (*Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topology: %w", err)
	}
	var t Topology
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&t); err != nil {
		return nil, fmt.Errorf("parsing topology: %w", err)
	}
	return &t, nil
}

// WithCapacity returns a copy whose buffers without an explicit capacity use capacity.
func (t Topology) WithCapacity(capacity int) Topology {
	out := t
	out.Buffers = make([]BufferSpec, len(t.Buffers))
	for i, b := range t.Buffers {
		if b.Capacity == 0 && !b.Unbounded {
			b.Capacity = capacity
		}
		out.Buffers[i] = b
	}
	return out
}

// Validate checks identities, references and component compatibility.
func (t *Topology) Validate() error {
	if len(t.Buffers) == 0 {
		return fmt.Errorf("topology: at least one buffer required")
	}
	if len(t.Inspectors) == 0 {
		return fmt.Errorf("topology: at least one inspector required")
	}
	if len(t.Workstations) == 0 {
		return fmt.Errorf("topology: at least one workstation required")
	}
	buffers := make(map[string]BufferSpec, len(t.Buffers))
	for i, b := range t.Buffers {
		prefix := fmt.Sprintf("buffers[%d]", i)
		if b.ID == "" {
			return fmt.Errorf("%s: id must not be empty", prefix)
		}
		if _, dup := buffers[b.ID]; dup {
			return fmt.Errorf("%s: duplicate buffer id %q", prefix, b.ID)
		}
		if !IsValidComponent(b.Accepts) {
			return fmt.Errorf("%s: unknown component %q; valid: C1, C2, C3", prefix, b.Accepts)
		}
		if b.Capacity < 0 {
			return fmt.Errorf("%s: capacity must be non-negative, got %d", prefix, b.Capacity)
		}
		if b.Initial < 0 {
			return fmt.Errorf("%s: initial must be non-negative, got %d", prefix, b.Initial)
		}
		if !b.Unbounded && b.Initial > b.capacityOrDefault() {
			return fmt.Errorf("%s: initial %d exceeds capacity %d", prefix, b.Initial, b.capacityOrDefault())
		}
		buffers[b.ID] = b
	}

	seen := make(map[string]bool, len(t.Inspectors))
	for i, insp := range t.Inspectors {
		prefix := fmt.Sprintf("inspectors[%d]", i)
		if insp.ID == "" {
			return fmt.Errorf("%s: id must not be empty", prefix)
		}
		if seen[insp.ID] {
			return fmt.Errorf("%s: duplicate inspector id %q", prefix, insp.ID)
		}
		seen[insp.ID] = true
		if len(insp.Components) == 0 {
			return fmt.Errorf("%s: at least one component required", prefix)
		}
		handled := make(map[Component]bool, len(insp.Components))
		for _, c := range insp.Components {
			if !IsValidComponent(c) {
				return fmt.Errorf("%s: unknown component %q; valid: C1, C2, C3", prefix, c)
			}
			handled[c] = true
		}
		if len(insp.Buffers) == 0 {
			return fmt.Errorf("%s: at least one candidate buffer required", prefix)
		}
		listed := make(map[string]bool, len(insp.Buffers))
		for _, id := range insp.Buffers {
			b, ok := buffers[id]
			if !ok {
				return fmt.Errorf("%s: unknown buffer %q", prefix, id)
			}
			if listed[id] {
				return fmt.Errorf("%s: duplicate buffer %q", prefix, id)
			}
			listed[id] = true
			if !handled[b.Accepts] {
				return fmt.Errorf("%s: buffer %q accepts %s, which the inspector never produces", prefix, id, b.Accepts)
			}
		}
	}

	seen = make(map[string]bool, len(t.Workstations))
	for i, ws := range t.Workstations {
		prefix := fmt.Sprintf("workstations[%d]", i)
		if ws.ID == "" {
			return fmt.Errorf("%s: id must not be empty", prefix)
		}
		if seen[ws.ID] {
			return fmt.Errorf("%s: duplicate workstation id %q", prefix, ws.ID)
		}
		seen[ws.ID] = true
		if len(ws.Buffers) == 0 {
			return fmt.Errorf("%s: workstation %s: %w", prefix, ws.ID, ErrNoInputBuffers)
		}
		listed := make(map[string]bool, len(ws.Buffers))
		for _, id := range ws.Buffers {
			if _, ok := buffers[id]; !ok {
				return fmt.Errorf("%s: unknown buffer %q", prefix, id)
			}
			if listed[id] {
				return fmt.Errorf("%s: duplicate buffer %q", prefix, id)
			}
			listed[id] = true
		}
	}
	return nil
}

// InspectorComponents returns every component some inspector produces, in first-seen order.
func (t *Topology) InspectorComponents() []Component {
	var out []Component
	seen := make(map[Component]bool)
	for _, insp := range t.Inspectors {
		for _, c := range insp.Components {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// WorkstationIDs returns workstation ids in declaration order.
func (t *Topology) WorkstationIDs() []string {
	out := make([]string, len(t.Workstations))
	for i, ws := range t.Workstations {
		out[i] = ws.ID
	}
	return out
}

func (b BufferSpec) capacityOrDefault() int {
	switch {
	case b.Unbounded:
		return Unbounded
	case b.Capacity == 0:
		return DefaultBufferCapacity
	default:
		return b.Capacity
	}
}
