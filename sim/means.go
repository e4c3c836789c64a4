package sim

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/exp/slices"
)

// AssemblyKey returns the external name of a workstation's assembly mean ("ws1" for id "1").
func AssemblyKey(workstationID string) string {
	return "ws" + workstationID
}

// Means holds the mean service times that drive the exponential draws:
// inspection time per component and assembly time per workstation id.
type Means struct {
	Inspection map[Component]float64 `json:"inspection" yaml:"inspection"`
	Assembly   map[string]float64    `json:"assembly" yaml:"assembly"`
}

// MeansFromNamed converts the flat external mapping (C1, C2, C3, ws1, ws2, ws3)
// into typed Means for topo. Missing keys and unused keys are both errors.
func MeansFromNamed(named map[string]float64, topo *Topology) (Means, error) {
	m := Means{
		Inspection: make(map[Component]float64),
		Assembly:   make(map[string]float64),
	}
	used := make(map[string]bool, len(named))
	var missing []string
	for _, c := range topo.InspectorComponents() {
		v, ok := named[string(c)]
		if !ok {
			missing = append(missing, string(c))
			continue
		}
		m.Inspection[c] = v
		used[string(c)] = true
	}
	for _, id := range topo.WorkstationIDs() {
		key := AssemblyKey(id)
		v, ok := named[key]
		if !ok {
			missing = append(missing, key)
			continue
		}
		m.Assembly[id] = v
		used[key] = true
	}
	if len(missing) > 0 {
		return Means{}, fmt.Errorf("means: missing %s", strings.Join(missing, ", "))
	}
	var unknown []string
	for k := range named {
		if !used[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return Means{}, fmt.Errorf("means: unknown source %s", strings.Join(unknown, ", "))
	}
	if err := m.Validate(topo); err != nil {
		return Means{}, err
	}
	return m, nil
}

// Validate checks that every component produced and every workstation in topo
// has a finite positive mean.
func (m Means) Validate(topo *Topology) error {
	for _, c := range topo.InspectorComponents() {
		v, ok := m.Inspection[c]
		if !ok {
			return fmt.Errorf("means.inspection.%s: missing", c)
		}
		if err := validateFinitePositive(fmt.Sprintf("means.inspection.%s", c), v); err != nil {
			return err
		}
	}
	for _, id := range topo.WorkstationIDs() {
		v, ok := m.Assembly[id]
		if !ok {
			return fmt.Errorf("means.assembly.%s: missing", id)
		}
		if err := validateFinitePositive(fmt.Sprintf("means.assembly.%s", id), v); err != nil {
			return err
		}
	}
	return nil
}

func validateFinitePositive(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, val)
	}
	if val <= 0 {
		return fmt.Errorf("%s must be positive, got %f", name, val)
	}
	return nil
}
