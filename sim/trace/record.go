// Package trace provides routing-decision recording for inspector policy analysis.
// This package has no dependencies on sim/ — it stores pure data types.
package trace

// RoutingRecord captures a single inspector routing decision once its unit has landed.
type RoutingRecord struct {
	Clock        float64 // instant the unit landed (or was dropped)
	InspectorID  string
	Component    string
	Policy       string
	ChosenBuffer string // empty when the unit was dropped
	Reason       string
	Raced        bool    // offered to every candidate because all were full
	Dropped      bool    // no candidate accepted the component
	Wait         float64 // time between routing start and landing
}
