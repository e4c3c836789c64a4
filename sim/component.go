package sim

import "fmt"

// Component classifies a unit flowing through the line.
type Component string

const (
	C1 Component = "C1"
	C2 Component = "C2"
	C3 Component = "C3"
)

// validComponents is the closed set of component kinds.
var validComponents = map[Component]bool{
	C1: true,
	C2: true,
	C3: true,
}

// IsValidComponent reports whether c is one of the known component kinds.
func IsValidComponent(c Component) bool {
	return validComponents[c]
}

// ParseComponent converts a name such as "C2" into a Component.
func ParseComponent(name string) (Component, error) {
	c := Component(name)
	if !validComponents[c] {
		return "", fmt.Errorf("unknown component %q; valid: C1, C2, C3", name)
	}
	return c, nil
}
