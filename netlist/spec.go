// Package netlist builds a sim.Simulation from a declarative YAML circuit
// description, an alternative to hand-written Go Build functions for
// circuits that are more naturally expressed as data.
package netlist

// GateSpec describes one primitive gate to be added via Device.AddGate.
type GateSpec struct {
	Name    string   `yaml:"name"`
	Kind    string   `yaml:"kind"`
	Inputs  []string `yaml:"inputs"`
	Monitor bool     `yaml:"monitor"`
}

// ConnectionSpec wires one gate's output to another gate's input. From and
// To are "component" or "component.pin" references; From defaults to pin
// "output", To defaults to pin "input". From may also be the literal
// "true" or "false", naming the enclosing device's hidden constant rail
// instead of a child gate.
type ConnectionSpec struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// ClockSpec describes one clock and, optionally, the pins it drives
// directly.
type ClockSpec struct {
	Name    string   `yaml:"name"`
	Pattern []bool   `yaml:"pattern"`
	Monitor bool     `yaml:"monitor"`
	Drives  []string `yaml:"drives"`
}

// ProbeSpec describes one probe attached to a component's pins, triggered
// by a named clock.
type ProbeSpec struct {
	Name          string   `yaml:"name"`
	Component     string   `yaml:"component"`
	Pins          []string `yaml:"pins"`
	Clock         string   `yaml:"clock"`
	SamplesPerRow int      `yaml:"samples_per_row"`
	LowChar       string   `yaml:"low_char"`
	HighChar      string   `yaml:"high_char"`
}

// Spec is the root of a netlist YAML document: one flat circuit of gates,
// connections, clocks and probes built directly at the top-level
// Simulation's nesting level.
type Spec struct {
	Name               string `yaml:"name"`
	MaxPropagations    int    `yaml:"max_propagations"`
	ThreadedSolve      bool   `yaml:"threaded_solve"`
	ThreadNestingLevel int    `yaml:"threaded_solve_nesting_level"`

	Gates       []GateSpec       `yaml:"gates"`
	Connections []ConnectionSpec `yaml:"connections"`
	Clocks      []ClockSpec      `yaml:"clocks"`
	Probes      []ProbeSpec      `yaml:"probes"`
}
