package netlist

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/golsim/lsim/sim"
)

// Load reads a netlist YAML document from path and builds the Simulation
// it describes.
func Load(path string) (*sim.Simulation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "netlist: reading file")
	}
	return Build(data)
}

// Build parses a netlist YAML document and constructs the Simulation it
// describes: every gate and connection is wired through the ordinary
// sim.Device primitives, so a netlist-built circuit behaves identically
// to one built by hand-written Go.
func Build(data []byte) (*sim.Simulation, error) {
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, errors.Wrap(err, "netlist: parsing yaml")
	}

	cfg := sim.SolverConfig{ThreadedSolve: spec.ThreadedSolve, NestingLevel: spec.ThreadNestingLevel}
	s := sim.NewSimulation(spec.Name, cfg, spec.MaxPropagations)

	// Clocks and probes are wired inside the same BuildFunc as the gates
	// and connections, not after s.Build returns: Stabilise (and the
	// ReportUnConnectedPins pass it runs once, at the end of this closure)
	// must see every wire, including clock-driven inputs, or a bare
	// top-level gate driven only by a Clock would be misreported as
	// undriven.
	buildErr := s.Build(func(d *sim.Device) error {
		for _, g := range spec.Gates {
			kind, ok := sim.ParseGateKind(g.Kind)
			if !ok {
				return errors.Errorf("netlist: gate %s has unknown kind %q", g.Name, g.Kind)
			}
			d.AddGate(g.Name, kind, g.Inputs, g.Monitor)
		}
		for _, c := range spec.Connections {
			originComp, _ := splitRef(c.From, "output")
			targetComp, targetPin := splitRef(c.To, "input")
			// "true"/"false" name the device's own hidden constant rails
			// rather than a child gate; route those through the device's
			// own Connect instead of ChildConnect.
			if originComp == "true" || originComp == "false" {
				if err := d.ConnectPin(originComp, targetComp, targetPin); err != nil {
					return err
				}
				continue
			}
			if err := d.ChildConnect(originComp, []string{targetComp, targetPin}); err != nil {
				return err
			}
		}

		for _, c := range spec.Clocks {
			clock, err := s.AddClock(c.Name, c.Pattern, c.Monitor)
			if err != nil {
				return err
			}
			for _, ref := range c.Drives {
				comp, pin := splitRef(ref, "input")
				target := d.ChildComponent(comp)
				if target == nil {
					return errors.Errorf("netlist: clock %s drives unknown component %s", c.Name, comp)
				}
				if err := clock.Connect(target, pin); err != nil {
					return err
				}
			}
		}

		for _, p := range spec.Probes {
			probeCfg := sim.DefaultProbeConfig()
			if p.SamplesPerRow > 0 {
				probeCfg.SamplesPerRow = p.SamplesPerRow
			}
			if len(p.LowChar) > 0 {
				probeCfg.LowChar = p.LowChar[0]
			}
			if len(p.HighChar) > 0 {
				probeCfg.HighChar = p.HighChar[0]
			}
			fullName := s.Name() + ":" + p.Component
			if _, err := s.AddProbe(p.Name, fullName, p.Pins, p.Clock, probeCfg); err != nil {
				return err
			}
		}
		return nil
	})
	if buildErr != nil {
		return s, buildErr
	}

	return s, nil
}

// splitRef splits a "component.pin" reference into its parts, defaulting
// the pin name when the reference names only a component.
func splitRef(ref, defaultPin string) (component, pin string) {
	if idx := strings.IndexByte(ref, '.'); idx >= 0 {
		return ref[:idx], ref[idx+1:]
	}
	return ref, defaultPin
}
