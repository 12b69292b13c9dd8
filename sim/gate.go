package sim

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

// GateKind identifies the pure boolean function a Gate evaluates.
type GateKind int

const (
	GateAnd GateKind = iota
	GateNand
	GateOr
	GateNor
	GateNot
)

func (k GateKind) String() string {
	switch k {
	case GateAnd:
		return "and"
	case GateNand:
		return "nand"
	case GateOr:
		return "or"
	case GateNor:
		return "nor"
	case GateNot:
		return "not"
	default:
		return "unknown"
	}
}

// ParseGateKind maps the string vocabulary used by AddGate ("and", "nand",
// "or", "nor", "not") onto a GateKind.
func ParseGateKind(s string) (GateKind, bool) {
	switch strings.ToLower(s) {
	case "and":
		return GateAnd, true
	case "nand":
		return GateNand, true
	case "or":
		return GateOr, true
	case "nor":
		return GateNor, true
	case "not":
		return GateNot, true
	default:
		return 0, false
	}
}

// Gate is a primitive Component: many input pins and exactly one output
// pin, evaluated by a pure boolean function of its inputs.
type Gate struct {
	componentBase
	kind         GateKind
	outPortIndex int
	connections  []connection
}

// newGate configures a Gate's pins and random initial input state. It does
// not register the gate with its parent; callers add it via
// Device.AddGate or Device.AddComponent, matching the two-step
// construct-then-register convention the composite devices use for gates
// and nested devices alike.
func newGate(parent *Device, name string, kind GateKind, inPinNames []string, monitor bool) *Gate {
	g := &Gate{kind: kind}
	g.deviceFlag = false
	g.name = name
	g.componentType = kind.String()
	g.parent = parent
	g.sim = parent.sim
	g.cuid = parent.sim.newCUID()
	g.nestingLevel = parent.nestingLevel + 1
	g.monitor = monitor

	names := append([]string(nil), inPinNames...)
	sort.Sort(byNaturalOrder(names))

	minInputs := 2
	if kind == GateNot {
		minInputs = 1
	}
	if len(names) < minInputs {
		parent.sim.logError(fmt.Sprintf("Gate %s(%s) added with only %d in pins specified.", name, kind, len(names)))
	}

	g.pins = make([]Pin, 0, len(names)+1)
	for i, n := range names {
		g.pins = append(g.pins, Pin{
			Name:      n,
			Type:      PinIn,
			State:     rand.Intn(2) == 1,
			PortIndex: i,
		})
	}
	g.outPortIndex = len(g.pins)
	g.pins = append(g.pins, Pin{Name: "output", Type: PinOut, PortIndex: g.outPortIndex})
	return g
}

// operate evaluates the gate's pure boolean function over its input pins.
func (g *Gate) operate() bool {
	switch g.kind {
	case GateAnd:
		for i := 0; i < g.outPortIndex; i++ {
			if !g.pins[i].State {
				return false
			}
		}
		return true
	case GateNand:
		for i := 0; i < g.outPortIndex; i++ {
			if !g.pins[i].State {
				return true
			}
		}
		return false
	case GateOr:
		for i := 0; i < g.outPortIndex; i++ {
			if g.pins[i].State {
				return true
			}
		}
		return false
	case GateNor:
		for i := 0; i < g.outPortIndex; i++ {
			if g.pins[i].State {
				return false
			}
		}
		return true
	case GateNot:
		return !g.pins[0].State
	default:
		return false
	}
}

// Initialise computes the gate's output from its (randomly seeded) inputs
// and requests one propagation, guaranteeing every gate is visited at
// least once when its parent Stabilises.
func (g *Gate) Initialise() {
	out := &g.pins[g.outPortIndex]
	out.State = g.operate()
	out.Changed = true
	g.parent.queueToPropagatePrimary(g)
}

// Connect wires this gate's single output to a target pin. params is
// [target_component_name, target_pin_name] with target_pin_name defaulting
// to "input".
func (g *Gate) Connect(params []string) error {
	if len(params) != 1 && len(params) != 2 {
		return g.sim.buildError(fmt.Sprintf("gate %s tried to form a connection but the wrong number of connection parameters were provided.", g.FullName()))
	}
	targetName := params[0]
	targetPin := "input"
	if len(params) == 2 {
		targetPin = params[1]
	}

	toParent := targetName == "parent"
	var target Component
	if toParent {
		target = g.parent
	} else {
		target = g.parent.ChildComponent(targetName)
	}
	if target == nil {
		return g.sim.buildError(fmt.Sprintf("gate %s tried to connect output to component %s but it does not exist.", g.FullName(), targetName))
	}
	if !target.PinExists(targetPin) {
		return g.sim.buildError(fmt.Sprintf("gate %s tried to connect output to %s pin %s but it does not exist.", g.FullName(), targetName, targetPin))
	}
	targetIdx := target.PinPortIndex(targetPin)
	targetType := target.PinType(targetIdx)
	// A gate driving its own enclosing Device's boundary exposes that
	// Device's OUT/HIDDEN_OUT pin (mirrors Device.Connect's OUT-origin ->
	// parent rule); any other target must be an ordinary sibling IN pin.
	if toParent {
		if targetType != PinOut && targetType != PinHiddenOut {
			return g.sim.buildError(fmt.Sprintf("gate %s tried to connect output to parent pin %s but it is not an output pin.", g.FullName(), targetPin))
		}
	} else if targetType != PinIn {
		return g.sim.buildError(fmt.Sprintf("gate %s tried to connect output to %s pin %s but it is not an input pin.", g.FullName(), targetName, targetPin))
	}
	for _, c := range g.connections {
		if c.target == target && c.portIndex == targetIdx {
			return g.sim.buildError(fmt.Sprintf("gate %s tried to connect output to %s pin %s but is already connected to it.", g.FullName(), targetName, targetPin))
		}
	}
	if target.PinDriven(targetIdx).In {
		return g.sim.buildError(fmt.Sprintf("gate %s tried to connect output to %s pin %s but it is already driven by another pin.", g.FullName(), targetName, targetPin))
	}

	g.connections = append(g.connections, connection{target: target, portIndex: targetIdx})
	target.SetPinDrivenFlag(targetIdx, DriveIn, true)
	g.pins[g.outPortIndex].Driven.Out = true
	return nil
}

// Set updates one input pin and re-evaluates the gate if the new state
// differs from the current one.
func (g *Gate) Set(portIndex int, state bool) {
	if g.pins[portIndex].State == state {
		return
	}
	g.pins[portIndex].State = state
	g.evaluate()
}

func (g *Gate) evaluate() {
	out := &g.pins[g.outPortIndex]
	newState := g.operate()
	if out.State == newState {
		return
	}
	out.State = newState
	out.Changed = true
	if !g.queued {
		g.queued = true
		g.parent.queueToPropagatePrimary(g)
	}
}

// Propagate clears the pending-propagation flag and, if the output
// changed, drives every downstream connection.
func (g *Gate) Propagate() {
	g.queued = false
	out := &g.pins[g.outPortIndex]
	if !out.Changed {
		return
	}
	out.Changed = false
	for _, c := range g.connections {
		c.target.Set(c.portIndex, out.State)
	}
}

// Reset is reentrant through the top-level Simulation: the first call on
// any component in the tree redirects to Simulation.Reset, which then
// recurses back down to reseed every gate's inputs.
func (g *Gate) Reset() {
	if !g.sim.searching {
		g.sim.searching = true
		g.sim.Reset()
		return
	}
	for i := range g.pins {
		if g.pins[i].Type == PinIn {
			g.pins[i].State = rand.Intn(2) == 1
		} else {
			g.pins[i].State = false
		}
		g.pins[i].Changed = false
	}
	g.queued = false
}

// ReportUnConnectedPins logs an error for every input not driven by a
// connection, and for an output that drives nothing unless the gate sits
// at the top of the hierarchy, where an unused exposed output is normal.
func (g *Gate) ReportUnConnectedPins() {
	for _, p := range g.pins {
		if p.Type == PinIn && !p.Driven.In {
			g.sim.logError(fmt.Sprintf("Gate %s in pin %s is not driven by any Component.", g.FullName(), p.Name))
		} else if p.Type == PinOut && g.nestingLevel > 1 && !p.Driven.Out {
			g.sim.logError(fmt.Sprintf("Gate %s out pin %s drives no Component.", g.FullName(), p.Name))
		}
	}
}

// PurgeComponent removes this gate from its parent's child list and
// severs every connection its output drives. Connections that other
// components hold into this gate are not removed.
func (g *Gate) PurgeComponent() {
	if g.parent != nil && !g.parent.deletionFlag {
		g.parent.removeChild(g)
	}
	g.PurgeOutboundConnections()
}

// PurgeInboundConnections removes any connection this gate holds that
// targets the given component (used when that component is being deleted).
func (g *Gate) PurgeInboundConnections(target Component) {
	kept := g.connections[:0]
	for _, c := range g.connections {
		if c.target != target {
			kept = append(kept, c)
		}
	}
	g.connections = kept
}

// PurgeOutboundConnections drops every connection this gate drives and
// clears the corresponding targets' driven-in flags.
func (g *Gate) PurgeOutboundConnections() {
	for _, c := range g.connections {
		c.target.SetPinDrivenFlag(c.portIndex, DriveIn, false)
	}
	g.connections = nil
	g.pins[g.outPortIndex].Driven.Out = false
}
