package sim

import (
	"fmt"
	"sync"
)

// DefaultMaxPropagations is the convergence budget a Device uses when none
// is supplied explicitly.
const DefaultMaxPropagations = 100

// StateDescriptor names one input pin's default state, used to reseed a
// Device's inputs on Reset.
type StateDescriptor struct {
	Name  string
	State bool
}

// SolverConfig tunes the optional threaded solve. ThreadedSolve enables it;
// NestingLevel names the Device nesting depth at which sibling children
// are submitted to a worker pool instead of solved sequentially.
type SolverConfig struct {
	ThreadedSolve bool
	NestingLevel  int
}

// BuildFunc wires a Device's children and connections. It is supplied by
// the composite device being constructed, the Go equivalent of overriding
// the reference design's virtual Build() method.
type BuildFunc func(d *Device) error

// Device is a composite Component: it owns child Components, owns
// per-pin ports (outbound connection lists), and runs an inner
// fixed-point solver over its children every time it is asked to Solve.
type Device struct {
	componentBase

	children []Component

	ports [][]connection // indexed by this Device's own pin port_index

	propagateNextTick []Component
	propagateThisTick []Component
	solveThisTickFlag bool
	solveThisTick     []*Device

	maxPropagations int
	inPinDefaults   []StateDescriptor
	deletionFlag    bool

	solveChildrenInOwnThreads bool
	propagationLock           sync.Mutex

	special SpecialDevice // non-nil bypasses the ordinary fixed-point solver
}

// NewDevice configures a composite Device's pins (including the hidden
// true/false inputs and all_stop output every Device carries), runs build
// if it is non-nil, and then Stabilises. It does not register the
// new Device with parent — callers add it explicitly via
// parent.AddComponent, mirroring how the reference composite devices are
// constructed and then handed to AddComponent by their enclosing Build.
func NewDevice(parent *Device, sim *Simulation, name, deviceType string, inPins, outPins []string, inDefaults []StateDescriptor, monitor bool, maxPropagations int, build BuildFunc) (*Device, error) {
	d := &Device{}
	d.deviceFlag = true
	d.name = name
	d.componentType = deviceType
	d.monitor = monitor
	d.inPinDefaults = inDefaults

	if parent != nil {
		d.parent = parent
		d.sim = parent.sim
		d.nestingLevel = parent.nestingLevel + 1
	} else {
		d.sim = sim
		d.nestingLevel = 0
	}
	d.cuid = d.sim.newCUID()

	if maxPropagations <= 0 {
		maxPropagations = DefaultMaxPropagations
	}
	d.maxPropagations = maxPropagations

	d.createInPins(inPins, inDefaults)
	d.createHiddenInPins()
	d.createOutPins(outPins)
	d.createHiddenOutPins()
	d.ports = make([][]connection, len(d.pins))

	if d.sim.useThreadedSolver && d.nestingLevel == d.sim.threadedSolveNestingLevel {
		d.solveChildrenInOwnThreads = true
	}

	var err error
	if build != nil {
		err = build(d)
	}
	d.Stabilise()
	return d, err
}

func (d *Device) createInPins(names []string, defaults []StateDescriptor) {
	defaultFor := func(name string) bool {
		for _, sd := range defaults {
			if sd.Name == name {
				return sd.State
			}
		}
		return false
	}
	// Changed is set true here, not just State: the first Solve a
	// Stabilise triggers must see these pins as dirty so propagateInputs
	// pushes the defaults down into freshly-built children instead of
	// leaving their random build-time seeds standing, mirroring SetPin.
	for _, n := range names {
		d.pins = append(d.pins, Pin{Name: n, Type: PinIn, State: defaultFor(n), Changed: true, PortIndex: len(d.pins)})
	}
}

func (d *Device) createHiddenInPins() {
	d.pins = append(d.pins,
		Pin{Name: "true", Type: PinHiddenIn, State: true, Changed: true, PortIndex: len(d.pins)},
	)
	d.pins = append(d.pins,
		Pin{Name: "false", Type: PinHiddenIn, State: false, Changed: true, PortIndex: len(d.pins)},
	)
}

func (d *Device) createOutPins(names []string) {
	for _, n := range names {
		d.pins = append(d.pins, Pin{Name: n, Type: PinOut, PortIndex: len(d.pins)})
	}
}

func (d *Device) createHiddenOutPins() {
	d.pins = append(d.pins, Pin{Name: "all_stop", Type: PinHiddenOut, PortIndex: len(d.pins)})
}

// CreateBus adds width sequentially numbered pins "prefix_0".."prefix_N-1"
// of the given type, a convenience for wide composite device boundaries.
// Only PinIn and PinOut are supported; for any other type no pins are
// added and only the names are returned.
func (d *Device) CreateBus(prefix string, width int, t PinType) []string {
	names := make([]string, width)
	for i := 0; i < width; i++ {
		names[i] = fmt.Sprintf("%s_%d", prefix, i)
	}
	switch t {
	case PinIn:
		d.createInPins(names, nil)
	case PinOut:
		d.createOutPins(names)
	}
	for len(d.ports) < len(d.pins) {
		d.ports = append(d.ports, nil)
	}
	return names
}

// AddComponent registers an already-constructed child Component (a Gate
// or a nested Device) as belonging to this Device.
func (d *Device) AddComponent(c Component) {
	d.children = append(d.children, c)
}

// AddGate constructs a primitive gate of the given kind as a child of this
// Device and registers it in one step.
func (d *Device) AddGate(name string, kind GateKind, inPinNames []string, monitor bool) *Gate {
	g := newGate(d, name, kind, inPinNames, monitor)
	d.AddComponent(g)
	return g
}

// ChildComponent looks up a direct child by its own (not fully-qualified)
// name, returning nil if absent.
func (d *Device) ChildComponent(name string) Component {
	for _, c := range d.children {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

func (d *Device) removeChild(target Component) {
	for i, c := range d.children {
		if c == target {
			d.children = append(d.children[:i], d.children[i+1:]...)
			break
		}
	}
}

// ChildConnect invokes Connect on the named child with the given
// parameters, the Device-mediated form of wiring two children together.
func (d *Device) ChildConnect(childName string, params []string) error {
	child := d.ChildComponent(childName)
	if child == nil {
		return d.sim.buildError(fmt.Sprintf("device %s tried to connect child %s but it does not exist.", d.FullName(), childName))
	}
	return child.Connect(params)
}

// ChildSet drives a named child's pin directly. If the simulation is not
// currently running, it triggers an immediate Solve so a manually driven
// pin settles right away.
func (d *Device) ChildSet(childName, pinName string, state bool) error {
	child := d.ChildComponent(childName)
	if child == nil {
		return d.sim.buildError(fmt.Sprintf("device %s tried to set child %s but it does not exist.", d.FullName(), childName))
	}
	if !child.PinExists(pinName) {
		return d.sim.buildError(fmt.Sprintf("device %s tried to set child %s pin %s but it does not exist.", d.FullName(), childName, pinName))
	}
	child.Set(child.PinPortIndex(pinName), state)
	if d.sim != nil && !d.sim.running {
		d.Solve()
	}
	return nil
}

// Connect implements the Component contract's connection protocol.
// params is [origin_pin_name, target_component_name, target_pin_name?]
// with target_pin_name defaulting to "input". Which targets are legal
// depends on the origin pin's type: IN/HIDDEN_IN origins must target a
// child's IN pin; OUT origins either target "parent"'s OUT/HIDDEN_OUT pin
// or a sibling's IN pin; HIDDEN_OUT origins can never connect onward.
func (d *Device) Connect(params []string) error {
	if len(params) != 2 && len(params) != 3 {
		return d.sim.buildError(fmt.Sprintf("device %s tried to form a connection but the wrong number of connection parameters were provided.", d.FullName()))
	}
	originName := params[0]
	if !d.PinExists(originName) {
		return d.sim.buildError(fmt.Sprintf("device %s tried to connect from pin %s but it does not exist.", d.FullName(), originName))
	}
	targetComponentName := params[1]
	targetPinName := "input"
	if len(params) == 3 {
		targetPinName = params[2]
	}

	originIdx := d.PinPortIndex(originName)
	originType := d.PinType(originIdx)

	var requiredTargetTypes []PinType
	var targetNature string
	var target Component

	switch originType {
	case PinIn, PinHiddenIn:
		requiredTargetTypes = []PinType{PinIn}
		targetNature = "child"
		target = d.ChildComponent(targetComponentName)
	case PinOut:
		if targetComponentName == "parent" {
			requiredTargetTypes = []PinType{PinOut, PinHiddenOut}
			targetNature = "parent"
			if d.parent != nil {
				target = d.parent
			}
		} else {
			requiredTargetTypes = []PinType{PinIn}
			targetNature = "sibling"
			if d.parent != nil {
				target = d.parent.ChildComponent(targetComponentName)
			}
		}
	case PinHiddenOut:
		return d.sim.buildError(fmt.Sprintf("device %s tried to connect from hidden output %s but hidden outputs cannot be connected onward.", d.FullName(), originName))
	}

	if target == nil {
		return d.sim.buildError(fmt.Sprintf("device %s tried to connect %s to %s component %s but it does not exist.", d.FullName(), originName, targetNature, targetComponentName))
	}
	if !target.PinExists(targetPinName) {
		return d.sim.buildError(fmt.Sprintf("device %s tried to connect %s to %s component %s pin %s but it does not exist.", d.FullName(), originName, targetNature, targetComponentName, targetPinName))
	}
	targetIdx := target.PinPortIndex(targetPinName)
	targetType := target.PinType(targetIdx)
	compatible := false
	for _, t := range requiredTargetTypes {
		if t == targetType {
			compatible = true
			break
		}
	}
	if !compatible {
		return d.sim.buildError(fmt.Sprintf("device %s tried to connect %s to %s component %s pin %s but they are not pin-type compatible.", d.FullName(), originName, targetNature, targetComponentName, targetPinName))
	}
	for _, c := range d.ports[originIdx] {
		if c.target == target && c.portIndex == targetIdx {
			return d.sim.buildError(fmt.Sprintf("device %s tried to connect %s to %s component %s pin %s but is already connected to it.", d.FullName(), originName, targetNature, targetComponentName, targetPinName))
		}
	}
	if target.PinDriven(targetIdx).In {
		return d.sim.buildError(fmt.Sprintf("device %s tried to connect %s to %s component %s pin %s but it is already driven by another pin.", d.FullName(), originName, targetNature, targetComponentName, targetPinName))
	}

	d.ports[originIdx] = append(d.ports[originIdx], connection{target: target, portIndex: targetIdx})
	target.SetPinDrivenFlag(targetIdx, DriveIn, true)
	d.pins[originIdx].Driven.Out = true
	return nil
}

// ConnectPin is the friendlier three-argument spelling of Connect: origin
// pin on this Device, target component name, and optional target pin
// (defaulting to "input").
func (d *Device) ConnectPin(originPin, targetComponent string, targetPin ...string) error {
	params := []string{originPin, targetComponent}
	if len(targetPin) > 0 {
		params = append(params, targetPin[0])
	}
	return d.Connect(params)
}

// Set updates one of this Device's own pins. IN/HIDDEN_IN changes request
// a re-solve from the parent; OUT/HIDDEN_OUT changes are buffered and
// reported to the parent only once this Device's own Solve finishes,
// except all_stop, which is fatal immediately.
func (d *Device) Set(portIndex int, state bool) {
	p := &d.pins[portIndex]
	switch p.Type {
	case PinIn, PinHiddenIn:
		if p.State == state {
			return
		}
		p.State = state
		p.Changed = true
		if !d.solveThisTickFlag {
			d.solveThisTickFlag = true
			if d.parent != nil {
				d.parent.queueToSolve(d)
			}
		}
	case PinOut:
		if p.State == state {
			return
		}
		p.State = state
		p.Changed = true
		d.queued = true
	case PinHiddenOut:
		if p.Name == "all_stop" {
			if state && !p.State {
				p.State = true
				d.sim.raiseAllStop(d.FullName())
			} else {
				p.State = state
			}
		} else {
			p.State = state
		}
	}
}

func (d *Device) propagateInputs() {
	for i := range d.pins {
		if d.pins[i].Type != PinIn && d.pins[i].Type != PinHiddenIn {
			continue
		}
		if !d.pins[i].Changed {
			continue
		}
		d.pins[i].Changed = false
		state := d.pins[i].State
		for _, c := range d.ports[i] {
			c.target.Set(c.portIndex, state)
		}
	}
}

func (d *Device) queueToPropagatePrimary(c Component) {
	d.propagateNextTick = append(d.propagateNextTick, c)
}

func (d *Device) queueToPropagateSecondary(c Component) {
	if d.solveChildrenInOwnThreads {
		d.propagationLock.Lock()
		d.propagateNextTick = append(d.propagateNextTick, c)
		d.propagationLock.Unlock()
		return
	}
	d.propagateNextTick = append(d.propagateNextTick, c)
}

func (d *Device) queueToSolve(child *Device) {
	d.solveThisTick = append(d.solveThisTick, child)
}

func (d *Device) subTick() {
	d.propagateThisTick, d.propagateNextTick = d.propagateNextTick, d.propagateThisTick[:0]
	for _, c := range d.propagateThisTick {
		c.Propagate()
	}
	d.propagateThisTick = d.propagateThisTick[:0]
}

// Solve runs this Device's fixed-point loop: flush pending input changes,
// drain propagation sub-ticks and child re-solves until nothing new is
// pending or the convergence budget is exhausted.
func (d *Device) Solve() error {
	if d.special != nil {
		return d.special.Solve()
	}

	d.solveThisTickFlag = false
	d.propagateInputs()

	subTickCount := 0
	for {
		for subTickCount <= d.maxPropagations && len(d.propagateNextTick) > 0 {
			d.subTick()
			subTickCount++
		}
		if subTickCount > d.maxPropagations {
			err := &ConvergenceError{Device: d.FullName(), MaxPropagations: d.maxPropagations}
			d.sim.logError(err.Error())
			return err
		}
		if len(d.solveThisTick) > 0 {
			if err := d.solveChildren(); err != nil {
				return err
			}
		}
		if len(d.propagateNextTick) == 0 {
			break
		}
	}

	if d.isTop() {
		d.sim.CheckProbeTriggers()
	} else if d.queued && d.parent != nil {
		d.parent.queueToPropagateSecondary(d)
	}
	return nil
}

func (d *Device) solveChildren() error {
	pending := d.solveThisTick
	d.solveThisTick = nil

	if !d.solveChildrenInOwnThreads || d.sim.pool == nil {
		for _, child := range pending {
			if err := child.Solve(); err != nil {
				return err
			}
		}
		return nil
	}

	var firstErr error
	var mu sync.Mutex
	for _, child := range pending {
		c := child
		d.sim.pool.AddJob(func() {
			if err := c.Solve(); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		})
	}
	if err := d.sim.pool.WaitForAllJobs(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (d *Device) isTop() bool {
	return d.sim != nil && &d.sim.Device == d
}

// Initialise force-propagates every OUT pin so that a freshly built
// device's outputs overwrite the randomly-seeded inputs of sibling gates
// they are wired to, then requests one propagation from the parent.
func (d *Device) Initialise() {
	for i := range d.pins {
		if d.pins[i].Type == PinOut || d.pins[i].Type == PinHiddenOut {
			d.pins[i].Changed = true
		}
	}
	if d.parent != nil {
		d.parent.queueToPropagatePrimary(d)
	}
}

// Propagate distributes this Device's changed OUT pins to their
// downstream targets and clears the pending-propagation flag.
func (d *Device) Propagate() {
	d.queued = false
	for i := range d.pins {
		if d.pins[i].Type != PinOut && d.pins[i].Type != PinHiddenOut {
			continue
		}
		if !d.pins[i].Changed {
			continue
		}
		d.pins[i].Changed = false
		state := d.pins[i].State
		for _, c := range d.ports[i] {
			c.target.Set(c.portIndex, state)
		}
	}
}

// Stabilise initialises every child in insertion order and runs one Solve
// to settle the device. On the top-level Simulation it additionally
// reports unconnected pins and prints the build-completed banner.
func (d *Device) Stabilise() {
	for _, c := range d.children {
		c.Initialise()
	}
	_ = d.Solve()
	if d.isTop() {
		d.ReportUnConnectedPins()
		d.sim.logMessage("Simulation build completed.")
		d.sim.PrintAndClearMessages()
		d.sim.PrintErrorMessages()
	}
}

// Reset is reentrant through the top-level Simulation: it redirects to
// Simulation.Reset the first time any component in the tree is reset.
func (d *Device) Reset() {
	if !d.sim.searching {
		d.sim.searching = true
		d.sim.Reset()
		return
	}
	d.resetOwnPins()
	for _, c := range d.children {
		c.Reset()
	}
	d.Stabilise()
}

// resetOwnPins restores this Device's own boundary pins to their starting
// states. IN and HIDDEN_IN pins are marked Changed so the Solve inside the
// Stabilise that follows re-runs propagateInputs, driving the defaults and
// constant rails back down into children instead of leaving their
// reset-time seeds standing; everything else resets clean.
func (d *Device) resetOwnPins() {
	for i := range d.pins {
		switch d.pins[i].Type {
		case PinIn:
			d.pins[i].State = d.defaultFor(d.pins[i].Name)
			d.pins[i].Changed = true
		case PinHiddenIn:
			d.pins[i].State = d.pins[i].Name == "true"
			d.pins[i].Changed = true
		default:
			d.pins[i].State = false
			d.pins[i].Changed = false
		}
	}
	d.queued = false
	d.solveThisTickFlag = false
	d.propagateNextTick = d.propagateNextTick[:0]
	d.propagateThisTick = d.propagateThisTick[:0]
	d.solveThisTick = nil
}

func (d *Device) defaultFor(name string) bool {
	for _, sd := range d.inPinDefaults {
		if sd.Name == name {
			return sd.State
		}
	}
	return false
}

// ReportUnConnectedPins recursively checks every boundary pin of this
// Device for four conditions: an IN pin not driven from outside (exempt at
// nesting level <= 1, since the top-most constructed device has nothing
// outside to connect to yet), an IN pin that drives no child Component, an
// OUT pin not driven by any child Component, and an OUT pin that drives
// nothing further outward (exempt at nesting level <= 1 for the same
// reason).
func (d *Device) ReportUnConnectedPins() {
	for _, p := range d.pins {
		switch p.Type {
		case PinIn:
			if !p.Driven.In && d.nestingLevel > 1 {
				d.sim.logError(fmt.Sprintf("Device %s in pin %s is not driven by any Component.", d.FullName(), p.Name))
			}
			if !p.Driven.Out {
				d.sim.logError(fmt.Sprintf("Device %s in pin %s drives no child Components.", d.FullName(), p.Name))
			}
		case PinOut:
			if !p.Driven.In {
				d.sim.logError(fmt.Sprintf("Device %s out pin %s is not driven by any child Component.", d.FullName(), p.Name))
			}
			if !p.Driven.Out && d.nestingLevel > 1 {
				d.sim.logError(fmt.Sprintf("Device %s out pin %s drives no Component.", d.FullName(), p.Name))
			}
		}
	}
	for _, c := range d.children {
		c.ReportUnConnectedPins()
	}
}

// PurgeComponent detaches this Device from its parent and severs every
// connection it drives from its own pins, recursively purging its children
// first. Connections that other components hold into this Device are not
// removed.
func (d *Device) PurgeComponent() {
	d.deletionFlag = true
	for _, c := range d.children {
		c.PurgeComponent()
	}
	if d.parent != nil && !d.parent.deletionFlag {
		d.parent.removeChild(d)
	}
	d.PurgeOutboundConnections()
}

// PurgeInboundConnections removes any connection this Device holds that
// targets the given component.
func (d *Device) PurgeInboundConnections(target Component) {
	for i := range d.ports {
		kept := d.ports[i][:0]
		for _, c := range d.ports[i] {
			if c.target != target {
				kept = append(kept, c)
			}
		}
		d.ports[i] = kept
	}
}

// PurgeOutboundConnections drops every connection this Device drives from
// any of its pins and clears the corresponding targets' driven-in flags.
func (d *Device) PurgeOutboundConnections() {
	for i := range d.ports {
		for _, c := range d.ports[i] {
			c.target.SetPinDrivenFlag(c.portIndex, DriveIn, false)
		}
		d.ports[i] = nil
		d.pins[i].Driven.Out = false
	}
}

// GetNestingLevel returns how deep this Device sits below the top-level
// Simulation (0 at the top).
func (d *Device) GetNestingLevel() int { return d.nestingLevel }
