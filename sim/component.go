package sim

import "sort"

// Component is the common behaviour of Gate and Device: everything the
// solver and connection-validation logic need to treat the two
// polymorphically, the way the reference simulator's Component base class
// does for its Gate/Device descendants.
type Component interface {
	Name() string
	FullName() string
	IsDevice() bool
	ComponentType() string
	NestingLevel() int
	ParentDevice() *Device
	TopLevelSim() *Simulation

	PinExists(name string) bool
	PinPortIndex(name string) int
	PinType(portIndex int) PinType
	PinTypeByName(name string) PinType
	PinState(portIndex int) bool
	PinName(portIndex int) string
	PinDriven(portIndex int) Driven
	SetPinDrivenFlag(portIndex int, dir DriveDirection, state bool)
	SortedInPinNames() []string
	SortedOutPinNames() []string

	Initialise()
	Connect(params []string) error
	Set(portIndex int, state bool)
	Propagate()
	Reset()
	ReportUnConnectedPins()
	PurgeComponent()
	PurgeInboundConnections(target Component)
	PurgeOutboundConnections()
}

// connection is one outbound wire from a pin to a target component's pin.
type connection struct {
	target    Component
	portIndex int
}

// componentBase carries the state and read-only accessors shared by Gate
// and Device. Both embed it by value and add the handful of methods
// (Initialise, Connect, Set, Propagate, Reset, ReportUnConnectedPins,
// Purge*) that differ between a primitive gate and a composite device.
type componentBase struct {
	name          string
	componentType string
	cuid          int
	nestingLevel  int
	deviceFlag    bool
	parent        *Device
	sim           *Simulation
	pins          []Pin
	queued        bool
	monitor       bool
}

func (c *componentBase) Name() string { return c.name }

func (c *componentBase) FullName() string {
	if c.parent == nil {
		return c.name
	}
	return c.parent.FullName() + ":" + c.name
}

func (c *componentBase) IsDevice() bool           { return c.deviceFlag }
func (c *componentBase) ComponentType() string    { return c.componentType }
func (c *componentBase) NestingLevel() int        { return c.nestingLevel }
func (c *componentBase) ParentDevice() *Device    { return c.parent }
func (c *componentBase) TopLevelSim() *Simulation { return c.sim }
func (c *componentBase) CUID() int                { return c.cuid }

func (c *componentBase) PinExists(name string) bool {
	for i := range c.pins {
		if c.pins[i].Name == name {
			return true
		}
	}
	return false
}

// PinPortIndex returns the port index of the named pin, or 0 if absent;
// callers are expected to have checked PinExists first.
func (c *componentBase) PinPortIndex(name string) int {
	for i := range c.pins {
		if c.pins[i].Name == name {
			return i
		}
	}
	return 0
}

func (c *componentBase) PinType(portIndex int) PinType    { return c.pins[portIndex].Type }
func (c *componentBase) PinTypeByName(name string) PinType { return c.PinType(c.PinPortIndex(name)) }
func (c *componentBase) PinState(portIndex int) bool       { return c.pins[portIndex].State }
func (c *componentBase) PinName(portIndex int) string      { return c.pins[portIndex].Name }
func (c *componentBase) PinDriven(portIndex int) Driven    { return c.pins[portIndex].Driven }
func (c *componentBase) PinCount() int                     { return len(c.pins) }

func (c *componentBase) SetPinDrivenFlag(portIndex int, dir DriveDirection, state bool) {
	if dir == DriveIn {
		c.pins[portIndex].Driven.In = state
	} else {
		c.pins[portIndex].Driven.Out = state
	}
}

func (c *componentBase) SortedInPinNames() []string {
	var names []string
	for _, p := range c.pins {
		if p.Type == PinIn || p.Type == PinHiddenIn {
			names = append(names, p.Name)
		}
	}
	sort.Sort(byNaturalOrder(names))
	return names
}

func (c *componentBase) SortedOutPinNames() []string {
	var names []string
	for _, p := range c.pins {
		if p.Type == PinOut || p.Type == PinHiddenOut {
			names = append(names, p.Name)
		}
	}
	sort.Sort(byNaturalOrder(names))
	return names
}
