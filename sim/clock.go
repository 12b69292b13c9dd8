package sim

import "fmt"

// Clock is a periodic boolean waveform source. Simulation.Run ticks every
// registered Clock once per simulation tick, advancing it through its
// toggle pattern and driving every connected target pin, then notifies
// attached Probes.
type Clock struct {
	name          string
	sim           *Simulation
	togglePattern []bool
	subIndex      int
	index         int
	state         bool
	connections   []connection
	probes        []*Probe
	tickedFlag    bool
}

func newClock(sim *Simulation, name string, pattern []bool) *Clock {
	c := &Clock{name: name, sim: sim, togglePattern: append([]bool(nil), pattern...)}
	if len(c.togglePattern) > 0 {
		c.state = c.togglePattern[0]
	}
	return c
}

// Name returns the clock's registered name.
func (c *Clock) Name() string { return c.name }

// State returns the clock's current output level.
func (c *Clock) State() bool { return c.state }

// Connect drives a target Component's IN pin from this clock's output.
func (c *Clock) Connect(target Component, pinName string) error {
	if !target.PinExists(pinName) {
		return c.sim.buildError(fmt.Sprintf("clock %s tried to connect to %s pin %s but it does not exist.", c.name, target.FullName(), pinName))
	}
	idx := target.PinPortIndex(pinName)
	if target.PinType(idx) != PinIn {
		return c.sim.buildError(fmt.Sprintf("clock %s tried to connect to %s pin %s but it is not an input pin.", c.name, target.FullName(), pinName))
	}
	if target.PinDriven(idx).In {
		return c.sim.buildError(fmt.Sprintf("clock %s tried to connect to %s pin %s but it is already driven by another pin.", c.name, target.FullName(), pinName))
	}
	c.connections = append(c.connections, connection{target: target, portIndex: idx})
	target.SetPinDrivenFlag(idx, DriveIn, true)
	return nil
}

// Tick advances the clock one step through its toggle pattern and drives
// every connected target pin with the new state.
func (c *Clock) Tick() {
	if len(c.togglePattern) == 0 {
		return
	}
	c.subIndex = (c.subIndex + 1) % len(c.togglePattern)
	c.state = c.togglePattern[c.subIndex]
	for _, conn := range c.connections {
		conn.target.Set(conn.portIndex, c.state)
	}
	c.index++
	c.tickedFlag = true
}

// Reset clears this clock's indices and every attached probe's history,
// re-driving the pattern's initial value.
func (c *Clock) Reset() {
	c.subIndex = 0
	c.index = 0
	if len(c.togglePattern) > 0 {
		c.state = c.togglePattern[0]
		for _, conn := range c.connections {
			conn.target.Set(conn.portIndex, c.state)
		}
	}
	c.tickedFlag = false
	for _, p := range c.probes {
		p.Reset()
	}
}

func (c *Clock) addProbe(p *Probe) {
	c.probes = append(c.probes, p)
}
