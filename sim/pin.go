package sim

// PinType classifies a pin's direction and visibility, matching the four
// kinds a Gate or Device pin can be.
type PinType int

const (
	// PinIn is an ordinary input pin, driven by a parent Device or a
	// sibling's output.
	PinIn PinType = iota
	// PinHiddenIn is a Device-level input that is not user-wired: every
	// Device carries "true" and "false" hidden inputs, tied off at
	// construction, used internally by composite Build functions that
	// need a constant.
	PinHiddenIn
	// PinOut is an ordinary output pin.
	PinOut
	// PinHiddenOut is a Device-level output that can be set but never
	// connected onward: every Device carries an "all_stop" hidden output
	// used to halt the simulation.
	PinHiddenOut
)

func (t PinType) String() string {
	switch t {
	case PinIn:
		return "in"
	case PinHiddenIn:
		return "hidden_in"
	case PinOut:
		return "out"
	case PinHiddenOut:
		return "hidden_out"
	default:
		return "unknown"
	}
}

// DriveDirection selects which half of a Driven pair an operation acts on.
type DriveDirection int

const (
	// DriveIn marks whether a pin is driven as a connection target.
	DriveIn DriveDirection = iota
	// DriveOut marks whether a pin drives at least one connection.
	DriveOut
)

// Driven records whether a pin is currently being driven as a connection
// target (In) and/or itself drives at least one connection (Out).
type Driven struct {
	In  bool
	Out bool
}

// Pin is one named terminal of a Gate or Device: its type, current state,
// pending-propagation flag, and drive bookkeeping.
type Pin struct {
	Name      string
	Type      PinType
	State     bool
	Changed   bool
	PortIndex int
	Driven    Driven
}
