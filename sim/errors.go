package sim

import "fmt"

// ConvergenceError reports that a Device's Solve exceeded its configured
// max_propagations budget without reaching a fixed point (I8).
type ConvergenceError struct {
	Device          string
	MaxPropagations int
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("device %s failed to converge within %d propagations", e.Device, e.MaxPropagations)
}

// AllStopError reports that a Device asserted its all_stop HIDDEN_OUT pin,
// which halts the simulation at the end of the current tick.
type AllStopError struct {
	Device string
}

func (e *AllStopError) Error() string {
	return fmt.Sprintf("device %s ALL_STOP was asserted", e.Device)
}
