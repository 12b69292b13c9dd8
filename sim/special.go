package sim

// SpecialDevice is the interface implemented by a Device subclass that
// bypasses the ordinary gate-level solver, such as RAM, ROM, or a UART:
// anything whose outputs are computed some way other than propagating
// gate-level pin states. Update is called once per simulation tick,
// before any Clock ticks, so asynchronous inputs (a completed read, a
// byte arriving on a serial line) land before Solve runs. Solve is
// invoked through the normal Device solve path: once attached, the host
// Device's Solve delegates to it entirely.
type SpecialDevice interface {
	Update() error
	Solve() error
}

// AttachSpecialDevice marks host as backed by a special device: from this
// point, host.Solve() delegates entirely to sd instead of running the
// ordinary fixed-point loop over host's children.
func AttachSpecialDevice(host *Device, sd SpecialDevice) {
	host.special = sd
}
