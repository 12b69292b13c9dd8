package fixtures

import (
	"fmt"

	"github.com/golsim/lsim/sim"
)

// NewRippleCounter builds a width-bit asynchronous ripple counter as a
// child Device of parent: inputs "clk" and "run", outputs "q0".."q{width-1}"
// (q0 is the least-significant bit) and their complements "qn0".."qn{width-1}".
// Each stage is a NewJKFlipFlop with j and k tied permanently high (via the
// hidden "true" pin every Device carries), so each stage toggles once per
// clock cycle it receives; an AND gate gates "run" into every stage's clock,
// and each stage after the first is clocked by the previous stage's q, the
// classic ripple-carry wiring. Every stage's qn is carried out to the
// counter's own boundary alongside q: a nested Device's output pin must
// drive something past its own boundary, and a bit a caller has no use for
// is still wired out rather than left dangling.
func NewRippleCounter(parent *sim.Device, name string, width int, monitor bool) (*sim.Device, error) {
	var firstErr error
	note := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	qPins := make([]string, width)
	qnPins := make([]string, width)
	for i := range qPins {
		qPins[i] = fmt.Sprintf("q%d", i)
		qnPins[i] = fmt.Sprintf("qn%d", i)
	}
	outPins := append(append([]string{}, qPins...), qnPins...)

	d, err := sim.NewDevice(parent, nil, name, "ripple_counter",
		[]string{"clk", "run"}, outPins, nil, monitor, 0,
		func(d *sim.Device) error {
			stages := make([]*sim.Device, width)
			for i := 0; i < width; i++ {
				clkInputName := "clk"
				if i > 0 {
					clkInputName = "clk_in"
				}
				andGate := d.AddGate(fmt.Sprintf("and_%d", i), sim.GateAnd, []string{clkInputName, "run"}, false)
				note(d.ConnectPin("run", andGate.Name(), "run"))
				if i == 0 {
					note(d.ConnectPin("clk", andGate.Name(), "clk"))
				} else {
					note(stages[i-1].ConnectPin("q", andGate.Name(), "clk_in"))
				}

				stage, err := NewJKFlipFlop(d, fmt.Sprintf("jk_%d", i), false)
				note(err)
				d.AddComponent(stage)
				stages[i] = stage

				note(d.ConnectPin("true", stage.Name(), "j"))
				note(d.ConnectPin("true", stage.Name(), "k"))
				note(andGate.Connect([]string{stage.Name(), "clk"}))
				note(stage.ConnectPin("q", "parent", qPins[i]))
				note(stage.ConnectPin("qn", "parent", qnPins[i]))
			}
			return firstErr
		})
	if err != nil {
		return d, err
	}
	return d, firstErr
}
