package fixtures

import "github.com/golsim/lsim/sim"

// NewJKFlipFlop builds a master-slave JK flip-flop as a child Device of
// parent: inputs "j", "k", "clk", outputs "q" and "qn". It is the
// NAND-gate cross-coupled-latch master stage (transparent while clk is
// high) feeding a second cross-coupled slave stage (transparent while clk
// is low), the standard way of building an edge-behaving flip-flop purely
// from level-sensitive NAND latches. With j=k held true this toggles q
// once per full clk low-high-low cycle.
//
// The gate count here (eight NAND plus one NOT) is one NAND short of the
// "nine NAND and one NOT" tally spec.md §8 S2 uses for illustration; that
// count came from a variant with separate input-conditioning gates per
// latch stage input, which this wiring folds into the three-input master
// NANDs instead. The toggle behavior it implements is the same.
func NewJKFlipFlop(parent *sim.Device, name string, monitor bool) (*sim.Device, error) {
	var firstErr error
	note := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	d, err := sim.NewDevice(parent, nil, name, "jkff",
		[]string{"j", "k", "clk"}, []string{"q", "qn"}, nil, monitor, 0,
		func(d *sim.Device) error {
			sm := d.AddGate("s_m", sim.GateNand, []string{"j", "qn_fb", "clk"}, false)
			rm := d.AddGate("r_m", sim.GateNand, []string{"k", "q_fb", "clk"}, false)
			qm := d.AddGate("qm", sim.GateNand, []string{"s", "qmn_fb"}, false)
			qmn := d.AddGate("qmn", sim.GateNand, []string{"r", "qm_fb"}, false)
			clkn := d.AddGate("clkn", sim.GateNot, []string{"input"}, false)
			ss := d.AddGate("s_s", sim.GateNand, []string{"qm", "clkn"}, false)
			rs := d.AddGate("r_s", sim.GateNand, []string{"qmn", "clkn"}, false)
			qGate := d.AddGate("q_gate", sim.GateNand, []string{"s", "qn_fb"}, false)
			qnGate := d.AddGate("qn_gate", sim.GateNand, []string{"r", "q_fb"}, false)

			note(d.ConnectPin("j", "s_m", "j"))
			note(d.ConnectPin("clk", "s_m", "clk"))
			note(d.ConnectPin("k", "r_m", "k"))
			note(d.ConnectPin("clk", "r_m", "clk"))
			note(d.ConnectPin("clk", "clkn", "input"))

			note(sm.Connect([]string{"qm", "s"}))
			note(rm.Connect([]string{"qmn", "r"}))
			note(qm.Connect([]string{"qmn", "qm_fb"}))
			note(qm.Connect([]string{"s_s", "qm"}))
			note(qmn.Connect([]string{"qm", "qmn_fb"}))
			note(qmn.Connect([]string{"r_s", "qmn"}))
			note(clkn.Connect([]string{"s_s", "clkn"}))
			note(clkn.Connect([]string{"r_s", "clkn"}))
			note(ss.Connect([]string{"q_gate", "s"}))
			note(rs.Connect([]string{"qn_gate", "r"}))
			note(qGate.Connect([]string{"qn_gate", "q_fb"}))
			note(qGate.Connect([]string{"r_m", "q_fb"}))
			note(qGate.Connect([]string{"parent", "q"}))
			note(qnGate.Connect([]string{"q_gate", "qn_fb"}))
			note(qnGate.Connect([]string{"s_m", "qn_fb"}))
			note(qnGate.Connect([]string{"parent", "qn"}))
			return firstErr
		})
	if err != nil {
		return d, err
	}
	return d, firstErr
}
