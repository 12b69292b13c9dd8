// Package fixtures builds the worked composite-device examples named in
// spec.md §8 (the NAND SR latch, the master-slave JK flip-flop, and the
// 4-bit ripple counter) out of ordinary sim.Gate/sim.Device primitives, so
// the same wiring can be reused by the root scenario suite and the cmd/*
// demo programs instead of being duplicated in both places.
package fixtures

import "github.com/golsim/lsim/sim"

// NewSRLatch builds a cross-coupled NAND SR latch as a child Device of
// parent: inputs "s" and "r", outputs "q" and "qn". The two cross-coupled
// NANDs are the pair sim.TestNandCrossCoupledLatch exercises on bare
// Gates; here each active-low NAND set/reset input is fed through a NOT
// gate, so "s" and "r" are active high. Pulsing s true-then-false sets q
// true; pulsing r true-then-false sets q false.
func NewSRLatch(parent *sim.Device, name string, monitor bool) (*sim.Device, error) {
	var firstErr error
	note := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	d, err := sim.NewDevice(parent, nil, name, "srlatch",
		[]string{"s", "r"}, []string{"q", "qn"}, nil, monitor, 0,
		func(d *sim.Device) error {
			nandA := d.AddGate("nand_a", sim.GateNand, []string{"input_0", "input_1"}, false)
			nandB := d.AddGate("nand_b", sim.GateNand, []string{"input_0", "input_1"}, false)

			notS := d.AddGate("not_s", sim.GateNot, []string{"input"}, false)
			notR := d.AddGate("not_r", sim.GateNot, []string{"input"}, false)

			note(d.ConnectPin("s", "not_s", "input"))
			note(d.ConnectPin("r", "not_r", "input"))
			note(notS.Connect([]string{"nand_a", "input_0"}))
			note(notR.Connect([]string{"nand_b", "input_0"}))
			note(nandA.Connect([]string{"nand_b", "input_1"}))
			note(nandB.Connect([]string{"nand_a", "input_1"}))
			note(nandA.Connect([]string{"parent", "q"}))
			note(nandB.Connect([]string{"parent", "qn"}))
			return firstErr
		})
	if err != nil {
		return d, err
	}
	return d, firstErr
}
