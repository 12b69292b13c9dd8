package netlist

import (
	"testing"

	"github.com/go-test/deep"
)

const srLatchYAML = `
name: top
gates:
  - name: nand_a
    kind: nand
    inputs: [input_0, input_1]
  - name: nand_b
    kind: nand
    inputs: [input_0, input_1]
connections:
  - from: "false"
    to: nand_a.input_0
  - from: "false"
    to: nand_b.input_0
  - from: nand_a
    to: nand_b.input_1
  - from: nand_b
    to: nand_a.input_1
`

func TestBuildSRLatchFromYAML(t *testing.T) {
	s, err := Build([]byte(srLatchYAML))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if errs := s.ErrorLog(); len(errs) != 0 {
		t.Fatalf("unexpected build errors: %v", errs)
	}

	a := s.ChildComponent("nand_a")
	b := s.ChildComponent("nand_b")
	if a == nil || b == nil {
		t.Fatalf("expected both gates to be registered as children of %s", s.Name())
	}

	if err := s.ChildSet("nand_a", "input_0", true); err != nil {
		t.Fatalf("ChildSet: %v", err)
	}
	if err := s.ChildSet("nand_a", "input_0", false); err != nil {
		t.Fatalf("ChildSet: %v", err)
	}
	if q := a.PinState(a.PinPortIndex("output")); !q {
		t.Fatalf("expected nand_a output high after a set pulse, got %v", q)
	}
}

const clockedYAML = `
name: top
gates:
  - name: inv
    kind: not
    inputs: [input]
clocks:
  - name: clk
    pattern: [false, true]
    drives: [inv.input]
probes:
  - name: p
    component: inv
    pins: [output]
    clock: clk
`

func TestBuildClockAndProbeFromYAML(t *testing.T) {
	s, err := Build([]byte(clockedYAML))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if errs := s.ErrorLog(); len(errs) != 0 {
		t.Fatalf("unexpected build errors: %v", errs)
	}

	if err := s.Run(4, false, false, true); err != nil {
		t.Fatalf("Run: %v", err)
	}
	samples := s.Probe("p").Samples()
	if diff := deep.Equal(samples, [][]bool{{false}, {true}, {false}, {true}}); diff != nil {
		t.Fatalf("unexpected probe samples: %v\ngot: %v", diff, samples)
	}
}

func TestBuildUnknownGateKindIsRejected(t *testing.T) {
	_, err := Build([]byte("name: top\ngates:\n  - name: g\n    kind: xor\n    inputs: [a, b]\n"))
	if err == nil {
		t.Fatal("expected an error for an unknown gate kind")
	}
}

func TestBuildMalformedYAMLIsRejected(t *testing.T) {
	_, err := Build([]byte("not: [valid"))
	if err == nil {
		t.Fatal("expected a parse error for malformed yaml")
	}
}
