package sim

import (
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
)

func newTestSim(t *testing.T) *Simulation {
	t.Helper()
	return NewSimulation("test", SolverConfig{}, 0)
}

func TestNandCrossCoupledLatch(t *testing.T) {
	s := newTestSim(t)
	err := s.Build(func(d *Device) error {
		d.AddGate("nand_a", GateNand, []string{"input_0", "input_1"}, false)
		d.AddGate("nand_b", GateNand, []string{"input_0", "input_1"}, false)
		// input_0 on each gate is the active-low S/R drive line: tied to
		// the top device's hidden "true" pin (its idle level) so
		// ReportUnConnectedPins sees it as driven, then pulsed low and back
		// directly below the way a test harness bypasses ordinary wiring
		// to poke a signal onto an already-wired pin.
		if err := d.ConnectPin("true", "nand_a", "input_0"); err != nil {
			return err
		}
		if err := d.ConnectPin("true", "nand_b", "input_0"); err != nil {
			return err
		}
		if err := d.ChildConnect("nand_a", []string{"nand_b", "input_1"}); err != nil {
			return err
		}
		return d.ChildConnect("nand_b", []string{"nand_a", "input_1"})
	})
	if err != nil {
		t.Fatalf("build: %v\n%s", err, spew.Sdump(s))
	}
	if len(s.ErrorLog()) != 0 {
		t.Fatalf("unexpected build errors: %v", s.ErrorLog())
	}

	a := s.Device.ChildComponent("nand_a").(*Gate)
	b := s.Device.ChildComponent("nand_b").(*Gate)

	a.Set(0, false)
	_ = s.Solve()
	a.Set(0, true)
	_ = s.Solve()
	if !a.pins[a.outPortIndex].State || b.pins[b.outPortIndex].State {
		t.Fatalf("after S pulse expected (true,false), got (%v,%v)\n%s", a.pins[a.outPortIndex].State, b.pins[b.outPortIndex].State, spew.Sdump(s))
	}

	b.Set(0, false)
	_ = s.Solve()
	b.Set(0, true)
	_ = s.Solve()
	if a.pins[a.outPortIndex].State || !b.pins[b.outPortIndex].State {
		t.Fatalf("after R pulse expected (false,true), got (%v,%v)", a.pins[a.outPortIndex].State, b.pins[b.outPortIndex].State)
	}
}

func TestGateNotEnoughInputsLogsError(t *testing.T) {
	s := newTestSim(t)
	_ = s.Build(func(d *Device) error {
		d.AddGate("and_0", GateAnd, []string{"input_0"}, false)
		return nil
	})
	found := false
	for _, e := range s.ErrorLog() {
		if strings.Contains(e, "added with only 1 in pins specified") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a not-enough-inputs build error, got none")
	}
}

func TestGateInputPinsSortedNaturally(t *testing.T) {
	s := newTestSim(t)
	var g *Gate
	_ = s.Build(func(d *Device) error {
		g = d.AddGate("and_0", GateAnd, []string{"input_10", "input_2", "input_1"}, false)
		return nil
	})
	want := []string{"input_1", "input_2", "input_10"}
	for i, name := range want {
		if g.pins[i].Name != name {
			t.Fatalf("pin %d: want %s, got %s", i, name, g.pins[i].Name)
		}
	}
}

func TestUnconnectedPinsReported(t *testing.T) {
	s := newTestSim(t)
	_ = s.Build(func(d *Device) error {
		d.AddGate("and_0", GateAnd, []string{"input_0", "input_1"}, false)
		return nil
	})
	errs := s.ErrorLog()
	wantSubstrings := []string{"input_0 is not driven", "input_1 is not driven"}
	for _, want := range wantSubstrings {
		found := false
		for _, e := range errs {
			if strings.Contains(e, want) {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected an error containing %q, got %v", want, errs)
		}
	}
}
