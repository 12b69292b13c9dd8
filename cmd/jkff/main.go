// jkff builds the master-slave JK flip-flop from spec.md's worked S2
// scenario, holds j and k high (toggle mode), clocks it for a fixed
// number of ticks and prints the probed q waveform.
package main

import (
	"flag"
	"log"

	"github.com/golsim/lsim/internal/fixtures"
	"github.com/golsim/lsim/sim"
)

var (
	ticks   = flag.Int("ticks", 16, "number of simulation ticks to run")
	monitor = flag.Bool("monitor", false, "enable monitor logging on the flip-flop device")
)

func main() {
	flag.Parse()

	s := sim.NewSimulation("top", sim.SolverConfig{}, 0)
	err := s.Build(func(d *sim.Device) error {
		ff, err := fixtures.NewJKFlipFlop(d, "ff", *monitor)
		if err != nil {
			return err
		}
		d.AddComponent(ff)
		return nil
	})
	if err != nil || len(s.ErrorLog()) != 0 {
		log.Fatalf("build failed: err=%v log=%v", err, s.ErrorLog())
	}

	if err := s.ChildSet("ff", "j", true); err != nil {
		log.Fatalf("ChildSet(j): %v", err)
	}
	if err := s.ChildSet("ff", "k", true); err != nil {
		log.Fatalf("ChildSet(k): %v", err)
	}

	if _, err := s.AddClock("clk", []bool{false, true}, false); err != nil {
		log.Fatalf("AddClock: %v", err)
	}
	if err := s.ClockConnect("clk", "top:ff", "clk"); err != nil {
		log.Fatalf("ClockConnect: %v", err)
	}
	if _, err := s.AddProbe("q", "top:ff", []string{"q", "qn"}, "clk", sim.DefaultProbeConfig()); err != nil {
		log.Fatalf("AddProbe: %v", err)
	}

	if err := s.Run(*ticks, false, true, true); err != nil {
		log.Fatalf("Run: %v", err)
	}
	if errs := s.ErrorLog(); len(errs) != 0 {
		log.Fatalf("runtime errors: %v", errs)
	}
}
