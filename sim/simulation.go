package sim

import (
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/golsim/lsim/workerpool"
)

// Simulation is a Device that is also the top of the component tree. It
// additionally owns Clocks, Probes, SpecialDevices, the global tick
// counter, the build/runtime error and message logs, and (optionally) a
// worker pool for threaded solves.
type Simulation struct {
	Device

	clocks     map[string]*Clock
	clockOrder []string
	probes     map[string]*Probe

	specialDevices []SpecialDevice

	logMu       sync.Mutex
	errorsLog   []string
	messagesLog []string
	logger      *log.Logger

	globalTick int
	nextCUID   int
	running    bool
	searching  bool

	useThreadedSolver         bool
	threadedSolveNestingLevel int
	pool                      *workerpool.Pool
}

// NewSimulation constructs the top-level Device of a circuit. cfg selects
// the optional threaded-solve nesting level; maxPropagations is this
// device's own convergence budget (nested devices set their own via
// NewDevice).
func NewSimulation(name string, cfg SolverConfig, maxPropagations int) *Simulation {
	s := &Simulation{
		clocks: make(map[string]*Clock),
		probes: make(map[string]*Probe),
		logger: log.New(os.Stdout, "", 0),
	}
	s.Device.deviceFlag = true
	s.Device.name = name
	s.Device.componentType = "simulation"
	s.Device.sim = s
	s.Device.parent = nil
	s.Device.nestingLevel = 0
	s.useThreadedSolver = cfg.ThreadedSolve
	s.threadedSolveNestingLevel = cfg.NestingLevel
	if maxPropagations <= 0 {
		maxPropagations = DefaultMaxPropagations
	}
	s.Device.maxPropagations = maxPropagations
	s.Device.cuid = s.newCUID()

	s.Device.createInPins(nil, nil)
	s.Device.createHiddenInPins()
	s.Device.createOutPins(nil)
	s.Device.createHiddenOutPins()
	s.Device.ports = make([][]connection, len(s.Device.pins))

	if cfg.ThreadedSolve {
		s.pool = workerpool.New(0)
		if cfg.NestingLevel == s.Device.nestingLevel {
			s.Device.solveChildrenInOwnThreads = true
		}
	}
	return s
}

// Build wires the top-level circuit via fn (the Go equivalent of
// overriding Build() on the top-most constructed device) and then
// Stabilises it.
func (s *Simulation) Build(fn BuildFunc) error {
	var err error
	if fn != nil {
		err = fn(&s.Device)
	}
	s.Stabilise()
	return err
}

func (s *Simulation) newCUID() int {
	s.nextCUID++
	return s.nextCUID
}

func (s *Simulation) logError(msg string) {
	s.logMu.Lock()
	s.errorsLog = append(s.errorsLog, msg)
	s.logMu.Unlock()
}

func (s *Simulation) logMessage(msg string) {
	s.logMu.Lock()
	s.messagesLog = append(s.messagesLog, msg)
	s.logMu.Unlock()
}

// buildError logs msg to the error log and also returns it as a Go error,
// so callers that want fail-fast construction can check the return value
// directly instead of reading the log afterward.
func (s *Simulation) buildError(msg string) error {
	s.logError(msg)
	return errors.New(msg)
}

func (s *Simulation) raiseAllStop(deviceName string) {
	s.logError((&AllStopError{Device: deviceName}).Error())
}

// ErrorLog returns a copy of the accumulated build/runtime error messages.
func (s *Simulation) ErrorLog() []string {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	return append([]string(nil), s.errorsLog...)
}

// MessageLog returns a copy of the accumulated informational messages not
// yet drained by PrintAndClearMessages.
func (s *Simulation) MessageLog() []string {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	return append([]string(nil), s.messagesLog...)
}

// PrintAndClearMessages writes every pending message to the simulation's
// logger and clears the message log.
func (s *Simulation) PrintAndClearMessages() {
	s.logMu.Lock()
	msgs := s.messagesLog
	s.messagesLog = nil
	s.logMu.Unlock()
	for _, m := range msgs {
		s.logger.Println(m)
	}
}

// PrintErrorMessages writes every accumulated error to the simulation's
// logger without clearing the log.
func (s *Simulation) PrintErrorMessages() {
	s.logMu.Lock()
	errs := append([]string(nil), s.errorsLog...)
	s.logMu.Unlock()
	for _, e := range errs {
		s.logger.Println("error:", e)
	}
}

// AddClock registers a new named Clock driven by the given toggle
// pattern.
func (s *Simulation) AddClock(name string, pattern []bool, monitor bool) (*Clock, error) {
	if _, exists := s.clocks[name]; exists {
		return nil, s.buildError(fmt.Sprintf("simulation tried to add clock %s but a clock with that name already exists.", name))
	}
	if len(pattern) == 0 {
		return nil, s.buildError(fmt.Sprintf("clock %s added with an empty toggle pattern.", name))
	}
	c := newClock(s, name, pattern)
	s.clocks[name] = c
	s.clockOrder = append(s.clockOrder, name)
	return c, nil
}

// ClockConnect drives the named component's pin from the named clock.
// componentFullName is the colon-joined full name as returned by
// Component.FullName.
func (s *Simulation) ClockConnect(clockName, componentFullName, pinName string) error {
	c, ok := s.clocks[clockName]
	if !ok {
		return s.buildError(fmt.Sprintf("simulation tried to connect clock %s but it does not exist.", clockName))
	}
	target := s.SearchForComponentPointer(componentFullName)
	if target == nil {
		return s.buildError(fmt.Sprintf("simulation tried to connect clock %s to component %s but it does not exist.", clockName, componentFullName))
	}
	return c.Connect(target, pinName)
}

// AddProbe registers a Probe over the named pins of the named component,
// triggered by the named clock.
func (s *Simulation) AddProbe(name, fullComponentName string, pinNames []string, triggerClockName string, cfg ProbeConfig) (*Probe, error) {
	if _, exists := s.probes[name]; exists {
		return nil, s.buildError(fmt.Sprintf("simulation tried to add probe %s but a probe with that name already exists.", name))
	}
	target := s.SearchForComponentPointer(fullComponentName)
	if target == nil {
		return nil, s.buildError(fmt.Sprintf("simulation tried to add probe %s on component %s but it does not exist.", name, fullComponentName))
	}
	for _, pn := range pinNames {
		if !target.PinExists(pn) {
			return nil, s.buildError(fmt.Sprintf("simulation tried to add probe %s on component %s pin %s but it does not exist.", name, fullComponentName, pn))
		}
	}
	clock, ok := s.clocks[triggerClockName]
	if !ok {
		return nil, s.buildError(fmt.Sprintf("simulation tried to add probe %s with trigger clock %s but it does not exist.", name, triggerClockName))
	}
	p := newProbe(name, target, pinNames, clock, cfg)
	s.probes[name] = p
	return p, nil
}

// Probe returns a previously added probe by name, or nil.
func (s *Simulation) Probe(name string) *Probe { return s.probes[name] }

// Clock returns a previously added clock by name, or nil.
func (s *Simulation) Clock(name string) *Clock { return s.clocks[name] }

// AddSpecialDevice registers sd to receive an Update call once per
// simulation tick, before any Clock ticks.
func (s *Simulation) AddSpecialDevice(sd SpecialDevice) {
	s.specialDevices = append(s.specialDevices, sd)
}

// GlobalTickIndex returns the number of ticks completed since the last
// Reset.
func (s *Simulation) GlobalTickIndex() int { return s.globalTick }

// IsRunning reports whether a call to Run is currently looping.
func (s *Simulation) IsRunning() bool { return s.running }

// SearchForComponentPointer performs a depth-first search of the
// component tree for the component whose FullName matches, guarded by the
// searching_flag-style reentrancy guard also used by Reset, so a search
// triggered from within another tree traversal is still well-defined.
func (s *Simulation) SearchForComponentPointer(fullName string) Component {
	alreadySearching := s.searching
	if !alreadySearching {
		s.searching = true
		defer func() { s.searching = false }()
	}
	if s.Device.FullName() == fullName {
		return &s.Device
	}
	return searchChildren(s.Device.children, fullName)
}

func searchChildren(children []Component, fullName string) Component {
	for _, c := range children {
		if c.FullName() == fullName {
			return c
		}
		if d, ok := c.(*Device); ok {
			if found := searchChildren(d.children, fullName); found != nil {
				return found
			}
		}
	}
	return nil
}

// Reset reinitialises the whole component tree and every clock/probe,
// redriving random gate inputs and zeroing the global tick index. It is
// reentrant: Gate/Device.Reset calls redirect here the first time any
// component in the tree is reset.
func (s *Simulation) Reset() {
	s.searching = true
	defer func() { s.searching = false }()

	s.globalTick = 0
	s.Device.resetOwnPins()
	for _, c := range s.Device.children {
		c.Reset()
	}
	s.Device.Stabilise()
	for _, name := range s.clockOrder {
		s.clocks[name].Reset()
	}
}

// CheckProbeTriggers samples every Probe attached to a Clock whose
// ticked_flag is set, then clears the flag. Called once at the end of
// each top-level Solve.
func (s *Simulation) CheckProbeTriggers() {
	for _, name := range s.clockOrder {
		c := s.clocks[name]
		if !c.tickedFlag {
			continue
		}
		for _, p := range c.probes {
			p.Sample(s.globalTick)
		}
		c.tickedFlag = false
	}
}

// Run advances the simulation up to nTicks ticks (or forever if nTicks is
// 0). restart zeroes the global tick index and resets every Clock first.
// printProbes writes every probe's recorded history to the logger at the
// end of the run. quiet discards the per-tick messages instead of printing
// them and skips the final error printout.
func (s *Simulation) Run(nTicks int, restart, printProbes, quiet bool) error {
	if len(s.ErrorLog()) > 0 {
		s.PrintErrorMessages()
		return errors.New("sim: simulation has unresolved build errors, refusing to run")
	}

	if restart {
		s.globalTick = 0
		for _, name := range s.clockOrder {
			s.clocks[name].Reset()
		}
	} else {
		s.logMessage("simulation restarted.")
	}

	if nTicks > 0 {
		for _, name := range s.clockOrder {
			for _, p := range s.clocks[name].probes {
				p.PreallocateSampleMemory(nTicks)
			}
		}
	}

	releaseTerm, err := s.acquireRawTerminal()
	if err != nil {
		return errors.Wrap(err, "sim: acquiring raw terminal mode")
	}
	defer releaseTerm()

	s.running = true
	defer func() { s.running = false }()

	tickCount := 0
	for nTicks == 0 || tickCount < nTicks {
		for _, sd := range s.specialDevices {
			if err := sd.Update(); err != nil {
				s.logError(err.Error())
			}
		}
		for _, name := range s.clockOrder {
			s.clocks[name].Tick()
		}
		if err := s.Solve(); err != nil {
			s.logError(err.Error())
		}

		if !quiet {
			s.PrintAndClearMessages()
		} else {
			s.logMu.Lock()
			s.messagesLog = nil
			s.logMu.Unlock()
		}

		if len(s.ErrorLog()) > 0 {
			break
		}
		if tickCount%1000 == 0 && s.checkForQuit() {
			break
		}

		s.globalTick++
		tickCount++
	}

	if printProbes {
		names := make([]string, 0, len(s.probes))
		for n := range s.probes {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			s.logger.Printf("probe %s:\n%s\n", n, s.probes[n].PrintSamples())
		}
	}
	if !quiet {
		s.PrintErrorMessages()
	}
	return nil
}

// acquireRawTerminal puts stdin into raw, non-blocking mode when it is a
// terminal, returning a release function that restores the prior state.
// When stdin is not a terminal (the common case under test or when piped)
// it is a no-op, so Run never blocks waiting on keyboard input.
func (s *Simulation) acquireRawTerminal() (func(), error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return func() {}, nil
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return func() {}, err
	}
	_ = syscall.SetNonblock(fd, true)
	return func() {
		_ = syscall.SetNonblock(fd, false)
		_ = term.Restore(fd, oldState)
	}, nil
}

func (s *Simulation) checkForQuit() bool {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return false
	}
	buf := make([]byte, 1)
	n, err := syscall.Read(fd, buf)
	if err != nil || n <= 0 {
		return false
	}
	return buf[0] == 'q'
}
