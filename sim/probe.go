package sim

// ProbeConfig controls how a Probe's recorded history is rendered by
// PrintSamples: how many samples share a printed row, and the glyphs used
// for low/high bits.
type ProbeConfig struct {
	SamplesPerRow int
	LowChar       byte
	HighChar      byte
}

// DefaultProbeConfig matches the reference design's default: one sample
// per row, 'F'/'T' glyphs.
func DefaultProbeConfig() ProbeConfig {
	return ProbeConfig{SamplesPerRow: 1, LowChar: 'F', HighChar: 'T'}
}

// Probe samples a fixed subset of one Component's pins every time its
// trigger Clock ticks, keeping a time-indexed history.
type Probe struct {
	name       string
	target     Component
	pinIndices []int
	pinNames   []string
	clock      *Clock
	config     ProbeConfig

	samples    [][]bool
	timestamps []int
}

func newProbe(name string, target Component, pinNames []string, clock *Clock, cfg ProbeConfig) *Probe {
	p := &Probe{
		name:     name,
		target:   target,
		pinNames: append([]string(nil), pinNames...),
		clock:    clock,
		config:   cfg,
	}
	for _, n := range pinNames {
		p.pinIndices = append(p.pinIndices, target.PinPortIndex(n))
	}
	clock.addProbe(p)
	return p
}

// Name returns the probe's registered name.
func (p *Probe) Name() string { return p.name }

// PreallocateSampleMemory reserves capacity for n upcoming samples, the Go
// equivalent of the reference design's PreallocateSampleMemory.
func (p *Probe) PreallocateSampleMemory(n int) {
	if cap(p.samples) < n {
		grown := make([][]bool, len(p.samples), n)
		copy(grown, p.samples)
		p.samples = grown
	}
	if cap(p.timestamps) < n {
		grown := make([]int, len(p.timestamps), n)
		copy(grown, p.timestamps)
		p.timestamps = grown
	}
}

// Sample snapshots the current state of every target pin and appends it,
// tagged with the given simulation tick.
func (p *Probe) Sample(timestamp int) {
	row := make([]bool, len(p.pinIndices))
	for i, idx := range p.pinIndices {
		row[i] = p.target.PinState(idx)
	}
	p.samples = append(p.samples, row)
	p.timestamps = append(p.timestamps, timestamp)
}

// Reset clears this probe's recorded history.
func (p *Probe) Reset() {
	p.samples = nil
	p.timestamps = nil
}

// Samples returns the recorded sample rows in trigger order, one row per
// tick the trigger clock ticked, each row ordered per the probe's
// construction pin list.
func (p *Probe) Samples() [][]bool { return p.samples }

// Timestamps returns the simulation tick recorded alongside each sample
// row.
func (p *Probe) Timestamps() []int { return p.timestamps }

// PrintSamples renders the recorded history as a row-wrapped table using
// the probe's configured low/high glyphs, one column per probed pin.
func (p *Probe) PrintSamples() string {
	perRow := p.config.SamplesPerRow
	if perRow <= 0 {
		perRow = 1
	}
	var out []byte
	for i, row := range p.samples {
		if i > 0 && i%perRow == 0 {
			out = append(out, '\n')
		}
		for _, bit := range row {
			if bit {
				out = append(out, p.config.HighChar)
			} else {
				out = append(out, p.config.LowChar)
			}
		}
		out = append(out, ' ')
	}
	return string(out)
}
