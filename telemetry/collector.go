package telemetry

import (
	"math"

	"github.com/pthm-cable/drape/cloth"
)

// Collector accumulates per-frame cloth statistics and produces WindowStats.
type Collector struct {
	windowDurationTicks int32
	dt                  float64

	windowStartTick int32

	frames       int
	substeps     int
	contacts     int
	selfContacts int
	bodies       int
	particles    int
	fixed        int
	maxStretch   float64
	stretchSum   float64
	maxSpeed     float64
	lowestY      float64
	energies     []float64
}

// NewCollector creates a collector with windows of windowDurationSec, given
// dt seconds per tick.
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticks := int32(windowDurationSec/dt + 1e-9)
	if ticks < 1 {
		ticks = 1
	}
	c := &Collector{windowDurationTicks: ticks, dt: dt}
	c.reset(0)
	return c
}

func (c *Collector) reset(tick int32) {
	c.windowStartTick = tick
	c.frames = 0
	c.substeps = 0
	c.contacts = 0
	c.selfContacts = 0
	c.maxStretch = 0
	c.stretchSum = 0
	c.maxSpeed = 0
	c.lowestY = math.Inf(1)
	c.energies = c.energies[:0]
}

// Record adds one frame. Each element is the Stats of one body that stepped
// during the frame; a call with no bodies is ignored.
func (c *Collector) Record(bodies ...cloth.Stats) {
	if len(bodies) == 0 {
		return
	}
	var energy, stretch float64
	var particles, fixed int
	for _, st := range bodies {
		c.substeps += st.Substeps
		c.contacts += st.Contacts
		c.selfContacts += st.SelfContacts
		c.maxStretch = math.Max(c.maxStretch, st.MaxStretch)
		c.maxSpeed = math.Max(c.maxSpeed, st.MaxSpeed)
		if st.ParticleCount > 0 {
			c.lowestY = math.Min(c.lowestY, st.LowestY)
		}
		stretch += st.MeanStretch
		energy += st.KineticEnergy
		particles += st.ParticleCount
		fixed += st.FixedCount
	}
	c.frames++
	c.stretchSum += stretch / float64(len(bodies))
	c.energies = append(c.energies, energy)
	c.bodies = len(bodies)
	c.particles = particles
	c.fixed = fixed
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces the stats for the window ending at currentTick and starts
// the next one.
func (c *Collector) Flush(currentTick int32) WindowStats {
	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,
		Frames:          c.frames,
		Substeps:        c.substeps,
		Contacts:        c.contacts,
		SelfContacts:    c.selfContacts,
		Bodies:          c.bodies,
		Particles:       c.particles,
		Fixed:           c.fixed,
		MaxStretch:      c.maxStretch,
		MaxSpeed:        c.maxSpeed,
	}
	if c.frames > 0 {
		stats.MeanSubsteps = float64(c.substeps) / float64(c.frames)
		stats.MeanStretch = c.stretchSum / float64(c.frames)
		stats.LowestY = c.lowestY
		stats.EnergyLast = c.energies[len(c.energies)-1]
	}
	stats.EnergyMean, stats.EnergyP10, stats.EnergyP50, stats.EnergyP90 = Summarize(c.energies)

	c.reset(currentTick)
	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
