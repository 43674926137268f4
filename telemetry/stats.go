package telemetry

import (
	"log/slog"
	"sort"
)

// WindowStats aggregates cloth statistics over one stats window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	Frames       int     `csv:"frames"`       // Frames that ran at least one substep
	Substeps     int     `csv:"substeps"`     // Substeps summed over frames and bodies
	MeanSubsteps float64 `csv:"mean_substeps"` // Per frame
	Contacts     int     `csv:"contacts"`
	SelfContacts int     `csv:"self_contacts"`

	Bodies    int `csv:"bodies"`
	Particles int `csv:"particles"`
	Fixed     int `csv:"fixed"`

	MaxStretch  float64 `csv:"max_stretch"`
	MeanStretch float64 `csv:"mean_stretch"`
	MaxSpeed    float64 `csv:"max_speed"`
	LowestY     float64 `csv:"lowest_y"`

	// Kinetic energy of all bodies, sampled per frame
	EnergyMean float64 `csv:"energy_mean"`
	EnergyP10  float64 `csv:"energy_p10"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`
	EnergyLast float64 `csv:"energy_last"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Summarize returns the mean and the 10th, 50th and 90th percentiles.
func Summarize(values []float64) (mean, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(n)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	return mean, Percentile(sorted, 0.10), Percentile(sorted, 0.50), Percentile(sorted, 0.90)
}

// LogValue implements slog.LogValuer.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("frames", s.Frames),
		slog.Int("substeps", s.Substeps),
		slog.Float64("mean_substeps", s.MeanSubsteps),
		slog.Int("contacts", s.Contacts),
		slog.Int("self_contacts", s.SelfContacts),
		slog.Int("bodies", s.Bodies),
		slog.Int("particles", s.Particles),
		slog.Int("fixed", s.Fixed),
		slog.Float64("max_stretch", s.MaxStretch),
		slog.Float64("mean_stretch", s.MeanStretch),
		slog.Float64("max_speed", s.MaxSpeed),
		slog.Float64("lowest_y", s.LowestY),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Float64("energy_p10", s.EnergyP10),
		slog.Float64("energy_p50", s.EnergyP50),
		slog.Float64("energy_p90", s.EnergyP90),
	)
}

// LogStats logs the window at info level.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"frames", s.Frames,
		"mean_substeps", s.MeanSubsteps,
		"contacts", s.Contacts,
		"self_contacts", s.SelfContacts,
		"max_stretch", s.MaxStretch,
		"mean_stretch", s.MeanStretch,
		"max_speed", s.MaxSpeed,
		"lowest_y", s.LowestY,
		"energy_mean", s.EnergyMean,
		"energy_p90", s.EnergyP90,
	)
}
