// Package telemetry provides flock statistics, perf timing, bookmarks,
// snapshots and CSV output.
package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/ufo/systems"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	RunID           string  `csv:"run_id"`
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population at window end
	Pilots  int `csv:"pilots"`
	Flocks  int `csv:"flocks"`
	Mirrors int `csv:"mirrors"`

	// Decisions during window
	Decisions       int     `csv:"decisions"`
	AbsentDecisions int     `csv:"absent_decisions"`
	AbsentRate      float64 `csv:"absent_rate"`

	// Speed distribution (sampled at window end)
	SpeedMean float64 `csv:"speed_mean"`
	SpeedP10  float64 `csv:"speed_p10"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`

	// Mean distance of flock members to their flock centroid
	FlockSpread float64 `csv:"flock_spread"`

	// Pairs of agents within the encounter radius
	Encounters    int     `csv:"encounters"`
	MinSeparation float64 `csv:"min_separation"`
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

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeDistribution calculates mean and percentiles of values.
func ComputeDistribution(values []float64) (mean, p10, p50, p90 float64) {
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

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// FlockSpread returns the mean distance of flock members to their flock's
// centroid, averaged over flocks. Independent agents are ignored.
func FlockSpread(states []systems.AgentState) float64 {
	type acc struct {
		sum r3.Vec
		n   int
	}
	centroids := make(map[uint32]*acc)
	for _, s := range states {
		if s.Flock == 0 {
			continue
		}
		a := centroids[s.Flock]
		if a == nil {
			a = &acc{}
			centroids[s.Flock] = a
		}
		a.sum = r3.Add(a.sum, s.Position)
		a.n++
	}
	if len(centroids) == 0 {
		return 0
	}

	dist := make(map[uint32]float64, len(centroids))
	for _, s := range states {
		if s.Flock == 0 {
			continue
		}
		a := centroids[s.Flock]
		c := r3.Scale(1/float64(a.n), a.sum)
		dist[s.Flock] += r3.Norm(r3.Sub(s.Position, c))
	}

	var total float64
	for sn, d := range dist {
		total += d / float64(centroids[sn].n)
	}
	return total / float64(len(centroids))
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("pilots", s.Pilots),
		slog.Int("flocks", s.Flocks),
		slog.Int("mirrors", s.Mirrors),
		slog.Int("decisions", s.Decisions),
		slog.Int("absent_decisions", s.AbsentDecisions),
		slog.Float64("absent_rate", s.AbsentRate),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_p10", s.SpeedP10),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("flock_spread", s.FlockSpread),
		slog.Int("encounters", s.Encounters),
		slog.Float64("min_separation", s.MinSeparation),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}

// finite maps infinities to zero so CSV consumers get a number.
func finite(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}
