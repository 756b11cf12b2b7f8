package telemetry

import (
	"math"

	"github.com/pthm-cable/ufo/systems"
)

// Collector accumulates per-tick decision counts within time windows and
// produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32

	// Counters for current window
	decisions       int
	absentDecisions int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int32(math.Round(windowDurationSec / dt))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordTick counts the decisions made in one tick.
func (c *Collector) RecordTick(states []systems.AgentState) {
	c.decisions += len(states)
	for _, s := range states {
		if s.Absent {
			c.absentDecisions++
		}
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Proximity holds the close-encounter sample taken at window end.
type Proximity struct {
	Encounters    int
	MinSeparation float64 // +Inf when there are no encounters
}

// Flush produces a WindowStats and resets counters for the next window.
// states is the agent snapshot at currentTick.
func (c *Collector) Flush(currentTick int32, states []systems.AgentState, flocks int, prox Proximity) WindowStats {
	var absentRate float64
	if c.decisions > 0 {
		absentRate = float64(c.absentDecisions) / float64(c.decisions)
	}

	speeds := make([]float64, len(states))
	mirrors := 0
	for i, s := range states {
		speeds[i] = s.Speed()
		if s.Mirror {
			mirrors++
		}
	}
	mean, p10, p50, p90 := ComputeDistribution(speeds)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Pilots:  len(states),
		Flocks:  flocks,
		Mirrors: mirrors,

		Decisions:       c.decisions,
		AbsentDecisions: c.absentDecisions,
		AbsentRate:      absentRate,

		SpeedMean: mean,
		SpeedP10:  p10,
		SpeedP50:  p50,
		SpeedP90:  p90,

		FlockSpread: FlockSpread(states),

		Encounters:    prox.Encounters,
		MinSeparation: finite(prox.MinSeparation),
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.decisions = 0
	c.absentDecisions = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
