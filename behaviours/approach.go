package behaviours

import (
	"log/slog"
	"math"

	"github.com/pthm-cable/ufo/steering"
)

// approachHysteresis is the squared-distance slack before a trend change
// is reported.
const approachHysteresis = 0.05

// approachTracker reports when a follower stops closing in on its target
// or stops falling behind. Each behaviour instance owns one.
type approachTracker struct {
	primed      bool
	approaching bool
	lastDistSq  float64
}

// observe records the current squared distance and logs a trend flip.
func (t *approachTracker) observe(p *steering.Pilot, distSq float64) {
	if !t.primed {
		t.primed = true
		t.approaching = true
		t.lastDistSq = distSq
		return
	}
	if t.approaching {
		if t.lastDistSq <= distSq+approachHysteresis {
			slog.Info("nearest approach", logPilot(p),
				"position", steering.FormatVec(p.Position()),
				"distance", math.Sqrt(t.lastDistSq))
			t.approaching = false
		}
	} else if t.lastDistSq+approachHysteresis >= distSq {
		slog.Info("largest distance", logPilot(p),
			"position", steering.FormatVec(p.Position()),
			"distance", math.Sqrt(t.lastDistSq))
		t.approaching = true
	}
	t.lastDistSq = distSq
}
