package telemetry

import (
	"log/slog"
	"slices"
	"time"
)

// Phase is one timed section of a simulation step.
type Phase int

// Step phases in execution order.
const (
	PhaseSteer     Phase = iota // behaviour trees yield, steerables integrate
	PhaseSync                   // pilot state copied into the ECS world
	PhaseTelemetry              // stats, trajectory and output
	numPhases
)

// Phases lists the step phases in execution order.
var Phases = [numPhases]Phase{PhaseSteer, PhaseSync, PhaseTelemetry}

var phaseNames = [numPhases]string{"steer", "sync", "telemetry"}

func (p Phase) String() string {
	if p >= 0 && p < numPhases {
		return phaseNames[p]
	}
	return "unknown"
}

// tickSample is the timing of one tick.
type tickSample struct {
	total  time.Duration
	phases [numPhases]time.Duration
	pilots int
}

// PerfCollector keeps tick timings in a ring buffer of windowSize ticks.
type PerfCollector struct {
	samples []tickSample
	next    int
	filled  int

	cur        tickSample
	tickStart  time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool
}

// NewPerfCollector creates a collector averaging over windowSize ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{samples: make([]tickSample, windowSize)}
}

// StartTick begins timing a new tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.cur = tickSample{}
	p.inPhase = false
}

// StartPhase ends the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phaseStart = now
	p.phase = phase
	p.inPhase = true
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase {
		p.cur.phases[p.phase] += now.Sub(p.phaseStart)
		p.inPhase = false
	}
}

// EndTick records the tick. pilots is the number of pilots that steered.
func (p *PerfCollector) EndTick(pilots int) {
	now := time.Now()
	p.closePhase(now)
	p.cur.total = now.Sub(p.tickStart)
	p.cur.pilots = pilots

	p.samples[p.next] = p.cur
	p.next = (p.next + 1) % len(p.samples)
	p.filled = min(p.filled+1, len(p.samples))
}

// PerfStats summarises the ticks currently in the window.
type PerfStats struct {
	Ticks int

	AvgTick time.Duration
	MinTick time.Duration
	P50Tick time.Duration
	P90Tick time.Duration
	MaxTick time.Duration

	PhaseAvg [numPhases]time.Duration
	PhasePct [numPhases]float64 // share of the average tick, in percent

	TicksPerSecond     float64
	DecisionsPerSecond float64       // pilots steered per wall-clock second
	SteerPerPilot      time.Duration // steer phase cost per pilot
}

// Stats computes the window summary.
func (p *PerfCollector) Stats() PerfStats {
	n := p.filled
	if n == 0 {
		return PerfStats{}
	}

	var (
		total, steer time.Duration
		pilots       int
		phaseSum     [numPhases]time.Duration
	)
	durations := make([]float64, n)
	for i, s := range p.samples[:n] {
		total += s.total
		pilots += s.pilots
		steer += s.phases[PhaseSteer]
		for ph, d := range s.phases {
			phaseSum[ph] += d
		}
		durations[i] = float64(s.total)
	}
	slices.Sort(durations)

	st := PerfStats{
		Ticks:   n,
		AvgTick: total / time.Duration(n),
		MinTick: time.Duration(durations[0]),
		P50Tick: time.Duration(Percentile(durations, 0.5)),
		P90Tick: time.Duration(Percentile(durations, 0.9)),
		MaxTick: time.Duration(durations[n-1]),
	}
	for ph := range phaseSum {
		st.PhaseAvg[ph] = phaseSum[ph] / time.Duration(n)
		if st.AvgTick > 0 {
			st.PhasePct[ph] = float64(st.PhaseAvg[ph]) / float64(st.AvgTick) * 100
		}
	}
	if total > 0 {
		st.TicksPerSecond = float64(n) / total.Seconds()
		st.DecisionsPerSecond = float64(pilots) / total.Seconds()
	}
	if pilots > 0 {
		st.SteerPerPilot = steer / time.Duration(pilots)
	}
	return st
}

// LogStats logs the summary at info level.
func (s PerfStats) LogStats() {
	slog.Info("perf", "perf", s)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("ticks", s.Ticks),
		slog.Int64("avg_tick_us", s.AvgTick.Microseconds()),
		slog.Int64("p90_tick_us", s.P90Tick.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTick.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
		slog.Float64("decisions_per_sec", s.DecisionsPerSecond),
		slog.Int64("steer_per_pilot_ns", s.SteerPerPilot.Nanoseconds()),
	}
	for _, ph := range Phases {
		attrs = append(attrs, slog.Float64(ph.String()+"_pct", s.PhasePct[ph]))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	RunID           string  `csv:"run_id"`
	WindowEnd       int32   `csv:"window_end"`
	AvgTickUS       int64   `csv:"avg_tick_us"`
	MinTickUS       int64   `csv:"min_tick_us"`
	P50TickUS       int64   `csv:"p50_tick_us"`
	P90TickUS       int64   `csv:"p90_tick_us"`
	MaxTickUS       int64   `csv:"max_tick_us"`
	TicksPerSec     float64 `csv:"ticks_per_sec"`
	DecisionsPerSec float64 `csv:"decisions_per_sec"`
	SteerPerPilotNS int64   `csv:"steer_per_pilot_ns"`
	SteerPct        float64 `csv:"steer_pct"`
	SyncPct         float64 `csv:"sync_pct"`
	TelemetryPct    float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the summary for perf.csv.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:       windowEnd,
		AvgTickUS:       s.AvgTick.Microseconds(),
		MinTickUS:       s.MinTick.Microseconds(),
		P50TickUS:       s.P50Tick.Microseconds(),
		P90TickUS:       s.P90Tick.Microseconds(),
		MaxTickUS:       s.MaxTick.Microseconds(),
		TicksPerSec:     s.TicksPerSecond,
		DecisionsPerSec: s.DecisionsPerSecond,
		SteerPerPilotNS: s.SteerPerPilot.Nanoseconds(),
		SteerPct:        s.PhasePct[PhaseSteer],
		SyncPct:         s.PhasePct[PhaseSync],
		TelemetryPct:    s.PhasePct[PhaseTelemetry],
	}
}
