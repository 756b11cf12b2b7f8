// Package sim drives a bound scene tick by tick and feeds telemetry.
package sim

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"

	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ufo/behaviours"
	"github.com/pthm-cable/ufo/config"
	"github.com/pthm-cable/ufo/scene"
	"github.com/pthm-cable/ufo/steering"
	"github.com/pthm-cable/ufo/systems"
	"github.com/pthm-cable/ufo/telemetry"
)

// Options configures a Simulation.
type Options struct {
	Seed           int64   // 0 = simulation.seed from config
	Scene          string  // scene file, empty = simulation.scene from config
	LogStats       bool    // log window stats, perf and bookmarks via slog
	StatsWindowSec float64 // 0 = telemetry.stats_window from config
	OutputDir      string  // CSV output, empty = disabled
	SnapshotDir    string  // snapshot files on bookmarks, empty = see config
	Config         *config.Config
	StatsCallback  func(telemetry.WindowStats)
}

// Simulation owns one DB, its ECS world and the telemetry around them.
type Simulation struct {
	cfg   *config.Config
	reg   *steering.Registry
	db    *steering.DB
	world *ecs.World
	store *systems.AgentStore
	env   *steering.Env
	doc   *scene.Document
	bound *scene.Result

	seed  int64
	runID string
	dt    float64
	tick  int32

	collector     *telemetry.Collector
	perf          *telemetry.PerfCollector
	bookmarks     *telemetry.BookmarkDetector
	output        *telemetry.OutputManager
	logStats      bool
	snapshotDir   string
	statsCallback func(telemetry.WindowStats)

	states []systems.AgentState
	rows   []telemetry.TrajectoryRow
}

// New loads the scene named by opts (or the config) and builds a simulation.
func New(opts Options) (*Simulation, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	path := opts.Scene
	if path == "" {
		path = cfg.Simulation.Scene
	}
	doc, err := scene.Load(path)
	if err != nil {
		return nil, err
	}
	return NewFromDocument(doc, opts)
}

// NewFromDocument builds a simulation from an already parsed scene.
func NewFromDocument(doc *scene.Document, opts Options) (*Simulation, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	opts.Config = cfg

	seed := opts.Seed
	if seed == 0 {
		seed = cfg.Simulation.Seed
	}

	world := ecs.NewWorld()
	s := &Simulation{
		cfg:           cfg,
		reg:           steering.NewRegistry(),
		db:            steering.NewDB(),
		world:         world,
		store:         systems.NewAgentStore(world),
		doc:           doc,
		seed:          seed,
		runID:         uuid.NewString(),
		dt:            cfg.Simulation.DT,
		logStats:      opts.LogStats,
		statsCallback: opts.StatsCallback,
	}
	behaviours.Register(s.reg)
	systems.RegisterSteerables(s.reg, s.store, cfg.Steering.EntityVMax)

	s.env = &steering.Env{
		DB:   s.db,
		Rand: rand.New(rand.NewSource(seed)),
	}
	bound, err := scene.Bind(doc, s.reg, s.env)
	if err != nil {
		return nil, fmt.Errorf("binding scene: %w", err)
	}
	s.bound = bound

	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		statsWindow = opts.StatsWindowSec
	}
	s.collector = telemetry.NewCollector(statsWindow, s.dt)
	s.perf = telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)
	s.bookmarks = telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistorySize)

	if err := s.setupOutput(opts); err != nil {
		s.db.Reset()
		return nil, err
	}

	// Mirror the freshly bound pilots so telemetry sees them before the first tick.
	s.store.Sync(s.db)

	slog.Info("simulation ready",
		"run_id", s.runID,
		"seed", seed,
		"flocks", len(s.db.Flocks()),
		"pilots", s.db.PilotCount(),
		"ticks_per_window", s.collector.WindowDurationTicks(),
	)
	return s, nil
}

func (s *Simulation) setupOutput(opts Options) error {
	om, err := telemetry.NewOutputManager(opts.OutputDir, s.runID)
	if err != nil {
		return err
	}
	s.output = om

	s.snapshotDir = opts.SnapshotDir
	if s.snapshotDir == "" && s.cfg.Telemetry.SnapshotOnBookmark {
		s.snapshotDir = om.Dir()
	}

	if err := om.WriteConfig(s.cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}
	if err := om.WriteFile("scene.yaml", func(w io.Writer) error {
		return scene.WriteYAML(w, s.doc)
	}); err != nil {
		slog.Error("failed to write scene", "error", err)
	}
	if om != nil {
		slog.Info("output enabled", "dir", om.Dir(), "run_id", s.runID)
	}
	return nil
}

// Step advances the simulation by one tick.
func (s *Simulation) Step() {
	s.perf.StartTick()

	s.perf.StartPhase(telemetry.PhaseSteer)
	s.db.Update(s.dt)

	s.perf.StartPhase(telemetry.PhaseSync)
	s.store.Sync(s.db)

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	s.tick++
	s.states = s.store.Snapshot(s.states[:0])
	s.collector.RecordTick(s.states)
	s.writeTrajectory()
	s.flushTelemetry()

	s.perf.EndTick(len(s.states))
}

func (s *Simulation) writeTrajectory() {
	every := s.cfg.Telemetry.TrajectoryEvery
	if s.output == nil || every <= 0 || s.tick%every != 0 {
		return
	}
	s.rows = telemetry.TrajectoryRows(s.rows[:0], s.tick, s.Time(), s.states)
	if err := s.output.WriteTrajectory(s.rows); err != nil {
		slog.Error("failed to write trajectory", "error", err)
	}
}

// flushTelemetry closes a stats window when due and handles bookmarks.
func (s *Simulation) flushTelemetry() {
	if !s.collector.ShouldFlush(s.tick) {
		return
	}

	pairs, minDist := s.store.Encounters(s.cfg.Telemetry.EncounterRadius)
	stats := s.collector.Flush(s.tick, s.states, len(s.db.Flocks()), telemetry.Proximity{
		Encounters:    pairs,
		MinSeparation: minDist,
	})
	perfStats := s.perf.Stats()

	if s.statsCallback != nil {
		s.statsCallback(stats)
	}

	if s.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := s.output.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := s.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	for _, bm := range s.bookmarks.Check(stats) {
		if s.logStats {
			bm.LogBookmark()
		}
		if err := s.output.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		if s.snapshotDir != "" {
			s.saveSnapshot(&bm)
		}
	}
}

func (s *Simulation) saveSnapshot(bookmark *telemetry.Bookmark) {
	snap := s.Snapshot()
	snap.Bookmark = bookmark
	path, err := telemetry.SaveSnapshot(snap, s.snapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "tick", s.tick)
}

// Snapshot captures the current agent states.
func (s *Simulation) Snapshot() *telemetry.Snapshot {
	states := s.store.Snapshot(nil)
	return telemetry.NewSnapshot(s.runID, s.seed, s.tick, s.Time(), states)
}

// Run steps until maxTicks is reached (0 = unlimited) or ctx is done.
// It returns ctx.Err() when cancelled.
func (s *Simulation) Run(ctx context.Context, maxTicks int32) error {
	for maxTicks <= 0 || s.tick < maxTicks {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.Step()
	}
	slog.Info("max ticks reached", "tick", s.tick)
	return nil
}

// Describe dumps the bound DB.
func (s *Simulation) Describe(w io.Writer) { s.db.Describe(w) }

// Tick returns the number of completed ticks.
func (s *Simulation) Tick() int32 { return s.tick }

// Time returns the simulated time in seconds.
func (s *Simulation) Time() float64 { return float64(s.tick) * s.dt }

// DB returns the steering database.
func (s *Simulation) DB() *steering.DB { return s.db }

// Registry returns the type registry the scene was bound with.
func (s *Simulation) Registry() *steering.Registry { return s.reg }

// Store returns the ECS agent store.
func (s *Simulation) Store() *systems.AgentStore { return s.store }

// Bound returns the flocks and independent pilots created from the scene.
func (s *Simulation) Bound() *scene.Result { return s.bound }

// States returns the agent states recorded at the last tick.
func (s *Simulation) States() []systems.AgentState { return s.states }

// RunID returns the id stamped into telemetry output.
func (s *Simulation) RunID() string { return s.runID }

// Seed returns the seed of the random source handed to behaviours.
func (s *Simulation) Seed() int64 { return s.seed }

// Close writes a final snapshot when snapshots are enabled, closes output
// files and releases every steerable.
func (s *Simulation) Close() error {
	if s.snapshotDir != "" {
		if path, err := telemetry.SaveSnapshot(s.Snapshot(), s.snapshotDir); err != nil {
			slog.Error("failed to save final snapshot", "error", err)
		} else {
			slog.Info("final snapshot saved", "path", path, "tick", s.tick)
		}
	}
	err := s.output.Close()
	s.db.Reset()
	s.store.Reset()
	return err
}
