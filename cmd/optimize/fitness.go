package main

import (
	"log/slog"
	"math"
	"sync"

	"github.com/pthm-cable/ufo/config"
	"github.com/pthm-cable/ufo/scene"
	"github.com/pthm-cable/ufo/sim"
	"github.com/pthm-cable/ufo/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params       *ParamVector
	maxTicks     int32
	seeds        []int64
	baseConfig   *config.Config
	baseScene    *scene.Document
	statsWindow  float64
	targetSpread float64

	mu          sync.Mutex
	bestFitness float64
	bestScene   *scene.Document
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config, baseScene *scene.Document, targetSpread float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:       params,
		maxTicks:     maxTicks,
		seeds:        seeds,
		baseConfig:   baseCfg,
		baseScene:    baseScene,
		statsWindow:  2.0,
		targetSpread: targetSpread,
		bestFitness:  math.Inf(1),
	}
}

// BestScene returns the scene of the best evaluation so far.
func (fe *FitnessEvaluator) BestScene() *scene.Document {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestScene
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// bindFailure is the fitness of a parameter set the scene rejects. It is
// worse than any quality score.
const bindFailure = 1.0

// Evaluate computes fitness for a raw parameter vector (lower = better).
// Fitness is the negated mean quality over all seeds.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	doc := fe.baseScene.Clone()
	if err := fe.params.ApplyToDocument(doc, x); err != nil {
		slog.Warn("cannot apply parameters", "error", err)
		return bindFailure
	}

	// Run all seeds in parallel
	qualities := make([]float64, len(fe.seeds))
	failed := make([]bool, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			windows, err := fe.runSimulation(doc, s)
			if err != nil {
				slog.Warn("run failed", "seed", s, "error", err)
				failed[idx] = true
				return
			}
			qualities[idx] = computeQuality(windows, fe.targetSpread)
		}(i, seed)
	}
	wg.Wait()

	var total float64
	for i, q := range qualities {
		if failed[i] {
			return bindFailure
		}
		total += q
	}
	quality := total / float64(len(fe.seeds))
	fitness := -quality

	fe.mu.Lock()
	if fitness < fe.bestFitness {
		fe.bestFitness = fitness
		fe.bestScene = doc
	}
	fe.lastQuality = quality
	fe.mu.Unlock()

	return fitness
}

// runSimulation executes a single headless run and returns its window stats.
// Each run binds its own copy of the scene, so seeds never share objects.
func (fe *FitnessEvaluator) runSimulation(doc *scene.Document, seed int64) ([]telemetry.WindowStats, error) {
	var windows []telemetry.WindowStats
	s, err := sim.NewFromDocument(doc.Clone(), sim.Options{
		Seed:           seed,
		StatsWindowSec: fe.statsWindow,
		Config:         fe.baseConfig,
		StatsCallback: func(stats telemetry.WindowStats) {
			windows = append(windows, stats)
		},
	})
	if err != nil {
		return nil, err
	}
	for s.Tick() < fe.maxTicks {
		s.Step()
	}
	return windows, s.Close()
}

// Quality component weights.
const (
	qualityWeightSpread    = 0.5
	qualityWeightSpacing   = 0.3
	qualityWeightDirection = 0.2

	qualityWarmupWindows = 2 // skip first N windows (warmup)
)

// computeQuality scores flock behaviour in [0, 1] from window stats:
// spread near the target, few encounters, and decisions that carry a
// direction.
func computeQuality(windows []telemetry.WindowStats, targetSpread float64) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}
	valid := windows[qualityWarmupWindows:]

	var spreadSum, spacingSum, directionSum float64
	for _, w := range valid {
		// 1. Flock spread close to target (log-normal)
		if w.FlockSpread > 0 && targetSpread > 0 {
			logErr := math.Log(w.FlockSpread / targetSpread)
			spreadSum += math.Exp(-logErr * logErr)
		}

		// 2. Spacing: encounters per pilot
		if w.Pilots > 0 {
			spacingSum += math.Exp(-float64(w.Encounters) / float64(w.Pilots))
		}

		// 3. Direction: share of decisions with a direction
		directionSum += 1 - w.AbsentRate
	}

	n := float64(len(valid))
	quality := qualityWeightSpread*spreadSum/n +
		qualityWeightSpacing*spacingSum/n +
		qualityWeightDirection*directionSum/n

	return clamp01(quality)
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
