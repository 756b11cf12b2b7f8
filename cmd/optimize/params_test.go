package main

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/ufo/config"
	"github.com/pthm-cable/ufo/scene"
	"github.com/pthm-cable/ufo/telemetry"
)

func loadFlockScene(t *testing.T) *scene.Document {
	t.Helper()
	doc, err := scene.Load(filepath.Join("..", "..", "scenes", "flock.ufo"))
	if err != nil {
		t.Fatalf("loading flock scene: %v", err)
	}
	return doc
}

func TestParamVectorNormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	def := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(def))
	for i := range def {
		if math.Abs(back[i]-def[i]) > 1e-9 {
			t.Errorf("%s: %v -> %v", pv.Specs[i].Name, def[i], back[i])
		}
	}
}

func TestParamVectorClamp(t *testing.T) {
	pv := NewParamVector()
	v := make([]float64, pv.Dim())
	for i, spec := range pv.Specs {
		if i%2 == 0 {
			v[i] = spec.Min - 1
		} else {
			v[i] = spec.Max + 1
		}
	}
	got := pv.Clamp(v)
	for i, spec := range pv.Specs {
		want := spec.Min
		if i%2 == 1 {
			want = spec.Max
		}
		if got[i] != want {
			t.Errorf("%s clamped to %v, want %v", spec.Name, got[i], want)
		}
	}
}

func TestApplyAndExtract(t *testing.T) {
	base := loadFlockScene(t)
	pv := NewParamVector()
	if err := pv.Validate(base); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	// The scene sets factor 2, epsilon 0.5 and separation distance 2.
	initial := pv.ExtractFromDocument(base)
	if initial[0] != 2 || initial[1] != 0.5 || initial[2] != 2 {
		t.Errorf("extracted %v", initial)
	}

	doc := base.Clone()
	values := []float64{3, 1, 1.5, 180, 8, 270}
	if err := pv.ApplyToDocument(doc, values); err != nil {
		t.Fatalf("ApplyToDocument: %v", err)
	}
	got := pv.ExtractFromDocument(doc)
	for i := range values {
		if math.Abs(got[i]-values[i]) > 1e-9 {
			t.Errorf("%s = %v, want %v", pv.Specs[i].Name, got[i], values[i])
		}
	}
	if again := pv.ExtractFromDocument(base); again[0] != 2 {
		t.Errorf("applying to a clone changed the base scene: %v", again)
	}
}

func TestValidateRejectsOtherScenes(t *testing.T) {
	doc := scene.NewDocument()
	if err := NewParamVector().Validate(doc); err == nil {
		t.Error("Validate accepted a scene without the glider template")
	}
}

func TestComputeQuality(t *testing.T) {
	warmup := make([]telemetry.WindowStats, qualityWarmupWindows)

	tests := []struct {
		name    string
		windows []telemetry.WindowStats
		want    float64
	}{
		{"too short", warmup, 0},
		{
			"ideal",
			append(warmup, telemetry.WindowStats{Pilots: 4, FlockSpread: 2}),
			1,
		},
		{
			"no direction",
			append(warmup, telemetry.WindowStats{Pilots: 4, FlockSpread: 2, AbsentRate: 1}),
			qualityWeightSpread + qualityWeightSpacing,
		},
		{
			"crowded",
			append(warmup, telemetry.WindowStats{Pilots: 4, FlockSpread: 2, Encounters: 4}),
			qualityWeightSpread + qualityWeightSpacing*math.Exp(-1) + qualityWeightDirection,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := computeQuality(tt.windows, 2); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("computeQuality = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateShortRun(t *testing.T) {
	if testing.Short() {
		t.Skip("runs simulations")
	}
	base := loadFlockScene(t)
	cfg := testConfig(t)
	pv := NewParamVector()
	fe := NewFitnessEvaluator(pv, 60, []int64{1, 2}, cfg, base, 2)
	fe.statsWindow = 0.25

	fitness := fe.Evaluate(pv.ExtractFromDocument(base))
	if fitness > 0 || fitness < -1 {
		t.Errorf("fitness = %v, want in [-1, 0]", fitness)
	}
	if fe.BestScene() == nil {
		t.Error("best scene not recorded")
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}
