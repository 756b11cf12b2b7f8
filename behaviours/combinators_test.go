package behaviours

import (
	"io"
	"math"
	"testing"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/ufo/steering"
)

// stub yields a fixed decision and counts calls.
type stub struct {
	steering.PilotBinding
	d       steering.Decision
	calls   int
	elapsed []float64
}

func (s *stub) Yield(elapsed float64) steering.Decision {
	s.calls++
	s.elapsed = append(s.elapsed, elapsed)
	return s.d
}

func (s *stub) Describe(w io.Writer, depth int) { steering.Describef(w, depth, "stub") }

func dir(x, y, z float64) *stub {
	return &stub{d: steering.DirectionDecision(r3.Vec{X: x, Y: y, Z: z})}
}

func absent() *stub { return &stub{d: steering.NewDecision()} }

func TestAverageDirection(t *testing.T) {
	tests := []struct {
		name     string
		children []steering.Behaviour
		skip     bool
		want     r3.Vec
		used     bool
	}{
		{"mean of two", []steering.Behaviour{dir(2, 0, 0), dir(0, 4, 0)}, false, r3.Vec{X: 1, Y: 2}, true},
		{"absent ignored", []steering.Behaviour{dir(2, 0, 0), absent(), dir(4, 0, 0)}, false, r3.Vec{X: 3}, true},
		{"all absent", []steering.Behaviour{absent(), absent()}, false, r3.Vec{}, false},
		{"zero counts without skip", []steering.Behaviour{dir(4, 0, 0), dir(0, 0, 0)}, false, r3.Vec{X: 2}, true},
		{"zero skipped with skip", []steering.Behaviour{dir(4, 0, 0), dir(0, 0, 0)}, true, r3.Vec{X: 4}, true},
		{"only zeros with skip", []steering.Behaviour{dir(0, 0, 0)}, true, r3.Vec{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewAverage(tt.children, tt.skip)
			if err != nil {
				t.Fatal(err)
			}
			d := b.Yield(0.1)
			if d.DirectionUsed != tt.used {
				t.Fatalf("DirectionUsed = %v, want %v", d.DirectionUsed, tt.used)
			}
			if !near(d.Direction, tt.want) {
				t.Errorf("direction = %v, want %v", d.Direction, tt.want)
			}
			if d.RotationUsed {
				t.Error("no child gave a rotation")
			}
		})
	}
}

func TestAverageRotation(t *testing.T) {
	quarter := steering.RotationBetween(r3.Vec{Z: 1}, r3.Vec{X: 1})
	children := []steering.Behaviour{
		&stub{d: steering.RotationDecision(steering.Identity)},
		dir(1, 0, 0),
		&stub{d: steering.RotationDecision(quarter)},
	}
	b, err := NewAverage(children, false)
	if err != nil {
		t.Fatal(err)
	}

	d := b.Yield(0.1)
	if !d.RotationUsed || !d.DirectionUsed {
		t.Fatalf("Yield = %v", d)
	}
	// Halfway between identity and a quarter turn is an eighth turn.
	got := steering.Rotate(d.Rotation, r3.Vec{Z: 1})
	want := r3.Vec{X: math.Sqrt2 / 2, Z: math.Sqrt2 / 2}
	if !near(got, want) {
		t.Errorf("blended forward = %v, want %v", got, want)
	}
	if math.Abs(quat.Abs(d.Rotation)-1) > tol {
		t.Errorf("blended rotation not unit: %v", d.Rotation)
	}
}

func TestAverageSingleRotationPassesThrough(t *testing.T) {
	q := steering.RotationBetween(r3.Vec{Z: 1}, r3.Vec{Y: 1})
	b, _ := NewAverage([]steering.Behaviour{&stub{d: steering.RotationDecision(q)}}, false)
	if d := b.Yield(0.1); d.Rotation != q {
		t.Errorf("rotation = %v, want %v", d.Rotation, q)
	}
}

func TestStrongestTieBreak(t *testing.T) {
	first := dir(3, 0, 0)
	second := dir(0, 3, 0)
	weaker := dir(1, 1, 1)
	b, err := NewStrongest([]steering.Behaviour{weaker, first, second})
	if err != nil {
		t.Fatal(err)
	}

	d := b.Yield(0.1)
	if d.Direction != (r3.Vec{X: 3}) {
		t.Errorf("Strongest = %v, want the first of the tied children", d.Direction)
	}
	if first.calls != 1 || second.calls != 1 || weaker.calls != 1 {
		t.Error("every child must be evaluated")
	}
}

func TestStrongestReturnsChildDecisionUnmodified(t *testing.T) {
	q := steering.RotationBetween(r3.Vec{Z: 1}, r3.Vec{Y: 1})
	strong := &stub{d: steering.Decision{Direction: r3.Vec{X: 5}, DirectionUsed: true, Rotation: q, RotationUsed: true}}
	b, _ := NewStrongest([]steering.Behaviour{dir(1, 0, 0), strong})
	if d := b.Yield(0.1); d != strong.d {
		t.Errorf("Strongest = %v, want %v", d, strong.d)
	}
}

func TestStrongestIgnoresAbsent(t *testing.T) {
	b, _ := NewStrongest([]steering.Behaviour{absent(), dir(0, 0, 0)})
	if d := b.Yield(0.1); !d.DirectionUsed {
		t.Errorf("a used zero direction should beat an absent one, got %v", d)
	}

	b, _ = NewStrongest([]steering.Behaviour{absent(), absent()})
	if d := b.Yield(0.1); d.DirectionUsed {
		t.Errorf("all absent should stay absent, got %v", d)
	}
}

func TestScaleNormalisation(t *testing.T) {
	tests := []struct {
		name      string
		in        r3.Vec
		normalise bool
		factor    float64
		want      r3.Vec
	}{
		{"short vector not stretched", r3.Vec{X: 0.5}, true, 2, r3.Vec{X: 1}},
		{"long vector normalised", r3.Vec{Y: 2}, true, 3, r3.Vec{Y: 3}},
		{"no normalise", r3.Vec{Y: 2}, false, 3, r3.Vec{Y: 6}},
		{"factor zero falls back to one", r3.Vec{Z: 4}, false, 0, r3.Vec{Z: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewScale(&stub{d: steering.DirectionDecision(tt.in)}, tt.normalise, tt.factor)
			if err != nil {
				t.Fatal(err)
			}
			if d := b.Yield(0.1); !near(d.Direction, tt.want) {
				t.Errorf("Scale = %v, want %v", d.Direction, tt.want)
			}
		})
	}
}

func TestScaleAbsentPassesThrough(t *testing.T) {
	b, _ := NewScale(absent(), true, 5)
	if d := b.Yield(0.1); d.DirectionUsed || d.Direction != (r3.Vec{}) {
		t.Errorf("absent direction became %v", d)
	}
}

func TestInverse(t *testing.T) {
	const vmax = 2.0
	tests := []struct {
		name string
		in   r3.Vec
		want r3.Vec
	}{
		{"standing still", r3.Vec{}, r3.Vec{X: vmax, Y: vmax, Z: vmax}},
		{"at VMax", r3.Vec{X: vmax}, r3.Vec{}},
		{"above VMax", r3.Vec{Y: 5}, r3.Vec{}},
		{"half VMax pushes back", r3.Vec{X: 1}, r3.Vec{X: -1}},
		{"slow pushes back harder", r3.Vec{Z: 0.5}, r3.Vec{Z: -1.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewInverse(&stub{d: steering.DirectionDecision(tt.in)}, vmax)
			if err != nil {
				t.Fatal(err)
			}
			d := b.Yield(0.1)
			if !d.DirectionUsed || !near(d.Direction, tt.want) {
				t.Errorf("Inverse(%v) = %v, want %v", tt.in, d.Direction, tt.want)
			}
		})
	}
}

func TestCachingTimeline(t *testing.T) {
	child := dir(1, 0, 0)
	b, err := NewCaching(child, 1.0)
	if err != nil {
		t.Fatal(err)
	}

	// First call evaluates: the accumulator starts at the interval.
	first := b.Yield(0.3)
	if child.calls != 1 || !first.DirectionUsed {
		t.Fatalf("first Yield: calls=%d d=%v", child.calls, first)
	}

	child.d = steering.DirectionDecision(r3.Vec{X: 2})
	for i := range 3 {
		if d := b.Yield(0.3); d != first {
			t.Fatalf("cached call %d returned %v, want %v", i, d, first)
		}
	}
	if child.calls != 1 {
		t.Fatalf("child evaluated %d times within the interval", child.calls)
	}

	// 1.2s accumulated: refresh.
	if d := b.Yield(0.3); d.Direction != (r3.Vec{X: 2}) {
		t.Errorf("refresh returned %v", d)
	}
	if child.calls != 2 || math.Abs(child.elapsed[1]-1.2) > tol {
		t.Errorf("child calls=%d elapsed=%v, want refresh with accumulated 1.2", child.calls, child.elapsed)
	}

	// Accumulator was reset.
	b.Yield(0.3)
	if child.calls != 2 {
		t.Error("accumulator not reset after refresh")
	}
}

func TestCompositeAttachesChildren(t *testing.T) {
	leaf := NewFixedVelocity(r3.Vec{X: 1})
	inner, _ := NewScale(leaf, false, 2)
	root, _ := NewAverage([]steering.Behaviour{inner, NewFixedVelocity(r3.Vec{})}, false)

	db := steering.NewDB()
	p, _ := addPilot(t, db, nil, root, r3.Vec{}, r3.Vec{})
	if leaf.Pilot() != p || inner.Pilot() != p {
		t.Error("Attach did not reach nested children")
	}
}

func TestCombinatorChildCounts(t *testing.T) {
	if _, err := NewAverage(nil, false); err == nil {
		t.Error("Average without children should fail")
	}
	if _, err := NewStrongest(nil); err == nil {
		t.Error("Strongest without children should fail")
	}
	leaf := dir(1, 0, 0)
	if _, err := NewAverage([]steering.Behaviour{leaf, leaf}, false); err == nil {
		t.Error("listing the same child twice should fail")
	}
}
