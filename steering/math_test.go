package steering

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

const eps = 1e-9

func vecNear(a, b r3.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		in      r3.Vec
		want    r3.Vec
		wantLen float64
	}{
		{"zero", r3.Vec{}, r3.Vec{}, 0},
		{"axis", r3.Vec{Y: 3}, r3.Vec{Y: 1}, 3},
		{"diagonal", r3.Vec{X: 3, Y: 4}, r3.Vec{X: 0.6, Y: 0.8}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, l := Normalize(tt.in)
			if !vecNear(got, tt.want, eps) || math.Abs(l-tt.wantLen) > eps {
				t.Errorf("Normalize(%v) = %v, %v; want %v, %v", tt.in, got, l, tt.want, tt.wantLen)
			}
		})
	}
}

func TestClampLength(t *testing.T) {
	tests := []struct {
		name string
		in   r3.Vec
		max  float64
		want r3.Vec
	}{
		{"unlimited", r3.Vec{X: 10}, -1, r3.Vec{X: 10}},
		{"under", r3.Vec{X: 1}, 2, r3.Vec{X: 1}},
		{"over", r3.Vec{X: 3, Y: 4}, 1, r3.Vec{X: 0.6, Y: 0.8}},
		{"zero max", r3.Vec{Z: 5}, 0, r3.Vec{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampLength(tt.in, tt.max); !vecNear(got, tt.want, eps) {
				t.Errorf("ClampLength(%v, %v) = %v, want %v", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestRotationBetween(t *testing.T) {
	tests := []struct {
		name     string
		from, to r3.Vec
	}{
		{"same", r3.Vec{Z: 1}, r3.Vec{Z: 2}},
		{"quarter turn", r3.Vec{Z: 1}, r3.Vec{X: 1}},
		{"opposite", r3.Vec{Z: 1}, r3.Vec{Z: -1}},
		{"opposite x", r3.Vec{X: 1}, r3.Vec{X: -3}},
		{"oblique", r3.Vec{X: 1, Y: 2, Z: 3}, r3.Vec{X: -2, Y: 0.5, Z: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := RotationBetween(tt.from, tt.to)
			if math.Abs(quat.Abs(q)-1) > 1e-9 {
				t.Fatalf("rotation not unit: |q| = %v", quat.Abs(q))
			}
			from, _ := Normalize(tt.from)
			want, _ := Normalize(tt.to)
			if got := Rotate(q, from); !vecNear(got, want, 1e-9) {
				t.Errorf("Rotate(RotationBetween) = %v, want %v", got, want)
			}
		})
	}
}

func TestRotationBetweenDegenerate(t *testing.T) {
	if q := RotationBetween(r3.Vec{}, r3.Vec{X: 1}); q != Identity {
		t.Errorf("zero input should give identity, got %v", q)
	}
}

func TestSlerp(t *testing.T) {
	a := Identity
	b := RotationBetween(r3.Vec{Z: 1}, r3.Vec{X: 1}) // 90 degrees about Y

	if got := Slerp(a, b, 0); math.Abs(got.Real-a.Real) > eps {
		t.Errorf("Slerp t=0 = %v, want %v", got, a)
	}
	end := Slerp(a, b, 1)
	if !vecNear(Rotate(end, r3.Vec{Z: 1}), r3.Vec{X: 1}, 1e-9) {
		t.Errorf("Slerp t=1 does not reach b: %v", end)
	}

	// Halfway is a 45 degree turn.
	mid := Rotate(Slerp(a, b, 0.5), r3.Vec{Z: 1})
	want := r3.Vec{X: math.Sqrt2 / 2, Z: math.Sqrt2 / 2}
	if !vecNear(mid, want, 1e-9) {
		t.Errorf("Slerp t=0.5 rotates forward to %v, want %v", mid, want)
	}

	// Antipodal representation of the same rotation takes the short arc.
	neg := quat.Scale(-1, b)
	if got := Rotate(Slerp(a, neg, 0.5), r3.Vec{Z: 1}); !vecNear(got, want, 1e-9) {
		t.Errorf("Slerp with negated target = %v, want %v", got, want)
	}
}

func TestLerpAndMulComponents(t *testing.T) {
	if got := Lerp(r3.Vec{}, r3.Vec{X: 2, Y: 4}, 0.25); !vecNear(got, r3.Vec{X: 0.5, Y: 1}, eps) {
		t.Errorf("Lerp = %v", got)
	}
	if got := MulComponents(r3.Vec{X: 1, Y: 2, Z: 3}, r3.Vec{X: 1, Y: 0, Z: 2}); got != (r3.Vec{X: 1, Z: 6}) {
		t.Errorf("MulComponents = %v", got)
	}
}
