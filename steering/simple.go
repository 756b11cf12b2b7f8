package steering

import (
	"io"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Kinematics is the state every steerable integrates.
type Kinematics struct {
	Position    r3.Vec
	Velocity    r3.Vec
	Orientation quat.Number
	// VMax caps the speed; negative means unlimited.
	VMax float64
}

// Integrate moves the state forward by elapsed seconds and adopts d.
// The position advances with the previous velocity; the decided direction
// becomes the next velocity. A used rotation is blended in by slerp.
func (k *Kinematics) Integrate(d Decision, elapsed float64) {
	k.Position = r3.Add(k.Position, r3.Scale(elapsed, k.Velocity))
	if d.DirectionUsed {
		k.Velocity = ClampLength(d.Direction, k.VMax)
	}
	if d.RotationUsed {
		t := min(max(elapsed, 0), 1)
		k.Orientation = Slerp(k.Orientation, d.Rotation, t)
	}
}

// Simple is the builtin in-memory steerable.
type Simple struct {
	Kinematics
}

// NewSimple creates a Simple steerable at rest at pos with identity
// orientation and unlimited speed.
func NewSimple(pos r3.Vec) *Simple {
	return &Simple{Kinematics{Position: pos, Orientation: Identity, VMax: -1}}
}

// NewSimpleFromParams is the factory registered as "Simple".
func NewSimpleFromParams(_ *Env, params Params) (Steerable, error) {
	pp := NewParamParser("Simple", params)
	s := &Simple{Kinematics{
		Position:    pp.Vec3("position", r3.Vec{}),
		Velocity:    pp.Vec3("velocity", r3.Vec{}),
		Orientation: pp.Quat("orientation", Identity),
		VMax:        pp.Float("VMax", -1),
	}}
	if err := pp.Finish(); err != nil {
		return nil, err
	}
	return s, nil
}

// Steer implements Steerable.
func (s *Simple) Steer(d Decision, elapsed float64) { s.Integrate(d, elapsed) }

// Position implements Steerable.
func (s *Simple) Position() r3.Vec { return s.Kinematics.Position }

// Velocity implements Steerable.
func (s *Simple) Velocity() r3.Vec { return s.Kinematics.Velocity }

// Orientation implements Steerable.
func (s *Simple) Orientation() quat.Number { return s.Kinematics.Orientation }

// Describe implements Steerable.
func (s *Simple) Describe(w io.Writer, depth int) {
	Describef(w, depth, "Simple position=(%s) velocity=(%s) orientation=(%s) VMax=%g",
		FormatVec(s.Kinematics.Position), FormatVec(s.Kinematics.Velocity),
		FormatQuat(s.Kinematics.Orientation), s.VMax)
}
