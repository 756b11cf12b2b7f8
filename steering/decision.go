// Package steering implements the behaviour evaluation engine: steering
// decisions, the Behaviour contract, Pilots, Flocks and the DB that drives
// them once per tick.
package steering

import (
	"fmt"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Decision is the output of a Behaviour for one tick.
//
// DirectionUsed=false means no direction was provided at all, which is not
// the same as a zero direction. Combinators must not let absent directions
// take part in averages or comparisons. Decisions carry no arithmetic of
// their own; combinators build new ones.
type Decision struct {
	Direction     r3.Vec
	DirectionUsed bool
	Rotation      quat.Number
	RotationUsed  bool
}

// NewDecision returns an empty decision: zero direction, identity rotation,
// both unused.
func NewDecision() Decision {
	return Decision{Rotation: Identity}
}

// DirectionDecision returns a decision providing only a direction.
func DirectionDecision(v r3.Vec) Decision {
	return Decision{Direction: v, DirectionUsed: true, Rotation: Identity}
}

// RotationDecision returns a decision providing only a rotation.
func RotationDecision(q quat.Number) Decision {
	return Decision{Rotation: q, RotationUsed: true}
}

func (d Decision) String() string {
	dir := "-"
	if d.DirectionUsed {
		dir = FormatVec(d.Direction)
	}
	rot := "-"
	if d.RotationUsed {
		rot = FormatQuat(d.Rotation)
	}
	return fmt.Sprintf("Decision{direction: %s, rotation: %s}", dir, rot)
}
