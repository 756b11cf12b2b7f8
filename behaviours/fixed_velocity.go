package behaviours

import (
	"io"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/ufo/steering"
)

// FixedVelocity always asks for the same velocity.
type FixedVelocity struct {
	steering.PilotBinding
	Velocity r3.Vec
}

// NewFixedVelocity creates a FixedVelocity behaviour.
func NewFixedVelocity(v r3.Vec) *FixedVelocity {
	return &FixedVelocity{Velocity: v}
}

func newFixedVelocity(_ *steering.Env, params steering.Params, children []steering.Behaviour) (steering.Behaviour, error) {
	leafChildren("FixedVelocity", children)
	pp := steering.NewParamParser("FixedVelocity", params)
	b := NewFixedVelocity(pp.Vec3("velocity", r3.Vec{}))
	if err := pp.Finish(); err != nil {
		return nil, err
	}
	return b, nil
}

// Yield implements steering.Behaviour.
func (b *FixedVelocity) Yield(float64) steering.Decision {
	return steering.DirectionDecision(b.Velocity)
}

// Describe implements steering.Behaviour.
func (b *FixedVelocity) Describe(w io.Writer, depth int) {
	steering.Describef(w, depth, "FixedVelocity velocity=(%s)", steering.FormatVec(b.Velocity))
}
