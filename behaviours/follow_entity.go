package behaviours

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/ufo/steering"
)

// FollowEntity steers straight at a target.
type FollowEntity struct {
	steering.PilotBinding
	name    string
	target  steering.Target
	verbose bool
	trend   approachTracker
}

// NewFollowEntity creates the behaviour. name is only used for diagnostics.
func NewFollowEntity(name string, target steering.Target, verbose bool) *FollowEntity {
	return &FollowEntity{name: name, target: target, verbose: verbose}
}

func newFollowEntity(env *steering.Env, params steering.Params, children []steering.Behaviour) (steering.Behaviour, error) {
	leafChildren("FollowEntity", children)
	pp := steering.NewParamParser("FollowEntity", params)
	name := pp.String("target", "")
	hasPos := pp.Has("position")
	pos := pp.Vec3("position", r3.Vec{})
	verbose := pp.Bool("verbose", false)
	if err := pp.Finish(); err != nil {
		return nil, err
	}

	switch {
	case name != "":
		var t steering.Target
		if env != nil {
			t = env.Targets[name]
		}
		if t == nil {
			return nil, fmt.Errorf("FollowEntity: target %q: %w", name, steering.ErrInvalidParameter)
		}
		return NewFollowEntity(name, t, verbose), nil
	case hasPos:
		return NewFollowEntity(steering.FormatVec(pos), steering.PointTarget(pos), verbose), nil
	default:
		return nil, fmt.Errorf("FollowEntity: \"target\" or \"position\": %w", steering.ErrMissingParameter)
	}
}

// Yield implements steering.Behaviour.
func (b *FollowEntity) Yield(float64) steering.Decision {
	p := b.Pilot()
	dir := r3.Sub(b.target.WorldPosition(), p.Position())
	if b.verbose {
		b.trend.observe(p, r3.Norm2(dir))
	}
	return steering.DirectionDecision(dir)
}

// Describe implements steering.Behaviour.
func (b *FollowEntity) Describe(w io.Writer, depth int) {
	steering.Describef(w, depth, "FollowEntity target=%s verbose=%t", b.name, b.verbose)
}
