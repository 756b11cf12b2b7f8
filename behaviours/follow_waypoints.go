package behaviours

import (
	"fmt"
	"io"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/ufo/steering"
)

// ErrNoWaypoints is returned when a FollowWaypoints behaviour has an empty path.
var ErrNoWaypoints = fmt.Errorf("FollowWaypoints: no waypoints: %w", steering.ErrMissingParameter)

// FollowWaypoints steers towards each point of a closed path in turn.
type FollowWaypoints struct {
	steering.PilotBinding
	path       []r3.Vec
	epsilonSq  float64
	ignoreMask r3.Vec
	verbose    bool
	idx        int
}

// NewFollowWaypoints creates the behaviour. A waypoint counts as reached when
// the masked offset to it is within epsilon. Axes with a zero in ignoreMask
// are left out of that test.
func NewFollowWaypoints(path []r3.Vec, epsilon float64, ignoreMask r3.Vec, verbose bool) (*FollowWaypoints, error) {
	if len(path) == 0 {
		return nil, ErrNoWaypoints
	}
	return &FollowWaypoints{
		path:       path,
		epsilonSq:  epsilon * epsilon,
		ignoreMask: ignoreMask,
		verbose:    verbose,
	}, nil
}

func newFollowWaypoints(_ *steering.Env, params steering.Params, children []steering.Behaviour) (steering.Behaviour, error) {
	leafChildren("FollowWaypoints", children)
	pp := steering.NewParamParser("FollowWaypoints", params)
	path := pp.Vec3List("waypoint")
	epsilon := pp.Float("epsilon", 0.1)
	mask := pp.Vec3("ignoreMask", r3.Vec{X: 1, Y: 1, Z: 1})
	verbose := pp.Bool("verbose", false)
	if err := pp.Finish(); err != nil {
		return nil, err
	}
	return NewFollowWaypoints(path, epsilon, mask, verbose)
}

// Target returns the index of the waypoint currently steered to.
func (b *FollowWaypoints) Target() int { return b.idx }

// Yield implements steering.Behaviour.
func (b *FollowWaypoints) Yield(float64) steering.Decision {
	p := b.Pilot()
	pos := p.Position()
	dir := r3.Sub(b.path[b.idx], pos)

	if r3.Norm2(steering.MulComponents(dir, b.ignoreMask)) <= b.epsilonSq {
		b.idx = (b.idx + 1) % len(b.path)
		dir = r3.Sub(b.path[b.idx], pos)
		if b.verbose {
			slog.Info("waypoint reached", logPilot(p), "next", b.idx, "target", steering.FormatVec(b.path[b.idx]))
		}
	}
	return steering.DirectionDecision(dir)
}

// Describe implements steering.Behaviour.
func (b *FollowWaypoints) Describe(w io.Writer, depth int) {
	steering.Describef(w, depth, "FollowWaypoints waypoints=%d current=%d epsilonSq=%g ignoreMask=(%s)",
		len(b.path), b.idx, b.epsilonSq, steering.FormatVec(b.ignoreMask))
	for i, wp := range b.path {
		steering.Describef(w, depth+1, "%d: %s", i, steering.FormatVec(wp))
	}
}
