package behaviours

import (
	"io"
	"log/slog"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/ufo/steering"
)

// Random wanders: it blends the local forward direction towards an "up"
// and a "side" extreme by random amounts and rotates the result into
// world space with the pilot's orientation.
type Random struct {
	steering.PilotBinding
	maxUp        r3.Vec
	maxSide      r3.Vec
	localForward r3.Vec
	verbose      bool
	rng          steering.Rand
}

// NewRandom creates a Random behaviour drawing from rng.
func NewRandom(rng steering.Rand, maxUp, maxSide, localForward r3.Vec, verbose bool) *Random {
	return &Random{
		maxUp:        maxUp,
		maxSide:      maxSide,
		localForward: localForward,
		verbose:      verbose,
		rng:          rng,
	}
}

func newRandom(env *steering.Env, params steering.Params, children []steering.Behaviour) (steering.Behaviour, error) {
	leafChildren("Random", children)
	pp := steering.NewParamParser("Random", params)
	maxUp := pp.Vec3("maxUp", r3.Vec{Y: 1, Z: 1})
	maxSide := pp.Vec3("maxSide", r3.Vec{X: 1, Z: 1})
	fwd := pp.Vec3("localForward", r3.Vec{Z: 1})
	verbose := pp.Bool("verbose", false)
	if err := pp.Finish(); err != nil {
		return nil, err
	}

	var rng steering.Rand
	if env != nil && env.Rand != nil {
		rng = env.Rand
	} else {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return NewRandom(rng, maxUp, maxSide, fwd, verbose), nil
}

// draw returns a uniform value in [-1, 1].
func (b *Random) draw() float64 {
	return 2*b.rng.Float64() - 1
}

// Yield implements steering.Behaviour.
func (b *Random) Yield(float64) steering.Decision {
	p := b.Pilot()
	up := math.Abs(b.draw())
	side := math.Abs(b.draw())

	local := r3.Add(
		steering.Lerp(b.localForward, b.maxUp, up),
		steering.Lerp(b.localForward, b.maxSide, side),
	)
	dir := steering.Rotate(p.Orientation(), local)
	if b.verbose {
		slog.Info("random direction", logPilot(p), "up", up, "side", side, "direction", steering.FormatVec(dir))
	}
	return steering.DirectionDecision(dir)
}

// Describe implements steering.Behaviour.
func (b *Random) Describe(w io.Writer, depth int) {
	steering.Describef(w, depth, "Random maxUp=(%s) maxSide=(%s) localForward=(%s)",
		steering.FormatVec(b.maxUp), steering.FormatVec(b.maxSide), steering.FormatVec(b.localForward))
}
