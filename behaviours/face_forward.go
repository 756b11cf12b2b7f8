package behaviours

import (
	"io"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/ufo/steering"
)

// FaceForward turns the pilot so its local forward axis points along its
// velocity. It only provides a rotation.
type FaceForward struct {
	steering.PilotBinding
	localForward r3.Vec
	verbose      bool
}

// NewFaceForward creates the behaviour. localForward is normalised.
func NewFaceForward(localForward r3.Vec, verbose bool) *FaceForward {
	fwd, l := steering.Normalize(localForward)
	if l == 0 {
		fwd = r3.Vec{Z: 1}
	}
	return &FaceForward{localForward: fwd, verbose: verbose}
}

func newFaceForward(_ *steering.Env, params steering.Params, children []steering.Behaviour) (steering.Behaviour, error) {
	leafChildren("FaceForward", children)
	pp := steering.NewParamParser("FaceForward", params)
	fwd := pp.Vec3("localForward", r3.Vec{Z: 1})
	verbose := pp.Bool("verbose", false)
	// Banking and upright blending are parsed so old scenes validate, but
	// they have no effect.
	pp.Vec3("gravitationalUp", r3.Vec{Y: 1})
	pp.Float("bankingWeight", 0)
	pp.Float("uprightWeight", 1)
	if err := pp.Finish(); err != nil {
		return nil, err
	}
	return NewFaceForward(fwd, verbose), nil
}

// Yield implements steering.Behaviour.
func (b *FaceForward) Yield(float64) steering.Decision {
	p := b.Pilot()
	vel, speed := steering.Normalize(p.Velocity())
	if speed == 0 {
		return steering.NewDecision()
	}
	rot := steering.RotationBetween(b.localForward, vel)
	if b.verbose {
		slog.Info("face forward", logPilot(p), "rotation", steering.FormatQuat(rot))
	}
	return steering.RotationDecision(rot)
}

// Describe implements steering.Behaviour.
func (b *FaceForward) Describe(w io.Writer, depth int) {
	steering.Describef(w, depth, "FaceForward localForward=(%s)", steering.FormatVec(b.localForward))
}
