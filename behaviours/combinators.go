package behaviours

import (
	"io"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/ufo/steering"
)

// Average blends the decisions of all children. Absent directions never
// count; with SkipZero exact zero directions are ignored too.
type Average struct {
	steering.Composite
	SkipZero bool
}

// NewAverage creates an Average over children.
func NewAverage(children []steering.Behaviour, skipZero bool) (*Average, error) {
	if err := atLeastOneChild("Average", children); err != nil {
		return nil, err
	}
	c, err := steering.NewComposite(children)
	if err != nil {
		return nil, err
	}
	return &Average{Composite: c, SkipZero: skipZero}, nil
}

func newAverage(_ *steering.Env, params steering.Params, children []steering.Behaviour) (steering.Behaviour, error) {
	pp := steering.NewParamParser("Average", params)
	skip := pp.Bool("skip", false)
	if err := pp.Finish(); err != nil {
		return nil, err
	}
	return NewAverage(children, skip)
}

// Yield implements steering.Behaviour.
func (b *Average) Yield(elapsed float64) steering.Decision {
	out := steering.NewDecision()
	var sum r3.Vec
	dirs, rots := 0, 0

	for _, child := range b.Children() {
		d := child.Yield(elapsed)
		if d.DirectionUsed && !(b.SkipZero && d.Direction == (r3.Vec{})) {
			sum = r3.Add(sum, d.Direction)
			dirs++
		}
		if d.RotationUsed {
			rots++
			if rots == 1 {
				out.Rotation = d.Rotation
			} else {
				out.Rotation = steering.Slerp(out.Rotation, d.Rotation, 1/float64(rots))
			}
		}
	}

	if dirs > 0 {
		out.Direction = r3.Scale(1/float64(dirs), sum)
		out.DirectionUsed = true
	}
	out.RotationUsed = rots > 0
	return out
}

// Describe implements steering.Behaviour.
func (b *Average) Describe(w io.Writer, depth int) {
	steering.Describef(w, depth, "Average skip=%t", b.SkipZero)
	b.DescribeChildren(w, depth)
}

// Strongest passes on the decision of the child asking for the longest
// direction. The first child wins ties. If no child provides a direction
// the first child's decision is returned.
type Strongest struct {
	steering.Composite
}

// NewStrongest creates a Strongest over children.
func NewStrongest(children []steering.Behaviour) (*Strongest, error) {
	if err := atLeastOneChild("Strongest", children); err != nil {
		return nil, err
	}
	c, err := steering.NewComposite(children)
	if err != nil {
		return nil, err
	}
	return &Strongest{Composite: c}, nil
}

func newStrongest(_ *steering.Env, params steering.Params, children []steering.Behaviour) (steering.Behaviour, error) {
	if err := steering.NewParamParser("Strongest", params).Finish(); err != nil {
		return nil, err
	}
	return NewStrongest(children)
}

// Yield implements steering.Behaviour.
func (b *Strongest) Yield(elapsed float64) steering.Decision {
	var best steering.Decision
	bestLen := -1.0
	for i, child := range b.Children() {
		d := child.Yield(elapsed)
		if i == 0 {
			best = d
		}
		if !d.DirectionUsed {
			continue
		}
		if l := r3.Norm2(d.Direction); l > bestLen {
			best, bestLen = d, l
		}
	}
	return best
}

// Describe implements steering.Behaviour.
func (b *Strongest) Describe(w io.Writer, depth int) {
	steering.Describef(w, depth, "Strongest")
	b.DescribeChildren(w, depth)
}

// Scale multiplies its child's direction by a factor, optionally first
// clamping it to unit length. Vectors shorter than 1 are never stretched.
type Scale struct {
	steering.Composite
	Normalise bool
	Factor    float64
}

// NewScale wraps child. A factor of 0 is treated as 1.
func NewScale(child steering.Behaviour, normalise bool, factor float64) (*Scale, error) {
	c, err := steering.NewComposite([]steering.Behaviour{child})
	if err != nil {
		return nil, err
	}
	if factor == 0 {
		factor = 1
	}
	return &Scale{Composite: c, Normalise: normalise, Factor: factor}, nil
}

func newScale(_ *steering.Env, params steering.Params, children []steering.Behaviour) (steering.Behaviour, error) {
	if err := exactChildren("Scale", children, 1); err != nil {
		return nil, err
	}
	pp := steering.NewParamParser("Scale", params)
	normalise := pp.Bool("normalise", false)
	factor := pp.Float("factor", 1)
	if err := pp.Finish(); err != nil {
		return nil, err
	}
	return NewScale(children[0], normalise, factor)
}

// Yield implements steering.Behaviour.
func (b *Scale) Yield(elapsed float64) steering.Decision {
	d := b.Children()[0].Yield(elapsed)
	if !d.DirectionUsed {
		return d
	}
	if b.Normalise && r3.Norm2(d.Direction) > 1 {
		d.Direction, _ = steering.Normalize(d.Direction)
	}
	d.Direction = r3.Scale(b.Factor, d.Direction)
	return d
}

// Describe implements steering.Behaviour.
func (b *Scale) Describe(w io.Writer, depth int) {
	steering.Describef(w, depth, "Scale normalise=%t factor=%g", b.Normalise, b.Factor)
	b.DescribeChildren(w, depth)
}

// Inverse turns a child's direction around: the slower the child wants to
// go, the harder Inverse pushes the other way, up to VMax.
type Inverse struct {
	steering.Composite
	VMax float64
}

// NewInverse wraps child.
func NewInverse(child steering.Behaviour, vmax float64) (*Inverse, error) {
	c, err := steering.NewComposite([]steering.Behaviour{child})
	if err != nil {
		return nil, err
	}
	return &Inverse{Composite: c, VMax: vmax}, nil
}

func newInverse(_ *steering.Env, params steering.Params, children []steering.Behaviour) (steering.Behaviour, error) {
	if err := exactChildren("Inverse", children, 1); err != nil {
		return nil, err
	}
	pp := steering.NewParamParser("Inverse", params)
	vmax := pp.Float("VMax", 1)
	if err := pp.Finish(); err != nil {
		return nil, err
	}
	return NewInverse(children[0], vmax)
}

// Yield implements steering.Behaviour.
func (b *Inverse) Yield(elapsed float64) steering.Decision {
	d := b.Children()[0].Yield(elapsed)
	if !d.DirectionUsed {
		return d
	}
	unit, l := steering.Normalize(d.Direction)
	if l == 0 {
		// Standing still is the worst case: push at full speed in any direction.
		d.Direction = r3.Vec{X: b.VMax, Y: b.VMax, Z: b.VMax}
		return d
	}
	d.Direction = r3.Scale(min(0, l-b.VMax), unit)
	return d
}

// Describe implements steering.Behaviour.
func (b *Inverse) Describe(w io.Writer, depth int) {
	steering.Describef(w, depth, "Inverse VMax=%g", b.VMax)
	b.DescribeChildren(w, depth)
}

// Caching re-evaluates its child at most once per interval and repeats the
// cached decision in between. The first Yield always evaluates.
type Caching struct {
	steering.Composite
	MinInterval float64
	acc         float64
	cached      steering.Decision
}

// NewCaching wraps child.
func NewCaching(child steering.Behaviour, minInterval float64) (*Caching, error) {
	c, err := steering.NewComposite([]steering.Behaviour{child})
	if err != nil {
		return nil, err
	}
	return &Caching{
		Composite:   c,
		MinInterval: minInterval,
		acc:         minInterval,
		cached:      steering.NewDecision(),
	}, nil
}

func newCaching(_ *steering.Env, params steering.Params, children []steering.Behaviour) (steering.Behaviour, error) {
	if err := exactChildren("Caching", children, 1); err != nil {
		return nil, err
	}
	pp := steering.NewParamParser("Caching", params)
	interval := pp.Float("minInterval", 0.1)
	if err := pp.Finish(); err != nil {
		return nil, err
	}
	return NewCaching(children[0], interval)
}

// Yield implements steering.Behaviour.
func (b *Caching) Yield(elapsed float64) steering.Decision {
	b.acc += elapsed
	if b.acc >= b.MinInterval {
		// The child sees all the time that passed since it last ran.
		b.cached = b.Children()[0].Yield(b.acc)
		b.acc = 0
	}
	return b.cached
}

// Describe implements steering.Behaviour.
func (b *Caching) Describe(w io.Writer, depth int) {
	steering.Describef(w, depth, "Caching minInterval=%g", b.MinInterval)
	b.DescribeChildren(w, depth)
}
