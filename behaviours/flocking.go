package behaviours

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/ufo/steering"
)

// Neighbourhood selects the flockmates a flocking rule looks at.
type Neighbourhood struct {
	// Distance is the neighbour radius. Negative means the whole flock.
	Distance float64
	// Angle is accepted for configuration compatibility but not used;
	// only the distance test filters neighbours.
	Angle float64
}

func parseNeighbourhood(pp *steering.ParamParser) Neighbourhood {
	return Neighbourhood{
		Distance: pp.Float("neighbourDistance", -1),
		Angle:    pp.Float("neighbourAngle", 360),
	}
}

// each calls fn for every flockmate of p inside the neighbourhood and
// returns how many there were. It panics if p has no flock.
func (n Neighbourhood) each(p *steering.Pilot, fn func(other *steering.Pilot)) int {
	flock := p.Flock()
	if flock == nil {
		panic(fmt.Sprintf("flocking behaviour on pilot %d which has no flock", p.SN()))
	}
	self := p.Position()
	limit := n.Distance * n.Distance
	count := 0
	for other := range flock.All() {
		if other == p {
			continue
		}
		if n.Distance >= 0 && r3.Norm2(r3.Sub(other.Position(), self)) > limit {
			continue
		}
		fn(other)
		count++
	}
	return count
}

// Cohesion steers towards the centre of the neighbours.
type Cohesion struct {
	steering.PilotBinding
	Neighbourhood
}

// Yield implements steering.Behaviour.
func (b *Cohesion) Yield(float64) steering.Decision {
	p := b.Pilot()
	var sum r3.Vec
	n := b.each(p, func(o *steering.Pilot) { sum = r3.Add(sum, o.Position()) })
	if n == 0 {
		return steering.NewDecision()
	}
	return steering.DirectionDecision(r3.Sub(r3.Scale(1/float64(n), sum), p.Position()))
}

// Describe implements steering.Behaviour.
func (b *Cohesion) Describe(w io.Writer, depth int) {
	steering.Describef(w, depth, "Cohesion neighbourDistance=%g neighbourAngle=%g", b.Distance, b.Angle)
}

// Separation steers away from the neighbours.
type Separation struct {
	steering.PilotBinding
	Neighbourhood
}

// Yield implements steering.Behaviour.
func (b *Separation) Yield(float64) steering.Decision {
	p := b.Pilot()
	self := p.Position()
	var sum r3.Vec
	n := b.each(p, func(o *steering.Pilot) { sum = r3.Add(sum, r3.Sub(self, o.Position())) })
	if n == 0 {
		return steering.NewDecision()
	}
	return steering.DirectionDecision(r3.Scale(1/float64(n), sum))
}

// Describe implements steering.Behaviour.
func (b *Separation) Describe(w io.Writer, depth int) {
	steering.Describef(w, depth, "Separation neighbourDistance=%g neighbourAngle=%g", b.Distance, b.Angle)
}

// Alignment matches the mean velocity of the neighbours.
type Alignment struct {
	steering.PilotBinding
	Neighbourhood
}

// Yield implements steering.Behaviour.
func (b *Alignment) Yield(float64) steering.Decision {
	p := b.Pilot()
	var sum r3.Vec
	n := b.each(p, func(o *steering.Pilot) { sum = r3.Add(sum, o.Velocity()) })
	if n == 0 {
		return steering.NewDecision()
	}
	return steering.DirectionDecision(r3.Scale(1/float64(n), sum))
}

// Describe implements steering.Behaviour.
func (b *Alignment) Describe(w io.Writer, depth int) {
	steering.Describef(w, depth, "Alignment neighbourDistance=%g neighbourAngle=%g", b.Distance, b.Angle)
}

func newCohesion(_ *steering.Env, params steering.Params, children []steering.Behaviour) (steering.Behaviour, error) {
	n, err := neighbourhoodFromParams("Cohesion", params, children)
	if err != nil {
		return nil, err
	}
	return &Cohesion{Neighbourhood: n}, nil
}

func newSeparation(_ *steering.Env, params steering.Params, children []steering.Behaviour) (steering.Behaviour, error) {
	n, err := neighbourhoodFromParams("Separation", params, children)
	if err != nil {
		return nil, err
	}
	return &Separation{Neighbourhood: n}, nil
}

func newAlignment(_ *steering.Env, params steering.Params, children []steering.Behaviour) (steering.Behaviour, error) {
	n, err := neighbourhoodFromParams("Alignment", params, children)
	if err != nil {
		return nil, err
	}
	return &Alignment{Neighbourhood: n}, nil
}

func neighbourhoodFromParams(typeName string, params steering.Params, children []steering.Behaviour) (Neighbourhood, error) {
	leafChildren(typeName, children)
	pp := steering.NewParamParser(typeName, params)
	n := parseNeighbourhood(pp)
	return n, pp.Finish()
}
