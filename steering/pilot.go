package steering

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Steerable owns an agent's kinematic state and turns decisions into motion.
type Steerable interface {
	Steer(d Decision, elapsed float64)
	Position() r3.Vec
	Velocity() r3.Vec
	Orientation() quat.Number
	Describe(w io.Writer, depth int)
}

// Releaser is implemented by steerables holding external resources. The DB
// calls Release when the owning pilot is removed.
type Releaser interface {
	Release()
}

// Release frees s if it holds external resources.
func Release(s Steerable) {
	if r, ok := s.(Releaser); ok {
		r.Release()
	}
}

// Pilot is one steered agent: a behaviour tree driving a steerable.
// Pilots are created by the DB, which assigns the serial number and attaches
// the behaviour tree.
type Pilot struct {
	sn        uint32
	root      Behaviour
	steerable Steerable
	flock     *Flock // not owned; nil for independent pilots
	attrs     map[string]string
	last      Decision
}

// SN returns the pilot's serial number, unique within its DB.
func (p *Pilot) SN() uint32 { return p.sn }

// Flock returns the flock the pilot belongs to, or nil.
func (p *Pilot) Flock() *Flock { return p.flock }

// Behaviour returns the root of the pilot's behaviour tree.
func (p *Pilot) Behaviour() Behaviour { return p.root }

// Steerable returns the pilot's steerable.
func (p *Pilot) Steerable() Steerable { return p.steerable }

// Position returns the steerable's current position.
func (p *Pilot) Position() r3.Vec { return p.steerable.Position() }

// Velocity returns the steerable's current velocity.
func (p *Pilot) Velocity() r3.Vec { return p.steerable.Velocity() }

// Orientation returns the steerable's current orientation.
func (p *Pilot) Orientation() quat.Number { return p.steerable.Orientation() }

// WorldPosition makes a pilot usable as a Target.
func (p *Pilot) WorldPosition() r3.Vec { return p.steerable.Position() }

// LastDecision returns the decision produced by the most recent Steer.
func (p *Pilot) LastDecision() Decision { return p.last }

// Attribute returns the value of a named attribute.
func (p *Pilot) Attribute(key string) (string, bool) {
	v, ok := p.attrs[key]
	return v, ok
}

// SetAttribute sets or replaces a named attribute.
func (p *Pilot) SetAttribute(key, value string) {
	if p.attrs == nil {
		p.attrs = make(map[string]string)
	}
	p.attrs[key] = value
}

// Steer evaluates the behaviour tree for one tick and hands the result to
// the steerable.
func (p *Pilot) Steer(elapsed float64) Decision {
	d := p.root.Yield(elapsed)
	p.last = d
	p.steerable.Steer(d, elapsed)
	return d
}

// Describe dumps the pilot, its attributes, its steerable and its behaviour tree.
func (p *Pilot) Describe(w io.Writer, depth int) {
	Describef(w, depth, "Pilot sn=%d", p.sn)
	for _, k := range slices.Sorted(maps.Keys(p.attrs)) {
		Describef(w, depth+1, "%s = %s", k, p.attrs[k])
	}
	p.steerable.Describe(w, depth+1)
	p.root.Describe(w, depth+1)
}

func (p *Pilot) String() string {
	return fmt.Sprintf("Pilot(%d)", p.sn)
}
