package steering

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

//go:generate go tool mockgen -destination=./mocks/env_mock.go -package=mocks . Rand,Target

// Rand is the random source used by stochastic behaviours.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
}

// Target is anything with a position in world coordinates that a behaviour
// can steer towards.
type Target interface {
	WorldPosition() r3.Vec
}

// PointTarget is a fixed world position.
type PointTarget r3.Vec

// WorldPosition implements Target.
func (p PointTarget) WorldPosition() r3.Vec { return r3.Vec(p) }

// Env is what factories get to see of the world they are building into.
type Env struct {
	DB      *DB
	Rand    Rand
	Targets map[string]Target
}

// Factory signatures, one per element kind.
type (
	BehaviourFactory func(env *Env, params Params, children []Behaviour) (Behaviour, error)
	SteerableFactory func(env *Env, params Params) (Steerable, error)
	PilotFactory     func(env *Env, params Params, b Behaviour, s Steerable, flock *Flock) (*Pilot, error)
	FlockFactory     func(env *Env, params Params) (*Flock, error)
)

// Registry maps type names to factories. It replaces dynamic plugin loading:
// every type is registered up front by the packages that implement them.
type Registry struct {
	behaviours map[string]BehaviourFactory
	steerables map[string]SteerableFactory
	pilots     map[string]PilotFactory
	flocks     map[string]FlockFactory
}

// NewRegistry creates a registry holding the builtin Pilot, Flock and
// Simple types.
func NewRegistry() *Registry {
	r := &Registry{
		behaviours: make(map[string]BehaviourFactory),
		steerables: make(map[string]SteerableFactory),
		pilots:     make(map[string]PilotFactory),
		flocks:     make(map[string]FlockFactory),
	}
	r.registerDefaults()
	return r
}

func (r *Registry) registerDefaults() {
	r.RegisterPilot("Pilot", newPilotFromParams)
	r.RegisterFlock("Flock", newFlockFromParams)
	r.RegisterSteerable("Simple", NewSimpleFromParams)
}

// RegisterBehaviour adds or replaces a behaviour factory.
func (r *Registry) RegisterBehaviour(name string, f BehaviourFactory) {
	r.behaviours[name] = f
}

// RegisterSteerable adds or replaces a steerable factory.
func (r *Registry) RegisterSteerable(name string, f SteerableFactory) {
	r.steerables[name] = f
}

// RegisterPilot adds or replaces a pilot factory.
func (r *Registry) RegisterPilot(name string, f PilotFactory) {
	r.pilots[name] = f
}

// RegisterFlock adds or replaces a flock factory.
func (r *Registry) RegisterFlock(name string, f FlockFactory) {
	r.flocks[name] = f
}

// Behaviour returns the factory for name.
func (r *Registry) Behaviour(name string) (BehaviourFactory, error) {
	f, ok := r.behaviours[name]
	if !ok {
		return nil, fmt.Errorf("behaviour %q: %w", name, ErrUnknownType)
	}
	return f, nil
}

// Steerable returns the factory for name.
func (r *Registry) Steerable(name string) (SteerableFactory, error) {
	f, ok := r.steerables[name]
	if !ok {
		return nil, fmt.Errorf("steerable %q: %w", name, ErrUnknownType)
	}
	return f, nil
}

// Pilot returns the factory for name.
func (r *Registry) Pilot(name string) (PilotFactory, error) {
	f, ok := r.pilots[name]
	if !ok {
		return nil, fmt.Errorf("pilot %q: %w", name, ErrUnknownType)
	}
	return f, nil
}

// Flock returns the factory for name.
func (r *Registry) Flock(name string) (FlockFactory, error) {
	f, ok := r.flocks[name]
	if !ok {
		return nil, fmt.Errorf("flock %q: %w", name, ErrUnknownType)
	}
	return f, nil
}

// Names lists every registered type, grouped by kind, for diagnostics.
func (r *Registry) Names() string {
	var sb strings.Builder
	write := func(kind string, names []string) {
		fmt.Fprintf(&sb, "%s: %s\n", kind, strings.Join(names, ", "))
	}
	write("flocks", slices.Sorted(maps.Keys(r.flocks)))
	write("pilots", slices.Sorted(maps.Keys(r.pilots)))
	write("behaviours", slices.Sorted(maps.Keys(r.behaviours)))
	write("steerables", slices.Sorted(maps.Keys(r.steerables)))
	return sb.String()
}

// newPilotFromParams is the builtin Pilot: its parameters become attributes.
func newPilotFromParams(env *Env, params Params, b Behaviour, s Steerable, flock *Flock) (*Pilot, error) {
	return env.DB.NewPilot(b, s, flock, params.Map())
}

func newFlockFromParams(env *Env, params Params) (*Flock, error) {
	pp := NewParamParser("Flock", params)
	if err := pp.Finish(); err != nil {
		return nil, err
	}
	return env.DB.NewFlock(), nil
}
