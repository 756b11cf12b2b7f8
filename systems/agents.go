// Package systems keeps steered agents in an ECS world.
//
// Entities created through the "Entity" steerable store their state in the
// world directly. Pilots driving any other steerable are mirrored into the
// world by Sync so that every agent can be queried the same way.
package systems

import (
	"cmp"
	"io"
	"slices"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/ufo/components"
	"github.com/pthm-cable/ufo/steering"
)

// AgentStore owns the agent entities of one world.
type AgentStore struct {
	world *ecs.World

	mapper *ecs.Map4[
		components.Position,
		components.Velocity,
		components.Orientation,
		components.Agent,
	]
	filter *ecs.Filter4[
		components.Position,
		components.Velocity,
		components.Orientation,
		components.Agent,
	]
	posMap   *ecs.Map1[components.Position]
	velMap   *ecs.Map1[components.Velocity]
	oriMap   *ecs.Map1[components.Orientation]
	agentMap *ecs.Map1[components.Agent]

	mirrors map[uint32]ecs.Entity // pilot SN -> mirror entity
	grid    *SpatialGrid
}

// NewAgentStore creates a store over world.
func NewAgentStore(world *ecs.World) *AgentStore {
	return &AgentStore{
		world: world,
		mapper: ecs.NewMap4[
			components.Position,
			components.Velocity,
			components.Orientation,
			components.Agent,
		](world),
		filter: ecs.NewFilter4[
			components.Position,
			components.Velocity,
			components.Orientation,
			components.Agent,
		](world),
		posMap:   ecs.NewMap1[components.Position](world),
		velMap:   ecs.NewMap1[components.Velocity](world),
		oriMap:   ecs.NewMap1[components.Orientation](world),
		agentMap: ecs.NewMap1[components.Agent](world),
		mirrors:  make(map[uint32]ecs.Entity),
		grid:     NewSpatialGrid(1),
	}
}

// World returns the underlying ECS world.
func (s *AgentStore) World() *ecs.World { return s.world }

// Spawn creates an entity with the given state and returns it as a
// steerable.
func (s *AgentStore) Spawn(k steering.Kinematics) *Entity {
	pos := components.Position{Vec: k.Position}
	vel := components.Velocity{Vec: k.Velocity}
	ori := components.Orientation{Number: steering.NormalizeQuat(k.Orientation)}
	agent := components.Agent{VMax: k.VMax}
	e := s.mapper.NewEntity(&pos, &vel, &ori, &agent)
	return &Entity{store: s, e: e}
}

// Len returns the number of agent entities, mirrors included.
func (s *AgentStore) Len() int {
	n := 0
	query := s.filter.Query()
	for query.Next() {
		n++
	}
	return n
}

// Sync copies pilot bookkeeping into the world after a DB update. Entity
// steerables get their pilot and flock serial numbers; pilots with other
// steerables get a mirror entity, and mirrors of removed pilots are dropped.
func (s *AgentStore) Sync(db *steering.DB) {
	seen := make(map[uint32]bool, len(s.mirrors))
	for p := range db.AllPilots() {
		var flockSN uint32
		if f := p.Flock(); f != nil {
			flockSN = f.SN()
		}
		absent := !p.LastDecision().DirectionUsed

		if ent, ok := p.Steerable().(*Entity); ok && ent.store == s {
			a := s.agentMap.Get(ent.e)
			a.Pilot, a.Flock, a.Absent = p.SN(), flockSN, absent
			a.Steps++
			continue
		}

		seen[p.SN()] = true
		e, ok := s.mirrors[p.SN()]
		if !ok {
			e = s.mapper.NewEntity(
				&components.Position{},
				&components.Velocity{},
				&components.Orientation{Number: steering.Identity},
				&components.Agent{Pilot: p.SN(), Mirror: true, VMax: -1},
			)
			s.mirrors[p.SN()] = e
		}
		pos, vel, ori, a := s.mapper.Get(e)
		pos.Vec = p.Position()
		vel.Vec = p.Velocity()
		ori.Number = p.Orientation()
		a.Flock, a.Absent = flockSN, absent
		a.Steps++
		if simple, ok := p.Steerable().(*steering.Simple); ok {
			a.VMax = simple.VMax
		}
	}

	for sn, e := range s.mirrors {
		if !seen[sn] {
			s.world.RemoveEntity(e)
			delete(s.mirrors, sn)
		}
	}
}

// AgentState is a read-only copy of one bound agent.
type AgentState struct {
	Entity      ecs.Entity
	Pilot       uint32
	Flock       uint32
	Position    r3.Vec
	Velocity    r3.Vec
	Orientation quat.Number
	Absent      bool
	Mirror      bool
}

// Speed returns the length of the velocity.
func (a AgentState) Speed() float64 { return r3.Norm(a.Velocity) }

// Snapshot appends the state of every bound agent to dst, ordered by pilot
// serial number. Entities not yet bound to a pilot are skipped.
func (s *AgentStore) Snapshot(dst []AgentState) []AgentState {
	start := len(dst)
	query := s.filter.Query()
	for query.Next() {
		pos, vel, ori, agent := query.Get()
		if agent.Pilot == 0 {
			continue
		}
		dst = append(dst, AgentState{
			Entity:      query.Entity(),
			Pilot:       agent.Pilot,
			Flock:       agent.Flock,
			Position:    pos.Vec,
			Velocity:    vel.Vec,
			Orientation: ori.Number,
			Absent:      agent.Absent,
			Mirror:      agent.Mirror,
		})
	}
	slices.SortFunc(dst[start:], func(a, b AgentState) int { return cmp.Compare(a.Pilot, b.Pilot) })
	return dst
}

// Reset removes every entity of the store.
func (s *AgentStore) Reset() {
	var all []ecs.Entity
	query := s.filter.Query()
	for query.Next() {
		all = append(all, query.Entity())
	}
	for _, e := range all {
		s.world.RemoveEntity(e)
	}
	clear(s.mirrors)
}

// Entity is a steerable whose state lives in the ECS world.
type Entity struct {
	store *AgentStore
	e     ecs.Entity
}

// ID returns the ECS entity.
func (e *Entity) ID() ecs.Entity { return e.e }

// Alive reports whether the entity still exists.
func (e *Entity) Alive() bool { return e.store.world.Alive(e.e) }

func (e *Entity) kinematics() steering.Kinematics {
	pos, vel, ori, agent := e.store.mapper.Get(e.e)
	return steering.Kinematics{
		Position:    pos.Vec,
		Velocity:    vel.Vec,
		Orientation: ori.Number,
		VMax:        agent.VMax,
	}
}

// Steer implements steering.Steerable.
func (e *Entity) Steer(d steering.Decision, elapsed float64) {
	k := e.kinematics()
	k.Integrate(d, elapsed)
	pos, vel, ori, _ := e.store.mapper.Get(e.e)
	pos.Vec, vel.Vec, ori.Number = k.Position, k.Velocity, k.Orientation
}

// Position implements steering.Steerable.
func (e *Entity) Position() r3.Vec { return e.store.posMap.Get(e.e).Vec }

// Velocity implements steering.Steerable.
func (e *Entity) Velocity() r3.Vec { return e.store.velMap.Get(e.e).Vec }

// Orientation implements steering.Steerable.
func (e *Entity) Orientation() quat.Number { return e.store.oriMap.Get(e.e).Number }

// Release removes the entity from the world. It is safe to call twice.
func (e *Entity) Release() {
	if e.store.world.Alive(e.e) {
		e.store.world.RemoveEntity(e.e)
	}
}

// Describe implements steering.Steerable.
func (e *Entity) Describe(w io.Writer, depth int) {
	if !e.Alive() {
		steering.Describef(w, depth, "Entity %d released", e.e.ID())
		return
	}
	k := e.kinematics()
	steering.Describef(w, depth, "Entity %d position=(%s) velocity=(%s) orientation=(%s) VMax=%g",
		e.e.ID(), steering.FormatVec(k.Position), steering.FormatVec(k.Velocity),
		steering.FormatQuat(k.Orientation), k.VMax)
}

// RegisterSteerables registers the ECS-backed steerable as "Entity" and
// "EntitySteerable". VMax defaults to defaultVMax.
func RegisterSteerables(reg *steering.Registry, store *AgentStore, defaultVMax float64) {
	factory := func(_ *steering.Env, params steering.Params) (steering.Steerable, error) {
		pp := steering.NewParamParser("Entity", params)
		k := steering.Kinematics{
			Position:    pp.Vec3("position", r3.Vec{}),
			Velocity:    pp.Vec3("velocity", r3.Vec{}),
			Orientation: pp.Quat("orientation", steering.Identity),
			VMax:        pp.Float("VMax", defaultVMax),
		}
		if err := pp.Finish(); err != nil {
			return nil, err
		}
		return store.Spawn(k), nil
	}
	reg.RegisterSteerable("Entity", factory)
	reg.RegisterSteerable("EntitySteerable", factory)
}
