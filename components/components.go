// Package components defines ECS components for steered agents.
package components

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Position represents an agent's world position.
type Position struct {
	r3.Vec
}

// Velocity represents an agent's velocity in units per second.
type Velocity struct {
	r3.Vec
}

// Orientation is the agent's rotation from local to world space.
type Orientation struct {
	quat.Number
}

// Agent links an entity to the pilot steering it.
type Agent struct {
	Pilot uint32 // pilot serial number, 0 until the pilot is bound
	Flock uint32 // flock serial number, 0 for independent pilots
	VMax  float64

	// Mirror is set for entities that only shadow a pilot whose steerable
	// lives outside the world.
	Mirror bool

	// Absent is set when the last decision carried no direction.
	Absent bool
	Steps  int32
}
