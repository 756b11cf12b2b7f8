// Package behaviours holds the leaf and combinator behaviours of the
// steering engine together with their parameter-driven factories.
package behaviours

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/ufo/steering"
)

// factories lists every behaviour type by its short name. Each is also
// registered with a "Behaviour" suffix so scene files written against the
// plugin class names keep working.
var factories = map[string]steering.BehaviourFactory{
	"FixedVelocity":   newFixedVelocity,
	"FollowWaypoints": newFollowWaypoints,
	"FollowEntity":    newFollowEntity,
	"FollowPilot":     newFollowPilot,
	"FaceForward":     newFaceForward,
	"Cohesion":        newCohesion,
	"Separation":      newSeparation,
	"Alignment":       newAlignment,
	"Random":          newRandom,
	"Average":         newAverage,
	"Strongest":       newStrongest,
	"Scale":           newScale,
	"Inverse":         newInverse,
	"Caching":         newCaching,
}

// Register adds every behaviour in this package to reg.
func Register(reg *steering.Registry) {
	for name, f := range factories {
		reg.RegisterBehaviour(name, f)
		reg.RegisterBehaviour(name+"Behaviour", f)
	}
}

// leafChildren warns when a leaf behaviour is configured with children.
// The children are dropped.
func leafChildren(typeName string, children []steering.Behaviour) {
	if len(children) > 0 {
		slog.Warn("behaviour takes no children, ignoring them", "type", typeName, "children", len(children))
	}
}

// exactChildren fails unless exactly n children were given.
func exactChildren(typeName string, children []steering.Behaviour, n int) error {
	if len(children) != n {
		return fmt.Errorf("%s: want %d child, got %d: %w", typeName, n, len(children), steering.ErrChildCount)
	}
	return nil
}

// atLeastOneChild fails on an empty child list.
func atLeastOneChild(typeName string, children []steering.Behaviour) error {
	if len(children) == 0 {
		return fmt.Errorf("%s: want at least 1 child: %w", typeName, steering.ErrChildCount)
	}
	return nil
}

// logPilot is the slog attribute verbose behaviours tag their output with.
func logPilot(p *steering.Pilot) slog.Attr {
	return slog.Uint64("pilot", uint64(p.SN()))
}
