package behaviours

import (
	"io"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/ufo/steering"
)

// FollowPilot chases another pilot picked by attribute. The followed pilot
// is looked up lazily since it usually does not exist yet when the
// behaviour is built.
type FollowPilot struct {
	steering.PilotBinding
	db               *steering.DB
	attribute        string
	value            string
	monitorForChange bool
	extrapolate      bool
	offset           r3.Vec
	verbose          bool

	followed *steering.Pilot
	trend    approachTracker
}

// FollowPilotOptions configures a FollowPilot behaviour.
type FollowPilotOptions struct {
	Attribute string
	Value     string
	// MonitorForChange re-runs the search once the followed pilot's
	// attribute no longer matches.
	MonitorForChange bool
	// Extrapolate aims where the followed pilot will be after this tick.
	Extrapolate bool
	// Offset is added in the follower's local frame.
	Offset  r3.Vec
	Verbose bool
}

// NewFollowPilot creates the behaviour searching db.
func NewFollowPilot(db *steering.DB, opts FollowPilotOptions) *FollowPilot {
	return &FollowPilot{
		db:               db,
		attribute:        opts.Attribute,
		value:            opts.Value,
		monitorForChange: opts.MonitorForChange,
		extrapolate:      opts.Extrapolate,
		offset:           opts.Offset,
		verbose:          opts.Verbose,
	}
}

func newFollowPilot(env *steering.Env, params steering.Params, children []steering.Behaviour) (steering.Behaviour, error) {
	leafChildren("FollowPilot", children)
	pp := steering.NewParamParser("FollowPilot", params)
	pp.Require("attribute")
	opts := FollowPilotOptions{
		Attribute:        pp.String("attribute", ""),
		Value:            pp.String("value", ""),
		MonitorForChange: pp.Bool("monitorForChange", false),
		Extrapolate:      pp.Bool("extrapolate", false),
		Offset:           pp.Vec3("offset", r3.Vec{}),
		Verbose:          pp.Bool("verbose", false),
	}
	if err := pp.Finish(); err != nil {
		return nil, err
	}
	var db *steering.DB
	if env != nil {
		db = env.DB
	}
	return NewFollowPilot(db, opts), nil
}

// Followed returns the pilot currently being followed, if any.
func (b *FollowPilot) Followed() *steering.Pilot { return b.followed }

func (b *FollowPilot) search(self *steering.Pilot) *steering.Pilot {
	if b.db == nil {
		return nil
	}
	for _, p := range b.db.PilotsByAttribute(b.attribute, b.value) {
		if p != self {
			return p
		}
	}
	return nil
}

// Yield implements steering.Behaviour.
func (b *FollowPilot) Yield(elapsed float64) steering.Decision {
	p := b.Pilot()

	switch {
	case b.followed == nil:
		b.followed = b.search(p)
		if b.followed != nil && b.verbose {
			slog.Info("following pilot", logPilot(p), "attribute", b.attribute, "value", b.value, "followed", b.followed.SN())
		}
	case b.monitorForChange:
		if v, _ := b.followed.Attribute(b.attribute); v != b.value {
			b.followed = b.search(p)
			if b.verbose {
				var sn uint32
				if b.followed != nil {
					sn = b.followed.SN()
				}
				slog.Info("followed pilot changed", logPilot(p), "attribute", b.attribute, "value", b.value, "followed", sn)
			}
		}
	}

	d := steering.DirectionDecision(r3.Vec{})
	if b.followed == nil {
		return d
	}

	aim := b.followed.Position()
	if b.offset != (r3.Vec{}) {
		aim = r3.Add(aim, steering.Rotate(p.Orientation(), b.offset))
	}
	if b.extrapolate {
		aim = r3.Add(aim, r3.Scale(elapsed, b.followed.Velocity()))
	}
	d.Direction = r3.Sub(aim, p.Position())
	if b.verbose {
		b.trend.observe(p, r3.Norm2(d.Direction))
	}
	return d
}

// Describe implements steering.Behaviour.
func (b *FollowPilot) Describe(w io.Writer, depth int) {
	steering.Describef(w, depth, "FollowPilot %s=%s monitorForChange=%t extrapolate=%t offset=(%s)",
		b.attribute, b.value, b.monitorForChange, b.extrapolate, steering.FormatVec(b.offset))
}
