package telemetry

import "github.com/pthm-cable/ufo/systems"

// TrajectoryRow is one agent at one sampled tick.
type TrajectoryRow struct {
	RunID   string  `csv:"run_id"`
	Tick    int32   `csv:"tick"`
	SimTime float64 `csv:"sim_time"`
	Pilot   uint32  `csv:"pilot"`
	Flock   uint32  `csv:"flock"`
	X       float64 `csv:"x"`
	Y       float64 `csv:"y"`
	Z       float64 `csv:"z"`
	VX      float64 `csv:"vx"`
	VY      float64 `csv:"vy"`
	VZ      float64 `csv:"vz"`
	Speed   float64 `csv:"speed"`
	Absent  bool    `csv:"absent"`
}

// TrajectoryRows converts a snapshot into rows, appending to dst.
func TrajectoryRows(dst []TrajectoryRow, tick int32, simTime float64, states []systems.AgentState) []TrajectoryRow {
	for _, s := range states {
		dst = append(dst, TrajectoryRow{
			Tick:    tick,
			SimTime: simTime,
			Pilot:   s.Pilot,
			Flock:   s.Flock,
			X:       s.Position.X,
			Y:       s.Position.Y,
			Z:       s.Position.Z,
			VX:      s.Velocity.X,
			VY:      s.Velocity.Y,
			VZ:      s.Velocity.Z,
			Speed:   s.Speed(),
			Absent:  s.Absent,
		})
	}
	return dst
}
