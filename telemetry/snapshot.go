package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/ufo/systems"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the agent state of a run at one tick.
type Snapshot struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id"`
	Seed    int64  `json:"seed"`

	Tick    int32   `json:"tick"`
	SimTime float64 `json:"sim_time"`

	Agents []AgentJSON `json:"agents"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// AgentJSON is one agent's state.
type AgentJSON struct {
	Pilot       uint32     `json:"pilot"`
	Flock       uint32     `json:"flock,omitempty"`
	Position    [3]float64 `json:"position"`
	Velocity    [3]float64 `json:"velocity"`
	Orientation [4]float64 `json:"orientation"` // w x y z
	Absent      bool       `json:"absent,omitempty"`
	Mirror      bool       `json:"mirror,omitempty"`
}

// NewSnapshot builds a snapshot from the agent states of one tick.
func NewSnapshot(runID string, seed int64, tick int32, simTime float64, states []systems.AgentState) *Snapshot {
	s := &Snapshot{
		Version: SnapshotVersion,
		RunID:   runID,
		Seed:    seed,
		Tick:    tick,
		SimTime: simTime,
		Agents:  make([]AgentJSON, len(states)),
	}
	for i, a := range states {
		q := a.Orientation
		s.Agents[i] = AgentJSON{
			Pilot:       a.Pilot,
			Flock:       a.Flock,
			Position:    [3]float64{a.Position.X, a.Position.Y, a.Position.Z},
			Velocity:    [3]float64{a.Velocity.X, a.Velocity.Y, a.Velocity.Z},
			Orientation: [4]float64{q.Real, q.Imag, q.Jmag, q.Kmag},
			Absent:      a.Absent,
			Mirror:      a.Mirror,
		}
	}
	return s
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
