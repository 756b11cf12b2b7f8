package steering

import (
	"fmt"
	"io"
	"iter"
	"slices"
)

// DB owns every flock and pilot of a simulation and drives them once per
// tick. It is not safe for concurrent use.
type DB struct {
	flocks []*Flock
	pilots []*Pilot // independent pilots only
	nextSN uint32
}

// NewDB creates an empty DB.
func NewDB() *DB {
	return &DB{}
}

func (db *DB) allocSN() uint32 {
	db.nextSN++
	return db.nextSN
}

// NewFlock creates an empty flock owned by the DB.
func (db *DB) NewFlock() *Flock {
	f := &Flock{sn: db.allocSN(), db: db}
	db.flocks = append(db.flocks, f)
	return f
}

// NewPilot registers a pilot driving s with the behaviour tree rooted at b.
// The tree is attached to the new pilot here. flock may be nil for an
// independent pilot.
func (db *DB) NewPilot(b Behaviour, s Steerable, flock *Flock, attrs map[string]string) (*Pilot, error) {
	if b == nil || s == nil {
		return nil, ErrMissingPart
	}
	if err := checkTree(b); err != nil {
		return nil, err
	}
	if flock != nil && flock.db != db {
		return nil, fmt.Errorf("flock %d belongs to another DB", flock.sn)
	}

	p := &Pilot{
		sn:        db.allocSN(),
		root:      b,
		steerable: s,
		flock:     flock,
		attrs:     make(map[string]string, len(attrs)),
		last:      NewDecision(),
	}
	for k, v := range attrs {
		p.attrs[k] = v
	}
	b.Attach(p)

	if flock != nil {
		flock.pilots = append(flock.pilots, p)
	} else {
		db.pilots = append(db.pilots, p)
	}
	return p, nil
}

// RemovePilot forgets p and releases its steerable. It is a no-op for
// pilots the DB does not know.
func (db *DB) RemovePilot(p *Pilot) {
	if !db.owns(p) {
		return
	}
	db.detach(p)
	Release(p.steerable)
}

// RemoveFlock forgets f and every pilot in it.
func (db *DB) RemoveFlock(f *Flock) {
	if f.db != db {
		return
	}
	db.flocks = slices.DeleteFunc(db.flocks, func(g *Flock) bool { return g == f })
	for _, p := range f.pilots {
		p.flock = nil
		Release(p.steerable)
	}
	f.pilots = nil
}

// detach removes p from wherever it currently lives.
func (db *DB) detach(p *Pilot) {
	if p.flock != nil {
		p.flock.drop(p)
		p.flock = nil
		return
	}
	db.pilots = slices.DeleteFunc(db.pilots, func(q *Pilot) bool { return q == p })
}

func (db *DB) owns(p *Pilot) bool {
	if p.flock != nil {
		return p.flock.db == db
	}
	return slices.Contains(db.pilots, p)
}

// Update advances the simulation by elapsed seconds: independent pilots
// first, then each flock in creation order.
func (db *DB) Update(elapsed float64) {
	for _, p := range db.pilots {
		p.Steer(elapsed)
	}
	for _, f := range db.flocks {
		f.Update(elapsed)
	}
}

// Flocks returns the flocks in creation order.
func (db *DB) Flocks() []*Flock { return db.flocks }

// Pilots returns the independent pilots in creation order.
func (db *DB) Pilots() []*Pilot { return db.pilots }

// AllPilots iterates independent pilots and then every flock's pilots, in
// the order Update steers them.
func (db *DB) AllPilots() iter.Seq[*Pilot] {
	return func(yield func(*Pilot) bool) {
		for _, p := range db.pilots {
			if !yield(p) {
				return
			}
		}
		for _, f := range db.flocks {
			for _, p := range f.pilots {
				if !yield(p) {
					return
				}
			}
		}
	}
}

// PilotCount returns the number of pilots in the DB.
func (db *DB) PilotCount() int {
	n := len(db.pilots)
	for _, f := range db.flocks {
		n += len(f.pilots)
	}
	return n
}

// FlockBySN finds a flock by serial number.
func (db *DB) FlockBySN(sn uint32) *Flock {
	for _, f := range db.flocks {
		if f.sn == sn {
			return f
		}
	}
	return nil
}

// PilotBySN finds a pilot by serial number.
func (db *DB) PilotBySN(sn uint32) *Pilot {
	for p := range db.AllPilots() {
		if p.sn == sn {
			return p
		}
	}
	return nil
}

// PilotsByAttribute returns every pilot whose attribute key equals value.
func (db *DB) PilotsByAttribute(key, value string) []*Pilot {
	var out []*Pilot
	for p := range db.AllPilots() {
		if v, ok := p.attrs[key]; ok && v == value {
			out = append(out, p)
		}
	}
	return out
}

// Describe dumps the whole DB.
func (db *DB) Describe(w io.Writer) {
	Describef(w, 0, "DB flocks=%d pilots=%d", len(db.flocks), db.PilotCount())
	for _, p := range db.pilots {
		p.Describe(w, 1)
	}
	for _, f := range db.flocks {
		f.Describe(w, 1)
	}
}

// Reset drops every flock and pilot. Serial numbers keep counting.
func (db *DB) Reset() {
	for _, p := range db.pilots {
		Release(p.steerable)
	}
	for _, f := range db.flocks {
		for _, p := range f.pilots {
			p.flock = nil
			Release(p.steerable)
		}
		f.pilots = nil
	}
	db.flocks = nil
	db.pilots = nil
}
