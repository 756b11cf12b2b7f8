package steering

import (
	"fmt"
	"io"
	"iter"
	"slices"
)

// Flock is an ordered group of pilots. Flocking behaviours iterate it to find
// neighbours, so the order is stable and membership must not change while
// the DB is updating.
type Flock struct {
	sn     uint32
	db     *DB
	pilots []*Pilot
}

// SN returns the flock's serial number.
func (f *Flock) SN() uint32 { return f.sn }

// Len returns the number of pilots in the flock.
func (f *Flock) Len() int { return len(f.pilots) }

// At returns the i-th pilot.
func (f *Flock) At(i int) *Pilot { return f.pilots[i] }

// All iterates the flock's pilots in order.
func (f *Flock) All() iter.Seq[*Pilot] {
	return slices.Values(f.pilots)
}

// Add moves p into this flock. p must belong to the same DB.
func (f *Flock) Add(p *Pilot) error {
	if p.flock == f {
		return nil
	}
	if !f.db.owns(p) {
		return fmt.Errorf("pilot %d is not registered with this flock's DB", p.sn)
	}
	f.db.detach(p)
	f.pilots = append(f.pilots, p)
	p.flock = f
	return nil
}

// Remove takes p out of the flock. The pilot stays in the DB as an
// independent pilot.
func (f *Flock) Remove(p *Pilot) {
	if p.flock != f {
		return
	}
	f.db.detach(p)
	f.db.pilots = append(f.db.pilots, p)
}

// Update steers every pilot in order.
func (f *Flock) Update(elapsed float64) {
	for _, p := range f.pilots {
		p.Steer(elapsed)
	}
}

// Describe dumps the flock and all its pilots.
func (f *Flock) Describe(w io.Writer, depth int) {
	Describef(w, depth, "Flock sn=%d pilots=%d", f.sn, len(f.pilots))
	for _, p := range f.pilots {
		p.Describe(w, depth+1)
	}
}

func (f *Flock) drop(p *Pilot) {
	f.pilots = slices.DeleteFunc(f.pilots, func(q *Pilot) bool { return q == p })
}
