package steering

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

// fixed always yields the same decision.
type fixed struct {
	PilotBinding
	d     Decision
	calls int
}

func (f *fixed) Yield(float64) Decision {
	f.Pilot()
	f.calls++
	return f.d
}

func (f *fixed) Describe(w io.Writer, depth int) { Describef(w, depth, "fixed") }

type pair struct {
	Composite
}

func (p *pair) Yield(dt float64) Decision { return p.Children()[0].Yield(dt) }

func (p *pair) Describe(w io.Writer, depth int) {
	Describef(w, depth, "pair")
	p.DescribeChildren(w, depth)
}

func TestNewPilotAttaches(t *testing.T) {
	db := NewDB()
	b := &fixed{d: DirectionDecision(r3.Vec{X: 1})}
	p, err := db.NewPilot(b, NewSimple(r3.Vec{}), nil, map[string]string{"name": "a"})
	if err != nil {
		t.Fatalf("NewPilot: %v", err)
	}
	if !b.Attached() || b.Pilot() != p {
		t.Fatal("behaviour not attached to its pilot")
	}
	if v, _ := p.Attribute("name"); v != "a" {
		t.Errorf("attribute name = %q", v)
	}
}

func TestNewPilotRejectsSharedNode(t *testing.T) {
	db := NewDB()
	leaf := &fixed{}
	root := &pair{Composite{children: []Behaviour{leaf, &pair{Composite{children: []Behaviour{leaf}}}}}}
	if _, err := db.NewPilot(root, NewSimple(r3.Vec{}), nil, nil); !errors.Is(err, ErrSharedNode) {
		t.Errorf("NewPilot with shared node = %v, want ErrSharedNode", err)
	}
}

func TestNewPilotMissingParts(t *testing.T) {
	db := NewDB()
	if _, err := db.NewPilot(nil, NewSimple(r3.Vec{}), nil, nil); !errors.Is(err, ErrMissingPart) {
		t.Errorf("nil behaviour: %v", err)
	}
	if _, err := db.NewPilot(&fixed{}, nil, nil, nil); !errors.Is(err, ErrMissingPart) {
		t.Errorf("nil steerable: %v", err)
	}
}

func TestAttachToSecondPilotPanics(t *testing.T) {
	db := NewDB()
	b := &fixed{}
	if _, err := db.NewPilot(b, NewSimple(r3.Vec{}), nil, nil); err != nil {
		t.Fatal(err)
	}
	defer func() {
		if recover() == nil {
			t.Error("expected panic when reusing a behaviour for a second pilot")
		}
	}()
	// The tree check passes for a lone node, so Attach is what catches it.
	_, _ = db.NewPilot(b, NewSimple(r3.Vec{}), nil, nil)
}

func TestYieldBeforeAttachPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	(&fixed{}).Yield(0.1)
}

func TestUpdateOrder(t *testing.T) {
	db := NewDB()
	var order []uint32
	rec := func(p **Pilot) Behaviour {
		return &recorder{fn: func() { order = append(order, (*p).SN()) }}
	}

	var flockPilot, loner *Pilot
	f := db.NewFlock()
	var err error
	flockPilot, err = db.NewPilot(rec(&flockPilot), NewSimple(r3.Vec{}), f, nil)
	if err != nil {
		t.Fatal(err)
	}
	loner, err = db.NewPilot(rec(&loner), NewSimple(r3.Vec{}), nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	db.Update(0.1)
	if len(order) != 2 || order[0] != loner.SN() || order[1] != flockPilot.SN() {
		t.Errorf("update order = %v, want independent pilot %d first", order, loner.SN())
	}
}

type recorder struct {
	PilotBinding
	fn func()
}

func (r *recorder) Yield(float64) Decision {
	r.fn()
	return NewDecision()
}

func (r *recorder) Describe(w io.Writer, depth int) { Describef(w, depth, "recorder") }

func TestLookups(t *testing.T) {
	db := NewDB()
	f := db.NewFlock()
	a, _ := db.NewPilot(&fixed{}, NewSimple(r3.Vec{}), f, map[string]string{"role": "leader"})
	b, _ := db.NewPilot(&fixed{}, NewSimple(r3.Vec{}), nil, map[string]string{"role": "leader"})
	c, _ := db.NewPilot(&fixed{}, NewSimple(r3.Vec{}), f, map[string]string{"role": "wing"})

	if db.PilotBySN(c.SN()) != c {
		t.Error("PilotBySN(c) failed")
	}
	if db.FlockBySN(f.SN()) != f {
		t.Error("FlockBySN failed")
	}
	if db.PilotBySN(9999) != nil {
		t.Error("PilotBySN(unknown) should be nil")
	}
	leaders := db.PilotsByAttribute("role", "leader")
	if len(leaders) != 2 || leaders[0] != b || leaders[1] != a {
		t.Errorf("PilotsByAttribute = %v, want [b a]", leaders)
	}
	if db.PilotCount() != 3 {
		t.Errorf("PilotCount = %d", db.PilotCount())
	}
}

func TestFlockMembership(t *testing.T) {
	db := NewDB()
	f := db.NewFlock()
	p, _ := db.NewPilot(&fixed{}, NewSimple(r3.Vec{}), nil, nil)

	if err := f.Add(p); err != nil {
		t.Fatal(err)
	}
	if f.Len() != 1 || p.Flock() != f || len(db.Pilots()) != 0 {
		t.Fatal("Add did not move pilot into flock")
	}

	f.Remove(p)
	if f.Len() != 0 || p.Flock() != nil || len(db.Pilots()) != 1 {
		t.Fatal("Remove did not make pilot independent")
	}

	other := NewDB()
	if err := other.NewFlock().Add(p); err == nil {
		t.Error("adding a pilot from another DB should fail")
	}

	db.RemovePilot(p)
	if db.PilotCount() != 0 {
		t.Error("RemovePilot left pilot behind")
	}
}

func TestRemoveFlock(t *testing.T) {
	db := NewDB()
	f := db.NewFlock()
	_, _ = db.NewPilot(&fixed{}, NewSimple(r3.Vec{}), f, nil)
	db.RemoveFlock(f)
	if len(db.Flocks()) != 0 || db.PilotCount() != 0 {
		t.Error("RemoveFlock should drop the flock and its pilots")
	}
}

func TestDescribe(t *testing.T) {
	db := NewDB()
	f := db.NewFlock()
	_, _ = db.NewPilot(&pair{Composite{children: []Behaviour{&fixed{}}}}, NewSimple(r3.Vec{}), f, map[string]string{"name": "x"})

	var buf bytes.Buffer
	db.Describe(&buf)
	out := buf.String()
	for _, want := range []string{"DB flocks=1 pilots=1", "Flock sn=", "name = x", "pair", "    fixed"} {
		if !strings.Contains(out, want) {
			t.Errorf("Describe output missing %q:\n%s", want, out)
		}
	}
}

func TestPilotSteerRecordsDecision(t *testing.T) {
	db := NewDB()
	s := NewSimple(r3.Vec{})
	p, _ := db.NewPilot(&fixed{d: DirectionDecision(r3.Vec{X: 2})}, s, nil, nil)

	p.Steer(0.5)
	if !p.LastDecision().DirectionUsed {
		t.Error("LastDecision not recorded")
	}
	// First tick moves with the previous (zero) velocity.
	if s.Position() != (r3.Vec{}) || s.Velocity() != (r3.Vec{X: 2}) {
		t.Errorf("after first tick pos=%v vel=%v", s.Position(), s.Velocity())
	}
	p.Steer(0.5)
	if s.Position() != (r3.Vec{X: 1}) {
		t.Errorf("after second tick pos=%v, want (1,0,0)", s.Position())
	}
}
