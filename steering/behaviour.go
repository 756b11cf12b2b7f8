package steering

import (
	"fmt"
	"io"
	"strings"
)

// Behaviour is a node of a pilot's behaviour tree.
type Behaviour interface {
	// Yield evaluates the node for one tick of elapsed seconds.
	Yield(elapsed float64) Decision
	// Attach binds the node, and recursively its children, to the pilot
	// that owns the tree. It must happen before the first Yield.
	Attach(p *Pilot)
	// Describe writes a diagnostic dump indented by depth.
	Describe(w io.Writer, depth int)
}

// Parent is implemented by behaviours that own child behaviours.
type Parent interface {
	Children() []Behaviour
}

// Describef writes one indented line of a Describe dump.
func Describef(w io.Writer, depth int, format string, args ...any) {
	fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), fmt.Sprintf(format, args...))
}

// PilotBinding is embedded by behaviours to track the pilot they are
// attached to. The transition Unregistered -> Registered is one-way.
type PilotBinding struct {
	pilot *Pilot
}

// Attach binds the behaviour to p. Re-attaching to the same pilot is a no-op;
// attaching to a different pilot panics since nodes are never re-parented.
func (b *PilotBinding) Attach(p *Pilot) {
	if p == nil {
		panic("steering: attach to nil pilot")
	}
	if b.pilot != nil && b.pilot != p {
		panic(fmt.Sprintf("steering: behaviour of pilot %d attached to pilot %d", b.pilot.SN(), p.SN()))
	}
	b.pilot = p
}

// Attached reports whether Attach has been called.
func (b *PilotBinding) Attached() bool {
	return b.pilot != nil
}

// Pilot returns the owning pilot. Calling it before Attach is a loader bug
// and panics.
func (b *PilotBinding) Pilot() *Pilot {
	if b.pilot == nil {
		panic("steering: behaviour yielded before being attached to a pilot")
	}
	return b.pilot
}

// Composite is embedded by combinators. It owns an ordered, fixed set of
// children and forwards Attach to them.
type Composite struct {
	PilotBinding
	children []Behaviour
}

// NewComposite takes ownership of children. A child listed twice is rejected.
func NewComposite(children []Behaviour) (Composite, error) {
	for i, c := range children {
		if c == nil {
			return Composite{}, fmt.Errorf("child %d is nil: %w", i, ErrChildCount)
		}
		for _, other := range children[:i] {
			if other == c {
				return Composite{}, fmt.Errorf("child %d: %w", i, ErrSharedNode)
			}
		}
	}
	owned := make([]Behaviour, len(children))
	copy(owned, children)
	return Composite{children: owned}, nil
}

// Attach binds the combinator and all of its children to p.
func (c *Composite) Attach(p *Pilot) {
	c.PilotBinding.Attach(p)
	for _, child := range c.children {
		child.Attach(p)
	}
}

// Children returns the owned children in evaluation order.
func (c *Composite) Children() []Behaviour {
	return c.children
}

// DescribeChildren dumps every child one level deeper than depth.
func (c *Composite) DescribeChildren(w io.Writer, depth int) {
	for _, child := range c.children {
		child.Describe(w, depth+1)
	}
}

// checkTree walks a behaviour tree and fails if any node appears twice.
func checkTree(root Behaviour) error {
	seen := make(map[Behaviour]bool)
	var walk func(b Behaviour) error
	walk = func(b Behaviour) error {
		if seen[b] {
			return fmt.Errorf("%T: %w", b, ErrSharedNode)
		}
		seen[b] = true
		if parent, ok := b.(Parent); ok {
			for _, c := range parent.Children() {
				if err := walk(c); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return walk(root)
}
