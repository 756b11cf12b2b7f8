package scene

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/pthm-cable/ufo/steering"
)

// Result lists what a Bind call added to the DB.
type Result struct {
	Flocks []*steering.Flock
	Pilots []*steering.Pilot // independent pilots only
}

// binder turns elements into live objects. active holds the templates being
// expanded on the current path so self-referencing templates are caught.
type binder struct {
	reg       *steering.Registry
	env       *steering.Env
	templates map[string]*Element
	active    map[string]bool
	result    Result
}

// resolved is an element with its template chain flattened.
type resolved struct {
	kind      Kind
	typeName  string
	params    steering.Params
	children  []*Element
	templates []string
}

// Bind builds every top-level flock and pilot of doc into env.DB. Document
// targets are added to env.Targets. If anything fails, everything this call
// created is removed again and the first error is returned.
func Bind(doc *Document, reg *steering.Registry, env *steering.Env) (*Result, error) {
	if env == nil || env.DB == nil {
		return nil, errors.New("scene: bind needs an environment with a DB")
	}
	targets := make(map[string]steering.Target, len(env.Targets)+len(doc.Targets))
	maps.Copy(targets, env.Targets)
	for name, pos := range doc.Targets {
		targets[name] = steering.PointTarget(pos)
	}
	env.Targets = targets

	b := &binder{
		reg:       reg,
		env:       env,
		templates: doc.Templates,
		active:    make(map[string]bool),
	}
	for _, dir := range doc.PluginDirs {
		slog.Debug("ignoring plugin directory, all types are built in", "dir", dir)
	}

	for _, e := range doc.Elements {
		var err error
		switch e.Kind {
		case KindFlock:
			var f *steering.Flock
			f, err = b.flock(e)
			if f != nil {
				b.result.Flocks = append(b.result.Flocks, f)
			}
		case KindPilot:
			var p *steering.Pilot
			p, err = b.pilot(e, nil)
			if p != nil {
				b.result.Pilots = append(b.result.Pilots, p)
			}
		default:
			slog.Warn("illegal element type at top level, ignoring it", "kind", e.Kind, "name", e.Name)
		}
		if err != nil {
			b.cleanup()
			return nil, err
		}
	}
	return &b.result, nil
}

func (b *binder) cleanup() {
	for _, p := range b.result.Pilots {
		b.env.DB.RemovePilot(p)
	}
	for _, f := range b.result.Flocks {
		b.env.DB.RemoveFlock(f)
	}
}

// resolve follows the template chain of e. Parameters are ordered from the
// deepest template to e itself so the element's own values win; children
// are e's own followed by each template's.
func (b *binder) resolve(e *Element) (resolved, error) {
	r := resolved{kind: e.Kind}
	chain := []*Element{e}
	seen := make(map[string]bool)
	cur := e
	for cur.FromTemplate {
		name := cur.Name
		if seen[name] || b.active[name] {
			return r, fmt.Errorf("template %q: %w", name, ErrTemplateCycle)
		}
		seen[name] = true
		tpl, ok := b.templates[name]
		if !ok || tpl == nil {
			return r, fmt.Errorf("%s %q: %w", e.Kind, name, ErrMissingTemplate)
		}
		if tpl.Kind != e.Kind {
			return r, fmt.Errorf("template %q is a %s, used as %s: %w", name, tpl.Kind, e.Kind, ErrKindMismatch)
		}
		r.templates = append(r.templates, name)
		chain = append(chain, tpl)
		cur = tpl
	}
	r.typeName = cur.Name

	for i := len(chain) - 1; i >= 0; i-- {
		r.params = append(r.params, chain[i].Params...)
	}
	for _, el := range chain {
		r.children = append(r.children, el.Children...)
	}
	return r, nil
}

// enter marks r's templates active while its children are bound.
func (b *binder) enter(r resolved) func() {
	for _, t := range r.templates {
		b.active[t] = true
	}
	return func() {
		for _, t := range r.templates {
			delete(b.active, t)
		}
	}
}

func (b *binder) flock(e *Element) (*steering.Flock, error) {
	r, err := b.resolve(e)
	if err != nil {
		return nil, err
	}
	factory, err := b.reg.Flock(r.typeName)
	if err != nil {
		return nil, err
	}
	f, err := factory(b.env, r.params)
	if err != nil {
		return nil, fmt.Errorf("flock %s: %w", r.typeName, err)
	}

	leave := b.enter(r)
	defer leave()
	for _, c := range r.children {
		if c.Kind != KindPilot {
			slog.Warn("illegal child type for flock, ignoring it", "flock", r.typeName, "kind", c.Kind, "name", c.Name)
			continue
		}
		if _, err := b.pilot(c, f); err != nil {
			b.env.DB.RemoveFlock(f)
			return nil, err
		}
	}
	return f, nil
}

func (b *binder) pilot(e *Element, flock *steering.Flock) (*steering.Pilot, error) {
	r, err := b.resolve(e)
	if err != nil {
		return nil, err
	}
	factory, err := b.reg.Pilot(r.typeName)
	if err != nil {
		return nil, err
	}

	leave := b.enter(r)
	defer leave()

	var (
		behaviour steering.Behaviour
		steerable steering.Steerable
	)
	fail := func(err error) (*steering.Pilot, error) {
		if steerable != nil {
			steering.Release(steerable)
		}
		return nil, err
	}
	for _, c := range r.children {
		switch c.Kind {
		case KindBehaviour:
			if behaviour != nil {
				slog.Warn("superfluous behaviour for pilot, ignoring it", "pilot", r.typeName, "behaviour", c.Name)
				continue
			}
			if behaviour, err = b.behaviour(c); err != nil {
				return fail(err)
			}
		case KindSteerable:
			if steerable != nil {
				slog.Warn("superfluous steerable for pilot, ignoring it", "pilot", r.typeName, "steerable", c.Name)
				continue
			}
			if steerable, err = b.steerable(c); err != nil {
				return fail(err)
			}
		default:
			slog.Warn("illegal child type for pilot, ignoring it", "pilot", r.typeName, "kind", c.Kind, "name", c.Name)
		}
	}
	if behaviour == nil || steerable == nil {
		return fail(fmt.Errorf("pilot %s: behaviour=%t steerable=%t: %w",
			r.typeName, behaviour != nil, steerable != nil, steering.ErrMissingPart))
	}

	p, err := factory(b.env, r.params, behaviour, steerable, flock)
	if err != nil {
		return fail(fmt.Errorf("pilot %s: %w", r.typeName, err))
	}
	return p, nil
}

func (b *binder) behaviour(e *Element) (steering.Behaviour, error) {
	r, err := b.resolve(e)
	if err != nil {
		return nil, err
	}
	factory, err := b.reg.Behaviour(r.typeName)
	if err != nil {
		return nil, err
	}

	leave := b.enter(r)
	defer leave()
	var children []steering.Behaviour
	for _, c := range r.children {
		if c.Kind != KindBehaviour {
			slog.Warn("illegal child type for behaviour, ignoring it", "behaviour", r.typeName, "kind", c.Kind, "name", c.Name)
			continue
		}
		child, err := b.behaviour(c)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	beh, err := factory(b.env, r.params, children)
	if err != nil {
		return nil, fmt.Errorf("behaviour %s: %w", r.typeName, err)
	}
	return beh, nil
}

func (b *binder) steerable(e *Element) (steering.Steerable, error) {
	r, err := b.resolve(e)
	if err != nil {
		return nil, err
	}
	factory, err := b.reg.Steerable(r.typeName)
	if err != nil {
		return nil, err
	}
	if len(r.children) > 0 {
		slog.Warn("steerable takes no children, ignoring them", "steerable", r.typeName, "children", len(r.children))
	}
	s, err := factory(b.env, r.params)
	if err != nil {
		return nil, fmt.Errorf("steerable %s: %w", r.typeName, err)
	}
	return s, nil
}
