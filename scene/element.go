// Package scene reads flock/pilot/behaviour configurations and binds them
// into a steering.DB.
//
// Two formats are understood: the whitespace-token "UFOCFGPLAIN" format and
// a YAML rendition of the same element tree. Both produce a Document that
// Bind turns into live flocks and pilots.
package scene

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/ufo/steering"
)

// Scene errors.
var (
	ErrSyntax          = errors.New("syntax error")
	ErrMissingTemplate = errors.New("missing template")
	ErrTemplateCycle   = errors.New("template cycle")
	ErrKindMismatch    = errors.New("template kind mismatch")
)

// Kind is the role an element plays in the tree.
type Kind int

const (
	KindFlock Kind = iota + 1
	KindPilot
	KindBehaviour
	KindSteerable
)

var kindNames = map[Kind]string{
	KindFlock:     "FLOCK",
	KindPilot:     "PILOT",
	KindBehaviour: "BEHAVIOUR",
	KindSteerable: "STEERABLE",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts the element keywords case-insensitively.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(s, name) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: illegal element type %q, want FLOCK, PILOT, BEHAVIOUR or STEERABLE", ErrSyntax, s)
}

// Element is one node of the configuration tree.
type Element struct {
	Kind Kind
	// Name is the registered type name, or the template name when
	// FromTemplate is set.
	Name         string
	FromTemplate bool
	Params       steering.Params
	Children     []*Element
}

// Document is a parsed configuration file.
type Document struct {
	// PluginDirs is kept for compatibility; every type is built in.
	PluginDirs []string
	Targets    map[string]r3.Vec
	Templates  map[string]*Element
	Elements   []*Element
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{
		Targets:   make(map[string]r3.Vec),
		Templates: make(map[string]*Element),
	}
}

// Describe prints the unbound element tree.
func (d *Document) Describe(w io.Writer) {
	steering.Describef(w, 0, "Document elements=%d templates=%d targets=%d", len(d.Elements), len(d.Templates), len(d.Targets))
	for _, e := range d.Elements {
		e.Describe(w, 1)
	}
	for _, name := range slices.Sorted(maps.Keys(d.Templates)) {
		steering.Describef(w, 1, "template %s", name)
		d.Templates[name].Describe(w, 2)
	}
}

// Describe prints the element and its subtree.
func (e *Element) Describe(w io.Writer, depth int) {
	how := "immediate"
	if e.FromTemplate {
		how = "fromTemplate"
	}
	steering.Describef(w, depth, "%s %s %s", how, e.Kind, e.Name)
	for _, kv := range e.Params {
		steering.Describef(w, depth+1, "%s = %s", kv.Key, kv.Value)
	}
	for _, c := range e.Children {
		c.Describe(w, depth+1)
	}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	c := NewDocument()
	c.PluginDirs = slices.Clone(d.PluginDirs)
	maps.Copy(c.Targets, d.Targets)
	for name, e := range d.Templates {
		c.Templates[name] = e.Clone()
	}
	for _, e := range d.Elements {
		c.Elements = append(c.Elements, e.Clone())
	}
	return c
}

// Lookup finds an element by path. The first segment names a template, or
// "#n" for the n-th top-level element; each further segment is a child
// index. "glider/0/1" is the second child of the first child of template
// glider.
func (d *Document) Lookup(path string) (*Element, error) {
	segs := strings.Split(path, "/")
	var e *Element
	if n, ok := strings.CutPrefix(segs[0], "#"); ok {
		i, err := strconv.Atoi(n)
		if err != nil || i < 0 || i >= len(d.Elements) {
			return nil, fmt.Errorf("path %q: no top-level element %s", path, segs[0])
		}
		e = d.Elements[i]
	} else {
		e = d.Templates[segs[0]]
		if e == nil {
			return nil, fmt.Errorf("path %q: %w", path, ErrMissingTemplate)
		}
	}
	for _, s := range segs[1:] {
		i, err := strconv.Atoi(s)
		if err != nil || i < 0 || i >= len(e.Children) {
			return nil, fmt.Errorf("path %q: %s %s has no child %s", path, e.Kind, e.Name, s)
		}
		e = e.Children[i]
	}
	return e, nil
}

// Clone returns a deep copy of the element.
func (e *Element) Clone() *Element {
	c := &Element{
		Kind:         e.Kind,
		Name:         e.Name,
		FromTemplate: e.FromTemplate,
		Params:       slices.Clone(e.Params),
	}
	for _, child := range e.Children {
		c.Children = append(c.Children, child.Clone())
	}
	return c
}

// SetParam replaces every value of key with value, appending it if absent.
func (e *Element) SetParam(key, value string) {
	e.Params = slices.DeleteFunc(e.Params, func(p steering.Param) bool { return p.Key == key })
	e.Params = append(e.Params, steering.Param{Key: key, Value: value})
}
