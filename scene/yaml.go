package scene

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/ufo/steering"
)

// yamlDocument mirrors Document in YAML form.
type yamlDocument struct {
	PluginDirectories []string                `yaml:"pluginDirectories,omitempty"`
	Targets           map[string]string       `yaml:"targets,omitempty"`
	Templates         map[string]*yamlElement `yaml:"templates,omitempty"`
	Elements          []*yamlElement          `yaml:"elements"`
}

// yamlElement is one element. Exactly one of Type and Template is set.
type yamlElement struct {
	Kind     string         `yaml:"kind"`
	Type     string         `yaml:"type,omitempty"`
	Template string         `yaml:"template,omitempty"`
	Params   yamlParams     `yaml:"params,omitempty"`
	Children []*yamlElement `yaml:"children,omitempty"`
}

// yamlParams keeps mapping order. A sequence value expands to one
// parameter per item, except that a flat list of numbers is a single
// vector value.
type yamlParams steering.Params

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *yamlParams) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: params must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val := node.Content[i+1]
		switch val.Kind {
		case yaml.ScalarNode:
			*p = append(*p, steering.Param{Key: key, Value: val.Value})
		case yaml.SequenceNode:
			if isNumberList(val) {
				*p = append(*p, steering.Param{Key: key, Value: joinScalars(val)})
				continue
			}
			for _, item := range val.Content {
				switch {
				case item.Kind == yaml.ScalarNode:
					*p = append(*p, steering.Param{Key: key, Value: item.Value})
				case isNumberList(item):
					*p = append(*p, steering.Param{Key: key, Value: joinScalars(item)})
				default:
					return fmt.Errorf("line %d: parameter %q: unsupported list item", item.Line, key)
				}
			}
		default:
			return fmt.Errorf("line %d: parameter %q: unsupported value", val.Line, key)
		}
	}
	return nil
}

func isNumberList(n *yaml.Node) bool {
	if n.Kind != yaml.SequenceNode || len(n.Content) == 0 {
		return false
	}
	for _, c := range n.Content {
		if c.Kind != yaml.ScalarNode {
			return false
		}
		if tag := c.ShortTag(); tag != "!!int" && tag != "!!float" {
			return false
		}
	}
	return true
}

func joinScalars(n *yaml.Node) string {
	parts := make([]string, len(n.Content))
	for i, c := range n.Content {
		parts[i] = c.Value
	}
	return strings.Join(parts, " ")
}

// ReadYAML parses the YAML scene format.
func ReadYAML(r io.Reader) (*Document, error) {
	var yd yamlDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&yd); err != nil {
		if errors.Is(err, io.EOF) {
			return NewDocument(), nil
		}
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	doc := NewDocument()
	doc.PluginDirs = yd.PluginDirectories
	for name, v := range yd.Targets {
		pos, err := steering.ParseVec3(v)
		if err != nil {
			return nil, fmt.Errorf("target %q: %w: %v", name, ErrSyntax, err)
		}
		doc.Targets[name] = pos
	}
	for name, ye := range yd.Templates {
		e, err := ye.element()
		if err != nil {
			return nil, fmt.Errorf("template %q: %w", name, err)
		}
		doc.Templates[name] = e
	}
	for i, ye := range yd.Elements {
		e, err := ye.element()
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		doc.Elements = append(doc.Elements, e)
	}
	return doc, nil
}

func (ye *yamlElement) element() (*Element, error) {
	if ye == nil {
		return nil, fmt.Errorf("%w: empty element", ErrSyntax)
	}
	kind, err := ParseKind(ye.Kind)
	if err != nil {
		return nil, err
	}
	e := &Element{Kind: kind, Params: steering.Params(ye.Params)}
	switch {
	case ye.Type != "" && ye.Template != "":
		return nil, fmt.Errorf("%w: element sets both type %q and template %q", ErrSyntax, ye.Type, ye.Template)
	case ye.Template != "":
		e.Name = ye.Template
		e.FromTemplate = true
	case ye.Type != "":
		e.Name = ye.Type
	default:
		return nil, fmt.Errorf("%w: %s element needs a type or a template", ErrSyntax, kind)
	}
	for _, yc := range ye.Children {
		c, err := yc.element()
		if err != nil {
			return nil, err
		}
		e.Children = append(e.Children, c)
	}
	return e, nil
}

// WriteYAML renders doc in the YAML scene format. Targets are written
// with the same "x y z" notation the reader accepts.
func WriteYAML(w io.Writer, doc *Document) error {
	yd := yamlDocument{
		PluginDirectories: doc.PluginDirs,
		Targets:           make(map[string]string, len(doc.Targets)),
		Templates:         make(map[string]*yamlElement, len(doc.Templates)),
	}
	for name, pos := range doc.Targets {
		yd.Targets[name] = steering.FormatVec(pos)
	}
	for name, e := range doc.Templates {
		yd.Templates[name] = toYAML(e)
	}
	for _, e := range doc.Elements {
		yd.Elements = append(yd.Elements, toYAML(e))
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&yd); err != nil {
		return err
	}
	return enc.Close()
}

func toYAML(e *Element) *yamlElement {
	ye := &yamlElement{Kind: strings.ToLower(e.Kind.String()), Params: yamlParams(e.Params)}
	if e.FromTemplate {
		ye.Template = e.Name
	} else {
		ye.Type = e.Name
	}
	for _, c := range e.Children {
		ye.Children = append(ye.Children, toYAML(c))
	}
	return ye
}

// MarshalYAML writes params as an ordered mapping; repeated keys become a
// list under the first occurrence.
func (p yamlParams) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	index := make(map[string]*yaml.Node)
	for _, kv := range p {
		val := &yaml.Node{Kind: yaml.ScalarNode, Value: kv.Value, Tag: "!!str"}
		if prev, ok := index[kv.Key]; ok {
			if prev.Kind != yaml.SequenceNode {
				first := *prev
				*prev = yaml.Node{Kind: yaml.SequenceNode, Content: []*yaml.Node{&first}}
			}
			prev.Content = append(prev.Content, val)
			continue
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: kv.Key}, val)
		index[kv.Key] = val
	}
	return node, nil
}
