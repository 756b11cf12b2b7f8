package scene

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pthm-cable/ufo/steering"
)

// PlainMagic is the first token of every plain configuration file.
const PlainMagic = "UFOCFGPLAIN"

type token struct {
	text string
	line int
}

// plainParser walks the token stream of a plain configuration. Tokens are
// whitespace separated; a value starting with a double quote runs until a
// token ending in one.
type plainParser struct {
	toks []token
	pos  int
	doc  *Document
}

// ReadPlain parses a UFOCFGPLAIN document.
func ReadPlain(r io.Reader) (*Document, error) {
	toks, err := tokenize(r)
	if err != nil {
		return nil, err
	}
	p := &plainParser{toks: toks, doc: NewDocument()}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.doc, nil
}

func tokenize(r io.Reader) ([]token, error) {
	var toks []token
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		for _, f := range strings.Fields(sc.Text()) {
			toks = append(toks, token{text: f, line: line})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}
	return toks, nil
}

func (p *plainParser) errorf(format string, args ...any) error {
	line := 0
	if p.pos > 0 && p.pos <= len(p.toks) {
		line = p.toks[p.pos-1].line
	} else if len(p.toks) > 0 {
		line = p.toks[len(p.toks)-1].line
	}
	return fmt.Errorf("line %d: %w: %s", line, ErrSyntax, fmt.Sprintf(format, args...))
}

// raw returns the next token without comment handling.
func (p *plainParser) raw() (string, bool) {
	if p.pos >= len(p.toks) {
		return "", false
	}
	t := p.toks[p.pos]
	p.pos++
	return t.text, true
}

// next returns the next token, skipping /* ... */ comments.
func (p *plainParser) next() (string, bool, error) {
	for {
		t, ok := p.raw()
		if !ok || t != "/*" {
			return t, ok, nil
		}
		for {
			c, ok := p.raw()
			if !ok {
				return "", false, p.errorf("unexpected end of configuration in comment")
			}
			if c == "*/" {
				break
			}
		}
	}
}

func (p *plainParser) want() (string, error) {
	t, ok, err := p.next()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", p.errorf("unexpected end of configuration")
	}
	return t, nil
}

func (p *plainParser) expect(s string) error {
	t, err := p.want()
	if err != nil {
		return err
	}
	if t != s {
		return p.errorf("expected %q, got %q", s, t)
	}
	return nil
}

// value reads a parameter value, joining quoted strings.
func (p *plainParser) value() (string, error) {
	v, err := p.want()
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(v, `"`) {
		return v, nil
	}
	s := v
	for len(s) < 2 || !strings.HasSuffix(s, `"`) {
		t, ok := p.raw()
		if !ok {
			return "", p.errorf("unterminated string")
		}
		s += " " + t
	}
	return s[1 : len(s)-1], nil
}

func (p *plainParser) parse() error {
	magic, ok, err := p.next()
	if err != nil {
		return err
	}
	if !ok || magic != PlainMagic {
		return p.errorf("not a plain configuration, missing %s header", PlainMagic)
	}

	for {
		t, ok, err := p.next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		switch t {
		case "pluginDirectory":
			dir, err := p.value()
			if err != nil {
				return err
			}
			p.doc.PluginDirs = append(p.doc.PluginDirs, dir)
		case "immediate", "fromTemplate":
			e, err := p.element(t == "fromTemplate")
			if err != nil {
				return err
			}
			p.doc.Elements = append(p.doc.Elements, e)
		case "template":
			name, err := p.want()
			if err != nil {
				return err
			}
			e, err := p.element(false)
			if err != nil {
				return err
			}
			if _, dup := p.doc.Templates[name]; dup {
				slog.Warn("template redefined", "template", name)
			}
			p.doc.Templates[name] = e
		default:
			return p.errorf("unexpected token %q, want pluginDirectory, immediate, fromTemplate or template", t)
		}
	}
}

// element parses `TYPE name { parameters {...} children {...} }`.
func (p *plainParser) element(fromTemplate bool) (*Element, error) {
	kindTok, err := p.want()
	if err != nil {
		return nil, err
	}
	kind, err := ParseKind(kindTok)
	if err != nil {
		return nil, p.errorf("illegal element type %q", kindTok)
	}
	name, err := p.want()
	if err != nil {
		return nil, err
	}
	e := &Element{Kind: kind, Name: name, FromTemplate: fromTemplate}
	if err := p.expect("{"); err != nil {
		return nil, err
	}

	for {
		t, err := p.want()
		if err != nil {
			return nil, err
		}
		switch t {
		case "}":
			return e, nil
		case "parameters":
			if err := p.parameters(e); err != nil {
				return nil, err
			}
		case "children":
			if err := p.children(e); err != nil {
				return nil, err
			}
		default:
			return nil, p.errorf("unexpected token %q, want parameters or children", t)
		}
	}
}

func (p *plainParser) parameters(e *Element) error {
	if err := p.expect("{"); err != nil {
		return err
	}
	for {
		key, err := p.want()
		if err != nil {
			return err
		}
		if key == "}" {
			return nil
		}
		if err := p.expect("="); err != nil {
			return err
		}
		val, err := p.value()
		if err != nil {
			return err
		}
		e.Params = append(e.Params, steering.Param{Key: key, Value: val})
	}
}

func (p *plainParser) children(e *Element) error {
	if err := p.expect("{"); err != nil {
		return err
	}
	for {
		t, err := p.want()
		if err != nil {
			return err
		}
		switch t {
		case "}":
			return nil
		case "immediate", "fromTemplate":
			c, err := p.element(t == "fromTemplate")
			if err != nil {
				return err
			}
			e.Children = append(e.Children, c)
		case "template":
			// Templates are top-level only; parse and drop.
			if _, err := p.want(); err != nil {
				return err
			}
			if _, err := p.element(false); err != nil {
				return err
			}
			slog.Warn("template element cannot be a child, ignoring it", "parent", e.Name)
		default:
			return p.errorf("unexpected token %q, want immediate, fromTemplate or template", t)
		}
	}
}
