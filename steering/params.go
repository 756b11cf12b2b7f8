package steering

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Param is one key/value pair from a configuration element.
type Param struct {
	Key   string
	Value string
}

// Params is an ordered parameter list. Keys may repeat (waypoints do).
type Params []Param

// Get returns the value of the last occurrence of key.
func (p Params) Get(key string) (string, bool) {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].Key == key {
			return p[i].Value, true
		}
	}
	return "", false
}

// All returns every value for key in order.
func (p Params) All(key string) []string {
	var out []string
	for _, kv := range p {
		if kv.Key == key {
			out = append(out, kv.Value)
		}
	}
	return out
}

// Map flattens the list, last occurrence winning.
func (p Params) Map() map[string]string {
	m := make(map[string]string, len(p))
	for _, kv := range p {
		m[kv.Key] = kv.Value
	}
	return m
}

// ParamParser reads typed values out of Params for one factory. It records
// which keys were consumed so Finish can warn about the rest, and collects
// malformed values instead of failing on the first.
type ParamParser struct {
	typeName string
	params   Params
	used     map[string]bool
	errs     []error
}

// NewParamParser starts parsing params for the named type.
func NewParamParser(typeName string, params Params) *ParamParser {
	return &ParamParser{typeName: typeName, params: params, used: make(map[string]bool)}
}

func (pp *ParamParser) lookup(key string) (string, bool) {
	pp.used[key] = true
	return pp.params.Get(key)
}

func (pp *ParamParser) fail(key, value string, err error) {
	pp.errs = append(pp.errs, fmt.Errorf("%s: parameter %q = %q: %w: %v", pp.typeName, key, value, ErrInvalidParameter, err))
}

// Has reports whether key is present, marking it as consumed.
func (pp *ParamParser) Has(key string) bool {
	_, ok := pp.lookup(key)
	return ok
}

// Require records a missing-parameter error if key is absent.
func (pp *ParamParser) Require(key string) bool {
	if _, ok := pp.lookup(key); !ok {
		pp.errs = append(pp.errs, fmt.Errorf("%s: %q: %w", pp.typeName, key, ErrMissingParameter))
		return false
	}
	return true
}

// String returns the raw value for key or def.
func (pp *ParamParser) String(key, def string) string {
	if v, ok := pp.lookup(key); ok {
		return v
	}
	return def
}

// Float parses key as a float64.
func (pp *ParamParser) Float(key string, def float64) float64 {
	v, ok := pp.lookup(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		pp.fail(key, v, err)
		return def
	}
	return f
}

// Bool parses key as a boolean. "yes"/"no" and "on"/"off" are accepted as
// well as everything strconv.ParseBool takes.
func (pp *ParamParser) Bool(key string, def bool) bool {
	v, ok := pp.lookup(key)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		pp.fail(key, v, err)
		return def
	}
	return b
}

// Vec3 parses key as "x y z".
func (pp *ParamParser) Vec3(key string, def r3.Vec) r3.Vec {
	v, ok := pp.lookup(key)
	if !ok {
		return def
	}
	vec, err := ParseVec3(v)
	if err != nil {
		pp.fail(key, v, err)
		return def
	}
	return vec
}

// Vec3List parses every occurrence of key as "x y z", in order.
func (pp *ParamParser) Vec3List(key string) []r3.Vec {
	pp.used[key] = true
	var out []r3.Vec
	for _, v := range pp.params.All(key) {
		vec, err := ParseVec3(v)
		if err != nil {
			pp.fail(key, v, err)
			continue
		}
		out = append(out, vec)
	}
	return out
}

// Quat parses key as "w x y z". The result is normalised.
func (pp *ParamParser) Quat(key string, def quat.Number) quat.Number {
	v, ok := pp.lookup(key)
	if !ok {
		return def
	}
	f, err := parseFloats(v, 4)
	if err != nil {
		pp.fail(key, v, err)
		return def
	}
	return NormalizeQuat(quat.Number{Real: f[0], Imag: f[1], Jmag: f[2], Kmag: f[3]})
}

// Finish warns about every key nobody asked for and returns the collected
// parse errors.
func (pp *ParamParser) Finish() error {
	warned := make(map[string]bool)
	for _, kv := range pp.params {
		if pp.used[kv.Key] || warned[kv.Key] {
			continue
		}
		warned[kv.Key] = true
		slog.Warn("unknown parameter", "type", pp.typeName, "key", kv.Key, "value", kv.Value)
	}
	return errors.Join(pp.errs...)
}

// ParseVec3 parses "x y z". Commas are accepted as separators.
func ParseVec3(s string) (r3.Vec, error) {
	f, err := parseFloats(s, 3)
	if err != nil {
		return r3.Vec{}, err
	}
	return r3.Vec{X: f[0], Y: f[1], Z: f[2]}, nil
}

func parseFloats(s string, n int) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
	if len(fields) != n {
		return nil, fmt.Errorf("want %d numbers, got %d", n, len(fields))
	}
	out := make([]float64, n)
	for i, field := range fields {
		f, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}
