// Package main provides CMA-ES optimization for scene behaviour parameters.
package main

import (
	"fmt"
	"strconv"

	"github.com/pthm-cable/ufo/scene"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Element path, see scene.Document.Lookup
	Key     string  // Parameter key on that element
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Used when the scene does not set the key
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard parameter set for the glider template
// of scenes/flock.ufo.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Waypoint pull
			{Name: "waypoint_factor", Path: "glider/0/0", Key: "factor", Min: 0.5, Max: 5, Default: 2},
			{Name: "waypoint_epsilon", Path: "glider/0/0/0", Key: "epsilon", Min: 0.1, Max: 2, Default: 0.5},
			// Separation
			{Name: "separation_distance", Path: "glider/0/1", Key: "neighbourDistance", Min: 0.5, Max: 5, Default: 2},
			{Name: "separation_angle", Path: "glider/0/1", Key: "neighbourAngle", Min: 90, Max: 360, Default: 360},
			// Cohesion
			{Name: "cohesion_distance", Path: "glider/0/2", Key: "neighbourDistance", Min: 1, Max: 20, Default: 10},
			{Name: "cohesion_angle", Path: "glider/0/2", Key: "neighbourAngle", Min: 90, Max: 360, Default: 360},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// Validate checks that every path resolves in doc.
func (pv *ParamVector) Validate(doc *scene.Document) error {
	for _, spec := range pv.Specs {
		if _, err := doc.Lookup(spec.Path); err != nil {
			return fmt.Errorf("parameter %s: %w", spec.Name, err)
		}
	}
	return nil
}

// ApplyToDocument writes clamped values into doc. doc is modified in place,
// so callers pass a clone.
func (pv *ParamVector) ApplyToDocument(doc *scene.Document, values []float64) error {
	clamped := pv.Clamp(values)
	for i, spec := range pv.Specs {
		e, err := doc.Lookup(spec.Path)
		if err != nil {
			return fmt.Errorf("parameter %s: %w", spec.Name, err)
		}
		e.SetParam(spec.Key, strconv.FormatFloat(clamped[i], 'g', 6, 64))
	}
	return nil
}

// ExtractFromDocument reads the current values from doc. Keys the scene
// does not set, or sets to something unparsable, yield the default.
func (pv *ParamVector) ExtractFromDocument(doc *scene.Document) []float64 {
	v := pv.DefaultVector()
	for i, spec := range pv.Specs {
		e, err := doc.Lookup(spec.Path)
		if err != nil {
			continue
		}
		s, ok := e.Params.Get(spec.Key)
		if !ok {
			continue
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			v[i] = f
		}
	}
	return v
}
