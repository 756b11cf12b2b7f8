package steering

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestParamsLastWins(t *testing.T) {
	p := Params{{"a", "1"}, {"b", "2"}, {"a", "3"}}
	if v, _ := p.Get("a"); v != "3" {
		t.Errorf("Get(a) = %q, want 3", v)
	}
	if got := p.All("a"); len(got) != 2 || got[0] != "1" || got[1] != "3" {
		t.Errorf("All(a) = %v", got)
	}
	if _, ok := p.Get("missing"); ok {
		t.Error("Get(missing) should report absent")
	}
}

func TestParamParser(t *testing.T) {
	p := Params{
		{"speed", "2.5"},
		{"on", "yes"},
		{"dir", "1 2 3"},
		{"dir2", "1,0,0"},
		{"rot", "2 0 0 0"},
		{"waypoint", "0 0 0"},
		{"waypoint", "1 1 1"},
		{"extra", "ignored"},
	}
	pp := NewParamParser("Test", p)

	if got := pp.Float("speed", 0); got != 2.5 {
		t.Errorf("Float = %v", got)
	}
	if got := pp.Float("absent", 7); got != 7 {
		t.Errorf("Float default = %v", got)
	}
	if !pp.Bool("on", false) {
		t.Error("Bool(yes) = false")
	}
	if got := pp.Vec3("dir", r3.Vec{}); got != (r3.Vec{X: 1, Y: 2, Z: 3}) {
		t.Errorf("Vec3 = %v", got)
	}
	if got := pp.Vec3("dir2", r3.Vec{}); got != (r3.Vec{X: 1}) {
		t.Errorf("Vec3 with commas = %v", got)
	}
	if got := pp.Quat("rot", Identity); got != Identity {
		t.Errorf("Quat should normalise, got %v", got)
	}
	if got := pp.Vec3List("waypoint"); len(got) != 2 || got[1] != (r3.Vec{X: 1, Y: 1, Z: 1}) {
		t.Errorf("Vec3List = %v", got)
	}
	// "extra" only produces a warning.
	if err := pp.Finish(); err != nil {
		t.Errorf("Finish() = %v, want nil", err)
	}
}

func TestParamParserErrors(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		parse   func(pp *ParamParser)
		wantErr error
	}{
		{
			name:    "bad float",
			params:  Params{{"f", "abc"}},
			parse:   func(pp *ParamParser) { pp.Float("f", 0) },
			wantErr: ErrInvalidParameter,
		},
		{
			name:    "short vector",
			params:  Params{{"v", "1 2"}},
			parse:   func(pp *ParamParser) { pp.Vec3("v", r3.Vec{}) },
			wantErr: ErrInvalidParameter,
		},
		{
			name:    "bad bool",
			params:  Params{{"b", "maybe"}},
			parse:   func(pp *ParamParser) { pp.Bool("b", false) },
			wantErr: ErrInvalidParameter,
		},
		{
			name:    "missing required",
			params:  nil,
			parse:   func(pp *ParamParser) { pp.Require("attribute") },
			wantErr: ErrMissingParameter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pp := NewParamParser("Test", tt.params)
			tt.parse(pp)
			if err := pp.Finish(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Finish() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
