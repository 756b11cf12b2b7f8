package scene

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestDocumentClone(t *testing.T) {
	doc, err := ReadPlain(strings.NewReader(plainFlock))
	if err != nil {
		t.Fatal(err)
	}
	c := doc.Clone()

	var a, b bytes.Buffer
	doc.Describe(&a)
	c.Describe(&b)
	if a.String() != b.String() {
		t.Fatalf("clone differs:\n%s\nvs\n%s", a.String(), b.String())
	}

	c.Templates["wanderer"].Children[0].SetParam("velocity", "0 1 0")
	c.PluginDirs[0] = "elsewhere"
	if v, _ := doc.Templates["wanderer"].Children[0].Params.Get("velocity"); v != "1 0 0" {
		t.Errorf("editing the clone changed the original: velocity = %q", v)
	}
	if doc.PluginDirs[0] != "my plugins" {
		t.Errorf("editing the clone changed plugin dirs: %q", doc.PluginDirs)
	}
}

func TestDocumentLookup(t *testing.T) {
	doc, err := ReadPlain(strings.NewReader(plainFlock))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path     string
		wantName string
		wantErr  error
	}{
		{path: "wanderer", wantName: "Pilot"},
		{path: "wanderer/0", wantName: "FixedVelocity"},
		{path: "#0", wantName: "Flock"},
		{path: "#0/0/0", wantName: "Simple"},
		{path: "nobody", wantErr: ErrMissingTemplate},
		{path: "#3"},
		{path: "wanderer/1"},
		{path: "wanderer/x"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			e, err := doc.Lookup(tt.path)
			if tt.wantName == "" {
				if err == nil {
					t.Fatalf("Lookup(%q) = %v, want error", tt.path, e.Name)
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lookup(%q): %v", tt.path, err)
			}
			if e.Name != tt.wantName {
				t.Errorf("Lookup(%q) = %s, want %s", tt.path, e.Name, tt.wantName)
			}
		})
	}
}

func TestElementSetParam(t *testing.T) {
	e := el(KindBehaviour, "FollowWaypoints", kv("waypoint", "0 0 0", "epsilon", "1", "waypoint", "1 0 0"))
	e.SetParam("epsilon", "0.5")
	if v, _ := e.Params.Get("epsilon"); v != "0.5" {
		t.Errorf("epsilon = %q", v)
	}
	if n := len(e.Params.All("epsilon")); n != 1 {
		t.Errorf("epsilon occurs %d times", n)
	}
	if n := len(e.Params.All("waypoint")); n != 2 {
		t.Errorf("waypoints = %d, want 2 untouched", n)
	}

	e.SetParam("waypoint", "5 5 5")
	if got := e.Params.All("waypoint"); len(got) != 1 || got[0] != "5 5 5" {
		t.Errorf("waypoints = %q", got)
	}
}
