package pattern

import (
	"encoding/json"
	"testing"
)

// stub is a minimal Pattern used to exercise the registry.
type stub struct {
	name         string
	timeOfStroke float64
	depth        int
	stroke       int
	sensation    float64
}

func (s *stub) Name() string                    { return s.name }
func (s *stub) SetTimeOfStroke(seconds float64) { s.timeOfStroke = seconds }
func (s *stub) SetDepth(steps int)              { s.depth = steps }
func (s *stub) SetStroke(steps int)             { s.stroke = steps }
func (s *stub) SetSensation(v float64)          { s.sensation = v }

func (s *stub) NextTarget(index int) MotionParameter {
	return MotionParameter{Position: s.depth, Speed: 100, Acceleration: 200}
}

func TestRegistryOrder(t *testing.T) {
	r := NewRegistry(&stub{name: "first"}, &stub{name: "second"})
	r.Register(&stub{name: "third"})

	if r.Len() != 3 {
		t.Fatalf("Len = %d, want 3", r.Len())
	}

	want := []string{"first", "second", "third"}
	names := r.Names()
	for i, name := range want {
		if names[i] != name {
			t.Errorf("Names()[%d] = %s, want %s", i, names[i], name)
		}
	}
}

func TestRegistryGetBounds(t *testing.T) {
	r := NewRegistry(&stub{name: "only"})

	if _, ok := r.Get(0); !ok {
		t.Error("Get(0) should succeed")
	}
	if _, ok := r.Get(1); ok {
		t.Error("Get(1) should fail")
	}
	if _, ok := r.Get(-1); ok {
		t.Error("Get(-1) should fail")
	}
}

func TestRegistryJSON(t *testing.T) {
	r := NewRegistry(&stub{name: "deeper"}, &stub{name: "teasing"})

	got := r.JSON()
	if got != `[{"deeper":0},{"teasing":1}]` {
		t.Errorf("JSON() = %s", got)
	}

	// Must stay parseable for API consumers.
	var list []map[string]int
	if err := json.Unmarshal([]byte(got), &list); err != nil {
		t.Fatalf("JSON() output not parseable: %v", err)
	}
	if len(list) != 2 || list[1]["teasing"] != 1 {
		t.Errorf("unexpected structure: %v", list)
	}
}

func TestRegistryJSONEmpty(t *testing.T) {
	r := NewRegistry()
	if got := r.JSON(); got != "[]" {
		t.Errorf("JSON() = %s, want []", got)
	}
}
