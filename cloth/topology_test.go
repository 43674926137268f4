package cloth

import (
	"errors"
	"math"
	"testing"
)

// newTestSim builds an initialized simulator or fails the test.
func newTestSim(t testing.TB, opts Options, w, h int, spacing float64) *Simulator {
	t.Helper()
	s := New(opts)
	if err := s.Initialize(w, h, spacing); err != nil {
		t.Fatalf("Initialize(%d, %d, %g) failed: %v", w, h, spacing, err)
	}
	return s
}

func countKind(s *Simulator, kind ConstraintKind) int {
	n := 0
	for _, c := range s.constraints {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

func TestInitializeRejectsBadDimensions(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		spacing float64
	}{
		{"zero width", 0, 4, 0.1},
		{"negative height", 4, -1, 0.1},
		{"zero spacing", 4, 4, 0},
		{"negative spacing", 4, 4, -0.5},
		{"nan spacing", 4, 4, math.NaN()},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := New(DefaultOptions())
			err := s.Initialize(tc.w, tc.h, tc.spacing)
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
			if s.Initialized() || s.ParticleCount() != 0 || s.ConstraintCount() != 0 {
				t.Errorf("simulator should stay empty, has %d particles and %d constraints",
					s.ParticleCount(), s.ConstraintCount())
			}
		})
	}
}

func TestInitializeFailureDiscardsPreviousGrid(t *testing.T) {
	s := newTestSim(t, DefaultOptions(), 3, 3, 0.1)
	if err := s.Initialize(0, 3, 0.1); err == nil {
		t.Fatal("expected error")
	}
	if s.Initialized() {
		t.Error("failed Initialize should leave the simulator uninitialized")
	}
}

func TestInitializeLayout(t *testing.T) {
	opts := DefaultOptions()
	opts.Topology.Origin = V3(1, 2, 3)
	s := newTestSim(t, opts, 4, 3, 0.5)

	if s.ParticleCount() != 12 {
		t.Fatalf("expected 12 particles, got %d", s.ParticleCount())
	}
	p, err := s.ParticleAt(3, 2)
	if err != nil {
		t.Fatalf("ParticleAt failed: %v", err)
	}
	want := V3(1+1.5, 2-1.0, 3)
	if p.Position != want {
		t.Errorf("particle (3,2) at %v, want %v", p.Position, want)
	}
	if p.PreviousPosition != p.Position {
		t.Error("previous position should equal position at rest")
	}
	if p.Mass != opts.Material.Mass || p.Fixed {
		t.Errorf("unexpected mass %g / fixed %v", p.Mass, p.Fixed)
	}
}

func TestHorizontalLayout(t *testing.T) {
	opts := DefaultOptions()
	opts.Topology.Orientation = Horizontal
	s := newTestSim(t, opts, 2, 2, 1)

	p, _ := s.ParticleAt(1, 1)
	if p.Position != V3(1, 0, 1) {
		t.Errorf("horizontal particle (1,1) at %v, want (1,0,1)", p.Position)
	}
}

func TestIndex(t *testing.T) {
	s := newTestSim(t, DefaultOptions(), 5, 4, 0.1)

	i, err := s.Index(2, 3)
	if err != nil || i != 17 {
		t.Errorf("Index(2,3) = %d, %v; want 17", i, err)
	}

	for _, c := range [][2]int{{-1, 0}, {5, 0}, {0, 4}, {0, -1}, {5, 3}} {
		if _, err := s.Index(c[0], c[1]); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Index(%d,%d): expected ErrIndexOutOfRange, got %v", c[0], c[1], err)
		}
	}

	if _, err := New(DefaultOptions()).Index(0, 0); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}

func TestConstraintGeneration(t *testing.T) {
	tests := []struct {
		name                  string
		topo                  Topology
		distance, bend, volume int
	}{
		{"4-connected", Topology{Connectivity: Connect4, Orientation: Vertical}, 12, 0, 0},
		{"8-connected", Topology{Connectivity: Connect8, Orientation: Vertical}, 20, 0, 0},
		{"8-connected with bend", Topology{Connectivity: Connect8, Orientation: Vertical, Bend: true}, 20, 6, 0},
		{"soft body", PresetTopology(SoftBody, DefaultTopology()), 20, 6, 4},
		{"hair strands", PresetTopology(Hair, DefaultTopology()), 6, 3, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Topology = tc.topo
			s := newTestSim(t, opts, 3, 3, 0.1)

			if got := countKind(s, Distance); got != tc.distance {
				t.Errorf("distance constraints = %d, want %d", got, tc.distance)
			}
			if got := countKind(s, Bend); got != tc.bend {
				t.Errorf("bend constraints = %d, want %d", got, tc.bend)
			}
			if got := countKind(s, Volume); got != tc.volume {
				t.Errorf("volume constraints = %d, want %d", got, tc.volume)
			}
		})
	}
}

func TestRestLengthsMatchLayout(t *testing.T) {
	s := newTestSim(t, DefaultOptions(), 3, 3, 0.2)
	diag := 0.2 * math.Sqrt2
	for _, c := range s.constraints {
		var want float64
		switch {
		case c.Kind == Bend:
			want = 0.4
		case c.Kind == Distance && (c.B-c.A == 1 || c.B-c.A == 3):
			want = 0.2
		default:
			want = diag
		}
		if math.Abs(c.RestLength-want) > 1e-12 {
			t.Errorf("constraint %d-%d (%v) rest %g, want %g", c.A, c.B, c.Kind, c.RestLength, want)
		}
	}
}

func TestNeighbors(t *testing.T) {
	opts := DefaultOptions()
	opts.Topology.Connectivity = Connect4
	s4 := newTestSim(t, opts, 3, 3, 0.1)
	opts.Topology.Connectivity = Connect8
	s8 := newTestSim(t, opts, 3, 3, 0.1)

	if got := len(s4.particles[4].Neighbors); got != 4 {
		t.Errorf("4-connected center has %d neighbors, want 4", got)
	}
	if got := len(s8.particles[4].Neighbors); got != 8 {
		t.Errorf("8-connected center has %d neighbors, want 8", got)
	}
	if got := len(s8.particles[0].Neighbors); got != 3 {
		t.Errorf("8-connected corner has %d neighbors, want 3", got)
	}
	for _, n := range s8.particles[0].Neighbors {
		if n < 0 || n >= s8.ParticleCount() {
			t.Errorf("neighbor index %d out of range", n)
		}
	}
}

func TestPresetAnchors(t *testing.T) {
	if got := len(PresetAnchors(Flag, 4, 3)); got != 3 {
		t.Errorf("flag anchors = %d, want 3 (pole column)", got)
	}
	if got := len(PresetAnchors(Fabric, 4, 3)); got != 4 {
		t.Errorf("fabric anchors = %d, want 4 (top row)", got)
	}
	if got := len(PresetAnchors(SoftBody, 4, 3)); got != 0 {
		t.Errorf("soft body anchors = %d, want 0", got)
	}
	if _, err := ParseClothType("tarp"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for unknown preset, got %v", err)
	}
}
