package cloth

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

// pointSim returns a single free particle at the origin with undamped motion.
func pointSim(t testing.TB, gravity Vec3) *Simulator {
	t.Helper()
	opts := DefaultOptions()
	opts.Gravity = gravity
	opts.Material.Damping = 1
	return newTestSim(t, opts, 1, 1, 0.1)
}

func TestFreeFall(t *testing.T) {
	g := -9.81
	s := pointSim(t, V3(0, g, 0))
	dt := s.Config().TimeStep

	updates := 30
	for i := 0; i < updates; i++ {
		if n := s.Update(1.0 / 60.0); n != 4 {
			t.Fatalf("update %d ran %d substeps, want 4", i, n)
		}
	}

	n := float64(4 * updates)
	elapsed := n * dt
	y := s.particles[0].Position.Y

	// Verlet from rest lands on g*dt²*n(n+1)/2 exactly.
	verlet := g * dt * dt * n * (n + 1) / 2
	if math.Abs(y-verlet) > 1e-9 {
		t.Errorf("y = %g, want Verlet position %g", y, verlet)
	}

	analytic := 0.5 * g * elapsed * elapsed
	if tol := math.Abs(g) * dt * elapsed; math.Abs(y-analytic) > tol {
		t.Errorf("y = %g deviates from ½gt² = %g by more than %g", y, analytic, tol)
	}
	if math.Abs(s.Time()-elapsed) > 1e-12 {
		t.Errorf("simulated time %g, want %g", s.Time(), elapsed)
	}
}

func TestDampingSlowsFall(t *testing.T) {
	free := pointSim(t, V3(0, -9.81, 0))
	damped := pointSim(t, V3(0, -9.81, 0))
	if err := damped.SetDamping(0.9); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 30; i++ {
		free.Update(1.0 / 60.0)
		damped.Update(1.0 / 60.0)
	}
	if damped.particles[0].Position.Y <= free.particles[0].Position.Y {
		t.Errorf("damped particle (%g) fell at least as far as free one (%g)",
			damped.particles[0].Position.Y, free.particles[0].Position.Y)
	}
}

func TestAccumulateForces(t *testing.T) {
	s := pointSim(t, V3(0, -10, 0))
	if err := s.SetMass(2); err != nil {
		t.Fatal(err)
	}
	s.AddWindForce(WindForce{Direction: V3(3, 0, 0), Strength: 1})
	if err := s.ApplyForce(0, V3(0, 0, 5)); err != nil {
		t.Fatal(err)
	}

	s.accumulateForces()

	if got := s.particles[0].Force; !vecNear(got, V3(1, -20, 5), 1e-12) {
		t.Errorf("force %v, want (1,-20,5)", got)
	}
}

func TestApplyForceLastsOneUpdate(t *testing.T) {
	s := pointSim(t, Vec3{})
	dt := s.Config().TimeStep

	if err := s.ApplyForce(0, V3(1, 0, 0)); err != nil {
		t.Fatal(err)
	}
	s.Update(1.0 / 60.0)

	// Four substeps of constant unit acceleration: x = dt²(1+2+3+4).
	if x := s.particles[0].Position.X; math.Abs(x-10*dt*dt) > 1e-12 {
		t.Errorf("x = %g after forced update, want %g", x, 10*dt*dt)
	}

	s.Update(1.0 / 60.0)
	// Coasting at 4dt² per substep.
	if x := s.particles[0].Position.X; math.Abs(x-26*dt*dt) > 1e-12 {
		t.Errorf("x = %g after coasting update, want %g", x, 26*dt*dt)
	}
}

func TestApplyForceWaitsForSubstep(t *testing.T) {
	s := pointSim(t, Vec3{})
	dt := s.Config().TimeStep

	if err := s.ApplyForce(0, V3(1, 0, 0)); err != nil {
		t.Fatal(err)
	}
	if n := s.Update(dt / 2); n != 0 {
		t.Fatalf("half a time step ran %d substeps", n)
	}
	if n := s.Update(dt / 2); n != 1 {
		t.Fatalf("second half ran %d substeps, want 1", n)
	}
	// One forced substep from rest moves the particle by dt².
	if x := s.particles[0].Position.X; math.Abs(x-dt*dt) > 1e-12 {
		t.Errorf("x = %g, want %g", x, dt*dt)
	}

	s.Update(dt)
	// Coasting: the force was cleared after the substep that used it.
	if x := s.particles[0].Position.X; math.Abs(x-2*dt*dt) > 1e-12 {
		t.Errorf("x = %g after coasting, want %g", x, 2*dt*dt)
	}
}

func TestApplyForceOutOfRange(t *testing.T) {
	s := pointSim(t, Vec3{})
	for _, i := range []int{-1, 1} {
		if err := s.ApplyForce(i, V3(1, 0, 0)); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("ApplyForce(%d): expected ErrIndexOutOfRange, got %v", i, err)
		}
	}
	if err := New(DefaultOptions()).ApplyForce(0, Vec3{}); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}

func TestWindWithoutTurbulence(t *testing.T) {
	s := pointSim(t, Vec3{})
	tests := []struct {
		name string
		wind WindForce
		want Vec3
	}{
		{"unit direction", WindForce{Direction: V3(0, 0, 1), Strength: 2}, V3(0, 0, 2)},
		{"normalized", WindForce{Direction: V3(2, 0, 0), Strength: 3}, V3(3, 0, 0)},
		{"zero direction", WindForce{Strength: 1.5}, V3(1.5, 0, 0)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, p := range []Vec3{{}, V3(1, 2, 3), V3(-7, 0.5, 11)} {
				if got := s.windAt(p, tc.wind); !vecNear(got, tc.want, 1e-12) {
					t.Errorf("wind at %v = %v, want %v", p, got, tc.want)
				}
			}
		})
	}
}

func TestWindTurbulence(t *testing.T) {
	a := pointSim(t, Vec3{})
	b := pointSim(t, Vec3{})
	w := WindForce{Direction: V3(1, 0, 0), Strength: 2, Turbulence: 0.5, Frequency: 1.3}

	p := V3(0.37, -0.81, 0.12)
	fa, fb := a.windAt(p, w), b.windAt(p, w)
	if fa != fb {
		t.Errorf("same seed produced different wind: %v vs %v", fa, fb)
	}
	if !finite(fa) || r3.Norm(fa) == 0 {
		t.Fatalf("unexpected turbulent wind %v", fa)
	}

	near := a.windAt(r3.Add(p, V3(1e-4, 0, 0)), w)
	if d := r3.Norm(r3.Sub(near, fa)); d > 0.01 {
		t.Errorf("wind changed by %g over 1e-4 m", d)
	}

	// The gust factor stays positive, so the wind keeps blowing downwind.
	for x := 0.0; x < 5; x += 0.25 {
		f := a.windAt(V3(x, 0.3*x, -x), w)
		if r3.Dot(f, w.Direction) <= 0 {
			t.Errorf("wind at x=%g blows upwind: %v", x, f)
		}
	}
}

func TestNoiseField(t *testing.T) {
	f := newTurbulenceField(7)
	g := newTurbulenceField(7)

	for _, p := range [][3]float64{{1, 2, 3}, {0, 0, 0}, {-4, 5, 9}} {
		if v := f.sample(p[0], p[1], p[2]); v != 0 {
			t.Errorf("noise at lattice point %v = %g, want 0", p, v)
		}
	}

	for x := -2.0; x < 2; x += 0.173 {
		v := f.sample(x, 0.5*x, 0.31)
		if v != g.sample(x, 0.5*x, 0.31) {
			t.Fatalf("noise not deterministic at x=%g", x)
		}
		if math.Abs(v) > 1.5 {
			t.Errorf("noise %g out of range at x=%g", v, x)
		}
	}
}

func TestWindForceList(t *testing.T) {
	s := New(DefaultOptions())
	s.AddWindForce(DefaultWind())
	s.AddWindForce(WindForce{Strength: 2})
	winds := s.WindForces()
	if len(winds) != 2 {
		t.Fatalf("expected 2 winds, got %d", len(winds))
	}
	winds[0].Strength = 100
	if s.winds[0].Strength == 100 {
		t.Error("WindForces should return a copy")
	}
	s.SetWindForces([]WindForce{{Strength: 3}})
	if got := s.WindForces(); len(got) != 1 || got[0].Strength != 3 {
		t.Errorf("SetWindForces produced %+v", got)
	}
	s.ClearWindForces()
	if len(s.WindForces()) != 0 {
		t.Error("ClearWindForces left winds behind")
	}
}
