package systems

import (
	"math"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/drape/cloth"
	"github.com/pthm-cable/drape/components"
	"github.com/pthm-cable/drape/telemetry"
)

func TestMotionSystem(t *testing.T) {
	w := ecs.NewWorld()
	moving := ecs.NewMap2[components.Collider, components.Motion](w)
	still := ecs.NewMap1[components.Collider](w)

	ball := moving.NewEntity(
		&components.Collider{Prim: cloth.NewSphere(cloth.V3(0, 1, 0), 0.2)},
		&components.Motion{Base: cloth.V3(0, 1, 0), Axis: cloth.V3(1, 0, 0), Amplitude: 0.3, Frequency: 0.5},
	)
	floor := still.NewEntity(&components.Collider{Prim: cloth.NewPlane(cloth.V3(0, 0, 0), cloth.V3(0, 1, 0))})

	sys := NewMotionSystem(w)
	sys.Update(0.5) // quarter period

	col, _ := moving.Get(ball)
	if math.Abs(col.Prim.Position.X-0.3) > 1e-12 || col.Prim.Position.Y != 1 {
		t.Errorf("sphere at %v, want (0.3, 1, 0)", col.Prim.Position)
	}
	if still.Get(floor).Prim.Position != cloth.V3(0, 0, 0) {
		t.Error("collider without motion moved")
	}

	sys.Update(1.0)
	col, _ = moving.Get(ball)
	if math.Abs(col.Prim.Position.X) > 1e-12 {
		t.Errorf("sphere should be back at its base, got %v", col.Prim.Position)
	}

	prims := NewColliderSystem(w).Collect(nil)
	if len(prims) != 2 {
		t.Fatalf("collected %d colliders, want 2", len(prims))
	}
}

func TestWindSystem(t *testing.T) {
	w := ecs.NewWorld()
	winds := ecs.NewMap1[components.Wind](w)
	winds.NewEntity(&components.Wind{
		Base:           cloth.WindForce{Direction: cloth.V3(0, 0, 1), Strength: 2, Frequency: 1},
		PulseAmplitude: 0.5,
		PulseFrequency: 0.25,
	})
	winds.NewEntity(&components.Wind{Base: cloth.WindForce{Direction: cloth.V3(1, 0, 0), Strength: 1}})

	sys := NewWindSystem(w)
	sys.Update(1)
	got := sys.Collect(nil)
	if len(got) != 2 {
		t.Fatalf("collected %d winds, want 2", len(got))
	}
	strengths := map[float64]bool{}
	for _, f := range got {
		strengths[math.Round(f.Strength*1e9)/1e9] = true
	}
	if !strengths[3] || !strengths[1] {
		t.Errorf("unexpected strengths %v", got)
	}
}

func TestRegistryCoversPerfPhases(t *testing.T) {
	reg := NewSystemRegistry()
	for _, phase := range telemetry.Phases {
		if _, ok := reg.Get(phase); !ok {
			t.Errorf("phase %s missing from registry", phase)
		}
	}
	if got := reg.GetName("unknown"); got != "unknown" {
		t.Errorf("GetName fallback %q", got)
	}
	if len(reg.ByCategory("solver")) != 5 {
		t.Errorf("solver phases %d, want 5", len(reg.ByCategory("solver")))
	}
	if ids := reg.IDs(); ids[0] != telemetry.PhaseScene {
		t.Errorf("first phase %s", ids[0])
	}
}
