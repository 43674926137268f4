package components

import (
	"math"
	"testing"

	"github.com/pthm-cable/drape/cloth"
)

func TestMotionOffset(t *testing.T) {
	m := Motion{Axis: cloth.V3(0, 0, 1), Amplitude: 0.5, Frequency: 0.25}
	tests := []struct {
		t    float64
		want float64
	}{
		{0, 0},
		{1, 0.5},  // quarter period
		{2, 0},    // half period
		{3, -0.5}, // three quarters
	}
	for _, tt := range tests {
		got := m.Offset(tt.t)
		if math.Abs(got.Z-tt.want) > 1e-12 || got.X != 0 || got.Y != 0 {
			t.Errorf("Offset(%g) = %v, want z=%g", tt.t, got, tt.want)
		}
	}
}

func TestWindStrength(t *testing.T) {
	w := Wind{Base: cloth.WindForce{Strength: 2}, PulseAmplitude: 0.5, PulseFrequency: 0.25}
	if got := w.Strength(1); math.Abs(got-3) > 1e-12 {
		t.Errorf("peak strength %g, want 3", got)
	}
	if got := w.Strength(3); math.Abs(got-1) > 1e-12 {
		t.Errorf("trough strength %g, want 1", got)
	}

	w.PulseAmplitude = 2
	if got := w.Strength(3); got != 0 {
		t.Errorf("strength %g, want clamp at 0", got)
	}
}
