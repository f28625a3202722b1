package sim

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestStepDeterministic(t *testing.T) {
	in := Input{Seq: 7, Forward: true, Right: true, Rotation: 1.234, Dt: 0.05}
	start := mgl64.Vec3{3.5, 0, -2.25}

	a := Step(start, in)
	b := Step(start, in)
	if a != b {
		t.Fatalf("same input produced different results: %v vs %v", a, b)
	}
}

func TestStepForwardFacesPlusZ(t *testing.T) {
	in := Input{Forward: true, Rotation: 0, Dt: 0.1}
	got := Step(mgl64.Vec3{}, in)
	want := mgl64.Vec3{0, 0, MoveSpeed * 0.1}
	if !got.ApproxEqual(want) {
		t.Fatalf("forward at yaw 0: got %v want %v", got, want)
	}
}

func TestStepDiagonalNotFaster(t *testing.T) {
	straight := Step(mgl64.Vec3{}, Input{Forward: true, Dt: 0.1})
	diagonal := Step(mgl64.Vec3{}, Input{Forward: true, Right: true, Dt: 0.1})

	ds := PlanarDistance(mgl64.Vec3{}, straight)
	dd := PlanarDistance(mgl64.Vec3{}, diagonal)
	if math.Abs(ds-dd) > 1e-9 {
		t.Fatalf("diagonal speed %v differs from straight %v", dd, ds)
	}
}

func TestStepOpposedKeysCancel(t *testing.T) {
	start := mgl64.Vec3{1, 0, 2}
	got := Step(start, Input{Forward: true, Backward: true, Dt: 0.1})
	if got != start {
		t.Fatalf("opposed keys moved the player: %v", got)
	}
}

func TestStepPreservesHeight(t *testing.T) {
	start := mgl64.Vec3{0, 4.5, 0}
	got := Step(start, Input{Forward: true, Rotation: 0.7, Dt: 0.1})
	if got.Y() != 4.5 {
		t.Fatalf("ground movement changed height: %v", got.Y())
	}
}

func TestShortestAngle(t *testing.T) {
	deg := func(d float64) float64 { return d * math.Pi / 180 }
	tests := []struct {
		name string
		a, b float64
		want float64
	}{
		{"zero", 0, 0, 0},
		{"quarter turn", 0, deg(90), deg(90)},
		{"wraps positive", deg(350), deg(10), deg(20)},
		{"wraps negative", deg(10), deg(350), deg(-20)},
		{"half turn", 0, deg(180), deg(180)},
		{"beyond full turn", 0, deg(450), deg(90)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShortestAngle(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("ShortestAngle(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestLerpAngleTakesShortArc(t *testing.T) {
	a := 350 * math.Pi / 180
	b := 10 * math.Pi / 180
	mid := LerpAngle(a, b, 0.5)
	want := 360 * math.Pi / 180
	if math.Abs(mid-want) > 1e-9 {
		t.Fatalf("midpoint %v, want %v (through zero, not through pi)", mid, want)
	}
}

func TestInputValid(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want bool
	}{
		{"normal", Input{Dt: 0.05}, true},
		{"max dt", Input{Dt: MaxInputDt}, true},
		{"zero dt", Input{Dt: 0}, false},
		{"negative dt", Input{Dt: -0.01}, false},
		{"oversized dt", Input{Dt: 0.26}, false},
		{"nan rotation", Input{Dt: 0.05, Rotation: math.NaN()}, false},
		{"inf rotation", Input{Dt: 0.05, Rotation: math.Inf(1)}, false},
		{"rotation at bound", Input{Dt: 0.05, Rotation: 2 * math.Pi}, true},
		{"rotation beyond bound", Input{Dt: 0.05, Rotation: 7.0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Valid(); got != tt.want {
				t.Fatalf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}
