package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/enginesim/internal/dynamo"
)

type simpleDynamics struct{}

func (s simpleDynamics) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (s simpleDynamics) StateDim() int { return 2 }

// explicitTime integrates dx/dt = 3t², exposing whether stages see the right time.
type explicitTime struct{}

func (explicitTime) Derive(x dynamo.State, t float64) dynamo.State { return dynamo.State{3 * t * t} }
func (explicitTime) StateDim() int                                 { return 1 }

func TestRK4Accuracy(t *testing.T) {
	dyn := simpleDynamics{}
	integ := NewRK4()

	x := dynamo.State{1.0, 0.0}
	dt := 0.01
	steps := 100

	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, float64(i)*dt, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}

	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

func TestRK4ExactForCubic(t *testing.T) {
	integ := NewRK4()
	x := integ.Step(explicitTime{}, dynamo.State{0}, 1.0, 0.5)
	want := math.Pow(1.5, 3) - 1.0
	if math.Abs(x[0]-want) > 1e-12 {
		t.Errorf("RK4 should integrate a quadratic rate exactly: got %.12f, want %.12f", x[0], want)
	}
}

func TestRK4DoesNotMutateInput(t *testing.T) {
	integ := NewRK4()
	x0 := dynamo.State{1.0, 0.0}
	_ = integ.Step(simpleDynamics{}, x0, 0, 0.1)
	if x0[0] != 1.0 || x0[1] != 0.0 {
		t.Errorf("input state mutated: %v", x0)
	}
}

func TestEulerFirstOrder(t *testing.T) {
	integ := NewEuler()
	x := integ.Step(simpleDynamics{}, dynamo.State{1.0, 0.0}, 0, 0.1)
	if x[0] != 1.0 || math.Abs(x[1]+0.1) > 1e-15 {
		t.Errorf("unexpected euler step: %v", x)
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"rk4", "euler"} {
		integ, err := ByName(name)
		if err != nil {
			t.Fatalf("ByName(%q): %v", name, err)
		}
		if integ == nil {
			t.Fatalf("ByName(%q) returned nil", name)
		}
	}

	_, err := ByName("verlet")
	if !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}
