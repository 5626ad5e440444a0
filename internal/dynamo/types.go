package dynamo

import (
	"fmt"
	"math"
)

// Reference state and universal gas constant used across the thermodynamic packages.
const (
	TRef       = 298.15    // [K]
	PRef       = 101325.0  // [Pa]
	RUniversal = 8314.4621 // [J/(kmol.K)]
)

// FourStroke is the length of one four-stroke cycle in crank-angle radians.
const FourStroke = 4 * math.Pi

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// System is the right-hand side of an ODE system dx/dt = f(t, x). Implementations
// are plain values holding whatever constants the equations need.
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

type Integrator interface {
	Step(dyn System, x State, t float64, dt float64) State
}

// FlowRatio is the mass and enthalpy flow into an element. Positive values enter
// the element.
type FlowRatio struct {
	MassFlow     float64 // [kg/s]
	EnthalpyFlow float64 // [J/s]
}

func (f FlowRatio) Add(o FlowRatio) FlowRatio {
	return FlowRatio{MassFlow: f.MassFlow + o.MassFlow, EnthalpyFlow: f.EnthalpyFlow + o.EnthalpyFlow}
}

func (f FlowRatio) Neg() FlowRatio {
	return FlowRatio{MassFlow: -f.MassFlow, EnthalpyFlow: -f.EnthalpyFlow}
}

func (f FlowRatio) IsZero() bool {
	return f.MassFlow == 0 && f.EnthalpyFlow == 0
}

// Properties is the snapshot of a control volume that connectors read when
// computing their flows.
type Properties struct {
	Name        string
	Pressure    float64 // [Pa]
	Temperature float64 // [K]
	Cp          float64 // [J/(kg.K)]
	Cv          float64 // [J/(kg.K)]
	K           float64 // cp/cv
	GasConst    float64 // [J/(kg.K)]

	// CrankAngle is only meaningful when HasCrankAngle is set (cylinders).
	CrankAngle    float64 // [CA rad]
	HasCrankAngle bool
}

func (p Properties) String() string {
	return fmt.Sprintf("%s: P=%.1f Pa T=%.2f K k=%.4f R=%.2f", p.Name, p.Pressure, p.Temperature, p.K, p.GasConst)
}

// WrapAngle maps a crank angle into [0, 4π).
func WrapAngle(angle float64) float64 {
	a := math.Mod(angle, FourStroke)
	if a < 0 {
		a += FourStroke
	}
	return a
}
