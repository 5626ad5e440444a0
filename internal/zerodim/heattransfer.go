package zerodim

import "math"

// Walls holds the fixed surface temperatures [K] of the combustion chamber.
type Walls struct {
	Piston float64
	Head   float64
	Liner  float64
}

func UniformWalls(t float64) Walls { return Walls{Piston: t, Head: t, Liner: t} }

// HeatTransfer returns the heat flow [W] from the walls into the gas.
type HeatTransfer interface {
	Rate(k *Kinematics, walls Walls, pistonSpeed, v, t, p float64) float64
}

// Hohenberg is the power-law film coefficient
// h = 130·V^-0.06·p[bar]^0.8·T^-0.4·(Up+1.4)^0.8 applied to piston, head and
// the exposed liner.
type Hohenberg struct{}

func (Hohenberg) Rate(k *Kinematics, walls Walls, pistonSpeed, v, t, p float64) float64 {
	h := 130 * math.Pow(v, -0.06) * math.Pow(p*1e-5, 0.8) * math.Pow(t, -0.4) * math.Pow(pistonSpeed+1.4, 0.8)
	liner := math.Pi * k.bore * (v / k.area)
	return h * (k.area*(walls.Piston-t) + k.area*(walls.Head-t) + liner*(walls.Liner-t))
}

type Adiabatic struct{}

func (Adiabatic) Rate(*Kinematics, Walls, float64, float64, float64, float64) float64 { return 0 }
