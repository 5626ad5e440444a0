package combustion

import (
	"math"

	"github.com/san-kum/enginesim/internal/dynamo"
)

// Wiebe is the burned-mass-fraction function
// Xb = 1 - exp(-a·((θ-θign)/Δθ)^(m+1)).
type Wiebe struct {
	A        float64
	M        float64
	Duration float64 // [rad]
}

func (w Wiebe) Validate() error {
	if w.A <= 0 || w.M <= -1 || w.Duration <= 0 {
		return dynamo.Configf("wiebe: a=%g and duration=%g must be positive, m=%g must exceed -1", w.A, w.Duration, w.M)
	}
	return nil
}

func elapsed(angle, ignition float64) float64 {
	d := angle - ignition
	if d < 0 {
		d += dynamo.FourStroke
	}
	return d
}

// BurnedFraction returns Xb at angle for combustion starting at ignition.
func (w Wiebe) BurnedFraction(angle, ignition float64) float64 {
	tau := elapsed(angle, ignition) / w.Duration
	return 1 - math.Exp(-w.A*math.Pow(tau, w.M+1))
}

// Rate returns dXb/dθ [1/rad].
func (w Wiebe) Rate(angle, ignition float64) float64 {
	tau := elapsed(angle, ignition) / w.Duration
	return w.A * (w.M + 1) / w.Duration * math.Pow(tau, w.M) * math.Exp(-w.A*math.Pow(tau, w.M+1))
}
