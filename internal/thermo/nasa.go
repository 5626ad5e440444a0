package thermo

import (
	"math"

	"github.com/san-kum/enginesim/internal/dynamo"
)

// NASA7 is a two-range, 7-coefficient NASA polynomial fit.
type NASA7 struct {
	TLow  float64    `yaml:"t_low"`
	TMid  float64    `yaml:"t_mid"`
	THigh float64    `yaml:"t_high"`
	Low   [7]float64 `yaml:"low"`
	High  [7]float64 `yaml:"high"`
}

// Eval returns cp/R, h/(RT) and s/R at temperature t, picking the branch by TMid.
func (n *NASA7) Eval(t float64) (cpR, hRT, sR float64) {
	if t < n.TMid {
		return evalPoly(&n.Low, t)
	}
	return evalPoly(&n.High, t)
}

// InRange reports whether t lies inside the fitted temperature range.
func (n *NASA7) InRange(t float64) bool {
	return t >= n.TLow && t <= n.THigh
}

func evalPoly(c *[7]float64, t float64) (cpR, hRT, sR float64) {
	t2 := t * t
	t3 := t2 * t
	t4 := t3 * t

	cpR = c[0] + c[1]*t + c[2]*t2 + c[3]*t3 + c[4]*t4
	hRT = c[0] + 0.5*c[1]*t + c[2]*t2/3.0 + 0.25*c[3]*t3 + 0.2*c[4]*t4 + c[5]/t
	sR = c[0]*math.Log(t) + c[1]*t + 0.5*c[2]*t2 + c[3]*t3/3.0 + 0.25*c[4]*t4 + c[6]
	return cpR, hRT, sR
}

// Validate checks that both branches agree at the switch temperature.
func (n *NASA7) Validate(species string) error {
	if !(n.TLow < n.TMid && n.TMid < n.THigh) {
		return dynamo.Configf("species %s: temperature ranges must satisfy t_low < t_mid < t_high (%g, %g, %g)",
			species, n.TLow, n.TMid, n.THigh)
	}

	cpLow, hLow, sLow := evalPoly(&n.Low, n.TMid)
	cpHigh, hHigh, sHigh := evalPoly(&n.High, n.TMid)

	if math.Abs((cpLow-cpHigh)/(math.Abs(cpLow)+1e-4)) > 0.01 {
		return dynamo.Domainf("species %s: discontinuity in cp/R at t_mid=%g (low %g, high %g)", species, n.TMid, cpLow, cpHigh)
	}
	if math.Abs(hLow-hHigh)/math.Abs(cpLow) > 0.001 {
		return dynamo.Domainf("species %s: discontinuity in h/RT at t_mid=%g (low %g, high %g)", species, n.TMid, hLow, hHigh)
	}
	if math.Abs((sLow-sHigh)/(math.Abs(sLow)+cpLow)) > 0.001 {
		return dynamo.Domainf("species %s: discontinuity in s/R at t_mid=%g (low %g, high %g)", species, n.TMid, sLow, sHigh)
	}
	return nil
}
