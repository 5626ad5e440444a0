package connector

import (
	"math"

	"github.com/san-kum/enginesim/internal/dynamo"
)

// direction picks upstream and downstream endpoints from the pressure ratio
// p0/p1. ok is false inside the dead-band, where the flow is zero.
func direction(p0, p1, hi, lo float64) (up, down int, ok bool) {
	ratio := p0 / p1
	switch {
	case ratio > hi:
		return 0, 1, true
	case ratio < lo:
		return 1, 0, true
	default:
		return 0, 0, false
	}
}

// CriticalPressureRatio is the downstream/upstream ratio below which the flow chokes.
func CriticalPressureRatio(k float64) float64 {
	return math.Pow(2/(k+1), k/(k-1))
}

// orificeFlow is the quasi-steady isentropic nozzle equation [kg/s].
func orificeFlow(cdA, pUp, tUp, k, r, pDown float64) float64 {
	kp := k + 1
	km := k - 1
	ratio := pDown / pUp
	base := cdA * pUp / math.Sqrt(r*tUp)
	if ratio > CriticalPressureRatio(k) {
		return base * math.Sqrt(2*k/km*(math.Pow(ratio, 2/k)-math.Pow(ratio, kp/k)))
	}
	return base * math.Sqrt(k*math.Pow(2/kp, kp/km))
}

// enthalpyFlow returns ṁ·cp·T for an ideal gas with ratio k and constant r.
func enthalpyFlow(mdot, k, r, t float64) float64 {
	return mdot * k * r / (k - 1) * t
}

// Orifice is a fixed-geometry restriction between two volumes.
type Orifice struct {
	link
	diameter float64
	area     float64
	cd       float64
}

// NewOrifice builds an orifice of the given diameter [m] and discharge
// coefficient. Up to two endpoints may be given now; the rest via Connect.
func NewOrifice(name string, diameter, cd float64, endpoints ...string) (*Orifice, error) {
	if diameter <= 0 {
		return nil, &dynamo.ObjectError{Object: name, Op: "new orifice", Err: dynamo.Configf("diameter must be positive, got %g m", diameter)}
	}
	if cd <= 0 || cd > 1 {
		return nil, &dynamo.ObjectError{Object: name, Op: "new orifice", Err: dynamo.Configf("discharge coefficient must be in (0, 1], got %g", cd)}
	}
	o := &Orifice{
		link:     link{name: name},
		diameter: diameter,
		area:     0.25 * math.Pi * diameter * diameter,
		cd:       cd,
	}
	for _, e := range endpoints {
		if err := o.Connect(e); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *Orifice) Kind() Kind { return KindOrifice }

func (o *Orifice) Area() float64 { return o.area }

func (o *Orifice) DischargeCoefficient() float64 { return o.cd }

func (o *Orifice) UpdateFlow(states []dynamo.Properties, _ float64) error {
	if err := o.checkStates(states); err != nil {
		return err
	}
	up, down, ok := direction(states[0].Pressure, states[1].Pressure, 1.00000001, 0.99999991)
	if !ok {
		o.resetFlow()
		return nil
	}
	u := &states[up]
	mdot := orificeFlow(o.cd*o.area, u.Pressure, u.Temperature, u.K, u.GasConst, states[down].Pressure)
	o.post(up, down, dynamo.FlowRatio{
		MassFlow:     mdot,
		EnthalpyFlow: enthalpyFlow(mdot, u.K, u.GasConst, u.Temperature),
	})
	return nil
}

func (o *Orifice) Headers() []string {
	return []string{"mass flow [kg/s]", "enthalpy flow [J/s]"}
}

// Sample reports the flow into the first endpoint.
func (o *Orifice) Sample() []float64 {
	return []float64{o.flows[0].MassFlow, o.flows[0].EnthalpyFlow}
}
