package combustion

import (
	"math"

	"github.com/san-kum/enginesim/internal/dynamo"
	"github.com/san-kum/enginesim/internal/thermo"
)

// CompleteFraction is the burned fraction above which the charge is taken as
// fully burned.
const CompleteFraction = 0.993

// TwoZoneParams are the user-facing settings of a TwoZone model; angles in degrees.
type TwoZoneParams struct {
	IgnitionDeg float64
	DurationDeg float64
	A           float64
	M           float64
	Lambda      float64
}

type zone struct {
	x   []float64
	m   float64 // molar mass
	rho float64
	p   float64
	k   float64
	r   float64
	t   float64
}

// TwoZone splits the charge into an unburned zone that is compressed
// isentropically from its ignition state and a burned zone of fixed complete
// combustion products. The bulk composition is the mole-weighted blend.
type TwoZone struct {
	wiebe    Wiebe
	ignition float64
	end      float64
	lambda   float64
	eta      float64
	fuel     Fuel
	table    *thermo.Table
	airX     []float64
	burned   zone
	unburned zone
	ready    bool
}

func NewTwoZone(p TwoZoneParams, fuel *Fuel, air *thermo.Gas) (*TwoZone, error) {
	w := Wiebe{A: p.A, M: p.M, Duration: p.DurationDeg * math.Pi / 180}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if fuel == nil {
		return nil, dynamo.Configf("two-zone combustion requires a fuel")
	}
	table := air.Table()
	if !table.Contains(fuel.Name) {
		return nil, dynamo.Configf("fuel %s is not in species table %q", fuel.Name, table.Name())
	}
	for _, sp := range []string{"O2", "N2", "CO2", "H2O"} {
		if !table.Contains(sp) {
			return nil, dynamo.Configf("two-zone combustion needs species %s in table %q", sp, table.Name())
		}
	}

	ign := dynamo.WrapAngle(p.IgnitionDeg * math.Pi / 180)
	end := ign + w.Duration
	if end > dynamo.FourStroke {
		end -= dynamo.FourStroke
	}

	c := &TwoZone{
		wiebe:    w,
		ignition: ign,
		end:      end,
		fuel:     *fuel,
		table:    table,
		airX:     air.MoleFractions(),
	}
	if err := c.SetAirFuelRatio(p.Lambda); err != nil {
		return nil, err
	}
	return c, nil
}

// SetAirFuelRatio recomputes the burned-zone composition and the combustion
// efficiency for a new relative air-fuel ratio.
func (c *TwoZone) SetAirFuelRatio(lambda float64) error {
	if lambda <= 0 {
		return dynamo.Configf("relative air-fuel ratio must be positive, got %g", lambda)
	}
	x, err := c.products(lambda)
	if err != nil {
		return err
	}
	c.lambda = lambda
	c.eta = 0.99 * (-1.602 + 4.6509*lambda - 2.0746*lambda*lambda)
	c.burned = zone{x: x, m: c.table.MeanMolarMass(x)}
	c.burned.r = dynamo.RUniversal / c.burned.m
	return nil
}

// products returns the complete-combustion composition per kmol of fuel.
// Lean mixtures keep the excess O2; rich mixtures have none.
func (c *TwoZone) products(lambda float64) ([]float64, error) {
	f := &c.fuel
	at := func(sp string) float64 { return c.airX[c.table.Index(sp)] }
	xO2 := at("O2")
	if xO2 <= 0 {
		return nil, dynamo.Configf("air composition contains no O2")
	}

	var co2, h2o, n2, o2 float64
	if lambda >= 1 {
		co2 = f.Carbon + at("CO2")/xO2
		h2o = 0.5*f.Hydrogen + at("H2O")/xO2
		n2 = 0.5*f.Nitrogen + lambda*f.AirMoles*at("N2")/xO2
		o2 = f.AirMoles * (lambda - 1)
	} else {
		co2 = f.Carbon
		h2o = 0.5 * f.Hydrogen
		n2 = 0.5*f.Nitrogen + lambda*f.AirMoles*79.0/21.0
	}
	total := co2 + h2o + n2 + o2

	x := make([]float64, c.table.Len())
	x[c.table.Index("CO2")] = co2 / total
	x[c.table.Index("H2O")] = h2o / total
	x[c.table.Index("N2")] = n2 / total
	x[c.table.Index("O2")] = o2 / total
	return x, nil
}

func (c *TwoZone) Name() string { return "Two-zone model" }

func (c *TwoZone) IgnitionAngle() float64 { return c.ignition }

func (c *TwoZone) Efficiency() float64 { return c.eta }

func (c *TwoZone) Wiebe() Wiebe { return c.wiebe }

// BurnedComposition returns a copy of the fully burned mole fractions.
func (c *TwoZone) BurnedComposition() []float64 {
	return append([]float64(nil), c.burned.x...)
}

// ZoneTemperatures returns the last computed unburned and burned zone
// temperatures [K]; both are zero outside the combustion window.
func (c *TwoZone) ZoneTemperatures() (unburned, burned float64) {
	return c.unburned.t, c.burned.t
}

// Started reports whether angle lies strictly inside the combustion window,
// which may straddle the end of the cycle.
func (c *TwoZone) Started(angle float64) bool {
	if c.end-c.ignition < 0 {
		return !(angle <= c.ignition && angle >= c.end)
	}
	return angle > c.ignition && angle < c.end
}

func (c *TwoZone) HeatReleaseRate(gas *thermo.Gas, fuelMass, angle float64) float64 {
	if !c.Started(angle) {
		c.ready = false
		c.unburned.t, c.burned.t = 0, 0
		return 0
	}
	if !c.ready {
		c.unburned = zone{
			x:   gas.MoleFractions(),
			m:   gas.M(),
			rho: gas.Rho(),
			p:   gas.P(),
			k:   gas.K(),
			r:   gas.R(),
			t:   gas.T(),
		}
		c.ready = true
	}
	return c.eta * fuelMass * c.fuel.LHV * c.wiebe.Rate(angle, c.ignition)
}

func (c *TwoZone) UpdateComposition(gas *thermo.Gas, mass, angle, p, v float64) ([]float64, error) {
	if !c.Started(angle) || !c.ready {
		return gas.MoleFractions(), nil
	}
	xb := c.wiebe.BurnedFraction(angle, c.ignition)
	if xb > CompleteFraction {
		return c.BurnedComposition(), nil
	}

	rhoUn := c.unburned.rho * math.Pow(p/c.unburned.p, 1/c.unburned.k)
	massB := xb * mass
	massU := mass - massB
	volU := massU / rhoUn
	volB := v - volU
	c.unburned.t = p / (rhoUn * c.unburned.r)
	if volB > 0 && massB > 0 {
		c.burned.t = p * volB / (massB * c.burned.r)
	} else {
		c.burned.t = 0
	}

	molesU := massU / c.unburned.m
	molesB := massB / c.burned.m
	total := molesU + molesB
	if !(total > 0) {
		return nil, dynamo.Domainf("two-zone blend produced %g kmol", total)
	}
	x := make([]float64, len(c.burned.x))
	for i := range x {
		x[i] = (c.unburned.x[i]*molesU + c.burned.x[i]*molesB) / total
	}
	return x, nil
}

func (c *TwoZone) Clone() Model {
	d := *c
	d.airX = append([]float64(nil), c.airX...)
	d.burned.x = append([]float64(nil), c.burned.x...)
	d.unburned.x = append([]float64(nil), c.unburned.x...)
	d.fuel.x = append([]float64(nil), c.fuel.x...)
	return &d
}
