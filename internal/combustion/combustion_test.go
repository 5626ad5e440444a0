package combustion

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/enginesim/internal/dynamo"
	"github.com/san-kum/enginesim/internal/thermo"
)

func deg(d float64) float64 { return d * math.Pi / 180 }

func setup(t *testing.T) (*thermo.Gas, *Fuel) {
	t.Helper()
	table := thermo.DefaultTable()
	air, err := thermo.NewGas("air", table, 600, 15e5, "O2:0.21, N2:0.79")
	if err != nil {
		t.Fatal(err)
	}
	fuel, err := NewFuel(table, "CH4", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	return air, fuel
}

func TestFuel(t *testing.T) {
	air, fuel := setup(t)
	if fuel.AirMoles != 2 {
		t.Errorf("CH4 air moles = %g, want 2", fuel.AirMoles)
	}
	if fuel.LHV != 50e6 {
		t.Errorf("LHV = %g", fuel.LHV)
	}
	afr, err := fuel.StoichiometricAFR(air)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(afr-17.13) > 0.05 {
		t.Errorf("stoichiometric AFR = %g, want about 17.13", afr)
	}

	table := air.Table()
	if _, err := NewFuel(table, "C8H18", 0, 0); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("missing species should be a configuration error, got %v", err)
	}
	if _, err := NewFuel(table, "AR", 1e6, 0); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("inert fuel should be rejected, got %v", err)
	}
}

func TestWiebeEndpoints(t *testing.T) {
	w := Wiebe{A: 6.6, M: 1.535, Duration: deg(70)}
	ign := deg(700)
	if xb := w.BurnedFraction(ign, ign); xb != 0 {
		t.Errorf("Xb(ign) = %g, want 0", xb)
	}
	end := math.Mod(ign+w.Duration, dynamo.FourStroke)
	xb := w.BurnedFraction(end, ign)
	if math.Abs(xb-(1-math.Exp(-6.6))) > 1e-9 {
		t.Errorf("Xb(ign+dur) = %g", xb)
	}
	if xb < 0.998 {
		t.Errorf("Xb(ign+dur) = %g, want about 1", xb)
	}
}

func TestBurnedComposition(t *testing.T) {
	air, fuel := setup(t)
	table := air.Table()
	tests := []struct {
		name   string
		lambda float64
		co2    float64
		o2     float64
	}{
		{"stoichiometric", 1.0, 1 / (1 + 2 + 2*0.79/0.21), 0},
		{"lean", 1.2, 1 / (1 + 2 + 1.2*2*0.79/0.21 + 0.4), 0.4 / (1 + 2 + 1.2*2*0.79/0.21 + 0.4)},
		{"rich", 0.9, 1 / (1 + 2 + 0.9*2*79.0/21.0), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewTwoZone(TwoZoneParams{IgnitionDeg: 700, DurationDeg: 70, A: 6.6, M: 1.535, Lambda: tt.lambda}, fuel, air)
			if err != nil {
				t.Fatal(err)
			}
			x := c.BurnedComposition()
			if got := x[table.Index("CO2")]; math.Abs(got-tt.co2) > 1e-12 {
				t.Errorf("CO2 = %g, want %g", got, tt.co2)
			}
			if got := x[table.Index("O2")]; math.Abs(got-tt.o2) > 1e-12 {
				t.Errorf("O2 = %g, want %g", got, tt.o2)
			}
			sum := 0.0
			for _, v := range x {
				sum += v
			}
			if math.Abs(sum-1) > 1e-12 {
				t.Errorf("sum = %g", sum)
			}
		})
	}
}

func TestStartedWindowWraps(t *testing.T) {
	air, fuel := setup(t)
	c, err := NewTwoZone(TwoZoneParams{IgnitionDeg: 700, DurationDeg: 70, A: 6.6, M: 1.535, Lambda: 1}, fuel, air)
	if err != nil {
		t.Fatal(err)
	}
	cases := map[float64]bool{690: false, 700: false, 710: true, 10: true, 49: true, 100: false}
	for a, want := range cases {
		if got := c.Started(deg(a)); got != want {
			t.Errorf("Started(%g°) = %v, want %v", a, got, want)
		}
	}
}

func TestNegativeIgnitionWraps(t *testing.T) {
	air, fuel := setup(t)
	c, err := NewTwoZone(TwoZoneParams{IgnitionDeg: -20, DurationDeg: 70, A: 6.6, M: 1.535, Lambda: 1}, fuel, air)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(c.IgnitionAngle()-deg(700)) > 1e-12 {
		t.Errorf("ignition = %g rad, want %g", c.IgnitionAngle(), deg(700))
	}
	for _, a := range []float64{710, 719, 5, 40} {
		if !c.Started(deg(a)) {
			t.Errorf("Started(%g°) = false inside the burn", a)
		}
	}
	if c.Started(deg(60)) || c.Started(deg(690)) {
		t.Error("burn window leaks outside [700°, 50°]")
	}
}

func TestHeatReleaseIntegral(t *testing.T) {
	air, fuel := setup(t)
	c, err := NewTwoZone(TwoZoneParams{IgnitionDeg: 340, DurationDeg: 60, A: 5, M: 2, Lambda: 1}, fuel, air)
	if err != nil {
		t.Fatal(err)
	}
	const fuelMass = 1.5e-6
	const n = 20000
	h := deg(60) / n
	q := 0.0
	for i := 0; i < n; i++ {
		q += c.HeatReleaseRate(air, fuelMass, c.IgnitionAngle()+(float64(i)+0.5)*h) * h
	}
	want := c.Efficiency() * fuelMass * fuel.LHV * (1 - math.Exp(-5))
	if math.Abs(q-want)/want > 1e-4 {
		t.Errorf("released %g J, want %g J", q, want)
	}
	if c.HeatReleaseRate(air, fuelMass, deg(300)) != 0 {
		t.Error("heat released outside the window")
	}
}

func TestUpdateComposition(t *testing.T) {
	air, fuel := setup(t)
	c, err := NewTwoZone(TwoZoneParams{IgnitionDeg: 700, DurationDeg: 70, A: 6.6, M: 1.535, Lambda: 1}, fuel, air)
	if err != nil {
		t.Fatal(err)
	}
	mass := air.Rho() * 5e-6

	x, err := c.UpdateComposition(air, mass, deg(710), air.P(), 5e-6)
	if err != nil {
		t.Fatal(err)
	}
	if x[air.Table().Index("CO2")] != 0 {
		t.Error("composition changed before the unburned zone was captured")
	}

	c.HeatReleaseRate(air, 1e-7, deg(705))
	x, err = c.UpdateComposition(air, mass, deg(15), 3*air.P(), 3e-6)
	if err != nil {
		t.Fatal(err)
	}
	sum := 0.0
	for _, v := range x {
		sum += v
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("blend sums to %g", sum)
	}
	co2 := x[air.Table().Index("CO2")]
	if co2 <= 0 || co2 >= c.BurnedComposition()[air.Table().Index("CO2")] {
		t.Errorf("CO2 = %g should be between 0 and the burned value", co2)
	}
	if tu, _ := c.ZoneTemperatures(); tu <= air.T() {
		t.Errorf("compressed unburned zone should heat up, got %g K", tu)
	}

	x, _ = c.UpdateComposition(air, mass, deg(45), 3*air.P(), 3e-6)
	if x[air.Table().Index("CO2")] != c.BurnedComposition()[air.Table().Index("CO2")] {
		t.Error("late combustion should return the pure burned composition")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	air, fuel := setup(t)
	c, _ := NewTwoZone(TwoZoneParams{IgnitionDeg: 700, DurationDeg: 70, A: 6.6, M: 1.535, Lambda: 1}, fuel, air)
	d := c.Clone().(*TwoZone)
	if err := d.SetAirFuelRatio(1.3); err != nil {
		t.Fatal(err)
	}
	if c.Efficiency() == d.Efficiency() {
		t.Error("clone shares parameters with its source")
	}
}

func TestNoneModel(t *testing.T) {
	air, _ := setup(t)
	var m Model = None{}
	if m.HeatReleaseRate(air, 1, 1) != 0 {
		t.Error("None released heat")
	}
	x, _ := m.UpdateComposition(air, 1, 1, 1, 1)
	if x[air.Table().Index("O2")] != 0.21 {
		t.Error("None changed composition")
	}
}
