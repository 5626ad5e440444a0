package engine

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/enginesim/internal/combustion"
	"github.com/san-kum/enginesim/internal/dynamo"
	"github.com/san-kum/enginesim/internal/thermo"
)

func air(t *testing.T) *thermo.Gas {
	t.Helper()
	g, err := thermo.NewGas("air", thermo.DefaultTable(), 293, 101325, "O2:0.21, N2:0.79")
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func cylinder(name string) CylinderConfig {
	return CylinderConfig{
		Name:             name,
		CompressionRatio: 8.5,
		WallTemperature:  470,
		IntakeValves:     []ValveConfig{{Name: name + "_int", OpeningAngle: 340, ClosingAngle: 590, Diameter: 10, MaxLift: 3}},
		ExhaustValves:    []ValveConfig{{Name: name + "_exh", OpeningAngle: 130, ClosingAngle: 380, Diameter: 10, MaxLift: 3}},
	}
}

func ryobi() Config {
	return Config{
		Speed:        7500,
		ConRod:       58.2,
		Displacement: 26.2,
		Bore:         32,
		FiringOrder:  "1",
		Combustion: &CombustionConfig{
			Model:         ModelTwoZone,
			IgnitionAngle: 330,
			Wiebe:         WiebeConfig{A: 6.02, M: 1.64, Duration: 60},
		},
		Injector: &InjectorConfig{
			Type:         "port",
			AirFuelRatio: 1.0,
			Fuel:         FuelConfig{Name: "CH4", State: "gas"},
		},
		Cylinders: []CylinderConfig{cylinder("cyl_1")},
	}
}

func TestParseFiringOrder(t *testing.T) {
	order, err := ParseFiringOrder("1-3-4-2", 4)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{1, 3, 4, 2}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	for _, bad := range []string{"1-2-3", "1-x-3-4", "0-1-2-3", ""} {
		if _, err := ParseFiringOrder(bad, 4); !errors.Is(err, dynamo.ErrConfiguration) {
			t.Errorf("ParseFiringOrder(%q) error = %v, want configuration error", bad, err)
		}
	}
}

func TestNewSingleCylinder(t *testing.T) {
	e, err := New(ryobi(), air(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(e.Cylinders()) != 1 || len(e.Valves()) != 2 {
		t.Fatalf("got %d cylinders and %d valves", len(e.Cylinders()), len(e.Valves()))
	}
	if got := e.Cylinders()[0].Angle(); math.Abs(got-math.Pi) > 1e-12 {
		t.Errorf("initial angle = %g rad, want π", got)
	}
	if e.CombustionModel() != ModelTwoZone {
		t.Errorf("model = %q", e.CombustionModel())
	}
	v := e.Valves()[0]
	if v.Cylinder() != "cyl_1" || math.Abs(v.Diameter()-10e-3) > 1e-15 || math.Abs(v.MaxLift()-3e-3) > 1e-15 {
		t.Errorf("valve %q: cylinder %q, diameter %g, lift %g", v.Name(), v.Cylinder(), v.Diameter(), v.MaxLift())
	}
	if got := e.TotalDisplacement(); math.Abs(got-26.2e-6) > 1e-15 {
		t.Errorf("displacement = %g m³", got)
	}
}

func TestFiringOrderAngles(t *testing.T) {
	cfg := ryobi()
	cfg.FiringOrder = "1-3-4-2"
	cfg.Cylinders = []CylinderConfig{cylinder("c1"), cylinder("c2"), cylinder("c3"), cylinder("c4")}
	e, err := New(cfg, air(t))
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{180, 540, 0, 360}
	for i, c := range e.Cylinders() {
		if got := c.Angle() * 180 / math.Pi; math.Abs(got-want[i]) > 1e-9 {
			t.Errorf("%s angle = %g°, want %g°", c.Name(), got, want[i])
		}
	}
}

func TestNewRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"combustion without injector": func(c *Config) { c.Injector = nil },
		"unknown model":               func(c *Config) { c.Combustion.Model = "three-zone" },
		"firing order length":         func(c *Config) { c.FiringOrder = "1-2" },
		"zero speed":                  func(c *Config) { c.Speed = 0 },
		"unknown fuel":                func(c *Config) { c.Injector.Fuel.Name = "H2" },
		"unknown injection":           func(c *Config) { c.Injector.Type = "carburettor" },
		"no cylinders":                func(c *Config) { c.Cylinders = nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := ryobi()
			inj := *cfg.Injector
			comb := *cfg.Combustion
			cfg.Injector, cfg.Combustion = &inj, &comb
			mutate(&cfg)
			if _, err := New(cfg, air(t)); !errors.Is(err, dynamo.ErrConfiguration) {
				t.Errorf("error = %v, want configuration error", err)
			}
		})
	}
}

func TestMotoredWithoutInjector(t *testing.T) {
	cfg := ryobi()
	cfg.Combustion, cfg.Injector = nil, nil
	e, err := New(cfg, air(t))
	if err != nil {
		t.Fatal(err)
	}
	if e.Fuel() != nil || e.Injector() != nil {
		t.Error("motored engine should have no fuel")
	}
	if err := e.SetAirFuelRatio(1.1); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("SetAirFuelRatio error = %v", err)
	}
	tz, err := combustion.NewTwoZone(combustion.TwoZoneParams{IgnitionDeg: 330, DurationDeg: 60, A: 5, M: 2, Lambda: 1}, mustFuel(t), air(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.SetCombustion(tz); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("SetCombustion error = %v", err)
	}
}

func mustFuel(t *testing.T) *combustion.Fuel {
	t.Helper()
	f, err := combustion.NewFuel(thermo.DefaultTable(), "CH4", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestSetters(t *testing.T) {
	e, err := New(ryobi(), air(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.SetSpeed(9000); err != nil {
		t.Fatal(err)
	}
	if e.Speed() != 9000 || e.Cylinders()[0].Speed() != 9000 {
		t.Errorf("speed not propagated")
	}
	if err := e.SetSpeed(-1); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("negative speed error = %v", err)
	}
	if err := e.SetDisplacement(30); err != nil {
		t.Fatal(err)
	}
	if got := e.TotalDisplacement(); math.Abs(got-30e-6) > 1e-15 {
		t.Errorf("displacement = %g", got)
	}
	if err := e.SetCompressionRatio("cyl_1", 10); err != nil {
		t.Fatal(err)
	}
	if err := e.SetCompressionRatio("cyl_9", 10); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("unknown cylinder error = %v", err)
	}
	if err := e.SetAirFuelRatio(1.2); err != nil {
		t.Fatal(err)
	}
	if e.Injector().AirFuelRatio() != 1.2 || e.Cylinders()[0].Injector().AirFuelRatio() != 1.2 {
		t.Error("λ not propagated")
	}
	e.SetStoreSpecies(true)
	if !e.Cylinders()[0].StoreSpecies() {
		t.Error("store species not propagated")
	}
	if err := e.SetCombustion(combustion.None{}); err != nil {
		t.Fatal(err)
	}
	if _, ok := e.Cylinders()[0].Combustion().(combustion.None); !ok {
		t.Error("combustion model not replaced")
	}
}

func TestTraceWork(t *testing.T) {
	const v1, v2, pHigh, pLow = 1e-5, 3e-5, 20e5, 1e5
	tr := Trace{
		Volume:   []float64{v1, v2, v2, v1, v1},
		Pressure: []float64{pHigh, pHigh, pLow, pLow, pHigh},
	}
	w, err := tr.Work()
	if err != nil {
		t.Fatal(err)
	}
	if want := (v2 - v1) * (pHigh - pLow); math.Abs(w-want) > 1e-9 {
		t.Errorf("work = %g J, want %g J", w, want)
	}
	if _, err := (Trace{Volume: []float64{1}, Pressure: nil}).Work(); !errors.Is(err, dynamo.ErrInvariant) {
		t.Errorf("mismatched trace error = %v", err)
	}
}

func TestPerformance(t *testing.T) {
	cfg := ryobi()
	cfg.Combustion, cfg.Injector = nil, nil
	e, err := New(cfg, air(t))
	if err != nil {
		t.Fatal(err)
	}
	vd := e.TotalDisplacement()
	tr := Trace{
		Volume:   []float64{0, vd, vd, 0, 0},
		Pressure: []float64{11e5, 11e5, 1e5, 1e5, 11e5},
	}
	perf, err := e.Performance([]Trace{tr})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(perf.IMEP-10) > 1e-9 {
		t.Errorf("IMEP = %g bar, want 10", perf.IMEP)
	}
	work := vd * 10e5
	if want := work * 7500 / 120; math.Abs(perf.Power-want) > 1e-9 {
		t.Errorf("power = %g W, want %g", perf.Power, want)
	}
	if want := perf.Power / (7500 * math.Pi / 30); math.Abs(perf.Torque-want) > 1e-12 {
		t.Errorf("torque = %g, want %g", perf.Torque, want)
	}
	if perf.Efficiency != 0 {
		t.Errorf("efficiency without fuel = %g", perf.Efficiency)
	}
	if _, err := e.Performance(nil); !errors.Is(err, dynamo.ErrInvariant) {
		t.Errorf("missing traces error = %v", err)
	}
}

func TestFormatTable(t *testing.T) {
	out := FormatTable([]Performance{{Speed: 5000, Power: 812.346, Torque: 1.5, IMEP: 7.25, Efficiency: 30, VolumetricEfficiency: 80.5, Residual: 12.126}})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	if lines[0] != "Speed [RPM]\tPower [W]\tTorque [Nm]\tIMEP [bar]\tEfficiency [%]\tVolumetric effic [%]\tResidual mass [%]" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "5000.0\t812.35\t1.50\t7.25\t30.00\t80.50\t12.13" {
		t.Errorf("row = %q", lines[1])
	}
}
