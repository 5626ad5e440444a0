package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/enginesim/internal/dynamo"
	"github.com/san-kum/enginesim/internal/system"
)

const minimalCase = `
name: chamber
gases:
  air: {}
  hot:
    temperature: 600
environments:
  - {name: ambient, gas: air}
reservoirs:
  - {name: tank, volume: 500, gas: hot}
orifices:
  - name: hole
    diameter: 20
    discharge_coefficient: 0.8
    endpoints: [tank, ambient]
`

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte(minimalCase))
	if err != nil {
		t.Fatal(err)
	}
	air := c.Gases["air"]
	if air.Temperature != DefaultTemperature || air.Pressure != DefaultPressure || air.Composition != DefaultComposition {
		t.Errorf("air defaults not applied: %+v", air)
	}
	if hot := c.Gases["hot"]; hot.Temperature != 600 || hot.Pressure != DefaultPressure {
		t.Errorf("hot = %+v", hot)
	}
	if c.EngineGas != DefaultGas {
		t.Errorf("engine gas = %q", c.EngineGas)
	}
	sys, err := c.Build()
	if err != nil {
		t.Fatal(err)
	}
	if len(sys.Elements()) != 2 || len(sys.Connectors()) != 1 {
		t.Errorf("built %d elements and %d connectors", len(sys.Elements()), len(sys.Connectors()))
	}
}

func TestParseEngineJSON(t *testing.T) {
	data := []byte(`{
		"gases": {"air": {}},
		"engine": {
			"speed": 6000.0, "eccentricity": 0.0, "conrod": 58.2, "displacement": 26.2, "bore": 32.0,
			"firing_order": "1",
			"cylinders": [{
				"name": "cyl_1", "compression_ratio": 8.5, "wall_temperature": 470.0,
				"intake_valves": [{"name": "vi", "opening_angle": 285.0, "closing_angle": 630.0, "diameter": 9.3, "max_lift": 3.4}],
				"exhaust_valves": [{"name": "ve", "opening_angle": 90.0, "closing_angle": 435.0, "diameter": 9.3, "max_lift": 3.4}]
			}]
		},
		"environments": [{"name": "ambient", "gas": "air"}],
		"connections": [{"connector": "vi", "element": "ambient"}, {"connector": "ve", "element": "ambient"}]
	}`)
	c, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Speeds) != 1 || c.Speeds[0] != 6000 {
		t.Errorf("speeds = %v, want the engine speed", c.Speeds)
	}
	if _, err := c.Build(); err != nil {
		t.Fatal(err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := map[string]func(*Case){
		"unknown gas":          func(c *Case) { c.Reservoirs[0].Gas = "steam" },
		"duplicate name":       func(c *Case) { c.Reservoirs[0].Name = "ambient" },
		"negative volume":      func(c *Case) { c.Reservoirs[0].Volume = -2 },
		"bad discharge coeff":  func(c *Case) { c.Orifices[0].Cd = 1.5 },
		"firing order length":  func(c *Case) { c.Engine.FiringOrder = "1-2" },
		"combustion no inject": func(c *Case) { c.Engine.Injector = nil },
		"negative speed":       func(c *Case) { c.Speeds = []float64{-100} },
		"duplicate valve":      func(c *Case) { c.Engine.Cylinders[0].ExhaustValves[0].Name = "valve_int" },
		"zero bore":            func(c *Case) { c.Engine.Bore = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := Ryobi()
			mutate(c)
			if err := c.Validate(); !errors.Is(err, dynamo.ErrConfiguration) {
				t.Errorf("Validate() = %v, want configuration error", err)
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := Parse([]byte("gases: [1, 2")); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("error = %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ryobi.yaml")
	if err := Save(path, Ryobi()); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Engine == nil || c.Engine.Combustion == nil || c.Engine.Combustion.IgnitionAngle != 710 {
		t.Fatalf("engine record lost: %+v", c.Engine)
	}
	if len(c.Orifices) != 6 || len(c.Speeds) != 9 {
		t.Errorf("got %d orifices and %d speeds", len(c.Orifices), len(c.Speeds))
	}
}

func TestLoadResolvesSpeciesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "case.yaml")
	if err := os.WriteFile(path, []byte(minimalCase+"species_file: species.yaml\n"), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "species.yaml"); c.SpeciesFile != want {
		t.Errorf("species file = %q, want %q", c.SpeciesFile, want)
	}
	if _, err := c.Table(); err == nil {
		t.Error("expected an error for a missing species file")
	}
}

func TestPresetsBuild(t *testing.T) {
	for _, name := range ListPresets() {
		t.Run(name, func(t *testing.T) {
			c := GetPreset(name)
			if err := c.Validate(); err != nil {
				t.Fatal(err)
			}
			if _, err := c.Build(); err != nil {
				t.Fatal(err)
			}
		})
	}
	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for unknown preset")
	}
	a, b := GetPreset("ryobi"), GetPreset("ryobi")
	a.Reservoirs[0].Volume = 1
	if b.Reservoirs[0].Volume != 250 {
		t.Error("presets share state")
	}
}

func TestSettings(t *testing.T) {
	s, err := ParseSettings([]byte("[solver]\ncrank_step = 0.5\nmax_cycles = 4\nintegrator = euler\n"))
	if err != nil {
		t.Fatal(err)
	}
	def := system.DefaultSettings()
	if s.CrankStep != 0.5 || s.MaxCycles != 4 || s.Integrator != "euler" {
		t.Errorf("settings = %+v", s)
	}
	if s.MaxTime != def.MaxTime || s.FallbackStep != def.FallbackStep {
		t.Errorf("defaults not kept: %+v", s)
	}

	for _, bad := range []string{
		"[solver]\ncrank_step = fast\n",
		"[solver]\nmax_cycles = 2.5\n",
		"[solver]\ncrank_step = -1\n",
		"[solver]\nintegrator = verlet\n",
		"[solver]\nmax_cycle = 3\n",
	} {
		if _, err := ParseSettings([]byte(bad)); !errors.Is(err, dynamo.ErrConfiguration) {
			t.Errorf("ParseSettings(%q) = %v, want configuration error", bad, err)
		}
	}

	path := filepath.Join(t.TempDir(), "solver.ini")
	if err := SaveSettings(path, s); err != nil {
		t.Fatal(err)
	}
	back, err := LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}
	if back != s {
		t.Errorf("round trip = %+v, want %+v", back, s)
	}
	if got, _ := LoadSettings(""); got != def {
		t.Errorf("empty path = %+v", got)
	}
}
