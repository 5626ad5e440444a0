package config

import (
	"sort"

	"github.com/san-kum/enginesim/internal/engine"
)

// Presets builds the ready-made cases by name. Each call returns a fresh copy.
var Presets = map[string]func() *Case{
	"ryobi":      Ryobi,
	"relaxation": Relaxation,
}

func GetPreset(name string) *Case {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ryobi is a 26 cm³ single-cylinder engine burning methane, with intake and
// exhaust plena between the ports and the ambient.
func Ryobi() *Case {
	return &Case{
		Name: "ryobi-26",
		Gases: map[string]GasConfig{
			"air":     {Temperature: DefaultTemperature, Pressure: DefaultPressure, Composition: DefaultComposition},
			"exhaust": {Temperature: 500, Pressure: DefaultPressure, Composition: "N2:0.662586, H2O:0.202449, CO2:0.134965"},
		},
		EngineGas: "air",
		Engine: &engine.Config{
			Speed:        7500,
			ConRod:       58.2,
			Displacement: 26.2,
			Bore:         32,
			FiringOrder:  "1",
			Combustion: &engine.CombustionConfig{
				Model:         engine.ModelTwoZone,
				IgnitionAngle: 710,
				Wiebe:         engine.WiebeConfig{A: 6.6, M: 1.535, Duration: 70},
			},
			Injector: &engine.InjectorConfig{
				Type:         "port",
				AirFuelRatio: 0.896,
				Fuel:         engine.FuelConfig{Name: "CH4", State: "gas"},
			},
			Cylinders: []engine.CylinderConfig{{
				Name:             "cyl_1",
				CompressionRatio: 8.5,
				WallTemperature:  470,
				IntakeValves:     []engine.ValveConfig{{Name: "valve_int", OpeningAngle: 285, ClosingAngle: 630, Diameter: 9.3, MaxLift: 3.4}},
				ExhaustValves:    []engine.ValveConfig{{Name: "valve_exh", OpeningAngle: 90, ClosingAngle: 435, Diameter: 9.3, MaxLift: 3.4}},
			}},
		},
		Environments: []EnvironmentConfig{{Name: "ambient", Gas: "air"}},
		Reservoirs: []ReservoirConfig{
			{Name: "int_plenum", Volume: 250, Gas: "air"},
			{Name: "int_port", Volume: 2.04, Gas: "air"},
			{Name: "exh_port", Volume: 2.04, Gas: "exhaust"},
			{Name: "exh_plenum_1", Volume: 95, Gas: "exhaust"},
			{Name: "exh_plenum_2", Volume: 158, Gas: "exhaust"},
		},
		Orifices: []OrificeConfig{
			{Name: "int_plenum -> amb 1", Diameter: 9.5, Cd: 0.92, Endpoints: []string{"ambient", "int_plenum"}},
			{Name: "int_plenum -> amb 2", Diameter: 9.5, Cd: 0.92, Endpoints: []string{"ambient", "int_plenum"}},
			{Name: "int_plenum -> int_port", Diameter: 6.5, Cd: 0.78, Endpoints: []string{"int_plenum", "int_port"}},
			{Name: "exh_plenum_2 -> amb", Diameter: 8.9, Cd: 0.78, Endpoints: []string{"exh_plenum_2", "ambient"}},
			{Name: "exh_plenum_1 -> exh_plenum_2", Diameter: 12.7, Cd: 0.78, Endpoints: []string{"exh_plenum_1", "exh_plenum_2"}},
			{Name: "exh_port -> exh_plenum_1", Diameter: 10.8, Cd: 0.78, Endpoints: []string{"exh_port", "exh_plenum_1"}},
		},
		Connections: []ConnectionConfig{
			{Connector: "valve_int", Element: "int_port"},
			{Connector: "valve_exh", Element: "exh_port"},
		},
		Speeds: []float64{5000, 5500, 6000, 6500, 7000, 7500, 8000, 8500, 9000},
	}
}

// Relaxation is a pressurised chamber venting to the ambient through an orifice.
func Relaxation() *Case {
	return &Case{
		Name: "relaxation",
		Gases: map[string]GasConfig{
			"air":        {Temperature: DefaultTemperature, Pressure: DefaultPressure, Composition: DefaultComposition},
			"compressed": {Temperature: DefaultTemperature, Pressure: 1.2 * DefaultPressure, Composition: DefaultComposition},
		},
		Environments: []EnvironmentConfig{{Name: "ambient", Gas: "air"}},
		Reservoirs:   []ReservoirConfig{{Name: "chamber", Volume: 500, Gas: "compressed"}},
		Orifices:     []OrificeConfig{{Name: "hole", Diameter: 50, Cd: 0.9, Endpoints: []string{"chamber", "ambient"}}},
	}
}
