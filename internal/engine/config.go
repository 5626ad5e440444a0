package engine

// Config is the engine record. Units follow the usual engine data sheet:
// mm, cm³, RPM, K and crank-angle degrees from firing TDC.
type Config struct {
	Speed        float64           `yaml:"speed" json:"speed"`
	Eccentricity float64           `yaml:"eccentricity" json:"eccentricity"`
	ConRod       float64           `yaml:"conrod" json:"conrod"`
	Displacement float64           `yaml:"displacement" json:"displacement"`
	Bore         float64           `yaml:"bore" json:"bore"`
	FiringOrder  string            `yaml:"firing_order" json:"firing_order"`
	Combustion   *CombustionConfig `yaml:"combustion,omitempty" json:"combustion,omitempty"`
	Injector     *InjectorConfig   `yaml:"injector,omitempty" json:"injector,omitempty"`
	Cylinders    []CylinderConfig  `yaml:"cylinders" json:"cylinders"`
	// IntakeComposition is the fresh-charge composition; defaults to air.
	IntakeComposition string `yaml:"intake_composition,omitempty" json:"intake_composition,omitempty"`
}

type CombustionConfig struct {
	Model         string      `yaml:"model" json:"model"`
	IgnitionAngle float64     `yaml:"comb_ini" json:"comb_ini"`
	Wiebe         WiebeConfig `yaml:"wiebe" json:"wiebe"`
}

type WiebeConfig struct {
	A        float64 `yaml:"a" json:"a"`
	M        float64 `yaml:"m" json:"m"`
	Duration float64 `yaml:"comb_duration" json:"comb_duration"`
}

type InjectorConfig struct {
	Type         string     `yaml:"inj_type" json:"inj_type"`
	AirFuelRatio float64    `yaml:"air_fuel_ratio" json:"air_fuel_ratio"`
	Fuel         FuelConfig `yaml:"fuel" json:"fuel"`
}

type FuelConfig struct {
	Name    string  `yaml:"name" json:"name"`
	State   string  `yaml:"state" json:"state"`
	LHV     float64 `yaml:"lhv,omitempty" json:"lhv,omitempty"`
	HeatVap float64 `yaml:"heat_vap,omitempty" json:"heat_vap,omitempty"`
}

type CylinderConfig struct {
	Name             string        `yaml:"name" json:"name"`
	CompressionRatio float64       `yaml:"compression_ratio" json:"compression_ratio"`
	WallTemperature  float64       `yaml:"wall_temperature" json:"wall_temperature"`
	StoreSpecies     bool          `yaml:"store_species,omitempty" json:"store_species,omitempty"`
	IntakeValves     []ValveConfig `yaml:"intake_valves" json:"intake_valves"`
	ExhaustValves    []ValveConfig `yaml:"exhaust_valves" json:"exhaust_valves"`
}

type ValveConfig struct {
	Name         string  `yaml:"name" json:"name"`
	OpeningAngle float64 `yaml:"opening_angle" json:"opening_angle"`
	ClosingAngle float64 `yaml:"closing_angle" json:"closing_angle"`
	Diameter     float64 `yaml:"diameter" json:"diameter"`
	MaxLift      float64 `yaml:"max_lift" json:"max_lift"`
}
