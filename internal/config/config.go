package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/enginesim/internal/dynamo"
	"github.com/san-kum/enginesim/internal/engine"
	"github.com/san-kum/enginesim/internal/system"
	"github.com/san-kum/enginesim/internal/thermo"
)

const (
	DefaultTemperature = 293.0
	DefaultPressure    = 101325.0
	DefaultComposition = "O2:0.21, N2:0.79"
	// DefaultGas names the gas that fills the cylinders when engine_gas is empty.
	DefaultGas = "air"
)

// Case is a complete simulation record: gases, the engine, the surrounding
// network and the operating points to run.
type Case struct {
	Name         string               `yaml:"name"`
	SpeciesFile  string               `yaml:"species_file,omitempty"`
	Gases        map[string]GasConfig `yaml:"gases"`
	EngineGas    string               `yaml:"engine_gas,omitempty"`
	Engine       *engine.Config       `yaml:"engine,omitempty"`
	Environments []EnvironmentConfig  `yaml:"environments"`
	Reservoirs   []ReservoirConfig    `yaml:"reservoirs,omitempty"`
	Orifices     []OrificeConfig      `yaml:"orifices,omitempty"`
	Connections  []ConnectionConfig   `yaml:"connections,omitempty"`
	Speeds       []float64            `yaml:"speeds,omitempty"`
}

type GasConfig struct {
	Temperature float64 `yaml:"temperature"`
	Pressure    float64 `yaml:"pressure"`
	Composition string  `yaml:"composition"`
}

type EnvironmentConfig struct {
	Name string `yaml:"name"`
	Gas  string `yaml:"gas"`
}

type ReservoirConfig struct {
	Name   string  `yaml:"name"`
	Volume float64 `yaml:"volume"` // [cm³]
	Gas    string  `yaml:"gas"`
}

type OrificeConfig struct {
	Name      string   `yaml:"name"`
	Diameter  float64  `yaml:"diameter"` // [mm]
	Cd        float64  `yaml:"discharge_coefficient"`
	Endpoints []string `yaml:"endpoints"`
}

type ConnectionConfig struct {
	Connector string `yaml:"connector"`
	Element   string `yaml:"element"`
}

func DefaultCase() *Case {
	return &Case{
		Gases: map[string]GasConfig{
			DefaultGas: {Temperature: DefaultTemperature, Pressure: DefaultPressure, Composition: DefaultComposition},
		},
	}
}

// Load reads a YAML case. JSON files work as well.
func Load(path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if c.SpeciesFile != "" && !filepath.IsAbs(c.SpeciesFile) {
		c.SpeciesFile = filepath.Join(filepath.Dir(path), c.SpeciesFile)
	}
	return c, nil
}

func Parse(data []byte) (*Case, error) {
	c := DefaultCase()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrConfiguration, err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func Save(path string, c *Case) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Case) applyDefaults() {
	for name, g := range c.Gases {
		if g.Temperature == 0 {
			g.Temperature = DefaultTemperature
		}
		if g.Pressure == 0 {
			g.Pressure = DefaultPressure
		}
		if g.Composition == "" {
			g.Composition = DefaultComposition
		}
		c.Gases[name] = g
	}
	if c.EngineGas == "" {
		c.EngineGas = DefaultGas
	}
	if len(c.Speeds) == 0 && c.Engine != nil {
		c.Speeds = []float64{c.Engine.Speed}
	}
}

// Validate checks the record without building anything.
func (c *Case) Validate() error {
	names := make(map[string]bool)
	claim := func(kind, name string) error {
		if name == "" {
			return dynamo.Configf("%s without a name", kind)
		}
		if names[name] {
			return dynamo.Configf("duplicate name %q", name)
		}
		names[name] = true
		return nil
	}
	gas := func(owner, name string) error {
		if _, ok := c.Gases[name]; !ok {
			return dynamo.Configf("%s refers to unknown gas %q", owner, name)
		}
		return nil
	}

	for name, g := range c.Gases {
		if g.Temperature <= 0 || g.Pressure <= 0 {
			return dynamo.Configf("gas %q: temperature and pressure must be positive", name)
		}
	}
	if len(c.Environments) == 0 && len(c.Reservoirs) == 0 && c.Engine == nil {
		return dynamo.Configf("case %q has no elements", c.Name)
	}
	if e := c.Engine; e != nil {
		if err := gas("engine", c.EngineGas); err != nil {
			return err
		}
		if e.Speed <= 0 || e.Bore <= 0 || e.ConRod <= 0 || e.Displacement <= 0 || e.Eccentricity < 0 {
			return dynamo.Configf("engine: dimensions and speed must be positive")
		}
		if _, err := engine.ParseFiringOrder(e.FiringOrder, len(e.Cylinders)); err != nil {
			return err
		}
		if e.Combustion != nil && e.Injector == nil {
			return dynamo.Configf("engine: a combustion model requires an injector")
		}
		for _, cyl := range e.Cylinders {
			if err := claim("cylinder", cyl.Name); err != nil {
				return err
			}
			for _, v := range append(append([]engine.ValveConfig(nil), cyl.IntakeValves...), cyl.ExhaustValves...) {
				if err := claim("valve", v.Name); err != nil {
					return err
				}
				if v.Diameter <= 0 || v.MaxLift <= 0 {
					return dynamo.Configf("valve %q: diameter and lift must be positive", v.Name)
				}
			}
		}
	}
	for _, env := range c.Environments {
		if err := claim("environment", env.Name); err != nil {
			return err
		}
		if err := gas("environment "+env.Name, env.Gas); err != nil {
			return err
		}
	}
	for _, r := range c.Reservoirs {
		if err := claim("reservoir", r.Name); err != nil {
			return err
		}
		if r.Volume <= 0 {
			return dynamo.Configf("reservoir %q: volume must be positive", r.Name)
		}
		if err := gas("reservoir "+r.Name, r.Gas); err != nil {
			return err
		}
	}
	for _, o := range c.Orifices {
		if err := claim("orifice", o.Name); err != nil {
			return err
		}
		if o.Diameter <= 0 || o.Cd <= 0 || o.Cd > 1 {
			return dynamo.Configf("orifice %q: diameter must be positive and Cd in (0, 1]", o.Name)
		}
	}
	for _, s := range c.Speeds {
		if s <= 0 {
			return dynamo.Configf("speed %g RPM must be positive", s)
		}
	}
	return nil
}

// Table returns the species table named by species_file, or the built-in one.
func (c *Case) Table() (*thermo.Table, error) {
	if c.SpeciesFile == "" {
		return thermo.DefaultTable(), nil
	}
	return thermo.LoadTable(c.SpeciesFile)
}

func (c *Case) Gas(name string, table *thermo.Table) (*thermo.Gas, error) {
	g, ok := c.Gases[name]
	if !ok {
		return nil, dynamo.Configf("unknown gas %q", name)
	}
	return thermo.NewGas(name, table, g.Temperature, g.Pressure, g.Composition)
}

// GasNames returns the gas names in sorted order.
func (c *Case) GasNames() []string {
	names := make([]string, 0, len(c.Gases))
	for n := range c.Gases {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Builder translates the case into a system builder.
func (c *Case) Builder(table *thermo.Table) (*system.Builder, error) {
	gases := make(map[string]*thermo.Gas, len(c.Gases))
	for _, name := range c.GasNames() {
		g, err := c.Gas(name, table)
		if err != nil {
			return nil, err
		}
		gases[name] = g
	}

	b := system.NewBuilder()
	if c.Engine != nil {
		b.AddEngine(*c.Engine, gases[c.EngineGas])
	}
	for _, env := range c.Environments {
		b.AddEnvironment(env.Name, gases[env.Gas])
	}
	for _, r := range c.Reservoirs {
		b.AddReservoir(r.Name, r.Volume, gases[r.Gas])
	}
	for _, o := range c.Orifices {
		b.AddOrifice(o.Name, o.Diameter, o.Cd, o.Endpoints...)
	}
	for _, conn := range c.Connections {
		b.Connect(conn.Connector, conn.Element)
	}
	return b, b.Err()
}

// Build loads the species table and assembles the system.
func (c *Case) Build() (*system.System, error) {
	table, err := c.Table()
	if err != nil {
		return nil, err
	}
	b, err := c.Builder(table)
	if err != nil {
		return nil, err
	}
	return b.Build()
}
