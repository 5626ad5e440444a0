package thermo

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/enginesim/internal/dynamo"
)

//go:embed data/species.yaml
var defaultSpeciesYAML []byte

type Species struct {
	Name      string             `yaml:"name"`
	MolarMass float64            `yaml:"molar_mass"` // [kg/kmol]
	Atoms     map[string]float64 `yaml:"atoms"`
	Thermo    NASA7              `yaml:"thermo"`
}

// Table is an immutable, validated, ordered set of species. Gases created from
// the same table share it.
type Table struct {
	name    string
	species []Species
	index   map[string]int
	molar   []float64
}

type tableFile struct {
	Name    string    `yaml:"name"`
	Species []Species `yaml:"species"`
}

func NewTable(name string, species []Species) (*Table, error) {
	if len(species) == 0 {
		return nil, dynamo.Configf("species table %q is empty", name)
	}
	t := &Table{
		name:    name,
		species: make([]Species, len(species)),
		index:   make(map[string]int, len(species)),
		molar:   make([]float64, len(species)),
	}
	for i, s := range species {
		if s.Name == "" {
			return nil, dynamo.Configf("species table %q: entry %d has no name", name, i)
		}
		if _, dup := t.index[s.Name]; dup {
			return nil, dynamo.Configf("species table %q: duplicate species %s", name, s.Name)
		}
		if s.MolarMass <= 0 {
			return nil, dynamo.Configf("species %s: molar mass must be positive, got %g", s.Name, s.MolarMass)
		}
		if err := s.Thermo.Validate(s.Name); err != nil {
			return nil, err
		}
		t.species[i] = s
		t.index[s.Name] = i
		t.molar[i] = s.MolarMass
	}
	return t, nil
}

// ParseTable decodes a YAML species document.
func ParseTable(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parse species table: %v", dynamo.ErrConfiguration, err)
	}
	return NewTable(f.Name, f.Species)
}

func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTable(data)
}

// DefaultTable returns the embedded O2/N2/H2O/CO2/CH4/C3H8/AR table.
func DefaultTable() *Table {
	t, err := ParseTable(defaultSpeciesYAML)
	if err != nil {
		panic(fmt.Sprintf("thermo: embedded species table is invalid: %v", err))
	}
	return t
}

func (t *Table) Name() string { return t.name }
func (t *Table) Len() int     { return len(t.species) }

func (t *Table) Names() []string {
	names := make([]string, len(t.species))
	for i, s := range t.species {
		names[i] = s.Name
	}
	return names
}

// Index returns the position of a species or -1.
func (t *Table) Index(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

func (t *Table) Contains(name string) bool {
	_, ok := t.index[name]
	return ok
}

func (t *Table) Species(i int) Species { return t.species[i] }

func (t *Table) MolarMass(i int) float64 { return t.molar[i] }

func (t *Table) Lookup(name string) (Species, error) {
	i, ok := t.index[name]
	if !ok {
		return Species{}, dynamo.Configf("species %q not found in table %q", name, t.name)
	}
	return t.species[i], nil
}

// MeanMolarMass returns Σ xᵢ·Mᵢ.
func (t *Table) MeanMolarMass(x []float64) float64 {
	m := 0.0
	for i, xi := range x {
		m += xi * t.molar[i]
	}
	return m
}
