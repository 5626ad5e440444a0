package thermo

import (
	"math"

	"github.com/san-kum/enginesim/internal/dynamo"
)

// Gas is an ideal-gas mixture whose derived properties are recomputed eagerly
// on every state change. A Gas is owned by exactly one control volume; use
// Clone to share an initial state.
type Gas struct {
	name  string
	table *Table
	x     []float64

	t, p float64

	m, cp, cv, r, k float64
	h, s, e         float64
	rho, a, mu      float64
}

// Charge is a mass of gas with a known mole-fraction vector.
type Charge struct {
	Mass float64
	X    []float64
}

// NewGas builds a gas at (t, p) with the given composition string.
func NewGas(name string, table *Table, t, p float64, composition string) (*Gas, error) {
	x, err := ParseComposition(table, composition)
	if err != nil {
		return nil, err
	}
	g := &Gas{name: name, table: table}
	if err := g.SetTPX(t, p, x); err != nil {
		return nil, err
	}
	return g, nil
}

// Clone returns a deep copy that shares only the immutable species table.
func (g *Gas) Clone() *Gas {
	c := *g
	c.x = append([]float64(nil), g.x...)
	return &c
}

func (g *Gas) SetState(t, p float64) error {
	return g.SetTPX(t, p, g.x)
}

// SetComposition parses and applies a composition string at the current T and P.
func (g *Gas) SetComposition(spec string) error {
	x, err := ParseComposition(g.table, spec)
	if err != nil {
		return err
	}
	return g.SetTPX(g.t, g.p, x)
}

func (g *Gas) SetMoleFractions(x []float64) error {
	return g.SetTPX(g.t, g.p, x)
}

// SetTPX sets temperature, pressure and mole fractions at once. On error the
// previous state is left untouched.
func (g *Gas) SetTPX(t, p float64, x []float64) error {
	if err := checkMoleFractions(x, g.table.Len()); err != nil {
		return err
	}
	if !(t > 0) || math.IsInf(t, 0) {
		return dynamo.Domainf("gas %s: temperature must be positive and finite, got %g K", g.name, t)
	}
	if !(p > 0) || math.IsInf(p, 0) {
		return dynamo.Domainf("gas %s: pressure must be positive and finite, got %g Pa", g.name, p)
	}
	for i, xi := range x {
		if xi == 0 {
			continue
		}
		if th := &g.table.species[i].Thermo; !th.InRange(t) {
			return dynamo.Domainf("gas %s: T=%g K outside the polynomial range [%g, %g] of %s",
				g.name, t, th.TLow, th.THigh, g.table.species[i].Name)
		}
	}

	if len(g.x) != len(x) {
		g.x = make([]float64, len(x))
	}
	copy(g.x, x)
	g.t = t
	g.p = p
	g.update()
	return nil
}

func (g *Gas) update() {
	const ru = dynamo.RUniversal

	var cpMol, hMol, sMol, m float64
	for i, xi := range g.x {
		if xi == 0 {
			continue
		}
		cpR, hRT, sR := g.table.species[i].Thermo.Eval(g.t)
		cpMol += xi * cpR * ru
		hMol += xi * hRT * ru * g.t
		sMol += xi * ru * (sR - math.Log(xi*g.p/dynamo.PRef))
		m += xi * g.table.molar[i]
	}

	g.m = m
	g.r = ru / m
	g.cp = cpMol / m
	g.cv = g.cp - g.r
	g.h = hMol / m
	g.s = sMol / m
	g.k = g.cp / g.cv
	g.rho = g.p / (g.r * g.t)
	g.e = g.h - g.p/g.rho
	g.a = math.Sqrt(g.k * g.r * g.t)
	g.mu = 1.458e-6 * g.t * math.Sqrt(g.t) / (g.t + 110.4)
}

// MixedWith returns the mole fractions that would result from mixing mass kg
// of this gas with the given charges. The gas itself is not modified.
func (g *Gas) MixedWith(mass float64, charges ...Charge) ([]float64, error) {
	added := make([]float64, len(g.x))
	anyMass := false
	for _, c := range charges {
		if c.Mass == 0 {
			continue
		}
		if err := checkMoleFractions(c.X, g.table.Len()); err != nil {
			return nil, err
		}
		anyMass = true
		mw := g.table.MeanMolarMass(c.X)
		for i, xi := range c.X {
			added[i] += xi * c.Mass / mw
		}
	}
	if !anyMass {
		return g.MoleFractions(), nil
	}

	total := 0.0
	for i := range added {
		added[i] += g.x[i] * mass / g.m
		total += added[i]
	}
	if !(total > 0) {
		return nil, dynamo.Domainf("gas %s: mixing produced %g kmol", g.name, total)
	}
	for i := range added {
		added[i] /= total
	}
	return added, nil
}

func (g *Gas) Name() string    { return g.name }
func (g *Gas) Table() *Table   { return g.table }
func (g *Gas) T() float64      { return g.t }
func (g *Gas) P() float64      { return g.p }
func (g *Gas) Rho() float64    { return g.rho }
func (g *Gas) Cp() float64     { return g.cp }
func (g *Gas) Cv() float64     { return g.cv }
func (g *Gas) R() float64      { return g.r }
func (g *Gas) K() float64      { return g.k }
func (g *Gas) M() float64      { return g.m }
func (g *Gas) H() float64      { return g.h }
func (g *Gas) S() float64      { return g.s }
func (g *Gas) E() float64      { return g.e }
func (g *Gas) A() float64      { return g.a }
func (g *Gas) Mu() float64     { return g.mu }
func (g *Gas) NumSpecies() int { return g.table.Len() }

// MoleFractions returns a copy of the mole-fraction vector.
func (g *Gas) MoleFractions() []float64 {
	return append([]float64(nil), g.x...)
}

// MoleFractionOf returns the mole fraction of a species, or an error if the
// species is not in the table.
func (g *Gas) MoleFractionOf(species string) (float64, error) {
	i := g.table.Index(species)
	if i < 0 {
		return 0, dynamo.Configf("gas %s: species %q not found", g.name, species)
	}
	return g.x[i], nil
}
