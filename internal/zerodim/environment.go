package zerodim

import (
	"github.com/san-kum/enginesim/internal/dynamo"
	"github.com/san-kum/enginesim/internal/thermo"
)

// Environment is an infinite volume at constant pressure, temperature and
// composition.
type Environment struct {
	name string
	gas  *thermo.Gas
}

func NewEnvironment(name string, gas *thermo.Gas) (*Environment, error) {
	if name == "" {
		return nil, dynamo.Configf("environment needs a name")
	}
	return &Environment{name: name, gas: gas.Clone()}, nil
}

func (e *Environment) Name() string              { return e.name }
func (e *Environment) Kind() Kind                { return KindEnvironment }
func (e *Environment) Gas() *thermo.Gas          { return e.gas }
func (e *Environment) State() dynamo.Properties  { return gasProperties(e.name, e.gas) }
func (e *Environment) Advance(float64) error     { return nil }
func (e *Environment) UpdateFlow([]Inflow) error { return nil }

func (e *Environment) Headers() []string {
	return []string{"pressure [bar]", "temperature [K]"}
}

func (e *Environment) Sample() []float64 {
	return []float64{e.gas.P() / 1e5, e.gas.T()}
}
