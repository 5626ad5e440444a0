package zerodim

import (
	"github.com/san-kum/enginesim/internal/dynamo"
	"github.com/san-kum/enginesim/internal/integrators"
	"github.com/san-kum/enginesim/internal/thermo"
)

// Reservoir is a rigid volume of uniform gas. Its composition is fixed; mass
// and temperature follow the net flow through its connectors.
type Reservoir struct {
	name   string
	gas    *thermo.Gas
	volume float64 // [m³]
	mass   float64 // [kg]
	flow   dynamo.FlowRatio

	integrator dynamo.Integrator
	rhs        reservoirRHS
}

// reservoirRHS integrates x = (T, m) in time.
type reservoirRHS struct {
	flow dynamo.FlowRatio
	cv   float64
	out  dynamo.State
}

func (r *reservoirRHS) StateDim() int { return 2 }

func (r *reservoirRHS) Derive(x dynamo.State, _ float64) dynamo.State {
	dm := r.flow.MassFlow
	r.out[0] = (r.flow.EnthalpyFlow - r.cv*x[0]*dm) / (r.cv * x[1])
	r.out[1] = dm
	return r.out
}

// NewReservoir creates a reservoir of volume [m³] filled with gas.
func NewReservoir(name string, gas *thermo.Gas, volume float64) (*Reservoir, error) {
	if name == "" {
		return nil, dynamo.Configf("reservoir needs a name")
	}
	if volume <= 0 {
		return nil, &dynamo.ObjectError{Object: name, Op: "new reservoir", Err: dynamo.Configf("volume must be positive, got %g m³", volume)}
	}
	g := gas.Clone()
	return &Reservoir{
		name:       name,
		gas:        g,
		volume:     volume,
		mass:       g.P() * volume / (g.R() * g.T()),
		integrator: integrators.NewRK4(),
		rhs:        reservoirRHS{out: make(dynamo.State, 2)},
	}, nil
}

func (r *Reservoir) Name() string             { return r.name }
func (r *Reservoir) Kind() Kind               { return KindReservoir }
func (r *Reservoir) Gas() *thermo.Gas         { return r.gas }
func (r *Reservoir) Mass() float64            { return r.mass }
func (r *Reservoir) Volume() float64          { return r.volume }
func (r *Reservoir) Flow() dynamo.FlowRatio   { return r.flow }
func (r *Reservoir) State() dynamo.Properties { return gasProperties(r.name, r.gas) }

func (r *Reservoir) SetIntegrator(in dynamo.Integrator) { r.integrator = in }

func (r *Reservoir) UpdateFlow(flows []Inflow) error {
	r.flow = sumFlows(flows)
	return nil
}

func (r *Reservoir) Advance(dt float64) error {
	r.rhs.flow = r.flow
	r.rhs.cv = r.gas.Cv()
	x := r.integrator.Step(&r.rhs, dynamo.State{r.gas.T(), r.mass}, 0, dt)
	if !x.IsValid() || x[1] <= 0 {
		return &dynamo.ObjectError{Object: r.name, Op: "advance", Err: dynamo.Domainf("non-physical state T=%g K m=%g kg", x[0], x[1])}
	}
	p := x[1] * r.gas.R() * x[0] / r.volume
	if err := r.gas.SetState(x[0], p); err != nil {
		return &dynamo.ObjectError{Object: r.name, Op: "advance", Err: err}
	}
	r.mass = x[1]
	return nil
}

func (r *Reservoir) Headers() []string {
	return []string{"pressure [bar]", "temperature [K]", "mass [kg]"}
}

func (r *Reservoir) Sample() []float64 {
	return []float64{r.gas.P() / 1e5, r.gas.T(), r.mass}
}
