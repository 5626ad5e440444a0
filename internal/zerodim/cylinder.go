package zerodim

import (
	"math"

	"github.com/san-kum/enginesim/internal/combustion"
	"github.com/san-kum/enginesim/internal/dynamo"
	"github.com/san-kum/enginesim/internal/integrators"
	"github.com/san-kum/enginesim/internal/thermo"
)

// DefaultIntakeComposition is the fresh charge admitted through intake valves.
const DefaultIntakeComposition = "O2:0.21, N2:0.79"

// CylinderParams describes one cylinder. Lengths are in metres, volumes in m³,
// speed in RPM and angles in crank-angle degrees from firing TDC.
type CylinderParams struct {
	Name             string
	Bore             float64
	ConRod           float64
	Eccentricity     float64
	Displacement     float64
	CompressionRatio float64
	WallTemperature  float64
	Speed            float64
	InitialAngle     float64
	IntakeValves     []string
	ExhaustValves    []string
	// IntakeComposition defaults to DefaultIntakeComposition.
	IntakeComposition string
	StoreSpecies      bool
}

// port tracks the flow through one valve and, for intake valves, the mass
// that has to flow back in before any fresh charge enters.
type port struct {
	name string
	flow dynamo.FlowRatio
	debt float64
}

// charge returns the fresh mass admitted during dt.
func (p *port) charge(dt float64) float64 {
	in := p.flow.MassFlow * dt
	if in < 0 {
		p.debt -= in
		return 0
	}
	fresh := in - p.debt
	if fresh >= 0 {
		p.debt = 0
		return fresh
	}
	p.debt = -fresh
	return 0
}

// Cylinder is a variable-volume control volume driven by crank kinematics.
// While no valve carries flow it is closed: pressure is integrated with the
// combustion heat release. Otherwise it is open: temperature and mass follow
// the valve flows and the fresh charge is mixed in.
type Cylinder struct {
	name   string
	gas    *thermo.Gas
	mass   float64 // [kg]
	volume float64 // [m³]
	angle  float64 // [rad] in [0, 4π)
	rpm    float64
	omega  float64 // [rad/s]

	kin          *Kinematics
	walls        Walls
	heat         HeatTransfer
	model        combustion.Model
	injector     *Injector
	intake       []port
	exhaust      []port
	intakeX      []float64
	storeSpecies bool

	closed    bool
	fuel      float64 // burning in the current closed phase [kg]
	injected  float64 // port fuel admitted in the current open phase [kg]
	fresh     float64 // fresh charge admitted in the current open phase [kg]
	trapped   float64
	residual  float64
	cycleFuel float64

	integrator dynamo.Integrator
	closedRHS  closedPhase
	openRHS    openPhase
}

// NewCylinder builds a cylinder filled with gas at its initial angle. model
// may be nil for a motored cylinder; injector may be nil.
func NewCylinder(p CylinderParams, gas *thermo.Gas, model combustion.Model, injector *Injector) (*Cylinder, error) {
	fail := func(err error) (*Cylinder, error) {
		return nil, &dynamo.ObjectError{Object: p.Name, Op: "new cylinder", Err: err}
	}
	if p.Name == "" {
		return nil, dynamo.Configf("cylinder needs a name")
	}
	if p.Speed <= 0 {
		return fail(dynamo.Configf("engine speed must be positive, got %g RPM", p.Speed))
	}
	if p.WallTemperature <= 0 {
		return fail(dynamo.Configf("wall temperature must be positive, got %g K", p.WallTemperature))
	}
	if len(p.IntakeValves) == 0 || len(p.ExhaustValves) == 0 {
		return fail(dynamo.Configf("a cylinder needs at least one intake and one exhaust valve"))
	}
	if model != nil && injector == nil {
		if _, none := model.(combustion.None); !none {
			return fail(dynamo.Configf("combustion model %q requires an injector", model.Name()))
		}
	}
	kin, err := NewKinematics(p.Bore, p.ConRod, p.Eccentricity, p.Displacement, p.CompressionRatio)
	if err != nil {
		return fail(err)
	}
	comp := p.IntakeComposition
	if comp == "" {
		comp = DefaultIntakeComposition
	}
	intakeX, err := thermo.ParseComposition(gas.Table(), comp)
	if err != nil {
		return fail(err)
	}
	if model == nil {
		model = combustion.None{}
	}
	if injector != nil {
		injector = injector.Clone()
	}

	c := &Cylinder{
		name:         p.Name,
		gas:          gas.Clone(),
		angle:        dynamo.WrapAngle(p.InitialAngle * math.Pi / 180),
		kin:          kin,
		walls:        UniformWalls(p.WallTemperature),
		heat:         Hohenberg{},
		model:        model.Clone(),
		injector:     injector,
		intakeX:      intakeX,
		storeSpecies: p.StoreSpecies,
		integrator:   integrators.NewRK4(),
		closedRHS:    closedPhase{out: make(dynamo.State, 1)},
		openRHS:      openPhase{out: make(dynamo.State, 2)},
	}
	c.setSpeed(p.Speed)
	for _, n := range p.IntakeValves {
		c.intake = append(c.intake, port{name: n})
	}
	for _, n := range p.ExhaustValves {
		c.exhaust = append(c.exhaust, port{name: n})
	}
	c.volume, _ = kin.Volume(c.angle)
	c.mass = c.gas.P() * c.volume / (c.gas.R() * c.gas.T())
	return c, nil
}

func (c *Cylinder) setSpeed(rpm float64) {
	c.rpm = rpm
	c.omega = 2 * math.Pi * rpm / 60
}

// closedPhase integrates x = (P) in crank angle at fixed mass.
type closedPhase struct {
	kin         *Kinematics
	heat        HeatTransfer
	walls       Walls
	pistonSpeed float64
	omega       float64
	mass        float64
	cv          float64
	r           float64
	release     float64 // [J/rad]
	out         dynamo.State
}

func (s *closedPhase) StateDim() int { return 1 }

func (s *closedPhase) Derive(x dynamo.State, theta float64) dynamo.State {
	p := x[0]
	v, dv := s.kin.Volume(theta)
	t := p * v / (s.mass * s.r)
	q := s.heat.Rate(s.kin, s.walls, s.pistonSpeed, v, t, p) / s.omega
	dT := (s.release + q - p*dv) / (s.mass * s.cv)
	s.out[0] = p * (dT/t - dv/v)
	return s.out
}

// openPhase integrates x = (T, m) in crank angle with fixed valve flows.
type openPhase struct {
	kin         *Kinematics
	heat        HeatTransfer
	walls       Walls
	pistonSpeed float64
	omega       float64
	cv          float64
	r           float64
	dm          float64 // [kg/rad]
	dh          float64 // [J/rad]
	out         dynamo.State
}

func (s *openPhase) StateDim() int { return 2 }

func (s *openPhase) Derive(x dynamo.State, theta float64) dynamo.State {
	t, m := x[0], x[1]
	v, dv := s.kin.Volume(theta)
	p := m * s.r * t / v
	q := s.heat.Rate(s.kin, s.walls, s.pistonSpeed, v, t, p) / s.omega
	s.out[0] = (q - p*dv + s.dh - s.cv*t*s.dm) / (m * s.cv)
	s.out[1] = s.dm
	return s.out
}

func (c *Cylinder) Name() string { return c.name }
func (c *Cylinder) Kind() Kind   { return KindCylinder }

func (c *Cylinder) State() dynamo.Properties {
	s := gasProperties(c.name, c.gas)
	s.CrankAngle = c.angle
	s.HasCrankAngle = true
	return s
}

// UpdateFlow records the flow of every valve of the cylinder.
func (c *Cylinder) UpdateFlow(flows []Inflow) error {
	for _, set := range [][]port{c.intake, c.exhaust} {
		for i := range set {
			found := false
			for _, f := range flows {
				if f.Connector == set[i].name {
					set[i].flow = f.Flow
					found = true
					break
				}
			}
			if !found {
				return &dynamo.ObjectError{Object: c.name, Op: "update flow", Err: dynamo.Invariantf("no flow reported by valve %q", set[i].name)}
			}
		}
	}
	return nil
}

func (c *Cylinder) valveFlow() (intake, exhaust dynamo.FlowRatio) {
	for _, p := range c.intake {
		intake = intake.Add(p.flow)
	}
	for _, p := range c.exhaust {
		exhaust = exhaust.Add(p.flow)
	}
	return intake, exhaust
}

func (c *Cylinder) Advance(dt float64) error {
	dTheta := dt * c.omega
	in, ex := c.valveFlow()

	var (
		t, p, m, v float64
		x          []float64
		err        error
	)
	if in.MassFlow == 0 && ex.MassFlow == 0 {
		t, p, m, v, x, err = c.closedStep(dTheta)
	} else {
		t, p, m, v, x, err = c.openStep(dTheta, dt, in.Add(ex))
	}
	if err != nil {
		return &dynamo.ObjectError{Object: c.name, Op: "advance", Err: err}
	}
	if err := c.gas.SetTPX(t, p, x); err != nil {
		return &dynamo.ObjectError{Object: c.name, Op: "advance", Err: err}
	}
	c.angle = dynamo.WrapAngle(c.angle + dTheta)
	c.mass = m
	c.volume = v
	return nil
}

// closeValves captures the trapped-charge diagnostics when the cylinder
// becomes closed.
func (c *Cylinder) closeValves() {
	c.closed = true
	c.trapped = c.mass
	c.residual = 1 - c.fresh/c.mass
	switch {
	case c.injector == nil:
		c.fuel = 0
	case c.injector.Type() == DirectInjection:
		c.fuel = c.injector.DirectFuel(c.fresh)
	default:
		c.fuel = c.injected
	}
	c.cycleFuel = c.fuel
	c.injected = 0
	c.fresh = 0
}

func (c *Cylinder) closedStep(dTheta float64) (t, p, m, v float64, x []float64, err error) {
	if !c.closed {
		c.closeValves()
	}
	s := &c.closedRHS
	s.kin, s.heat, s.walls = c.kin, c.heat, c.walls
	s.pistonSpeed = c.kin.MeanPistonSpeed(c.rpm)
	s.omega = c.omega
	s.mass = c.mass
	s.cv = c.gas.Cv()
	s.r = c.gas.R()
	s.release = c.model.HeatReleaseRate(c.gas, c.fuel, c.angle)

	out := c.integrator.Step(s, dynamo.State{c.gas.P()}, c.angle, dTheta)
	p = out[0]
	v, _ = c.kin.Volume(c.angle + dTheta)
	t = p * v / (c.mass * c.gas.R())
	if !(p > 0) || !(t > 0) {
		return 0, 0, 0, 0, nil, dynamo.Domainf("closed phase produced P=%g Pa T=%g K", p, t)
	}
	x, err = c.model.UpdateComposition(c.gas, c.mass, dynamo.WrapAngle(c.angle+dTheta), p, v)
	return t, p, c.mass, v, x, err
}

func (c *Cylinder) openStep(dTheta, dt float64, flow dynamo.FlowRatio) (t, p, m, v float64, x []float64, err error) {
	c.closed = false
	c.fuel = 0

	s := &c.openRHS
	s.kin, s.heat, s.walls = c.kin, c.heat, c.walls
	s.pistonSpeed = c.kin.MeanPistonSpeed(c.rpm)
	s.omega = c.omega
	s.cv = c.gas.Cv()
	s.r = c.gas.R()
	s.dm = flow.MassFlow / c.omega
	s.dh = flow.EnthalpyFlow / c.omega

	out := c.integrator.Step(s, dynamo.State{c.gas.T(), c.mass}, c.angle, dTheta)
	t, m = out[0], out[1]
	if !(t > 0) || !(m > 0) {
		return 0, 0, 0, 0, nil, dynamo.Domainf("open phase produced T=%g K m=%g kg", t, m)
	}
	v, _ = c.kin.Volume(c.angle + dTheta)
	p = m * c.gas.R() * t / v

	fresh := 0.0
	for i := range c.intake {
		fresh += c.intake[i].charge(dt)
	}
	c.fresh += fresh

	charges := []thermo.Charge{{Mass: fresh, X: c.intakeX}}
	if c.injector != nil && c.injector.Type() == PortInjection {
		fuel := c.injector.PortFuel(fresh)
		c.injected += fuel
		charges = []thermo.Charge{
			{Mass: fresh - fuel, X: c.intakeX},
			{Mass: fuel, X: c.injector.Fuel().MoleFractions()},
		}
	}
	x, err = c.gas.MixedWith(c.mass, charges...)
	return t, p, m, v, x, err
}

func (c *Cylinder) Headers() []string {
	h := []string{"crank-angle [deg]", "pressure [bar]", "temperature [K]", "volume [cm³]", "mass [mg]"}
	if c.storeSpecies {
		h = append(h, c.gas.Table().Names()...)
	}
	return h
}

func (c *Cylinder) Sample() []float64 {
	row := []float64{c.angle * 180 / math.Pi, c.gas.P() / 1e5, c.gas.T(), c.volume * 1e6, c.mass * 1e6}
	if c.storeSpecies {
		row = append(row, c.gas.MoleFractions()...)
	}
	return row
}

// Gas returns the cylinder charge. Callers must not modify it.
func (c *Cylinder) Gas() *thermo.Gas             { return c.gas }
func (c *Cylinder) Angle() float64               { return c.angle }
func (c *Cylinder) Volume() float64              { return c.volume }
func (c *Cylinder) Mass() float64                { return c.mass }
func (c *Cylinder) Speed() float64               { return c.rpm }
func (c *Cylinder) Closed() bool                 { return c.closed }
func (c *Cylinder) Kinematics() *Kinematics      { return c.kin }
func (c *Cylinder) Combustion() combustion.Model { return c.model }
func (c *Cylinder) Injector() *Injector          { return c.injector }
func (c *Cylinder) StoreSpecies() bool           { return c.storeSpecies }

// Valves returns the names of the intake and exhaust valves.
func (c *Cylinder) Valves() (intake, exhaust []string) {
	for _, p := range c.intake {
		intake = append(intake, p.name)
	}
	for _, p := range c.exhaust {
		exhaust = append(exhaust, p.name)
	}
	return intake, exhaust
}

// TrappedMass is the mass captured at the last valve closure [kg].
func (c *Cylinder) TrappedMass() float64 { return c.trapped }

// ResidualFraction is the share of the trapped mass that was not fresh charge.
func (c *Cylinder) ResidualFraction() float64 { return c.residual }

// FuelMass is the fuel burned in the last closed phase [kg].
func (c *Cylinder) FuelMass() float64 { return c.cycleFuel }

func (c *Cylinder) SetSpeed(rpm float64) error {
	if rpm <= 0 {
		return &dynamo.ObjectError{Object: c.name, Op: "set speed", Err: dynamo.Configf("speed must be positive, got %g RPM", rpm)}
	}
	c.setSpeed(rpm)
	return nil
}

func (c *Cylinder) SetDisplacement(displacement float64) error {
	if err := c.kin.resize(displacement, c.kin.compression); err != nil {
		return &dynamo.ObjectError{Object: c.name, Op: "set displacement", Err: err}
	}
	return nil
}

func (c *Cylinder) SetCompressionRatio(ratio float64) error {
	if err := c.kin.resize(c.kin.displacement, ratio); err != nil {
		return &dynamo.ObjectError{Object: c.name, Op: "set compression ratio", Err: err}
	}
	return nil
}

// SetCombustion installs a private copy of model.
func (c *Cylinder) SetCombustion(model combustion.Model) error {
	if model == nil {
		model = combustion.None{}
	}
	if _, none := model.(combustion.None); !none && c.injector == nil {
		return &dynamo.ObjectError{Object: c.name, Op: "set combustion", Err: dynamo.Configf("a combustion model needs an injector")}
	}
	c.model = model.Clone()
	return nil
}

func (c *Cylinder) SetAirFuelRatio(lambda float64) error {
	if c.injector == nil {
		return &dynamo.ObjectError{Object: c.name, Op: "set air-fuel ratio", Err: dynamo.Configf("cylinder has no injector")}
	}
	if err := c.injector.SetAirFuelRatio(lambda); err != nil {
		return err
	}
	if tz, ok := c.model.(*combustion.TwoZone); ok {
		return tz.SetAirFuelRatio(lambda)
	}
	return nil
}

func (c *Cylinder) SetStoreSpecies(store bool)         { c.storeSpecies = store }
func (c *Cylinder) SetHeatTransfer(h HeatTransfer)     { c.heat = h }
func (c *Cylinder) SetWalls(w Walls)                   { c.walls = w }
func (c *Cylinder) SetIntegrator(in dynamo.Integrator) { c.integrator = in }
