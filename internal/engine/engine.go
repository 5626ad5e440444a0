package engine

import (
	"strconv"
	"strings"

	"github.com/san-kum/enginesim/internal/combustion"
	"github.com/san-kum/enginesim/internal/connector"
	"github.com/san-kum/enginesim/internal/dynamo"
	"github.com/san-kum/enginesim/internal/thermo"
	"github.com/san-kum/enginesim/internal/zerodim"
)

// Combustion model names accepted in the engine record.
const (
	ModelTwoZone = "Two-zone model"
	ModelNone    = "none"
)

// Engine groups the cylinders and valves built from one engine record.
type Engine struct {
	cfg       Config
	order     []int
	fuel      *combustion.Fuel
	injector  *zerodim.Injector
	model     combustion.Model
	cylinders []*zerodim.Cylinder
	valves    []*connector.Valve
}

// ParseFiringOrder splits "1-3-4-2" into 1-based indices and checks there is
// one per cylinder.
func ParseFiringOrder(s string, cylinders int) ([]int, error) {
	tokens := strings.Split(s, "-")
	order := make([]int, 0, len(tokens))
	for _, tok := range tokens {
		n, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil || n < 1 {
			return nil, dynamo.Configf("firing order %q: %q is not a positive index", s, tok)
		}
		order = append(order, n)
	}
	if len(order) != cylinders {
		return nil, dynamo.Configf("firing order %q has %d entries but the engine has %d cylinders", s, len(order), cylinders)
	}
	return order, nil
}

// New assembles an engine. Every cylinder starts with a copy of gas.
func New(cfg Config, gas *thermo.Gas) (*Engine, error) {
	if cfg.Speed <= 0 || cfg.Bore <= 0 || cfg.Displacement <= 0 || cfg.ConRod <= 0 {
		return nil, dynamo.Configf("speed %g RPM, bore %g mm, displacement %g cm³ and conrod %g mm must be positive",
			cfg.Speed, cfg.Bore, cfg.Displacement, cfg.ConRod)
	}
	if len(cfg.Cylinders) == 0 {
		return nil, dynamo.Configf("engine has no cylinders")
	}
	order, err := ParseFiringOrder(cfg.FiringOrder, len(cfg.Cylinders))
	if err != nil {
		return nil, err
	}
	if cfg.Combustion != nil && cfg.Injector == nil {
		return nil, dynamo.Configf("a combustion model can only be used with an injector")
	}

	e := &Engine{cfg: cfg, order: order, model: combustion.None{}}

	intake := cfg.IntakeComposition
	if intake == "" {
		intake = zerodim.DefaultIntakeComposition
	}
	air := gas.Clone()
	if err := air.SetComposition(intake); err != nil {
		return nil, err
	}

	if ic := cfg.Injector; ic != nil {
		kind, err := zerodim.ParseInjectionType(ic.Type)
		if err != nil {
			return nil, err
		}
		e.fuel, err = combustion.NewFuel(gas.Table(), ic.Fuel.Name, ic.Fuel.LHV, ic.Fuel.HeatVap)
		if err != nil {
			return nil, err
		}
		e.injector, err = zerodim.NewInjector(kind, ic.AirFuelRatio, e.fuel, air)
		if err != nil {
			return nil, err
		}
		if cc := cfg.Combustion; cc != nil {
			e.model, err = newModel(cc, ic.AirFuelRatio, e.fuel, air)
			if err != nil {
				return nil, err
			}
		}
	}

	maxOrder := 0
	for _, o := range order {
		maxOrder = max(maxOrder, o)
	}
	division := 720.0 / float64(maxOrder)

	for i, cc := range cfg.Cylinders {
		p := zerodim.CylinderParams{
			Name:              cc.Name,
			Bore:              cfg.Bore * 1e-3,
			ConRod:            cfg.ConRod * 1e-3,
			Eccentricity:      cfg.Eccentricity * 1e-3,
			Displacement:      cfg.Displacement * 1e-6,
			CompressionRatio:  cc.CompressionRatio,
			WallTemperature:   cc.WallTemperature,
			Speed:             cfg.Speed,
			InitialAngle:      180 + float64(order[i]-1)*division,
			IntakeComposition: intake,
			StoreSpecies:      cc.StoreSpecies,
		}
		for _, v := range cc.IntakeValves {
			p.IntakeValves = append(p.IntakeValves, v.Name)
		}
		for _, v := range cc.ExhaustValves {
			p.ExhaustValves = append(p.ExhaustValves, v.Name)
		}
		cyl, err := zerodim.NewCylinder(p, gas, e.model, e.injector)
		if err != nil {
			return nil, err
		}
		e.cylinders = append(e.cylinders, cyl)

		for _, vc := range append(append([]ValveConfig(nil), cc.IntakeValves...), cc.ExhaustValves...) {
			v, err := connector.NewValve(vc.Name, cc.Name, vc.OpeningAngle, vc.ClosingAngle, vc.Diameter*1e-3, vc.MaxLift*1e-3)
			if err != nil {
				return nil, err
			}
			e.valves = append(e.valves, v)
		}
	}
	return e, nil
}

func newModel(cc *CombustionConfig, lambda float64, fuel *combustion.Fuel, air *thermo.Gas) (combustion.Model, error) {
	switch strings.ToLower(cc.Model) {
	case strings.ToLower(ModelTwoZone), "two-zone", "twozone":
		return combustion.NewTwoZone(combustion.TwoZoneParams{
			IgnitionDeg: cc.IgnitionAngle,
			DurationDeg: cc.Wiebe.Duration,
			A:           cc.Wiebe.A,
			M:           cc.Wiebe.M,
			Lambda:      lambda,
		}, fuel, air)
	case ModelNone, "":
		return combustion.None{}, nil
	default:
		return nil, dynamo.Configf("unknown combustion model %q", cc.Model)
	}
}

func (e *Engine) Config() Config                 { return e.cfg }
func (e *Engine) Speed() float64                 { return e.cfg.Speed }
func (e *Engine) FiringOrder() []int             { return append([]int(nil), e.order...) }
func (e *Engine) Cylinders() []*zerodim.Cylinder { return e.cylinders }
func (e *Engine) Valves() []*connector.Valve     { return e.valves }
func (e *Engine) Injector() *zerodim.Injector    { return e.injector }
func (e *Engine) Fuel() *combustion.Fuel         { return e.fuel }
func (e *Engine) CombustionModel() string        { return e.model.Name() }

// TotalDisplacement is the swept volume of all cylinders [m³].
func (e *Engine) TotalDisplacement() float64 {
	total := 0.0
	for _, c := range e.cylinders {
		total += c.Kinematics().Displacement()
	}
	return total
}

// SetSpeed changes the engine speed [RPM] of every cylinder.
func (e *Engine) SetSpeed(rpm float64) error {
	for _, c := range e.cylinders {
		if err := c.SetSpeed(rpm); err != nil {
			return err
		}
	}
	e.cfg.Speed = rpm
	return nil
}

// SetDisplacement changes the per-cylinder displacement [cm³].
func (e *Engine) SetDisplacement(cm3 float64) error {
	for _, c := range e.cylinders {
		if err := c.SetDisplacement(cm3 * 1e-6); err != nil {
			return err
		}
	}
	e.cfg.Displacement = cm3
	return nil
}

func (e *Engine) SetCompressionRatio(cylinder string, ratio float64) error {
	for _, c := range e.cylinders {
		if c.Name() == cylinder {
			return c.SetCompressionRatio(ratio)
		}
	}
	return dynamo.Configf("cylinder %q not found", cylinder)
}

// SetCombustion installs model in every cylinder. The engine must have an injector.
func (e *Engine) SetCombustion(model combustion.Model) error {
	if model == nil {
		model = combustion.None{}
	}
	if _, none := model.(combustion.None); !none && e.injector == nil {
		return dynamo.Configf("a combustion model cannot be added to an engine without an injector")
	}
	for _, c := range e.cylinders {
		if err := c.SetCombustion(model); err != nil {
			return err
		}
	}
	e.model = model
	return nil
}

// SetAirFuelRatio changes λ of every injector and of the combustion model.
func (e *Engine) SetAirFuelRatio(lambda float64) error {
	if e.injector == nil {
		return dynamo.Configf("engine has no injector")
	}
	if err := e.injector.SetAirFuelRatio(lambda); err != nil {
		return err
	}
	for _, c := range e.cylinders {
		if err := c.SetAirFuelRatio(lambda); err != nil {
			return err
		}
	}
	if tz, ok := e.model.(*combustion.TwoZone); ok {
		if err := tz.SetAirFuelRatio(lambda); err != nil {
			return err
		}
	}
	if e.cfg.Injector != nil {
		ic := *e.cfg.Injector
		ic.AirFuelRatio = lambda
		e.cfg.Injector = &ic
	}
	return nil
}

func (e *Engine) SetStoreSpecies(store bool) {
	for _, c := range e.cylinders {
		c.SetStoreSpecies(store)
	}
}
