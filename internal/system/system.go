package system

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/enginesim/internal/combustion"
	"github.com/san-kum/enginesim/internal/connector"
	"github.com/san-kum/enginesim/internal/dynamo"
	"github.com/san-kum/enginesim/internal/engine"
	"github.com/san-kum/enginesim/internal/integrators"
	"github.com/san-kum/enginesim/internal/zerodim"
)

type endpointRef struct {
	connector int
	end       int
}

type series struct {
	headers []string
	rows    [][]float64
}

// Observer is notified after each completed cycle of AdvanceToSteadyState.
// Systems without an engine report a single cycle at the end of the run.
type Observer interface {
	OnCycle(cycle, cycles int, t float64)
}

// System owns the elements and connectors of a network and steps them with a
// staggered scheme: elements advance on the previous step's flows, then every
// connector recomputes its flow from the fresh states.
type System struct {
	engine     *engine.Engine
	elements   []zerodim.Element
	connectors []connector.Connector

	touching [][]endpointRef // element -> connectors touching it
	ends     [][2]int        // connector -> element index per endpoint
	states   [][]dynamo.Properties
	inflows  [][]zerodim.Inflow

	time       float64
	times      []float64
	samples    []series // elements first, then connectors
	lookup     map[string]int
	maxSamples int
	cycleStart int

	settings  Settings
	history   []engine.Performance
	observers []Observer
	logger    logrus.FieldLogger
}

func (s *System) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *System) SetLogger(l logrus.FieldLogger) { s.logger = l }

// Engine returns the engine, or nil for a pure network.
func (s *System) Engine() *engine.Engine { return s.engine }

func (s *System) Elements() []zerodim.Element       { return s.elements }
func (s *System) Connectors() []connector.Connector { return s.connectors }
func (s *System) Time() float64                     { return s.time }
func (s *System) Settings() Settings                { return s.settings }

// History returns one performance point per completed steady-state run.
func (s *System) History() []engine.Performance {
	return append([]engine.Performance(nil), s.history...)
}

// Advance moves the system forward by dt seconds and records one sample.
func (s *System) Advance(dt float64) error {
	for _, e := range s.elements {
		if err := e.Advance(dt); err != nil {
			return err
		}
	}
	for ci, c := range s.connectors {
		st := s.states[ci]
		for k, ei := range s.ends[ci] {
			st[k] = s.elements[ei].State()
		}
		if err := c.UpdateFlow(st, dt); err != nil {
			return err
		}
	}
	for ei, e := range s.elements {
		in := s.inflows[ei]
		for i, r := range s.touching[ei] {
			c := s.connectors[r.connector]
			in[i] = zerodim.Inflow{Connector: c.Name(), Flow: c.FlowAt(r.end)}
		}
		if err := e.UpdateFlow(in); err != nil {
			return err
		}
	}
	s.time += dt
	return s.sample()
}

func (s *System) resetSamples(maxSamples int) error {
	s.maxSamples = maxSamples
	s.time = 0
	s.cycleStart = 0
	s.times = s.times[:0]
	for i := range s.samples {
		s.samples[i] = series{headers: s.object(i).Headers()}
	}
	return s.sample()
}

type sampler interface {
	Headers() []string
	Sample() []float64
}

func (s *System) object(i int) sampler {
	if i < len(s.elements) {
		return s.elements[i]
	}
	return s.connectors[i-len(s.elements)]
}

func (s *System) sample() error {
	if s.maxSamples > 0 && len(s.times) >= s.maxSamples {
		return fmt.Errorf("%w: limit of %d samples reached at t=%g s", dynamo.ErrSampleCapacity, s.maxSamples, s.time)
	}
	s.times = append(s.times, s.time)
	for i := range s.samples {
		s.samples[i].rows = append(s.samples[i].rows, s.object(i).Sample())
	}
	return nil
}

// AdvanceToSteadyState resets the sample buffers and runs for a fixed budget:
// MaxCycles four-stroke cycles or MaxTime seconds, whichever comes first.
// Steady state is assumed at the end of the budget, not detected. With an
// engine the final cycle is evaluated and appended to the history.
func (s *System) AdvanceToSteadyState(ctx context.Context, set Settings) (engine.Performance, error) {
	if err := set.Validate(); err != nil {
		return engine.Performance{}, err
	}
	if err := s.applyIntegrator(set.Integrator); err != nil {
		return engine.Performance{}, err
	}
	s.settings = set
	if err := s.resetSamples(set.MaxSamples); err != nil {
		return engine.Performance{}, err
	}

	dt := set.FallbackStep
	steps := int(math.Ceil(set.MaxTime/dt - 1e-9))
	perCycle := steps
	cycles := 1
	if s.engine != nil {
		perCycle = set.StepsPerCycle()
		dt = set.CrankStep / (6 * s.engine.Speed())
		steps = min(set.MaxCycles*perCycle, int(math.Floor(set.MaxTime/dt+1e-9)))
		cycles = max(1, steps/perCycle)
	}

	for i := 1; i <= steps; i++ {
		select {
		case <-ctx.Done():
			return engine.Performance{}, ctx.Err()
		default:
		}
		if err := s.Advance(dt); err != nil {
			return engine.Performance{}, err
		}
		if i%perCycle == 0 || i == steps {
			cycle := min((i+perCycle-1)/perCycle, cycles)
			s.logger.WithFields(logrus.Fields{"cycle": cycle, "time": s.time}).Debug("cycle completed")
			for _, o := range s.observers {
				o.OnCycle(cycle, cycles, s.time)
			}
		}
	}
	s.cycleStart = max(0, len(s.times)-1-perCycle)

	if s.engine == nil {
		s.logger.WithFields(logrus.Fields{"time": s.time, "samples": len(s.times)}).Info("run finished")
		return engine.Performance{}, nil
	}
	perf, err := s.performance()
	if err != nil {
		return engine.Performance{}, err
	}
	s.history = append(s.history, perf)
	s.logger.WithFields(logrus.Fields{
		"speed":    perf.Speed,
		"power":    perf.Power,
		"torque":   perf.Torque,
		"imep":     perf.IMEP,
		"eta":      perf.Efficiency,
		"vol_eff":  perf.VolumetricEfficiency,
		"residual": perf.Residual,
	}).Info("operating point finished")
	return perf, nil
}

func (s *System) applyIntegrator(name string) error {
	for _, e := range s.elements {
		if u, ok := e.(interface{ SetIntegrator(dynamo.Integrator) }); ok {
			in, err := integrators.ByName(name)
			if err != nil {
				return err
			}
			u.SetIntegrator(in)
		}
	}
	return nil
}

// performance reads the final-cycle pressure and volume columns of every
// cylinder sample.
func (s *System) performance() (engine.Performance, error) {
	cyls := s.engine.Cylinders()
	traces := make([]engine.Trace, len(cyls))
	for i, c := range cyls {
		rows, err := s.FinalCycle(c.Name())
		if err != nil {
			return engine.Performance{}, err
		}
		tr := engine.Trace{Pressure: make([]float64, len(rows)), Volume: make([]float64, len(rows))}
		for j, r := range rows {
			tr.Pressure[j] = r[1] * 1e5
			tr.Volume[j] = r[3] * 1e-6
		}
		traces[i] = tr
	}
	return s.engine.Performance(traces)
}

// Names lists the tracked objects, elements first.
func (s *System) Names() []string {
	names := make([]string, len(s.samples))
	for name, i := range s.lookup {
		names[i] = name
	}
	return names
}

func (s *System) find(name string) (*series, error) {
	i, ok := s.lookup[name]
	if !ok {
		return nil, dynamo.Configf("object %q not found", name)
	}
	return &s.samples[i], nil
}

func (s *System) Headers(name string) ([]string, error) {
	sr, err := s.find(name)
	if err != nil {
		return nil, err
	}
	return sr.headers, nil
}

// Samples returns every row recorded for name since the last reset.
func (s *System) Samples(name string) ([][]float64, error) {
	sr, err := s.find(name)
	if err != nil {
		return nil, err
	}
	return sr.rows, nil
}

// FinalCycle returns the rows of the last cycle of the latest run.
func (s *System) FinalCycle(name string) ([][]float64, error) {
	sr, err := s.find(name)
	if err != nil {
		return nil, err
	}
	return sr.rows[s.cycleStart:], nil
}

func (s *System) Times() []float64           { return s.times }
func (s *System) FinalCycleTimes() []float64 { return s.times[s.cycleStart:] }
func (s *System) CycleStart() int            { return s.cycleStart }

func (s *System) Element(name string) (zerodim.Element, error) {
	if i, ok := s.lookup[name]; ok && i < len(s.elements) {
		return s.elements[i], nil
	}
	return nil, dynamo.Configf("element %q not found", name)
}

func (s *System) Connector(name string) (connector.Connector, error) {
	if i, ok := s.lookup[name]; ok && i >= len(s.elements) {
		return s.connectors[i-len(s.elements)], nil
	}
	return nil, dynamo.Configf("connector %q not found", name)
}

func (s *System) requireEngine() error {
	if s.engine == nil {
		return dynamo.Configf("system has no engine")
	}
	return nil
}

func (s *System) SetSpeed(rpm float64) error {
	if err := s.requireEngine(); err != nil {
		return err
	}
	return s.engine.SetSpeed(rpm)
}

func (s *System) SetAirFuelRatio(lambda float64) error {
	if err := s.requireEngine(); err != nil {
		return err
	}
	return s.engine.SetAirFuelRatio(lambda)
}

func (s *System) SetDisplacement(cm3 float64) error {
	if err := s.requireEngine(); err != nil {
		return err
	}
	return s.engine.SetDisplacement(cm3)
}

func (s *System) SetCompressionRatio(cylinder string, ratio float64) error {
	if err := s.requireEngine(); err != nil {
		return err
	}
	return s.engine.SetCompressionRatio(cylinder, ratio)
}

func (s *System) SetCombustion(model combustion.Model) error {
	if err := s.requireEngine(); err != nil {
		return err
	}
	return s.engine.SetCombustion(model)
}

func (s *System) SetStoreSpecies(store bool) error {
	if err := s.requireEngine(); err != nil {
		return err
	}
	s.engine.SetStoreSpecies(store)
	return nil
}
