package system

import (
	"github.com/sirupsen/logrus"

	"github.com/san-kum/enginesim/internal/connector"
	"github.com/san-kum/enginesim/internal/dynamo"
	"github.com/san-kum/enginesim/internal/engine"
	"github.com/san-kum/enginesim/internal/thermo"
	"github.com/san-kum/enginesim/internal/zerodim"
)

// Duct is a one-dimensional element. No implementation exists yet; the
// builder rejects every duct.
type Duct interface {
	Name() string
	Length() float64
}

// Builder collects elements and connectors by name. Every Add method returns
// the builder; the first error sticks and is returned by Build.
type Builder struct {
	engine     *engine.Engine
	elements   []zerodim.Element
	connectors []connector.Connector
	names      map[string]bool
	err        error
	logger     logrus.FieldLogger
}

func NewBuilder() *Builder {
	return &Builder{names: make(map[string]bool), logger: logrus.StandardLogger()}
}

func (b *Builder) WithLogger(l logrus.FieldLogger) *Builder {
	b.logger = l
	return b
}

// Err returns the first error recorded so far.
func (b *Builder) Err() error { return b.err }

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

func (b *Builder) claim(name, kind string) bool {
	if b.err != nil {
		return false
	}
	if name == "" {
		b.fail(dynamo.Configf("%s needs a name", kind))
		return false
	}
	if b.names[name] {
		b.fail(dynamo.Configf("%s %q: name already in use", kind, name))
		return false
	}
	b.names[name] = true
	return true
}

// AddEngine adds the cylinders and valves of an engine record. A system holds
// at most one engine.
func (b *Builder) AddEngine(cfg engine.Config, gas *thermo.Gas) *Builder {
	if b.err != nil {
		return b
	}
	if b.engine != nil {
		return b.fail(dynamo.Configf("system already has an engine"))
	}
	e, err := engine.New(cfg, gas)
	if err != nil {
		return b.fail(err)
	}
	for _, c := range e.Cylinders() {
		if !b.claim(c.Name(), "cylinder") {
			return b
		}
	}
	for _, v := range e.Valves() {
		if !b.claim(v.Name(), "valve") {
			return b
		}
	}
	b.engine = e
	for _, c := range e.Cylinders() {
		b.elements = append(b.elements, c)
	}
	for _, v := range e.Valves() {
		b.connectors = append(b.connectors, v)
	}
	b.logger.WithFields(logrus.Fields{
		"cylinders": len(e.Cylinders()),
		"valves":    len(e.Valves()),
		"speed":     e.Speed(),
	}).Debug("engine added")
	return b
}

func (b *Builder) AddEnvironment(name string, gas *thermo.Gas) *Builder {
	if !b.claim(name, "environment") {
		return b
	}
	env, err := zerodim.NewEnvironment(name, gas)
	if err != nil {
		return b.fail(err)
	}
	b.elements = append(b.elements, env)
	b.logger.WithFields(logrus.Fields{"name": name, "T": gas.T(), "P": gas.P()}).Debug("environment added")
	return b
}

// AddReservoir adds a constant-volume element; volume is in cm³.
func (b *Builder) AddReservoir(name string, volume float64, gas *thermo.Gas) *Builder {
	if !b.claim(name, "reservoir") {
		return b
	}
	r, err := zerodim.NewReservoir(name, gas, volume*1e-6)
	if err != nil {
		return b.fail(err)
	}
	b.elements = append(b.elements, r)
	b.logger.WithFields(logrus.Fields{"name": name, "volume_cm3": volume}).Debug("reservoir added")
	return b
}

// AddOrifice adds an orifice of the given diameter [mm] and discharge
// coefficient. Missing endpoints can be attached later with Connect.
func (b *Builder) AddOrifice(name string, diameter, cd float64, endpoints ...string) *Builder {
	if !b.claim(name, "orifice") {
		return b
	}
	o, err := connector.NewOrifice(name, diameter*1e-3, cd, endpoints...)
	if err != nil {
		return b.fail(err)
	}
	b.connectors = append(b.connectors, o)
	b.logger.WithFields(logrus.Fields{"name": name, "diameter_mm": diameter, "cd": cd, "endpoints": endpoints}).Debug("orifice added")
	return b
}

func (b *Builder) AddDuct(d Duct) *Builder {
	return b.fail(dynamo.Configf("duct %q: one-dimensional elements are not supported", d.Name()))
}

// Connect attaches element as an additional endpoint of the named connector.
func (b *Builder) Connect(connectorName, element string) *Builder {
	if b.err != nil {
		return b
	}
	for _, c := range b.connectors {
		if c.Name() == connectorName {
			if err := c.Connect(element); err != nil {
				return b.fail(err)
			}
			b.logger.WithFields(logrus.Fields{"connector": connectorName, "element": element}).Debug("connected")
			return b
		}
	}
	return b.fail(dynamo.Configf("connect %q -> %q: connector not found", connectorName, element))
}

// Build resolves every connector endpoint to an element index and returns the
// assembled system.
func (b *Builder) Build() (*System, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.elements) == 0 {
		return nil, dynamo.Configf("system has no elements")
	}

	index := make(map[string]int, len(b.elements))
	for i, e := range b.elements {
		index[e.Name()] = i
	}

	s := &System{
		engine:     b.engine,
		elements:   b.elements,
		connectors: b.connectors,
		touching:   make([][]endpointRef, len(b.elements)),
		ends:       make([][2]int, len(b.connectors)),
		states:     make([][]dynamo.Properties, len(b.connectors)),
		logger:     b.logger,
		settings:   DefaultSettings(),
	}

	for ci, c := range b.connectors {
		eps := c.Endpoints()
		if len(eps) != 2 {
			return nil, &dynamo.ObjectError{Object: c.Name(), Op: "build", Err: dynamo.Configf("connector needs two endpoints, has %v", eps)}
		}
		for k, name := range eps {
			ei, ok := index[name]
			if !ok {
				return nil, &dynamo.ObjectError{Object: c.Name(), Op: "build", Err: dynamo.Configf("endpoint %q does not exist", name)}
			}
			if err := checkEndpoint(c, k, b.elements[ei]); err != nil {
				return nil, err
			}
			s.ends[ci][k] = ei
			s.touching[ei] = append(s.touching[ei], endpointRef{connector: ci, end: k})
		}
		s.states[ci] = make([]dynamo.Properties, 2)
	}

	for ei, e := range b.elements {
		if len(s.touching[ei]) == 0 {
			return nil, &dynamo.ObjectError{Object: e.Name(), Op: "build", Err: dynamo.Configf("element is not connected")}
		}
		if cyl, ok := e.(*zerodim.Cylinder); ok {
			if err := checkCylinderValves(cyl, s.touching[ei], b.connectors); err != nil {
				return nil, err
			}
		}
		s.inflows = append(s.inflows, make([]zerodim.Inflow, len(s.touching[ei])))
	}

	s.samples = make([]series, len(b.elements)+len(b.connectors))
	s.lookup = make(map[string]int, len(s.samples))
	for i, e := range b.elements {
		s.lookup[e.Name()] = i
	}
	for i, c := range b.connectors {
		s.lookup[c.Name()] = len(b.elements) + i
	}
	if err := s.resetSamples(0); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"elements":   len(s.elements),
		"connectors": len(s.connectors),
	}).Debug("system built")
	return s, nil
}

// checkEndpoint enforces that valves join their own cylinder (endpoint 0) to a
// non-cylinder, and that orifices never touch a cylinder.
func checkEndpoint(c connector.Connector, k int, e zerodim.Element) error {
	isCylinder := e.Kind() == zerodim.KindCylinder
	switch {
	case c.Kind() == connector.KindValve && k == 0 && !isCylinder:
		return &dynamo.ObjectError{Object: c.Name(), Op: "build", Err: dynamo.Configf("valve must start at a cylinder, not %s %q", e.Kind(), e.Name())}
	case c.Kind() == connector.KindValve && k == 1 && isCylinder:
		return &dynamo.ObjectError{Object: c.Name(), Op: "build", Err: dynamo.Configf("valve cannot lead into cylinder %q", e.Name())}
	case c.Kind() == connector.KindOrifice && isCylinder:
		return &dynamo.ObjectError{Object: c.Name(), Op: "build", Err: dynamo.Configf("orifice cannot join cylinder %q; use a valve", e.Name())}
	}
	return nil
}

func checkCylinderValves(cyl *zerodim.Cylinder, refs []endpointRef, connectors []connector.Connector) error {
	attached := make(map[string]bool, len(refs))
	for _, r := range refs {
		attached[connectors[r.connector].Name()] = true
	}
	intake, exhaust := cyl.Valves()
	for _, v := range append(intake, exhaust...) {
		if !attached[v] {
			return &dynamo.ObjectError{Object: cyl.Name(), Op: "build", Err: dynamo.Configf("valve %q is not connected", v)}
		}
	}
	return nil
}
