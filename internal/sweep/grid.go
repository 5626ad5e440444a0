package sweep

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/enginesim/internal/dynamo"
	"github.com/san-kum/enginesim/internal/engine"
	"github.com/san-kum/enginesim/internal/system"
)

// Grid parameters understood by Apply.
const (
	ParamSpeed            = "speed"
	ParamLambda           = "lambda"
	ParamDisplacement     = "displacement"
	ParamCompressionRatio = "compression_ratio"
)

// Param is one axis of the grid.
type Param struct {
	Name   string
	Values []float64
}

// ParseParam reads "name=v1,v2,...".
func ParseParam(s string) (Param, error) {
	name, list, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(list) == "" {
		return Param{}, dynamo.Configf("grid parameter %q: want name=v1,v2", s)
	}
	p := Param{Name: strings.TrimSpace(name)}
	for _, f := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Param{}, dynamo.Configf("grid parameter %q: bad value %q", p.Name, f)
		}
		p.Values = append(p.Values, v)
	}
	return p, nil
}

// Apply sets one parameter on the engine of sys. Compression ratio is
// applied to every cylinder.
func Apply(sys *system.System, name string, value float64) error {
	switch name {
	case ParamSpeed:
		return sys.SetSpeed(value)
	case ParamLambda:
		return sys.SetAirFuelRatio(value)
	case ParamDisplacement:
		return sys.SetDisplacement(value)
	case ParamCompressionRatio:
		if sys.Engine() == nil {
			return dynamo.Configf("system has no engine")
		}
		for _, c := range sys.Engine().Cylinders() {
			if err := sys.SetCompressionRatio(c.Name(), value); err != nil {
				return err
			}
		}
		return nil
	}
	return dynamo.Configf("unknown grid parameter %q", name)
}

// Metric extracts the quantity to maximize from a performance point.
func Metric(name string) (func(engine.Performance) float64, error) {
	switch name {
	case "power":
		return func(p engine.Performance) float64 { return p.Power }, nil
	case "torque":
		return func(p engine.Performance) float64 { return p.Torque }, nil
	case "imep":
		return func(p engine.Performance) float64 { return p.IMEP }, nil
	case "efficiency":
		return func(p engine.Performance) float64 { return p.Efficiency }, nil
	case "volumetric_efficiency":
		return func(p engine.Performance) float64 { return p.VolumetricEfficiency }, nil
	case "residual":
		return func(p engine.Performance) float64 { return -p.Residual }, nil
	}
	return nil, dynamo.Configf("unknown metric %q", name)
}

// Best is the winning grid point.
type Best struct {
	Params      map[string]float64
	Value       float64
	Performance engine.Performance
	Evaluated   int
}

// GridSearch evaluates every combination of its parameters on one system
// and keeps the point with the largest metric.
type GridSearch struct {
	params []Param
	logger logrus.FieldLogger
}

func NewGridSearch(params ...Param) *GridSearch {
	return &GridSearch{params: params, logger: logrus.StandardLogger()}
}

func (g *GridSearch) WithLogger(l logrus.FieldLogger) *GridSearch {
	g.logger = l
	return g
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, p := range g.params {
		n *= len(p.Values)
	}
	return n
}

func (g *GridSearch) Search(ctx context.Context, sys *system.System, set system.Settings, metric func(engine.Performance) float64) (Best, error) {
	if sys.Engine() == nil {
		return Best{}, dynamo.Configf("grid search needs an engine")
	}
	if len(g.params) == 0 || g.Size() == 0 {
		return Best{}, dynamo.Configf("grid search needs at least one value per parameter")
	}
	best := Best{Value: math.Inf(-1)}
	err := g.searchRecursive(ctx, 0, make(map[string]float64, len(g.params)), sys, set, metric, &best)
	return best, err
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	sys *system.System,
	set system.Settings,
	metric func(engine.Performance) float64,
	best *Best,
) error {
	if depth == len(g.params) {
		perf, err := sys.AdvanceToSteadyState(ctx, set)
		if err != nil {
			return err
		}
		best.Evaluated++
		val := metric(perf)
		g.logger.WithFields(logrus.Fields{"params": current, "value": val}).Debug("grid point")
		if val > best.Value {
			best.Value = val
			best.Performance = perf
			best.Params = make(map[string]float64, len(current))
			for k, v := range current {
				best.Params[k] = v
			}
		}
		return nil
	}

	p := g.params[depth]
	for _, val := range p.Values {
		if err := Apply(sys, p.Name, val); err != nil {
			return err
		}
		current[p.Name] = val
		if err := g.searchRecursive(ctx, depth+1, current, sys, set, metric, best); err != nil {
			return err
		}
	}
	return nil
}
