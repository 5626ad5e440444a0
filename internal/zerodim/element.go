package zerodim

import (
	"fmt"

	"github.com/san-kum/enginesim/internal/dynamo"
	"github.com/san-kum/enginesim/internal/thermo"
)

type Kind int

const (
	KindEnvironment Kind = iota
	KindReservoir
	KindCylinder
)

func (k Kind) String() string {
	switch k {
	case KindEnvironment:
		return "environment"
	case KindReservoir:
		return "reservoir"
	case KindCylinder:
		return "cylinder"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Inflow is the flow a single connector delivers into an element.
type Inflow struct {
	Connector string
	Flow      dynamo.FlowRatio
}

// Element is a lumped control volume. Advance integrates the element over dt
// with the flows last passed to UpdateFlow.
type Element interface {
	Name() string
	Kind() Kind
	State() dynamo.Properties
	Advance(dt float64) error
	UpdateFlow(flows []Inflow) error
	Headers() []string
	Sample() []float64
}

func gasProperties(name string, g *thermo.Gas) dynamo.Properties {
	return dynamo.Properties{
		Name:        name,
		Pressure:    g.P(),
		Temperature: g.T(),
		Cp:          g.Cp(),
		Cv:          g.Cv(),
		K:           g.K(),
		GasConst:    g.R(),
	}
}

func sumFlows(flows []Inflow) dynamo.FlowRatio {
	var total dynamo.FlowRatio
	for _, f := range flows {
		total = total.Add(f.Flow)
	}
	return total
}
