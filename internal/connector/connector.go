package connector

import (
	"fmt"

	"github.com/san-kum/enginesim/internal/dynamo"
)

type Kind int

const (
	KindOrifice Kind = iota
	KindValve
)

func (k Kind) String() string {
	switch k {
	case KindOrifice:
		return "orifice"
	case KindValve:
		return "valve"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Connector exchanges mass and energy between exactly two control volumes.
//
// UpdateFlow receives the endpoint states in the order of Endpoints and stores
// one FlowRatio per endpoint, signed into that endpoint. The two flows are
// always exact negations of each other.
type Connector interface {
	Name() string
	Kind() Kind
	Endpoints() []string
	Connect(element string) error
	UpdateFlow(states []dynamo.Properties, dt float64) error
	FlowTo(element string) (dynamo.FlowRatio, error)
	// FlowAt returns the flow into the i-th endpoint.
	FlowAt(i int) dynamo.FlowRatio
	Headers() []string
	Sample() []float64
}

// link holds the endpoint bookkeeping shared by all connectors.
type link struct {
	name      string
	endpoints []string
	flows     [2]dynamo.FlowRatio
}

func (l *link) Name() string { return l.name }

func (l *link) Endpoints() []string {
	return append([]string(nil), l.endpoints...)
}

func (l *link) Connect(element string) error {
	if element == "" {
		return &dynamo.ObjectError{Object: l.name, Op: "connect", Err: dynamo.Configf("empty element name")}
	}
	if len(l.endpoints) >= 2 {
		return &dynamo.ObjectError{
			Object: l.name,
			Op:     "connect",
			Err:    dynamo.Configf("connector already joins %v; cannot add %q", l.endpoints, element),
		}
	}
	for _, e := range l.endpoints {
		if e == element {
			return &dynamo.ObjectError{Object: l.name, Op: "connect", Err: dynamo.Configf("%q is already connected", element)}
		}
	}
	l.endpoints = append(l.endpoints, element)
	return nil
}

func (l *link) FlowTo(element string) (dynamo.FlowRatio, error) {
	for i, e := range l.endpoints {
		if e == element {
			return l.flows[i], nil
		}
	}
	return dynamo.FlowRatio{}, &dynamo.ObjectError{
		Object: l.name,
		Op:     "flow to",
		Err:    dynamo.Invariantf("object %q is not connected", element),
	}
}

func (l *link) FlowAt(i int) dynamo.FlowRatio { return l.flows[i] }

func (l *link) resetFlow() {
	l.flows = [2]dynamo.FlowRatio{}
}

// checkStates verifies that states match the endpoints one to one.
func (l *link) checkStates(states []dynamo.Properties) error {
	if len(l.endpoints) != 2 {
		return &dynamo.ObjectError{Object: l.name, Op: "update flow", Err: dynamo.Configf("connector needs two endpoints, has %d", len(l.endpoints))}
	}
	if len(states) != 2 {
		return &dynamo.ObjectError{Object: l.name, Op: "update flow", Err: dynamo.Invariantf("need the state of two objects, got %d", len(states))}
	}
	for i, s := range states {
		if s.Name != l.endpoints[i] {
			return &dynamo.ObjectError{
				Object: l.name,
				Op:     "update flow",
				Err:    dynamo.Invariantf("object %q is not connected as endpoint %d (%q)", s.Name, i, l.endpoints[i]),
			}
		}
	}
	return nil
}

// post stores the flow leaving up and entering down.
func (l *link) post(up, down int, f dynamo.FlowRatio) {
	l.flows[up] = f.Neg()
	l.flows[down] = f
}
