package zerodim

import (
	"fmt"

	"github.com/san-kum/enginesim/internal/combustion"
	"github.com/san-kum/enginesim/internal/dynamo"
	"github.com/san-kum/enginesim/internal/thermo"
)

type InjectionType int

const (
	PortInjection InjectionType = iota
	DirectInjection
)

func (t InjectionType) String() string {
	switch t {
	case PortInjection:
		return "port"
	case DirectInjection:
		return "direct"
	default:
		return fmt.Sprintf("InjectionType(%d)", int(t))
	}
}

func ParseInjectionType(s string) (InjectionType, error) {
	switch s {
	case "port":
		return PortInjection, nil
	case "direct":
		return DirectInjection, nil
	}
	return 0, dynamo.Configf("unknown injector type %q (port|direct)", s)
}

// Injector meters fuel against the fresh charge at a relative air-fuel ratio.
type Injector struct {
	kind         InjectionType
	lambda       float64
	fuel         *combustion.Fuel
	airMolarMass float64
	fuelFrac     float64
	afrStoich    float64
}

func NewInjector(kind InjectionType, lambda float64, fuel *combustion.Fuel, air *thermo.Gas) (*Injector, error) {
	if fuel == nil {
		return nil, dynamo.Configf("injector needs a fuel")
	}
	am, err := combustion.AirMolarMass(air)
	if err != nil {
		return nil, err
	}
	inj := &Injector{kind: kind, fuel: fuel, airMolarMass: am}
	if err := inj.SetAirFuelRatio(lambda); err != nil {
		return nil, err
	}
	return inj, nil
}

// SetAirFuelRatio changes λ and the derived fuel fraction.
func (i *Injector) SetAirFuelRatio(lambda float64) error {
	if lambda <= 0 {
		return dynamo.Configf("relative air-fuel ratio must be positive, got %g", lambda)
	}
	i.lambda = lambda
	airMass := lambda * i.fuel.AirMoles * i.airMolarMass
	i.fuelFrac = i.fuel.MolarMass / (i.fuel.MolarMass + airMass)
	i.afrStoich = i.fuel.AirMoles * i.airMolarMass / i.fuel.MolarMass
	return nil
}

func (i *Injector) Type() InjectionType        { return i.kind }
func (i *Injector) AirFuelRatio() float64      { return i.lambda }
func (i *Injector) Fuel() *combustion.Fuel     { return i.fuel }
func (i *Injector) StoichiometricAFR() float64 { return i.afrStoich }

// FuelMassFraction is the fuel share of a port-injected charge.
func (i *Injector) FuelMassFraction() float64 { return i.fuelFrac }

// PortFuel returns the fuel mass carried by a port-injected charge.
func (i *Injector) PortFuel(charge float64) float64 { return i.fuelFrac * charge }

// DirectFuel returns the fuel mass injected for a trapped air mass.
func (i *Injector) DirectFuel(air float64) float64 { return air / (i.lambda * i.afrStoich) }

func (i *Injector) Clone() *Injector {
	c := *i
	return &c
}
