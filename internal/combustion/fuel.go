package combustion

import (
	"github.com/san-kum/enginesim/internal/dynamo"
	"github.com/san-kum/enginesim/internal/thermo"
)

// Lower heating values [J/kg] used when a fuel record does not carry one.
var DefaultLHV = map[string]float64{
	"CH4":    50.0e6,
	"C2H5OH": 25.858e6,
	"C8H18":  44.651e6,
	"C3H8":   46.35e6,
}

// Fuel describes a single-species fuel and its stoichiometry.
type Fuel struct {
	Name      string
	MolarMass float64 // [kg/kmol]
	LHV       float64 // [J/kg]
	HeatVap   float64 // [J/kg]
	Carbon    float64
	Hydrogen  float64
	Oxygen    float64
	Nitrogen  float64
	// AirMoles is the kmol of O2 needed per kmol of fuel: C + H/4 - O/2.
	AirMoles float64

	x []float64
}

// NewFuel looks up name in the table. A non-positive lhv selects DefaultLHV.
func NewFuel(table *thermo.Table, name string, lhv, heatVap float64) (*Fuel, error) {
	sp, err := table.Lookup(name)
	if err != nil {
		return nil, err
	}
	if lhv <= 0 {
		v, ok := DefaultLHV[name]
		if !ok {
			return nil, dynamo.Configf("fuel %s has no stored lower heating value; set lhv explicitly", name)
		}
		lhv = v
	}
	if heatVap < 0 {
		return nil, dynamo.Configf("fuel %s: heat of vaporization must not be negative", name)
	}

	f := &Fuel{
		Name:      name,
		MolarMass: sp.MolarMass,
		LHV:       lhv,
		HeatVap:   heatVap,
		Carbon:    sp.Atoms["C"],
		Hydrogen:  sp.Atoms["H"],
		Oxygen:    sp.Atoms["O"],
		Nitrogen:  sp.Atoms["N"],
		x:         make([]float64, table.Len()),
	}
	f.AirMoles = f.Carbon + 0.25*f.Hydrogen - 0.5*f.Oxygen
	if f.AirMoles <= 0 {
		return nil, dynamo.Configf("fuel %s needs no oxygen to burn; atoms %v", name, sp.Atoms)
	}
	f.x[table.Index(name)] = 1.0
	return f, nil
}

// MoleFractions returns the composition of the pure fuel vapour.
func (f *Fuel) MoleFractions() []float64 {
	return append([]float64(nil), f.x...)
}

// AirMolarMass returns the mass [kg] of air carrying one kmol of O2.
func AirMolarMass(air *thermo.Gas) (float64, error) {
	xO2, err := air.MoleFractionOf("O2")
	if err != nil {
		return 0, err
	}
	if xO2 <= 0 {
		return 0, dynamo.Configf("air %s contains no O2", air.Name())
	}
	return air.M() / xO2, nil
}

// StoichiometricAFR returns the stoichiometric air-fuel mass ratio.
func (f *Fuel) StoichiometricAFR(air *thermo.Gas) (float64, error) {
	am, err := AirMolarMass(air)
	if err != nil {
		return 0, err
	}
	return f.AirMoles * am / f.MolarMass, nil
}
