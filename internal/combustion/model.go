package combustion

import "github.com/san-kum/enginesim/internal/thermo"

// Model is the heat-release and composition strategy used by a cylinder.
// Implementations are stateful across one combustion event, so every
// cylinder owns its own copy (see Clone).
type Model interface {
	Name() string
	// HeatReleaseRate returns the heat released per crank-angle radian [J/rad].
	HeatReleaseRate(gas *thermo.Gas, fuelMass, angle float64) float64
	// UpdateComposition returns the bulk mole fractions after combustion has
	// progressed to angle, with pressure p and volume v.
	UpdateComposition(gas *thermo.Gas, mass, angle, p, v float64) ([]float64, error)
	// IgnitionAngle is the start of combustion [rad].
	IgnitionAngle() float64
	Clone() Model
}

type None struct{}

func (None) Name() string                                          { return "no combustion model" }
func (None) HeatReleaseRate(*thermo.Gas, float64, float64) float64 { return 0 }
func (None) IgnitionAngle() float64                                { return 0 }
func (None) Clone() Model                                          { return None{} }

func (None) UpdateComposition(gas *thermo.Gas, _, _, _, _ float64) ([]float64, error) {
	return gas.MoleFractions(), nil
}
